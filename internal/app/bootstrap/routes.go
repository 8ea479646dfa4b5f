// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authfeature "github.com/dalemusser/assurance/internal/app/features/auth"
	claimsfeature "github.com/dalemusser/assurance/internal/app/features/claims"
	errorsfeature "github.com/dalemusser/assurance/internal/app/features/errors"
	healthfeature "github.com/dalemusser/assurance/internal/app/features/health"
	policiesfeature "github.com/dalemusser/assurance/internal/app/features/policies"
	"github.com/dalemusser/assurance/internal/app/lifecycle/claimlife"
	"github.com/dalemusser/assurance/internal/app/lifecycle/policylife"
	"github.com/dalemusser/assurance/internal/app/store/audit"
	claimstore "github.com/dalemusser/assurance/internal/app/store/claims"
	policystore "github.com/dalemusser/assurance/internal/app/store/policies"
	userstore "github.com/dalemusser/assurance/internal/app/store/users"
	"github.com/dalemusser/assurance/internal/app/system/auditlog"
	"github.com/dalemusser/assurance/internal/app/system/auth"
	"github.com/dalemusser/assurance/internal/app/system/metrics"
	"github.com/dalemusser/assurance/internal/app/system/ratelimit"
	"github.com/dalemusser/assurance/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Stores, the lifecycle engines and the
// Identity Gate are built here and handed to the feature routers, which are
// mounted under /api. /health and /metrics sit outside the API prefix and
// outside the request throttle.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Shared infrastructure
	users := userstore.New(db)
	policies := policystore.New(db)
	claims := claimstore.New(db)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:   appCfg.AuditLogAuth,
		Policy: appCfg.AuditLogPolicy,
		Claim:  appCfg.AuditLogClaim,
	})
	rec := metrics.New()
	issuer := auth.NewIssuer(appCfg.JWTSecret, appCfg.JWTAccessTTL, appCfg.JWTRefreshTTL)
	gate := auth.NewGate(issuer, users, logger)

	// Lifecycle engines
	policyEngine := policylife.New(policies, txn.Runner{DB: db, Log: logger}, auditLog, rec, logger)
	claimEngine := claimlife.New(claims, policies, auditLog, rec, logger)

	errorsHandler := errorsfeature.NewHandler(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(errorsHandler.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{appCfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, serviceName, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", rec.Handler())

	limiter := ratelimit.New(appCfg.RateLimitRequests, appCfg.RateLimitWindow)
	loginLimiter := ratelimit.NewLoginLimiter(
		appCfg.LoginRateLimit, appCfg.LoginRateLimitWindow,
		appCfg.LoginRateLimit, appCfg.LoginRateLimitWindow)

	r.Route("/api", func(api chi.Router) {
		api.Use(ratelimit.Middleware(limiter, logger))
		api.NotFound(errorsHandler.NotFound)
		api.MethodNotAllowed(errorsHandler.MethodNotAllowed)

		authHandler := authfeature.NewHandler(users, issuer, loginLimiter, auditLog, rec, logger)
		api.Mount("/auth", authfeature.Routes(authHandler, gate))

		policiesHandler := policiesfeature.NewHandler(policyEngine, logger)
		api.Mount("/policies", policiesfeature.Routes(policiesHandler, gate))

		claimsHandler := claimsfeature.NewHandler(claimEngine, logger)
		api.Mount("/claims", claimsfeature.Routes(claimsHandler, gate))
	})

	return r, nil
}
