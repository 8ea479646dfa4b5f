// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/assurance/internal/app/system/auditlog"
	"github.com/dalemusser/assurance/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// DevJWTSecret is the out-of-the-box signing secret. It is refused in prod.
const DevJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for the insurance backend.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: ASSURANCE_MONGO_URI, ASSURANCE_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "assurance_auto", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Identity Gate
	{Name: "jwt_secret", Default: DevJWTSecret, Desc: "Token signing secret (must be strong in production)"},
	{Name: "jwt_access_ttl", Default: "15m", Desc: "Access token lifetime"},
	{Name: "jwt_refresh_ttl", Default: "168h", Desc: "Refresh token lifetime"},

	// CORS
	{Name: "frontend_url", Default: "http://localhost:3000", Desc: "Origin allowed to call the API from a browser"},

	// Throttling
	{Name: "rate_limit_requests", Default: 100, Desc: "Requests per client IP per window"},
	{Name: "rate_limit_window", Default: "15m", Desc: "Window for rate_limit_requests"},
	{Name: "login_rate_limit", Default: 5, Desc: "Login attempts per IP and per email per window"},
	{Name: "login_rate_limit_window", Default: "15m", Desc: "Window for login_rate_limit"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_policy", Default: "all", Desc: "Policy event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_claim", Default: "all", Desc: "Claim event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Store call deadlines
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document store calls"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list and stats queries"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for multi-document work such as renewal"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, ASSURANCE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ASSURANCE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:     appValues.String("jwt_secret"),
		JWTAccessTTL:  appValues.Duration("jwt_access_ttl", 15*time.Minute),
		JWTRefreshTTL: appValues.Duration("jwt_refresh_ttl", 7*24*time.Hour),

		FrontendURL: appValues.String("frontend_url"),

		RateLimitRequests:    appValues.Int("rate_limit_requests"),
		RateLimitWindow:      appValues.Duration("rate_limit_window", 15*time.Minute),
		LoginRateLimit:       appValues.Int("login_rate_limit"),
		LoginRateLimitWindow: appValues.Duration("login_rate_limit_window", 15*time.Minute),

		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogPolicy: appValues.String("audit_log_policy"),
		AuditLogClaim:  appValues.String("audit_log_claim"),

		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked to catch configuration errors early,
// before attempting to connect. Production must not run on the
// development token secret.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret must be set")
	}
	if coreCfg.Env == "prod" && appCfg.JWTSecret == DevJWTSecret {
		return fmt.Errorf("jwt_secret must be changed from the development default in prod")
	}
	if appCfg.JWTAccessTTL <= 0 || appCfg.JWTRefreshTTL <= 0 {
		return fmt.Errorf("jwt_access_ttl and jwt_refresh_ttl must be positive")
	}
	if appCfg.RateLimitRequests <= 0 || appCfg.LoginRateLimit <= 0 {
		return fmt.Errorf("rate_limit_requests and login_rate_limit must be positive")
	}

	for name, v := range map[string]string{
		"audit_log_auth":   appCfg.AuditLogAuth,
		"audit_log_policy": appCfg.AuditLogPolicy,
		"audit_log_claim":  appCfg.AuditLogClaim,
	} {
		switch v {
		case "", auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("%s: unknown destination %q", name, v)
		}
	}

	return nil
}
