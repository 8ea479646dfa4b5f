package bootstrap

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/assurance/internal/app/system/timeouts"
	"github.com/dalemusser/assurance/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:             "mongodb://localhost:27017",
		MongoDatabase:        "assurance_auto",
		JWTSecret:            DevJWTSecret,
		JWTAccessTTL:         15 * time.Minute,
		JWTRefreshTTL:        7 * 24 * time.Hour,
		FrontendURL:          "http://localhost:3000",
		RateLimitRequests:    100,
		RateLimitWindow:      15 * time.Minute,
		LoginRateLimit:       5,
		LoginRateLimitWindow: 15 * time.Minute,
		AuditLogAuth:         "all",
		AuditLogPolicy:       "db",
		AuditLogClaim:        "off",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"defaults in dev", "dev", func(*AppConfig) {}, false},
		{"dev secret in prod", "prod", func(*AppConfig) {}, true},
		{"real secret in prod", "prod", func(c *AppConfig) { c.JWTSecret = "a-long-production-secret-value" }, false},
		{"bad mongo uri", "dev", func(c *AppConfig) { c.MongoURI = "postgres://nope" }, true},
		{"empty secret", "dev", func(c *AppConfig) { c.JWTSecret = "" }, true},
		{"zero access ttl", "dev", func(c *AppConfig) { c.JWTAccessTTL = 0 }, true},
		{"zero rate limit", "dev", func(c *AppConfig) { c.RateLimitRequests = 0 }, true},
		{"unknown audit destination", "dev", func(c *AppConfig) { c.AuditLogClaim = "kafka" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, zap.NewNop())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStartup_ConfiguresTimeouts(t *testing.T) {
	prev := timeouts.Current()
	t.Cleanup(func() { timeouts.Configure(prev) })

	cfg := validAppConfig()
	cfg.TimeoutShort = 3 * time.Second
	cfg.TimeoutLong = time.Minute

	if err := Startup(t.Context(), &config.CoreConfig{}, cfg, DBDeps{}, zap.NewNop()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if timeouts.Short() != 3*time.Second || timeouts.Long() != time.Minute {
		t.Errorf("timeouts = %+v", timeouts.Current())
	}
	if timeouts.Medium() != prev.Medium {
		t.Errorf("medium changed to %v", timeouts.Medium())
	}
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	cfg := validAppConfig()

	if err := EnsureSchema(t.Context(), &config.CoreConfig{}, cfg, deps, zap.NewNop()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, cfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	return h
}

func serve(h http.Handler, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuildHandler_Surface(t *testing.T) {
	h := newTestHandler(t)

	rec := serve(h, testutil.NewRequest("GET", "/api/nope"))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertCode(t, "ROUTE_NOT_FOUND")

	rec = serve(h, testutil.NewRequest("GET", "/nope"))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertCode(t, "ROUTE_NOT_FOUND")

	rec = serve(h, testutil.NewRequest("GET", "/health"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"service":"assurance"`)

	rec = serve(h, testutil.NewRequest("GET", "/metrics"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "go_goroutines")

	rec = serve(h, testutil.NewRequest("GET", "/api/policies"))
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertCode(t, "NO_TOKEN")

	rec = serve(h, testutil.NewRequest("GET", "/api/claims/stats/summary"))
	rec.AssertStatus(t, http.StatusUnauthorized)

	if got := rec.Header().Get("X-RateLimit-Limit"); got != "100" {
		t.Errorf("X-RateLimit-Limit = %q, want 100", got)
	}
}

func TestBuildHandler_CORS(t *testing.T) {
	h := newTestHandler(t)

	req := testutil.NewRequest("OPTIONS", "/api/policies")
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := serve(h, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = testutil.NewRequest("OPTIONS", "/api/policies")
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = serve(h, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

// Register, open a policy, file a claim against it and read both summaries,
// all through the mounted router.
func TestBuildHandler_EndToEnd(t *testing.T) {
	h := newTestHandler(t)

	rec := serve(h, testutil.NewJSONRequest("POST", "/api/auth/register", map[string]any{
		"name":            "Youssef Alami",
		"email":           "youssef@example.ma",
		"password":        "Secret123!",
		"confirmPassword": "Secret123!",
		"phone":           "0612345678",
		"address":         map[string]string{"street": "3 Rue Atlas", "city": "Rabat", "postalCode": "10000"},
	}))
	rec.AssertStatus(t, http.StatusCreated)
	var tk struct {
		AccessToken string `json:"accessToken"`
	}
	rec.Decode(t, &tk)

	authed := func(method, target string, body any) *http.Request {
		req := testutil.NewJSONRequest(method, target, body)
		req.Header.Set("Authorization", "Bearer "+tk.AccessToken)
		return req
	}

	rec = serve(h, authed("POST", "/api/policies", map[string]any{
		"type": "Moto",
		"vehicle": map[string]any{
			"brand": "Yamaha", "model": "MT-07", "year": 2023,
			"plateNumber": "54321B7", "fuelType": "Essence",
		},
		"dates": map[string]string{
			"startDate": "2025-03-01", "endDate": "2026-03-01", "renewalDate": "2026-03-01",
		},
		"financial": map[string]float64{"premium": 2000, "franchise": 1500},
	}))
	rec.AssertStatus(t, http.StatusCreated)
	var pol struct {
		Policy struct {
			ID           string `json:"id"`
			PolicyNumber string `json:"policyNumber"`
		} `json:"policy"`
	}
	rec.Decode(t, &pol)
	if !strings.HasPrefix(pol.Policy.PolicyNumber, "POL") {
		t.Errorf("policyNumber = %q", pol.Policy.PolicyNumber)
	}

	rec = serve(h, authed("POST", "/api/claims", map[string]any{
		"policyId": pol.Policy.ID,
		"type":     "Theft",
		"incident": map[string]any{
			"date":        "2025-06-10",
			"time":        "23:40",
			"location":    map[string]any{"address": "Parking Agdal", "city": "Rabat"},
			"description": "Motorcycle taken from a guarded car park",
		},
		"damages": map[string]any{
			"estimatedAmount": 45000,
			"details":         []map[string]any{{"item": "Motorcycle", "estimatedCost": 45000}},
		},
	}))
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"claimNumber":"CLM`)

	rec = serve(h, authed("GET", "/api/policies/stats/summary", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"totalPolicies":1`)

	rec = serve(h, authed("GET", "/api/claims?status=Draft", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"totalItems":1`)
}
