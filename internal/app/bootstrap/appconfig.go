// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging); everything below is
// specific to the insurance backend.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Identity Gate tokens
	JWTSecret     string        // HMAC secret for access and refresh tokens
	JWTAccessTTL  time.Duration // Access token lifetime (default 15m)
	JWTRefreshTTL time.Duration // Refresh token lifetime (default 7 days)

	// Browser client allowed by CORS
	FrontendURL string

	// Request throttling
	RateLimitRequests    int           // Requests per client IP per window
	RateLimitWindow      time.Duration // Window for RateLimitRequests
	LoginRateLimit       int           // Login attempts per IP and per email per window
	LoginRateLimitWindow time.Duration

	// Audit logging destinations: all, db, log, off
	AuditLogAuth   string
	AuditLogPolicy string
	AuditLogClaim  string

	// Store call deadlines
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
