// internal/app/system/auth/lockout.go
package auth

import "time"

// Lockout policy. The failed-login counter itself is kept atomically by
// the user store; reaching MaxLoginAttempts while unlocked locks the
// account for LockDuration, and an expired lock restarts the count.
const (
	MaxLoginAttempts = 5
	LockDuration     = 2 * time.Hour
)
