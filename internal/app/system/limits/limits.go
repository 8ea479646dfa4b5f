// internal/app/system/limits/limits.go
package limits

// Request body size limits.
const (
	// MaxJSONBodySize is the largest JSON request body the API decodes.
	MaxJSONBodySize = 10 << 20 // 10 MB
)
