package origin

import (
	"os"
	"strings"
)

// defaults cover local development; deployments extend the list through the
// ALLOWED_ORIGINS environment variable.
var defaults = []string{
	"http://localhost:3000",
	"https://localhost:3000",
	"http://127.0.0.1:3000",
}

// Allowed reports whether a browser origin may talk to this service. It is
// the single policy consulted by both the CORS middleware and the websocket
// upgrader so the two can never drift. An empty origin (non-browser client)
// is allowed.
func Allowed(o string) bool {
	if o == "" {
		return true
	}

	allowed := defaults
	if customOrigins := os.Getenv("ALLOWED_ORIGINS"); customOrigins != "" {
		allowed = append(append([]string(nil), defaults...), splitOrigins(customOrigins)...)
	}

	for _, candidate := range allowed {
		if o == candidate {
			return true
		}
	}

	// Allow localhost variations for development
	return strings.Contains(o, "localhost") || strings.Contains(o, "127.0.0.1")
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
