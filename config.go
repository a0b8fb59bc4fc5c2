package keywordsai

import (
	"os"
	"strings"
)

// DefaultBaseURL is the hosted platform endpoint used when neither an option
// nor an environment variable overrides it.
const DefaultBaseURL = "https://api.keywordsai.co/api"

// Environment variables read at construction. The KEYWORDSAI_* names win
// over their RESPAN_* aliases when both are set; explicit options win over
// either.
const (
	EnvAPIKey       = "KEYWORDSAI_API_KEY"
	EnvBaseURL      = "KEYWORDSAI_BASE_URL"
	EnvAPIKeyAlias  = "RESPAN_API_KEY"
	EnvBaseURLAlias = "RESPAN_BASE_URL"
)

func apiKeyFromEnv() string {
	return envStr(EnvAPIKey, envStr(EnvAPIKeyAlias, ""))
}

func baseURLFromEnv() string {
	return envStr(EnvBaseURL, envStr(EnvBaseURLAlias, DefaultBaseURL))
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// joinPath appends an endpoint path to the base URL. The platform serves
// everything under a single "/api" segment: trailing slashes on the base are
// trimmed, a base that does not already end in "/api" gains the segment, and
// a leading "/api" on the path collapses into it, so "https://host",
// "https://host/", and "https://host/api" all address the same deployment.
func joinPath(base, path string) string {
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		path = strings.TrimPrefix(path, "/api")
		if path == "" {
			path = "/"
		}
	}
	return base + path
}
