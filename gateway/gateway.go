// Package gateway points OpenAI-compatible clients at the platform's LLM
// proxy. In gateway mode the application's model calls route through the
// platform for logging, spend tracking, and fallbacks, instead of only
// being traced after the fact.
//
// Vendor SDKs need two things: a base URL and credentials on every call.
//
//	base := gateway.BaseURL("")    // https://api.keywordsai.co/api
//	http := gateway.Client("")     // key from KEYWORDSAI_API_KEY
//
// Point the SDK at base and hand it the client; the SDK appends its own
// endpoint paths (/chat/completions and friends).
package gateway

import (
	"net/http"
	"os"
	"strings"

	keywordsai "github.com/Keywords-AI/keywordsai-go"
)

// BaseURL resolves the proxy root. An explicit non-empty base wins, then
// KEYWORDSAI_BASE_URL, then RESPAN_BASE_URL, then the hosted default. The
// platform serves the proxy under "/api"; the segment is appended when the
// base does not already end with it, so both "https://host" and
// "https://host/api" resolve to the same root.
func BaseURL(base string) string {
	if base == "" {
		base = envOr(keywordsai.EnvBaseURL, envOr(keywordsai.EnvBaseURLAlias, keywordsai.DefaultBaseURL))
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	return base
}

// Resolve returns the absolute URL of one proxy endpoint:
//
//	Resolve("https://api.x.ai", "/chat/completions")
//	// https://api.x.ai/api/chat/completions
//
// The "/api" segment appears exactly once whether or not the base or the
// path already carries it.
func Resolve(base, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		path = strings.TrimPrefix(path, "/api")
	}
	return BaseURL(base) + path
}

// Transport is an http.RoundTripper that authenticates proxy requests.
// Wrapping a vendor SDK's HTTP client with it carries the platform
// credentials on every call without touching the SDK's own configuration.
type Transport struct {
	// APIKey authorizes the requests. Empty resolves from
	// KEYWORDSAI_API_KEY / RESPAN_API_KEY on each call.
	APIKey string
	// Base performs the round trips; nil means http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip authorizes req and forwards it to the base transport. The
// RoundTripper contract forbids mutating the caller's request, so headers
// go onto a clone.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := t.APIKey
	if key == "" {
		key = envOr(keywordsai.EnvAPIKey, os.Getenv(keywordsai.EnvAPIKeyAlias))
	}

	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+key)
	// Marks SDK traffic so the platform does not re-trace its own calls.
	out.Header.Set("X-Keywordsai-Dogfood", "true")
	if out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", "keywordsai-go/"+keywordsai.Version)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(out)
}

// Client returns an http.Client that authenticates against the proxy.
// An empty apiKey defers to the environment at call time.
func Client(apiKey string) *http.Client {
	return &http.Client{Transport: &Transport{APIKey: apiKey}}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
