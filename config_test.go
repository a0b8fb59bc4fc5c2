package keywordsai

import (
	"testing"
	"time"
)

func TestJoinPath(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{
			name: "default base",
			base: DefaultBaseURL,
			path: "/v1/traces/ingest",
			want: "https://api.keywordsai.co/api/v1/traces/ingest",
		},
		{
			name: "bare base gains api segment",
			base: "https://self-hosted.example.com",
			path: "/v1/traces/ingest",
			want: "https://self-hosted.example.com/api/v1/traces/ingest",
		},
		{
			name: "bare base with trailing slash",
			base: "https://proxy.internal:8443/",
			path: "datasets",
			want: "https://proxy.internal:8443/api/datasets",
		},
		{
			name: "trailing slash trimmed",
			base: "https://api.keywordsai.co/api/",
			path: "/request-logs/create",
			want: "https://api.keywordsai.co/api/request-logs/create",
		},
		{
			name: "missing leading slash added",
			base: "https://api.keywordsai.co/api",
			path: "datasets",
			want: "https://api.keywordsai.co/api/datasets",
		},
		{
			name: "duplicate api segment collapsed",
			base: "https://api.keywordsai.co/api",
			path: "/api/request-logs/create",
			want: "https://api.keywordsai.co/api/request-logs/create",
		},
		{
			name: "bare api path against api base",
			base: "https://api.keywordsai.co/api",
			path: "/api",
			want: "https://api.keywordsai.co/api/",
		},
		{
			name: "api segment appears once with bare base and api path",
			base: "https://proxy.internal:8443",
			path: "/api/request-logs/create",
			want: "https://proxy.internal:8443/api/request-logs/create",
		},
		{
			name: "path starting with api as a word",
			base: "https://api.keywordsai.co/api",
			path: "/apikeys",
			want: "https://api.keywordsai.co/api/apikeys",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinPath(tt.base, tt.path); got != tt.want {
				t.Errorf("joinPath(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
			}
		})
	}
}

func TestBaseURLFromEnv(t *testing.T) {
	clearEnv(t)

	if got := baseURLFromEnv(); got != DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", got)
	}

	t.Setenv(EnvBaseURLAlias, "https://alias.example.com/api")
	if got := baseURLFromEnv(); got != "https://alias.example.com/api" {
		t.Errorf("expected alias base URL, got %q", got)
	}

	t.Setenv(EnvBaseURL, "https://primary.example.com/api")
	if got := baseURLFromEnv(); got != "https://primary.example.com/api" {
		t.Errorf("expected primary env to win, got %q", got)
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	clearEnv(t)

	if got := apiKeyFromEnv(); got != "" {
		t.Errorf("expected empty key with no env, got %q", got)
	}

	t.Setenv(EnvAPIKeyAlias, "alias-key")
	if got := apiKeyFromEnv(); got != "alias-key" {
		t.Errorf("expected alias key, got %q", got)
	}

	t.Setenv(EnvAPIKey, "primary-key")
	if got := apiKeyFromEnv(); got != "primary-key" {
		t.Errorf("expected primary key to win, got %q", got)
	}
}

func TestResolveOptionsPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvBaseURL, "https://env.example.com/api")

	// Environment fills what options leave unset.
	o := resolveOptions(nil)
	if o.apiKey != "env-key" {
		t.Errorf("expected env API key, got %q", o.apiKey)
	}
	if o.baseURL != "https://env.example.com/api" {
		t.Errorf("expected env base URL, got %q", o.baseURL)
	}
	if o.timeout != 10*time.Second {
		t.Errorf("expected 10s default timeout, got %v", o.timeout)
	}
	if o.logger == nil {
		t.Error("expected a default logger")
	}
	if o.httpClient == nil || o.httpClient.Timeout != 10*time.Second {
		t.Errorf("expected default HTTP client with the resolved timeout, got %+v", o.httpClient)
	}

	// Explicit options beat the environment.
	o = resolveOptions([]Option{
		WithAPIKey("opt-key"),
		WithBaseURL("https://opt.example.com/api"),
		WithTimeout(3 * time.Second),
	})
	if o.apiKey != "opt-key" {
		t.Errorf("expected option API key to win, got %q", o.apiKey)
	}
	if o.baseURL != "https://opt.example.com/api" {
		t.Errorf("expected option base URL to win, got %q", o.baseURL)
	}
	if o.httpClient.Timeout != 3*time.Second {
		t.Errorf("expected HTTP client to pick up the option timeout, got %v", o.httpClient.Timeout)
	}
}
