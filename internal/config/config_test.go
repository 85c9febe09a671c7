package config

import "testing"

func TestDefaults(t *testing.T) {
	t.Setenv("VALUECARDS_ADDR", "")
	t.Setenv("VALUECARDS_BASE_URL", "")
	t.Setenv("PUBLIC_URL", "")

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Errorf("expected :8080, got %q", cfg.Addr)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", cfg.BaseURL)
	}
	if cfg.DBPath != "valuecards.db" {
		t.Errorf("expected default db path, got %q", cfg.DBPath)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VALUECARDS_ADDR", ":9999")
	t.Setenv("RESEND_API_KEY", "re_test_key")
	t.Setenv("VALUECARDS_BASE_URL", "https://values.example.com")

	cfg := Load()
	if cfg.Addr != ":9999" {
		t.Errorf("expected :9999, got %q", cfg.Addr)
	}
	if cfg.ResendAPIKey != "re_test_key" {
		t.Errorf("expected key from env, got %q", cfg.ResendAPIKey)
	}
	if cfg.BaseURL != "https://values.example.com" {
		t.Errorf("expected explicit base URL, got %q", cfg.BaseURL)
	}
}

func TestPlatformURLFallback(t *testing.T) {
	t.Setenv("VALUECARDS_BASE_URL", "")
	t.Setenv("PUBLIC_URL", "https://platform.example.com")

	cfg := Load()
	if cfg.BaseURL != "https://platform.example.com" {
		t.Errorf("expected platform URL fallback, got %q", cfg.BaseURL)
	}
}
