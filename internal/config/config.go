// Package config builds runtime configuration from an optional TOML file
// and environment variables. Environment always wins.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultBaseURL is used when neither VALUECARDS_BASE_URL nor the hosting
// platform's PUBLIC_URL is set.
const DefaultBaseURL = "http://localhost:8080"

type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// DBPath is the SQLite database file.
	DBPath string
	// BaseURL is the public origin used in share links and emails.
	BaseURL string
	// ResendAPIKey authenticates against the email provider.
	ResendAPIKey string
	// EmailFrom is the fully formed sender header.
	EmailFrom string
}

type tomlConfig struct {
	Addr      string `toml:"addr"`
	DBPath    string `toml:"db"`
	BaseURL   string `toml:"base_url"`
	EmailFrom string `toml:"email_from"`
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads valuecards.toml from the working directory if present, then
// applies environment overrides.
func Load() *Config {
	cfg := &Config{
		Addr:      ":8080",
		DBPath:    "valuecards.db",
		EmailFrom: "Purpose Built <onboarding@resend.dev>",
	}

	if _, err := os.Stat("valuecards.toml"); err == nil {
		var tc tomlConfig
		if _, err := toml.DecodeFile("valuecards.toml", &tc); err == nil {
			if tc.Addr != "" {
				cfg.Addr = tc.Addr
			}
			if tc.DBPath != "" {
				cfg.DBPath = tc.DBPath
			}
			if tc.BaseURL != "" {
				cfg.BaseURL = tc.BaseURL
			}
			if tc.EmailFrom != "" {
				cfg.EmailFrom = tc.EmailFrom
			}
		}
	}

	cfg.Addr = getEnv("VALUECARDS_ADDR", cfg.Addr)
	cfg.DBPath = getEnv("VALUECARDS_DB", cfg.DBPath)
	cfg.ResendAPIKey = getEnv("RESEND_API_KEY", cfg.ResendAPIKey)
	cfg.EmailFrom = getEnv("VALUECARDS_EMAIL_FROM", cfg.EmailFrom)

	// Public origin: explicit setting, then the platform-provided URL,
	// then the local default.
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = getEnv("VALUECARDS_BASE_URL", getEnv("PUBLIC_URL", cfg.BaseURL))

	return cfg
}
