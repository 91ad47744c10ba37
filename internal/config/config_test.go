package config

import "testing"

func TestGetDefaults(t *testing.T) {
	cfg := GetDefaults()
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Detector.Provider != "ollama" {
		t.Errorf("default detector provider = %q", cfg.Detector.Provider)
	}
	if cfg.Dictionary.Driver != "memory" {
		t.Errorf("default dictionary driver = %q", cfg.Dictionary.Driver)
	}
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config { return GetDefaults() }

	t.Run("BadPort", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		if err := validateConfig(cfg); err == nil {
			t.Error("expected error for port 0")
		}
	})

	t.Run("BadDetectorProvider", func(t *testing.T) {
		cfg := base()
		cfg.Detector.Provider = "gpt"
		if err := validateConfig(cfg); err == nil {
			t.Error("expected error for unknown detector provider")
		}
	})

	t.Run("PostgresWithoutURL", func(t *testing.T) {
		cfg := base()
		cfg.Dictionary.Driver = "postgres"
		cfg.Dictionary.DatabaseURL = ""
		if err := validateConfig(cfg); err == nil {
			t.Error("expected error for postgres driver without database_url")
		}
	})

	t.Run("CacheEnabledWithoutURL", func(t *testing.T) {
		cfg := base()
		cfg.Cache.Enabled = true
		cfg.Cache.RedisURL = ""
		if err := validateConfig(cfg); err == nil {
			t.Error("expected error for enabled cache without redis_url")
		}
	})

	t.Run("BadLogLevel", func(t *testing.T) {
		cfg := base()
		cfg.Logging.Level = "verbose"
		if err := validateConfig(cfg); err == nil {
			t.Error("expected error for unknown log level")
		}
	})
}
