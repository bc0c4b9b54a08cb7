package main

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/eringen/pubform"
)

// loadConfig reads the config file (if any) and applies environment overrides.
func loadConfig() (pubform.Config, error) {
	var cfg pubform.Config
	if configFile != "" {
		loaded, err := pubform.LoadConfig(configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	} else if _, err := os.Stat("pubform.yaml"); err == nil {
		loaded, err := pubform.LoadConfig("pubform.yaml")
		if err != nil {
			return cfg, err
		}
		configFile = "pubform.yaml"
		cfg = loaded
	} else if !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}

	cfg.Name = pubform.EnvOr("PUBFORM_NAME", cfg.Name)
	cfg.Addr = pubform.EnvOr("PUBFORM_ADDR", cfg.Addr)
	cfg.Backend = pubform.EnvOr("PUBFORM_BACKEND", cfg.Backend)
	cfg.DatabasePath = pubform.EnvOr("PUBFORM_DATABASE_PATH", cfg.DatabasePath)
	cfg.PostgRESTURL = pubform.EnvOr("PUBFORM_POSTGREST_URL", cfg.PostgRESTURL)
	cfg.PostgRESTKey = pubform.EnvOr("PUBFORM_POSTGREST_KEY", cfg.PostgRESTKey)
	cfg.SessionSecret = pubform.EnvOr("PUBFORM_SESSION_SECRET", cfg.SessionSecret)
	if v := os.Getenv("PUBFORM_COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, err
		}
		cfg.CookieSecure = secure
	}
	if v := os.Getenv("PUBFORM_FEEDBACK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, err
		}
		cfg.FeedbackTimeout = d
	}
	return cfg.WithDefaults(), nil
}
