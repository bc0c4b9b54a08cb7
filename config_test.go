package pubform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pubform.yaml")
	writeFile(t, path, `
name: Newsroom intake
backend: postgrest
postgrest_url: https://example.supabase.co
postgrest_key: anon
category:
  mode: fixed
  options: [News, Events]
media:
  mode: list
feedback_timeout: 5s
session_secret: s3cret
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "Newsroom intake" || cfg.Backend != BackendPostgREST {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Addr != ":3000" || cfg.Table != "content" || cfg.Media.Type != "mp3" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.FeedbackTimeout != 5*time.Second {
		t.Errorf("FeedbackTimeout = %v", cfg.FeedbackTimeout)
	}
	if !reflect.DeepEqual(cfg.Category.Options, []string{"News", "Events"}) {
		t.Errorf("Options = %q", cfg.Category.Options)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestFixedCategoryDefaults(t *testing.T) {
	cfg := Config{Category: CategoryConfig{Mode: CategoryFixed}}.WithDefaults()
	if !reflect.DeepEqual(cfg.Category.Options, DefaultCategories) {
		t.Errorf("Options = %q", cfg.Category.Options)
	}
}

func TestValidate(t *testing.T) {
	base := Config{SessionSecret: "x"}.WithDefaults()
	if err := base.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"backend", func(c *Config) { c.Backend = "mongo" }, "backend"},
		{"postgrest url", func(c *Config) { c.Backend = BackendPostgREST; c.PostgRESTKey = "k"; c.PostgRESTURL = "ftp://x" }, "postgrest_url"},
		{"postgrest key", func(c *Config) { c.Backend = BackendPostgREST; c.PostgRESTURL = "https://x.io" }, "postgrest_key"},
		{"table", func(c *Config) { c.Table = "content;" }, "table"},
		{"category", func(c *Config) { c.Category.Mode = "dropdown" }, "category.mode"},
		{"media", func(c *Config) { c.Media.Mode = "upload" }, "media.mode"},
		{"timeout", func(c *Config) { c.FeedbackTimeout = -time.Second }, "feedback_timeout"},
		{"secret", func(c *Config) { c.SessionSecret = "" }, "session_secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate = %v, want ErrInvalid", err)
			}
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error is %T", err)
			}
			found := false
			for _, item := range ve.Items {
				if item.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for %s in %v", tt.field, ve.Items)
			}
		})
	}
}

func TestWatchCategoriesReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pubform.yaml")
	writeFile(t, path, "category:\n  mode: fixed\n  options: [News]\n")

	set := NewFixedSet([]string{"News"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := WatchCategories(ctx, path, set, quietLogger()); err != nil {
		t.Fatalf("WatchCategories: %v", err)
	}

	writeFile(t, path, "category:\n  mode: fixed\n  options: [News, Podcasts]\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if set.Accept("Podcasts") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("categories not reloaded, options = %q", set.Options())
}
