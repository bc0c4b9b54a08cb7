package pubform

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendSQLite    = "sqlite"
	BackendPostgREST = "postgrest"
)

// Config holds all configuration for a form site.
type Config struct {
	Name string `yaml:"name"` // Page heading (default "Content Submission Form")
	Addr string `yaml:"addr"` // Listen address (default ":3000")

	Backend      string `yaml:"backend"`       // "sqlite" (default) or "postgrest"
	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/content.db")
	PostgRESTURL string `yaml:"postgrest_url"` // Project URL for the postgrest backend
	PostgRESTKey string `yaml:"postgrest_key"` // API key for the postgrest backend
	Table        string `yaml:"table"`         // Destination table (default "content")

	Category CategoryConfig `yaml:"category"`
	Media    MediaConfig    `yaml:"media"`

	// FeedbackTimeout auto-dismisses a success banner. Zero keeps it up
	// until the next submit.
	FeedbackTimeout time.Duration `yaml:"feedback_timeout"`

	SessionSecret string        `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool          `yaml:"cookie_secure"`  // Set true for HTTPS
	SessionTTL    time.Duration `yaml:"session_ttl"`    // Idle form session lifetime (default 12h)

	SubmitLimit  int           `yaml:"submit_limit"`  // Max submits per IP per window (default 20, negative disables)
	SubmitWindow time.Duration `yaml:"submit_window"` // Limiter window (default 1m)
}

// CategoryConfig selects free-text or fixed-list categories.
type CategoryConfig struct {
	Mode    string   `yaml:"mode"` // "free" (default) or "fixed"
	Options []string `yaml:"options"`
}

// MediaConfig selects how media items are captured.
type MediaConfig struct {
	Mode string `yaml:"mode"` // "combined" (default), "list" or "inline"
	Type string `yaml:"type"` // item type for the combined mode (default "mp3")
}

// DefaultCategories is used for the fixed category mode when no options are configured.
var DefaultCategories = []string{"News", "Announcements", "Events", "Podcasts", "Research"}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "Content Submission Form"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/content.db"
	}
	if c.Table == "" {
		c.Table = DefaultTable
	}
	if c.Category.Mode == "" {
		c.Category.Mode = CategoryFree
	}
	if c.Category.Mode == CategoryFixed && len(FilterEmpty(c.Category.Options)) == 0 {
		c.Category.Options = append([]string(nil), DefaultCategories...)
	}
	if c.Media.Mode == "" {
		c.Media.Mode = MediaCombined
	}
	if c.Media.Type == "" {
		c.Media.Type = DefaultMediaType
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 12 * time.Hour
	}
	if c.SubmitLimit == 0 {
		c.SubmitLimit = 20
	}
	if c.SubmitWindow == 0 {
		c.SubmitWindow = time.Minute
	}
}

// WithDefaults returns a copy of c with every unset field defaulted.
func (c Config) WithDefaults() Config {
	c.setDefaults()
	return c
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var ve ValidationError

	switch c.Backend {
	case BackendSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			ve.Add("database_path", "must not be empty")
		}
	case BackendPostgREST:
		if !isValidAbsURL(c.PostgRESTURL) {
			ve.Add("postgrest_url", "must be a valid absolute URL")
		}
		if strings.TrimSpace(c.PostgRESTKey) == "" {
			ve.Add("postgrest_key", "must not be empty")
		}
	default:
		ve.Add("backend", "must be 'sqlite' or 'postgrest'")
	}

	if !tableName.MatchString(c.Table) {
		ve.Add("table", "must be a plain identifier")
	}

	switch c.Category.Mode {
	case CategoryFree, CategoryFixed:
	default:
		ve.Add("category.mode", "must be 'free' or 'fixed'")
	}

	switch c.Media.Mode {
	case MediaCombined, MediaList, MediaInline:
	default:
		ve.Add("media.mode", "must be 'combined', 'list' or 'inline'")
	}

	if c.FeedbackTimeout < 0 {
		ve.Add("feedback_timeout", "must not be negative")
	}
	if strings.TrimSpace(c.SessionSecret) == "" {
		ve.Add("session_secret", "must not be empty")
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// LoadConfig reads a YAML config file over the defaults. Fields absent from
// the file keep their default values. The result is not validated; env
// overrides usually still need to be applied.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.setDefaults()
	return cfg, nil
}

// TimedFeedback returns a copy of cfg with the standard 5 second
// success auto-dismiss.
func (c Config) TimedFeedback() Config {
	c.FeedbackTimeout = DefaultFeedbackTimeout
	return c
}

// WatchCategories reloads the fixed category options whenever the config
// file at path changes. It returns when ctx is cancelled.
func WatchCategories(ctx context.Context, path string, set *FixedSet, logger Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors often replace the file, so watch the directory.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return err
	}
	go watchLoop(ctx, w, path, set, logger)
	return nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, set *FixedSet, logger Logger) {
	defer w.Close()
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce.Reset(200 * time.Millisecond)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warnf("config watcher error: %v", err)
		case <-debounce.C:
			cfg, err := LoadConfig(path)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					logger.Warnf("reload %s: %v", path, err)
				}
				continue
			}
			if cfg.Category.Mode != CategoryFixed {
				continue
			}
			set.Replace(cfg.Category.Options)
			logger.Infof("reloaded %d categories from %s", len(set.Options()), path)
		}
	}
}
