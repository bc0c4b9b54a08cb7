// Package pubform is a content-submission form built with Go, Echo, and templ.
// A user fills in title, author, department, category, body, media items,
// tags and a featured flag; the form normalizes the input and inserts one
// row into a content table, either a local SQLite store or a hosted
// PostgREST/Supabase project.
//
// Users provide their own templ templates via the ViewFuncs struct (the
// views package ships a default set), and pubform handles the handler
// logic, sessions, middleware and persistence.
package pubform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// FormView is everything a template needs to draw the form.
type FormView struct {
	SiteName  string
	Form      FormState
	Outcome   Outcome
	CSRFToken string

	// Categories lists the allowed categories; nil means free text.
	Categories []string
	// MediaMode is one of MediaCombined, MediaList, MediaInline.
	MediaMode string
	// Warning is a local, non-persisted message (incomplete media item,
	// missing fields, rate limit).
	Warning string
	Missing []string
	// PollFeedback is set when success feedback auto-dismisses, so the
	// page can refresh the banner.
	PollFeedback bool
}

// IsMissing reports whether field failed the required check.
func (v FormView) IsMissing(field string) bool {
	for _, m := range v.Missing {
		if m == field {
			return true
		}
	}
	return false
}

// ViewFuncs holds the templ components the handlers render.
type ViewFuncs struct {
	FormPage    func(v FormView) templ.Component
	FormPartial func(v FormView) templ.Component
	Feedback    func(v FormView) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App wires together the content store, form sessions, handlers,
// middleware and templates.
type App struct {
	Config   Config
	Echo     *echo.Echo
	Inserter Inserter
	Sessions *Sessions
	Views    ViewFuncs

	categories   CategoryPolicy
	media        MediaPolicy
	limiter      *SubmitLimiter
	configPath   string
	customRoutes []func(*App)
	closers      []func() error
	initialized  bool
}

// Option configures additional App behavior.
type Option func(*App)

// WithInserter uses ins instead of building a store from the config.
func WithInserter(ins Inserter) Option {
	return func(a *App) {
		a.Inserter = ins
	}
}

// WithConfigFile records the config file the App was loaded from; the
// fixed category list is reloaded when it changes.
func WithConfigFile(path string) Option {
	return func(a *App) {
		a.configPath = path
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// New creates an App with the given configuration and view functions.
func New(cfg Config, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init validates the config, opens the content store, and registers
// middleware and routes. Start calls it; tests call it directly.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("pubform: %w", err)
	}

	if a.Inserter == nil {
		ins, closer, err := OpenBackend(a.Config)
		if err != nil {
			return fmt.Errorf("pubform: init store: %w", err)
		}
		a.Inserter = ins
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}

	categories, err := NewCategoryPolicy(a.Config.Category.Mode, a.Config.Category.Options)
	if err != nil {
		return err
	}
	a.categories = categories

	media, err := NewMediaPolicy(a.Config.Media.Mode, a.Config.Media.Type)
	if err != nil {
		return err
	}
	a.media = media

	a.limiter = NewSubmitLimiter(a.Config.SubmitLimit, a.Config.SubmitWindow)
	a.Sessions = NewSessions(a.Config.SessionTTL, a.newController)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

func (a *App) newController() *Controller {
	return NewController(a.Inserter,
		WithMediaPolicy(a.media),
		WithTable(a.Config.Table),
		WithLogger(a.Echo.Logger),
		WithFeedbackTimeout(a.Config.FeedbackTimeout),
	)
}

// OpenBackend builds the Inserter named by cfg.Backend. The returned
// closer, if non-nil, releases it.
func OpenBackend(cfg Config) (Inserter, func() error, error) {
	switch cfg.Backend {
	case BackendPostgREST:
		rs, err := NewRemoteStore(cfg.PostgRESTURL, cfg.PostgRESTKey)
		if err != nil {
			return nil, nil, err
		}
		return rs, nil, nil
	case BackendSQLite, "":
		table := cfg.Table
		if table == "" {
			table = DefaultTable
		}
		st, err := NewStoreTable(cfg.DatabasePath, table)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Start initializes the app and serves until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(); err != nil {
		return err
	}

	if fixed, ok := a.categories.(*FixedSet); ok && a.configPath != "" {
		if err := WatchCategories(ctx, a.configPath, fixed, a.Echo.Logger); err != nil {
			a.Echo.Logger.Warnf("watch %s: %v", a.configPath, err)
		}
	}

	errc := make(chan error, 1)
	go func() {
		errc <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Echo.Shutdown(shutdownCtx)
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Sessions != nil {
		a.Sessions.Close()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	var errs []error
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
