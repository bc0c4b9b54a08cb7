package pubform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

// DefaultTable is the content table records are inserted into.
const DefaultTable = "content"

// DefaultFeedbackTimeout is how long a success banner stays up under the
// timed feedback policy.
const DefaultFeedbackTimeout = 5 * time.Second

// Inserter persists records into a table and returns the inserted rows,
// including any identifiers the store generated.
type Inserter interface {
	Insert(ctx context.Context, table string, records []ContentRecord) ([]map[string]any, error)
}

// Logger is the subset of echo.Logger the controller writes to.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Controller owns one form session: its field values, the submit state
// machine, and the success auto-dismiss task.
type Controller struct {
	inserter Inserter
	media    MediaPolicy
	table    string
	logger   Logger
	timeout  time.Duration // zero disables auto-dismiss

	mu       sync.Mutex
	form     FormState
	outcome  Outcome
	inFlight bool
	closed   bool
	timer    *time.Timer
	gen      uint64 // bumped whenever a pending dismiss must be ignored
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithMediaPolicy sets how media items are captured. Default CombinedField.
func WithMediaPolicy(p MediaPolicy) ControllerOption {
	return func(c *Controller) {
		if p != nil {
			c.media = p
		}
	}
}

// WithTable overrides the destination table (default "content").
func WithTable(table string) ControllerOption {
	return func(c *Controller) {
		if table != "" {
			c.table = table
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFeedbackTimeout makes a success outcome revert to idle after d.
// Zero keeps success until the next submit.
func WithFeedbackTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.timeout = d
	}
}

// NewController creates a Controller that persists through ins.
func NewController(ins Inserter, opts ...ControllerOption) *Controller {
	c := &Controller{
		inserter: ins,
		media:    CombinedField{},
		table:    DefaultTable,
		logger:   log.New("pubform"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MediaPolicy returns the policy the controller normalizes media with.
func (c *Controller) MediaPolicy() MediaPolicy {
	return c.media
}

// Form returns a snapshot of the current field values.
func (c *Controller) Form() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.clone()
}

// Outcome returns the current feedback state.
func (c *Controller) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Update applies input to the form. No validation happens here.
func (c *Controller) Update(fn func(*FormState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.form)
}

// AddMediaItem appends the pending media sub-record to the list. If any
// pending field is empty it returns ErrIncompleteMediaItem and changes nothing.
func (c *Controller) AddMediaItem() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.addMediaItem()
}

// RemoveMediaItem drops the list item at index i.
func (c *Controller) RemoveMediaItem(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.removeMediaItem(i)
}

// Reset restores the initial field values.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = FormState{}
}

// Submit normalizes the form, inserts it and records the outcome.
//
// A store failure is not returned as a Go error by itself: it becomes a
// Failure outcome, and the returned error wraps the *PersistenceError so
// callers can tell the two apart. A call made while another submit is in
// flight is ignored and returns ErrSubmitInFlight.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Outcome{}, ErrControllerClosed
	}
	if c.inFlight {
		out := c.outcome
		c.mu.Unlock()
		return out, ErrSubmitInFlight
	}
	c.inFlight = true
	c.cancelDismissLocked()
	c.outcome = Outcome{Status: StatusSubmitting}
	rec := BuildRecord(c.form, c.media)
	c.mu.Unlock()

	rows, err := c.insert(ctx, rec)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err == nil && len(rows) == 0 {
		err = &PersistenceError{Message: genericPersistenceMessage}
	}
	if err != nil {
		pe := newPersistenceError(err)
		c.logger.Errorf("insert into %s failed: %v", c.table, err)
		out := Outcome{Status: StatusFailure, Message: pe.Message}
		if !c.closed {
			c.outcome = out
		}
		return out, fmt.Errorf("pubform: submit: %w", pe)
	}

	id := contentID(rows[0])
	c.logger.Infof("inserted into %s: content_id=%s", c.table, id)
	out := Outcome{Status: StatusSuccess, ContentID: id}
	// A controller closed mid-insert reports the result but keeps its state.
	if !c.closed {
		c.outcome = out
		c.form = FormState{}
		c.scheduleDismissLocked()
	}
	return out, nil
}

// insert calls the Inserter and turns a panic into an error so a submit
// always ends in Success or Failure.
func (c *Controller) insert(ctx context.Context, rec ContentRecord) (rows []map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = &PersistenceError{
				Message: genericPersistenceMessage,
				Err:     fmt.Errorf("inserter panic: %v", r),
			}
		}
	}()
	if c.inserter == nil {
		return nil, &PersistenceError{Message: "no content store configured"}
	}
	return c.inserter.Insert(ctx, c.table, []ContentRecord{rec})
}

// scheduleDismissLocked starts the success timer. Each call supersedes the
// previous one.
func (c *Controller) scheduleDismissLocked() {
	if c.timeout <= 0 {
		return
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.timeout, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || gen != c.gen || c.outcome.Status != StatusSuccess {
			return
		}
		c.outcome = Outcome{Status: StatusIdle}
		c.timer = nil
	})
}

func (c *Controller) cancelDismissLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Dismiss clears the feedback and returns to idle. It has no effect while
// a submit is in flight.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return
	}
	c.cancelDismissLocked()
	c.outcome = Outcome{Status: StatusIdle}
}

// Close tears the controller down. Pending timers are cancelled and no
// further state changes happen.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cancelDismissLocked()
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// contentID extracts the generated identifier from an inserted row.
func contentID(row map[string]any) string {
	v, ok := row["content_id"]
	if !ok || v == nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return fmt.Sprint(id)
	}
}
