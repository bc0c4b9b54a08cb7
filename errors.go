package pubform

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIncompleteMediaItem is returned by AddMediaItem when any pending
	// sub-field is empty.
	ErrIncompleteMediaItem = errors.New("media item needs a type, storage path and title")

	// ErrSubmitInFlight is returned when Submit is called while another
	// submission on the same controller has not finished.
	ErrSubmitInFlight = errors.New("a submission is already in progress")

	// ErrControllerClosed is returned by Submit after Close.
	ErrControllerClosed = errors.New("pubform: controller closed")

	// ErrInvalid is matched by every ValidationError.
	ErrInvalid = errors.New("invalid")
)

// genericPersistenceMessage is shown when the store replied with something
// other than a row or a structured error.
const genericPersistenceMessage = "unexpected response from the content store"

// PersistenceError is the failure surfaced when the content insert does not succeed.
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	return e.Message
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// newPersistenceError keeps the store's message verbatim when there is one.
func newPersistenceError(err error) *PersistenceError {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe
	}
	msg := err.Error()
	if strings.TrimSpace(msg) == "" {
		msg = genericPersistenceMessage
	}
	return &PersistenceError{Message: msg, Err: err}
}

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects config problems found by Config.Validate.
type ValidationError struct {
	Items []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Items) == 0 {
		return "validation failed"
	}
	var b strings.Builder
	b.WriteString("validation failed:\n")
	for _, item := range e.Items {
		b.WriteString(" - ")
		b.WriteString(item.Error())
		b.WriteString("\n")
	}
	return b.String()
}

func (e *ValidationError) Add(field, msg string) {
	e.Items = append(e.Items, FieldError{Field: field, Message: msg})
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e ValidationError) HasAny() bool {
	return len(e.Items) > 0
}
