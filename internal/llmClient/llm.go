package llmclient

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from LLM")

// Prompt is a single-turn request: a system instruction plus the user text.
type Prompt struct {
	System string
	User   string
}

// LLMClient is one configured model backend. Complete returns the raw text
// of the model's reply; callers parse it.
type LLMClient interface {
	Name() string
	Complete(ctx context.Context, p Prompt) (string, error)
	Close() error
}

// PermanentError marks a provider failure that will not resolve by waiting,
// such as a rejected API key or an oversized request.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is or wraps a PermanentError.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
