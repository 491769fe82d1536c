package metadata

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrUpstreamUnavailable matches every *UpstreamError.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrNotFound is returned when upstream has no record for an id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for caller mistakes detected before any upstream call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyQuery is the InvalidInput returned for a blank search query.
	ErrEmptyQuery = fmt.Errorf("%w: search query is required", ErrInvalidInput)
)

// UpstreamError is the single opaque failure for a provider call: transport
// error, non-success status or malformed body. Error() names only the provider.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, ErrUpstreamUnavailable)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstreamUnavailable }

// upstreamFailure builds an UpstreamError. *url.Error is unwrapped because its
// message carries the full request URL, and with it the API key.
func upstreamFailure(provider string, err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = fmt.Errorf("%s request: %w", uerr.Op, uerr.Err)
	}
	return &UpstreamError{Provider: provider, Err: err}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
