package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the shared error taxonomy. Handlers and RPC surfaces
// map these to status codes; everything else is treated as an internal fault.
var (
	// ErrNotFound indicates a pair or interval that is unknown or disabled
	// in the config registry, or an entity missing from storage.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a malformed request rejected before any work.
	ErrValidation = errors.New("validation failed")
	// ErrAuthFailure indicates a missing or invalid credential.
	ErrAuthFailure = errors.New("authentication failed")
	// ErrForbidden indicates a valid credential lacking the required role.
	ErrForbidden = errors.New("forbidden")
)

// UnsupportedExchangeError is returned when a venue name resolves to no
// registered provider. It is a configuration fault, distinct from a
// transient fetch failure, and is raised before any venue call is made.
type UnsupportedExchangeError struct {
	Exchange string
}

func (e *UnsupportedExchangeError) Error() string {
	return fmt.Sprintf("unsupported exchange: %s", e.Exchange)
}

// IsUnsupportedExchangeError returns true if err is an UnsupportedExchangeError.
func IsUnsupportedExchangeError(err error) bool {
	var target *UnsupportedExchangeError
	return errors.As(err, &target)
}

// FetchError is a transient venue fault (network error, 5xx, timeout).
// The ingestion worker retries it up to its fixed budget, then drops the unit.
type FetchError struct {
	Exchange string
	Symbol   string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s failed: %v", e.Symbol, e.Exchange, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PayloadError indicates a venue response that could not be translated into
// the canonical candle shape (wrong arity, wrong types).
type PayloadError struct {
	Exchange string
	Detail   string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed %s payload: %s", e.Exchange, e.Detail)
}
