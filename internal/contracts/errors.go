package contracts

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable marks the failure mode where no candidate provider
// returned a valid series for a symbol.
var ErrDataUnavailable = errors.New("data unavailable")

// ErrParse marks a malformed row or column from a provider adapter.
var ErrParse = errors.New("parse error")

// DataUnavailableError reports that every candidate provider failed for
// a symbol. It wraps the last provider error when there is one.
type DataUnavailableError struct {
	Ticker    string
	Providers []string
	Last      error
}

func (e *DataUnavailableError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("no data for %s (providers tried: %v): %v", e.Ticker, e.Providers, e.Last)
	}
	return fmt.Sprintf("no data for %s (providers tried: %v)", e.Ticker, e.Providers)
}

func (e *DataUnavailableError) Unwrap() error { return ErrDataUnavailable }

// ParseError reports a malformed provider response. It is treated as a
// fetch failure for that provider and feeds the fallback chain.
type ParseError struct {
	Provider string
	Detail   string
	Row      int
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: malformed row %d: %s", e.Provider, e.Row, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Detail)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// StaleDataWarning signals that a fetched series does not include the
// requested evaluation date as its most recent bar. Reported, not fatal.
type StaleDataWarning struct {
	Ticker    string
	Requested string
	Latest    string
}

func (e *StaleDataWarning) Error() string {
	return fmt.Sprintf("stale data for %s: requested %s, latest bar %s", e.Ticker, e.Requested, e.Latest)
}

// IsDataUnavailable reports whether err is a terminal no-data failure.
func IsDataUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}

// IsParseError reports whether err stems from a malformed provider response.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}
