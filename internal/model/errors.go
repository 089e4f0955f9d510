package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable is a network or parse failure of one source. The next source may be tried.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrAllSourcesExhausted means every source failed in auto mode.
	ErrAllSourcesExhausted = errors.New("all sources exhausted")
	// ErrCorruptStore means the persisted log cannot be parsed. It is never auto-repaired.
	ErrCorruptStore = errors.New("corrupt store")
	// ErrInsufficientData means the series is too short for the requested analysis.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidDateRange is a user input error on a date or window.
	ErrInvalidDateRange = errors.New("invalid date range")
)

// SourceFailure records why one source attempt failed.
type SourceFailure struct {
	Source string
	Err    error
}

// AllSourcesExhaustedError carries the per-source failure reasons of an auto fetch.
type AllSourcesExhaustedError struct {
	Failures []SourceFailure
}

func (e *AllSourcesExhaustedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Source, f.Err)
	}
	return fmt.Sprintf("%s (%s)", ErrAllSourcesExhausted, strings.Join(parts, "; "))
}

func (e *AllSourcesExhaustedError) Unwrap() error { return ErrAllSourcesExhausted }

// Unavailable wraps err as a SourceUnavailable failure of the named source.
func Unavailable(source string, err error) error {
	if errors.Is(err, ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", source, ErrSourceUnavailable, err)
}
