package domain

import (
	"errors"
	"fmt"
)

// NetworkError reports a transport failure or a non-2xx response.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		if e.Err != nil {
			return fmt.Sprintf("network error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("network error for %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// FormatError reports content that could not be parsed at all.
type FormatError struct {
	What string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error: cannot parse %s: %v", e.What, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ExtractionError reports a soft failure of a detail extraction strategy.
type ExtractionError struct {
	Strategy string
	URL      string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction via %s failed for %s: %v", e.Strategy, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// IOError reports a failure to persist or read a dataset.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error on %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Stage names a fatal step of a run.
type Stage string

const (
	StageListing  Stage = "listing"
	StageEnrich   Stage = "enrich"
	StageWrite    Stage = "write"
	StageSnapshot Stage = "snapshot"
	StageNotify   Stage = "notify"
)

// StageError tells the user which stage of a run failed and why.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage extracts the failed stage from an error chain.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
