package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNoName marks a candidate without a usable name.
	ErrNoName = errors.New("no product name found")
	// ErrNoImages marks a candidate without a usable image.
	ErrNoImages = errors.New("no product images found")
	// ErrNoProducts is returned when neither selectors nor the heuristic scan matched.
	ErrNoProducts = errors.New("no product containers found")
	// ErrDisallowed is returned when robots.txt forbids fetching a URL.
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

// FetchError reports that every attempt to fetch a URL failed.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExtractionError reports a failure while reading one candidate element.
// It never aborts the page it came from.
type ExtractionError struct {
	Index int
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract candidate %d: %v", e.Index, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed export side effect.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
