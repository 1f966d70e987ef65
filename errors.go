package geodict

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSource means a required source document does not exist.
	ErrMissingSource = errors.New("missing source")

	// ErrMalformedSource means a source document parsed but does not have
	// the shape the build needs.
	ErrMalformedSource = errors.New("malformed source")
)

// SourceError reports a structural failure of one category build.
type SourceError struct {
	Category string
	Path     string
	Err      error
}

func (e *SourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Category, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// malformed returns a SourceError wrapping ErrMalformedSource.
func malformed(category, path, format string, args ...any) error {
	return &SourceError{
		Category: category,
		Path:     path,
		Err:      fmt.Errorf("%w: %s", ErrMalformedSource, fmt.Sprintf(format, args...)),
	}
}
