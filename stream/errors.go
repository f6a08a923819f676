package stream

import (
	"errors"
	"strings"
)

var (
	// ErrConfiguration is returned when operation parameters are invalid.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrShapeMismatch is returned when mapped function changes number of
	// samples in a buffer.
	ErrShapeMismatch = errors.New("function changed number of samples")
	// ErrChannelMismatch is returned when buffers have different number of
	// channels.
	ErrChannelMismatch = errors.New("number of channels mismatch")
	// ErrChannelIndex is returned when selected channel doesn't exist.
	ErrChannelIndex = errors.New("channel index out of range")
	// ErrSingleUse is returned when single-use source is opened twice.
	ErrSingleUse = errors.New("single-use source is already consumed")
)

// closeErrors wraps errors of iterators that failed to close.
type closeErrors []error

func (e closeErrors) Error() string {
	s := make([]string, 0, len(e))
	for _, err := range e {
		s = append(s, err.Error())
	}
	return strings.Join(s, ", ")
}

// Unwrap allows to match any of wrapped errors.
func (e closeErrors) Unwrap() []error {
	return e
}

// ret returns untyped nil if list is empty.
func (e closeErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
