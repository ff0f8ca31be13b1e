package stacktrace

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned by Validate when an error carries no stack data.
	ErrInvalidInput = errors.New("input has no stack, stacktrace or message")

	// ErrUnsupportedFormat is wrapped by UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported stacktrace format")

	// ErrStackTracesDisabled is returned for Opera errors whose stacktrace
	// property is explicitly false.
	ErrStackTracesDisabled = errors.New("stacktraces are disabled: enable opera:config#UserPrefs|Exceptions Have Stacktrace")

	// ErrUnknownTarget is wrapped by UnknownTargetError.
	ErrUnknownTarget = errors.New("unknown conversion target")
)

// UnsupportedFormatError reports text no dialect recognized.
type UnsupportedFormatError struct {
	Text string
}

func (e *UnsupportedFormatError) Error() string {
	first := e.Text
	for i := 0; i < len(first); i++ {
		if first[i] == '\n' {
			first = first[:i]
			break
		}
	}
	return fmt.Sprintf("%s: %q", ErrUnsupportedFormat, first)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// UnknownTargetError reports a conversion target with no alias match.
type UnknownTargetError struct {
	Target string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownTarget, e.Target)
}

func (e *UnknownTargetError) Unwrap() error { return ErrUnknownTarget }
