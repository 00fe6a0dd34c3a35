package loader

import (
	"errors"
	"fmt"
)

// Error categories. Every load failure wraps exactly one of these, so callers can
// classify a failure with errors.Is without inspecting messages.
var (
	// ErrStreamEnded reports that an expected tag or data token was not found before the end of input.
	ErrStreamEnded = errors.New("stream ended")

	// ErrMalformedElement reports a required attribute that is missing or a token that cannot be parsed.
	ErrMalformedElement = errors.New("malformed element")

	// ErrSchemaMismatch reports an element that appears in an unexpected order or role.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrConstraintViolation reports data that parses but breaks a structural rule.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrIOFailure reports a file that cannot be opened or a short read.
	ErrIOFailure = errors.New("io failure")

	// ErrFormatMismatch reports a binary file whose magic string is not the expected one.
	ErrFormatMismatch = errors.New("format mismatch")
)

// Specific failures, each wrapping its category.
var (
	ErrElementNotFound    = fmt.Errorf("element not found: %w", ErrStreamEnded)
	ErrSourceNotFound     = fmt.Errorf("source not found: %w", ErrStreamEnded)
	ErrMissingAttribute   = fmt.Errorf("missing attribute: %w", ErrMalformedElement)
	ErrNonTriangularFace  = fmt.Errorf("non-triangular face: %w", ErrConstraintViolation)
	ErrIndexOutOfRange    = fmt.Errorf("index out of range: %w", ErrConstraintViolation)
	ErrCountMismatch      = fmt.Errorf("count mismatch: %w", ErrConstraintViolation)
	ErrFrameCountMismatch = fmt.Errorf("frame count mismatch: %w", ErrConstraintViolation)
	ErrWeightUnderflow    = fmt.Errorf("weight row below floor: %w", ErrConstraintViolation)
	ErrInvalidHierarchy   = fmt.Errorf("invalid bone hierarchy: %w", ErrConstraintViolation)
	ErrUnsupportedFormat  = errors.New("unsupported model format")
)
