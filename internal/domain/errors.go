package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for the terminology core. Handlers map these to HTTP status:
// ValidationError -> 400, NotFoundError -> 404, UpstreamError -> 500/502.
// ConflictError is retried inside the repositories and should not normally
// escape. RowError is accumulated per ingestion row, never fatal to a batch.

// ValidationError reports malformed or missing required input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a well-formed lookup with no result. Search returns
// an empty slice instead; translate and get use this.
type NotFoundError struct {
	What string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.Key)
}

// ConflictError reports a concurrent-write collision on a unique key.
type ConflictError struct {
	Key string
	Err error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("write conflict on %s: %v", e.Key, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// UpstreamError reports that a backing system (database, index, RAG service)
// is unreachable or failing. Surfaced, never masked as an empty result.
type UpstreamError struct {
	System string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.System, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// RowError reports a single bad ingestion row.
type RowError struct {
	Row    int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
