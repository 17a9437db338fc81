// Package apperr defines the sentinel error kinds shared across the
// pipeline, collected once since every layer (ingest, search, megadoc,
// objectstore, httpapi) needs to classify and translate the same kinds.
package apperr

import "errors"

var (
	// ErrBadInput marks a caller mistake: malformed filename, search string
	// under the minimum length, unparsable query.
	ErrBadInput = errors.New("bad input")
	// ErrNotFound marks a missing entity or file the caller referenced.
	ErrNotFound = errors.New("not found")
	// ErrBusy marks a request rejected because the loading latch is held.
	ErrBusy = errors.New("busy")
	// ErrTransient marks a retryable failure whose retries were exhausted.
	ErrTransient = errors.New("transient error")
	// ErrUploadFailed marks an object-store upload that exhausted its
	// retries, carrying the last attempt's error as its wrapped cause.
	ErrUploadFailed = errors.New("upload failed")
	// ErrInvariantViolation marks a detected inconsistency between the
	// database and the full-text index that requires a rebuild.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrNotImplemented marks a request for an unsupported filetype/feature.
	ErrNotImplemented = errors.New("not implemented")
)
