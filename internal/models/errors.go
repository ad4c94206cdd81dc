package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for lookups, deletes and progress updates that
// reference an unknown asset id.
var ErrNotFound = errors.New("not found")

// ValidationError rejects an ingest before any catalog row is created.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// ProbeError is terminal for the asset: the source file is unreadable or
// contains no decodable stream.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe failed for %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// TranscodeError is terminal for the asset: the external engine exited
// non-zero, timed out or could not handle the stream layout.
type TranscodeError struct {
	Reason string
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcode failed: %s: %v", e.Reason, e.Err)
	}
	return "transcode failed: " + e.Reason
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// ThumbnailError is non-fatal: the asset still completes without a thumbnail.
type ThumbnailError struct {
	Err error
}

func (e *ThumbnailError) Error() string {
	return fmt.Sprintf("thumbnail generation failed: %v", e.Err)
}

func (e *ThumbnailError) Unwrap() error { return e.Err }

// StoreError wraps catalog read/write failures.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
