package video

import (
	"errors"
	"fmt"
)

// Static errors for the video service. These map one-to-one onto HTTP
// status classes at the handler layer.
var (
	// ErrUnsupportedMediaType is returned when an upload does not declare a
	// video content type.
	ErrUnsupportedMediaType = errors.New("uploaded file is not a video")
	// ErrAssetNotFound is returned when a referenced source or derived
	// asset does not exist.
	ErrAssetNotFound = errors.New("video not found")
	// ErrInvalidParameters is returned for malformed crop geometry or an
	// unrecognized grayscale literal.
	ErrInvalidParameters = errors.New("invalid transform parameters")
)

// TranscodeError reports a failed engine invocation. Diagnostic carries
// the engine's raw stderr verbatim; transcode failures are deterministic
// for a given input and are never retried.
type TranscodeError struct {
	Diagnostic string
	Err        error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode failed: %s", e.Diagnostic)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// StorageError reports an I/O failure while reading or writing assets.
// It is kept distinct from TranscodeError because storage failures may be
// transient (disk full) and a caller may choose to retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
