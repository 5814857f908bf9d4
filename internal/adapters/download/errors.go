package download

import "errors"

// Sentinel kinds for download errors.
var (
	ErrBadStatus = errors.New("download returned non-200 status")
	ErrRequest   = errors.New("download request failed")
	ErrWrite     = errors.New("write sound file")
	ErrPanic     = errors.New("download panicked")
)
