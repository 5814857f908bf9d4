package player

import "errors"

// Sentinel kinds for playback errors.
var (
	ErrNotFound = errors.New("sound can't be found")
	ErrStart    = errors.New("start playback")
	ErrBackend  = errors.New("unknown player backend")
)
