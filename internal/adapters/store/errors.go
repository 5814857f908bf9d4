package store

import "errors"

// ErrCreateDir is returned when the sound directory cannot be created.
var ErrCreateDir = errors.New("create sound directory")
