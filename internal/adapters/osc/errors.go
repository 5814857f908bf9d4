package osc

import "errors"

// Sentinel kinds for listener errors.
var (
	ErrBind      = errors.New("bind OSC socket")
	ErrInterface = errors.New("network interface has no IPv4 address")
)
