package osc

import (
	"time"

	"github.com/okian/audioquery/pkg/logger"
)

// Default listener configuration constants.
const (
	DefaultQueryPath  = "/query"
	DefaultQuitPath   = "/quit"
	defaultPoll       = 50 * time.Millisecond
	minPoll           = time.Millisecond
	defaultBufferSize = 65535
)

// Option applies a configuration option to the Listener.
type Option func(*Listener)

// WithQueryPath sets the address whose messages are handed to the handler.
func WithQueryPath(path string) Option {
	return func(l *Listener) {
		if path != "" {
			l.queryPath = path
		}
	}
}

// WithQuitPath sets the address that stops the listener. Empty disables it.
func WithQuitPath(path string) Option {
	return func(l *Listener) {
		l.quitPath = path
	}
}

// WithPollTimeout sets how long one socket read waits before the drain
// cycle ends. Values below a millisecond are raised to a millisecond.
func WithPollTimeout(d time.Duration) Option {
	return func(l *Listener) {
		l.poll = max(d, minPoll)
	}
}

// WithInbox adds a second message source that is checked before every socket read.
func WithInbox(inbox Inbox) Option {
	return func(l *Listener) {
		l.inbox = inbox
	}
}

// WithLogger overrides the listener logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Listener) {
		if log != nil {
			l.log = log
		}
	}
}
