package dispatcher

import "github.com/okian/audioquery/pkg/logger"

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithEncoding sets the character set a keyword must fit in. Default "ascii".
func WithEncoding(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.encoding = name
		}
	}
}

// WithLogger overrides the dispatcher logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}
