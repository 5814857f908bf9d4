// Package selection picks one search result out of the top-ranked window.
package selection

import (
	"math/rand"
	"sync"
	"time"
)

// Default selection configuration constants.
const (
	defaultWindow = 5
)

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithWindow sets how many top results beyond the first are eligible.
func WithWindow(window int) Option {
	return func(s *Selector) {
		if window >= 0 {
			s.window = window
		}
	}
}

// WithSeed makes the selection reproducible.
func WithSeed(seed int64) Option {
	return func(s *Selector) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // selection is not security sensitive
	}
}

// Selector chooses an index in a result list that the remote service has
// already ranked by relevance or rating.
type Selector struct {
	mu     sync.Mutex
	window int
	rng    *rand.Rand
}

// New creates a Selector with the default window of 5.
func New(opts ...Option) *Selector {
	s := &Selector{
		window: defaultWindow,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // selection is not security sensitive
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Window returns the configured window.
func (s *Selector) Window() int {
	return s.window
}

// Pick returns the index to use out of n results, or -1 when n < 1.
//
// A single result is always index 0. Otherwise the index is drawn uniformly
// from [0, min(window, n-1)], which favours the top of the ranking.
func (s *Selector) Pick(n int) int {
	if n < 1 {
		return -1
	}
	if n == 1 {
		return 0
	}
	upper := Upper(s.window, n)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(upper + 1)
}

// Upper is the largest index Pick can return for n results.
func Upper(window, n int) int {
	if n < 1 {
		return -1
	}
	return min(window, n-1)
}
