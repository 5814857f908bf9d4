package search

import (
	"net/http"
	"time"

	"github.com/okian/audioquery/pkg/logger"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultShowResults = 10
	defaultPageSize    = 15
	defaultSource      = "freesound"
	defaultMinDuration = 1
	defaultMaxDuration = 20
	maxResponseBytes   = 8 << 20
)

// settings is shared by every provider.
type settings struct {
	client      *http.Client
	timeout     time.Duration
	token       string
	source      string
	minDuration float64
	maxDuration float64
	pageSize    int
	showResults int
	log         logger.Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		client:      http.DefaultClient,
		timeout:     defaultTimeout,
		source:      defaultSource,
		minDuration: defaultMinDuration,
		maxDuration: defaultMaxDuration,
		pageSize:    defaultPageSize,
		showResults: defaultShowResults,
		log:         logger.Named("search"),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option applies a configuration option to a provider.
type Option func(*settings)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout bounds each search request.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithToken sets the API credential sent as the "token" parameter.
func WithToken(token string) Option {
	return func(s *settings) {
		s.token = token
	}
}

// WithSource sets the content provider filter used by Audio Commons.
func WithSource(source string) Option {
	return func(s *settings) {
		if source != "" {
			s.source = source
		}
	}
}

// WithDurationRange limits Freesound results to sounds between minSec and maxSec.
func WithDurationRange(minSec, maxSec float64) Option {
	return func(s *settings) {
		if minSec >= 0 && maxSec >= minSec {
			s.minDuration = minSec
			s.maxDuration = maxSec
		}
	}
}

// WithPageSize sets how many results Freesound returns per request.
func WithPageSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithShowResults sets how many result names are logged per query.
func WithShowResults(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.showResults = n
		}
	}
}

// WithLogger overrides the provider logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}
