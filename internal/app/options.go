package service

import (
	"net/http"

	"github.com/okian/audioquery/internal/adapters/player"
	"github.com/okian/audioquery/internal/adapters/search"
	"github.com/okian/audioquery/internal/config"
	"github.com/okian/audioquery/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration the service is built from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHTTPClient sets the client used for search and download requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Service) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}

// WithSearcher replaces the configured search provider.
func WithSearcher(sr search.Searcher) Option {
	return func(s *Service) {
		if sr != nil {
			s.searcher = sr
		}
	}
}

// WithPlayer replaces the configured playback backend.
func WithPlayer(p player.Player) Option {
	return func(s *Service) {
		if p != nil {
			s.player = p
		}
	}
}

// WithSeed makes sound selection reproducible.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = &seed
	}
}
