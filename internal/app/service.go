// Package service wires the query listener, the pipeline and the admin
// server into one daemon.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/audioquery/internal/adapters/download"
	"github.com/okian/audioquery/internal/adapters/http/api"
	"github.com/okian/audioquery/internal/adapters/mq/queue"
	"github.com/okian/audioquery/internal/adapters/osc"
	"github.com/okian/audioquery/internal/adapters/player"
	"github.com/okian/audioquery/internal/adapters/search"
	"github.com/okian/audioquery/internal/adapters/store"
	"github.com/okian/audioquery/internal/config"
	"github.com/okian/audioquery/internal/dispatcher"
	"github.com/okian/audioquery/internal/domain/model"
	"github.com/okian/audioquery/internal/domain/selection"
	"github.com/okian/audioquery/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// ErrNotStarted is returned by Run before Start succeeded.
var ErrNotStarted = errors.New("service not started")

// Service owns every long-lived component of the daemon.
type Service struct {
	mu sync.RWMutex

	cfg        *config.Config
	httpClient *http.Client
	seed       *int64

	store      *store.Store
	searcher   search.Searcher
	player     player.Player
	inbox      *queue.InMemoryQueue
	dispatcher *dispatcher.Dispatcher
	listener   *osc.Listener
	admin      *http.Server
	adminLn    net.Listener

	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a Service. Without WithConfig it uses config.New defaults.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:        config.New(),
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the components and binds the OSC socket and admin listener.
// Bind failures are returned; nothing is served until Run.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	cfg := s.cfg

	s.store = store.New(cfg.SoundDir, store.WithDedup(cfg.DedupStrategy))
	if err := s.store.Ensure(); err != nil {
		return err
	}

	if s.searcher == nil {
		sr, err := search.New(cfg.Provider, cfg.ResolvedSearchURL(),
			search.WithHTTPClient(s.httpClient),
			search.WithTimeout(cfg.SearchTimeout()),
			search.WithToken(cfg.APIToken),
			search.WithSource(cfg.SourceFilter),
			search.WithDurationRange(float64(cfg.MinDuration), float64(cfg.MaxDuration)),
			search.WithPageSize(max(cfg.SoundWindow+1, cfg.ShowResults)),
			search.WithShowResults(cfg.ShowResults),
		)
		if err != nil {
			return err
		}
		s.searcher = sr
	}
	if s.player == nil {
		pl, err := player.New(cfg.PlayerBackend, cfg.PlayerCommand, cfg.MPDAddr, cfg.MPDPassword)
		if err != nil {
			return err
		}
		s.player = pl
	}

	selOpts := []selection.Option{selection.WithWindow(cfg.SoundWindow)}
	if s.seed != nil {
		selOpts = append(selOpts, selection.WithSeed(*s.seed))
	}
	downloadOpts := []download.Option{
		download.WithHTTPClient(s.httpClient),
		download.WithTimeout(cfg.DownloadTimeout()),
	}
	if cfg.Provider == config.ProviderFreesound {
		downloadOpts = append(downloadOpts, download.WithToken(cfg.APIToken))
	}

	s.dispatcher = dispatcher.New(
		s.searcher,
		selection.New(selOpts...),
		s.store,
		download.New(downloadOpts...),
		s.player,
		dispatcher.WithEncoding(cfg.KeywordEncoding),
	)
	s.inbox = queue.NewInMemoryQueue(queue.WithCapacity(cfg.InboxSize))

	listener, err := osc.Listen(osc.BindAddress(ctx, cfg.ListenIP, cfg.Interface), cfg.Port,
		func(ctx context.Context, m model.Message) { s.dispatcher.Handle(ctx, m) },
		osc.WithQueryPath(cfg.QueryPath),
		osc.WithQuitPath(cfg.QuitPath),
		osc.WithPollTimeout(cfg.PollTimeout()),
		osc.WithInbox(s.inbox),
	)
	if err != nil {
		return err
	}

	if cfg.AdminAddr != "" {
		ln, err := net.Listen("tcp", cfg.AdminAddr)
		if err != nil {
			_ = listener.Close()
			return fmt.Errorf("%w: %w", api.ErrServe, err)
		}
		s.adminLn = ln
		s.admin = api.NewServer(s.inbox, s,
			api.WithQueryPath(cfg.QueryPath),
			api.WithOriginPatterns(cfg.AdminOrigins...),
		).HTTPServer(cfg.AdminAddr)
	}

	s.listener = listener
	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "audioquery service started",
		logger.String("osc_addr", listener.Addr().String()),
		logger.String("admin_addr", s.AdminAddr()),
		logger.String("provider", s.searcher.Name()),
		logger.String("player", s.player.Name()),
		logger.String("sound_dir", cfg.SoundDir),
	)
	return nil
}

// Run serves until ctx is canceled or a quit message stops the listener.
func (s *Service) Run(ctx context.Context) error {
	s.mu.RLock()
	started, listener, admin, adminLn := s.started, s.listener, s.admin, s.adminLn
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return listener.Run(gctx)
	})

	if admin != nil {
		g.Go(func() error {
			s.logger.Info(gctx, "starting admin HTTP server", logger.String("addr", adminLn.Addr().String()))
			if err := admin.Serve(adminLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%w: %w", api.ErrServe, err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			if err := admin.Shutdown(shutdownCtx); err != nil {
				s.logger.Error(shutdownCtx, "admin server shutdown failed", logger.Error(err))
			}
			return nil
		})
	}

	err := g.Wait()
	s.logger.Info(context.Background(), "audioquery service stopped serving")
	return err
}

// Stop closes the socket and the inbox. Running playbacks are left alone.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.inbox != nil {
		_ = s.inbox.Close()
	}
	if s.admin != nil {
		_ = s.admin.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "audioquery service stopped")
}

// Addr returns the bound OSC address, or nil before Start.
func (s *Service) Addr() *net.UDPAddr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// AdminAddr returns the bound admin address, or "" when disabled.
func (s *Service) AdminAddr() string {
	if s.adminLn == nil {
		return ""
	}
	return s.adminLn.Addr().String()
}

// Enqueue hands a message to the listener as if it had arrived over OSC.
func (s *Service) Enqueue(ctx context.Context, m model.Message) error {
	s.mu.RLock()
	inbox := s.inbox
	s.mu.RUnlock()
	if inbox == nil {
		return ErrNotStarted
	}
	return inbox.Enqueue(ctx, m)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":   s.started,
		"provider":  s.cfg.Provider,
		"sound_dir": s.cfg.SoundDir,
		"window":    s.cfg.SoundWindow,
	}
	if s.started {
		stats["uptime_seconds"] = int64(time.Since(s.startedAt).Seconds())
		stats["inbox_length"] = s.inbox.Len()
	}
	if s.dispatcher != nil {
		ds := s.dispatcher.Stats()
		stats["received"] = ds.Received
		stats["played"] = ds.Played
		stats["rejected"] = ds.Rejected
		stats["no_sound"] = ds.NoSound
		stats["failed"] = ds.Failed
		stats["cache_hits"] = ds.CacheHits
		stats["downloads"] = ds.Downloads
	}
	return stats
}
