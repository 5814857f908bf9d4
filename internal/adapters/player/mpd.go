package player

import (
	"context"
	"fmt"
	"strings"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/okian/audioquery/pkg/logger"
	"github.com/okian/audioquery/pkg/metrics"
)

// MPD plays a file by queueing it on a Music Player Daemon.
//
// MPD only accepts file:// URIs from clients connected over a unix socket
// or from the local host.
type MPD struct {
	addr     string
	password string
	log      logger.Logger
}

// MPDOption applies a configuration option to MPD.
type MPDOption func(*MPD)

// WithMPDLogger overrides the MPD logger.
func WithMPDLogger(l logger.Logger) MPDOption {
	return func(m *MPD) {
		if l != nil {
			m.log = l
		}
	}
}

// NewMPD creates an MPD player. An addr starting with "/" is a unix socket.
func NewMPD(addr, password string, opts ...MPDOption) *MPD {
	m := &MPD{addr: addr, password: password, log: logger.Named("player")}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the backend name.
func (m *MPD) Name() string { return BackendMPD }

// Play appends the file to the MPD queue and starts it. The returned
// playback is already done: MPD owns it from here.
func (m *MPD) Play(ctx context.Context, path string) (*Playback, error) {
	if err := checkFile(ctx, m.log, path); err != nil {
		return nil, err
	}

	client, err := m.dial()
	if err != nil {
		metrics.RecordPlayback(metrics.ResultFailed)
		m.log.Error(ctx, "mpd connection failed", logger.String("addr", m.addr), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStart, err)
	}
	defer client.Close()

	id, err := client.AddID("file://"+path, -1)
	if err == nil {
		err = client.PlayID(id)
	}
	if err != nil {
		metrics.RecordPlayback(metrics.ResultFailed)
		m.log.Error(ctx, "mpd playback failed", logger.String("path", path), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStart, err)
	}

	metrics.RecordPlayback(metrics.ResultOK)
	m.log.Info(ctx, "playing sound", logger.String("path", path), logger.Int("mpd_id", id))

	pb := newPlayback(path, 0, nil)
	pb.finish(nil)
	return pb, nil
}

func (m *MPD) dial() (*mpd.Client, error) {
	network := "tcp"
	if strings.HasPrefix(m.addr, "/") {
		network = "unix"
	}
	if m.password != "" {
		return mpd.DialAuthenticated(network, m.addr, m.password)
	}
	return mpd.Dial(network, m.addr)
}
