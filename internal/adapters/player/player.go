// Package player starts playback of stored sounds without waiting for it to end.
package player

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/okian/audioquery/pkg/logger"
	"github.com/okian/audioquery/pkg/metrics"
)

// Backend names.
const (
	BackendExec = "exec"
	BackendMPD  = "mpd"
)

// Player hands a sound file to an audio output.
type Player interface {
	// Play returns as soon as playback has started.
	Play(ctx context.Context, path string) (*Playback, error)
	Name() string
}

// Playback is a handle on one started playback. Nobody is required to wait on it.
type Playback struct {
	Path string
	PID  int // 0 when no local process backs the playback

	done chan struct{}
	once sync.Once
	err  error
	stop func() error
}

func newPlayback(path string, pid int, stop func() error) *Playback {
	return &Playback{Path: path, PID: pid, done: make(chan struct{}), stop: stop}
}

// finish records the exit error and releases waiters. Only the first call counts.
func (p *Playback) finish(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done is closed when playback has ended.
func (p *Playback) Done() <-chan struct{} { return p.done }

// Err reports how playback ended. It is only meaningful after Done is closed.
func (p *Playback) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Stop interrupts playback if it is still running.
func (p *Playback) Stop() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if p.stop == nil {
		return nil
	}
	return p.stop()
}

// New builds the backend named in name.
func New(name, command, mpdAddr, mpdPassword string) (Player, error) {
	switch name {
	case BackendExec, "":
		return NewExec(command), nil
	case BackendMPD:
		return NewMPD(mpdAddr, mpdPassword), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrBackend, name)
	}
}

// checkFile logs and fails when path does not name a regular file.
func checkFile(ctx context.Context, log logger.Logger, path string) error {
	info, err := os.Stat(path)
	if err == nil && info.Mode().IsRegular() {
		return nil
	}
	log.Warn(ctx, "sound can't be found", logger.String("path", path))
	metrics.RecordPlayback("missing")
	return fmt.Errorf("%w: %s", ErrNotFound, path)
}
