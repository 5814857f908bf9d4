package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/okian/audioquery/pkg/logger"
	"github.com/okian/audioquery/pkg/metrics"
)

const stderrLimit = 4 << 10

// Exec plays a file by running a fixed command with the path as its only argument.
type Exec struct {
	command string
	log     logger.Logger
}

// ExecOption applies a configuration option to Exec.
type ExecOption func(*Exec)

// WithExecLogger overrides the Exec logger.
func WithExecLogger(l logger.Logger) ExecOption {
	return func(e *Exec) {
		if l != nil {
			e.log = l
		}
	}
}

// NewExec creates an Exec player for command.
func NewExec(command string, opts ...ExecOption) *Exec {
	e := &Exec{command: command, log: logger.Named("player")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the backend name.
func (e *Exec) Name() string { return BackendExec }

// Play spawns the player process and returns without waiting for it.
// The process is not tied to ctx and outlives the query that started it.
func (e *Exec) Play(ctx context.Context, path string) (*Playback, error) {
	if err := checkFile(ctx, e.log, path); err != nil {
		return nil, err
	}

	cmd := exec.Command(e.command, path) //nolint:gosec // command comes from configuration
	stderr := &boundedBuffer{limit: stderrLimit}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		metrics.RecordPlayback(metrics.ResultFailed)
		e.log.Error(ctx, "player failed to start", logger.String("command", e.command), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStart, err)
	}
	metrics.RecordPlayback(metrics.ResultOK)

	pb := newPlayback(path, cmd.Process.Pid, func() error {
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
		return nil
	})
	e.log.Info(ctx, "playing sound", logger.String("path", path), logger.Int("pid", pb.PID))

	go func() {
		err := cmd.Wait()
		fields := []logger.Field{logger.String("path", path), logger.Int("pid", pb.PID)}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			fields = append(fields, logger.String("stderr", msg))
		}
		if err != nil {
			e.log.Warn(context.Background(), "player exited with error", append(fields, logger.Error(err))...)
		} else {
			e.log.Debug(context.Background(), "player finished", fields...)
		}
		pb.finish(err)
	}()

	return pb, nil
}

// boundedBuffer keeps the first limit bytes written to it and drops the rest.
type boundedBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - len(b.buf); room > 0 {
		b.buf = append(b.buf, p[:min(room, len(p))]...)
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
