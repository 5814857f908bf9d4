// Package download fetches a remote sound into the sound store.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okian/audioquery/pkg/logger"
	"github.com/okian/audioquery/pkg/metrics"
)

const (
	defaultTimeout = 60 * time.Second
	filePerm       = 0o644

	// Temp names stay short whatever the target name is.
	tempPattern = ".download-*.part"
)

// Client downloads one locator at a time.
type Client struct {
	http    *http.Client
	timeout time.Duration
	token   string
	log     logger.Logger
}

// New creates a download Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:    http.DefaultClient,
		timeout: defaultTimeout,
		log:     logger.Named("download"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type result struct {
	n   int64
	err error
}

// Download fetches locator and stores the body at target, returning the
// number of bytes written. The transfer runs on its own goroutine under the
// client timeout; Download blocks until it finishes. On failure nothing is
// left at target.
func (c *Client) Download(ctx context.Context, locator, target string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()
		n, err := c.fetch(ctx, locator, target)
		done <- result{n: n, err: err}
	}()
	res := <-done

	elapsed := time.Since(start)
	if res.err != nil {
		metrics.RecordDownload(metrics.ResultFailed, 0, float64(elapsed.Milliseconds()))
		return 0, res.err
	}

	metrics.RecordDownload(metrics.ResultOK, res.n, float64(elapsed.Milliseconds()))
	c.log.Info(ctx, "sound downloaded",
		logger.String("path", target),
		logger.String("size", humanize.Bytes(uint64(res.n))), //nolint:gosec // n is never negative
		logger.Duration("elapsed", elapsed),
	)
	return res.n, nil
}

func (c *Client) fetch(ctx context.Context, locator, target string) (int64, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	c.log.Info(ctx, "download request", logger.String("url", redact(u)), logger.String("target", target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn(ctx, "download failed, check that the API key is set and valid",
			logger.Int("status", resp.StatusCode))
		return 0, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	return writeAtomic(resp.Body, target)
}

// writeAtomic streams r to a temp file next to target and renames it into place.
func writeAtomic(r io.Reader, target string) (n int64, err error) {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if n, err = io.Copy(tmp, r); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = tmp.Sync(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = tmp.Chmod(filePerm); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = tmp.Close(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return n, nil
}

func redact(u *url.URL) string {
	q := u.Query()
	if q.Get("token") == "" {
		return u.String()
	}
	q.Set("token", "REDACTED")
	clone := *u
	clone.RawQuery = q.Encode()
	return clone.String()
}
