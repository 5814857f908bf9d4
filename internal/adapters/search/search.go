// Package search queries remote audio-content search APIs for candidate sounds.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/audioquery/internal/domain/model"
	"github.com/okian/audioquery/pkg/logger"
	"github.com/okian/audioquery/pkg/metrics"
)

// Provider names.
const (
	ProviderFreesound    = "freesound"
	ProviderAudioCommons = "audiocommons"
)

const redacted = "REDACTED"

// Results is a ranked list of candidates, best first.
type Results struct {
	Count      int // total reported by the service, may exceed len(Candidates)
	Candidates []model.Candidate
}

// Searcher runs one keyword search.
type Searcher interface {
	Search(ctx context.Context, keyword string) (Results, error)
	Name() string
}

// New returns the provider registered under name.
func New(name, baseURL string, opts ...Option) (Searcher, error) {
	switch name {
	case ProviderFreesound:
		return NewFreesound(baseURL, opts...), nil
	case ProviderAudioCommons:
		return NewAudioCommons(baseURL, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// getJSON performs one GET and decodes a 200 response into out.
func (s *settings) getJSON(ctx context.Context, u *url.URL, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.log.Info(ctx, "search request", logger.String("url", RedactURL(u)))

	start := time.Now()
	err := s.doGetJSON(ctx, u, out)
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultFailed
	}
	metrics.RecordSearchRequest(result, float64(time.Since(start).Milliseconds()))
	return err
}

func (s *settings) doGetJSON(ctx context.Context, u *url.URL, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// showResultNames logs the first names of a result list.
func (s *settings) showResultNames(ctx context.Context, keyword string, res Results) {
	s.log.Info(ctx, "search results",
		logger.String("keyword", keyword),
		logger.Int("count", res.Count),
		logger.Int("usable", len(res.Candidates)),
	)
	for i, c := range res.Candidates {
		if i >= s.showResults {
			break
		}
		s.log.Info(ctx, "sound name", logger.Int("rank", i), logger.String("name", c.Name))
	}
}

// RedactURL renders u with the token parameter hidden.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	if q.Get("token") == "" {
		return u.String()
	}
	q.Set("token", redacted)
	clone := *u
	clone.RawQuery = q.Encode()
	return clone.String()
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	return u, nil
}
