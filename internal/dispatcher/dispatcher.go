// Package dispatcher runs the query pipeline: normalize, validate, search,
// select, fetch into the store if needed, then start playback.
package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/okian/audioquery/internal/adapters/player"
	"github.com/okian/audioquery/internal/adapters/search"
	"github.com/okian/audioquery/internal/domain/model"
	"github.com/okian/audioquery/pkg/logger"
	"github.com/okian/audioquery/pkg/metrics"
)

// Outcome is how one query ended.
type Outcome string

// Query outcomes.
const (
	OutcomePlayed   Outcome = "played"
	OutcomeRejected Outcome = "rejected"
	OutcomeNoSound  Outcome = "no_sound"
	OutcomeFailed   Outcome = "failed"
)

// Picker chooses an index among n ranked results.
type Picker interface {
	Pick(n int) int
}

// SoundStore maps candidates to files.
type SoundStore interface {
	Resolve(c model.Candidate) model.Sound
}

// Downloader fetches a locator into a target file.
type Downloader interface {
	Download(ctx context.Context, locator, target string) (int64, error)
}

// Stats counts outcomes since start.
type Stats struct {
	Received  int64 `json:"received"`
	Played    int64 `json:"played"`
	Rejected  int64 `json:"rejected"`
	NoSound   int64 `json:"no_sound"`
	Failed    int64 `json:"failed"`
	CacheHits int64 `json:"cache_hits"`
	Downloads int64 `json:"downloads"`
}

// Dispatcher handles one query at a time. It is not meant to be called concurrently.
type Dispatcher struct {
	searcher   search.Searcher
	picker     Picker
	store      SoundStore
	downloader Downloader
	player     player.Player
	encoding   string
	log        logger.Logger

	received, played, rejected, noSound, failed atomic.Int64
	cacheHits, downloads                        atomic.Int64
}

// New creates a Dispatcher from its collaborators.
func New(s search.Searcher, p Picker, st SoundStore, dl Downloader, pl player.Player, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		searcher:   s,
		picker:     p,
		store:      st,
		downloader: dl,
		player:     pl,
		encoding:   "ascii",
		log:        logger.Named("dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle runs the whole pipeline for msg. Failures are logged and end only
// this query; the returned Outcome says how far it got.
func (d *Dispatcher) Handle(ctx context.Context, msg model.Message) Outcome {
	start := time.Now()
	d.received.Add(1)

	outcome := d.handle(ctx, msg)

	switch outcome {
	case OutcomePlayed:
		d.played.Add(1)
	case OutcomeRejected:
		d.rejected.Add(1)
	case OutcomeNoSound:
		d.noSound.Add(1)
	case OutcomeFailed:
		d.failed.Add(1)
	}
	metrics.RecordQueryOutcome(string(outcome))
	metrics.RecordQueryLatency(float64(time.Since(start).Milliseconds()))
	return outcome
}

func (d *Dispatcher) handle(ctx context.Context, msg model.Message) Outcome {
	tag := model.PathTag(msg.Path)
	if len(msg.Args) == 0 {
		d.log.Warn(ctx, "query without keyword", logger.String("tag", tag), logger.String("from", msg.Source))
		metrics.RecordQueryRejected("missing_argument")
		return OutcomeRejected
	}
	raw, ok := msg.Args[0].(string)
	if !ok {
		d.log.Warn(ctx, "query keyword is not a string",
			logger.String("tag", tag), logger.Any("arg", msg.Args[0]), logger.String("from", msg.Source))
		metrics.RecordQueryRejected("not_string")
		return OutcomeRejected
	}

	q := model.NewQuery(msg, raw)
	log := d.log.With(logger.String("query_id", q.ID), logger.String("tag", q.Tag))
	log.Info(ctx, "query received", logger.String("keyword", q.Keyword), logger.String("from", q.Source))

	if err := model.ValidateEncoding(q.Keyword, d.encoding); err != nil {
		reason := "encoding"
		if errors.Is(err, model.ErrEmptyKeyword) {
			reason = "empty"
		}
		log.Warn(ctx, "query dropped", logger.String("raw", q.Raw), logger.Error(err))
		metrics.RecordQueryRejected(reason)
		return OutcomeRejected
	}

	snd, outcome := d.retrieve(ctx, log, q)
	if outcome != "" {
		return outcome
	}

	if _, err := d.player.Play(ctx, snd.Path); err != nil {
		log.Error(ctx, "playback failed", logger.String("path", snd.Path), logger.Error(err))
		metrics.RecordErrorByComponent("player", "play")
		return OutcomeFailed
	}
	return OutcomePlayed
}

// retrieve returns the sound to play, or a non-empty Outcome when there is none.
func (d *Dispatcher) retrieve(ctx context.Context, log logger.Logger, q model.Query) (model.Sound, Outcome) {
	res, err := d.searcher.Search(ctx, q.Keyword)
	if err != nil {
		if errors.Is(err, search.ErrNoResults) {
			log.Info(ctx, "no sound found", logger.String("keyword", q.Keyword))
		} else {
			log.Warn(ctx, "search failed, no sound found; check the search URL and API key",
				logger.String("provider", d.searcher.Name()), logger.Error(err))
			metrics.RecordErrorByComponent("search", "request")
		}
		return model.Sound{}, OutcomeNoSound
	}
	metrics.RecordSearchResults(len(res.Candidates))

	idx := d.picker.Pick(len(res.Candidates))
	if idx < 0 || idx >= len(res.Candidates) {
		log.Info(ctx, "no sound found", logger.String("keyword", q.Keyword))
		return model.Sound{}, OutcomeNoSound
	}
	snd := d.store.Resolve(res.Candidates[idx])
	log.Info(ctx, "sound picked",
		logger.Int("index", idx),
		logger.Int("results", len(res.Candidates)),
		logger.String("name", snd.Candidate.Name),
		logger.String("path", snd.Path),
	)

	if snd.Cached {
		d.cacheHits.Add(1)
		metrics.RecordCacheHit()
		log.Info(ctx, "sound already downloaded", logger.String("path", snd.Path))
		return snd, ""
	}

	if _, err := d.downloader.Download(ctx, snd.Candidate.Locator, snd.Path); err != nil {
		log.Error(ctx, "download failed", logger.String("name", snd.Candidate.Name), logger.Error(err))
		metrics.RecordErrorByComponent("download", "fetch")
		return model.Sound{}, OutcomeFailed
	}
	d.downloads.Add(1)
	return snd, ""
}

// Stats returns a snapshot of the outcome counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Received:  d.received.Load(),
		Played:    d.played.Load(),
		Rejected:  d.rejected.Load(),
		NoSound:   d.noSound.Load(),
		Failed:    d.failed.Load(),
		CacheHits: d.cacheHits.Load(),
		Downloads: d.downloads.Load(),
	}
}
