package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/audioquery/internal/domain/model"
)

// DefaultAudioCommonsURL is the Audio Commons mediator search endpoint.
const DefaultAudioCommonsURL = "http://m2.audiocommons.org/api/audioclips/search"

// mp3 in the EBU codec vocabulary.
const ebuMP3 = "ebu-codecs:_8.4"

type audioCommonsResponse struct {
	Results []struct {
		Members []struct {
			Content struct {
				Title       string `json:"title"`
				AvailableAs []struct {
					Format  string `json:"hasAudioEncodingFormat"`
					Locator string `json:"locator"`
				} `json:"availableAs"`
			} `json:"content"`
		} `json:"members"`
	} `json:"results"`
}

// AudioCommons searches through the Audio Commons mediator. It needs no credential.
type AudioCommons struct {
	baseURL string
	settings
}

// NewAudioCommons creates an Audio Commons provider. An empty baseURL uses DefaultAudioCommonsURL.
func NewAudioCommons(baseURL string, opts ...Option) *AudioCommons {
	if baseURL == "" {
		baseURL = DefaultAudioCommonsURL
	}
	return &AudioCommons{baseURL: baseURL, settings: newSettings(opts)}
}

// Name returns the provider name.
func (a *AudioCommons) Name() string { return ProviderAudioCommons }

// Search asks the mediator for clips matching keyword from the configured source.
// Only the first result group is used.
func (a *AudioCommons) Search(ctx context.Context, keyword string) (Results, error) {
	u, err := parseBase(a.baseURL)
	if err != nil {
		return Results{}, err
	}
	q := u.Query()
	q.Set("pattern", keyword)
	q.Set("source", a.source)
	u.RawQuery = q.Encode()

	var body audioCommonsResponse
	if err := a.getJSON(ctx, u, &body); err != nil {
		return Results{}, err
	}

	var res Results
	if len(body.Results) > 0 {
		members := body.Results[0].Members
		res.Count = len(members)
		for _, m := range members {
			var locator, encoding string
			for _, av := range m.Content.AvailableAs {
				if av.Locator == "" {
					continue
				}
				if locator == "" {
					locator, encoding = av.Locator, av.Format
				}
				if av.Format == ebuMP3 || strings.Contains(av.Format, "mp3") {
					locator, encoding = av.Locator, av.Format
					break
				}
			}
			if locator == "" {
				continue
			}
			res.Candidates = append(res.Candidates, model.Candidate{
				Name:     m.Content.Title,
				Locator:  locator,
				Encoding: encoding,
				Provider: ProviderAudioCommons,
			})
		}
	}

	a.showResultNames(ctx, keyword, res)
	if len(res.Candidates) == 0 {
		return res, fmt.Errorf("%w for %q", ErrNoResults, keyword)
	}
	return res, nil
}
