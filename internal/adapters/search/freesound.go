package search

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/audioquery/internal/domain/model"
)

// DefaultFreesoundURL is the Freesound APIv2 text search endpoint.
const DefaultFreesoundURL = "https://freesound.org/apiv2/search/text/"

const freesoundFields = "id,name,previews,duration,avg_rating"

var freesoundPreviewOrder = []string{"preview-hq-mp3", "preview-lq-mp3"}

type freesoundResponse struct {
	Count   int               `json:"count"`
	Results []freesoundResult `json:"results"`
}

type freesoundResult struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Duration  float64           `json:"duration"`
	AvgRating float64           `json:"avg_rating"`
	Previews  map[string]string `json:"previews"`
}

// Freesound searches the Freesound APIv2, sorted by rating.
type Freesound struct {
	baseURL string
	settings
}

// NewFreesound creates a Freesound provider. An empty baseURL uses DefaultFreesoundURL.
func NewFreesound(baseURL string, opts ...Option) *Freesound {
	if baseURL == "" {
		baseURL = DefaultFreesoundURL
	}
	return &Freesound{baseURL: baseURL, settings: newSettings(opts)}
}

// Name returns the provider name.
func (f *Freesound) Name() string { return ProviderFreesound }

// Search runs a text search restricted to the configured duration range.
func (f *Freesound) Search(ctx context.Context, keyword string) (Results, error) {
	u, err := parseBase(f.baseURL)
	if err != nil {
		return Results{}, err
	}
	q := u.Query()
	q.Set("query", keyword)
	q.Set("fields", freesoundFields)
	q.Set("sort", "rating_desc")
	q.Set("filter", fmt.Sprintf("duration:[%s TO %s]", formatSeconds(f.minDuration), formatSeconds(f.maxDuration)))
	q.Set("page_size", strconv.Itoa(f.pageSize))
	if f.token != "" {
		q.Set("token", f.token)
	}
	u.RawQuery = q.Encode()

	var body freesoundResponse
	if err := f.getJSON(ctx, u, &body); err != nil {
		return Results{}, err
	}

	res := Results{Count: body.Count}
	for _, r := range body.Results {
		locator, encoding := freesoundLocator(r.Previews)
		if locator == "" {
			continue
		}
		res.Candidates = append(res.Candidates, model.Candidate{
			ID:       strconv.FormatInt(r.ID, 10),
			Name:     r.Name,
			Locator:  locator,
			Encoding: encoding,
			Duration: r.Duration,
			Rating:   r.AvgRating,
			Provider: ProviderFreesound,
		})
	}

	f.showResultNames(ctx, keyword, res)
	if len(res.Candidates) == 0 {
		return res, fmt.Errorf("%w for %q", ErrNoResults, keyword)
	}
	return res, nil
}

// freesoundLocator picks the preview to download: high quality mp3, low
// quality mp3, any other mp3, then any preview at all.
func freesoundLocator(previews map[string]string) (locator, encoding string) {
	for _, key := range freesoundPreviewOrder {
		if v := previews[key]; v != "" {
			return v, key
		}
	}

	keys := make([]string, 0, len(previews))
	for k, v := range previews {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.Contains(k, "mp3") {
			return previews[k], k
		}
	}
	if len(keys) > 0 {
		return previews[keys[0]], keys[0]
	}
	return "", ""
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
