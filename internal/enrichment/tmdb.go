// Package enrichment fills MovieRecords with metadata from TMDB: canonical
// ids and titles, overviews, and locally mirrored posters.
package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tmdb "github.com/cyruzin/golang-tmdb"
	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/drewfead/pdx-indie-showtimes/internal/httputil"
	lru "github.com/hashicorp/golang-lru/v2"
)

const lookupCacheSize = 512

type tmdbOptions struct {
	client *http.Client
}

// TMDBOption configures the TMDB provider.
type TMDBOption func(*tmdbOptions)

// TMDBWithClient overrides the HTTP client, bypassing the default caching
// transport. Tests point this at a stub server.
func TMDBWithClient(client *http.Client) TMDBOption {
	return func(o *tmdbOptions) {
		o.client = client
	}
}

type tmdbProvider struct {
	client *tmdb.Client

	// lookups caches results by lowercase title for the life of the
	// provider, misses included. Safe for concurrent use.
	lookups *lru.Cache[string, *internal.Metadata]
}

// TMDB builds an EnrichmentProvider backed by the TMDB v3 API. Responses are
// cached at two levels: an HTTP-level LRU so retried URL fetches are free,
// and a per-title result cache so repeated lookups of the same movie across
// theaters cost nothing.
func TMDB(apiKey string, opts ...TMDBOption) (internal.EnrichmentProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: TMDB API key", internal.ErrMissingCredential)
	}
	o := tmdbOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	client, err := tmdb.Init(apiKey)
	if err != nil {
		return nil, fmt.Errorf("initialize TMDB client: %w", err)
	}
	httpClient := o.client
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   10 * time.Second,
			Transport: &httputil.CacheTransport{Base: http.DefaultTransport},
		}
	}
	client.SetClientConfig(*httpClient)

	lookups, err := lru.New[string, *internal.Metadata](lookupCacheSize)
	if err != nil {
		return nil, fmt.Errorf("initialize lookup cache: %w", err)
	}
	return &tmdbProvider{client: client, lookups: lookups}, nil
}

func (p *tmdbProvider) Search(ctx context.Context, title string) (*internal.Metadata, error) {
	key := strings.ToLower(strings.TrimSpace(title))
	if key == "" {
		return nil, nil
	}
	if meta, ok := p.lookups.Get(key); ok {
		return meta, nil
	}

	results, err := p.client.GetSearchMovies(title, map[string]string{
		"language": "en-US",
		"page":     "1",
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", title, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var meta *internal.Metadata
	if len(results.Results) > 0 {
		first := results.Results[0]
		meta = &internal.Metadata{
			TMDBID:      first.ID,
			Title:       first.Title,
			Overview:    first.Overview,
			PosterPath:  first.PosterPath,
			ReleaseDate: first.ReleaseDate,
		}
	}
	p.lookups.Add(key, meta)
	return meta, nil
}
