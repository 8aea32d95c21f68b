package extractor

import (
	"context"
	"strings"

	"github.com/drewfead/pdx-indie-showtimes/internal"
)

// stubEnrichment returns canned metadata by lowercase title; absent titles
// are misses, not errors.
type stubEnrichment struct {
	byTitle map[string]*internal.Metadata
}

func (s *stubEnrichment) Search(_ context.Context, title string) (*internal.Metadata, error) {
	return s.byTitle[strings.ToLower(title)], nil
}

// stubPosterStore records fetches and returns a deterministic local path.
type stubPosterStore struct {
	fetched []string
}

func (s *stubPosterStore) Fetch(_ context.Context, posterPath, slug string) (string, error) {
	s.fetched = append(s.fetched, posterPath)
	return "posters/" + slug + ".jpg", nil
}
