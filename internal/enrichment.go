package internal

import "context"

// Metadata is the result of an enrichment lookup for a raw extracted title.
type Metadata struct {
	TMDBID      int64
	Title       string
	Overview    string
	PosterPath  string
	ReleaseDate string
}

// EnrichmentProvider looks up external metadata for a title. A nil Metadata
// with a nil error means no candidate was found; callers treat that as "no
// enrichment", never as a failure.
type EnrichmentProvider interface {
	Search(ctx context.Context, title string) (*Metadata, error)
}

// PosterStore fetches poster art by provider path and stores it locally,
// keyed by slug. Fetch is idempotent: an already-stored poster is not
// re-downloaded. It returns the artifact-relative path for the catalog.
type PosterStore interface {
	Fetch(ctx context.Context, posterPath, slug string) (string, error)
}
