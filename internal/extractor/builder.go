package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/google/uuid"
)

var (
	slugStripRE    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapseRE = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts a title to a URL-friendly slug used for poster filenames
// and letterboxd fallback links.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = slugStripRE.ReplaceAllString(s, "")
	s = slugCollapseRE.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// LetterboxdURL builds the informational link for a movie: by TMDB id when
// known, otherwise by slug.
func LetterboxdURL(title string, tmdbID int64) string {
	if tmdbID != 0 {
		return fmt.Sprintf("https://letterboxd.com/tmdb/%d/", tmdbID)
	}
	return fmt.Sprintf("https://letterboxd.com/film/%s/", Slugify(title))
}

// builder assembles MovieRecords for one theater, filling enrichment fields
// once at build time. Enrichment and poster fetch failures degrade to a raw
// record, never an error.
type builder struct {
	theater internal.Theater
	enrich  internal.EnrichmentProvider // nil = no enrichment
	posters internal.PosterStore        // nil = no poster downloads

	// canonicalTitle replaces the raw extracted title with the provider's
	// canonical one when a candidate is found.
	canonicalTitle bool

	ns uuid.UUID
}

func newBuilder(theater internal.Theater, enrich internal.EnrichmentProvider, posters internal.PosterStore) *builder {
	return &builder{
		theater: theater,
		enrich:  enrich,
		posters: posters,
		ns:      uuid.NewSHA1(uuid.NameSpaceURL, []byte(theater.URL)),
	}
}

func (b *builder) record(
	ctx context.Context,
	title, description, pageURL string,
	showtimes []internal.ShowingEntry,
) internal.MovieRecord {
	if pageURL == "" {
		pageURL = b.theater.URL
	}
	rec := internal.MovieRecord{
		ID:          uuid.NewSHA1(b.ns, []byte(strings.ToLower(title))).String(),
		Title:       title,
		Description: description,
		TheaterID:   b.theater.ID,
		TheaterURL:  pageURL,
		Showtimes:   showtimes,
	}

	meta := b.lookup(ctx, title)
	if meta != nil {
		rec.TMDBID = meta.TMDBID
		if b.canonicalTitle && meta.Title != "" {
			rec.Title = meta.Title
		}
		if rec.Description == "" {
			rec.Description = meta.Overview
		}
		if meta.PosterPath != "" && b.posters != nil {
			local, err := b.posters.Fetch(ctx, meta.PosterPath, Slugify(title))
			if err != nil {
				slog.Warn("poster fetch failed",
					"theater", b.theater.ID, "title", title, "error", err)
			} else {
				rec.Poster = local
			}
		}
	}
	rec.LetterboxdURL = LetterboxdURL(title, rec.TMDBID)
	return rec
}

func (b *builder) lookup(ctx context.Context, title string) *internal.Metadata {
	if b.enrich == nil {
		return nil
	}
	meta, err := b.enrich.Search(ctx, title)
	if err != nil {
		slog.Warn("enrichment lookup failed",
			"theater", b.theater.ID, "title", title, "error", err)
		return nil
	}
	return meta
}
