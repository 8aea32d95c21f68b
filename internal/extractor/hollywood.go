package extractor

import (
	"context"
	"log/slog"

	"github.com/drewfead/pdx-indie-showtimes/internal"
)

// Blocked is the extractor for sources that reject automated fetches
// outright (e.g. the Hollywood Theatre's 403 wall). It yields nothing
// immediately instead of burning retries, so the fallback path takes over.
func Blocked(theater internal.Theater, reason string) internal.Extractor {
	return &blockedExtractor{theater: theater, reason: reason}
}

type blockedExtractor struct {
	theater internal.Theater
	reason  string
}

func (b *blockedExtractor) TheaterID() string {
	return b.theater.ID
}

func (b *blockedExtractor) Extract(ctx context.Context, _ internal.Window) ([]internal.MovieRecord, error) {
	slog.InfoContext(ctx, "source blocks automated access, deferring to fallback",
		"theater", b.theater.ID, "reason", b.reason)
	return nil, nil
}
