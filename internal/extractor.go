package internal

import "context"

// Extractor turns one theater's page content into zero or more MovieRecords.
// Implementations try their detection strategies in priority order and fall
// back to the next on an empty result. A nil error with zero records means
// the source had nothing to offer; transport-level failures are returned as
// errors and contained by the caller.
type Extractor interface {
	// TheaterID returns the configured theater id this extractor serves
	// (registry and cache key).
	TheaterID() string
	Extract(ctx context.Context, window Window) ([]MovieRecord, error)
}
