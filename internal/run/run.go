// Package run orchestrates one collection pass: every configured theater is
// tried in order, primary extractor first and the fallback second, and the
// merged catalog is persisted along with the theater list.
package run

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/drewfead/pdx-indie-showtimes/internal/aggregate"
	"github.com/drewfead/pdx-indie-showtimes/internal/extractor"
	"github.com/google/uuid"
)

const (
	catalogFile  = "showtimes.json"
	theatersFile = "theaters.json"
)

// Runner executes a full collection run. Theaters are processed one at a
// time; the only shared state between them is the enrichment caches, which
// are concurrency-safe anyway.
type Runner struct {
	Registry extractor.Registry

	// Fallback builds the source-agnostic secondary extractor for a
	// theater whose primary yielded nothing.
	Fallback func(internal.Theater) internal.Extractor

	Theaters []internal.Theater
	Start    time.Time
	NumDays  int

	// OutDir receives showtimes.json and theaters.json.
	OutDir string
}

// Summary reports how the run went, per theater path taken.
type Summary struct {
	RunID    string
	Primary  []string // theaters satisfied by their primary extractor
	Fallback []string // theaters satisfied by the fallback path
	Failed   []string // theaters that yielded nothing
	Records  int
	Titles   int
}

// Run collects, aggregates, and persists. Per-theater failures are contained
// and reported in the Summary; only a persistence failure is an error, so a
// best-effort catalog is always written once the run starts.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.New().String()}
	window := internal.Window{Start: r.Start, Days: r.NumDays}

	var collected []internal.MovieRecord
	for _, theater := range r.Theaters {
		records := r.collectTheater(ctx, theater, window, &summary)
		collected = append(collected, records...)
	}
	summary.Records = len(collected)

	catalog := aggregate.Aggregate(collected, r.Start, r.NumDays)
	summary.Titles = len(catalog.Movies)

	if err := r.persist(catalog); err != nil {
		return summary, err
	}
	slog.InfoContext(ctx, "run complete",
		"run_id", summary.RunID,
		"titles", summary.Titles,
		"records", summary.Records,
		"primary", len(summary.Primary),
		"fallback", len(summary.Fallback),
		"failed", summary.Failed)
	return summary, nil
}

func (r *Runner) collectTheater(
	ctx context.Context,
	theater internal.Theater,
	window internal.Window,
	summary *Summary,
) []internal.MovieRecord {
	logger := slog.With("theater", theater.ID, "run_id", summary.RunID)

	if records := r.tryPrimary(ctx, theater, window, logger); len(records) > 0 {
		logger.InfoContext(ctx, "primary extraction succeeded", "records", len(records))
		summary.Primary = append(summary.Primary, theater.ID)
		return records
	}

	if r.Fallback != nil {
		records, err := r.Fallback(theater).Extract(ctx, window)
		if err != nil {
			logger.WarnContext(ctx, "fallback extraction failed", "error", err)
		} else if len(records) > 0 {
			logger.InfoContext(ctx, "fallback extraction succeeded", "records", len(records))
			summary.Fallback = append(summary.Fallback, theater.ID)
			return records
		}
	}

	logger.WarnContext(ctx, "no showtimes found by any path")
	summary.Failed = append(summary.Failed, theater.ID)
	return nil
}

func (r *Runner) tryPrimary(
	ctx context.Context,
	theater internal.Theater,
	window internal.Window,
	logger *slog.Logger,
) []internal.MovieRecord {
	if r.Registry == nil {
		return nil
	}
	primary, err := r.Registry.Lookup(theater.ID)
	if err != nil {
		logger.WarnContext(ctx, "no primary extractor registered", "error", err)
		return nil
	}
	records, err := primary.Extract(ctx, window)
	if err != nil {
		logger.WarnContext(ctx, "primary extraction failed", "error", err)
		return nil
	}
	return records
}

func (r *Runner) persist(catalog internal.Catalog) error {
	if err := os.MkdirAll(r.OutDir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeJSON(filepath.Join(r.OutDir, catalogFile), catalog); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	companion := struct {
		Theaters []internal.Theater `json:"theaters"`
	}{Theaters: r.Theaters}
	if err := writeJSON(filepath.Join(r.OutDir, theatersFile), companion); err != nil {
		return fmt.Errorf("write theater list: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
