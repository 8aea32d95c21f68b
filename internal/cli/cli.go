// Package cli wires the collection pipeline into a command. All per-theater
// failures downstream are contained; the command only fails on bad
// configuration or a missing credential.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/drewfead/pdx-indie-showtimes/internal/browser"
	"github.com/drewfead/pdx-indie-showtimes/internal/config"
	"github.com/drewfead/pdx-indie-showtimes/internal/enrichment"
	"github.com/drewfead/pdx-indie-showtimes/internal/extractor"
	"github.com/drewfead/pdx-indie-showtimes/internal/run"
	"github.com/urfave/cli/v3"
)

const (
	extractionCacheSize = 8
	extractionCacheTTL  = 5 * time.Minute
)

// RootOption configures the root command (e.g. for tests).
type RootOption func(*rootConfig)

type rootConfig struct {
	registry extractor.Registry
	fallback func(internal.Theater) internal.Extractor
	now      func() time.Time
}

// WithRegistry injects the primary extractor registry. Tests use this to
// substitute extractors backed by local fixture servers.
func WithRegistry(registry extractor.Registry) RootOption {
	return func(c *rootConfig) {
		c.registry = registry
	}
}

// WithFallback injects the fallback extractor factory.
func WithFallback(fallback func(internal.Theater) internal.Extractor) RootOption {
	return func(c *rootConfig) {
		c.fallback = fallback
	}
}

// WithClock fixes the reference time used for the collection window.
func WithClock(now func() time.Time) RootOption {
	return func(c *rootConfig) {
		c.now = now
	}
}

// Root builds the collect command.
func Root(_ context.Context, opts ...RootOption) (*cli.Command, error) {
	cfg := &rootConfig{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	return &cli.Command{
		Name:  "pdx-showtimes",
		Usage: "collect Portland indie theater showtimes into a JSON catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "theater configuration file",
				Sources: cli.EnvVars("PDX_SHOWTIMES_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "out",
				Value: "docs/data",
				Usage: "directory for showtimes.json and theaters.json",
			},
			&cli.StringFlag{
				Name:  "posters",
				Value: "docs/posters",
				Usage: "directory for downloaded poster art",
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "days of showtimes to collect (defaults to the configured value)",
			},
			&cli.StringFlag{
				Name:    "tmdb-key",
				Usage:   "TMDB API key for metadata enrichment",
				Sources: cli.EnvVars("TMDB_API_KEY"),
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "run even when collection is paused in the config",
			},
			&cli.BoolFlag{
				Name:  "no-enrichment",
				Usage: "skip TMDB metadata and poster downloads",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return collect(ctx, cmd, cfg)
		},
	}, nil
}

func collect(ctx context.Context, cmd *cli.Command, cfg *rootConfig) error {
	if cmd.Bool("verbose") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	conf, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if !conf.IsEnabled() {
		if !cmd.Bool("force") {
			slog.InfoContext(ctx, "collection is paused, use --force to run anyway")
			return nil
		}
		slog.InfoContext(ctx, "collection is paused but --force was given, running anyway")
	}

	var (
		enrich  internal.EnrichmentProvider
		posters internal.PosterStore
	)
	if cmd.Bool("no-enrichment") {
		slog.InfoContext(ctx, "enrichment disabled, catalog will carry raw titles only")
	} else {
		key := cmd.String("tmdb-key")
		if key == "" {
			return fmt.Errorf("%w: TMDB_API_KEY (pass --no-enrichment to run without metadata)",
				internal.ErrMissingCredential)
		}
		enrich, err = enrichment.TMDB(key)
		if err != nil {
			return fmt.Errorf("configure enrichment: %w", err)
		}
		posters = enrichment.NewDiskPosterStore(cmd.String("posters"))
	}

	rendered := browser.Headless()
	defer closeQuietly(ctx, rendered)

	registry := cfg.registry
	if registry == nil {
		registry = defaultRegistry(conf.Theaters, enrich, posters, rendered)
	}
	fallback := cfg.fallback
	if fallback == nil {
		fallback = func(theater internal.Theater) internal.Extractor {
			return extractor.SearchFallback(theater, enrich, posters)
		}
	}

	days := int(cmd.Int("days"))
	if days <= 0 {
		days = conf.NumDays
	}

	runner := &run.Runner{
		Registry: registry,
		Fallback: fallback,
		Theaters: conf.Theaters,
		Start:    cfg.now().In(conf.Location()),
		NumDays:  days,
		OutDir:   cmd.String("out"),
	}
	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Writer, "collected %d records across %d titles (%d primary, %d fallback",
		summary.Records, summary.Titles, len(summary.Primary), len(summary.Fallback))
	if len(summary.Failed) > 0 {
		fmt.Fprintf(cmd.Writer, ", no data: %v", summary.Failed)
	}
	fmt.Fprintln(cmd.Writer, ")")
	return nil
}

// defaultRegistry maps each configured theater to its dedicated extractor.
// Unknown theater ids get no primary entry and are served by the fallback.
func defaultRegistry(
	theaters []internal.Theater,
	enrich internal.EnrichmentProvider,
	posters internal.PosterStore,
	rendered browser.Interface,
) extractor.Registry {
	cached := extractor.Cached(extractionCacheSize, extractionCacheTTL)
	var opts []extractor.RegistryOption
	for _, theater := range theaters {
		switch theater.ID {
		case "clinton":
			opts = append(opts, extractor.WithExtractor(
				extractor.Clinton(theater, enrich, posters), cached))
		case "laurelhurst":
			opts = append(opts, extractor.WithExtractor(
				extractor.Laurelhurst(theater, enrich, posters), cached))
		case "cinemagic":
			opts = append(opts, extractor.WithExtractor(
				extractor.Cinemagic(theater, enrich, posters), cached))
		case "cinema21":
			opts = append(opts, extractor.WithExtractor(
				extractor.Cinema21(theater, enrich, posters, extractor.WithBrowser(rendered)), cached))
		case "bagdad":
			opts = append(opts, extractor.WithExtractor(
				extractor.Bagdad(theater, enrich, posters), cached))
		case "academy":
			opts = append(opts, extractor.WithExtractor(
				extractor.Academy(theater, enrich, posters, extractor.WithBrowser(rendered)), cached))
		case "livingroom":
			opts = append(opts, extractor.WithExtractor(
				extractor.LivingRoom(theater, enrich, posters, extractor.WithBrowser(rendered)), cached))
		case "hollywood":
			opts = append(opts, extractor.WithExtractor(
				extractor.Blocked(theater, "rejects automated requests with 403")))
		}
	}
	return extractor.NewRegistry(opts...)
}

func closeQuietly(ctx context.Context, c io.Closer) {
	if err := c.Close(); err != nil {
		slog.DebugContext(ctx, "close failed", "error", err)
	}
}
