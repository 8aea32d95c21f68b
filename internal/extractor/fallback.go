package extractor

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/drewfead/pdx-indie-showtimes/internal/dates"
)

const (
	defaultSearchBaseURL = "https://www.google.com"

	// defaultSearchDelay is the polite pause after each search request, so a
	// run covering several fallback theaters does not hammer the engine.
	defaultSearchDelay = 2 * time.Second
)

var (
	fallbackTimeLineRE = regexp.MustCompile(`^\d{1,2}:\d{2}\s*(AM|PM|am|pm)$`)
	fallbackTitleRE    = regexp.MustCompile(`^[A-Z][\w\s':,\-!\.]{3,60}$`)

	fallbackDenylist = []string{
		"google", "search", "sign in", "settings", "tools", "about",
		"privacy", "terms", "feedback", "portland",
	}
)

// SearchFallback is the source-agnostic secondary extractor: it searches for
// "<theater name> Portland OR showtimes" and mines the engine's structured
// showtime panels, falling back to line-based text mining. Titles are
// replaced with the enrichment provider's canonical ones when available,
// since search panels abbreviate and restyle names.
func SearchFallback(
	theater internal.Theater,
	enrich internal.EnrichmentProvider,
	posters internal.PosterStore,
	opts ...Option,
) internal.Extractor {
	o := buildOptions(opts)
	b := newBuilder(theater, enrich, posters)
	b.canonicalTitle = true
	return &searchFallbackExtractor{
		builder: b,
		client:  o.client,
		baseURL: o.searchBaseURL,
		delay:   o.searchDelay,
	}
}

type searchFallbackExtractor struct {
	*builder
	client  *http.Client
	baseURL string
	delay   time.Duration
}

func (s *searchFallbackExtractor) TheaterID() string {
	return s.theater.ID
}

func (s *searchFallbackExtractor) Extract(ctx context.Context, window internal.Window) ([]internal.MovieRecord, error) {
	query := url.QueryEscape(s.theater.Name + " Portland OR showtimes")
	searchURL := s.baseURL + "/search?q=" + query + "&hl=en"

	doc, err := fetchDocument(ctx, s.client, searchURL)
	if err != nil {
		return nil, err
	}
	defer s.pause(ctx)

	if records := s.fromShowtimeBlocks(ctx, doc); len(records) > 0 {
		return records, nil
	}
	return s.fromTextLines(ctx, doc), nil
}

func (s *searchFallbackExtractor) pause(ctx context.Context) {
	if s.delay <= 0 {
		return
	}
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
	}
}

func (s *searchFallbackExtractor) fromShowtimeBlocks(ctx context.Context, doc *goquery.Document) []internal.MovieRecord {
	var records []internal.MovieRecord
	doc.Find("div[data-movie-name]").Each(func(_ int, block *goquery.Selection) {
		title := strings.TrimSpace(block.AttrOr("data-movie-name", ""))
		if title == "" {
			return
		}
		var showtimes []internal.ShowingEntry
		block.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			text := strings.TrimSpace(link.Text())
			if !bagdadTimeRE.MatchString(text) {
				return
			}
			if _, ok := dates.ParseClock(text); !ok {
				return
			}
			showtimes = append(showtimes, internal.ShowingEntry{
				Time: dates.NormalizeTime(text),
				URL:  s.theater.URL,
			})
		})
		if len(showtimes) == 0 {
			return
		}
		records = append(records, s.record(ctx, title, "", s.theater.URL, showtimes))
	})
	return records
}

// fromTextLines pairs title-shaped lines with the run of time-shaped lines
// that follows them. A title with no times is discarded as noise.
func (s *searchFallbackExtractor) fromTextLines(ctx context.Context, doc *goquery.Document) []internal.MovieRecord {
	var (
		records      []internal.MovieRecord
		currentTitle string
		currentTimes []internal.ShowingEntry
	)
	flush := func() {
		if currentTitle != "" && len(currentTimes) > 0 {
			records = append(records, s.record(ctx, currentTitle, "", s.theater.URL, currentTimes))
		}
	}
	for _, line := range textLines(doc.Text()) {
		switch {
		case fallbackTimeLineRE.MatchString(line):
			if _, ok := dates.ParseClock(line); ok {
				currentTimes = append(currentTimes, internal.ShowingEntry{
					Time: dates.NormalizeTime(line),
					URL:  s.theater.URL,
				})
			}
		case fallbackTitleRE.MatchString(line) && !containsAny(line, fallbackDenylist):
			flush()
			currentTitle = line
			currentTimes = nil
		}
	}
	flush()
	return records
}
