package extractor

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/drewfead/pdx-indie-showtimes/internal/browser"
	"github.com/drewfead/pdx-indie-showtimes/internal/dates"
)

// cinema21Settle is how long the rendered page gets to hydrate before the
// markup is captured. The site is a client-side Next.js app.
const cinema21Settle = 3 * time.Second

var cinema21HeadingDenylist = []string{
	"cinema 21", "now showing", "coming soon", "special events",
	"showtimes", "about", "contact", "menu",
}

// Cinema21 extracts listings from Cinema 21, which renders its program
// client-side. By default the page goes through the shared headless browser;
// WithPlainFetch switches to a direct fetch for markup that needs no
// rendering (tests use this).
func Cinema21(
	theater internal.Theater,
	enrich internal.EnrichmentProvider,
	posters internal.PosterStore,
	opts ...Option,
) internal.Extractor {
	o := buildOptions(opts)
	e := &cinema21Extractor{
		builder: newBuilder(theater, enrich, posters),
		client:  o.client,
		browser: o.browser,
	}
	if e.browser == nil && !o.plainFetch {
		e.browser = browser.Headless()
	}
	return e
}

type cinema21Extractor struct {
	*builder
	client  *http.Client
	browser browser.Interface
}

func (c *cinema21Extractor) TheaterID() string {
	return c.theater.ID
}

func (c *cinema21Extractor) Extract(ctx context.Context, window internal.Window) ([]internal.MovieRecord, error) {
	html, err := c.renderedHTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	var records []internal.MovieRecord
	seen := make(map[string]bool)
	doc.Find("h1, h2, h3, h4").Each(func(_ int, heading *goquery.Selection) {
		title := strings.TrimSpace(heading.Text())
		if len(title) < 2 || len(title) > 100 {
			return
		}
		if seen[strings.ToLower(title)] {
			return
		}
		if !plausibleTitle(title, cinema21HeadingDenylist) {
			return
		}

		parent := heading.Parent()
		showtimes := c.timesNearby(parent, window)
		movieURL := c.headingLink(heading, parent)

		if len(showtimes) == 0 {
			// Without a time, only keep headings that look like a movie
			// block: an adjacent image or descriptive paragraph.
			if parent.Find("img").Length() == 0 && parent.Find("p").Length() == 0 {
				return
			}
			showtimes = []internal.ShowingEntry{{
				Time: internal.SeeWebsite,
				URL:  movieURL,
				Date: window.StartDate(),
			}}
		}

		seen[strings.ToLower(title)] = true
		records = append(records, c.record(ctx, title, "", movieURL, showtimes))
	})
	return records, nil
}

func (c *cinema21Extractor) renderedHTML(ctx context.Context) (string, error) {
	return renderedPage(ctx, c.browser, c.client, c.theater.URL, cinema21Settle)
}

// timesNearby mines showtime-shaped tokens from the heading's enclosing
// block. Tokens that do not normalize to a clock time (e.g. "21:9" aspect
// ratios fail parsing, scores like "4:50000" never match) are skipped.
func (c *cinema21Extractor) timesNearby(parent *goquery.Selection, window internal.Window) []internal.ShowingEntry {
	if parent.Length() == 0 {
		return nil
	}
	var showtimes []internal.ShowingEntry
	for _, m := range timePatternRE.FindAllString(parent.Text(), -1) {
		if _, ok := dates.ParseClock(m); !ok {
			continue
		}
		showtimes = append(showtimes, internal.ShowingEntry{
			Time: dates.NormalizeTime(m),
			URL:  c.theater.URL,
			Date: window.StartDate(),
		})
	}
	return showtimes
}

func (c *cinema21Extractor) headingLink(heading, parent *goquery.Selection) string {
	href, ok := heading.Find("a[href]").First().Attr("href")
	if !ok && parent.Length() > 0 {
		href, ok = parent.Find("a[href]").First().Attr("href")
	}
	if !ok {
		return c.theater.URL
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		if base, err := url.Parse(c.theater.URL); err == nil {
			if ref, err := url.Parse(href); err == nil {
				return base.ResolveReference(ref).String()
			}
		}
	}
	return c.theater.URL
}
