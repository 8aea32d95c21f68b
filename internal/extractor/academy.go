package extractor

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/drewfead/pdx-indie-showtimes/internal/browser"
)

// academySettle gives the Theme UI card grid time to hydrate after load.
const academySettle = 3 * time.Second

var academyDenylist = []string{
	"academy theater", "now playing", "coming soon", "showtimes",
	"events", "menu", "shop", "more", "revival films", "buy tickets",
	"home", "about", "contact", "gift cards", "private events",
}

// Academy extracts listings from the Academy Theater, which renders its
// movie grid client-side and never inlines showtimes. The dedicated
// showtimes page is tried first, then the main page; every record carries
// the see-website sentinel pointing at the movie card's link.
func Academy(
	theater internal.Theater,
	enrich internal.EnrichmentProvider,
	posters internal.PosterStore,
	opts ...Option,
) internal.Extractor {
	o := buildOptions(opts)
	e := &academyExtractor{
		builder: newBuilder(theater, enrich, posters),
		client:  o.client,
		browser: o.browser,
	}
	if e.browser == nil && !o.plainFetch {
		e.browser = browser.Headless()
	}
	return e
}

type academyExtractor struct {
	*builder
	client  *http.Client
	browser browser.Interface
}

func (a *academyExtractor) TheaterID() string {
	return a.theater.ID
}

func (a *academyExtractor) Extract(ctx context.Context, window internal.Window) ([]internal.MovieRecord, error) {
	pages := []string{
		strings.TrimRight(a.theater.URL, "/") + "/showtimes",
		a.theater.URL,
	}

	var lastErr error
	for _, pageURL := range pages {
		html, err := renderedPage(ctx, a.browser, a.client, pageURL, academySettle)
		if err != nil {
			lastErr = err
			continue
		}
		doc, err := parseDocument(html)
		if err != nil {
			lastErr = err
			continue
		}
		if records := a.fromCards(ctx, doc, window); len(records) > 0 {
			return records, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// fromCards mines the movie grid. A candidate element counts as a movie
// card when an image sits in its enclosing block or it is itself a link to
// something other than the showtimes page.
func (a *academyExtractor) fromCards(
	ctx context.Context,
	doc *goquery.Document,
	window internal.Window,
) []internal.MovieRecord {
	var records []internal.MovieRecord
	seen := make(map[string]bool)
	doc.Find("h2, h3, h4, a, div").Each(func(_ int, elem *goquery.Selection) {
		title := strings.TrimSpace(elem.Text())
		if len(title) < 2 || len(title) > 80 || seen[strings.ToLower(title)] {
			return
		}
		if !plausibleTitle(title, academyDenylist) {
			return
		}

		parent := elem.Parent()
		href, isLink := elem.Attr("href")
		hasImage := parent.Find("img").Length() > 0
		if !hasImage && !(isLink && !strings.Contains(href, "/showtimes")) {
			return
		}

		movieURL := a.theater.URL
		switch {
		case isLink:
			movieURL = resolveLink(a.theater.URL, href)
		default:
			if link, ok := elem.Find("a[href]").First().Attr("href"); ok {
				movieURL = resolveLink(a.theater.URL, link)
			} else if link, ok := parent.Find("a[href]").First().Attr("href"); ok {
				movieURL = resolveLink(a.theater.URL, link)
			}
		}

		seen[strings.ToLower(title)] = true
		records = append(records, a.record(ctx, title, "", movieURL, []internal.ShowingEntry{{
			Time: internal.SeeWebsite,
			URL:  movieURL,
			Date: window.StartDate(),
		}}))
	})
	return records
}
