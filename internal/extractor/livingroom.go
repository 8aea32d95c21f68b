package extractor

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/drewfead/pdx-indie-showtimes/internal/browser"
	"github.com/drewfead/pdx-indie-showtimes/internal/dates"
)

// livingRoomSettle is longer than the other rendered sources; the Quasar
// component keeps hydrating well after the page reports stable.
const livingRoomSettle = 5 * time.Second

var (
	livingRoomDenylist = []string{
		"living room", "now showing", "coming soon", "menu", "about",
	}

	livingRoomTitleClassRE = regexp.MustCompile(`title|name|heading`)

	// Living Room prints clock times with an explicit meridiem, so bare
	// "19:00"-style tokens are not accepted here.
	livingRoomTimeRE = regexp.MustCompile(`\b(\d{1,2}:\d{2}\s*(?:AM|PM|am|pm))\b`)
)

// LivingRoom extracts listings from Living Room Theaters, a Quasar app
// rendering q-card movie blocks. Cards carry inline showtimes when the
// program is published; otherwise the record falls back to the see-website
// sentinel, as does the generic heading pass used when no cards match.
func LivingRoom(
	theater internal.Theater,
	enrich internal.EnrichmentProvider,
	posters internal.PosterStore,
	opts ...Option,
) internal.Extractor {
	o := buildOptions(opts)
	e := &livingRoomExtractor{
		builder: newBuilder(theater, enrich, posters),
		client:  o.client,
		browser: o.browser,
	}
	if e.browser == nil && !o.plainFetch {
		e.browser = browser.Headless()
	}
	return e
}

type livingRoomExtractor struct {
	*builder
	client  *http.Client
	browser browser.Interface
}

func (l *livingRoomExtractor) TheaterID() string {
	return l.theater.ID
}

func (l *livingRoomExtractor) Extract(ctx context.Context, window internal.Window) ([]internal.MovieRecord, error) {
	html, err := renderedPage(ctx, l.browser, l.client, l.theater.URL, livingRoomSettle)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	records := l.fromCards(ctx, doc, window, seen)
	if len(records) == 0 {
		records = l.fromHeadings(ctx, doc, window, seen)
	}
	return records, nil
}

func (l *livingRoomExtractor) fromCards(
	ctx context.Context,
	doc *goquery.Document,
	window internal.Window,
	seen map[string]bool,
) []internal.MovieRecord {
	var records []internal.MovieRecord
	doc.Find("[class*='q-card'], [class*='movie'], [class*='film']").Each(func(_ int, card *goquery.Selection) {
		title := livingRoomTitle(card)
		if len(title) < 2 || seen[strings.ToLower(title)] {
			return
		}
		seen[strings.ToLower(title)] = true

		movieURL := l.theater.URL
		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			movieURL = resolveLink(l.theater.URL, href)
		}

		showtimes := l.cardTimes(card, window, movieURL)
		if len(showtimes) == 0 {
			showtimes = []internal.ShowingEntry{{
				Time: internal.SeeWebsite,
				URL:  movieURL,
				Date: window.StartDate(),
			}}
		}
		records = append(records, l.record(ctx, title, "", movieURL, showtimes))
	})
	return records
}

// livingRoomTitle prefers an element whose class names it as a title, then
// falls back to the card's first heading.
func livingRoomTitle(card *goquery.Selection) string {
	titled := card.Find("h1, h2, h3, h4, div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return livingRoomTitleClassRE.MatchString(class)
	}).First()
	if titled.Length() == 0 {
		titled = card.Find("h1, h2, h3, h4").First()
	}
	return strings.TrimSpace(titled.Text())
}

func (l *livingRoomExtractor) cardTimes(
	card *goquery.Selection,
	window internal.Window,
	movieURL string,
) []internal.ShowingEntry {
	var showtimes []internal.ShowingEntry
	for _, m := range livingRoomTimeRE.FindAllString(card.Text(), -1) {
		showtimes = append(showtimes, internal.ShowingEntry{
			Time: dates.NormalizeTime(m),
			URL:  movieURL,
			Date: window.StartDate(),
		})
	}
	return showtimes
}

func (l *livingRoomExtractor) fromHeadings(
	ctx context.Context,
	doc *goquery.Document,
	window internal.Window,
	seen map[string]bool,
) []internal.MovieRecord {
	var records []internal.MovieRecord
	doc.Find("h1, h2, h3").Each(func(_ int, heading *goquery.Selection) {
		title := strings.TrimSpace(heading.Text())
		if len(title) < 3 || len(title) > 80 || seen[strings.ToLower(title)] {
			return
		}
		if !plausibleTitle(title, livingRoomDenylist) {
			return
		}
		if heading.Parent().Find("img").Length() == 0 {
			return
		}

		seen[strings.ToLower(title)] = true
		records = append(records, l.record(ctx, title, "", l.theater.URL, []internal.ShowingEntry{{
			Time: internal.SeeWebsite,
			URL:  l.theater.URL,
			Date: window.StartDate(),
		}}))
	})
	return records
}
