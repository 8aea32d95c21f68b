package extractor

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/drewfead/pdx-indie-showtimes/internal"
)

// Clinton extracts listings from the Clinton Street Theater site, a
// WordPress install running The Events Calendar plugin. Tactics in order:
// JSON-LD event blocks, tribe-events list markup, then generic headings
// linking to event pages.
func Clinton(
	theater internal.Theater,
	enrich internal.EnrichmentProvider,
	posters internal.PosterStore,
	opts ...Option,
) internal.Extractor {
	o := buildOptions(opts)
	return &clintonExtractor{
		builder: newBuilder(theater, enrich, posters),
		client:  o.client,
	}
}

type clintonExtractor struct {
	*builder
	client *http.Client
}

func (c *clintonExtractor) TheaterID() string {
	return c.theater.ID
}

func (c *clintonExtractor) Extract(ctx context.Context, window internal.Window) ([]internal.MovieRecord, error) {
	doc, err := fetchDocument(ctx, c.client, c.theater.URL)
	if err != nil {
		return nil, err
	}
	if records := c.fromJSONLD(ctx, doc, window); len(records) > 0 {
		return records, nil
	}
	if records := c.fromTribeEvents(ctx, doc, window); len(records) > 0 {
		return records, nil
	}
	return c.fromHeadings(ctx, doc, window), nil
}

type ldEvent struct {
	Type        string `json:"@type"`
	Name        string `json:"name"`
	StartDate   string `json:"startDate"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (c *clintonExtractor) fromJSONLD(ctx context.Context, doc *goquery.Document, window internal.Window) []internal.MovieRecord {
	var records []internal.MovieRecord
	doc.Find(`script[type='application/ld+json']`).Each(func(_ int, s *goquery.Selection) {
		for _, event := range decodeLDEvents(s.Text()) {
			if event.Type != "Event" && event.Type != "ScreeningEvent" {
				continue
			}
			title := strings.TrimSpace(event.Name)
			if title == "" || event.StartDate == "" {
				continue
			}
			start, ok := parseISOTimestamp(event.StartDate)
			if !ok || !window.Contains(start) {
				continue
			}
			eventURL := event.URL
			if eventURL == "" {
				eventURL = c.theater.URL
			}
			records = append(records, c.record(ctx, title, event.Description, eventURL,
				[]internal.ShowingEntry{{
					Time: start.Format("3:04 PM"),
					URL:  eventURL,
					Date: start.Format(time.DateOnly),
				}}))
		}
	})
	return records
}

// decodeLDEvents tolerates both a bare event object and an array of them;
// anything unparseable is skipped.
func decodeLDEvents(raw string) []ldEvent {
	var events []ldEvent
	if err := json.Unmarshal([]byte(raw), &events); err == nil {
		return events
	}
	var single ldEvent
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		return []ldEvent{single}
	}
	return nil
}

func parseISOTimestamp(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (c *clintonExtractor) fromTribeEvents(ctx context.Context, doc *goquery.Document, window internal.Window) []internal.MovieRecord {
	events := doc.Find(`article[class*='tribe-events']`)
	if events.Length() == 0 {
		events = doc.Find(`div[class*='tribe-events-calendar-list__event']`)
	}

	var records []internal.MovieRecord
	events.Each(func(_ int, event *goquery.Selection) {
		titleElem := event.Find(".tribe-events-calendar-list__event-title").First()
		if titleElem.Length() == 0 {
			titleElem = event.Find("h1.entry-title, h2.entry-title, h3.entry-title").First()
		}
		if titleElem.Length() == 0 {
			titleElem = event.Find("h1, h2, h3").First()
		}
		title := strings.TrimSpace(titleElem.Text())
		if title == "" {
			return
		}

		eventURL, ok := titleElem.Find("a[href]").First().Attr("href")
		if !ok {
			eventURL, ok = event.Find("a[href]").First().Attr("href")
		}
		if !ok {
			eventURL = c.theater.URL
		}

		date := window.StartDate()
		timeText := internal.SeeWebsite
		if dt, exists := event.Find("time[datetime]").First().Attr("datetime"); exists {
			if start, parsed := parseISOTimestamp(dt); parsed {
				if !window.Contains(start) {
					return
				}
				date = start.Format(time.DateOnly)
				timeText = start.Format("3:04 PM")
			}
		}

		description := strings.TrimSpace(
			event.Find(".tribe-events-calendar-list__event-description").First().Text())
		if description == "" {
			description = strings.TrimSpace(event.Find("p").First().Text())
		}

		records = append(records, c.record(ctx, title, description, eventURL,
			[]internal.ShowingEntry{{Time: timeText, URL: eventURL, Date: date}}))
	})
	return records
}

// fromHeadings is the last resort: headings that link to event pages become
// records with the sentinel showing, since the event link itself is the
// corroborating context.
func (c *clintonExtractor) fromHeadings(ctx context.Context, doc *goquery.Document, window internal.Window) []internal.MovieRecord {
	var records []internal.MovieRecord
	doc.Find("h2, h3").Each(func(_ int, h *goquery.Selection) {
		title := strings.TrimSpace(h.Text())
		if len(title) < 3 || len(title) > 100 {
			return
		}
		href, ok := h.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		if !strings.Contains(href, "/event/") && !strings.Contains(href, "/events/") {
			return
		}
		records = append(records, c.record(ctx, title, "", href,
			[]internal.ShowingEntry{{
				Time: internal.SeeWebsite,
				URL:  href,
				Date: window.StartDate(),
			}}))
	})
	return records
}
