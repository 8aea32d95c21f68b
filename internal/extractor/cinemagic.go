package extractor

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/drewfead/pdx-indie-showtimes/internal/dates"
)

var (
	cinemagicTicketRE = regexp.MustCompile(`tickets\.thecinemagictheater\.com/movie/`)
	cinemagicSlugRE   = regexp.MustCompile(`/movie/([^/?]+)`)

	// cinemagicShowtimeRE matches schedule lines like "Friday, Feb 6 - 7:00".
	cinemagicShowtimeRE = regexp.MustCompile(`(?i)((?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)\w*),?\s+` +
		`((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2})\s*[-–]\s*(\d{1,2}:\d{2})`)

	cinemagicHeadingDenylist = []string{"the cinemagic theater", "events", "about", "menu"}
)

// Cinemagic extracts listings from The Cinemagic's Squarespace site. Titles
// come from ticket-link slugs (falling back to page headings); showtimes are
// mined from schedule text. The house is single screen, so every mined
// showtime applies to every title on the page.
func Cinemagic(
	theater internal.Theater,
	enrich internal.EnrichmentProvider,
	posters internal.PosterStore,
	opts ...Option,
) internal.Extractor {
	o := buildOptions(opts)
	return &cinemagicExtractor{
		builder: newBuilder(theater, enrich, posters),
		client:  o.client,
	}
}

type cinemagicExtractor struct {
	*builder
	client *http.Client
}

func (c *cinemagicExtractor) TheaterID() string {
	return c.theater.ID
}

type cinemagicEntry struct {
	title     string
	ticketURL string
}

func (c *cinemagicExtractor) Extract(ctx context.Context, window internal.Window) ([]internal.MovieRecord, error) {
	doc, err := fetchDocument(ctx, c.client, c.theater.URL)
	if err != nil {
		return nil, err
	}

	entries := c.fromTicketLinks(doc)
	if len(entries) == 0 {
		entries = c.fromHeadings(doc)
	}

	showtimes := mineCinemagicShowtimes(doc.Text(), window)

	var records []internal.MovieRecord
	for _, entry := range entries {
		entryShowtimes := make([]internal.ShowingEntry, 0, len(showtimes))
		for _, s := range showtimes {
			s.URL = entry.ticketURL
			entryShowtimes = append(entryShowtimes, s)
		}
		if len(entryShowtimes) == 0 {
			entryShowtimes = []internal.ShowingEntry{{
				Time: internal.SeeWebsite,
				URL:  entry.ticketURL,
			}}
		}
		records = append(records, c.record(ctx, entry.title, "", entry.ticketURL, entryShowtimes))
	}
	return records, nil
}

func (c *cinemagicExtractor) fromTicketLinks(doc *goquery.Document) []cinemagicEntry {
	var entries []cinemagicEntry
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !cinemagicTicketRE.MatchString(href) {
			return
		}
		slugMatch := cinemagicSlugRE.FindStringSubmatch(href)
		if slugMatch == nil {
			return
		}
		slug := slugMatch[1]
		if seen[slug] {
			return
		}
		seen[slug] = true
		entries = append(entries, cinemagicEntry{
			title:     titleCaseWords(strings.ReplaceAll(slug, "-", " ")),
			ticketURL: href,
		})
	})
	return entries
}

func (c *cinemagicExtractor) fromHeadings(doc *goquery.Document) []cinemagicEntry {
	var entries []cinemagicEntry
	doc.Find("h1, h2, h3").Each(func(_ int, h *goquery.Selection) {
		text := strings.TrimSpace(h.Text())
		if len(text) <= 2 || len(text) >= 80 {
			return
		}
		if !plausibleTitle(text, cinemagicHeadingDenylist) {
			return
		}
		entries = append(entries, cinemagicEntry{title: text, ticketURL: c.theater.URL})
	})
	return entries
}

// mineCinemagicShowtimes extracts in-window showtimes from the page text.
// The URL field is left empty for the caller to fill per entry.
func mineCinemagicShowtimes(pageText string, window internal.Window) []internal.ShowingEntry {
	var showtimes []internal.ShowingEntry
	for _, m := range cinemagicShowtimeRE.FindAllStringSubmatch(pageText, -1) {
		date := dates.ResolveDate(m[1], m[2], window.Start)
		if !window.ContainsDate(date) {
			continue
		}
		showtimes = append(showtimes, internal.ShowingEntry{
			Time: dates.NormalizeTime(m[3]),
			Date: date,
		})
	}
	return showtimes
}

func titleCaseWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
