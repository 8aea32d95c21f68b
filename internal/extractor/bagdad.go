package extractor

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/drewfead/pdx-indie-showtimes/internal/dates"
)

var (
	// bagdadMetaRE recognizes the "R, Running time: 113 minutes" line that
	// follows every movie title on the McMenamins page.
	bagdadMetaRE    = regexp.MustCompile(`(Running time|minutes|PG|PG-13|R,|NR)`)
	bagdadRuntimeRE = regexp.MustCompile(`(Running time|minutes)`)
	bagdadTimeRE    = regexp.MustCompile(`^\d{1,2}:\d{2}\s*(AM|PM|am|pm)?`)
	bagdadNoiseRE   = regexp.MustCompile(`(?i)(Running time|minutes|ticket|price|before|after|\$)`)

	bagdadNowPlayingRE = regexp.MustCompile(`(?is)Now Playing(.*?)(?:Coming Soon|Prices|$)`)
)

// Bagdad extracts listings from the McMenamins Bagdad Theater page, which
// lays movies out as a heading followed by rating/runtime, synopsis, and
// showtime-button siblings. A text-mining pass over the Now Playing section
// backs it up when that structure is missing.
func Bagdad(
	theater internal.Theater,
	enrich internal.EnrichmentProvider,
	posters internal.PosterStore,
	opts ...Option,
) internal.Extractor {
	o := buildOptions(opts)
	return &bagdadExtractor{
		builder: newBuilder(theater, enrich, posters),
		client:  o.client,
	}
}

type bagdadExtractor struct {
	*builder
	client *http.Client
}

func (b *bagdadExtractor) TheaterID() string {
	return b.theater.ID
}

func (b *bagdadExtractor) Extract(ctx context.Context, window internal.Window) ([]internal.MovieRecord, error) {
	doc, err := fetchDocument(ctx, b.client, b.theater.URL)
	if err != nil {
		return nil, err
	}
	if records := b.fromMovieSections(ctx, doc, window); len(records) > 0 {
		return records, nil
	}
	return b.fromNowPlayingText(ctx, doc, window), nil
}

func (b *bagdadExtractor) fromMovieSections(ctx context.Context, doc *goquery.Document, window internal.Window) []internal.MovieRecord {
	var records []internal.MovieRecord
	doc.Find("h2, h3, h4").Each(func(_ int, heading *goquery.Selection) {
		title := strings.TrimSpace(heading.Text())
		if len(title) < 2 {
			return
		}
		// Corroboration: the immediate sibling must carry rating/runtime
		// text, otherwise this is navigation, not a movie.
		if !bagdadMetaRE.MatchString(strings.TrimSpace(heading.Next().Text())) {
			return
		}

		description, ratingRuntime := b.siblingText(heading)
		showtimes := b.showtimeButtons(heading, window)
		movieURL := b.seeAllDatesLink(heading)

		if len(showtimes) == 0 {
			showtimes = []internal.ShowingEntry{{
				Time: internal.SeeWebsite,
				URL:  movieURL,
				Date: window.StartDate(),
			}}
		}
		if ratingRuntime != "" && description != "" {
			description = ratingRuntime + " — " + description
		} else if ratingRuntime != "" {
			description = ratingRuntime
		}
		records = append(records, b.record(ctx, title, description, movieURL, showtimes))
	})
	return records
}

// siblingText walks the heading's following siblings up to the next movie
// heading, collecting the rating/runtime line and the first long paragraph.
func (b *bagdadExtractor) siblingText(heading *goquery.Selection) (description, ratingRuntime string) {
	for sib := heading.Next(); sib.Length() > 0; sib = sib.Next() {
		text := strings.TrimSpace(sib.Text())
		switch {
		case bagdadRuntimeRE.MatchString(text):
			ratingRuntime = text
		case goquery.NodeName(sib) == "p" && len(text) > 20 && description == "":
			description = text
		case goquery.NodeName(sib) == "h2" || goquery.NodeName(sib) == "h3" || goquery.NodeName(sib) == "h4":
			return description, ratingRuntime
		}
	}
	return description, ratingRuntime
}

func (b *bagdadExtractor) showtimeButtons(heading *goquery.Selection, window internal.Window) []internal.ShowingEntry {
	parent := heading.Parent()
	if parent.Length() == 0 {
		return nil
	}
	var showtimes []internal.ShowingEntry
	parent.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		text := strings.TrimSpace(link.Text())
		if !bagdadTimeRE.MatchString(text) {
			return
		}
		href, _ := link.Attr("href")
		if href == "" {
			href = b.theater.URL
		}
		showtimes = append(showtimes, internal.ShowingEntry{
			Time: dates.NormalizeTime(text),
			URL:  href,
			Date: window.StartDate(),
		})
	})
	return showtimes
}

func (b *bagdadExtractor) seeAllDatesLink(heading *goquery.Selection) string {
	for sib := heading.Next(); sib.Length() > 0; sib = sib.Next() {
		if goquery.NodeName(sib) != "a" {
			continue
		}
		text := strings.ToLower(strings.TrimSpace(sib.Text()))
		if !strings.Contains(text, "showtime") && !strings.Contains(text, "dates") {
			continue
		}
		href, ok := sib.Attr("href")
		if !ok {
			continue
		}
		if strings.HasPrefix(href, "http") {
			return href
		}
		if base, err := url.Parse(b.theater.URL); err == nil {
			if ref, err := url.Parse(href); err == nil {
				return base.ResolveReference(ref).String()
			}
		}
	}
	return b.theater.URL
}

// fromNowPlayingText mines the Now Playing section of the page text for
// title-shaped lines when the structured layout yields nothing.
func (b *bagdadExtractor) fromNowPlayingText(ctx context.Context, doc *goquery.Document, window internal.Window) []internal.MovieRecord {
	match := bagdadNowPlayingRE.FindStringSubmatch(doc.Text())
	if match == nil {
		return nil
	}
	var records []internal.MovieRecord
	for _, line := range textLines(match[1]) {
		if bagdadNoiseRE.MatchString(line) {
			continue
		}
		if len(line) < 3 || len(line) > 80 {
			continue
		}
		first := rune(line[0])
		if first < 'A' || first > 'Z' {
			continue
		}
		records = append(records, b.record(ctx, line, "", b.theater.URL,
			[]internal.ShowingEntry{{
				Time: internal.SeeWebsite,
				URL:  b.theater.URL,
				Date: window.StartDate(),
			}}))
	}
	return records
}
