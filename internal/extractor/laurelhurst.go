package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/drewfead/pdx-indie-showtimes/internal/dates"
)

// gblMoviesRE pulls the embedded schedule object out of the page's inline
// script. The site ships its whole program as one JS literal.
var gblMoviesRE = regexp.MustCompile(`(?s)var\s+gbl_movies\s*=\s*(\{.*?\});`)

// Laurelhurst extracts listings from the Laurelhurst Theater site, which
// embeds a gbl_movies JavaScript object holding the full schedule.
func Laurelhurst(
	theater internal.Theater,
	enrich internal.EnrichmentProvider,
	posters internal.PosterStore,
	opts ...Option,
) internal.Extractor {
	o := buildOptions(opts)
	return &laurelhurstExtractor{
		builder: newBuilder(theater, enrich, posters),
		client:  o.client,
	}
}

type laurelhurstExtractor struct {
	*builder
	client *http.Client
}

// flexString accepts JSON strings and bare numbers; the site is not
// consistent about which it emits for ratings and runtimes.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type laurelhurstFilm struct {
	Title     string                     `json:"title"`
	PosterURL string                     `json:"posterURL"`
	Rating    flexString                 `json:"rating"`
	LengthMin flexString                 `json:"lengthMin"`
	Schedule  map[string]json.RawMessage `json:"schedule"`
}

type laurelhurstShow struct {
	TimeStr string `json:"timeStr"`
}

func (l *laurelhurstExtractor) TheaterID() string {
	return l.theater.ID
}

func (l *laurelhurstExtractor) Extract(ctx context.Context, window internal.Window) ([]internal.MovieRecord, error) {
	resp, err := fetchPage(ctx, l.client, l.theater.URL)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", internal.ErrSourceUnavailable, l.theater.URL, err)
	}

	match := gblMoviesRE.FindSubmatch(body)
	if match == nil {
		return nil, fmt.Errorf("%w: gbl_movies not found in page source", internal.ErrParseMismatch)
	}
	var films map[string]laurelhurstFilm
	if err := json.Unmarshal(match[1], &films); err != nil {
		return nil, fmt.Errorf("%w: gbl_movies: %v", internal.ErrParseMismatch, err)
	}

	targetDates := make(map[string]string, window.Days)
	for i := 0; i < window.Days; i++ {
		d := window.Start.AddDate(0, 0, i)
		targetDates[d.Format("20060102")] = d.Format("2006-01-02")
	}

	codes := make([]string, 0, len(films))
	for code := range films {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var records []internal.MovieRecord
	for _, code := range codes {
		film := films[code]
		title := strings.TrimSpace(film.Title)
		if title == "" {
			continue
		}

		var showtimes []internal.ShowingEntry
		dateKeys := make([]string, 0, len(film.Schedule))
		for key := range film.Schedule {
			dateKeys = append(dateKeys, key)
		}
		sort.Strings(dateKeys)
		for _, key := range dateKeys {
			isoDate, ok := targetDates[key]
			if !ok {
				continue
			}
			var shows []laurelhurstShow
			if err := json.Unmarshal(film.Schedule[key], &shows); err != nil {
				continue
			}
			for _, show := range shows {
				if show.TimeStr == "" {
					continue
				}
				showtimes = append(showtimes, internal.ShowingEntry{
					Time: dates.NormalizeTime(show.TimeStr),
					URL:  l.theater.URL,
					Date: isoDate,
				})
			}
		}
		if len(showtimes) == 0 {
			continue
		}

		rec := l.record(ctx, title, "", l.theater.URL, showtimes)
		rec.Description = prependFilmMeta(rec.Description, string(film.Rating), string(film.LengthMin))
		if rec.Poster == "" && film.PosterURL != "" {
			rec.Poster = film.PosterURL
		}
		records = append(records, rec)
	}
	return records, nil
}

// prependFilmMeta prefixes the description with the theater's own rating and
// runtime, e.g. "Rated R | 89 min".
func prependFilmMeta(description, rating, lengthMin string) string {
	var meta string
	if rating != "" {
		meta = "Rated " + rating
	}
	if lengthMin != "" {
		if meta != "" {
			meta += " | " + lengthMin + " min"
		} else {
			meta = lengthMin + " min"
		}
	}
	if meta == "" {
		return description
	}
	if description == "" {
		return meta
	}
	return meta + " — " + description
}
