// Package aggregate merges per-theater MovieRecords into the single
// date-indexed catalog that gets persisted.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/drewfead/pdx-indie-showtimes/internal"
)

// Aggregate groups records by lowercase title, merges their showings into
// per-date per-theater lists, and wraps the result as a Catalog. It is pure
// apart from the generated_at timestamp and never fails; empty input yields
// a catalog with an empty movie list so the persisted artifact stays valid.
func Aggregate(records []internal.MovieRecord, start time.Time, numDays int) internal.Catalog {
	type accumulator struct {
		movie  internal.AggregatedMovie
		tmdbID int64
	}

	defaultDate := start.Format(time.DateOnly)
	byTitle := make(map[string]*accumulator)
	var order []string

	for _, rec := range records {
		key := strings.ToLower(rec.Title)
		acc, ok := byTitle[key]
		if !ok {
			acc = &accumulator{movie: internal.AggregatedMovie{
				ShowtimesByDate: make(map[string]map[string][]internal.AggregatedShowing),
			}}
			byTitle[key] = acc
			order = append(order, key)
		}

		// Metadata is first-wins, except that a record carrying a TMDB id
		// upgrades a group that has none. The upgrade swaps the whole
		// metadata set, not individual fields.
		if acc.movie.Title == "" || (acc.tmdbID == 0 && rec.TMDBID != 0) {
			acc.movie.Title = rec.Title
			acc.movie.Description = rec.Description
			acc.movie.Poster = optional(rec.Poster)
			acc.movie.LetterboxdURL = rec.LetterboxdURL
			acc.movie.TMDBID = optionalID(rec.TMDBID)
			acc.tmdbID = rec.TMDBID
		}

		for _, showing := range rec.Showtimes {
			date := showing.Date
			if date == "" {
				date = defaultDate
			}
			byDate := acc.movie.ShowtimesByDate
			if byDate[date] == nil {
				byDate[date] = make(map[string][]internal.AggregatedShowing)
			}
			existing := byDate[date][rec.TheaterID]
			if containsTime(existing, showing.Time) {
				continue
			}
			entry := internal.AggregatedShowing{Time: showing.Time, URL: showing.URL}
			if showing.Format != "" && showing.Format != internal.DefaultFormat {
				entry.Format = showing.Format
			}
			byDate[date][rec.TheaterID] = append(existing, entry)
		}
	}

	movies := make([]internal.AggregatedMovie, 0, len(order))
	for _, key := range order {
		movies = append(movies, byTitle[key].movie)
	}
	sort.Slice(movies, func(i, j int) bool {
		return movies[i].Title < movies[j].Title
	})

	return internal.Catalog{
		GeneratedAt: time.Now().Format(time.RFC3339),
		StartDate:   defaultDate,
		NumDays:     numDays,
		Movies:      movies,
	}
}

// containsTime reports whether a showing with this exact time string is
// already listed; duplicate suppression is per theater and date.
func containsTime(showings []internal.AggregatedShowing, t string) bool {
	for _, s := range showings {
		if s.Time == t {
			return true
		}
	}
	return false
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
