package internal

import "time"

// SeeWebsite is the sentinel showing time used when a source only exposes a
// generic listing link instead of concrete times.
const SeeWebsite = "See website"

// DefaultFormat is the implicit screening format; it is never serialized.
const DefaultFormat = "Standard"

// ShowingEntry is one bookable screening of a movie at one theater.
type ShowingEntry struct {
	// Time is canonical "H:MM AM/PM" (no leading zero), or SeeWebsite.
	Time string `json:"time"`
	// URL is the booking or info link; falls back to the theater's URL.
	URL string `json:"url"`
	// Date is ISO YYYY-MM-DD. Empty means "the catalog's start date";
	// the aggregator fills the default.
	Date string `json:"date,omitempty"`
	// Format is e.g. "IMAX"; empty or DefaultFormat is treated as absent.
	Format string `json:"format,omitempty"`
}

// MovieRecord is one title at one theater, pre-aggregation. Built once by an
// extractor (enrichment fields filled at build time) and folded into an
// AggregatedMovie immediately after.
type MovieRecord struct {
	ID            string         `json:"-"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Poster        string         `json:"poster,omitempty"`
	TheaterID     string         `json:"theater_id"`
	TheaterURL    string         `json:"theater_url"`
	LetterboxdURL string         `json:"letterboxd_url"`
	TMDBID        int64          `json:"tmdb_id,omitempty"`
	Showtimes     []ShowingEntry `json:"showtimes"`
}

// AggregatedShowing is a ShowingEntry projected into the per-date map, where
// the date is the outer key.
type AggregatedShowing struct {
	Time   string `json:"time"`
	URL    string `json:"url"`
	Format string `json:"format,omitempty"`
}

// AggregatedMovie is one title across all theaters and dates, keyed by
// lowercase title. Poster and TMDBID serialize as null when absent to match
// the artifact the frontend consumes.
type AggregatedMovie struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Poster        *string `json:"poster"`
	LetterboxdURL string  `json:"letterboxd_url"`
	TMDBID        *int64  `json:"tmdb_id"`

	// ShowtimesByDate maps ISO date -> theater id -> showings. For a given
	// (date, theater) pair no two entries share the same Time.
	ShowtimesByDate map[string]map[string][]AggregatedShowing `json:"showtimes"`
}

// Catalog is the final persisted artifact.
type Catalog struct {
	GeneratedAt string            `json:"generated_at"`
	StartDate   string            `json:"start_date"`
	NumDays     int               `json:"num_days"`
	Movies      []AggregatedMovie `json:"movies"`
}

// Theater is one configured source.
type Theater struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	URL     string `json:"url" yaml:"url"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// Window is the requested date range: [Start, Start+Days) by calendar date.
type Window struct {
	Start time.Time
	Days  int
}

// StartDate returns the window's first date as ISO YYYY-MM-DD.
func (w Window) StartDate() string {
	return w.Start.Format(time.DateOnly)
}

// Contains reports whether t's calendar date falls inside the window.
func (w Window) Contains(t time.Time) bool {
	day := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	start := day(w.Start)
	end := start.AddDate(0, 0, w.Days)
	d := day(t)
	return !d.Before(start) && d.Before(end)
}

// ContainsDate is Contains for an ISO YYYY-MM-DD string. Unparseable dates
// are out of the window.
func (w Window) ContainsDate(date string) bool {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return false
	}
	return w.Contains(t)
}
