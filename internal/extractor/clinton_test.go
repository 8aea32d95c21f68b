package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow() internal.Window {
	return internal.Window{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Days:  7,
	}
}

func clintonTheater(url string) internal.Theater {
	return internal.Theater{
		ID:   "clinton",
		Name: "Clinton Street Theater",
		URL:  url,
	}
}

func mountHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

const clintonJSONLDPage = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
[
  {
    "@type": "ScreeningEvent",
    "name": "The Room",
    "startDate": "2026-03-03T19:00:00-08:00",
    "url": "https://cstpdx.com/event/the-room/",
    "description": "Monthly screening with live audience participation."
  },
  {
    "@type": "Event",
    "name": "Out of Window",
    "startDate": "2026-03-20T19:00:00-08:00",
    "url": "https://cstpdx.com/event/out-of-window/"
  },
  {
    "@type": "WebPage",
    "name": "Clinton Street Theater"
  }
]
</script>
</head><body>
<article class="tribe-events-calendar-list__event">
  <h3 class="tribe-events-calendar-list__event-title"><a href="https://cstpdx.com/event/ignored/">Ignored By Higher Tier</a></h3>
</article>
</body></html>`

func TestUnit_Clinton_JSONLD(t *testing.T) {
	server := mountHTML(t, clintonJSONLDPage)
	e := Clinton(clintonTheater(server.URL), nil, nil, WithClient(server.Client()))

	records, err := e.Extract(context.Background(), testWindow())
	require.NoError(t, err, "Extract")
	require.Len(t, records, 1, "only the in-window ScreeningEvent should survive")

	rec := records[0]
	assert.Equal(t, "The Room", rec.Title)
	assert.Equal(t, "clinton", rec.TheaterID)
	assert.Equal(t, "Monthly screening with live audience participation.", rec.Description)
	assert.Equal(t, "https://letterboxd.com/film/the-room/", rec.LetterboxdURL)
	require.Len(t, rec.Showtimes, 1)
	assert.Equal(t, "7:00 PM", rec.Showtimes[0].Time)
	assert.Equal(t, "2026-03-03", rec.Showtimes[0].Date)
	assert.Equal(t, "https://cstpdx.com/event/the-room/", rec.Showtimes[0].URL)
}

const clintonTribePage = `<!DOCTYPE html>
<html><body>
<article class="tribe-events-calendar-list__event post-123">
  <h3 class="tribe-events-calendar-list__event-title">
    <a href="https://cstpdx.com/event/eraserhead/">Eraserhead</a>
  </h3>
  <time datetime="2026-03-05T21:30:00-08:00">March 5 @ 9:30 pm</time>
  <div class="tribe-events-calendar-list__event-description">Lynch's first feature.</div>
</article>
<article class="tribe-events-calendar-list__event post-124">
  <h3 class="tribe-events-calendar-list__event-title">
    <a href="https://cstpdx.com/event/later/">Way Later</a>
  </h3>
  <time datetime="2026-04-01T19:00:00-08:00">April 1 @ 7:00 pm</time>
</article>
<article class="tribe-events-calendar-list__event post-125">
  <h3>No Time Listed</h3>
  <a href="https://cstpdx.com/event/no-time/">details</a>
  <p>A mystery program.</p>
</article>
</body></html>`

func TestUnit_Clinton_TribeEvents(t *testing.T) {
	server := mountHTML(t, clintonTribePage)
	e := Clinton(clintonTheater(server.URL), nil, nil, WithClient(server.Client()))

	records, err := e.Extract(context.Background(), testWindow())
	require.NoError(t, err, "Extract")
	require.Len(t, records, 2, "out-of-window event should be dropped")

	assert.Equal(t, "Eraserhead", records[0].Title)
	assert.Equal(t, "Lynch's first feature.", records[0].Description)
	require.Len(t, records[0].Showtimes, 1)
	assert.Equal(t, "9:30 PM", records[0].Showtimes[0].Time)
	assert.Equal(t, "2026-03-05", records[0].Showtimes[0].Date)

	assert.Equal(t, "No Time Listed", records[1].Title)
	assert.Equal(t, "A mystery program.", records[1].Description)
	require.Len(t, records[1].Showtimes, 1)
	assert.Equal(t, internal.SeeWebsite, records[1].Showtimes[0].Time)
	assert.Equal(t, "2026-03-01", records[1].Showtimes[0].Date)
}

const clintonHeadingsPage = `<!DOCTYPE html>
<html><body>
<h2><a href="https://cstpdx.com/event/repo-man/">Repo Man</a></h2>
<h2><a href="https://cstpdx.com/about/">About Us</a></h2>
<h3><a href="https://cstpdx.com/events/filmed-by-bike/">Filmed by Bike</a></h3>
<h3>No Link Here</h3>
</body></html>`

func TestUnit_Clinton_HeadingFallback(t *testing.T) {
	server := mountHTML(t, clintonHeadingsPage)
	e := Clinton(clintonTheater(server.URL), nil, nil, WithClient(server.Client()))

	records, err := e.Extract(context.Background(), testWindow())
	require.NoError(t, err, "Extract")
	require.Len(t, records, 2, "only headings linking to event pages qualify")

	assert.Equal(t, "Repo Man", records[0].Title)
	assert.Equal(t, internal.SeeWebsite, records[0].Showtimes[0].Time)
	assert.Equal(t, "2026-03-01", records[0].Showtimes[0].Date)
	assert.Equal(t, "Filmed by Bike", records[1].Title)
}

func TestUnit_Clinton_SourceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	e := Clinton(clintonTheater(server.URL), nil, nil, WithClient(server.Client()))
	_, err := e.Extract(context.Background(), testWindow())
	require.ErrorIs(t, err, internal.ErrSourceUnavailable)
}
