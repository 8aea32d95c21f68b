package extractor

import (
	"context"
	"testing"

	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func livingRoomTheater(url string) internal.Theater {
	return internal.Theater{
		ID:   "livingroom",
		Name: "Living Room Theaters",
		URL:  url,
	}
}

const livingRoomPage = `<!DOCTYPE html>
<html><body>
<div class="q-card movie-listing">
  <div class="movie-title">The Brutalist</div>
  <a href="/movies/the-brutalist">Details and tickets</a>
  <span>1:00 PM</span>
  <span>4:45pm</span>
</div>
<div class="q-card">
  <h3>Hard Truths</h3>
</div>
</body></html>`

func TestUnit_LivingRoom_CardsWithInlineTimes(t *testing.T) {
	server := mountHTML(t, livingRoomPage)
	e := LivingRoom(livingRoomTheater(server.URL), nil, nil, WithClient(server.Client()), WithPlainFetch())

	records, err := e.Extract(context.Background(), testWindow())
	require.NoError(t, err, "Extract")
	require.Len(t, records, 2)

	brutalist := records[0]
	assert.Equal(t, "The Brutalist", brutalist.Title, "class-named title wins over the card's link text")
	assert.Equal(t, server.URL+"/movies/the-brutalist", brutalist.TheaterURL)
	require.Len(t, brutalist.Showtimes, 2)
	assert.Equal(t, "1:00 PM", brutalist.Showtimes[0].Time)
	assert.Equal(t, "4:45 PM", brutalist.Showtimes[1].Time)
	assert.Equal(t, "2026-03-01", brutalist.Showtimes[0].Date)

	truths := records[1]
	assert.Equal(t, "Hard Truths", truths.Title)
	require.Len(t, truths.Showtimes, 1)
	assert.Equal(t, internal.SeeWebsite, truths.Showtimes[0].Time, "a card without times defers to the site")
	assert.Equal(t, server.URL, truths.Showtimes[0].URL)
}

const livingRoomHeadingsPage = `<!DOCTYPE html>
<html><body>
<div>
  <img src="/img/mulholland.jpg" alt="">
  <h2>Mulholland Drive</h2>
</div>
<h2>Coming Soon</h2>
<h1>Living Room</h1>
</body></html>`

func TestUnit_LivingRoom_HeadingFallback(t *testing.T) {
	server := mountHTML(t, livingRoomHeadingsPage)
	e := LivingRoom(livingRoomTheater(server.URL), nil, nil, WithClient(server.Client()), WithPlainFetch())

	records, err := e.Extract(context.Background(), testWindow())
	require.NoError(t, err, "Extract")
	require.Len(t, records, 1, "only the image-backed heading survives the denylist")
	assert.Equal(t, "Mulholland Drive", records[0].Title)
	assert.Equal(t, internal.SeeWebsite, records[0].Showtimes[0].Time)
}
