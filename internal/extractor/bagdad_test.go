package extractor

import (
	"context"
	"testing"

	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bagdadTheater(url string) internal.Theater {
	return internal.Theater{
		ID:   "bagdad",
		Name: "Bagdad Theater & Pub",
		URL:  url,
	}
}

const bagdadPage = `<!DOCTYPE html>
<html><body>
<div class="movie">
  <h3>Anora</h3>
  <span>R, Running time: 139 minutes</span>
  <p>A young escort from Brooklyn meets and impulsively marries the son of an oligarch.</p>
  <a href="https://www.mcmenamins.com/tickets/anora-430">4:30 PM</a>
  <a href="https://www.mcmenamins.com/tickets/anora-730">7:30pm</a>
  <a href="/bagdad/anora">See all dates &amp; showtimes</a>
</div>
<div class="movie">
  <h3>Flow</h3>
  <span>PG, Running time: 85 minutes</span>
</div>
<div class="nav">
  <h3>Events at the Bagdad</h3>
  <span>Live music and more</span>
</div>
</body></html>`

func TestUnit_Bagdad_MovieSections(t *testing.T) {
	server := mountHTML(t, bagdadPage)
	e := Bagdad(bagdadTheater(server.URL), nil, nil, WithClient(server.Client()))

	records, err := e.Extract(context.Background(), testWindow())
	require.NoError(t, err, "Extract")
	require.Len(t, records, 2, "headings without rating/runtime siblings are not movies")

	anora := records[0]
	assert.Equal(t, "Anora", anora.Title)
	assert.Equal(t,
		"R, Running time: 139 minutes — A young escort from Brooklyn meets and impulsively marries the son of an oligarch.",
		anora.Description)
	assert.Equal(t, server.URL+"/bagdad/anora", anora.TheaterURL)
	require.Len(t, anora.Showtimes, 2)
	assert.Equal(t, "4:30 PM", anora.Showtimes[0].Time)
	assert.Equal(t, "https://www.mcmenamins.com/tickets/anora-430", anora.Showtimes[0].URL)
	assert.Equal(t, "7:30 PM", anora.Showtimes[1].Time)
	assert.Equal(t, "2026-03-01", anora.Showtimes[1].Date)

	flow := records[1]
	assert.Equal(t, "Flow", flow.Title)
	assert.Equal(t, "PG, Running time: 85 minutes", flow.Description)
	require.Len(t, flow.Showtimes, 1)
	assert.Equal(t, internal.SeeWebsite, flow.Showtimes[0].Time)
}

const bagdadTextOnlyPage = `<!DOCTYPE html>
<html><body>
<div>Now Playing
The Brutalist
Running time: 215 minutes
$8 before 5pm
Coming Soon
Future Release
</div>
</body></html>`

func TestUnit_Bagdad_NowPlayingTextFallback(t *testing.T) {
	server := mountHTML(t, bagdadTextOnlyPage)
	e := Bagdad(bagdadTheater(server.URL), nil, nil, WithClient(server.Client()))

	records, err := e.Extract(context.Background(), testWindow())
	require.NoError(t, err, "Extract")
	require.Len(t, records, 1, "runtime and price lines are noise, Coming Soon ends the section")

	rec := records[0]
	assert.Equal(t, "The Brutalist", rec.Title)
	require.Len(t, rec.Showtimes, 1)
	assert.Equal(t, internal.SeeWebsite, rec.Showtimes[0].Time)
	assert.Equal(t, "2026-03-01", rec.Showtimes[0].Date)
}
