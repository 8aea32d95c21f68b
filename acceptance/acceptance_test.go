package acceptance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/drewfead/pdx-indie-showtimes/internal/cli"
	"github.com/drewfead/pdx-indie-showtimes/internal/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clintonFixture = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
[
  {
    "@type": "ScreeningEvent",
    "name": "Dune: Part Two",
    "startDate": "2026-03-03T19:00:00-08:00",
    "url": "https://cstpdx.com/event/dune-part-two/",
    "description": "Back on the big screen."
  }
]
</script>
</head><body></body></html>`

const laurelhurstFixture = `<!DOCTYPE html>
<html><head><script>
var gbl_movies = {
  "F001": {
    "title": "DUNE: PART TWO",
    "rating": "PG-13",
    "lengthMin": 166,
    "schedule": {
      "20260303": [{"timeStr": "9:30pm"}]
    }
  }
};
</script></head><body></body></html>`

const searchFixture = `<!DOCTYPE html>
<html><body>
<div data-movie-name="The Substance">
  <a href="#t1">7:15 PM</a>
</div>
</body></html>`

func mountFixture(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

// TestAcceptance_Collect runs the whole pipeline: real extractors against
// fixture servers, a blocked primary deferring to the search fallback, merge
// across theaters, and persisted artifacts.
func TestAcceptance_Collect(t *testing.T) {
	clintonServer := mountFixture(t, clintonFixture)
	laurelhurstServer := mountFixture(t, laurelhurstFixture)
	searchServer := mountFixture(t, searchFixture)

	theaters := []internal.Theater{
		{ID: "clinton", Name: "Clinton Street Theater", URL: clintonServer.URL},
		{ID: "laurelhurst", Name: "Laurelhurst Theater", URL: laurelhurstServer.URL},
		{ID: "hollywood", Name: "Hollywood Theatre", URL: "https://hollywoodtheatre.org"},
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configYAML := "num_days: 7\ntimezone: UTC\ntheaters:\n"
	for _, th := range theaters {
		configYAML += "  - id: " + th.ID + "\n    name: " + th.Name + "\n    url: " + th.URL + "\n"
	}
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o600))

	registry := extractor.NewRegistry(
		extractor.WithExtractor(
			extractor.Clinton(theaters[0], nil, nil, extractor.WithClient(clintonServer.Client()))),
		extractor.WithExtractor(
			extractor.Laurelhurst(theaters[1], nil, nil, extractor.WithClient(laurelhurstServer.Client()))),
		extractor.WithExtractor(
			extractor.Blocked(theaters[2], "rejects automated requests with 403")),
	)
	fallback := func(theater internal.Theater) internal.Extractor {
		return extractor.SearchFallback(theater, nil, nil,
			extractor.WithClient(searchServer.Client()),
			extractor.WithSearchBaseURL(searchServer.URL),
			extractor.WithSearchDelay(0))
	}

	outDir := t.TempDir()
	rootCmd, err := cli.Root(context.Background(),
		cli.WithRegistry(registry),
		cli.WithFallback(fallback),
		cli.WithClock(func() time.Time {
			return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		}))
	require.NoError(t, err, "Root")

	err = rootCmd.Run(context.Background(), []string{
		"pdx-showtimes",
		"--config", configPath,
		"--out", outDir,
		"--no-enrichment",
	})
	require.NoError(t, err, "Run")

	var catalog internal.Catalog
	data, err := os.ReadFile(filepath.Join(outDir, "showtimes.json"))
	require.NoError(t, err, "ReadFile")
	require.NoError(t, json.Unmarshal(data, &catalog))

	require.Len(t, catalog.Movies, 2, "Dune merges across theaters, The Substance comes via fallback")
	assert.Equal(t, "2026-03-01", catalog.StartDate)
	assert.Equal(t, 7, catalog.NumDays)

	dune := catalog.Movies[0]
	assert.Equal(t, "Dune: Part Two", dune.Title, "first extraction wins the casing")
	byTheater := dune.ShowtimesByDate["2026-03-03"]
	require.Len(t, byTheater, 2, "both theaters show under the same date")
	require.Len(t, byTheater["clinton"], 1)
	assert.Equal(t, "7:00 PM", byTheater["clinton"][0].Time)
	require.Len(t, byTheater["laurelhurst"], 1)
	assert.Equal(t, "9:30 PM", byTheater["laurelhurst"][0].Time)

	substance := catalog.Movies[1]
	assert.Equal(t, "The Substance", substance.Title)
	require.Len(t, substance.ShowtimesByDate["2026-03-01"]["hollywood"], 1,
		"dateless fallback showings land on the start date")

	var companion struct {
		Theaters []internal.Theater `json:"theaters"`
	}
	data, err = os.ReadFile(filepath.Join(outDir, "theaters.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &companion))
	assert.Equal(t, theaters, companion.Theaters)
}
