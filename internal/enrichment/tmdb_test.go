package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewriteTransport sends every request to the test server regardless of the
// host the TMDB client dialed.
type rewriteTransport struct {
	target *url.URL
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func mountTMDB(t *testing.T, searches *atomic.Int64, body string) *http.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/search/movie")
		searches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	target, err := url.Parse(server.URL)
	require.NoError(t, err)
	return &http.Client{Transport: &rewriteTransport{target: target}}
}

const tmdbSearchBody = `{
  "page": 1,
  "results": [
    {
      "id": 693134,
      "title": "Dune: Part Two",
      "overview": "Paul Atreides unites with Chani and the Fremen.",
      "poster_path": "/dune2.jpg",
      "release_date": "2024-02-27"
    },
    {
      "id": 438631,
      "title": "Dune",
      "overview": "The wrong one.",
      "poster_path": "/dune1.jpg",
      "release_date": "2021-09-15"
    }
  ],
  "total_pages": 1,
  "total_results": 2
}`

func TestUnit_TMDB_SearchFirstResult(t *testing.T) {
	var searches atomic.Int64
	client := mountTMDB(t, &searches, tmdbSearchBody)
	provider, err := TMDB("test-key", TMDBWithClient(client))
	require.NoError(t, err, "TMDB")

	meta, err := provider.Search(context.Background(), "Dune Part Two")
	require.NoError(t, err, "Search")
	require.NotNil(t, meta)
	assert.Equal(t, int64(693134), meta.TMDBID)
	assert.Equal(t, "Dune: Part Two", meta.Title)
	assert.Equal(t, "Paul Atreides unites with Chani and the Fremen.", meta.Overview)
	assert.Equal(t, "/dune2.jpg", meta.PosterPath)
	assert.Equal(t, "2024-02-27", meta.ReleaseDate)
}

func TestUnit_TMDB_LookupCacheByLowercaseTitle(t *testing.T) {
	var searches atomic.Int64
	client := mountTMDB(t, &searches, tmdbSearchBody)
	provider, err := TMDB("test-key", TMDBWithClient(client))
	require.NoError(t, err, "TMDB")

	_, err = provider.Search(context.Background(), "Dune: Part Two")
	require.NoError(t, err)
	_, err = provider.Search(context.Background(), "DUNE: PART TWO")
	require.NoError(t, err)
	assert.Equal(t, int64(1), searches.Load(), "case variants share one lookup")
}

func TestUnit_TMDB_MissIsCachedNotAnError(t *testing.T) {
	var searches atomic.Int64
	client := mountTMDB(t, &searches, `{"page":1,"results":[],"total_pages":0,"total_results":0}`)
	provider, err := TMDB("test-key", TMDBWithClient(client))
	require.NoError(t, err, "TMDB")

	meta, err := provider.Search(context.Background(), "Completely Unknown Film")
	require.NoError(t, err)
	assert.Nil(t, meta)

	meta, err = provider.Search(context.Background(), "Completely Unknown Film")
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Equal(t, int64(1), searches.Load(), "misses are cached too")
}

func TestUnit_TMDB_RequiresKey(t *testing.T) {
	_, err := TMDB("")
	require.Error(t, err)
}
