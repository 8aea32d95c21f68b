// Package httputil provides a caching RoundTripper used on the enrichment
// HTTP path, so repeated metadata lookups within one run do not re-hit the
// provider.
package httputil

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxEntries = 1000

// CacheTransport caches successful GET responses by "METHOD URL" key with
// LRU eviction. Concurrent requests do not block each other; duplicate
// in-flight requests for the same key may both hit the backend.
type CacheTransport struct {
	Base http.RoundTripper

	// MaxEntries bounds the cache; zero means defaultMaxEntries.
	MaxEntries int

	initOnce sync.Once
	initErr  error
	cache    *lru.Cache[string, *cachedResponse]
}

type cachedResponse struct {
	Status  int
	Header  http.Header
	Body    []byte
	Expires time.Time // zero = no expiration, LRU only
}

func (t *CacheTransport) ensureCache() error {
	t.initOnce.Do(func() {
		size := t.MaxEntries
		if size <= 0 {
			size = defaultMaxEntries
		}
		t.cache, t.initErr = lru.New[string, *cachedResponse](size)
	})
	return t.initErr
}

// RoundTrip implements http.RoundTripper.
func (t *CacheTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.ensureCache(); err != nil {
		return nil, err
	}
	key := req.Method + " " + req.URL.String()
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if !requestWantsFresh(req) {
		if entry, ok := t.cache.Get(key); ok {
			if entry.Expires.IsZero() || time.Now().Before(entry.Expires) {
				return entry.response(req), nil
			}
			t.cache.Remove(key)
		}
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if req.Method != http.MethodGet || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}
	noStore, maxAge := responseCacheControl(resp.Header)
	if noStore {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	entry := &cachedResponse{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}
	if maxAge > 0 {
		entry.Expires = time.Now().Add(time.Duration(maxAge) * time.Second)
	}
	t.cache.Add(key, entry)

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func (e *cachedResponse) response(req *http.Request) *http.Response {
	return &http.Response{
		StatusCode:    e.Status,
		Header:        e.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// requestWantsFresh reports whether the request's Cache-Control asks to
// bypass the cache (no-cache or max-age=0).
func requestWantsFresh(req *http.Request) bool {
	cc := req.Header.Get("Cache-Control")
	if cc == "" {
		return false
	}
	for _, part := range strings.Split(cc, ",") {
		part = strings.TrimSpace(part)
		if part == "no-cache" {
			return true
		}
		if after, ok := strings.CutPrefix(part, "max-age="); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(after)); err == nil && n <= 0 {
				return true
			}
		}
	}
	return false
}

// responseCacheControl parses the response Cache-Control headers: whether
// caching is forbidden, and the max-age / s-maxage in seconds (0 = unset).
func responseCacheControl(header http.Header) (noStore bool, maxAge int) {
	for _, cc := range header["Cache-Control"] {
		for _, part := range strings.Split(cc, ",") {
			part = strings.TrimSpace(strings.ToLower(part))
			if part == "no-store" || part == "no-cache" {
				noStore = true
			}
			for _, prefix := range []string{"max-age=", "s-maxage="} {
				if after, ok := strings.CutPrefix(part, prefix); ok {
					if n, err := strconv.Atoi(strings.TrimSpace(after)); err == nil && n > 0 {
						maxAge = n
					}
				}
			}
		}
	}
	return noStore, maxAge
}
