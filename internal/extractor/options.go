package extractor

import (
	"net/http"
	"time"

	"github.com/drewfead/pdx-indie-showtimes/internal/browser"
)

type options struct {
	client        *http.Client
	browser       browser.Interface
	plainFetch    bool
	searchBaseURL string
	searchDelay   time.Duration
}

// Option adjusts how an extractor reaches its source. Defaults are the
// shared timeout-bounded HTTP client and, for browser-backed extractors, a
// lazily launched headless session.
type Option func(*options)

// WithClient overrides the HTTP client used for page fetches. Tests point
// this at an httptest server.
func WithClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithBrowser overrides the headless browser used by extractors that need
// rendered markup.
func WithBrowser(b browser.Interface) Option {
	return func(o *options) {
		o.browser = b
	}
}

// WithPlainFetch makes browser-backed extractors fetch their page over
// plain HTTP instead of rendering it. For sources that turn out to be
// server-rendered, and for tests serving fixture markup.
func WithPlainFetch() Option {
	return func(o *options) {
		o.plainFetch = true
	}
}

// WithSearchBaseURL overrides the search engine endpoint used by the
// fallback extractor.
func WithSearchBaseURL(baseURL string) Option {
	return func(o *options) {
		o.searchBaseURL = baseURL
	}
}

// WithSearchDelay overrides the polite pause after each search request.
func WithSearchDelay(d time.Duration) Option {
	return func(o *options) {
		o.searchDelay = d
	}
}

func buildOptions(opts []Option) options {
	o := options{
		client:        defaultHTTPClient,
		searchBaseURL: defaultSearchBaseURL,
		searchDelay:   defaultSearchDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
