package extractor

import (
	"errors"
	"fmt"

	"github.com/drewfead/pdx-indie-showtimes/internal"
)

// Registry maps theater ids to their designated primary extractors. The
// mapping is a static lookup table built once at startup.
type Registry interface {
	Lookup(theaterID string) (internal.Extractor, error)
}

// Middleware wraps an Extractor with cross-cutting behavior (e.g. caching).
type Middleware func(internal.Extractor) internal.Extractor

// RegistryOption configures a Registry under construction.
type RegistryOption func(r *registry)

func NewRegistry(opts ...RegistryOption) Registry {
	r := &registry{
		extractors: make(map[string]internal.Extractor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithExtractor registers e under its own TheaterID, wrapped by middleware
// in order.
func WithExtractor(e internal.Extractor, middleware ...Middleware) RegistryOption {
	return func(r *registry) {
		for _, m := range middleware {
			e = m(e)
		}
		r.extractors[e.TheaterID()] = e
	}
}

type registry struct {
	extractors map[string]internal.Extractor
}

var ErrExtractorNotFound = errors.New("extractor not found")

func (r *registry) Lookup(theaterID string) (internal.Extractor, error) {
	e, ok := r.extractors[theaterID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExtractorNotFound, theaterID)
	}
	return e, nil
}
