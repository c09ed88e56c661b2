package ingest

import (
	"context"
	"io"
	"sync"

	"github.com/adsidev/catalogd/internal/catalog"
)

// Extractor is supplied by the scraper front-end. It turns a variant page
// into extracted data fields.
type Extractor interface {
	ExtractVariant(ctx context.Context, codeVL, url string) (catalog.VariantFields, error)
}

// ExtractorFactory builds a fresh extractor, typically a new browser or
// HTTP session against the supplier site.
type ExtractorFactory func(ctx context.Context) (Extractor, error)

// ExtractionSession is the explicit handle around the per-run extractor
// state. Callers acquire it for each attempt; invalidating it forces the
// next acquire to rebuild, which is how a dead browser session recovers.
type ExtractionSession struct {
	factory ExtractorFactory

	mu      sync.Mutex
	current Extractor
}

func NewExtractionSession(factory ExtractorFactory) *ExtractionSession {
	return &ExtractionSession{factory: factory}
}

// Acquire returns the live extractor, creating one when none exists.
func (s *ExtractionSession) Acquire(ctx context.Context) (Extractor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return s.current, nil
	}
	extractor, err := s.factory(ctx)
	if err != nil {
		return nil, err
	}
	s.current = extractor
	return s.current, nil
}

// Invalidate discards the current extractor so the next Acquire rebuilds
// it. Safe to call when nothing is held.
func (s *ExtractionSession) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

// Release shuts the session down for good.
func (s *ExtractionSession) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *ExtractionSession) closeLocked() {
	if closer, ok := s.current.(io.Closer); ok {
		_ = closer.Close()
	}
	s.current = nil
}
