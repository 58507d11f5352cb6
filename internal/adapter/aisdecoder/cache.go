package aisdecoder

import (
	"maps"
	"strconv"

	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
	"github.com/couchcryptid/geotelemetry-etl/internal/lru"
)

type cached struct {
	raw domain.RawRecord
	err error
}

// CachedDecoder wraps a PayloadDecoder with an in-memory LRU cache keyed by
// payload and fill bits.
type CachedDecoder struct {
	inner domain.PayloadDecoder
	cache *lru.Cache[string, cached]
}

// NewCachedDecoder creates a cache decorator around a payload decoder.
func NewCachedDecoder(inner domain.PayloadDecoder, maxEntries int) *CachedDecoder {
	return &CachedDecoder{
		inner: inner,
		cache: lru.New[string, cached](maxEntries),
	}
}

// Decode returns a copy of the cached result, or decodes and caches it.
func (c *CachedDecoder) Decode(msg domain.Message) (domain.RawRecord, error) {
	key := msg.Payload + "|" + strconv.Itoa(msg.Fill)
	if hit, ok := c.cache.Get(key); ok {
		return maps.Clone(hit.raw), hit.err
	}
	raw, err := c.inner.Decode(msg)
	c.cache.Put(key, cached{raw: raw, err: err})
	return maps.Clone(raw), err
}
