package info

import (
	"context"
	"errors"
	"log"
	"time"

	"citybrief/internal/cache"
)

// ResultStore is the typed TTL cache for resolved results. Entries are keyed
// by (topic, area), so a request for a new area can never be served by an
// entry written under the previous one; no purge step is needed on location
// change.
type ResultStore struct {
	backend cache.Cache
	ttls    map[Topic]time.Duration
}

// NewResultStore wraps a cache backend with the per-topic TTL table.
// Topics missing from the table fall back to the defaults.
func NewResultStore(backend cache.Cache, ttls map[Topic]time.Duration) *ResultStore {
	merged := DefaultTTLs()
	for t, d := range ttls {
		if d > 0 {
			merged[t] = d
		}
	}
	return &ResultStore{backend: backend, ttls: merged}
}

func storeKey(topic Topic, area string) string {
	return "info:" + string(topic) + ":" + area
}

// Get returns the cached result for (topic, area) if present and fresh.
func (s *ResultStore) Get(ctx context.Context, topic Topic, area string) (Result, bool) {
	b, err := s.backend.Get(ctx, storeKey(topic, area))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("store: get %s/%s: %v", topic, area, err)
		}
		return nil, false
	}

	r, err := DecodeResult(b)
	if err != nil {
		// An undecodable entry predates a schema change; drop it.
		log.Printf("store: dropping undecodable entry for %s/%s: %v", topic, area, err)
		_ = s.backend.Delete(ctx, storeKey(topic, area))
		return nil, false
	}
	return r, true
}

// Set stores a result for (topic, area) under the topic's TTL.
func (s *ResultStore) Set(ctx context.Context, topic Topic, area string, r Result) error {
	b, err := EncodeResult(r)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, storeKey(topic, area), b, s.ttls[topic])
}

// ClearAll removes every entry. Run once at process start so entries written
// under older data-shape assumptions are never served.
func (s *ResultStore) ClearAll(ctx context.Context) error {
	return s.backend.Clear(ctx)
}

// TTL reports the configured TTL for a topic.
func (s *ResultStore) TTL(topic Topic) time.Duration {
	return s.ttls[topic]
}
