package cache

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"chartist/internal/logger"
	"chartist/internal/market"
	"chartist/internal/metrics"
)

// Store is the persistent tier behind the in-process memo. Values are opaque
// serialized documents; uniqueness on the full key tuple is the store's
// responsibility.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Put(ctx context.Context, key Key, value []byte) error
	PurgeFrom(ctx context.Context, instrument string, from time.Time) (int64, error)
	Close() error
}

type entry struct {
	key   Key
	value []byte
}

// Memo is the in-process result cache. Concurrent requests for the same key
// join a single in-flight computation through singleflight; an optional
// Store adds a write-through persistent tier.
type Memo struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
	store   Store
	compute atomic.Int64
}

// NewMemo builds a memo. store may be nil for a purely in-process cache.
func NewMemo(store Store) *Memo {
	return &Memo{entries: make(map[string]entry), store: store}
}

// Do returns the cached document for key, computing it at most once across
// concurrent callers. compute must serialize its own result; Do owns the
// caching of the returned bytes.
func (m *Memo) Do(ctx context.Context, key Key, compute func() ([]byte, error)) ([]byte, error) {
	ks := key.String()

	m.mu.RLock()
	e, ok := m.entries[ks]
	m.mu.RUnlock()
	if ok {
		metrics.CacheHits.Inc()
		return e.value, nil
	}

	v, err, _ := m.group.Do(ks, func() (any, error) {
		// Double-check: a concurrent caller may have filled the map while
		// we waited on the flight group.
		m.mu.RLock()
		e, ok := m.entries[ks]
		m.mu.RUnlock()
		if ok {
			metrics.CacheHits.Inc()
			return e.value, nil
		}
		if m.store != nil {
			if doc, found, err := m.store.Get(ctx, key); err != nil {
				logger.Warnf("cache store get %s: %v", ks, err)
			} else if found {
				metrics.CacheHits.Inc()
				m.remember(key, doc)
				return doc, nil
			}
		}
		metrics.CacheMisses.Inc()
		metrics.Computations.WithLabelValues(key.Indicator).Inc()
		m.compute.Add(1)
		doc, err := compute()
		if err != nil {
			return nil, err
		}
		m.remember(key, doc)
		if m.store != nil {
			if err := m.store.Put(ctx, key, doc); err != nil {
				logger.Warnf("cache store put %s: %v", ks, err)
			}
		}
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (m *Memo) remember(key Key, value []byte) {
	m.mu.Lock()
	m.entries[key.String()] = entry{key: key, value: value}
	m.mu.Unlock()
}

// PurgeFrom drops every cached key for the instrument at or after the given
// date, in both tiers. This is the retroactive-correction path (adjusted
// close, split); append-only growth never needs it.
func (m *Memo) PurgeFrom(ctx context.Context, instrument string, from time.Time) error {
	cutoff := market.Day(from).Format("2006-01-02")
	m.mu.Lock()
	for ks, e := range m.entries {
		if e.key.Instrument == instrument && e.key.Date >= cutoff {
			delete(m.entries, ks)
		}
	}
	m.mu.Unlock()
	if m.store != nil {
		n, err := m.store.PurgeFrom(ctx, instrument, from)
		if err != nil {
			return err
		}
		logger.Infof("cache purge %s from %s: %d persisted rows", instrument, cutoff, n)
	}
	return nil
}

// Computations reports how many times Do actually ran a compute callback.
// Test hook for the at-most-once guarantee.
func (m *Memo) Computations() int64 { return m.compute.Load() }

// DecodeInto unmarshals a cached document.
func DecodeInto(doc []byte, v any) error { return json.Unmarshal(doc, v) }

// Encode marshals a computed value into its cache document form.
func Encode(v any) ([]byte, error) { return json.Marshal(v) }
