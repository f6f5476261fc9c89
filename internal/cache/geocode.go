package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/ports"
)

// GeocodeEntry is a cached geocoder answer. Found=false is a negative entry.
type GeocodeEntry struct {
	Found    bool            `json:"found"`
	Point    domain.GeoPoint `json:"point"`
	CachedAt time.Time       `json:"cached_at"`
}

// GeocodeCache stores geocoder answers by normalized place name.
type GeocodeCache struct {
	store ports.KVStore
}

// NewGeocodeCache wraps a key-value store.
func NewGeocodeCache(store ports.KVStore) *GeocodeCache {
	return &GeocodeCache{store: store}
}

// Key lowercases and collapses whitespace.
func Key(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Get looks up a normalized name. An undecodable entry reads as a miss.
func (c *GeocodeCache) Get(ctx context.Context, name string) (GeocodeEntry, bool, error) {
	raw, ok, err := c.store.Get(ctx, Key(name))
	if err != nil {
		return GeocodeEntry{}, false, fmt.Errorf("read geocode cache: %w", err)
	}
	if !ok {
		return GeocodeEntry{}, false, nil
	}
	var entry GeocodeEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return GeocodeEntry{}, false, nil
	}
	return entry, true, nil
}

// Put stores an answer under the normalized name.
func (c *GeocodeCache) Put(ctx context.Context, name string, entry GeocodeEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode geocode entry: %w", err)
	}
	if err := c.store.Put(ctx, Key(name), payload); err != nil {
		return fmt.Errorf("write geocode cache: %w", err)
	}
	return nil
}

// Flush persists pending writes.
func (c *GeocodeCache) Flush(ctx context.Context) error {
	return c.store.Flush(ctx)
}
