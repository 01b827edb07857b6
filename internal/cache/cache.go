// Package cache provides caching for rendered views and decoded contact
// records.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aidenlab/juicebox-mcp-sub000/internal/data/hic"
)

// Config contains cache configuration.
type Config struct {
	ImageCacheSizeMB int
	ImageTTL         time.Duration
	RecordCacheSize  int
}

// Manager manages the rendered-image cache and the contact-record cache.
type Manager struct {
	imageCache  *bigcache.BigCache
	recordCache *lru.Cache[string, []hic.ContactRecord]
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	imageCacheConfig := bigcache.Config{
		Shards:             1024,
		LifeWindow:         cfg.ImageTTL,
		CleanWindow:        cfg.ImageTTL / 2,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       1024 * 1024, // 1MB per rendered view
		HardMaxCacheSize:   cfg.ImageCacheSizeMB,
		Verbose:            false,
	}

	imageCache, err := bigcache.New(context.Background(), imageCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}

	recordCache, err := lru.New[string, []hic.ContactRecord](cfg.RecordCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create record cache: %w", err)
	}

	return &Manager{
		imageCache:  imageCache,
		recordCache: recordCache,
	}, nil
}

// GetImage retrieves a rendered view from cache.
func (m *Manager) GetImage(key string) ([]byte, bool) {
	data, err := m.imageCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetImage stores a rendered view in cache.
func (m *Manager) SetImage(key string, data []byte) error {
	return m.imageCache.Set(key, data)
}

// ClearImages drops every rendered view, e.g. after a tier or chromosome
// change.
func (m *Manager) ClearImages() error {
	return m.imageCache.Reset()
}

// GetRecords retrieves decoded contact records from cache.
func (m *Manager) GetRecords(key string) ([]hic.ContactRecord, bool) {
	return m.recordCache.Get(key)
}

// SetRecords stores decoded contact records in cache.
func (m *Manager) SetRecords(key string, records []hic.ContactRecord) {
	m.recordCache.Add(key, records)
}

// ViewKey generates a cache key for a rendered view.
func ViewKey(chr1, chr2, zoom int, x, y, pixelSize float64, width, height int, cmap string) string {
	return fmt.Sprintf("view:%d_%d/%d/%.3f/%.3f/%.3f/%dx%d:%s",
		chr1, chr2, zoom, x, y, pixelSize, width, height, cmap)
}

// RecordKey generates a cache key for a contact-record query.
func RecordKey(chr1, chr2, zoom int, x0, x1, y0, y1 int64) string {
	return fmt.Sprintf("rec:%d_%d/%d/%d-%d/%d-%d", chr1, chr2, zoom, x0, x1, y0, y1)
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"image_cache_len":  m.imageCache.Len(),
		"image_cache_cap":  m.imageCache.Capacity(),
		"record_cache_len": m.recordCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.imageCache.Close()
}
