package embedding

import (
	"context"
	"crypto/sha256"
	"sync"

	"go.uber.org/zap"
)

// Cache memoizes vectors by the SHA-256 of the exact input text.
// Zero vectors are never stored, so a failed upstream call is retried next time.
type Cache struct {
	next       Embedder
	maxEntries int
	logger     *zap.Logger

	mu      sync.RWMutex
	entries map[[sha256.Size]byte]Vector
	hits    int
	misses  int
}

// NewCache wraps next. A non-positive maxEntries means no limit; once the limit
// is reached new vectors are returned but not stored.
func NewCache(next Embedder, maxEntries int, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		next:       next,
		maxEntries: maxEntries,
		logger:     logger,
		entries:    make(map[[sha256.Size]byte]Vector),
	}
}

// Embed implements Embedder. All misses of a call go upstream in one batch.
func (c *Cache) Embed(ctx context.Context, texts []string) Matrix {
	out := make(Matrix, len(texts))
	keys := make([][sha256.Size]byte, len(texts))

	var missing []string
	var missingIdx []int

	c.mu.RLock()
	for i, text := range texts {
		keys[i] = sha256.Sum256([]byte(text))
		if v, ok := c.entries[keys[i]]; ok {
			out[i] = v
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	c.mu.RUnlock()

	c.mu.Lock()
	c.hits += len(texts) - len(missing)
	c.misses += len(missing)
	c.mu.Unlock()

	if len(missing) == 0 {
		return out
	}

	fresh := c.next.Embed(ctx, missing)

	c.mu.Lock()
	defer c.mu.Unlock()
	for j, idx := range missingIdx {
		v := Zero()
		if j < len(fresh) && len(fresh[j]) == Dimension {
			v = fresh[j]
		}
		out[idx] = v
		if v.IsZero() {
			continue
		}
		if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
			continue
		}
		c.entries[keys[idx]] = v
	}

	c.logger.Debug("embedding cache", zap.Int("requested", len(texts)), zap.Int("fetched", len(missing)), zap.Int("size", len(c.entries)))

	return out
}

// Len returns the number of stored vectors.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cumulative hit and miss counters.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
