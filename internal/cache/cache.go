// Package cache stores LLM extraction results so reprocessing a call does
// not repeat inference.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// strategyVersion is bumped whenever extraction prompts change, invalidating
// cached results produced with the old prompts.
const strategyVersion = "s2"

// Cache defines the interface for caching.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key from arbitrary input.
func Key(input string) string {
	hash := sha256.Sum256([]byte(input))
	return "pacta:v1:" + hex.EncodeToString(hash[:])
}

// ExtractionKey keys an extraction result by model, prompt version and
// transcript content.
func ExtractionKey(model, transcript string) string {
	return Key(model + "\x00" + strategyVersion + "\x00" + transcript)
}

// New builds a cache for the configured mode. Mode "none" (or empty)
// returns nil: callers treat a nil cache as disabled.
func New(mode, dir string, memoryTTL, diskTTL time.Duration) (Cache, error) {
	switch mode {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(memoryTTL, 10*time.Minute), nil
	case "disk":
		return NewDiskCache(dir, diskTTL), nil
	case "layered":
		return NewLayeredCache(memoryTTL, dir, diskTTL), nil
	default:
		return nil, fmt.Errorf("cache: unknown mode %q", mode)
	}
}
