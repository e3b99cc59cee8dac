// Package cache stores rendered frames and trajectory summaries between runs.
//
// Rendering is the expensive stage of the pipeline: re-running with only a
// different fps or output path should not rasterize a single frame again.
// Entries are addressed by content: a frame key hashes the iteration's
// records together with everything that affects its pixels.
//
// Two backends exist. [FileCache] persists entries under a directory (the
// CLI uses the user cache dir), [NullCache] disables caching. Cache errors
// are never fatal to a render; callers treat them as misses.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	TTLFrame   = 7 * 24 * time.Hour
	TTLSummary = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}

// FrameKeyOpts holds every render setting that changes a frame's pixels.
type FrameKeyOpts struct {
	Viewport  [4]float64 `json:"viewport"`
	DPI       int        `json:"dpi"`
	Size      float64    `json:"size"`
	Highlight string     `json:"highlight"`
}

// Keyer derives cache keys.
type Keyer interface {
	FrameKey(groupHash string, opts FrameKeyOpts) string
	SummaryKey(inputHash string) string
}

// DefaultKeyer produces keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// FrameKey keys a rendered frame by its records and render settings.
func (DefaultKeyer) FrameKey(groupHash string, opts FrameKeyOpts) string {
	return hashKey("frame", groupHash, opts)
}

// SummaryKey keys a trajectory summary by the input file's content hash.
func (DefaultKeyer) SummaryKey(inputHash string) string {
	return hashKey("summary", inputHash)
}
