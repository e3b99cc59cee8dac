// Package observability lets an embedding program watch the pipeline
// without this module depending on any metrics or tracing backend.
//
// Hooks are registered once at startup and default to no-ops:
//
//	observability.SetPipelineHooks(&promHooks{})
//
// The pipeline then reports each stage:
//
//	observability.Pipeline().OnLoadStart(ctx, path)
//	observability.Pipeline().OnLoadComplete(ctx, path, records, iterations, d, err)
//
// Hook methods may be called from several render workers at once and must be
// safe for concurrent use.
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives stage events from a render run.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, path string)
	OnLoadComplete(ctx context.Context, path string, records, iterations int, d time.Duration, err error)

	OnRenderStart(ctx context.Context, frames, workers int)
	// OnFrameRendered fires once per iteration, cached or not.
	OnFrameRendered(ctx context.Context, iteration int, cached bool, d time.Duration)
	OnRenderComplete(ctx context.Context, frames int, d time.Duration, err error)

	OnEncodeComplete(ctx context.Context, path string, frames int, bytes int64, d time.Duration, err error)
}

// CacheHooks receives cache lookups. kind is the key family ("frame",
// "summary").
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
	OnCacheError(ctx context.Context, kind string, err error)
}

type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string)                                  {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnRenderStart(context.Context, int, int)                              {}
func (NoopPipelineHooks) OnFrameRendered(context.Context, int, bool, time.Duration)            {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, int, time.Duration, error)          {}
func (NoopPipelineHooks) OnEncodeComplete(context.Context, string, int, int64, time.Duration, error) {
}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)          {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)         {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)     {}
func (NoopCacheHooks) OnCacheError(context.Context, string, error) {}

var (
	hooksMu       sync.RWMutex
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
)

// SetPipelineHooks registers h. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op hooks. Tests use it to undo registrations.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
