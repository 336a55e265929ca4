// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about analysis execution, cache operations, and rendering.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetAnalysisHooks(&myAnalysisHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Analysis().OnAnalysisStart(ctx, operation)
//	// ... run the operation ...
//	observability.Analysis().OnAnalysisComplete(ctx, operation, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Analysis Hooks
// =============================================================================

// AnalysisHooks receives events from catalogue operation execution.
type AnalysisHooks interface {
	// Parse events
	OnParseStart(ctx context.Context)
	OnParseComplete(ctx context.Context, featureCount int, duration time.Duration, err error)

	// Operation events
	OnAnalysisStart(ctx context.Context, operation string)
	OnAnalysisComplete(ctx context.Context, operation string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from diagram rendering.
type RenderHooks interface {
	// OnRenderStart records the start of a render.
	OnRenderStart(ctx context.Context, format string)

	// OnRenderComplete records a finished render.
	OnRenderComplete(ctx context.Context, format string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAnalysisHooks is a no-op implementation of AnalysisHooks.
type NoopAnalysisHooks struct{}

func (NoopAnalysisHooks) OnParseStart(context.Context)                                  {}
func (NoopAnalysisHooks) OnParseComplete(context.Context, int, time.Duration, error)    {}
func (NoopAnalysisHooks) OnAnalysisStart(context.Context, string)                       {}
func (NoopAnalysisHooks) OnAnalysisComplete(context.Context, string, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, string)                        {}
func (NoopRenderHooks) OnRenderComplete(context.Context, string, time.Duration, error) {
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	analysisHooks AnalysisHooks = NoopAnalysisHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	renderHooks   RenderHooks   = NoopRenderHooks{}
	hooksMu       sync.RWMutex
)

// SetAnalysisHooks registers custom analysis hooks.
// This should be called once at application startup before any operations run.
func SetAnalysisHooks(h AnalysisHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		analysisHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any rendering.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// Analysis returns the registered analysis hooks.
func Analysis() AnalysisHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return analysisHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	analysisHooks = NoopAnalysisHooks{}
	cacheHooks = NoopCacheHooks{}
	renderHooks = NoopRenderHooks{}
}
