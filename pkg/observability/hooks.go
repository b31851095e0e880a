// Package observability provides hooks for metrics, tracing, and progress
// reporting.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about hydration runs and the units inside them.
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetHydrateHooks(&myHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Hydrate().OnUnitStart(ctx, runID, unit, observability.StepInstall)
//	// ... install ...
//	observability.Hydrate().OnUnitComplete(ctx, runID, unit, observability.StepInstall, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Step names the phase of unit hydration an event belongs to.
type Step string

const (
	StepInstall   Step = "install"
	StepPropagate Step = "propagate"
)

// =============================================================================
// Hydrate Hooks
// =============================================================================

// HydrateHooks receives events from hydration runs.
//
// Unit events for different units arrive concurrently; implementations must be
// safe for concurrent use. OnRunComplete is called exactly once per run, after
// every unit event of that run.
type HydrateHooks interface {
	OnRunStart(ctx context.Context, runID, mode string, units []string)
	OnUnitStart(ctx context.Context, runID, unit string, step Step)
	OnUnitComplete(ctx context.Context, runID, unit string, step Step, duration time.Duration, err error)
	OnRunComplete(ctx context.Context, runID string, duration time.Duration, err error)
}

// NoopHydrateHooks is a no-op implementation of HydrateHooks.
type NoopHydrateHooks struct{}

func (NoopHydrateHooks) OnRunStart(context.Context, string, string, []string)                       {}
func (NoopHydrateHooks) OnUnitStart(context.Context, string, string, Step)                          {}
func (NoopHydrateHooks) OnUnitComplete(context.Context, string, string, Step, time.Duration, error) {}
func (NoopHydrateHooks) OnRunComplete(context.Context, string, time.Duration, error)                {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	hydrateHooks HydrateHooks = NoopHydrateHooks{}
	hooksMu      sync.RWMutex
)

// SetHydrateHooks registers custom hydrate hooks.
// This should be called once at application startup before any runs.
func SetHydrateHooks(h HydrateHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		hydrateHooks = h
	}
}

// Hydrate returns the registered hydrate hooks.
func Hydrate() HydrateHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return hydrateHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hydrateHooks = NoopHydrateHooks{}
}
