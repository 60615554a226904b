package resolver

import (
	"context"
	"sync"
)

// Target is a classified input URL handed to adapters.
type Target struct {
	URL string
	Classification
}

// Adapter translates one extraction backend's protocol into the
// canonical model. Implementations must honor the context deadline on
// every network or process call; a timeout is a normal failure for
// that adapter, never a hang.
type Adapter interface {
	// ID names the adapter for capability tracking and logs.
	ID() string
	// Probe reports whether the adapter is usable in this runtime.
	// It must be cheap and must not hit the network.
	Probe() bool
	FetchMetadata(ctx context.Context, target Target) (*MediaDescriptor, error)
	ResolveDownload(ctx context.Context, target Target, req FormatRequest) (*ResolvedMedia, error)
}

// subtitleExtractor marks adapters able to pull subtitle tracks.
// Subtitle requests are delegated exclusively to these.
type subtitleExtractor interface {
	extractsSubtitles()
}

// Capabilities is the process-wide record of which adapters are usable
// in the current runtime. It is written at process start (and on an
// optional refresh timer) and read-only during request handling.
type Capabilities struct {
	mu        sync.RWMutex
	available map[string]bool
}

// probeAdapters runs every adapter's probe once and records the
// results.
func probeAdapters(adapters []Adapter) *Capabilities {
	caps := &Capabilities{available: make(map[string]bool, len(adapters))}
	caps.Refresh(adapters)
	return caps
}

func (c *Capabilities) Refresh(adapters []Adapter) {
	fresh := make(map[string]bool, len(adapters))
	for _, a := range adapters {
		fresh[a.ID()] = a.Probe()
	}
	c.mu.Lock()
	c.available = fresh
	c.mu.Unlock()
}

func (c *Capabilities) Available(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available[id]
}

// Snapshot returns a copy of the capability map.
func (c *Capabilities) Snapshot() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]bool, len(c.available))
	for id, ok := range c.available {
		out[id] = ok
	}
	return out
}
