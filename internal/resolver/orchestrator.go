package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultAttemptTimeout = 45 * time.Second

var errEmptyResult = errors.New("backend returned an empty result")

// Config configures a Resolver. Adapters overrides the default
// per-platform wiring; tests use it to inject fakes.
type Config struct {
	Log      *logrus.Logger
	Timeout  time.Duration
	Adapters map[Platform][]Adapter
}

// Resolver walks an ordered list of eligible extraction backends until
// one yields a usable result. The walk is sequential: a later adapter
// is only tried after the one before it definitively failed.
type Resolver struct {
	log      *logrus.Logger
	timeout  time.Duration
	adapters map[Platform][]Adapter
	caps     *Capabilities
}

func New(cfg Config) *Resolver {
	if cfg.Log == nil {
		cfg.Log = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAttemptTimeout
	}
	adapters := cfg.Adapters
	if adapters == nil {
		adapters = defaultAdapters(cfg.Timeout)
	}
	return &Resolver{
		log:      cfg.Log,
		timeout:  cfg.Timeout,
		adapters: adapters,
		caps:     probeAdapters(uniqueAdapters(adapters)),
	}
}

// defaultAdapters is the fixed per-platform priority: cheaper and more
// reliable backends first. The native client leads for YouTube because
// it handles stream decipherment without an external process; generic
// URLs are only ever eligible for the universal extractor.
func defaultAdapters(timeout time.Duration) map[Platform][]Adapter {
	native := newYouTubeAdapter(timeout)
	external := newYtdlpAdapter(timeout)
	scrape := newScrapeAdapter(timeout)
	return map[Platform][]Adapter{
		PlatformYouTube:   {native, external},
		PlatformInstagram: {scrape, external},
		PlatformGeneric:   {external},
	}
}

func uniqueAdapters(byPlatform map[Platform][]Adapter) []Adapter {
	seen := make(map[string]bool)
	var out []Adapter
	for _, adapters := range byPlatform {
		for _, a := range adapters {
			if !seen[a.ID()] {
				seen[a.ID()] = true
				out = append(out, a)
			}
		}
	}
	return out
}

// Capabilities reports which adapters probed as usable in this
// runtime.
func (r *Resolver) Capabilities() map[string]bool {
	return r.caps.Snapshot()
}

// StartRefresh re-probes adapter availability on the given interval
// until ctx is cancelled. Reads stay lock-cheap; the rare write swaps
// the whole map.
func (r *Resolver) StartRefresh(ctx context.Context, interval time.Duration) {
	adapters := uniqueAdapters(r.adapters)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.caps.Refresh(adapters)
			}
		}
	}()
}

// Describe resolves a URL to its metadata descriptor without picking a
// rendition.
func (r *Resolver) Describe(ctx context.Context, rawURL string) (*MediaDescriptor, error) {
	target, eligible, err := r.plan(rawURL, FormatRequest{Kind: KindVideo})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, adapter := range eligible {
		descriptor, attemptErr := r.attemptMetadata(ctx, adapter, target)
		if attemptErr == nil {
			return descriptor, nil
		}
		lastErr = attemptErr
		r.logAttemptFailure(adapter, target, attemptErr)
	}
	return nil, exhausted(len(eligible), lastErr)
}

// Resolve picks a concrete download URL for the request. An empty
// source URL from a backend is never a success, even when the call
// returned without error; it falls through to the next adapter.
func (r *Resolver) Resolve(ctx context.Context, rawURL string, req FormatRequest) (*ResolvedMedia, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	target, eligible, err := r.plan(rawURL, req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, adapter := range eligible {
		resolved, attemptErr := r.attemptResolve(ctx, adapter, target, req)
		if attemptErr == nil {
			return resolved, nil
		}
		lastErr = attemptErr
		r.logAttemptFailure(adapter, target, attemptErr)
	}
	return nil, exhausted(len(eligible), lastErr)
}

func (r *Resolver) attemptMetadata(ctx context.Context, adapter Adapter, target Target) (*MediaDescriptor, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	descriptor, err := adapter.FetchMetadata(attemptCtx, target)
	if err != nil {
		return nil, err
	}
	if descriptor == nil || len(descriptor.Renditions) == 0 {
		return nil, errEmptyResult
	}
	if descriptor.Platform == "" {
		descriptor.Platform = target.Platform
	}
	return descriptor, nil
}

func (r *Resolver) attemptResolve(ctx context.Context, adapter Adapter, target Target, req FormatRequest) (*ResolvedMedia, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	resolved, err := adapter.ResolveDownload(attemptCtx, target, req)
	if err != nil {
		return nil, err
	}
	if resolved == nil || resolved.SourceURL == "" {
		return nil, errEmptyResult
	}
	if resolved.Filename == "" {
		resolved.Filename = "download"
	}
	return resolved, nil
}

// plan classifies the URL and builds the ordered, capability-filtered
// adapter list for it.
func (r *Resolver) plan(rawURL string, req FormatRequest) (Target, []Adapter, error) {
	cls, err := Classify(rawURL)
	if err != nil {
		return Target{}, nil, err
	}
	target := Target{URL: rawURL, Classification: cls}

	ordered := r.adapters[cls.Platform]
	if req.Kind == KindSubtitles {
		ordered = subtitleCapable(ordered)
		if len(ordered) == 0 {
			return Target{}, nil, CategorizedError{
				Category: CategoryNoBackend,
				Err:      fmt.Errorf("no subtitle-capable backend for %s URLs", cls.Platform),
				Hint:     remediationHint(),
			}
		}
	}
	if len(ordered) == 0 {
		return Target{}, nil, WrapCategory(CategoryUnsupportedURL,
			fmt.Errorf("no extraction backend registered for %s URLs", cls.Platform))
	}

	eligible := make([]Adapter, 0, len(ordered))
	for _, adapter := range ordered {
		if r.caps.Available(adapter.ID()) {
			eligible = append(eligible, adapter)
		}
	}
	if len(eligible) == 0 {
		return Target{}, nil, CategorizedError{
			Category: CategoryNoBackend,
			Err:      fmt.Errorf("no usable extraction backend for %s URLs in this runtime", cls.Platform),
			Hint:     remediationHint(),
		}
	}
	return target, eligible, nil
}

// subtitleCapable keeps only adapters that can extract subtitle
// tracks; subtitle requests are delegated entirely to those.
func subtitleCapable(adapters []Adapter) []Adapter {
	out := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		if _, ok := a.(subtitleExtractor); ok {
			out = append(out, a)
		}
	}
	return out
}

func remediationHint() string {
	return "this environment lacks the required extractor binary; install yt-dlp (or youtube-dl) and make it visible on PATH"
}

func exhausted(attempts int, lastErr error) error {
	if lastErr == nil {
		lastErr = errEmptyResult
	}
	return CategorizedError{
		Category: CategoryExhausted,
		Err:      fmt.Errorf("all %d eligible backend(s) failed, last error: %w", attempts, lastErr),
	}
}

func (r *Resolver) logAttemptFailure(adapter Adapter, target Target, err error) {
	r.log.WithFields(logrus.Fields{
		"adapter":  adapter.ID(),
		"platform": target.Platform,
	}).WithError(err).Warn("backend attempt failed, falling through")
}
