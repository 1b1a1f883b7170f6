// Package fetcher drives the results portal and turns each attempt into a
// FetchResult. Failures are data on the result, not errors: the caller
// decides what is retryable.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/darion/resultfetch/config"
	"github.com/darion/resultfetch/internal/cache"
	"github.com/darion/resultfetch/internal/model"
)

const maxDetailLen = 1000

// Fetcher resolves a single fetch request.
type Fetcher interface {
	Fetch(ctx context.Context, req model.FetchRequest) model.FetchResult
}

// Pool hands out fetchers to workers. Browser-backed pools bind one
// browser session per acquired fetcher; Release must be called on every
// exit path so sessions can be reused.
type Pool interface {
	Acquire(ctx context.Context) (Fetcher, error)
	Release(f Fetcher)
	Close()
}

// NewPool builds the pool for the configured fetch mechanism.
func NewPool(cfg *config.Config, log *slog.Logger) (Pool, error) {
	switch cfg.PortalSettings.Mechanism {
	case model.HTTPForm.String():
		return newHTTPPool(cfg, log), nil
	case model.HeadlessBrowser.String():
		return newBrowserPool(cfg, log), nil
	default:
		return nil, fmt.Errorf("unsupported fetch mechanism %q", cfg.PortalSettings.Mechanism)
	}
}

type cachedFetcher struct {
	inner Fetcher
	cache cache.RecordCache
	log   *slog.Logger
}

// WithCache wraps a fetcher so previously fetched records are served
// without touching the portal. Successful fetches are written through.
func WithCache(inner Fetcher, c cache.RecordCache, log *slog.Logger) Fetcher {
	if c == nil {
		return inner
	}
	return &cachedFetcher{inner: inner, cache: c, log: log}
}

func (f *cachedFetcher) Fetch(ctx context.Context, req model.FetchRequest) model.FetchResult {
	if rec, ok := f.cache.Get(req); ok {
		f.log.Debug("cache hit.", slog.String("pin", req.PIN))
		return model.FetchResult{PIN: req.PIN, Record: rec}
	}
	res := f.inner.Fetch(ctx, req)
	if res.Succeeded() {
		f.cache.Put(req, res.Record)
	}
	return res
}

func truncateDetail(s string) string {
	if len(s) > maxDetailLen {
		return s[:maxDetailLen]
	}
	return s
}
