// Package batch runs a bounded pool of fetch workers over an identifier
// sequence and folds the per-PIN outcomes into a single immutable result.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/darion/resultfetch/config"
	"github.com/darion/resultfetch/internal/cache"
	"github.com/darion/resultfetch/internal/fetcher"
	"github.com/darion/resultfetch/internal/model"
	"github.com/darion/resultfetch/internal/pinlist"
)

var ErrNoIdentifiers = errors.New("no identifiers to fetch")

// ProgressFunc is called after each identifier resolves. Calls are
// serialized; done counts resolved identifiers including this one.
type ProgressFunc func(done, total int, pin, kind string)

type Option func(*Collector)

func WithObserver(fn ProgressFunc) Option {
	return func(c *Collector) { c.observer = fn }
}

func WithCache(rc cache.RecordCache) Option {
	return func(c *Collector) { c.cache = rc }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

type Collector struct {
	cfg      *config.Config
	pool     fetcher.Pool
	cache    cache.RecordCache
	metrics  *Metrics
	observer ProgressFunc
	log      *slog.Logger

	mu   sync.Mutex
	done int
}

// New validates the configuration up front so a misconfigured batch fails
// before any fetch is dispatched.
func New(cfg *config.Config, pool fetcher.Pool, log *slog.Logger, opts ...Option) (*Collector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	c := &Collector{cfg: cfg, pool: pool, log: log}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Run fetches every identifier and returns one result per submitted PIN,
// in input order. Per-PIN failures never abort the batch; cancellation
// stops dispatching new work while in-flight fetches run to completion,
// and undispatched identifiers resolve as cancelled.
func (c *Collector) Run(ctx context.Context, pins []string, semester string) (*model.BatchOutcome, error) {
	pins = pinlist.Dedupe(pins)
	if len(pins) == 0 {
		return nil, ErrNoIdentifiers
	}
	if !slices.Contains(c.cfg.PortalSettings.Semesters, semester) {
		return nil, fmt.Errorf("unknown semester %q, expected one of %v",
			semester, c.cfg.PortalSettings.Semesters)
	}

	total := len(pins)
	workers := min(c.cfg.WorkerSettings.MaxWorkers, total)

	// Acquire every session before dispatching anything: a dead browser
	// setup is a batch-level error, not a per-PIN one.
	fetchers := make([]fetcher.Fetcher, 0, workers)
	var acquireErr error
	for i := 0; i < workers; i++ {
		f, err := c.pool.Acquire(ctx)
		if err != nil {
			acquireErr = err
			break
		}
		fetchers = append(fetchers, f)
	}
	if len(fetchers) == 0 {
		return nil, fmt.Errorf("no fetch sessions available: %w", acquireErr)
	}
	if acquireErr != nil {
		c.log.Warn("running with fewer workers than configured.",
			slog.Int("workers", len(fetchers)), slog.String("err", acquireErr.Error()))
	}

	c.mu.Lock()
	c.done = 0
	c.mu.Unlock()
	c.metrics.BatchInc()

	startedAt := time.Now()
	results := make([]model.FetchResult, total)
	taskChan := make(chan task)
	workerWg := &sync.WaitGroup{}

	for _, f := range fetchers {
		workerWg.Add(1)
		go c.worker(f, taskChan, results, semester, total, workerWg)
	}

dispatch:
	for i, pin := range pins {
		if ctx.Err() != nil {
			break dispatch
		}
		select {
		case <-ctx.Done():
			break dispatch
		case taskChan <- task{idx: i, pin: pin}:
		}
	}
	close(taskChan)
	workerWg.Wait()

	// Whatever was never handed to a worker resolves as cancelled.
	for i := range results {
		if results[i].PIN == "" {
			results[i] = model.FetchResult{
				PIN:    pins[i],
				Reason: model.ReasonCancelled,
				Detail: "batch cancelled before dispatch",
			}
			c.report(results[i], total)
		}
	}

	outcome := &model.BatchOutcome{
		Results:    results,
		Total:      total,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	for _, r := range results {
		if r.Succeeded() {
			outcome.Successes = append(outcome.Successes, r.Record)
		} else {
			outcome.Failures = append(outcome.Failures, model.Failure{
				PIN:    r.PIN,
				Reason: r.Reason,
				Detail: r.Detail,
			})
		}
	}

	return outcome, nil
}

// Stream services tasks from a channel until it closes, sending one result
// per task. Watch mode uses this when identifiers arrive from the broker
// instead of an upfront list; tasks already read are finished even after
// the channel's producer shuts down.
func (c *Collector) Stream(ctx context.Context, tasks <-chan *model.FetchTask, results chan<- *model.FetchResult) error {
	workers := c.cfg.WorkerSettings.MaxWorkers
	fetchers := make([]fetcher.Fetcher, 0, workers)
	var acquireErr error
	for i := 0; i < workers; i++ {
		f, err := c.pool.Acquire(ctx)
		if err != nil {
			acquireErr = err
			break
		}
		fetchers = append(fetchers, f)
	}
	if len(fetchers) == 0 {
		return fmt.Errorf("no fetch sessions available: %w", acquireErr)
	}
	if acquireErr != nil {
		c.log.Warn("running with fewer workers than configured.",
			slog.Int("workers", len(fetchers)), slog.String("err", acquireErr.Error()))
	}

	wg := &sync.WaitGroup{}
	for _, f := range fetchers {
		wg.Add(1)
		go func(f fetcher.Fetcher) {
			defer wg.Done()
			defer c.pool.Release(f)
			if c.cache != nil {
				f = fetcher.WithCache(f, c.cache, c.log)
			}
			for t := range tasks {
				var res model.FetchResult
				if !slices.Contains(c.cfg.PortalSettings.Semesters, t.Semester) {
					res = model.FetchResult{
						PIN:    t.PIN,
						Reason: model.ReasonNotFound,
						Detail: fmt.Sprintf("unknown semester %q", t.Semester),
					}
				} else {
					res = c.resolve(f, model.FetchRequest{PIN: t.PIN, Semester: t.Semester})
				}
				c.report(res, 0)
				results <- &res
			}
		}(f)
	}
	wg.Wait()

	return nil
}

type task struct {
	idx int
	pin string
}

func (c *Collector) worker(f fetcher.Fetcher, tasks <-chan task, results []model.FetchResult,
	semester string, total int, wg *sync.WaitGroup) {
	defer wg.Done()
	defer c.pool.Release(f)
	c.log.Debug("starting fetch worker.")

	if c.cache != nil {
		f = fetcher.WithCache(f, c.cache, c.log)
	}
	for t := range tasks {
		res := c.resolve(f, model.FetchRequest{PIN: t.pin, Semester: semester})
		results[t.idx] = res
		c.report(res, total)
	}
}

// resolve runs one identifier through the retry budget. Only timeouts and
// navigation errors are retried; a missing record or a layout change is
// definitive. A panicking fetch still yields a result so the batch keeps
// its one-result-per-PIN shape.
func (c *Collector) resolve(f fetcher.Fetcher, req model.FetchRequest) (res model.FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("PANIC!", slog.Any("err", r), slog.String("pin", req.PIN))
			res = model.FetchResult{
				PIN:      req.PIN,
				Reason:   model.ReasonNavigation,
				Detail:   fmt.Sprintf("panic: %v", r),
				Attempts: 1,
			}
		}
	}()

	res = f.Fetch(context.Background(), req)
	attempt := 1
	for retry, delay := c.cfg.WorkerSettings.RetryAttempts, c.cfg.WorkerSettings.RetryDelay; !res.Succeeded() &&
		res.Reason.Retryable() && retry > 0; retry, delay = retry-1, delay*2 {
		c.log.Warn("retryable failure. retrying...", slog.String("pin", req.PIN),
			slog.String("reason", string(res.Reason)), slog.Int("attempts left", retry))
		c.metrics.RetryInc()
		time.Sleep(delay)
		attempt++
		res = f.Fetch(context.Background(), req)
		if res.Attempts > 0 {
			res.Attempts = attempt
		}
	}

	return res
}

func (c *Collector) report(res model.FetchResult, total int) {
	kind := res.Kind()
	c.metrics.FetchInc(kind)
	switch {
	case res.Succeeded() && res.Attempts == 0:
		// A successful result with zero attempts was served from the cache.
		c.metrics.CacheHitInc()
	case res.Attempts > 0:
		c.metrics.ObserveFetchDuration(float64(res.TimeToFetch) / 1000)
	}

	// The observer runs under the collector mutex so callbacks never
	// overlap and done is strictly increasing.
	c.mu.Lock()
	c.done++
	if c.observer != nil {
		c.observer(c.done, total, res.PIN, kind)
	}
	c.mu.Unlock()
}
