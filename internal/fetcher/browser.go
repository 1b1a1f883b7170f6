package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/darion/resultfetch/config"
	"github.com/darion/resultfetch/internal/model"
)

const pollInterval = 200 * time.Millisecond

var errPoolClosed = errors.New("fetcher pool is closed")

type browserPool struct {
	cfg         *config.Config
	log         *slog.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
	mu          sync.Mutex
	idle        []*browserFetcher
	closed      bool
}

func newBrowserPool(cfg *config.Config, log *slog.Logger) *browserPool {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &browserPool{
		cfg:         cfg,
		log:         log,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}
}

// Acquire returns an idle session or starts a new one. Starting the
// browser here makes a broken Chrome install fail fast instead of
// surfacing as a navigation error on the first fetch.
func (p *browserPool) Acquire(ctx context.Context) (Fetcher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errPoolClosed
	}
	if n := len(p.idle); n > 0 {
		f := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return f, nil
	}
	p.mu.Unlock()

	sessCtx, sessCancel := chromedp.NewContext(p.allocCtx)
	if err := chromedp.Run(sessCtx); err != nil {
		sessCancel()
		return nil, fmt.Errorf("starting browser session: %w", err)
	}
	p.log.Debug("browser session started.")

	return &browserFetcher{sessCtx: sessCtx, sessCancel: sessCancel, cfg: p.cfg, log: p.log}, nil
}

func (p *browserPool) Release(f Fetcher) {
	bf, ok := f.(*browserFetcher)
	if !ok {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		bf.sessCancel()
		return
	}
	p.idle = append(p.idle, bf)
	p.mu.Unlock()
}

func (p *browserPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, f := range idle {
		f.sessCancel()
	}
	p.allocCancel()
}

type browserFetcher struct {
	sessCtx    context.Context
	sessCancel context.CancelFunc
	cfg        *config.Config
	log        *slog.Logger
}

func (f *browserFetcher) Fetch(_ context.Context, req model.FetchRequest) model.FetchResult {
	startTime := time.Now()
	res := model.FetchResult{PIN: req.PIN, Attempts: 1}
	p := f.cfg.PortalSettings

	// The timeout context is a child of the session context, so an expired
	// fetch leaves the session reusable.
	tCtx, cancel := context.WithTimeout(f.sessCtx, p.RequestTimeout)
	defer cancel()

	var containerHTML string
	err := chromedp.Run(tCtx,
		chromedp.Tasks{
			network.Enable(),
			network.SetExtraHTTPHeaders(map[string]interface{}{
				"User-Agent": p.UserAgent,
			}),
			enableLifeCycleEvents(),
			navigateAndWaitFor(p.URL, "DOMContentLoaded"),
		},
		chromedp.WaitVisible("#"+p.PinInputID, chromedp.ByQuery),
		chromedp.Clear("#"+p.PinInputID, chromedp.ByQuery),
		chromedp.SendKeys("#"+p.PinInputID, req.PIN, chromedp.ByQuery),
		selectSemester(p.SemesterSelectID, req.Semester),
		clickSubmit(p.SubmitSelector),
		waitForOutcome(p.ResultContainerID, p.ErrorIndicator, &containerHTML),
	)
	res.TimeToFetch = time.Since(startTime).Milliseconds()
	if err != nil {
		res.Reason, res.Detail = classifyBrowserError(err)
		return res
	}

	record, err := parseRecord(containerHTML, p, req)
	if err != nil {
		res.Reason, res.Detail = classifyParseError(err)
		return res
	}
	res.Record = record

	return res
}

// selectSemester picks the dropdown option whose visible text (or value)
// matches, the way an operator would.
func selectSemester(selectID, semester string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		script := fmt.Sprintf(`(function() {
			const sel = document.getElementById(%q);
			if (!sel) { return false; }
			for (const opt of sel.options) {
				if (opt.text.trim() === %q || opt.value === %q) {
					sel.value = opt.value;
					sel.dispatchEvent(new Event('change', { bubbles: true }));
					return true;
				}
			}
			return false;
		})()`, selectID, semester, semester)
		var ok bool
		if err := chromedp.Evaluate(script, &ok).Do(ctx); err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("semester %q not found in dropdown #%s", semester, selectID)
		}
		return nil
	}
}

func clickSubmit(selector string) chromedp.Action {
	if strings.HasPrefix(selector, "//") || strings.HasPrefix(selector, "(") {
		return chromedp.Click(selector, chromedp.BySearch)
	}
	return chromedp.Click(selector, chromedp.ByQuery)
}

// waitForOutcome polls until the results container is filled in or the
// portal shows its no-records message, bounded by the fetch deadline.
func waitForOutcome(containerID, errorIndicator string, outerHTML *string) chromedp.ActionFunc {
	probe := fmt.Sprintf(`(function() {
		const el = document.getElementById(%q);
		if (el && el.innerHTML.trim().length > 0) { return el.outerHTML; }
		return "";
	})()`, containerID)

	return func(ctx context.Context) error {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			var html string
			if err := chromedp.Evaluate(probe, &html).Do(ctx); err != nil {
				return err
			}
			if html != "" {
				*outerHTML = html
				return nil
			}
			if errorIndicator != "" {
				var bodyText string
				if err := chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &bodyText).Do(ctx); err != nil {
					return err
				}
				if strings.Contains(bodyText, errorIndicator) {
					return errNoRecord
				}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
}

func classifyBrowserError(err error) (model.FailureReason, string) {
	switch {
	case errors.Is(err, errNoRecord):
		return model.ReasonNotFound, "portal reported no records"
	case errors.Is(err, context.DeadlineExceeded):
		return model.ReasonTimeout, "portal did not produce a result in time"
	case errors.Is(err, context.Canceled):
		return model.ReasonCancelled, "fetch aborted"
	default:
		return model.ReasonNavigation, truncateDetail(err.Error())
	}
}

func enableLifeCycleEvents() chromedp.ActionFunc {
	return func(ctx context.Context) error {
		err := page.Enable().Do(ctx)
		if err != nil {
			return err
		}
		err = page.SetLifecycleEventsEnabled(true).Do(ctx)
		if err != nil {
			return err
		}
		return nil
	}
}

func navigateAndWaitFor(url string, eventName string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		_, _, _, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		return waitFor(ctx, eventName)
	}
}

func waitFor(ctx context.Context, eventName string) error {
	ch := make(chan struct{})
	cctx, cancel := context.WithCancel(ctx)
	chromedp.ListenTarget(cctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventLifecycleEvent:
			if e.Name == eventName {
				cancel()
				close(ch)
			}
		}
	})
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
