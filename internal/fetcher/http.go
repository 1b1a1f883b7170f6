package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/darion/resultfetch/config"
	"github.com/darion/resultfetch/internal/model"
	"github.com/gocolly/colly"
)

type httpPool struct {
	fetcher *httpFetcher
}

func newHTTPPool(cfg *config.Config, log *slog.Logger) *httpPool {
	return &httpPool{fetcher: newHTTPFetcher(cfg, log)}
}

// The HTTP fetcher keeps no per-session state, so one instance serves
// every worker.
func (p *httpPool) Acquire(ctx context.Context) (Fetcher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.fetcher, nil
}

func (p *httpPool) Release(Fetcher) {}

func (p *httpPool) Close() {}

type httpFetcher struct {
	cfg       *config.Config
	log       *slog.Logger
	transport http.RoundTripper
}

func newHTTPFetcher(cfg *config.Config, log *slog.Logger) *httpFetcher {
	return &httpFetcher{cfg: cfg, log: log}
}

func (f *httpFetcher) Fetch(_ context.Context, req model.FetchRequest) model.FetchResult {
	startTime := time.Now()
	res := model.FetchResult{PIN: req.PIN, Attempts: 1}
	p := f.cfg.PortalSettings

	var body []byte
	var statusCode int
	var requestErr error

	c := colly.NewCollector()
	c.SetRequestTimeout(p.RequestTimeout)
	c.UserAgent = p.UserAgent
	if f.transport != nil {
		c.WithTransport(f.transport)
	}

	c.OnResponse(func(resp *colly.Response) {
		statusCode = resp.StatusCode
		body = resp.Body
	})
	c.OnError(func(resp *colly.Response, err error) {
		if resp != nil {
			statusCode = resp.StatusCode
		}
		requestErr = err
	})

	err := c.Post(p.URL, map[string]string{
		p.PinInputID:       req.PIN,
		p.SemesterSelectID: req.Semester,
	})
	res.TimeToFetch = time.Since(startTime).Milliseconds()
	if requestErr == nil {
		requestErr = err
	}
	if requestErr != nil {
		res.Reason, res.Detail = classifyHTTPError(requestErr, statusCode)
		return res
	}

	record, perr := parseRecord(string(body), p, req)
	if perr != nil {
		res.Reason, res.Detail = classifyParseError(perr)
		return res
	}
	res.Record = record

	return res
}

func classifyHTTPError(err error, statusCode int) (model.FailureReason, string) {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout(),
		errors.Is(err, context.DeadlineExceeded),
		strings.Contains(err.Error(), "Client.Timeout"):
		return model.ReasonTimeout, "portal did not respond in time"
	case statusCode == http.StatusNotFound:
		return model.ReasonNotFound, truncateDetail(err.Error())
	default:
		return model.ReasonNavigation, truncateDetail(err.Error())
	}
}
