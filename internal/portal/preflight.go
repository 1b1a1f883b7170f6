// Package portal checks that the results site is reachable before a
// batch starts spending browser sessions on it.
package portal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/darion/resultfetch/config"
	"github.com/go-resty/resty/v2"
)

type Client struct {
	http *resty.Client
	cfg  *config.PortalConfig
	log  *slog.Logger
}

func NewClient(cfg *config.PortalConfig, log *slog.Logger) *Client {
	client := resty.New()
	client.SetHeader("user-agent", cfg.UserAgent)
	client.SetTimeout(cfg.RequestTimeout)

	return &Client{http: client, cfg: cfg, log: log}
}

// Check issues a single GET against the portal URL. The page is not
// parsed; a transport failure or an HTTP error status fails the check.
func (c *Client) Check(ctx context.Context) error {
	res, err := c.http.R().
		SetContext(ctx).
		Get(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("portal unreachable: %w", err)
	}
	if res.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("portal returned %s", res.Status())
	}
	c.log.Debug("portal reachable.", slog.Int("status", res.StatusCode()),
		slog.String("took", res.Time().String()))

	return nil
}
