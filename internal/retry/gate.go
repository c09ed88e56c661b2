// Package retry keeps the two retry dimensions apart: a per-entity data
// budget consumed by failed extractions, and a connectivity gate that waits
// for the supplier site without ever touching that budget.
package retry

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/adsidev/catalogd/pkg/config"
	"github.com/adsidev/catalogd/pkg/logger"
	"github.com/adsidev/catalogd/pkg/metrics"
)

// Gate decides whether work may be retried.
type Gate struct {
	cfg     config.RetryConfig
	client  *resty.Client
	log     *logger.Logger
	metrics *metrics.CatalogMetrics
}

func NewGate(cfg config.RetryConfig, log *logger.Logger, m *metrics.CatalogMetrics) *Gate {
	client := resty.New().
		SetTimeout(cfg.ProbeTimeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &Gate{cfg: cfg, client: client, log: log, metrics: m}
}

// MayRetry reports whether the data-retry budget still allows an attempt.
func (g *Gate) MayRetry(retryCount int) bool {
	return retryCount < g.cfg.MaxDataRetries
}

// MaxDataRetries exposes the configured budget.
func (g *Gate) MaxDataRetries() int {
	return g.cfg.MaxDataRetries
}

// WaitForReachable polls url with GET probes until it answers 2xx, the
// wait bound elapses, or ctx is cancelled. The wait never consumes the
// data budget; the caller abandons the attempt when false comes back.
func (g *Gate) WaitForReachable(ctx context.Context, url string) bool {
	deadline := time.Now().Add(g.cfg.ProbeMaxWait)

	for {
		if g.probe(ctx, url) {
			return true
		}
		g.metrics.IncProbeFailure()
		if g.log != nil {
			g.log.Warn(g.log.WithField(ctx, "probe_url", url), "supplier unreachable, waiting before next probe")
		}

		if time.Now().Add(g.cfg.ProbeInterval).After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(g.cfg.ProbeInterval):
		}
	}
}

func (g *Gate) probe(ctx context.Context, url string) bool {
	resp, err := g.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return false
	}
	return resp.StatusCode() >= 200 && resp.StatusCode() < 300
}
