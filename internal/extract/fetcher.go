package extract

import (
	"context"
	"fmt"
	"time"

	"resale/monitor/internal/config"
	"resale/monitor/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// PageFetcher returns the current HTML of a sourcing page. The underlying
// HTTP client lives for the whole process; each call is an independent read
// so no page state leaks between tasks.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

type restyFetcher struct {
	rl         ratelimit.Limiter
	httpClient *resty.Client
}

func NewPageFetcher(cfg config.ExtractorConfig, proxySupplier proxy.ProxySupplier) PageFetcher {
	client := resty.New().
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "ja,en-US;q=0.8,en;q=0.5")

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("Using proxy for sourcing pages: %s", proxyURL)
		}
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &restyFetcher{
		rl:         rl,
		httpClient: client,
	}
}

func (f *restyFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	f.rl.Take()

	resp, err := f.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	return resp.String(), nil
}
