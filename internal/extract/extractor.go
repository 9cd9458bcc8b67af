package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resale/monitor/internal/config"
	"resale/monitor/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// Extractor produces a stock snapshot for one sourcing item by live page
// extraction. A page that never reaches a terminal state, or one with
// required fields missing or invalid, yields a domain.ExtractionError.
type Extractor interface {
	Extract(ctx context.Context, platform, url string) (*domain.StockSnapshot, error)
}

type extractor struct {
	cfg     config.ExtractorConfig
	fetcher PageFetcher
}

func New(cfg config.ExtractorConfig, fetcher PageFetcher) Extractor {
	return &extractor{
		cfg:     cfg,
		fetcher: fetcher,
	}
}

func (e *extractor) Extract(ctx context.Context, platform, url string) (*domain.StockSnapshot, error) {
	profile, ok := profiles[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedPlatform, platform)
	}

	doc, err := e.waitForTerminalState(ctx, url, profile)
	if err != nil {
		return nil, err
	}

	snap, err := parseSnapshot(doc, url, profile, e.cfg.MinPrice)
	if err != nil {
		return nil, err
	}

	log.Debugf("Extracted %s snapshot for %s", snap.Status, url)
	return snap, nil
}

// waitForTerminalState re-fetches the page until it shows either the empty
// state or all required data regions, bounded by the region timeout. SPA
// skeleton markup counts as not yet terminal.
func (e *extractor) waitForTerminalState(ctx context.Context, url string, profile selectorProfile) (*goquery.Document, error) {
	deadline := time.Now().Add(e.cfg.RegionTimeout())

	var doc *goquery.Document
	for {
		html, err := e.fetcher.FetchPage(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
		}

		doc, err = goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML for %s: %w", url, err)
		}

		if profile.terminal(doc) {
			return doc, nil
		}

		if time.Now().After(deadline) {
			return nil, &domain.ExtractionError{
				URL:    url,
				Reason: "page did not reach a terminal state",
				Fields: profile.regionState(doc),
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.cfg.PollInterval()):
		}
	}
}
