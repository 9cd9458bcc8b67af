package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// ProxySupplier hands out proxies round-robin for sourcing-page fetches.
type ProxySupplier interface {
	Get() string
}

type proxySupplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewProxySupplier validates the configured proxies against the sourcing
// site and keeps only the working ones. An empty pool is fine; Get then
// returns "" and fetches go direct.
func NewProxySupplier(ctx context.Context, proxies []string, checkURL string) (ProxySupplier, error) {
	if len(proxies) == 0 {
		return &proxySupplier{}, nil
	}

	log.Infof("Testing %d proxies against %s", len(proxies), checkURL)

	validCh := make(chan string, len(proxies))
	var wg sync.WaitGroup
	for _, proxyURL := range proxies {
		wg.Add(1)
		go func(proxy string) {
			defer wg.Done()
			if isProxyValid(ctx, proxy, checkURL) {
				validCh <- proxy
			} else {
				log.Infof("Proxy %s is not working, skipping", proxy)
			}
		}(proxyURL)
	}
	wg.Wait()
	close(validCh)

	valid := make([]string, 0, len(proxies))
	for proxy := range validCh {
		valid = append(valid, proxy)
	}

	log.Infof("Proxy pool ready: %d working out of %d tested", len(valid), len(proxies))

	return &proxySupplier{proxies: valid}, nil
}

func (p *proxySupplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return proxy
}

func isProxyValid(ctx context.Context, proxyURL, checkURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL)

	resp, err := client.R().
		SetContext(ctx).
		Get(checkURL)
	if err != nil {
		return false
	}

	return !resp.IsError()
}
