// Package probe checks candidate image URLs for liveness.
package probe

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Config holds prober settings.
type Config struct {
	Timeout     time.Duration
	Concurrency int
}

// Prober performs HEAD liveness probes. Probes never fail loudly: an
// unreachable URL is an expected, high-frequency outcome and reports false.
type Prober struct {
	httpClient *http.Client
	sem        chan struct{}
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Prober {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 16
	}

	return &Prober{
		httpClient: &http.Client{Timeout: timeout},
		sem:        make(chan struct{}, concurrency),
		logger:     logger,
	}
}

// IsReachable reports whether url answers a HEAD request with a success
// status within the configured timeout.
func (p *Prober) IsReachable(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		p.logger.Debug("probe skipped, bad url", "url", url, "error", err)
		return false
	}

	req.Header.Set("User-Agent", "Hivelens/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Debug("probe failed", "url", url, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Debug("probe rejected", "url", url, "status", resp.StatusCode)
		return false
	}

	return true
}

// FilterReachable probes every URL concurrently under the global semaphore
// and waits for all outcomes before returning. Individual failures never
// short-circuit the join; they land in dead. Within each slice, order
// follows the input.
func (p *Prober) FilterReachable(ctx context.Context, urls []string) (live, dead []string) {
	if len(urls) == 0 {
		return nil, nil
	}

	reachable := make([]bool, len(urls))

	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			p.sem <- struct{}{}
			defer func() { <-p.sem }()
			reachable[i] = p.IsReachable(ctx, url)
		}(i, url)
	}
	wg.Wait()

	for i, url := range urls {
		if reachable[i] {
			live = append(live, url)
		} else {
			dead = append(dead, url)
		}
	}
	return live, dead
}
