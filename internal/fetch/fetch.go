// Package fetch retrieves pages politely: per-domain rate limiting,
// robots.txt compliance, bounded response bodies, and a short-lived page
// cache so reruns do not re-hit sources.
//
// Fetch errors are reserved for transport failures. Any HTTP response,
// including 403s and challenge pages, comes back as a Page; callers
// treat blocked and non-200 pages as absent sources, never as run
// failures.
package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/persona-cli/internal/config"
	"github.com/sells-group/persona-cli/internal/resilience"
)

const maxRedirects = 3

// Page is one fetched document. Cached and shared between calls; callers
// must not mutate it.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	HTML       string
	Blocked    bool
	BlockKind  BlockKind
}

// Fetcher retrieves a page by URL. Implementations are safe for
// concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// HTTPFetcher is the production Fetcher.
type HTTPFetcher struct {
	client   *http.Client
	agent    string
	maxBytes int64
	delay    time.Duration
	retry    resilience.RetryConfig

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter

	robots *robotsGate // nil when robots compliance is off
	pages  *cache.Cache
}

// NewHTTPFetcher builds a fetcher from config. Zero or negative
// cache_ttl_minutes disables the page cache.
func NewHTTPFetcher(cfg config.FetchConfig) *HTTPFetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	maxBytes := int64(cfg.MaxBodyKB) * 1024
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}

	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return eris.Errorf("fetch: stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	f := &HTTPFetcher{
		client:   client,
		agent:    cfg.UserAgent,
		maxBytes: maxBytes,
		delay:    time.Duration(cfg.PerDomainDelayMs) * time.Millisecond,
		limiters: make(map[string]*rate.Limiter),
		retry: resilience.RetryConfig{
			MaxAttempts:    cfg.MaxRetries + 1,
			InitialBackoff: time.Second,
			OnRetry:        resilience.RetryLogger("fetch", "get"),
		},
	}
	if cfg.RespectRobots {
		f.robots = newRobotsGate(client, cfg.UserAgent)
	}
	if cfg.CacheTTLMinutes > 0 {
		ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
		f.pages = cache.New(ttl, 2*ttl)
	}
	return f
}

// Fetch retrieves rawURL, waiting out the domain's politeness interval
// first. Robots-disallowed URLs come back as blocked pages without any
// request being made.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, eris.Wrapf(err, "fetch: bad url %q", rawURL)
	}

	if f.pages != nil {
		if hit, ok := f.pages.Get(rawURL); ok {
			return hit.(*Page), nil
		}
	}

	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay := f.robots.check(ctx, parsed)
		if !allowed {
			page := &Page{URL: rawURL, FinalURL: rawURL, Blocked: true, BlockKind: BlockRobots}
			f.store(rawURL, page)
			zap.L().Debug("fetch: robots disallow", zap.String("url", rawURL))
			return page, nil
		}
		crawlDelay = delay
	}

	if err := f.wait(ctx, parsed.Host, crawlDelay); err != nil {
		return nil, eris.Wrapf(err, "fetch: rate wait %s", parsed.Host)
	}

	var res *response
	err = resilience.Do(ctx, f.retry, func(ctx context.Context) error {
		r, err := f.get(ctx, rawURL)
		if err != nil {
			return err
		}
		res = r
		if resilience.IsTransientHTTPStatus(r.status) {
			return resilience.NewTransientError(
				eris.Errorf("fetch: status %d from %s", r.status, parsed.Host), r.status)
		}
		return nil
	})
	if res == nil {
		return nil, eris.Wrapf(err, "fetch: get %s", rawURL)
	}

	blocked, kind := DetectBlock(res.status, res.header, res.body)
	page := &Page{
		URL:        rawURL,
		FinalURL:   res.finalURL,
		StatusCode: res.status,
		HTML:       string(res.body),
		Blocked:    blocked,
		BlockKind:  kind,
	}
	f.store(rawURL, page)

	zap.L().Debug("fetch: done",
		zap.String("url", rawURL),
		zap.Int("status", page.StatusCode),
		zap.Int("bytes", len(page.HTML)),
		zap.Bool("blocked", page.Blocked),
	)
	return page, nil
}

type response struct {
	status   int
	header   http.Header
	body     []byte
	finalURL string
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: build request")
	}
	req.Header.Set("User-Agent", f.agent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: do")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read body")
	}

	return &response{
		status:   resp.StatusCode,
		header:   resp.Header,
		body:     body,
		finalURL: resp.Request.URL.String(),
	}, nil
}

// wait blocks until the domain's limiter clears, then honors any larger
// robots crawl-delay on top.
func (f *HTTPFetcher) wait(ctx context.Context, host string, crawlDelay time.Duration) error {
	if err := f.limiterFor(host).Wait(ctx); err != nil {
		return err
	}
	if extra := crawlDelay - f.delay; extra > 0 {
		timer := time.NewTimer(extra)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

func (f *HTTPFetcher) limiterFor(host string) *rate.Limiter {
	f.mu.RLock()
	limiter, ok := f.limiters[host]
	f.mu.RUnlock()
	if ok {
		return limiter
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if limiter, ok := f.limiters[host]; ok {
		return limiter
	}
	if f.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(f.delay), 1)
	} else {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	f.limiters[host] = limiter
	return limiter
}

func (f *HTTPFetcher) store(rawURL string, page *Page) {
	if f.pages != nil {
		f.pages.Set(rawURL, page, cache.DefaultExpiration)
	}
}

// productToken reduces a User-Agent to its product name for robots.txt
// group matching.
func productToken(agent string) string {
	fields := strings.Fields(agent)
	if len(fields) == 0 {
		return agent
	}
	name, _, _ := strings.Cut(fields[0], "/")
	return name
}
