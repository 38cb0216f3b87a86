package fetcher

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the HTTP fetcher. MaxRetries is the total number
// of attempts per request, so 1 disables retrying.
type HTTPOptions struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	RatePerHost  rate.Limit // default limit for hosts without a dedicated limiter
	RateLimiters map[string]*rate.Limiter
	BaseBackoff  time.Duration
}

// AdaptiveLimiter is a per-host limiter that speeds up by 20% after each
// success, up to twice its initial rate, and halves on every 429, down to a
// quarter of its initial rate.
type AdaptiveLimiter struct {
	limiter *rate.Limiter
	floor   rate.Limit
	ceiling rate.Limit

	mu      sync.Mutex
	current rate.Limit
}

// NewAdaptiveLimiter creates an AdaptiveLimiter starting at initial events
// per second.
func NewAdaptiveLimiter(initial rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		limiter: rate.NewLimiter(initial, burst),
		floor:   initial / 4,
		ceiling: initial * 2,
		current: initial,
	}
}

// Wait blocks until the limiter allows an event.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess raises the rate.
func (a *AdaptiveLimiter) OnSuccess() {
	a.scale(1.2)
}

// OnRateLimit lowers the rate after a 429.
func (a *AdaptiveLimiter) OnRateLimit() {
	r := a.scale(0.5)
	zap.L().Warn("fetcher: host rate limited, slowing down", zap.Float64("new_rate", float64(r)))
}

func (a *AdaptiveLimiter) scale(factor float64) rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = min(max(a.current*rate.Limit(factor), a.floor), a.ceiling)
	a.limiter.SetLimit(a.current)
	return a.current
}

// Limit returns the current rate.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// HTTPFetcher implements Fetcher using net/http with retry and rate limiting.
type HTTPFetcher struct {
	client           *http.Client
	opts             HTTPOptions
	mu               sync.Mutex
	limiters         map[string]*rate.Limiter
	adaptiveLimiters map[string]*AdaptiveLimiter
}

// DefaultAdaptiveLimiters returns adaptive rate limiters for the public tile
// servers the rasterizer talks to. OpenStreetMap's tile usage policy asks
// for modest request rates.
func DefaultAdaptiveLimiters() map[string]*AdaptiveLimiter {
	return map[string]*AdaptiveLimiter{
		"tile.openstreetmap.org":    NewAdaptiveLimiter(4, 4),
		"server.arcgisonline.com":   NewAdaptiveLimiter(10, 10),
		"raw.githubusercontent.com": NewAdaptiveLimiter(5, 5),
	}
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "geomap/1.0"
	}
	if opts.RatePerHost == 0 {
		opts.RatePerHost = 20
	}
	if opts.BaseBackoff == 0 {
		opts.BaseBackoff = time.Second
	}
	limiters := make(map[string]*rate.Limiter)
	for k, v := range opts.RateLimiters {
		limiters[k] = v
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:             opts,
		limiters:         limiters,
		adaptiveLimiters: DefaultAdaptiveLimiters(),
	}
}

// adaptiveLimiterFor returns the adaptive limiter for the given host, if any.
func (f *HTTPFetcher) adaptiveLimiterFor(rawURL string) *AdaptiveLimiter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return f.adaptiveLimiters[u.Host]
}

// limiterFor returns the fixed limiter for the URL's host, creating one on
// first use so that concurrent callers share it.
func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if lim, ok := f.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(f.opts.RatePerHost, int(math.Max(1, float64(f.opts.RatePerHost))))
	f.limiters[host] = lim
	return lim
}

// attemptOutcome classifies one request attempt.
type attemptOutcome int

const (
	attemptDone      attemptOutcome = iota // hand the response to the caller
	attemptRetry                           // transport error or 5xx
	attemptThrottled                       // 429, slow the host down and retry
)

func classify(resp *http.Response, err error) attemptOutcome {
	switch {
	case err != nil:
		return attemptRetry
	case resp.StatusCode == http.StatusTooManyRequests:
		return attemptThrottled
	case resp.StatusCode >= 500:
		return attemptRetry
	default:
		return attemptDone
	}
}

func (f *HTTPFetcher) wait(ctx context.Context, rawURL string, adaptive *AdaptiveLimiter) error {
	var err error
	if adaptive != nil {
		err = adaptive.Wait(ctx)
	} else {
		err = f.limiterFor(rawURL).Wait(ctx)
	}
	return eris.Wrap(err, "fetcher: rate limiter wait")
}

// doWithRetry sends req until it gets a response worth returning or the
// attempts run out. Transport errors, 5xx and 429 are retried with backoff;
// there is no backoff after the last attempt.
func (f *HTTPFetcher) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	target := req.URL.String()
	adaptive := f.adaptiveLimiterFor(target)
	log := zap.L().With(zap.String("url", target))

	var lastErr error
	for attempt := range f.opts.MaxRetries {
		if err := f.wait(ctx, target, adaptive); err != nil {
			return nil, err
		}

		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil && ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "fetcher: request cancelled")
		}

		switch classify(resp, err) {
		case attemptDone:
			if adaptive != nil {
				adaptive.OnSuccess()
			}
			return resp, nil
		case attemptThrottled:
			_ = resp.Body.Close()
			lastErr = eris.Errorf("http 429 from %s", target)
			if adaptive != nil {
				adaptive.OnRateLimit()
			}
			log.Warn("fetcher: rate limited, backing off", zap.Int("attempt", attempt+1))
		case attemptRetry:
			if err != nil {
				lastErr = err
				log.Warn("fetcher: request failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
			} else {
				_ = resp.Body.Close()
				lastErr = eris.Errorf("http %d from %s", resp.StatusCode, target)
				log.Warn("fetcher: server error, retrying", zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt+1))
			}
		}
		if attempt < f.opts.MaxRetries-1 {
			f.backoff(ctx, attempt)
		}
	}

	if lastErr == nil {
		lastErr = eris.Errorf("no attempts made for %s", target)
	}
	return nil, eris.Wrap(lastErr, "all retries exhausted")
}

func (f *HTTPFetcher) backoff(ctx context.Context, attempt int) {
	base := f.opts.BaseBackoff
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	if half := int64(d) / 2; half > 0 {
		d += time.Duration(rand.Int64N(half))
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Download fetches the URL and returns the response body.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.doWithRetry(ctx, req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: download %s", rawURL)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, eris.Errorf("fetcher: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	return resp.Body, nil
}

// DownloadToFile fetches the URL and writes it to the given path.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "fetcher: create %s", path)
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, body)
	if err != nil {
		return n, eris.Wrapf(err, "fetcher: write %s", path)
	}

	return n, nil
}
