// Package fetch provides the HTTP client used to query upstream projects,
// with retries, exponential backoff, DNS caching, request pacing and
// per-host circuit breaking.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/dnscache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	ErrNotFound     = errors.New("not found upstream")
	ErrRateLimited  = errors.New("rate limited by upstream")
	ErrUpstreamDown = errors.New("upstream unavailable")

	// errNotSent marks failures where the request never reached the host
	errNotSent = fmt.Errorf("connection failed: %w", ErrUpstreamDown)
)

// maxBodySize bounds the size of a single upstream response
const maxBodySize = 32 << 20

// Client is implemented by Fetcher and CircuitBreakerFetcher
type Client interface {
	Get(ctx context.Context, url string, header http.Header) ([]byte, error)
	PostJSON(ctx context.Context, url string, payload interface{}) ([]byte, error)
}

// Fetcher retrieves documents from upstream hosts.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	limiter    *rate.Limiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxRetries sets the maximum retry attempts.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.baseDelay = d
	}
}

// WithRateLimit paces requests to at most perSecond. Zero disables pacing.
func WithRateLimit(perSecond float64) Option {
	return func(f *Fetcher) {
		if perSecond <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

var (
	sharedResolver     *dnscache.Resolver
	sharedResolverOnce sync.Once
)

// resolver returns the process wide DNS cache, refreshed every 5 minutes
func resolver() *dnscache.Resolver {
	sharedResolverOnce.Do(func() {
		sharedResolver = &dnscache.Resolver{}
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				sharedResolver.Refresh(true)
			}
		}()
	})
	return sharedResolver
}

// NewFetcher creates a new Fetcher with the given options.
func NewFetcher(opts ...Option) *Fetcher {
	res := resolver()
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					host, port, err := net.SplitHostPort(addr)
					if err != nil {
						return nil, &net.OpError{Op: "dial", Net: network, Err: err}
					}
					ips, err := res.LookupHost(ctx, host)
					if err != nil {
						return nil, &net.OpError{Op: "dial", Net: network, Err: err}
					}
					lastErr := error(&net.OpError{Op: "dial", Net: network, Err: errors.New("no address resolved for " + host)})
					for _, ip := range ips {
						conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
						if err == nil {
							return conn, nil
						}
						lastErr = err
					}
					return nil, lastErr
				},
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		userAgent:  "upgrade-advisor/1.0",
		maxRetries: 9,
		baseDelay:  3 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// HTTPClient returns the underlying HTTP client, for SDKs that issue
// their own requests.
func (f *Fetcher) HTTPClient() *http.Client {
	return f.client
}

// Get downloads the document at url.
func (f *Fetcher) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	return f.do(ctx, http.MethodGet, url, header, nil)
}

// PostJSON sends payload as a JSON body and returns the response body.
func (f *Fetcher) PostJSON(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json;charset=UTF-8")
	return f.do(ctx, http.MethodPost, url, header, body)
}

func (f *Fetcher) do(ctx context.Context, method, url string, header http.Header, body []byte) ([]byte, error) {
	delays := backoff.NewExponentialBackOff()
	delays.InitialInterval = f.baseDelay
	delays.MaxInterval = 10 * f.baseDelay
	delays.RandomizationFactor = 0.1
	delays.MaxElapsedTime = 0
	delays.Reset()

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := delays.NextBackOff()
			logrus.Debugf("Retrying %s %s in %s: %v", method, url, delay, lastErr)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		data, err := f.doOnce(ctx, method, url, header, body)
		if err == nil {
			return data, nil
		}

		lastErr = err

		// Don't retry on not found or client errors
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}

		// Retry on rate limit and server errors. A POST the host may have
		// processed is never sent twice.
		if errors.Is(err, ErrRateLimited) || errors.Is(err, errNotSent) {
			continue
		}
		if errors.Is(err, ErrUpstreamDown) && method != http.MethodPost {
			continue
		}

		return nil, err
	}

	return nil, lastErr
}

func (f *Fetcher) doOnce(ctx context.Context, method, url string, header http.Header, body []byte) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return nil, fmt.Errorf("%s %s: %v: %w", method, url, err, errNotSent)
		}
		return nil, fmt.Errorf("%s %s: %v: %w", method, url, err, ErrUpstreamDown)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("reading response: %v: %w", err, ErrUpstreamDown)
		}
		return data, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited

	case resp.StatusCode >= 500:
		return nil, ErrUpstreamDown

	default:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
	}
}
