package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/GriffinCanCode/leadform/internal/infrastructure/config"
	"github.com/GriffinCanCode/leadform/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/leadform/internal/providers/scraper"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Recorder receives one observation per fetch
type Recorder interface {
	RecordFetch(result string, duration time.Duration, bytes int)
}

// Client fetches HTML pages
type Client struct {
	resty    *resty.Client
	breakers *resilience.Group
	limiter  *rate.Limiter
	timeout  time.Duration
	maxBody  int64
	log      *zap.Logger
	metrics  Recorder
}

// Option customizes a Client
type Option func(*Client)

// WithLogger sets the client logger
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics sets the fetch recorder
func WithMetrics(r Recorder) Option {
	return func(c *Client) { c.metrics = r }
}

// WithBreakers replaces the per-host breaker group
func WithBreakers(g *resilience.Group) Option {
	return func(c *Client) { c.breakers = g }
}

// New creates a client from fetch configuration
func New(cfg config.FetchConfig, opts ...Option) *Client {
	c := &Client{
		timeout: cfg.Timeout,
		maxBody: cfg.MaxBodyBytes,
		log:     zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breakers == nil {
		c.breakers = resilience.NewGroup(c.breakerSettings())
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil
	// Hand the final response back so status codes survive exhausted retries
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	// Redirects surface to the outer client, where redirectPolicy applies
	retryClient.HTTPClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			c.log.Warn("Retrying fetch",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt))
		}
	}

	c.resty = resty.NewWithClient(retryClient.StandardClient()).
		SetLogger(c.log.Sugar()).
		SetRedirectPolicy(redirectPolicy(cfg.MaxRedirects)).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Encoding", acceptEncoding)

	return c
}

func (c *Client) breakerSettings() resilience.Settings {
	return resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsFailure: func(err error) bool {
			var fe *Error
			return errors.As(err, &fe) && fe.transient()
		},
		OnStateChange: func(host string, from, to resilience.State) {
			c.log.Warn("Fetch circuit breaker state changed",
				zap.String("host", host),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
}

// BreakerStates returns the breaker state of every host fetched so far
func (c *Client) BreakerStates() map[string]resilience.State {
	return c.breakers.States()
}

// FetchHTML downloads rawURL and returns its body as UTF-8 text
func (c *Client) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	start := time.Now()
	page, err := c.fetch(ctx, rawURL)
	c.record(time.Since(start), len(page), err)

	if err != nil {
		c.log.Debug("Fetch failed", zap.String("url", rawURL), zap.Error(err))
		return "", err
	}
	return page, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := validateURL(rawURL)
	if err != nil {
		return "", &Error{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return "", &Error{Kind: KindCanceled, URL: rawURL, Err: err}
		}
		// Wait fails early when the deadline cannot be met
		return "", &Error{Kind: KindTimeout, URL: rawURL, Err: err}
	}

	var page string
	err = c.breakers.Get(u.Host).Execute(func() error {
		var getErr error
		page, getErr = c.get(ctx, u.String())
		return getErr
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return "", &Error{Kind: KindCircuitOpen, URL: rawURL, Err: err}
	}
	return page, err
}

func (c *Client) get(ctx context.Context, target string) (string, error) {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		return "", requestError(ctx, target, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return "", &Error{Kind: KindStatus, URL: target, StatusCode: code}
	}

	body, err := decompress(raw, resp.Header().Get("Content-Encoding"))
	if err != nil {
		return "", &Error{Kind: KindContent, URL: target, Err: err}
	}
	defer body.Close()

	data, err := c.readBounded(body)
	if err != nil {
		if errors.Is(err, scraper.ErrResourceExhausted) {
			return "", fmt.Errorf("fetch %s: %w", target, err)
		}
		return "", requestError(ctx, target, err)
	}
	if len(data) == 0 {
		return "", nil
	}

	if !isText(data) {
		return "", &Error{
			Kind: KindContent,
			URL:  target,
			Err:  fmt.Errorf("%w: %s", ErrUnsupportedContent, sniff(data)),
		}
	}

	page, err := toUTF8(data, resp.Header().Get("Content-Type"))
	if err != nil {
		return "", &Error{Kind: KindContent, URL: target, Err: err}
	}
	return page, nil
}

// readBounded reads at most maxBody decoded bytes. Zero means unbounded.
func (c *Client) readBounded(r io.Reader) ([]byte, error) {
	if c.maxBody <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, c.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", scraper.ErrResourceExhausted, c.maxBody)
	}
	return data, nil
}

func (c *Client) record(duration time.Duration, bytes int, err error) {
	if c.metrics == nil {
		return
	}
	result := "ok"
	var fe *Error
	switch {
	case errors.As(err, &fe):
		result = string(fe.Kind)
	case errors.Is(err, scraper.ErrResourceExhausted):
		result = "too_large"
	case err != nil:
		result = "error"
	}
	c.metrics.RecordFetch(result, duration, bytes)
}

func validateURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, errors.New("url is empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("url has no host")
	}
	return u, nil
}

func redirectPolicy(limit int) resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if len(via) > limit {
			return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, limit)
		}
		if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
			return fmt.Errorf("%w: %s", ErrRedirectScheme, req.URL.Scheme)
		}
		return nil
	})
}

func requestError(ctx context.Context, target string, err error) *Error {
	if errors.Is(err, ErrTooManyRedirects) || errors.Is(err, ErrRedirectScheme) {
		return &Error{Kind: KindRedirect, URL: target, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, URL: target, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &Error{Kind: KindCanceled, URL: target, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, URL: target, Err: err}
	}
	return &Error{Kind: KindTransport, URL: target, Err: err}
}
