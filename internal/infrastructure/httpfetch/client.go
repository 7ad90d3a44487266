package httpfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"

	"AlertTrack/internal/domain"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "AlertTrack/1.0"
	MaxBodySize      = int64(50 * 1024 * 1024)
)

// RetryPolicy bounds exponential backoff for transient failures.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the standard intervals with the given retry budget.
func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return RetryPolicy{
		MaxRetries:      uint64(maxRetries),
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Do runs op until it succeeds, fails permanently or the retry budget is spent.
// Only errors accepted by Retryable are retried.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0

	bo := backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bo)
}

// Retryable reports whether err is a transport failure or a transient status
// (408, 429 or any 5xx). Context cancellation is never retried.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		return false
	}
	switch {
	case netErr.StatusCode == 0:
		return true
	case netErr.StatusCode == http.StatusRequestTimeout, netErr.StatusCode == http.StatusTooManyRequests:
		return true
	case netErr.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// Client performs GET requests with a timeout and bounded retries.
type Client struct {
	http      *http.Client
	userAgent string
	retry     RetryPolicy
}

// New builds a client; zero values fall back to defaults.
func New(timeout time.Duration, userAgent string, maxRetries int) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		retry:     DefaultRetryPolicy(maxRetries),
	}
}

// WithRetryPolicy replaces the retry policy; used to shorten intervals in tests.
func (c *Client) WithRetryPolicy(p RetryPolicy) *Client {
	c.retry = p
	return c
}

// Get downloads url and returns the body. Non-2xx responses and transport
// failures come back as *domain.NetworkError.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.retry.Do(ctx, func() error {
		var getErr error
		body, getErr = c.doGet(ctx, url)
		return getErr
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Document downloads url and parses it as HTML.
func (c *Client) Document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.FormatError{What: "html document " + url, Err: err}
	}
	return doc, nil
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.NetworkError{URL: url, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &domain.NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, &domain.NetworkError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > MaxBodySize {
		return nil, backoff.Permanent(&domain.NetworkError{URL: url, Err: fmt.Errorf("body exceeds %d bytes", MaxBodySize)})
	}
	return body, nil
}
