package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/infrastructure/httpfetch"
)

const (
	DefaultEndpoint = "https://api.firecrawl.dev/v1/scrape"
	DefaultTimeout  = 120 * time.Second

	maxResponseSize = int64(20 * 1024 * 1024)
)

// ScrapeRequest is the body of POST /v1/scrape.
type ScrapeRequest struct {
	URL             string       `json:"url"`
	Formats         []string     `json:"formats"`
	OnlyMainContent bool         `json:"onlyMainContent,omitempty"`
	Timeout         int          `json:"timeout,omitempty"`
	JSONOptions     *JSONOptions `json:"jsonOptions,omitempty"`
}

// JSONOptions drives structured extraction for the "json" format.
type JSONOptions struct {
	Schema map[string]any `json:"schema,omitempty"`
	Prompt string         `json:"prompt,omitempty"`
}

// Metadata is the subset of page metadata the service returns that we use.
type Metadata struct {
	Title      string `json:"title"`
	SourceURL  string `json:"sourceURL"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
}

// ScrapeResult is the data section of a successful scrape.
type ScrapeResult struct {
	Markdown string          `json:"markdown"`
	JSON     json.RawMessage `json:"json"`
	Metadata Metadata        `json:"metadata"`
}

type scrapeResponse struct {
	Success bool         `json:"success"`
	Data    ScrapeResult `json:"data"`
	Error   string       `json:"error"`
}

// Client talks to a Firecrawl-compatible content-extraction service.
type Client struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	retry    httpfetch.RetryPolicy
}

// NewClient creates a reusable client. Zero values fall back to defaults;
// maxRetries applies to 408/429/5xx and transport failures only.
func NewClient(endpoint, apiKey string, timeout time.Duration, maxRetries int) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
		retry:    httpfetch.DefaultRetryPolicy(maxRetries),
	}
}

// WithRetryPolicy replaces the retry policy.
func (c *Client) WithRetryPolicy(p httpfetch.RetryPolicy) *Client {
	c.retry = p
	return c
}

// ScrapeMarkdown returns the main content of pageURL as markdown.
func (c *Client) ScrapeMarkdown(ctx context.Context, pageURL string) (ScrapeResult, error) {
	return c.Scrape(ctx, ScrapeRequest{
		URL:             pageURL,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
}

// ScrapeJSON runs structured extraction of pageURL against schema.
func (c *Client) ScrapeJSON(ctx context.Context, pageURL string, schema map[string]any, prompt string) (ScrapeResult, error) {
	return c.Scrape(ctx, ScrapeRequest{
		URL:         pageURL,
		Formats:     []string{"json"},
		JSONOptions: &JSONOptions{Schema: schema, Prompt: prompt},
	})
}

// Scrape posts req and returns the data section of the response.
func (c *Client) Scrape(ctx context.Context, req ScrapeRequest) (ScrapeResult, error) {
	if req.Timeout == 0 {
		req.Timeout = int(c.timeout / time.Millisecond)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("marshal payload: %w", err)
	}

	var resp scrapeResponse
	err = c.retry.Do(ctx, func() error {
		resp = scrapeResponse{}
		return c.post(ctx, body, &resp)
	})
	if err != nil {
		return ScrapeResult{}, err
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "request reported success=false"
		}
		return ScrapeResult{}, fmt.Errorf("extraction service: %s", msg)
	}
	return resp.Data, nil
}

func (c *Client) post(ctx context.Context, body []byte, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &domain.NetworkError{URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &domain.NetworkError{URL: c.endpoint, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		netErr := &domain.NetworkError{URL: c.endpoint, StatusCode: resp.StatusCode}
		var failure scrapeResponse
		if json.Unmarshal(raw, &failure) == nil && failure.Error != "" {
			netErr.Err = errors.New(failure.Error)
		}
		return netErr
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return &domain.FormatError{What: "extraction service response", Err: err}
	}
	return nil
}
