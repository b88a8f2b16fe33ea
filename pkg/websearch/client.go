// Package websearch provides the web-search client used to seed a run
// with candidate URLs.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/persona-cli/internal/resilience"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Client performs web searches.
type Client interface {
	Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error)
}

// SearchOption configures a single search call.
type SearchOption func(*searchOpts)

type searchOpts struct {
	siteFilter string
	maxResults int
}

// WithSiteFilter restricts results to one domain.
func WithSiteFilter(domain string) SearchOption {
	return func(o *searchOpts) {
		o.siteFilter = domain
	}
}

// WithMaxResults caps the number of returned results.
func WithMaxResults(n int) SearchOption {
	return func(o *searchOpts) {
		o.maxResults = n
	}
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the search endpoint (for testing).
func WithBaseURL(baseURL string) Option {
	return func(c *httpClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient builds a search client against the Jina-compatible search
// endpoint.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://s.jina.ai",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			OnRetry:        resilience.RetryLogger("websearch", "search"),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse is the wire shape of the search endpoint.
type searchResponse struct {
	Code int `json:"code"`
	Data []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Content     string `json:"content"`
	} `json:"data"`
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	so := &searchOpts{}
	for _, opt := range opts {
		opt(so)
	}

	reqURL := fmt.Sprintf("%s/%s", c.baseURL, url.QueryEscape(query))
	if so.siteFilter != "" {
		reqURL += "?site=" + url.QueryEscape(so.siteFilter)
	}

	body, status, err := c.retryDo(ctx, reqURL)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: request failed")
	}

	// The endpoint answers 422 when a query has no results. Empty, not
	// an error.
	if status == http.StatusUnprocessableEntity {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("websearch: unexpected status %d: %s", status, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "websearch: unmarshal response")
	}

	results := make([]Result, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		snippet := d.Description
		if snippet == "" {
			snippet = d.Content
		}
		results = append(results, Result{Title: d.Title, URL: d.URL, Snippet: snippet})
	}
	if so.maxResults > 0 && len(results) > so.maxResults {
		results = results[:so.maxResults]
	}
	return results, nil
}

type reply struct {
	body   []byte
	status int
}

// retryDo issues the GET with retries on retryable statuses. Responses
// are drained fully per attempt so the next try starts clean.
func (c *httpClient) retryDo(ctx context.Context, reqURL string) ([]byte, int, error) {
	out, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (reply, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return reply{}, eris.Wrap(err, "websearch: build request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return reply{}, resilience.NewTransientError(err, 0)
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return reply{}, eris.Wrap(readErr, "websearch: read response")
		}

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return reply{}, resilience.NewTransientError(
				eris.Errorf("websearch: status %d: %s", resp.StatusCode, string(body)),
				resp.StatusCode)
		}
		return reply{body: body, status: resp.StatusCode}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out.body, out.status, nil
}
