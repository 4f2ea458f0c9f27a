// Package urlrank provides an Open PageRank client for the domain authority
// probe.
package urlrank

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-cli/internal/resilience"
)

const defaultBaseURL = "https://openpagerank.com/api/v1.0"

// Client fetches domain authority metrics.
type Client interface {
	DomainRank(ctx context.Context, domain string) (*Rank, error)
}

// Rank holds the authority metrics for one domain.
type Rank struct {
	Domain          string  `json:"domain"`
	PageRank        float64 `json:"page_rank"`        // 0-10 decimal
	DomainAuthority float64 `json:"domain_authority"` // 0-100, derived
	GlobalRank      int64   `json:"global_rank"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) { c.retry = p }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.Policy
}

// NewClient creates an Open PageRank client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		retry:   resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type rankResponse struct {
	Response []struct {
		Domain        string  `json:"domain"`
		PageRankValue float64 `json:"page_rank_decimal"`
		Rank          string  `json:"rank"`
		StatusCode    int     `json:"status_code"`
	} `json:"response"`
}

// DomainRank looks up the page rank for a single domain.
func (c *httpClient) DomainRank(ctx context.Context, domain string) (*Rank, error) {
	return resilience.Retry(ctx, c.retry, "urlrank.domain_rank", func(ctx context.Context) (*Rank, error) {
		return c.rankOnce(ctx, domain)
	})
}

func (c *httpClient) rankOnce(ctx context.Context, domain string) (*Rank, error) {
	q := url.Values{}
	q.Set("domains[]", domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/getPageRank?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "urlrank: build request")
	}
	req.Header.Set("API-OPR", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "urlrank: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, eris.Errorf("urlrank: status %d: %s", resp.StatusCode, string(data))
	}

	var out rankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "urlrank: decode response")
	}
	if len(out.Response) == 0 {
		return nil, eris.Errorf("urlrank: no result for domain %s", domain)
	}

	entry := out.Response[0]
	if entry.StatusCode != http.StatusOK {
		// Unranked domains come back per-entry, not as an HTTP error.
		return &Rank{Domain: domain}, nil
	}

	return &Rank{
		Domain:          entry.Domain,
		PageRank:        entry.PageRankValue,
		DomainAuthority: entry.PageRankValue * 10,
	}, nil
}
