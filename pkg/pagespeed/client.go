// Package pagespeed provides a PageSpeed Insights client for the performance
// probe.
package pagespeed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/presence-cli/internal/resilience"
)

const defaultBaseURL = "https://www.googleapis.com/pagespeedonline/v5"

// Client runs PageSpeed analyses.
type Client interface {
	Analyze(ctx context.Context, targetURL string) (*Result, error)
}

// Result holds the timing metrics the assessment consumes, extracted from
// the lighthouse document.
type Result struct {
	PerformanceScore float64 `json:"performance_score"` // 0-100
	FCPMs            float64 `json:"first_contentful_paint_ms"`
	LCPMs            float64 `json:"largest_contentful_paint_ms"`
	CLS              float64 `json:"cumulative_layout_shift"`
	SpeedIndexMs     float64 `json:"speed_index_ms"`
	TTIMs            float64 `json:"time_to_interactive_ms"`
}

// statusError carries the HTTP status for retry decisions.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return "pagespeed: status " + http.StatusText(e.code) + ": " + e.body
}

// retryable treats rate limiting and server errors as transient.
func retryable(err error) bool {
	var se *statusError
	if eris.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// Network-level errors are worth one more try.
	return true
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
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewClient creates a PageSpeed Insights client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(1, 1), // PSI free tier is tight
		retry:   resilience.DefaultPolicy(),
	}
	c.retry.Retryable = retryable
	for _, o := range opts {
		o(c)
	}
	return c
}

// lighthouseDoc mirrors the slice of the PSI response we read.
type lighthouseDoc struct {
	LighthouseResult struct {
		Categories struct {
			Performance struct {
				Score float64 `json:"score"` // 0-1
			} `json:"performance"`
		} `json:"categories"`
		Audits map[string]struct {
			NumericValue float64 `json:"numericValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
}

// Analyze runs a mobile PageSpeed analysis with bounded retries.
func (c *httpClient) Analyze(ctx context.Context, targetURL string) (*Result, error) {
	return resilience.Retry(ctx, c.retry, "pagespeed.analyze", func(ctx context.Context) (*Result, error) {
		return c.analyzeOnce(ctx, targetURL)
	})
}

func (c *httpClient) analyzeOnce(ctx context.Context, targetURL string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "pagespeed: rate limit wait")
	}

	q := url.Values{}
	q.Set("url", targetURL)
	q.Set("strategy", "mobile")
	q.Set("category", "performance")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/runPagespeed?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pagespeed: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pagespeed: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &statusError{code: resp.StatusCode, body: string(data)}
	}

	var doc lighthouseDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "pagespeed: decode response")
	}

	audits := doc.LighthouseResult.Audits
	return &Result{
		PerformanceScore: doc.LighthouseResult.Categories.Performance.Score * 100,
		FCPMs:            audits["first-contentful-paint"].NumericValue,
		LCPMs:            audits["largest-contentful-paint"].NumericValue,
		CLS:              audits["cumulative-layout-shift"].NumericValue,
		SpeedIndexMs:     audits["speed-index"].NumericValue,
		TTIMs:            audits["interactive"].NumericValue,
	}, nil
}
