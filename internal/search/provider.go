// Package search wraps the Google Custom Search API. Without credentials it
// produces clearly-labeled simulated results so the rest of the pipeline can run
// in development and tests.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Quota policies for 403 responses from the upstream API.
const (
	QuotaPolicyFail    = "fail"
	QuotaPolicyDegrade = "degrade"
)

// SourceSimulation labels results fabricated in place of a real API call.
const SourceSimulation = "simulation"

// SourceGoogle labels results returned by the real API.
const SourceGoogle = "google"

const defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

// ErrUpstream marks hard provider failures. Handlers map it to 502.
var ErrUpstream = errors.New("search upstream failure")

// Result is one hit as returned by the provider, not yet tied to a cron.
type Result struct {
	Title      string
	Summary    string
	URL        string
	Source     string
	SearchDate time.Time
}

// Config controls one Provider instance.
type Config struct {
	APIKey string
	CX     string

	// QuotaPolicy decides what a 403 from the API does: QuotaPolicyFail returns
	// ErrUpstream, QuotaPolicyDegrade substitutes simulated results.
	QuotaPolicy string

	// SimResultCount is how many placeholder results simulation mode yields (default 5).
	SimResultCount int

	// PageSize is the num parameter sent to the API (default 10).
	PageSize int

	// Endpoint overrides the API URL, for tests.
	Endpoint string
}

// Provider performs single-attempt keyword searches. It does not retry.
type Provider struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
}

// NewProvider returns a Provider. logger may be nil.
func NewProvider(cfg Config, logger *slog.Logger) *Provider {
	if cfg.SimResultCount <= 0 {
		cfg.SimResultCount = 5
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.QuotaPolicy == "" {
		cfg.QuotaPolicy = QuotaPolicyFail
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    logger,
	}
}

// Configured reports whether real API credentials are present.
func (p *Provider) Configured() bool {
	return p.cfg.APIKey != "" && p.cfg.CX != ""
}

// Search runs one query. query may be a comma-separated keyword list. Without
// credentials it returns simulated results and never fails. A 403 from the API
// is handled per the quota policy; any other failure is ErrUpstream.
func (p *Provider) Search(ctx context.Context, query string) ([]Result, error) {
	if !p.Configured() {
		p.log.Warn("search API not configured, using simulation mode", "query", query)
		return p.simulate(query), nil
	}

	u, err := url.Parse(p.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint: %v", ErrUpstream, err)
	}
	q := u.Query()
	q.Set("key", p.cfg.APIKey)
	q.Set("cx", p.cfg.CX)
	q.Set("q", query)
	q.Set("num", fmt.Sprint(p.cfg.PageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		// Quota exhausted or misconfigured credentials. Recoverable per policy.
		if p.cfg.QuotaPolicy == QuotaPolicyDegrade {
			p.log.Warn("search API returned 403, degrading to simulated results", "query", query)
			return p.simulate(query), nil
		}
		return nil, fmt.Errorf("%w: status 403 (quota or credentials)", ErrUpstream)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body struct {
		Items []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	now := time.Now()
	results := make([]Result, 0, len(body.Items))
	for _, item := range body.Items {
		results = append(results, Result{
			Title:      item.Title,
			Summary:    item.Snippet,
			URL:        item.Link,
			Source:     SourceGoogle,
			SearchDate: now,
		})
	}
	p.log.Info("search completed", "query", query, "results", len(results))
	return results, nil
}

// simulate fabricates deterministic placeholder results, cycling through the
// comma-separated keywords to vary the titles.
func (p *Provider) simulate(query string) []Result {
	var keywords []string
	for _, k := range strings.Split(query, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		keywords = []string{"search"}
	}

	now := time.Now()
	results := make([]Result, 0, p.cfg.SimResultCount)
	for i := 1; i <= p.cfg.SimResultCount; i++ {
		keyword := keywords[i%len(keywords)]
		results = append(results, Result{
			Title:      fmt.Sprintf("Simulated result %d for %q", i, keyword),
			Summary:    fmt.Sprintf("Placeholder summary for the query %q. Generated because the search API is not configured or reachable.", query),
			URL:        fmt.Sprintf("https://example.com/mock-result-%d", i),
			Source:     SourceSimulation,
			SearchDate: now,
		})
	}
	return results
}
