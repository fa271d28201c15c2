// Package discogs is a thin client for the Discogs database and marketplace
// API: release search, full release details, and price statistics.
package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/crate-scout/vinyl-cli/internal/resilience"
)

const (
	defaultBaseURL   = "https://api.discogs.com"
	defaultUserAgent = "vinyl-cli/1.0 +https://github.com/crate-scout/vinyl-cli"
)

// Client performs Discogs API calls.
type Client interface {
	SearchReleases(ctx context.Context, req SearchRequest) ([]SearchResult, error)
	Release(ctx context.Context, id int64) (*Release, error)
	PriceSuggestions(ctx context.Context, id int64) (PriceSuggestions, error)
	MarketplaceStats(ctx context.Context, id int64) (*MarketplaceStats, error)
}

// SearchRequest holds database search parameters. Artist and title are
// required by callers; catalogue number narrows the candidate set.
type SearchRequest struct {
	Artist          string
	ReleaseTitle    string
	CatalogueNumber string
	PerPage         int
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit overrides the default request rate.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *httpClient) { c.limiter = l }
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a Discogs client authenticated with a personal token.
// Requests are rate limited to match the authenticated quota of 60/min.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchReleases(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("type", "release")
	if req.Artist != "" {
		q.Set("artist", req.Artist)
	}
	if req.ReleaseTitle != "" {
		q.Set("release_title", req.ReleaseTitle)
	}
	if req.CatalogueNumber != "" {
		q.Set("catno", req.CatalogueNumber)
	}
	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	q.Set("per_page", strconv.Itoa(perPage))

	var resp searchResponse
	if err := c.get(ctx, "/database/search?"+q.Encode(), &resp); err != nil {
		return nil, eris.Wrap(err, "discogs: search releases")
	}
	return resp.Results, nil
}

func (c *httpClient) Release(ctx context.Context, id int64) (*Release, error) {
	var rel Release
	if err := c.get(ctx, fmt.Sprintf("/releases/%d", id), &rel); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "discogs: release %d", id)
	}
	return &rel, nil
}

func (c *httpClient) PriceSuggestions(ctx context.Context, id int64) (PriceSuggestions, error) {
	var ps PriceSuggestions
	if err := c.get(ctx, fmt.Sprintf("/marketplace/price_suggestions/%d", id), &ps); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "discogs: price suggestions %d", id)
	}
	return ps, nil
}

func (c *httpClient) MarketplaceStats(ctx context.Context, id int64) (*MarketplaceStats, error) {
	var stats MarketplaceStats
	if err := c.get(ctx, fmt.Sprintf("/marketplace/stats/%d", id), &stats); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "discogs: marketplace stats %d", id)
	}
	return &stats, nil
}

// get performs one rate-limited, retried GET and decodes the JSON body.
func (c *httpClient) get(ctx context.Context, path string, out any) error {
	return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return eris.Wrap(err, "create request")
		}
		req.Header.Set("User-Agent", defaultUserAgent)
		if c.token != "" {
			req.Header.Set("Authorization", "Discogs token="+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			err := eris.Errorf("status %d: %s", resp.StatusCode, string(body))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return resilience.NewTransientError(err, resp.StatusCode)
			}
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return eris.Wrap(err, "decode response")
		}
		return nil
	})
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "status 404")
}
