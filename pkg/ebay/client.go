// Package ebay is a thin client for the eBay Browse API, used as a
// supplementary comps source: it contributes provenance and context, never
// authoritative fields.
package ebay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/crate-scout/vinyl-cli/internal/resilience"
)

const (
	defaultBaseURL = "https://api.ebay.com/buy/browse/v1"
	// Vinyl records category on eBay.
	vinylCategoryID = "176985"
)

// Client searches eBay listings.
type Client interface {
	SearchListings(ctx context.Context, query string, limit int) ([]ItemSummary, error)
}

// ItemSummary is one listing from item_summary/search.
type ItemSummary struct {
	ItemID    string `json:"itemId"`
	Title     string `json:"title"`
	Condition string `json:"condition"`
	Price     Amount `json:"price"`
	ItemWebURL string `json:"itemWebUrl"`
}

// Amount is a money value; eBay sends the value as a string.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Float returns the numeric value, or 0 when unparseable.
func (a Amount) Float() float64 {
	v, err := strconv.ParseFloat(a.Value, 64)
	if err != nil {
		return 0
	}
	return v
}

type searchResponse struct {
	ItemSummaries []ItemSummary `json:"itemSummaries"`
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

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates an eBay Browse client. The caller supplies an OAuth
// application token; token refresh is out of scope here.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchListings(ctx context.Context, query string, limit int) ([]ItemSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("category_ids", vinylCategoryID)
	q.Set("limit", strconv.Itoa(limit))

	var resp searchResponse
	err := resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/item_summary/search?"+q.Encode(), nil)
		if err != nil {
			return eris.Wrap(err, "create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		httpResp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer httpResp.Body.Close()

		if httpResp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
			err := eris.Errorf("status %d: %s", httpResp.StatusCode, string(body))
			if resilience.IsTransientHTTPStatus(httpResp.StatusCode) {
				return resilience.NewTransientError(err, httpResp.StatusCode)
			}
			return err
		}
		return json.NewDecoder(httpResp.Body).Decode(&resp)
	})
	if err != nil {
		return nil, eris.Wrap(err, "ebay: search listings")
	}
	return resp.ItemSummaries, nil
}
