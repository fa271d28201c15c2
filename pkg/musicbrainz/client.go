// Package musicbrainz is a thin client for the MusicBrainz web service,
// used as the bibliographic gap-fill source for release metadata.
package musicbrainz

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
	defaultBaseURL = "https://musicbrainz.org/ws/2"
	// MusicBrainz requires a contactable user agent and allows 1 req/s.
	defaultUserAgent = "vinyl-cli/1.0 (https://github.com/crate-scout/vinyl-cli)"
)

// Client performs MusicBrainz lookups.
type Client interface {
	SearchReleases(ctx context.Context, artist, title string, limit int) ([]Release, error)
	Release(ctx context.Context, mbid string) (*Release, error)
}

// Release is the subset of a MusicBrainz release the aggregator consumes.
type Release struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Date      string      `json:"date"`
	Country   string      `json:"country"`
	Barcode   string      `json:"barcode"`
	LabelInfo []LabelInfo `json:"label-info"`
	Media     []Media     `json:"media"`
	Artists   []Credit    `json:"artist-credit"`
}

// LabelInfo pairs a label with its catalog number.
type LabelInfo struct {
	CatalogNumber string `json:"catalog-number"`
	Label         *Label `json:"label"`
}

// Label is a record label.
type Label struct {
	Name string `json:"name"`
}

// Media is one physical medium (e.g. 12" vinyl with its tracklist).
type Media struct {
	Format string  `json:"format"`
	Tracks []Track `json:"tracks"`
}

// Track is one recording on a medium.
type Track struct {
	Title string `json:"title"`
}

// Credit is one artist credit.
type Credit struct {
	Name string `json:"name"`
}

type searchResponse struct {
	Releases []Release `json:"releases"`
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
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a MusicBrainz client. No credentials are needed; the
// service is identified by user agent and throttled to its public quota.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchReleases(ctx context.Context, artist, title string, limit int) ([]Release, error) {
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{}
	q.Set("query", fmt.Sprintf(`artist:%q AND release:%q`, artist, title))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("fmt", "json")

	var resp searchResponse
	if err := c.get(ctx, "/release/?"+q.Encode(), &resp); err != nil {
		return nil, eris.Wrap(err, "musicbrainz: search releases")
	}
	return resp.Releases, nil
}

func (c *httpClient) Release(ctx context.Context, mbid string) (*Release, error) {
	path := "/release/" + url.PathEscape(mbid) + "?inc=labels+recordings+artist-credits&fmt=json"

	var rel Release
	if err := c.get(ctx, path, &rel); err != nil {
		// Lookup misses are expected for obscure pressings.
		if strings.Contains(err.Error(), "status 404") {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "musicbrainz: release %s", mbid)
	}
	return &rel, nil
}

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
		req.Header.Set("Accept", "application/json")

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
