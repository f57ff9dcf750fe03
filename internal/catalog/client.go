package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookfinder/internal/httputil"
	"github.com/lehigh-university-libraries/bookfinder/internal/models"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultUserAgent = "bookfinder/0.1 (+https://github.com/lehigh-university-libraries/bookfinder)"
)

// ErrRateLimited is returned when the lookup service keeps throttling after retries
var ErrRateLimited = errors.New("rate limited by lookup service")

// Client queries the Open Library search API
type Client struct {
	BaseURL    string
	UserAgent  string
	MaxRetries int
	httpClient *http.Client
	limiter    *httputil.RateLimiter
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMinInterval spaces consecutive requests by at least d
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.limiter = httputil.NewRateLimiter(d) }
}

// WithMaxRetries sets how many times a throttled request is retried
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.MaxRetries = n }
}

// WithUserAgent sets the User-Agent header sent with each request
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.UserAgent = ua }
}

// NewClient creates a new lookup client. An empty baseURL uses Open Library.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		UserAgent:  DefaultUserAgent,
		MaxRetries: 3,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse is the subset of the search.json payload we read
type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear *int     `json:"first_publish_year"`
	CoverI           *int     `json:"cover_i"`
}

// SearchURL builds the query URL. A category other than "all" is appended
// to the query as +subject:<category>.
func (c *Client) SearchURL(query, category string) string {
	q := url.QueryEscape(query)
	category = models.NormalizeCategory(category)
	if category != models.CategoryAll {
		q += "+subject:" + url.QueryEscape(category)
	}
	return fmt.Sprintf("%s/search.json?q=%s", c.BaseURL, q)
}

// Search runs one free-text query. No matching records yields an empty
// slice and a nil error.
func (c *Client) Search(ctx context.Context, query, category string) ([]models.BookRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchURL := c.SearchURL(query, category)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookup service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("lookup service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode lookup response: %w", err)
	}

	records := make([]models.BookRecord, 0, len(data.Docs))
	for _, doc := range data.Docs {
		records = append(records, doc.toRecord())
	}

	slog.Debug("Lookup complete", "query", query, "category", category, "num_found", data.NumFound, "docs", len(records))
	return records, nil
}

func (d searchDoc) toRecord() models.BookRecord {
	rec := models.BookRecord{
		Key:     d.Key,
		Title:   d.Title,
		Authors: d.AuthorName,
	}
	if d.FirstPublishYear != nil {
		year := *d.FirstPublishYear
		rec.FirstPublishYear = &year
	}
	if d.CoverI != nil && *d.CoverI > 0 {
		cover := *d.CoverI
		rec.CoverID = &cover
	}
	return rec
}
