package flaticon

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// DefaultCount is the number of icon elements inspected when no count is given.
const DefaultCount = 9

// SearchOptions combines the URL filters with the result cap.
type SearchOptions struct {
	Filters
	// Count caps the number of icon elements inspected. Zero means DefaultCount.
	Count int
}

// Client searches flaticon.com. It holds no per-call state and is safe for
// concurrent use.
type Client struct {
	baseURL string
	fetcher Fetcher
	markup  Markup
	logger  *zap.Logger
}

type Option func(*Client)

func WithFetcher(f Fetcher) Option {
	return func(c *Client) { c.fetcher = f }
}

// WithHTTPClient makes the client fetch through hc with an HTTPFetcher.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.fetcher = NewHTTPFetcher(hc) }
}

func WithMarkup(m Markup) Option {
	return func(c *Client) { c.markup = m }
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient applies opts over the defaults and fails if the resulting
// markup rules are unusable.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: DefaultSearchURL,
		markup:  DefaultMarkup(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = NewHTTPFetcher(nil)
	}
	if err := c.markup.Validate(); err != nil {
		return nil, fmt.Errorf("invalid markup: %w", err)
	}
	return c, nil
}

// SearchURL builds the search page URL against the client's base URL.
func (c *Client) SearchURL(query string, f Filters) string {
	return buildSearchURL(c.baseURL, query, f)
}

// Search looks up query and returns at most opts.Count icons, or nil when
// the site has no results for it.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]Icon, error) {
	count := opts.Count
	if count == 0 {
		count = DefaultCount
	}
	return c.FetchAndExtract(ctx, c.SearchURL(query, opts.Filters), count)
}

// FetchAndExtract downloads url and extracts icons from the first maxCount
// icon elements. Transport errors are returned as is.
func (c *Client) FetchAndExtract(ctx context.Context, url string, maxCount int) ([]Icon, error) {
	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	icons, err := Extract(doc, c.markup, maxCount)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("search page parsed",
		zap.String("url", url),
		zap.Int("max_count", maxCount),
		zap.Int("icons", len(icons)))
	return icons, nil
}

var defaultClient = &Client{
	baseURL: DefaultSearchURL,
	fetcher: NewHTTPFetcher(nil),
	markup:  DefaultMarkup(),
	logger:  zap.NewNop(),
}

// Search runs a search with a client using the default settings.
func Search(ctx context.Context, query string, opts SearchOptions) ([]Icon, error) {
	return defaultClient.Search(ctx, query, opts)
}
