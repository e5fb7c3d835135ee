package flaticon

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"
)

// UserAgent is sent with every search request. The site serves a reduced
// page to clients it does not recognise as a browser.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.93 Safari/537.36"

// Fetcher retrieves a page and returns its body decoded to UTF-8.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches pages with a plain net/http client.
// Non-2xx responses are returned like any other page.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return readUTF8(resp.Body, resp.Header.Get("Content-Type"))
}

// CollyFetcher issues the same request through a colly collector.
type CollyFetcher struct {
	client *http.Client
}

func NewCollyFetcher(client *http.Client) *CollyFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &CollyFetcher{client: client}
}

func (f *CollyFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.UserAgent(UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(0),
	)
	c.SetClient(&http.Client{
		Transport:     collyTransport{ctx: ctx, base: f.client.Transport},
		CheckRedirect: f.client.CheckRedirect,
		Timeout:       f.client.Timeout,
	})

	var (
		body        []byte
		contentType string
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		contentType = r.Headers.Get("Content-Type")
	})

	if err := c.Visit(url); err != nil {
		return nil, err
	}
	// colly already converts bodies with a declared charset.
	if strings.Contains(strings.ToLower(contentType), "charset") {
		return body, nil
	}
	return readUTF8(bytes.NewReader(body), contentType)
}

// collyTransport binds every request to ctx, since colly builds its own
// requests from context.Background, and drops the Accept header colly adds
// so both fetchers send the same request.
type collyTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t collyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	out := req.Clone(t.ctx)
	out.Header.Del("Accept")
	return base.RoundTrip(out)
}

func readUTF8(r io.Reader, contentType string) ([]byte, error) {
	utf8Reader, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(utf8Reader)
}
