package flaticon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vscodePage = `
      <ul>
        <li class="icon--item" data-png="http://example.com/image.png" data-name="VSCode Icon" data-downloads="150" data-pack_name="Dev Pack"></li>
      </ul>`

type recordedRequest struct {
	userAgent string
	accept    string
	cookie    string
	query     string
	path      string
}

func newSite(t *testing.T, status int, contentType, body string) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		reqs = append(reqs, recordedRequest{
			userAgent: r.Header.Get("User-Agent"),
			accept:    r.Header.Get("Accept"),
			cookie:    r.Header.Get("Cookie"),
			query:     r.URL.RawQuery,
			path:      r.URL.Path,
		})
		mu.Unlock()
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(opts...)
	require.NoError(t, err)
	return c
}

func fetchers(hc *http.Client) map[string]Fetcher {
	return map[string]Fetcher{
		"http":  NewHTTPFetcher(hc),
		"colly": NewCollyFetcher(hc),
	}
}

func TestClient_Search(t *testing.T) {
	for name, f := range fetchers(nil) {
		t.Run(name, func(t *testing.T) {
			srv, requests := newSite(t, http.StatusOK, "text/html; charset=utf-8", vscodePage)
			c := newTestClient(t, WithFetcher(f), WithBaseURL(srv.URL+"/search"))

			icons, err := c.Search(context.Background(), "vscode", SearchOptions{
				Filters: Filters{Shape: ShapeHandDrawn, OrderBy: OrderPopular},
				Count:   1,
			})
			require.NoError(t, err)
			assert.Equal(t, []Icon{{
				ID:        "image",
				Name:      "VSCode Icon",
				URL:       "http://example.com/image.png",
				Downloads: 150,
				Pack:      "Dev Pack",
			}}, icons)

			reqs := requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, "/search", reqs[0].path)
			assert.Equal(t, "word=vscode&shape=hand-drawn&order_by=4", reqs[0].query)
			assert.Equal(t, UserAgent, reqs[0].userAgent)
			assert.Empty(t, reqs[0].accept)
			assert.Empty(t, reqs[0].cookie)
		})
	}
}

func TestClient_SearchDefaultCount(t *testing.T) {
	var b strings.Builder
	b.WriteString("<ul>")
	for range 12 {
		b.WriteString(`<li class="icon--item" data-png="http://example.com/i.png"></li>`)
	}
	b.WriteString("</ul>")
	srv, _ := newSite(t, http.StatusOK, "text/html", b.String())

	c := newTestClient(t, WithBaseURL(srv.URL))
	icons, err := c.Search(context.Background(), "i", SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, icons, DefaultCount)
}

func TestClient_FetchAndExtractNoResults(t *testing.T) {
	for name, f := range fetchers(nil) {
		t.Run(name, func(t *testing.T) {
			srv, _ := newSite(t, http.StatusOK, "text/html", `<div id="alternative-search"></div>`)
			c := newTestClient(t, WithFetcher(f))

			icons, err := c.FetchAndExtract(context.Background(), srv.URL, 1)
			require.NoError(t, err)
			assert.Nil(t, icons)
		})
	}
}

func TestClient_ErrorStatusBodyIsParsed(t *testing.T) {
	for name, f := range fetchers(nil) {
		t.Run(name, func(t *testing.T) {
			srv, _ := newSite(t, http.StatusNotFound, "text/html", vscodePage)
			c := newTestClient(t, WithFetcher(f))

			icons, err := c.FetchAndExtract(context.Background(), srv.URL, 9)
			require.NoError(t, err)
			require.Len(t, icons, 1)
			assert.Equal(t, "VSCode Icon", icons[0].Name)
		})
	}
}

func TestClient_TransportErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	for name, f := range fetchers(nil) {
		t.Run(name, func(t *testing.T) {
			icons, err := newTestClient(t, WithFetcher(f)).FetchAndExtract(context.Background(), addr, 9)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrParseIcon)
			assert.Nil(t, icons)
		})
	}
}

func TestClient_CanceledContext(t *testing.T) {
	srv, _ := newSite(t, http.StatusOK, "text/html", vscodePage)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, f := range fetchers(nil) {
		t.Run(name, func(t *testing.T) {
			_, err := newTestClient(t, WithFetcher(f)).FetchAndExtract(ctx, srv.URL, 9)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestClient_DecodesCharset(t *testing.T) {
	// "Caf\xe9" is Latin-1 for "Café".
	page := "<ul><li class=\"icon--item\" data-png=\"http://example.com/cafe.png\" data-name=\"Caf\xe9\"></li></ul>"
	srv, _ := newSite(t, http.StatusOK, "text/html; charset=iso-8859-1", page)

	for name, f := range fetchers(nil) {
		t.Run(name, func(t *testing.T) {
			icons, err := newTestClient(t, WithFetcher(f)).FetchAndExtract(context.Background(), srv.URL, 9)
			require.NoError(t, err)
			require.Len(t, icons, 1)
			assert.Equal(t, "Café", icons[0].Name)
		})
	}
}

func TestClient_MalformedIconFailsWholeCall(t *testing.T) {
	srv, _ := newSite(t, http.StatusOK, "text/html", `<ul>
		<li class="icon--item" data-png="http://example.com/ok.png"></li>
		<li class="icon--item" data-png="http://example.com/a&#9;b.png"></li>
	</ul>`)

	icons, err := newTestClient(t).FetchAndExtract(context.Background(), srv.URL, 9)
	assert.ErrorIs(t, err, ErrParseIcon)
	assert.Nil(t, icons)
}

func TestClient_SearchURL(t *testing.T) {
	c := newTestClient(t)
	assert.Equal(t, BuildSearchURL("icon", Filters{Craft: true}), c.SearchURL("icon", Filters{Craft: true}))

	c = newTestClient(t, WithBaseURL("http://localhost:9999/search"))
	assert.Equal(t, "http://localhost:9999/search?word=icon&shape=outline", c.SearchURL("icon", Filters{Shape: ShapeOutline}))
}

func TestClient_ReadsWholeBody(t *testing.T) {
	// Larger than colly's default body limit, with the only icon at the end.
	page := "<div>" + strings.Repeat("<p>filler</p>", (11<<20)/13) + "</div>" +
		`<ul><li class="icon--item" data-png="http://example.com/late.png"></li></ul>`
	srv, requests := newSite(t, http.StatusOK, "text/html; charset=utf-8", page)

	for name, f := range fetchers(nil) {
		t.Run(name, func(t *testing.T) {
			icons, err := newTestClient(t, WithFetcher(f)).FetchAndExtract(context.Background(), srv.URL, 9)
			require.NoError(t, err)
			require.Len(t, icons, 1)
			assert.Equal(t, "late", icons[0].ID)
		})
	}

	for _, r := range requests() {
		assert.Equal(t, UserAgent, r.userAgent)
		assert.Empty(t, r.accept)
	}
}

func TestNewClient_InvalidMarkup(t *testing.T) {
	m := DefaultMarkup()
	m.ItemSelector = "li["

	c, err := NewClient(WithMarkup(m))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid markup")
	assert.Nil(t, c)
}

func TestSearch_UsesDefaultClient(t *testing.T) {
	srv, requests := newSite(t, http.StatusOK, "text/html", vscodePage)

	orig := defaultClient
	defaultClient = newTestClient(t, WithBaseURL(srv.URL+"/search"))
	t.Cleanup(func() { defaultClient = orig })

	icons, err := Search(context.Background(), "vscode", SearchOptions{Filters: Filters{Craft: true}})
	require.NoError(t, err)
	require.Len(t, icons, 1)
	assert.Equal(t, "image", icons[0].ID)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "word=vscode&craft=1", reqs[0].query)
}

func TestDefaultClient_Settings(t *testing.T) {
	assert.Equal(t, DefaultSearchURL, defaultClient.baseURL)
	assert.Equal(t, DefaultMarkup(), defaultClient.markup)
	assert.NoError(t, defaultClient.markup.Validate())
}
