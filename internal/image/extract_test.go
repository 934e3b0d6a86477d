package image

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/headlinegroups/internal/ratelimit"
)

func doc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestFromDocument_OpenGraph(t *testing.T) {
	page := `<html><head>
<meta property="og:image" content="/a.jpg">
<meta property="og:title" content="Foo">
</head><body></body></html>`
	res, ok := FromDocument(doc(t, page), mustURL(t, "https://x.com/art"))
	if !ok {
		t.Fatal("expected an image")
	}
	if res.URL != "https://x.com/a.jpg" || res.Alt != "Foo" {
		t.Errorf("got %+v", res)
	}
}

func TestFromDocument_TwitterWhenNoOpenGraph(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="Foo">
<meta name="twitter:image" content="https://x.com/media/tw.png">
<meta name="twitter:title" content="Tweet title">
</head></html>`
	res, ok := FromDocument(doc(t, page), mustURL(t, "https://x.com/art"))
	if !ok {
		t.Fatal("expected an image")
	}
	if res.URL != "https://x.com/media/tw.png" || res.Alt != "Tweet title" {
		t.Errorf("got %+v", res)
	}
}

func TestFromDocument_TwitterPropertyConvention(t *testing.T) {
	page := `<meta property="twitter:image" content="https://x.com/photos/p.webp">`
	res, ok := FromDocument(doc(t, page), mustURL(t, "https://x.com/art"))
	if !ok || res.URL != "https://x.com/photos/p.webp" || res.Alt != DefaultAlt {
		t.Errorf("got %+v, %v", res, ok)
	}
}

func TestFromDocument_InvalidOpenGraphFallsThrough(t *testing.T) {
	page := `<html><head>
<meta property="og:image" content="https://x.com/static/logo.png">
<meta name="twitter:image" content="https://x.com/media/story.jpg">
</head></html>`
	res, ok := FromDocument(doc(t, page), mustURL(t, "https://x.com/art"))
	if !ok || res.URL != "https://x.com/media/story.jpg" {
		t.Errorf("expected twitter image after rejected og:image, got %+v", res)
	}
}

func TestFromDocument_LinkedData(t *testing.T) {
	cases := map[string]string{
		"string": `{"@type":"NewsArticle","headline":"LD headline","image":"https://x.com/ld/a.jpg"}`,
		"object": `{"@type":"NewsArticle","headline":"LD headline","image":{"@type":"ImageObject","url":"https://x.com/ld/a.jpg"}}`,
		"list":   `[{"@type":"NewsArticle","headline":"LD headline","image":[{"url":""},"https://x.com/ld/a.jpg"]}]`,
	}
	for name, ld := range cases {
		t.Run(name, func(t *testing.T) {
			page := `<html><head><script type="application/ld+json">` + ld + `</script></head></html>`
			res, ok := FromDocument(doc(t, page), mustURL(t, "https://x.com/art"))
			if !ok {
				t.Fatal("expected an image")
			}
			if res.URL != "https://x.com/ld/a.jpg" || res.Alt != "LD headline" {
				t.Errorf("got %+v", res)
			}
		})
	}
}

func TestFromDocument_LinkedDataSkipsBrokenBlocks(t *testing.T) {
	page := `<script type="application/ld+json">{not json</script>
<script type="application/ld+json">{"name":"Org","image":"/ld/b.png"}</script>`
	res, ok := FromDocument(doc(t, page), mustURL(t, "https://x.com/art"))
	if !ok || res.URL != "https://x.com/ld/b.png" || res.Alt != "Org" {
		t.Errorf("got %+v, %v", res, ok)
	}
}

func TestFromDocument_HeroSelector(t *testing.T) {
	page := `<body>
<div class="hero"><img src="/h/short.jpg" alt="x"></div>
<div class="featured-image"><img src="/h/feature.jpg" alt="Crowds gather downtown"></div>
</body>`
	res, ok := FromDocument(doc(t, page), mustURL(t, "https://x.com/news/art"))
	if !ok || res.URL != "https://x.com/h/feature.jpg" || res.Alt != "Crowds gather downtown" {
		t.Errorf("got %+v, %v", res, ok)
	}
}

func TestFromDocument_ImageScan(t *testing.T) {
	page := `<body>
<img src="/s/pixel.gif" alt="tracking pixel">
<img src="/s/share.png" alt="Share on Facebook">
<img src="/s/nope.jpg" alt="tiny">
<img src="/s/river.jpg" alt="Flooded river banks at dawn">
</body>`
	res, ok := FromDocument(doc(t, page), mustURL(t, "https://x.com/a"))
	if !ok || res.URL != "https://x.com/s/river.jpg" {
		t.Errorf("got %+v, %v", res, ok)
	}
}

func TestFromDocument_ImageScanStopsAfterTen(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString(`<img src="/s/icon.png" alt="site icon here">`)
	}
	b.WriteString(`<img src="/s/river.jpg" alt="Flooded river banks at dawn">`)
	if res, ok := FromDocument(doc(t, b.String()), mustURL(t, "https://x.com/a")); ok {
		t.Errorf("expected nothing past the first ten images, got %+v", res)
	}
}

func TestFromDocument_Nothing(t *testing.T) {
	if _, ok := FromDocument(doc(t, `<p>text only</p>`), mustURL(t, "https://x.com/a")); ok {
		t.Error("expected no image")
	}
}

func TestHTTPExtractor_Extract(t *testing.T) {
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.UserAgent())
		switch r.URL.Path {
		case "/art":
			w.Write([]byte(`<meta property="og:image" content="/media/a.jpg"><meta property="og:title" content="Foo">`))
		case "/empty":
			w.Write([]byte(`<p>nothing</p>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ex := NewHTTPExtractor(time.Second, "", nil)
	defer ex.Close()

	res, err := ex.Extract(context.Background(), srv.URL+"/art")
	if err != nil {
		t.Fatal(err)
	}
	if res.URL != srv.URL+"/media/a.jpg" || res.Alt != "Foo" || res.SourceURL != srv.URL+"/art" {
		t.Errorf("got %+v", res)
	}
	if got := ua.Load(); got != DefaultUserAgent {
		t.Errorf("User-Agent = %v", got)
	}

	_, err = ex.Extract(context.Background(), srv.URL+"/empty")
	if Kind(err) != KindNoImage {
		t.Errorf("kind = %s (%v), want %s", Kind(err), err, KindNoImage)
	}

	_, err = ex.Extract(context.Background(), srv.URL+"/missing")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound || Kind(err) != KindHTTP {
		t.Errorf("expected 404 status error, got %v", err)
	}

	_, err = ex.Extract(context.Background(), "not a url")
	if Kind(err) != KindInvalidURL {
		t.Errorf("kind = %s, want %s", Kind(err), KindInvalidURL)
	}
}

func TestHTTPExtractor_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ex := NewHTTPExtractor(50*time.Millisecond, "", nil)
	defer ex.Close()

	_, err := ex.Extract(context.Background(), srv.URL)
	if Kind(err) != KindTimeout {
		t.Errorf("kind = %s (%v), want %s", Kind(err), err, KindTimeout)
	}
}

func TestHTTPExtractor_MemoAndBudget(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`<meta property="og:image" content="/media/a.jpg">`))
	}))
	defer srv.Close()

	ex := NewHTTPExtractor(time.Second, "", ratelimit.NewFetchBudget(1))
	defer ex.Close()

	for i := 0; i < 3; i++ {
		if _, err := ex.Extract(context.Background(), srv.URL+"/one"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("expected memoised fetch, server saw %d", n)
	}

	_, err := ex.Extract(context.Background(), srv.URL+"/two")
	if Kind(err) != KindBudget {
		t.Errorf("kind = %s (%v), want %s", Kind(err), err, KindBudget)
	}
}
