// Package image finds a representative picture for a topic group by probing
// its articles.
package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/deusflow/headlinegroups/internal/cache"
	"github.com/deusflow/headlinegroups/internal/logger"
	"github.com/deusflow/headlinegroups/internal/metrics"
	"github.com/deusflow/headlinegroups/internal/news"
	"github.com/deusflow/headlinegroups/internal/ratelimit"
)

const (
	DefaultTimeout   = 8 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; headlinegroups/1.0)"
	DefaultAlt       = "Article image"

	maxFallbackImages = 10
	minSelectorAlt    = 3
	maxBodyBytes      = 5 << 20
)

// heroSelectors are tried in order for featured/lead images.
var heroSelectors = []string{
	".hero img",
	".hero-image img",
	".featured-image img",
	".article-hero img",
	".lead-image img",
	"figure.lead img",
	".post-thumbnail img",
	"article header img",
	"article figure img",
	".article-body img",
	"article img",
}

// Error kinds reported for failed articles.
const (
	KindTimeout        = "Timeout"
	KindConnection     = "ConnectionError"
	KindHTTP           = "HTTPError"
	KindParse          = "ParseError"
	KindNoImage        = "NoImageFound"
	KindInvalidURL     = "InvalidURL"
	KindBudget         = "BudgetExceeded"
	KindExtractFailure = "ExtractionFailure"
)

var ErrNoImage = errors.New("no suitable image found on page")

// StatusError is a non-200 response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("HTTP error: %d", e.Code) }

type parseError struct{ err error }

func (e *parseError) Error() string { return "error parsing HTML: " + e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

type invalidURLError struct{ raw string }

func (e *invalidURLError) Error() string { return fmt.Sprintf("invalid article url %q", e.raw) }

// Kind maps an extraction error to the kind reported to callers.
func Kind(err error) string {
	var (
		se  *StatusError
		pe  *parseError
		ie  *invalidURLError
		ne  net.Error
		uer *url.Error
	)
	switch {
	case errors.Is(err, ErrNoImage):
		return KindNoImage
	case errors.Is(err, ratelimit.ErrBudgetExceeded):
		return KindBudget
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return KindTimeout
	case errors.As(err, &se):
		return KindHTTP
	case errors.As(err, &pe):
		return KindParse
	case errors.As(err, &ie):
		return KindInvalidURL
	case errors.As(err, &uer):
		return KindConnection
	}
	return KindConnection
}

// Extractor pulls a representative image out of one article page.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (news.ImageResult, error)
}

type outcome struct {
	result news.ImageResult
	err    error
}

// HTTPExtractor fetches pages over HTTP and runs the extraction cascade.
type HTTPExtractor struct {
	Client    *http.Client
	UserAgent string
	Budget    *ratelimit.FetchBudget
	memo      *cache.Cache[outcome]
}

// NewHTTPExtractor returns an extractor with the given per-request timeout.
// Results are memoised per URL for the life of the extractor.
func NewHTTPExtractor(timeout time.Duration, userAgent string, budget *ratelimit.FetchBudget) *HTTPExtractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPExtractor{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		Budget:    budget,
		memo:      cache.New[outcome](time.Hour),
	}
}

// Close releases the memo cache.
func (e *HTTPExtractor) Close() {
	e.memo.Close()
}

func (e *HTTPExtractor) Extract(ctx context.Context, pageURL string) (news.ImageResult, error) {
	if o, ok := e.memo.Get(pageURL); ok {
		return o.result, o.err
	}
	res, err := e.extract(ctx, pageURL)
	// budget refusals are not a property of the page
	if !errors.Is(err, ratelimit.ErrBudgetExceeded) && ctx.Err() == nil {
		e.memo.Set(pageURL, outcome{res, err})
	}
	return res, err
}

func (e *HTTPExtractor) extract(ctx context.Context, pageURL string) (news.ImageResult, error) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return news.ImageResult{}, &invalidURLError{raw: pageURL}
	}
	if err := e.Budget.Take(); err != nil {
		return news.ImageResult{}, err
	}
	metrics.Global.IncrementImageFetches()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return news.ImageResult{}, &invalidURLError{raw: pageURL}
	}
	req.Header.Set("User-Agent", e.UserAgent)

	resp, err := e.Client.Do(req)
	if err != nil {
		return news.ImageResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return news.ImageResult{}, &StatusError{Code: resp.StatusCode}
	}

	node, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return news.ImageResult{}, &parseError{err: err}
	}
	doc := goquery.NewDocumentFromNode(node)

	// redirects change what relative URLs resolve against
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	res, ok := FromDocument(doc, base)
	if !ok {
		return news.ImageResult{}, ErrNoImage
	}
	res.SourceURL = pageURL
	logger.Debug("image found", "page", pageURL, "image", res.URL)
	return res, nil
}

// FromDocument runs the extraction cascade on a parsed page: Open Graph,
// Twitter card, linked data, hero selectors, then a scan of plain images.
func FromDocument(doc *goquery.Document, base *url.URL) (news.ImageResult, bool) {
	steps := []func(*goquery.Document, *url.URL) (news.ImageResult, bool){
		fromOpenGraph,
		fromTwitterCard,
		fromLinkedData,
		fromHeroSelectors,
		fromImageScan,
	}
	for _, step := range steps {
		if res, ok := step(doc, base); ok {
			if res.SourceURL == "" && base != nil {
				res.SourceURL = base.String()
			}
			return res, true
		}
	}
	return news.ImageResult{}, false
}

func fromOpenGraph(doc *goquery.Document, base *url.URL) (news.ImageResult, bool) {
	u := resolve(base, metaContent(doc, `meta[property="og:image"]`))
	if !IsValidImageURL(u) {
		return news.ImageResult{}, false
	}
	return news.ImageResult{URL: u, Alt: orDefault(metaContent(doc, `meta[property="og:title"]`))}, true
}

func fromTwitterCard(doc *goquery.Document, base *url.URL) (news.ImageResult, bool) {
	raw := metaContent(doc,
		`meta[name="twitter:image"]`,
		`meta[property="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	)
	u := resolve(base, raw)
	if !IsValidImageURL(u) {
		return news.ImageResult{}, false
	}
	alt := metaContent(doc, `meta[name="twitter:title"]`, `meta[property="twitter:title"]`)
	return news.ImageResult{URL: u, Alt: orDefault(alt)}, true
}

func fromLinkedData(doc *goquery.Document, base *url.URL) (news.ImageResult, bool) {
	var res news.ImageResult
	found := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		block, err := parseLD(s.Text())
		if err != nil {
			return true
		}
		u := resolve(base, block.Image.First())
		if u == "" {
			return true
		}
		res = news.ImageResult{URL: u, Alt: orDefault(block.alt())}
		found = true
		return false
	})
	return res, found
}

func fromHeroSelectors(doc *goquery.Document, base *url.URL) (news.ImageResult, bool) {
	for _, sel := range heroSelectors {
		var res news.ImageResult
		found := false
		doc.Find(sel).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			alt := strings.TrimSpace(img.AttrOr("alt", ""))
			u := resolve(base, imgSrc(img))
			if u == "" || len(alt) <= minSelectorAlt {
				return true
			}
			res = news.ImageResult{URL: u, Alt: alt}
			found = true
			return false
		})
		if found {
			return res, true
		}
	}
	return news.ImageResult{}, false
}

func fromImageScan(doc *goquery.Document, base *url.URL) (news.ImageResult, bool) {
	var res news.ImageResult
	found := false
	seen := 0
	doc.Find("img[src][alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		alt := strings.TrimSpace(img.AttrOr("alt", ""))
		if src == "" || alt == "" {
			return true
		}
		seen++
		if isContentImage(src, alt) {
			if u := resolve(base, src); u != "" {
				res = news.ImageResult{URL: u, Alt: alt}
				found = true
				return false
			}
		}
		return seen < maxFallbackImages
	})
	return res, found
}

// metaContent returns the content attribute of the first selector that has one.
func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}

func imgSrc(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return ""
}

// resolve makes raw absolute against base. It returns "" when raw is empty
// or unparsable.
func resolve(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func orDefault(alt string) string {
	if alt = strings.TrimSpace(alt); alt != "" {
		return alt
	}
	return DefaultAlt
}
