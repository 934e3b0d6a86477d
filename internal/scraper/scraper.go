// Package scraper collects per-source headlines from brutalist.report.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/deusflow/headlinegroups/internal/logger"
	"github.com/deusflow/headlinegroups/internal/news"
	"github.com/deusflow/headlinegroups/internal/progress"
	"github.com/deusflow/headlinegroups/internal/retry"
)

const (
	DefaultBaseURL = "https://brutalist.report"
	dateLayout     = "2006-01-02"
)

// AvailableTopics are the topic filters the site offers.
var AvailableTopics = []string{
	"tech", "news", "business", "science", "gaming", "culture", "politics", "sports",
}

// ValidTopic reports whether topic is empty (no filter) or a known topic.
func ValidTopic(topic string) bool {
	if topic == "" {
		return true
	}
	for _, t := range AvailableTopics {
		if t == topic {
			return true
		}
	}
	return false
}

var recencyLabel = regexp.MustCompile(`\[\d+h\]`)

// Scraper fetches and parses aggregator pages.
type Scraper struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
	Retry     retry.RetryConfig
	Progress  progress.Sink
	Now       func() time.Time
}

func New(baseURL string, timeout time.Duration, userAgent string, rc retry.RetryConfig, sink progress.Sink) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		Retry:     rc,
		Progress:  sink,
		Now:       time.Now,
	}
}

// PageURL builds the listing URL for an optional topic and "before" date.
func (s *Scraper) PageURL(topic, before string) string {
	u := s.BaseURL
	if topic != "" && ValidTopic(topic) {
		u += "/topic/" + topic
	}
	if before != "" {
		u += "?before=" + url.QueryEscape(before)
	}
	return u
}

// Today scrapes the current listing.
func (s *Scraper) Today(ctx context.Context, topic string) (*news.Collection, error) {
	msg := "Scraping today's content..."
	if topic != "" {
		msg = fmt.Sprintf("Scraping today's content for %s...", topic)
	}
	progress.Emit(s.Progress, progress.Event{Phase: progress.PhaseScrape, Message: msg})

	c, err := s.ScrapePage(ctx, s.PageURL(topic, ""))
	if err != nil {
		return nil, err
	}
	c.Date = s.Now().Format(dateLayout)
	c.Topic = topic
	return c, nil
}

// LastWeek scrapes the seven listings from two to eight days ago and merges
// them per source. Pages that fail are logged and skipped.
func (s *Scraper) LastWeek(ctx context.Context, topic string) (*news.Collection, error) {
	today := s.Now()
	dates := make([]string, 0, 7)
	for i := 2; i <= 8; i++ {
		dates = append(dates, today.AddDate(0, 0, -i).Format(dateLayout))
	}

	out := &news.Collection{
		Date:  fmt.Sprintf("%s to %s", dates[len(dates)-1], dates[0]),
		Topic: topic,
	}
	msg := fmt.Sprintf("Scraping past week (%s)...", out.Date)
	if topic != "" {
		msg = fmt.Sprintf("Scraping past week (%s) for %s...", out.Date, topic)
	}
	progress.Emit(s.Progress, progress.Event{Phase: progress.PhaseScrape, Message: msg, Total: len(dates)})

	for i, before := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := s.ScrapePage(ctx, s.PageURL(topic, before))
		if err != nil {
			logger.Warn("skipping page", "date", before, "error", err)
		} else {
			for _, name := range page.Order {
				out.Add(name, page.Sources[name]...)
			}
		}
		progress.Emit(s.Progress, progress.Event{
			Phase:     progress.PhaseScrape,
			Message:   fmt.Sprintf("Processing date %s...", before),
			Processed: i + 1,
			Total:     len(dates),
		})
	}
	return out, nil
}

// ScrapePage fetches one listing page, retrying transient failures.
func (s *Scraper) ScrapePage(ctx context.Context, pageURL string) (*news.Collection, error) {
	logger.Debug("fetching page", "url", pageURL)

	var doc *goquery.Document
	err := retry.WithRetry(ctx, s.Retry, func(ctx context.Context) error {
		d, err := s.fetch(ctx, pageURL)
		if err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", pageURL, err)
	}

	base, _ := url.Parse(pageURL)
	c, err := ParsePage(doc, base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pageURL, err)
	}
	return c, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP error: %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	node, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	return goquery.NewDocumentFromNode(node), nil
}

// ParsePage reads the source columns of a listing page.
func ParsePage(doc *goquery.Document, base *url.URL) (*news.Collection, error) {
	grid := doc.Find("div.brutal-grid").First()
	if grid.Length() == 0 {
		return nil, fmt.Errorf("no news grid found")
	}

	c := &news.Collection{}
	grid.ChildrenFiltered("div").Each(func(_ int, col *goquery.Selection) {
		link := col.Find("h3 a").First()
		if link.Length() == 0 {
			return
		}
		source := strings.TrimSpace(link.Text())
		if source == "" {
			return
		}

		var headlines []news.Headline
		col.Find("ul").First().Find("li").Each(func(_ int, li *goquery.Selection) {
			if h, ok := parseItem(li, source, base); ok {
				headlines = append(headlines, h)
			}
		})
		if len(headlines) > 0 {
			c.Add(source, headlines...)
		}
	})
	return c, nil
}

func parseItem(li *goquery.Selection, source string, base *url.URL) (news.Headline, bool) {
	links := li.Find("a")
	first := links.First()
	if first.Length() == 0 {
		return news.Headline{}, false
	}

	h := news.Headline{
		Source: source,
		Title:  strings.TrimSpace(first.Text()),
		URL:    absolute(base, first.AttrOr("href", "")),
		Time:   recencyLabel.FindString(li.Text()),
	}

	if links.Length() > 1 {
		last := links.Last()
		text := strings.TrimSpace(last.Text())
		if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
			h.SourceLink = &news.SourceLink{Text: text, URL: absolute(base, last.AttrOr("href", ""))}
		}
	}
	return h, true
}

func absolute(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
