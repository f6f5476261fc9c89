package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/resilience"
	"CrisisMonitor/internal/scanner"
	"CrisisMonitor/internal/sources"
)

const (
	defaultUserAgent = "CrisisMonitor/1.0"
	maxFeedBytes     = 10 << 20
)

// RSSScanner reads RSS, Atom and JSON feeds.
type RSSScanner struct {
	client    *http.Client
	userAgent string
}

// NewRSSScanner wires an HTTP client; the per-source timeout is applied by the caller.
func NewRSSScanner(client *http.Client, userAgent string) *RSSScanner {
	if client == nil {
		client = &http.Client{}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &RSSScanner{client: client, userAgent: userAgent}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return sources.KindRSS
}

// Scan downloads one feed and converts its items into articles.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	feed, err := r.fetchFeed(ctx, req.Source.URL)
	if err != nil {
		return nil, err
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	results := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if req.MaxItems > 0 && len(results) >= req.MaxItems {
			break
		}
		article, ok := itemToArticle(item, req.Source, now)
		if !ok {
			continue
		}
		results = append(results, article)
	}
	return results, nil
}

func (r *RSSScanner) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &resilience.HTTPStatusError{Operation: "feed", StatusCode: resp.StatusCode, Status: resp.Status}
	}

	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func itemToArticle(item *gofeed.Item, src sources.Source, now time.Time) (domain.Article, bool) {
	if item == nil {
		return domain.Article{}, false
	}

	link := strings.TrimSpace(item.Link)
	if link == "" && strings.HasPrefix(item.GUID, "http") {
		link = strings.TrimSpace(item.GUID)
	}
	if link == "" {
		return domain.Article{}, false
	}

	body := item.Content
	if strings.TrimSpace(body) == "" {
		body = item.Description
	}

	article := domain.Article{
		Title:        StripHTML(item.Title),
		Body:         StripHTML(body),
		URL:          link,
		SourceName:   src.Name,
		SourceTier:   src.Tier,
		SourceWeight: src.Weight,
		CategoryHint: src.CategoryHint,
		FetchedAt:    now,
	}

	switch {
	case item.PublishedParsed != nil:
		article.PublishedAt = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		article.PublishedAt = item.UpdatedParsed.UTC()
	default:
		article.PublishedAt = now
		article.DateInferred = true
	}
	return article, true
}
