package parser

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

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/resilience"
	"CrisisMonitor/internal/scanner"
	"CrisisMonitor/internal/sources"
)

const (
	gdeltSeenLayout   = "20060102T150405Z"
	gdeltParamLayout  = "20060102150405"
	gdeltMaxRecords   = 250
	gdeltDefaultQuery = "(earthquake OR flood OR famine OR war OR conflict OR refugee OR humanitarian OR outbreak OR genocide)"
)

// GDELTScanner queries the GDELT DOC 2.0 article list API.
type GDELTScanner struct {
	client    *http.Client
	userAgent string
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	SeenDate string `json:"seendate"`
	Domain   string `json:"domain"`
	Language string `json:"language"`
}

// NewGDELTScanner wires an HTTP client for the DOC API.
func NewGDELTScanner(client *http.Client, userAgent string) *GDELTScanner {
	if client == nil {
		client = &http.Client{}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &GDELTScanner{client: client, userAgent: userAgent}
}

// Name identifies the strategy inside the registry.
func (g *GDELTScanner) Name() string {
	return sources.KindGDELT
}

// Scan runs the configured query over the request window. Each hit is
// attributed to its publishing domain.
func (g *GDELTScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	endpoint, err := buildGDELTURL(req.Source.URL, req.Since, now, req.MaxItems)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request gdelt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &resilience.HTTPStatusError{Operation: "gdelt", StatusCode: resp.StatusCode, Status: resp.Status}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read gdelt: %w", err)
	}
	// An empty result set comes back as an empty body.
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	var payload gdeltResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode gdelt: %w", err)
	}

	results := make([]domain.Article, 0, len(payload.Articles))
	for _, item := range payload.Articles {
		if req.MaxItems > 0 && len(results) >= req.MaxItems {
			break
		}
		if item.URL == "" || !englishOrUnknown(item.Language) {
			continue
		}

		name := item.Domain
		if name == "" {
			name = req.Source.Name
		}
		article := domain.Article{
			Title:        collapseSpaces(item.Title),
			URL:          item.URL,
			SourceName:   name,
			SourceTier:   sources.TierForName(name),
			CategoryHint: req.Source.CategoryHint,
			FetchedAt:    now,
		}
		if seen, err := time.Parse(gdeltSeenLayout, item.SeenDate); err == nil {
			article.PublishedAt = seen.UTC()
		} else {
			article.PublishedAt = now
			article.DateInferred = true
		}
		results = append(results, article)
	}
	return results, nil
}

func buildGDELTURL(base string, since, now time.Time, maxItems int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid gdelt url %s: %w", base, err)
	}

	records := gdeltMaxRecords
	if maxItems > 0 && maxItems < records {
		records = maxItems
	}

	query := parsed.Query()
	if query.Get("query") == "" {
		query.Set("query", gdeltDefaultQuery+" sourcelang:english")
	}
	query.Set("mode", "artlist")
	query.Set("format", "json")
	query.Set("sort", "datedesc")
	query.Set("maxrecords", strconv.Itoa(records))
	if !since.IsZero() {
		query.Set("startdatetime", since.UTC().Format(gdeltParamLayout))
		query.Set("enddatetime", now.UTC().Format(gdeltParamLayout))
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func englishOrUnknown(language string) bool {
	return language == "" || strings.EqualFold(language, "english")
}
