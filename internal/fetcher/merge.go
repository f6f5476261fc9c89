package fetcher

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"CrisisMonitor/internal/domain"
)

var trackingParams = map[string]struct{}{
	"fbclid": {},
	"gclid":  {},
}

// CanonicalURL normalizes an article link into its dedup key. It rejects
// anything that is not an absolute http(s) URL with a host.
func CanonicalURL(raw string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}
	if parsed.Host == "" {
		return "", false
	}
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.RawFragment = ""

	if parsed.RawQuery != "" {
		query := parsed.Query()
		for key := range query {
			lower := strings.ToLower(key)
			if _, ok := trackingParams[lower]; ok || strings.HasPrefix(lower, "utm_") {
				query.Del(key)
			}
		}
		parsed.RawQuery = query.Encode()
	}
	parsed.ForceQuery = false
	return parsed.String(), true
}

// Canonicalize rewrites URLs to their canonical form and drops unusable entries.
func Canonicalize(articles []domain.Article) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		key, ok := CanonicalURL(a.URL)
		if !ok {
			continue
		}
		a.URL = key
		out = append(out, a)
	}
	return out
}

// InWindow keeps articles published within [since, until].
func InWindow(articles []domain.Article, since, until time.Time) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if a.PublishedAt.Before(since) || a.PublishedAt.After(until) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Dedup keeps one article per URL. The higher trust tier wins; on equal tiers
// the copy from the source listed earlier in order wins, then the first seen.
// Sources missing from order rank after every listed source.
func Dedup(articles []domain.Article, order map[string]int) []domain.Article {
	index := make(map[string]int, len(articles))
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if i, ok := index[a.URL]; ok {
			if prefer(a, out[i], order) {
				out[i] = a
			}
			continue
		}
		index[a.URL] = len(out)
		out = append(out, a)
	}
	return out
}

func prefer(candidate, current domain.Article, order map[string]int) bool {
	if candidate.SourceTier.Rank() != current.SourceTier.Rank() {
		return candidate.Outranks(current)
	}
	return sourceRank(candidate.SourceName, order) < sourceRank(current.SourceName, order)
}

func sourceRank(name string, order map[string]int) int {
	if rank, ok := order[name]; ok {
		return rank
	}
	return len(order)
}

// NewestFirst sorts by publish time descending with URL as tie-break and
// applies the cap; limit <= 0 keeps everything.
func NewestFirst(articles []domain.Article, limit int) []domain.Article {
	sort.SliceStable(articles, func(i, j int) bool {
		if !articles[i].PublishedAt.Equal(articles[j].PublishedAt) {
			return articles[i].PublishedAt.After(articles[j].PublishedAt)
		}
		return articles[i].URL < articles[j].URL
	})
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles
}
