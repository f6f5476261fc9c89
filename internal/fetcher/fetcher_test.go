package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"CrisisMonitor/internal/cache"
	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/infrastructure/parser"
	"CrisisMonitor/internal/infrastructure/storage"
	"CrisisMonitor/internal/scanner"
	"CrisisMonitor/internal/sources"
)

type fakeSource struct {
	articles []domain.Article
	calls    int
}

func (f *fakeSource) FetchAll(_ context.Context, feeds []sources.Source, _, _ time.Time) ([]domain.Article, domain.SourceReport, error) {
	f.calls++
	return append([]domain.Article(nil), f.articles...), domain.SourceReport{OK: len(feeds)}, nil
}

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func TestCanonicalURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://Example.org/a1?utm_source=x&id=3#top", "https://example.org/a1?id=3", true},
		{"HTTP://example.org/a1?utm_medium=rss", "http://example.org/a1", true},
		{"  https://example.org/a1  ", "https://example.org/a1", true},
		{"/relative/path", "", false},
		{"mailto:someone@example.org", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := CanonicalURL(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("CanonicalURL(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDedupKeepsHigherTier(t *testing.T) {
	t.Parallel()

	order := map[string]int{"BBC World": 0, "Human Rights Watch": 1}
	mainstream := domain.Article{URL: "https://example.org/a1", SourceName: "BBC World", SourceTier: domain.TierMainstream}
	ngo := domain.Article{URL: "https://example.org/a1", SourceName: "Human Rights Watch", SourceTier: domain.TierNGOUN}

	for _, input := range [][]domain.Article{{mainstream, ngo}, {ngo, mainstream}} {
		out := Dedup(input, order)
		if len(out) != 1 || out[0].SourceTier != domain.TierNGOUN {
			t.Fatalf("expected single ngo_un copy, got %+v", out)
		}
	}
}

func TestDedupEqualTierUsesRegistryOrder(t *testing.T) {
	t.Parallel()

	order := map[string]int{"Guardian": 0, "BBC": 1}
	bbc := domain.Article{URL: "https://x.org/1", SourceName: "BBC", SourceTier: domain.TierMainstream}
	guardian := domain.Article{URL: "https://x.org/1", SourceName: "Guardian", SourceTier: domain.TierMainstream}

	out := Dedup([]domain.Article{bbc, guardian}, order)
	if out[0].SourceName != "Guardian" {
		t.Fatalf("expected earlier registry source, got %s", out[0].SourceName)
	}

	again := Dedup(out, order)
	if len(again) != 1 || again[0] != out[0] {
		t.Fatalf("dedup must be idempotent")
	}
}

func TestFetchWindowCapAndOrder(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{
		{URL: "https://x.org/old", SourceName: "A", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(-48 * time.Hour)},
		{URL: "https://x.org/b", SourceName: "A", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(-2 * time.Hour)},
		{URL: "https://x.org/a", SourceName: "A", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(-2 * time.Hour)},
		{URL: "https://x.org/c", SourceName: "A", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(-1 * time.Hour)},
		{URL: "https://x.org/future", SourceName: "A", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(time.Hour)},
		{URL: "not a url", SourceName: "A", SourceTier: domain.TierMainstream, PublishedAt: testNow},
	}}

	f := New(src, nil, WithClock(clock))
	res, err := f.Fetch(context.Background(), []sources.Source{{Name: "A"}}, 24, 2)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Articles) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(res.Articles))
	}
	if res.Articles[0].URL != "https://x.org/c" || res.Articles[1].URL != "https://x.org/a" {
		t.Fatalf("expected newest first with URL tie-break, got %s, %s", res.Articles[0].URL, res.Articles[1].URL)
	}

	res, err = f.Fetch(context.Background(), []sources.Source{{Name: "A"}}, 24, 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Articles) != 3 {
		t.Fatalf("maxArticles <= 0 must be unlimited, got %d", len(res.Articles))
	}
}

func TestFetchDuplicateAcrossFeeds(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{
		{URL: "https://example.org/a1", SourceName: "BBC World", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(-time.Hour)},
		{URL: "https://example.org/a1?utm_source=rss", SourceName: "Human Rights Watch", SourceTier: domain.TierNGOUN, PublishedAt: testNow.Add(-time.Hour)},
	}}

	feeds := []sources.Source{{Name: "BBC World"}, {Name: "Human Rights Watch"}}
	res, err := New(src, nil, WithClock(clock)).Fetch(context.Background(), feeds, 24, 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Articles) != 1 || res.Articles[0].SourceTier != domain.TierNGOUN {
		t.Fatalf("expected the ngo_un copy only, got %+v", res.Articles)
	}
}

func TestFetchUnionsCachedArticles(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	articleCache := cache.NewArticleCache(store, nil)
	if err := articleCache.Save(context.Background(), []domain.Article{
		{URL: "https://x.org/cached", SourceName: "A", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(-3 * time.Hour)},
		{URL: "https://x.org/stale", SourceName: "A", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(-100 * time.Hour)},
	}, nil); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	src := &fakeSource{articles: []domain.Article{
		{URL: "https://x.org/fresh", SourceName: "A", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(-time.Hour)},
	}}
	feeds := []sources.Source{{Name: "A"}}

	res, err := New(src, nil, WithClock(clock), WithCache(articleCache)).Fetch(context.Background(), feeds, 24, 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Articles) != 2 || res.FromCache != 1 || res.New != 1 {
		t.Fatalf("expected fresh+cached article, got %d articles, from_cache=%d new=%d", len(res.Articles), res.FromCache, res.New)
	}

	bypass, err := New(src, nil, WithClock(clock), WithCache(articleCache), WithCacheBypass(true)).Fetch(context.Background(), feeds, 24, 0)
	if err != nil {
		t.Fatalf("Fetch bypass: %v", err)
	}
	if len(bypass.Articles) != 1 || bypass.New != 0 {
		t.Fatalf("bypass must only return fresh articles, got %d new=%d", len(bypass.Articles), bypass.New)
	}

	snap, _ := store.Snapshot(context.Background())
	if _, ok := snap["https://x.org/fresh"]; !ok {
		t.Fatalf("fresh articles must be written to the cache")
	}
}

func TestFetchEmptyWindow(t *testing.T) {
	t.Parallel()

	res, err := New(&fakeSource{}, nil, WithClock(clock)).Fetch(context.Background(), []sources.Source{{Name: "A"}}, 24, 50)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Articles) != 0 {
		t.Fatalf("expected no articles, got %d", len(res.Articles))
	}
}

func TestFetchKeepsUndatedFeedEntries(t *testing.T) {
	t.Parallel()

	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Relief</title>
<item><title>Dated report</title><link>https://example.org/dated</link><pubDate>` + testNow.Add(-time.Hour).Format(time.RFC1123Z) + `</pubDate></item>
<item><title>Undated report</title><link>https://example.org/undated</link></item>
</channel></rss>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer server.Close()

	reg := scanner.NewRegistry()
	reg.Register(parser.NewRSSScanner(server.Client(), ""))
	src := parser.NewStrategySource(reg, nil, nil, parser.StrategyOptions{}, nil)
	feeds := []sources.Source{{Name: "ReliefWeb", URL: server.URL, Tier: domain.TierNGOUN}}

	res, err := New(src, nil, WithClock(clock)).Fetch(context.Background(), feeds, 24, 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Fresh != 2 || len(res.Articles) != 2 {
		t.Fatalf("undated entry dropped: fresh=%d kept=%d", res.Fresh, len(res.Articles))
	}
	for _, a := range res.Articles {
		if a.URL == "https://example.org/undated" && (!a.DateInferred || !a.PublishedAt.Equal(testNow)) {
			t.Fatalf("undated entry must be stamped with the run time, got %+v", a)
		}
	}
}

func TestFetchKeepsTrustedCachedCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	articleCache := cache.NewArticleCache(store, nil)
	feeds := []sources.Source{{Name: "BBC World"}, {Name: "Human Rights Watch"}}

	ngo := &fakeSource{articles: []domain.Article{
		{URL: "https://example.org/a1", Title: "ngo", SourceName: "Human Rights Watch", SourceTier: domain.TierNGOUN, PublishedAt: testNow.Add(-2 * time.Hour)},
	}}
	if _, err := New(ngo, nil, WithClock(clock), WithCache(articleCache)).Fetch(ctx, feeds, 24, 0); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}

	// The NGO feed is down on the next run; only the mainstream copy arrives.
	mainstream := &fakeSource{articles: []domain.Article{
		{URL: "https://example.org/a1", Title: "mainstream", SourceName: "BBC World", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(-2 * time.Hour)},
	}}
	res, err := New(mainstream, nil, WithClock(clock), WithCache(articleCache)).Fetch(ctx, feeds, 24, 0)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if len(res.Articles) != 1 || res.Articles[0].SourceTier != domain.TierNGOUN {
		t.Fatalf("expected the cached ngo_un copy to win, got %+v", res.Articles)
	}
	if res.New != 0 {
		t.Fatalf("a cached URL is not new, got %d", res.New)
	}

	raw, ok, err := store.Get(ctx, "https://example.org/a1")
	if err != nil || !ok {
		t.Fatalf("cache entry missing: ok=%v err=%v", ok, err)
	}
	var stored domain.Article
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("decode cache entry: %v", err)
	}
	if stored.SourceTier != domain.TierNGOUN {
		t.Fatalf("cache must keep the ngo_un copy, holds %s", stored.SourceTier)
	}
}

func TestFetchPrunesExpiredCacheEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	articleCache := cache.NewArticleCache(store, nil)
	if err := articleCache.Save(ctx, []domain.Article{
		{URL: "https://x.org/recent", SourceName: "A", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(-48 * time.Hour)},
		{URL: "https://x.org/ancient", SourceName: "A", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(-10 * 24 * time.Hour)},
	}, nil); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	src := &fakeSource{articles: []domain.Article{
		{URL: "https://x.org/fresh", SourceName: "A", SourceTier: domain.TierMainstream, PublishedAt: testNow.Add(-time.Hour)},
	}}
	f := New(src, nil, WithClock(clock), WithCache(articleCache), WithRetention(7*24*time.Hour))
	if _, err := f.Fetch(ctx, []sources.Source{{Name: "A"}}, 24, 0); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	snap, _ := store.Snapshot(ctx)
	if _, ok := snap["https://x.org/ancient"]; ok {
		t.Fatalf("entries beyond retention must be pruned")
	}
	if _, ok := snap["https://x.org/recent"]; !ok {
		t.Fatalf("entries inside retention must survive")
	}
	if _, ok := snap["https://x.org/fresh"]; !ok {
		t.Fatalf("fresh entries must be stored")
	}

	// A fetch window wider than the retention extends it.
	wide := New(src, nil, WithClock(clock), WithCache(articleCache), WithRetention(time.Hour))
	if _, err := wide.Fetch(ctx, []sources.Source{{Name: "A"}}, 72, 0); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	snap, _ = store.Snapshot(ctx)
	if _, ok := snap["https://x.org/recent"]; !ok {
		t.Fatalf("entries inside the fetch window must survive")
	}
}
