package parser

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/scanner"
	"CrisisMonitor/internal/sources"
)

type stubScanner struct {
	name     string
	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(s.delay)

	if req.Source.Name == "broken" {
		return nil, errors.New("connection refused")
	}
	return []domain.Article{{
		Title:      req.Source.Name,
		URL:        "https://example.org/" + req.Source.Name,
		SourceName: req.Source.Name,
		SourceTier: req.Source.Tier,
	}}, nil
}

func TestStrategySourceSkipsFailuresAndKeepsOrder(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{name: sources.KindRSS, delay: 5 * time.Millisecond}
	reg := scanner.NewRegistry()
	reg.Register(stub)

	src := NewStrategySource(reg, nil, nil, StrategyOptions{Workers: 2}, nil)
	feeds := []sources.Source{
		{Name: "a", Tier: domain.TierNGOUN},
		{Name: "broken", Tier: domain.TierMainstream},
		{Name: "b", Tier: domain.TierMainstream},
		{Name: "c", Tier: domain.TierMainstream},
		{Name: "gdelt", Kind: sources.KindGDELT, Tier: domain.TierMainstream},
	}

	articles, report, err := src.FetchAll(context.Background(), feeds, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if report.OK != 3 || report.Failed != 2 {
		t.Fatalf("expected 3 ok / 2 failed, got %+v", report)
	}
	if _, ok := report.Errors["gdelt"]; !ok {
		t.Fatalf("unregistered scanner must be reported as a failure: %+v", report.Errors)
	}

	var names []string
	for _, a := range articles {
		names = append(names, a.SourceName)
	}
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Fatalf("articles must follow feed order, got %v", names)
	}
	if peak := stub.peak.Load(); peak > 2 {
		t.Fatalf("worker limit exceeded: %d concurrent scans", peak)
	}
}

func TestStrategySourceRequiresRegistry(t *testing.T) {
	t.Parallel()

	src := NewStrategySource(nil, nil, nil, StrategyOptions{}, nil)
	if _, _, err := src.FetchAll(context.Background(), nil, time.Time{}, time.Time{}); err == nil {
		t.Fatalf("expected error without registry")
	}
}
