package batches

import (
	"context"
	"fmt"

	"github.com/tilsley/hgraph/apps/server/internal/batches/derived"
	"github.com/tilsley/hgraph/pkg/api"
)

// Cache keys for dashboard aggregates.
const (
	KeyDashboardSummary  = "dashboard:summary"
	KeyBatchPerformance  = "dashboard:batch-performance"
	KeyGradeDistribution = "dashboard:grades"
)

// DashboardSummary returns the executive overview of Oven C era production
// and shipments.
func (s *Service) DashboardSummary(ctx context.Context) (*api.DashboardSummary, error) {
	var sum api.DashboardSummary
	gen, hit := s.cached(ctx, KeyDashboardSummary, &sum)
	if hit {
		return &sum, nil
	}

	era := true
	eraBatches, err := s.store.ListGraphene(ctx, GrapheneFilter{OvenCEra: &era})
	if err != nil {
		return nil, fmt.Errorf("list oven c era batches: %w", err)
	}
	ids := make([]string, len(eraBatches))
	for i, b := range eraBatches {
		ids[i] = b.ID
	}
	analyses, err := s.store.ListAnalysesByBatches(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list oven c era analyses: %w", err)
	}
	shipped, err := s.store.ListGraphene(ctx, GrapheneFilter{ShippedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list shipped batches: %w", err)
	}

	sum = derived.BuildDashboard(eraBatches, analyses, shipped)
	s.remember(ctx, gen, KeyDashboardSummary, sum)
	return &sum, nil
}

// BatchPerformance returns every graphene batch with its best BET and
// conductivity, oldest first.
func (s *Service) BatchPerformance(ctx context.Context) ([]api.BatchPerformance, error) {
	var rows []api.BatchPerformance
	gen, hit := s.cached(ctx, KeyBatchPerformance, &rows)
	if hit {
		return rows, nil
	}
	rows, err := s.store.BatchPerformance(ctx)
	if err != nil {
		return nil, fmt.Errorf("batch performance: %w", err)
	}
	if rows == nil {
		rows = []api.BatchPerformance{}
	}
	derived.GradePerformance(rows)
	s.remember(ctx, gen, KeyBatchPerformance, rows)
	return rows, nil
}

// GradeDistribution counts analyses per energy-storage grade.
func (s *Service) GradeDistribution(ctx context.Context) ([]api.GradeCount, error) {
	var counts []api.GradeCount
	gen, hit := s.cached(ctx, KeyGradeDistribution, &counts)
	if hit {
		return counts, nil
	}
	results, err := s.store.ListAnalyses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	counts = derived.GradeDistribution(results)
	s.remember(ctx, gen, KeyGradeDistribution, counts)
	return counts, nil
}

// cached looks key up in the current generation. The returned generation
// is what remember must store under; it is negative when the cache is
// unavailable.
func (s *Service) cached(ctx context.Context, key string, dst any) (int64, bool) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.Warn("dashboard cache generation failed", "key", key, "error", err)
		return -1, false
	}
	ok, err := s.cache.Get(ctx, gen, key, dst)
	if err != nil {
		s.log.Warn("dashboard cache read failed", "key", key, "error", err)
		return gen, false
	}
	return gen, ok
}

func (s *Service) remember(ctx context.Context, gen int64, key string, value any) {
	if gen < 0 {
		return
	}
	if err := s.cache.Set(ctx, gen, key, value); err != nil {
		s.log.Warn("dashboard cache write failed", "key", key, "error", err)
	}
}
