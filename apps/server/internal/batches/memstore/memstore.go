// Package memstore is an in-memory batches.Store used for local development
// without a database and by the service and handler tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
	"github.com/tilsley/hgraph/apps/server/internal/batches/derived"
	"github.com/tilsley/hgraph/pkg/api"
)

// Compile-time check: *Store implements batches.Store.
var _ batches.Store = (*Store)(nil)

// Store keeps every record in maps keyed by ID.
type Store struct {
	mu         sync.RWMutex
	biochar    map[string]api.BiocharBatch
	graphene   map[string]api.GrapheneBatch
	analyses   map[string]api.AnalysisResult
	milestones map[string]api.Milestone
	equipment  map[string]api.Equipment
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		biochar:    map[string]api.BiocharBatch{},
		graphene:   map[string]api.GrapheneBatch{},
		analyses:   map[string]api.AnalysisResult{},
		milestones: map[string]api.Milestone{},
		equipment:  map[string]api.Equipment{},
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// ── biochar ─────────────────────────────────────────────────────────────────

// CreateBiochar inserts b. Names are unique.
func (s *Store) CreateBiochar(_ context.Context, b api.BiocharBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.biochar {
		if existing.Name == b.Name {
			return batches.DuplicateNameError{Resource: batches.ResourceBiochar, Name: b.Name}
		}
	}
	s.biochar[b.ID] = b
	return nil
}

// GetBiochar returns nil, nil when id is unknown.
func (s *Store) GetBiochar(_ context.Context, id string) (*api.BiocharBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.biochar[id]
	if !ok {
		return nil, nil //nolint:nilnil
	}
	return &b, nil
}

// GetBiocharByName returns nil, nil when no batch has that name.
func (s *Store) GetBiocharByName(_ context.Context, name string) (*api.BiocharBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.biochar {
		if b.Name == name {
			return &b, nil
		}
	}
	return nil, nil //nolint:nilnil
}

// ListBiochar returns matching batches, newest first.
func (s *Store) ListBiochar(_ context.Context, f batches.BiocharFilter) ([]api.BiocharBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.BiocharBatch, 0, len(s.biochar))
	for _, b := range s.biochar {
		if f.Oven != "" && !equalPtr(b.Oven, f.Oven) {
			continue
		}
		if f.Operator != "" && !equalPtr(b.Operator, f.Operator) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].DateCreated, out[j].DateCreated, out[i].Name, out[j].Name)
	})
	return window(out, f.Page), nil
}

// UpdateBiochar replaces the stored batch with the same ID.
func (s *Store) UpdateBiochar(_ context.Context, b api.BiocharBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.biochar[b.ID]; !ok {
		return batches.NotFoundError{Resource: batches.ResourceBiochar, ID: b.ID}
	}
	for id, existing := range s.biochar {
		if id != b.ID && existing.Name == b.Name {
			return batches.DuplicateNameError{Resource: batches.ResourceBiochar, Name: b.Name}
		}
	}
	s.biochar[b.ID] = b
	return nil
}

// DeleteBiochar removes a batch.
func (s *Store) DeleteBiochar(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.biochar[id]; !ok {
		return batches.NotFoundError{Resource: batches.ResourceBiochar, ID: id}
	}
	delete(s.biochar, id)
	return nil
}

// ── graphene ────────────────────────────────────────────────────────────────

// CreateGraphene inserts g. Names are unique.
func (s *Store) CreateGraphene(_ context.Context, g api.GrapheneBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.graphene {
		if existing.Name == g.Name {
			return batches.DuplicateNameError{Resource: batches.ResourceGraphene, Name: g.Name}
		}
	}
	g.ParentBiocharIDs = slices.Clone(g.ParentBiocharIDs)
	s.graphene[g.ID] = g
	return nil
}

// GetGraphene returns nil, nil when id is unknown.
func (s *Store) GetGraphene(_ context.Context, id string) (*api.GrapheneBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphene[id]
	if !ok {
		return nil, nil //nolint:nilnil
	}
	g.ParentBiocharIDs = slices.Clone(g.ParentBiocharIDs)
	return &g, nil
}

// GetGrapheneByName returns nil, nil when no batch has that name.
func (s *Store) GetGrapheneByName(_ context.Context, name string) (*api.GrapheneBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.graphene {
		if g.Name == name {
			g.ParentBiocharIDs = slices.Clone(g.ParentBiocharIDs)
			return &g, nil
		}
	}
	return nil, nil //nolint:nilnil
}

// ListGraphene returns matching batches, newest first.
func (s *Store) ListGraphene(_ context.Context, f batches.GrapheneFilter) ([]api.GrapheneBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.GrapheneBatch, 0, len(s.graphene))
	for _, g := range s.graphene {
		if !matchGraphene(g, f) {
			continue
		}
		g.ParentBiocharIDs = slices.Clone(g.ParentBiocharIDs)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].DateCreated, out[j].DateCreated, out[i].Name, out[j].Name)
	})
	return window(out, f.Page), nil
}

func matchGraphene(g api.GrapheneBatch, f batches.GrapheneFilter) bool {
	switch {
	case f.Oven != "" && !equalPtr(g.Oven, f.Oven):
		return false
	case f.Species != nil && (g.Species == nil || *g.Species != *f.Species):
		return false
	case f.ShippedOnly && !g.Shipped():
		return false
	case f.OvenCEra != nil && g.IsOvenCEra != *f.OvenCEra:
		return false
	}
	return true
}

// UpdateGraphene replaces the stored batch with the same ID.
func (s *Store) UpdateGraphene(_ context.Context, g api.GrapheneBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphene[g.ID]; !ok {
		return batches.NotFoundError{Resource: batches.ResourceGraphene, ID: g.ID}
	}
	for id, existing := range s.graphene {
		if id != g.ID && existing.Name == g.Name {
			return batches.DuplicateNameError{Resource: batches.ResourceGraphene, Name: g.Name}
		}
	}
	g.ParentBiocharIDs = slices.Clone(g.ParentBiocharIDs)
	s.graphene[g.ID] = g
	return nil
}

// DeleteGraphene removes a batch and its analyses.
func (s *Store) DeleteGraphene(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphene[id]; !ok {
		return batches.NotFoundError{Resource: batches.ResourceGraphene, ID: id}
	}
	delete(s.graphene, id)
	for aid, a := range s.analyses {
		if a.GrapheneBatchID == id {
			delete(s.analyses, aid)
		}
	}
	return nil
}

// ── analyses ────────────────────────────────────────────────────────────────

// CreateAnalysis inserts a. The graphene batch must exist.
func (s *Store) CreateAnalysis(_ context.Context, a api.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphene[a.GrapheneBatchID]; !ok {
		return batches.NotFoundError{Resource: batches.ResourceGraphene, ID: a.GrapheneBatchID}
	}
	s.analyses[a.ID] = cloneAnalysis(a)
	return nil
}

// GetAnalysis returns nil, nil when id is unknown.
func (s *Store) GetAnalysis(_ context.Context, id string) (*api.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[id]
	if !ok {
		return nil, nil //nolint:nilnil
	}
	a = cloneAnalysis(a)
	return &a, nil
}

// ListAnalysesByBatch returns a batch's analyses, most recent first.
func (s *Store) ListAnalysesByBatch(_ context.Context, batchID string) ([]api.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []api.AnalysisResult{}
	for _, a := range s.analyses {
		if a.GrapheneBatchID == batchID {
			out = append(out, cloneAnalysis(a))
		}
	}
	sortAnalyses(out)
	return out, nil
}

// ListAnalysesByBatches groups the analyses of the given batches by batch ID.
func (s *Store) ListAnalysesByBatches(_ context.Context, batchIDs []string) (map[string][]api.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[string]bool, len(batchIDs))
	for _, id := range batchIDs {
		want[id] = true
	}
	out := make(map[string][]api.AnalysisResult, len(batchIDs))
	for _, a := range s.analyses {
		if want[a.GrapheneBatchID] {
			out[a.GrapheneBatchID] = append(out[a.GrapheneBatchID], cloneAnalysis(a))
		}
	}
	for _, list := range out {
		sortAnalyses(list)
	}
	return out, nil
}

// ListAnalyses returns every analysis, most recent first.
func (s *Store) ListAnalyses(_ context.Context) ([]api.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.AnalysisResult, 0, len(s.analyses))
	for _, a := range s.analyses {
		out = append(out, cloneAnalysis(a))
	}
	sortAnalyses(out)
	return out, nil
}

// AppendAnalysisImages adds stored image paths to an analysis.
func (s *Store) AppendAnalysisImages(_ context.Context, id string, sem, tem []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analyses[id]
	if !ok {
		return batches.NotFoundError{Resource: batches.ResourceAnalysis, ID: id}
	}
	a = cloneAnalysis(a)
	a.SEMImages = append(a.SEMImages, sem...)
	a.TEMImages = append(a.TEMImages, tem...)
	s.analyses[id] = a
	return nil
}

// DeleteAnalysis removes an analysis.
func (s *Store) DeleteAnalysis(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.analyses[id]; !ok {
		return batches.NotFoundError{Resource: batches.ResourceAnalysis, ID: id}
	}
	delete(s.analyses, id)
	return nil
}

// ── registry ────────────────────────────────────────────────────────────────

// CreateMilestone inserts m.
func (s *Store) CreateMilestone(_ context.Context, m api.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.AffectedBatchIDs = slices.Clone(m.AffectedBatchIDs)
	s.milestones[m.ID] = m
	return nil
}

// ListMilestones returns milestones in date order.
func (s *Store) ListMilestones(_ context.Context) ([]api.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Milestone, 0, len(s.milestones))
	for _, m := range s.milestones {
		m.AffectedBatchIDs = slices.Clone(m.AffectedBatchIDs)
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateOccurred.Equal(out[j].DateOccurred.Time) {
			return out[i].Title < out[j].Title
		}
		return out[i].DateOccurred.Before(out[j].DateOccurred)
	})
	return out, nil
}

// CreateEquipment inserts e. Names are unique.
func (s *Store) CreateEquipment(_ context.Context, e api.Equipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.equipment {
		if existing.Name == e.Name {
			return batches.DuplicateNameError{Resource: batches.ResourceEquipment, Name: e.Name}
		}
	}
	s.equipment[e.ID] = e
	return nil
}

// ListEquipment returns equipment ordered by name.
func (s *Store) ListEquipment(_ context.Context) ([]api.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Equipment, 0, len(s.equipment))
	for _, e := range s.equipment {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ── reporting ───────────────────────────────────────────────────────────────

// BatchPerformance returns one row per graphene batch, oldest first.
func (s *Store) BatchPerformance(_ context.Context) ([]api.BatchPerformance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]api.GrapheneBatch, 0, len(s.graphene))
	for _, g := range s.graphene {
		all = append(all, g)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	byBatch := map[string][]api.AnalysisResult{}
	for _, a := range s.analyses {
		byBatch[a.GrapheneBatchID] = append(byBatch[a.GrapheneBatchID], a)
	}
	return derived.BuildPerformance(all, byBatch), nil
}

// ── helpers ─────────────────────────────────────────────────────────────────

func equalPtr(p *string, want string) bool {
	return p != nil && strings.EqualFold(*p, want)
}

func newer(a, b api.Date, nameA, nameB string) bool {
	if a.Equal(b.Time) {
		return nameA > nameB
	}
	return b.Before(a)
}

func window[T any](items []T, p batches.Page) []T {
	if p.Skip >= len(items) {
		return []T{}
	}
	items = items[max(p.Skip, 0):]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

func sortAnalyses(list []api.AnalysisResult) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].DateAnalyzed.Equal(list[j].DateAnalyzed.Time) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[j].DateAnalyzed.Before(list[i].DateAnalyzed)
	})
}

func cloneAnalysis(a api.AnalysisResult) api.AnalysisResult {
	a.SEMImages = slices.Clone(a.SEMImages)
	a.TEMImages = slices.Clone(a.TEMImages)
	a.Reports = slices.Clone(a.Reports)
	return a
}
