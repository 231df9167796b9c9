package batches

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tilsley/hgraph/apps/server/internal/batches/derived"
	"github.com/tilsley/hgraph/pkg/api"
)

const instrName = "github.com/tilsley/hgraph"

// Service is the application-level use-case orchestrator for batch tracking.
// It depends only on port interfaces; no framework imports.
type Service struct {
	store Store
	cache Cache
	files FileStore
	log   *slog.Logger
	now   func() time.Time

	batchesCreated  metric.Int64Counter
	analysesCreated metric.Int64Counter
	importRows      metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps and import dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service. A nil cache disables caching.
func NewService(store Store, cache Cache, files FileStore, log *slog.Logger, opts ...Option) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	m := otel.Meter(instrName)
	batchesCreated, _ := m.Int64Counter("hgraph.batches.created",
		metric.WithDescription("Number of biochar and graphene batches created"))
	analysesCreated, _ := m.Int64Counter("hgraph.analyses.created",
		metric.WithDescription("Number of analysis results recorded"))
	importRows, _ := m.Int64Counter("hgraph.import.rows",
		metric.WithDescription("Number of spreadsheet rows processed by imports"))

	s := &Service{
		store:           store,
		cache:           cache,
		files:           files,
		log:             log,
		now:             time.Now,
		batchesCreated:  batchesCreated,
		analysesCreated: analysesCreated,
		importRows:      importRows,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Health reports whether the backing store is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) today() api.Date {
	return api.DateOf(s.now())
}

// invalidate drops cached aggregates after a write. A cache failure never
// fails the write itself.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("failed to invalidate dashboard cache", "error", err)
	}
}

// ─── Biochar ────────────────────────────────────────────────────────────────

// CreateBiochar records a new stage-one batch.
func (s *Service) CreateBiochar(ctx context.Context, in api.BiocharBatchInput) (*api.BiocharBatch, error) {
	b, err := s.insertBiochar(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return b, nil
}

func (s *Service) insertBiochar(ctx context.Context, in api.BiocharBatchInput) (*api.BiocharBatch, error) {
	if in.DateCreated == nil {
		return nil, ValidationError{Field: "date_created", Message: "is required"}
	}
	b := api.BiocharBatch{
		ID:        uuid.New().String(),
		CreatedAt: s.now().UTC(),
	}
	applyBiocharInput(&b, in)
	derived.ApplyBiochar(&b)

	if err := s.store.CreateBiochar(ctx, b); err != nil {
		return nil, fmt.Errorf("create biochar batch: %w", err)
	}
	s.batchesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "biochar")))
	return &b, nil
}

// GetBiochar returns a biochar batch or a NotFoundError.
func (s *Service) GetBiochar(ctx context.Context, id string) (*api.BiocharBatch, error) {
	b, err := s.store.GetBiochar(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get biochar batch %q: %w", id, err)
	}
	if b == nil {
		return nil, NotFoundError{Resource: ResourceBiochar, ID: id}
	}
	return b, nil
}

// ListBiochar returns biochar batches matching f.
func (s *Service) ListBiochar(ctx context.Context, f BiocharFilter) ([]api.BiocharBatch, error) {
	f.Page = f.Page.Normalize()
	list, err := s.store.ListBiochar(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list biochar batches: %w", err)
	}
	return list, nil
}

// UpdateBiochar replaces the editable fields of a biochar batch and
// recomputes its yield.
func (s *Service) UpdateBiochar(ctx context.Context, id string, in api.BiocharBatchInput) (*api.BiocharBatch, error) {
	b, err := s.GetBiochar(ctx, id)
	if err != nil {
		return nil, err
	}
	applyBiocharInput(b, in)
	derived.ApplyBiochar(b)
	now := s.now().UTC()
	b.UpdatedAt = &now

	if err := s.store.UpdateBiochar(ctx, *b); err != nil {
		return nil, fmt.Errorf("update biochar batch %q: %w", id, err)
	}
	s.invalidate(ctx)
	return b, nil
}

// DeleteBiochar removes a biochar batch.
func (s *Service) DeleteBiochar(ctx context.Context, id string) error {
	if err := s.store.DeleteBiochar(ctx, id); err != nil {
		return fmt.Errorf("delete biochar batch %q: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

func applyBiocharInput(b *api.BiocharBatch, in api.BiocharBatchInput) {
	b.Name = in.Name
	if in.DateCreated != nil {
		b.DateCreated = *in.DateCreated
	}
	b.Oven = in.Oven
	b.Operator = in.Operator
	b.Temperature = in.Temperature
	b.TimeHours = in.TimeHours
	b.PressureBar = in.PressureBar
	b.KOHRatio = in.KOHRatio
	b.WaterPercent = in.WaterPercent
	b.InputWeight = in.InputWeight
	b.OutputWeight = in.OutputWeight
	b.YieldPercent = in.YieldPercent
	b.IsMilestone = in.IsMilestone
	b.QualityNotes = in.QualityNotes
}

// ─── Graphene ───────────────────────────────────────────────────────────────

// CreateGraphene records a new stage-two batch. Every parent biochar batch
// must exist.
func (s *Service) CreateGraphene(ctx context.Context, in api.GrapheneBatchInput) (*api.GrapheneBatch, error) {
	g, err := s.insertGraphene(ctx, in, true)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return g, nil
}

// insertGraphene stores a new graphene batch. dated is false when the
// creation date was defaulted rather than supplied, in which case the era
// flag follows the oven alone.
func (s *Service) insertGraphene(ctx context.Context, in api.GrapheneBatchInput, dated bool) (*api.GrapheneBatch, error) {
	if in.DateCreated == nil {
		return nil, ValidationError{Field: "date_created", Message: "is required"}
	}
	if err := s.checkParents(ctx, in.ParentBiocharIDs); err != nil {
		return nil, err
	}
	g := api.GrapheneBatch{
		ID:        uuid.New().String(),
		CreatedAt: s.now().UTC(),
	}
	applyGrapheneInput(&g, in)
	if dated {
		derived.ApplyGraphene(&g)
	} else {
		derived.ApplyGrapheneByOven(&g)
	}

	if err := s.store.CreateGraphene(ctx, g); err != nil {
		return nil, fmt.Errorf("create graphene batch: %w", err)
	}
	s.batchesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "graphene")))
	return &g, nil
}

func (s *Service) checkParents(ctx context.Context, ids []string) error {
	for _, id := range ids {
		b, err := s.store.GetBiochar(ctx, id)
		if err != nil {
			return fmt.Errorf("get parent biochar batch %q: %w", id, err)
		}
		if b == nil {
			return ValidationError{
				Field:   "parent_biochar_ids",
				Message: fmt.Sprintf("biochar batch %q does not exist", id),
			}
		}
	}
	return nil
}

// GetGraphene returns a graphene batch with its analysis summary.
func (s *Service) GetGraphene(ctx context.Context, id string) (*api.GrapheneBatch, error) {
	g, err := s.store.GetGraphene(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get graphene batch %q: %w", id, err)
	}
	if g == nil {
		return nil, NotFoundError{Resource: ResourceGraphene, ID: id}
	}
	results, err := s.store.ListAnalysesByBatch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list analyses for %q: %w", id, err)
	}
	derived.ApplySummary(g, results)
	return g, nil
}

// ListGraphene returns graphene batches matching f, each with its analysis summary.
func (s *Service) ListGraphene(ctx context.Context, f GrapheneFilter) ([]api.GrapheneBatch, error) {
	f.Page = f.Page.Normalize()
	list, err := s.store.ListGraphene(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list graphene batches: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}
	ids := make([]string, len(list))
	for i, g := range list {
		ids[i] = g.ID
	}
	byBatch, err := s.store.ListAnalysesByBatches(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	for i := range list {
		derived.ApplySummary(&list[i], byBatch[list[i].ID])
	}
	return list, nil
}

// UpdateGraphene replaces the editable fields of a graphene batch and
// re-derives its era and pooled flags.
func (s *Service) UpdateGraphene(ctx context.Context, id string, in api.GrapheneBatchInput) (*api.GrapheneBatch, error) {
	g, err := s.store.GetGraphene(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get graphene batch %q: %w", id, err)
	}
	if g == nil {
		return nil, NotFoundError{Resource: ResourceGraphene, ID: id}
	}
	if err := s.checkParents(ctx, in.ParentBiocharIDs); err != nil {
		return nil, err
	}
	applyGrapheneInput(g, in)
	derived.ApplyGraphene(g)
	now := s.now().UTC()
	g.UpdatedAt = &now

	if err := s.store.UpdateGraphene(ctx, *g); err != nil {
		return nil, fmt.Errorf("update graphene batch %q: %w", id, err)
	}
	s.invalidate(ctx)
	return s.GetGraphene(ctx, id)
}

// DeleteGraphene removes a graphene batch and its analyses.
func (s *Service) DeleteGraphene(ctx context.Context, id string) error {
	if err := s.store.DeleteGraphene(ctx, id); err != nil {
		return fmt.Errorf("delete graphene batch %q: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

func applyGrapheneInput(g *api.GrapheneBatch, in api.GrapheneBatchInput) {
	g.Name = in.Name
	if in.DateCreated != nil {
		g.DateCreated = *in.DateCreated
	}
	g.Oven = in.Oven
	g.Operator = in.Operator
	g.ParentBiocharIDs = append([]string{}, in.ParentBiocharIDs...)
	g.IsPooled = in.IsPooled
	g.Temperature = in.Temperature
	g.TimeHours = in.TimeHours
	g.GrindingMethod = in.GrindingMethod
	g.GasType = in.GasType
	g.KOHRatio = in.KOHRatio
	g.OutputWeight = in.OutputWeight
	g.Species = in.Species
	g.Appearance = in.Appearance
	g.ShippedTo = in.ShippedTo
	g.ShippedDate = in.ShippedDate
	g.ShippedWeight = in.ShippedWeight
	g.ShipmentNotes = in.ShipmentNotes
	g.IsOvenCEra = in.IsOvenCEra
	g.QualityNotes = in.QualityNotes
}

// ─── Registry ───────────────────────────────────────────────────────────────

// CreateMilestone records a lab milestone.
func (s *Service) CreateMilestone(ctx context.Context, in api.MilestoneInput) (*api.Milestone, error) {
	if in.DateOccurred == nil {
		return nil, ValidationError{Field: "date_occurred", Message: "is required"}
	}
	m := api.Milestone{
		ID:               uuid.New().String(),
		DateOccurred:     *in.DateOccurred,
		Title:            in.Title,
		Description:      in.Description,
		ImpactLevel:      in.ImpactLevel,
		AffectedBatchIDs: append([]string{}, in.AffectedBatchIDs...),
		CreatedAt:        s.now().UTC(),
	}
	if err := s.store.CreateMilestone(ctx, m); err != nil {
		return nil, fmt.Errorf("create milestone: %w", err)
	}
	return &m, nil
}

// ListMilestones returns every milestone in date order.
func (s *Service) ListMilestones(ctx context.Context) ([]api.Milestone, error) {
	list, err := s.store.ListMilestones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	return list, nil
}

// CreateEquipment records an oven or reactor.
func (s *Service) CreateEquipment(ctx context.Context, in api.EquipmentInput) (*api.Equipment, error) {
	e := api.Equipment{
		ID:                uuid.New().String(),
		Name:              in.Name,
		Type:              in.Type,
		CapacityGrams:     in.CapacityGrams,
		IsProductionReady: in.IsProductionReady,
		InstallationDate:  in.InstallationDate,
		Notes:             in.Notes,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.store.CreateEquipment(ctx, e); err != nil {
		return nil, fmt.Errorf("create equipment: %w", err)
	}
	return &e, nil
}

// ListEquipment returns every equipment record.
func (s *Service) ListEquipment(ctx context.Context) ([]api.Equipment, error) {
	list, err := s.store.ListEquipment(ctx)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return list, nil
}
