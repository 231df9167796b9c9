package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
	"github.com/tilsley/hgraph/pkg/api"
)

// pgUniqueViolation is the SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

// Compile-time check: *PGStore implements batches.Store.
var _ batches.Store = (*PGStore)(nil)

// DBInterface is the subset of a pgx pool the store needs. *pgxpool.Pool
// satisfies it, and so does pgxmock in tests.
type DBInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGStore implements batches.Store using PostgreSQL.
type PGStore struct {
	db DBInterface
}

// NewPGStore creates a new PGStore.
func NewPGStore(db DBInterface) *PGStore {
	return &PGStore{db: db}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var (
	biocharColumns = []string{
		"id", "name", "date_created", "oven", "operator",
		"temperature", "time_hours", "pressure_bar", "koh_ratio", "water_percent",
		"input_weight", "output_weight", "yield_percent",
		"is_milestone", "quality_notes", "created_at", "updated_at",
	}
	grapheneColumns = []string{
		"id", "name", "date_created", "oven", "operator",
		"parent_biochar_ids", "is_pooled",
		"temperature", "time_hours", "grinding_method", "gas_type", "koh_ratio", "output_weight",
		"species", "appearance",
		"shipped_to", "shipped_date", "shipped_weight", "shipment_notes",
		"is_oven_c_era", "quality_notes", "created_at", "updated_at",
	}
	analysisColumns = []string{
		"id", "graphene_batch_id", "date_analyzed",
		"bet_surface_area", "bet_langmuir", "conductivity", "conductivity_unit", "capacitance", "pore_size",
		"analysis_method", "instrument", "analyst",
		"sem_images", "tem_images", "reports", "comments", "created_at",
	}
	milestoneColumns = []string{
		"id", "date_occurred", "title", "description", "impact_level", "affected_batch_ids", "created_at",
	}
	equipmentColumns = []string{
		"id", "name", "type", "capacity_grams", "is_production_ready", "installation_date", "notes", "created_at",
	}
)

// Ping checks the database connection.
func (s *PGStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// ── biochar ─────────────────────────────────────────────────────────────────

// CreateBiochar inserts a biochar batch.
func (s *PGStore) CreateBiochar(ctx context.Context, b api.BiocharBatch) error {
	q := psql.Insert("biochar_batches").Columns(biocharColumns...).Values(biocharValues(b)...)
	if err := s.exec(ctx, q); err != nil {
		return mapUnique(err, batches.ResourceBiochar, b.Name)
	}
	return nil
}

// GetBiochar returns a batch by ID. Returns nil, nil if not found.
func (s *PGStore) GetBiochar(ctx context.Context, id string) (*api.BiocharBatch, error) {
	var b api.BiocharBatch
	q := psql.Select(biocharColumns...).From("biochar_batches").Where(squirrel.Eq{"id": id})
	return getOne(ctx, s.db, q, &b)
}

// GetBiocharByName returns a batch by name. Returns nil, nil if not found.
func (s *PGStore) GetBiocharByName(ctx context.Context, name string) (*api.BiocharBatch, error) {
	var b api.BiocharBatch
	q := psql.Select(biocharColumns...).From("biochar_batches").Where(squirrel.Eq{"name": name})
	return getOne(ctx, s.db, q, &b)
}

// ListBiochar returns batches matching f, newest first.
func (s *PGStore) ListBiochar(ctx context.Context, f batches.BiocharFilter) ([]api.BiocharBatch, error) {
	q := psql.Select(biocharColumns...).From("biochar_batches").
		OrderBy("date_created DESC", "name DESC")
	if f.Oven != "" {
		q = q.Where("lower(oven) = lower(?)", f.Oven)
	}
	if f.Operator != "" {
		q = q.Where("lower(operator) = lower(?)", f.Operator)
	}
	out := []api.BiocharBatch{}
	if err := selectAll(ctx, s.db, page(q, f.Page), &out); err != nil {
		return nil, fmt.Errorf("list biochar batches: %w", err)
	}
	return out, nil
}

// UpdateBiochar overwrites every column of an existing batch.
func (s *PGStore) UpdateBiochar(ctx context.Context, b api.BiocharBatch) error {
	q := psql.Update("biochar_batches").SetMap(setMap(biocharColumns, biocharValues(b))).
		Where(squirrel.Eq{"id": b.ID})
	return s.update(ctx, q, batches.ResourceBiochar, b.ID, b.Name)
}

// DeleteBiochar removes a batch.
func (s *PGStore) DeleteBiochar(ctx context.Context, id string) error {
	return s.delete(ctx, "biochar_batches", batches.ResourceBiochar, id)
}

func biocharValues(b api.BiocharBatch) []any {
	return []any{
		b.ID, b.Name, dateArg(b.DateCreated), b.Oven, b.Operator,
		b.Temperature, b.TimeHours, b.PressureBar, b.KOHRatio, b.WaterPercent,
		b.InputWeight, b.OutputWeight, b.YieldPercent,
		b.IsMilestone, b.QualityNotes, b.CreatedAt, b.UpdatedAt,
	}
}

// ── graphene ────────────────────────────────────────────────────────────────

// CreateGraphene inserts a graphene batch.
func (s *PGStore) CreateGraphene(ctx context.Context, g api.GrapheneBatch) error {
	values, err := grapheneValues(g)
	if err != nil {
		return err
	}
	q := psql.Insert("graphene_batches").Columns(grapheneColumns...).Values(values...)
	if err := s.exec(ctx, q); err != nil {
		return mapUnique(err, batches.ResourceGraphene, g.Name)
	}
	return nil
}

// GetGraphene returns a batch by ID. Returns nil, nil if not found.
func (s *PGStore) GetGraphene(ctx context.Context, id string) (*api.GrapheneBatch, error) {
	var g api.GrapheneBatch
	q := psql.Select(grapheneColumns...).From("graphene_batches").Where(squirrel.Eq{"id": id})
	return getOne(ctx, s.db, q, &g)
}

// GetGrapheneByName returns a batch by name. Returns nil, nil if not found.
func (s *PGStore) GetGrapheneByName(ctx context.Context, name string) (*api.GrapheneBatch, error) {
	var g api.GrapheneBatch
	q := psql.Select(grapheneColumns...).From("graphene_batches").Where(squirrel.Eq{"name": name})
	return getOne(ctx, s.db, q, &g)
}

// ListGraphene returns batches matching f, newest first.
func (s *PGStore) ListGraphene(ctx context.Context, f batches.GrapheneFilter) ([]api.GrapheneBatch, error) {
	q := psql.Select(grapheneColumns...).From("graphene_batches").
		OrderBy("date_created DESC", "name DESC")
	if f.Oven != "" {
		q = q.Where("lower(oven) = lower(?)", f.Oven)
	}
	if f.Species != nil {
		q = q.Where(squirrel.Eq{"species": *f.Species})
	}
	if f.ShippedOnly {
		q = q.Where(squirrel.And{squirrel.NotEq{"shipped_to": nil}, squirrel.NotEq{"shipped_to": ""}})
	}
	if f.OvenCEra != nil {
		q = q.Where(squirrel.Eq{"is_oven_c_era": *f.OvenCEra})
	}
	out := []api.GrapheneBatch{}
	if err := selectAll(ctx, s.db, page(q, f.Page), &out); err != nil {
		return nil, fmt.Errorf("list graphene batches: %w", err)
	}
	return out, nil
}

// UpdateGraphene overwrites every column of an existing batch.
func (s *PGStore) UpdateGraphene(ctx context.Context, g api.GrapheneBatch) error {
	values, err := grapheneValues(g)
	if err != nil {
		return err
	}
	q := psql.Update("graphene_batches").SetMap(setMap(grapheneColumns, values)).
		Where(squirrel.Eq{"id": g.ID})
	return s.update(ctx, q, batches.ResourceGraphene, g.ID, g.Name)
}

// DeleteGraphene removes a batch; its analyses go with it (ON DELETE CASCADE).
func (s *PGStore) DeleteGraphene(ctx context.Context, id string) error {
	return s.delete(ctx, "graphene_batches", batches.ResourceGraphene, id)
}

func grapheneValues(g api.GrapheneBatch) ([]any, error) {
	parents, err := jsonList(g.ParentBiocharIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal parent_biochar_ids: %w", err)
	}
	return []any{
		g.ID, g.Name, dateArg(g.DateCreated), g.Oven, g.Operator,
		parents, g.IsPooled,
		g.Temperature, g.TimeHours, g.GrindingMethod, g.GasType, g.KOHRatio, g.OutputWeight,
		g.Species, g.Appearance,
		g.ShippedTo, datePtrArg(g.ShippedDate), g.ShippedWeight, g.ShipmentNotes,
		g.IsOvenCEra, g.QualityNotes, g.CreatedAt, g.UpdatedAt,
	}, nil
}

// ── analyses ────────────────────────────────────────────────────────────────

// CreateAnalysis inserts an analysis result.
func (s *PGStore) CreateAnalysis(ctx context.Context, a api.AnalysisResult) error {
	sem, err := jsonList(a.SEMImages)
	if err != nil {
		return fmt.Errorf("marshal sem_images: %w", err)
	}
	tem, err := jsonList(a.TEMImages)
	if err != nil {
		return fmt.Errorf("marshal tem_images: %w", err)
	}
	reports, err := jsonList(a.Reports)
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}
	q := psql.Insert("analysis_results").Columns(analysisColumns...).Values(
		a.ID, a.GrapheneBatchID, dateArg(a.DateAnalyzed),
		a.BETSurfaceArea, a.BETLangmuir, a.Conductivity, a.ConductivityUnit, a.Capacitance, a.PoreSize,
		a.AnalysisMethod, a.Instrument, a.Analyst,
		sem, tem, reports, a.Comments, a.CreatedAt,
	)
	return s.exec(ctx, q)
}

// GetAnalysis returns an analysis by ID. Returns nil, nil if not found.
func (s *PGStore) GetAnalysis(ctx context.Context, id string) (*api.AnalysisResult, error) {
	var a api.AnalysisResult
	q := psql.Select(analysisColumns...).From("analysis_results").Where(squirrel.Eq{"id": id})
	return getOne(ctx, s.db, q, &a)
}

// ListAnalysesByBatch returns a batch's analyses, most recent first.
func (s *PGStore) ListAnalysesByBatch(ctx context.Context, batchID string) ([]api.AnalysisResult, error) {
	q := psql.Select(analysisColumns...).From("analysis_results").
		Where(squirrel.Eq{"graphene_batch_id": batchID}).
		OrderBy("date_analyzed DESC", "created_at DESC")
	out := []api.AnalysisResult{}
	if err := selectAll(ctx, s.db, q, &out); err != nil {
		return nil, fmt.Errorf("list analyses for %q: %w", batchID, err)
	}
	return out, nil
}

// ListAnalysesByBatches groups the analyses of the given batches by batch ID.
func (s *PGStore) ListAnalysesByBatches(ctx context.Context, batchIDs []string) (map[string][]api.AnalysisResult, error) {
	out := make(map[string][]api.AnalysisResult, len(batchIDs))
	if len(batchIDs) == 0 {
		return out, nil
	}
	q := psql.Select(analysisColumns...).From("analysis_results").
		Where(squirrel.Eq{"graphene_batch_id": batchIDs}).
		OrderBy("date_analyzed DESC", "created_at DESC")
	var list []api.AnalysisResult
	if err := selectAll(ctx, s.db, q, &list); err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	for _, a := range list {
		out[a.GrapheneBatchID] = append(out[a.GrapheneBatchID], a)
	}
	return out, nil
}

// ListAnalyses returns every analysis, most recent first.
func (s *PGStore) ListAnalyses(ctx context.Context) ([]api.AnalysisResult, error) {
	q := psql.Select(analysisColumns...).From("analysis_results").
		OrderBy("date_analyzed DESC", "created_at DESC")
	out := []api.AnalysisResult{}
	if err := selectAll(ctx, s.db, q, &out); err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return out, nil
}

// AppendAnalysisImages adds stored image paths to an analysis.
func (s *PGStore) AppendAnalysisImages(ctx context.Context, id string, sem, tem []string) error {
	semJSON, err := jsonList(sem)
	if err != nil {
		return fmt.Errorf("marshal sem_images: %w", err)
	}
	temJSON, err := jsonList(tem)
	if err != nil {
		return fmt.Errorf("marshal tem_images: %w", err)
	}
	q := psql.Update("analysis_results").
		Set("sem_images", squirrel.Expr("sem_images || ?::jsonb", semJSON)).
		Set("tem_images", squirrel.Expr("tem_images || ?::jsonb", temJSON)).
		Where(squirrel.Eq{"id": id})
	return s.update(ctx, q, batches.ResourceAnalysis, id, "")
}

// DeleteAnalysis removes an analysis.
func (s *PGStore) DeleteAnalysis(ctx context.Context, id string) error {
	return s.delete(ctx, "analysis_results", batches.ResourceAnalysis, id)
}

// ── registry ────────────────────────────────────────────────────────────────

// CreateMilestone inserts a milestone.
func (s *PGStore) CreateMilestone(ctx context.Context, m api.Milestone) error {
	affected, err := jsonList(m.AffectedBatchIDs)
	if err != nil {
		return fmt.Errorf("marshal affected_batch_ids: %w", err)
	}
	q := psql.Insert("milestones").Columns(milestoneColumns...).Values(
		m.ID, dateArg(m.DateOccurred), m.Title, m.Description, m.ImpactLevel, affected, m.CreatedAt,
	)
	return s.exec(ctx, q)
}

// ListMilestones returns milestones in date order.
func (s *PGStore) ListMilestones(ctx context.Context) ([]api.Milestone, error) {
	q := psql.Select(milestoneColumns...).From("milestones").OrderBy("date_occurred", "title")
	out := []api.Milestone{}
	if err := selectAll(ctx, s.db, q, &out); err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	return out, nil
}

// CreateEquipment inserts an equipment record.
func (s *PGStore) CreateEquipment(ctx context.Context, e api.Equipment) error {
	q := psql.Insert("equipment").Columns(equipmentColumns...).Values(
		e.ID, e.Name, e.Type, e.CapacityGrams, e.IsProductionReady, datePtrArg(e.InstallationDate), e.Notes, e.CreatedAt,
	)
	if err := s.exec(ctx, q); err != nil {
		return mapUnique(err, batches.ResourceEquipment, e.Name)
	}
	return nil
}

// ListEquipment returns equipment ordered by name.
func (s *PGStore) ListEquipment(ctx context.Context) ([]api.Equipment, error) {
	q := psql.Select(equipmentColumns...).From("equipment").OrderBy("name")
	out := []api.Equipment{}
	if err := selectAll(ctx, s.db, q, &out); err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return out, nil
}

// ── reporting ───────────────────────────────────────────────────────────────

// BatchPerformance returns one row per graphene batch, oldest first, with
// the best positive BET and conductivity of its analyses.
func (s *PGStore) BatchPerformance(ctx context.Context) ([]api.BatchPerformance, error) {
	q := psql.Select(
		"g.name", "g.date_created", "g.oven", "g.species", "g.temperature", "g.koh_ratio", "g.is_oven_c_era",
		"(g.shipped_to IS NOT NULL AND g.shipped_to <> '') AS shipped", "g.shipped_to",
		"MAX(a.bet_surface_area) FILTER (WHERE a.bet_surface_area > 0) AS best_bet",
		"MAX(a.conductivity) FILTER (WHERE a.conductivity > 0) AS best_conductivity",
	).
		From("graphene_batches g").
		LeftJoin("analysis_results a ON a.graphene_batch_id = g.id").
		GroupBy("g.id").
		OrderBy("g.date_created", "g.name")
	out := []api.BatchPerformance{}
	if err := selectAll(ctx, s.db, q, &out); err != nil {
		return nil, fmt.Errorf("batch performance: %w", err)
	}
	return out, nil
}

// ── helpers ─────────────────────────────────────────────────────────────────

func (s *PGStore) exec(ctx context.Context, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

func (s *PGStore) update(ctx context.Context, q squirrel.UpdateBuilder, resource, id, name string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return mapUnique(fmt.Errorf("update %s: %w", resource, err), resource, name)
	}
	if tag.RowsAffected() == 0 {
		return batches.NotFoundError{Resource: resource, ID: id}
	}
	return nil
}

func (s *PGStore) delete(ctx context.Context, table, resource, id string) error {
	sql, args, err := psql.Delete(table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", resource, err)
	}
	if tag.RowsAffected() == 0 {
		return batches.NotFoundError{Resource: resource, ID: id}
	}
	return nil
}

func getOne[T any](ctx context.Context, db DBInterface, q squirrel.SelectBuilder, dst *T) (*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	if err := pgxscan.Get(ctx, db, dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil //nolint:nilnil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	return dst, nil
}

func selectAll(ctx context.Context, db DBInterface, q squirrel.SelectBuilder, dst any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build select: %w", err)
	}
	return pgxscan.Select(ctx, db, dst, sql, args...)
}

func page(q squirrel.SelectBuilder, p batches.Page) squirrel.SelectBuilder {
	if p.Skip > 0 {
		q = q.Offset(uint64(p.Skip))
	}
	if p.Limit > 0 {
		q = q.Limit(uint64(p.Limit))
	}
	return q
}

func setMap(columns []string, values []any) map[string]any {
	m := make(map[string]any, len(columns))
	for i, c := range columns {
		if c == "id" || c == "created_at" {
			continue
		}
		m[c] = values[i]
	}
	return m
}

func mapUnique(err error, resource, name string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return batches.DuplicateNameError{Resource: resource, Name: name}
	}
	return err
}

// jsonList marshals a list for a JSONB column; nil becomes an empty array.
func jsonList(v []string) ([]byte, error) {
	if v == nil {
		v = []string{}
	}
	return json.Marshal(v)
}

func dateArg(d api.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Time
}

func datePtrArg(d *api.Date) any {
	if d == nil {
		return nil
	}
	return dateArg(*d)
}
