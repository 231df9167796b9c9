// Package seed loads reference equipment, milestones and sample batches
// into an empty or partially populated store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
	"github.com/tilsley/hgraph/pkg/api"
)

//go:embed seed.yaml
var defaultFixture []byte

// Document is the seed file layout.
type Document struct {
	Equipment  []Equipment `yaml:"equipment"`
	Milestones []Milestone `yaml:"milestones"`
	Biochar    []Biochar   `yaml:"biochar"`
	Graphene   []Graphene  `yaml:"graphene"`
}

type Equipment struct {
	Name              string    `yaml:"name"`
	Type              *string   `yaml:"type"`
	CapacityGrams     *float64  `yaml:"capacity_grams"`
	IsProductionReady bool      `yaml:"is_production_ready"`
	InstallationDate  *api.Date `yaml:"installation_date"`
	Notes             *string   `yaml:"notes"`
}

type Milestone struct {
	DateOccurred api.Date `yaml:"date_occurred"`
	Title        string   `yaml:"title"`
	Description  *string  `yaml:"description"`
	ImpactLevel  *string  `yaml:"impact_level"`
}

type Biochar struct {
	Name         string   `yaml:"name"`
	DateCreated  api.Date `yaml:"date_created"`
	Oven         *string  `yaml:"oven"`
	Operator     *string  `yaml:"operator"`
	Temperature  *float64 `yaml:"temperature"`
	TimeHours    *float64 `yaml:"time_hours"`
	PressureBar  *float64 `yaml:"pressure_bar"`
	KOHRatio     *float64 `yaml:"koh_ratio"`
	WaterPercent *float64 `yaml:"water_percent"`
	InputWeight  *float64 `yaml:"input_weight"`
	OutputWeight *float64 `yaml:"output_weight"`
	QualityNotes *string  `yaml:"quality_notes"`
}

// Graphene lists its parents by biochar name and carries its analyses.
type Graphene struct {
	Name           string     `yaml:"name"`
	DateCreated    api.Date   `yaml:"date_created"`
	Oven           *string    `yaml:"oven"`
	Operator       *string    `yaml:"operator"`
	Parents        []string   `yaml:"parents"`
	Species        *int       `yaml:"species"`
	Temperature    *float64   `yaml:"temperature"`
	TimeHours      *float64   `yaml:"time_hours"`
	GrindingMethod *string    `yaml:"grinding_method"`
	GasType        *string    `yaml:"gas_type"`
	KOHRatio       *float64   `yaml:"koh_ratio"`
	OutputWeight   *float64   `yaml:"output_weight"`
	Appearance     *string    `yaml:"appearance"`
	ShippedTo      *string    `yaml:"shipped_to"`
	ShippedDate    *api.Date  `yaml:"shipped_date"`
	ShippedWeight  *float64   `yaml:"shipped_weight"`
	QualityNotes   *string    `yaml:"quality_notes"`
	Analyses       []Analysis `yaml:"analyses"`
}

type Analysis struct {
	DateAnalyzed     api.Date `yaml:"date_analyzed"`
	BETSurfaceArea   *float64 `yaml:"bet_surface_area"`
	BETLangmuir      *float64 `yaml:"bet_langmuir"`
	Conductivity     *float64 `yaml:"conductivity"`
	ConductivityUnit string   `yaml:"conductivity_unit"`
	Capacitance      *float64 `yaml:"capacitance"`
	PoreSize         *float64 `yaml:"pore_size"`
	AnalysisMethod   *string  `yaml:"analysis_method"`
	Analyst          *string  `yaml:"analyst"`
	Comments         *string  `yaml:"comments"`
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &doc, nil
}

// Default returns the embedded fixture.
func Default() (*Document, error) {
	return Parse(bytes.NewReader(defaultFixture))
}

// Lookup finds records that already exist. batches.Store satisfies it.
type Lookup interface {
	GetBiocharByName(ctx context.Context, name string) (*api.BiocharBatch, error)
	GetGrapheneByName(ctx context.Context, name string) (*api.GrapheneBatch, error)
	ListMilestones(ctx context.Context) ([]api.Milestone, error)
	ListEquipment(ctx context.Context) ([]api.Equipment, error)
}

// Report counts what a Run did.
type Report struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Seeder writes a Document through the service so derived fields are
// computed exactly as for API writes.
type Seeder struct {
	svc    *batches.Service
	lookup Lookup
	log    *slog.Logger
}

// New creates a Seeder.
func New(svc *batches.Service, lookup Lookup, log *slog.Logger) *Seeder {
	return &Seeder{svc: svc, lookup: lookup, log: log}
}

// Run creates every record in doc that is not present yet. Analyses are
// only added alongside a graphene batch created in the same run.
func (s *Seeder) Run(ctx context.Context, doc *Document) (Report, error) {
	var rep Report
	steps := []func(context.Context, *Document, *Report) error{
		s.equipment,
		s.milestones,
		s.biochar,
		s.graphene,
	}
	for _, step := range steps {
		if err := step(ctx, doc, &rep); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

func (s *Seeder) equipment(ctx context.Context, doc *Document, rep *Report) error {
	existing, err := s.lookup.ListEquipment(ctx)
	if err != nil {
		return fmt.Errorf("list equipment: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, e := range existing {
		have[e.Name] = true
	}
	for _, e := range doc.Equipment {
		if have[e.Name] {
			s.skip(rep, "equipment", e.Name)
			continue
		}
		if _, err := s.svc.CreateEquipment(ctx, api.EquipmentInput{
			Name:              e.Name,
			Type:              e.Type,
			CapacityGrams:     e.CapacityGrams,
			IsProductionReady: e.IsProductionReady,
			InstallationDate:  e.InstallationDate,
			Notes:             e.Notes,
		}); err != nil {
			return fmt.Errorf("equipment %s: %w", e.Name, err)
		}
		rep.Created++
	}
	return nil
}

func (s *Seeder) milestones(ctx context.Context, doc *Document, rep *Report) error {
	existing, err := s.lookup.ListMilestones(ctx)
	if err != nil {
		return fmt.Errorf("list milestones: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, m := range existing {
		have[milestoneKey(m.DateOccurred, m.Title)] = true
	}
	for _, m := range doc.Milestones {
		if have[milestoneKey(m.DateOccurred, m.Title)] {
			s.skip(rep, "milestone", m.Title)
			continue
		}
		occurred := m.DateOccurred
		if _, err := s.svc.CreateMilestone(ctx, api.MilestoneInput{
			DateOccurred: &occurred,
			Title:        m.Title,
			Description:  m.Description,
			ImpactLevel:  m.ImpactLevel,
		}); err != nil {
			return fmt.Errorf("milestone %s: %w", m.Title, err)
		}
		rep.Created++
	}
	return nil
}

func milestoneKey(d api.Date, title string) string {
	return d.String() + "|" + title
}

func (s *Seeder) biochar(ctx context.Context, doc *Document, rep *Report) error {
	for _, b := range doc.Biochar {
		found, err := s.lookup.GetBiocharByName(ctx, b.Name)
		if err != nil {
			return fmt.Errorf("lookup biochar %s: %w", b.Name, err)
		}
		if found != nil {
			s.skip(rep, "biochar batch", b.Name)
			continue
		}
		created := b.DateCreated
		if _, err := s.svc.CreateBiochar(ctx, api.BiocharBatchInput{
			Name:         b.Name,
			DateCreated:  &created,
			Oven:         b.Oven,
			Operator:     b.Operator,
			Temperature:  b.Temperature,
			TimeHours:    b.TimeHours,
			PressureBar:  b.PressureBar,
			KOHRatio:     b.KOHRatio,
			WaterPercent: b.WaterPercent,
			InputWeight:  b.InputWeight,
			OutputWeight: b.OutputWeight,
			QualityNotes: b.QualityNotes,
		}); err != nil {
			return fmt.Errorf("biochar %s: %w", b.Name, err)
		}
		rep.Created++
	}
	return nil
}

func (s *Seeder) graphene(ctx context.Context, doc *Document, rep *Report) error {
	for _, g := range doc.Graphene {
		found, err := s.lookup.GetGrapheneByName(ctx, g.Name)
		if err != nil {
			return fmt.Errorf("lookup graphene %s: %w", g.Name, err)
		}
		if found != nil {
			s.skip(rep, "graphene batch", g.Name)
			continue
		}

		parents, err := s.parentIDs(ctx, g)
		if err != nil {
			return err
		}
		created := g.DateCreated
		batch, err := s.svc.CreateGraphene(ctx, api.GrapheneBatchInput{
			Name:             g.Name,
			DateCreated:      &created,
			Oven:             g.Oven,
			Operator:         g.Operator,
			ParentBiocharIDs: parents,
			Temperature:      g.Temperature,
			TimeHours:        g.TimeHours,
			GrindingMethod:   g.GrindingMethod,
			GasType:          g.GasType,
			KOHRatio:         g.KOHRatio,
			OutputWeight:     g.OutputWeight,
			Species:          g.Species,
			Appearance:       g.Appearance,
			ShippedTo:        g.ShippedTo,
			ShippedDate:      g.ShippedDate,
			ShippedWeight:    g.ShippedWeight,
			QualityNotes:     g.QualityNotes,
		})
		if err != nil {
			return fmt.Errorf("graphene %s: %w", g.Name, err)
		}
		rep.Created++

		for _, a := range g.Analyses {
			analyzed := a.DateAnalyzed
			if _, err := s.svc.CreateAnalysis(ctx, api.AnalysisResultInput{
				GrapheneBatchID:  batch.ID,
				DateAnalyzed:     &analyzed,
				BETSurfaceArea:   a.BETSurfaceArea,
				BETLangmuir:      a.BETLangmuir,
				Conductivity:     a.Conductivity,
				ConductivityUnit: a.ConductivityUnit,
				Capacitance:      a.Capacitance,
				PoreSize:         a.PoreSize,
				AnalysisMethod:   a.AnalysisMethod,
				Analyst:          a.Analyst,
				Comments:         a.Comments,
			}); err != nil {
				return fmt.Errorf("analysis for %s: %w", g.Name, err)
			}
			rep.Created++
		}
	}
	return nil
}

func (s *Seeder) parentIDs(ctx context.Context, g Graphene) ([]string, error) {
	ids := make([]string, 0, len(g.Parents))
	for _, name := range g.Parents {
		b, err := s.lookup.GetBiocharByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("lookup parent %s: %w", name, err)
		}
		if b == nil {
			return nil, fmt.Errorf("graphene %s: parent biochar %q not found", g.Name, name)
		}
		ids = append(ids, b.ID)
	}
	return ids, nil
}

func (s *Seeder) skip(rep *Report, kind, name string) {
	rep.Skipped++
	s.log.Info("seed record exists, skipping", "kind", kind, "name", name)
}

var _ Lookup = (batches.Store)(nil)
