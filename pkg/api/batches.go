// Package api holds the JSON contract shared by the hgraph server, its
// stores and the seed tooling. Field names follow the snake_case wire format
// used by the lab dashboard.
package api

import "time"

// BiocharBatch is a stage-one carbonisation run.
type BiocharBatch struct {
	ID          string  `json:"id"                      db:"id"`
	Name        string  `json:"name"                    db:"name"`
	DateCreated Date    `json:"date_created"            db:"date_created"`
	Oven        *string `json:"oven,omitempty"          db:"oven"`
	Operator    *string `json:"operator,omitempty"      db:"operator"`

	Temperature  *float64 `json:"temperature,omitempty"   db:"temperature"`
	TimeHours    *float64 `json:"time_hours,omitempty"    db:"time_hours"`
	PressureBar  *float64 `json:"pressure_bar,omitempty"  db:"pressure_bar"`
	KOHRatio     *float64 `json:"koh_ratio,omitempty"     db:"koh_ratio"`
	WaterPercent *float64 `json:"water_percent,omitempty" db:"water_percent"`

	InputWeight  *float64 `json:"input_weight,omitempty"  db:"input_weight"`
	OutputWeight *float64 `json:"output_weight,omitempty" db:"output_weight"`
	YieldPercent *float64 `json:"yield_percent,omitempty" db:"yield_percent"`

	IsMilestone  bool    `json:"is_milestone"            db:"is_milestone"`
	QualityNotes *string `json:"quality_notes,omitempty" db:"quality_notes"`

	CreatedAt time.Time  `json:"created_at"           db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// BiocharBatchInput is the create/update payload for a biochar batch.
type BiocharBatchInput struct {
	Name         string   `json:"name"                    binding:"required,max=50"`
	DateCreated  *Date    `json:"date_created"            binding:"required"`
	Oven         *string  `json:"oven,omitempty"          binding:"omitempty,max=20"`
	Operator     *string  `json:"operator,omitempty"      binding:"omitempty,max=50"`
	Temperature  *float64 `json:"temperature,omitempty"`
	TimeHours    *float64 `json:"time_hours,omitempty"    binding:"omitempty,gte=0"`
	PressureBar  *float64 `json:"pressure_bar,omitempty"`
	KOHRatio     *float64 `json:"koh_ratio,omitempty"     binding:"omitempty,gte=0"`
	WaterPercent *float64 `json:"water_percent,omitempty" binding:"omitempty,gte=0,lte=100"`
	InputWeight  *float64 `json:"input_weight,omitempty"  binding:"omitempty,gte=0"`
	OutputWeight *float64 `json:"output_weight,omitempty" binding:"omitempty,gte=0"`
	YieldPercent *float64 `json:"yield_percent,omitempty"`
	IsMilestone  bool     `json:"is_milestone"`
	QualityNotes *string  `json:"quality_notes,omitempty"`
}

// GrapheneBatch is a stage-two activation run produced from one or more
// biochar lots.
type GrapheneBatch struct {
	ID          string  `json:"id"                 db:"id"`
	Name        string  `json:"name"               db:"name"`
	DateCreated Date    `json:"date_created"       db:"date_created"`
	Oven        *string `json:"oven,omitempty"     db:"oven"`
	Operator    *string `json:"operator,omitempty" db:"operator"`

	ParentBiocharIDs []string `json:"parent_biochar_ids" db:"parent_biochar_ids"`
	IsPooled         bool     `json:"is_pooled"          db:"is_pooled"`

	Temperature    *float64 `json:"temperature,omitempty"     db:"temperature"`
	TimeHours      *float64 `json:"time_hours,omitempty"      db:"time_hours"`
	GrindingMethod *string  `json:"grinding_method,omitempty" db:"grinding_method"`
	GasType        *string  `json:"gas_type,omitempty"        db:"gas_type"`
	KOHRatio       *float64 `json:"koh_ratio,omitempty"       db:"koh_ratio"`
	OutputWeight   *float64 `json:"output_weight,omitempty"   db:"output_weight"`

	Species    *int    `json:"species,omitempty"    db:"species"`
	Appearance *string `json:"appearance,omitempty" db:"appearance"`

	ShippedTo     *string  `json:"shipped_to,omitempty"     db:"shipped_to"`
	ShippedDate   *Date    `json:"shipped_date,omitempty"   db:"shipped_date"`
	ShippedWeight *float64 `json:"shipped_weight,omitempty" db:"shipped_weight"`
	ShipmentNotes *string  `json:"shipment_notes,omitempty" db:"shipment_notes"`

	IsOvenCEra   bool    `json:"is_oven_c_era"           db:"is_oven_c_era"`
	QualityNotes *string `json:"quality_notes,omitempty" db:"quality_notes"`

	CreatedAt time.Time  `json:"created_at"           db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`

	// Analysis summary, computed on read.
	AnalysisCount    int      `json:"analysis_count"              db:"-"`
	BestBET          *float64 `json:"best_bet,omitempty"          db:"-"`
	BestConductivity *float64 `json:"best_conductivity,omitempty" db:"-"`
}

// Shipped reports whether the batch has left the lab.
func (g GrapheneBatch) Shipped() bool {
	return g.ShippedTo != nil && *g.ShippedTo != ""
}

// GrapheneBatchInput is the create/update payload for a graphene batch.
type GrapheneBatchInput struct {
	Name             string   `json:"name"                      binding:"required,max=50"`
	DateCreated      *Date    `json:"date_created"              binding:"required"`
	Oven             *string  `json:"oven,omitempty"            binding:"omitempty,max=20"`
	Operator         *string  `json:"operator,omitempty"        binding:"omitempty,max=50"`
	ParentBiocharIDs []string `json:"parent_biochar_ids,omitempty" binding:"omitempty,dive,uuid"`
	IsPooled         bool     `json:"is_pooled"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TimeHours        *float64 `json:"time_hours,omitempty"      binding:"omitempty,gte=0"`
	GrindingMethod   *string  `json:"grinding_method,omitempty" binding:"omitempty,max=50"`
	GasType          *string  `json:"gas_type,omitempty"        binding:"omitempty,max=20"`
	KOHRatio         *float64 `json:"koh_ratio,omitempty"       binding:"omitempty,gte=0"`
	OutputWeight     *float64 `json:"output_weight,omitempty"   binding:"omitempty,gte=0"`
	Species          *int     `json:"species,omitempty"         binding:"omitempty,species"`
	Appearance       *string  `json:"appearance,omitempty"`
	ShippedTo        *string  `json:"shipped_to,omitempty"      binding:"omitempty,max=100"`
	ShippedDate      *Date    `json:"shipped_date,omitempty"`
	ShippedWeight    *float64 `json:"shipped_weight,omitempty"  binding:"omitempty,gte=0"`
	ShipmentNotes    *string  `json:"shipment_notes,omitempty"`
	IsOvenCEra       bool     `json:"is_oven_c_era"`
	QualityNotes     *string  `json:"quality_notes,omitempty"`
}

// AnalysisResult is one set of material measurements for a graphene batch.
type AnalysisResult struct {
	ID              string `json:"id"                db:"id"`
	GrapheneBatchID string `json:"graphene_batch_id" db:"graphene_batch_id"`
	DateAnalyzed    Date   `json:"date_analyzed"     db:"date_analyzed"`

	BETSurfaceArea   *float64 `json:"bet_surface_area,omitempty" db:"bet_surface_area"`
	BETLangmuir      *float64 `json:"bet_langmuir,omitempty"     db:"bet_langmuir"`
	Conductivity     *float64 `json:"conductivity,omitempty"     db:"conductivity"`
	ConductivityUnit string   `json:"conductivity_unit"          db:"conductivity_unit"`
	Capacitance      *float64 `json:"capacitance,omitempty"      db:"capacitance"`
	PoreSize         *float64 `json:"pore_size,omitempty"        db:"pore_size"`

	AnalysisMethod *string `json:"analysis_method,omitempty" db:"analysis_method"`
	Instrument     *string `json:"instrument,omitempty"      db:"instrument"`
	Analyst        *string `json:"analyst,omitempty"         db:"analyst"`

	SEMImages []string `json:"sem_images" db:"sem_images"`
	TEMImages []string `json:"tem_images" db:"tem_images"`
	Reports   []string `json:"reports"    db:"reports"`

	Comments  *string   `json:"comments,omitempty" db:"comments"`
	CreatedAt time.Time `json:"created_at"         db:"created_at"`

	EnergyStorageGrade *string `json:"energy_storage_grade,omitempty" db:"-"`
}

// AnalysisResultInput is the create payload for an analysis result.
type AnalysisResultInput struct {
	GrapheneBatchID  string   `json:"graphene_batch_id"          binding:"required,uuid"`
	DateAnalyzed     *Date    `json:"date_analyzed"              binding:"required"`
	BETSurfaceArea   *float64 `json:"bet_surface_area,omitempty" binding:"omitempty,gte=0"`
	BETLangmuir      *float64 `json:"bet_langmuir,omitempty"     binding:"omitempty,gte=0"`
	Conductivity     *float64 `json:"conductivity,omitempty"`
	ConductivityUnit string   `json:"conductivity_unit,omitempty" binding:"omitempty,max=10,conductivity_unit"`
	Capacitance      *float64 `json:"capacitance,omitempty"`
	PoreSize         *float64 `json:"pore_size,omitempty"`
	AnalysisMethod   *string  `json:"analysis_method,omitempty"  binding:"omitempty,max=50"`
	Instrument       *string  `json:"instrument,omitempty"       binding:"omitempty,max=50"`
	Analyst          *string  `json:"analyst,omitempty"          binding:"omitempty,max=50"`
	SEMImages        []string `json:"sem_images,omitempty"`
	TEMImages        []string `json:"tem_images,omitempty"`
	Reports          []string `json:"reports,omitempty"`
	Comments         *string  `json:"comments,omitempty"`
}

// Milestone marks a lab event that changed how batches are produced.
type Milestone struct {
	ID               string    `json:"id"                     db:"id"`
	DateOccurred     Date      `json:"date_occurred"          db:"date_occurred"`
	Title            string    `json:"title"                  db:"title"`
	Description      *string   `json:"description,omitempty"  db:"description"`
	ImpactLevel      *string   `json:"impact_level,omitempty" db:"impact_level"`
	AffectedBatchIDs []string  `json:"affected_batch_ids"     db:"affected_batch_ids"`
	CreatedAt        time.Time `json:"created_at"             db:"created_at"`
}

// MilestoneInput is the create payload for a milestone.
type MilestoneInput struct {
	DateOccurred     *Date    `json:"date_occurred"                binding:"required"`
	Title            string   `json:"title"                        binding:"required,max=100"`
	Description      *string  `json:"description,omitempty"`
	ImpactLevel      *string  `json:"impact_level,omitempty"       binding:"omitempty,oneof=major minor protocol_change"`
	AffectedBatchIDs []string `json:"affected_batch_ids,omitempty" binding:"omitempty,dive,uuid"`
}

// Equipment is an oven or reactor used in either stage.
type Equipment struct {
	ID                string    `json:"id"                          db:"id"`
	Name              string    `json:"name"                        db:"name"`
	Type              *string   `json:"type,omitempty"              db:"type"`
	CapacityGrams     *float64  `json:"capacity_grams,omitempty"    db:"capacity_grams"`
	IsProductionReady bool      `json:"is_production_ready"         db:"is_production_ready"`
	InstallationDate  *Date     `json:"installation_date,omitempty" db:"installation_date"`
	Notes             *string   `json:"notes,omitempty"             db:"notes"`
	CreatedAt         time.Time `json:"created_at"                  db:"created_at"`
}

// EquipmentInput is the create payload for an equipment record.
type EquipmentInput struct {
	Name              string   `json:"name"                        binding:"required,max=50"`
	Type              *string  `json:"type,omitempty"              binding:"omitempty,oneof=rotating_oven static_oven"`
	CapacityGrams     *float64 `json:"capacity_grams,omitempty"    binding:"omitempty,gte=0"`
	IsProductionReady bool     `json:"is_production_ready"`
	InstallationDate  *Date    `json:"installation_date,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
}
