package api

// DashboardSummary is the executive overview shown on the lab dashboard.
type DashboardSummary struct {
	OvenCPerformance OvenCPerformance `json:"oven_c_performance"`
	Shipments        ShipmentSummary  `json:"shipments"`
	Insights         []string         `json:"insights"`
}

// OvenCPerformance aggregates BET results for batches produced in the Oven C era.
type OvenCPerformance struct {
	TotalBatches int      `json:"total_batches"`
	BestBET      *float64 `json:"best_bet"`
	BestBatch    *string  `json:"best_batch"`
	AvgBETRecent *float64 `json:"avg_bet_recent"`
}

// ShipmentSummary counts shipped and pending batches.
type ShipmentSummary struct {
	TotalShipped    int        `json:"total_shipped"`
	Pending         int        `json:"pending"`
	RecentShipments []Shipment `json:"recent_shipments"`
}

// Shipment is one batch sent to a customer or partner.
type Shipment struct {
	Batch    string   `json:"batch"`
	Customer string   `json:"customer"`
	Weight   *float64 `json:"weight"`
	Date     *Date    `json:"date"`
}

// BatchPerformance is one graphene batch with its best measured values.
type BatchPerformance struct {
	Name         string   `json:"name"                           db:"name"`
	Date         Date     `json:"date"                           db:"date_created"`
	Oven         *string  `json:"oven"                           db:"oven"`
	Species      *int     `json:"species"                        db:"species"`
	Temperature  *float64 `json:"temperature"                    db:"temperature"`
	KOHRatio     *float64 `json:"koh_ratio"                      db:"koh_ratio"`
	IsOvenCEra   bool     `json:"is_oven_c_era"                  db:"is_oven_c_era"`
	Shipped      bool     `json:"shipped"                        db:"shipped"`
	ShippedTo    *string  `json:"shipped_to"                     db:"shipped_to"`
	BET          *float64 `json:"bet"                            db:"best_bet"`
	Conductivity *float64 `json:"conductivity"                   db:"best_conductivity"`
	EnergyGrade  *string  `json:"energy_storage_grade,omitempty" db:"-"`
}

// GradeCount is the number of analyses that fell into one energy-storage grade.
type GradeCount struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
}

// GradeResponse is the result of classifying a single BET value.
type GradeResponse struct {
	Application string      `json:"application"`
	BET         float64     `json:"bet"`
	Grade       *string     `json:"grade"`
	Thresholds  []Threshold `json:"thresholds"`
}

// Threshold is the minimum BET (m²/g) required for a grade.
type Threshold struct {
	Grade  string  `json:"grade"`
	MinBET float64 `json:"min_bet"`
}

// ImportResult reports the outcome of a spreadsheet import.
type ImportResult struct {
	Message       string   `json:"message"`
	ImportedCount int      `json:"imported_count"`
	Errors        []string `json:"errors"`
	TotalRows     int      `json:"total_rows"`
}

// ImportTemplate is an example spreadsheet layout for one data type.
type ImportTemplate struct {
	Columns  []string         `json:"columns"`
	Template map[string][]any `json:"template"`
	Filename string           `json:"filename"`
}

// UploadResult reports how many images were attached to an analysis.
type UploadResult struct {
	Message  string `json:"message"`
	SEMCount int    `json:"sem_count"`
	TEMCount int    `json:"tem_count"`
}
