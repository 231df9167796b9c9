package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tilsley/hgraph/apps/server/internal/batches/derived"
	"github.com/tilsley/hgraph/pkg/api"
)

// DataType selects which record a spreadsheet describes.
type DataType string

// Supported data types.
const (
	Biochar  DataType = "biochar"
	Graphene DataType = "graphene"
	Analysis DataType = "analysis"
)

// ErrInvalidDataType is returned for an unknown data type.
var ErrInvalidDataType = errors.New("invalid data_type")

// ParseDataType validates a data type name.
func ParseDataType(s string) (DataType, error) {
	switch dt := DataType(strings.ToLower(strings.TrimSpace(s))); dt {
	case Biochar, Graphene, Analysis:
		return dt, nil
	default:
		return "", ErrInvalidDataType
	}
}

// Spreadsheet headers as they appear in partner reports.
const (
	colExperiment   = "Experiment"
	colOven         = "Oven"
	colReactor      = "Reactor"
	colLot          = "Lot"
	colTempRate     = "T (rate)"
	colTemp         = "T"
	colTime         = "t"
	colSpecies      = "Species"
	colAppearance   = "Appearance"
	colOutput       = "Output"
	colRawMaterial  = "Raw material"
	colSample       = "Sample"
	colMaterial     = "Material"
	colBET          = "Multipoint BET Area [m^2/g]"
	colLangmuir     = "Langmuir Surface Area [m^2/g]"
	colConductivity = "Conductivity (S/cm)"
	colDate         = "Date"
)

// sourceConductivityUnit is the unit of the conductivity column in partner reports.
const sourceConductivityUnit = "S/cm"

// RowError describes why one spreadsheet row was not imported. Row is the
// zero-based index of the data row.
type RowError struct {
	Row    int
	Reason string
}

// Error implements the error interface.
func (e RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Reason)
}

// GrapheneRow is a parsed graphene spreadsheet row. Lots are biochar batch
// names still to be resolved to IDs.
type GrapheneRow struct {
	Input api.GrapheneBatchInput
	Lots  []string
}

// AnalysisRow is a parsed analysis spreadsheet row keyed by graphene batch name.
type AnalysisRow struct {
	BatchName string
	Input     api.AnalysisResultInput
}

// BiocharFromRow maps a biochar report row. DateCreated is left nil unless
// the sheet has a Date column.
func BiocharFromRow(i int, row Row) (api.BiocharBatchInput, error) {
	name, ok := row.Get(colExperiment)
	if !ok {
		return api.BiocharBatchInput{}, RowError{Row: i, Reason: "Missing experiment name"}
	}
	in := api.BiocharBatchInput{
		Name:         name,
		DateCreated:  dateCell(row),
		Oven:         textCell(row, colReactor),
		Temperature:  quantityCell(row, colTemp),
		TimeHours:    quantityCell(row, colTime),
		OutputWeight: quantityCell(row, colOutput),
		InputWeight:  quantityCell(row, colRawMaterial),
	}
	return in, nil
}

// GrapheneFromRow maps a graphene report row.
func GrapheneFromRow(i int, row Row) (GrapheneRow, error) {
	name, ok := row.Get(colExperiment)
	if !ok {
		return GrapheneRow{}, RowError{Row: i, Reason: "Missing experiment name"}
	}
	in := api.GrapheneBatchInput{
		Name:         name,
		DateCreated:  dateCell(row),
		Oven:         textCell(row, colOven),
		Temperature:  quantityCell(row, colTempRate),
		TimeHours:    quantityCell(row, colTime),
		Appearance:   textCell(row, colAppearance),
		OutputWeight: quantityCell(row, colOutput),
	}
	if v, ok := row.Get(colSpecies); ok {
		in.Species = ParseSpecies(v)
	}
	var lots []string
	if v, ok := row.Get(colLot); ok {
		lots = SplitLots(v)
	}
	return GrapheneRow{Input: in, Lots: lots}, nil
}

// AnalysisFromRow maps a BET/conductivity report row. Measurement cells must
// be plain numbers; anything else is skipped. Conductivity is converted from
// S/cm to S/m.
func AnalysisFromRow(i int, row Row) (AnalysisRow, error) {
	name, ok := row.Get(colSample)
	if !ok {
		name, ok = row.Get(colMaterial)
	}
	if !ok {
		return AnalysisRow{}, RowError{Row: i, Reason: "No batch name found"}
	}
	in := api.AnalysisResultInput{
		DateAnalyzed:     dateCell(row),
		BETSurfaceArea:   numberCell(row, colBET),
		BETLangmuir:      numberCell(row, colLangmuir),
		ConductivityUnit: derived.UnitSiemensPerMetre,
	}
	if c := numberCell(row, colConductivity); c != nil {
		v, err := derived.ToSiemensPerMetre(*c, sourceConductivityUnit)
		if err != nil {
			return AnalysisRow{}, RowError{Row: i, Reason: err.Error()}
		}
		in.Conductivity = &v
	}
	return AnalysisRow{BatchName: name, Input: in}, nil
}

// ParseSpecies reads a species cell. "Species 1" style labels map to 1 when
// they mention 1 and to 2 otherwise; bare 1 or 2 are accepted as-is.
func ParseSpecies(cell string) *int {
	s := strings.TrimSpace(cell)
	var n int
	switch {
	case strings.Contains(strings.ToLower(s), "species"):
		n = 2
		if strings.Contains(s, "1") {
			n = 1
		}
	case s == "1":
		n = 1
	case s == "2":
		n = 2
	default:
		return nil
	}
	return &n
}

// SplitLots splits a Lot cell naming one or more biochar batches.
func SplitLots(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == '+' || r == '/' || r == ';'
	})
	lots := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			lots = append(lots, p)
		}
	}
	return lots
}

func textCell(row Row, col string) *string {
	v, ok := row.Get(col)
	if !ok {
		return nil
	}
	return &v
}

func quantityCell(row Row, col string) *float64 {
	v, ok := row.Get(col)
	if !ok {
		return nil
	}
	return derived.ParseQuantity(v)
}

func numberCell(row Row, col string) *float64 {
	v, ok := row.Get(col)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func dateCell(row Row) *api.Date {
	v, ok := row.Get(colDate)
	if !ok {
		return nil
	}
	d, err := api.ParseDate(v)
	if err != nil {
		return nil
	}
	return &d
}
