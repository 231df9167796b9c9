package derived

import (
	"fmt"
	"strconv"
	"strings"
)

// UnitSiemensPerMetre is the canonical conductivity unit.
const UnitSiemensPerMetre = "S/m"

// conductivityToSM maps a lower-cased unit to its factor into S/m.
var conductivityToSM = map[string]float64{
	"s/m":   1,
	"s/cm":  100,
	"ms/cm": 0.1,
	"ms/m":  0.001,
}

// UnknownUnitError is returned for a conductivity unit with no conversion.
type UnknownUnitError struct {
	Unit string
}

// Error implements the error interface.
func (e UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown conductivity unit %q", e.Unit)
}

// KnownConductivityUnit reports whether unit can be converted.
func KnownConductivityUnit(unit string) bool {
	_, ok := conductivityToSM[normalizeUnit(unit)]
	return ok
}

// ConvertConductivity converts value between two conductivity units.
func ConvertConductivity(value float64, from, to string) (float64, error) {
	fromFactor, ok := conductivityToSM[normalizeUnit(from)]
	if !ok {
		return 0, UnknownUnitError{Unit: from}
	}
	toFactor, ok := conductivityToSM[normalizeUnit(to)]
	if !ok {
		return 0, UnknownUnitError{Unit: to}
	}
	return value * fromFactor / toFactor, nil
}

// ToSiemensPerMetre converts value from unit into S/m.
func ToSiemensPerMetre(value float64, unit string) (float64, error) {
	return ConvertConductivity(value, unit, UnitSiemensPerMetre)
}

func normalizeUnit(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

// ParseQuantity reads a number out of a spreadsheet cell that may carry a
// unit or other decoration ("800°C", "14.2g", "24h"). Only digits, '.' and
// '-' are kept. A cell with nothing numeric, or whose remainder does not
// parse, yields nil.
func ParseQuantity(cell string) *float64 {
	var b strings.Builder
	for _, r := range cell {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return nil
	}
	return &v
}
