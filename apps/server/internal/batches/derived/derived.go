// Package derived computes the values the lab reads off its raw batch records:
// stage-one yield, the energy-storage grade of a BET measurement, canonical
// conductivity units and the Oven C era flag. Everything here is pure.
package derived

import (
	"strings"
	"time"

	"github.com/tilsley/hgraph/pkg/api"
)

// OvenCEraStart is the day Oven C went into production.
var OvenCEraStart = api.NewDate(2025, time.April, 1)

// OvenC is the equipment name of the production oven.
const OvenC = "C"

// YieldPercent returns output/input as a percentage. It is undefined (nil)
// unless both weights are present and the input weight is positive.
func YieldPercent(input, output *float64) *float64 {
	if input == nil || output == nil || *input <= 0 {
		return nil
	}
	y := *output / *input * 100
	return &y
}

// IsOvenCEra reports whether a graphene batch belongs to the Oven C era:
// produced on or after OvenCEraStart, or produced in Oven C itself.
func IsOvenCEra(created api.Date, oven *string) bool {
	if oven != nil && strings.EqualFold(strings.TrimSpace(*oven), OvenC) {
		return true
	}
	if created.IsZero() {
		return false
	}
	return !created.Before(OvenCEraStart)
}

// ApplyGrapheneByOven is ApplyGraphene for a batch whose creation date was
// not recorded: only the oven decides the era.
func ApplyGrapheneByOven(g *api.GrapheneBatch) {
	undated := *g
	undated.DateCreated = api.Date{}
	ApplyGraphene(&undated)
	g.IsOvenCEra, g.IsPooled = undated.IsOvenCEra, undated.IsPooled
}

// IsPooled reports whether a graphene batch was made from several biochar lots.
func IsPooled(parentIDs []string) bool {
	seen := make(map[string]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		seen[id] = struct{}{}
	}
	return len(seen) > 1
}

// ApplyBiochar fills in the derived fields of a biochar batch. A computed
// yield replaces whatever the caller supplied.
func ApplyBiochar(b *api.BiocharBatch) {
	if y := YieldPercent(b.InputWeight, b.OutputWeight); y != nil {
		b.YieldPercent = y
	}
}

// ApplyGraphene fills in the derived fields of a graphene batch. Flags the
// caller set explicitly are kept; derivation only ever turns them on.
func ApplyGraphene(g *api.GrapheneBatch) {
	if IsOvenCEra(g.DateCreated, g.Oven) {
		g.IsOvenCEra = true
	}
	if IsPooled(g.ParentBiocharIDs) {
		g.IsPooled = true
	}
}
