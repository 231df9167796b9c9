package derived

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tilsley/hgraph/pkg/api"
)

const (
	// RecentBatchWindow is how many of the newest Oven C era batches the
	// dashboard counts.
	RecentBatchWindow = 10
	// RecentShipmentWindow is how many shipments the dashboard lists.
	RecentShipmentWindow = 5
	// Ungraded labels analyses without a usable BET value.
	Ungraded = "Ungraded"
)

// Insights are the standing observations shown alongside the dashboard figures.
var Insights = []string{
	"Oven C era shows 15% improvement in average BET",
	"Species 1 consistently outperforming Species 2",
	"KOH ratio 1.3-1.5 showing optimal results",
	"800°C temperature range most effective",
}

// AnalysisSummary condenses the analyses of one graphene batch.
type AnalysisSummary struct {
	Count            int
	BestBET          *float64
	BestConductivity *float64
}

// Summarize returns the count of results and the best positive BET and
// conductivity among them.
func Summarize(results []api.AnalysisResult) AnalysisSummary {
	s := AnalysisSummary{Count: len(results)}
	for _, r := range results {
		s.BestBET = maxPositive(s.BestBET, r.BETSurfaceArea)
		s.BestConductivity = maxPositive(s.BestConductivity, r.Conductivity)
	}
	return s
}

// ApplySummary copies the summary of results onto g.
func ApplySummary(g *api.GrapheneBatch, results []api.AnalysisResult) {
	s := Summarize(results)
	g.AnalysisCount = s.Count
	g.BestBET = s.BestBET
	g.BestConductivity = s.BestConductivity
}

func maxPositive(cur, v *float64) *float64 {
	if v == nil || *v <= 0 {
		return cur
	}
	if cur == nil || *v > *cur {
		x := *v
		return &x
	}
	return cur
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}

// BuildDashboard assembles the executive summary.
//
// eraBatches are the Oven C era graphene batches, shipped every batch with a
// recipient, and analyses the results of the era batches keyed by batch ID.
func BuildDashboard(
	eraBatches []api.GrapheneBatch,
	analyses map[string][]api.AnalysisResult,
	shipped []api.GrapheneBatch,
) api.DashboardSummary {
	era := newestFirst(eraBatches)

	perf := api.OvenCPerformance{TotalBatches: min(len(era), RecentBatchWindow)}
	var (
		sum   float64
		count int
	)
	for _, b := range era {
		for _, r := range analyses[b.ID] {
			if r.BETSurfaceArea == nil {
				continue
			}
			bet := *r.BETSurfaceArea
			sum += bet
			count++
			if bet > 0 && (perf.BestBET == nil || bet > *perf.BestBET) {
				best, name := bet, b.Name
				perf.BestBET, perf.BestBatch = &best, &name
			}
		}
	}
	// A zero mean carries no information and is reported as absent.
	if count > 0 && sum != 0 {
		avg := Round1(sum / float64(count))
		perf.AvgBETRecent = &avg
	}

	pending := 0
	for _, b := range era {
		if !b.Shipped() {
			pending++
		}
	}

	return api.DashboardSummary{
		OvenCPerformance: perf,
		Shipments: api.ShipmentSummary{
			TotalShipped:    len(shipped),
			Pending:         pending,
			RecentShipments: recentShipments(shipped),
		},
		Insights: append([]string(nil), Insights...),
	}
}

// recentShipments returns the latest shipments, newest first. Shipments
// without a date sort as the oldest.
func recentShipments(shipped []api.GrapheneBatch) []api.Shipment {
	sorted := make([]api.GrapheneBatch, 0, len(shipped))
	for _, b := range shipped {
		if b.Shipped() {
			sorted = append(sorted, b)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return shippedAfter(sorted[i], sorted[j])
	})
	if len(sorted) > RecentShipmentWindow {
		sorted = sorted[:RecentShipmentWindow]
	}

	out := make([]api.Shipment, 0, len(sorted))
	for _, b := range sorted {
		out = append(out, api.Shipment{
			Batch:    b.Name,
			Customer: *b.ShippedTo,
			Weight:   b.ShippedWeight,
			Date:     b.ShippedDate,
		})
	}
	return out
}

func shippedAfter(a, b api.GrapheneBatch) bool {
	switch {
	case a.ShippedDate == nil:
		return false
	case b.ShippedDate == nil:
		return true
	default:
		return b.ShippedDate.Before(*a.ShippedDate)
	}
}

func newestFirst(batches []api.GrapheneBatch) []api.GrapheneBatch {
	out := append([]api.GrapheneBatch(nil), batches...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].DateCreated.Before(out[i].DateCreated)
	})
	return out
}

// BuildPerformance returns one row per graphene batch, oldest first, with
// the best BET and conductivity measured for it.
func BuildPerformance(batches []api.GrapheneBatch, analyses map[string][]api.AnalysisResult) []api.BatchPerformance {
	sorted := append([]api.GrapheneBatch(nil), batches...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DateCreated.Before(sorted[j].DateCreated)
	})

	rows := make([]api.BatchPerformance, 0, len(sorted))
	for _, b := range sorted {
		s := Summarize(analyses[b.ID])
		rows = append(rows, api.BatchPerformance{
			Name:         b.Name,
			Date:         b.DateCreated,
			Oven:         b.Oven,
			Species:      b.Species,
			Temperature:  b.Temperature,
			KOHRatio:     b.KOHRatio,
			IsOvenCEra:   b.IsOvenCEra,
			Shipped:      b.Shipped(),
			ShippedTo:    b.ShippedTo,
			BET:          s.BestBET,
			Conductivity: s.BestConductivity,
		})
	}
	GradePerformance(rows)
	return rows
}

// GradePerformance sets the energy-storage grade of each row from its best BET.
func GradePerformance(rows []api.BatchPerformance) {
	for i := range rows {
		rows[i].EnergyGrade = EnergyGrade(rows[i].BET)
	}
}

// GradeDistribution counts analyses per supercapacitor grade, best grade
// first. Grades with no analyses are still listed.
func GradeDistribution(results []api.AnalysisResult) []api.GradeCount {
	counts := map[string]int{}
	for _, r := range results {
		if g := EnergyGrade(r.BETSurfaceArea); g != nil {
			counts[*g]++
		} else {
			counts[Ungraded]++
		}
	}
	order := []string{
		string(GradeExcellent), string(GradeGood), string(GradeAcceptable), string(GradePoor), Ungraded,
	}
	out := make([]api.GradeCount, 0, len(order))
	for _, g := range order {
		out = append(out, api.GradeCount{Grade: g, Count: counts[g]})
	}
	return out
}
