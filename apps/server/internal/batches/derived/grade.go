package derived

import (
	"fmt"
	"strings"

	"github.com/tilsley/hgraph/pkg/api"
)

// Grade is an energy-storage suitability class for a BET surface area.
type Grade string

// Grades, best first.
const (
	GradeExcellent  Grade = "Excellent"
	GradeGood       Grade = "Good"
	GradeAcceptable Grade = "Acceptable"
	GradePoor       Grade = "Poor"
)

// Application is an energy-storage use the material is graded against.
type Application string

// Supported applications.
const (
	Supercapacitor Application = "supercapacitor"
	Battery        Application = "battery"
)

// Targets are the minimum BET values (m²/g) for each grade of one
// application. Floor is the reference value below which material is
// considered unusable; it does not change the grade.
type Targets struct {
	Excellent  float64
	Good       float64
	Acceptable float64
	Floor      float64
}

// BETTargets holds the grading table for every supported application.
var BETTargets = map[Application]Targets{
	Supercapacitor: {Excellent: 2000, Good: 1500, Acceptable: 1000, Floor: 500},
	Battery:        {Excellent: 1500, Good: 1000, Acceptable: 500, Floor: 200},
}

// UnknownApplicationError is returned for an application with no grading table.
type UnknownApplicationError struct {
	Application string
}

// Error implements the error interface.
func (e UnknownApplicationError) Error() string {
	return fmt.Sprintf("unknown application %q", e.Application)
}

// ParseApplication resolves a case-insensitive application name. An empty
// name selects Supercapacitor.
func ParseApplication(s string) (Application, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Supercapacitor, nil
	}
	app := Application(s)
	if _, ok := BETTargets[app]; !ok {
		return "", UnknownApplicationError{Application: s}
	}
	return app, nil
}

// Classify grades bet against t. Non-positive values have no grade.
func (t Targets) Classify(bet float64) (Grade, bool) {
	switch {
	case bet <= 0:
		return "", false
	case bet >= t.Excellent:
		return GradeExcellent, true
	case bet >= t.Good:
		return GradeGood, true
	case bet >= t.Acceptable:
		return GradeAcceptable, true
	default:
		return GradePoor, true
	}
}

// Thresholds lists the grade boundaries of t, best first.
func (t Targets) Thresholds() []api.Threshold {
	return []api.Threshold{
		{Grade: string(GradeExcellent), MinBET: t.Excellent},
		{Grade: string(GradeGood), MinBET: t.Good},
		{Grade: string(GradeAcceptable), MinBET: t.Acceptable},
		{Grade: string(GradePoor), MinBET: 0},
	}
}

// GradeFor grades a BET value against the table of app.
func GradeFor(app Application, bet *float64) (*string, error) {
	targets, ok := BETTargets[app]
	if !ok {
		return nil, UnknownApplicationError{Application: string(app)}
	}
	if bet == nil {
		return nil, nil //nolint:nilnil // no measurement, no grade
	}
	g, ok := targets.Classify(*bet)
	if !ok {
		return nil, nil //nolint:nilnil
	}
	s := string(g)
	return &s, nil
}

// EnergyGrade grades a BET value for supercapacitor use, the primary
// application of the lab's material.
func EnergyGrade(bet *float64) *string {
	g, _ := GradeFor(Supercapacitor, bet)
	return g
}

// ApplyAnalysis sets the energy-storage grade on an analysis result.
func ApplyAnalysis(a *api.AnalysisResult) {
	a.EnergyStorageGrade = EnergyGrade(a.BETSurfaceArea)
}
