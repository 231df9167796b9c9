package batches_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
	"github.com/tilsley/hgraph/apps/server/internal/batches/ingest"
	"github.com/tilsley/hgraph/apps/server/internal/batches/memstore"
	"github.com/tilsley/hgraph/pkg/api"
	"github.com/tilsley/hgraph/pkg/logging"
)

// Compile-time interface compliance checks.
var (
	_ batches.Cache     = (*mapCache)(nil)
	_ batches.FileStore = (*stubFiles)(nil)
)

func ptr[T any](v T) *T { return &v }

var fixedNow = time.Date(2025, time.June, 15, 9, 30, 0, 0, time.UTC)

// ─── mapCache ────────────────────────────────────────────────────────────────

type mapCache struct {
	values      map[string]any
	gen         int64
	invalidated int
	getErr      error
	// beforeSet runs once, ahead of the next Set.
	beforeSet func()
}

func newMapCache() *mapCache { return &mapCache{values: map[string]any{}} }

func (c *mapCache) entry(gen int64, key string) string {
	return fmt.Sprintf("%d:%s", gen, key)
}

func (c *mapCache) Generation(context.Context) (int64, error) { return c.gen, nil }

func (c *mapCache) Get(_ context.Context, gen int64, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.values[c.entry(gen, key)]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *api.DashboardSummary:
		*d = v.(api.DashboardSummary)
	case *[]api.BatchPerformance:
		*d = v.([]api.BatchPerformance)
	case *[]api.GradeCount:
		*d = v.([]api.GradeCount)
	}
	return true, nil
}

func (c *mapCache) Set(_ context.Context, gen int64, key string, value any) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	c.values[c.entry(gen, key)] = value
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.invalidated++
	c.gen++
	c.values = map[string]any{}
	return nil
}

// ─── stubFiles ───────────────────────────────────────────────────────────────

type stubFiles struct {
	saved   []string
	removed []string
	reject  string
}

func (f *stubFiles) Remove(_ context.Context, path string) error {
	f.removed = append(f.removed, path)
	return nil
}

func (f *stubFiles) SaveImage(_ context.Context, category, filename string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	if filename == f.reject {
		return "", batches.ErrUnsupportedMedia
	}
	p := "uploads/" + category + "/" + filename
	f.saved = append(f.saved, p)
	return p, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

type fixture struct {
	svc   *batches.Service
	store *memstore.Store
	cache *mapCache
	files *stubFiles
}

func newFixture() *fixture {
	store := memstore.New()
	cache := newMapCache()
	files := &stubFiles{}
	log := logging.Discard()
	svc := batches.NewService(store, cache, files, log, batches.WithClock(func() time.Time { return fixedNow }))
	return &fixture{svc: svc, store: store, cache: cache, files: files}
}

func date(y int, m time.Month, d int) *api.Date {
	v := api.NewDate(y, m, d)
	return &v
}

func (f *fixture) biochar(t *testing.T, name string) *api.BiocharBatch {
	t.Helper()
	b, err := f.svc.CreateBiochar(context.Background(), api.BiocharBatchInput{
		Name:        name,
		DateCreated: date(2025, time.March, 1),
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) graphene(t *testing.T, in api.GrapheneBatchInput) *api.GrapheneBatch {
	t.Helper()
	if in.DateCreated == nil {
		in.DateCreated = date(2025, time.May, 1)
	}
	g, err := f.svc.CreateGraphene(context.Background(), in)
	require.NoError(t, err)
	return g
}

func (f *fixture) analysis(t *testing.T, batchID string, bet float64) *api.AnalysisResult {
	t.Helper()
	a, err := f.svc.CreateAnalysis(context.Background(), api.AnalysisResultInput{
		GrapheneBatchID: batchID,
		DateAnalyzed:    date(2025, time.May, 10),
		BETSurfaceArea:  &bet,
	})
	require.NoError(t, err)
	return a
}

// ─── Biochar ─────────────────────────────────────────────────────────────────

func TestCreateBiochar_DerivesYield(t *testing.T) {
	f := newFixture()

	b, err := f.svc.CreateBiochar(context.Background(), api.BiocharBatchInput{
		Name:         "MB3047",
		DateCreated:  date(2025, time.March, 14),
		InputWeight:  ptr(80.0),
		OutputWeight: ptr(22.7),
		YieldPercent: ptr(99.0),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, fixedNow, b.CreatedAt)
	assert.Nil(t, b.UpdatedAt)
	require.NotNil(t, b.YieldPercent)
	assert.InDelta(t, 28.375, *b.YieldPercent, 1e-9)
	assert.Equal(t, 1, f.cache.invalidated)
}

func TestCreateBiochar_KeepsSuppliedYieldWithoutWeights(t *testing.T) {
	f := newFixture()

	b, err := f.svc.CreateBiochar(context.Background(), api.BiocharBatchInput{
		Name:         "MB3042",
		DateCreated:  date(2025, time.March, 14),
		YieldPercent: ptr(25.0),
	})
	require.NoError(t, err)
	assert.InDelta(t, 25.0, *b.YieldPercent, 1e-9)
}

func TestCreateBiochar_DuplicateName(t *testing.T) {
	f := newFixture()
	f.biochar(t, "MB3047")

	_, err := f.svc.CreateBiochar(context.Background(), api.BiocharBatchInput{
		Name:        "MB3047",
		DateCreated: date(2025, time.March, 14),
	})
	var dup batches.DuplicateNameError
	require.ErrorAs(t, err, &dup)
}

func TestGetBiochar_NotFound(t *testing.T) {
	_, err := newFixture().svc.GetBiochar(context.Background(), "missing")
	var nf batches.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, batches.ResourceBiochar, nf.Resource)
}

func TestUpdateBiochar(t *testing.T) {
	f := newFixture()
	b := f.biochar(t, "MB3047")

	updated, err := f.svc.UpdateBiochar(context.Background(), b.ID, api.BiocharBatchInput{
		Name:         "MB3047",
		DateCreated:  date(2025, time.March, 1),
		InputWeight:  ptr(50.0),
		OutputWeight: ptr(10.0),
	})
	require.NoError(t, err)

	assert.Equal(t, b.ID, updated.ID)
	require.NotNil(t, updated.UpdatedAt)
	assert.InDelta(t, 20.0, *updated.YieldPercent, 1e-9)

	_, err = f.svc.UpdateBiochar(context.Background(), "missing", api.BiocharBatchInput{Name: "x"})
	var nf batches.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestListBiochar_NormalizesPage(t *testing.T) {
	f := newFixture()
	for _, n := range []string{"A", "B", "C"} {
		f.biochar(t, n)
	}

	list, err := f.svc.ListBiochar(context.Background(), batches.BiocharFilter{Page: batches.Page{Limit: 0}})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = f.svc.ListBiochar(context.Background(), batches.BiocharFilter{Page: batches.Page{Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

// ─── Graphene ────────────────────────────────────────────────────────────────

func TestCreateGraphene_DerivesFlags(t *testing.T) {
	f := newFixture()
	a := f.biochar(t, "MB3047")
	b := f.biochar(t, "MB3042")

	g := f.graphene(t, api.GrapheneBatchInput{
		Name:             "TB1175B",
		DateCreated:      date(2025, time.March, 1),
		Oven:             ptr("c"),
		ParentBiocharIDs: []string{a.ID, b.ID},
	})

	assert.True(t, g.IsOvenCEra, "oven C implies the era regardless of date")
	assert.True(t, g.IsPooled)
}

func TestCreateGraphene_BeforeEraInOtherOven(t *testing.T) {
	f := newFixture()
	g := f.graphene(t, api.GrapheneBatchInput{
		Name:        "MRa100",
		DateCreated: date(2025, time.March, 31),
		Oven:        ptr("AV5"),
	})
	assert.False(t, g.IsOvenCEra)
	assert.False(t, g.IsPooled)
	assert.Equal(t, []string{}, g.ParentBiocharIDs)
}

func TestCreateGraphene_UnknownParent(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateGraphene(context.Background(), api.GrapheneBatchInput{
		Name:             "TB1",
		DateCreated:      date(2025, time.May, 1),
		ParentBiocharIDs: []string{"5a3c1f7e-9d1b-4b0e-8c59-0d5f2f6a9e11"},
	})
	var ve batches.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "parent_biochar_ids", ve.Field)
}

func TestGetGraphene_IncludesSummary(t *testing.T) {
	f := newFixture()
	g := f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})
	f.analysis(t, g.ID, 1650)
	f.analysis(t, g.ID, 1839)

	got, err := f.svc.GetGraphene(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AnalysisCount)
	require.NotNil(t, got.BestBET)
	assert.InDelta(t, 1839.0, *got.BestBET, 1e-9)
	assert.Nil(t, got.BestConductivity)
}

func TestListGraphene_IncludesSummaries(t *testing.T) {
	f := newFixture()
	g1 := f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})
	f.graphene(t, api.GrapheneBatchInput{Name: "MRa440"})
	f.analysis(t, g1.ID, 1650)

	list, err := f.svc.ListGraphene(context.Background(), batches.GrapheneFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, g := range list {
		if g.ID == g1.ID {
			assert.Equal(t, 1, g.AnalysisCount)
		} else {
			assert.Equal(t, 0, g.AnalysisCount)
		}
	}
}

func TestUpdateGraphene_RecomputesEra(t *testing.T) {
	f := newFixture()
	g := f.graphene(t, api.GrapheneBatchInput{Name: "MRa400", DateCreated: date(2025, time.January, 5)})
	require.False(t, g.IsOvenCEra)

	updated, err := f.svc.UpdateGraphene(context.Background(), g.ID, api.GrapheneBatchInput{
		Name:        "MRa400",
		DateCreated: date(2025, time.April, 1),
		ShippedTo:   ptr("Partner Ltd"),
	})
	require.NoError(t, err)
	assert.True(t, updated.IsOvenCEra)
	assert.True(t, updated.Shipped())
}

func TestDeleteGraphene(t *testing.T) {
	f := newFixture()
	g := f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})
	a := f.analysis(t, g.ID, 1650)

	require.NoError(t, f.svc.DeleteGraphene(context.Background(), g.ID))

	_, err := f.svc.GetAnalysis(context.Background(), a.ID)
	var nf batches.NotFoundError
	require.ErrorAs(t, err, &nf)

	err = f.svc.DeleteGraphene(context.Background(), g.ID)
	require.ErrorAs(t, err, &nf)
}

// ─── Analysis ────────────────────────────────────────────────────────────────

func TestCreateAnalysis_GradesAndConverts(t *testing.T) {
	f := newFixture()
	g := f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})

	a, err := f.svc.CreateAnalysis(context.Background(), api.AnalysisResultInput{
		GrapheneBatchID:  g.ID,
		DateAnalyzed:     date(2025, time.May, 10),
		BETSurfaceArea:   ptr(1650.0),
		Conductivity:     ptr(0.137),
		ConductivityUnit: "S/cm",
	})
	require.NoError(t, err)

	require.NotNil(t, a.EnergyStorageGrade)
	assert.Equal(t, "Good", *a.EnergyStorageGrade)
	assert.Equal(t, "S/m", a.ConductivityUnit)
	assert.InDelta(t, 13.7, *a.Conductivity, 1e-9)
}

func TestCreateAnalysis_UnknownBatch(t *testing.T) {
	_, err := newFixture().svc.CreateAnalysis(context.Background(), api.AnalysisResultInput{
		GrapheneBatchID: "missing",
		DateAnalyzed:    date(2025, time.May, 10),
	})
	var nf batches.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, batches.ResourceGraphene, nf.Resource)
}

func TestCreateAnalysis_UnknownUnit(t *testing.T) {
	f := newFixture()
	g := f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})

	_, err := f.svc.CreateAnalysis(context.Background(), api.AnalysisResultInput{
		GrapheneBatchID:  g.ID,
		DateAnalyzed:     date(2025, time.May, 10),
		Conductivity:     ptr(1.0),
		ConductivityUnit: "ohm",
	})
	var ve batches.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "conductivity_unit", ve.Field)
}

func TestListAnalyses(t *testing.T) {
	f := newFixture()
	g := f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})
	f.analysis(t, g.ID, 2100)

	list, err := f.svc.ListAnalyses(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Excellent", *list[0].EnergyStorageGrade)

	_, err = f.svc.ListAnalyses(context.Background(), "missing")
	var nf batches.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestUploadImages(t *testing.T) {
	f := newFixture()
	g := f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})
	a := f.analysis(t, g.ID, 1650)

	res, err := f.svc.UploadImages(context.Background(), a.ID,
		[]batches.Upload{
			{Filename: "sem1.png", Content: strings.NewReader("png")},
			{Filename: "", Content: strings.NewReader("skipped")},
		},
		[]batches.Upload{{Filename: "tem1.png", Content: strings.NewReader("png")}},
	)
	require.NoError(t, err)
	assert.Equal(t, "Images uploaded successfully", res.Message)
	assert.Equal(t, 1, res.SEMCount)
	assert.Equal(t, 1, res.TEMCount)

	got, err := f.svc.GetAnalysis(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/sem_images/sem1.png"}, got.SEMImages)
	assert.Equal(t, []string{"uploads/tem_images/tem1.png"}, got.TEMImages)
}

func TestUploadImages_Rejected(t *testing.T) {
	f := newFixture()
	f.files.reject = "notes.txt"
	g := f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})
	a := f.analysis(t, g.ID, 1650)

	_, err := f.svc.UploadImages(context.Background(), a.ID,
		[]batches.Upload{{Filename: "notes.txt", Content: strings.NewReader("text")}}, nil)
	assert.ErrorIs(t, err, batches.ErrUnsupportedMedia)

	_, err = f.svc.UploadImages(context.Background(), "missing", nil, nil)
	var nf batches.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestUploadImages_RejectedRemovesSavedFiles(t *testing.T) {
	f := newFixture()
	f.files.reject = "notes.txt"
	g := f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})
	a := f.analysis(t, g.ID, 1650)

	_, err := f.svc.UploadImages(context.Background(), a.ID,
		[]batches.Upload{
			{Filename: "sem1.png", Content: strings.NewReader("png")},
			{Filename: "sem2.png", Content: strings.NewReader("png")},
		},
		[]batches.Upload{
			{Filename: "tem1.png", Content: strings.NewReader("png")},
			{Filename: "notes.txt", Content: strings.NewReader("text")},
		},
	)
	require.ErrorIs(t, err, batches.ErrUnsupportedMedia)
	assert.ElementsMatch(t, f.files.saved, f.files.removed)
	assert.Len(t, f.files.removed, 3)

	got, err := f.svc.GetAnalysis(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SEMImages)
	assert.Empty(t, got.TEMImages)
}

func TestGrade(t *testing.T) {
	svc := newFixture().svc

	res, err := svc.Grade("", 1650)
	require.NoError(t, err)
	assert.Equal(t, "supercapacitor", res.Application)
	assert.Equal(t, "Good", *res.Grade)
	assert.Len(t, res.Thresholds, 4)

	res, err = svc.Grade("Battery", 1650)
	require.NoError(t, err)
	assert.Equal(t, "Excellent", *res.Grade)

	res, err = svc.Grade("battery", 0)
	require.NoError(t, err)
	assert.Nil(t, res.Grade)

	_, err = svc.Grade("flywheel", 1650)
	var ve batches.ValidationError
	require.ErrorAs(t, err, &ve)
}

// ─── Reports ─────────────────────────────────────────────────────────────────

func TestDashboardSummary(t *testing.T) {
	f := newFixture()
	g1 := f.graphene(t, api.GrapheneBatchInput{Name: "MRa445", DateCreated: date(2025, time.May, 1)})
	g2 := f.graphene(t, api.GrapheneBatchInput{
		Name:          "TB1175B",
		DateCreated:   date(2025, time.June, 1),
		ShippedTo:     ptr("Partner Ltd"),
		ShippedDate:   date(2025, time.June, 10),
		ShippedWeight: ptr(500.0),
	})
	f.graphene(t, api.GrapheneBatchInput{Name: "Old", DateCreated: date(2024, time.December, 1)})
	f.analysis(t, g1.ID, 1650)
	f.analysis(t, g2.ID, 1839)

	sum, err := f.svc.DashboardSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.OvenCPerformance.TotalBatches)
	assert.Equal(t, "TB1175B", *sum.OvenCPerformance.BestBatch)
	assert.InDelta(t, 1839.0, *sum.OvenCPerformance.BestBET, 1e-9)
	assert.InDelta(t, 1744.5, *sum.OvenCPerformance.AvgBETRecent, 1e-9)
	assert.Equal(t, 1, sum.Shipments.TotalShipped)
	assert.Equal(t, 1, sum.Shipments.Pending)
	require.Len(t, sum.Shipments.RecentShipments, 1)
	assert.Equal(t, "Partner Ltd", sum.Shipments.RecentShipments[0].Customer)
	assert.Len(t, sum.Insights, 4)
}

func TestDashboardSummary_CachedUntilWrite(t *testing.T) {
	f := newFixture()
	f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})

	first, err := f.svc.DashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.OvenCPerformance.TotalBatches)

	// Written behind the service's back: the cached value is still served.
	require.NoError(t, f.store.CreateGraphene(context.Background(), api.GrapheneBatch{
		ID: "direct", Name: "Direct", DateCreated: api.NewDate(2025, time.May, 2), IsOvenCEra: true,
	}))
	cached, err := f.svc.DashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cached.OvenCPerformance.TotalBatches)

	f.graphene(t, api.GrapheneBatchInput{Name: "MRa446"})
	fresh, err := f.svc.DashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.OvenCPerformance.TotalBatches)
}

func TestDashboardSummary_WriteDuringComputeIsNotCachedStale(t *testing.T) {
	f := newFixture()
	f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})
	f.cache.beforeSet = func() {
		f.graphene(t, api.GrapheneBatchInput{Name: "MRa446"})
	}

	first, err := f.svc.DashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.OvenCPerformance.TotalBatches)

	second, err := f.svc.DashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.OvenCPerformance.TotalBatches)
}

func TestDashboardSummary_CacheErrorFallsThrough(t *testing.T) {
	f := newFixture()
	f.cache.getErr = errors.New("redis down")
	f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})

	sum, err := f.svc.DashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.OvenCPerformance.TotalBatches)
}

func TestBatchPerformanceAndGrades(t *testing.T) {
	f := newFixture()
	g := f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})
	f.graphene(t, api.GrapheneBatchInput{Name: "Empty", DateCreated: date(2025, time.April, 2)})
	f.analysis(t, g.ID, 2100)
	f.analysis(t, g.ID, 900)

	rows, err := f.svc.BatchPerformance(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Empty", rows[0].Name)
	assert.Nil(t, rows[0].EnergyGrade)
	assert.Equal(t, "Excellent", *rows[1].EnergyGrade)

	counts, err := f.svc.GradeDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []api.GradeCount{
		{Grade: "Excellent", Count: 1},
		{Grade: "Good", Count: 0},
		{Grade: "Acceptable", Count: 0},
		{Grade: "Poor", Count: 1},
		{Grade: "Ungraded", Count: 0},
	}, counts)
}

// ─── Import ──────────────────────────────────────────────────────────────────

func readTable(t *testing.T, body string) *ingest.Table {
	t.Helper()
	tbl, err := ingest.Read("import.csv", strings.NewReader(body))
	require.NoError(t, err)
	return tbl
}

func TestImport_Biochar(t *testing.T) {
	f := newFixture()
	tbl := readTable(t, "Experiment,Reactor,Raw material,Output\nMB3047,AV5,80g,22.7g\n,AV5,80g,20g\nMB3047,AV5,,\n")

	res, err := f.svc.Import(context.Background(), ingest.Biochar, tbl)
	require.NoError(t, err)

	assert.Equal(t, "Import completed", res.Message)
	assert.Equal(t, 3, res.TotalRows)
	assert.Equal(t, 1, res.ImportedCount)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "Row 1: Missing experiment name", res.Errors[0])
	assert.Contains(t, res.Errors[1], "Row 2:")

	b, err := f.store.GetBiocharByName(context.Background(), "MB3047")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "2025-06-15", b.DateCreated.String(), "defaults to today")
	assert.InDelta(t, 28.375, *b.YieldPercent, 1e-9)
}

func TestImport_GrapheneResolvesLots(t *testing.T) {
	f := newFixture()
	mb := f.biochar(t, "MB3047")
	tbl := readTable(t, "Experiment,Oven,Lot,Species\nTB1175B,C,MB3047 + MB9999,Species 1\n")

	res, err := f.svc.Import(context.Background(), ingest.Graphene, tbl)
	require.NoError(t, err)

	assert.Equal(t, 1, res.ImportedCount)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Row 0: Lot MB9999 not found")

	g, err := f.store.GetGrapheneByName(context.Background(), "TB1175B")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, []string{mb.ID}, g.ParentBiocharIDs)
	assert.True(t, g.IsOvenCEra)
	assert.Equal(t, 1, *g.Species)
}

func TestImport_UndatedGrapheneEraFollowsOven(t *testing.T) {
	f := newFixture()
	tbl := readTable(t, "Experiment,Oven,Date\nAV5-1,AV5,\nC-1,C,\nAV5-dated,AV5,2025-05-02\n")

	res, err := f.svc.Import(context.Background(), ingest.Graphene, tbl)
	require.NoError(t, err)
	require.Equal(t, 3, res.ImportedCount, res.Errors)

	for name, want := range map[string]bool{"AV5-1": false, "C-1": true, "AV5-dated": true} {
		g, err := f.store.GetGrapheneByName(context.Background(), name)
		require.NoError(t, err)
		require.NotNil(t, g, name)
		assert.Equal(t, want, g.IsOvenCEra, name)
		if name != "AV5-dated" {
			assert.Equal(t, "2025-06-15", g.DateCreated.String(), name)
		}
	}
}

func TestImport_Analysis(t *testing.T) {
	f := newFixture()
	g := f.graphene(t, api.GrapheneBatchInput{Name: "MRa445"})
	tbl := readTable(t, "Sample,Multipoint BET Area [m^2/g],Conductivity (S/cm)\nMRa445,1650,0.137\nNope,1200,\n")

	res, err := f.svc.Import(context.Background(), ingest.Analysis, tbl)
	require.NoError(t, err)

	assert.Equal(t, 1, res.ImportedCount)
	assert.Equal(t, []string{"Row 1: Batch Nope not found"}, res.Errors)

	list, err := f.svc.ListAnalyses(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.InDelta(t, 13.7, *list[0].Conductivity, 1e-9)
	assert.Equal(t, "2025-06-15", list[0].DateAnalyzed.String())
}

func TestImport_InvalidatesCacheOnce(t *testing.T) {
	f := newFixture()
	tbl := readTable(t, "Experiment\nA\nB\nC\n")

	_, err := f.svc.Import(context.Background(), ingest.Biochar, tbl)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.invalidated)
}

// ─── Registry ────────────────────────────────────────────────────────────────

func TestMilestonesAndEquipment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	m, err := f.svc.CreateMilestone(ctx, api.MilestoneInput{
		DateOccurred: date(2025, time.April, 1),
		Title:        "Oven C commissioned",
		ImpactLevel:  ptr("major"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{}, m.AffectedBatchIDs)

	ms, err := f.svc.ListMilestones(ctx)
	require.NoError(t, err)
	assert.Len(t, ms, 1)

	_, err = f.svc.CreateEquipment(ctx, api.EquipmentInput{Name: "C", Type: ptr("rotating_oven")})
	require.NoError(t, err)
	_, err = f.svc.CreateEquipment(ctx, api.EquipmentInput{Name: "C"})
	var dup batches.DuplicateNameError
	require.ErrorAs(t, err, &dup)

	eq, err := f.svc.ListEquipment(ctx)
	require.NoError(t, err)
	assert.Len(t, eq, 1)
}

func TestHealth(t *testing.T) {
	require.NoError(t, newFixture().svc.Health(context.Background()))
}
