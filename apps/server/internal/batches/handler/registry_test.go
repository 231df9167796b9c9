package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/hgraph/pkg/api"
)

// ─── GET / and /health ───────────────────────────────────────────────────────

func TestRoot(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, "active", body["status"])
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "connected", decode[map[string]string](t, w)["database"])
}

// ─── milestones / equipment ──────────────────────────────────────────────────

func TestMilestones(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/v1/milestones", map[string]any{
		"date_occurred": "2025-04-01",
		"title":         "Oven C commissioned",
		"impact_level":  "major",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(http.MethodGet, "/api/v1/milestones", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]api.Milestone](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-04-01", list[0].DateOccurred.String())

	w = ts.do(http.MethodPost, "/api/v1/milestones", map[string]any{
		"date_occurred": "2025-04-01", "title": "x", "impact_level": "huge",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEquipment(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{"name": "C", "type": "rotating_oven", "capacity_grams": 1000, "is_production_ready": true}

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/v1/equipment", body).Code)
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodPost, "/api/v1/equipment", body).Code)

	w := ts.do(http.MethodGet, "/api/v1/equipment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]api.Equipment](t, w)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsProductionReady)
}

// ─── dashboard ───────────────────────────────────────────────────────────────

func TestDashboard(t *testing.T) {
	ts := newTestServer(t)
	g := createGraphene(t, ts, map[string]any{
		"name": "TB1175B", "date_created": "2025-05-01", "oven": "C",
		"shipped_to": "Partner Ltd", "shipped_date": "2025-05-20", "shipped_weight": 500,
	})
	createAnalysis(t, ts, g.ID, 1839)

	w := ts.do(http.MethodGet, "/api/v1/dashboard/summary", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sum := decode[api.DashboardSummary](t, w)
	assert.Equal(t, 1, sum.OvenCPerformance.TotalBatches)
	require.NotNil(t, sum.OvenCPerformance.BestBatch)
	assert.Equal(t, "TB1175B", *sum.OvenCPerformance.BestBatch)
	assert.Equal(t, 1, sum.Shipments.TotalShipped)

	w = ts.do(http.MethodGet, "/api/v1/dashboard/batch-performance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]api.BatchPerformance](t, w)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Shipped)

	w = ts.do(http.MethodGet, "/api/v1/dashboard/grades", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[[]api.GradeCount](t, w))
}

// ─── with OpenAPI validation ─────────────────────────────────────────────────

func TestWithValidation_RejectsBeforeHandler(t *testing.T) {
	ts := newTestServerWithValidation(t)

	w := ts.do(http.MethodPost, "/api/v1/batches/biochar", map[string]any{"name": "MB1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")

	w = ts.do(http.MethodPost, "/api/v1/batches/biochar", biocharBody("MB1"))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
