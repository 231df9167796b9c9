package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
	"github.com/tilsley/hgraph/pkg/api"
)

type pageQuery struct {
	Skip  int `form:"skip"  binding:"gte=0"`
	Limit int `form:"limit" binding:"gte=0,lte=1000"`
}

func (q pageQuery) page() batches.Page {
	return batches.Page{Skip: q.Skip, Limit: q.Limit}
}

type biocharQuery struct {
	pageQuery
	Oven     string `form:"oven"`
	Operator string `form:"operator"`
}

type grapheneQuery struct {
	pageQuery
	Oven        string `form:"oven"`
	Species     *int   `form:"species"      binding:"omitempty,species"`
	ShippedOnly bool   `form:"shipped_only"`
	OvenCEra    *bool  `form:"oven_c_era"`
}

// ── biochar ─────────────────────────────────────────────────────────────────

// CreateBiochar handles POST /api/v1/batches/biochar.
func (h *Handler) CreateBiochar(c *gin.Context) {
	var in api.BiocharBatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.svc.CreateBiochar(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "failed to create biochar batch", err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// ListBiochar handles GET /api/v1/batches/biochar.
func (h *Handler) ListBiochar(c *gin.Context) {
	var q biocharQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	list, err := h.svc.ListBiochar(c.Request.Context(), batches.BiocharFilter{
		Page:     q.page(),
		Oven:     q.Oven,
		Operator: q.Operator,
	})
	if err != nil {
		h.fail(c, "failed to list biochar batches", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetBiochar handles GET /api/v1/batches/biochar/:id.
func (h *Handler) GetBiochar(c *gin.Context) {
	id, ok := pathID(c, "id", batches.ResourceBiochar)
	if !ok {
		return
	}
	b, err := h.svc.GetBiochar(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to get biochar batch", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// UpdateBiochar handles PUT /api/v1/batches/biochar/:id. The body replaces
// every editable field.
func (h *Handler) UpdateBiochar(c *gin.Context) {
	id, ok := pathID(c, "id", batches.ResourceBiochar)
	if !ok {
		return
	}
	var in api.BiocharBatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.svc.UpdateBiochar(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, "failed to update biochar batch", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DeleteBiochar handles DELETE /api/v1/batches/biochar/:id.
func (h *Handler) DeleteBiochar(c *gin.Context) {
	id, ok := pathID(c, "id", batches.ResourceBiochar)
	if !ok {
		return
	}
	if err := h.svc.DeleteBiochar(c.Request.Context(), id); err != nil {
		h.fail(c, "failed to delete biochar batch", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Biochar batch deleted successfully"})
}

// ── graphene ────────────────────────────────────────────────────────────────

// CreateGraphene handles POST /api/v1/batches/graphene.
func (h *Handler) CreateGraphene(c *gin.Context) {
	var in api.GrapheneBatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	g, err := h.svc.CreateGraphene(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "failed to create graphene batch", err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// ListGraphene handles GET /api/v1/batches/graphene.
func (h *Handler) ListGraphene(c *gin.Context) {
	var q grapheneQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	list, err := h.svc.ListGraphene(c.Request.Context(), batches.GrapheneFilter{
		Page:        q.page(),
		Oven:        q.Oven,
		Species:     q.Species,
		ShippedOnly: q.ShippedOnly,
		OvenCEra:    q.OvenCEra,
	})
	if err != nil {
		h.fail(c, "failed to list graphene batches", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetGraphene handles GET /api/v1/batches/graphene/:id, including the
// analysis summary.
func (h *Handler) GetGraphene(c *gin.Context) {
	id, ok := pathID(c, "id", batches.ResourceGraphene)
	if !ok {
		return
	}
	g, err := h.svc.GetGraphene(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to get graphene batch", err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// UpdateGraphene handles PUT /api/v1/batches/graphene/:id.
func (h *Handler) UpdateGraphene(c *gin.Context) {
	id, ok := pathID(c, "id", batches.ResourceGraphene)
	if !ok {
		return
	}
	var in api.GrapheneBatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	g, err := h.svc.UpdateGraphene(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, "failed to update graphene batch", err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// DeleteGraphene handles DELETE /api/v1/batches/graphene/:id.
func (h *Handler) DeleteGraphene(c *gin.Context) {
	id, ok := pathID(c, "id", batches.ResourceGraphene)
	if !ok {
		return
	}
	if err := h.svc.DeleteGraphene(c.Request.Context(), id); err != nil {
		h.fail(c, "failed to delete graphene batch", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Graphene batch deleted successfully"})
}
