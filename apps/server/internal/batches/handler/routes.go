// Package handler exposes the batch-tracking service over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
	"github.com/tilsley/hgraph/apps/server/internal/batches/ingest"
)

// APIName and APIVersion are reported by GET /.
const (
	APIName    = "HGraph2 Data & Analysis API"
	APIVersion = "1.0.0"
)

// Handler translates HTTP requests into calls on the batches.Service.
type Handler struct {
	svc *batches.Service
	log *slog.Logger
}

// RegisterRoutes mounts the batch-tracking API onto the given Gin engine.
func RegisterRoutes(r *gin.Engine, svc *batches.Service, log *slog.Logger) {
	registerValidators()
	h := &Handler{svc: svc, log: log}

	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")

	// Batches
	v1.POST("/batches/biochar", h.CreateBiochar)
	v1.GET("/batches/biochar", h.ListBiochar)
	v1.GET("/batches/biochar/:id", h.GetBiochar)
	v1.PUT("/batches/biochar/:id", h.UpdateBiochar)
	v1.DELETE("/batches/biochar/:id", h.DeleteBiochar)

	v1.POST("/batches/graphene", h.CreateGraphene)
	v1.GET("/batches/graphene", h.ListGraphene)
	v1.GET("/batches/graphene/:id", h.GetGraphene)
	v1.PUT("/batches/graphene/:id", h.UpdateGraphene)
	v1.DELETE("/batches/graphene/:id", h.DeleteGraphene)

	// Analysis
	v1.POST("/analysis", h.CreateAnalysis)
	v1.GET("/analysis/grade", h.Grade)
	v1.GET("/analysis/batch/:batch_id", h.ListAnalyses)
	v1.GET("/analysis/:id", h.GetAnalysis)
	v1.DELETE("/analysis/:id", h.DeleteAnalysis)
	v1.POST("/analysis/upload-images/:analysis_id", h.UploadImages)

	// Reporting
	v1.GET("/dashboard/summary", h.DashboardSummary)
	v1.GET("/dashboard/batch-performance", h.BatchPerformance)
	v1.GET("/dashboard/grades", h.GradeDistribution)

	// Import
	v1.POST("/import/csv", h.Import)
	v1.GET("/import/template/:data_type", h.Template)

	// Registry
	v1.POST("/milestones", h.CreateMilestone)
	v1.GET("/milestones", h.ListMilestones)
	v1.POST("/equipment", h.CreateEquipment)
	v1.GET("/equipment", h.ListEquipment)
}

// pathID reads a UUID path parameter. A malformed id is reported as not found.
func pathID(c *gin.Context, name string, resource string) (string, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": batches.NotFoundError{Resource: resource, ID: raw}.Error()})
		return "", false
	}
	return id.String(), true
}

// fail maps a service error onto a status code and writes it.
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	var (
		notFound   batches.NotFoundError
		duplicate  batches.DuplicateNameError
		validation batches.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, gin.H{"error": duplicate.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.Is(err, batches.ErrUnsupportedMedia), errors.Is(err, ingest.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error(msg, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
