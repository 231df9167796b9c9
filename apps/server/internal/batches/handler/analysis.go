package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
	"github.com/tilsley/hgraph/pkg/api"
)

// maxUploadMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const maxUploadMemory = 32 << 20

type gradeQuery struct {
	BET         *float64 `form:"bet"         binding:"required"`
	Application string   `form:"application"`
}

// CreateAnalysis handles POST /api/v1/analysis.
func (h *Handler) CreateAnalysis(c *gin.Context) {
	var in api.AnalysisResultInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.svc.CreateAnalysis(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "failed to create analysis", err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// ListAnalyses handles GET /api/v1/analysis/batch/:batch_id.
func (h *Handler) ListAnalyses(c *gin.Context) {
	id, ok := pathID(c, "batch_id", batches.ResourceGraphene)
	if !ok {
		return
	}
	list, err := h.svc.ListAnalyses(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to list analyses", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetAnalysis handles GET /api/v1/analysis/:id.
func (h *Handler) GetAnalysis(c *gin.Context) {
	id, ok := pathID(c, "id", batches.ResourceAnalysis)
	if !ok {
		return
	}
	a, err := h.svc.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to get analysis", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteAnalysis handles DELETE /api/v1/analysis/:id.
func (h *Handler) DeleteAnalysis(c *gin.Context) {
	id, ok := pathID(c, "id", batches.ResourceAnalysis)
	if !ok {
		return
	}
	if err := h.svc.DeleteAnalysis(c.Request.Context(), id); err != nil {
		h.fail(c, "failed to delete analysis", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Analysis result deleted successfully"})
}

// UploadImages handles POST /api/v1/analysis/upload-images/:analysis_id with
// multipart fields sem_files and tem_files.
func (h *Handler) UploadImages(c *gin.Context) {
	id, ok := pathID(c, "analysis_id", batches.ResourceAnalysis)
	if !ok {
		return
	}
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		badRequest(c, fmt.Errorf("invalid multipart body: %w", err))
		return
	}
	form := c.Request.MultipartForm
	defer form.RemoveAll() //nolint:errcheck

	sem, closeSEM, err := openUploads(form.File["sem_files"])
	defer closeSEM()
	if err != nil {
		badRequest(c, err)
		return
	}
	tem, closeTEM, err := openUploads(form.File["tem_files"])
	defer closeTEM()
	if err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.UploadImages(c.Request.Context(), id, sem, tem)
	if err != nil {
		h.fail(c, "failed to upload images", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// openUploads opens every file header. The returned func closes whatever
// was opened, even on error.
func openUploads(headers []*multipart.FileHeader) ([]batches.Upload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close() //nolint:errcheck
		}
	}
	uploads := make([]batches.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("open %q: %w", fh.Filename, err)
		}
		files = append(files, f)
		uploads = append(uploads, batches.Upload{Filename: fh.Filename, Content: f})
	}
	return uploads, closeAll, nil
}

// Grade handles GET /api/v1/analysis/grade?bet=&application=.
func (h *Handler) Grade(c *gin.Context) {
	var q gradeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.Grade(q.Application, *q.BET)
	if err != nil {
		h.fail(c, "failed to grade", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
