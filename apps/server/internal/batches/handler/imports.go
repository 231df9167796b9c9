package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/hgraph/apps/server/internal/batches/ingest"
)

// Import handles POST /api/v1/import/csv?data_type=. The multipart field
// "file" holds a CSV or XLSX export. data_type defaults to graphene.
func (h *Handler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("missing file: %w", err))
		return
	}
	if _, err := ingest.DetectFormat(fh.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be CSV or Excel format"})
		return
	}
	dt, err := ingest.ParseDataType(c.DefaultQuery("data_type", string(ingest.Graphene)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data_type"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		badRequest(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close() //nolint:errcheck

	tbl, err := ingest.Read(fh.Filename, f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Error processing file: %v", err)})
		return
	}
	res, err := h.svc.Import(c.Request.Context(), dt, tbl)
	if err != nil {
		h.log.Error("import failed", "data_type", dt, "file", fh.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Import failed: %v", err)})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Template handles GET /api/v1/import/template/:data_type. With
// ?format=csv the template is sent as a CSV attachment.
func (h *Handler) Template(c *gin.Context) {
	dt, err := ingest.ParseDataType(c.Param("data_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template type"})
		return
	}
	tmpl, err := ingest.Template(dt)
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidDataType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template type"})
			return
		}
		h.fail(c, "template failed", err)
		return
	}

	if c.Query("format") != "csv" {
		c.JSON(http.StatusOK, tmpl)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tmpl.Filename))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := ingest.WriteCSV(c.Writer, tmpl); err != nil {
		h.log.Error("write template csv", "data_type", dt, "error", err)
	}
}
