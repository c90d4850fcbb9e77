package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/millworks/tariffmill/internal/document"
	"github.com/millworks/tariffmill/internal/extract"
	"github.com/millworks/tariffmill/internal/models"
	"github.com/millworks/tariffmill/internal/pipeline"
	"github.com/millworks/tariffmill/internal/report"
	"github.com/millworks/tariffmill/internal/repository"
	"github.com/millworks/tariffmill/internal/services"
)

// PatternSuggester proposes extraction patterns for sample lines.
type PatternSuggester interface {
	Suggest(ctx context.Context, name string, samples []string) (*extract.Pattern, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	reconcile *services.ReconcileService
	suggester PatternSuggester
	reader    *document.Reader
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(reconcile *services.ReconcileService, suggester PatternSuggester, logger Logger) *Handlers {
	return &Handlers{
		reconcile: reconcile,
		suggester: suggester,
		reader:    document.NewReader(nil),
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status          string `json:"status"`
	Timestamp       string `json:"timestamp"`
	SnapshotVersion int64  `json:"snapshot_version"`
	RuleCount       int    `json:"rule_count"`
}

// ReconcileRequest is the JSON body of POST /api/v1/reconcile.
type ReconcileRequest struct {
	DocumentID    string `json:"document_id"`
	Text          string `json:"text" binding:"required"`
	ReferenceDate string `json:"reference_date" binding:"required"` // YYYY-MM-DD
	Profile       string `json:"profile"`
}

// SuggestRequest is the JSON body of POST /api/v1/patterns/suggest.
type SuggestRequest struct {
	Name    string   `json:"name"`
	Samples []string `json:"samples" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	snapshot := h.reconcile.Snapshot()
	response := HealthResponse{
		Status:          "healthy",
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		SnapshotVersion: snapshot.Version(),
		RuleCount:       snapshot.Len(),
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// Reconcile handles POST /api/v1/reconcile. The format query parameter
// selects the rendering: json (default), csv, or xlsx.
func (h *Handlers) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	refDate, err := time.Parse("2006-01-02", req.ReferenceDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "reference_date must be YYYY-MM-DD"})
		return
	}
	if req.DocumentID == "" {
		req.DocumentID = fmt.Sprintf("doc-%d", time.Now().UnixNano())
	}

	doc := models.RawDocument{ID: req.DocumentID, Text: req.Text}
	rpt, err := h.reconcile.Reconcile(c.Request.Context(), doc, refDate.UTC(), req.Profile)
	if err != nil {
		h.renderReconcileError(c, err)
		return
	}
	h.renderReport(c, rpt)
}

// ReconcileFile handles POST /api/v1/reconcile/file: a multipart upload of
// a PDF or text document, with reference_date and profile form fields.
func (h *Handlers) ReconcileFile(c *gin.Context) {
	refDate, err := time.Parse("2006-01-02", c.PostForm("reference_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "reference_date must be YYYY-MM-DD"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "file is required"})
		return
	}
	tmpDir, err := os.MkdirTemp("", "tariffmill-upload-*")
	if err != nil {
		h.logger.Error("Failed to create upload dir", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
		return
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.logger.Error("Failed to save upload", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
		return
	}

	doc, err := h.reader.Read(path)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	rpt, err := h.reconcile.Reconcile(c.Request.Context(), doc, refDate.UTC(), c.PostForm("profile"))
	if err != nil {
		h.renderReconcileError(c, err)
		return
	}
	h.renderReport(c, rpt)
}

// ListRules handles GET /api/v1/rules
func (h *Handlers) ListRules(c *gin.Context) {
	snapshot := h.reconcile.Snapshot()
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"version":   snapshot.Version(),
			"loaded_at": snapshot.LoadedAt().UTC().Format(time.RFC3339),
			"rules":     snapshot.All(),
		},
	})
}

// ImportRules handles POST /api/v1/rules/import: a multipart upload of a
// CSV, tab-delimited, or XLSX rule source.
func (h *Handlers) ImportRules(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "file is required"})
		return
	}
	tmpDir, err := os.MkdirTemp("", "tariffmill-rules-*")
	if err != nil {
		h.logger.Error("Failed to create upload dir", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
		return
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.logger.Error("Failed to save upload", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
		return
	}

	table, err := h.reconcile.ImportRules(path)
	if err != nil {
		h.logger.Error("Rule import failed", "file", file.Filename, "error", err)
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"version": table.Version(),
			"rules":   table.Len(),
		},
	})
}

// ListProfiles handles GET /api/v1/profiles
func (h *Handlers) ListProfiles(c *gin.Context) {
	profiles, err := h.reconcile.ListProfiles()
	if err != nil {
		h.logger.Error("Failed to list profiles", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: profiles})
}

// SaveProfile handles POST /api/v1/profiles
func (h *Handlers) SaveProfile(c *gin.Context) {
	var profile models.MappingProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	if err := h.reconcile.SaveProfile(profile); err != nil {
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// DeleteProfile handles DELETE /api/v1/profiles/:name
func (h *Handlers) DeleteProfile(c *gin.Context) {
	err := h.reconcile.DeleteProfile(c.Param("name"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrProfileNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// SuggestPattern handles POST /api/v1/patterns/suggest
func (h *Handlers) SuggestPattern(c *gin.Context) {
	if h.suggester == nil {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "pattern suggestion is not configured"})
		return
	}

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Samples) == 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "samples are required"})
		return
	}

	pattern, err := h.suggester.Suggest(c.Request.Context(), req.Name, req.Samples)
	if err != nil {
		h.logger.Error("Pattern suggestion failed", "error", err)
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: pattern})
}

// renderReconcileError maps pipeline failures onto HTTP statuses.
func (h *Handlers) renderReconcileError(c *gin.Context, err error) {
	if errors.Is(err, pipeline.ErrPackingList) {
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: err.Error()})
		return
	}
	if errors.Is(err, repository.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
		return
	}
	h.logger.Error("Reconciliation failed", "error", err)
	c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
}

// renderReport writes the report in the requested format.
func (h *Handlers) renderReport(c *gin.Context, rpt models.ReconciliationReport) {
	switch c.Query("format") {
	case "", "json":
		c.JSON(http.StatusOK, Response{Success: true, Data: rpt})
	case "csv":
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, rpt); err != nil {
			h.logger.Error("CSV export failed", "error", err)
			c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", rpt.DocumentID))
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	case "xlsx":
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, rpt); err != nil {
			h.logger.Error("XLSX export failed", "error", err)
			c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", rpt.DocumentID))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	default:
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "format must be json, csv, or xlsx"})
	}
}
