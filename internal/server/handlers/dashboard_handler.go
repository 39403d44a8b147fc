package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-dashboard/internal/dataset"
	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
	"github.com/mamadbah2/dairy-dashboard/internal/service/dashboard"
	"github.com/mamadbah2/dairy-dashboard/internal/service/reporting"
	"github.com/mamadbah2/dairy-dashboard/internal/service/whatsapp"
)

const (
	maxUploadBytes = 32 << 20
	defaultPreview = 5

	// returnToField marks a browser form post that should land back on the page.
	returnToField    = "return_to"
	uploadedParam    = "uploaded"
	uploadErrorParam = "upload_error"
)

// requestError carries a status decided before any dataset is decoded.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

// DashboardHandler serves the KPI dashboard page and its JSON API.
type DashboardHandler struct {
	dashboard *dashboard.Service
	reporting *reporting.Service
	messaging whatsapp.MessagingService
	logger    *zap.Logger
}

// NewDashboardHandler constructs the HTTP handler adapter. messaging may be nil
// when WhatsApp is not configured.
func NewDashboardHandler(dash *dashboard.Service, rep *reporting.Service, messaging whatsapp.MessagingService, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{dashboard: dash, reporting: rep, messaging: messaging, logger: logger}
}

// UploadDataset accepts a csv or xlsx file in the "file" form field. Form posts
// from the dashboard page are redirected back to it; other clients get JSON.
func (h *DashboardHandler) UploadDataset(c *gin.Context) {
	kind, err := models.ParseDatasetKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	table, err := h.readUpload(c, kind)
	if c.PostForm(returnToField) == "/" {
		h.redirectToPage(c, kind, err)
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"kind":    kind,
		"label":   kind.Label(),
		"rows":    table.Len(),
		"columns": table.Columns(),
	})
}

func (h *DashboardHandler) readUpload(c *gin.Context, kind models.DatasetKind) (models.Table, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, &requestError{status: http.StatusBadRequest, msg: "multipart field \"file\" is required"}
	}
	if header.Size > maxUploadBytes {
		return nil, &requestError{status: http.StatusRequestEntityTooLarge, msg: "file too large"}
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Error("failed opening upload", zap.Error(err))
		return nil, &requestError{status: http.StatusInternalServerError, msg: "unable to read upload"}
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.logger.Error("failed reading upload", zap.Error(err))
		return nil, &requestError{status: http.StatusInternalServerError, msg: "unable to read upload"}
	}

	return h.dashboard.Upload(kind, header.Filename, content)
}

func (h *DashboardHandler) redirectToPage(c *gin.Context, kind models.DatasetKind, err error) {
	query := url.Values{}
	if err != nil {
		query.Set(uploadErrorParam, h.uploadMessage(kind, err))
	} else {
		query.Set(uploadedParam, string(kind))
	}
	c.Redirect(http.StatusSeeOther, "/?"+query.Encode())
}

// uploadMessage keeps decode errors readable and hides anything internal.
func (h *DashboardHandler) uploadMessage(kind models.DatasetKind, err error) string {
	var (
		perr *models.ParseError
		rerr *requestError
	)
	switch {
	case errors.As(err, &perr), errors.As(err, &rerr),
		errors.Is(err, dataset.ErrMissingColumn), errors.Is(err, dataset.ErrUnreadable),
		errors.Is(err, dataset.ErrUnsupportedFormat):
		return "Error loading " + kind.Label() + ": " + err.Error()
	default:
		h.logger.Error("upload failed", zap.Error(err))
		return "Error loading " + kind.Label() + "."
	}
}

// Preview returns the first rows of a loaded dataset.
func (h *DashboardHandler) Preview(c *gin.Context) {
	kind, err := models.ParseDatasetKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	n := defaultPreview
	if raw := c.Query("n"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a non-negative integer"})
			return
		}
	}

	preview, ok := h.dashboard.Preview(kind, n)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": kind.Label() + " not uploaded."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":   kind,
		"label":  kind.Label(),
		"header": preview.Header,
		"rows":   preview.Rows,
	})
}

type kpiView struct {
	Name     models.KPIName   `json:"name"`
	Title    string           `json:"title"`
	Failures []models.Failure `json:"failures"`
}

// KPIs returns the failure set of every KPI.
func (h *DashboardHandler) KPIs(c *gin.Context) {
	analysis, err := h.dashboard.Analyze()
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"generated_at": analysis.GeneratedAt,
		"all_passing":  analysis.AllPassing(),
		"kpis":         kpiViews(analysis),
	})
}

// Recommendations returns the field team action items.
func (h *DashboardHandler) Recommendations(c *gin.Context) {
	analysis, err := h.dashboard.Analyze()
	if err != nil {
		h.writeError(c, err)
		return
	}

	body := gin.H{"generated_at": analysis.GeneratedAt, "actions": analysis.Actions}
	if len(analysis.Actions) == 0 {
		body["message"] = dashboard.MsgNoActions
	}
	c.JSON(http.StatusOK, body)
}

// Report renders the analysis as a markdown document.
func (h *DashboardHandler) Report(c *gin.Context) {
	analysis, err := h.dashboard.Analyze()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(reporting.RenderMarkdown(analysis)))
}

// SendDigest triggers the field team digest on demand.
func (h *DashboardHandler) SendDigest(c *gin.Context) {
	if err := h.reporting.SendDigest(c.Request.Context()); err != nil {
		if errors.Is(err, dashboard.ErrNoCenterData) {
			h.writeError(c, err)
			return
		}
		h.logger.Error("digest failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "digest delivery failed"})
		return
	}
	c.Status(http.StatusAccepted)
}

// Evaluations lists recorded evaluation runs.
func (h *DashboardHandler) Evaluations(c *gin.Context) {
	limit := int64(20)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	reports, err := h.reporting.RecentEvaluations(c.Request.Context(), limit)
	if errors.Is(err, reporting.ErrNoReportStore) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("failed listing evaluations", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to list evaluations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"evaluations": reports})
}

// RecordEvaluation stores the current analysis in the evaluation history.
func (h *DashboardHandler) RecordEvaluation(c *gin.Context) {
	analysis, err := h.dashboard.Analyze()
	if err != nil {
		h.writeError(c, err)
		return
	}

	report, err := h.reporting.RecordEvaluation(c.Request.Context(), analysis)
	if err != nil {
		h.logger.Error("failed recording evaluation", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to record evaluation"})
		return
	}
	c.JSON(http.StatusCreated, report)
}

// SyncSheets reloads the datasets from the configured spreadsheet.
func (h *DashboardHandler) SyncSheets(c *gin.Context) {
	if err := h.reporting.SyncFromSheets(c.Request.Context()); err != nil {
		var perr *models.ParseError
		if errors.As(err, &perr) || errors.Is(err, dataset.ErrMissingColumn) {
			h.writeError(c, err)
			return
		}
		h.logger.Error("sheets sync failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to sync from sheets"})
		return
	}
	c.Status(http.StatusNoContent)
}

// SendMessage allows operators to send a manual WhatsApp message.
func (h *DashboardHandler) SendMessage(c *gin.Context) {
	if h.messaging == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "messaging not configured"})
		return
	}

	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.messaging.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}

func (h *DashboardHandler) writeError(c *gin.Context, err error) {
	var (
		perr *models.ParseError
		rerr *requestError
	)
	switch {
	case errors.As(err, &rerr):
		c.JSON(rerr.status, gin.H{"error": rerr.msg})
	case errors.Is(err, dashboard.ErrNoCenterData):
		c.JSON(http.StatusConflict, gin.H{"error": dashboard.MsgNeedCenterData})
	case errors.As(err, &perr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  err.Error(),
			"table":  perr.Table,
			"row":    perr.Row,
			"column": perr.Column,
			"value":  perr.Value,
		})
	case errors.Is(err, dataset.ErrMissingColumn), errors.Is(err, dataset.ErrUnreadable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, dataset.ErrUnsupportedFormat):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func kpiViews(a dashboard.Analysis) []kpiView {
	views := make([]kpiView, 0, len(models.KPINames))
	for _, name := range models.KPINames {
		views = append(views, kpiView{Name: name, Title: name.Title(), Failures: a.Result[name]})
	}
	return views
}
