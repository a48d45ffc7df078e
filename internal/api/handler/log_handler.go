package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"experiment-logger/internal/model"
	"experiment-logger/internal/pipeline"
	"experiment-logger/pkg/utils"
)

// RecentResponse is the body of GET /api/v1/log/recent
type RecentResponse struct {
	pipeline.Summary
	Warning string `json:"warning,omitempty"`
}

// GetLog returns the cached log
// @Summary Get log
// @Description The whole log as loaded from the store. An unreadable store yields an empty table and a warning.
// @Tags log
// @Produce json
// @Success 200 {object} model.Snapshot "Log snapshot"
// @Router /log [get]
func (h *Handler) GetLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot(r.Context()))
}

// GetRecent returns the newest runs
// @Summary Get recent runs
// @Description The newest rows of the log, newest first
// @Tags log
// @Produce json
// @Param limit query int false "Number of rows (defaults to plot.recent_rows)"
// @Success 200 {object} RecentResponse "Recent runs"
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Router /log/recent [get]
func (h *Handler) GetRecent(w http.ResponseWriter, r *http.Request) {
	summary, warning := h.svc.Recent(r.Context())

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		summary = pipeline.Summarize(h.svc.Snapshot(r.Context()).Table, n)
	}
	writeJSON(w, http.StatusOK, RecentResponse{Summary: summary, Warning: warning})
}

// RefreshLog drops the cached log and reloads it
// @Summary Refresh log
// @Description Reload the log from the store
// @Tags log
// @Produce json
// @Success 200 {object} model.Snapshot "Fresh log snapshot"
// @Router /log/refresh [post]
func (h *Handler) RefreshLog(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Refresh(r.Context())
	if snap.Warning != "" {
		h.logger.Warn("Log refresh failed", zap.String("warning", snap.Warning))
	}
	writeJSON(w, http.StatusOK, snap)
}

// ExportLog downloads a snapshot of the log
// @Summary Export log
// @Description Download the whole log as CSV or XLSX
// @Tags log
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file "Log snapshot"
// @Failure 400 {object} ErrorResponse "Unsupported format"
// @Failure 503 {object} ErrorResponse "Log store unavailable"
// @Router /export [get]
func (h *Handler) ExportLog(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatCSV
	}
	if format != pipeline.FormatCSV && format != pipeline.FormatXLSX {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("unsupported format %q", format)})
		return
	}

	// Buffered so a failure can still be reported with a status code
	var buf bytes.Buffer
	res, err := h.svc.Export(r.Context(), &buf, format)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", utils.ContentType(res.FileName))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Record-Count", strconv.Itoa(res.RecordCount))
	w.Write(buf.Bytes())
}

// snapshotWarning builds the notice shown when the log cannot be read
func snapshotWarning(warning string) []model.Message {
	if warning == "" {
		return nil
	}
	return []model.Message{{Level: model.LevelWarning, Text: warning}}
}
