package handler

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"experiment-logger/internal/dashboard"
	"experiment-logger/internal/form"
	"experiment-logger/internal/model"
	"experiment-logger/internal/pipeline"
)

// SessionCookie carries the form session id
const SessionCookie = "explog_session"

// Handler serves the JSON API and the HTML pages over one dashboard service
type Handler struct {
	svc    *dashboard.Service
	logger *zap.Logger
	pages  *template.Template
}

// New parses the page templates and returns a handler
func New(svc *dashboard.Service, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Handler{svc: svc, logger: logger, pages: pages}, nil
}

// ErrorResponse is the JSON body of a failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// ActionResponse is returned by every form action
type ActionResponse struct {
	Messages []model.Message `json:"messages"`
	Session  SessionView     `json:"session"`
}

// session resolves the caller's session from the cookie, starting a new one
// when the cookie is missing or the session expired
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	id, created := h.svc.Ensure(r.Context(), id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(h.svc.Options().SessionTTL / time.Second),
		})
	}
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps a service error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, form.ErrUnknownGroup),
		errors.Is(err, form.ErrUnknownVariable),
		errors.Is(err, form.ErrInvalidValue),
		errors.Is(err, pipeline.ErrColumnNotFound),
		errors.Is(err, pipeline.ErrInvalidPrecision),
		errors.Is(err, pipeline.ErrMaxSizeTooSmall),
		errors.Is(err, pipeline.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrSessionNotFound), errors.Is(err, dashboard.ErrNoLogData):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// Health reports liveness
// @Summary Health check
// @Description Liveness probe with the number of open form sessions
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is up"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"sessions":  h.svc.SessionCount(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
