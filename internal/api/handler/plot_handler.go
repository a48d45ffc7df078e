package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"experiment-logger/internal/dashboard"
	"experiment-logger/internal/model"
	"experiment-logger/internal/plot"
	"experiment-logger/pkg/utils"
)

// filterParamPrefix marks query parameters that select column values, e.g.
// f:Laser — Mode=CW&f:Laser — Mode=Pulsed
const filterParamPrefix = "f:"

// PlotResponse is the body of POST /api/v1/plot. Figure is nil when there is
// nothing to draw; Messages then says why.
type PlotResponse struct {
	Figure   *plot.Figure    `json:"figure,omitempty"`
	Bins     int             `json:"bins"`
	Rows     int             `json:"rows"`
	Dropped  int             `json:"dropped"`
	Messages []model.Message `json:"messages,omitempty"`
}

// GetPlotChoices lists the columns and filter values the plot controls offer
// @Summary Get plot choices
// @Description Numeric axis columns, color columns, filter values and the date range of the log
// @Tags plot
// @Produce json
// @Success 200 {object} dashboard.PlotChoices "Plot controls"
// @Router /plot/choices [get]
func (h *Handler) GetPlotChoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Choices(r.Context()))
}

// CreatePlot bins the log into a bubble chart
// @Summary Create plot
// @Description Filter the log, bin it on rounded X and Y and return a plotly figure
// @Tags plot
// @Accept json
// @Produce json
// @Param plot body model.PlotRequest true "Axes, precision, color and filters"
// @Success 200 {object} PlotResponse "Figure, or messages when there is nothing to draw"
// @Failure 400 {object} ErrorResponse "Invalid axes, precision, size or dates"
// @Router /plot [post]
func (h *Handler) CreatePlot(w http.ResponseWriter, r *http.Request) {
	var req model.PlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	resp, err := h.plot(r, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// plot runs a request and turns "nothing to draw" outcomes into messages
func (h *Handler) plot(r *http.Request, req model.PlotRequest) (PlotResponse, error) {
	res, err := h.svc.Plot(r.Context(), req)
	switch {
	case errors.Is(err, dashboard.ErrNoLogData):
		return PlotResponse{Messages: []model.Message{{Level: model.LevelInfo, Text: "Nothing has been logged yet"}}}, nil
	case errors.Is(err, dashboard.ErrStoreUnavailable):
		return PlotResponse{Messages: []model.Message{{Level: model.LevelWarning, Text: err.Error()}}}, nil
	case err != nil:
		return PlotResponse{}, err
	}

	resp := PlotResponse{Bins: len(res.Bins), Rows: res.Rows, Dropped: res.Dropped}
	if len(res.Bins) == 0 {
		resp.Messages = append(resp.Messages, model.Message{Level: model.LevelInfo, Text: "No rows match the current selection"})
		return resp, nil
	}
	fig := plot.NewFigure(res, plot.Options{})
	resp.Figure = &fig
	if res.Dropped > 0 {
		resp.Messages = append(resp.Messages, model.Message{
			Level: model.LevelInfo,
			Text:  fmt.Sprintf("%d row(s) without numeric %s and %s were left out", res.Dropped, req.X, req.Y),
		})
	}
	return resp, nil
}

// RenderPlotImage renders the bubble chart as an image
// @Summary Render plot image
// @Description Static bubble chart of the filtered log. Filter values are passed as f:<column>=<value>.
// @Tags plot
// @Produce image/svg+xml
// @Produce image/png
// @Param x query string true "X column"
// @Param y query string true "Y column"
// @Param color query string false "Color column"
// @Param xp query int false "X precision"
// @Param yp query int false "Y precision"
// @Param max query number false "Largest bubble size"
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {file} file "Chart image"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Nothing to draw"
// @Failure 503 {object} ErrorResponse "Log store unavailable"
// @Router /plot.svg [get]
// @Router /plot.png [get]
func (h *Handler) RenderPlotImage(w http.ResponseWriter, r *http.Request) {
	req, err := plotRequestFromQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.svc.Plot(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	render, name := plot.RenderSVG, "plot.svg"
	if strings.HasSuffix(r.URL.Path, ".png") {
		render, name = plot.RenderPNG, "plot.png"
	}

	var buf bytes.Buffer
	if err := render(&buf, res, plot.Options{}); err != nil {
		if errors.Is(err, plot.ErrNoData) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", utils.ContentType(name))
	w.Write(buf.Bytes())
}

// plotRequestFromQuery reads a plot request from URL parameters
func plotRequestFromQuery(q url.Values) (model.PlotRequest, error) {
	req := model.PlotRequest{
		X:     q.Get("x"),
		Y:     q.Get("y"),
		Color: q.Get("color"),
		Filters: model.FilterSpec{
			From: q.Get("from"),
			To:   q.Get("to"),
		},
	}

	var errs []error
	atoi := func(name string) int {
		raw := q.Get(name)
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be an integer, got %q", name, raw))
		}
		return n
	}
	req.XPrecision = atoi("xp")
	req.YPrecision = atoi("yp")

	if raw := q.Get("max"); raw != "" {
		f, ok := utils.ParseFloat(raw)
		if !ok {
			errs = append(errs, fmt.Errorf("max must be a number, got %q", raw))
		}
		req.MaxSize = f
	}

	for key, values := range q {
		column, ok := strings.CutPrefix(key, filterParamPrefix)
		if !ok || column == "" {
			continue
		}
		if req.Filters.Select == nil {
			req.Filters.Select = make(map[string][]string)
		}
		req.Filters.Select[column] = append(req.Filters.Select[column], values...)
	}
	return req, errors.Join(errs...)
}
