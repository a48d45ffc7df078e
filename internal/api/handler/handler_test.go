package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"experiment-logger/internal/config"
	"experiment-logger/internal/dashboard"
	"experiment-logger/internal/form"
	"experiment-logger/internal/model"
	"experiment-logger/internal/pipeline"
	"experiment-logger/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testSchemaYAML = `
title: Test Bench
groups:
  - name: General
    always_on: true
    variables:
      - name: Run ID
        type: auto_increment
        pad: 4
        prefix: "RUN-"
        required: true
      - name: Operator
        type: text
        required: true
  - name: Laser
    filterable: true
    variables:
      - name: Power
        type: float
        default: 1.5
      - name: Mode
        type: select
        options: [CW, Pulsed]
`

func loggedRuns() [][]string {
	return [][]string{
		{"Timestamp", "General — Run ID", "General — Operator", "Laser — Power", "Laser — Mode"},
		{"2024-04-30 09:00:00", "RUN-0001", "ada", "1.04", "CW"},
		{"2024-04-30 09:10:00", "RUN-0002", "ada", "0.96", "CW"},
		{"2024-04-30 09:20:00", "RUN-0003", "grace", "2.5", "Pulsed"},
	}
}

type testEnv struct {
	h      *Handler
	sheet  *store.MemorySheet
	cookie *http.Cookie
}

func newTestEnv(t *testing.T, rows ...[]string) *testEnv {
	t.Helper()
	schema, err := config.ParseSchema([]byte(testSchemaYAML))
	require.NoError(t, err)

	sheet := store.NewMemorySheet(rows...)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := dashboard.New(schema, store.NewLogStore(sheet, nil), zap.NewNop(), dashboard.Options{
		Now: func() time.Time { return now },
	})
	h, err := New(svc, zap.NewNop())
	require.NoError(t, err)
	return &testEnv{h: h, sheet: sheet}
}

// do runs a handler, carrying the session cookie between calls
func (e *testEnv) do(t *testing.T, fn http.HandlerFunc, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			e.cookie = c
		}
	}
	return rec
}

func (e *testEnv) post(t *testing.T, fn http.HandlerFunc, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func fieldValue(view SessionView, group, field string) string {
	for _, g := range view.Groups {
		if g.Name != group {
			continue
		}
		for _, f := range g.Fields {
			if f.Name == field {
				return f.Value
			}
		}
	}
	return ""
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestGetSession_SetsCookieAndSeedsCounter(t *testing.T) {
	env := newTestEnv(t, loggedRuns()...)

	rec := env.do(t, env.h.GetSession, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.cookie)

	resp := decode[ActionResponse](t, rec)
	assert.Equal(t, env.cookie.Value, resp.Session.ID)
	assert.Equal(t, "Test Bench", resp.Session.Title)
	assert.Equal(t, "RUN-0004", fieldValue(resp.Session, "General", "Run ID"))
	assert.Equal(t, "CW", fieldValue(resp.Session, "Laser", "Mode"))

	// Same session on the next call
	first := env.cookie.Value
	rec = env.do(t, env.h.GetSession, http.MethodGet, "/api/v1/session", nil)
	assert.Equal(t, first, decode[ActionResponse](t, rec).Session.ID)
}

func TestSetValues(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.h.SetValues, http.MethodPost, "/api/v1/session/values", jsonBody(t, model.ValuesRequest{
		Values: map[string]map[string]string{"General": {"Operator": "ada"}, "Laser": {"Power": "2.25"}},
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ActionResponse](t, rec)
	assert.Equal(t, "ada", fieldValue(resp.Session, "General", "Operator"))
	assert.Equal(t, "2.25", fieldValue(resp.Session, "Laser", "Power"))

	rec = env.do(t, env.h.SetValues, http.MethodPost, "/api/v1/session/values", jsonBody(t, model.ValuesRequest{
		Values: map[string]map[string]string{"Laser": {"Power": "hot"}},
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, env.h.SetValues, http.MethodPost, "/api/v1/session/values", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitForm(t *testing.T) {
	env := newTestEnv(t, loggedRuns()...)

	rec := env.do(t, env.h.SubmitForm, http.MethodPost, "/api/v1/session/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ActionResponse](t, rec)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "Please fill in required fields: Operator", resp.Messages[0].Text)

	env.do(t, env.h.SetValues, http.MethodPost, "/api/v1/session/values", jsonBody(t, model.ValuesRequest{
		Values: map[string]map[string]string{"General": {"Operator": "grace"}},
	}))
	rec = env.do(t, env.h.SubmitForm, http.MethodPost, "/api/v1/session/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[ActionResponse](t, rec)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, model.LevelSuccess, resp.Messages[0].Level)
	assert.Equal(t, "Run 'RUN-0004' logged at 2024-05-01 12:00:00", resp.Messages[0].Text)
	assert.Equal(t, "RUN-0005", fieldValue(resp.Session, "General", "Run ID"))

	n, err := store.NewLogStore(env.sheet, nil).RowCount(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestToggleGroup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.h.ToggleGroup, http.MethodPost, "/api/v1/session/toggle", jsonBody(t, model.ToggleRequest{Group: "Laser"}))
	require.Equal(t, http.StatusOK, rec.Code)
	for _, g := range decode[ActionResponse](t, rec).Session.Groups {
		assert.Equal(t, g.Name == "General", g.Active, g.Name)
	}

	rec = env.do(t, env.h.ToggleGroup, http.MethodPost, "/api/v1/session/toggle", jsonBody(t, model.ToggleRequest{Group: "Cryo"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "Cryo")
}

func TestResetAndResync(t *testing.T) {
	env := newTestEnv(t, loggedRuns()...)

	rec := env.do(t, env.h.ResetForm, http.MethodPost, "/api/v1/session/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Fields reset to defaults", decode[ActionResponse](t, rec).Messages[0].Text)

	rec = env.do(t, env.h.ResyncCounters, http.MethodPost, "/api/v1/session/resync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ActionResponse](t, rec)
	assert.Equal(t, model.LevelInfo, resp.Messages[0].Level)
	assert.Equal(t, "RUN-0004", fieldValue(resp.Session, "General", "Run ID"))
}

func TestGetSchema(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.h.GetSchema, http.MethodGet, "/api/v1/schema", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[SessionView](t, rec)
	require.Len(t, view.Groups, 2)
	assert.True(t, view.Groups[0].AlwaysOn)
	assert.Equal(t, config.KindAutoIncrement, view.Groups[0].Fields[0].Kind)
	assert.Equal(t, "General — Run ID", view.Groups[0].Fields[0].Column)
	assert.Equal(t, []string{"CW", "Pulsed"}, view.Groups[1].Fields[1].Options)
	assert.Nil(t, env.cookie, "schema does not start a session")
}

func TestLogEndpoints(t *testing.T) {
	env := newTestEnv(t, loggedRuns()...)

	rec := env.do(t, env.h.GetLog, http.MethodGet, "/api/v1/log", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[model.Snapshot](t, rec)
	assert.Equal(t, 3, snap.Table.Len())

	rec = env.do(t, env.h.GetRecent, http.MethodGet, "/api/v1/log/recent?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	recent := decode[RecentResponse](t, rec)
	assert.Equal(t, 3, recent.Total)
	assert.Equal(t, 2, recent.Shown)
	assert.Equal(t, "RUN-0003", recent.Recent.Rows[0][1])

	rec = env.do(t, env.h.GetRecent, http.MethodGet, "/api/v1/log/recent?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.sheet.ReadErr = errors.New("offline")
	rec = env.do(t, env.h.RefreshLog, http.MethodPost, "/api/v1/log/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code, "store failures are reported in the body")
	assert.Contains(t, decode[model.Snapshot](t, rec).Warning, "offline")
}

func TestExportLog(t *testing.T) {
	env := newTestEnv(t, loggedRuns()...)

	rec := env.do(t, env.h.ExportLog, http.MethodGet, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="experiment_log_20240501.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "3", rec.Header().Get("X-Record-Count"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Timestamp,General — Run ID"))

	rec = env.do(t, env.h.ExportLog, http.MethodGet, "/api/v1/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PK", rec.Body.String()[:2], "xlsx is a zip archive")

	rec = env.do(t, env.h.ExportLog, http.MethodGet, "/api/v1/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.sheet.ReadErr = errors.New("offline")
	rec = env.do(t, env.h.ExportLog, http.MethodGet, "/api/v1/export", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestCreatePlot(t *testing.T) {
	env := newTestEnv(t, loggedRuns()...)

	rec := env.do(t, env.h.CreatePlot, http.MethodPost, "/api/v1/plot", jsonBody(t, model.PlotRequest{
		X: "Laser — Power", Y: "Laser — Power", Color: "Laser — Mode", XPrecision: 1, YPrecision: 1,
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[PlotResponse](t, rec)
	require.NotNil(t, resp.Figure)
	assert.Equal(t, 2, resp.Bins)
	assert.Equal(t, 3, resp.Rows)
	assert.Len(t, resp.Figure.Data, 2, "one trace per mode")

	rec = env.do(t, env.h.CreatePlot, http.MethodPost, "/api/v1/plot", jsonBody(t, model.PlotRequest{X: "Laser — Power", Y: "Nope"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, env.h.CreatePlot, http.MethodPost, "/api/v1/plot", jsonBody(t, model.PlotRequest{
		X: "Laser — Power", Y: "Laser — Power", XPrecision: 11,
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePlot_NothingToDraw(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.h.CreatePlot, http.MethodPost, "/api/v1/plot", jsonBody(t, model.PlotRequest{X: "a", Y: "b"}))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[PlotResponse](t, rec)
	assert.Nil(t, resp.Figure)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, model.LevelInfo, resp.Messages[0].Level)

	env = newTestEnv(t, loggedRuns()...)
	rec = env.do(t, env.h.CreatePlot, http.MethodPost, "/api/v1/plot", jsonBody(t, model.PlotRequest{
		X: "Laser — Power", Y: "Laser — Power",
		Filters: model.FilterSpec{Select: map[string][]string{"Laser — Mode": {"Burst"}}},
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[PlotResponse](t, rec)
	assert.Nil(t, resp.Figure)
	assert.Equal(t, "No rows match the current selection", resp.Messages[0].Text)
}

func TestRenderPlotImage(t *testing.T) {
	env := newTestEnv(t, loggedRuns()...)
	q := url.Values{"x": {"Laser — Power"}, "y": {"Laser — Power"}, "xp": {"1"}, "yp": {"1"}}

	rec := env.do(t, env.h.RenderPlotImage, http.MethodGet, "/api/v1/plot.svg?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = env.do(t, env.h.RenderPlotImage, http.MethodGet, "/api/v1/plot.png?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String()[:4])

	rec = env.do(t, env.h.RenderPlotImage, http.MethodGet, "/api/v1/plot.svg?x=a&y=b&xp=one", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, env.h.RenderPlotImage, http.MethodGet, "/api/v1/plot.svg?"+q.Encode()+"&max=NaN", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env = newTestEnv(t, loggedRuns()...)
	env.sheet.ReadErr = errors.New("offline")
	rec = env.do(t, env.h.RenderPlotImage, http.MethodGet, "/api/v1/plot.svg?"+q.Encode(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPlotRequestFromQuery(t *testing.T) {
	q := url.Values{
		"x": {"A"}, "y": {"B"}, "color": {"C"},
		"xp": {"-1"}, "yp": {"2"}, "max": {"30"},
		"from": {"2024-01-01"}, "to": {"2024-02-01"},
		"f:Laser — Mode": {"CW", "Pulsed"},
		"f:":             {"ignored"},
	}
	req, err := plotRequestFromQuery(q)
	require.NoError(t, err)
	assert.Equal(t, model.PlotRequest{
		X: "A", Y: "B", Color: "C", XPrecision: -1, YPrecision: 2, MaxSize: 30,
		Filters: model.FilterSpec{
			Select: map[string][]string{"Laser — Mode": {"CW", "Pulsed"}},
			From:   "2024-01-01",
			To:     "2024-02-01",
		},
	}, req)

	_, err = plotRequestFromQuery(url.Values{"xp": {"x"}, "max": {"big"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xp must be an integer")
	assert.Contains(t, err.Error(), "max must be a number")

	for _, raw := range []string{"NaN", "Inf", "-Inf"} {
		_, err = plotRequestFromQuery(url.Values{"max": {raw}})
		assert.ErrorContains(t, err, "max must be a number", raw)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		form.ErrInvalidValue:          http.StatusBadRequest,
		form.ErrUnknownGroup:          http.StatusBadRequest,
		pipeline.ErrInvalidPrecision:  http.StatusBadRequest,
		pipeline.ErrInvalidDate:       http.StatusBadRequest,
		dashboard.ErrNoLogData:        http.StatusNotFound,
		dashboard.ErrSessionNotFound:  http.StatusNotFound,
		dashboard.ErrStoreUnavailable: http.StatusServiceUnavailable,
		errors.New("boom"):            http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}

func TestFormPages(t *testing.T) {
	env := newTestEnv(t, loggedRuns()...)

	rec := env.do(t, env.h.FormPage, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Test Bench")
	assert.Contains(t, body, `value="RUN-0004"`)
	assert.Contains(t, body, "Recent runs (3 of 3)")

	rec = env.post(t, env.h.FormSubmit, "/form/submit", url.Values{
		"General — Operator": {"grace"},
		"Laser — Power":      {"3.5"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = env.do(t, env.h.FormPage, http.MethodGet, "/", nil)
	body = rec.Body.String()
	assert.Contains(t, body, "Run &#39;RUN-0004&#39; logged at 2024-05-01 12:00:00")
	assert.Contains(t, body, `value="RUN-0005"`)
	assert.Contains(t, body, "Recent runs (4 of 4)")

	// Flash is shown once
	rec = env.do(t, env.h.FormPage, http.MethodGet, "/", nil)
	assert.NotContains(t, rec.Body.String(), "logged at")

	rec = env.post(t, env.h.FormSubmit, "/form/submit", url.Values{"Laser — Power": {"warm"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = env.do(t, env.h.FormPage, http.MethodGet, "/", nil)
	assert.Contains(t, rec.Body.String(), `class="msg error"`)
	assert.Contains(t, rec.Body.String(), "Recent runs (4 of 4)", "nothing logged on a parse error")

	rec = env.post(t, env.h.FormToggle, "/form/toggle", url.Values{"group": {"Laser"}, "active": {"false"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = env.do(t, env.h.FormPage, http.MethodGet, "/", nil)
	assert.Contains(t, rec.Body.String(), "Laser (disabled)")

	rec = env.do(t, env.h.FormPage, http.MethodGet, "/elsewhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlotPage(t *testing.T) {
	env := newTestEnv(t, loggedRuns()...)

	rec := env.do(t, env.h.PlotPage, http.MethodGet, "/plot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Plot (3 runs)")
	assert.NotContains(t, rec.Body.String(), "Plotly.newPlot")

	q := url.Values{"x": {"Laser — Power"}, "y": {"Laser — Power"}, "color": {"Laser — Mode"}, "f:Laser — Mode": {"CW"}}
	rec = env.do(t, env.h.PlotPage, http.MethodGet, "/plot?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Plotly.newPlot")
	assert.Contains(t, rec.Body.String(), `"scatter"`)

	empty := newTestEnv(t)
	rec = empty.do(t, empty.h.PlotPage, http.MethodGet, "/plot", nil)
	assert.Contains(t, rec.Body.String(), "Nothing has been logged yet")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.h.Health, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
}
