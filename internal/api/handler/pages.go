package handler

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"experiment-logger/internal/dashboard"
	"experiment-logger/internal/form"
	"experiment-logger/internal/model"
	"experiment-logger/internal/pipeline"
)

//go:embed templates/*.html
var pageFS embed.FS

func parsePages() (*template.Template, error) {
	return template.New("pages").Funcs(template.FuncMap{
		"contains": func(list []string, v string) bool {
			for _, s := range list {
				if s == v {
					return true
				}
			}
			return false
		},
	}).ParseFS(pageFS, "templates/*.html")
}

type formPage struct {
	Session  SessionView
	Messages []model.Message
	Recent   pipeline.Summary
}

type plotPage struct {
	Title    string
	Choices  dashboard.PlotChoices
	Request  model.PlotRequest
	Figure   template.JS
	Messages []model.Message
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("Failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
	}
}

// FormPage renders the entry form with pending notices and the latest runs
func (h *Handler) FormPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	id := h.session(w, r)
	view, err := h.view(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	recent, warning := h.svc.Recent(r.Context())
	h.render(w, "form.html", formPage{
		Session:  view,
		Messages: append(h.svc.TakeFlash(id), snapshotWarning(warning)...),
		Recent:   recent,
	})
}

// backToForm queues the outcome of a form post and redirects to the form
func (h *Handler) backToForm(w http.ResponseWriter, r *http.Request, id string, msgs []model.Message, err error) {
	if err != nil {
		msgs = append(msgs, model.Message{Level: model.LevelError, Text: err.Error()})
	}
	h.svc.Flash(id, msgs...)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// FormToggle handles the group checkboxes of the form page
func (h *Handler) FormToggle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	id := h.session(w, r)
	active, _ := strconv.ParseBool(r.PostForm.Get("active"))
	msgs, err := h.svc.Dispatch(r.Context(), id, form.ToggleGroup{Group: r.PostForm.Get("group"), Active: active})
	h.backToForm(w, r, id, msgs, err)
}

// FormSubmit stores the posted inputs and logs the run. Nothing is logged
// when any input fails to parse.
func (h *Handler) FormSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	id := h.session(w, r)
	st, err := h.svc.State(id)
	if err != nil {
		h.backToForm(w, r, id, nil, err)
		return
	}

	// Inputs are named after their log column
	var errs []error
	for _, g := range st.Schema.Groups {
		for _, v := range g.Variables {
			if _, posted := r.PostForm[g.Column(v.Name)]; !posted {
				continue
			}
			cmd := form.SetValue{Field: form.FieldKey{Group: g.Name, Variable: v.Name}, Raw: r.PostForm.Get(g.Column(v.Name))}
			if _, err := h.svc.Dispatch(r.Context(), id, cmd); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		h.backToForm(w, r, id, nil, errors.Join(errs...))
		return
	}

	msgs, err := h.svc.Submit(r.Context(), id)
	h.backToForm(w, r, id, msgs, err)
}

// FormReset restores the defaults of the form page
func (h *Handler) FormReset(w http.ResponseWriter, r *http.Request) {
	id := h.session(w, r)
	msgs, err := h.svc.Dispatch(r.Context(), id, form.Reset{})
	h.backToForm(w, r, id, msgs, err)
}

// FormResync recomputes the counters shown on the form page
func (h *Handler) FormResync(w http.ResponseWriter, r *http.Request) {
	id := h.session(w, r)
	msgs, err := h.svc.Resync(r.Context(), id)
	h.backToForm(w, r, id, msgs, err)
}

// PlotPage renders the plotting controls and, when axes are chosen, the chart
func (h *Handler) PlotPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") != "" {
		h.svc.Refresh(r.Context())
	}

	choices := h.svc.Choices(r.Context())
	page := plotPage{
		Title:    h.svc.Schema().Title,
		Choices:  choices,
		Messages: snapshotWarning(choices.Warning),
	}

	req, err := plotRequestFromQuery(r.URL.Query())
	page.Request = req
	switch {
	case err != nil:
		page.Messages = append(page.Messages, model.Message{Level: model.LevelError, Text: err.Error()})
	case req.X != "" && req.Y != "":
		resp, err := h.plot(r, req)
		if err != nil {
			page.Messages = append(page.Messages, model.Message{Level: model.LevelError, Text: err.Error()})
			break
		}
		page.Messages = append(page.Messages, resp.Messages...)
		if resp.Figure != nil {
			data, err := json.Marshal(resp.Figure)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			page.Figure = template.JS(data)
		}
	case choices.Rows == 0 && choices.Warning == "":
		page.Messages = append(page.Messages, model.Message{Level: model.LevelInfo, Text: "Nothing has been logged yet"})
	}
	if page.Request.MaxSize == 0 {
		page.Request.MaxSize = choices.MaxSize
	}
	h.render(w, "plot.html", page)
}
