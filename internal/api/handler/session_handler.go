package handler

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"
	"slices"

	"experiment-logger/internal/config"
	"experiment-logger/internal/form"
	"experiment-logger/internal/model"
)

// FieldView is one input of the form
type FieldView struct {
	Name     string      `json:"name"`
	Column   string      `json:"column"`
	Kind     config.Kind `json:"kind"`
	Required bool        `json:"required"`
	Value    string      `json:"value"`
	Options  []string    `json:"options,omitempty"`
}

// GroupView is one group of the form with its toggle state
type GroupView struct {
	Name     string      `json:"name"`
	AlwaysOn bool        `json:"alwaysOn"`
	Active   bool        `json:"active"`
	Fields   []FieldView `json:"fields"`
}

// SessionView is the JSON rendering of a form session
type SessionView struct {
	ID     string      `json:"id"`
	Title  string      `json:"title,omitempty"`
	Groups []GroupView `json:"groups"`
}

func newSessionView(id string, st form.State) SessionView {
	view := SessionView{ID: id, Title: st.Schema.Title}
	for _, g := range st.Schema.Groups {
		gv := GroupView{Name: g.Name, AlwaysOn: g.AlwaysOn, Active: st.IsActive(g.Name)}
		for _, v := range g.Variables {
			fv := FieldView{
				Name:     v.Name,
				Column:   g.Column(v.Name),
				Kind:     v.Type.Kind(),
				Required: v.Required,
				Value:    st.Value(form.FieldKey{Group: g.Name, Variable: v.Name}).String(),
			}
			if sel, ok := v.Type.(config.SelectType); ok {
				fv.Options = sel.Options
			}
			gv.Fields = append(gv.Fields, fv)
		}
		view.Groups = append(view.Groups, gv)
	}
	return view
}

func (h *Handler) view(id string) (SessionView, error) {
	st, err := h.svc.State(id)
	if err != nil {
		return SessionView{}, err
	}
	return newSessionView(id, st), nil
}

// respond writes the messages of an action together with the resulting session
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, id string, msgs []model.Message) {
	view, err := h.view(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	writeJSON(w, http.StatusOK, ActionResponse{Messages: msgs, Session: view})
}

// GetSchema returns the schema new sessions are built from
// @Summary Get form schema
// @Description Groups and variables of the entry form
// @Tags form
// @Produce json
// @Success 200 {object} SessionView "Schema with default values"
// @Router /schema [get]
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSessionView("", form.New(h.svc.Schema())))
}

// GetSession returns the caller's form session, creating it on first use
// @Summary Get form session
// @Description Current values and group toggles of the caller's session, plus pending notices
// @Tags form
// @Produce json
// @Success 200 {object} ActionResponse "Session state"
// @Router /session [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := h.session(w, r)
	h.respond(w, r, id, h.svc.TakeFlash(id))
}

// SetValues updates form fields
// @Summary Set form values
// @Description Parse and store raw inputs keyed by group then variable. Valid fields are kept even when others are rejected.
// @Tags form
// @Accept json
// @Produce json
// @Param values body model.ValuesRequest true "Raw field values"
// @Success 200 {object} ActionResponse "Updated session"
// @Failure 400 {object} ErrorResponse "Unknown field or invalid value"
// @Router /session/values [post]
func (h *Handler) SetValues(w http.ResponseWriter, r *http.Request) {
	var req model.ValuesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	id := h.session(w, r)
	if err := h.setValues(r, id, req.Values); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, id, nil)
}

// setValues dispatches one SetValue per field in a stable order
func (h *Handler) setValues(r *http.Request, id string, values map[string]map[string]string) error {
	var errs []error
	for _, group := range slices.Sorted(maps.Keys(values)) {
		fields := values[group]
		for _, variable := range slices.Sorted(maps.Keys(fields)) {
			cmd := form.SetValue{Field: form.FieldKey{Group: group, Variable: variable}, Raw: fields[variable]}
			if _, err := h.svc.Dispatch(r.Context(), id, cmd); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// ToggleGroup activates or deactivates a group
// @Summary Toggle group
// @Description Include or exclude a group from submission. Always-on groups ignore the toggle.
// @Tags form
// @Accept json
// @Produce json
// @Param toggle body model.ToggleRequest true "Group toggle"
// @Success 200 {object} ActionResponse "Updated session"
// @Failure 400 {object} ErrorResponse "Unknown group"
// @Router /session/toggle [post]
func (h *Handler) ToggleGroup(w http.ResponseWriter, r *http.Request) {
	var req model.ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	id := h.session(w, r)
	msgs, err := h.svc.Dispatch(r.Context(), id, form.ToggleGroup{Group: req.Group, Active: req.Active})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, id, msgs)
}

// ResetForm restores defaults
// @Summary Reset form
// @Description Restore every field to its default. Counters keep their current value.
// @Tags form
// @Produce json
// @Success 200 {object} ActionResponse "Updated session"
// @Router /session/reset [post]
func (h *Handler) ResetForm(w http.ResponseWriter, r *http.Request) {
	id := h.session(w, r)
	msgs, err := h.svc.Dispatch(r.Context(), id, form.Reset{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, id, msgs)
}

// SubmitForm logs the form as one run
// @Summary Submit form
// @Description Validate required fields of active groups and append one row to the log. Missing fields and write failures are reported as messages.
// @Tags form
// @Produce json
// @Success 200 {object} ActionResponse "Outcome messages and updated session"
// @Router /session/submit [post]
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	id := h.session(w, r)
	msgs, err := h.svc.Submit(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, id, msgs)
}

// ResyncCounters recomputes counters from the log
// @Summary Resync counters
// @Description Recompute every auto-increment counter from the values already logged
// @Tags form
// @Produce json
// @Success 200 {object} ActionResponse "Outcome messages and updated session"
// @Router /session/resync [post]
func (h *Handler) ResyncCounters(w http.ResponseWriter, r *http.Request) {
	id := h.session(w, r)
	msgs, err := h.svc.Resync(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, id, msgs)
}
