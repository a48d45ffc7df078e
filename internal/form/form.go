// Package form holds the per-session state of the entry form and the command
// handlers that change it. Handlers never touch the log store: they return the
// new state together with effects (rows to append, messages to show) that the
// caller applies, feeding the outcome of a write back as RowLogged or WriteFailed.
package form

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"experiment-logger/internal/config"
	"experiment-logger/internal/counter"
	"experiment-logger/internal/model"
)

// State is a snapshot of one session's form
type State struct {
	Schema *config.Schema
	Active map[string]bool
	Values map[FieldKey]Value
}

// New starts a form with every group active and every field at its default
func New(schema *config.Schema) State {
	s := State{
		Schema: schema,
		Active: make(map[string]bool, len(schema.Groups)),
		Values: make(map[FieldKey]Value),
	}
	for _, g := range schema.Groups {
		s.Active[g.Name] = true
		for _, v := range g.Variables {
			s.Values[FieldKey{g.Name, v.Name}] = Default(v)
		}
	}
	return s
}

func (s State) clone() State {
	return State{
		Schema: s.Schema,
		Active: maps.Clone(s.Active),
		Values: maps.Clone(s.Values),
	}
}

// IsActive reports whether a group participates in submission
func (s State) IsActive(group string) bool {
	g, ok := s.Schema.Group(group)
	if !ok {
		return false
	}
	return g.AlwaysOn || s.Active[group]
}

// ActiveGroups returns the participating groups in schema order
func (s State) ActiveGroups() []config.GroupSpec {
	var out []config.GroupSpec
	for _, g := range s.Schema.Groups {
		if g.AlwaysOn || s.Active[g.Name] {
			out = append(out, g)
		}
	}
	return out
}

// Value returns the current value of a field
func (s State) Value(key FieldKey) Value {
	if v, ok := s.Values[key]; ok {
		return v
	}
	return Blank{}
}

// Lookup resolves a field against the schema
func (s State) Lookup(key FieldKey) (config.VariableSpec, error) {
	g, ok := s.Schema.Group(key.Group)
	if !ok {
		return config.VariableSpec{}, fmt.Errorf("%w %q", ErrUnknownGroup, key.Group)
	}
	v, ok := g.Variable(key.Variable)
	if !ok {
		return config.VariableSpec{}, fmt.Errorf("%w %q in group %q", ErrUnknownVariable, key.Variable, key.Group)
	}
	return v, nil
}

// Command is an action taken on the form
type Command interface{ isCommand() }

// ToggleGroup activates or deactivates a group. Always-on groups ignore it.
type ToggleGroup struct {
	Group  string
	Active bool
}

// SetValue stores raw user input into a field
type SetValue struct {
	Field FieldKey
	Raw   string
}

// Reset restores every field to its default. Counters keep their value.
type Reset struct{}

// Submit validates the active groups and requests a row append
type Submit struct {
	At time.Time
}

// RowLogged reports that the row requested by Submit was written
type RowLogged struct {
	Row model.LogRow
}

// WriteFailed reports that the row requested by Submit could not be written
type WriteFailed struct {
	Err error
}

// SyncCounters recomputes every counter from the logged history of its
// column, keyed by column name. A column without history resets to the start value.
type SyncCounters struct {
	History map[string][]string
}

func (ToggleGroup) isCommand()  {}
func (SetValue) isCommand()     {}
func (Reset) isCommand()        {}
func (Submit) isCommand()       {}
func (RowLogged) isCommand()    {}
func (WriteFailed) isCommand()  {}
func (SyncCounters) isCommand() {}

// Effect is work for the caller produced by a command
type Effect interface{ isEffect() }

// AppendRow asks the caller to write a row to the log
type AppendRow struct {
	Row model.LogRow
}

// Notify asks the caller to show a message
type Notify struct {
	Message model.Message
}

// Rejected reports a command that referenced something the schema does not
// define or carried unparseable input. State is unchanged.
type Rejected struct {
	Err error
}

func (AppendRow) isEffect() {}
func (Notify) isEffect()    {}
func (Rejected) isEffect()  {}

func notify(level, format string, args ...any) Effect {
	return Notify{Message: model.Message{Level: level, Text: fmt.Sprintf(format, args...)}}
}

// Apply runs a command against a state, returning the new state and the
// effects to perform in order. The input state is never modified.
func Apply(s State, cmd Command) (State, []Effect) {
	switch c := cmd.(type) {
	case ToggleGroup:
		return applyToggle(s, c)
	case SetValue:
		return applySet(s, c)
	case Reset:
		return applyReset(s)
	case Submit:
		return applySubmit(s, c)
	case RowLogged:
		return applyLogged(s, c)
	case WriteFailed:
		return s, []Effect{notify(model.LevelError, "Failed to write to log: %v", c.Err)}
	case SyncCounters:
		return applySync(s, c)
	default:
		return s, []Effect{Rejected{Err: fmt.Errorf("unsupported command %T", cmd)}}
	}
}

func applyToggle(s State, c ToggleGroup) (State, []Effect) {
	g, ok := s.Schema.Group(c.Group)
	if !ok {
		return s, []Effect{Rejected{Err: fmt.Errorf("%w %q", ErrUnknownGroup, c.Group)}}
	}
	if g.AlwaysOn {
		return s, nil
	}
	next := s.clone()
	next.Active[g.Name] = c.Active
	return next, nil
}

func applySet(s State, c SetValue) (State, []Effect) {
	v, err := s.Lookup(c.Field)
	if err != nil {
		return s, []Effect{Rejected{Err: err}}
	}
	val, err := Parse(v, c.Raw)
	if err != nil {
		return s, []Effect{Rejected{Err: err}}
	}
	next := s.clone()
	next.Values[c.Field] = val
	return next, nil
}

func applyReset(s State) (State, []Effect) {
	next := s.clone()
	for _, g := range s.Schema.Groups {
		for _, v := range g.Variables {
			key := FieldKey{g.Name, v.Name}
			if _, ok := v.Type.(config.AutoIncrementType); ok {
				if _, counting := next.Values[key].(CounterValue); counting {
					continue
				}
			}
			next.Values[key] = Default(v)
		}
	}
	return next, []Effect{notify(model.LevelInfo, "Fields reset to defaults")}
}

func applySubmit(s State, c Submit) (State, []Effect) {
	active := s.ActiveGroups()
	if len(active) == 0 {
		return s, []Effect{notify(model.LevelWarning, "No equipment groups are active. Enable some first.")}
	}

	var missing []string
	for _, g := range active {
		for _, v := range g.Variables {
			if v.Required && strings.TrimSpace(s.Value(FieldKey{g.Name, v.Name}).String()) == "" {
				missing = append(missing, v.Name)
			}
		}
	}
	if len(missing) > 0 {
		return s, []Effect{notify(model.LevelError, "Please fill in required fields: %s", strings.Join(missing, ", "))}
	}

	at := c.At
	if at.IsZero() {
		at = time.Now()
	}
	row := model.NewLogRow(at)
	for _, g := range active {
		for _, v := range g.Variables {
			row.Set(g.Column(v.Name), s.Value(FieldKey{g.Name, v.Name}).String())
		}
	}
	return s, []Effect{AppendRow{Row: row}}
}

// applyLogged advances the counters of the groups that took part in the
// submission. The local counter is trusted; no store read happens here.
func applyLogged(s State, c RowLogged) (State, []Effect) {
	next := s.clone()
	for _, g := range s.ActiveGroups() {
		for _, v := range g.Variables {
			t, ok := v.Type.(config.AutoIncrementType)
			if !ok {
				continue
			}
			key := FieldKey{g.Name, v.Name}
			switch cur := next.Values[key].(type) {
			case CounterValue:
				next.Values[key] = CounterValue{N: cur.N + 1, Spec: t.Spec}
			default:
				// A cleared counter was logged empty; pick up from the row value.
				n, ok := counter.Extract(c.Row.Get(g.Column(v.Name)), t.Spec)
				if !ok {
					n = t.Start - 1
				}
				next.Values[key] = CounterValue{N: n + 1, Spec: t.Spec}
			}
		}
	}
	return next, []Effect{notify(model.LevelSuccess, "Run '%s' logged at %s", RunID(c.Row), c.Row.Timestamp())}
}

func applySync(s State, c SyncCounters) (State, []Effect) {
	next := s.clone()
	synced := 0
	for _, g := range s.Schema.Groups {
		for _, v := range g.Variables {
			t, ok := v.Type.(config.AutoIncrementType)
			if !ok {
				continue
			}
			n := counter.Next(c.History[g.Column(v.Name)], t.Spec)
			next.Values[FieldKey{g.Name, v.Name}] = CounterValue{N: n, Spec: t.Spec}
			synced++
		}
	}
	if synced == 0 {
		return next, nil
	}
	return next, []Effect{notify(model.LevelInfo, "Synchronized %d counter(s) with the log", synced)}
}

// RunID returns the value of the first column whose name mentions both
// "run" and "id", or "—" when the row has none
func RunID(row model.LogRow) string {
	for _, col := range row.Columns {
		if model.IsRunIDColumn(col) {
			if v := row.Get(col); v != "" {
				return v
			}
			break
		}
	}
	return "—"
}

// AutoIncrementColumns lists the columns of every counter in the schema
func AutoIncrementColumns(schema *config.Schema) []string {
	var cols []string
	for _, g := range schema.Groups {
		for _, v := range g.Variables {
			if _, ok := v.Type.(config.AutoIncrementType); ok {
				cols = append(cols, g.Column(v.Name))
			}
		}
	}
	return cols
}
