package model

// FilterSpec narrows the table before plotting or export
type FilterSpec struct {
	// Select keeps rows whose column value is one of the listed values
	Select map[string][]string `json:"select,omitempty"`
	// From and To bound the Timestamp column, inclusive, as YYYY-MM-DD
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// PlotRequest is the struct for POST /api/v1/plot
type PlotRequest struct {
	X          string     `json:"x"`
	Y          string     `json:"y"`
	Color      string     `json:"color,omitempty"`
	XPrecision int        `json:"xPrecision"`
	YPrecision int        `json:"yPrecision"`
	MaxSize    float64    `json:"maxSize"`
	Filters    FilterSpec `json:"filters"`
}

// ValuesRequest is the struct for POST /api/v1/session/values
type ValuesRequest struct {
	Values map[string]map[string]string `json:"values"` // group -> variable -> raw input
}

// ToggleRequest is the struct for POST /api/v1/session/toggle
type ToggleRequest struct {
	Group  string `json:"group"`
	Active bool   `json:"active"`
}

// Message is a user-facing notice produced by a form action
type Message struct {
	Level string `json:"level"` // "success", "info", "warning", "error"
	Text  string `json:"text"`
}

// Message levels
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)
