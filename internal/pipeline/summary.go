package pipeline

import "experiment-logger/internal/model"

// Summary backs the "recent runs" view
type Summary struct {
	Total  int          `json:"total"`
	Shown  int          `json:"shown"`
	Recent *model.Table `json:"recent"`
}

// Summarize returns the last n rows, newest first
func Summarize(table *model.Table, n int) Summary {
	if table == nil {
		table = &model.Table{}
	}
	recent := table.Tail(n)
	return Summary{Total: table.Len(), Shown: recent.Len(), Recent: recent}
}
