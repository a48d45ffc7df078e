package store

import (
	"context"
	"fmt"

	"experiment-logger/internal/config"
)

// Open connects the backend selected in settings
func Open(ctx context.Context, cfg config.StoreSettings) (Sheet, error) {
	switch cfg.Backend {
	case "sqlite":
		return OpenSQLite(cfg.Driver, cfg.Path, cfg.Worksheet)
	case "xlsx":
		return OpenXLSX(cfg.Path, cfg.Worksheet)
	case "gsheets":
		return OpenGoogleSheet(ctx, cfg.Credentials, cfg.SheetID, cfg.Worksheet)
	case "memory":
		return NewMemorySheet(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
