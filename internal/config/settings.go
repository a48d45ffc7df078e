package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Settings is the application configuration
type Settings struct {
	Schema string         `yaml:"schema"` // path to the schema file
	Server ServerSettings `yaml:"server"`
	Store  StoreSettings  `yaml:"store"`
	Log    LogSettings    `yaml:"log"`
	Plot   PlotSettings   `yaml:"plot"`
}

// ServerSettings configures the HTTP listener
type ServerSettings struct {
	Addr       string `yaml:"addr"`
	SessionTTL string `yaml:"session_ttl"` // e.g. "12h"; invalid values fall back to the default
}

// StoreSettings selects and configures the log store backend
type StoreSettings struct {
	Backend     string `yaml:"backend"`     // sqlite, xlsx, gsheets, memory
	Driver      string `yaml:"driver"`      // sqlite3 (cgo) or sqlite (pure Go)
	Path        string `yaml:"path"`        // database or workbook file
	SheetID     string `yaml:"sheet_id"`    // Google spreadsheet key
	Credentials string `yaml:"credentials"` // service account JSON file
	Worksheet   string `yaml:"worksheet"`
}

// LogSettings configures the zap logger
type LogSettings struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// PlotSettings holds defaults for the plotting view
type PlotSettings struct {
	MaxSize    float64 `yaml:"max_size"`
	RecentRows int     `yaml:"recent_rows"`
}

// Supported values
var (
	ValidBackends  = []string{"sqlite", "xlsx", "gsheets", "memory"}
	ValidDrivers   = []string{"sqlite3", "sqlite"}
	ValidLogLevels = []string{"debug", "info", "warn", "error"}
)

// DefaultSettings returns the default configuration
func DefaultSettings() Settings {
	return Settings{
		Schema: "config.yaml",
		Server: ServerSettings{Addr: ":8080"},
		Store: StoreSettings{
			Backend:   "sqlite",
			Driver:    "sqlite3",
			Path:      "experiment_log.db",
			Worksheet: "Log",
		},
		Log:  LogSettings{Level: "info"},
		Plot: PlotSettings{MaxSize: 40, RecentRows: 20},
	}
}

// LoadSettings loads settings from a YAML file. A missing file yields the
// defaults; environment variables are applied last.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &s); err != nil {
				return s, fmt.Errorf("failed to parse settings: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return s, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	s.applyEnvOverrides()
	return s, nil
}

func (s *Settings) applyEnvOverrides() {
	if v := os.Getenv("EXPLOG_SCHEMA"); v != "" {
		s.Schema = v
	}
	if v := os.Getenv("EXPLOG_ADDR"); v != "" {
		s.Server.Addr = v
	}
	if v := os.Getenv("EXPLOG_SESSION_TTL"); v != "" {
		s.Server.SessionTTL = v
	}
	if v := os.Getenv("EXPLOG_STORE_BACKEND"); v != "" {
		s.Store.Backend = v
	}
	if v := os.Getenv("EXPLOG_STORE_DRIVER"); v != "" {
		s.Store.Driver = v
	}
	if v := os.Getenv("EXPLOG_STORE_PATH"); v != "" {
		s.Store.Path = v
	}
	if v := os.Getenv("EXPLOG_SHEET_ID"); v != "" {
		s.Store.SheetID = v
	}
	if v := os.Getenv("EXPLOG_CREDENTIALS"); v != "" {
		s.Store.Credentials = v
	}
	if v := os.Getenv("EXPLOG_LOG_LEVEL"); v != "" {
		s.Log.Level = v
	}
	if v := os.Getenv("EXPLOG_LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Log.JSON = b
		}
	}
}

// Validate reports every invalid setting
func (s Settings) Validate() error {
	var errs []error
	if s.Schema == "" {
		errs = append(errs, errors.New("schema path is required"))
	}
	if s.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if !slices.Contains(ValidBackends, s.Store.Backend) {
		errs = append(errs, fmt.Errorf("invalid store.backend %q (valid: %v)", s.Store.Backend, ValidBackends))
	}
	switch s.Store.Backend {
	case "sqlite":
		if !slices.Contains(ValidDrivers, s.Store.Driver) {
			errs = append(errs, fmt.Errorf("invalid store.driver %q (valid: %v)", s.Store.Driver, ValidDrivers))
		}
		if s.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite backend"))
		}
	case "xlsx":
		if s.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the xlsx backend"))
		}
	case "gsheets":
		if s.Store.SheetID == "" {
			errs = append(errs, errors.New("store.sheet_id is required for the gsheets backend"))
		}
		if s.Store.Credentials == "" {
			errs = append(errs, errors.New("store.credentials is required for the gsheets backend"))
		}
	}
	if s.Store.Worksheet == "" {
		errs = append(errs, errors.New("store.worksheet is required"))
	}
	if !slices.Contains(ValidLogLevels, s.Log.Level) {
		errs = append(errs, fmt.Errorf("invalid log.level %q (valid: %v)", s.Log.Level, ValidLogLevels))
	}
	if !(s.Plot.MaxSize >= 8) || math.IsInf(s.Plot.MaxSize, 0) {
		errs = append(errs, fmt.Errorf("plot.max_size must be >= 8, got %v", s.Plot.MaxSize))
	}
	if s.Plot.RecentRows <= 0 {
		errs = append(errs, fmt.Errorf("plot.recent_rows must be > 0, got %d", s.Plot.RecentRows))
	}
	return errors.Join(errs...)
}
