package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportPrefix is the base name of every snapshot file
const ExportPrefix = "experiment_log"

// OutputManager handles output file organization and path management
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// ExportFileName names a snapshot taken at the given time,
// e.g. experiment_log_20240501.csv
func ExportFileName(ext string, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", ExportPrefix, at.Format("20060102"), strings.TrimPrefix(ext, "."))
}

// GetOutputFilePath generates a full path for an output file, creating the
// output directory if needed
func (om *OutputManager) GetOutputFilePath(fileName string) (string, error) {
	if err := om.EnsureOutputDirExists(); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	// Clean the filename to remove any path separators
	cleanFileName := filepath.Base(fileName)

	return filepath.Join(om.BaseOutputDir, cleanFileName), nil
}

// GetFileType determines the file type based on extension
func GetFileType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".xlsx", ".xls":
		return "excel"
	case ".svg":
		return "svg"
	case ".png":
		return "png"
	default:
		return "unknown"
	}
}

// ContentType returns the MIME type served for a file
func ContentType(fileName string) string {
	switch GetFileType(fileName) {
	case "csv":
		return "text/csv; charset=utf-8"
	case "json":
		return "application/json"
	case "excel":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// GetFileSize returns the size of a file in bytes
func GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}

// EnsureOutputDirExists ensures the base output directory exists
func (om *OutputManager) EnsureOutputDirExists() error {
	if om.BaseOutputDir == "" {
		return nil
	}
	return os.MkdirAll(om.BaseOutputDir, 0755)
}
