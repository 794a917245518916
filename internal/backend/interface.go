package backend

import (
	"context"

	"regdash/internal/source"
)

// Factory creates dataset sources based on configuration
type Factory interface {
	// CreateSource creates a source instance based on the provided config
	CreateSource(ctx context.Context, config Config) (source.Source, error)
}

// Config holds configuration for source creation
type Config struct {
	// Backend type
	Type BackendType

	// File backends (csv, xlsx)
	DataPath  string
	XLSXSheet string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetRange         string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the kind of dataset source
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	XLSXBackend   BackendType = "xlsx"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, XLSXBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
