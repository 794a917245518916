package backend

import (
	"context"
	"fmt"
	"log/slog"

	"regdash/internal/source"
	"regdash/internal/source/csvfile"
	"regdash/internal/source/memory"
	"regdash/internal/source/sheets"
	"regdash/internal/source/xlsx"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new source factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateSource implements Factory.CreateSource
func (f *DefaultFactory) CreateSource(ctx context.Context, config Config) (source.Source, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		f.logger.Info("Using CSV dataset", "path", config.DataPath)
		return csvfile.New(config.DataPath), nil
	case XLSXBackend:
		f.logger.Info("Using Excel dataset", "path", config.DataPath, "sheet", config.XLSXSheet)
		return xlsx.New(config.DataPath, config.XLSXSheet), nil
	case SheetsBackend:
		return f.createSheetsSource(ctx, config)
	case MemoryBackend:
		f.logger.Info("Using built-in demo dataset")
		return memory.FromRegistrations("sample", memory.Sample()), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsSource(ctx context.Context, config Config) (source.Source, error) {
	cli, err := sheets.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetRange, sheets.Credentials{
		JSON: config.GoogleServiceAccountJSON,
		File: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets source: %w", err)
	}

	f.logger.Info("Using Google Sheets dataset",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"range", config.GoogleSheetRange)
	return cli, nil
}
