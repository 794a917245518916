package source

import (
	"context"

	"regdash/internal/core"
)

// Ports for inbound dataset adapters.
type (
	// Source reads the registrations dataset as a raw table. Implementations
	// are read-only and may be called more than once.
	Source interface {
		// Name identifies the source in logs and load errors.
		Name() string
		ReadTable(ctx context.Context) (core.Table, error)
	}
)

// Read pulls the table from src and parses it into registrations. Every
// failure is wrapped in a *core.LoadError naming the source.
func Read(ctx context.Context, src Source) ([]core.Registration, error) {
	t, err := src.ReadTable(ctx)
	if err != nil {
		return nil, &core.LoadError{Source: src.Name(), Err: err}
	}
	recs, err := core.ParseTable(t)
	if err != nil {
		return nil, &core.LoadError{Source: src.Name(), Err: err}
	}
	return recs, nil
}
