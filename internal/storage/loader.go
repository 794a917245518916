package storage

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"regdash/internal/core"
	"regdash/internal/log"
	"regdash/internal/source"
)

// Loader loads the dataset from a source at most once per process. Every
// caller of Initialize receives the same store, or the same error.
type Loader struct {
	src    source.Source
	logger *slog.Logger

	once  sync.Once
	done  atomic.Bool
	store *Store
	err   error
}

func NewLoader(src source.Source, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{src: src, logger: logger}
}

// Initialize reads and indexes the dataset on the first call. Concurrent
// callers block until that first load finishes. Failures are *core.LoadError.
func (l *Loader) Initialize(ctx context.Context) (*Store, error) {
	l.once.Do(func() {
		l.store, l.err = l.load(ctx)
		l.done.Store(true)
	})
	return l.store, l.err
}

func (l *Loader) load(ctx context.Context) (*Store, error) {
	start := time.Now()
	recs, err := source.Read(ctx, l.src)
	if err != nil {
		l.logger.ErrorContext(ctx, "Dataset load failed",
			log.FieldOperation, log.OpLoad,
			log.FieldSource, l.src.Name(),
			log.FieldError, err)
		return nil, err
	}

	st, err := Open(ctx, recs)
	if err != nil {
		return nil, &core.LoadError{Source: l.src.Name(), Err: err}
	}

	l.logger.InfoContext(ctx, "Dataset loaded",
		log.FieldOperation, log.OpLoad,
		log.FieldSource, l.src.Name(),
		log.FieldRows, len(recs),
		log.FieldDurationHuman, time.Since(start).String())
	return st, nil
}

// Ready reports whether the dataset loaded successfully.
func (l *Loader) Ready() bool {
	return l.done.Load() && l.err == nil
}
