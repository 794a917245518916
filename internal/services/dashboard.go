package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"regdash/internal/cache"
	"regdash/internal/core"
	"regdash/internal/log"
	"regdash/internal/metrics"
)

// DatasetStore is the read side of the loaded dataset.
type DatasetStore interface {
	QueryRange(ctx context.Context) (time.Time, time.Time, error)
	DistinctValues(ctx context.Context, column core.Column) ([]string, error)
	Filter(ctx context.Context, c core.Criteria) ([]core.Registration, error)
}

// Options are the filter choices offered to the user.
type Options struct {
	Start                time.Time
	End                  time.Time
	Categories           []string
	Manufacturers        []string
	DefaultManufacturers []string
}

// Headline holds the summary numbers shown above the charts.
type Headline struct {
	TotalRegistrations int64
	QoQ                core.Percent
	YoY                core.Percent
}

// DashboardView is everything the dashboard renders for one filter selection.
// Views are shared through the cache and must not be modified.
type DashboardView struct {
	Criteria           core.Criteria
	Records            []core.Registration
	Headline           Headline
	CategoryTrend      []metrics.CategoryPoint
	ManufacturerTotals []metrics.ManufacturerTotal
	MarketShare        []metrics.ShareRow
	QoQ                []metrics.GrowthPoint
	YoY                []metrics.GrowthPoint
	ManufacturerQoQ    []metrics.ManufacturerGrowth
	ManufacturerYoY    []metrics.ManufacturerGrowth
	GeneratedAt        time.Time
}

// Empty reports whether the filter matched no rows.
func (v *DashboardView) Empty() bool { return len(v.Records) == 0 }

// DashboardConfig tunes the service.
type DashboardConfig struct {
	CacheSize                int
	CacheTTL                 time.Duration
	DefaultManufacturerLimit int
}

// DashboardService answers dashboard queries against a loaded dataset.
type DashboardService struct {
	store  DatasetStore
	cfg    DashboardConfig
	cache  *cache.LRUCache[*DashboardView]
	group  singleflight.Group
	logger *slog.Logger
	now    func() time.Time
}

func NewDashboardService(store DatasetStore, cfg DashboardConfig, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		store:  store,
		cfg:    cfg,
		cache:  cache.NewLRUCache[*DashboardView](cfg.CacheSize, cfg.CacheTTL),
		logger: logger,
		now:    time.Now,
	}
}

// Cache exposes the view cache so the caller can register it for cleanup.
func (s *DashboardService) Cache() *cache.LRUCache[*DashboardView] { return s.cache }

// Options returns the dataset bounds and every selectable value. It fails with
// core.ErrEmptyDataset when there is nothing to show.
func (s *DashboardService) Options(ctx context.Context) (Options, error) {
	start, end, err := s.store.QueryRange(ctx)
	if err != nil {
		return Options{}, err
	}
	categories, err := s.store.DistinctValues(ctx, core.ColumnVehicleType)
	if err != nil {
		return Options{}, err
	}
	manufacturers, err := s.store.DistinctValues(ctx, core.ColumnManufacturer)
	if err != nil {
		return Options{}, err
	}

	n := min(s.cfg.DefaultManufacturerLimit, len(manufacturers))
	return Options{
		Start:                start,
		End:                  end,
		Categories:           categories,
		Manufacturers:        manufacturers,
		DefaultManufacturers: manufacturers[:n:n],
	}, nil
}

// Build filters the dataset once and computes every metric of the view.
// Identical criteria share one computation and are served from cache
// until the entry expires.
func (s *DashboardService) Build(ctx context.Context, c core.Criteria) (*DashboardView, error) {
	c = c.Normalized()
	if c.End.Before(c.Start) {
		return nil, fmt.Errorf("%w: start %s is after end %s", core.ErrInvalidDate, core.FormatDate(c.Start), core.FormatDate(c.End))
	}
	key := c.Key()

	if v, ok := s.cache.Get(key); ok {
		s.logger.DebugContext(ctx, "Dashboard served from cache", "key", key, log.FieldCacheHit, true)
		return v, nil
	}

	res, err, shared := s.group.Do(key, func() (any, error) {
		// A flight that just finished may have filled the cache.
		if v, ok := s.cache.Get(key); ok {
			return v, nil
		}
		v, err := s.compute(ctx, c)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "Dashboard computation shared", "key", key)
	}
	return res.(*DashboardView), nil
}

func (s *DashboardService) compute(ctx context.Context, c core.Criteria) (*DashboardView, error) {
	started := s.now()
	recs, err := s.store.Filter(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("filter dataset: %w", err)
	}

	v := &DashboardView{Criteria: c, Records: recs}

	// Each task writes its own field; the metrics functions only read recs.
	g, gctx := errgroup.WithContext(ctx)
	task := func(fn func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}
	task(func() { v.Headline.TotalRegistrations = metrics.TotalRegistrations(recs) })
	task(func() { v.CategoryTrend = metrics.CategoryTrend(recs) })
	task(func() { v.ManufacturerTotals = metrics.ManufacturerTotals(recs) })
	task(func() { v.MarketShare = metrics.MarketShareOverTime(recs) })
	task(func() { v.QoQ = metrics.PeriodGrowth(recs, core.QoQ) })
	task(func() { v.YoY = metrics.PeriodGrowth(recs, core.YoY) })
	task(func() { v.ManufacturerQoQ = metrics.PerManufacturerGrowth(recs, core.QoQ) })
	task(func() { v.ManufacturerYoY = metrics.PerManufacturerGrowth(recs, core.YoY) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v.Headline.QoQ = metrics.LatestOf(v.QoQ)
	v.Headline.YoY = metrics.LatestOf(v.YoY)
	v.GeneratedAt = s.now()

	s.logger.InfoContext(ctx, "Dashboard built",
		log.FieldOperation, log.OpBuild,
		log.FieldStart, core.FormatDate(c.Start),
		log.FieldEnd, core.FormatDate(c.End),
		log.FieldRows, len(recs),
		log.FieldCacheHit, false,
		log.FieldDurationHuman, s.now().Sub(started).String())
	return v, nil
}
