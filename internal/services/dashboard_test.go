package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"regdash/internal/amqp"
	"regdash/internal/core"
	"regdash/internal/source/memory"
	"regdash/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func d(y int, m time.Month, day int) time.Time { return core.NewDate(y, m, day) }

// countingStore wraps a real store and counts Filter calls.
type countingStore struct {
	*storage.Store
	filters atomic.Int32
	delay   time.Duration
}

func (c *countingStore) Filter(ctx context.Context, cr core.Criteria) ([]core.Registration, error) {
	c.filters.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.Store.Filter(ctx, cr)
}

func newService(t *testing.T, recs []core.Registration) (*DashboardService, *countingStore) {
	t.Helper()
	st, err := storage.Open(context.Background(), recs)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	cs := &countingStore{Store: st}
	svc := NewDashboardService(cs, DashboardConfig{CacheSize: 8, CacheTTL: time.Minute, DefaultManufacturerLimit: 5}, quietLogger())
	return svc, cs
}

func quarterly(manufacturer string, counts ...int64) []core.Registration {
	out := make([]core.Registration, len(counts))
	for i, n := range counts {
		out[i] = core.Registration{
			Date:          d(2023, 2, 10).AddDate(0, 3*i, 0),
			Manufacturer:  manufacturer,
			VehicleType:   "4W",
			Registrations: n,
		}
	}
	return out
}

func TestDashboardService_Options(t *testing.T) {
	svc, _ := newService(t, memory.Sample())
	opts, err := svc.Options(context.Background())
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if !opts.Start.Equal(d(2022, 1, 15)) || !opts.End.Equal(d(2024, 12, 15)) {
		t.Errorf("range %v..%v", opts.Start, opts.End)
	}
	if len(opts.Manufacturers) != 8 {
		t.Errorf("manufacturers=%v", opts.Manufacturers)
	}
	if !slices.Equal(opts.DefaultManufacturers, opts.Manufacturers[:5]) {
		t.Errorf("defaults=%v", opts.DefaultManufacturers)
	}
	if !slices.Equal(opts.Categories, []string{"2W", "4W", "3W"}) {
		t.Errorf("categories=%v", opts.Categories)
	}
}

func TestDashboardService_OptionsEmptyDataset(t *testing.T) {
	svc, _ := newService(t, nil)
	if _, err := svc.Options(context.Background()); !errors.Is(err, core.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestDashboardService_Build(t *testing.T) {
	recs := append(quarterly("Acme", 100, 150), quarterly("Zeta", 100, 100)...)
	svc, _ := newService(t, recs)

	v, err := svc.Build(context.Background(), core.Criteria{Start: d(2023, 1, 1), End: d(2023, 12, 31)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if v.Empty() {
		t.Fatal("view should not be empty")
	}
	if v.Headline.TotalRegistrations != 450 {
		t.Errorf("total=%d", v.Headline.TotalRegistrations)
	}
	if !v.Headline.QoQ.Valid || v.Headline.QoQ.Value != 25 {
		t.Errorf("QoQ=%+v", v.Headline.QoQ)
	}
	if v.Headline.YoY.Valid {
		t.Errorf("YoY should be absent with two quarters: %+v", v.Headline.YoY)
	}
	if len(v.ManufacturerQoQ) != 2 || v.ManufacturerQoQ[0].Manufacturer != "Acme" || v.ManufacturerQoQ[0].Growth != 50 {
		t.Errorf("per manufacturer=%+v", v.ManufacturerQoQ)
	}
	if len(v.ManufacturerYoY) != 0 {
		t.Errorf("per manufacturer YoY=%+v", v.ManufacturerYoY)
	}
	if len(v.MarketShare) != 4 || len(v.ManufacturerTotals) != 2 || len(v.CategoryTrend) != 2 {
		t.Errorf("share=%d totals=%d trend=%d", len(v.MarketShare), len(v.ManufacturerTotals), len(v.CategoryTrend))
	}
}

func TestDashboardService_BuildEmptyResult(t *testing.T) {
	svc, _ := newService(t, quarterly("Acme", 1, 2, 3))
	v, err := svc.Build(context.Background(), core.Criteria{
		Start:         d(2023, 1, 1),
		End:           d(2023, 12, 31),
		Manufacturers: []string{"Nobody"},
	})
	if err != nil {
		t.Fatalf("empty result must not be an error: %v", err)
	}
	if !v.Empty() || v.Headline.TotalRegistrations != 0 || v.Headline.QoQ.Valid {
		t.Errorf("unexpected view %+v", v.Headline)
	}
	if v.QoQ == nil || len(v.QoQ) != 0 {
		t.Errorf("QoQ series should be empty, got %#v", v.QoQ)
	}
}

func TestDashboardService_BuildRejectsInvertedRange(t *testing.T) {
	svc, _ := newService(t, quarterly("Acme", 1))
	_, err := svc.Build(context.Background(), core.Criteria{Start: d(2024, 1, 2), End: d(2024, 1, 1)})
	if !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDashboardService_BuildCachesNormalizedCriteria(t *testing.T) {
	svc, cs := newService(t, memory.Sample())
	ctx := context.Background()

	a := core.Criteria{Start: d(2023, 1, 1), End: d(2023, 12, 31), Manufacturers: []string{"TVS", "Honda"}}
	b := core.Criteria{Start: d(2023, 1, 1), End: d(2023, 12, 31), Manufacturers: []string{" Honda", "TVS", "TVS"}}

	va, err := svc.Build(ctx, a)
	if err != nil {
		t.Fatalf("Build a: %v", err)
	}
	vb, err := svc.Build(ctx, b)
	if err != nil {
		t.Fatalf("Build b: %v", err)
	}
	if va != vb {
		t.Error("equivalent criteria should share a cached view")
	}
	if got := cs.filters.Load(); got != 1 {
		t.Errorf("Filter called %d times, want 1", got)
	}
	if st := svc.Cache().Stats(); st.Hits != 1 {
		t.Errorf("cache stats=%+v", st)
	}
}

func TestDashboardService_BuildConcurrentCallsShareWork(t *testing.T) {
	svc, cs := newService(t, memory.Sample())
	cs.delay = 20 * time.Millisecond
	c := core.Criteria{Start: d(2022, 1, 1), End: d(2024, 12, 31), Categories: []string{"2W"}}

	const callers = 12
	views := make([]*DashboardView, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := svc.Build(context.Background(), c)
			if err != nil {
				t.Errorf("Build: %v", err)
				return
			}
			views[i] = v
		}(i)
	}
	wg.Wait()

	if got := cs.filters.Load(); got != 1 {
		t.Errorf("Filter called %d times, want 1", got)
	}
	for i := 1; i < callers; i++ {
		if views[i] != views[0] {
			t.Fatalf("caller %d got a different view", i)
		}
	}
}

type recordingPublisher struct {
	msgs []*amqp.MetricsSnapshotMessage
	err  error
}

func (p *recordingPublisher) PublishSnapshot(_ context.Context, msg *amqp.MetricsSnapshotMessage) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestDashboardService_Snapshot(t *testing.T) {
	recs := append(quarterly("Acme", 100, 150), quarterly("Zeta", 0, 10)...)
	svc, _ := newService(t, recs)
	c := core.Criteria{Start: d(2023, 1, 1), End: d(2023, 12, 31)}

	msg, err := svc.Snapshot(context.Background(), c)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if msg.Start != "2023-01-01" || msg.End != "2023-12-31" || msg.Rows != 4 {
		t.Errorf("msg=%+v", msg)
	}
	if msg.QoQGrowth == nil || *msg.QoQGrowth != 60 {
		t.Errorf("QoQ=%v", msg.QoQGrowth)
	}
	if msg.YoYGrowth != nil {
		t.Errorf("YoY should be null, got %v", *msg.YoYGrowth)
	}
	// Zeta grew from a zero base, so only Acme has a defined value.
	if len(msg.TopGrowers) != 1 || msg.TopGrowers[0].Manufacturer != "Acme" {
		t.Errorf("top growers=%+v", msg.TopGrowers)
	}
	if msg.Categories == nil || msg.Manufacturers == nil {
		t.Error("empty sets should serialize as []")
	}

	pub := &recordingPublisher{}
	if _, err := svc.PublishSnapshot(context.Background(), c, pub); err != nil {
		t.Fatalf("PublishSnapshot: %v", err)
	}
	if len(pub.msgs) != 1 || pub.msgs[0].TotalRegistrations != 260 {
		t.Errorf("published %+v", pub.msgs)
	}

	pub.err = errors.New("broker down")
	if _, err := svc.PublishSnapshot(context.Background(), c, pub); err == nil {
		t.Error("expected publisher error")
	}
}

func TestDashboardService_SnapshotStampsEachMessage(t *testing.T) {
	svc, cs := newService(t, quarterly("Acme", 100, 150))
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	c := core.Criteria{Start: d(2023, 1, 1), End: d(2023, 12, 31)}

	first, err := svc.Snapshot(context.Background(), c)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	second, err := svc.Snapshot(context.Background(), c)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if n := cs.filters.Load(); n != 1 {
		t.Fatalf("second snapshot should reuse the cached view, filtered %d times", n)
	}
	if !second.Timestamp.After(first.Timestamp) {
		t.Errorf("timestamps %v then %v, want increasing", first.Timestamp, second.Timestamp)
	}
}

func TestDashboardService_BuildLogsCacheHit(t *testing.T) {
	st, err := storage.Open(context.Background(), quarterly("Acme", 100, 150))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := NewDashboardService(st, DashboardConfig{}, logger)
	c := core.Criteria{Start: d(2023, 1, 1), End: d(2023, 12, 31)}

	for i := 0; i < 2; i++ {
		if _, err := svc.Build(context.Background(), c); err != nil {
			t.Fatalf("Build: %v", err)
		}
	}

	out := buf.String()
	for _, want := range []string{"operation=build", "cache_hit=false", "cache_hit=true", "duration_human="} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}
