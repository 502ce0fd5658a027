package mutation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyrace/console/internal/metrics"
	"skyrace/console/internal/query"
)

type fakeCache struct {
	mu          sync.Mutex
	invalidated []query.Key
}

func (f *fakeCache) Get(query.Key) (query.Result, bool) { return query.Result{}, false }
func (f *fakeCache) Set(query.Key, any)                  {}
func (f *fakeCache) Invalidate(prefix query.Key) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, prefix)
	return 1
}

func TestExecute_SuccessInvalidatesDeclaredPrefixes(t *testing.T) {
	cache := &fakeCache{}
	m := New("create-flight", cache, func(ctx context.Context, number string) (string, error) {
		return "f-" + number, nil
	}).Invalidates(query.NewKey("flights"), query.NewKey("dashboard"))

	assert.Equal(t, StateIdle, m.State())
	out, err := m.Execute(context.Background(), "SR100")
	require.NoError(t, err)

	assert.Equal(t, "f-SR100", out)
	assert.Equal(t, StateSuccess, m.State())
	assert.Equal(t, []query.Key{query.NewKey("flights"), query.NewKey("dashboard")}, cache.invalidated)
}

func TestExecute_ErrorLeavesCacheUntouched(t *testing.T) {
	cache := &fakeCache{}
	boom := errors.New("IATA code already exists")
	m := New("create-airline", cache, func(ctx context.Context, code string) (struct{}, error) {
		return struct{}{}, boom
	}).Invalidates(query.NewKey("airlines"))

	_, err := m.Execute(context.Background(), "TA")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateError, m.State())
	assert.ErrorIs(t, m.Err(), boom)
	assert.Empty(t, cache.invalidated)

	m.Reset()
	assert.Equal(t, StateIdle, m.State())
	assert.NoError(t, m.Err())
}

func TestExecute_RealCacheNextReadRefetches(t *testing.T) {
	cache := query.NewClient(query.Options{GCTime: time.Minute})
	key := query.NewKey("users", "")
	cache.Set(key, "before")

	m := New("update-user", cache, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, nil
	}).Invalidates(query.NewKey("users"))

	_, err := m.Execute(context.Background(), "u1")
	require.NoError(t, err)

	res, ok := cache.Get(key)
	require.True(t, ok)
	assert.True(t, res.Stale)
}

func TestExecute_OneInFlightPerTarget(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)
	m := New("refund-payment", nil, func(ctx context.Context, id string) (string, error) {
		started <- id
		<-release
		return id, nil
	}).Target(func(id string) string { return id })

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := m.Execute(context.Background(), "p1")
		assert.NoError(t, err)
	}()
	<-started
	assert.True(t, m.Pending("p1"))
	assert.Equal(t, StatePending, m.State())

	_, err := m.Execute(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrInFlight)

	// Another record is not serialised behind p1.
	go func() {
		defer wg.Done()
		_, err := m.Execute(context.Background(), "p2")
		assert.NoError(t, err)
	}()
	select {
	case id := <-started:
		assert.Equal(t, "p2", id)
	case <-time.After(time.Second):
		t.Fatal("unrelated target was blocked")
	}

	close(release)
	wg.Wait()
	assert.False(t, m.Pending("p1"))
	assert.Equal(t, StateSuccess, m.State())
}

func TestExecute_NotCancellableOnceDispatched(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := New("cancel-booking", nil, func(ctx context.Context, id string) (error, error) {
		cancel()
		return ctx.Err(), nil
	})

	ctxErr, err := m.Execute(ctx, "b1")
	require.NoError(t, err)
	assert.NoError(t, ctxErr)
}

func TestExecute_RecordsOutcome(t *testing.T) {
	reg := metrics.NewMetricsRegistry()
	m := New("delete-promo", nil, func(ctx context.Context, id string) (struct{}, error) {
		if id == "bad" {
			return struct{}{}, errors.New("not found")
		}
		return struct{}{}, nil
	}).WithMetrics(reg)

	_, _ = m.Execute(context.Background(), "ok")
	_, _ = m.Execute(context.Background(), "bad")

	families, err := reg.Registry().Gather()
	require.NoError(t, err)
	outcomes := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "console_mutations_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" {
					outcomes[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"success": 1, "error": 1}, outcomes)
}
