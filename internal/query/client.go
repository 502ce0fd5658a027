package query

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"skyrace/console/internal/logging"
	"skyrace/console/internal/metrics"
)

// Fetcher performs the network read for a key. It receives a context
// detached from any single caller, bounded by Options.FetchTimeout.
type Fetcher func(ctx context.Context) (any, error)

// Listener is told every time an observed entry settles.
type Listener func(Result)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Result is a point-in-time view of one cache entry.
type Result struct {
	Key       Key
	Data      any
	Err       error
	Status    Status
	Stale     bool
	Fetching  bool
	UpdatedAt time.Time
}

// Cache is the narrow surface screens and mutations depend on.
type Cache interface {
	Get(key Key) (Result, bool)
	Set(key Key, data any)
	Invalidate(prefix Key) int
}

// Reader is what screens need to load and follow a key.
type Reader interface {
	Cache
	Fetch(ctx context.Context, key Key, fetch Fetcher) (any, error)
	Observe(key Key, fetch Fetcher, listener Listener) (unsubscribe func())
}

type Options struct {
	// StaleTime is how long a settled value is served without a
	// background refresh. Zero disables time-based refresh.
	StaleTime time.Duration
	// GCTime is how long an entry with no observers is kept.
	GCTime time.Duration
	// FetchTimeout bounds each fetcher call.
	FetchTimeout time.Duration
	Logger       *zap.SugaredLogger
	Metrics      *metrics.MetricsRegistry
}

// Client is the process-wide query cache. It is safe for concurrent use.
//
// Every dispatched fetch gets a generation from a client-wide counter.
// Concurrent readers of a key join the in-flight generation, and a
// settled response is applied only when no newer generation has been
// applied before it.
type Client struct {
	mu      sync.Mutex
	store   *cache.Cache
	flights singleflight.Group
	opts    Options
	logger  *zap.SugaredLogger
	now     func() time.Time

	generation uint64
	observerID int
}

var (
	_ Cache  = (*Client)(nil)
	_ Reader = (*Client)(nil)
)

type entry struct {
	key       Key
	data      any
	hasData   bool
	err       error
	updatedAt time.Time

	stale       bool
	invalidated uint64 // generation counter value at the last invalidation
	inflight    uint64 // generation of the newest unsettled dispatch, 0 if none
	applied     uint64 // generation of the last applied response

	fetcher   Fetcher
	observers map[int]Listener
}

// NewClient builds a cache. The go-cache janitor runs at GCTime/2.
func NewClient(opts Options) *Client {
	if opts.GCTime <= 0 {
		opts.GCTime = 5 * time.Minute
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Named("query")
	}

	c := &Client{
		store:  cache.New(opts.GCTime, opts.GCTime/2),
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
	c.store.OnEvicted(func(string, interface{}) { c.updateSizeGauge() })
	return c
}

// Get returns the current state of key without fetching.
func (c *Client) Get(key Key) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookupLocked(key)
	if !ok {
		return Result{Key: key, Status: StatusIdle}, false
	}
	return e.snapshot(), true
}

// Set writes data for key as if a fetch had just settled. Any fetch
// for the key that is still in flight will be discarded when it lands.
func (c *Client) Set(key Key, data any) {
	c.mu.Lock()
	e := c.entryLocked(key)
	c.generation++
	e.applied = c.generation
	e.inflight = 0
	e.data = data
	e.hasData = true
	e.err = nil
	e.stale = false
	e.updatedAt = c.now()
	res, listeners := e.snapshot(), e.listeners()
	c.mu.Unlock()

	notify(listeners, res)
}

// Fetch returns the value for key, calling fetch only when needed:
//
//   - fresh cached value: returned immediately; when older than
//     StaleTime a background refresh is dispatched as well.
//   - a fetch for key is already in flight since the last invalidation:
//     the caller waits for it.
//   - otherwise a new fetch is dispatched.
//
// Cancelling ctx abandons the wait; the fetch itself keeps running and
// still populates the cache.
func (c *Client) Fetch(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.fetcher = fetch

	if e.fresh() {
		data := e.data
		if c.opts.StaleTime > 0 && e.inflight == 0 && c.now().Sub(e.updatedAt) > c.opts.StaleTime {
			c.dispatchLocked(e, fetch)
		}
		c.mu.Unlock()
		c.count(func(m *metrics.MetricsRegistry) { m.CacheHitsTotal.WithLabelValues(key.Resource()).Inc() })
		return data, nil
	}

	var ch <-chan singleflight.Result
	if e.inflight != 0 && e.inflight > e.invalidated {
		ch = c.joinLocked(e, fetch)
		c.count(func(m *metrics.MetricsRegistry) { m.CacheJoinsTotal.WithLabelValues(key.Resource()).Inc() })
	} else {
		ch = c.dispatchLocked(e, fetch)
		c.count(func(m *metrics.MetricsRegistry) { m.CacheMissesTotal.WithLabelValues(key.Resource()).Inc() })
	}
	c.mu.Unlock()

	select {
	case r := <-ch:
		res := r.Val.(Result)
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Observe registers a mounted consumer of key. While at least one
// observer exists the entry is never evicted, and invalidation refetches
// it right away using fetch. The returned function unregisters.
func (c *Client) Observe(key Key, fetch Fetcher, listener Listener) func() {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.fetcher = fetch
	c.observerID++
	id := c.observerID
	e.observers[id] = listener
	c.touchLocked(e)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(e.observers, id)
			if current, ok := c.lookupLocked(e.key); ok && current == e {
				c.touchLocked(e)
			}
		})
	}
}

// Invalidate marks every entry whose key starts with prefix as stale.
// Observed entries are refetched immediately; the rest refetch on their
// next Fetch. It returns the number of entries affected.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	mark := c.generation
	count := 0
	for _, item := range c.store.Items() {
		e := item.Object.(*entry)
		if !e.key.HasPrefix(prefix) {
			continue
		}
		count++
		e.stale = true
		e.invalidated = mark
		if len(e.observers) > 0 && e.fetcher != nil {
			c.dispatchLocked(e, e.fetcher)
		}
	}

	c.count(func(m *metrics.MetricsRegistry) { m.CacheInvalidations.WithLabelValues(prefix.Resource()).Add(float64(count)) })
	c.logger.Debugw("Invalidated query keys", "prefix", prefix, "entries", count)
	return count
}

// Clear drops every entry, e.g. when the signed-in administrator changes.
// Fetches in flight complete into orphaned entries and are not observed.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Flush()
	c.updateSizeGauge()
}

// Len is the number of live entries.
func (c *Client) Len() int {
	return c.store.ItemCount()
}

func (c *Client) lookupLocked(key Key) (*entry, bool) {
	v, ok := c.store.Get(key.String())
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (c *Client) entryLocked(key Key) *entry {
	if e, ok := c.lookupLocked(key); ok {
		c.touchLocked(e)
		return e
	}
	e := &entry{key: append(Key(nil), key...), observers: make(map[int]Listener)}
	c.touchLocked(e)
	c.updateSizeGauge()
	return e
}

// touchLocked (re)stores e: pinned while observed, otherwise expiring
// GCTime from now.
func (c *Client) touchLocked(e *entry) {
	ttl := c.opts.GCTime
	if len(e.observers) > 0 {
		ttl = cache.NoExpiration
	}
	c.store.Set(e.key.String(), e, ttl)
}

func (c *Client) dispatchLocked(e *entry, fetch Fetcher) <-chan singleflight.Result {
	c.generation++
	e.inflight = c.generation
	return c.joinLocked(e, fetch)
}

// joinLocked attaches to the flight for e.inflight. It must run under
// c.mu so the flight cannot settle between choosing the generation and
// registering with the singleflight group.
func (c *Client) joinLocked(e *entry, fetch Fetcher) <-chan singleflight.Result {
	gen := e.inflight
	flightKey := e.key.String() + "#" + strconv.FormatUint(gen, 10)
	return c.flights.DoChan(flightKey, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.FetchTimeout)
		defer cancel()
		data, err := fetch(ctx)
		return c.settle(e, gen, data, err), nil
	})
}

// settle applies a fetch outcome unless a newer generation already
// landed, and returns what the waiting callers should see.
func (c *Client) settle(e *entry, gen uint64, data any, err error) Result {
	c.mu.Lock()
	if e.inflight == gen {
		e.inflight = 0
	}
	if gen < e.applied {
		res := e.snapshot()
		c.mu.Unlock()
		c.count(func(m *metrics.MetricsRegistry) { m.CacheDiscardedTotal.WithLabelValues(e.key.Resource()).Inc() })
		c.logger.Debugw("Discarded out-of-order response", "key", e.key, "generation", gen)
		return res
	}

	e.applied = gen
	if err != nil {
		e.err = err
		c.logger.Warnw("Query fetch failed", "key", e.key, "error", err)
	} else {
		e.data = data
		e.hasData = true
		e.err = nil
		e.updatedAt = c.now()
	}
	e.stale = gen <= e.invalidated
	res, listeners := e.snapshot(), e.listeners()
	c.mu.Unlock()

	notify(listeners, res)
	return res
}

func (c *Client) count(fn func(m *metrics.MetricsRegistry)) {
	if c.opts.Metrics != nil {
		fn(c.opts.Metrics)
	}
}

func (c *Client) updateSizeGauge() {
	c.count(func(m *metrics.MetricsRegistry) { m.CacheEntries.Set(float64(c.store.ItemCount())) })
}

func (e *entry) fresh() bool {
	return e.hasData && !e.stale && e.err == nil
}

func (e *entry) snapshot() Result {
	res := Result{
		Key:       e.key,
		Data:      e.data,
		Err:       e.err,
		Stale:     e.stale,
		Fetching:  e.inflight != 0,
		UpdatedAt: e.updatedAt,
	}
	switch {
	case e.err != nil:
		res.Status = StatusError
	case e.hasData:
		res.Status = StatusSuccess
	case e.inflight != 0:
		res.Status = StatusLoading
	default:
		res.Status = StatusIdle
	}
	return res
}

func (e *entry) listeners() []Listener {
	out := make([]Listener, 0, len(e.observers))
	for _, l := range e.observers {
		out = append(out, l)
	}
	return out
}

func notify(listeners []Listener, res Result) {
	for _, l := range listeners {
		l(res)
	}
}
