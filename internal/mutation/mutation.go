package mutation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"skyrace/console/internal/logging"
	"skyrace/console/internal/metrics"
	"skyrace/console/internal/query"
)

// ErrInFlight is returned when the same mutation is already running for
// the same target record.
var ErrInFlight = errors.New("mutation already in flight for this record")

type State int

const (
	StateIdle State = iota
	StatePending
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Func performs the write. The context it receives is never cancelled
// by the caller once the mutation has been dispatched.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// Mutation wraps one kind of write (create airline, refund payment, ...).
// Different targets run concurrently; the same target runs at most once
// at a time.
type Mutation[In, Out any] struct {
	name        string
	cache       query.Cache
	fn          Func[In, Out]
	invalidates []query.Key
	target      func(In) string

	logger  *zap.SugaredLogger
	metrics *metrics.MetricsRegistry

	mu       sync.Mutex
	state    State
	err      error
	inflight map[string]struct{}
}

// New builds a mutation. cache may be nil for writes that touch no list.
func New[In, Out any](name string, cache query.Cache, fn Func[In, Out]) *Mutation[In, Out] {
	return &Mutation[In, Out]{
		name:     name,
		cache:    cache,
		fn:       fn,
		logger:   logging.Named("mutation").With("mutation", name),
		inflight: make(map[string]struct{}),
	}
}

// Invalidates declares the key prefixes marked stale after a success.
func (m *Mutation[In, Out]) Invalidates(keys ...query.Key) *Mutation[In, Out] {
	m.invalidates = append(m.invalidates, keys...)
	return m
}

// Target names the record an input writes to. Without it every
// execution shares one target.
func (m *Mutation[In, Out]) Target(fn func(In) string) *Mutation[In, Out] {
	m.target = fn
	return m
}

func (m *Mutation[In, Out]) WithMetrics(reg *metrics.MetricsRegistry) *Mutation[In, Out] {
	m.metrics = reg
	return m
}

func (m *Mutation[In, Out]) WithLogger(logger *zap.SugaredLogger) *Mutation[In, Out] {
	m.logger = logger.With("mutation", m.name)
	return m
}

func (m *Mutation[In, Out]) Name() string { return m.name }

// Execute runs the write. On success every declared prefix is
// invalidated before Execute returns, so the next read of those keys
// refetches. On failure the cache is left alone and the error returned
// unchanged for the caller to surface.
func (m *Mutation[In, Out]) Execute(ctx context.Context, in In) (Out, error) {
	var zero Out

	target := ""
	if m.target != nil {
		target = m.target(in)
	}

	m.mu.Lock()
	if _, busy := m.inflight[target]; busy {
		m.mu.Unlock()
		m.record("rejected")
		return zero, ErrInFlight
	}
	m.inflight[target] = struct{}{}
	m.state = StatePending
	m.err = nil
	m.mu.Unlock()

	start := time.Now()
	out, err := m.fn(context.WithoutCancel(ctx), in)

	if err == nil && m.cache != nil {
		for _, prefix := range m.invalidates {
			m.cache.Invalidate(prefix)
		}
	}

	m.mu.Lock()
	delete(m.inflight, target)
	if err != nil {
		m.state = StateError
		m.err = err
	} else {
		m.state = StateSuccess
	}
	m.mu.Unlock()

	if err != nil {
		m.record("error")
		m.logger.Warnw("Mutation failed", "target", target, "error", err, "duration", time.Since(start))
		return zero, err
	}
	m.record("success")
	m.logger.Debugw("Mutation succeeded", "target", target, "duration", time.Since(start))
	return out, nil
}

// State is the outcome of the most recent execution.
func (m *Mutation[In, Out]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err is the error of the most recent execution, nil unless State is
// StateError.
func (m *Mutation[In, Out]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Pending reports whether an execution for target is running.
func (m *Mutation[In, Out]) Pending(target string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inflight[target]
	return ok
}

// Reset returns a settled mutation to idle. It does nothing while pending.
func (m *Mutation[In, Out]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inflight) == 0 {
		m.state = StateIdle
		m.err = nil
	}
}

func (m *Mutation[In, Out]) record(outcome string) {
	if m.metrics != nil {
		m.metrics.MutationsTotal.WithLabelValues(m.name, outcome).Inc()
	}
}
