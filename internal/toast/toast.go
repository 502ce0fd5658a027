package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skyrace/console/internal/logging"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

const DefaultTTL = 4 * time.Second

type Toast struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
}

// Sink is what screens report outcomes to.
type Sink interface {
	Success(message string)
	Error(message string)
}

// Notifier queues user-visible messages until they expire or are
// dismissed. It is safe for concurrent use.
type Notifier struct {
	mu     sync.Mutex
	ttl    time.Duration
	toasts []Toast
	logger *zap.SugaredLogger
	now    func() time.Time
	notify func()
}

var _ Sink = (*Notifier)(nil)

func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{ttl: ttl, logger: logging.Named("toast"), now: time.Now}
}

// OnPush registers a callback run after every push, e.g. to wake the UI.
func (n *Notifier) OnPush(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notify = fn
}

func (n *Notifier) Push(level Level, message string) Toast {
	t := Toast{ID: uuid.NewString(), Level: level, Message: message, CreatedAt: n.now()}

	n.mu.Lock()
	n.toasts = append(n.toasts, t)
	notify := n.notify
	n.mu.Unlock()

	if level == LevelError {
		n.logger.Warnw("Error toast", "message", message)
	} else {
		n.logger.Debugw("Toast", "level", level, "message", message)
	}
	if notify != nil {
		notify()
	}
	return t
}

func (n *Notifier) Success(message string) { n.Push(LevelSuccess, message) }

func (n *Notifier) Error(message string) { n.Push(LevelError, message) }

func (n *Notifier) Info(message string) { n.Push(LevelInfo, message) }

// Active prunes expired toasts and returns the rest, oldest first.
func (n *Notifier) Active() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()

	cutoff := n.now().Add(-n.ttl)
	kept := n.toasts[:0]
	for _, t := range n.toasts {
		if t.CreatedAt.After(cutoff) {
			kept = append(kept, t)
		}
	}
	n.toasts = kept
	return append([]Toast(nil), kept...)
}

func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, t := range n.toasts {
		if t.ID == id {
			n.toasts = append(n.toasts[:i], n.toasts[i+1:]...)
			return true
		}
	}
	return false
}
