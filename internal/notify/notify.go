package notify

import (
	"context"
	"sync"

	"github.com/sgaibor/tiendafacil-pos/pkg/logger"
)

// Level classifies a transient user-facing notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is the toast-style message surfaced to the operator. It never
// carries state; emitting one is always side-effect-free for the caller.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Notifier receives user-facing notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Helper emitters shared by all flows.

func Success(ctx context.Context, n Notifier, title, message string) {
	n.Notify(ctx, Notification{Level: LevelSuccess, Title: title, Message: message})
}

func Info(ctx context.Context, n Notifier, title, message string) {
	n.Notify(ctx, Notification{Level: LevelInfo, Title: title, Message: message})
}

func Warning(ctx context.Context, n Notifier, title, message string) {
	n.Notify(ctx, Notification{Level: LevelWarning, Title: title, Message: message})
}

func Error(ctx context.Context, n Notifier, title, message string) {
	n.Notify(ctx, Notification{Level: LevelError, Title: title, Message: message})
}

// LogNotifier renders notifications through the structured logger, which is
// what the terminal front end shows the operator.
type LogNotifier struct {
	logg *logger.Logger
}

// NewLogNotifier wires a logger-backed notifier.
func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	if l == nil || l.logg == nil {
		return
	}
	ctx = l.logg.WithFields(ctx, map[string]any{
		"notice": string(n.Level),
		"title":  n.Title,
	})
	switch n.Level {
	case LevelError:
		l.logg.Error(ctx, n.Message, nil)
	case LevelWarning:
		l.logg.Warn(ctx, n.Message)
	default:
		l.logg.Info(ctx, n.Message)
	}
}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, n)
}

// All returns a copy of every captured notification.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.entries))
	copy(out, r.entries)
	return out
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Notification{}, false
	}
	return r.entries[len(r.entries)-1], true
}

// Reset drops captured notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
