package core

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Kind classifies a notification for presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notification is a transient user-facing acknowledgement.
type Notification struct {
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UploadID    string    `json:"uploadId,omitempty"`
	Code        string    `json:"code,omitempty"`
	At          time.Time `json:"at"`
}

// Notifier delivers notifications. Implementations must not block the caller.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Notifiers fans a notification out to each notifier in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(n Notification) {
	for _, x := range ns {
		if x != nil {
			x.Notify(n)
		}
	}
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	level := slog.LevelInfo
	if n.Kind == KindError {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "notification",
		"kind", n.Kind,
		"title", n.Title,
		"upload_id", n.UploadID,
		"code", n.Code,
	)
}

// DefaultHistorySize is the number of notifications kept per session.
const DefaultHistorySize = 20

// History keeps the most recent notifications, newest last.
type History struct {
	mu    sync.Mutex
	items []Notification
	size  int
}

// NewHistory creates a history holding at most size notifications.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size}
}

func (h *History) Notify(n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append(h.items, n)
	if over := len(h.items) - h.size; over > 0 {
		h.items = append(h.items[:0:0], h.items[over:]...)
	}
}

// Recent returns a copy of the kept notifications, newest last.
func (h *History) Recent() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Notification, len(h.items))
	copy(out, h.items)
	return out
}
