// Package notify replaces the old process-wide toast hook with an explicit
// notification channel. Components publish Notification values on an injected
// Bus; the UI polls recent notifications and renders them however it likes.
package notify

import (
	"sync"
	"time"
)

// Kind classifies a notification for the UI.
type Kind string

const (
	Success Kind = "success"
	Info    Kind = "info"
	Error   Kind = "error"
)

// Notification is one message for the UI layer.
type Notification struct {
	Kind Kind      `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Bus is a bounded in-memory notification ring. Safe for concurrent use.
type Bus struct {
	mu  sync.Mutex
	buf []Notification
	max int
}

// NewBus returns a Bus keeping at most max notifications.
func NewBus(max int) *Bus {
	if max < 1 {
		max = 1
	}
	return &Bus{max: max}
}

// Publish appends a notification, evicting the oldest when full.
func (b *Bus) Publish(kind Kind, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, Notification{Kind: kind, Text: text, At: time.Now()})
	if len(b.buf) > b.max {
		b.buf = b.buf[len(b.buf)-b.max:]
	}
}

// Recent returns up to limit notifications, newest first.
func (b *Bus) Recent(limit int) []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.buf)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Notification, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, b.buf[i])
	}
	return out
}
