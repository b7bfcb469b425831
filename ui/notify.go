// Package ui holds the presentation-side helpers shared by every command:
// toast notifications, confirmation prompts and the loading/error wrapper
// around facade calls.
package ui

import (
	"sync"
	"time"

	"healthstore/model"
)

type NotificationType string

const (
	TypeSuccess NotificationType = "success"
	TypeError   NotificationType = "error"
	TypeWarning NotificationType = "warning"
	TypeInfo    NotificationType = "info"
)

type Notification struct {
	ID        int64
	Message   string
	Type      NotificationType
	Timestamp time.Time
}

type EventKind string

const (
	EventAdded     EventKind = "added"
	EventDismissed EventKind = "dismissed"
)

// Event is published to subscribers whenever the list changes.
type Event struct {
	Kind         EventKind
	Notification Notification
}

// Notifier keeps the list of visible notifications and dismisses them after
// their duration elapses.
type Notifier struct {
	mu       sync.Mutex
	counter  int64
	items    []Notification
	timers   map[int64]*time.Timer
	subs     map[chan Event]struct{}
	closed   bool
	duration time.Duration
	now      func() time.Time
}

type NotifierOption func(*Notifier)

// WithDefaultDuration sets the duration used by Success, Error, Warning
// and Info. Zero disables auto-dismiss.
func WithDefaultDuration(d time.Duration) NotifierOption {
	return func(n *Notifier) { n.duration = d }
}

func WithNotifierClock(now func() time.Time) NotifierOption {
	return func(n *Notifier) { n.now = now }
}

func NewNotifier(opts ...NotifierOption) *Notifier {
	n := &Notifier{
		timers:   make(map[int64]*time.Timer),
		subs:     make(map[chan Event]struct{}),
		duration: model.ToastDuration,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify appends a notification and returns its id. A positive d schedules
// Dismiss(id) after d.
func (n *Notifier) Notify(message string, typ NotificationType, d time.Duration) int64 {
	if typ == "" {
		typ = TypeInfo
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.counter++
	item := Notification{ID: n.counter, Message: message, Type: typ, Timestamp: n.now()}
	n.items = append(n.items, item)
	if d > 0 && !n.closed {
		id := item.ID
		n.timers[id] = time.AfterFunc(d, func() { n.Dismiss(id) })
	}
	n.publish(Event{Kind: EventAdded, Notification: item})
	return item.ID
}

func (n *Notifier) Success(message string) int64 { return n.Notify(message, TypeSuccess, n.duration) }
func (n *Notifier) Error(message string) int64   { return n.Notify(message, TypeError, n.duration) }
func (n *Notifier) Warning(message string) int64 { return n.Notify(message, TypeWarning, n.duration) }
func (n *Notifier) Info(message string) int64    { return n.Notify(message, TypeInfo, n.duration) }

// Dismiss removes the notification with the given id. Unknown ids are ignored.
func (n *Notifier) Dismiss(id int64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			n.publish(Event{Kind: EventDismissed, Notification: item})
			return
		}
	}
}

// Clear removes every notification.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopTimers()
	for _, item := range n.items {
		n.publish(Event{Kind: EventDismissed, Notification: item})
	}
	n.items = nil
}

func (n *Notifier) List() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.items...)
}

// Subscribe returns a channel of list changes. Slow subscribers miss events
// rather than block Notify. The channel is closed by Close.
func (n *Notifier) Subscribe() <-chan Event {
	ch := make(chan Event, 64)
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(ch)
		return ch
	}
	n.subs[ch] = struct{}{}
	return ch
}

// Close stops pending dismiss timers and closes subscriber channels.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	n.stopTimers()
	for ch := range n.subs {
		delete(n.subs, ch)
		close(ch)
	}
}

func (n *Notifier) stopTimers() {
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
}

// publish must be called with n.mu held.
func (n *Notifier) publish(ev Event) {
	for ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
