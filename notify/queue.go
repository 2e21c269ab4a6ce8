// Package notify keeps the short-lived messages shown to the student.
//
// The queue is bounded and newest first. Each notification is removed when
// its duration elapses unless it is persistent.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type is the kind of notification.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Notification is one message in the queue.
type Notification struct {
	ID          string        `json:"id"`
	Type        Type          `json:"type"`
	Title       string        `json:"title"`
	Message     string        `json:"message,omitempty"`
	Duration    time.Duration `json:"duration"`
	Dismissible bool          `json:"dismissible"`
	Persistent  bool          `json:"persistent"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Settings bound the queue.
type Settings struct {
	DefaultDuration  time.Duration
	MaxNotifications int
}

// DefaultSettings returns a five second duration and room for five messages.
func DefaultSettings() Settings {
	return Settings{DefaultDuration: 5 * time.Second, MaxNotifications: 5}
}

// Timer is a scheduled removal.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func timeAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options configures New.
type Options struct {
	Settings Settings

	// AfterFunc schedules removals. Defaults to time.AfterFunc.
	AfterFunc AfterFunc

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// OnEnqueue is called with every accepted notification.
	OnEnqueue func(Notification)
}

// Queue holds the current notifications.
type Queue struct {
	afterFunc AfterFunc
	now       func() time.Time
	onEnqueue func(Notification)

	mu       sync.Mutex
	settings Settings
	items    []Notification
	timers   map[string]Timer
}

// New returns an empty queue.
func New(opts Options) *Queue {
	q := &Queue{
		afterFunc: opts.AfterFunc,
		now:       opts.Now,
		onEnqueue: opts.OnEnqueue,
		settings:  opts.Settings,
		timers:    make(map[string]Timer),
	}
	if q.afterFunc == nil {
		q.afterFunc = timeAfterFunc
	}
	if q.now == nil {
		q.now = time.Now
	}
	defaults := DefaultSettings()
	if q.settings.DefaultDuration <= 0 {
		q.settings.DefaultDuration = defaults.DefaultDuration
	}
	if q.settings.MaxNotifications <= 0 {
		q.settings.MaxNotifications = defaults.MaxNotifications
	}
	return q
}

// Option adjusts a notification before it is queued.
type Option func(*Notification)

// WithDuration overrides the queue's default duration.
func WithDuration(d time.Duration) Option {
	return func(n *Notification) { n.Duration = d }
}

// Persistent keeps the notification until it is removed.
func Persistent() Option {
	return func(n *Notification) { n.Persistent = true }
}

// NotDismissible marks the notification as not closable by the student.
func NotDismissible() Option {
	return func(n *Notification) { n.Dismissible = false }
}

// Enqueue adds a notification and returns its ID. The oldest notifications
// beyond the queue limit are dropped.
func (q *Queue) Enqueue(typ Type, title, message string, opts ...Option) string {
	q.mu.Lock()
	n := Notification{
		ID:          uuid.NewString(),
		Type:        typ,
		Title:       title,
		Message:     message,
		Duration:    q.settings.DefaultDuration,
		Dismissible: true,
		CreatedAt:   q.now(),
	}
	for _, opt := range opts {
		opt(&n)
	}

	q.items = slices.Insert(q.items, 0, n)
	q.truncateLocked()
	if !n.Persistent && n.Duration > 0 {
		id := n.ID
		q.timers[id] = q.afterFunc(n.Duration, func() { q.Remove(id) })
	}
	onEnqueue := q.onEnqueue
	q.mu.Unlock()

	if onEnqueue != nil {
		onEnqueue(n)
	}
	return n.ID
}

func (q *Queue) truncateLocked() {
	if len(q.items) <= q.settings.MaxNotifications {
		return
	}
	for _, dropped := range q.items[q.settings.MaxNotifications:] {
		q.stopLocked(dropped.ID)
	}
	q.items = slices.Clone(q.items[:q.settings.MaxNotifications])
}

func (q *Queue) stopLocked(id string) {
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
}

func (q *Queue) Success(title, message string, opts ...Option) string {
	return q.Enqueue(TypeSuccess, title, message, opts...)
}

func (q *Queue) Error(title, message string, opts ...Option) string {
	return q.Enqueue(TypeError, title, message, opts...)
}

func (q *Queue) Warning(title, message string, opts ...Option) string {
	return q.Enqueue(TypeWarning, title, message, opts...)
}

func (q *Queue) Info(title, message string, opts ...Option) string {
	return q.Enqueue(TypeInfo, title, message, opts...)
}

// Remove drops the notification with id. Unknown IDs are ignored.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopLocked(id)
	q.items = slices.DeleteFunc(q.items, func(n Notification) bool { return n.ID == id })
}

// Clear drops every notification.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id := range q.timers {
		q.stopLocked(id)
	}
	q.items = nil
}

// List returns the notifications, newest first.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

// Len returns the number of queued notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Settings returns the queue settings.
func (q *Queue) Settings() Settings {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.settings
}

// UpdateSettings replaces the settings. Non-positive values keep the current
// ones. Lowering the limit drops the oldest overflow right away.
func (q *Queue) UpdateSettings(s Settings) Settings {
	q.mu.Lock()
	defer q.mu.Unlock()
	if s.DefaultDuration > 0 {
		q.settings.DefaultDuration = s.DefaultDuration
	}
	if s.MaxNotifications > 0 {
		q.settings.MaxNotifications = s.MaxNotifications
	}
	q.truncateLocked()
	return q.settings
}
