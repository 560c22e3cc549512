package appstate

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is a notification severity
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// DefaultNotificationTTL applies when Push is given a non-positive ttl
const DefaultNotificationTTL = 5 * time.Second

// Notification is one queued message
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	seq uint64
}

// Timer is the part of *time.Timer the queue uses
type Timer interface {
	Stop() bool
}

// Clock abstracts time for the queue
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// DismissFunc is told about every dismissed notification
type DismissFunc func(n Notification, expired bool)

// NotificationQueue holds timed notifications. A single timer is armed for
// the earliest expiry; entries expire in (expires_at, push order) order.
type NotificationQueue struct {
	mu        sync.Mutex
	clock     Clock
	entries   []Notification
	seq       uint64
	capacity  int
	timer     Timer
	timerAt   time.Time
	timerGen  uint64
	onDismiss DismissFunc
	closed    bool
}

// QueueOption configures a NotificationQueue
type QueueOption func(*NotificationQueue)

// WithQueueClock injects the time source
func WithQueueClock(c Clock) QueueOption {
	return func(q *NotificationQueue) { q.clock = c }
}

// WithCapacity bounds the queue; the oldest entry is dropped on overflow
func WithCapacity(n int) QueueOption {
	return func(q *NotificationQueue) { q.capacity = n }
}

// WithDismissHandler installs a callback run after each dismissal, outside the queue lock
func WithDismissHandler(f DismissFunc) QueueOption {
	return func(q *NotificationQueue) { q.onDismiss = f }
}

// NewNotificationQueue creates an empty queue
func NewNotificationQueue(opts ...QueueOption) *NotificationQueue {
	q := &NotificationQueue{clock: realClock{}, capacity: 50}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push queues a message that expires after ttl
func (q *NotificationQueue) Push(level Level, message string, ttl time.Duration) Notification {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	q.mu.Lock()
	now := q.clock.Now()
	q.seq++
	n := Notification{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		seq:       q.seq,
	}
	q.entries = append(q.entries, n)

	var dropped []Notification
	if q.capacity > 0 && len(q.entries) > q.capacity {
		over := len(q.entries) - q.capacity
		dropped = slices.Clone(q.entries[:over])
		q.entries = slices.Delete(q.entries, 0, over)
	}
	q.armLocked()
	q.mu.Unlock()

	q.report(dropped, false)
	return n
}

// Info queues an info message with the default ttl
func (q *NotificationQueue) Info(message string) Notification {
	return q.Push(LevelInfo, message, 0)
}

// Success queues a success message with the default ttl
func (q *NotificationQueue) Success(message string) Notification {
	return q.Push(LevelSuccess, message, 0)
}

// Error queues an error message with the default ttl
func (q *NotificationQueue) Error(message string) Notification {
	return q.Push(LevelError, message, 0)
}

// Dismiss removes the notification with id; it reports whether one was found
func (q *NotificationQueue) Dismiss(id uuid.UUID) bool {
	q.mu.Lock()
	i := slices.IndexFunc(q.entries, func(n Notification) bool { return n.ID == id })
	if i < 0 {
		q.mu.Unlock()
		return false
	}
	n := q.entries[i]
	q.entries = slices.Delete(q.entries, i, i+1)
	q.armLocked()
	q.mu.Unlock()

	q.report([]Notification{n}, false)
	return true
}

// List returns the live notifications in push order
func (q *NotificationQueue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.entries)
}

// Len returns the number of live notifications
func (q *NotificationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Clear drops every notification and disarms the timer
func (q *NotificationQueue) Clear() {
	q.mu.Lock()
	q.entries = nil
	q.armLocked()
	q.mu.Unlock()
}

// Close disarms the timer; later pushes are kept but never expire on their own
func (q *NotificationQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.stopTimerLocked()
	q.mu.Unlock()
}

// Expire removes every entry due at the current clock time and re-arms the timer.
// It is what the timer runs; calling it directly is safe.
func (q *NotificationQueue) Expire() []Notification {
	q.mu.Lock()
	q.stopTimerLocked()
	return q.expireLocked()
}

// fire runs on the timer; a timer superseded after it started is ignored
func (q *NotificationQueue) fire(gen uint64) {
	q.mu.Lock()
	if gen != q.timerGen || q.timer == nil {
		q.mu.Unlock()
		return
	}
	q.timer = nil
	q.timerAt = time.Time{}
	q.expireLocked()
}

// expireLocked is entered with mu held and releases it before reporting
func (q *NotificationQueue) expireLocked() []Notification {
	now := q.clock.Now()

	var expired []Notification
	q.entries = slices.DeleteFunc(q.entries, func(n Notification) bool {
		if n.ExpiresAt.After(now) {
			return false
		}
		expired = append(expired, n)
		return true
	})
	slices.SortStableFunc(expired, compareExpiry)
	q.armLocked()
	q.mu.Unlock()

	q.report(expired, true)
	return expired
}

// armLocked points the single timer at the earliest expiry
func (q *NotificationQueue) armLocked() {
	if q.closed {
		return
	}
	if len(q.entries) == 0 {
		q.stopTimerLocked()
		return
	}
	next := slices.MinFunc(q.entries, compareExpiry).ExpiresAt
	if q.timer != nil && q.timerAt.Equal(next) {
		return
	}
	q.stopTimerLocked()
	q.timerGen++
	gen := q.timerGen
	q.timerAt = next
	q.timer = q.clock.AfterFunc(max(next.Sub(q.clock.Now()), 0), func() { q.fire(gen) })
}

func (q *NotificationQueue) stopTimerLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
		q.timerAt = time.Time{}
	}
}

func (q *NotificationQueue) report(ns []Notification, expired bool) {
	if q.onDismiss == nil {
		return
	}
	for _, n := range ns {
		q.onDismiss(n, expired)
	}
}

func compareExpiry(a, b Notification) int {
	if c := a.ExpiresAt.Compare(b.ExpiresAt); c != 0 {
		return c
	}
	switch {
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	}
	return 0
}
