package dashboard

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Notification is transient operator feedback, fire-and-forget.
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Time        time.Time `json:"time"`
}

type Notifier interface {
	Notify(n Notification)
}

// LogNotifier writes notifications to the log.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	log.Info().
		Str("title", n.Title).
		Str("description", n.Description).
		Msg("Notification")
}

// RecentNotifier keeps the last notifications in memory for the frontend to
// poll, and forwards each one to Next when set.
type RecentNotifier struct {
	Next  Notifier
	limit int
	items []Notification
	mutex sync.Mutex
}

func NewRecentNotifier(limit int, next Notifier) *RecentNotifier {
	if limit <= 0 {
		limit = 20
	}
	return &RecentNotifier{Next: next, limit: limit}
}

func (r *RecentNotifier) Notify(n Notification) {
	r.mutex.Lock()
	r.items = append(r.items, n)
	if len(r.items) > r.limit {
		r.items = r.items[len(r.items)-r.limit:]
	}
	r.mutex.Unlock()

	if r.Next != nil {
		r.Next.Notify(n)
	}
}

// Recent returns the kept notifications, newest last.
func (r *RecentNotifier) Recent() []Notification {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]Notification{}, r.items...)
}
