package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"minetwin/internal/types"
)

// MaxNotifications is how many notifications the feed keeps.
const MaxNotifications = 5

// Feed keeps the most recent notifications, newest first, and hands every
// new one to the listeners.
type Feed struct {
	mu        sync.Mutex
	items     []types.Notification
	listeners []func(types.Notification)
}

func NewFeed(listeners ...func(types.Notification)) *Feed {
	return &Feed{listeners: listeners}
}

func (f *Feed) Push(kind, message string) {
	n := types.Notification{
		ID:        uuid.New().String(),
		Message:   message,
		Kind:      kind,
		Timestamp: time.Now().Format(time.TimeOnly),
	}
	f.mu.Lock()
	f.items = append([]types.Notification{n}, f.items...)
	if len(f.items) > MaxNotifications {
		f.items = f.items[:MaxNotifications]
	}
	listeners := f.listeners
	f.mu.Unlock()

	for _, l := range listeners {
		l(n)
	}
}

func (f *Feed) List() []types.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Notification(nil), f.items...)
}
