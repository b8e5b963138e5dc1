package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

const feedLimit = 100

type FeedEntry struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      Level     `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed - лента уведомлений админки, новые записи сверху
type Feed struct {
	mu      sync.RWMutex
	entries []FeedEntry
}

func NewFeed() *Feed {
	return &Feed{}
}

func (f *Feed) Add(level Level, message string) FeedEntry {
	e := FeedEntry{ID: uuid.NewString(), Message: message, Type: level, Timestamp: time.Now().UTC()}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = slices.Insert(f.entries, 0, e)
	if len(f.entries) > feedLimit {
		f.entries = f.entries[:feedLimit]
	}
	return e
}

func (f *Feed) List() []FeedEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]FeedEntry{}, f.entries...)
}

// Remove сообщает, была ли запись
func (f *Feed) Remove(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.entries)
	f.entries = slices.DeleteFunc(f.entries, func(e FeedEntry) bool { return e.ID == id })
	return len(f.entries) != n
}

func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = nil
}
