// Package dedup suppresses repeat notifications for an unchanged
// availability message within a cooldown window. A changed message for
// the same product/store pair always goes through and restarts the
// window.
package dedup

import (
	"container/list"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the in-memory store. One entry exists per
// product/store pair, so the default is generous for any single monitor.
const DefaultMaxEntries = 4096

// Store decides whether a notification should be suppressed and records
// the ones that were sent.
type Store interface {
	// ShouldSuppress reports whether a notification with this key and
	// message falls inside the cooldown window of a previous send.
	ShouldSuppress(key, message string, now time.Time) bool

	// RecordSent marks a notification as sent at the given time,
	// replacing any previous record under the same key.
	RecordSent(key, message string, now time.Time)

	// Len returns the number of tracked notification records.
	Len() int
}

type record struct {
	key     string
	message string
	sentAt  time.Time
}

// memoryStore is a mutex-guarded LRU map. Recording evicts the least
// recently touched entry once the bound is reached.
type memoryStore struct {
	mu       sync.Mutex
	cooldown time.Duration
	max      int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
}

// NewMemoryStore builds a bounded in-memory store with the given
// cooldown window. A non-positive maxEntries falls back to the default.
func NewMemoryStore(cooldown time.Duration, maxEntries int) Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &memoryStore{
		cooldown: cooldown,
		max:      maxEntries,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (s *memoryStore) ShouldSuppress(key, message string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[key]
	if !ok {
		return false
	}
	rec := elem.Value.(*record)
	if rec.message != message {
		return false
	}
	if now.Sub(rec.sentAt) >= s.cooldown {
		return false
	}
	s.order.MoveToFront(elem)
	return true
}

func (s *memoryStore) RecordSent(key, message string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[key]; ok {
		s.order.Remove(elem)
		delete(s.entries, key)
	}
	if len(s.entries) >= s.max {
		s.evictOldest()
	}
	s.entries[key] = s.order.PushFront(&record{key: key, message: message, sentAt: now})
}

func (s *memoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *memoryStore) evictOldest() {
	back := s.order.Back()
	if back == nil {
		return
	}
	s.order.Remove(back)
	delete(s.entries, back.Value.(*record).key)
}

// Key builds the dedup key for a product title at a store.
func Key(title, storeName string) string {
	return title + "_" + storeName
}
