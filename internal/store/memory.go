package store

import (
	"sync"
)

const subscriberBuffer = 16

// MemoryStore is an in-memory implementation of [Store].
//
// Subscribers receive updates via buffered channels. Sends are non-blocking;
// if a subscriber's buffer is full, the update is dropped for that subscriber.
type MemoryStore struct {
	mu     sync.RWMutex
	latest BadgeRecord
	has    bool

	subMu       sync.RWMutex
	subscribers map[chan BadgeRecord]struct{}
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscribers: make(map[chan BadgeRecord]struct{}),
	}
}

// Update replaces the current record and notifies all subscribers.
func (m *MemoryStore) Update(record BadgeRecord) {
	m.mu.Lock()
	m.latest = record
	m.has = true
	m.mu.Unlock()

	m.notifySubscribers(record)
}

// Latest returns the current record. The bool is false until the first Update.
func (m *MemoryStore) Latest() (BadgeRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.has
}

// Subscribe creates a new subscription.
//
// Caller must call [MemoryStore.Unsubscribe] when done.
func (m *MemoryStore) Subscribe() <-chan BadgeRecord {
	ch := make(chan BadgeRecord, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan BadgeRecord) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (m *MemoryStore) Subscribers() int {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	return len(m.subscribers)
}

func (m *MemoryStore) notifySubscribers(record BadgeRecord) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- record:
		default:
			// slow subscriber, drop
		}
	}
}
