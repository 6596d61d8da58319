package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"pizza-ordering-api/cart"
)

// ErrNotFound is returned by a Store when no live state exists for an id.
var ErrNotFound = errors.New("session not found")

// State is everything the server keeps for one browser session.
type State struct {
	Cart      cart.Cart `json:"cart"`
	IsAdmin   bool      `json:"isAdmin"`
	AdminUser string    `json:"adminUser,omitempty"`
}

// Empty reports whether the state carries nothing worth persisting.
func (s State) Empty() bool {
	return s.Cart.Len() == 0 && !s.IsAdmin && s.AdminUser == ""
}

func encodeState(st State) ([]byte, error) {
	return json.Marshal(st)
}

func decodeState(raw []byte) (State, error) {
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Store persists session state by id. Implementations must expire entries
// after the ttl passed to Save.
type Store interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, st State, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps encoded state in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, id string) (State, error) {
	m.mu.Lock()
	entry, ok := m.entries[id]
	if ok && !m.now().Before(entry.expires) {
		delete(m.entries, id)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return State{}, ErrNotFound
	}
	return decodeState(entry.data)
}

func (m *MemoryStore) Save(_ context.Context, id string, st State, ttl time.Duration) error {
	data, err := encodeState(st)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[id] = memoryEntry{data: data, expires: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, entry := range m.entries {
		if !now.Before(entry.expires) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
