package prefs

import "sync"

// Memory is a Store that keeps committed values in a map. It is used for the
// "memory" storage type and in tests.
type Memory struct {
	mu        sync.Mutex
	committed map[string]int
	pending   staged
	saves     int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		committed: make(map[string]int),
		pending:   newStaged(),
	}
}

func (m *Memory) GetInt(key string, def int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, present, found := m.pending.lookup(key); found {
		if present {
			return v, nil
		}
		return def, nil
	}
	if v, ok := m.committed[key]; ok {
		return v, nil
	}
	return def, nil
}

func (m *Memory) SetInt(key string, value int) error {
	if err := validKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.set(key, value)
	return nil
}

func (m *Memory) DeleteKey(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.del(key)
	return nil
}

func (m *Memory) DeleteAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.clear()
	return nil
}

func (m *Memory) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending.deleteAll {
		m.committed = make(map[string]int)
	}
	for k, v := range m.pending.values {
		if v == nil {
			delete(m.committed, k)
			continue
		}
		m.committed[k] = *v
	}
	m.pending.reset()
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Committed returns a copy of the durable values.
func (m *Memory) Committed() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.committed))
	for k, v := range m.committed {
		out[k] = v
	}
	return out
}

func (m *Memory) Close() error { return nil }
