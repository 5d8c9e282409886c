// Package prefs is a small persistent key-value store for player settings.
// Writes are staged and only become durable on Save.
package prefs

import "fmt"

// Store is the player-prefs contract.
type Store interface {
	// GetInt returns the value for key, or def when the key is absent.
	GetInt(key string, def int) (int, error)
	SetInt(key string, value int) error
	DeleteKey(key string) error
	DeleteAll() error
	// Save commits all staged writes.
	Save() error
	Close() error
}

// staged tracks uncommitted writes. A nil value marks a deletion.
type staged struct {
	values    map[string]*int
	deleteAll bool
}

func newStaged() staged {
	return staged{values: make(map[string]*int)}
}

func (s *staged) set(key string, v int) {
	s.values[key] = &v
}

func (s *staged) del(key string) {
	s.values[key] = nil
}

func (s *staged) clear() {
	s.values = make(map[string]*int)
	s.deleteAll = true
}

// lookup reports the staged value for key. found is false when the committed
// value should be consulted.
func (s *staged) lookup(key string) (v int, present, found bool) {
	if p, ok := s.values[key]; ok {
		if p == nil {
			return 0, false, true
		}
		return *p, true, true
	}
	if s.deleteAll {
		return 0, false, true
	}
	return 0, false, false
}

func (s *staged) dirty() bool {
	return s.deleteAll || len(s.values) > 0
}

func (s *staged) reset() {
	s.values = make(map[string]*int)
	s.deleteAll = false
}

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("prefs: empty key")
	}
	return nil
}
