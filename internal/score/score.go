// Package score keeps the win and loss counters in the player prefs.
package score

import (
	"errors"
	"fmt"

	"github.com/tiltlab/arlabyrinth/internal/prefs"
	"github.com/tiltlab/arlabyrinth/pkg/core"
)

// Pref keys as saved by the mobile client.
const (
	WinCountKey  = "WinCount"
	LossCountKey = "LossCount"
)

// Store holds the counters in memory and writes both keys on every change.
type Store struct {
	prefs prefs.Store
	score core.Score
}

// New creates a Store. Call Load before use.
func New(p prefs.Store) (*Store, error) {
	if p == nil {
		return nil, errors.New("score: nil prefs store")
	}
	return &Store{prefs: p}, nil
}

// Load reads the counters. Negative persisted values are clamped to zero.
func (s *Store) Load() (core.Score, error) {
	wins, err := s.prefs.GetInt(WinCountKey, 0)
	if err != nil {
		return s.score, fmt.Errorf("loading %s: %w", WinCountKey, err)
	}
	losses, err := s.prefs.GetInt(LossCountKey, 0)
	if err != nil {
		return s.score, fmt.Errorf("loading %s: %w", LossCountKey, err)
	}
	s.score = core.Score{Wins: max(wins, 0), Losses: max(losses, 0)}
	return s.score, nil
}

// Current returns the in-memory counters.
func (s *Store) Current() core.Score {
	return s.score
}

// RecordWin increments the win counter by one and persists both counters.
func (s *Store) RecordWin() (core.Score, error) {
	s.score.Wins++
	return s.score, s.save()
}

// RecordLoss increments the loss counter by one and persists both counters.
func (s *Store) RecordLoss() (core.Score, error) {
	s.score.Losses++
	return s.score, s.save()
}

// Reset zeroes the counters and wipes every pref key, as the client's
// reset button does.
func (s *Store) Reset() error {
	s.score = core.Score{}
	if err := s.prefs.DeleteAll(); err != nil {
		return fmt.Errorf("clearing prefs: %w", err)
	}
	if err := s.prefs.Save(); err != nil {
		return fmt.Errorf("saving scores: %w", err)
	}
	return nil
}

func (s *Store) save() error {
	if err := s.prefs.SetInt(WinCountKey, s.score.Wins); err != nil {
		return fmt.Errorf("writing %s: %w", WinCountKey, err)
	}
	if err := s.prefs.SetInt(LossCountKey, s.score.Losses); err != nil {
		return fmt.Errorf("writing %s: %w", LossCountKey, err)
	}
	if err := s.prefs.Save(); err != nil {
		return fmt.Errorf("saving scores: %w", err)
	}
	return nil
}
