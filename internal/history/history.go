// Package history records finished rounds.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tiltlab/arlabyrinth/pkg/core"
)

// Sink receives every finished round.
type Sink interface {
	RecordRound(r core.Round) error
}

// NewRoundID returns a fresh round identifier.
func NewRoundID() string {
	return uuid.NewString()
}

// Multi fans a round out to several sinks. Every sink is tried; the errors
// are joined.
type Multi []Sink

func (m Multi) RecordRound(r core.Round) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.RecordRound(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Record is the persisted form of a round.
type Record struct {
	ID         string `gorm:"primaryKey;size:36"`
	Ball       string `gorm:"index;size:128"`
	Outcome    string `gorm:"size:8"`
	StartedAt  time.Time
	EndedAt    time.Time `gorm:"index"`
	DurationMs int64
	FinalPose  datatypes.JSON
	Wins       int
	Losses     int
}

// TableName overrides the gorm default.
func (Record) TableName() string { return "rounds" }

// Recorder stores rounds through gorm.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates the recorder and migrates its table.
func NewRecorder(db *gorm.DB) (*Recorder, error) {
	if db == nil {
		return nil, errors.New("history: nil database")
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrating rounds: %w", err)
	}
	return &Recorder{db: db}, nil
}

func (h *Recorder) RecordRound(r core.Round) error {
	pose, err := json.Marshal(r.FinalPose)
	if err != nil {
		return fmt.Errorf("marshal final pose: %w", err)
	}
	id := r.ID
	if id == "" {
		id = NewRoundID()
	}
	rec := Record{
		ID:         id,
		Ball:       r.Ball,
		Outcome:    r.Outcome.String(),
		StartedAt:  r.StartedAt.UTC(),
		EndedAt:    r.EndedAt.UTC(),
		DurationMs: r.Duration().Milliseconds(),
		FinalPose:  datatypes.JSON(pose),
		Wins:       r.Score.Wins,
		Losses:     r.Score.Losses,
	}
	if err := h.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("insert round %s: %w", id, err)
	}
	return nil
}

// Recent returns up to limit rounds, newest first.
func (h *Recorder) Recent(limit int) ([]core.Round, error) {
	var recs []Record
	if err := h.db.Order("ended_at desc").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}

	out := make([]core.Round, 0, len(recs))
	for _, rec := range recs {
		r := core.Round{
			ID:        rec.ID,
			Ball:      rec.Ball,
			Outcome:   parseOutcome(rec.Outcome),
			StartedAt: rec.StartedAt,
			EndedAt:   rec.EndedAt,
			Score:     core.Score{Wins: rec.Wins, Losses: rec.Losses},
		}
		if len(rec.FinalPose) > 0 {
			if err := json.Unmarshal(rec.FinalPose, &r.FinalPose); err != nil {
				return nil, fmt.Errorf("round %s pose: %w", rec.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func parseOutcome(s string) core.Outcome {
	switch s {
	case "win":
		return core.OutcomeWin
	case "loss":
		return core.OutcomeLoss
	default:
		return 0
	}
}
