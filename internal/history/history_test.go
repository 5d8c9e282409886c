package history

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tiltlab/arlabyrinth/pkg/core"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	r, err := NewRecorder(db)
	require.NoError(t, err)
	return r
}

func sampleRound(ended time.Time, outcome core.Outcome) core.Round {
	return core.Round{
		ID:        NewRoundID(),
		Ball:      "Ball",
		Outcome:   outcome,
		StartedAt: ended.Add(-30 * time.Second),
		EndedAt:   ended,
		FinalPose: core.PoseAt(core.Vector3{X: 0.1, Y: -0.2, Z: 0.3}),
		Score:     core.Score{Wins: 1},
	}
}

func TestNewRoundID_IsUUID(t *testing.T) {
	_, err := uuid.Parse(NewRoundID())
	assert.NoError(t, err)
}

func TestRecorder_RoundTrip(t *testing.T) {
	rec := newTestRecorder(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	older := sampleRound(base, core.OutcomeLoss)
	newer := sampleRound(base.Add(time.Minute), core.OutcomeWin)
	require.NoError(t, rec.RecordRound(older))
	require.NoError(t, rec.RecordRound(newer))

	got, err := rec.Recent(10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, core.OutcomeWin, got[0].Outcome)
	assert.Equal(t, newer.FinalPose, got[0].FinalPose)
	assert.Equal(t, 30*time.Second, got[0].Duration())
	assert.Equal(t, core.OutcomeLoss, got[1].Outcome)
}

func TestRecorder_AssignsMissingID(t *testing.T) {
	rec := newTestRecorder(t)
	r := sampleRound(time.Now(), core.OutcomeWin)
	r.ID = ""
	require.NoError(t, rec.RecordRound(r))

	got, err := rec.Recent(1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
}

func TestNewRecorder_NilDB(t *testing.T) {
	_, err := NewRecorder(nil)
	assert.Error(t, err)
}

type sinkFunc func(core.Round) error

func (f sinkFunc) RecordRound(r core.Round) error { return f(r) }

func TestMulti_TriesEverySink(t *testing.T) {
	var seen []string
	m := Multi{
		sinkFunc(func(core.Round) error { seen = append(seen, "a"); return errors.New("a failed") }),
		nil,
		sinkFunc(func(core.Round) error { seen = append(seen, "b"); return nil }),
	}

	err := m.RecordRound(core.Round{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a failed")
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, Multi{}.RecordRound(core.Round{}))
}
