// Package session coordinates the active ball, the score counters and the
// result panels. One Coordinator is created per process and passed to the
// components that wire events into it.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tiltlab/arlabyrinth/internal/ball"
	"github.com/tiltlab/arlabyrinth/internal/history"
	"github.com/tiltlab/arlabyrinth/internal/score"
	"github.com/tiltlab/arlabyrinth/pkg/core"
)

// Dependencies holds all dependencies needed by the coordinator
type Dependencies struct {
	Scores *score.Store
	View   View
	Rounds history.Sink // optional
	Logger *slog.Logger
	Now    func() time.Time
}

// Coordinator owns the single active ball binding.
type Coordinator struct {
	deps Dependencies
	log  *slog.Logger
	inst instruments

	active  *ball.Machine
	cancels []func()

	roundID    string
	roundStart time.Time
}

// New creates a Coordinator. Call Start before dispatching events.
func New(deps Dependencies) (*Coordinator, error) {
	if deps.Scores == nil {
		return nil, core.Missing("session", "score store")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	inst, err := newInstruments()
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		deps: deps,
		log:  deps.Logger.With("component", "session"),
		inst: inst,
	}, nil
}

// Start loads the persisted scores and puts the UI in its idle state.
func (c *Coordinator) Start() error {
	c.deps.View.hidePanels()

	s, err := c.deps.Scores.Load()
	c.deps.View.showScore(s)
	if err != nil {
		return fmt.Errorf("loading scores: %w", err)
	}
	c.log.Info("Scores loaded", "wins", s.Wins, "losses", s.Losses)
	return nil
}

// Active returns the bound ball, or nil.
func (c *Coordinator) Active() *ball.Machine {
	return c.active
}

// Score returns the current counters.
func (c *Coordinator) Score() core.Score {
	return c.deps.Scores.Current()
}

// SetBallState binds m as the active ball. The previous ball's listeners
// are removed before m's are added, so at most one ball ever feeds the
// counters. A nil m reports a missing reference and leaves nothing bound.
// A failed reset is returned but the binding stays in place.
func (c *Coordinator) SetBallState(m *ball.Machine) error {
	c.unbind()

	var err error
	if m == nil {
		err = core.Missing("session", "ball state")
		c.log.Error("Ball state is nil", "error", err)
	} else {
		c.active = m
		c.cancels = []func(){
			m.Win().Subscribe(c.HandleWin),
			m.Loss().Subscribe(c.HandleLoss),
		}
		c.log.Info("Ball bound", "ball", m.Name())

		if err = m.Reset(); err != nil {
			err = fmt.Errorf("resetting %s: %w", m.Name(), err)
		} else {
			c.beginRound()
		}
	}

	c.deps.View.hidePanels()
	return err
}

// Unbind drops m if it is the active ball. It reports whether it was.
func (c *Coordinator) Unbind(m *ball.Machine) bool {
	if m == nil || c.active != m {
		return false
	}
	c.unbind()
	c.log.Info("Ball unbound", "ball", m.Name())
	return true
}

func (c *Coordinator) unbind() {
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cancels = nil
	c.active = nil
	c.roundID = ""
}

// HandleWin is subscribed to the active ball's Win signal.
func (c *Coordinator) HandleWin() {
	s, err := c.deps.Scores.RecordWin()
	if err != nil {
		c.log.Error("Failed to save scores", "error", err)
	}
	c.inst.won.Add(context.Background(), 1)
	c.deps.View.showScore(s)
	c.deps.View.showPanels(true, false)
	c.log.Info("Player won", "wins", s.Wins, "losses", s.Losses)
	c.endRound(core.OutcomeWin, s)
}

// HandleLoss is subscribed to the active ball's Loss signal.
func (c *Coordinator) HandleLoss() {
	s, err := c.deps.Scores.RecordLoss()
	if err != nil {
		c.log.Error("Failed to save scores", "error", err)
	}
	c.inst.lost.Add(context.Background(), 1)
	c.deps.View.showScore(s)
	c.deps.View.showPanels(false, true)
	c.log.Info("Player lost", "wins", s.Wins, "losses", s.Losses)
	c.endRound(core.OutcomeLoss, s)
}

// RestartGame hides the result panels and resets the active ball. With no
// ball bound it returns ErrNoActiveSession.
func (c *Coordinator) RestartGame() error {
	c.log.Info("Restarting game")
	c.deps.View.hidePanels()

	if c.active == nil {
		c.log.Warn("No active labyrinth, track the marker to spawn a new game")
		return core.ErrNoActiveSession
	}
	if err := c.active.Reset(); err != nil {
		return fmt.Errorf("resetting %s: %w", c.active.Name(), err)
	}
	c.beginRound()
	return nil
}

// ResetStats zeroes and deletes the persisted counters.
func (c *Coordinator) ResetStats() error {
	err := c.deps.Scores.Reset()
	c.deps.View.showScore(c.deps.Scores.Current())
	if err != nil {
		return fmt.Errorf("resetting stats: %w", err)
	}
	c.log.Info("All scores reset")
	return nil
}

func (c *Coordinator) beginRound() {
	c.roundID = history.NewRoundID()
	c.roundStart = c.deps.Now()
}

func (c *Coordinator) endRound(outcome core.Outcome, s core.Score) {
	if c.deps.Rounds == nil {
		return
	}

	r := core.Round{
		ID:        c.roundID,
		Outcome:   outcome,
		StartedAt: c.roundStart,
		EndedAt:   c.deps.Now(),
		Score:     s,
	}
	if c.active != nil {
		r.Ball = c.active.Name()
		r.FinalPose = c.active.Pose()
	}
	if r.ID == "" {
		r.ID = history.NewRoundID()
		r.StartedAt = r.EndedAt
	}

	if err := c.deps.Rounds.RecordRound(r); err != nil {
		c.log.Warn("Failed to record round", "round", r.ID, "error", err)
	}
}
