// Package ball implements the ball state machine: a one-way latch from
// Playing to Won or Lost that only an explicit Reset clears.
package ball

import (
	"log/slog"

	"github.com/tiltlab/arlabyrinth/pkg/core"
	"github.com/tiltlab/arlabyrinth/pkg/engine"
)

// State of the ball.
type State uint8

const (
	Playing State = iota
	Won
	Lost
)

func (s State) String() string {
	switch s {
	case Won:
		return "Won"
	case Lost:
		return "Lost"
	default:
		return "Playing"
	}
}

// Machine drives one ball body.
type Machine struct {
	name  string
	body  engine.RigidBody
	spawn *core.Pose
	state State
	log   *slog.Logger

	win  Signal
	loss Signal

	cancelTrigger func()
}

// New creates a Machine for the given rig and starts listening to its
// trigger events. The ball starts in Playing; callers Reset it before play.
func New(rig engine.BallRig, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Machine{
		name:  rig.Name,
		body:  rig.Body,
		spawn: rig.SpawnPoint,
		log:   logger.With("ball", rig.Name),
	}
	if m.body != nil {
		m.cancelTrigger = m.body.OnTriggerEnter(m.OnTriggerEnter)
	}
	return m
}

// Name of the ball object.
func (m *Machine) Name() string { return m.name }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// IsGameOver reports whether the latch is set.
func (m *Machine) IsGameOver() bool { return m.state != Playing }

// Win is emitted once per Playing -> Won transition.
func (m *Machine) Win() *Signal { return &m.win }

// Loss is emitted once per Playing -> Lost transition.
func (m *Machine) Loss() *Signal { return &m.loss }

// Pose returns the body pose, or the zero pose without a body.
func (m *Machine) Pose() core.Pose {
	if m.body == nil {
		return core.Pose{}
	}
	return m.body.Pose()
}

// OnTriggerEnter handles a trigger event from the physics subsystem.
func (m *Machine) OnTriggerEnter(c core.Collider) {
	if m.state != Playing {
		return
	}

	switch c.Kind {
	case core.ColliderGoal:
		m.log.Info("Goal reached", "collider", c.Name)
		m.finish(Won)
		m.win.Emit()
	case core.ColliderDeathPlane:
		m.log.Info("Fell into death plane", "collider", c.Name)
		m.finish(Lost)
		m.loss.Emit()
	}
}

func (m *Machine) finish(s State) {
	m.state = s
	m.setPhysics(false)
}

// Reset returns the ball to its spawn point and clears the latch. Without a
// spawn point it reports a missing reference and changes nothing.
func (m *Machine) Reset() error {
	if m.spawn == nil {
		err := core.Missing("ball "+m.name, "spawn point")
		m.log.Error("Cannot reset ball", "error", err)
		return err
	}
	if m.body == nil {
		err := core.Missing("ball "+m.name, "rigid body")
		m.log.Error("Cannot reset ball", "error", err)
		return err
	}

	m.body.SetPose(*m.spawn)
	m.body.SetVelocity(core.Zero3, core.Zero3)
	m.state = Playing
	m.setPhysics(true)
	m.log.Debug("Ball state reset", "position", m.spawn.Position.String())
	return nil
}

func (m *Machine) setPhysics(enabled bool) {
	if m.body == nil {
		return
	}
	m.body.SetKinematic(!enabled)
	m.body.SetDetectCollisions(enabled)
}

// Detach stops listening to the body's trigger events. Used when the owning
// instance is destroyed.
func (m *Machine) Detach() {
	if m.cancelTrigger != nil {
		m.cancelTrigger()
		m.cancelTrigger = nil
	}
}
