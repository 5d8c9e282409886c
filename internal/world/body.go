package world

import (
	"github.com/tiltlab/arlabyrinth/pkg/core"
	"github.com/tiltlab/arlabyrinth/pkg/engine"
)

// Body mirrors a rigid body. Physics integration stays in the engine; the
// mirror only records what the game logic sets.
type Body struct {
	w         *World
	owner     *Instance
	name      string
	pose      core.Pose
	linear    core.Vector3
	angular   core.Vector3
	kinematic bool
	detect    bool

	next     uint64
	handlers []bodyHandler
}

type bodyHandler struct {
	id uint64
	fn func(core.Collider)
}

func (b *Body) Name() string           { return b.name }
func (b *Body) Pose() core.Pose        { return b.pose }
func (b *Body) Linear() core.Vector3   { return b.linear }
func (b *Body) Angular() core.Vector3  { return b.angular }
func (b *Body) Kinematic() bool        { return b.kinematic }
func (b *Body) DetectCollisions() bool { return b.detect }
func (b *Body) TriggerHandlers() int   { return len(b.handlers) }

func (b *Body) SetPose(p core.Pose) {
	b.pose = p
	b.w.emit(Effect{Kind: EffectPose, Target: b.name, Pose: &p})
}

func (b *Body) SetVelocity(linear, angular core.Vector3) {
	b.linear, b.angular = linear, angular
	b.w.emit(Effect{Kind: EffectVelocity, Target: b.name, Linear: &linear, Angular: &angular})
}

func (b *Body) SetKinematic(kinematic bool) {
	b.kinematic = kinematic
	b.w.emit(Effect{Kind: EffectPhysics, Target: b.name, Kinematic: boolPtr(kinematic)})
}

func (b *Body) SetDetectCollisions(detect bool) {
	b.detect = detect
	b.w.emit(Effect{Kind: EffectPhysics, Target: b.name, DetectCollisions: boolPtr(detect)})
}

// Move records an engine-side pose change, such as the ball rolling.
// Nothing is emitted: the engine already knows.
func (b *Body) Move(p core.Pose) {
	b.pose = p
}

// OnTriggerEnter implements engine.RigidBody.
func (b *Body) OnTriggerEnter(fn func(core.Collider)) func() {
	b.next++
	id := b.next
	b.handlers = append(b.handlers, bodyHandler{id: id, fn: fn})
	return func() {
		for i, h := range b.handlers {
			if h.id == id {
				b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
				return
			}
		}
	}
}

// Trigger delivers a trigger event from the engine. Like the engine, a body
// with collision detection off or inside an inactive instance receives
// nothing. It reports delivery.
func (b *Body) Trigger(c core.Collider) bool {
	if !b.detect {
		return false
	}
	if b.owner != nil && !b.owner.Active() {
		return false
	}
	hs := append([]bodyHandler(nil), b.handlers...)
	for _, h := range hs {
		h.fn(c)
	}
	return true
}

var _ engine.RigidBody = (*Body)(nil)
