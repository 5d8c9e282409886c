// Package engine declares the collaborators the game logic needs from the
// host engine: image tracking, prefab instantiation, rigid bodies and UI
// widgets. internal/world provides an in-process implementation.
package engine

import "github.com/tiltlab/arlabyrinth/pkg/core"

// Anchor is the live pose of a tracked image. Content parented to an anchor
// follows it without any per-frame copying by the game logic.
type Anchor interface {
	Name() string
	Pose() core.Pose
	TrackingState() core.TrackingState
}

// ImageTracker is the AR image-tracking subsystem.
type ImageTracker interface {
	// SubscribeTrackablesChanged registers fn for every change batch. The
	// returned func removes the subscription.
	SubscribeTrackablesChanged(fn func(core.TrackablesChanged)) (unsubscribe func())
	// Anchor returns the live anchor of a tracked image.
	Anchor(name string) (Anchor, bool)
}

// Prefab is a content template that can be instantiated under an anchor.
type Prefab interface {
	Name() string
	Instantiate(parent Anchor, name string) (Instance, error)
}

// Instance is an instantiated prefab hierarchy.
type Instance interface {
	Name() string
	Active() bool
	SetActive(active bool)
	Destroy()
	// FindBall locates the ball rig inside the hierarchy.
	FindBall() (BallRig, bool)
}

// BallRig is what the ball logic needs from the hierarchy. SpawnPoint is nil
// when the prefab was authored without one.
type BallRig struct {
	Name       string
	Body       RigidBody
	SpawnPoint *core.Pose
}

// RigidBody is a physics body owned by the engine.
type RigidBody interface {
	Pose() core.Pose
	SetPose(p core.Pose)
	SetVelocity(linear, angular core.Vector3)
	SetKinematic(kinematic bool)
	SetDetectCollisions(detect bool)
	// OnTriggerEnter registers fn for trigger events on this body.
	OnTriggerEnter(fn func(core.Collider)) (cancel func())
}

// Panel is a UI element that can be shown or hidden.
type Panel interface {
	SetActive(active bool)
}

// Label is a UI text element.
type Label interface {
	SetText(text string)
}

// SceneLoader switches engine scenes.
type SceneLoader interface {
	ActiveScene() string
	LoadScene(name string) error
	Quit()
}
