// Package world mirrors the host engine's scene objects in process. It
// implements the pkg/engine collaborators and reports every mutation as an
// Effect, so a remote engine can replay the same changes.
//
// A World is not safe for concurrent use. All calls happen on the main loop.
package world

import (
	"sort"

	"github.com/tiltlab/arlabyrinth/pkg/core"
)

// EffectKind names a scene mutation.
type EffectKind string

const (
	EffectSpawn    EffectKind = "spawn"
	EffectDestroy  EffectKind = "destroy"
	EffectActive   EffectKind = "active"
	EffectPose     EffectKind = "pose"
	EffectVelocity EffectKind = "velocity"
	EffectPhysics  EffectKind = "physics"
	EffectText     EffectKind = "text"
	EffectScene    EffectKind = "scene"
	EffectQuit     EffectKind = "quit"
)

// Effect is one scene mutation. Only the fields relevant to Kind are set.
type Effect struct {
	Kind             EffectKind    `json:"kind"`
	Target           string        `json:"target,omitempty"`
	Parent           string        `json:"parent,omitempty"`
	Prefab           string        `json:"prefab,omitempty"`
	Active           *bool         `json:"active,omitempty"`
	Pose             *core.Pose    `json:"pose,omitempty"`
	Linear           *core.Vector3 `json:"linear,omitempty"`
	Angular          *core.Vector3 `json:"angular,omitempty"`
	Kinematic        *bool         `json:"kinematic,omitempty"`
	DetectCollisions *bool         `json:"detectCollisions,omitempty"`
	Text             *string       `json:"text,omitempty"`
	Scene            string        `json:"scene,omitempty"`
}

// EffectSink receives effects in the order they happen.
type EffectSink func(Effect)

// World holds the mirrored objects.
type World struct {
	sink      EffectSink
	tracker   *Tracker
	scenes    *Scenes
	instances map[string]*Instance
	panels    map[string]*Panel
	labels    map[string]*Label
}

// New creates an empty world. sink may be nil.
func New(sink EffectSink) *World {
	w := &World{
		sink:      sink,
		instances: make(map[string]*Instance),
		panels:    make(map[string]*Panel),
		labels:    make(map[string]*Label),
	}
	w.tracker = newTracker()
	w.scenes = &Scenes{w: w}
	return w
}

// SetSink replaces the effect sink.
func (w *World) SetSink(sink EffectSink) {
	w.sink = sink
}

func (w *World) emit(e Effect) {
	if w.sink != nil {
		w.sink(e)
	}
}

// Tracker returns the image tracker.
func (w *World) Tracker() *Tracker { return w.tracker }

// Scenes returns the scene loader.
func (w *World) Scenes() *Scenes { return w.scenes }

// Panel returns the named panel, creating it hidden on first use.
func (w *World) Panel(name string) *Panel {
	p, ok := w.panels[name]
	if !ok {
		p = &Panel{w: w, name: name}
		w.panels[name] = p
	}
	return p
}

// Label returns the named label, creating it empty on first use.
func (w *World) Label(name string) *Label {
	l, ok := w.labels[name]
	if !ok {
		l = &Label{w: w, name: name}
		w.labels[name] = l
	}
	return l
}

// Instance looks up a live instance by name.
func (w *World) Instance(name string) (*Instance, bool) {
	i, ok := w.instances[name]
	return i, ok
}

// Instances returns the names of all live instances, sorted.
func (w *World) Instances() []string {
	names := make([]string, 0, len(w.instances))
	for n := range w.instances {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func boolPtr(b bool) *bool { return &b }
