package world

import (
	"github.com/tiltlab/arlabyrinth/pkg/core"
	"github.com/tiltlab/arlabyrinth/pkg/engine"
)

// Anchor is the live pose of one tracked image.
type Anchor struct {
	name  string
	pose  core.Pose
	state core.TrackingState
}

func (a *Anchor) Name() string                      { return a.name }
func (a *Anchor) Pose() core.Pose                   { return a.pose }
func (a *Anchor) TrackingState() core.TrackingState { return a.state }

// Tracker is an image tracker fed by Publish.
type Tracker struct {
	anchors map[string]*Anchor
	next    uint64
	subs    []trackerSub
}

type trackerSub struct {
	id uint64
	fn func(core.TrackablesChanged)
}

func newTracker() *Tracker {
	return &Tracker{anchors: make(map[string]*Anchor)}
}

// SubscribeTrackablesChanged implements engine.ImageTracker.
func (t *Tracker) SubscribeTrackablesChanged(fn func(core.TrackablesChanged)) func() {
	t.next++
	id := t.next
	t.subs = append(t.subs, trackerSub{id: id, fn: fn})
	return func() {
		for i, s := range t.subs {
			if s.id == id {
				t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (t *Tracker) Subscribers() int { return len(t.subs) }

// Anchor implements engine.ImageTracker.
func (t *Tracker) Anchor(name string) (engine.Anchor, bool) {
	a, ok := t.anchors[name]
	if !ok {
		return nil, false
	}
	return a, true
}

// Publish applies a change batch to the anchors and delivers it to every
// subscriber. Removed anchors stay known with tracking state None, so
// content parented to them keeps a valid parent.
func (t *Tracker) Publish(ev core.TrackablesChanged) {
	for _, img := range ev.Added {
		t.upsert(img)
	}
	for _, img := range ev.Updated {
		t.upsert(img)
	}
	for _, img := range ev.Removed {
		if a, ok := t.anchors[img.Name]; ok {
			a.state = core.TrackingNone
		}
	}

	subs := append([]trackerSub(nil), t.subs...)
	for _, s := range subs {
		s.fn(ev)
	}
}

func (t *Tracker) upsert(img core.TrackedImage) {
	a, ok := t.anchors[img.Name]
	if !ok {
		a = &Anchor{name: img.Name}
		t.anchors[img.Name] = a
	}
	a.pose = img.Pose
	a.state = img.TrackingState
}

var _ engine.ImageTracker = (*Tracker)(nil)
