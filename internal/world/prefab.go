package world

import (
	"errors"
	"fmt"

	"github.com/tiltlab/arlabyrinth/pkg/core"
	"github.com/tiltlab/arlabyrinth/pkg/engine"
)

// PrefabTemplate describes the content a prefab instantiates.
type PrefabTemplate struct {
	Name string
	// Ball adds a ball rigid body to every instance.
	Ball     bool
	BallName string
	// SpawnPoint is the ball's reset pose. nil means not assigned.
	SpawnPoint *core.Pose
}

// Prefab instantiates templates into the world.
type Prefab struct {
	w   *World
	tpl PrefabTemplate
}

// NewPrefab registers a template.
func (w *World) NewPrefab(tpl PrefabTemplate) *Prefab {
	if tpl.BallName == "" {
		tpl.BallName = "Ball"
	}
	return &Prefab{w: w, tpl: tpl}
}

func (p *Prefab) Name() string { return p.tpl.Name }

// Instantiate implements engine.Prefab.
func (p *Prefab) Instantiate(parent engine.Anchor, name string) (engine.Instance, error) {
	if parent == nil {
		return nil, errors.New("instantiate: nil parent anchor")
	}
	if _, exists := p.w.instances[name]; exists {
		return nil, fmt.Errorf("instantiate: instance %q already exists", name)
	}

	inst := &Instance{
		w:      p.w,
		name:   name,
		parent: parent.Name(),
		prefab: p.tpl.Name,
		active: true,
	}
	if p.tpl.Ball {
		inst.ball = &Body{w: p.w, owner: inst, name: name + "/" + p.tpl.BallName, detect: true}
		if p.tpl.SpawnPoint != nil {
			sp := *p.tpl.SpawnPoint
			inst.spawn = &sp
			inst.ball.pose = sp
		}
	}
	p.w.instances[name] = inst

	p.w.emit(Effect{Kind: EffectSpawn, Target: name, Parent: inst.parent, Prefab: p.tpl.Name})
	return inst, nil
}

// Instance is a live prefab instance.
type Instance struct {
	w         *World
	name      string
	parent    string
	prefab    string
	active    bool
	destroyed bool
	ball      *Body
	spawn     *core.Pose
}

func (i *Instance) Name() string   { return i.name }
func (i *Instance) Parent() string { return i.parent }
func (i *Instance) Active() bool   { return i.active && !i.destroyed }

// Destroyed reports whether Destroy was called.
func (i *Instance) Destroyed() bool { return i.destroyed }

func (i *Instance) SetActive(active bool) {
	if i.destroyed || i.active == active {
		return
	}
	i.active = active
	i.w.emit(Effect{Kind: EffectActive, Target: i.name, Active: boolPtr(active)})
}

func (i *Instance) Destroy() {
	if i.destroyed {
		return
	}
	i.destroyed = true
	delete(i.w.instances, i.name)
	i.w.emit(Effect{Kind: EffectDestroy, Target: i.name})
}

// FindBall implements engine.Instance.
func (i *Instance) FindBall() (engine.BallRig, bool) {
	if i.ball == nil {
		return engine.BallRig{}, false
	}
	return engine.BallRig{Name: i.ball.name, Body: i.ball, SpawnPoint: i.spawn}, true
}

// Body returns the ball body, or nil.
func (i *Instance) Body() *Body { return i.ball }

var (
	_ engine.Prefab   = (*Prefab)(nil)
	_ engine.Instance = (*Instance)(nil)
)
