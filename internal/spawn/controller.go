// Package spawn watches the image tracker and spawns the labyrinth prefab
// on the target marker, at most once per marker.
package spawn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tiltlab/arlabyrinth/internal/ball"
	"github.com/tiltlab/arlabyrinth/pkg/core"
	"github.com/tiltlab/arlabyrinth/pkg/engine"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstancePrefix is prepended to the marker name to name spawned instances.
const InstancePrefix = "Spawned_"

// Binder receives the ball of every spawned instance.
type Binder interface {
	SetBallState(m *ball.Machine) error
	Unbind(m *ball.Machine) bool
}

// Config controls which marker spawns content and what happens on removal.
type Config struct {
	TargetMarker string
	Cleanup      CleanupPolicy
}

// Dependencies holds all dependencies needed by the controller
type Dependencies struct {
	Tracker engine.ImageTracker
	Prefab  engine.Prefab
	Binder  Binder // optional; without it balls are spawned but not scored
	Logger  *slog.Logger
	Now     func() time.Time
}

// Report describes what one change batch did.
type Report struct {
	Spawned     []string
	Duplicates  []string
	Reactivated []string
	Cleaned     []string
	Ignored     []string
	Errors      []error
}

// Err joins the batch errors. Duplicates are not errors.
func (r Report) Err() error {
	return errors.Join(r.Errors...)
}

// Controller spawns prefab instances on tracked markers.
type Controller struct {
	cfg      Config
	deps     Dependencies
	log      *slog.Logger
	inst     instruments
	registry *Registry

	unsubscribe func()
	last        Report
}

// New creates a disabled controller. Call Enable to start listening.
func New(cfg Config, deps Dependencies) (*Controller, error) {
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

	return &Controller{
		cfg:      cfg,
		deps:     deps,
		log:      deps.Logger.With("component", "spawn", "target", cfg.TargetMarker),
		inst:     inst,
		registry: NewRegistry(),
	}, nil
}

// Registry returns the marker registry.
func (c *Controller) Registry() *Registry { return c.registry }

// Config returns the controller configuration.
func (c *Controller) Config() Config { return c.cfg }

// Enabled reports whether the controller is subscribed to the tracker.
func (c *Controller) Enabled() bool { return c.unsubscribe != nil }

// LastReport returns the report of the most recent change batch.
func (c *Controller) LastReport() Report { return c.last }

// Enable subscribes to the tracker. A missing tracker or prefab leaves the
// controller disabled and is reported as a missing reference.
func (c *Controller) Enable() error {
	if c.unsubscribe != nil {
		return nil
	}
	if c.deps.Tracker == nil {
		err := core.Missing("spawn controller", "image tracker")
		c.log.Error("Controller disabled", "error", err)
		return err
	}
	if c.deps.Prefab == nil {
		err := core.Missing("spawn controller", "prefab")
		c.log.Error("Controller disabled", "error", err)
		return err
	}

	c.unsubscribe = c.deps.Tracker.SubscribeTrackablesChanged(func(ev core.TrackablesChanged) {
		c.last = c.OnTrackablesChanged(ev)
	})
	c.log.Info("Listening for marker", "policy", c.cfg.Cleanup.String())
	return nil
}

// Disable removes the tracker subscription.
func (c *Controller) Disable() {
	if c.unsubscribe == nil {
		return
	}
	c.unsubscribe()
	c.unsubscribe = nil
	c.log.Info("Stopped listening for marker")
}

// OnTrackablesChanged processes one change batch.
func (c *Controller) OnTrackablesChanged(ev core.TrackablesChanged) Report {
	var r Report

	for _, img := range ev.Added {
		if img.Name != c.cfg.TargetMarker {
			r.Ignored = append(r.Ignored, img.Name)
			continue
		}
		c.added(img, &r)
	}

	for _, img := range ev.Updated {
		if img.Name != c.cfg.TargetMarker {
			continue
		}
		if img.TrackingState != core.TrackingFull {
			c.log.Debug("Marker tracking degraded", "marker", img.Name, "state", img.TrackingState.String())
		}
	}

	for _, img := range ev.Removed {
		if img.Name != c.cfg.TargetMarker {
			continue
		}
		c.removed(img, &r)
	}

	return r
}

func (c *Controller) added(img core.TrackedImage, r *Report) {
	if e, ok := c.registry.Get(img.Name); ok {
		if c.cfg.Cleanup == Deactivate && !e.Instance.Active() {
			e.Instance.SetActive(true)
			r.Reactivated = append(r.Reactivated, img.Name)
			c.log.Info("Marker content reactivated", "marker", img.Name)
			return
		}
		r.Duplicates = append(r.Duplicates, img.Name)
		c.inst.duplicates.Add(context.Background(), 1)
		c.log.Debug("Marker already spawned", "marker", img.Name, "error", core.ErrDuplicateSpawn)
		return
	}

	anchor, ok := c.deps.Tracker.Anchor(img.Name)
	if !ok {
		err := fmt.Errorf("spawning on %s: no anchor for tracked image", img.Name)
		r.Errors = append(r.Errors, err)
		c.log.Error("Failed to spawn", "marker", img.Name, "error", err)
		return
	}

	inst, err := c.deps.Prefab.Instantiate(anchor, InstancePrefix+img.Name)
	if err != nil {
		err = fmt.Errorf("spawning on %s: %w", img.Name, err)
		r.Errors = append(r.Errors, err)
		c.log.Error("Failed to spawn", "marker", img.Name, "error", err)
		return
	}

	e := &Entry{Marker: img.Name, Instance: inst, SpawnedAt: c.deps.Now()}
	c.registry.Set(e)
	r.Spawned = append(r.Spawned, img.Name)
	c.inst.spawned.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("prefab", c.deps.Prefab.Name())))
	c.log.Info("Spawned content on marker", "marker", img.Name, "instance", inst.Name())

	rig, ok := inst.FindBall()
	if !ok {
		err := core.Missing(inst.Name(), "ball")
		r.Errors = append(r.Errors, err)
		c.log.Warn("No ball in spawned content, detect-only", "error", err)
		return
	}

	e.Ball = ball.New(rig, c.deps.Logger)
	if c.deps.Binder == nil {
		c.log.Warn("No session to bind the ball to", "ball", rig.Name)
		return
	}
	if err := c.deps.Binder.SetBallState(e.Ball); err != nil {
		r.Errors = append(r.Errors, err)
		c.log.Error("Failed to bind ball", "ball", rig.Name, "error", err)
	}
}

// ResetScene tears down everything spawned in the current scene: balls are
// unbound and detached, instances destroyed and the registry cleared. The
// next detection of the target spawns fresh content. It returns the markers
// that had content.
func (c *Controller) ResetScene() []string {
	names := c.registry.Names()
	for _, name := range names {
		e, ok := c.registry.Get(name)
		if !ok {
			continue
		}
		c.teardown(e)
	}
	c.registry.Reset()
	if len(names) > 0 {
		c.log.Info("Scene content cleared", "markers", names)
	}
	return names
}

func (c *Controller) teardown(e *Entry) {
	if e.Ball != nil {
		if c.deps.Binder != nil {
			c.deps.Binder.Unbind(e.Ball)
		}
		e.Ball.Detach()
	}
	e.Instance.Destroy()
}

func (c *Controller) removed(img core.TrackedImage, r *Report) {
	e, ok := c.registry.Get(img.Name)
	if !ok {
		return
	}

	switch c.cfg.Cleanup {
	case Deactivate:
		e.Instance.SetActive(false)
	case Destroy:
		c.teardown(e)
		c.registry.Delete(img.Name)
	default:
		c.log.Debug("Marker lost, content retained", "marker", img.Name)
		return
	}

	r.Cleaned = append(r.Cleaned, img.Name)
	c.log.Info("Marker content cleaned up", "marker", img.Name, "policy", c.cfg.Cleanup.String())
}
