// Package bridge registers the engine commands with the dispatcher. The
// engine reports tracking changes, physics triggers and button presses; the
// handlers mirror them into the world and drive the game logic.
package bridge

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tiltlab/arlabyrinth/internal/dispatcher"
	"github.com/tiltlab/arlabyrinth/internal/menu"
	"github.com/tiltlab/arlabyrinth/internal/session"
	"github.com/tiltlab/arlabyrinth/internal/spawn"
	"github.com/tiltlab/arlabyrinth/internal/world"
	"github.com/tiltlab/arlabyrinth/pkg/core"
)

// DefaultRoundLimit is the :ROUNDS: page size when no limit is given.
const DefaultRoundLimit = 10

// RoundLister reads back finished rounds, newest first.
type RoundLister interface {
	Recent(limit int) ([]core.Round, error)
}

// Dependencies holds all dependencies needed by the handlers
type Dependencies struct {
	World     *world.World
	Spawner   *spawn.Controller
	Session   *session.Coordinator
	Menu      *menu.Menu  // optional
	Rounds    RoundLister // optional
	Version   string
	BuildDate string
	Logger    *slog.Logger
}

// Bridge implements the command handlers.
type Bridge struct {
	deps Dependencies
	log  *slog.Logger
}

// SpawnResult is returned by :TRACKABLES:CHANGED:.
type SpawnResult struct {
	Enabled     bool     `json:"enabled"`
	Spawned     []string `json:"spawned,omitempty"`
	Duplicates  []string `json:"duplicates,omitempty"`
	Reactivated []string `json:"reactivated,omitempty"`
	Cleaned     []string `json:"cleaned,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// TriggerResult is returned by :BALL:TRIGGER:.
type TriggerResult struct {
	Delivered bool       `json:"delivered"`
	Collider  string     `json:"collider"`
	State     string     `json:"state,omitempty"`
	Score     core.Score `json:"score"`
}

// New validates the dependencies.
func New(deps Dependencies) (*Bridge, error) {
	switch {
	case deps.World == nil:
		return nil, core.Missing("bridge", "world")
	case deps.Spawner == nil:
		return nil, core.Missing("bridge", "spawn controller")
	case deps.Session == nil:
		return nil, core.Missing("bridge", "session coordinator")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Bridge{deps: deps, log: deps.Logger.With("component", "bridge")}, nil
}

// RegisterHandlers registers all engine commands with the dispatcher.
func (b *Bridge) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(":VERSION:", b.handleVersion)
	d.Register(":TRACKING:POLICY:", b.handlePolicy)
	d.Register(":SPAWNED:", b.handleSpawned)
	d.Register(":WORLD:STATE:", b.handleWorldState)

	// Tracking and physics
	d.Register(":TRACKABLES:CHANGED:", b.handleTrackables, dispatcher.MinArgs(1), dispatcher.Logged())
	d.Register(":BALL:TRIGGER:", b.handleTrigger, dispatcher.MinArgs(3), dispatcher.Logged())
	d.Register(":BALL:POSE:", b.handleBallPose, dispatcher.MinArgs(4))

	// Session
	d.Register(":GAME:RESTART:", b.handleRestart, dispatcher.Logged())
	d.Register(":STATS:GET:", b.handleStatsGet)
	d.Register(":STATS:RESET:", b.handleStatsReset, dispatcher.Logged())
	d.Register(":ROUNDS:", b.handleRounds)

	// Menu buttons
	d.Register(":SCENE:START:", b.menuButton((*menu.Menu).StartGame), dispatcher.Logged())
	d.Register(":SCENE:MENU:", b.menuButton((*menu.Menu).BackToMenu), dispatcher.Logged())
	d.Register(":SCENE:RELOAD:", b.menuButton((*menu.Menu).RestartScene), dispatcher.Logged())
	d.Register(":GAME:QUIT:", b.menuButton((*menu.Menu).QuitGame), dispatcher.Logged())
}

func (b *Bridge) handleVersion(e dispatcher.Event) (any, error) {
	return []string{b.deps.Version, b.deps.BuildDate}, nil
}

func (b *Bridge) handlePolicy(e dispatcher.Event) (any, error) {
	return b.deps.Spawner.Config().Cleanup.String(), nil
}

func (b *Bridge) handleSpawned(e dispatcher.Event) (any, error) {
	return b.deps.Spawner.Registry().Names(), nil
}

func (b *Bridge) handleWorldState(e dispatcher.Event) (any, error) {
	return b.deps.World.Snapshot(), nil
}

func (b *Bridge) handleTrackables(e dispatcher.Event) (any, error) {
	ev, err := ParseTrackables(e.Args[0])
	if err != nil {
		return nil, err
	}

	b.deps.World.Tracker().Publish(ev)

	res := SpawnResult{Enabled: b.deps.Spawner.Enabled()}
	if !res.Enabled {
		return res, nil
	}
	r := b.deps.Spawner.LastReport()
	res.Spawned = r.Spawned
	res.Duplicates = r.Duplicates
	res.Reactivated = r.Reactivated
	res.Cleaned = r.Cleaned
	for _, err := range r.Errors {
		res.Errors = append(res.Errors, err.Error())
	}
	return res, nil
}

func (b *Bridge) handleTrigger(e dispatcher.Event) (any, error) {
	name, collider := parseTrigger(e.Args)

	body, err := b.ballBody(name)
	if err != nil {
		return nil, err
	}

	res := TriggerResult{
		Delivered: body.Trigger(collider),
		Collider:  collider.Kind.String(),
	}
	if entry, ok := b.deps.Spawner.Registry().Get(strings.TrimPrefix(name, spawn.InstancePrefix)); ok && entry.Ball != nil {
		res.State = entry.Ball.State().String()
	}
	res.Score = b.deps.Session.Score()
	return res, nil
}

func (b *Bridge) handleBallPose(e dispatcher.Event) (any, error) {
	body, err := b.ballBody(e.Args[0])
	if err != nil {
		return nil, err
	}
	v, err := parseVector(e.Args[1:4])
	if err != nil {
		return nil, fmt.Errorf("ball pose: %w", err)
	}

	p := body.Pose()
	p.Position = v
	body.Move(p)
	return nil, nil
}

func (b *Bridge) handleRestart(e dispatcher.Event) (any, error) {
	if err := b.deps.Session.RestartGame(); err != nil {
		return nil, err
	}
	return "ok", nil
}

func (b *Bridge) handleStatsGet(e dispatcher.Event) (any, error) {
	return b.deps.Session.Score(), nil
}

func (b *Bridge) handleStatsReset(e dispatcher.Event) (any, error) {
	var err error
	if b.deps.Menu != nil {
		err = b.deps.Menu.ResetStats()
	} else {
		err = b.deps.Session.ResetStats()
	}
	if err != nil {
		return nil, err
	}
	return b.deps.Session.Score(), nil
}

func (b *Bridge) handleRounds(e dispatcher.Event) (any, error) {
	if b.deps.Rounds == nil {
		return nil, core.Missing("bridge", "round history")
	}
	limit := DefaultRoundLimit
	if len(e.Args) > 0 {
		n, err := strconv.Atoi(e.Args[0])
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid round limit %q", e.Args[0])
		}
		limit = n
	}
	return b.deps.Rounds.Recent(limit)
}

func (b *Bridge) menuButton(press func(*menu.Menu) error) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		if b.deps.Menu == nil {
			return nil, core.Missing("bridge", "menu")
		}
		if err := press(b.deps.Menu); err != nil {
			return nil, err
		}
		return "ok", nil
	}
}

func (b *Bridge) ballBody(instance string) (*world.Body, error) {
	inst, ok := b.deps.World.Instance(instance)
	if !ok {
		return nil, fmt.Errorf("unknown instance %q", instance)
	}
	body := inst.Body()
	if body == nil {
		return nil, core.Missing(instance, "ball")
	}
	return body, nil
}
