// Package game assembles the labyrinth components around one world mirror
// and one dispatcher.
package game

import (
	"fmt"
	"log/slog"

	"github.com/tiltlab/arlabyrinth/internal/bridge"
	"github.com/tiltlab/arlabyrinth/internal/config"
	"github.com/tiltlab/arlabyrinth/internal/dispatcher"
	"github.com/tiltlab/arlabyrinth/internal/history"
	"github.com/tiltlab/arlabyrinth/internal/menu"
	"github.com/tiltlab/arlabyrinth/internal/prefs"
	"github.com/tiltlab/arlabyrinth/internal/score"
	"github.com/tiltlab/arlabyrinth/internal/session"
	"github.com/tiltlab/arlabyrinth/internal/spawn"
	"github.com/tiltlab/arlabyrinth/internal/world"
	"github.com/tiltlab/arlabyrinth/pkg/core"
)

// UI element names in the game scene.
const (
	WinPanel  = "WinPanel"
	LossPanel = "LossPanel"
	WinLabel  = "WinCountText"
	LossLabel = "LossCountText"
)

// Options configures New.
type Options struct {
	Game           config.GameConfig
	Prefs          prefs.Store
	Rounds         history.Sink       // optional
	History        bridge.RoundLister // optional
	Effects        world.EffectSink   // optional
	Logger         *slog.Logger
	DispatchLogger dispatcher.Logger // optional
	Version        string
	BuildDate      string
}

// Game is a running labyrinth.
type Game struct {
	World      *world.World
	Dispatcher *dispatcher.Dispatcher
	Session    *session.Coordinator
	Spawner    *spawn.Controller
	Menu       *menu.Menu
	Bridge     *bridge.Bridge
}

// New builds every component, loads the scores and starts listening for
// the target marker.
func New(opts Options) (*Game, error) {
	if opts.Prefs == nil {
		return nil, core.Missing("game", "prefs store")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	policy, err := spawn.ParseCleanupPolicy(opts.Game.CleanupPolicy)
	if err != nil {
		return nil, err
	}

	g := &Game{World: world.New(opts.Effects)}

	scores, err := score.New(opts.Prefs)
	if err != nil {
		return nil, err
	}

	g.Session, err = session.New(session.Dependencies{
		Scores: scores,
		View: session.View{
			WinPanel:  g.World.Panel(WinPanel),
			LossPanel: g.World.Panel(LossPanel),
			WinLabel:  g.World.Label(WinLabel),
			LossLabel: g.World.Label(LossLabel),
		},
		Rounds: opts.Rounds,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	if err := g.Session.Start(); err != nil {
		opts.Logger.Warn("Starting with default scores", "error", err)
	}

	tpl := world.PrefabTemplate{Name: opts.Game.PrefabName, Ball: opts.Game.HasBall}
	if v, ok := core.VectorFromSlice(opts.Game.SpawnPoint); ok {
		sp := core.PoseAt(v)
		tpl.SpawnPoint = &sp
	}

	g.Spawner, err = spawn.New(spawn.Config{
		TargetMarker: opts.Game.TargetMarker,
		Cleanup:      policy,
	}, spawn.Dependencies{
		Tracker: g.World.Tracker(),
		Prefab:  g.World.NewPrefab(tpl),
		Binder:  g.Session,
		Logger:  opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating spawn controller: %w", err)
	}
	if err := g.Spawner.Enable(); err != nil {
		return nil, err
	}

	g.Menu = menu.New(menu.Dependencies{
		Scenes:  g.World.Scenes(),
		Stats:   g.Session,
		Content: sceneContent{g: g, log: opts.Logger},
		Logger:  opts.Logger,
	})

	g.Dispatcher, err = dispatcher.New(opts.DispatchLogger)
	if err != nil {
		return nil, fmt.Errorf("creating dispatcher: %w", err)
	}

	g.Bridge, err = bridge.New(bridge.Dependencies{
		World:     g.World,
		Spawner:   g.Spawner,
		Session:   g.Session,
		Menu:      g.Menu,
		Rounds:    opts.History,
		Version:   opts.Version,
		BuildDate: opts.BuildDate,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	g.Bridge.RegisterHandlers(g.Dispatcher)

	return g, nil
}

// sceneContent clears the spawned labyrinth and the overlay when a scene
// loads, so the next detection spawns fresh content.
type sceneContent struct {
	g   *Game
	log *slog.Logger
}

func (c sceneContent) ResetScene() []string {
	cleared := c.g.Spawner.ResetScene()
	if err := c.g.Session.Start(); err != nil {
		c.log.Warn("Reloading scores after scene change", "error", err)
	}
	return cleared
}

// Dispatch runs one command. Callers serialize calls onto one goroutine.
func (g *Game) Dispatch(command string, args ...string) (any, error) {
	return g.Dispatcher.Dispatch(dispatcher.Event{Command: command, Args: args})
}

// Close stops listening to the tracker.
func (g *Game) Close() {
	g.Spawner.Disable()
}
