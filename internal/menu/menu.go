// Package menu implements the scene buttons of the main menu and the game
// overlay.
package menu

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tiltlab/arlabyrinth/pkg/core"
	"github.com/tiltlab/arlabyrinth/pkg/engine"
)

// Scene names.
const (
	GameScene = "GameScene"
	MenuScene = "MenuScene"
)

// StatsResetter clears the persisted score counters.
type StatsResetter interface {
	ResetStats() error
}

// SceneResetter drops the game content of the scene being replaced.
type SceneResetter interface {
	ResetScene() []string
}

// Dependencies holds all dependencies needed by the menu
type Dependencies struct {
	Scenes  engine.SceneLoader
	Stats   StatsResetter // optional, for the reset button
	Content SceneResetter // optional
	Logger  *slog.Logger
}

// Menu routes button presses to the scene loader.
type Menu struct {
	scenes  engine.SceneLoader
	stats   StatsResetter
	content SceneResetter
	log     *slog.Logger
}

// New creates a Menu.
func New(deps Dependencies) *Menu {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Menu{
		scenes:  deps.Scenes,
		stats:   deps.Stats,
		content: deps.Content,
		log:     deps.Logger.With("component", "menu"),
	}
}

// StartGame loads the AR game scene.
func (m *Menu) StartGame() error {
	return m.load(GameScene)
}

// BackToMenu returns to the main menu.
func (m *Menu) BackToMenu() error {
	return m.load(MenuScene)
}

// RestartScene reloads the active scene.
func (m *Menu) RestartScene() error {
	if m.scenes == nil {
		return core.Missing("menu", "scene loader")
	}
	active := m.scenes.ActiveScene()
	if active == "" {
		return errors.New("restart scene: no scene loaded")
	}
	return m.load(active)
}

// QuitGame asks the engine to quit.
func (m *Menu) QuitGame() error {
	if m.scenes == nil {
		return core.Missing("menu", "scene loader")
	}
	m.log.Info("Quitting")
	m.scenes.Quit()
	return nil
}

// ResetStats clears the score counters.
func (m *Menu) ResetStats() error {
	if m.stats == nil {
		return core.Missing("menu", "score store")
	}
	return m.stats.ResetStats()
}

func (m *Menu) load(scene string) error {
	if m.scenes == nil {
		return core.Missing("menu", "scene loader")
	}
	if err := m.scenes.LoadScene(scene); err != nil {
		return fmt.Errorf("loading %s: %w", scene, err)
	}
	var cleared []string
	if m.content != nil {
		cleared = m.content.ResetScene()
	}
	m.log.Info("Scene loaded", "scene", scene, "cleared", cleared)
	return nil
}
