package world

import (
	"errors"

	"github.com/tiltlab/arlabyrinth/pkg/engine"
)

var errEmptyScene = errors.New("load scene: empty scene name")

// Panel mirrors a UI panel.
type Panel struct {
	w      *World
	name   string
	active bool
}

func (p *Panel) Name() string { return p.name }
func (p *Panel) Active() bool { return p.active }

func (p *Panel) SetActive(active bool) {
	p.active = active
	p.w.emit(Effect{Kind: EffectActive, Target: p.name, Active: boolPtr(active)})
}

// Label mirrors a UI text element.
type Label struct {
	w    *World
	name string
	text string
}

func (l *Label) Name() string { return l.name }
func (l *Label) Text() string { return l.text }

func (l *Label) SetText(text string) {
	l.text = text
	l.w.emit(Effect{Kind: EffectText, Target: l.name, Text: &text})
}

// Scenes mirrors the engine scene manager.
type Scenes struct {
	w      *World
	active string
	quit   bool
}

func (s *Scenes) ActiveScene() string { return s.active }

// QuitRequested reports whether Quit was called.
func (s *Scenes) QuitRequested() bool { return s.quit }

func (s *Scenes) LoadScene(name string) error {
	if name == "" {
		return errEmptyScene
	}
	s.active = name
	s.w.emit(Effect{Kind: EffectScene, Scene: name})
	return nil
}

func (s *Scenes) Quit() {
	s.quit = true
	s.w.emit(Effect{Kind: EffectQuit})
}

var (
	_ engine.Panel       = (*Panel)(nil)
	_ engine.Label       = (*Label)(nil)
	_ engine.SceneLoader = (*Scenes)(nil)
)
