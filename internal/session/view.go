package session

import (
	"strconv"

	"github.com/tiltlab/arlabyrinth/pkg/core"
	"github.com/tiltlab/arlabyrinth/pkg/engine"
)

// View is the set of UI widgets the coordinator drives. Any of them may be
// nil; missing widgets are skipped.
type View struct {
	WinPanel  engine.Panel
	LossPanel engine.Panel
	WinLabel  engine.Label
	LossLabel engine.Label
}

func (v View) showPanels(win, loss bool) {
	if v.WinPanel != nil {
		v.WinPanel.SetActive(win)
	}
	if v.LossPanel != nil {
		v.LossPanel.SetActive(loss)
	}
}

func (v View) hidePanels() {
	v.showPanels(false, false)
}

func (v View) showScore(s core.Score) {
	if v.WinLabel != nil {
		v.WinLabel.SetText(WinText(s.Wins))
	}
	if v.LossLabel != nil {
		v.LossLabel.SetText(LossText(s.Losses))
	}
}

// WinText is the win counter label text.
func WinText(n int) string { return "Wins: " + strconv.Itoa(n) }

// LossText is the loss counter label text.
func LossText(n int) string { return "Losses: " + strconv.Itoa(n) }
