// Package scenario replays scripted play sessions through the dispatcher.
// A scenario is a YAML list of steps; each step is one engine event or an
// expectation about the game state.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tiltlab/arlabyrinth/pkg/core"

	"gopkg.in/yaml.v3"
)

// Scenario is a named list of steps.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step holds exactly one action.
type Step struct {
	Detect     string       `yaml:"detect,omitempty"`
	Update     string       `yaml:"update,omitempty"`
	Lose       string       `yaml:"lose,omitempty"`
	Trigger    string       `yaml:"trigger,omitempty"` // collider tag
	Restart    bool         `yaml:"restart,omitempty"`
	ResetStats bool         `yaml:"reset_stats,omitempty"`
	Expect     *Expectation `yaml:"expect,omitempty"`

	Position []float64 `yaml:"position,omitempty"`
	Tracking string    `yaml:"tracking,omitempty"`
	Collider string    `yaml:"collider,omitempty"`
	Instance string    `yaml:"instance,omitempty"`

	// Error, when set, must be contained in the error the step returns.
	Error string `yaml:"error,omitempty"`
}

// Expectation is checked against :STATS:GET: and :SPAWNED:.
type Expectation struct {
	Wins    *int     `yaml:"wins,omitempty"`
	Losses  *int     `yaml:"losses,omitempty"`
	Spawned []string `yaml:"spawned,omitempty"`
}

// Action names the step kind.
func (s Step) Action() string {
	var names []string
	if s.Detect != "" {
		names = append(names, "detect")
	}
	if s.Update != "" {
		names = append(names, "update")
	}
	if s.Lose != "" {
		names = append(names, "lose")
	}
	if s.Trigger != "" {
		names = append(names, "trigger")
	}
	if s.Restart {
		names = append(names, "restart")
	}
	if s.ResetStats {
		names = append(names, "reset_stats")
	}
	if s.Expect != nil {
		names = append(names, "expect")
	}
	return strings.Join(names, "+")
}

func (s Step) validate() error {
	switch a := s.Action(); {
	case a == "":
		return errors.New("step has no action")
	case strings.Contains(a, "+"):
		return fmt.Errorf("step has several actions: %s", a)
	}
	if s.Position != nil {
		if _, ok := core.VectorFromSlice(s.Position); !ok {
			return fmt.Errorf("position needs 3 values, got %d", len(s.Position))
		}
	}
	if s.Tracking != "" {
		if _, err := core.ParseTrackingState(s.Tracking); err != nil {
			return err
		}
	}
	return nil
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("decoding scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return sc, errors.New("scenario has no steps")
	}
	for i, s := range sc.Steps {
		if err := s.validate(); err != nil {
			return sc, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return sc, nil
}

// Load reads a scenario file.
func Load(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	sc, err := Parse(raw)
	if err != nil {
		return sc, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}
