package scenario

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/tiltlab/arlabyrinth/internal/bridge"
	"github.com/tiltlab/arlabyrinth/internal/dispatcher"
	"github.com/tiltlab/arlabyrinth/internal/spawn"
	"github.com/tiltlab/arlabyrinth/pkg/core"
)

// ErrExpectation is wrapped by every failed expect step.
var ErrExpectation = errors.New("expectation failed")

// Dispatcher runs engine commands.
type Dispatcher interface {
	Dispatch(dispatcher.Event) (any, error)
}

// StepResult records what one step did.
type StepResult struct {
	Index   int
	Action  string
	Command string
	Result  any
	Err     error
}

// Runner drives a scenario against one game.
type Runner struct {
	d      Dispatcher
	target string
	log    *slog.Logger
}

// NewRunner creates a runner. target is the marker whose instance receives
// trigger steps that name no instance.
func NewRunner(d Dispatcher, target string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{d: d, target: target, log: logger.With("component", "scenario")}
}

// Run executes every step in order and stops at the first failure.
func (r *Runner) Run(sc Scenario) ([]StepResult, error) {
	r.log.Info("Running scenario", "name", sc.Name, "steps", len(sc.Steps))

	results := make([]StepResult, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		res := StepResult{Index: i + 1, Action: step.Action()}

		err := step.validate()
		if err == nil {
			err = r.step(step, &res)
		}
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", res.Index, res.Action, err)
		}
	}

	r.log.Info("Scenario passed", "name", sc.Name)
	return results, nil
}

func (r *Runner) step(s Step, res *StepResult) error {
	if s.Expect != nil {
		return r.expect(*s.Expect)
	}

	ev, err := r.event(s)
	if err != nil {
		return err
	}
	res.Command = ev.Command
	res.Result, res.Err = r.d.Dispatch(ev)
	r.log.Debug("Step done", "step", res.Index, "command", ev.Command, "error", res.Err)

	switch {
	case s.Error == "" && res.Err != nil:
		return res.Err
	case s.Error != "" && res.Err == nil:
		return fmt.Errorf("%w: expected error %q", ErrExpectation, s.Error)
	case s.Error != "" && !strings.Contains(res.Err.Error(), s.Error):
		return fmt.Errorf("%w: expected error %q, got %q", ErrExpectation, s.Error, res.Err)
	}
	return nil
}

func (r *Runner) event(s Step) (dispatcher.Event, error) {
	switch {
	case s.Detect != "":
		return trackables(core.TrackablesChanged{Added: []core.TrackedImage{image(s, s.Detect, core.TrackingFull)}})
	case s.Update != "":
		return trackables(core.TrackablesChanged{Updated: []core.TrackedImage{image(s, s.Update, core.TrackingFull)}})
	case s.Lose != "":
		return trackables(core.TrackablesChanged{Removed: []core.TrackedImage{image(s, s.Lose, core.TrackingNone)}})
	case s.Trigger != "":
		instance := s.Instance
		if instance == "" {
			instance = spawn.InstancePrefix + r.target
		}
		collider := s.Collider
		if collider == "" {
			collider = s.Trigger
		}
		return dispatcher.Event{Command: ":BALL:TRIGGER:", Args: []string{instance, collider, s.Trigger}}, nil
	case s.Restart:
		return dispatcher.Event{Command: ":GAME:RESTART:"}, nil
	case s.ResetStats:
		return dispatcher.Event{Command: ":STATS:RESET:"}, nil
	}
	return dispatcher.Event{}, errors.New("step has no action")
}

func (r *Runner) expect(e Expectation) error {
	if e.Wins != nil || e.Losses != nil {
		v, err := r.d.Dispatch(dispatcher.Event{Command: ":STATS:GET:"})
		if err != nil {
			return err
		}
		s, ok := v.(core.Score)
		if !ok {
			return fmt.Errorf("unexpected stats result %T", v)
		}
		if e.Wins != nil && *e.Wins != s.Wins {
			return fmt.Errorf("%w: wins = %d, want %d", ErrExpectation, s.Wins, *e.Wins)
		}
		if e.Losses != nil && *e.Losses != s.Losses {
			return fmt.Errorf("%w: losses = %d, want %d", ErrExpectation, s.Losses, *e.Losses)
		}
	}

	if e.Spawned != nil {
		v, err := r.d.Dispatch(dispatcher.Event{Command: ":SPAWNED:"})
		if err != nil {
			return err
		}
		names, _ := v.([]string)
		want := slices.Clone(e.Spawned)
		slices.Sort(want)
		if !slices.Equal(names, want) {
			return fmt.Errorf("%w: spawned = %v, want %v", ErrExpectation, names, want)
		}
	}
	return nil
}

func image(s Step, name string, def core.TrackingState) core.TrackedImage {
	img := core.TrackedImage{Name: name, Pose: core.PoseAt(core.Zero3), TrackingState: def}
	if v, ok := core.VectorFromSlice(s.Position); ok {
		img.Pose.Position = v
	}
	if st, err := core.ParseTrackingState(s.Tracking); err == nil && s.Tracking != "" {
		img.TrackingState = st
	}
	return img
}

func trackables(ev core.TrackablesChanged) (dispatcher.Event, error) {
	data, err := bridge.EncodeTrackables(ev)
	if err != nil {
		return dispatcher.Event{}, err
	}
	return dispatcher.Event{Command: ":TRACKABLES:CHANGED:", Args: []string{data}}, nil
}
