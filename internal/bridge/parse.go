package bridge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tiltlab/arlabyrinth/pkg/core"
)

// trackedImageJSON is the wire form of one trackable.
type trackedImageJSON struct {
	Name          string    `json:"name"`
	Position      []float64 `json:"position,omitempty"`
	Rotation      []float64 `json:"rotation,omitempty"`
	TrackingState string    `json:"trackingState,omitempty"`
}

type trackablesJSON struct {
	Added   []trackedImageJSON `json:"added,omitempty"`
	Updated []trackedImageJSON `json:"updated,omitempty"`
	Removed []trackedImageJSON `json:"removed,omitempty"`
}

// ParseTrackables decodes a :TRACKABLES:CHANGED: payload.
func ParseTrackables(data string) (core.TrackablesChanged, error) {
	var raw trackablesJSON
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return core.TrackablesChanged{}, fmt.Errorf("decoding trackables: %w", err)
	}

	var ev core.TrackablesChanged
	var err error
	if ev.Added, err = convertImages(raw.Added, core.TrackingFull); err != nil {
		return core.TrackablesChanged{}, fmt.Errorf("added: %w", err)
	}
	if ev.Updated, err = convertImages(raw.Updated, core.TrackingFull); err != nil {
		return core.TrackablesChanged{}, fmt.Errorf("updated: %w", err)
	}
	if ev.Removed, err = convertImages(raw.Removed, core.TrackingNone); err != nil {
		return core.TrackablesChanged{}, fmt.Errorf("removed: %w", err)
	}
	return ev, nil
}

func convertImages(in []trackedImageJSON, defState core.TrackingState) ([]core.TrackedImage, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]core.TrackedImage, 0, len(in))
	for _, r := range in {
		if r.Name == "" {
			return nil, fmt.Errorf("trackable without name")
		}
		img := core.TrackedImage{
			Name:          r.Name,
			Pose:          core.PoseAt(core.Zero3),
			TrackingState: defState,
		}
		if r.Position != nil {
			v, ok := core.VectorFromSlice(r.Position)
			if !ok {
				return nil, fmt.Errorf("%s: position needs 3 values, got %d", r.Name, len(r.Position))
			}
			img.Pose.Position = v
		}
		if r.Rotation != nil {
			if len(r.Rotation) != 4 {
				return nil, fmt.Errorf("%s: rotation needs 4 values, got %d", r.Name, len(r.Rotation))
			}
			img.Pose.Rotation = core.Quaternion{X: r.Rotation[0], Y: r.Rotation[1], Z: r.Rotation[2], W: r.Rotation[3]}
		}
		if r.TrackingState != "" {
			st, err := core.ParseTrackingState(r.TrackingState)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", r.Name, err)
			}
			img.TrackingState = st
		}
		out = append(out, img)
	}
	return out, nil
}

// parseTrigger reads [instance, colliderName, tag]. The tag is classified
// here and nowhere else.
func parseTrigger(args []string) (string, core.Collider) {
	return args[0], core.Collider{
		Name: args[1],
		Kind: core.ClassifyTag(args[2]),
	}
}

// parseVector reads three float arguments.
func parseVector(args []string) (core.Vector3, error) {
	if len(args) != 3 {
		return core.Vector3{}, fmt.Errorf("expected 3 coordinates, got %d", len(args))
	}
	var xyz [3]float64
	for i, a := range args {
		f, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return core.Vector3{}, fmt.Errorf("coordinate %d: %w", i, err)
		}
		xyz[i] = f
	}
	return core.Vector3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// EncodeTrackables renders ev in the :TRACKABLES:CHANGED: wire form.
func EncodeTrackables(ev core.TrackablesChanged) (string, error) {
	raw := trackablesJSON{
		Added:   encodeImages(ev.Added),
		Updated: encodeImages(ev.Updated),
		Removed: encodeImages(ev.Removed),
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("encoding trackables: %w", err)
	}
	return string(b), nil
}

func encodeImages(in []core.TrackedImage) []trackedImageJSON {
	if len(in) == 0 {
		return nil
	}
	out := make([]trackedImageJSON, 0, len(in))
	for _, img := range in {
		p, r := img.Pose.Position, img.Pose.Rotation
		out = append(out, trackedImageJSON{
			Name:          img.Name,
			Position:      []float64{p.X, p.Y, p.Z},
			Rotation:      []float64{r.X, r.Y, r.Z, r.W},
			TrackingState: img.TrackingState.String(),
		})
	}
	return out
}
