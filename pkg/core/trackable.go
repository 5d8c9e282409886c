package core

import (
	"fmt"
	"strings"
)

// TrackingState is the quality of tracking reported by the AR subsystem.
type TrackingState uint8

const (
	TrackingNone TrackingState = iota
	TrackingLimited
	TrackingFull
)

func (s TrackingState) String() string {
	switch s {
	case TrackingNone:
		return "None"
	case TrackingLimited:
		return "Limited"
	case TrackingFull:
		return "Tracking"
	default:
		return fmt.Sprintf("TrackingState(%d)", uint8(s))
	}
}

// ParseTrackingState accepts the engine spellings (case-insensitive).
func ParseTrackingState(s string) (TrackingState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return TrackingNone, nil
	case "limited":
		return TrackingLimited, nil
	case "tracking":
		return TrackingFull, nil
	default:
		return TrackingNone, fmt.Errorf("unknown tracking state %q", s)
	}
}

// TrackedImage is one image trackable as reported by the AR subsystem.
// Name is the reference-image name and is unique within a library.
type TrackedImage struct {
	Name          string
	Pose          Pose
	TrackingState TrackingState
}

// TrackablesChanged is one batch of trackable changes, delivered once per
// engine frame at most.
type TrackablesChanged struct {
	Added   []TrackedImage
	Updated []TrackedImage
	Removed []TrackedImage
}

// Empty reports whether the batch carries no changes.
func (c TrackablesChanged) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}
