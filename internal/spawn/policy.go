package spawn

import (
	"fmt"
	"strings"
)

// CleanupPolicy decides what happens to spawned content when its marker is
// reported removed.
type CleanupPolicy uint8

const (
	// Retain leaves the content and the mapping alone.
	Retain CleanupPolicy = iota
	// Deactivate hides the content; re-detection shows it again.
	Deactivate
	// Destroy removes the content and the mapping; re-detection spawns anew.
	Destroy
)

func (p CleanupPolicy) String() string {
	switch p {
	case Deactivate:
		return "deactivate"
	case Destroy:
		return "destroy"
	default:
		return "retain"
	}
}

// ParseCleanupPolicy parses a config value. Empty means Retain.
func ParseCleanupPolicy(s string) (CleanupPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "retain":
		return Retain, nil
	case "deactivate":
		return Deactivate, nil
	case "destroy":
		return Destroy, nil
	default:
		return Retain, fmt.Errorf("unknown cleanup policy %q", s)
	}
}
