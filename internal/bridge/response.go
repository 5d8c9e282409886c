package bridge

import (
	"encoding/json"
	"strings"

	"github.com/tiltlab/arlabyrinth/internal/dispatcher"
	"github.com/tiltlab/arlabyrinth/internal/world"
)

// FormatResponse renders a dispatch result for line-based engines:
// ["ok", cmd], ["ok", cmd, result] or ["error", cmd, message].
func FormatResponse(command string, result any, err error) string {
	var parts []any
	switch {
	case err != nil:
		parts = []any{"error", command, err.Error()}
	case result == nil:
		parts = []any{"ok", command}
	default:
		parts = []any{"ok", command, result}
	}

	b, mErr := json.Marshal(parts)
	if mErr != nil {
		b, _ = json.Marshal([]any{"error", command, mErr.Error()})
	}
	return string(b)
}

// ParseLine splits a "COMMAND|arg|arg" line into an event. ok is false for
// blank lines.
func ParseLine(line string) (dispatcher.Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return dispatcher.Event{}, false
	}
	parts := strings.Split(line, "|")
	return dispatcher.Event{Command: parts[0], Args: parts[1:]}, true
}

// FormatEffect renders a scene mutation for line-based engines:
// ["effect", {...}].
func FormatEffect(e world.Effect) string {
	b, err := json.Marshal([]any{"effect", e})
	if err != nil {
		b, _ = json.Marshal([]any{"error", "effect", err.Error()})
	}
	return string(b)
}
