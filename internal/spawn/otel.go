package spawn

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tiltlab/arlabyrinth/internal/spawn"

type instruments struct {
	spawned    metric.Int64Counter
	duplicates metric.Int64Counter
}

func newInstruments() (instruments, error) {
	m := otel.Meter(instrumentationName)

	spawned, err := m.Int64Counter(
		"labyrinth.spawns",
		metric.WithDescription("Prefab instances spawned on markers"),
	)
	if err != nil {
		return instruments{}, fmt.Errorf("creating spawn counter: %w", err)
	}

	duplicates, err := m.Int64Counter(
		"labyrinth.spawns.duplicate",
		metric.WithDescription("Detections skipped because the marker already has content"),
	)
	if err != nil {
		return instruments{}, fmt.Errorf("creating duplicate counter: %w", err)
	}

	return instruments{spawned: spawned, duplicates: duplicates}, nil
}
