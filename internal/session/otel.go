package session

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tiltlab/arlabyrinth/internal/session"

type instruments struct {
	won  metric.Int64Counter
	lost metric.Int64Counter
}

func newInstruments() (instruments, error) {
	m := otel.Meter(instrumentationName)

	won, err := m.Int64Counter(
		"labyrinth.rounds.won",
		metric.WithDescription("Rounds ended by reaching the goal"),
	)
	if err != nil {
		return instruments{}, fmt.Errorf("creating won counter: %w", err)
	}

	lost, err := m.Int64Counter(
		"labyrinth.rounds.lost",
		metric.WithDescription("Rounds ended by falling into a death plane"),
	)
	if err != nil {
		return instruments{}, fmt.Errorf("creating lost counter: %w", err)
	}

	return instruments{won: won, lost: lost}, nil
}
