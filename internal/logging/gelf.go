package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogHandler returns a JSON handler that ships every record to a
// Graylog GELF UDP input. Close the returned closer on shutdown.
func NewGraylogHandler(address string, level slog.Level) (slog.Handler, io.Closer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to graylog at %s: %w", address, err)
	}
	w.Facility = ServiceName
	return slog.NewJSONHandler(w, HandlerOptions(level)), w, nil
}
