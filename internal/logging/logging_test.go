package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testTime = time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

func TestLogFilePath(t *testing.T) {
	tests := []struct {
		name    string
		logsDir string
		service string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "labyrinthlogs",
			service: "labyrinth",
			want:    filepath.Join("labyrinthlogs", "labyrinth.20260212_213836.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./labyrinthlogs",
			service: "labyrinth",
			want:    filepath.Join(".", "labyrinthlogs", "labyrinth.20260212_213836.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "labyrinth"),
			service: "labyrinth.otel",
			want:    filepath.Join("/var", "log", "labyrinth", "labyrinth.otel.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, tt.service, testTime))
		})
	}
}
