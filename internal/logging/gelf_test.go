package logging

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inflate undoes the GELF payload compression (gzip or zlib).
func inflate(t *testing.T, p []byte) []byte {
	t.Helper()
	var r io.Reader
	var err error
	switch {
	case len(p) > 1 && p[0] == 0x1f && p[1] == 0x8b:
		r, err = gzip.NewReader(bytes.NewReader(p))
	case len(p) > 0 && p[0] == 0x78:
		r, err = zlib.NewReader(bytes.NewReader(p))
	default:
		return p
	}
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return out
}

func TestNewGraylogHandler_ShipsRecords(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	h, closer, err := NewGraylogHandler(conn.LocalAddr().String(), slog.LevelInfo)
	require.NoError(t, err)
	defer closer.Close()

	slog.New(h).Info("graylog test", "wins", 3)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 65536)
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(inflate(t, buf[:n]), &msg))
	short, _ := msg["short_message"].(string)
	assert.Contains(t, short, "graylog test")
	assert.Contains(t, short, `"wins":3`)
}

func TestNewGraylogHandler_BadAddress(t *testing.T) {
	_, _, err := NewGraylogHandler("not an address", slog.LevelInfo)
	assert.Error(t, err)
}
