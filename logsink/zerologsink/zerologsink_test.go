package zerologsink

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_WritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	s := New(log)
	s.Info("ring opened", "name", "trace-main")
	s.Warn("consumer lagging", "lag_ms", 50)
	s.Error("shared memory unlink failed", errors.New("permission denied"), "name", "trace-main")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"message":"ring opened"`)
	assert.Contains(t, lines[0], `"name":"trace-main"`)
	assert.Contains(t, lines[2], `"error":"permission denied"`)
}
