package reco

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	handler := NewConsoleHandler(&buf, nil)

	record := slog.NewRecord(time.Date(2017, 3, 9, 12, 30, 5, 0, time.UTC),
		slog.LevelInfo, "Retrieved raw readout entry 7", 0)
	record.AddAttrs(slog.String("module", "main"))

	require.NoError(t, handler.Handle(context.Background(), record))

	line := buf.String()
	require.True(t, strings.HasPrefix(line, "[2017/03/09 12:30:05]"), line)
	require.Contains(t, line, "[main]")
	require.Contains(t, line, "Retrieved raw readout entry 7")
	require.True(t, strings.HasSuffix(line, "\n"))
}
