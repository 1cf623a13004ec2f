package truthbits

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		rec := map[string]any{}
		require.NoError(t, json.Unmarshal(line, &rec))
		records = append(records, rec)
	}
	return records
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})).
		WithInputs(20, 12).
		WithRun("runs/a/")
	ctx := context.Background()

	l.LogBatch(ctx, "1000", 4096, nil)
	l.LogPersist(ctx, "runs/a/batch-001000.tbb", 512, errors.New("boom"))
	l.LogDone(ctx, 3, false, time.Second, nil)

	recs := decodeRecords(t, &buf)
	require.Len(t, recs, 3)

	assert.Equal(t, "batch completed", recs[0]["msg"])
	assert.Equal(t, "DEBUG", recs[0]["level"])
	assert.Equal(t, "1000", recs[0]["status"])
	assert.Equal(t, 4096.0, recs[0]["rows"])
	assert.Equal(t, 20.0, recs[0]["inputs"])
	assert.Equal(t, 12.0, recs[0]["use_bits"])
	assert.Equal(t, "runs/a/", recs[0]["run"])

	assert.Equal(t, "persist failed", recs[1]["msg"])
	assert.Equal(t, "ERROR", recs[1]["level"])
	assert.Equal(t, "boom", recs[1]["error"])

	assert.Equal(t, "run finished", recs[2]["msg"])
	assert.Equal(t, false, recs[2]["complete"])

	assert.Equal(t, "enumeration progress", recs[3]["msg"])
	assert.Equal(t, "4000", recs[3]["status"])
	assert.Equal(t, 300.0, recs[3]["upload_bytes"])
	assert.Equal(t, 1024.0, recs[3]["upload_limit"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l.LogBatch(context.Background(), "0", 8, nil)
	assert.Zero(t, buf.Len(), "batch records are debug level")

	l.LogResume(context.Background(), "40", 2)
	recs := decodeRecords(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "resuming run", recs[0]["msg"])
	assert.Equal(t, 2.0, recs[0]["stored_batches"])
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
	l.LogDone(context.Background(), 1, true, time.Millisecond, errors.New("ignored"))
}
