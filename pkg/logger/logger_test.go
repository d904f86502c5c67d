package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestLogger_InjectsLogCtx(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "dispatch", LevelDebug)

	ctx := wrap.WithAction(context.Background(), "assign_driver")
	ctx = wrap.WithRequestID(ctx, "req-1")
	ctx = wrap.WithTripID(ctx, "T1")
	ctx = wrap.WithDriverID(ctx, "D1")

	l.Info(ctx, "assigned")

	rec := decodeLine(t, &buf)
	assert.Equal(t, "assigned", rec["message"])
	assert.Equal(t, "dispatch", rec["service"])
	assert.Equal(t, "assign_driver", rec["action"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "T1", rec["trip_id"])
	assert.Equal(t, "D1", rec["driver_id"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "dispatch", LevelWarn)

	l.Info(context.Background(), "dropped")
	assert.Zero(t, buf.Len())

	l.Warn(context.Background(), "kept")
	assert.NotZero(t, buf.Len())
}

func TestLogger_ErrorCarriesContextFromWrappedError(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "dispatch", LevelDebug)

	inner := wrap.WithAction(context.Background(), "sweep_stuck_busy")
	inner = wrap.WithDriverID(inner, "D2")
	err := wrap.Error(inner, fmt.Errorf("release failed: %w", errors.New("boom")))

	outer := wrap.WithRequestID(context.Background(), "req-9")
	l.Error(wrap.ErrorCtx(outer, err), "sweep failed", err)

	rec := decodeLine(t, &buf)
	assert.Equal(t, "sweep_stuck_busy", rec["action"])
	assert.Equal(t, "D2", rec["driver_id"])
	assert.Equal(t, "req-9", rec["request_id"])

	errGroup, ok := rec["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "release failed: boom", errGroup["msg"])
}

func TestValidateLogLevel(t *testing.T) {
	assert.True(t, ValidateLogLevel(LevelInfo))
	assert.False(t, ValidateLogLevel("TRACE"))
}
