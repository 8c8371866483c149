package correlation

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_ShortAndUnique(t *testing.T) {
	a := NewID()
	b := NewID()

	assert.Len(t, a, 8)
	assert.Len(t, b, 8)
	assert.NotEqual(t, a, b)
}

func TestWithID_RoundTrip(t *testing.T) {
	ctx := WithID(context.Background(), "abc12345")

	id, ok := ID(ctx)
	require.True(t, ok)
	assert.Equal(t, "abc12345", id)
}

func TestID_AbsentOrEmpty(t *testing.T) {
	_, ok := ID(context.Background())
	assert.False(t, ok)

	_, ok = ID(WithID(context.Background(), ""))
	assert.False(t, ok)
}

func TestHandler_InjectsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewTextHandler(&buf, nil)))

	ctx := WithID(context.Background(), "abc12345")
	logger.InfoContext(ctx, "panel created")

	assert.Contains(t, buf.String(), "correlation_id=abc12345")
}

func TestHandler_NoIDNoAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewTextHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "panel created")

	assert.NotContains(t, buf.String(), "correlation_id")
}

func TestHandler_WithAttrsKeepsInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewTextHandler(&buf, nil))).With("component", "dispatcher")

	ctx := WithID(context.Background(), "abc12345")
	logger.InfoContext(ctx, "event handled")

	out := buf.String()
	assert.Contains(t, out, "component=dispatcher")
	assert.Contains(t, out, "correlation_id=abc12345")
}
