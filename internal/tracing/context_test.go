package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithTurnID(ctx, "turn-1")
	ctx = WithRequestID(ctx, "req-1")

	assert.Equal(t, "trace-1", GetTraceID(ctx))
	assert.Equal(t, "sess-1", GetSessionID(ctx))
	assert.Equal(t, "turn-1", GetTurnID(ctx))
	assert.Equal(t, "req-1", GetRequestID(ctx))
}

func TestContextEmptyValues(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSessionID(ctx))
	assert.Empty(t, GetTurnID(ctx))
	assert.Empty(t, GetRequestID(ctx))
}

func TestNewTurnID(t *testing.T) {
	a := NewTurnID()
	b := NewTurnID()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestStartSpanPropagatesTraceID(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "voxa.test", "test.span")
	defer span.End()

	assert.NotNil(t, ctx)
}
