package ws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceIDOfSpanWithoutTrace(t *testing.T) {
	span := trace.SpanFromContext(context.Background())
	assert.Equal(t, "", traceIDOf(span))
}

func TestTraceIDOfRecordedSpan(t *testing.T) {
	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	assert.NoError(t, err)
	sid, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	assert.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid})
	span := trace.SpanFromContext(trace.ContextWithSpanContext(context.Background(), sc))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", traceIDOf(span))
}
