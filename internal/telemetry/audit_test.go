package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	key    string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	p.key = routingKey
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func TestEmitBuildsEnvelope(t *testing.T) {
	pub := &recordingPublisher{}
	emitter := NewAuditEmitter(pub, "audit.chat", "vio-chat-service", "test")
	uid := "alice"

	emitter.Emit(context.Background(), "INFO", "message sent", "req-1", &uid)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "audit.chat", pub.key)
	env, ok := pub.events[0].(AuditEnvelope)
	require.True(t, ok)
	assert.Equal(t, 1, env.SchemaVersion)
	assert.Equal(t, "audit_log", env.EventType)
	assert.Equal(t, "vio-chat-service", env.Service)
	assert.Equal(t, "req-1", env.RequestID)
	assert.Equal(t, "alice", *env.UserID)
	assert.Equal(t, AuditPayload{Level: "INFO", Text: "message sent"}, env.Payload)
}

func TestEmitSwallowsPublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("down")}
	NewAuditEmitter(pub, "audit.chat", "svc", "test").Emit(context.Background(), "INFO", "x", "", nil)
	assert.Len(t, pub.events, 1)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "x", "", nil)
	})
}

func TestInitTracingWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "svc", "test", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
