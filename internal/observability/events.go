package observability

import (
	"context"
	"time"
)

type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// Publisher is satisfied by the rabbitmq publisher.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error
}

var defaultPublisher Publisher

func SetPublisher(publisher Publisher) {
	defaultPublisher = publisher
}

func PublishEvent(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error {
	if defaultPublisher == nil {
		return nil
	}

	err := defaultPublisher.PublishJSON(ctx, routingKey, message, headers)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}

// WSIdentity describes who owns a websocket connection.
type WSIdentity struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	IP       string `json:"ip"`
}

// WSLifecycle is the payload of ws_connect, ws_disconnect and ws_error events.
type WSLifecycle struct {
	Kind       string `json:"kind"`
	ResourceID string `json:"resource_id"`
	Event      string `json:"event"`
	ConnID     string `json:"conn_id"`
	DurationMS int64  `json:"duration_ms"`
	Reason     string `json:"reason"`
}

// WSEventPayload groups a lifecycle record with its identity.
type WSEventPayload struct {
	WS       WSLifecycle `json:"ws"`
	Identity WSIdentity  `json:"identity"`
}

// PublishWSEvent counts and publishes a websocket lifecycle event.
func PublishWSEvent(ctx context.Context, routingKey string, lifecycle WSLifecycle, identity WSIdentity, connectedAt time.Time, requestID, traceID string) {
	if !connectedAt.IsZero() {
		lifecycle.DurationMS = time.Since(connectedAt).Milliseconds()
	}
	IncWSEvent(lifecycle.Kind, lifecycle.Event)
	_ = PublishEvent(ctx, routingKey, EventEnvelope{
		EventType: "ws_events",
		EventName: lifecycle.Event,
		Payload:   WSEventPayload{WS: lifecycle, Identity: identity},
	}, BuildHeaders(requestID, traceID))
}
