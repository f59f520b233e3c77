package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"vio-chat-service/internal/logger"
	"vio-chat-service/internal/models"
	"vio-chat-service/internal/observability"
)

const DefaultRelaySubject = "vio.rooms.events"

type relayEnvelope struct {
	Origin string           `json:"origin"`
	Event  models.ChatEvent `json:"event"`
}

// NATSRelay fans room events out to every instance subscribed to the subject.
type NATSRelay struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
	origin  string
}

// NewNATSRelay connects to NATS.
func NewNATSRelay(url, subject string) (*NATSRelay, error) {
	if subject == "" {
		subject = DefaultRelaySubject
	}
	nc, err := nats.Connect(url,
		nats.Name("vio-chat-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500*time.Millisecond),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(3*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSRelay{nc: nc, subject: subject, origin: uuid.NewString()}, nil
}

// Start delivers events published by other instances into hub.
func (r *NATSRelay) Start(hub *Hub) error {
	sub, err := r.nc.Subscribe(r.subject, func(m *nats.Msg) {
		var env relayEnvelope
		if err := json.Unmarshal(m.Data, &env); err != nil {
			logger.Warn("ws relay decode failed", zap.Error(err))
			return
		}
		if env.Origin == r.origin {
			return
		}
		observability.IncRelay("in")
		hub.DeliverLocal(env.Event)
	})
	if err != nil {
		return err
	}
	r.sub = sub
	hub.SetRelay(r)
	return nil
}

func (r *NATSRelay) Publish(event models.ChatEvent) error {
	data, err := json.Marshal(relayEnvelope{Origin: r.origin, Event: event})
	if err != nil {
		return err
	}
	if err := r.nc.Publish(r.subject, data); err != nil {
		return err
	}
	observability.IncRelay("out")
	return nil
}

func (r *NATSRelay) Close() error {
	if r.sub != nil {
		_ = r.sub.Drain()
	}
	return r.nc.Drain()
}
