package ws

import (
	"time"

	"vio-chat-service/internal/observability"
)

type ConnInfo struct {
	ConnID      string
	UserID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func (i ConnInfo) identity() observability.WSIdentity {
	return observability.WSIdentity{UserID: i.UserID, DeviceID: i.DeviceID, IP: i.IP}
}
