package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vio-chat-service/internal/chat"
	"vio-chat-service/internal/middleware"
	"vio-chat-service/internal/observability"
	"vio-chat-service/internal/repositories"
)

const maxInboundFrame = 4096

// ChatWebSocketHandler streams room events to a participant.
type ChatWebSocketHandler struct {
	hub       *Hub
	userRepo  repositories.UserRepository
	validator middleware.TokenValidator
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, userRepo repositories.UserRepository, validator middleware.TokenValidator) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, userRepo: userRepo, validator: validator}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and subscribes it to the room shared with :peer_id.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("vio-chat-service/ws").Start(c.Request.Context(), "ws.handshake",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("ws.kind", kindChat)),
	)
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token, ok := tokenFromRequest(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.validator.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	peerID := c.Param("peer_id")
	roomID, err := chat.RoomID(userID, peerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer id"})
		return
	}
	if _, err := h.userRepo.GetUser(ctx, peerID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(maxInboundFrame)

	span.SetAttributes(attribute.String("chat.room_id", roomID))
	traceID := traceIDOf(span)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(roomID, conn, info)
	observability.IncWSActive(kindChat)
	h.publish(roomID, "ws_connect", "", info, time.Time{})

	// Inbound frames are ignored; the loop only detects the close.
	go func() {
		var closeReason string
		defer func() {
			if h.hub.RemoveClient(roomID, conn) {
				observability.DecWSActive(kindChat)
			}
			h.publish(roomID, "ws_disconnect", closeReason, info, info.ConnectedAt)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.publish(roomID, "ws_error", closeReason, info, info.ConnectedAt)
				}
				return
			}
		}
	}()
}

func (h *ChatWebSocketHandler) publish(roomID, event, reason string, info ConnInfo, since time.Time) {
	observability.PublishWSEvent(context.Background(), chatRoutingKey, observability.WSLifecycle{
		Kind:       kindChat,
		ResourceID: roomID,
		Event:      event,
		ConnID:     info.ConnID,
		Reason:     reason,
	}, info.identity(), since, info.RequestID, info.TraceID)
}

func traceIDOf(span trace.Span) string {
	sc := span.SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
