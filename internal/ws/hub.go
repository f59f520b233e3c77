package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"vio-chat-service/internal/logger"
	"vio-chat-service/internal/models"
	"vio-chat-service/internal/observability"
)

const (
	kindChat       = "chat"
	chatRoutingKey = "ws_events.chats"
)

// Relay forwards room events to other instances.
type Relay interface {
	Publish(event models.ChatEvent) error
}

type client struct {
	conn *websocket.Conn
	info ConnInfo
	mu   sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub maintains active websocket rooms keyed by room id.
type Hub struct {
	rooms map[string]map[*websocket.Conn]*client
	relay Relay
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*websocket.Conn]*client)}
}

// SetRelay enables cross-instance fan-out.
func (h *Hub) SetRelay(relay Relay) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.relay = relay
}

// AddClient registers a websocket connection to a room.
func (h *Hub) AddClient(roomID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*websocket.Conn]*client)
	}
	h.rooms[roomID][conn] = &client{conn: conn, info: info}
}

// RemoveClient removes a websocket connection. It reports whether the connection was registered.
func (h *Hub) RemoveClient(roomID string, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[roomID]
	if !ok {
		return false
	}
	_, existed := conns[conn]
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.rooms, roomID)
	}
	return existed
}

// RoomSize returns the number of local connections in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// BroadcastMessage announces a new message.
func (h *Hub) BroadcastMessage(roomID string, msg models.Message) {
	h.Broadcast(models.ChatEvent{Type: models.ChatEventMessage, RoomID: roomID, Message: &msg})
}

// BroadcastEdit announces an edited message.
func (h *Hub) BroadcastEdit(roomID string, msg models.Message) {
	h.Broadcast(models.ChatEvent{Type: models.ChatEventEdit, RoomID: roomID, Message: &msg, MessageID: msg.ID})
}

// BroadcastSeen tells the room that viewerID has read everything addressed to them.
func (h *Hub) BroadcastSeen(roomID, viewerID string) {
	h.Broadcast(models.ChatEvent{Type: models.ChatEventSeen, RoomID: roomID, ViewerID: viewerID})
}

// BroadcastHide tells viewerID's other devices to drop a message.
func (h *Hub) BroadcastHide(roomID, messageID, viewerID string) {
	h.Broadcast(models.ChatEvent{Type: models.ChatEventHide, RoomID: roomID, MessageID: messageID, ViewerID: viewerID})
}

// BroadcastDeletion notifies clients of a delete-for-all event.
func (h *Hub) BroadcastDeletion(roomID, messageID string) {
	h.Broadcast(models.ChatEvent{Type: models.ChatEventDeleteForAll, RoomID: roomID, MessageID: messageID})
}

// Broadcast delivers to local clients and hands the event to the relay.
func (h *Hub) Broadcast(event models.ChatEvent) {
	h.DeliverLocal(event)

	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()
	if relay == nil {
		return
	}
	if err := relay.Publish(event); err != nil {
		logger.Warn("ws relay publish failed", zap.String("room_id", event.RoomID), zap.Error(err))
	}
}

// DeliverLocal writes the event to every connection of the room on this instance.
func (h *Hub) DeliverLocal(event models.ChatEvent) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[event.RoomID]))
	for _, cl := range h.rooms[event.RoomID] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("ws event marshal failed", zap.Error(err))
		return
	}
	for _, cl := range clients {
		if err := cl.write(payload); err != nil {
			logger.Warn("websocket write error", zap.String("room_id", event.RoomID), zap.String("conn_id", cl.info.ConnID), zap.Error(err))
			cl.conn.Close()
			if h.RemoveClient(event.RoomID, cl.conn) {
				observability.DecWSActive(kindChat)
			}
			h.publishWSError(event.RoomID, cl.info, err)
		}
	}
}

func (h *Hub) publishWSError(roomID string, info ConnInfo, err error) {
	observability.PublishWSEvent(context.Background(), chatRoutingKey, observability.WSLifecycle{
		Kind:       kindChat,
		ResourceID: roomID,
		Event:      "ws_error",
		ConnID:     info.ConnID,
		Reason:     err.Error(),
	}, info.identity(), info.ConnectedAt, info.RequestID, info.TraceID)
}
