// Package chat holds the room, unread and edit/delete bookkeeping shared by the
// handlers and repositories. Nothing here touches storage.
package chat

import (
	"fmt"
	"strings"

	"vio-chat-service/internal/models"
)

// RoomSeparator sits between the two participant ids of a room key. Ids containing it
// are rejected, otherwise ("x_y", "z") and ("x", "y_z") would share a key.
const RoomSeparator = "_"

// RoomID derives the key shared by both participants: the smaller id, the separator,
// then the larger id.
func RoomID(a, b string) (string, error) {
	if a == "" || b == "" {
		return "", fmt.Errorf("room id: empty participant id: %w", ErrInvalidArgument)
	}
	if strings.Contains(a, RoomSeparator) || strings.Contains(b, RoomSeparator) {
		return "", fmt.Errorf("room id: participant id contains %q: %w", RoomSeparator, ErrInvalidArgument)
	}
	if a == b {
		return "", fmt.Errorf("room id: participants must differ: %w", ErrInvalidArgument)
	}
	if b < a {
		a, b = b, a
	}
	return a + RoomSeparator + b, nil
}

// Counterparty returns the other participant of msg as seen from uid.
func Counterparty(msg models.Message, uid string) (string, bool) {
	switch uid {
	case msg.SenderID:
		return msg.ReceiverID, msg.ReceiverID != ""
	case msg.ReceiverID:
		return msg.SenderID, msg.SenderID != ""
	default:
		return "", false
	}
}
