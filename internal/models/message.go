package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	MessageTypeText  = "text"
	MessageTypeVoice = "voice"
)

// Message mirrors chats/{roomId}/{messageId}.
type Message struct {
	ID              string      `db:"id" json:"message_id"`
	RoomID          string      `db:"room_id" json:"room_id"`
	Seq             int64       `db:"seq" json:"-"`
	Text            string      `db:"message" json:"message"`
	SenderID        string      `db:"sender_id" json:"sender_id"`
	SenderName      string      `db:"sender_name" json:"sender_name"`
	ReceiverID      string      `db:"receiver_id" json:"receiver_id"`
	Seen            bool        `db:"kordim" json:"kordim"`
	Type            string      `db:"type" json:"type"`
	AudioURL        *string     `db:"audio_url" json:"audio_url,omitempty"`
	AudioDuration   *int64      `db:"audio_duration" json:"audio_duration,omitempty"`
	Edited          bool        `db:"edited" json:"edited"`
	EditedAt        *int64      `db:"edited_at" json:"edited_at,omitempty"`
	OriginalMessage *string     `db:"original_message" json:"original_message,omitempty"`
	EditHistory     EditHistory `db:"edit_history" json:"edit_history,omitempty"`
	HiddenBy        HiddenBy    `db:"hidden_by" json:"hidden_by,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
}

// ChatEvent is broadcasted through websockets.
type ChatEvent struct {
	Type      string   `json:"type"`
	RoomID    string   `json:"room_id"`
	Message   *Message `json:"message,omitempty"`
	MessageID string   `json:"message_id,omitempty"`
	ViewerID  string   `json:"viewer_id,omitempty"`
}

const (
	ChatEventMessage      = "message"
	ChatEventEdit         = "edit"
	ChatEventSeen         = "seen"
	ChatEventHide         = "hide"
	ChatEventDeleteForAll = "delete_for_all"
)

// EditHistory maps an epoch-millis key to the text that was replaced at that moment.
type EditHistory map[string]string

// Value implements driver.Valuer.
func (h EditHistory) Value() (driver.Value, error) {
	if h == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner.
func (h *EditHistory) Scan(src any) error {
	return scanJSON(src, h)
}

// HiddenBy holds the uids that removed the message from their own view.
type HiddenBy map[string]bool

// Value implements driver.Valuer.
func (h HiddenBy) Value() (driver.Value, error) {
	if h == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner.
func (h *HiddenBy) Scan(src any) error {
	return scanJSON(src, h)
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}
