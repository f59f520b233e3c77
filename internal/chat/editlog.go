package chat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"vio-chat-service/internal/models"
)

// HistoryEntry is one replaced text of an edited message.
type HistoryEntry struct {
	EditedAt int64  `json:"edited_at"`
	Text     string `json:"text"`
}

// ApplyEdit replaces the body of msg with newText on behalf of editor. The replaced
// text is appended to the edit history under the edit time; the legacy original text
// is only filled on the first edit.
func ApplyEdit(msg *models.Message, editor, newText string, now time.Time) error {
	if msg.SenderID != editor {
		return ErrNotSender
	}
	if msg.Type == models.MessageTypeVoice {
		return ErrNotEditable
	}
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return fmt.Errorf("edit: empty text: %w", ErrInvalidArgument)
	}

	if msg.EditHistory == nil {
		msg.EditHistory = models.EditHistory{}
	}
	ts := now.UnixMilli()
	// keys are never overwritten
	for {
		if _, taken := msg.EditHistory[strconv.FormatInt(ts, 10)]; !taken {
			break
		}
		ts++
	}
	msg.EditHistory[strconv.FormatInt(ts, 10)] = msg.Text
	if msg.OriginalMessage == nil {
		original := msg.Text
		msg.OriginalMessage = &original
	}
	msg.Edited = true
	msg.EditedAt = &ts
	msg.Text = newText
	return nil
}

// History returns the replaced texts of msg oldest first. Messages edited before the
// history map existed only carry the legacy original text.
func History(msg models.Message) []HistoryEntry {
	if len(msg.EditHistory) == 0 {
		if msg.Edited && msg.OriginalMessage != nil {
			var at int64
			if msg.EditedAt != nil {
				at = *msg.EditedAt
			}
			return []HistoryEntry{{EditedAt: at, Text: *msg.OriginalMessage}}
		}
		return nil
	}

	keys := make([]string, 0, len(msg.EditHistory))
	for k := range msg.EditHistory {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})

	entries := make([]HistoryEntry, 0, len(keys))
	for _, k := range keys {
		at, _ := strconv.ParseInt(k, 10, 64)
		entries = append(entries, HistoryEntry{EditedAt: at, Text: msg.EditHistory[k]})
	}
	return entries
}

// Hide marks msg hidden for uid. converged reports that the counterparty had already
// hidden it, in which case the record should be removed for good.
func Hide(msg *models.Message, uid string) (converged bool, err error) {
	other, ok := Counterparty(*msg, uid)
	if !ok {
		return false, ErrNotParticipant
	}
	if msg.HiddenBy == nil {
		msg.HiddenBy = models.HiddenBy{}
	}
	msg.HiddenBy[uid] = true
	return msg.HiddenBy[other], nil
}

// VisibleTo reports whether uid still sees msg.
func VisibleTo(msg models.Message, uid string) bool {
	return !msg.HiddenBy[uid]
}

// FilterVisible drops the messages uid has hidden, keeping order.
func FilterVisible(msgs []models.Message, uid string) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if VisibleTo(m, uid) {
			out = append(out, m)
		}
	}
	return out
}
