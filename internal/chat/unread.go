package chat

import "vio-chat-service/internal/models"

// CountUnread scans one room in insertion order and returns the unread count per
// sender for viewer. Every counterparty starts at zero. A seen message addressed to
// the viewer resets its sender back to zero instead of decrementing.
func CountUnread(viewer string, counterparties []string, msgs []models.Message) map[string]int {
	counts := seedCounts(viewer, counterparties)
	accumulate(counts, viewer, msgs)
	return counts
}

// CountUnreadRooms runs CountUnread across several rooms keyed by room id. Messages
// stored under a room that does not match their own participants are skipped.
func CountUnreadRooms(viewer string, counterparties []string, rooms map[string][]models.Message) map[string]int {
	counts := seedCounts(viewer, counterparties)
	for roomID, msgs := range rooms {
		valid := make([]models.Message, 0, len(msgs))
		for _, m := range msgs {
			expected, err := RoomID(m.SenderID, m.ReceiverID)
			if err != nil || expected != roomID {
				continue
			}
			valid = append(valid, m)
		}
		accumulate(counts, viewer, valid)
	}
	return counts
}

func seedCounts(viewer string, counterparties []string) map[string]int {
	counts := make(map[string]int, len(counterparties))
	for _, id := range counterparties {
		if id == "" || id == viewer {
			continue
		}
		counts[id] = 0
	}
	return counts
}

func accumulate(counts map[string]int, viewer string, msgs []models.Message) {
	for _, m := range msgs {
		if m.SenderID == "" || m.ReceiverID != viewer || m.SenderID == viewer {
			continue
		}
		if m.Seen {
			counts[m.SenderID] = 0
			continue
		}
		counts[m.SenderID]++
	}
}
