// Package unread keeps per-counterparty unread counters in step with message writes
// and falls back to a full rescan when the counters cannot be trusted.
package unread

import (
	"context"

	"go.uber.org/zap"

	"vio-chat-service/internal/chat"
	"vio-chat-service/internal/logger"
	"vio-chat-service/internal/models"
	"vio-chat-service/internal/observability"
	"vio-chat-service/internal/repositories"
	"vio-chat-service/internal/storage"
)

// Tracker updates counters on send/seen/remove and answers unread queries.
// Counter write failures are logged; the next rescan repairs them.
type Tracker struct {
	messages repositories.MessageRepository
	counter  storage.UnreadCounter
}

// NewTracker constructs a Tracker.
func NewTracker(messages repositories.MessageRepository, counter storage.UnreadCounter) *Tracker {
	return &Tracker{messages: messages, counter: counter}
}

// OnSend counts a new unseen message for its receiver.
func (t *Tracker) OnSend(ctx context.Context, msg models.Message) {
	if msg.Seen || msg.SenderID == "" || msg.ReceiverID == "" {
		return
	}
	if err := t.counter.Incr(ctx, msg.ReceiverID, msg.SenderID); err != nil {
		logger.Warn("unread incr failed", zap.String("viewer", msg.ReceiverID), zap.Error(err))
	}
}

// OnSeen clears what viewer owes counterparty.
func (t *Tracker) OnSeen(ctx context.Context, viewer, counterparty string) {
	if err := t.counter.Reset(ctx, viewer, counterparty); err != nil {
		logger.Warn("unread reset failed", zap.String("viewer", viewer), zap.Error(err))
	}
}

// OnRemoved undoes the contribution of a removed message.
func (t *Tracker) OnRemoved(ctx context.Context, msg models.Message) {
	if msg.Seen || msg.SenderID == "" || msg.ReceiverID == "" {
		return
	}
	if err := t.counter.Decr(ctx, msg.ReceiverID, msg.SenderID); err != nil {
		logger.Warn("unread decr failed", zap.String("viewer", msg.ReceiverID), zap.Error(err))
	}
}

// Counts returns unread[counterparty] for every counterparty. With rescan, or when
// the counters are unavailable or were never seeded for the viewer (cold start, flush),
// it scans the viewer's rooms and reseeds the counters.
func (t *Tracker) Counts(ctx context.Context, viewer string, counterparties []string, rescan bool) (map[string]int, error) {
	if !rescan {
		stored, seeded, err := t.counter.Counts(ctx, viewer)
		switch {
		case err != nil:
			logger.Warn("unread counters unavailable, rescanning", zap.String("viewer", viewer), zap.Error(err))
			observability.IncUnreadRescan("counter_error")
		case !seeded:
			observability.IncUnreadRescan("unseeded")
		default:
			counts := make(map[string]int, len(counterparties))
			for _, id := range counterparties {
				if id == "" || id == viewer {
					continue
				}
				counts[id] = stored[id]
			}
			return counts, nil
		}
	} else {
		observability.IncUnreadRescan("requested")
	}

	rooms, err := t.messages.ListMessagesForUser(ctx, viewer)
	if err != nil {
		return nil, err
	}
	counts := chat.CountUnreadRooms(viewer, counterparties, rooms)
	if err := t.counter.Replace(ctx, viewer, counts); err != nil {
		logger.Warn("unread reseed failed", zap.String("viewer", viewer), zap.Error(err))
	}
	return counts, nil
}
