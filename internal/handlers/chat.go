package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vio-chat-service/internal/backend"
	"vio-chat-service/internal/chat"
	"vio-chat-service/internal/friends"
	"vio-chat-service/internal/logger"
	"vio-chat-service/internal/media"
	"vio-chat-service/internal/models"
	"vio-chat-service/internal/observability"
	"vio-chat-service/internal/repositories"
	"vio-chat-service/internal/telemetry"
	"vio-chat-service/internal/unread"
	"vio-chat-service/internal/users"
	"vio-chat-service/internal/ws"
)

const (
	pushTimeout       = 10 * time.Second
	maxVoiceBytes     = 10 << 20
	voiceMessageLabel = "Voice message"
	voicePushBody     = "Sent a voice message 🎤"
)

// ChatDeps groups the collaborators of ChatHandler.
type ChatDeps struct {
	Messages repositories.MessageRepository
	Users    repositories.UserRepository
	Gate     *friends.Gate
	Unread   *unread.Tracker
	Dir      *users.Directory
	Media    media.Store
	Notifier backend.Service
	Hub      *ws.Hub
	Audit    *telemetry.AuditEmitter
}

// ChatHandler manages one-to-one chat endpoints. The room is always derived from the
// caller and :peer_id.
type ChatHandler struct {
	ChatDeps
	now      func() time.Time
	runAsync func(func())
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(deps ChatDeps) *ChatHandler {
	return &ChatHandler{
		ChatDeps: deps,
		now:      time.Now,
		runAsync: func(f func()) { go f() },
	}
}

type messageResponse struct {
	models.Message
	Edits []chat.HistoryEntry `json:"edits,omitempty"`
}

// ListMessages returns the room messages visible to the caller in insertion order.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, peerID, roomID, ok := roomFromPeer(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	msgs, err := h.Messages.ListRoomMessages(ctx, roomID)
	if err != nil {
		respondError(c, err, "failed to load messages")
		return
	}
	visible := chat.FilterVisible(msgs, userID)

	senderIDs := make([]string, 0, 2)
	for _, m := range visible {
		senderIDs = append(senderIDs, m.SenderID)
	}
	names, err := h.Dir.Summaries(ctx, senderIDs)
	if err != nil {
		logger.Warn("sender names unavailable", zap.String("room_id", roomID), zap.Error(err))
	}

	resp := make([]messageResponse, 0, len(visible))
	for _, m := range visible {
		if s, ok := names[m.SenderID]; ok && s.Name != "" {
			m.SenderName = s.Name
		}
		resp = append(resp, messageResponse{Message: m, Edits: chat.History(m)})
	}

	canChat, err := h.Gate.CanMessage(ctx, userID, peerID)
	if err != nil {
		respondError(c, err, "failed to check friendship")
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "messages": resp, "can_chat": canChat})
}

// PostMessage stores a text message and fans it out.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	userID, peerID, roomID, ok := roomFromPeer(c)
	if !ok {
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
		return
	}

	sender, ok := h.authorizeSend(c, userID, peerID)
	if !ok {
		return
	}

	msg := models.Message{
		RoomID:     roomID,
		Text:       text,
		SenderID:   userID,
		SenderName: sender.Name,
		ReceiverID: peerID,
		Type:       models.MessageTypeText,
	}
	if err := h.Messages.CreateMessage(c.Request.Context(), &msg); err != nil {
		respondError(c, err, "failed to store message")
		return
	}

	h.afterSend(c, msg, text)
	c.JSON(http.StatusCreated, msg)
}

// PostVoice uploads a recorded clip and stores a voice message pointing at it.
func (h *ChatHandler) PostVoice(c *gin.Context) {
	userID, peerID, roomID, ok := roomFromPeer(c)
	if !ok {
		return
	}

	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	if file.Size > maxVoiceBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file too large"})
		return
	}
	var duration *int64
	if raw := c.PostForm("duration"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
			return
		}
		duration = &ms
	}

	sender, ok := h.authorizeSend(c, userID, peerID)
	if !ok {
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read audio file"})
		return
	}
	defer src.Close()

	messageID := repositories.NewMessageID()
	url, err := h.Media.Upload(c.Request.Context(), src, media.UploadOptions{
		PublicID:     media.VoicePublicID(roomID, messageID),
		ResourceType: media.ResourceAudio,
	})
	if err != nil {
		observability.IncMediaUpload(media.ResourceAudio, "error")
		respondUploadError(c, err)
		return
	}
	observability.IncMediaUpload(media.ResourceAudio, "ok")

	msg := models.Message{
		ID:            messageID,
		RoomID:        roomID,
		Text:          voiceMessageLabel,
		SenderID:      userID,
		SenderName:    sender.Name,
		ReceiverID:    peerID,
		Type:          models.MessageTypeVoice,
		AudioURL:      &url,
		AudioDuration: duration,
	}
	if err := h.Messages.CreateMessage(c.Request.Context(), &msg); err != nil {
		respondError(c, err, "failed to store message")
		return
	}

	h.afterSend(c, msg, voicePushBody)
	c.JSON(http.StatusCreated, msg)
}

// MarkSeen flags every message addressed to the caller in the room as seen.
func (h *ChatHandler) MarkSeen(c *gin.Context) {
	userID, peerID, roomID, ok := roomFromPeer(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	updated, err := h.Messages.MarkSeen(ctx, roomID, userID)
	if err != nil {
		respondError(c, err, "failed to mark messages seen")
		return
	}
	h.Unread.OnSeen(ctx, userID, peerID)
	if updated > 0 {
		observability.IncMessage("seen", models.MessageTypeText)
		h.Hub.BroadcastSeen(roomID, userID)
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// EditMessage replaces the text of the caller's own message.
func (h *ChatHandler) EditMessage(c *gin.Context) {
	userID, _, roomID, ok := roomFromPeer(c)
	if !ok {
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.Messages.EditMessage(c.Request.Context(), roomID, c.Param("message_id"), userID, req.Message, h.now())
	if err != nil {
		respondError(c, err, "could not edit message")
		return
	}

	observability.IncMessage("edit", msg.Type)
	h.Hub.BroadcastEdit(roomID, msg)
	emitAudit(c, h.Audit, "message edited")
	c.JSON(http.StatusOK, messageResponse{Message: msg, Edits: chat.History(msg)})
}

// MessageHistory returns the replaced texts of a message oldest first.
func (h *ChatHandler) MessageHistory(c *gin.Context) {
	userID, _, roomID, ok := roomFromPeer(c)
	if !ok {
		return
	}

	msg, err := h.Messages.GetMessage(c.Request.Context(), roomID, c.Param("message_id"))
	if err != nil {
		respondError(c, err, "failed to load message")
		return
	}
	if !chat.VisibleTo(msg, userID) {
		c.JSON(http.StatusNotFound, gin.H{"error": repositories.ErrMessageNotFound.Error()})
		return
	}

	history := chat.History(msg)
	if history == nil {
		history = []chat.HistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"message_id":       msg.ID,
		"message":          msg.Text,
		"original_message": msg.OriginalMessage,
		"history":          history,
	})
}

// DeleteMessageForMe hides a message for the caller. The row goes away once both
// participants have hidden it.
func (h *ChatHandler) DeleteMessageForMe(c *gin.Context) {
	userID, _, roomID, ok := roomFromPeer(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	msg, removed, err := h.Messages.HideMessage(ctx, roomID, c.Param("message_id"), userID)
	if err != nil {
		respondError(c, err, "could not delete message")
		return
	}
	if removed {
		h.Unread.OnRemoved(ctx, msg)
	}

	observability.IncMessage("hide", msg.Type)
	h.Hub.BroadcastHide(roomID, msg.ID, userID)
	c.Status(http.StatusNoContent)
}

// DeleteMessageForAll removes a message for both participants.
func (h *ChatHandler) DeleteMessageForAll(c *gin.Context) {
	_, _, roomID, ok := roomFromPeer(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	msg, err := h.Messages.DeleteMessage(ctx, roomID, c.Param("message_id"))
	if err != nil {
		respondError(c, err, "could not delete message")
		return
	}
	h.Unread.OnRemoved(ctx, msg)
	if msg.Type == models.MessageTypeVoice && msg.AudioURL != nil {
		h.destroyVoice(roomID, msg.ID)
	}

	observability.IncMessage("delete_for_all", msg.Type)
	h.Hub.BroadcastDeletion(roomID, msg.ID)
	emitAudit(c, h.Audit, "message deleted for all")
	c.Status(http.StatusNoContent)
}

// authorizeSend enforces the friend gate and resolves the sender's display data.
func (h *ChatHandler) authorizeSend(c *gin.Context, userID, peerID string) (models.UserSummary, bool) {
	ctx := c.Request.Context()
	if _, err := h.Users.GetUser(ctx, peerID); err != nil {
		respondError(c, err, "failed to load user")
		return models.UserSummary{}, false
	}
	allowed, err := h.Gate.CanMessage(ctx, userID, peerID)
	if err != nil {
		respondError(c, err, "failed to check friendship")
		return models.UserSummary{}, false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "users are not friends"})
		return models.UserSummary{}, false
	}

	sender, found, err := h.Dir.Summary(ctx, userID)
	if err != nil || !found {
		logger.Warn("sender profile unavailable", zap.String("uid", userID), zap.Error(err))
	}
	return sender, true
}

func (h *ChatHandler) afterSend(c *gin.Context, msg models.Message, pushBody string) {
	h.Unread.OnSend(c.Request.Context(), msg)
	observability.IncMessage("send", msg.Type)
	h.Hub.BroadcastMessage(msg.RoomID, msg)
	emitAudit(c, h.Audit, "message sent")

	note := backend.PushNotification{UserID: msg.ReceiverID, Title: msg.SenderName, Body: pushBody}
	h.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := h.Notifier.Notify(ctx, note); err != nil {
			observability.IncPush("error")
			logger.Warn("push notification failed", zap.String("receiver_id", note.UserID), zap.Error(err))
			return
		}
		observability.IncPush("ok")
	})
}

func (h *ChatHandler) destroyVoice(roomID, messageID string) {
	h.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		err := h.Media.Destroy(ctx, media.VoicePublicID(roomID, messageID), media.ResourceAudio)
		if err != nil && !errors.Is(err, media.ErrNotConfigured) {
			logger.Warn("voice clip cleanup failed", zap.String("message_id", messageID), zap.Error(err))
		}
	})
}

func respondUploadError(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, media.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cloudinary not configured"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
