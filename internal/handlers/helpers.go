package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vio-chat-service/internal/chat"
	"vio-chat-service/internal/friends"
	"vio-chat-service/internal/repositories"
	"vio-chat-service/internal/telemetry"
)

const requestIDContextKey = "requestID"

func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(requestIDContextKey); id != "" {
		return id
	}

	requestID := c.GetHeader("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *string {
	if uid := c.GetString("userID"); uid != "" {
		return &uid
	}
	return nil
}

// roomFromPeer derives the room shared by the caller and :peer_id.
func roomFromPeer(c *gin.Context) (userID, peerID, roomID string, ok bool) {
	userID = c.GetString("userID")
	peerID = c.Param("peer_id")
	roomID, err := chat.RoomID(userID, peerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer id"})
		return "", "", "", false
	}
	return userID, peerID, roomID, true
}

// errorStatus maps domain errors to HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, repositories.ErrMessageNotFound),
		errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrNotSender),
		errors.Is(err, chat.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, chat.ErrNotEditable),
		errors.Is(err, friends.ErrAlreadyFriends),
		errors.Is(err, friends.ErrRequestPending):
		return http.StatusConflict
	case errors.Is(err, chat.ErrInvalidArgument),
		errors.Is(err, friends.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status; 5xx responses hide the cause.
func respondError(c *gin.Context, err error, fallback string) {
	status := errorStatus(err)
	msg := fallback
	if status < http.StatusInternalServerError {
		msg = rootMessage(err)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

func rootMessage(err error) string {
	for _, sentinel := range []error{
		repositories.ErrMessageNotFound, repositories.ErrUserNotFound, repositories.ErrRequestNotFound,
		chat.ErrNotSender, chat.ErrNotParticipant, chat.ErrNotEditable, chat.ErrInvalidArgument,
		friends.ErrAlreadyFriends, friends.ErrRequestPending, friends.ErrInvalidArgument,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func emitAudit(c *gin.Context, emitter *telemetry.AuditEmitter, text string) {
	emitter.Emit(c.Request.Context(), "INFO", text, requestIDFromContext(c), userIDFromContext(c))
}
