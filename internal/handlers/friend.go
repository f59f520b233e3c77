package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vio-chat-service/internal/friends"
	"vio-chat-service/internal/models"
	"vio-chat-service/internal/telemetry"
)

// FriendHandler serves the friend graph and request routes.
type FriendHandler struct {
	service *friends.Service
	audit   *telemetry.AuditEmitter
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(service *friends.Service, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{service: service, audit: audit}
}

// ListFriends returns the caller's friends sorted by name.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	list, err := h.service.ListFriends(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, err, "failed to load friends")
		return
	}
	c.JSON(http.StatusOK, list)
}

// AddFriend links the caller to :uid directly, without a request.
func (h *FriendHandler) AddFriend(c *gin.Context) {
	if err := h.service.AddDirect(c.Request.Context(), c.GetString("userID"), c.Param("uid")); err != nil {
		respondError(c, err, "failed to add friend")
		return
	}
	emitAudit(c, h.audit, "friend added")
	c.Status(http.StatusNoContent)
}

// Status returns the relation between the caller and :uid.
func (h *FriendHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context(), c.GetString("userID"), c.Param("uid"))
	if err != nil {
		respondError(c, err, "failed to load friend status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": c.Param("uid"), "status": status})
}

// SendRequest creates a pending request from the caller to target_id, or
// accepts target_id's pending request to the caller.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		TargetID string `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := h.service.SendRequest(c.Request.Context(), c.GetString("userID"), req.TargetID)
	if err != nil {
		respondError(c, err, "failed to send friend request")
		return
	}
	if status == models.FriendStatusFriends {
		emitAudit(c, h.audit, "friend request accepted")
		c.JSON(http.StatusOK, gin.H{"target_id": req.TargetID, "status": status})
		return
	}
	emitAudit(c, h.audit, "friend request sent")
	c.JSON(http.StatusCreated, gin.H{"target_id": req.TargetID, "status": status})
}

// IncomingRequests lists the requests addressed to the caller.
func (h *FriendHandler) IncomingRequests(c *gin.Context) {
	reqs, err := h.service.Incoming(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, err, "failed to load friend requests")
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// AcceptRequest accepts the request :sender_id sent to the caller.
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	if err := h.service.Accept(c.Request.Context(), c.GetString("userID"), c.Param("sender_id")); err != nil {
		respondError(c, err, "failed to accept friend request")
		return
	}
	emitAudit(c, h.audit, "friend request accepted")
	c.Status(http.StatusNoContent)
}

// DeclineRequest drops the request :sender_id sent to the caller.
func (h *FriendHandler) DeclineRequest(c *gin.Context) {
	if err := h.service.Decline(c.Request.Context(), c.GetString("userID"), c.Param("sender_id")); err != nil {
		respondError(c, err, "failed to decline friend request")
		return
	}
	c.Status(http.StatusNoContent)
}
