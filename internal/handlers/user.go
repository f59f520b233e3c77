package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vio-chat-service/internal/logger"
	"vio-chat-service/internal/models"
	"vio-chat-service/internal/repositories"
	"vio-chat-service/internal/unread"
	"vio-chat-service/internal/users"
)

// UserHandler serves profile, search and contact routes.
type UserHandler struct {
	userRepo repositories.UserRepository
	dir      *users.Directory
	unread   *unread.Tracker
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(userRepo repositories.UserRepository, dir *users.Directory, tracker *unread.Tracker) *UserHandler {
	return &UserHandler{userRepo: userRepo, dir: dir, unread: tracker}
}

// SaveProfile upserts the caller's profile after sign-in.
func (h *UserHandler) SaveProfile(c *gin.Context) {
	var req struct {
		Name  string  `json:"name" binding:"required"`
		Email string  `json:"email" binding:"required,email"`
		Photo *string `json:"photo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.UpsertUser(c.Request.Context(), models.User{
		UID:   c.GetString("userID"),
		Name:  strings.TrimSpace(req.Name),
		Email: req.Email,
		Photo: req.Photo,
	})
	if err != nil {
		respondError(c, err, "failed to save profile")
		return
	}
	h.dir.Remember(c.Request.Context(), user)
	c.JSON(http.StatusOK, user)
}

// UpdateProfile changes the caller's name and/or photo.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		Name  *string `json:"name"`
		Photo *string `json:"photo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == nil && req.Photo == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is empty"})
			return
		}
		req.Name = &name
	}

	user, err := h.userRepo.UpdateProfile(c.Request.Context(), c.GetString("userID"), req.Name, req.Photo)
	if err != nil {
		respondError(c, err, "failed to update profile")
		return
	}
	h.dir.Remember(c.Request.Context(), user)
	c.JSON(http.StatusOK, user)
}

// Me returns the caller's profile.
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userRepo.GetUser(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetFCMToken stores the caller's device push token.
func (h *UserHandler) SetFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.userRepo.SetFCMToken(c.Request.Context(), c.GetString("userID"), req.Token); err != nil {
		respondError(c, err, "failed to store token")
		return
	}
	c.Status(http.StatusNoContent)
}

// Search looks a user up by email.
func (h *UserHandler) Search(c *gin.Context) {
	email := repositories.NormalizeEmail(c.Query("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	user, err := h.userRepo.FindByEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, err, "search failed")
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUser returns a user by uid.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userRepo.GetUser(c.Request.Context(), c.Param("uid"))
	if err != nil {
		respondError(c, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Contacts lists every other user with the number of messages the caller has not seen.
// ?rescan=true recomputes the counts from the stored messages.
func (h *UserHandler) Contacts(c *gin.Context) {
	userID := c.GetString("userID")
	ctx := c.Request.Context()

	all, err := h.userRepo.ListUsers(ctx)
	if err != nil {
		respondError(c, err, "failed to load contacts")
		return
	}

	contacts := make([]models.User, 0, len(all))
	ids := make([]string, 0, len(all))
	for _, u := range all {
		if u.UID == userID {
			continue
		}
		contacts = append(contacts, u)
		ids = append(ids, u.UID)
	}

	counts, err := h.unread.Counts(ctx, userID, ids, c.Query("rescan") == "true")
	if err != nil {
		respondError(c, err, "failed to count unread messages")
		return
	}
	for i := range contacts {
		contacts[i].UnreadCount = counts[contacts[i].UID]
	}

	h.dir.Remember(ctx, contacts...)
	logger.Debug("contacts listed", zap.String("uid", userID), zap.Int("count", len(contacts)))
	c.JSON(http.StatusOK, contacts)
}
