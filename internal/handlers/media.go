package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vio-chat-service/internal/logger"
	"vio-chat-service/internal/media"
	"vio-chat-service/internal/observability"
	"vio-chat-service/internal/repositories"
	"vio-chat-service/internal/users"
)

const maxAvatarBytes = 10 << 20

// MediaHandler manages the caller's avatar.
type MediaHandler struct {
	store    media.Store
	userRepo repositories.UserRepository
	dir      *users.Directory
}

// NewMediaHandler builds a MediaHandler.
func NewMediaHandler(store media.Store, userRepo repositories.UserRepository, dir *users.Directory) *MediaHandler {
	return &MediaHandler{store: store, userRepo: userRepo, dir: dir}
}

// UploadAvatar compresses the multipart "image" field and stores it as avatars/{uid}.
func (h *MediaHandler) UploadAvatar(c *gin.Context) {
	userID := c.GetString("userID")
	ctx := c.Request.Context()

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if file.Size > maxAvatarBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
		return
	}
	raw, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
		return
	}

	data, _ := media.CompressImage(raw)
	url, err := h.store.Upload(ctx, bytes.NewReader(data), media.UploadOptions{
		PublicID:     media.AvatarPublicID(userID),
		ResourceType: media.ResourceImage,
		Overwrite:    true,
		Invalidate:   true,
	})
	if err != nil {
		observability.IncMediaUpload(media.ResourceImage, "error")
		respondUploadError(c, err)
		return
	}
	observability.IncMediaUpload(media.ResourceImage, "ok")

	user, err := h.userRepo.UpdateProfile(ctx, userID, nil, &url)
	if err != nil {
		respondError(c, err, "failed to update profile")
		return
	}
	h.dir.Remember(ctx, user)
	c.JSON(http.StatusOK, gin.H{"photo": url})
}

// DeleteAvatar removes the stored avatar and clears the profile photo.
func (h *MediaHandler) DeleteAvatar(c *gin.Context) {
	userID := c.GetString("userID")
	ctx := c.Request.Context()

	if err := h.store.Destroy(ctx, media.AvatarPublicID(userID), media.ResourceImage); err != nil {
		if errors.Is(err, media.ErrNotConfigured) {
			respondUploadError(c, err)
			return
		}
		// the profile is cleared even if the remote asset lingers
		logger.Warn("avatar destroy failed", zap.String("uid", userID), zap.Error(err))
	}

	if err := h.userRepo.ClearPhoto(ctx, userID); err != nil {
		respondError(c, err, "failed to update profile")
		return
	}
	h.dir.Forget(ctx, userID)
	c.Status(http.StatusNoContent)
}
