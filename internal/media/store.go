// Package media uploads avatars and voice notes to Cloudinary.
package media

import (
	"context"
	"errors"
	"io"
)

const (
	ResourceImage = "image"
	// Cloudinary stores audio under the video resource type.
	ResourceAudio = "video"
)

// ErrNotConfigured is returned when Cloudinary credentials are missing.
var ErrNotConfigured = errors.New("cloudinary not configured")

// UploadOptions selects where an upload lands.
type UploadOptions struct {
	PublicID     string
	ResourceType string
	Overwrite    bool
	Invalidate   bool
}

// Store is a remote media store.
type Store interface {
	// Upload returns the secure URL of the stored asset.
	Upload(ctx context.Context, r io.Reader, opts UploadOptions) (string, error)
	Destroy(ctx context.Context, publicID, resourceType string) error
}

// AvatarPublicID is the public id of a user's avatar. Re-uploads replace it.
func AvatarPublicID(uid string) string {
	return "avatars/" + uid
}

// VoicePublicID is the public id of a voice note.
func VoicePublicID(roomID, messageID string) string {
	return "voice/" + roomID + "/" + messageID
}

// Disabled is the Store used when no credentials are configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, io.Reader, UploadOptions) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Destroy(context.Context, string, string) error {
	return ErrNotConfigured
}
