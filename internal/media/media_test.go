package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vio-chat-service/internal/config"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompressImageScalesLongestSide(t *testing.T) {
	out, contentType := CompressImage(encodePNG(t, 2048, 1024))
	assert.Equal(t, "image/jpeg", contentType)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
}

func TestCompressImageKeepsSmallDimensions(t *testing.T) {
	out, _ := CompressImage(encodePNG(t, 300, 200))

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestCompressImageReturnsUndecodableInput(t *testing.T) {
	in := []byte("not an image")
	out, contentType := CompressImage(in)
	assert.Equal(t, in, out)
	assert.Empty(t, contentType)
}

func TestPublicIDs(t *testing.T) {
	assert.Equal(t, "avatars/u1", AvatarPublicID("u1"))
	assert.Equal(t, "voice/a_b/m1", VoicePublicID("a_b", "m1"))
}

func TestNewStoreWithoutCredentials(t *testing.T) {
	store, err := NewStore(config.CloudinaryConfig{CloudName: "demo"})
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), bytes.NewReader(nil), UploadOptions{PublicID: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
