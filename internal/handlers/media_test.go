package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vio-chat-service/internal/backend"
	"vio-chat-service/internal/media"
	"vio-chat-service/internal/mocks"
	"vio-chat-service/internal/models"
	"vio-chat-service/internal/users"
)

func setupMediaRouter(mediaHandler *MediaHandler, assistant *AssistantHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", alice)
		c.Next()
	})
	if mediaHandler != nil {
		r.POST("/users/me/avatar", mediaHandler.UploadAvatar)
		r.DELETE("/users/me/avatar", mediaHandler.DeleteAvatar)
	}
	if assistant != nil {
		r.POST("/assistant/analyze", assistant.Analyze)
		r.POST("/assistant/speak", assistant.Speak)
	}
	return r
}

func imageRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", "frame.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a jpeg"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadAvatarUpdatesProfile(t *testing.T) {
	store := new(mocks.MediaStoreMock)
	userRepo := new(mocks.UserRepositoryMock)
	cache := new(mocks.StoreMock)
	router := setupMediaRouter(NewMediaHandler(store, userRepo, users.NewDirectory(userRepo, cache)), nil)

	url := "https://cdn/avatars/alice.jpg"
	store.On("Upload", mock.Anything, mock.Anything, media.UploadOptions{
		PublicID:     media.AvatarPublicID(alice),
		ResourceType: media.ResourceImage,
		Overwrite:    true,
		Invalidate:   true,
	}).Return(url, nil).Once()
	userRepo.On("UpdateProfile", mock.Anything, alice, (*string)(nil), &url).
		Return(models.User{UID: alice, Name: "Alice", Photo: &url}, nil).Once()
	cache.On("PutUsers", mock.Anything, []models.UserSummary{{UID: alice, Name: "Alice", Photo: url}}).Return(nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, imageRequest(t, "/users/me/avatar"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"photo":"https://cdn/avatars/alice.jpg"}`, rec.Body.String())
	store.AssertExpectations(t)
	userRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestUploadAvatarWithoutMediaStorage(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupMediaRouter(NewMediaHandler(media.Disabled{}, userRepo, users.NewDirectory(userRepo, new(mocks.StoreMock))), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, imageRequest(t, "/users/me/avatar"))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"Cloudinary not configured"}`, rec.Body.String())
	userRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteAvatarClearsPhotoEvenIfRemoteFails(t *testing.T) {
	store := new(mocks.MediaStoreMock)
	userRepo := new(mocks.UserRepositoryMock)
	cache := new(mocks.StoreMock)
	router := setupMediaRouter(NewMediaHandler(store, userRepo, users.NewDirectory(userRepo, cache)), nil)

	store.On("Destroy", mock.Anything, media.AvatarPublicID(alice), media.ResourceImage).Return(assert.AnError).Once()
	userRepo.On("ClearPhoto", mock.Anything, alice).Return(nil).Once()
	cache.On("InvalidateUser", mock.Anything, alice).Return(nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/me/avatar", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	store.AssertExpectations(t)
	userRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestAnalyzeProxiesBackend(t *testing.T) {
	svc := new(mocks.BackendMock)
	router := setupMediaRouter(nil, NewAssistantHandler(svc))

	svc.On("AnalyzeImage", mock.Anything, "frame.jpg", mock.Anything).
		Return(backend.AnalysisResult{Status: "success", Analysis: "a cup on a table"}, nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, imageRequest(t, "/assistant/analyze"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","analysis":"a cup on a table"}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestSpeakStatuses(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"ok":       {status: http.StatusOK},
		"disabled": {err: backend.ErrDisabled, status: http.StatusServiceUnavailable},
		"upstream": {err: &backend.StatusError{Op: "speak", Status: 500}, status: http.StatusBadGateway},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := new(mocks.BackendMock)
			router := setupMediaRouter(nil, NewAssistantHandler(svc))

			audio := []byte("ID3")
			if tc.err != nil {
				audio = nil
			}
			svc.On("Speak", mock.Anything, "hello there").Return(audio, "audio/mpeg", tc.err).Once()

			rec := postJSON(router, "/assistant/speak", `{"text":" hello there "}`)

			require.Equal(t, tc.status, rec.Code)
			if tc.err == nil {
				assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
				assert.Equal(t, "ID3", rec.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}
