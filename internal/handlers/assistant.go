package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vio-chat-service/internal/backend"
)

const maxSpeakChars = 4000

// AssistantHandler proxies the camera assistant calls to the backend.
type AssistantHandler struct {
	backend backend.Service
}

// NewAssistantHandler builds an AssistantHandler.
func NewAssistantHandler(svc backend.Service) *AssistantHandler {
	return &AssistantHandler{backend: svc}
}

// Analyze forwards the multipart "image" field and returns the backend verdict.
func (h *AssistantHandler) Analyze(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
		return
	}
	defer src.Close()

	result, err := h.backend.AnalyzeImage(c.Request.Context(), file.Filename, src)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Speak returns synthesized audio for the given text.
func (h *AssistantHandler) Speak(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" || len(text) > maxSpeakChars {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text must be between 1 and 4000 characters"})
		return
	}

	audio, contentType, err := h.backend.Speak(c.Request.Context(), text)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, audio)
}

func respondBackendError(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, backend.ErrDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant backend not configured"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "assistant backend unavailable"})
}
