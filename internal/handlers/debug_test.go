package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vio-chat-service/internal/mocks"
	"vio-chat-service/internal/telemetry"
	"vio-chat-service/internal/ws"
)

func TestDebugRoutesDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDebugRoutes(r, nil, ws.NewHub(), false)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugAuditTestPublishes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.chat", "vio-chat-service", "test")
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", alice)
		c.Next()
	})
	RegisterDebugRoutes(r, emitter, ws.NewHub(), true)

	publisher.On("Publish", mock.Anything, "audit.chat", mock.MatchedBy(func(e telemetry.AuditEnvelope) bool {
		return e.RequestID == "req-1" && e.UserID != nil && *e.UserID == alice && e.Payload.Text == "audit test"
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	publisher.AssertExpectations(t)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/rooms/alice_bob", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"room_id":"alice_bob","subscribers":0}`, rec.Body.String())
}
