package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vio-chat-service/internal/telemetry"
	"vio-chat-service/internal/ws"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router gin.IRoutes, emitter *telemetry.AuditEmitter, hub *ws.Hub, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitAudit(c, emitter, "audit test")
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/rooms/:room_id", func(c *gin.Context) {
		roomID := c.Param("room_id")
		c.JSON(http.StatusOK, gin.H{"room_id": roomID, "subscribers": hub.RoomSize(roomID)})
	})
}
