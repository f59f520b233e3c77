package ws

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vio-chat-service/internal/middleware"
)

func newConnID() string {
	return uuid.NewString()
}

// tokenFromRequest reads the bearer token from the Authorization header or ?token=.
func tokenFromRequest(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		return middleware.BearerToken(header)
	}
	token := c.Query("token")
	return token, token != ""
}
