package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-orders/utils"
)

// WebSocketAuthMiddleware reads the token from the query string, since
// browsers cannot set headers on a websocket handshake.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.RespondStatus(c, http.StatusUnauthorized, errors.New("token missing"))
			return
		}
		if !authenticate(c, token) {
			return
		}
		c.Next()
	}
}
