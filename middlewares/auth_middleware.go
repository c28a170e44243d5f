package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-orders/services"
	"github.com/yeremiapane/restaurant-orders/utils"
)

const actorKey = "actor"

// AuthMiddleware turns the bearer token into the request's session.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondStatus(c, http.StatusUnauthorized, errors.New("authorization header missing"))
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondStatus(c, http.StatusUnauthorized, errors.New("invalid token format"))
			return
		}

		if !authenticate(c, strings.TrimPrefix(authHeader, "Bearer ")) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, token string) bool {
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.RespondStatus(c, http.StatusUnauthorized, err)
		return false
	}
	c.Set(actorKey, services.Actor{
		TenantID: claims.TenantID,
		StaffID:  claims.StaffID,
		Role:     claims.Role,
	})
	return true
}

// CurrentActor returns the session set by AuthMiddleware or
// WebSocketAuthMiddleware.
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return services.Actor{}, false
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}
