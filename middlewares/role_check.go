package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-orders/utils"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleChef  = "chef"
	RoleGuest = "guest"
)

// RoleCheck lets the listed roles through. Admins always pass.
func RoleCheck(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			utils.RespondStatus(c, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		if actor.Role == RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		utils.RespondStatus(c, http.StatusForbidden, fmt.Errorf("%s access required", strings.Join(roles, " or ")))
	}
}
