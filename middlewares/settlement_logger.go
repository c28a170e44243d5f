package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-orders/utils"
)

// SettlementLogger writes an audit line for every settlement attempt.
func SettlementLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		fields := logrus.Fields{
			"order":  c.Param("order_id"),
			"status": c.Writer.Status(),
		}
		if actor, ok := CurrentActor(c); ok {
			fields["tenant"] = actor.TenantID
			fields["staff"] = actor.StaffID
		}
		if c.Writer.Status() == http.StatusOK {
			utils.InfoLogger.WithFields(fields).Info("settlement accepted")
		} else {
			utils.ErrorLogger.WithFields(fields).Warn("settlement rejected")
		}
	}
}
