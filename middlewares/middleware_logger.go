package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-orders/utils"
)

const requestIDHeader = "X-Request-ID"

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		if raw != "" && c.Request.URL.Query().Get("token") == "" {
			path = path + "?" + raw
		}
		fields := logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		}
		if actor, ok := CurrentActor(c); ok {
			fields["tenant"] = actor.TenantID
		}
		utils.InfoLogger.WithFields(fields).Info(path)
	}
}
