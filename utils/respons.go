package utils

import (
	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-orders/apperrors"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError writes err with the status its kind maps to. Errors without a
// kind are logged and reported as internal errors.
func RespondError(c *gin.Context, err error) {
	code := apperrors.HTTPStatus(err)
	kind := apperrors.KindOf(err)
	message := err.Error()
	if kind == "" {
		ErrorLogger.WithField("path", c.Request.URL.Path).Errorf("request failed: %v", err)
		message = "internal server error"
	}
	c.AbortWithStatusJSON(code, JSONResponse{
		Status:  false,
		Message: message,
		Code:    string(kind),
	})
}

// RespondStatus writes a failure with an explicit status, for transport-level
// problems such as an unparsable request body.
func RespondStatus(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
	})
}
