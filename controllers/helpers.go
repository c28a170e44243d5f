package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-orders/apperrors"
	"github.com/yeremiapane/restaurant-orders/middlewares"
	"github.com/yeremiapane/restaurant-orders/services"
	"github.com/yeremiapane/restaurant-orders/utils"
)

func currentActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middlewares.CurrentActor(c)
	if !ok {
		utils.RespondStatus(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	return actor, ok
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, apperrors.New(apperrors.Validation, "invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.RespondError(c, apperrors.Wrap(apperrors.Validation, err, "invalid request body"))
		return false
	}
	return true
}
