package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-orders/services"
	"github.com/yeremiapane/restaurant-orders/utils"
)

// KitchenController serves kitchen displays.
type KitchenController struct {
	Orders *services.OrderService
}

func NewKitchenController(orders *services.OrderService) *KitchenController {
	return &KitchenController{Orders: orders}
}

// Queue -> GET /api/kitchen/queue
// Displays call it on connect, then follow order.kot.created events.
func (kc *KitchenController) Queue(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	orders, err := kc.Orders.KitchenQueue(c.Request.Context(), actor.TenantID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen queue", orders)
}
