package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-orders/apperrors"
	"github.com/yeremiapane/restaurant-orders/models"
	"github.com/yeremiapane/restaurant-orders/services"
	"github.com/yeremiapane/restaurant-orders/utils"
)

// GuestController serves ordering from a guest's device at the table.
type GuestController struct {
	Orders *services.OrderService
}

func NewGuestController(orders *services.OrderService) *GuestController {
	return &GuestController{Orders: orders}
}

type guestOrderRequest struct {
	Table    models.TableRef      `json:"table"`
	Customer services.Customer    `json:"customer"`
	Items    []services.ItemInput `json:"items" binding:"required"`
}

// PlaceOrder -> POST /api/guest/orders
// Joins the table's running order when there is one, otherwise opens it. A
// guest's items add to what the table already ordered.
func (gc *GuestController) PlaceOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var body guestOrderRequest
	if !bindJSON(c, &body) {
		return
	}
	ctx := c.Request.Context()

	active, err := gc.Orders.GetActiveOrderForTable(ctx, actor.TenantID, body.Table)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if active == nil {
		order, err := gc.Orders.CreateOrder(ctx, actor, services.CreateOrderInput{
			Channel:  models.ChannelDineIn,
			Table:    &body.Table,
			Customer: body.Customer,
			Items:    body.Items,
		})
		if err == nil {
			utils.RespondJSON(c, http.StatusCreated, "Order placed", order)
			return
		}
		if apperrors.KindOf(err) != apperrors.Conflict {
			utils.RespondError(c, err)
			return
		}
		// another device at the table opened the order first
		active, err = gc.Orders.GetActiveOrderForTable(ctx, actor.TenantID, body.Table)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if active == nil {
			utils.RespondError(c, apperrors.New(apperrors.Conflict, "table %s is busy, try again", body.Table.Number))
			return
		}
	}

	order, err := gc.Orders.AddItems(ctx, actor, active.ID, body.Items, false)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Items added to the table's order", order)
}

// CallWaiter -> POST /api/guest/waiter
func (gc *GuestController) CallWaiter(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var body struct {
		Table models.TableRef `json:"table"`
	}
	if !bindJSON(c, &body) {
		return
	}

	if err := gc.Orders.CallWaiter(c.Request.Context(), actor, body.Table); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusAccepted, "Waiter called", nil)
}
