package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-orders/apperrors"
	"github.com/yeremiapane/restaurant-orders/models"
	"github.com/yeremiapane/restaurant-orders/services"
	"github.com/yeremiapane/restaurant-orders/utils"
)

// OrderController serves POS terminals.
type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> POST /api/orders
func (oc *OrderController) CreateOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var body services.CreateOrderInput
	if !bindJSON(c, &body) {
		return
	}

	order, err := oc.Orders.CreateOrder(c.Request.Context(), actor, body)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetOrderByID -> GET /api/orders/:order_id
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}

	order, err := oc.Orders.GetOrder(c.Request.Context(), actor.TenantID, orderID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// AppendItems -> POST /api/orders/:order_id/items
func (oc *OrderController) AppendItems(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}
	var body struct {
		Items   []services.ItemInput `json:"items" binding:"required"`
		HoldKOT bool                 `json:"hold_kot"`
	}
	if !bindJSON(c, &body) {
		return
	}

	order, err := oc.Orders.AppendItems(c.Request.Context(), actor, orderID, body.Items, body.HoldKOT)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Items added", order)
}

// UpdateItemQuantity -> PATCH /api/orders/:order_id/items/:item_id
func (oc *OrderController) UpdateItemQuantity(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}
	itemID, ok := uintParam(c, "item_id")
	if !ok {
		return
	}
	var body struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if !bindJSON(c, &body) {
		return
	}

	order, err := oc.Orders.UpdateItemQuantity(c.Request.Context(), actor, orderID, itemID, *body.Quantity)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item updated", order)
}

// SubmitKOT -> POST /api/orders/:order_id/kot
func (oc *OrderController) SubmitKOT(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}

	batch, err := oc.Orders.SubmitKOT(c.Request.Context(), actor, orderID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if batch == nil {
		utils.RespondJSON(c, http.StatusOK, "Nothing new for the kitchen", nil)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "KOT sent", batch)
}

// ListBatches -> GET /api/orders/:order_id/batches
func (oc *OrderController) ListBatches(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}

	batches, err := oc.Orders.ListBatches(c.Request.Context(), actor.TenantID, orderID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "KOT batches", batches)
}

// AdvanceStatus -> PUT /api/orders/:order_id/status
func (oc *OrderController) AdvanceStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}
	var body struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if !bindJSON(c, &body) {
		return
	}

	order, err := oc.Orders.AdvanceStatus(c.Request.Context(), actor, orderID, body.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// GetActiveOrderForTable -> GET /api/tables/:table_number/active-order?category_id=
func (oc *OrderController) GetActiveOrderForTable(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	table := models.TableRef{Number: c.Param("table_number")}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondError(c, apperrors.New(apperrors.Validation, "invalid category_id"))
			return
		}
		table.CategoryID = uint(id)
	}

	order, err := oc.Orders.GetActiveOrderForTable(c.Request.Context(), actor.TenantID, table)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if order == nil {
		utils.RespondJSON(c, http.StatusOK, "Table is free", nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active order", order)
}
