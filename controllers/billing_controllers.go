package controllers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-orders/apperrors"
	"github.com/yeremiapane/restaurant-orders/billing"
	"github.com/yeremiapane/restaurant-orders/models"
	"github.com/yeremiapane/restaurant-orders/services"
	"github.com/yeremiapane/restaurant-orders/utils"
)

const idempotencyKeyHeader = "Idempotency-Key"

type InvoiceRenderer interface {
	Render(w io.Writer, order models.Order, inv models.Invoice) error
}

// BillingController serves the billing screen: preview, tip, settlement and
// invoices.
type BillingController struct {
	Orders   *services.OrderService
	Renderer InvoiceRenderer
}

func NewBillingController(orders *services.OrderService, renderer InvoiceRenderer) *BillingController {
	return &BillingController{Orders: orders, Renderer: renderer}
}

// PreviewBill -> POST /api/orders/:order_id/bill/preview
func (bc *BillingController) PreviewBill(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}
	var adj billing.Adjustments
	if c.Request.ContentLength != 0 && !bindJSON(c, &adj) {
		return
	}

	bill, err := bc.Orders.PreviewBill(c.Request.Context(), actor, orderID, adj)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill preview", bill)
}

// SetTip -> PUT /api/orders/:order_id/tip
func (bc *BillingController) SetTip(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}
	var body struct {
		Amount  decimal.Decimal `json:"amount"`
		StaffID *uint           `json:"staff_id"`
	}
	if !bindJSON(c, &body) {
		return
	}

	order, err := bc.Orders.SetTip(c.Request.Context(), actor, orderID, body.Amount, body.StaffID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tip recorded", order)
}

// Settle -> POST /api/orders/:order_id/settle
// A retry must carry the first call's payment.settlement_id (or the same
// Idempotency-Key header) to get the settled order back instead of a 409.
func (bc *BillingController) Settle(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}
	var body struct {
		Bill    billing.Bill     `json:"bill"`
		Payment services.Payment `json:"payment"`
	}
	if !bindJSON(c, &body) {
		return
	}
	if body.Payment.SettlementID == "" {
		body.Payment.SettlementID = c.GetHeader(idempotencyKeyHeader)
	}

	order, err := bc.Orders.Settle(c.Request.Context(), actor, orderID, body.Bill, body.Payment)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order settled", order)
}

// GetInvoice -> GET /api/orders/:order_id/invoice
func (bc *BillingController) GetInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}

	inv, err := bc.Orders.GetInvoice(c.Request.Context(), actor.TenantID, orderID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Invoice", inv)
}

// DownloadInvoice -> GET /api/orders/:order_id/invoice/pdf
func (bc *BillingController) DownloadInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}

	order, err := bc.Orders.GetOrder(c.Request.Context(), actor.TenantID, orderID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if order.Invoice == nil {
		utils.RespondError(c, apperrors.New(apperrors.NotFound, "order %d has not been settled", orderID))
		return
	}

	var buf bytes.Buffer
	if err := bc.Renderer.Render(&buf, *order, *order.Invoice); err != nil {
		utils.RespondError(c, fmt.Errorf("render invoice: %w", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, order.Invoice.InvoiceNumber))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
