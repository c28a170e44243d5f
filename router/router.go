package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-orders/controllers"
	"github.com/yeremiapane/restaurant-orders/kds"
	"github.com/yeremiapane/restaurant-orders/middlewares"
	"github.com/yeremiapane/restaurant-orders/services"
)

// Dependencies are the long-lived objects the routes are served from.
type Dependencies struct {
	Orders      *services.OrderService
	Hub         *kds.Hub
	Renderer    controllers.InvoiceRenderer
	RateLimiter *middlewares.RateLimiter
	// AllowedOrigin restricts CORS and websocket origins; empty allows any.
	AllowedOrigin string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.AllowedOrigin))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.RateLimit())
	}

	orderCtrl := controllers.NewOrderController(deps.Orders)
	billingCtrl := controllers.NewBillingController(deps.Orders, deps.Renderer)
	kitchenCtrl := controllers.NewKitchenController(deps.Orders)
	guestCtrl := controllers.NewGuestController(deps.Orders)
	kdsCtrl := controllers.NewKDSController(deps.Hub, deps.AllowedOrigin)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// real-time channel for POS terminals, kitchen displays and guests
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(), kdsCtrl.Handler)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())

	// POS (staff/admin)
	pos := api.Group("")
	pos.Use(middlewares.RoleCheck(middlewares.RoleStaff))
	{
		pos.POST("/orders", orderCtrl.CreateOrder)
		pos.GET("/orders/:order_id", orderCtrl.GetOrderByID)
		pos.POST("/orders/:order_id/items", orderCtrl.AppendItems)
		pos.PATCH("/orders/:order_id/items/:item_id", orderCtrl.UpdateItemQuantity)
		pos.POST("/orders/:order_id/kot", orderCtrl.SubmitKOT)
		pos.GET("/orders/:order_id/batches", orderCtrl.ListBatches)
		pos.PUT("/orders/:order_id/status", orderCtrl.AdvanceStatus)
		pos.GET("/tables/:table_number/active-order", orderCtrl.GetActiveOrderForTable)
	}

	// Billing (staff/admin)
	bill := pos.Group("/orders/:order_id")
	bill.Use(middlewares.NoStore())
	{
		bill.POST("/bill/preview", billingCtrl.PreviewBill)
		bill.PUT("/tip", billingCtrl.SetTip)
		bill.POST("/settle", middlewares.SettlementLogger(), billingCtrl.Settle)
		bill.GET("/invoice", billingCtrl.GetInvoice)
		bill.GET("/invoice/pdf", billingCtrl.DownloadInvoice)
	}

	// Kitchen display (chef/staff/admin)
	kitchen := api.Group("/kitchen")
	kitchen.Use(middlewares.RoleCheck(middlewares.RoleChef, middlewares.RoleStaff))
	{
		kitchen.GET("/queue", kitchenCtrl.Queue)
		kitchen.GET("/orders/:order_id/batches", orderCtrl.ListBatches)
		kitchen.PUT("/orders/:order_id/status", orderCtrl.AdvanceStatus)
	}

	// Guest ordering (guest session issued for a table)
	guest := api.Group("/guest")
	guest.Use(middlewares.RoleCheck(middlewares.RoleGuest, middlewares.RoleStaff))
	{
		guest.POST("/orders", guestCtrl.PlaceOrder)
		guest.POST("/waiter", guestCtrl.CallWaiter)
	}

	return r
}
