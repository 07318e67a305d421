package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	OrderHandler *OrderHTTP
	Metrics      http.Handler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	orders := e.Group("/orders")
	orders.POST("", d.OrderHandler.PlaceOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.GET("/:id/invoice", d.OrderHandler.DownloadInvoice)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)
	orders.POST("/:id/items/:itemID/cancel", d.OrderHandler.CancelOrderItem)
	orders.POST("/:id/return", d.OrderHandler.RequestReturn)
	orders.POST("/:id/return/cancel", d.OrderHandler.CancelReturnRequest)
	orders.POST("/:id/replacement", d.OrderHandler.RequestReplacement)
	orders.POST("/:id/replacement/cancel", d.OrderHandler.CancelReplacementRequest)

	payments := e.Group("/payments")
	payments.POST("/:id/paid", d.OrderHandler.MarkPaid)
	payments.POST("/:id/failed", d.OrderHandler.MarkPaymentFailed)

	admin := e.Group("/admin/orders")
	admin.POST("/:id/cancel", d.OrderHandler.AdminCancelOrder)
	admin.POST("/:id/return", d.OrderHandler.AdminReturnOrder)
	admin.PATCH("/:id/status", d.OrderHandler.AdminUpdateStatus)
}
