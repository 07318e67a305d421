package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"log/slog"

	"github.com/storefront-labs/fulfillment/internal/clients"
	"github.com/storefront-labs/fulfillment/internal/invoice"
	"github.com/storefront-labs/fulfillment/internal/logging"
	"github.com/storefront-labs/fulfillment/internal/service"
	"github.com/storefront-labs/fulfillment/internal/transport"
)

type AddressGetter interface {
	GetByID(ctx context.Context, id uint) (clients.Address, error)
}

type OrderHTTP struct {
	Svc       *service.OrderService
	Projector *service.Projector
	Invoices  *invoice.Composer
	Addresses AddressGetter
}

// GetID reads the upstream-verified user id. The gateway authenticates and
// injects it; this service only trusts the header.
func (h *OrderHTTP) GetID(c echo.Context) (uint, error) {
	v := c.Request().Header.Get("X-User-ID")
	if v == "" {
		return 0, errors.New("unauthorized")
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("unauthorized")
	}
	return uint(id), nil
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place")

	userID, err := h.GetID(c)
	if err != nil {
		l.Warn("place_order_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("place_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	result, err := h.Svc.PlaceOrder(ctx, req, userID)
	if err != nil {
		return h.mapError(c, l, "place_order_error", err)
	}

	status := http.StatusCreated
	if !result.Success {
		// the order row persists for audit even when payment was declined
		status = http.StatusPaymentRequired
	}
	l.Info("place_order_done", "order_id", result.OrderID, "success", result.Success)
	return c.JSON(status, result)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := orderID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return h.mapError(c, l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, h.Projector.Project(ctx, order))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := h.GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)
	orders, err := h.Svc.ListOrders(ctx, userID, limit, offset)
	if err != nil {
		return h.mapError(c, l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, h.Projector.ProjectList(ctx, orders))
}

func (h *OrderHTTP) DownloadInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.invoice")

	id, err := orderID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return h.mapError(c, l, "invoice_error", err)
	}

	var billTo invoice.BillTo
	if order.AddressID != nil && h.Addresses != nil {
		if addr, err := h.Addresses.GetByID(ctx, *order.AddressID); err == nil {
			billTo = invoice.BillTo{Name: addr.Name, City: addr.City, State: addr.State, Country: addr.Country, Pincode: addr.Pincode}
		} else {
			l.Warn("invoice_address_lookup_failed", "order_id", id, "error", err)
		}
	}

	doc := h.Invoices.Compose(order, billTo)
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%s", invoice.Filename(order.ID)))
	return c.Blob(http.StatusOK, "application/pdf", doc)
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	return h.withReason(c, "order.cancel", h.Svc.CancelOrder)
}

func (h *OrderHTTP) AdminCancelOrder(c echo.Context) error {
	return h.withReason(c, "order.admin_cancel", h.Svc.CancelOrderByAdmin)
}

func (h *OrderHTTP) RequestReturn(c echo.Context) error {
	return h.withReason(c, "order.request_return", h.Svc.RequestReturn)
}

func (h *OrderHTTP) AdminReturnOrder(c echo.Context) error {
	return h.withReason(c, "order.admin_return", h.Svc.ReturnOrderByAdmin)
}

func (h *OrderHTTP) RequestReplacement(c echo.Context) error {
	return h.withReason(c, "order.request_replacement", h.Svc.RequestReplacement)
}

func (h *OrderHTTP) CancelReturnRequest(c echo.Context) error {
	return h.withoutReason(c, "order.cancel_return", h.Svc.CancelReturnRequest)
}

func (h *OrderHTTP) CancelReplacementRequest(c echo.Context) error {
	return h.withoutReason(c, "order.cancel_replacement", h.Svc.CancelReplacementRequest)
}

func (h *OrderHTTP) CancelOrderItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel_item")

	id, err := orderID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	itemID, err := uintParam(c, "itemID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	var req transport.CancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.CancelOrderItem(ctx, id, itemID, req.Reason); err != nil {
		return h.mapError(c, l, "cancel_item_error", err)
	}
	l.Info("cancel_item_done", "order_id", id, "item_id", itemID)
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "item cancelled"})
}

func (h *OrderHTTP) MarkPaid(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.paid")

	id, err := orderID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var req transport.MarkPaidRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.MarkOrderPaid(ctx, id, req.Reference, req.Method, req.Amount); err != nil {
		return h.mapError(c, l, "mark_paid_error", err)
	}
	l.Info("mark_paid_done", "order_id", id)
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "payment recorded"})
}

func (h *OrderHTTP) MarkPaymentFailed(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.failed")

	id, err := orderID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var req transport.MarkFailedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.MarkOrderPaymentFailed(ctx, id, req.Reason); err != nil {
		return h.mapError(c, l, "mark_failed_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "payment failure recorded"})
}

func (h *OrderHTTP) AdminUpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_status")

	id, err := orderID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.UpdateStatusAdmin(ctx, id, req.Status, req.Note); err != nil {
		return h.mapError(c, l, "admin_status_error", err)
	}
	l.Info("admin_status_done", "order_id", id, "new_status", req.Status)
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "status updated"})
}

func (h *OrderHTTP) withReason(c echo.Context, handler string, fn func(ctx context.Context, orderID uint, reason string) error) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	id, err := orderID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var req transport.CancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := fn(ctx, id, req.Reason); err != nil {
		return h.mapError(c, l, handler+"_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "ok"})
}

func (h *OrderHTTP) withoutReason(c echo.Context, handler string, fn func(ctx context.Context, orderID uint) error) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	id, err := orderID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	if err := fn(ctx, id); err != nil {
		return h.mapError(c, l, handler+"_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "ok"})
}

// mapError keeps raw downstream errors out of responses; callers get the
// taxonomy status plus a short message, the root cause stays in the log.
func (h *OrderHTTP) mapError(c echo.Context, l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", 409, "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func orderID(c echo.Context) (uint, error) {
	return uintParam(c, "id")
}

func uintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(v), nil
}

func intQuery(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
