package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sport_shop/internal/service/order"
	"github.com/Skotchmaster/sport_shop/internal/transport"
	"github.com/Skotchmaster/sport_shop/pkg/logging"
)

type OrderHTTP struct {
	Svc *order.OrderService
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place_order")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req transport.PlaceOrderRequest
	if err := bind(c, &req); err != nil {
		l.Warn("place_order_failed", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	placed, err := h.Svc.PlaceOrder(ctx, p, req)
	if err != nil {
		return fail(l, "place_order_failed", err, "cannot place order")
	}
	return c.JSON(http.StatusCreated, placed)
}

func (h *OrderHTTP) GetMyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_my_orders")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	orders, err := h.Svc.ListMyOrders(ctx, p)
	if err != nil {
		return fail(l, "get_my_orders_error", err, "cannot get orders")
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	orders, err := h.Svc.ListOrders(ctx, p)
	if err != nil {
		return fail(l, "get_orders_error", err, "cannot get orders")
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "get_order_failed")
	if err != nil {
		return err
	}
	o, err := h.Svc.GetOrder(ctx, p, id)
	if err != nil {
		return fail(l, "get_order_failed", err, "cannot get order")
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) MarkPaid(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.mark_paid")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "mark_paid_failed")
	if err != nil {
		return err
	}
	o, err := h.Svc.MarkOrderPaid(ctx, p, id)
	if err != nil {
		return fail(l, "mark_paid_failed", err, "cannot update order")
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) MarkDelivered(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.mark_delivered")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "mark_delivered_failed")
	if err != nil {
		return err
	}
	o, err := h.Svc.MarkOrderDelivered(ctx, p, id)
	if err != nil {
		return fail(l, "mark_delivered_failed", err, "cannot update order")
	}
	return c.JSON(http.StatusOK, o)
}
