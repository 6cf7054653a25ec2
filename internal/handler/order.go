package handler

import (
	"net/http"

	"brimasouk/internal/dto"
	"brimasouk/internal/middleware"
	"brimasouk/internal/model"
	"brimasouk/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.orderService.Create(ctx, middleware.ActorFrom(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	orders, total, err := h.orderService.ListMine(ctx, middleware.ActorFrom(c), model.OrderStatus(c.QueryParam("status")), page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(orders, total, page.Page, page.Size()))
}

func (h *OrderHandler) ListArtisan(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	orders, total, err := h.orderService.ListArtisan(ctx, middleware.ActorFrom(c), model.OrderStatus(c.QueryParam("status")), page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(orders, total, page.Page, page.Size()))
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.Get(ctx, middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CancelOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.Cancel(ctx, middleware.ActorFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

// VerifyPayment is the return leg of the hosted payment page: ?session_id=.
func (h *OrderHandler) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		sessionID = c.QueryParam("sessionId")
	}

	resp, err := h.orderService.VerifyPayment(ctx, middleware.ActorFrom(c), c.Param("id"), sessionID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.orderService.CheckoutWithNonce(ctx, middleware.ActorFrom(c), c.Param("id"), req.Nonce)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateOrderStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.UpdateStatus(ctx, middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}
