package handler

import (
	"net/http"

	"brimasouk/internal/dto"
	"brimasouk/internal/middleware"
	"brimasouk/internal/service"

	"github.com/labstack/echo/v4"
)

type PromoCodeHandler struct {
	promoService service.PromoCodeService
}

func NewPromoCodeHandler(promoService service.PromoCodeService) *PromoCodeHandler {
	return &PromoCodeHandler{
		promoService: promoService,
	}
}

func (h *PromoCodeHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePromoCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	promo, err := h.promoService.Create(ctx, middleware.ActorFrom(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, promo)
}

func (h *PromoCodeHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	promos, err := h.promoService.List(ctx, middleware.ActorFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, promos)
}

func (h *PromoCodeHandler) Validate(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ValidatePromoCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.promoService.Validate(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *PromoCodeHandler) Apply(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ApplyPromoCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	promo, err := h.promoService.Apply(ctx, req.Code)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, promo)
}
