package handler

import (
	"net/http"
	"strings"

	"brimasouk/internal/apperror"
	"brimasouk/internal/dto"
	"brimasouk/internal/middleware"
	"brimasouk/internal/model"
	"brimasouk/internal/repository"
	"brimasouk/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	productService service.ProductService
	orderService   service.OrderService
}

func NewProductHandler(productService service.ProductService, orderService service.OrderService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		orderService:   orderService,
	}
}

func queryDecimal(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperror.Validation("%s must be a number", name)
	}
	return &d, nil
}

func productFilterFrom(c echo.Context) (repository.ProductFilter, error) {
	page, err := pageFrom(c)
	if err != nil {
		return repository.ProductFilter{}, err
	}
	minPrice, err := queryDecimal(c, "minPrice")
	if err != nil {
		return repository.ProductFilter{}, err
	}
	maxPrice, err := queryDecimal(c, "maxPrice")
	if err != nil {
		return repository.ProductFilter{}, err
	}

	return repository.ProductFilter{
		Category:          model.Category(c.QueryParam("category")),
		ArtisanID:         c.QueryParam("artisanId"),
		PromotionalStatus: model.PromotionalStatus(c.QueryParam("promotionalStatus")),
		MinPrice:          minPrice,
		MaxPrice:          maxPrice,
		Search:            strings.TrimSpace(c.QueryParam("search")),
		Sort:              repository.ProductSort(c.QueryParam("sort")),
		Page:              page,
	}, nil
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	filter, err := productFilterFrom(c)
	if err != nil {
		return err
	}

	products, total, err := h.productService.List(ctx, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(products, total, filter.Page.Page, filter.Page.Size()))
}

func (h *ProductHandler) ListByCategory(c echo.Context) error {
	ctx := c.Request().Context()

	category := model.Category(c.Param("category"))
	if !category.Valid() {
		return apperror.Validation("Invalid category").With("category", category)
	}

	filter, err := productFilterFrom(c)
	if err != nil {
		return err
	}
	filter.Category = category

	products, total, err := h.productService.List(ctx, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(products, total, filter.Page.Page, filter.Page.Size()))
}

func (h *ProductHandler) Section(c echo.Context) error {
	ctx := c.Request().Context()

	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	products, err := h.productService.Section(ctx, service.ProductSection(c.Param("section")), limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.productService.Get(ctx, middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.productService.Create(ctx, middleware.ActorFrom(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := pageFrom(c)
	if err != nil {
		return err
	}
	approved, err := queryBool(c, "approved")
	if err != nil {
		return err
	}

	products, total, err := h.productService.ListMine(ctx, middleware.ActorFrom(c), approved, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(products, total, page.Page, page.Size()))
}

// ArtisanDashboard reports sales over ?from=&to=, defaulting to the last 30 days.
func (h *ProductHandler) ArtisanDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}

	stats, err := h.orderService.ArtisanStats(ctx, middleware.ActorFrom(c), from, to)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *ProductHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.productService.Update(ctx, middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.productService.Delete(ctx, middleware.ActorFrom(c), c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Product removed",
	})
}

func (h *ProductHandler) Approve(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ApproveProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.productService.Approve(ctx, middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Reject(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Reason string `json:"reason"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.productService.Reject(ctx, middleware.ActorFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) ListPending(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	products, total, err := h.productService.ListPending(ctx, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(products, total, page.Page, page.Size()))
}

func (h *ProductHandler) SetPromotion(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PromotionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.productService.SetPromotion(ctx, middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.StockRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.productService.AdjustStock(ctx, middleware.ActorFrom(c), c.Param("id"), req.Delta)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}
