package handler

import (
	"net/http"

	"brimasouk/internal/dto"
	"brimasouk/internal/middleware"
	"brimasouk/internal/model"
	"brimasouk/internal/repository"
	"brimasouk/internal/service"

	"github.com/labstack/echo/v4"
)

// AdminHandler serves the review queues and the dashboard. Product review
// goes through ProductHandler.
type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.adminService.Dashboard(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) EnhancedDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.adminService.EnhancedDashboard(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := pageFrom(c)
	if err != nil {
		return err
	}
	approved, err := queryBool(c, "approved")
	if err != nil {
		return err
	}

	users, total, err := h.adminService.ListUsers(ctx, repository.UserFilter{
		Role:             model.Role(c.QueryParam("role")),
		CollaboratorRole: model.CollaboratorRole(c.QueryParam("collaboratorRole")),
		Region:           c.QueryParam("region"),
		Approved:         approved,
		Page:             page,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(users, total, page.Page, page.Size()))
}

func (h *AdminHandler) GetUser(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.adminService.GetUser(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) ListPendingArtisans(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	users, total, err := h.adminService.ListPendingArtisans(ctx, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(users, total, page.Page, page.Size()))
}

func (h *AdminHandler) ApproveArtisan(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.adminService.ApproveArtisan(ctx, middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) RejectArtisan(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RejectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.adminService.RejectArtisan(ctx, middleware.ActorFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) ListPendingCollaborators(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	users, total, err := h.adminService.ListPendingCollaborators(ctx, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(users, total, page.Page, page.Size()))
}

func (h *AdminHandler) ApproveCollaborator(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.adminService.ApproveCollaborator(ctx, middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) RejectCollaborator(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RejectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.adminService.RejectCollaborator(ctx, middleware.ActorFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) ListPendingEvents(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	events, total, err := h.adminService.ListPendingEvents(ctx, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(events, total, page.Page, page.Size()))
}

func (h *AdminHandler) ApproveEvent(c echo.Context) error {
	ctx := c.Request().Context()

	event, err := h.adminService.ApproveEvent(ctx, middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, event)
}

func (h *AdminHandler) RejectEvent(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RejectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	event, err := h.adminService.RejectEvent(ctx, middleware.ActorFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, event)
}
