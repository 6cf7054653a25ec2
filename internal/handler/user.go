package handler

import (
	"net/http"

	"brimasouk/internal/dto"
	"brimasouk/internal/middleware"
	"brimasouk/internal/model"
	"brimasouk/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.userService.Signup(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Signin(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SigninRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.userService.Signin(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) AdminLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SigninRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.userService.AdminLogin(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.userService.ChangePassword(ctx, middleware.ActorFrom(c), req); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Password updated",
	})
}

// GetProfile also serves /auth/me.
func (h *UserHandler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.userService.GetProfile(ctx, middleware.ActorFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.UpdateProfile(ctx, middleware.ActorFrom(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ApplyArtisan(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ApplyArtisanRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.ApplyArtisan(ctx, middleware.ActorFrom(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListArtisans(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	artisans, total, err := h.userService.ListArtisans(ctx, c.QueryParam("region"), page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(artisans, total, page.Page, page.Size()))
}

func (h *UserHandler) GetArtisan(c echo.Context) error {
	ctx := c.Request().Context()

	artisan, err := h.userService.GetArtisan(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, artisan)
}

func (h *UserHandler) ApplyCollaborator(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ApplyCollaboratorRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.ApplyCollaborator(ctx, middleware.ActorFrom(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) ListCollaborators(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	role := model.CollaboratorRole(c.QueryParam("role"))
	collaborators, total, err := h.userService.ListCollaborators(ctx, role, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(collaborators, total, page.Page, page.Size()))
}
