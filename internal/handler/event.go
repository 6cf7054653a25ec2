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

type EventHandler struct {
	eventService service.EventService
}

func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

func (h *EventHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := pageFrom(c)
	if err != nil {
		return err
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}

	events, total, err := h.eventService.List(ctx, repository.EventFilter{
		ArtisanID:      c.QueryParam("artisanId"),
		Region:         c.QueryParam("region"),
		ExperienceType: model.ExperienceType(c.QueryParam("experienceType")),
		StartsAfter:    from,
		Page:           page,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(events, total, page.Page, page.Size()))
}

func (h *EventHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	event, err := h.eventService.Get(ctx, middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateEventRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	event, err := h.eventService.Create(ctx, middleware.ActorFrom(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateEventRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	event, err := h.eventService.Update(ctx, middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Book(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.BookEventRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	reservation, err := h.eventService.Book(ctx, middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, reservation)
}

func (h *EventHandler) CancelReservation(c echo.Context) error {
	ctx := c.Request().Context()

	reservation, err := h.eventService.CancelReservation(ctx, middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, reservation)
}

func (h *EventHandler) ListMyReservations(c echo.Context) error {
	ctx := c.Request().Context()

	reservations, err := h.eventService.ListMyReservations(ctx, middleware.ActorFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, reservations)
}

func (h *EventHandler) ListEventReservations(c echo.Context) error {
	ctx := c.Request().Context()

	reservations, err := h.eventService.ListEventReservations(ctx, middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, reservations)
}

func (h *EventHandler) ListArtisanEvents(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	events, total, err := h.eventService.ListArtisanEvents(ctx, middleware.ActorFrom(c), page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(events, total, page.Page, page.Size()))
}
