package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"brimasouk/internal/apperror"
	"brimasouk/internal/auth"
	"brimasouk/internal/dto"
	"brimasouk/internal/metrics"
	"brimasouk/internal/model"
	"brimasouk/internal/notify"
	"brimasouk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const reservationCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type EventService interface {
	Create(ctx context.Context, actor auth.Actor, req dto.CreateEventRequest) (*model.Event, error)
	Get(ctx context.Context, actor auth.Actor, eventID string) (*model.Event, error)
	// List returns approved events; without StartsAfter only upcoming ones.
	List(ctx context.Context, filter repository.EventFilter) ([]*model.Event, int64, error)
	Update(ctx context.Context, actor auth.Actor, eventID string, req dto.UpdateEventRequest) (*model.Event, error)
	Book(ctx context.Context, actor auth.Actor, eventID string, req dto.BookEventRequest) (*model.Reservation, error)
	CancelReservation(ctx context.Context, actor auth.Actor, reservationID string) (*model.Reservation, error)
	ListMyReservations(ctx context.Context, actor auth.Actor) ([]*model.Reservation, error)
	ListEventReservations(ctx context.Context, actor auth.Actor, eventID string) ([]*model.Reservation, error)
	ListArtisanEvents(ctx context.Context, actor auth.Actor, page repository.Page) ([]*model.Event, int64, error)
}

type eventServiceImpl struct {
	db              *gorm.DB
	l               *log.Logger
	notifier        notify.Notifier
	eventRepo       repository.EventRepository
	reservationRepo repository.ReservationRepository
	userRepo        repository.UserRepository
	now             func() time.Time
}

func NewEventService(
	db *gorm.DB,
	l *log.Logger,
	notifier notify.Notifier,
	eventRepo repository.EventRepository,
	reservationRepo repository.ReservationRepository,
	userRepo repository.UserRepository,
) EventService {
	return &eventServiceImpl{
		db:              db,
		l:               l,
		notifier:        notifier,
		eventRepo:       eventRepo,
		reservationRepo: reservationRepo,
		userRepo:        userRepo,
		now:             time.Now,
	}
}

// newReservationCode returns an opaque code such as EVENT-K3Z9QA.
func newReservationCode() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = reservationCodeAlphabet[rand.IntN(len(reservationCodeAlphabet))]
	}
	return "EVENT-" + string(b)
}

func validateSchedule(start, end time.Time, duration int) error {
	if start.IsZero() || end.IsZero() {
		return apperror.Validation("Start and end dates are required")
	}
	if !end.After(start) {
		return apperror.Validation("End date must be after start date").With("field", "endDate")
	}
	if duration <= 0 {
		return apperror.Validation("Duration is required").With("field", "durationMinutes")
	}
	return nil
}

func (s *eventServiceImpl) Create(ctx context.Context, actor auth.Actor, req dto.CreateEventRequest) (*model.Event, error) {
	artisan, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if artisan.Role != model.RoleArtisan {
		return nil, apperror.Forbidden("Only artisans can create events")
	}
	if !artisan.IsApproved {
		return nil, apperror.Forbidden("Your artisan account must be approved to create events")
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, apperror.Validation("Title and description are required")
	}
	if err := validateSchedule(req.StartDate, req.EndDate, req.DurationMinutes); err != nil {
		return nil, err
	}
	if !req.ExperienceType.Valid() {
		return nil, apperror.Validation("Invalid experience type").With("experienceType", req.ExperienceType)
	}
	if req.Price.IsNegative() {
		return nil, apperror.Validation("Price cannot be negative").With("field", "price")
	}

	maxParticipants := req.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = model.DefaultMaxParticipants
	}
	price := req.Price.Round(2)
	if req.IsFree {
		price = decimal.Zero
	}

	event := &model.Event{
		ID:              uuid.NewString(),
		ArtisanID:       actor.ID,
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Location:        req.Location,
		Images:          req.Images,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		MaxParticipants: maxParticipants,
		Price:           price,
		IsFree:          req.IsFree,
		DurationMinutes: req.DurationMinutes,
		ExperienceType:  req.ExperienceType,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.l.WithFields(log.Fields{"eventId": event.ID, "artisanId": actor.ID}).Info("event submitted for approval")
	return event, nil
}

func (s *eventServiceImpl) Get(ctx context.Context, actor auth.Actor, eventID string) (*model.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, nil, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsApproved && !actor.CanManage(event.ArtisanID) {
		return nil, apperror.NotFound("Event not found").With("id", eventID)
	}
	return event, nil
}

func (s *eventServiceImpl) List(ctx context.Context, filter repository.EventFilter) ([]*model.Event, int64, error) {
	filter.Approved = boolPtr(true)
	if filter.StartsAfter == nil {
		now := s.now().UTC()
		filter.StartsAfter = &now
	}
	return s.eventRepo.List(ctx, filter)
}

func (s *eventServiceImpl) Update(ctx context.Context, actor auth.Actor, eventID string, req dto.UpdateEventRequest) (*model.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, nil, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(event.ArtisanID) {
		return nil, apperror.Forbidden("Not authorized to update this event")
	}

	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.Images != nil {
		event.Images = req.Images
	}
	if req.StartDate != nil {
		event.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		event.EndDate = *req.EndDate
	}
	if req.DurationMinutes != nil {
		event.DurationMinutes = *req.DurationMinutes
	}
	if req.MaxParticipants != nil {
		if *req.MaxParticipants < event.CurrentParticipants {
			return nil, apperror.Conflict("Capacity cannot be lower than current bookings").With("currentParticipants", event.CurrentParticipants)
		}
		event.MaxParticipants = *req.MaxParticipants
	}
	if req.ExperienceType != nil {
		if !req.ExperienceType.Valid() {
			return nil, apperror.Validation("Invalid experience type").With("experienceType", *req.ExperienceType)
		}
		event.ExperienceType = *req.ExperienceType
	}
	if req.IsFree != nil {
		event.IsFree = *req.IsFree
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apperror.Validation("Price cannot be negative").With("field", "price")
		}
		event.Price = req.Price.Round(2)
	}
	if event.IsFree {
		event.Price = decimal.Zero
	}

	if err := validateSchedule(event.StartDate, event.EndDate, event.DurationMinutes); err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && event.IsApproved {
		event.IsApproved = false
		event.ApprovedBy = ""
	}

	if err := s.eventRepo.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}
	return event, nil
}

func (s *eventServiceImpl) Book(ctx context.Context, actor auth.Actor, eventID string, req dto.BookEventRequest) (*model.Reservation, error) {
	participants := req.NumberOfParticipants
	if participants == 0 {
		participants = 1
	}
	if participants < 0 {
		return nil, apperror.Validation("Number of participants must be positive")
	}

	reservation := &model.Reservation{
		ID:                   uuid.NewString(),
		EventID:              eventID,
		UserID:               actor.ID,
		FullName:             strings.TrimSpace(req.FullName),
		Email:                strings.ToLower(strings.TrimSpace(req.Email)),
		PhoneNumber:          req.PhoneNumber,
		NumberOfParticipants: participants,
		SpecialRequirements:  req.SpecialRequirements,
		Status:               model.ReservationConfirmed,
		PromoCode:            newReservationCode(),
	}

	var event *model.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = s.eventRepo.FindByID(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !event.IsApproved {
			return apperror.Conflict("This event is not available for booking")
		}
		if event.HasEnded(s.now()) {
			return apperror.Conflict("This event has already ended")
		}
		if event.IsFull() {
			return apperror.Conflict("This event is fully booked")
		}
		if participants > event.SpotsLeft() {
			return apperror.Conflict("Not enough spots left").With("spotsLeft", event.SpotsLeft())
		}

		if err := s.eventRepo.AddParticipants(ctx, tx, eventID, participants); err != nil {
			return err
		}
		return s.reservationRepo.Create(ctx, tx, reservation)
	})
	if err != nil {
		metrics.EventBookings.WithLabelValues("rejected").Inc()
		return nil, err
	}

	metrics.EventBookings.WithLabelValues("confirmed").Inc()
	event.CurrentParticipants += participants
	reservation.Event = event

	s.l.WithFields(log.Fields{"eventId": eventID, "reservationId": reservation.ID, "participants": participants}).Info("event booked")
	s.notifier.Notify(notify.Notification{
		Kind:    notify.EventBooked,
		UserID:  actor.ID,
		Title:   "Booking confirmed",
		Message: fmt.Sprintf("Your booking for %q is confirmed. Your code: %s", event.Title, reservation.PromoCode),
		Data:    map[string]any{"eventId": eventID, "reservationId": reservation.ID},
	})

	return reservation, nil
}

func (s *eventServiceImpl) CancelReservation(ctx context.Context, actor auth.Actor, reservationID string) (*model.Reservation, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(reservation.UserID) {
		return nil, apperror.Forbidden("Not authorized to cancel this reservation")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.eventRepo.FindByID(ctx, tx, reservation.EventID); err != nil {
			return err
		}
		if err := s.reservationRepo.MarkCanceled(ctx, tx, reservation.ID); err != nil {
			return err
		}
		return s.eventRepo.RemoveParticipants(ctx, tx, reservation.EventID, reservation.NumberOfParticipants)
	})
	if err != nil {
		return nil, err
	}

	reservation.Status = model.ReservationCanceled
	s.notifier.Notify(notify.Notification{
		Kind:    notify.ReservationCancel,
		UserID:  reservation.UserID,
		Title:   "Reservation cancelled",
		Message: "Your reservation has been cancelled.",
		Data:    map[string]any{"eventId": reservation.EventID, "reservationId": reservation.ID},
	})

	return reservation, nil
}

func (s *eventServiceImpl) ListMyReservations(ctx context.Context, actor auth.Actor) ([]*model.Reservation, error) {
	return s.reservationRepo.ListByUser(ctx, actor.ID)
}

func (s *eventServiceImpl) ListEventReservations(ctx context.Context, actor auth.Actor, eventID string) ([]*model.Reservation, error) {
	event, err := s.eventRepo.FindByID(ctx, nil, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(event.ArtisanID) {
		return nil, apperror.Forbidden("Not authorized to view these reservations")
	}
	return s.reservationRepo.ListByEvent(ctx, eventID)
}

func (s *eventServiceImpl) ListArtisanEvents(ctx context.Context, actor auth.Actor, page repository.Page) ([]*model.Event, int64, error) {
	if !actor.IsArtisan() {
		return nil, 0, apperror.Forbidden("Access denied. Not an artisan.")
	}
	return s.eventRepo.List(ctx, repository.EventFilter{ArtisanID: actor.ID, Page: page})
}
