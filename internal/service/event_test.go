package service

import (
	"context"
	"strings"
	"time"

	"brimasouk/internal/apperror"
	"brimasouk/internal/auth"
	"brimasouk/internal/dto"
	"brimasouk/internal/model"
	"brimasouk/internal/notify"
	"brimasouk/internal/repository"
	"brimasouk/internal/testutil"

	"gorm.io/gorm"
)

func (s *ServiceSuite) createEvent(artisan auth.Actor, maxParticipants int) *model.Event {
	start := time.Now().UTC().Add(48 * time.Hour)
	event, err := s.events.Create(s.ctx, artisan, dto.CreateEventRequest{
		Title:           "Pottery on the wheel",
		Description:     "Two hours in a Nabeul workshop",
		Location:        model.Location{City: "Nabeul", Region: "Nabeul"},
		StartDate:       start,
		EndDate:         start.Add(2 * time.Hour),
		MaxParticipants: maxParticipants,
		DurationMinutes: 120,
		ExperienceType:  model.ExperienceWorkshop,
		Price:           money("35"),
	})
	s.Require().NoError(err)
	return event
}

func (s *ServiceSuite) approvedEvent(artisan auth.Actor, maxParticipants int) *model.Event {
	event := s.createEvent(artisan, maxParticipants)
	approved, err := s.admin.ApproveEvent(s.ctx, s.adminActor, event.ID)
	s.Require().NoError(err)
	return approved
}

func booking(participants int) dto.BookEventRequest {
	return dto.BookEventRequest{FullName: "Salma", Email: "Salma@Example.com", NumberOfParticipants: participants}
}

func (s *ServiceSuite) participantsOf(eventID string) int {
	event, err := s.eventRepo.FindByID(s.ctx, nil, eventID)
	s.Require().NoError(err)
	return event.CurrentParticipants
}

func (s *ServiceSuite) TestCreateEventValidation() {
	artisan := s.createUser(model.RoleArtisan, true)
	start := time.Now().Add(time.Hour)
	req := dto.CreateEventRequest{
		Title:           "Weaving",
		Description:     "Carpet weaving",
		StartDate:       start,
		EndDate:         start.Add(-time.Minute),
		DurationMinutes: 60,
		ExperienceType:  model.ExperienceDemonstration,
	}

	_, err := s.events.Create(s.ctx, artisan, req)
	s.True(apperror.Is(err, apperror.KindValidation))

	req.EndDate = start.Add(time.Hour)
	_, err = s.events.Create(s.ctx, s.createUser(model.RoleUser, false), req)
	s.True(apperror.Is(err, apperror.KindAuthorization))

	req.IsFree = true
	req.Price = money("20")
	event, err := s.events.Create(s.ctx, artisan, req)
	s.Require().NoError(err)
	s.True(event.Price.IsZero())
	s.Equal(model.DefaultMaxParticipants, event.MaxParticipants)
	s.False(event.IsApproved)
}

func (s *ServiceSuite) TestBookingRespectsCapacity() {
	customer := s.createUser(model.RoleUser, false)
	event := s.approvedEvent(s.createUser(model.RoleArtisan, true), 3)

	first, err := s.events.Book(s.ctx, customer, event.ID, booking(2))
	s.Require().NoError(err)
	s.Equal(model.ReservationConfirmed, first.Status)
	s.True(strings.HasPrefix(first.PromoCode, "EVENT-"))
	s.Len(first.PromoCode, len("EVENT-")+6)
	s.Equal("salma@example.com", first.Email)
	s.Contains(s.notifier.kinds(), notify.EventBooked)

	_, err = s.events.Book(s.ctx, customer, event.ID, booking(2))
	s.True(apperror.Is(err, apperror.KindConflict))
	s.Equal(2, s.participantsOf(event.ID))

	_, err = s.events.Book(s.ctx, customer, event.ID, booking(0))
	s.Require().NoError(err)
	s.Equal(3, s.participantsOf(event.ID))

	_, err = s.events.Book(s.ctx, customer, event.ID, booking(1))
	s.True(apperror.Is(err, apperror.KindConflict))
	s.Equal(3, s.participantsOf(event.ID))
}

func (s *ServiceSuite) TestBookingUnapprovedEvent() {
	event := s.createEvent(s.createUser(model.RoleArtisan, true), 5)

	_, err := s.events.Book(s.ctx, s.createUser(model.RoleUser, false), event.ID, booking(1))
	s.True(apperror.Is(err, apperror.KindConflict))

	_, err = s.events.Book(s.ctx, s.createUser(model.RoleUser, false), "missing", booking(1))
	s.True(apperror.Is(err, apperror.KindNotFound))
}

func (s *ServiceSuite) TestBookingEndedEvent() {
	artisan := s.createUser(model.RoleArtisan, true)
	start := time.Now().UTC().Add(-5 * time.Hour)
	event, err := s.events.Create(s.ctx, artisan, dto.CreateEventRequest{
		Title:           "Morning market tour",
		Description:     "Walk through the souk",
		StartDate:       start,
		EndDate:         start.Add(2 * time.Hour),
		DurationMinutes: 120,
		ExperienceType:  model.ExperienceVisit,
	})
	s.Require().NoError(err)
	_, err = s.admin.ApproveEvent(s.ctx, s.adminActor, event.ID)
	s.Require().NoError(err)

	_, err = s.events.Book(s.ctx, s.createUser(model.RoleUser, false), event.ID, booking(1))
	s.True(apperror.Is(err, apperror.KindConflict))
	s.Equal(0, s.participantsOf(event.ID))
}

func (s *ServiceSuite) TestBookingMoreThanSpotsLeft() {
	event := s.approvedEvent(s.createUser(model.RoleArtisan, true), 4)
	_, err := s.events.Book(s.ctx, s.createUser(model.RoleUser, false), event.ID, booking(3))
	s.Require().NoError(err)

	_, err = s.events.Book(s.ctx, s.createUser(model.RoleUser, false), event.ID, booking(2))
	s.Require().Error(err)
	var appErr *apperror.Error
	s.Require().ErrorAs(err, &appErr)
	s.Equal(apperror.KindConflict, appErr.Kind)
	s.Equal(1, appErr.Context["spotsLeft"])
	s.Equal(3, s.participantsOf(event.ID))
}

func (s *ServiceSuite) TestCancelReservationReleasesSeats() {
	customer := s.createUser(model.RoleUser, false)
	event := s.approvedEvent(s.createUser(model.RoleArtisan, true), 5)

	reservation, err := s.events.Book(s.ctx, customer, event.ID, booking(2))
	s.Require().NoError(err)

	_, err = s.events.CancelReservation(s.ctx, s.createUser(model.RoleUser, false), reservation.ID)
	s.True(apperror.Is(err, apperror.KindAuthorization))

	cancelled, err := s.events.CancelReservation(s.ctx, customer, reservation.ID)
	s.Require().NoError(err)
	s.Equal(model.ReservationCanceled, cancelled.Status)
	s.Equal(0, s.participantsOf(event.ID))

	_, err = s.events.CancelReservation(s.ctx, customer, reservation.ID)
	s.True(apperror.Is(err, apperror.KindConflict))
}

func (s *ServiceSuite) TestCancelReservationNeverGoesNegative() {
	customer := s.createUser(model.RoleUser, false)
	event := s.approvedEvent(s.createUser(model.RoleArtisan, true), 5)

	reservation, err := s.events.Book(s.ctx, customer, event.ID, booking(3))
	s.Require().NoError(err)
	s.Require().NoError(s.db.Model(&model.Event{}).Where("id = ?", event.ID).Update("current_participants", 1).Error)

	_, err = s.events.CancelReservation(s.ctx, customer, reservation.ID)
	s.Require().NoError(err)
	s.Equal(0, s.participantsOf(event.ID))
}

func (s *ServiceSuite) TestPublicEventListing() {
	artisan := s.createUser(model.RoleArtisan, true)
	approved := s.approvedEvent(artisan, 5)
	pending := s.createEvent(artisan, 5)

	events, total, err := s.events.List(s.ctx, repository.EventFilter{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(approved.ID, events[0].ID)

	_, err = s.events.Get(s.ctx, auth.Actor{}, pending.ID)
	s.True(apperror.Is(err, apperror.KindNotFound))

	_, err = s.events.Get(s.ctx, artisan, pending.ID)
	s.NoError(err)

	mine, total, err := s.events.ListArtisanEvents(s.ctx, artisan, repository.Page{})
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Len(mine, 2)
}

func (s *ServiceSuite) TestArtisanEditSendsEventBackToReview() {
	artisan := s.createUser(model.RoleArtisan, true)
	event := s.approvedEvent(artisan, 5)

	title := "Pottery for beginners"
	updated, err := s.events.Update(s.ctx, artisan, event.ID, dto.UpdateEventRequest{Title: &title})
	s.Require().NoError(err)
	s.Equal(title, updated.Title)
	s.False(updated.IsApproved)

	_, err = s.events.Update(s.ctx, s.createUser(model.RoleArtisan, true), event.ID, dto.UpdateEventRequest{Title: &title})
	s.True(apperror.Is(err, apperror.KindAuthorization))
}

func (s *ServiceSuite) TestAdminEditKeepsEventApproved() {
	event := s.approvedEvent(s.createUser(model.RoleArtisan, true), 5)

	title := "Pottery for families"
	updated, err := s.events.Update(s.ctx, s.adminActor, event.ID, dto.UpdateEventRequest{Title: &title})
	s.Require().NoError(err)
	s.True(updated.IsApproved)

	public, err := s.events.Get(s.ctx, auth.Actor{}, event.ID)
	s.Require().NoError(err)
	s.Equal(title, public.Title)
}

// bookingDuringRead lands a booking between a service's read and its write.
type bookingDuringRead struct {
	repository.EventRepository
	seats int
}

func (r *bookingDuringRead) FindByID(ctx context.Context, tx *gorm.DB, eventID string) (*model.Event, error) {
	event, err := r.EventRepository.FindByID(ctx, tx, eventID)
	if err != nil || r.seats == 0 {
		return event, err
	}
	seats := r.seats
	r.seats = 0
	return event, r.EventRepository.AddParticipants(ctx, tx, eventID, seats)
}

func (s *ServiceSuite) TestEventEditsKeepConcurrentBookings() {
	artisan := s.createUser(model.RoleArtisan, true)
	event := s.createEvent(artisan, 6)

	racing := &bookingDuringRead{EventRepository: s.eventRepo}
	l := testutil.QuietLogger()
	admin := NewAdminService(l, s.notifier, s.userRepo, s.productRepo, racing, s.orderRepo)
	events := NewEventService(s.db, l, s.notifier, racing, s.reservationRepo, s.userRepo)

	racing.seats = 2
	_, err := admin.ApproveEvent(s.ctx, s.adminActor, event.ID)
	s.Require().NoError(err)
	s.Equal(2, s.participantsOf(event.ID))

	racing.seats = 1
	title := "Evening pottery"
	_, err = events.Update(s.ctx, s.adminActor, event.ID, dto.UpdateEventRequest{Title: &title})
	s.Require().NoError(err)
	s.Equal(3, s.participantsOf(event.ID))

	racing.seats = 1
	_, err = admin.RejectEvent(s.ctx, s.adminActor, event.ID, "Venue changed")
	s.Require().NoError(err)
	s.Equal(4, s.participantsOf(event.ID))
}

func (s *ServiceSuite) TestCapacityCannotDropBelowBookings() {
	artisan := s.createUser(model.RoleArtisan, true)
	event := s.approvedEvent(artisan, 5)
	_, err := s.events.Book(s.ctx, s.createUser(model.RoleUser, false), event.ID, booking(3))
	s.Require().NoError(err)

	capacity := 2
	_, err = s.events.Update(s.ctx, s.adminActor, event.ID, dto.UpdateEventRequest{MaxParticipants: &capacity})
	s.True(apperror.Is(err, apperror.KindConflict))
}

func (s *ServiceSuite) TestEventReservationsVisibleToOwner() {
	artisan := s.createUser(model.RoleArtisan, true)
	customer := s.createUser(model.RoleUser, false)
	event := s.approvedEvent(artisan, 5)
	_, err := s.events.Book(s.ctx, customer, event.ID, booking(1))
	s.Require().NoError(err)

	reservations, err := s.events.ListEventReservations(s.ctx, artisan, event.ID)
	s.Require().NoError(err)
	s.Len(reservations, 1)

	_, err = s.events.ListEventReservations(s.ctx, customer, event.ID)
	s.True(apperror.Is(err, apperror.KindAuthorization))

	mine, err := s.events.ListMyReservations(s.ctx, customer)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Require().NotNil(mine[0].Event)
	s.Equal(event.ID, mine[0].Event.ID)
}

func (s *ServiceSuite) TestRejectEvent() {
	event := s.createEvent(s.createUser(model.RoleArtisan, true), 5)

	pending, total, err := s.admin.ListPendingEvents(s.ctx, repository.Page{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(event.ID, pending[0].ID)

	rejected, err := s.admin.RejectEvent(s.ctx, s.adminActor, event.ID, "Missing address")
	s.Require().NoError(err)
	s.Equal("Missing address", rejected.RejectionReason)

	_, err = s.admin.ApproveEvent(s.ctx, s.adminActor, event.ID)
	s.NoError(err)
	_, err = s.admin.ApproveEvent(s.ctx, s.adminActor, event.ID)
	s.True(apperror.Is(err, apperror.KindConflict))
}

func (s *ServiceSuite) TestDashboard() {
	artisan := s.createUser(model.RoleArtisan, true)
	s.createUser(model.RoleArtisan, false)
	p := s.approvedProduct(artisan, "20", 5)
	_, err := s.products.Create(s.ctx, artisan, dto.CreateProductRequest{Name: "Basket", Description: "Palm leaf", Category: model.CategoryGifts, Price: money("9"), Stock: 1})
	s.Require().NoError(err)
	s.createEvent(artisan, 5)
	s.placeOrder(s.createUser(model.RoleUser, false), p.ID, 1)

	stats, err := s.admin.Dashboard(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(4, stats.TotalUsers)
	s.EqualValues(1, stats.TotalArtisans)
	s.EqualValues(1, stats.PendingArtisans)
	s.EqualValues(2, stats.TotalProducts)
	s.EqualValues(1, stats.PendingProducts)
	s.EqualValues(1, stats.PendingEvents)
	s.EqualValues(1, stats.TotalOrders)
	s.Len(stats.ProductsByCategory, 2)
}

func (s *ServiceSuite) TestEnhancedDashboard() {
	artisan := s.createUser(model.RoleArtisan, true)
	s.approvedEvent(artisan, 5)
	fair := s.createEvent(artisan, 5)
	fairType := model.ExperienceFair
	_, err := s.events.Update(s.ctx, s.adminActor, fair.ID, dto.UpdateEventRequest{ExperienceType: &fairType})
	s.Require().NoError(err)
	_, err = s.admin.ApproveEvent(s.ctx, s.adminActor, fair.ID)
	s.Require().NoError(err)
	s.createEvent(artisan, 5)

	for _, role := range []model.CollaboratorRole{model.CollaboratorMarketer, model.CollaboratorDesigner} {
		applicant := s.createUser(model.RoleUser, false)
		_, err := s.users.ApplyCollaborator(s.ctx, applicant, dto.ApplyCollaboratorRequest{CollaboratorRole: role})
		s.Require().NoError(err)
		if role == model.CollaboratorMarketer {
			_, err = s.admin.ApproveCollaborator(s.ctx, s.adminActor, applicant.ID)
			s.Require().NoError(err)
		}
	}

	stats, err := s.admin.EnhancedDashboard(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, stats.PendingEvents)
	s.EqualValues(2, stats.ApprovedEvents)
	s.EqualValues(1, stats.TotalCollaborators)
	s.EqualValues(1, stats.PendingCollaborators)
	s.Equal([]repository.CollaboratorRoleCount{{Role: model.CollaboratorMarketer, Count: 1}}, stats.CollaboratorsByRole)
	s.ElementsMatch([]repository.ExperienceTypeCount{
		{ExperienceType: model.ExperienceWorkshop, Count: 1},
		{ExperienceType: model.ExperienceFair, Count: 1},
	}, stats.EventsByType)
}
