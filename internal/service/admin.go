package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brimasouk/internal/apperror"
	"brimasouk/internal/auth"
	"brimasouk/internal/dto"
	"brimasouk/internal/model"
	"brimasouk/internal/notify"
	"brimasouk/internal/repository"

	log "github.com/sirupsen/logrus"
)

type AdminService interface {
	ListPendingArtisans(ctx context.Context, page repository.Page) ([]*model.User, int64, error)
	ApproveArtisan(ctx context.Context, actor auth.Actor, userID string) (*model.User, error)
	RejectArtisan(ctx context.Context, actor auth.Actor, userID, reason string) (*model.User, error)

	ListPendingCollaborators(ctx context.Context, page repository.Page) ([]*model.User, int64, error)
	ApproveCollaborator(ctx context.Context, actor auth.Actor, userID string) (*model.User, error)
	RejectCollaborator(ctx context.Context, actor auth.Actor, userID, reason string) (*model.User, error)

	ListPendingEvents(ctx context.Context, page repository.Page) ([]*model.Event, int64, error)
	ApproveEvent(ctx context.Context, actor auth.Actor, eventID string) (*model.Event, error)
	RejectEvent(ctx context.Context, actor auth.Actor, eventID, reason string) (*model.Event, error)

	ListUsers(ctx context.Context, filter repository.UserFilter) ([]*model.User, int64, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	Dashboard(ctx context.Context) (*dto.DashboardStats, error)
	EnhancedDashboard(ctx context.Context) (*dto.EnhancedDashboardStats, error)
}

type adminServiceImpl struct {
	l           *log.Logger
	notifier    notify.Notifier
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	eventRepo   repository.EventRepository
	orderRepo   repository.OrderRepository
	now         func() time.Time
}

func NewAdminService(
	l *log.Logger,
	notifier notify.Notifier,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	eventRepo repository.EventRepository,
	orderRepo repository.OrderRepository,
) AdminService {
	return &adminServiceImpl{
		l:           l,
		notifier:    notifier,
		userRepo:    userRepo,
		productRepo: productRepo,
		eventRepo:   eventRepo,
		orderRepo:   orderRepo,
		now:         time.Now,
	}
}

func requireReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperror.Validation("Rejection reason is required").With("field", "reason")
	}
	return reason, nil
}

func (s *adminServiceImpl) ListPendingArtisans(ctx context.Context, page repository.Page) ([]*model.User, int64, error) {
	return s.userRepo.List(ctx, repository.UserFilter{
		Role:     model.RoleArtisan,
		Approved: boolPtr(false),
		Page:     page,
	})
}

func (s *adminServiceImpl) findArtisan(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleArtisan {
		return nil, apperror.Conflict("User is not an artisan").With("userId", userID)
	}
	return user, nil
}

func (s *adminServiceImpl) ApproveArtisan(ctx context.Context, actor auth.Actor, userID string) (*model.User, error) {
	user, err := s.findArtisan(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsApproved {
		return nil, apperror.Conflict("Artisan is already approved").With("userId", userID)
	}

	now := s.now()
	user.IsApproved = true
	user.ArtisanDetails.ApprovedDate = &now
	user.ArtisanDetails.ApprovedBy = actor.ID
	user.ArtisanDetails.RejectionReason = ""

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save artisan: %w", err)
	}

	s.l.WithFields(log.Fields{"userId": user.ID, "by": actor.ID}).Info("artisan approved")
	s.notifier.Notify(notify.Notification{
		Kind:    notify.ArtisanReviewed,
		UserID:  user.ID,
		Title:   "Artisan application approved",
		Message: "You can now publish products and events.",
		Data:    map[string]any{"approved": true},
	})
	return user, nil
}

func (s *adminServiceImpl) RejectArtisan(ctx context.Context, actor auth.Actor, userID, reason string) (*model.User, error) {
	reason, err := requireReason(reason)
	if err != nil {
		return nil, err
	}
	user, err := s.findArtisan(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user.Role = model.RoleUser
	user.IsApproved = false
	user.ArtisanDetails.RejectionReason = reason
	user.ArtisanDetails.RejectionDate = &now
	user.ArtisanDetails.RejectedBy = actor.ID

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save artisan: %w", err)
	}

	s.notifier.Notify(notify.Notification{
		Kind:    notify.ArtisanReviewed,
		UserID:  user.ID,
		Title:   "Artisan application rejected",
		Message: reason,
		Data:    map[string]any{"approved": false},
	})
	return user, nil
}

func (s *adminServiceImpl) ListPendingCollaborators(ctx context.Context, page repository.Page) ([]*model.User, int64, error) {
	return s.userRepo.List(ctx, repository.UserFilter{
		Role:     model.RoleCollaborator,
		Approved: boolPtr(false),
		Page:     page,
	})
}

func (s *adminServiceImpl) findCollaborator(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleCollaborator || !user.CollaboratorRole.Valid() {
		return nil, apperror.Conflict("User is not a collaborator").With("userId", userID)
	}
	return user, nil
}

func (s *adminServiceImpl) ApproveCollaborator(ctx context.Context, actor auth.Actor, userID string) (*model.User, error) {
	user, err := s.findCollaborator(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.CollaboratorDetails.IsApproved {
		return nil, apperror.Conflict("Collaborator is already approved").With("userId", userID)
	}

	now := s.now()
	user.CollaboratorDetails.IsApproved = true
	user.CollaboratorDetails.ApprovedDate = &now
	user.CollaboratorDetails.ApprovedBy = actor.ID
	user.CollaboratorDetails.RejectionReason = ""

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save collaborator: %w", err)
	}
	return user, nil
}

// RejectCollaborator returns the user to a plain customer so they may apply again.
func (s *adminServiceImpl) RejectCollaborator(ctx context.Context, actor auth.Actor, userID, reason string) (*model.User, error) {
	reason, err := requireReason(reason)
	if err != nil {
		return nil, err
	}
	user, err := s.findCollaborator(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user.Role = model.RoleUser
	user.CollaboratorRole = model.CollaboratorNone
	user.CollaboratorDetails.IsApproved = false
	user.CollaboratorDetails.RejectionReason = reason
	user.CollaboratorDetails.RejectionDate = &now

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save collaborator: %w", err)
	}
	return user, nil
}

func (s *adminServiceImpl) ListPendingEvents(ctx context.Context, page repository.Page) ([]*model.Event, int64, error) {
	return s.eventRepo.List(ctx, repository.EventFilter{Approved: boolPtr(false), Page: page})
}

func (s *adminServiceImpl) ApproveEvent(ctx context.Context, actor auth.Actor, eventID string) (*model.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, nil, eventID)
	if err != nil {
		return nil, err
	}
	if event.IsApproved {
		return nil, apperror.Conflict("Event is already approved").With("eventId", eventID)
	}

	event.IsApproved = true
	event.ApprovedBy = actor.ID
	event.RejectionReason = ""
	if err := s.eventRepo.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}
	return event, nil
}

func (s *adminServiceImpl) RejectEvent(ctx context.Context, actor auth.Actor, eventID, reason string) (*model.Event, error) {
	reason, err := requireReason(reason)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.FindByID(ctx, nil, eventID)
	if err != nil {
		return nil, err
	}

	event.IsApproved = false
	event.RejectionReason = reason
	if err := s.eventRepo.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}
	return event, nil
}

func (s *adminServiceImpl) ListUsers(ctx context.Context, filter repository.UserFilter) ([]*model.User, int64, error) {
	return s.userRepo.List(ctx, filter)
}

func (s *adminServiceImpl) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func (s *adminServiceImpl) Dashboard(ctx context.Context) (*dto.DashboardStats, error) {
	var (
		stats dto.DashboardStats
		err   error
	)

	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&stats.TotalUsers, func() (int64, error) { return s.userRepo.Count(ctx, repository.UserFilter{}) }},
		{&stats.TotalArtisans, func() (int64, error) {
			return s.userRepo.Count(ctx, repository.UserFilter{Role: model.RoleArtisan, Approved: boolPtr(true)})
		}},
		{&stats.PendingArtisans, func() (int64, error) {
			return s.userRepo.Count(ctx, repository.UserFilter{Role: model.RoleArtisan, Approved: boolPtr(false)})
		}},
		{&stats.TotalCollaborators, func() (int64, error) {
			return s.userRepo.Count(ctx, repository.UserFilter{Role: model.RoleCollaborator, Approved: boolPtr(true)})
		}},
		{&stats.TotalProducts, func() (int64, error) { return s.productRepo.Count(ctx, nil) }},
		{&stats.PendingProducts, func() (int64, error) { return s.productRepo.Count(ctx, boolPtr(false)) }},
		{&stats.PendingEvents, func() (int64, error) { return s.eventRepo.Count(ctx, boolPtr(false)) }},
		{&stats.TotalOrders, func() (int64, error) { return s.orderRepo.Count(ctx) }},
	}
	for _, c := range counts {
		if *c.dst, err = c.fn(); err != nil {
			return nil, fmt.Errorf("dashboard counts: %w", err)
		}
	}

	if stats.ProductsByCategory, err = s.productRepo.CountByCategory(ctx); err != nil {
		return nil, fmt.Errorf("dashboard categories: %w", err)
	}
	if stats.ProductsByCategory == nil {
		stats.ProductsByCategory = []repository.CategoryCount{}
	}

	return &stats, nil
}

func (s *adminServiceImpl) EnhancedDashboard(ctx context.Context) (*dto.EnhancedDashboardStats, error) {
	base, err := s.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	stats := dto.EnhancedDashboardStats{DashboardStats: *base}

	stats.PendingCollaborators, err = s.userRepo.Count(ctx, repository.UserFilter{Role: model.RoleCollaborator, Approved: boolPtr(false)})
	if err != nil {
		return nil, fmt.Errorf("dashboard collaborators: %w", err)
	}
	if stats.ApprovedEvents, err = s.eventRepo.Count(ctx, boolPtr(true)); err != nil {
		return nil, fmt.Errorf("dashboard events: %w", err)
	}

	if stats.CollaboratorsByRole, err = s.userRepo.CountByCollaboratorRole(ctx); err != nil {
		return nil, fmt.Errorf("dashboard collaborator roles: %w", err)
	}
	if stats.CollaboratorsByRole == nil {
		stats.CollaboratorsByRole = []repository.CollaboratorRoleCount{}
	}
	if stats.EventsByType, err = s.eventRepo.CountByExperienceType(ctx); err != nil {
		return nil, fmt.Errorf("dashboard event types: %w", err)
	}
	if stats.EventsByType == nil {
		stats.EventsByType = []repository.ExperienceTypeCount{}
	}

	return &stats, nil
}
