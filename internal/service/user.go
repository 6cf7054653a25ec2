package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brimasouk/internal/apperror"
	"brimasouk/internal/auth"
	"brimasouk/internal/config"
	"brimasouk/internal/dto"
	"brimasouk/internal/model"
	"brimasouk/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type UserService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.AuthResponse, error)
	Signin(ctx context.Context, req dto.SigninRequest) (*dto.AuthResponse, error)
	AdminLogin(ctx context.Context, req dto.SigninRequest) (*dto.AuthResponse, error)
	// Authenticate resolves a bearer token to the caller as currently stored,
	// so role changes apply without a new token.
	Authenticate(ctx context.Context, token string) (auth.Actor, error)
	ChangePassword(ctx context.Context, actor auth.Actor, req dto.ChangePasswordRequest) error

	GetProfile(ctx context.Context, actor auth.Actor) (*model.User, error)
	UpdateProfile(ctx context.Context, actor auth.Actor, req dto.UpdateProfileRequest) (*model.User, error)
	ApplyArtisan(ctx context.Context, actor auth.Actor, req dto.ApplyArtisanRequest) (*model.User, error)
	ApplyCollaborator(ctx context.Context, actor auth.Actor, req dto.ApplyCollaboratorRequest) (*model.User, error)

	ListArtisans(ctx context.Context, region string, page repository.Page) ([]*model.User, int64, error)
	GetArtisan(ctx context.Context, artisanID string) (*model.User, error)
	ListCollaborators(ctx context.Context, role model.CollaboratorRole, page repository.Page) ([]*model.User, int64, error)

	SeedAdmin(ctx context.Context, admin config.Admin) error
}

type userServiceImpl struct {
	l        *log.Logger
	tokens   *auth.TokenManager
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewUserService(
	l *log.Logger,
	tokens *auth.TokenManager,
	userRepo repository.UserRepository,
) UserService {
	return &userServiceImpl{
		l:        l,
		tokens:   tokens,
		userRepo: userRepo,
		now:      time.Now,
	}
}

func (s *userServiceImpl) Signup(ctx context.Context, req dto.SignupRequest) (*dto.AuthResponse, error) {
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if role != model.RoleUser && role != model.RoleArtisan {
		return nil, apperror.Validation("Role must be user or artisan").With("field", "role")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apperror.Conflict("A user with this email already exists").With("field", "email")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:               uuid.NewString(),
		FullName:         strings.TrimSpace(req.FullName),
		Email:            email,
		PasswordHash:     hash,
		Role:             role,
		CollaboratorRole: model.CollaboratorNone,
		LastLogin:        &now,
	}
	if role == model.RoleArtisan {
		user.ArtisanDetails.SubmissionDate = &now
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.l.WithFields(log.Fields{"userId": user.ID, "role": user.Role}).Info("user signed up")
	return s.authResponse(user)
}

func (s *userServiceImpl) Signin(ctx context.Context, req dto.SigninRequest) (*dto.AuthResponse, error) {
	user, err := s.checkCredentials(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.login(ctx, user)
}

func (s *userServiceImpl) AdminLogin(ctx context.Context, req dto.SigninRequest) (*dto.AuthResponse, error) {
	user, err := s.checkCredentials(ctx, req)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, apperror.Unauthenticated("Invalid credentials or not an admin")
	}
	return s.login(ctx, user)
}

func (s *userServiceImpl) checkCredentials(ctx context.Context, req dto.SigninRequest) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.Unauthenticated("Invalid credentials")
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperror.Unauthenticated("Invalid credentials")
	}
	return user, nil
}

func (s *userServiceImpl) login(ctx context.Context, user *model.User) (*dto.AuthResponse, error) {
	now := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.l.WithError(err).WithField("userId", user.ID).Warn("update last login")
	}
	user.LastLogin = &now
	return s.authResponse(user)
}

func (s *userServiceImpl) authResponse(user *model.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: token, User: user}, nil
}

func (s *userServiceImpl) Authenticate(ctx context.Context, token string) (auth.Actor, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return auth.Actor{}, apperror.Unauthenticated("Invalid or expired token")
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return auth.Actor{}, apperror.Unauthenticated("User no longer exists")
		}
		return auth.Actor{}, err
	}
	return auth.ActorFromUser(user), nil
}

func (s *userServiceImpl) ChangePassword(ctx context.Context, actor auth.Actor, req dto.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return apperror.Validation("Current password is incorrect").With("field", "currentPassword")
	}
	if err := auth.ValidatePasswordStrength(req.NewPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.userRepo.Save(ctx, user)
}

func (s *userServiceImpl) GetProfile(ctx context.Context, actor auth.Actor) (*model.User, error) {
	return s.userRepo.FindByID(ctx, actor.ID)
}

func (s *userServiceImpl) UpdateProfile(ctx context.Context, actor auth.Actor, req dto.UpdateProfileRequest) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = *req.ProfilePicture
	}
	if req.BannerImage != nil {
		user.BannerImage = *req.BannerImage
	}
	if req.Region != nil {
		user.Region = *req.Region
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return user, nil
}

func (s *userServiceImpl) ApplyArtisan(ctx context.Context, actor auth.Actor, req dto.ApplyArtisanRequest) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if user.Role == model.RoleArtisan {
		return nil, apperror.Conflict("User is already an artisan")
	}
	if user.Role != model.RoleUser {
		return nil, apperror.Conflict("Only customers can apply as artisans")
	}

	now := s.now()
	user.Role = model.RoleArtisan
	user.IsApproved = false
	user.Region = req.Region
	user.PhoneNumber = req.PhoneNumber
	if req.BannerImage != "" {
		user.BannerImage = req.BannerImage
	}
	user.ArtisanDetails = model.ArtisanDetails{
		Description:    req.Description,
		SubmissionDate: &now,
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save artisan application: %w", err)
	}

	s.l.WithField("userId", user.ID).Info("artisan application submitted")
	return user, nil
}

func (s *userServiceImpl) ApplyCollaborator(ctx context.Context, actor auth.Actor, req dto.ApplyCollaboratorRequest) (*model.User, error) {
	if !req.CollaboratorRole.Valid() {
		return nil, apperror.Validation("Invalid collaborator role").With("field", "collaboratorRole")
	}

	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if user.CollaboratorRole != "" && user.CollaboratorRole != model.CollaboratorNone {
		return nil, apperror.Conflict("User is already a collaborator")
	}
	if user.Role != model.RoleUser {
		return nil, apperror.Conflict("Only customers can apply as collaborators")
	}

	now := s.now()
	user.Role = model.RoleCollaborator
	user.CollaboratorRole = req.CollaboratorRole
	user.CollaboratorDetails = model.CollaboratorDetails{
		Skills:         req.Skills,
		Portfolio:      req.Portfolio,
		Experience:     req.Experience,
		Bio:            req.Bio,
		Specialties:    req.Specialties,
		SubmissionDate: &now,
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save collaborator application: %w", err)
	}

	s.l.WithFields(log.Fields{"userId": user.ID, "collaboratorRole": user.CollaboratorRole}).Info("collaborator application submitted")
	return user, nil
}

func (s *userServiceImpl) ListArtisans(ctx context.Context, region string, page repository.Page) ([]*model.User, int64, error) {
	return s.userRepo.List(ctx, repository.UserFilter{
		Role:     model.RoleArtisan,
		Region:   region,
		Approved: boolPtr(true),
		Page:     page,
	})
}

func (s *userServiceImpl) GetArtisan(ctx context.Context, artisanID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, artisanID)
	if err != nil {
		return nil, err
	}
	if !user.IsApprovedArtisan() {
		return nil, apperror.NotFound("Artisan not found").With("id", artisanID)
	}
	return user, nil
}

func (s *userServiceImpl) ListCollaborators(ctx context.Context, role model.CollaboratorRole, page repository.Page) ([]*model.User, int64, error) {
	if role != "" && !role.Valid() {
		return nil, 0, apperror.Validation("Invalid collaborator role").With("role", role)
	}
	return s.userRepo.List(ctx, repository.UserFilter{
		Role:             model.RoleCollaborator,
		CollaboratorRole: role,
		Approved:         boolPtr(true),
		Page:             page,
	})
}

// SeedAdmin creates the bootstrap admin when credentials are configured.
func (s *userServiceImpl) SeedAdmin(ctx context.Context, admin config.Admin) error {
	if admin.Email == "" || admin.Password == "" {
		return nil
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return err
	}

	err = s.userRepo.Seed(ctx, &model.User{
		ID:               uuid.NewString(),
		FullName:         admin.FullName,
		Email:            strings.ToLower(strings.TrimSpace(admin.Email)),
		PasswordHash:     hash,
		Role:             model.RoleAdmin,
		IsApproved:       true,
		CollaboratorRole: model.CollaboratorNone,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

func boolPtr(b bool) *bool {
	return &b
}
