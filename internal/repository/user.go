package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brimasouk/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserFilter struct {
	Role             model.Role
	CollaboratorRole model.CollaboratorRole
	Region           string
	// Approved filters artisans on IsApproved and collaborators on their
	// collaborator approval flag.
	Approved *bool
	Page     Page
}

type CollaboratorRoleCount struct {
	Role  model.CollaboratorRole `json:"role"`
	Count int64                  `json:"count"`
}

type UserRepository interface {
	Seed(ctx context.Context, admin *model.User) error
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *model.User) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	List(ctx context.Context, filter UserFilter) ([]*model.User, int64, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	CountByCollaboratorRole(ctx context.Context) ([]CollaboratorRoleCount, error)
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

// Seed inserts the bootstrap admin unless that email already exists.
func (r *userRepoImpl) Seed(ctx context.Context, admin *model.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(admin).Error
}

func (r *userRepoImpl) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepoImpl) FindByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error

	if err != nil {
		return nil, notFound(err, "User", userID)
	}

	return &user, nil
}

func (r *userRepoImpl) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error

	if err != nil {
		return nil, notFound(err, "User", email)
	}

	return &user, nil
}

func (r *userRepoImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error

	return count > 0, err
}

func (r *userRepoImpl) Save(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepoImpl) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login", at).Error
}

func (r *userRepoImpl) filtered(ctx context.Context, filter UserFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.CollaboratorRole != "" {
		query = query.Where("collaborator_role = ?", filter.CollaboratorRole)
	}
	if filter.Region != "" {
		query = query.Where("region = ?", filter.Region)
	}
	if filter.Approved != nil {
		if filter.Role == model.RoleCollaborator {
			query = query.Where("collaborator_is_approved = ?", *filter.Approved)
		} else {
			query = query.Where("is_approved = ?", *filter.Approved)
		}
	}
	return query
}

func (r *userRepoImpl) List(ctx context.Context, filter UserFilter) ([]*model.User, int64, error) {
	query := r.filtered(ctx, filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []*model.User
	err := query.
		Order("created_at DESC").
		Scopes(paginate(filter.Page)).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *userRepoImpl) Count(ctx context.Context, filter UserFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}

// CountByCollaboratorRole groups approved collaborators by role, largest first.
func (r *userRepoImpl) CountByCollaboratorRole(ctx context.Context) ([]CollaboratorRoleCount, error) {
	var counts []CollaboratorRoleCount
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("collaborator_role AS role, COUNT(*) AS count").
		Where("role = ? AND collaborator_is_approved = ?", model.RoleCollaborator, true).
		Group("collaborator_role").
		Order("count DESC, role").
		Scan(&counts).Error

	if err != nil {
		return nil, fmt.Errorf("count collaborators by role: %w", err)
	}

	return counts, nil
}
