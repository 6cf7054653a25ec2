package repository

import (
	"context"
	"fmt"
	"time"

	"brimasouk/internal/apperror"
	"brimasouk/internal/model"

	"gorm.io/gorm"
)

type EventFilter struct {
	ArtisanID      string
	Region         string
	ExperienceType model.ExperienceType
	Approved       *bool
	// StartsAfter keeps only events starting at or after this instant.
	StartsAfter *time.Time
	Page        Page
}

type ExperienceTypeCount struct {
	ExperienceType model.ExperienceType `json:"experienceType"`
	Count          int64                `json:"count"`
}

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	FindByID(ctx context.Context, tx *gorm.DB, eventID string) (*model.Event, error)
	Save(ctx context.Context, event *model.Event) error
	List(ctx context.Context, filter EventFilter) ([]*model.Event, int64, error)
	AddParticipants(ctx context.Context, tx *gorm.DB, eventID string, n int) error
	RemoveParticipants(ctx context.Context, tx *gorm.DB, eventID string, n int) error
	Count(ctx context.Context, approved *bool) (int64, error)
	CountByExperienceType(ctx context.Context) ([]ExperienceTypeCount, error)
}

type eventRepoImpl struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepoImpl{
		db: db,
	}
}

func (r *eventRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *eventRepoImpl) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, eventID string) (*model.Event, error) {
	var event model.Event
	err := r.conn(tx).WithContext(ctx).
		Where("id = ?", eventID).
		First(&event).Error

	if err != nil {
		return nil, notFound(err, "Event", eventID)
	}

	return &event, nil
}

// Save writes every column except current_participants, which is owned by
// AddParticipants and RemoveParticipants.
func (r *eventRepoImpl) Save(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Model(event).
		Select("*").
		Omit("CurrentParticipants", "CreatedAt").
		Updates(event).Error
}

func (r *eventRepoImpl) List(ctx context.Context, filter EventFilter) ([]*model.Event, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Event{})
	if filter.ArtisanID != "" {
		query = query.Where("artisan_id = ?", filter.ArtisanID)
	}
	if filter.Region != "" {
		query = query.Where("location_region = ?", filter.Region)
	}
	if filter.ExperienceType != "" {
		query = query.Where("experience_type = ?", filter.ExperienceType)
	}
	if filter.Approved != nil {
		query = query.Where("is_approved = ?", *filter.Approved)
	}
	if filter.StartsAfter != nil {
		query = query.Where("start_date >= ?", *filter.StartsAfter)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	var events []*model.Event
	err := query.
		Order("start_date ASC").
		Scopes(paginate(filter.Page)).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	return events, total, nil
}

// AddParticipants books n seats only if they all fit.
func (r *eventRepoImpl) AddParticipants(ctx context.Context, tx *gorm.DB, eventID string, n int) error {
	result := r.conn(tx).WithContext(ctx).Model(&model.Event{}).
		Where("id = ? AND current_participants + ? <= max_participants", eventID, n).
		Update("current_participants", gorm.Expr("current_participants + ?", n))

	if result.Error != nil {
		return fmt.Errorf("add participants: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.Conflict("Event is fully booked").With("eventId", eventID)
	}
	return nil
}

// RemoveParticipants releases n seats, never going below zero.
func (r *eventRepoImpl) RemoveParticipants(ctx context.Context, tx *gorm.DB, eventID string, n int) error {
	result := r.conn(tx).WithContext(ctx).Model(&model.Event{}).
		Where("id = ?", eventID).
		Update("current_participants", gorm.Expr(
			"CASE WHEN current_participants >= ? THEN current_participants - ? ELSE 0 END", n, n,
		))

	if result.Error != nil {
		return fmt.Errorf("remove participants: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// MySQL reports zero rows when the count was already zero.
		_, err := r.FindByID(ctx, tx, eventID)
		return err
	}
	return nil
}

func (r *eventRepoImpl) Count(ctx context.Context, approved *bool) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Event{})
	if approved != nil {
		query = query.Where("is_approved = ?", *approved)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountByExperienceType groups approved events by type, largest first.
func (r *eventRepoImpl) CountByExperienceType(ctx context.Context) ([]ExperienceTypeCount, error) {
	var counts []ExperienceTypeCount
	err := r.db.WithContext(ctx).Model(&model.Event{}).
		Select("experience_type, COUNT(*) AS count").
		Where("is_approved = ?", true).
		Group("experience_type").
		Order("count DESC, experience_type").
		Scan(&counts).Error

	if err != nil {
		return nil, fmt.Errorf("count events by type: %w", err)
	}

	return counts, nil
}
