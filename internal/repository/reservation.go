package repository

import (
	"context"
	"fmt"

	"brimasouk/internal/apperror"
	"brimasouk/internal/model"

	"gorm.io/gorm"
)

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reservation *model.Reservation) error
	FindByID(ctx context.Context, reservationID string) (*model.Reservation, error)
	MarkCanceled(ctx context.Context, tx *gorm.DB, reservationID string) error
	ListByUser(ctx context.Context, userID string) ([]*model.Reservation, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.Reservation, error)
}

type reservationRepoImpl struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepoImpl{
		db: db,
	}
}

func (r *reservationRepoImpl) Create(ctx context.Context, tx *gorm.DB, reservation *model.Reservation) error {
	return tx.WithContext(ctx).Omit("Event").Create(reservation).Error
}

func (r *reservationRepoImpl) FindByID(ctx context.Context, reservationID string) (*model.Reservation, error) {
	var reservation model.Reservation
	err := r.db.WithContext(ctx).
		Where("id = ?", reservationID).
		First(&reservation).Error

	if err != nil {
		return nil, notFound(err, "Reservation", reservationID)
	}

	return &reservation, nil
}

// MarkCanceled flips a live reservation to canceled exactly once.
func (r *reservationRepoImpl) MarkCanceled(ctx context.Context, tx *gorm.DB, reservationID string) error {
	result := tx.WithContext(ctx).Model(&model.Reservation{}).
		Where("id = ? AND status IN ?", reservationID,
			[]model.ReservationStatus{model.ReservationPending, model.ReservationConfirmed}).
		Update("status", model.ReservationCanceled)

	if result.Error != nil {
		return fmt.Errorf("cancel reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.Conflict("Reservation is already canceled")
	}
	return nil
}

func (r *reservationRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Reservation, error) {
	var reservations []*model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reservations).Error

	if err != nil {
		return nil, err
	}

	return reservations, nil
}

func (r *reservationRepoImpl) ListByEvent(ctx context.Context, eventID string) ([]*model.Reservation, error) {
	var reservations []*model.Reservation
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&reservations).Error

	if err != nil {
		return nil, err
	}

	return reservations, nil
}
