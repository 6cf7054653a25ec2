package repository

import (
	"context"
	"fmt"
	"strings"

	"brimasouk/internal/apperror"
	"brimasouk/internal/model"

	"gorm.io/gorm"
)

type PromoCodeRepository interface {
	Create(ctx context.Context, promo *model.PromoCode) error
	FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.PromoCode, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, createdBy string) ([]*model.PromoCode, error)
	IncrementUses(ctx context.Context, tx *gorm.DB, promoID string) error
	DecrementUses(ctx context.Context, tx *gorm.DB, code string) error
}

type promoCodeRepoImpl struct {
	db *gorm.DB
}

func NewPromoCodeRepository(db *gorm.DB) PromoCodeRepository {
	return &promoCodeRepoImpl{
		db: db,
	}
}

func (r *promoCodeRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *promoCodeRepoImpl) Create(ctx context.Context, promo *model.PromoCode) error {
	return r.db.WithContext(ctx).Create(promo).Error
}

func (r *promoCodeRepoImpl) FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.PromoCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var promo model.PromoCode
	err := r.conn(tx).WithContext(ctx).
		Where("code = ?", code).
		First(&promo).Error

	if err != nil {
		return nil, notFound(err, "Promo code", code)
	}

	return &promo, nil
}

func (r *promoCodeRepoImpl) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PromoCode{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error

	return count > 0, err
}

// List returns all codes, or only those created by createdBy when it is set.
func (r *promoCodeRepoImpl) List(ctx context.Context, createdBy string) ([]*model.PromoCode, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if createdBy != "" {
		query = query.Where("created_by = ?", createdBy)
	}

	var promos []*model.PromoCode
	if err := query.Find(&promos).Error; err != nil {
		return nil, err
	}

	return promos, nil
}

// IncrementUses consumes one use, refusing once max_uses is reached.
func (r *promoCodeRepoImpl) IncrementUses(ctx context.Context, tx *gorm.DB, promoID string) error {
	result := r.conn(tx).WithContext(ctx).Model(&model.PromoCode{}).
		Where("id = ? AND (max_uses = 0 OR current_uses < max_uses)", promoID).
		Update("current_uses", gorm.Expr("current_uses + 1"))

	if result.Error != nil {
		return fmt.Errorf("increment promo uses: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.Conflict("Promo code is invalid or expired")
	}
	return nil
}

func (r *promoCodeRepoImpl) DecrementUses(ctx context.Context, tx *gorm.DB, code string) error {
	return r.conn(tx).WithContext(ctx).Model(&model.PromoCode{}).
		Where("code = ? AND current_uses > 0", strings.ToUpper(code)).
		Update("current_uses", gorm.Expr("current_uses - 1")).Error
}
