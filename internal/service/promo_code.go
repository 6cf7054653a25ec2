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
	"brimasouk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type PromoCodeService interface {
	Create(ctx context.Context, actor auth.Actor, req dto.CreatePromoCodeRequest) (*model.PromoCode, error)
	List(ctx context.Context, actor auth.Actor) ([]*model.PromoCode, error)
	Validate(ctx context.Context, req dto.ValidatePromoCodeRequest) (*dto.ValidatePromoCodeResponse, error)
	Apply(ctx context.Context, code string) (*model.PromoCode, error)
}

type promoCodeServiceImpl struct {
	l         *log.Logger
	promoRepo repository.PromoCodeRepository
	userRepo  repository.UserRepository
	now       func() time.Time
}

func NewPromoCodeService(
	l *log.Logger,
	promoRepo repository.PromoCodeRepository,
	userRepo repository.UserRepository,
) PromoCodeService {
	return &promoCodeServiceImpl{
		l:         l,
		promoRepo: promoRepo,
		userRepo:  userRepo,
		now:       time.Now,
	}
}

// authorize admits admins and approved marketers.
func (s *promoCodeServiceImpl) authorize(ctx context.Context, actor auth.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if !user.IsApprovedCollaborator(model.CollaboratorMarketer) {
		return apperror.Forbidden("Not authorized to manage promo codes")
	}
	return nil
}

func (s *promoCodeServiceImpl) Create(ctx context.Context, actor auth.Actor, req dto.CreatePromoCodeRequest) (*model.PromoCode, error) {
	if err := s.authorize(ctx, actor); err != nil {
		return nil, err
	}

	discountType := req.DiscountType
	if discountType == "" {
		discountType = model.DiscountPercentage
	}
	if !discountType.Valid() {
		return nil, apperror.Validation("Invalid discount type").With("discountType", discountType)
	}
	if !req.DiscountValue.IsPositive() {
		return nil, apperror.Validation("Discount value must be greater than 0").With("field", "discountValue")
	}
	if discountType == model.DiscountPercentage && !model.ValidPercentage(req.DiscountValue) {
		return nil, apperror.Validation("Percentage discount must be between 0 and 100").With("field", "discountValue")
	}
	if req.MaxUses < 0 || req.MinOrderValue.IsNegative() {
		return nil, apperror.Validation("Usage limit and minimum order value cannot be negative")
	}

	now := s.now()
	startDate := now
	if req.StartDate != nil {
		startDate = *req.StartDate
	}
	if req.EndDate != nil && !req.EndDate.After(startDate) {
		return nil, apperror.Validation("End date must be after start date").With("field", "endDate")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.promoRepo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("check promo code: %w", err)
	}
	if exists {
		return nil, apperror.Conflict("Promo code already exists").With("code", code)
	}

	promo := &model.PromoCode{
		ID:                   uuid.NewString(),
		Code:                 code,
		Description:          req.Description,
		DiscountType:         discountType,
		DiscountValue:        req.DiscountValue,
		MaxUses:              req.MaxUses,
		StartDate:            startDate,
		EndDate:              req.EndDate,
		IsActive:             true,
		CreatedBy:            actor.ID,
		MinOrderValue:        req.MinOrderValue,
		ApplicableCategories: req.ApplicableCategories,
		ApplicableProducts:   req.ApplicableProducts,
	}
	if err := s.promoRepo.Create(ctx, promo); err != nil {
		return nil, fmt.Errorf("create promo code: %w", err)
	}

	s.l.WithFields(log.Fields{"code": promo.Code, "createdBy": actor.ID}).Info("promo code created")
	return promo, nil
}

func (s *promoCodeServiceImpl) List(ctx context.Context, actor auth.Actor) ([]*model.PromoCode, error) {
	if err := s.authorize(ctx, actor); err != nil {
		return nil, err
	}
	return s.promoRepo.List(ctx, "")
}

func (s *promoCodeServiceImpl) Validate(ctx context.Context, req dto.ValidatePromoCodeRequest) (*dto.ValidatePromoCodeResponse, error) {
	promo, err := s.promoRepo.FindByCode(ctx, nil, req.Code)
	if err != nil {
		return nil, err
	}
	if err := promo.Validate(req.OrderValue, req.Category, req.ProductID, s.now()); err != nil {
		return nil, err
	}

	return &dto.ValidatePromoCodeResponse{
		Valid:          true,
		Code:           promo.Code,
		DiscountType:   promo.DiscountType,
		DiscountValue:  promo.DiscountValue,
		DiscountAmount: promo.CalculateDiscount(decimal.Max(req.OrderValue, decimal.Zero)),
	}, nil
}

func (s *promoCodeServiceImpl) Apply(ctx context.Context, code string) (*model.PromoCode, error) {
	promo, err := s.promoRepo.FindByCode(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	if !promo.IsValid(s.now()) {
		return nil, apperror.Conflict("Promo code is invalid or expired")
	}
	if err := s.promoRepo.IncrementUses(ctx, nil, promo.ID); err != nil {
		return nil, err
	}

	promo.CurrentUses++
	return promo, nil
}
