package service

import (
	"context"
	"fmt"
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
	log "github.com/sirupsen/logrus"
)

const defaultSectionLimit = 8

type ProductSection string

const (
	SectionBestsellers ProductSection = "bestsellers"
	SectionNew         ProductSection = "new"
	SectionFlash       ProductSection = "flash"
)

type ProductService interface {
	Create(ctx context.Context, actor auth.Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	// Get hides unapproved products from everyone but their artisan and admins.
	Get(ctx context.Context, actor auth.Actor, productID string) (*dto.ProductResponse, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]dto.ProductResponse, int64, error)
	Section(ctx context.Context, section ProductSection, limit int) ([]dto.ProductResponse, error)
	ListMine(ctx context.Context, actor auth.Actor, approved *bool, page repository.Page) ([]dto.ProductResponse, int64, error)
	ListPending(ctx context.Context, page repository.Page) ([]dto.ProductResponse, int64, error)
	Update(ctx context.Context, actor auth.Actor, productID string, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, actor auth.Actor, productID string) error
	Approve(ctx context.Context, actor auth.Actor, productID string, req dto.ApproveProductRequest) (*dto.ProductResponse, error)
	Reject(ctx context.Context, actor auth.Actor, productID, reason string) (*dto.ProductResponse, error)
	SetPromotion(ctx context.Context, actor auth.Actor, productID string, req dto.PromotionRequest) (*dto.ProductResponse, error)
	AdjustStock(ctx context.Context, actor auth.Actor, productID string, delta int) (*dto.ProductResponse, error)
}

type productServiceImpl struct {
	l           *log.Logger
	notifier    notify.Notifier
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	now         func() time.Time
}

func NewProductService(
	l *log.Logger,
	notifier notify.Notifier,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
) ProductService {
	return &productServiceImpl{
		l:           l,
		notifier:    notifier,
		productRepo: productRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

// toProductResponse shows pricing internals to the owning artisan and admins only.
func toProductResponse(p *model.Product, actor auth.Actor, now time.Time) dto.ProductResponse {
	resp := dto.ProductResponse{
		Product:           p,
		DiscountedPrice:   p.DiscountedPrice(now),
		IsAvailable:       p.IsAvailable(),
		IsPromotionActive: p.IsPromotionActive(now),
	}
	if actor.CanManage(p.ArtisanID) {
		original, markup := p.OriginalPrice, p.MarkupPercentage
		resp.OriginalPrice = &original
		resp.MarkupPercentage = &markup
	}
	return resp
}

func (s *productServiceImpl) toResponses(products []*model.Product, actor auth.Actor) []dto.ProductResponse {
	now := s.now()
	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p, actor, now))
	}
	return out
}

func (s *productServiceImpl) Create(ctx context.Context, actor auth.Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	artisan, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !artisan.IsApprovedArtisan() {
		return nil, apperror.Forbidden("Only approved artisans can create products")
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, apperror.Validation("Name and description are required")
	}
	if !req.Category.Valid() {
		return nil, apperror.Validation("Invalid category").With("category", req.Category)
	}
	if !req.Price.IsPositive() {
		return nil, apperror.Validation("Price must be greater than 0").With("field", "price")
	}
	if req.Stock < 0 {
		return nil, apperror.Validation("Stock cannot be negative").With("field", "stock")
	}

	product := model.NewProduct(uuid.NewString(), actor.ID, req.Name, req.Description, req.Category, req.Price.Round(2), req.Stock, req.Images)
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.l.WithFields(log.Fields{"productId": product.ID, "artisanId": actor.ID}).Info("product submitted for approval")
	resp := toProductResponse(product, actor, s.now())
	return &resp, nil
}

func (s *productServiceImpl) Get(ctx context.Context, actor auth.Actor, productID string) (*dto.ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsApproved && !actor.CanManage(product.ArtisanID) {
		return nil, apperror.NotFound("Product not found").With("id", productID)
	}

	resp := toProductResponse(product, actor, s.now())
	return &resp, nil
}

func (s *productServiceImpl) List(ctx context.Context, filter repository.ProductFilter) ([]dto.ProductResponse, int64, error) {
	filter.Approved = boolPtr(true)
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(products, auth.Actor{}), total, nil
}

func (s *productServiceImpl) Section(ctx context.Context, section ProductSection, limit int) ([]dto.ProductResponse, error) {
	if limit < 1 {
		limit = defaultSectionLimit
	}

	filter := repository.ProductFilter{
		Approved: boolPtr(true),
		Sort:     repository.SortNewest,
		Page:     repository.Page{Page: 1, Limit: limit},
	}
	switch section {
	case SectionBestsellers:
		filter.PromotionalStatus = model.PromotionBestSeller
	case SectionNew:
		filter.PromotionalStatus = model.PromotionNewCollection
	case SectionFlash:
		filter.PromotionalStatus = model.PromotionFlashSale
	default:
		return nil, apperror.Validation("Invalid section type").With("section", section)
	}

	products, _, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if section == SectionFlash {
		now := s.now()
		active := products[:0]
		for _, p := range products {
			if p.IsPromotionActive(now) {
				active = append(active, p)
			}
		}
		products = active
	}

	return s.toResponses(products, auth.Actor{}), nil
}

func (s *productServiceImpl) ListMine(ctx context.Context, actor auth.Actor, approved *bool, page repository.Page) ([]dto.ProductResponse, int64, error) {
	products, total, err := s.productRepo.List(ctx, repository.ProductFilter{
		ArtisanID: actor.ID,
		Approved:  approved,
		Page:      page,
	})
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(products, actor), total, nil
}

func (s *productServiceImpl) ListPending(ctx context.Context, page repository.Page) ([]dto.ProductResponse, int64, error) {
	products, total, err := s.productRepo.List(ctx, repository.ProductFilter{
		Approved: boolPtr(false),
		Page:     page,
	})
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(products, auth.Actor{Role: model.RoleAdmin}), total, nil
}

func (s *productServiceImpl) findManaged(ctx context.Context, actor auth.Actor, productID string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(product.ArtisanID) {
		return nil, apperror.Forbidden("Not authorized to modify this product").With("productId", productID)
	}
	return product, nil
}

func (s *productServiceImpl) Update(ctx context.Context, actor auth.Actor, productID string, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.findManaged(ctx, actor, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperror.Validation("Name cannot be empty").With("field", "name")
		}
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return nil, apperror.Validation("Invalid category").With("category", *req.Category)
		}
		product.Category = *req.Category
	}
	stockRead := product.Stock
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, apperror.Validation("Stock cannot be negative").With("field", "stock")
		}
		product.Stock = *req.Stock
	}
	if req.Images != nil {
		product.Images = req.Images
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, apperror.Validation("Price must be greater than 0").With("field", "price")
		}
		if actor.IsAdmin() {
			product.Price = req.Price.Round(2)
		} else {
			product.SetArtisanPrice(req.Price.Round(2))
		}
	}

	// Artisan edits go back through review.
	if !actor.IsAdmin() {
		product.IsApproved = false
	}

	if product.Stock != stockRead {
		if err := s.productRepo.ReplaceStock(ctx, product.ID, stockRead, product.Stock); err != nil {
			return nil, err
		}
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	resp := toProductResponse(product, actor, s.now())
	return &resp, nil
}

func (s *productServiceImpl) Delete(ctx context.Context, actor auth.Actor, productID string) error {
	if _, err := s.findManaged(ctx, actor, productID); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, productID)
}

func (s *productServiceImpl) Approve(ctx context.Context, actor auth.Actor, productID string, req dto.ApproveProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := product.Approve(req.MarkupPercentage, actor.ID, now); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save approved product: %w", err)
	}

	metrics.ProductApprovals.WithLabelValues("approved").Inc()
	s.l.WithFields(log.Fields{"productId": product.ID, "price": product.Price.String()}).Info("product approved")
	s.notifier.Notify(notify.Notification{
		Kind:    notify.ProductReviewed,
		UserID:  product.ArtisanID,
		Title:   "Product approved",
		Message: fmt.Sprintf("Your product %q is now live", product.Name),
		Data:    map[string]any{"productId": product.ID, "approved": true},
	})

	resp := toProductResponse(product, actor, now)
	return &resp, nil
}

func (s *productServiceImpl) Reject(ctx context.Context, actor auth.Actor, productID, reason string) (*dto.ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := product.Reject(reason); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save rejected product: %w", err)
	}

	metrics.ProductApprovals.WithLabelValues("rejected").Inc()
	s.notifier.Notify(notify.Notification{
		Kind:    notify.ProductReviewed,
		UserID:  product.ArtisanID,
		Title:   "Product rejected",
		Message: product.RejectionReason,
		Data:    map[string]any{"productId": product.ID, "approved": false},
	})

	resp := toProductResponse(product, actor, s.now())
	return &resp, nil
}

func (s *productServiceImpl) SetPromotion(ctx context.Context, actor auth.Actor, productID string, req dto.PromotionRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	product.ClearExpiredPromotion(now)
	if err := product.SetPromotion(req.PromotionalStatus, req.DiscountPercentage, req.PromotionEndDate, now); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save promotion: %w", err)
	}

	resp := toProductResponse(product, actor, now)
	return &resp, nil
}

func (s *productServiceImpl) AdjustStock(ctx context.Context, actor auth.Actor, productID string, delta int) (*dto.ProductResponse, error) {
	if _, err := s.findManaged(ctx, actor, productID); err != nil {
		return nil, err
	}

	var err error
	switch {
	case delta > 0:
		err = s.productRepo.IncrementStock(ctx, nil, productID, delta)
	case delta < 0:
		err = s.productRepo.DecrementStock(ctx, nil, productID, -delta)
	}
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(product, actor, s.now())
	return &resp, nil
}
