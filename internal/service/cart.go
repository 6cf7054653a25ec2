package service

import (
	"context"
	"fmt"
	"time"

	"brimasouk/internal/apperror"
	"brimasouk/internal/auth"
	"brimasouk/internal/dto"
	"brimasouk/internal/model"
	"brimasouk/internal/repository"
)

type CartService interface {
	Get(ctx context.Context, actor auth.Actor) (*dto.CartResponse, error)
	AddItem(ctx context.Context, actor auth.Actor, req dto.CartItemRequest) (*dto.CartResponse, error)
	UpdateItem(ctx context.Context, actor auth.Actor, productID string, quantity int) (*dto.CartResponse, error)
	RemoveItem(ctx context.Context, actor auth.Actor, productID string) (*dto.CartResponse, error)
	Clear(ctx context.Context, actor auth.Actor) error
}

type cartServiceImpl struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	now         func() time.Time
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
) CartService {
	return &cartServiceImpl{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		now:         time.Now,
	}
}

func (s *cartServiceImpl) Get(ctx context.Context, actor auth.Actor) (*dto.CartResponse, error) {
	items, err := s.cartRepo.Get(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if items == nil {
		items = []model.CartItem{}
	}

	cart := &model.Cart{UserID: actor.ID, Items: items}
	return &dto.CartResponse{Cart: cart, Total: cart.Total(s.now())}, nil
}

// purchasable loads a product that can be put in a cart in the given quantity.
func (s *cartServiceImpl) purchasable(ctx context.Context, productID string, quantity int) (*model.Product, error) {
	if quantity < 1 {
		return nil, apperror.Validation("Quantity must be at least 1").With("field", "quantity")
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsApproved {
		return nil, apperror.Conflict("Product is not available").With("productId", productID)
	}
	if product.Stock < quantity {
		return nil, apperror.Conflict("Insufficient stock").With("productId", productID).With("available", product.Stock)
	}
	return product, nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, actor auth.Actor, req dto.CartItemRequest) (*dto.CartResponse, error) {
	wanted := req.Quantity
	if existing, err := s.cartRepo.Find(ctx, actor.ID, req.ProductID); err == nil {
		wanted += existing.Quantity
	} else if !apperror.Is(err, apperror.KindNotFound) {
		return nil, err
	}

	if _, err := s.purchasable(ctx, req.ProductID, wanted); err != nil {
		return nil, err
	}

	err := s.cartRepo.Upsert(ctx, &model.CartItem{
		UserID:    actor.ID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return s.Get(ctx, actor)
}

func (s *cartServiceImpl) UpdateItem(ctx context.Context, actor auth.Actor, productID string, quantity int) (*dto.CartResponse, error) {
	if _, err := s.purchasable(ctx, productID, quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.SetQuantity(ctx, actor.ID, productID, quantity); err != nil {
		return nil, err
	}
	return s.Get(ctx, actor)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, actor auth.Actor, productID string) (*dto.CartResponse, error) {
	if err := s.cartRepo.Remove(ctx, actor.ID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, actor)
}

func (s *cartServiceImpl) Clear(ctx context.Context, actor auth.Actor) error {
	return s.cartRepo.Clear(ctx, nil, actor.ID)
}
