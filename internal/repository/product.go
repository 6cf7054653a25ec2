package repository

import (
	"context"
	"fmt"
	"strings"

	"brimasouk/internal/apperror"
	"brimasouk/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortName      ProductSort = "name"
)

type ProductFilter struct {
	Category          model.Category
	ArtisanID         string
	PromotionalStatus model.PromotionalStatus
	MinPrice          *decimal.Decimal
	MaxPrice          *decimal.Decimal
	Search            string
	Sort              ProductSort
	// Approved filters on approval state when set.
	Approved *bool
	Page     Page
}

type CategoryCount struct {
	Category model.Category `json:"category"`
	Count    int64          `json:"count"`
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindMany(ctx context.Context, tx *gorm.DB, productIDs []string) ([]*model.Product, error)
	Save(ctx context.Context, product *model.Product) error
	ReplaceStock(ctx context.Context, productID string, from, to int) error
	Delete(ctx context.Context, productID string) error
	List(ctx context.Context, filter ProductFilter) ([]*model.Product, int64, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int) error
	IncrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int) error
	Count(ctx context.Context, approved *bool) (int64, error)
	CountByCategory(ctx context.Context) ([]CategoryCount, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *productRepoImpl) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, notFound(err, "Product", productID)
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, tx *gorm.DB, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.conn(tx).WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

// Save writes every column except stock, which only moves through the
// conditional updates below.
func (r *productRepoImpl) Save(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Model(product).
		Select("*").
		Omit("Stock", "CreatedAt").
		Updates(product).Error
}

// ReplaceStock sets stock to `to` only if it still reads `from`.
func (r *productRepoImpl) ReplaceStock(ctx context.Context, productID string, from, to int) error {
	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock = ?", productID, from).
		Update("stock", to)

	if result.Error != nil {
		return fmt.Errorf("replace stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, productID); err != nil {
			return err
		}
		return apperror.Conflict("Stock changed, reload the product and try again").With("productId", productID)
	}
	return nil
}

func (r *productRepoImpl) Delete(ctx context.Context, productID string) error {
	result := r.db.WithContext(ctx).Where("id = ?", productID).Delete(&model.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "Product", productID)
	}
	return nil
}

func (r *productRepoImpl) List(ctx context.Context, filter ProductFilter) ([]*model.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.Approved != nil {
		query = query.Where("is_approved = ?", *filter.Approved)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ArtisanID != "" {
		query = query.Where("artisan_id = ?", filter.ArtisanID)
	}
	if filter.PromotionalStatus != "" {
		query = query.Where("promotional_status = ?", filter.PromotionalStatus)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	var products []*model.Product
	err := query.
		Order(productOrder(filter.Sort)).
		Scopes(paginate(filter.Page)).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

func productOrder(sort ProductSort) string {
	switch sort {
	case SortPriceAsc:
		return "price ASC"
	case SortPriceDesc:
		return "price DESC"
	case SortName:
		return "name ASC"
	default:
		return "created_at DESC"
	}
}

// DecrementStock succeeds only when enough stock remains.
func (r *productRepoImpl) DecrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int) error {
	result := r.conn(tx).WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))

	if result.Error != nil {
		return fmt.Errorf("decrement stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.conn(tx).WithContext(ctx).Model(&model.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return fmt.Errorf("check product: %w", err)
		}
		if count == 0 {
			return notFound(gorm.ErrRecordNotFound, "Product", productID)
		}
		return apperror.Conflict("Insufficient stock").With("productId", productID)
	}

	return nil
}

func (r *productRepoImpl) IncrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int) error {
	result := r.conn(tx).WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity))

	if result.Error != nil {
		return fmt.Errorf("increment stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "Product", productID)
	}
	return nil
}

func (r *productRepoImpl) Count(ctx context.Context, approved *bool) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})
	if approved != nil {
		query = query.Where("is_approved = ?", *approved)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *productRepoImpl) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("category").
		Scan(&counts).Error

	if err != nil {
		return nil, err
	}

	return counts, nil
}
