package repository

import (
	"context"
	"fmt"
	"time"

	"brimasouk/internal/apperror"
	"brimasouk/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderFilter struct {
	UserID    string
	ArtisanID string
	Status    model.OrderStatus
	Page      Page
}

type ProductSales struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	TotalSold int64           `json:"totalSold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error)
	UpdatePaymentSession(ctx context.Context, orderID, reference, sessionID, paymentURL string) error
	MarkCancelled(ctx context.Context, tx *gorm.DB, order *model.Order) error
	MarkPaid(ctx context.Context, tx *gorm.DB, order *model.Order) error
	MarkPaymentFailed(ctx context.Context, orderID string) error
	UpdateStatus(ctx context.Context, order *model.Order) error
	Count(ctx context.Context) (int64, error)
	ArtisanSales(ctx context.Context, artisanID string, from, to time.Time) ([]ProductSales, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create stores the order together with its items.
func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.conn(tx).WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, notFound(err, "Order", orderID)
	}

	return &order, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ArtisanID != "" {
		query = query.Where("artisan_id = ?", filter.ArtisanID)
	}
	if filter.Status != "" {
		query = query.Where("order_status = ?", filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	var orders []*model.Order
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Scopes(paginate(filter.Page)).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

func (r *orderRepoImpl) UpdatePaymentSession(ctx context.Context, orderID, reference, sessionID, paymentURL string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"payment_reference":  reference,
			"payment_session_id": sessionID,
			"payment_url":        paymentURL,
		}).Error
}

// MarkCancelled persists a cancellation only while the stored order is still
// cancellable, so two racing cancels cannot both restore stock.
func (r *orderRepoImpl) MarkCancelled(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND order_status IN ?
		`,
			order.ID,
			[]model.OrderStatus{model.OrderPending, model.OrderProcessing},
		).
		Updates(map[string]interface{}{
			"order_status":   order.OrderStatus,
			"payment_status": order.PaymentStatus,
			"order_notes":    order.OrderNotes,
		})

	if result.Error != nil {
		return fmt.Errorf("cancel order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.Conflict("This order cannot be cancelled")
	}
	return nil
}

func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	result := r.conn(tx).WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status IN ? AND order_status <> ?",
			order.ID, []model.PaymentStatus{model.PaymentPending, model.PaymentFailed}, model.OrderCancelled).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentPaid,
			"transaction_id": order.TransactionID,
			"order_status":   order.OrderStatus,
		})

	if result.Error != nil {
		return fmt.Errorf("mark order paid: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.Conflict("Order is already paid or cancelled")
	}
	return nil
}

func (r *orderRepoImpl) MarkPaymentFailed(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", orderID, model.PaymentPending).
		Update("payment_status", model.PaymentFailed).Error
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"order_status": order.OrderStatus,
			"order_notes":  order.OrderNotes,
		}).Error
}

func (r *orderRepoImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&count).Error
	return count, err
}

// ArtisanSales aggregates paid order lines for the artisan's products,
// best sellers first.
func (r *orderRepoImpl) ArtisanSales(ctx context.Context, artisanID string, from, to time.Time) ([]ProductSales, error) {
	var sales []ProductSales
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id AS product_id, products.name AS name, SUM(order_items.quantity) AS total_sold, SUM(order_items.total_price) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.artisan_id = ?", artisanID).
		Where("orders.payment_status = ?", model.PaymentPaid).
		Where("orders.created_at BETWEEN ? AND ?", from, to).
		Group("order_items.product_id, products.name").
		Order("total_sold DESC").
		Scan(&sales).Error

	if err != nil {
		return nil, fmt.Errorf("artisan sales: %w", err)
	}

	return sales, nil
}
