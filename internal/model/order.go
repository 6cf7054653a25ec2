package model

import (
	"strings"
	"time"

	"brimasouk/internal/apperror"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentBankTransfer, PaymentCashOnDelivery:
		return true
	}
	return false
}

const (
	DefaultCountry        = "Tunisia"
	EstimatedDeliveryDays = 10
)

type ShippingAddress struct {
	FullName     string `gorm:"size:120" json:"fullName" validate:"required"`
	AddressLine1 string `gorm:"size:255" json:"addressLine1" validate:"required"`
	AddressLine2 string `gorm:"size:255" json:"addressLine2,omitempty"`
	City         string `gorm:"size:120" json:"city" validate:"required"`
	Region       string `gorm:"size:120" json:"region" validate:"required"`
	PostalCode   string `gorm:"size:20" json:"postalCode" validate:"required"`
	Country      string `gorm:"size:80" json:"country"`
	Phone        string `gorm:"size:40" json:"phone" validate:"required"`
}

func (a ShippingAddress) IsZero() bool {
	return a.FullName == "" && a.AddressLine1 == "" && a.City == ""
}

type Order struct {
	ID        string      `gorm:"primaryKey;size:36" json:"id"`
	UserID    string      `gorm:"size:36;index;not null" json:"userId"`
	ArtisanID string      `gorm:"size:36;index" json:"artisanId"`
	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ShippingCost decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shippingCost"`
	Discount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	DiscountCode string          `gorm:"size:32" json:"discountCode,omitempty"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`

	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`

	PaymentMethod    PaymentMethod `gorm:"size:32;not null" json:"paymentMethod"`
	PaymentStatus    PaymentStatus `gorm:"size:16;index;not null" json:"paymentStatus"`
	PaymentReference string        `gorm:"size:64;index" json:"paymentReference,omitempty"`
	PaymentSessionID string        `gorm:"size:128" json:"paymentSessionId,omitempty"`
	PaymentURL       string        `gorm:"size:512" json:"paymentUrl,omitempty"`
	TransactionID    string        `gorm:"size:128" json:"transactionId,omitempty"`

	OrderStatus       OrderStatus `gorm:"size:16;index;not null" json:"orderStatus"`
	OrderNotes        string      `gorm:"type:text" json:"orderNotes,omitempty"`
	IsGift            bool        `gorm:"not null" json:"isGift"`
	GiftMessage       string      `gorm:"type:text" json:"giftMessage,omitempty"`
	EstimatedDelivery time.Time   `json:"estimatedDelivery"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"-"`
	OrderID    string          `gorm:"size:36;index;not null" json:"-"`
	ProductID  string          `gorm:"size:36;index;not null" json:"productId"`
	Name       string          `gorm:"size:200" json:"name"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalPrice"`
}

func NewOrderItem(productID, name string, quantity int, price decimal.Decimal) OrderItem {
	return OrderItem{
		ProductID:  productID,
		Name:       name,
		Quantity:   quantity,
		Price:      price,
		TotalPrice: price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// RecomputeTotals derives subtotal, shipping and total from the lines and the
// current discount. Call it after any item mutation.
func (o *Order) RecomputeTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	o.Subtotal = subtotal
	o.ShippingCost = ShippingCost(subtotal)
	o.TotalAmount = OrderTotal(o.Subtotal, o.ShippingCost, o.Discount)
}

func (o *Order) CanCancel() bool {
	return o.OrderStatus == OrderPending || o.OrderStatus == OrderProcessing
}

// Cancel is terminal. Stock restoration is the caller's job.
func (o *Order) Cancel(reason string) error {
	if !o.CanCancel() {
		return apperror.Conflict("This order cannot be cancelled").With("orderStatus", o.OrderStatus)
	}
	o.OrderStatus = OrderCancelled
	if o.PaymentStatus == PaymentPending {
		o.PaymentStatus = PaymentCancelled
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		o.AppendNote("Cancellation reason: " + reason)
	}
	return nil
}

func (o *Order) MarkPaid(transactionID string) {
	o.PaymentStatus = PaymentPaid
	o.TransactionID = transactionID
	if o.OrderStatus == OrderPending {
		o.OrderStatus = OrderProcessing
	}
}

func (o *Order) AppendNote(note string) {
	if o.OrderNotes == "" {
		o.OrderNotes = note
		return
	}
	o.OrderNotes += "\n" + note
}

func (o *Order) IsOwnedBy(userID string) bool {
	return o.UserID == userID
}
