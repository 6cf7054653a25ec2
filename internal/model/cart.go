package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of a user's cart; (UserID, ProductID) is unique.
type CartItem struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"-"`
	ProductID string    `gorm:"primaryKey;size:36" json:"productId"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Cart struct {
	UserID string     `json:"userId"`
	Items  []CartItem `json:"items"`
}

// Total prices each line at the product's current unit price.
func (c *Cart) Total(now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		if item.Product == nil {
			continue
		}
		total = total.Add(item.Product.UnitPrice(now).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
