package model

import (
	"fmt"
	"time"

	"brimasouk/internal/apperror"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

type PromoCode struct {
	ID                   string          `gorm:"primaryKey;size:36" json:"id"`
	Code                 string          `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Description          string          `gorm:"size:255" json:"description,omitempty"`
	DiscountType         DiscountType    `gorm:"size:16;not null" json:"discountType"`
	DiscountValue        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discountValue"`
	MaxUses              int             `gorm:"not null" json:"maxUses"` // 0 means unlimited
	CurrentUses          int             `gorm:"not null" json:"currentUses"`
	StartDate            time.Time       `gorm:"not null" json:"startDate"`
	EndDate              *time.Time      `json:"endDate,omitempty"`
	IsActive             bool            `gorm:"not null" json:"isActive"`
	CreatedBy            string          `gorm:"size:36;not null" json:"createdBy"`
	MinOrderValue        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"minOrderValue"`
	ApplicableCategories []Category      `gorm:"serializer:json" json:"applicableCategories"`
	ApplicableProducts   []string        `gorm:"serializer:json" json:"applicableProducts"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func (p *PromoCode) IsExpired(now time.Time) bool {
	return p.EndDate != nil && now.After(*p.EndDate)
}

func (p *PromoCode) IsMaxedOut() bool {
	return p.MaxUses != 0 && p.CurrentUses >= p.MaxUses
}

func (p *PromoCode) IsValid(now time.Time) bool {
	return p.IsActive && !p.IsExpired(now) && !p.IsMaxedOut()
}

// Validate returns a validation error carrying the customer-facing reason when
// the code cannot be used. Empty category or productID skip those checks.
func (p *PromoCode) Validate(orderValue decimal.Decimal, category Category, productID string, now time.Time) error {
	if !p.IsValid(now) {
		return apperror.Validation("Promo code is invalid or expired")
	}
	if orderValue.LessThan(p.MinOrderValue) {
		return apperror.Validation("%s", fmt.Sprintf("Minimum order value of %s required", p.MinOrderValue.StringFixed(2)))
	}
	if len(p.ApplicableCategories) > 0 && category != "" && !containsCategory(p.ApplicableCategories, category) {
		return apperror.Validation("Promo code not applicable for this category")
	}
	if len(p.ApplicableProducts) > 0 && productID != "" && !containsString(p.ApplicableProducts, productID) {
		return apperror.Validation("Promo code not applicable for this product")
	}
	return nil
}

// CalculateDiscount never returns more than orderValue.
func (p *PromoCode) CalculateDiscount(orderValue decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	if p.DiscountType == DiscountPercentage {
		discount = orderValue.Mul(p.DiscountValue).Div(hundred).Round(2)
	} else {
		discount = p.DiscountValue
	}
	return decimal.Min(discount, orderValue)
}

func containsCategory(list []Category, c Category) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
