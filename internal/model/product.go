package model

import (
	"strings"
	"time"

	"brimasouk/internal/apperror"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryMen    Category = "Men"
	CategoryWomen  Category = "Women"
	CategoryGifts  Category = "Gifts"
	CategoryHome   Category = "Home"
	CategoryKids   Category = "Kids"
	CategoryBeauty Category = "Beauty"
)

var Categories = []Category{CategoryMen, CategoryWomen, CategoryGifts, CategoryHome, CategoryKids, CategoryBeauty}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type PromotionalStatus string

const (
	PromotionNone          PromotionalStatus = "none"
	PromotionFlashSale     PromotionalStatus = "flash_sale"
	PromotionNewCollection PromotionalStatus = "new_collection"
	PromotionBestSeller    PromotionalStatus = "best_seller"
)

func (s PromotionalStatus) Valid() bool {
	switch s {
	case PromotionNone, PromotionFlashSale, PromotionNewCollection, PromotionBestSeller:
		return true
	}
	return false
}

type Product struct {
	ID          string   `gorm:"primaryKey;size:36" json:"id"`
	Name        string   `gorm:"size:200;not null" json:"name"`
	Description string   `gorm:"type:text;not null" json:"description"`
	Category    Category `gorm:"size:16;index;not null" json:"category"`
	ArtisanID   string   `gorm:"size:36;index;not null" json:"artisanId"`
	Images      []string `gorm:"serializer:json" json:"images"`

	// OriginalPrice is what the artisan asks; Price is what customers pay.
	OriginalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"originalPrice"`
	Price            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	MarkupPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"markupPercentage"`

	IsApproved      bool       `gorm:"index;not null" json:"isApproved"`
	ApprovedBy      string     `gorm:"size:36" json:"approvedBy,omitempty"`
	ApprovalDate    *time.Time `json:"approvalDate,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejectionReason,omitempty"`

	PromotionalStatus  PromotionalStatus `gorm:"size:32;index;not null" json:"promotionalStatus"`
	DiscountPercentage decimal.Decimal   `gorm:"type:decimal(5,2);not null" json:"discountPercentage"`
	PromotionStartDate *time.Time        `json:"promotionStartDate,omitempty"`
	PromotionEndDate   *time.Time        `json:"promotionEndDate,omitempty"`

	Stock int `gorm:"not null" json:"stock"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewProduct builds an unapproved product priced at the artisan's asking price.
func NewProduct(id, artisanID, name, description string, category Category, price decimal.Decimal, stock int, images []string) *Product {
	return &Product{
		ID:                 id,
		ArtisanID:          artisanID,
		Name:               strings.TrimSpace(name),
		Description:        strings.TrimSpace(description),
		Category:           category,
		Images:             images,
		OriginalPrice:      price,
		Price:              price,
		MarkupPercentage:   DefaultMarkup,
		PromotionalStatus:  PromotionNewCollection,
		DiscountPercentage: decimal.Zero,
		Stock:              stock,
	}
}

func (p *Product) IsAvailable() bool {
	return p.Stock > 0
}

// EffectiveDiscount ignores a discount whose promotion window has closed.
func (p *Product) EffectiveDiscount(now time.Time) decimal.Decimal {
	if p.PromotionEndDate != nil && now.After(*p.PromotionEndDate) {
		return decimal.Zero
	}
	return p.DiscountPercentage
}

func (p *Product) DiscountedPrice(now time.Time) decimal.Decimal {
	return DiscountedPrice(p.Price, p.EffectiveDiscount(now))
}

// UnitPrice is the price snapshotted into an order line.
func (p *Product) UnitPrice(now time.Time) decimal.Decimal {
	if d := p.DiscountedPrice(now); d.IsPositive() {
		return d
	}
	return p.Price
}

func (p *Product) IsPromotionActive(now time.Time) bool {
	if p.PromotionalStatus != PromotionFlashSale {
		return false
	}
	if p.PromotionStartDate != nil && now.Before(*p.PromotionStartDate) {
		return false
	}
	return p.PromotionEndDate == nil || !now.After(*p.PromotionEndDate)
}

// Approve recomputes Price from OriginalPrice. A nil markup keeps the stored one.
func (p *Product) Approve(markup *decimal.Decimal, approver string, now time.Time) error {
	if p.IsApproved {
		return apperror.Conflict("Product is already approved").With("productId", p.ID)
	}
	if markup != nil {
		if !ValidPercentage(*markup) {
			return apperror.Validation("Markup percentage must be between 0 and 100")
		}
		p.MarkupPercentage = *markup
	}

	p.IsApproved = true
	p.Price = ComputeApprovedPrice(p.OriginalPrice, p.MarkupPercentage)
	if p.PromotionalStatus == "" || p.PromotionalStatus == PromotionNone {
		p.PromotionalStatus = PromotionNewCollection
	}
	p.ApprovedBy = approver
	p.ApprovalDate = &now
	p.RejectionReason = ""
	return nil
}

func (p *Product) Reject(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperror.Validation("Rejection reason is required")
	}
	p.IsApproved = false
	p.RejectionReason = reason
	return nil
}

// SetArtisanPrice treats price as the new asking price. An approved product is
// repriced with its current markup right away.
func (p *Product) SetArtisanPrice(price decimal.Decimal) {
	p.OriginalPrice = price
	if p.IsApproved {
		p.Price = ComputeApprovedPrice(price, p.MarkupPercentage)
	} else {
		p.Price = price
	}
}

// SetPromotion opens the promotion window at now when none was set.
func (p *Product) SetPromotion(status PromotionalStatus, discount *decimal.Decimal, endDate *time.Time, now time.Time) error {
	if !status.Valid() {
		return apperror.Validation("Invalid promotional status").With("promotionalStatus", status)
	}
	if discount != nil {
		if !ValidPercentage(*discount) {
			return apperror.Validation("Discount percentage must be between 0 and 100")
		}
		p.DiscountPercentage = *discount
	}
	if endDate != nil {
		p.PromotionEndDate = endDate
	}

	p.PromotionalStatus = status
	if status != PromotionNone && p.PromotionStartDate == nil {
		p.PromotionStartDate = &now
	}
	return nil
}

// ClearExpiredPromotion drops a flash sale whose window has closed, so the
// next promotion opens a fresh window. It reports whether anything changed.
func (p *Product) ClearExpiredPromotion(now time.Time) bool {
	if p.PromotionalStatus != PromotionFlashSale || p.PromotionEndDate == nil || !now.After(*p.PromotionEndDate) {
		return false
	}
	p.PromotionalStatus = PromotionNone
	p.DiscountPercentage = decimal.Zero
	p.PromotionStartDate = nil
	p.PromotionEndDate = nil
	return true
}
