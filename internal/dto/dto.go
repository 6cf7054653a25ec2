package dto

import (
	"time"

	"brimasouk/internal/model"
	"brimasouk/internal/repository"

	"github.com/shopspring/decimal"
)

// -------- auth / users --------

type SignupRequest struct {
	FullName string     `json:"fullName" validate:"required,min=2,max=120"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8,max=72"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=user artisan"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type UpdateProfileRequest struct {
	FullName       *string `json:"fullName" validate:"omitempty,min=2,max=120"`
	ProfilePicture *string `json:"profilePicture" validate:"omitempty,max=512"`
	BannerImage    *string `json:"bannerImage" validate:"omitempty,max=512"`
	Region         *string `json:"region" validate:"omitempty,max=120"`
	PhoneNumber    *string `json:"phoneNumber" validate:"omitempty,max=40"`
}

type ApplyArtisanRequest struct {
	Region      string `json:"region" validate:"required,max=120"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=40"`
	BannerImage string `json:"bannerImage" validate:"omitempty,max=512"`
	Description string `json:"artisanDescription" validate:"max=2000"`
}

type ApplyCollaboratorRequest struct {
	CollaboratorRole model.CollaboratorRole `json:"collaboratorRole" validate:"required,oneof=designer technical_expert marketer"`
	Skills           []string               `json:"skills"`
	Portfolio        string                 `json:"portfolio" validate:"omitempty,url"`
	Experience       string                 `json:"experience"`
	Bio              string                 `json:"bio"`
	Specialties      []string               `json:"specialties"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// -------- products --------

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"required"`
	Category    model.Category  `json:"category" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Images      []string        `json:"images"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Description *string          `json:"description"`
	Category    *model.Category  `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Images      []string         `json:"images"`
}

type ApproveProductRequest struct {
	MarkupPercentage *decimal.Decimal `json:"markupPercentage"`
}

type PromotionRequest struct {
	PromotionalStatus  model.PromotionalStatus `json:"promotionalStatus" validate:"required"`
	DiscountPercentage *decimal.Decimal        `json:"discountPercentage"`
	PromotionEndDate   *time.Time              `json:"promotionEndDate"`
}

type StockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// ProductResponse is the customer-facing product; pricing internals are
// only filled for the owner and admins.
type ProductResponse struct {
	*model.Product
	OriginalPrice     *decimal.Decimal `json:"originalPrice,omitempty"`
	MarkupPercentage  *decimal.Decimal `json:"markupPercentage,omitempty"`
	DiscountedPrice   decimal.Decimal  `json:"discountedPrice"`
	IsAvailable       bool             `json:"isAvailable"`
	IsPromotionActive bool             `json:"isPromotionActive"`
}

// -------- promo codes --------

type CreatePromoCodeRequest struct {
	Code                 string             `json:"code" validate:"required,alphanum,min=3,max=32"`
	Description          string             `json:"description" validate:"max=255"`
	DiscountType         model.DiscountType `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue        decimal.Decimal    `json:"discountValue"`
	MaxUses              int                `json:"maxUses" validate:"gte=0"`
	StartDate            *time.Time         `json:"startDate"`
	EndDate              *time.Time         `json:"endDate"`
	MinOrderValue        decimal.Decimal    `json:"minOrderValue"`
	ApplicableCategories []model.Category   `json:"applicableCategories"`
	ApplicableProducts   []string           `json:"applicableProducts"`
}

type ValidatePromoCodeRequest struct {
	Code       string          `json:"code" validate:"required"`
	OrderValue decimal.Decimal `json:"orderValue"`
	Category   model.Category  `json:"category"`
	ProductID  string          `json:"productId"`
}

type ValidatePromoCodeResponse struct {
	Valid          bool               `json:"valid"`
	Code           string             `json:"code"`
	DiscountType   model.DiscountType `json:"discountType"`
	DiscountValue  decimal.Decimal    `json:"discountValue"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
}

type ApplyPromoCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// -------- cart --------

type CartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type CartResponse struct {
	*model.Cart
	Total decimal.Decimal `json:"total"`
}

// -------- orders --------

type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" validate:"dive"`
	UseCart         bool                   `json:"useCart"`
	ShippingAddress *model.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   model.PaymentMethod    `json:"paymentMethod"`
	DiscountCode    string                 `json:"discountCode"`
	IsGift          bool                   `json:"isGift"`
	GiftMessage     string                 `json:"giftMessage" validate:"max=500"`
	OrderNotes      string                 `json:"orderNotes" validate:"max=1000"`
}

type CreateOrderResponse struct {
	Order   *model.Order `json:"order"`
	Payment *PaymentInfo `json:"payment,omitempty"`
}

type PaymentInfo struct {
	PaymentURL       string `json:"paymentUrl"`
	SessionID        string `json:"sessionId"`
	PaymentReference string `json:"paymentReference"`
	ClientToken      string `json:"clientToken,omitempty"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required"`
	Notes  string            `json:"notes"`
}

type CheckoutRequest struct {
	Nonce string `json:"nonce" validate:"required"`
}

type VerifyPaymentResponse struct {
	Verified      bool                `json:"verified"`
	Status        string              `json:"status"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	Order         *model.Order        `json:"order,omitempty"`
}

type ArtisanStatsResponse struct {
	From         time.Time                 `json:"from"`
	To           time.Time                 `json:"to"`
	TotalRevenue decimal.Decimal           `json:"totalRevenue"`
	TotalItems   int64                     `json:"totalItems"`
	TopProducts  []repository.ProductSales `json:"topProducts"`
	Products     int64                     `json:"products"`
	Events       int64                     `json:"events"`
}

// -------- events --------

type CreateEventRequest struct {
	Title           string               `json:"title" validate:"required,max=200"`
	Description     string               `json:"description" validate:"required"`
	Location        model.Location       `json:"location"`
	Images          []string             `json:"images"`
	StartDate       time.Time            `json:"startDate" validate:"required"`
	EndDate         time.Time            `json:"endDate" validate:"required"`
	MaxParticipants int                  `json:"maxParticipants" validate:"gte=0"`
	Price           decimal.Decimal      `json:"price"`
	IsFree          bool                 `json:"isFree"`
	DurationMinutes int                  `json:"durationMinutes" validate:"required,gt=0"`
	ExperienceType  model.ExperienceType `json:"experienceType" validate:"required"`
}

type UpdateEventRequest struct {
	Title           *string               `json:"title" validate:"omitempty,max=200"`
	Description     *string               `json:"description"`
	Location        *model.Location       `json:"location"`
	Images          []string              `json:"images"`
	StartDate       *time.Time            `json:"startDate"`
	EndDate         *time.Time            `json:"endDate"`
	MaxParticipants *int                  `json:"maxParticipants" validate:"omitempty,gt=0"`
	Price           *decimal.Decimal      `json:"price"`
	IsFree          *bool                 `json:"isFree"`
	DurationMinutes *int                  `json:"durationMinutes" validate:"omitempty,gt=0"`
	ExperienceType  *model.ExperienceType `json:"experienceType"`
}

type BookEventRequest struct {
	FullName             string `json:"fullName" validate:"required,max=120"`
	Email                string `json:"email" validate:"required,email"`
	PhoneNumber          string `json:"phoneNumber" validate:"max=40"`
	NumberOfParticipants int    `json:"numberOfParticipants" validate:"gte=0"`
	SpecialRequirements  string `json:"specialRequirements" validate:"max=1000"`
}

// -------- admin --------

type DashboardStats struct {
	TotalUsers         int64                      `json:"totalUsers"`
	TotalArtisans      int64                      `json:"totalArtisans"`
	PendingArtisans    int64                      `json:"pendingArtisans"`
	TotalCollaborators int64                      `json:"totalCollaborators"`
	TotalProducts      int64                      `json:"totalProducts"`
	PendingProducts    int64                      `json:"pendingProducts"`
	PendingEvents      int64                      `json:"pendingEvents"`
	TotalOrders        int64                      `json:"totalOrders"`
	ProductsByCategory []repository.CategoryCount `json:"productsByCategory"`
}

// EnhancedDashboardStats adds the collaborator and event breakdowns.
type EnhancedDashboardStats struct {
	DashboardStats
	PendingCollaborators int64                              `json:"pendingCollaborators"`
	ApprovedEvents       int64                              `json:"approvedEvents"`
	CollaboratorsByRole  []repository.CollaboratorRoleCount `json:"collaboratorsByRole"`
	EventsByType         []repository.ExperienceTypeCount   `json:"eventsByType"`
}

// -------- shared --------

type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

func NewListResponse[T any](items []T, total int64, page, limit int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	if page < 1 {
		page = 1
	}
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return ListResponse[T]{Items: items, Total: total, Page: page, Pages: pages}
}
