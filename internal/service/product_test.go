package service

import (
	"context"
	"time"

	"brimasouk/internal/apperror"
	"brimasouk/internal/auth"
	"brimasouk/internal/dto"
	"brimasouk/internal/model"
	"brimasouk/internal/notify"
	"brimasouk/internal/repository"
	"brimasouk/internal/testutil"

	"github.com/shopspring/decimal"
)

func (s *ServiceSuite) TestCreateProductRequiresApprovedArtisan() {
	req := dto.CreateProductRequest{Name: "Rug", Description: "Kilim", Category: model.CategoryHome, Price: money("50"), Stock: 1}

	_, err := s.products.Create(s.ctx, s.createUser(model.RoleUser, false), req)
	s.True(apperror.Is(err, apperror.KindAuthorization))

	_, err = s.products.Create(s.ctx, s.createUser(model.RoleArtisan, false), req)
	s.True(apperror.Is(err, apperror.KindAuthorization))

	req.Price = decimal.Zero
	_, err = s.products.Create(s.ctx, s.createUser(model.RoleArtisan, true), req)
	s.True(apperror.Is(err, apperror.KindValidation))
}

func (s *ServiceSuite) TestApproveAppliesMarkup() {
	artisan := s.createUser(model.RoleArtisan, true)
	created, err := s.products.Create(s.ctx, artisan, dto.CreateProductRequest{
		Name:        "Chechia",
		Description: "Red wool hat",
		Category:    model.CategoryMen,
		Price:       money("100"),
		Stock:       4,
	})
	s.Require().NoError(err)
	s.False(created.IsApproved)

	_, err = s.products.Get(s.ctx, auth.Actor{}, created.ID)
	s.True(apperror.Is(err, apperror.KindNotFound))

	markup := money("20")
	approved, err := s.products.Approve(s.ctx, s.adminActor, created.ID, dto.ApproveProductRequest{MarkupPercentage: &markup})
	s.Require().NoError(err)
	s.True(approved.IsApproved)
	s.Equal("120.00", approved.Price.StringFixed(2))
	s.Equal(model.PromotionNewCollection, approved.PromotionalStatus)
	s.Contains(s.notifier.kinds(), notify.ProductReviewed)

	_, err = s.products.Approve(s.ctx, s.adminActor, created.ID, dto.ApproveProductRequest{})
	s.True(apperror.Is(err, apperror.KindConflict))

	public, err := s.products.Get(s.ctx, auth.Actor{}, created.ID)
	s.Require().NoError(err)
	s.Nil(public.OriginalPrice)
	s.Nil(public.MarkupPercentage)

	owned, err := s.products.Get(s.ctx, artisan, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(owned.OriginalPrice)
	s.True(owned.OriginalPrice.Equal(money("100")))
}

func (s *ServiceSuite) TestApproveRejectsMarkupOutOfRange() {
	artisan := s.createUser(model.RoleArtisan, true)
	created, err := s.products.Create(s.ctx, artisan, dto.CreateProductRequest{Name: "Jebba", Description: "Tunic", Category: model.CategoryMen, Price: money("80"), Stock: 1})
	s.Require().NoError(err)

	markup := money("150")
	_, err = s.products.Approve(s.ctx, s.adminActor, created.ID, dto.ApproveProductRequest{MarkupPercentage: &markup})
	s.True(apperror.Is(err, apperror.KindValidation))
}

func (s *ServiceSuite) TestArtisanPriceChangeSendsProductBackToReview() {
	artisan := s.createUser(model.RoleArtisan, true)
	p := s.approvedProduct(artisan, "40", 3)

	price := money("60")
	updated, err := s.products.Update(s.ctx, artisan, p.ID, dto.UpdateProductRequest{Price: &price})
	s.Require().NoError(err)
	s.False(updated.IsApproved)
	s.True(updated.OriginalPrice.Equal(money("60")))

	_, err = s.products.Update(s.ctx, s.createUser(model.RoleArtisan, true), p.ID, dto.UpdateProductRequest{Price: &price})
	s.True(apperror.Is(err, apperror.KindAuthorization))
}

func (s *ServiceSuite) TestAdminEditKeepsProductLive() {
	artisan := s.createUser(model.RoleArtisan, true)
	p := s.approvedProduct(artisan, "40", 3)

	price := money("55")
	name := "Large clay vase"
	updated, err := s.products.Update(s.ctx, s.adminActor, p.ID, dto.UpdateProductRequest{Name: &name, Price: &price})
	s.Require().NoError(err)
	s.True(updated.IsApproved)
	s.Equal("55.00", updated.Price.StringFixed(2))

	public, err := s.products.Get(s.ctx, auth.Actor{}, p.ID)
	s.Require().NoError(err)
	s.True(public.IsApproved)
	s.Equal(name, public.Name)
}

// saleDuringRead lands a checkout between a service's read and its write.
type saleDuringRead struct {
	repository.ProductRepository
	quantity int
}

func (r *saleDuringRead) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	p, err := r.ProductRepository.FindByID(ctx, productID)
	if err != nil || r.quantity == 0 {
		return p, err
	}
	sold := r.quantity
	r.quantity = 0
	return p, r.ProductRepository.DecrementStock(ctx, nil, productID, sold)
}

func (s *ServiceSuite) TestProductEditsKeepConcurrentSales() {
	artisan := s.createUser(model.RoleArtisan, true)
	created, err := s.products.Create(s.ctx, artisan, dto.CreateProductRequest{Name: "Kilim", Description: "Wool rug", Category: model.CategoryHome, Price: money("90"), Stock: 10})
	s.Require().NoError(err)

	racing := &saleDuringRead{ProductRepository: s.productRepo}
	products := NewProductService(testutil.QuietLogger(), s.notifier, racing, s.userRepo)

	racing.quantity = 3
	_, err = products.Approve(s.ctx, s.adminActor, created.ID, dto.ApproveProductRequest{})
	s.Require().NoError(err)
	s.Equal(7, s.stockOf(created.ID))

	racing.quantity = 2
	_, err = products.SetPromotion(s.ctx, s.adminActor, created.ID, dto.PromotionRequest{PromotionalStatus: model.PromotionBestSeller})
	s.Require().NoError(err)
	s.Equal(5, s.stockOf(created.ID))

	racing.quantity = 1
	name := "Kilim rug"
	_, err = products.Update(s.ctx, s.adminActor, created.ID, dto.UpdateProductRequest{Name: &name})
	s.Require().NoError(err)
	s.Equal(4, s.stockOf(created.ID))

	racing.quantity = 1
	stock := 20
	_, err = products.Update(s.ctx, artisan, created.ID, dto.UpdateProductRequest{Stock: &stock})
	s.True(apperror.Is(err, apperror.KindConflict))
	s.Equal(3, s.stockOf(created.ID))

	updated, err := products.Update(s.ctx, artisan, created.ID, dto.UpdateProductRequest{Stock: &stock})
	s.Require().NoError(err)
	s.Equal(20, updated.Stock)
	s.Equal(20, s.stockOf(created.ID))
}

func (s *ServiceSuite) TestRejectProduct() {
	artisan := s.createUser(model.RoleArtisan, true)
	created, err := s.products.Create(s.ctx, artisan, dto.CreateProductRequest{Name: "Bowl", Description: "Ceramic", Category: model.CategoryHome, Price: money("15"), Stock: 2})
	s.Require().NoError(err)

	_, err = s.products.Reject(s.ctx, s.adminActor, created.ID, "")
	s.True(apperror.Is(err, apperror.KindValidation))

	rejected, err := s.products.Reject(s.ctx, s.adminActor, created.ID, "Blurry photos")
	s.Require().NoError(err)
	s.Equal("Blurry photos", rejected.RejectionReason)

	pending, total, err := s.products.ListPending(s.ctx, repository.Page{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(created.ID, pending[0].ID)
}

func (s *ServiceSuite) TestPublicListOnlyShowsApproved() {
	artisan := s.createUser(model.RoleArtisan, true)
	approved := s.approvedProduct(artisan, "30", 2)
	_, err := s.products.Create(s.ctx, artisan, dto.CreateProductRequest{Name: "Draft", Description: "Pending", Category: model.CategoryHome, Price: money("10"), Stock: 1})
	s.Require().NoError(err)

	items, total, err := s.products.List(s.ctx, repository.ProductFilter{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(approved.ID, items[0].ID)

	mine, total, err := s.products.ListMine(s.ctx, artisan, nil, repository.Page{})
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.NotNil(mine[0].OriginalPrice)
}

func (s *ServiceSuite) TestFlashSectionOnlyShowsActivePromotions() {
	artisan := s.createUser(model.RoleArtisan, true)
	live := s.approvedProduct(artisan, "50", 2)
	expired := s.approvedProduct(artisan, "60", 2)

	discount := money("25")
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-time.Hour)

	resp, err := s.products.SetPromotion(s.ctx, s.adminActor, live.ID, dto.PromotionRequest{
		PromotionalStatus:  model.PromotionFlashSale,
		DiscountPercentage: &discount,
		PromotionEndDate:   &future,
	})
	s.Require().NoError(err)
	s.True(resp.IsPromotionActive)
	s.Equal("37.50", resp.DiscountedPrice.StringFixed(2))

	_, err = s.products.SetPromotion(s.ctx, s.adminActor, expired.ID, dto.PromotionRequest{
		PromotionalStatus:  model.PromotionFlashSale,
		DiscountPercentage: &discount,
		PromotionEndDate:   &past,
	})
	s.Require().NoError(err)

	flash, err := s.products.Section(s.ctx, SectionFlash, 0)
	s.Require().NoError(err)
	s.Require().Len(flash, 1)
	s.Equal(live.ID, flash[0].ID)

	_, err = s.products.Section(s.ctx, "clearance", 0)
	s.True(apperror.Is(err, apperror.KindValidation))
}

func (s *ServiceSuite) TestNewPromotionReplacesExpiredFlashSale() {
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "50", 2)

	discount := money("30")
	past := time.Now().Add(-time.Hour)
	_, err := s.products.SetPromotion(s.ctx, s.adminActor, p.ID, dto.PromotionRequest{
		PromotionalStatus:  model.PromotionFlashSale,
		DiscountPercentage: &discount,
		PromotionEndDate:   &past,
	})
	s.Require().NoError(err)

	resp, err := s.products.SetPromotion(s.ctx, s.adminActor, p.ID, dto.PromotionRequest{PromotionalStatus: model.PromotionBestSeller})
	s.Require().NoError(err)
	s.Equal(model.PromotionBestSeller, resp.PromotionalStatus)
	s.True(resp.DiscountPercentage.IsZero())
	s.Nil(resp.PromotionEndDate)
	s.Require().NotNil(resp.PromotionStartDate)
	s.True(resp.PromotionStartDate.After(past))
}

func (s *ServiceSuite) TestAdjustStock() {
	artisan := s.createUser(model.RoleArtisan, true)
	p := s.approvedProduct(artisan, "20", 2)

	resp, err := s.products.AdjustStock(s.ctx, artisan, p.ID, 3)
	s.Require().NoError(err)
	s.Equal(5, resp.Stock)

	_, err = s.products.AdjustStock(s.ctx, artisan, p.ID, -10)
	s.True(apperror.Is(err, apperror.KindConflict))
	s.Equal(5, s.stockOf(p.ID))
}

func (s *ServiceSuite) TestDeleteProduct() {
	artisan := s.createUser(model.RoleArtisan, true)
	p := s.approvedProduct(artisan, "20", 2)

	s.True(apperror.Is(s.products.Delete(s.ctx, s.createUser(model.RoleUser, false), p.ID), apperror.KindAuthorization))
	s.Require().NoError(s.products.Delete(s.ctx, artisan, p.ID))

	_, err := s.products.Get(s.ctx, artisan, p.ID)
	s.True(apperror.Is(err, apperror.KindNotFound))
}

func (s *ServiceSuite) TestPromoCodeLifecycle() {
	customer := s.createUser(model.RoleUser, false)
	_, err := s.promos.Create(s.ctx, customer, dto.CreatePromoCodeRequest{Code: "SAVE10", DiscountValue: money("10")})
	s.True(apperror.Is(err, apperror.KindAuthorization))

	promo, err := s.promos.Create(s.ctx, s.adminActor, dto.CreatePromoCodeRequest{
		Code:          "save10",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: money("10"),
		MinOrderValue: money("50"),
	})
	s.Require().NoError(err)
	s.Equal("SAVE10", promo.Code)

	_, err = s.promos.Create(s.ctx, s.adminActor, dto.CreatePromoCodeRequest{Code: "SAVE10", DiscountValue: money("5")})
	s.True(apperror.Is(err, apperror.KindConflict))

	_, err = s.promos.Validate(s.ctx, dto.ValidatePromoCodeRequest{Code: "save10", OrderValue: money("40")})
	s.True(apperror.Is(err, apperror.KindValidation))

	valid, err := s.promos.Validate(s.ctx, dto.ValidatePromoCodeRequest{Code: "save10", OrderValue: money("60")})
	s.Require().NoError(err)
	s.True(valid.Valid)
	s.True(valid.DiscountAmount.Equal(money("6")))

	applied, err := s.promos.Apply(s.ctx, "SAVE10")
	s.Require().NoError(err)
	s.Equal(1, applied.CurrentUses)
}

func (s *ServiceSuite) TestPromoCodePercentageBounds() {
	_, err := s.promos.Create(s.ctx, s.adminActor, dto.CreatePromoCodeRequest{
		Code:          "HALFOFF",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: money("101"),
	})
	s.True(apperror.Is(err, apperror.KindValidation))
}

func (s *ServiceSuite) TestApprovedMarketerManagesPromoCodes() {
	marketer := s.createUser(model.RoleUser, false)
	_, err := s.users.ApplyCollaborator(s.ctx, marketer, dto.ApplyCollaboratorRequest{CollaboratorRole: model.CollaboratorMarketer})
	s.Require().NoError(err)
	marketer.Role = model.RoleCollaborator

	_, err = s.promos.List(s.ctx, marketer)
	s.True(apperror.Is(err, apperror.KindAuthorization))

	_, err = s.admin.ApproveCollaborator(s.ctx, s.adminActor, marketer.ID)
	s.Require().NoError(err)

	_, err = s.promos.Create(s.ctx, marketer, dto.CreatePromoCodeRequest{Code: "SPRING", DiscountType: model.DiscountFixed, DiscountValue: money("5")})
	s.Require().NoError(err)

	codes, err := s.promos.List(s.ctx, marketer)
	s.Require().NoError(err)
	s.Len(codes, 1)
}

func (s *ServiceSuite) TestCartMergesRepeatedAdds() {
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "12.50", 3)

	_, err := s.carts.AddItem(s.ctx, customer, dto.CartItemRequest{ProductID: p.ID, Quantity: 1})
	s.Require().NoError(err)
	cart, err := s.carts.AddItem(s.ctx, customer, dto.CartItemRequest{ProductID: p.ID, Quantity: 2})
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Equal(3, cart.Items[0].Quantity)
	s.True(cart.Total.Equal(money("37.5")))

	_, err = s.carts.AddItem(s.ctx, customer, dto.CartItemRequest{ProductID: p.ID, Quantity: 1})
	s.True(apperror.Is(err, apperror.KindConflict))

	cart, err = s.carts.UpdateItem(s.ctx, customer, p.ID, 1)
	s.Require().NoError(err)
	s.Equal(1, cart.Items[0].Quantity)

	cart, err = s.carts.RemoveItem(s.ctx, customer, p.ID)
	s.Require().NoError(err)
	s.Empty(cart.Items)
}

func (s *ServiceSuite) TestCartRejectsUnapprovedProduct() {
	artisan := s.createUser(model.RoleArtisan, true)
	created, err := s.products.Create(s.ctx, artisan, dto.CreateProductRequest{Name: "Lamp", Description: "Brass", Category: model.CategoryHome, Price: money("45"), Stock: 5})
	s.Require().NoError(err)

	_, err = s.carts.AddItem(s.ctx, s.createUser(model.RoleUser, false), dto.CartItemRequest{ProductID: created.ID, Quantity: 1})
	s.True(apperror.Is(err, apperror.KindConflict))
}
