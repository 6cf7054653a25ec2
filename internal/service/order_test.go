package service

import (
	"errors"
	"time"

	"brimasouk/internal/apperror"
	"brimasouk/internal/auth"
	"brimasouk/internal/client"
	"brimasouk/internal/config"
	"brimasouk/internal/dto"
	"brimasouk/internal/model"
	"brimasouk/internal/notify"
	"brimasouk/internal/repository"
)

func (s *ServiceSuite) placeOrder(customer auth.Actor, productID string, quantity int) *dto.CreateOrderResponse {
	resp, err := s.orders.Create(s.ctx, customer, dto.CreateOrderRequest{
		Items:           []dto.OrderItemRequest{{ProductID: productID, Quantity: quantity}},
		ShippingAddress: shippingAddress(),
		PaymentMethod:   model.PaymentCard,
	})
	s.Require().NoError(err)
	return resp
}

func (s *ServiceSuite) TestCreateOrderComputesTotalsAndOpensPayment() {
	artisan := s.createUser(model.RoleArtisan, true)
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(artisan, "40", 5)

	resp := s.placeOrder(customer, p.ID, 2)
	order := resp.Order

	s.Equal("80.00", order.Subtotal.StringFixed(2))
	s.Equal("7.99", order.ShippingCost.StringFixed(2))
	s.Equal("87.99", order.TotalAmount.StringFixed(2))
	s.Equal(model.OrderPending, order.OrderStatus)
	s.Equal(model.PaymentPending, order.PaymentStatus)
	s.Equal(model.DefaultCountry, order.ShippingAddress.Country)
	s.Equal(artisan.ID, order.ArtisanID)

	s.Require().NotNil(resp.Payment)
	s.Equal("sess-"+order.ID, resp.Payment.SessionID)

	stored, err := s.orders.Get(s.ctx, customer, order.ID)
	s.Require().NoError(err)
	s.Equal(resp.Payment.PaymentReference, stored.PaymentReference)
	s.Require().Len(stored.Items, 1)
	s.Equal("40.00", stored.Items[0].Price.StringFixed(2))

	// Stock is not reserved at creation by default.
	s.Equal(5, s.stockOf(p.ID))
	s.Contains(s.notifier.kinds(), notify.OrderCreated)

	_, err = s.orders.Get(s.ctx, s.createUser(model.RoleUser, false), order.ID)
	s.True(apperror.Is(err, apperror.KindAuthorization))

	_, err = s.orders.Get(s.ctx, artisan, order.ID)
	s.NoError(err)
}

func (s *ServiceSuite) TestCreateOrderFreeShippingAboveThreshold() {
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "60", 5)

	resp := s.placeOrder(s.createUser(model.RoleUser, false), p.ID, 2)
	s.True(resp.Order.ShippingCost.IsZero())
	s.Equal("120.00", resp.Order.TotalAmount.StringFixed(2))
}

func (s *ServiceSuite) TestCreateOrderMergesRepeatedLines() {
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "10", 5)

	resp, err := s.orders.Create(s.ctx, s.createUser(model.RoleUser, false), dto.CreateOrderRequest{
		Items: []dto.OrderItemRequest{
			{ProductID: p.ID, Quantity: 1},
			{ProductID: p.ID, Quantity: 2},
		},
		ShippingAddress: shippingAddress(),
	})
	s.Require().NoError(err)
	s.Require().Len(resp.Order.Items, 1)
	s.Equal(3, resp.Order.Items[0].Quantity)
	s.Equal(model.PaymentCard, resp.Order.PaymentMethod)
}

func (s *ServiceSuite) TestCreateOrderValidation() {
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "10", 1)

	_, err := s.orders.Create(s.ctx, customer, dto.CreateOrderRequest{ShippingAddress: shippingAddress()})
	s.True(apperror.Is(err, apperror.KindValidation))

	_, err = s.orders.Create(s.ctx, customer, dto.CreateOrderRequest{Items: []dto.OrderItemRequest{{ProductID: p.ID, Quantity: 1}}})
	s.True(apperror.Is(err, apperror.KindValidation))

	_, err = s.orders.Create(s.ctx, customer, dto.CreateOrderRequest{
		Items:           []dto.OrderItemRequest{{ProductID: "missing", Quantity: 1}},
		ShippingAddress: shippingAddress(),
	})
	s.True(apperror.Is(err, apperror.KindNotFound))

	_, err = s.orders.Create(s.ctx, customer, dto.CreateOrderRequest{
		Items:           []dto.OrderItemRequest{{ProductID: p.ID, Quantity: 2}},
		ShippingAddress: shippingAddress(),
	})
	s.True(apperror.Is(err, apperror.KindConflict))
}

func (s *ServiceSuite) TestCreateOrderWithPromoCode() {
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "40", 5)
	_, err := s.promos.Create(s.ctx, s.adminActor, dto.CreatePromoCodeRequest{
		Code:          "SAVE10",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: money("10"),
		MinOrderValue: money("50"),
		MaxUses:       1,
	})
	s.Require().NoError(err)

	req := dto.CreateOrderRequest{
		Items:           []dto.OrderItemRequest{{ProductID: p.ID, Quantity: 2}},
		ShippingAddress: shippingAddress(),
		DiscountCode:    "save10",
	}
	resp, err := s.orders.Create(s.ctx, s.createUser(model.RoleUser, false), req)
	s.Require().NoError(err)
	s.Equal("8.00", resp.Order.Discount.StringFixed(2))
	s.Equal("79.99", resp.Order.TotalAmount.StringFixed(2))
	s.Equal("SAVE10", resp.Order.DiscountCode)

	promo, err := s.promoRepo.FindByCode(s.ctx, nil, "SAVE10")
	s.Require().NoError(err)
	s.Equal(1, promo.CurrentUses)

	_, err = s.orders.Create(s.ctx, s.createUser(model.RoleUser, false), req)
	s.True(apperror.Is(err, apperror.KindConflict))

	req.DiscountCode = "NOPE"
	_, err = s.orders.Create(s.ctx, s.createUser(model.RoleUser, false), req)
	s.True(apperror.Is(err, apperror.KindNotFound))
}

func (s *ServiceSuite) TestCreateOrderFromCartClearsCart() {
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "25", 5)

	_, err := s.carts.AddItem(s.ctx, customer, dto.CartItemRequest{ProductID: p.ID, Quantity: 2})
	s.Require().NoError(err)

	resp, err := s.orders.Create(s.ctx, customer, dto.CreateOrderRequest{UseCart: true, ShippingAddress: shippingAddress()})
	s.Require().NoError(err)
	s.Equal("50.00", resp.Order.Subtotal.StringFixed(2))

	cart, err := s.carts.Get(s.ctx, customer)
	s.Require().NoError(err)
	s.Empty(cart.Items)
}

func (s *ServiceSuite) TestReservedStockRollsBackOnFailure() {
	s.orders = s.newOrderService(config.Order{ReserveStockOnCreate: true})
	artisan := s.createUser(model.RoleArtisan, true)
	plenty := s.approvedProduct(artisan, "10", 5)
	scarce := s.approvedProduct(artisan, "10", 1)

	_, err := s.orders.Create(s.ctx, s.createUser(model.RoleUser, false), dto.CreateOrderRequest{
		Items: []dto.OrderItemRequest{
			{ProductID: plenty.ID, Quantity: 1},
			{ProductID: scarce.ID, Quantity: 2},
		},
		ShippingAddress: shippingAddress(),
	})
	s.True(apperror.Is(err, apperror.KindConflict))
	s.Equal(5, s.stockOf(plenty.ID))

	resp := s.placeOrder(s.createUser(model.RoleUser, false), plenty.ID, 2)
	s.Equal(3, s.stockOf(plenty.ID))

	_, err = s.orders.Cancel(s.ctx, auth.Actor{ID: resp.Order.UserID, Role: model.RoleUser}, resp.Order.ID, "")
	s.Require().NoError(err)
	s.Equal(5, s.stockOf(plenty.ID))
}

func (s *ServiceSuite) TestCancelPendingOrderRestoresStock() {
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "40", 5)
	resp := s.placeOrder(customer, p.ID, 2)

	_, err := s.orders.Cancel(s.ctx, s.createUser(model.RoleUser, false), resp.Order.ID, "")
	s.True(apperror.Is(err, apperror.KindAuthorization))

	cancelled, err := s.orders.Cancel(s.ctx, customer, resp.Order.ID, "Changed my mind")
	s.Require().NoError(err)
	s.Equal(model.OrderCancelled, cancelled.OrderStatus)
	s.Equal(model.PaymentCancelled, cancelled.PaymentStatus)
	s.Contains(cancelled.OrderNotes, "Cancellation reason: Changed my mind")
	s.Equal(7, s.stockOf(p.ID))

	_, err = s.orders.Cancel(s.ctx, customer, resp.Order.ID, "")
	s.True(apperror.Is(err, apperror.KindConflict))
	s.Equal(7, s.stockOf(p.ID))
}

func (s *ServiceSuite) TestCancelReleasesPromoWhenConfigured() {
	s.orders = s.newOrderService(config.Order{ReleasePromoOnCancel: true})
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "40", 5)
	_, err := s.promos.Create(s.ctx, s.adminActor, dto.CreatePromoCodeRequest{Code: "ONCE", DiscountType: model.DiscountFixed, DiscountValue: money("5"), MaxUses: 1})
	s.Require().NoError(err)

	resp, err := s.orders.Create(s.ctx, customer, dto.CreateOrderRequest{
		Items:           []dto.OrderItemRequest{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: shippingAddress(),
		DiscountCode:    "ONCE",
	})
	s.Require().NoError(err)

	_, err = s.orders.Cancel(s.ctx, customer, resp.Order.ID, "")
	s.Require().NoError(err)

	promo, err := s.promoRepo.FindByCode(s.ctx, nil, "ONCE")
	s.Require().NoError(err)
	s.Equal(0, promo.CurrentUses)
}

func (s *ServiceSuite) TestShippedOrderCannotBeCancelled() {
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "40", 5)
	resp := s.placeOrder(customer, p.ID, 1)

	shipped, err := s.orders.UpdateStatus(s.ctx, s.adminActor, resp.Order.ID, dto.UpdateOrderStatusRequest{Status: model.OrderShipped, Notes: "Left the workshop"})
	s.Require().NoError(err)
	s.Contains(shipped.OrderNotes, "Status update: Left the workshop")

	_, err = s.orders.Cancel(s.ctx, customer, resp.Order.ID, "")
	s.True(apperror.Is(err, apperror.KindConflict))
	s.Equal(5, s.stockOf(p.ID))
}

func (s *ServiceSuite) TestUpdateStatusAuthorization() {
	artisan := s.createUser(model.RoleArtisan, true)
	p := s.approvedProduct(artisan, "40", 5)
	resp := s.placeOrder(s.createUser(model.RoleUser, false), p.ID, 1)

	_, err := s.orders.UpdateStatus(s.ctx, s.createUser(model.RoleArtisan, true), resp.Order.ID, dto.UpdateOrderStatusRequest{Status: model.OrderShipped})
	s.True(apperror.Is(err, apperror.KindAuthorization))

	_, err = s.orders.UpdateStatus(s.ctx, artisan, resp.Order.ID, dto.UpdateOrderStatusRequest{Status: "lost"})
	s.True(apperror.Is(err, apperror.KindValidation))

	updated, err := s.orders.UpdateStatus(s.ctx, artisan, resp.Order.ID, dto.UpdateOrderStatusRequest{Status: model.OrderProcessing})
	s.Require().NoError(err)
	s.Equal(model.OrderProcessing, updated.OrderStatus)
	s.Contains(s.notifier.kinds(), notify.OrderStatusChanged)

	orders, total, err := s.orders.ListArtisan(s.ctx, artisan, model.OrderProcessing, repository.Page{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(resp.Order.ID, orders[0].ID)
}

func (s *ServiceSuite) TestVerifyPaymentMarksOrderPaidOnce() {
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "40", 5)
	resp := s.placeOrder(customer, p.ID, 1)

	unknown, err := s.orders.VerifyPayment(s.ctx, customer, resp.Order.ID, "")
	s.Require().NoError(err)
	s.False(unknown.Verified)
	s.Equal(string(client.PaymentUnknown), unknown.Status)

	_, err = s.orders.VerifyPayment(s.ctx, customer, resp.Order.ID, "sess-someone-else")
	s.True(apperror.Is(err, apperror.KindValidation))

	verified, err := s.orders.VerifyPayment(s.ctx, customer, resp.Order.ID, resp.Payment.SessionID)
	s.Require().NoError(err)
	s.True(verified.Verified)
	s.Equal(model.PaymentPaid, verified.PaymentStatus)
	s.Equal(model.OrderProcessing, verified.Order.OrderStatus)
	s.Equal("tx-"+resp.Payment.SessionID, verified.Order.TransactionID)

	again, err := s.orders.VerifyPayment(s.ctx, customer, resp.Order.ID, resp.Payment.SessionID)
	s.Require().NoError(err)
	s.True(again.Verified)
	s.Len(s.gateway.verified, 1)
	s.Contains(s.notifier.kinds(), notify.OrderPaid)
}

func (s *ServiceSuite) TestVerifyPaymentRejectsCancelledOrder() {
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "40", 5)
	resp := s.placeOrder(customer, p.ID, 2)

	_, err := s.orders.Cancel(s.ctx, customer, resp.Order.ID, "")
	s.Require().NoError(err)

	_, err = s.orders.VerifyPayment(s.ctx, customer, resp.Order.ID, resp.Payment.SessionID)
	s.True(apperror.Is(err, apperror.KindConflict))
	s.Empty(s.gateway.verified)

	_, err = s.orders.CheckoutWithNonce(s.ctx, customer, resp.Order.ID, "fake-nonce")
	s.True(apperror.Is(err, apperror.KindConflict))

	stored, err := s.orders.Get(s.ctx, customer, resp.Order.ID)
	s.Require().NoError(err)
	s.Equal(model.OrderCancelled, stored.OrderStatus)
	s.Equal(model.PaymentCancelled, stored.PaymentStatus)
	s.Empty(stored.TransactionID)
	s.Equal(5, s.stockOf(p.ID))
	s.NotContains(s.notifier.kinds(), notify.OrderPaid)
}

func (s *ServiceSuite) TestVerifyPaymentFailure() {
	s.gateway.status = client.PaymentFailed
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "40", 5)
	resp := s.placeOrder(customer, p.ID, 1)

	result, err := s.orders.VerifyPayment(s.ctx, customer, resp.Order.ID, resp.Payment.SessionID)
	s.Require().NoError(err)
	s.False(result.Verified)
	s.Equal(model.PaymentFailed, result.PaymentStatus)

	stored, err := s.orders.Get(s.ctx, customer, resp.Order.ID)
	s.Require().NoError(err)
	s.Equal(model.PaymentFailed, stored.PaymentStatus)
	s.Equal(model.OrderPending, stored.OrderStatus)
}

func (s *ServiceSuite) TestCashOnDeliverySkipsGateway() {
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "40", 5)

	resp, err := s.orders.Create(s.ctx, customer, dto.CreateOrderRequest{
		Items:           []dto.OrderItemRequest{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: shippingAddress(),
		PaymentMethod:   model.PaymentCashOnDelivery,
	})
	s.Require().NoError(err)
	s.Nil(resp.Payment)

	_, err = s.orders.VerifyPayment(s.ctx, customer, resp.Order.ID, "anything")
	s.True(apperror.Is(err, apperror.KindConflict))
}

func (s *ServiceSuite) TestGatewayOutageKeepsOrder() {
	s.gateway.sessionErr = errors.New("gateway down")
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "40", 5)

	resp := s.placeOrder(customer, p.ID, 1)
	s.Nil(resp.Payment)

	stored, err := s.orders.Get(s.ctx, customer, resp.Order.ID)
	s.Require().NoError(err)
	s.Empty(stored.PaymentReference)
	s.Equal(model.OrderPending, stored.OrderStatus)
}

func (s *ServiceSuite) TestCheckoutWithNonce() {
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(s.createUser(model.RoleArtisan, true), "40", 5)
	resp := s.placeOrder(customer, p.ID, 1)

	_, err := s.orders.CheckoutWithNonce(s.ctx, s.createUser(model.RoleUser, false), resp.Order.ID, "fake-nonce")
	s.True(apperror.Is(err, apperror.KindAuthorization))

	result, err := s.orders.CheckoutWithNonce(s.ctx, customer, resp.Order.ID, "fake-nonce")
	s.Require().NoError(err)
	s.True(result.Verified)
	s.Equal("tx-fake-nonce", result.Order.TransactionID)

	_, err = s.orders.CheckoutWithNonce(s.ctx, customer, resp.Order.ID, "fake-nonce")
	s.True(apperror.Is(err, apperror.KindConflict))
}

func (s *ServiceSuite) TestArtisanStatsCountPaidSales() {
	artisan := s.createUser(model.RoleArtisan, true)
	customer := s.createUser(model.RoleUser, false)
	p := s.approvedProduct(artisan, "40", 10)

	paid := s.placeOrder(customer, p.ID, 2)
	_, err := s.orders.VerifyPayment(s.ctx, customer, paid.Order.ID, paid.Payment.SessionID)
	s.Require().NoError(err)
	s.placeOrder(customer, p.ID, 1)

	to := time.Now().Add(time.Minute)
	stats, err := s.orders.ArtisanStats(s.ctx, artisan, nil, &to)
	s.Require().NoError(err)
	s.Equal("80.00", stats.TotalRevenue.StringFixed(2))
	s.EqualValues(2, stats.TotalItems)
	s.Require().Len(stats.TopProducts, 1)
	s.Equal(p.ID, stats.TopProducts[0].ProductID)
	s.EqualValues(1, stats.Products)

	from := to.Add(time.Hour)
	_, err = s.orders.ArtisanStats(s.ctx, artisan, &from, &to)
	s.True(apperror.Is(err, apperror.KindValidation))
}
