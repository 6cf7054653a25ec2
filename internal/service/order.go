package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brimasouk/internal/apperror"
	"brimasouk/internal/auth"
	"brimasouk/internal/client"
	"brimasouk/internal/config"
	"brimasouk/internal/dto"
	"brimasouk/internal/metrics"
	"brimasouk/internal/model"
	"brimasouk/internal/notify"
	"brimasouk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultStatsWindow = 30 * 24 * time.Hour

type OrderService interface {
	Create(ctx context.Context, actor auth.Actor, req dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
	Get(ctx context.Context, actor auth.Actor, orderID string) (*model.Order, error)
	ListMine(ctx context.Context, actor auth.Actor, status model.OrderStatus, page repository.Page) ([]*model.Order, int64, error)
	ListArtisan(ctx context.Context, actor auth.Actor, status model.OrderStatus, page repository.Page) ([]*model.Order, int64, error)
	Cancel(ctx context.Context, actor auth.Actor, orderID, reason string) (*model.Order, error)
	VerifyPayment(ctx context.Context, actor auth.Actor, orderID, sessionID string) (*dto.VerifyPaymentResponse, error)
	CheckoutWithNonce(ctx context.Context, actor auth.Actor, orderID, nonce string) (*dto.VerifyPaymentResponse, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, orderID string, req dto.UpdateOrderStatusRequest) (*model.Order, error)
	ArtisanStats(ctx context.Context, actor auth.Actor, from, to *time.Time) (*dto.ArtisanStatsResponse, error)
}

type orderServiceImpl struct {
	db          *gorm.DB
	l           *log.Logger
	cfg         config.Order
	currency    string
	gateway     client.PaymentGateway
	notifier    notify.Notifier
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	promoRepo   repository.PromoCodeRepository
	cartRepo    repository.CartRepository
	userRepo    repository.UserRepository
	eventRepo   repository.EventRepository
	now         func() time.Time
}

func NewOrderService(
	db *gorm.DB,
	l *log.Logger,
	cfg config.Order,
	currency string,
	gateway client.PaymentGateway,
	notifier notify.Notifier,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	promoRepo repository.PromoCodeRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	eventRepo repository.EventRepository,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		l:           l,
		cfg:         cfg,
		currency:    currency,
		gateway:     gateway,
		notifier:    notifier,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		promoRepo:   promoRepo,
		cartRepo:    cartRepo,
		userRepo:    userRepo,
		eventRepo:   eventRepo,
		now:         time.Now,
	}
}

// requestedLines merges repeated products and keeps first-seen order.
func (s *orderServiceImpl) requestedLines(ctx context.Context, actor auth.Actor, req dto.CreateOrderRequest) ([]dto.OrderItemRequest, error) {
	source := req.Items
	if req.UseCart {
		cart, err := s.cartRepo.Get(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
		source = make([]dto.OrderItemRequest, 0, len(cart))
		for _, item := range cart {
			source = append(source, dto.OrderItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
		}
	}

	index := make(map[string]int, len(source))
	lines := make([]dto.OrderItemRequest, 0, len(source))
	for _, item := range source {
		if item.Quantity < 1 {
			return nil, apperror.Validation("Quantity must be at least 1").With("productId", item.ProductID)
		}
		if i, ok := index[item.ProductID]; ok {
			lines[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, item)
	}
	return lines, nil
}

func (s *orderServiceImpl) Create(ctx context.Context, actor auth.Actor, req dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	lines, err := s.requestedLines(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperror.Validation("Order must contain at least one item")
	}
	if req.ShippingAddress == nil || req.ShippingAddress.IsZero() {
		return nil, apperror.Validation("Shipping address is required")
	}

	method := req.PaymentMethod
	if method == "" {
		method = model.PaymentCard
	}
	if !method.Valid() {
		return nil, apperror.Validation("Invalid payment method").With("paymentMethod", method)
	}

	now := s.now()
	address := *req.ShippingAddress
	if address.Country == "" {
		address.Country = model.DefaultCountry
	}

	order := &model.Order{
		ID:                uuid.NewString(),
		UserID:            actor.ID,
		ShippingAddress:   address,
		Discount:          decimal.Zero,
		PaymentMethod:     method,
		PaymentStatus:     model.PaymentPending,
		OrderStatus:       model.OrderPending,
		OrderNotes:        strings.TrimSpace(req.OrderNotes),
		IsGift:            req.IsGift,
		GiftMessage:       req.GiftMessage,
		EstimatedDelivery: now.AddDate(0, 0, model.EstimatedDeliveryDays),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.buildItems(ctx, tx, order, lines, now); err != nil {
			return err
		}

		if code := strings.TrimSpace(req.DiscountCode); code != "" {
			if err := s.applyDiscount(ctx, tx, order, code, now); err != nil {
				return err
			}
		}

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}

		if req.UseCart {
			if err := s.cartRepo.Clear(ctx, tx, actor.ID); err != nil {
				return fmt.Errorf("clear cart: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersTotal.WithLabelValues(string(model.OrderPending)).Inc()
	s.l.WithFields(log.Fields{"orderId": order.ID, "userId": actor.ID, "total": order.TotalAmount.String()}).Info("order created")

	resp := &dto.CreateOrderResponse{Order: order}
	if order.PaymentMethod != model.PaymentCashOnDelivery {
		resp.Payment = s.openPaymentSession(ctx, actor, order)
	}

	s.notifier.Notify(notify.Notification{
		Kind:    notify.OrderCreated,
		UserID:  actor.ID,
		Title:   "Order Placed Successfully",
		Message: fmt.Sprintf("Your order #%s has been received and is being processed.", order.ID),
		Data:    map[string]any{"orderId": order.ID},
	})

	return resp, nil
}

// buildItems snapshots each product's current unit price into the order.
func (s *orderServiceImpl) buildItems(ctx context.Context, tx *gorm.DB, order *model.Order, lines []dto.OrderItemRequest, now time.Time) error {
	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}

	products, err := s.productRepo.FindMany(ctx, tx, ids)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]model.OrderItem, 0, len(lines))
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return apperror.NotFound("Product %s not found", line.ProductID).With("productId", line.ProductID)
		}
		if !product.IsApproved {
			return apperror.Conflict("Product %s is not available", product.Name).With("productId", product.ID)
		}
		if product.Stock < line.Quantity {
			return apperror.Conflict("Not enough stock for %s", product.Name).With("productId", product.ID)
		}

		if s.cfg.ReserveStockOnCreate {
			if err := s.productRepo.DecrementStock(ctx, tx, product.ID, line.Quantity); err != nil {
				return err
			}
		}

		items = append(items, model.NewOrderItem(product.ID, product.Name, line.Quantity, product.UnitPrice(now)))
		if order.ArtisanID == "" {
			order.ArtisanID = product.ArtisanID
		}
	}

	order.Items = items
	order.RecomputeTotals()
	return nil
}

func (s *orderServiceImpl) applyDiscount(ctx context.Context, tx *gorm.DB, order *model.Order, code string, now time.Time) error {
	promo, err := s.promoRepo.FindByCode(ctx, tx, code)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return apperror.NotFound("Discount code not found").With("code", code)
		}
		return err
	}

	if err := promo.Validate(order.Subtotal, "", "", now); err != nil {
		return apperror.Conflict("%s", err.Error()).With("code", promo.Code)
	}
	if err := s.promoRepo.IncrementUses(ctx, tx, promo.ID); err != nil {
		return err
	}

	order.Discount = promo.CalculateDiscount(order.Subtotal)
	order.DiscountCode = promo.Code
	order.RecomputeTotals()
	return nil
}

// openPaymentSession leaves the order pending without a reference when the
// gateway fails; the customer can still pay on delivery or retry later.
func (s *orderServiceImpl) openPaymentSession(ctx context.Context, actor auth.Actor, order *model.Order) *dto.PaymentInfo {
	paymentOrder := client.PaymentOrder{
		OrderID:  order.ID,
		Amount:   order.TotalAmount,
		Currency: s.currency,
		FullName: order.ShippingAddress.FullName,
	}
	if user, err := s.userRepo.FindByID(ctx, actor.ID); err == nil {
		paymentOrder.Email = user.Email
	}

	session, err := s.gateway.CreatePaymentSession(ctx, paymentOrder)
	if err != nil {
		s.l.WithError(err).WithField("orderId", order.ID).Warn("create payment session")
		return nil
	}

	if err := s.orderRepo.UpdatePaymentSession(ctx, order.ID, session.PaymentReference, session.SessionID, session.PaymentURL); err != nil {
		s.l.WithError(err).WithField("orderId", order.ID).Error("store payment session")
		return nil
	}

	order.PaymentReference = session.PaymentReference
	order.PaymentSessionID = session.SessionID
	order.PaymentURL = session.PaymentURL

	return &dto.PaymentInfo{
		PaymentURL:       session.PaymentURL,
		SessionID:        session.SessionID,
		PaymentReference: session.PaymentReference,
		ClientToken:      session.ClientToken,
	}
}

func (s *orderServiceImpl) Get(ctx context.Context, actor auth.Actor, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(order.UserID) && !(order.ArtisanID != "" && order.ArtisanID == actor.ID) {
		return nil, apperror.Forbidden("Not authorized to access this order")
	}
	return order, nil
}

func (s *orderServiceImpl) ListMine(ctx context.Context, actor auth.Actor, status model.OrderStatus, page repository.Page) ([]*model.Order, int64, error) {
	return s.orderRepo.List(ctx, repository.OrderFilter{UserID: actor.ID, Status: status, Page: page})
}

func (s *orderServiceImpl) ListArtisan(ctx context.Context, actor auth.Actor, status model.OrderStatus, page repository.Page) ([]*model.Order, int64, error) {
	if !actor.IsArtisan() {
		return nil, 0, apperror.Forbidden("Access denied. Not an artisan.")
	}
	return s.orderRepo.List(ctx, repository.OrderFilter{ArtisanID: actor.ID, Status: status, Page: page})
}

func (s *orderServiceImpl) Cancel(ctx context.Context, actor auth.Actor, orderID, reason string) (*model.Order, error) {
	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !actor.CanManage(order.UserID) {
			return apperror.Forbidden("Not authorized to cancel this order")
		}

		if err := order.Cancel(reason); err != nil {
			return err
		}
		if err := s.orderRepo.MarkCancelled(ctx, tx, order); err != nil {
			return err
		}

		for _, item := range order.Items {
			err := s.productRepo.IncrementStock(ctx, tx, item.ProductID, item.Quantity)
			if apperror.Is(err, apperror.KindNotFound) {
				s.l.WithFields(log.Fields{"orderId": order.ID, "productId": item.ProductID}).Warn("product gone, stock not restored")
				continue
			}
			if err != nil {
				return err
			}
		}

		if s.cfg.ReleasePromoOnCancel && order.DiscountCode != "" {
			if err := s.promoRepo.DecrementUses(ctx, tx, order.DiscountCode); err != nil {
				return fmt.Errorf("release promo code: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersTotal.WithLabelValues(string(model.OrderCancelled)).Inc()
	s.l.WithFields(log.Fields{"orderId": order.ID, "by": actor.ID}).Info("order cancelled")
	s.notifier.Notify(notify.Notification{
		Kind:    notify.OrderCancelled,
		UserID:  order.UserID,
		Title:   "Order Cancelled",
		Message: fmt.Sprintf("Your order #%s has been cancelled.", order.ID),
		Data:    map[string]any{"orderId": order.ID},
	})

	return order, nil
}

func (s *orderServiceImpl) VerifyPayment(ctx context.Context, actor auth.Actor, orderID, sessionID string) (*dto.VerifyPaymentResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(order.UserID) {
		return nil, apperror.Forbidden("Not authorized to access this order")
	}
	if order.PaymentReference == "" {
		return nil, apperror.Conflict("No payment associated with this order")
	}

	if order.PaymentStatus == model.PaymentPaid {
		return &dto.VerifyPaymentResponse{
			Verified:      true,
			Status:        string(model.PaymentPaid),
			PaymentStatus: order.PaymentStatus,
			Order:         order,
		}, nil
	}

	if order.OrderStatus == model.OrderCancelled {
		return nil, apperror.Conflict("Order is cancelled").With("orderStatus", order.OrderStatus)
	}

	if sessionID == "" {
		return &dto.VerifyPaymentResponse{
			Verified:      false,
			Status:        string(client.PaymentUnknown),
			PaymentStatus: order.PaymentStatus,
		}, nil
	}
	if order.PaymentSessionID != "" && order.PaymentSessionID != sessionID {
		return nil, apperror.Validation("Payment session does not belong to this order").With("sessionId", sessionID)
	}

	verification, err := s.gateway.VerifyPayment(ctx, sessionID)
	if err != nil {
		return nil, apperror.Internal(err, "Payment verification failed")
	}
	return s.applyVerification(ctx, order, verification)
}

func (s *orderServiceImpl) CheckoutWithNonce(ctx context.Context, actor auth.Actor, orderID, nonce string) (*dto.VerifyPaymentResponse, error) {
	charger, ok := s.gateway.(client.NonceCharger)
	if !ok {
		return nil, apperror.Validation("Payment provider does not support nonce checkout")
	}

	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOwnedBy(actor.ID) {
		return nil, apperror.Forbidden("Not authorized to pay for this order")
	}
	if order.PaymentStatus == model.PaymentPaid {
		return nil, apperror.Conflict("Order is already paid")
	}
	if order.OrderStatus == model.OrderCancelled {
		return nil, apperror.Conflict("Order is cancelled")
	}

	verification, err := charger.ChargeNonce(ctx, nonce, client.PaymentOrder{
		OrderID:  order.ID,
		Amount:   order.TotalAmount,
		Currency: s.currency,
		FullName: order.ShippingAddress.FullName,
	})
	if err != nil {
		return nil, apperror.Internal(err, "Payment failed")
	}
	return s.applyVerification(ctx, order, verification)
}

func (s *orderServiceImpl) applyVerification(ctx context.Context, order *model.Order, verification *client.PaymentVerification) (*dto.VerifyPaymentResponse, error) {
	metrics.PaymentVerifications.WithLabelValues(string(verification.Status)).Inc()
	fields := log.Fields{"orderId": order.ID, "status": verification.Status}

	switch verification.Status {
	case client.PaymentCompleted:
		order.MarkPaid(verification.TransactionID)
		err := s.orderRepo.MarkPaid(ctx, nil, order)
		if apperror.Is(err, apperror.KindConflict) {
			// Either a concurrent verification got there first or the
			// order was cancelled in between.
			if order, err = s.orderRepo.FindByID(ctx, nil, order.ID); err != nil {
				return nil, err
			}
			if order.OrderStatus == model.OrderCancelled {
				return nil, apperror.Conflict("Order is cancelled").With("orderStatus", order.OrderStatus)
			}
			break
		}
		if err != nil {
			return nil, err
		}

		metrics.OrdersTotal.WithLabelValues(string(order.OrderStatus)).Inc()
		s.l.WithFields(fields).Info("order paid")
		s.notifier.Notify(notify.Notification{
			Kind:    notify.OrderPaid,
			UserID:  order.UserID,
			Title:   "Payment received",
			Message: fmt.Sprintf("Payment for order #%s has been confirmed.", order.ID),
			Data:    map[string]any{"orderId": order.ID, "transactionId": order.TransactionID},
		})

	case client.PaymentFailed:
		if err := s.orderRepo.MarkPaymentFailed(ctx, order.ID); err != nil {
			return nil, fmt.Errorf("mark payment failed: %w", err)
		}
		if order.PaymentStatus == model.PaymentPending {
			order.PaymentStatus = model.PaymentFailed
		}
		s.l.WithFields(fields).Warn("payment failed")

	default:
		s.l.WithFields(fields).Info("payment not settled yet")
	}

	return &dto.VerifyPaymentResponse{
		Verified:      order.PaymentStatus == model.PaymentPaid,
		Status:        string(verification.Status),
		PaymentStatus: order.PaymentStatus,
		Order:         order,
	}, nil
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, actor auth.Actor, orderID string, req dto.UpdateOrderStatusRequest) (*model.Order, error) {
	if !req.Status.Valid() {
		return nil, apperror.Validation("Invalid order status").With("status", req.Status)
	}

	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && (order.ArtisanID == "" || order.ArtisanID != actor.ID) {
		return nil, apperror.Forbidden("Not authorized to update this order")
	}

	order.OrderStatus = req.Status
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		order.AppendNote("Status update: " + notes)
	}
	if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	metrics.OrdersTotal.WithLabelValues(string(order.OrderStatus)).Inc()
	s.notifier.Notify(notify.Notification{
		Kind:    notify.OrderStatusChanged,
		UserID:  order.UserID,
		Title:   "Order Status Updated",
		Message: fmt.Sprintf("Your order #%s status has been updated to %s.", order.ID, order.OrderStatus),
		Data:    map[string]any{"orderId": order.ID, "status": order.OrderStatus},
	})

	return order, nil
}

func (s *orderServiceImpl) ArtisanStats(ctx context.Context, actor auth.Actor, from, to *time.Time) (*dto.ArtisanStatsResponse, error) {
	end := s.now()
	if to != nil {
		end = *to
	}
	start := end.Add(-defaultStatsWindow)
	if from != nil {
		start = *from
	}
	if start.After(end) {
		return nil, apperror.Validation("Start date must be before end date")
	}

	start, end = start.UTC(), end.UTC()

	sales, err := s.orderRepo.ArtisanSales(ctx, actor.ID, start, end)
	if err != nil {
		return nil, err
	}
	if sales == nil {
		sales = []repository.ProductSales{}
	}

	stats := &dto.ArtisanStatsResponse{
		From:         start,
		To:           end,
		TotalRevenue: decimal.Zero,
		TopProducts:  sales,
	}
	for _, sale := range sales {
		stats.TotalRevenue = stats.TotalRevenue.Add(sale.Revenue)
		stats.TotalItems += sale.TotalSold
	}

	one := repository.Page{Page: 1, Limit: 1}
	if _, stats.Products, err = s.productRepo.List(ctx, repository.ProductFilter{ArtisanID: actor.ID, Page: one}); err != nil {
		return nil, err
	}
	if _, stats.Events, err = s.eventRepo.List(ctx, repository.EventFilter{ArtisanID: actor.ID, Page: one}); err != nil {
		return nil, err
	}

	return stats, nil
}
