package client

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"brimasouk/internal/config"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentPending   PaymentStatus = "PENDING"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentUnknown   PaymentStatus = "UNKNOWN"
)

// PaymentOrder is what a gateway needs to open a checkout for an order.
type PaymentOrder struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string
	Email    string
	FullName string
}

type PaymentSession struct {
	PaymentURL       string `json:"paymentUrl"`
	SessionID        string `json:"sessionId"`
	PaymentReference string `json:"paymentReference"`
	ClientToken      string `json:"clientToken,omitempty"`
}

type PaymentVerification struct {
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
}

type PaymentGateway interface {
	CreatePaymentSession(ctx context.Context, order PaymentOrder) (*PaymentSession, error)
	VerifyPayment(ctx context.Context, sessionID string) (*PaymentVerification, error)
}

// NonceCharger is implemented by gateways that can charge a client-side
// payment nonce directly.
type NonceCharger interface {
	ChargeNonce(ctx context.Context, nonce string, order PaymentOrder) (*PaymentVerification, error)
}

// NewPaymentReference returns a merchant-side reference such as BR-1714550400000-4821.
func NewPaymentReference(now time.Time) string {
	return fmt.Sprintf("BR-%d-%04d", now.UnixMilli(), rand.IntN(10000))
}

// devGatewayImpl approves everything. It backs local development and tests.
type devGatewayImpl struct {
	baseURL string
	now     func() time.Time
}

func NewDevGateway(baseURL string) PaymentGateway {
	return &devGatewayImpl{baseURL: baseURL, now: time.Now}
}

func (g *devGatewayImpl) CreatePaymentSession(ctx context.Context, order PaymentOrder) (*PaymentSession, error) {
	now := g.now()
	sessionID := fmt.Sprintf("mock-session-%d", now.UnixNano())
	return &PaymentSession{
		PaymentURL:       fmt.Sprintf("%s/api/orders/%s/payment?sessionId=%s", g.baseURL, order.OrderID, sessionID),
		SessionID:        sessionID,
		PaymentReference: NewPaymentReference(now),
	}, nil
}

func (g *devGatewayImpl) VerifyPayment(ctx context.Context, sessionID string) (*PaymentVerification, error) {
	return &PaymentVerification{
		Status:        PaymentCompleted,
		TransactionID: "mock-tx-" + sessionID,
	}, nil
}

func (g *devGatewayImpl) ChargeNonce(ctx context.Context, nonce string, order PaymentOrder) (*PaymentVerification, error) {
	return &PaymentVerification{
		Status:        PaymentCompleted,
		TransactionID: "mock-tx-" + nonce,
	}, nil
}

// NewPaymentGateway picks the configured provider and wraps it in a circuit breaker.
func NewPaymentGateway(cfg *config.Config, l *log.Logger) (PaymentGateway, error) {
	var gateway PaymentGateway
	switch cfg.Payment.Provider {
	case "paypal":
		gateway = NewPaypalClient(&cfg.Paypal, cfg.Payment.Currency, cfg.BaseURL)
	case "braintree":
		gateway = NewBraintreeClient(&cfg.BrainTree, cfg.BaseURL)
	case "dev", "":
		if cfg.Environment.IsProduction() {
			return nil, fmt.Errorf("dev payment gateway is not allowed in production")
		}
		gateway = NewDevGateway(cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Payment.Provider)
	}

	return WithCircuitBreaker("payment-"+cfg.Payment.Provider, gateway, l), nil
}
