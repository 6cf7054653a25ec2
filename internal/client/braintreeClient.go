package client

import (
	"context"
	"fmt"
	"time"

	"brimasouk/internal/config"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

type braintreeClientImpl struct {
	gateway *braintree.Braintree
	baseURL string
	now     func() time.Time
}

// NewBraintreeClient is a PaymentGateway that hands the storefront a client
// token and charges the nonce it returns.
func NewBraintreeClient(cfg *config.Braintree, baseURL string) PaymentGateway {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
		baseURL: baseURL,
		now:     time.Now,
	}
}

func (c *braintreeClientImpl) CreatePaymentSession(ctx context.Context, order PaymentOrder) (*PaymentSession, error) {
	token, err := c.gateway.ClientToken().Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate braintree client token: %w", err)
	}

	return &PaymentSession{
		PaymentURL:       fmt.Sprintf("%s/api/orders/%s/checkout", c.baseURL, order.OrderID),
		PaymentReference: NewPaymentReference(c.now()),
		ClientToken:      token,
	}, nil
}

// VerifyPayment looks up a transaction id returned by ChargeNonce.
func (c *braintreeClientImpl) VerifyPayment(ctx context.Context, sessionID string) (*PaymentVerification, error) {
	tx, err := c.gateway.Transaction().Find(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find braintree transaction: %w", err)
	}

	return &PaymentVerification{Status: braintreeStatus(tx.Status), TransactionID: tx.Id}, nil
}

func (c *braintreeClientImpl) ChargeNonce(ctx context.Context, nonce string, order PaymentOrder) (*PaymentVerification, error) {
	// Braintree expects NewDecimal(unscaled, scale): "50.00" -> NewDecimal(5000, 2)
	cents := order.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(cents, 2),
		PaymentMethodNonce: nonce,
		OrderId:            order.OrderID,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("transaction creation failed: %w", err)
	}

	return &PaymentVerification{Status: braintreeStatus(tx.Status), TransactionID: tx.Id}, nil
}

func braintreeStatus(status braintree.TransactionStatus) PaymentStatus {
	switch status {
	case braintree.TransactionStatusAuthorized,
		braintree.TransactionStatusSubmittedForSettlement,
		braintree.TransactionStatusSettling,
		braintree.TransactionStatusSettled:
		return PaymentCompleted
	case braintree.TransactionStatusProcessorDeclined,
		braintree.TransactionStatusGatewayRejected,
		braintree.TransactionStatusFailed,
		braintree.TransactionStatusVoided:
		return PaymentFailed
	default:
		return PaymentPending
	}
}
