package client

import (
	"context"
	"fmt"
	"time"

	"brimasouk/internal/config"

	"github.com/go-resty/resty/v2"
)

type paypalClientImpl struct {
	http      *resty.Client
	clientID  string
	secret    string
	currency  string
	returnURL string
	cancelURL string
	now       func() time.Time
}

type PaypalLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type paypalCapture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type paypalOrderResult struct {
	ID            string       `json:"id"`
	Status        string       `json:"status"`
	Links         []PaypalLink `json:"links"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []paypalCapture `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// NewPaypalClient is a PaymentGateway over the PayPal Orders v2 API.
// Sessions are PayPal orders; verification captures an approved order.
func NewPaypalClient(cfg *config.Paypal, currency, baseURL string) PaymentGateway {
	returnURL := cfg.RedirectURL
	if returnURL == "" {
		returnURL = baseURL + "/payment/success"
	}

	return &paypalClientImpl{
		http: resty.New().
			SetBaseURL(cfg.BaseApiURL).
			SetTimeout(30 * time.Second).
			SetRetryCount(0),
		clientID:  cfg.ClientID,
		secret:    cfg.ClientSecret,
		currency:  currency,
		returnURL: returnURL,
		cancelURL: baseURL,
		now:       time.Now,
	}
}

func (c *paypalClientImpl) getAccessToken(ctx context.Context) (string, error) {
	var res struct {
		AccessToken string `json:"access_token"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.clientID, c.secret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&res).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("request access token: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("paypal oauth error %d: %s", resp.StatusCode(), resp.String())
	}

	return res.AccessToken, nil
}

func (c *paypalClientImpl) CreatePaymentSession(ctx context.Context, order PaymentOrder) (*PaymentSession, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get paypal access token: %w", err)
	}

	reference := NewPaymentReference(c.now())
	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": order.OrderID,
				"invoice_id":   reference,
				"amount": map[string]string{
					"currency_code": c.currency,
					"value":         order.Amount.StringFixed(2),
				},
			},
		},
		"application_context": map[string]string{
			"return_url": c.returnURL,
			"cancel_url": c.cancelURL,
		},
	}

	var result paypalOrderResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(payload).
		SetResult(&result).
		Post("/v2/checkout/orders")
	if err != nil {
		return nil, fmt.Errorf("create paypal order: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("paypal error %d: %s", resp.StatusCode(), resp.String())
	}

	return &PaymentSession{
		PaymentURL:       extractApproveURL(result.Links),
		SessionID:        result.ID,
		PaymentReference: reference,
	}, nil
}

func (c *paypalClientImpl) VerifyPayment(ctx context.Context, sessionID string) (*PaymentVerification, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get paypal access token: %w", err)
	}

	var current paypalOrderResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&current).
		Get("/v2/checkout/orders/" + sessionID)
	if err != nil {
		return nil, fmt.Errorf("get paypal order: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("paypal error %d: %s", resp.StatusCode(), resp.String())
	}

	switch current.Status {
	case "COMPLETED":
		return &PaymentVerification{Status: PaymentCompleted, TransactionID: firstCaptureID(current)}, nil
	case "APPROVED":
		return c.capture(ctx, accessToken, sessionID)
	case "VOIDED":
		return &PaymentVerification{Status: PaymentFailed}, nil
	default:
		return &PaymentVerification{Status: PaymentPending}, nil
	}
}

func (c *paypalClientImpl) capture(ctx context.Context, accessToken, sessionID string) (*PaymentVerification, error) {
	var captured paypalOrderResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetHeader("Content-Type", "application/json").
		SetResult(&captured).
		Post(fmt.Sprintf("/v2/checkout/orders/%s/capture", sessionID))
	if err != nil {
		return nil, fmt.Errorf("paypal capture request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("paypal capture failed: status=%d body=%s", resp.StatusCode(), resp.String())
	}

	if captured.Status != "COMPLETED" {
		return &PaymentVerification{Status: PaymentFailed}, nil
	}
	return &PaymentVerification{Status: PaymentCompleted, TransactionID: firstCaptureID(captured)}, nil
}

func firstCaptureID(result paypalOrderResult) string {
	for _, unit := range result.PurchaseUnits {
		for _, capture := range unit.Payments.Captures {
			return capture.ID
		}
	}
	return ""
}

func extractApproveURL(links []PaypalLink) string {
	for _, link := range links {
		if link.Rel == "approve" {
			return link.Href
		}
	}
	return ""
}
