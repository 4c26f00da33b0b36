package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/plutov/paypal/v4"
)

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

func (c PayPalConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return errors.New("paypal client id and secret are required")
	}
	if c.BaseURL == "" {
		return errors.New("paypal base url is required")
	}
	return nil
}

// PayPalClient wraps the Orders v2 calls of the PayPal SDK.
type PayPalClient struct {
	api *paypal.Client

	mu     sync.Mutex
	authed bool
}

func NewPayPalClient(cfg PayPalConfig, httpClient *http.Client) (*PayPalClient, error) {
	api, err := paypal.NewClient(cfg.ClientID, cfg.ClientSecret, strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("paypal client: %w", err)
	}
	if httpClient != nil {
		api.SetHTTPClient(httpClient)
	}
	return &PayPalClient{api: api}, nil
}

// authorize fetches the first access token. The SDK refreshes it before expiry afterwards.
func (p *PayPalClient) authorize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.authed {
		return nil
	}
	if _, err := p.api.GetAccessToken(ctx); err != nil {
		return fmt.Errorf("paypal token: %w", err)
	}
	p.authed = true
	return nil
}

func (p *PayPalClient) CreateOrder(ctx context.Context, req CheckoutRequest) (*Session, error) {
	if err := p.authorize(ctx); err != nil {
		return nil, err
	}

	units := []paypal.PurchaseUnitRequest{{
		ReferenceID: req.OrderID,
		CustomID:    req.OrderID,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: strings.ToUpper(req.Currency),
			Value:    req.Total.StringFixed(2),
		},
	}}
	appCtx := &paypal.ApplicationContext{
		ReturnURL:          req.SuccessURL,
		CancelURL:          req.CancelURL,
		UserAction:         paypal.UserActionPayNow,
		ShippingPreference: paypal.ShippingPreferenceNoShipping,
	}

	order, err := p.api.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return nil, fmt.Errorf("paypal create order: %w", err)
	}
	for _, l := range order.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return &Session{ID: order.ID, URL: l.Href}, nil
		}
	}
	return nil, fmt.Errorf("paypal create order: no approve link in response for %s", order.ID)
}

// CaptureOrder captures an approved order. CustomID carries the storefront order id
// echoed back as the purchase unit reference.
func (p *PayPalClient) CaptureOrder(ctx context.Context, paypalOrderID string) (*Capture, error) {
	if err := p.authorize(ctx); err != nil {
		return nil, err
	}

	res, err := p.api.CaptureOrder(ctx, paypalOrderID, paypal.CaptureOrderRequest{})
	if err != nil {
		return nil, fmt.Errorf("paypal capture: %w", err)
	}

	out := &Capture{ID: res.ID, Status: res.Status}
	for _, pu := range res.PurchaseUnits {
		if pu.ReferenceID != "" {
			out.CustomID = pu.ReferenceID
			break
		}
	}
	return out, nil
}
