package payment

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

type Line struct {
	Name       string
	ImageURL   string
	UnitAmount decimal.Decimal
	Quantity   int
}

// CheckoutRequest is the provider-neutral description of a pending order.
type CheckoutRequest struct {
	OrderID    string
	Email      string
	Currency   string
	Lines      []Line
	Discount   decimal.Decimal
	Total      decimal.Decimal
	SuccessURL string
	CancelURL  string
}

type Session struct {
	ID  string
	URL string
}

type Capture struct {
	ID       string
	Status   string
	CustomID string
}

func (c *Capture) Completed() bool { return c.Status == "COMPLETED" }

type EventKind int

const (
	EventIgnored EventKind = iota
	EventPaid
	EventExpired
)

type WebhookEvent struct {
	ID        string
	Type      string
	Kind      EventKind
	OrderID   string
	SessionID string
}

var hundred = decimal.NewFromInt(100)

// MinorUnits converts an amount to cents, rounding half away from zero.
func MinorUnits(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}
