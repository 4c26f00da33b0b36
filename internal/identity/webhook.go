// Package identity verifies and decodes user lifecycle webhooks sent by the
// hosted identity provider. Deliveries are signed with Svix.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	svix "github.com/svix/svix-webhooks/go"
)

const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

var (
	ErrMissingHeaders   = errors.New("missing webhook headers")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Verifier checks Svix signatures, including the five minute timestamp window.
type Verifier struct {
	wh *svix.Webhook
}

func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimPrefix(strings.TrimSpace(secret), "whsec_") == "" {
		return nil, errors.New("webhook secret is empty")
	}
	wh, err := svix.NewWebhook(strings.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("webhook secret: %w", err)
	}
	return &Verifier{wh: wh}, nil
}

func (v *Verifier) Verify(h http.Header, body []byte) error {
	if h.Get(HeaderID) == "" || h.Get(HeaderTimestamp) == "" || h.Get(HeaderSignature) == "" {
		return ErrMissingHeaders
	}
	if err := v.wh.Verify(body, h); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// Sign builds the timestamp and signature header values. Used by tests and local tooling.
func (v *Verifier) Sign(id string, at time.Time, body []byte) (timestamp, signature string, err error) {
	signature, err = v.wh.Sign(id, at, body)
	if err != nil {
		return "", "", err
	}
	return strconv.FormatInt(at.Unix(), 10), signature, nil
}

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

type Event struct {
	Type string   `json:"type"`
	Data UserData `json:"data"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type UserData struct {
	ID                    string         `json:"id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	ImageURL              string         `json:"image_url"`
	PublicMetadata        struct {
		Role string `json:"role"`
	} `json:"public_metadata"`
}

// PrimaryEmail falls back to the first address when no primary one is marked.
func (u UserData) PrimaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	if ev.Type == "" {
		return nil, errors.New("webhook event has no type")
	}
	return &ev, nil
}
