package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

type Message struct {
	From    string
	To      []string
	Bcc     []string
	Subject string
	HTML    string
}

// ResendClient sends mail through the Resend SDK.
type ResendClient struct {
	api *resend.Client
}

// NewResendClient builds a client. An empty baseURL keeps the SDK default.
func NewResendClient(apiKey, baseURL string, httpClient *http.Client) (*ResendClient, error) {
	var api *resend.Client
	if httpClient != nil {
		api = resend.NewCustomClient(httpClient, apiKey)
	} else {
		api = resend.NewClient(apiKey)
	}
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("mail: base url: %w", err)
		}
		api.BaseURL = u
	}
	return &ResendClient{api: api}, nil
}

func (c *ResendClient) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}
	_, err := c.api.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Bcc:     msg.Bcc,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}
