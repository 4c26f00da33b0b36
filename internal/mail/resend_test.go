package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Bcc     []string `json:"bcc"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func TestResendClient_Send(t *testing.T) {
	t.Parallel()

	var got sentEmail
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	c, err := NewResendClient("re_key", srv.URL+"/", srv.Client())
	require.NoError(t, err)
	err = c.Send(context.Background(), Message{
		From:    "Store <news@example.com>",
		To:      []string{"a@example.com"},
		Bcc:     []string{"b@example.com"},
		Subject: "Hello",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, got.To)
	assert.Equal(t, []string{"b@example.com"}, got.Bcc)
	assert.Equal(t, "Hello", got.Subject)
	assert.Equal(t, "<p>hi</p>", got.HTML)
}

func TestResendClient_Errors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"statusCode":403,"name":"validation_error","message":"invalid key"}`))
	}))
	defer srv.Close()

	c, err := NewResendClient("bad", srv.URL, srv.Client())
	require.NoError(t, err)

	err = c.Send(context.Background(), Message{To: []string{"a@example.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail: send")

	err = c.Send(context.Background(), Message{})
	assert.Error(t, err)
}
