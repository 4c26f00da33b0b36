package identity

import (
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("super-secret-signing-key"))

func signedHeaders(t *testing.T, v *Verifier, id string, at time.Time, body []byte) http.Header {
	t.Helper()
	ts, sig, err := v.Sign(id, at, body)
	require.NoError(t, err)
	h := http.Header{}
	h.Set(HeaderID, id)
	h.Set(HeaderTimestamp, ts)
	h.Set(HeaderSignature, sig)
	return h
}

func TestVerify(t *testing.T) {
	t.Parallel()

	now := time.Now()
	body := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)

	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	other, err := NewVerifier("whsec_" + base64.StdEncoding.EncodeToString([]byte("another-key")))
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers func() http.Header
		body    []byte
		wantErr error
	}{
		{
			name:    "valid",
			headers: func() http.Header { return signedHeaders(t, v, "msg_1", now, body) },
			body:    body,
		},
		{
			name: "one of several signatures matches",
			headers: func() http.Header {
				h := signedHeaders(t, v, "msg_1", now, body)
				_, bad, err := other.Sign("msg_1", now, body)
				require.NoError(t, err)
				h.Set(HeaderSignature, bad+" "+h.Get(HeaderSignature))
				return h
			},
			body: body,
		},
		{
			name:    "tampered body",
			headers: func() http.Header { return signedHeaders(t, v, "msg_1", now, body) },
			body:    []byte(`{"type":"user.deleted"}`),
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "wrong key",
			headers: func() http.Header { return signedHeaders(t, other, "msg_1", now, body) },
			body:    body,
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "stale timestamp",
			headers: func() http.Header { return signedHeaders(t, v, "msg_1", now.Add(-10*time.Minute), body) },
			body:    body,
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "missing headers",
			headers: func() http.Header { return http.Header{} },
			body:    body,
			wantErr: ErrMissingHeaders,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := v.Verify(tt.headers(), tt.body)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewVerifierRejectsBadSecret(t *testing.T) {
	t.Parallel()

	_, err := NewVerifier("")
	assert.Error(t, err)

	_, err = NewVerifier("whsec_not*base64")
	assert.Error(t, err)
}

func TestParseEvent(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"type": "user.updated",
		"data": {
			"id": "user_42",
			"email_addresses": [
				{"id": "idn_1", "email_address": "old@example.com"},
				{"id": "idn_2", "email_address": "jane@example.com"}
			],
			"primary_email_address_id": "idn_2",
			"first_name": "Jane",
			"last_name": "Doe",
			"image_url": "https://img.example.com/jane.png",
			"public_metadata": {"role": "admin"}
		}
	}`)

	ev, err := ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventUserUpdated, ev.Type)
	assert.Equal(t, "user_42", ev.Data.ID)
	assert.Equal(t, "jane@example.com", ev.Data.PrimaryEmail())
	assert.Equal(t, "admin", ev.Data.PublicMetadata.Role)

	_, err = ParseEvent([]byte(`{"data":{}}`))
	assert.Error(t, err)
}

func TestPrimaryEmailFallback(t *testing.T) {
	t.Parallel()

	u := UserData{EmailAddresses: []EmailAddress{{ID: "a", EmailAddress: "first@example.com"}}}
	assert.Equal(t, "first@example.com", u.PrimaryEmail())
	assert.Equal(t, "", UserData{}.PrimaryEmail())
}
