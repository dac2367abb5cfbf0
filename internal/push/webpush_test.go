package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	require.NoError(t, err)

	// Public key should be a 65 byte uncompressed P-256 point
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	require.NoError(t, err)
	assert.Len(t, pubBytes, 65)

	// Private key should be a 32 byte P-256 scalar
	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	require.NoError(t, err)
	assert.Len(t, privBytes, 32)

	pub2, _, err := GenerateVAPIDKeys()
	require.NoError(t, err)
	assert.NotEqual(t, pub, pub2)
}

func TestNewWebPushRejectsBadKeys(t *testing.T) {
	_, err := NewWebPush(WebPushConfig{VAPIDPublicKey: "nope", VAPIDPrivateKey: "nope"}, nil)
	assert.Error(t, err)
}

// browserSubscription returns keys a real browser would hand out.
func browserSubscription(t *testing.T, endpoint string) Target {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)
	return Target{
		Token:    endpoint,
		Platform: model.PlatformWeb,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
	}
}

func newTestWebPush(t *testing.T) *WebPush {
	t.Helper()
	pub, priv, err := GenerateVAPIDKeys()
	require.NoError(t, err)
	wp, err := NewWebPush(WebPushConfig{
		VAPIDPublicKey:  pub,
		VAPIDPrivateKey: priv,
		Subscriber:      "mailto:test@brrowapp.com",
	}, nil)
	require.NoError(t, err)
	return wp
}

func TestWebPushSendClassifiesStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Outcome
	}{
		{http.StatusCreated, Accepted},
		{http.StatusGone, InvalidToken},
		{http.StatusNotFound, InvalidToken},
		{http.StatusTooManyRequests, Transient},
		{http.StatusServiceUnavailable, Transient},
		{http.StatusForbidden, Rejected},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var gotAuth, gotEncoding string
			var gotBody []byte
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotEncoding = r.Header.Get("Content-Encoding")
				gotBody, _ = io.ReadAll(r.Body)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			wp := newTestWebPush(t)
			res := wp.Send(context.Background(), browserSubscription(t, srv.URL+"/push/abc"), Payload{Title: "Sam", Body: "hi"})

			assert.Equal(t, tt.want, res.Outcome)
			if tt.want == Accepted {
				assert.NoError(t, res.Err)
			} else {
				assert.Error(t, res.Err)
			}
			assert.True(t, strings.HasPrefix(gotAuth, "vapid "), gotAuth)
			assert.Equal(t, "aes128gcm", gotEncoding)
			assert.NotEmpty(t, gotBody)
		})
	}
}

func TestWebPushTimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	wp := newTestWebPush(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := wp.Send(ctx, browserSubscription(t, srv.URL), Payload{Title: "Sam", Body: "hi"})
	assert.Equal(t, Transient, res.Outcome)
}
