package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// WebPushConfig holds VAPID configuration.
type WebPushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	TTL             int
}

// WebPush delivers to browsers using the Web Push protocol.
type WebPush struct {
	cfg    WebPushConfig
	client webpush.HTTPClient
}

func NewWebPush(cfg WebPushConfig, client webpush.HTTPClient) (*WebPush, error) {
	if err := validateVAPID(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey); err != nil {
		return nil, err
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 86400
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WebPush{cfg: cfg, client: client}, nil
}

// VAPIDPublicKey returns the VAPID public key for client-side subscription.
func (w *WebPush) VAPIDPublicKey() string {
	return w.cfg.VAPIDPublicKey
}

func (w *WebPush) Send(ctx context.Context, t Target, p Payload) Result {
	data, err := json.Marshal(p)
	if err != nil {
		return Result{Outcome: Rejected, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: t.Token,
		Keys: webpush.Keys{
			P256dh: t.P256dh,
			Auth:   t.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      w.client,
		Subscriber:      w.cfg.Subscriber,
		VAPIDPublicKey:  w.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: w.cfg.VAPIDPrivateKey,
		TTL:             w.cfg.TTL,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		if transportFailure(ctx, err) {
			return Result{Outcome: Transient, Err: fmt.Errorf("send web push: %w", err)}
		}
		return Result{Outcome: Rejected, Err: fmt.Errorf("send web push: %w", err)}
	}
	defer resp.Body.Close()

	return Result{
		Outcome:           classifyWebPushStatus(resp.StatusCode),
		ProviderMessageID: resp.Header.Get("Location"),
		Err:               statusErr(resp.StatusCode),
	}
}

func classifyWebPushStatus(code int) Outcome {
	switch {
	case code >= 200 && code < 300:
		return Accepted
	case code == http.StatusNotFound || code == http.StatusGone:
		return InvalidToken
	case code == http.StatusTooManyRequests || code >= 500:
		return Transient
	}
	return Rejected
}

func statusErr(code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	return fmt.Errorf("push service returned %d", code)
}

func validateVAPID(public, private string) error {
	pub, err := base64.RawURLEncoding.DecodeString(public)
	if err != nil || len(pub) != 65 {
		return fmt.Errorf("VAPID public key must be a base64url uncompressed P-256 point")
	}
	priv, err := base64.RawURLEncoding.DecodeString(private)
	if err != nil || len(priv) != 32 {
		return fmt.Errorf("VAPID private key must be a base64url 32 byte scalar")
	}
	return nil
}

// GenerateVAPIDKeys generates a new P-256 key pair for VAPID, base64url
// encoded without padding.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate P-256 key: %w", err)
	}
	publicKey = base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes())
	privateKey = base64.RawURLEncoding.EncodeToString(key.Bytes())
	return publicKey, privateKey, nil
}
