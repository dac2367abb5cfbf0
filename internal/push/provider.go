// Package push talks to the external push services.
package push

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/brrowapp/brrow-backend/internal/model"
)

var ErrNoProvider = errors.New("no push provider for platform")

// Outcome is the provider's verdict for one token.
type Outcome int

const (
	Accepted Outcome = iota
	// InvalidToken means the token will never work again and the device should
	// be deactivated.
	InvalidToken
	// Transient failures may succeed on retry.
	Transient
	// Rejected covers every other failure. It is not retried.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case InvalidToken:
		return "invalid_token"
	case Transient:
		return "transient"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type Result struct {
	Outcome           Outcome
	ProviderMessageID string
	Err               error
}

// Target identifies one device at its push service.
type Target struct {
	Token    string
	Platform model.Platform
	P256dh   string
	Auth     string
}

func TargetFor(d *model.Device) Target {
	return Target{
		Token:    d.Token,
		Platform: d.Platform,
		P256dh:   d.WebPushP256dh,
		Auth:     d.WebPushAuth,
	}
}

// Payload is the notification content shared by every provider.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Tag   string            `json:"tag,omitempty"`
}

type Provider interface {
	Send(ctx context.Context, t Target, p Payload) Result
}

// transportFailure reports errors where the request may never have reached
// the provider.
func transportFailure(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
