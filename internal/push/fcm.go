package push

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

type fcmSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM delivers to iOS and Android devices through Firebase Cloud Messaging.
type FCM struct {
	client fcmSender
}

func NewFCM(ctx context.Context, app *firebase.App) (*FCM, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return &FCM{client: client}, nil
}

func (f *FCM) Send(ctx context.Context, t Target, p Payload) Result {
	id, err := f.client.Send(ctx, fcmMessage(t, p))
	if err != nil {
		return Result{Outcome: classifyFCM(ctx, err), Err: err}
	}
	return Result{Outcome: Accepted, ProviderMessageID: id}
}

func fcmMessage(t Target, p Payload) *messaging.Message {
	return &messaging.Message{
		Token: t.Token,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: p.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Tag:   p.Tag,
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound:    "default",
					ThreadID: p.Tag,
				},
			},
		},
	}
}

// isInvalidArgument is swapped in tests; FCM errors cannot be built outside
// the firebase module.
var isInvalidArgument = messaging.IsInvalidArgument

func classifyFCM(ctx context.Context, err error) Outcome {
	switch {
	case messaging.IsUnregistered(err), messaging.IsSenderIDMismatch(err):
		return InvalidToken
	case isInvalidArgument(err) && malformedToken(err):
		return InvalidToken
	case messaging.IsUnavailable(err), messaging.IsInternal(err), messaging.IsQuotaExceeded(err):
		return Transient
	case transportFailure(ctx, err):
		return Transient
	}
	return Rejected
}

// malformedToken reports an INVALID_ARGUMENT that blames the registration
// token rather than the message, e.g. "The registration token is not a valid
// FCM registration token".
func malformedToken(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "registration token")
}
