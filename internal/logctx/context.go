// Package logctx carries correlation ids through a context so that every log
// line of one dispatch job can be tied together.
package logctx

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	keyMessageID      ctxKey = "message_id"
	keyConversationID ctxKey = "conversation_id"
)

// WithJob stores the message being dispatched.
func WithJob(ctx context.Context, messageID, conversationID uint64) context.Context {
	ctx = context.WithValue(ctx, keyMessageID, messageID)
	return context.WithValue(ctx, keyConversationID, conversationID)
}

// MessageID returns the message id if present.
func MessageID(ctx context.Context) uint64 {
	v, _ := ctx.Value(keyMessageID).(uint64)
	return v
}

// ConversationID returns the conversation id if present.
func ConversationID(ctx context.Context) uint64 {
	v, _ := ctx.Value(keyConversationID).(uint64)
	return v
}

// Fields returns the stored ids as zap fields, followed by extra.
func Fields(ctx context.Context, extra ...zap.Field) []zap.Field {
	fields := make([]zap.Field, 0, len(extra)+2)
	if id := MessageID(ctx); id != 0 {
		fields = append(fields, zap.Uint64("message_id", id))
	}
	if id := ConversationID(ctx); id != 0 {
		fields = append(fields, zap.Uint64("conversation_id", id))
	}
	return append(fields, extra...)
}
