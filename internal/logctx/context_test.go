package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFields(t *testing.T) {
	assert.Empty(t, Fields(context.Background()))

	ctx := WithJob(context.Background(), 42, 7)
	assert.Equal(t, uint64(42), MessageID(ctx))
	assert.Equal(t, uint64(7), ConversationID(ctx))

	core, logs := observer.New(zapcore.InfoLevel)
	zap.New(core).Info("sent", Fields(ctx, zap.String("recipient", "bob"))...)

	entry := logs.All()[0]
	ctxMap := entry.ContextMap()
	assert.Equal(t, uint64(42), ctxMap["message_id"])
	assert.Equal(t, uint64(7), ctxMap["conversation_id"])
	assert.Equal(t, "bob", ctxMap["recipient"])
}
