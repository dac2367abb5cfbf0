package dispatch

import (
	"context"
	"errors"
)

var ErrQueueClosed = errors.New("dispatch queue closed")

// Job asks for the notifications of one stored message. It carries ids only;
// the worker re-reads current state from the store.
type Job struct {
	MessageID      uint64 `json:"messageId"`
	ConversationID uint64 `json:"conversationId"`
}

// Queue accepts jobs from the request path.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// Handler processes one job on a worker goroutine.
type Handler func(ctx context.Context, job Job) error
