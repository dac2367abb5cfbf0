package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPopTimeout = 2 * time.Second

// RedisQueue hands jobs between API instances through a Redis list. Producers
// LPUSH and consumers BRPOP, so the list is FIFO.
type RedisQueue struct {
	client redis.UniversalClient
	key    string
	log    *zap.Logger
}

func NewRedisQueue(client redis.UniversalClient, key string, log *zap.Logger) *RedisQueue {
	return &RedisQueue{client: client, key: key, log: log}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Consume moves jobs from Redis into the local pool until ctx is done.
func (q *RedisQueue) Consume(ctx context.Context, local Queue) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := q.client.BRPop(ctx, redisPopTimeout, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			q.log.Warn("redis pop failed", zap.String("key", q.key), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		// res is [key, value].
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			q.log.Error("drop malformed job", zap.String("payload", res[1]), zap.Error(err))
			continue
		}
		if err := local.Enqueue(ctx, job); err != nil {
			// Put it back so another consumer can take it.
			if perr := q.client.RPush(context.WithoutCancel(ctx), q.key, res[1]).Err(); perr != nil {
				q.log.Error("requeue job", zap.Uint64("message_id", job.MessageID), zap.Error(perr))
			}
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
