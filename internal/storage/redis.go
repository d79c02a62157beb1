package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// RedisEngine implements KVEngine on a redis server.
//
// Reads use a single MGET and writes a MULTI/EXEC pipeline, so both are
// atomic with respect to other redis clients.
type RedisEngine struct {
	client redis.UniversalClient
	owned  bool
	closed atomic.Bool
}

// NewRedisEngine connects to the configured server and verifies it answers PING.
func NewRedisEngine(ctx context.Context, cfg RedisConfig) (*RedisEngine, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return &RedisEngine{client: client, owned: true}, nil
}

// NewRedisEngineFromClient wraps an existing client. Close leaves the
// client open; its owner closes it.
func NewRedisEngineFromClient(client redis.UniversalClient) *RedisEngine {
	return &RedisEngine{client: client}
}

// Get retrieves a value by key.
func (e *RedisEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	value, err := e.client.Get(ctx, string(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis: get: %w", err)
	}
	return value, nil
}

// GetMany reads every key with one MGET.
func (e *RedisEngine) GetMany(ctx context.Context, keys ...[]byte) ([][]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if len(keys) == 0 {
		return [][]byte{}, nil
	}

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}

	raw, err := e.client.MGet(ctx, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: mget: %w", err)
	}

	values := make([][]byte, len(keys))
	for i, v := range raw {
		switch s := v.(type) {
		case nil:
		case string:
			values[i] = []byte(s)
		case []byte:
			values[i] = s
		default:
			return nil, fmt.Errorf("redis: mget: unexpected value type %T", v)
		}
	}
	return values, nil
}

// Apply commits the batch inside MULTI/EXEC.
func (e *RedisEngine) Apply(ctx context.Context, b *Batch) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if b.Len() == 0 {
		return nil
	}

	_, err := e.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range b.Ops {
			switch op.Kind {
			case OpSet:
				pipe.Set(ctx, string(op.Key), op.Value, 0)
			case OpDelete:
				pipe.Del(ctx, string(op.Key))
			default:
				return fmt.Errorf("unknown op kind %d", op.Kind)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: exec: %w", err)
	}
	return nil
}

// Close closes the client if the engine created it.
func (e *RedisEngine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if e.owned {
		return e.client.Close()
	}
	return nil
}
