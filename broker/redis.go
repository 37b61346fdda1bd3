package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	queueKeyPrefix = "odinmcp:queue:"
	metaKeyPrefix  = "odinmcp-task-meta-"

	// dequeueBlock bounds each BRPOP so context cancellation is honored
	// between polls.
	dequeueBlock = time.Second
)

// Redis implements Broker over a Redis queue and a Redis result backend.
// Broker and backend may be distinct instances; they usually are not.
type Redis struct {
	broker    *redis.Client
	backend   *redis.Client
	resultTTL time.Duration
}

// NewRedis connects the broker to the supplied redis:// URLs.
func NewRedis(brokerURL, backendURL string, resultTTL time.Duration) (*Redis, error) {
	brokerOptions, err := redis.ParseURL(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker URL %v: %w", brokerURL, err)
	}
	backendOptions, err := redis.ParseURL(backendURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %v: %w", backendURL, err)
	}
	return NewRedisWithClients(redis.NewClient(brokerOptions), redis.NewClient(backendOptions), resultTTL), nil
}

// NewRedisWithClients wraps existing clients; used by tests.
func NewRedisWithClients(broker, backend *redis.Client, resultTTL time.Duration) *Redis {
	if resultTTL <= 0 {
		resultTTL = 24 * time.Hour
	}
	return &Redis{broker: broker, backend: backend, resultTTL: resultTTL}
}

// Enqueue implements Broker.Enqueue.
func (r *Redis) Enqueue(ctx context.Context, queue string, task *Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	data, err := task.encode()
	if err != nil {
		return fmt.Errorf("failed to encode task %v: %w", task.Name, err)
	}
	if err := r.broker.LPush(ctx, queueKeyPrefix+queue, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task %v: %w", task.Name, err)
	}
	return nil
}

// Dequeue implements Broker.Dequeue.
func (r *Redis) Dequeue(ctx context.Context, queue string) (*Task, error) {
	values, err := r.broker.BRPop(ctx, dequeueBlock, queueKeyPrefix+queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmptyQueue
		}
		return nil, fmt.Errorf("failed to dequeue from %v: %w", queue, err)
	}
	// BRPOP returns [key, value]
	return decodeTask([]byte(values[1]))
}

// Result implements Broker.Result.
func (r *Redis) Result(ctx context.Context, taskID string) (*Meta, error) {
	data, err := r.backend.Get(ctx, metaKeyPrefix+taskID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Meta{TaskID: taskID, State: StatePending}, nil
		}
		return nil, fmt.Errorf("failed to fetch result for task %v: %w", taskID, err)
	}
	meta := &Meta{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("corrupt result record for task %v: %w", taskID, err)
	}
	return meta, nil
}

// StoreResult implements Broker.StoreResult. The record is written in a
// single SET so a failed task never leaves a half-written response behind.
func (r *Redis) StoreResult(ctx context.Context, taskID string, state State, payload string) error {
	data, err := json.Marshal(&Meta{TaskID: taskID, State: state, Result: payload})
	if err != nil {
		return err
	}
	if err := r.backend.Set(ctx, metaKeyPrefix+taskID, data, r.resultTTL).Err(); err != nil {
		return fmt.Errorf("failed to store result for task %v: %w", taskID, err)
	}
	return nil
}

// Revoke implements Broker.Revoke.
func (r *Redis) Revoke(ctx context.Context, taskID string) error {
	meta, err := r.Result(ctx, taskID)
	if err != nil {
		return err
	}
	if meta.State.Settled() {
		return nil
	}
	return r.StoreResult(ctx, taskID, StateRevoked, "")
}

// IsRevoked implements Broker.IsRevoked.
func (r *Redis) IsRevoked(ctx context.Context, taskID string) (bool, error) {
	meta, err := r.Result(ctx, taskID)
	if err != nil {
		return false, err
	}
	return meta.State == StateRevoked, nil
}

// Close releases both connections.
func (r *Redis) Close() error {
	err := r.broker.Close()
	if r.backend != r.broker {
		if backendErr := r.backend.Close(); err == nil {
			err = backendErr
		}
	}
	return err
}
