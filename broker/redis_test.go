package broker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestBroker(t *testing.T) *Redis {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisWithClients(client, client, time.Hour)
}

func TestRedis_EnqueueDequeue(t *testing.T) {
	ctx := context.Background()
	taskBroker := newTestBroker(t)

	first := &Task{Name: "handle_mcp_request", Args: []string{`{"jsonrpc":"2.0"}`, "channel", `{"user_id":"u"}`}}
	second := &Task{ID: "preset-id", Name: "handle_mcp_response", Args: []string{`{}`, "channel", `{}`}}
	assert.NoError(t, taskBroker.Enqueue(ctx, "test", first))
	assert.NotEmpty(t, first.ID, "broker assigns an id when none is preset")
	assert.NoError(t, taskBroker.Enqueue(ctx, "test", second))

	got, err := taskBroker.Dequeue(ctx, "test")
	assert.NoError(t, err)
	assert.EqualValues(t, first.Name, got.Name)
	assert.EqualValues(t, first.Args, got.Args)

	got, err = taskBroker.Dequeue(ctx, "test")
	assert.NoError(t, err)
	assert.EqualValues(t, "preset-id", got.ID)
}

func TestRedis_DequeueEmpty(t *testing.T) {
	taskBroker := newTestBroker(t)
	_, err := taskBroker.Dequeue(context.Background(), "empty")
	assert.ErrorIs(t, err, ErrEmptyQueue)
}

func TestRedis_ResultLifecycle(t *testing.T) {
	ctx := context.Background()
	taskBroker := newTestBroker(t)

	meta, err := taskBroker.Result(ctx, "unknown")
	assert.NoError(t, err)
	assert.EqualValues(t, StatePending, meta.State)

	assert.NoError(t, taskBroker.StoreResult(ctx, "task-1", StateStarted, ""))
	meta, err = taskBroker.Result(ctx, "task-1")
	assert.NoError(t, err)
	assert.EqualValues(t, StateStarted, meta.State)

	assert.NoError(t, taskBroker.StoreResult(ctx, "task-1", StateSuccess, `{"jsonrpc":"2.0","id":1,"result":{}}`))
	meta, err = taskBroker.Result(ctx, "task-1")
	assert.NoError(t, err)
	assert.EqualValues(t, StateSuccess, meta.State)
	assert.NotEmpty(t, meta.Result)
}

func TestRedis_RevokeBeforeSettled(t *testing.T) {
	ctx := context.Background()
	taskBroker := newTestBroker(t)

	assert.NoError(t, taskBroker.Revoke(ctx, "task-1"))
	revoked, err := taskBroker.IsRevoked(ctx, "task-1")
	assert.NoError(t, err)
	assert.True(t, revoked)

	assert.NoError(t, taskBroker.StoreResult(ctx, "task-2", StateStarted, ""))
	assert.NoError(t, taskBroker.Revoke(ctx, "task-2"))
	revoked, err = taskBroker.IsRevoked(ctx, "task-2")
	assert.NoError(t, err)
	assert.True(t, revoked)
}

func TestRedis_RevokeAfterSettledIsNoOp(t *testing.T) {
	ctx := context.Background()
	taskBroker := newTestBroker(t)

	assert.NoError(t, taskBroker.StoreResult(ctx, "done", StateSuccess, `{"ok":true}`))
	assert.NoError(t, taskBroker.Revoke(ctx, "done"))
	meta, err := taskBroker.Result(ctx, "done")
	assert.NoError(t, err)
	assert.EqualValues(t, StateSuccess, meta.State)
	assert.EqualValues(t, `{"ok":true}`, meta.Result)

	assert.NoError(t, taskBroker.StoreResult(ctx, "failed", StateFailure, "boom"))
	assert.NoError(t, taskBroker.Revoke(ctx, "failed"))
	meta, err = taskBroker.Result(ctx, "failed")
	assert.NoError(t, err)
	assert.EqualValues(t, StateFailure, meta.State)
}

func TestState_Settled(t *testing.T) {
	assert.True(t, StateSuccess.Settled())
	assert.True(t, StateFailure.Settled())
	assert.False(t, StatePending.Settled())
	assert.False(t, StateStarted.Settled())
	assert.False(t, StateRevoked.Settled())
}
