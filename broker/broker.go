// Package broker defines the task broker and result backend contract the
// worker plane runs on, plus its Redis implementation. The result backend is
// the only shared medium between the HTTP tier and the workers: all
// cross-process correlation goes through it.
package broker

import (
	"context"
	"encoding/json"
	"errors"
)

// State is the lifecycle state of a task in the result backend.
type State string

const (
	StatePending State = "PENDING"
	StateStarted State = "STARTED"
	StateSuccess State = "SUCCESS"
	StateFailure State = "FAILURE"
	StateRevoked State = "REVOKED"
)

// Settled returns true once the task has succeeded or failed. Revocation is
// deliberately not settled: a revoke may still race a late store.
func (s State) Settled() bool {
	return s == StateSuccess || s == StateFailure
}

// Task is one unit of work travelling over the broker. Args are JSON strings
// agreed between dispatcher and runtime.
type Task struct {
	ID   string   `json:"id" yaml:"id" mapstructure:"id"`
	Name string   `json:"name" yaml:"name" mapstructure:"name"`
	Args []string `json:"args" yaml:"args" mapstructure:"args"`
}

// Meta is the result backend record of one task.
type Meta struct {
	TaskID string `json:"task_id" yaml:"task_id" mapstructure:"task_id"`
	State  State  `json:"status" yaml:"status" mapstructure:"status"`
	Result string `json:"result,omitempty" yaml:"result,omitempty" mapstructure:"result,omitempty"`
}

// ErrEmptyQueue is returned by Dequeue when no task arrived within the poll window.
var ErrEmptyQueue = errors.New("queue is empty")

// Broker is the abstract broker plus result backend.
type Broker interface {
	// Enqueue puts a task on the named queue. An empty task id is replaced
	// with a broker-generated one; the response rendezvous relies on callers
	// presetting deterministic ids.
	Enqueue(ctx context.Context, queue string, task *Task) error

	// Dequeue pops the next task off the named queue, blocking briefly.
	// Returns ErrEmptyQueue when nothing arrived.
	Dequeue(ctx context.Context, queue string) (*Task, error)

	// Result fetches the backend record for a task; absent tasks are PENDING.
	Result(ctx context.Context, taskID string) (*Meta, error)

	// StoreResult records a state and payload for a task.
	StoreResult(ctx context.Context, taskID string, state State, payload string) error

	// Revoke marks a task revoked unless it already settled; revoking a
	// settled task is a no-op.
	Revoke(ctx context.Context, taskID string) error

	// IsRevoked reports whether the task was revoked.
	IsRevoked(ctx context.Context, taskID string) (bool, error)
}

func (t *Task) encode() ([]byte, error) {
	return json.Marshal(t)
}

func decodeTask(data []byte) (*Task, error) {
	task := &Task{}
	if err := json.Unmarshal(data, task); err != nil {
		return nil, err
	}
	return task, nil
}
