package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/odinmcp"
	"github.com/viant/odinmcp/auth"
	"github.com/viant/odinmcp/broker"
)

// Task names travelling over the broker.
const (
	TaskHandleMCPRequest      = "handle_mcp_request"
	TaskHandleMCPNotification = "handle_mcp_notification"
	TaskHandleMCPResponse     = "handle_mcp_response"
	TaskTerminateSession      = "terminate_session"
)

// Dispatcher enqueues the typed worker tasks. It is the only thing the HTTP
// tier knows about the worker plane.
type Dispatcher struct {
	broker broker.Broker
	queue  string
}

// NewDispatcher creates a dispatcher over the supplied broker and queue.
func NewDispatcher(taskBroker broker.Broker, queue string) *Dispatcher {
	return &Dispatcher{broker: taskBroker, queue: queue}
}

// HandleMCPRequest enqueues a client request for worker execution.
func (d *Dispatcher) HandleMCPRequest(ctx context.Context, request *odinmcp.Request, channelID string, user *auth.CurrentUser) error {
	return d.enqueue(ctx, TaskHandleMCPRequest, "", request, channelID, user)
}

// HandleMCPNotification enqueues a client notification.
func (d *Dispatcher) HandleMCPNotification(ctx context.Context, notification *odinmcp.Notification, channelID string, user *auth.CurrentUser) error {
	return d.enqueue(ctx, TaskHandleMCPNotification, "", notification, channelID, user)
}

// HandleMCPResponse enqueues a client response under the deterministic task
// id so the worker awaiting that id observes it through the result backend.
func (d *Dispatcher) HandleMCPResponse(ctx context.Context, response *odinmcp.Response, channelID string, user *auth.CurrentUser) error {
	taskID := ResponseTaskID(response.Id, user, channelID)
	return d.enqueue(ctx, TaskHandleMCPResponse, taskID, response, channelID, user)
}

// TerminateSession enqueues a session termination.
func (d *Dispatcher) TerminateSession(ctx context.Context, channelID string, user *auth.CurrentUser) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return d.broker.Enqueue(ctx, d.queue, &broker.Task{
		Name: TaskTerminateSession,
		Args: []string{channelID, string(userJSON)},
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, name, taskID string, message interface{}, channelID string, user *auth.CurrentUser) error {
	messageJSON, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode %v payload: %w", name, err)
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return d.broker.Enqueue(ctx, d.queue, &broker.Task{
		ID:   taskID,
		Name: name,
		Args: []string{string(messageJSON), channelID, string(userJSON)},
	})
}
