package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/viant/odinmcp"
	"github.com/viant/odinmcp/auth"
	"github.com/viant/odinmcp/broker"
	"github.com/viant/odinmcp/hermod"
)

// Runtime consumes tasks off the broker queue and executes them. Several
// runtimes may drain the same queue; each task carries everything needed to
// reconstitute its session, so any worker can serve any session.
type Runtime struct {
	broker    broker.Broker
	publisher hermod.Publisher
	signer    *auth.TokenSigner

	queue       string
	concurrency int

	requestHandlers      map[string]odinmcp.RequestHandler
	notificationHandlers map[string]odinmcp.NotificationHandler
	lifespan             odinmcp.Lifespan

	pollInterval   time.Duration
	defaultTimeout time.Duration
	logger         odinmcp.Logger
}

// NewRuntime creates a worker runtime over the supplied broker, publisher and
// token signer.
func NewRuntime(taskBroker broker.Broker, publisher hermod.Publisher, signer *auth.TokenSigner, options ...Option) *Runtime {
	runtime := &Runtime{
		broker:               taskBroker,
		publisher:            publisher,
		signer:               signer,
		queue:                "odinmcp",
		concurrency:          1,
		requestHandlers:      map[string]odinmcp.RequestHandler{},
		notificationHandlers: map[string]odinmcp.NotificationHandler{},
		lifespan:             odinmcp.DefaultLifespan,
		pollInterval:         defaultPollInterval,
		defaultTimeout:       defaultRequestTimeout,
		logger:               odinmcp.DefaultLogger,
	}
	for _, option := range options {
		option(runtime)
	}
	return runtime
}

// Run drains the queue until the context is cancelled.
func (r *Runtime) Run(ctx context.Context) error {
	var waitGroup sync.WaitGroup
	for i := 0; i < r.concurrency; i++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			r.runSlot(ctx)
		}()
	}
	waitGroup.Wait()
	return ctx.Err()
}

func (r *Runtime) runSlot(ctx context.Context) {
	for ctx.Err() == nil {
		task, err := r.dequeue(ctx)
		if err != nil {
			if ctx.Err() == nil {
				r.logger.Errorf("failed to dequeue: %v", err)
			}
			continue
		}
		if task == nil {
			continue
		}
		r.execute(ctx, task)
	}
}

// dequeue pops the next task, retrying transient broker failures with
// exponential backoff. An empty queue is not a failure.
func (r *Runtime) dequeue(ctx context.Context) (*broker.Task, error) {
	expBackoff := backoff.NewExponentialBackOff()
	return backoff.Retry(ctx, func() (*broker.Task, error) {
		task, err := r.broker.Dequeue(ctx, r.queue)
		if errors.Is(err, broker.ErrEmptyQueue) {
			return nil, nil
		}
		return task, err
	},
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(5),
		backoff.WithNotify(func(err error, duration time.Duration) {
			r.logger.Debugf("retrying dequeue after %v: %v", duration, err)
		}),
	)
}

// execute runs one task, recording its lifecycle in the result backend. A
// task found revoked before it starts is dropped without executing.
func (r *Runtime) execute(ctx context.Context, task *broker.Task) {
	revoked, err := r.broker.IsRevoked(ctx, task.ID)
	if err != nil {
		r.logger.Errorf("failed to check revocation of task %v: %v", task.ID, err)
		return
	}
	if revoked {
		r.logger.Debugf("task %v revoked, skipping", task.ID)
		return
	}
	if err := r.broker.StoreResult(ctx, task.ID, broker.StateStarted, ""); err != nil {
		r.logger.Errorf("failed to mark task %v started: %v", task.ID, err)
	}
	payload, err := r.dispatch(ctx, task)
	if err != nil {
		r.logger.Errorf("task %v (%v) failed: %v", task.Name, task.ID, err)
		if storeErr := r.broker.StoreResult(ctx, task.ID, broker.StateFailure, err.Error()); storeErr != nil {
			r.logger.Errorf("failed to mark task %v failed: %v", task.ID, storeErr)
		}
		return
	}
	if err := r.broker.StoreResult(ctx, task.ID, broker.StateSuccess, payload); err != nil {
		r.logger.Errorf("failed to mark task %v succeeded: %v", task.ID, err)
	}
}

func (r *Runtime) dispatch(ctx context.Context, task *broker.Task) (string, error) {
	switch task.Name {
	case TaskHandleMCPRequest:
		messageJSON, channelID, user, err := decodeTaskArgs(task)
		if err != nil {
			return "", err
		}
		return "", r.handleRequest(ctx, messageJSON, channelID, user)
	case TaskHandleMCPNotification:
		messageJSON, channelID, user, err := decodeTaskArgs(task)
		if err != nil {
			return "", err
		}
		return "", r.handleNotification(ctx, messageJSON, channelID, user)
	case TaskHandleMCPResponse:
		messageJSON, _, _, err := decodeTaskArgs(task)
		if err != nil {
			return "", err
		}
		// The response body settles under the deterministic task id; the
		// awaiting SendRequest picks it up from the result backend.
		return messageJSON, nil
	case TaskTerminateSession:
		if len(task.Args) < 2 {
			return "", fmt.Errorf("task %v requires 2 args, got %v", task.Name, len(task.Args))
		}
		user, err := decodeUser(task.Args[1])
		if err != nil {
			return "", err
		}
		return "", r.terminateSession(ctx, task.Args[0], user)
	default:
		return "", fmt.Errorf("unknown task: %v", task.Name)
	}
}

// handleRequest executes a client request and always publishes a response or
// an error back into the session channel.
func (r *Runtime) handleRequest(ctx context.Context, messageJSON, channelID string, user *auth.CurrentUser) error {
	request := &odinmcp.Request{}
	if err := json.Unmarshal([]byte(messageJSON), request); err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}
	session, err := r.newSession(channelID, user)
	if err != nil {
		return err
	}
	lifespanValue, release, err := r.lifespan(ctx)
	if err != nil {
		return fmt.Errorf("failed to open lifespan: %w", err)
	}
	defer func() {
		if releaseErr := release(); releaseErr != nil {
			r.logger.Errorf("failed to release lifespan: %v", releaseErr)
		}
	}()

	var response *odinmcp.Response
	if handler, ok := r.requestHandlers[request.Method]; ok {
		handlerCtx := odinmcp.WithRequestContext(ctx, &odinmcp.RequestContext{
			RequestId: request.Id,
			Meta:      requestMeta(request.Params),
			Session:   session,
			Lifespan:  lifespanValue,
		})
		result, handlerErr := invoke(handlerCtx, handler, request)
		if handlerErr != nil {
			response = odinmcp.NewErrorResponse(request.Id, odinmcp.AsError(handlerErr))
		} else {
			data, marshalErr := json.Marshal(result)
			if marshalErr != nil {
				response = odinmcp.NewErrorResponse(request.Id,
					odinmcp.NewInternalError(fmt.Sprintf("failed to encode result: %v", marshalErr), nil))
			} else {
				response = odinmcp.NewResponse(request.Id, data)
			}
		}
	} else {
		response = odinmcp.NewErrorResponse(request.Id, odinmcp.NewError(0, "Handler not found", nil))
	}
	return session.sendResponse(ctx, response)
}

// handleNotification consumes a client notification. Cancellation and
// progress act on the result backend before any user handler runs; handler
// failures are logged and swallowed since notifications have no reply path.
func (r *Runtime) handleNotification(ctx context.Context, messageJSON, channelID string, user *auth.CurrentUser) error {
	notification := &odinmcp.Notification{}
	if err := json.Unmarshal([]byte(messageJSON), notification); err != nil {
		return fmt.Errorf("failed to decode notification: %w", err)
	}
	switch notification.Method {
	case odinmcp.MethodNotifyCancelled:
		if err := r.applyCancellation(ctx, notification, channelID, user); err != nil {
			return err
		}
	case odinmcp.MethodNotifyProgress:
		if err := r.applyProgress(ctx, messageJSON, notification, channelID, user); err != nil {
			return err
		}
	}
	handler, ok := r.notificationHandlers[notification.Method]
	if !ok {
		return nil
	}
	session, err := r.newSession(channelID, user)
	if err != nil {
		return err
	}
	lifespanValue, release, err := r.lifespan(ctx)
	if err != nil {
		return fmt.Errorf("failed to open lifespan: %w", err)
	}
	defer func() {
		if releaseErr := release(); releaseErr != nil {
			r.logger.Errorf("failed to release lifespan: %v", releaseErr)
		}
	}()
	handlerCtx := odinmcp.WithRequestContext(ctx, &odinmcp.RequestContext{
		Meta:     requestMeta(notification.Params),
		Session:  session,
		Lifespan: lifespanValue,
	})
	if err := handler(handlerCtx, notification); err != nil {
		r.logger.Errorf("notification handler %v failed: %v", notification.Method, err)
	}
	return nil
}

// applyCancellation revokes the response task the cancelled request would
// have settled; revoking an already settled task is a no-op.
func (r *Runtime) applyCancellation(ctx context.Context, notification *odinmcp.Notification, channelID string, user *auth.CurrentUser) error {
	params := &odinmcp.CancelledParams{}
	if err := json.Unmarshal(notification.Params, params); err != nil {
		return fmt.Errorf("failed to decode cancellation params: %w", err)
	}
	taskID := ResponseTaskID(params.RequestId, user, channelID)
	return r.broker.Revoke(ctx, taskID)
}

// applyProgress stores the raw progress notification under the response task
// id so the awaiting SendRequest can surface it, unless the task already
// settled or was revoked.
func (r *Runtime) applyProgress(ctx context.Context, messageJSON string, notification *odinmcp.Notification, channelID string, user *auth.CurrentUser) error {
	params := &odinmcp.ProgressParams{}
	if err := json.Unmarshal(notification.Params, params); err != nil {
		return fmt.Errorf("failed to decode progress params: %w", err)
	}
	if params.ProgressToken == nil {
		return nil
	}
	taskID := ResponseTaskID(params.ProgressToken, user, channelID)
	meta, err := r.broker.Result(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to look up task %v: %w", taskID, err)
	}
	if meta.State.Settled() || meta.State == broker.StateRevoked {
		return nil
	}
	return r.broker.StoreResult(ctx, taskID, broker.State(odinmcp.ProgressTaskState), messageJSON)
}

func (r *Runtime) terminateSession(ctx context.Context, channelID string, user *auth.CurrentUser) error {
	session, err := r.newSession(channelID, user)
	if err != nil {
		return err
	}
	return session.close(ctx)
}

// newSession reconstitutes the session from the channel token, re-validating
// that the token belongs to the task's user.
func (r *Runtime) newSession(channelID string, user *auth.CurrentUser) (*Session, error) {
	clientParams, err := r.signer.ClientParams(user, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstitute session: %w", err)
	}
	return NewSession(channelID, user, clientParams, r.broker, r.publisher,
		WithSessionPollInterval(r.pollInterval),
		WithSessionTimeout(r.defaultTimeout),
		WithSessionLogger(r.logger),
	), nil
}

// invoke shields the runtime from panicking handlers.
func invoke(ctx context.Context, handler odinmcp.RequestHandler, request *odinmcp.Request) (result interface{}, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("handler panic: %v", recovered)
		}
	}()
	return handler(ctx, request)
}

func requestMeta(params json.RawMessage) json.RawMessage {
	if len(params) == 0 {
		return nil
	}
	probe := struct {
		Meta json.RawMessage `json:"_meta"`
	}{}
	if err := json.Unmarshal(params, &probe); err != nil {
		return nil
	}
	return probe.Meta
}

func decodeTaskArgs(task *broker.Task) (string, string, *auth.CurrentUser, error) {
	if len(task.Args) < 3 {
		return "", "", nil, fmt.Errorf("task %v requires 3 args, got %v", task.Name, len(task.Args))
	}
	user, err := decodeUser(task.Args[2])
	if err != nil {
		return "", "", nil, err
	}
	return task.Args[0], task.Args[1], user, nil
}

func decodeUser(data string) (*auth.CurrentUser, error) {
	user := &auth.CurrentUser{}
	if err := json.Unmarshal([]byte(data), user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return user, nil
}
