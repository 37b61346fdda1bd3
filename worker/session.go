package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/viant/odinmcp"
	"github.com/viant/odinmcp/auth"
	"github.com/viant/odinmcp/broker"
	"github.com/viant/odinmcp/hermod"
)

const (
	defaultPollInterval   = 100 * time.Millisecond
	defaultRequestTimeout = 3 * time.Second
)

// Session is the worker-side view of one MCP session. It is reconstituted
// from the channel token on every task; no state survives between tasks
// except what lives in the result backend.
type Session struct {
	channelID    string
	user         *auth.CurrentUser
	clientParams json.RawMessage

	broker    broker.Broker
	publisher hermod.Publisher

	pollInterval   time.Duration
	defaultTimeout time.Duration
	logger         odinmcp.Logger
	revoked        atomic.Bool
}

// SessionOption customizes a session.
type SessionOption func(*Session)

// WithSessionPollInterval overrides the response poll interval.
func WithSessionPollInterval(interval time.Duration) SessionOption {
	return func(s *Session) { s.pollInterval = interval }
}

// WithSessionTimeout overrides the default response wait timeout.
func WithSessionTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) { s.defaultTimeout = timeout }
}

// WithSessionLogger overrides the session logger.
func WithSessionLogger(logger odinmcp.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates a session bound to the supplied channel and identity.
func NewSession(channelID string, user *auth.CurrentUser, clientParams json.RawMessage, taskBroker broker.Broker, publisher hermod.Publisher, options ...SessionOption) *Session {
	session := &Session{
		channelID:      channelID,
		user:           user,
		clientParams:   clientParams,
		broker:         taskBroker,
		publisher:      publisher,
		pollInterval:   defaultPollInterval,
		defaultTimeout: defaultRequestTimeout,
		logger:         odinmcp.DefaultLogger,
	}
	for _, option := range options {
		option(session)
	}
	return session
}

// ChannelID implements odinmcp.Session.
func (s *Session) ChannelID() string {
	return s.channelID
}

// User returns the identity the session was reconstituted for.
func (s *Session) User() *auth.CurrentUser {
	return s.user
}

// ClientParams returns the initialize params captured in the channel token.
func (s *Session) ClientParams() json.RawMessage {
	return s.clientParams
}

// SendNotification publishes a notification into the session channel.
func (s *Session) SendNotification(ctx context.Context, notification *odinmcp.Notification, options ...odinmcp.RequestOption) error {
	opts := s.requestOptions(options)
	notification.Jsonrpc = odinmcp.Version
	if opts.RelatedRequestId != nil {
		params, err := injectMeta(notification.Params, "relatedRequestId", opts.RelatedRequestId)
		if err != nil {
			return err
		}
		notification.Params = params
	}
	return s.publish(ctx, notification)
}

// SendRequest publishes a request into the session channel and waits for the
// correlated client response through the result backend. The response arrives
// as a task stored under the deterministic id both tiers derive from the
// request id.
func (s *Session) SendRequest(ctx context.Context, request *odinmcp.Request, result interface{}, options ...odinmcp.RequestOption) error {
	opts := s.requestOptions(options)
	if request.Id == nil || request.Id == "" {
		request.Id = uuid.New().String()
	}
	request.Jsonrpc = odinmcp.Version
	if opts.Progress != nil {
		params, err := injectMeta(request.Params, "progressToken", request.Id)
		if err != nil {
			return err
		}
		request.Params = params
	}
	taskID := ResponseTaskID(request.Id, s.user, s.channelID)
	if err := s.publish(ctx, request); err != nil {
		return err
	}
	return s.await(ctx, taskID, result, opts)
}

// ListRoots implements odinmcp.Session.
func (s *Session) ListRoots(ctx context.Context, options ...odinmcp.RequestOption) (*odinmcp.ListRootsResult, error) {
	request, err := odinmcp.NewRequest(odinmcp.MethodListRoots, nil)
	if err != nil {
		return nil, err
	}
	result := &odinmcp.ListRootsResult{}
	if err := s.SendRequest(ctx, request, result, options...); err != nil {
		return nil, err
	}
	return result, nil
}

// sendResponse publishes a response into the session channel.
func (s *Session) sendResponse(ctx context.Context, response *odinmcp.Response) error {
	response.Jsonrpc = odinmcp.Version
	return s.publish(ctx, response)
}

// close instructs the proxy to drop the held connection for this session.
func (s *Session) close(ctx context.Context) error {
	return s.publisher.CloseChannel(ctx, s.channelID)
}

func (s *Session) await(ctx context.Context, taskID string, result interface{}, opts *odinmcp.RequestOptions) error {
	deadline := time.Now().Add(opts.Timeout)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	var lastProgress string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		meta, err := s.broker.Result(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to poll response %v: %w", taskID, err)
		}
		switch meta.State {
		case broker.StateSuccess:
			return decodeResponse(meta.Result, result)
		case broker.StateFailure:
			return odinmcp.NewInternalError(meta.Result, nil)
		case broker.StateRevoked:
			s.revoked.Store(true)
			return odinmcp.NewInternalError("request was cancelled", nil)
		case broker.State(odinmcp.ProgressTaskState):
			if opts.Progress != nil && meta.Result != lastProgress {
				lastProgress = meta.Result
				s.reportProgress(meta.Result, opts.Progress)
			}
		}
		// A timeout abandons the wait without revoking the task: a late
		// response may still arrive and settle under the deterministic id.
		if time.Now().After(deadline) {
			return odinmcp.NewInternalError("timed out waiting for client response", nil)
		}
	}
}

// publish frames the message as an SSE event and hands it to the proxy.
// A revoked session drops publishes silently.
func (s *Session) publish(ctx context.Context, message interface{}) error {
	if s.revoked.Load() {
		s.logger.Debugf("session %v revoked, dropping publish", s.user.SessionID)
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode session message: %w", err)
	}
	return s.publisher.Publish(ctx, s.channelID, hermod.FrameSSE(data))
}

func (s *Session) reportProgress(payload string, fn odinmcp.ProgressFunc) {
	notification := &odinmcp.Notification{}
	if err := json.Unmarshal([]byte(payload), notification); err != nil {
		s.logger.Errorf("failed to decode progress payload: %v", err)
		return
	}
	params := &odinmcp.ProgressParams{}
	if err := json.Unmarshal(notification.Params, params); err != nil {
		s.logger.Errorf("failed to decode progress params: %v", err)
		return
	}
	fn(params.Progress, params.Total, params.Message)
}

func (s *Session) requestOptions(options []odinmcp.RequestOption) *odinmcp.RequestOptions {
	opts := &odinmcp.RequestOptions{Timeout: s.defaultTimeout}
	for _, option := range options {
		option(opts)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = s.defaultTimeout
	}
	return opts
}

func decodeResponse(payload string, result interface{}) error {
	response := &odinmcp.Response{}
	if err := json.Unmarshal([]byte(payload), response); err != nil {
		return fmt.Errorf("failed to decode client response: %w", err)
	}
	if response.Error != nil {
		return response.Error
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(response.Result, result); err != nil {
		return fmt.Errorf("failed to decode client response result: %w", err)
	}
	return nil
}

// injectMeta sets a key under the params `_meta` member, preserving whatever
// else the params carry.
func injectMeta(params json.RawMessage, key string, value interface{}) (json.RawMessage, error) {
	parsed := map[string]interface{}{}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode params: %w", err)
		}
	}
	meta, _ := parsed["_meta"].(map[string]interface{})
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta[key] = value
	parsed["_meta"] = meta
	return json.Marshal(parsed)
}
