package odinmcp

import (
	"context"
	"encoding/json"
	"time"
)

// ProgressFunc is invoked by SendRequest when the client reports progress for
// an outbound request.
type ProgressFunc func(progress float64, total *float64, message string)

// RequestOptions control an individual server-initiated send.
type RequestOptions struct {
	// Timeout bounds the wait for the client response. The default of 3s is
	// aggressive for tool roundtrips; callers should generally pass their own.
	Timeout time.Duration
	// Progress receives client progress notifications correlated to this request.
	Progress ProgressFunc
	// RelatedRequestId relates a notification to an in-flight request.
	RelatedRequestId RequestId
}

// RequestOption mutates RequestOptions.
type RequestOption func(*RequestOptions)

// WithTimeout overrides the response wait timeout.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(o *RequestOptions) { o.Timeout = timeout }
}

// WithProgress registers a progress callback for the request.
func WithProgress(fn ProgressFunc) RequestOption {
	return func(o *RequestOptions) { o.Progress = fn }
}

// WithRelatedRequest relates the message to an in-flight request id.
func WithRelatedRequest(id RequestId) RequestOption {
	return func(o *RequestOptions) { o.RelatedRequestId = id }
}

// Session is the server side of one MCP session as seen by user handlers.
// Server→client messages are published into the session's push channel;
// SendRequest additionally awaits the correlated client response through the
// result backend.
type Session interface {
	// ChannelID returns the channel token naming this session.
	ChannelID() string
	// SendNotification publishes a notification to the client; fire and forget.
	SendNotification(ctx context.Context, notification *Notification, options ...RequestOption) error
	// SendRequest publishes a request to the client and blocks until the
	// correlated response arrives, unmarshaling its result into result.
	SendRequest(ctx context.Context, request *Request, result interface{}, options ...RequestOption) error
	// ListRoots asks the client for its filesystem roots.
	ListRoots(ctx context.Context, options ...RequestOption) (*ListRootsResult, error)
}

// RequestContext is what a handler can learn about the request it serves.
type RequestContext struct {
	RequestId RequestId
	Meta      json.RawMessage
	Session   Session
	Lifespan  interface{}
}

type requestContextKey struct{}

// WithRequestContext returns a context carrying the request context.
func WithRequestContext(ctx context.Context, requestContext *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, requestContext)
}

// RequestContextFrom returns the request context installed by the worker
// runtime for the duration of a handler invocation, or nil outside one.
func RequestContextFrom(ctx context.Context) *RequestContext {
	value, _ := ctx.Value(requestContextKey{}).(*RequestContext)
	return value
}

// RequestHandler serves one client request; the returned value is marshaled
// as the JSON-RPC result. Returning a *Error propagates it unchanged, any
// other error is surfaced as code 0.
type RequestHandler func(ctx context.Context, request *Request) (interface{}, error)

// NotificationHandler consumes one client notification. Failures are logged
// and swallowed; notifications have no reply path.
type NotificationHandler func(ctx context.Context, notification *Notification) error

// Lifespan is a scoped acquisition of process-global resources bound to task
// execution; it yields a value handlers may consult through the request
// context and a release func that runs on all exit paths.
type Lifespan func(ctx context.Context) (interface{}, func() error, error)

// DefaultLifespan yields no lifespan value.
func DefaultLifespan(ctx context.Context) (interface{}, func() error, error) {
	return nil, func() error { return nil }, nil
}
