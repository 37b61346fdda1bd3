package worker

import (
	"time"

	"github.com/viant/odinmcp"
)

// Option customizes the worker runtime.
type Option func(*Runtime)

// WithQueue sets the queue the runtime drains.
func WithQueue(queue string) Option {
	return func(r *Runtime) { r.queue = queue }
}

// WithConcurrency sets how many task slots drain the queue in parallel.
func WithConcurrency(concurrency int) Option {
	return func(r *Runtime) {
		if concurrency > 0 {
			r.concurrency = concurrency
		}
	}
}

// WithRequestHandlers registers the request handler table keyed by method.
func WithRequestHandlers(handlers map[string]odinmcp.RequestHandler) Option {
	return func(r *Runtime) {
		for method, handler := range handlers {
			r.requestHandlers[method] = handler
		}
	}
}

// WithNotificationHandlers registers the notification handler table keyed by method.
func WithNotificationHandlers(handlers map[string]odinmcp.NotificationHandler) Option {
	return func(r *Runtime) {
		for method, handler := range handlers {
			r.notificationHandlers[method] = handler
		}
	}
}

// WithLifespan sets the lifespan scope opened around each task.
func WithLifespan(lifespan odinmcp.Lifespan) Option {
	return func(r *Runtime) {
		if lifespan != nil {
			r.lifespan = lifespan
		}
	}
}

// WithPollInterval sets the response poll interval for sessions.
func WithPollInterval(interval time.Duration) Option {
	return func(r *Runtime) {
		if interval > 0 {
			r.pollInterval = interval
		}
	}
}

// WithDefaultTimeout sets the default response wait timeout for sessions.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(r *Runtime) {
		if timeout > 0 {
			r.defaultTimeout = timeout
		}
	}
}

// WithLogger sets the runtime logger.
func WithLogger(logger odinmcp.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}
