package streamable

import (
	"github.com/viant/odinmcp"
)

// Option customizes the handler.
type Option func(*Handler)

// WithInitializationOptions sets the static identity initialize advertises.
func WithInitializationOptions(initOptions odinmcp.InitializationOptions) Option {
	return func(h *Handler) { h.initOptions = initOptions }
}

// WithKeepAliveTimeout sets the keep-alive interval, in seconds, advertised
// in streaming hold responses.
func WithKeepAliveTimeout(seconds int) Option {
	return func(h *Handler) {
		if seconds > 0 {
			h.keepAliveTimeout = seconds
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(logger odinmcp.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}
