// Package streamable implements the single-endpoint streamable HTTP
// transport: authentication and streaming-capability middleware plus the
// POST/GET/DELETE handler that offloads server→client streaming to the push
// proxy and all execution to the worker plane.
package streamable

import (
	"context"

	"github.com/viant/odinmcp/auth"
)

type currentUserKey struct{}
type streamingKey struct{}

// WithCurrentUser returns a context carrying the authenticated user.
func WithCurrentUser(ctx context.Context, user *auth.CurrentUser) context.Context {
	return context.WithValue(ctx, currentUserKey{}, user)
}

// CurrentUserFrom returns the authenticated user, or nil outside the
// authentication middleware.
func CurrentUserFrom(ctx context.Context) *auth.CurrentUser {
	user, _ := ctx.Value(currentUserKey{}).(*auth.CurrentUser)
	return user
}

// WithStreaming returns a context carrying the push-proxy reachability flag.
func WithStreaming(ctx context.Context, streaming bool) context.Context {
	return context.WithValue(ctx, streamingKey{}, streaming)
}

// StreamingFrom reports whether the request arrived through the push proxy.
func StreamingFrom(ctx context.Context) bool {
	streaming, _ := ctx.Value(streamingKey{}).(bool)
	return streaming
}
