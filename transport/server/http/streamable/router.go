package streamable

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viant/odinmcp"
	"github.com/viant/odinmcp/auth"
	"github.com/viant/odinmcp/config"
)

// Router mounts the MCP endpoint at path with the authentication and
// streaming middleware in their required order.
func Router(path string, settings *config.Settings, factory auth.UserFactory, handler *Handler, logger odinmcp.Logger) http.Handler {
	if path == "" {
		path = "/mcp"
	}
	signer := auth.NewTokenSigner([]byte(settings.HermodStreamingTokenSecret))
	router := chi.NewRouter()
	router.Route(path, func(route chi.Router) {
		route.Use(Authenticator(settings.UserInfoHeader, factory, logger))
		route.Use(Streaming(signer, settings.HermodStreamingHeader, logger))
		route.Handle("/", handler)
	})
	return router
}
