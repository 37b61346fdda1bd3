package streamable

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/viant/odinmcp"
	"github.com/viant/odinmcp/auth"
)

// Authenticator decodes the trusted user-info header into the current user
// and attaches it to the request context. The header carries base64 JSON
// injected by the API gateway; this middleware must run before Streaming.
func Authenticator(header string, factory auth.UserFactory, logger odinmcp.Logger) func(http.Handler) http.Handler {
	if factory == nil {
		factory = auth.FromInfo
	}
	if logger == nil {
		logger = odinmcp.DefaultLogger
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			encoded := request.Header.Get(header)
			if encoded == "" {
				writeError(writer, http.StatusUnauthorized, odinmcp.NewInvalidRequest("Unauthorized", nil), "")
				return
			}
			decoded, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				decoded, err = base64.RawStdEncoding.DecodeString(encoded)
			}
			if err != nil {
				logger.Debugf("failed to decode %v header: %v", header, err)
				writeError(writer, http.StatusUnauthorized, odinmcp.NewInvalidRequest("Unauthorized", nil), "")
				return
			}
			info := map[string]interface{}{}
			if err := json.Unmarshal(decoded, &info); err != nil {
				logger.Debugf("failed to parse %v header: %v", header, err)
				writeError(writer, http.StatusUnauthorized, odinmcp.NewInvalidRequest("Unauthorized", nil), "")
				return
			}
			user, err := factory(info)
			if err != nil {
				logger.Debugf("failed to build user from %v header: %v", header, err)
				writeError(writer, http.StatusUnauthorized, odinmcp.NewInvalidRequest("Unauthorized", nil), "")
				return
			}
			next.ServeHTTP(writer, request.WithContext(WithCurrentUser(request.Context(), user)))
		})
	}
}

// Streaming derives the push-proxy reachability flag from the header the
// proxy injects, validates any session token against the current user and
// enforces the Accept contract. A client not reachable through the proxy has
// text/event-stream stripped from its Accept header so nothing downstream
// attempts to stream directly.
func Streaming(signer *auth.TokenSigner, header string, logger odinmcp.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = odinmcp.DefaultLogger
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			user := CurrentUserFrom(request.Context())
			if user == nil {
				writeError(writer, http.StatusUnauthorized, odinmcp.NewInvalidRequest("Unauthorized", nil), "")
				return
			}
			streaming := request.Header.Get(header) != ""
			if token := request.Header.Get(odinmcp.SessionIDHeader); token != "" {
				if _, err := signer.ValidateChannelToken(user, token); err != nil {
					logger.Debugf("rejected session token for user %v: %v", user.UserID, err)
					writeError(writer, http.StatusUnauthorized, odinmcp.NewInvalidRequest("Invalid session ID", nil), "")
					return
				}
			}
			accept := request.Header.Get(odinmcp.AcceptHeader)
			if !acceptable(accept) {
				writeError(writer, http.StatusNotAcceptable,
					odinmcp.NewInvalidRequest("Not Acceptable: Client must accept application/json or text/event-stream", nil), "")
				return
			}
			if !streaming && strings.Contains(accept, odinmcp.ContentTypeSSE) {
				request.Header.Set(odinmcp.AcceptHeader, stripMediaType(accept, odinmcp.ContentTypeSSE))
			}
			next.ServeHTTP(writer, request.WithContext(WithStreaming(request.Context(), streaming)))
		})
	}
}

func acceptable(accept string) bool {
	return strings.Contains(accept, odinmcp.ContentTypeJSON) ||
		strings.Contains(accept, odinmcp.ContentTypeSSE) ||
		strings.Contains(accept, "*/*")
}

func stripMediaType(accept, mediaType string) string {
	parts := strings.Split(accept, ",")
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.Contains(part, mediaType) {
			continue
		}
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, ", ")
}
