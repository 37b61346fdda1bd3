package streamable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/viant/odinmcp"
	"github.com/viant/odinmcp/auth"
)

// Dispatcher is the slice of the worker plane the transport enqueues into.
type Dispatcher interface {
	HandleMCPRequest(ctx context.Context, request *odinmcp.Request, channelID string, user *auth.CurrentUser) error
	HandleMCPNotification(ctx context.Context, notification *odinmcp.Notification, channelID string, user *auth.CurrentUser) error
	HandleMCPResponse(ctx context.Context, response *odinmcp.Response, channelID string, user *auth.CurrentUser) error
	TerminateSession(ctx context.Context, channelID string, user *auth.CurrentUser) error
}

// Handler serves the single MCP endpoint. It holds no per-session state:
// initialize is answered synchronously, everything else is enqueued for the
// worker plane, and streaming is delegated to the push proxy through GRIP
// hold responses.
type Handler struct {
	signer     *auth.TokenSigner
	dispatcher Dispatcher

	initOptions      odinmcp.InitializationOptions
	keepAliveTimeout int
	logger           odinmcp.Logger
}

// New creates a handler over the supplied signer and dispatcher.
func New(signer *auth.TokenSigner, dispatcher Dispatcher, options ...Option) *Handler {
	handler := &Handler{
		signer:           signer,
		dispatcher:       dispatcher,
		keepAliveTimeout: 10,
		logger:           odinmcp.DefaultLogger,
	}
	for _, option := range options {
		option(handler)
	}
	return handler
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	switch request.Method {
	case http.MethodPost:
		h.handlePost(writer, request)
	case http.MethodGet:
		h.handleGet(writer, request)
	case http.MethodDelete:
		h.handleDelete(writer, request)
	default:
		writeError(writer, http.StatusMethodNotAllowed,
			odinmcp.NewInvalidRequest("Method not allowed", nil), "")
	}
}

func (h *Handler) handlePost(writer http.ResponseWriter, request *http.Request) {
	user := CurrentUserFrom(request.Context())
	if user == nil {
		writeError(writer, http.StatusUnauthorized, odinmcp.NewInvalidRequest("Unauthorized", nil), "")
		return
	}
	if contentType := request.Header.Get(odinmcp.ContentTypeHeader); !strings.Contains(contentType, odinmcp.ContentTypeJSON) {
		writeError(writer, http.StatusUnsupportedMediaType,
			odinmcp.NewInvalidRequest("Unsupported Media Type: Content-Type must be application/json", nil), "")
		return
	}
	body, err := io.ReadAll(request.Body)
	if err != nil || len(body) == 0 {
		writeError(writer, http.StatusBadRequest, odinmcp.NewParsingError("empty request body", nil), "")
		return
	}
	message, err := odinmcp.ParseMessage(body)
	if err != nil {
		writeError(writer, http.StatusBadRequest, odinmcp.AsError(err), "")
		return
	}

	if message.Type == odinmcp.MessageTypeRequest && message.Method() == odinmcp.MethodInitialize {
		h.handleInitialize(writer, message.JsonRpcRequest, user)
		return
	}

	token := request.Header.Get(odinmcp.SessionIDHeader)
	if token == "" {
		writeError(writer, http.StatusBadRequest, odinmcp.NewInvalidRequest("Missing session ID", nil), "")
		return
	}

	ctx := request.Context()
	switch message.Type {
	case odinmcp.MessageTypeRequest:
		err = h.dispatcher.HandleMCPRequest(ctx, message.JsonRpcRequest, token, user)
	case odinmcp.MessageTypeNotification:
		err = h.dispatcher.HandleMCPNotification(ctx, message.JsonRpcNotification, token, user)
	case odinmcp.MessageTypeResponse, odinmcp.MessageTypeError:
		err = h.dispatcher.HandleMCPResponse(ctx, message.JsonRpcResponse, token, user)
	}
	if err != nil {
		h.logger.Errorf("failed to enqueue %v: %v", message.Type, err)
		writeError(writer, http.StatusInternalServerError,
			odinmcp.NewInternalError("failed to enqueue message", nil), token)
		return
	}

	// A streaming-capable client announcing readiness gets the hold response,
	// turning this POST into its server→client stream.
	if message.Type == odinmcp.MessageTypeNotification &&
		message.Method() == odinmcp.MethodNotifyInitialized && StreamingFrom(ctx) {
		h.writeHold(writer, token)
		return
	}
	writer.Header().Set(odinmcp.SessionIDHeader, token)
	writer.WriteHeader(http.StatusAccepted)
}

// handleInitialize answers initialize synchronously: it synthesizes the
// result from the static server identity and mints a fresh channel token
// binding this user to the client's initialize params. No prior session
// token is required.
func (h *Handler) handleInitialize(writer http.ResponseWriter, rpcRequest *odinmcp.Request, user *auth.CurrentUser) {
	token, err := h.signer.CreateChannelToken(user, rpcRequest.Params)
	if err != nil {
		h.logger.Errorf("failed to mint channel token: %v", err)
		writeError(writer, http.StatusInternalServerError,
			odinmcp.NewInternalError("failed to create session", nil), "")
		return
	}
	result := &odinmcp.InitializeResult{
		ProtocolVersion: odinmcp.LatestProtocolVersion,
		Capabilities:    h.initOptions.Capabilities,
		ServerInfo: odinmcp.Implementation{
			Name:    h.initOptions.ServerName,
			Version: h.initOptions.ServerVersion,
		},
		Instructions: h.initOptions.Instructions,
	}
	data, err := json.Marshal(result)
	if err != nil {
		writeError(writer, http.StatusInternalServerError,
			odinmcp.NewInternalError("failed to encode initialize result", nil), "")
		return
	}
	writeResponse(writer, http.StatusOK, odinmcp.NewResponse(rpcRequest.Id, data), token)
}

func (h *Handler) handleGet(writer http.ResponseWriter, request *http.Request) {
	token := request.Header.Get(odinmcp.SessionIDHeader)
	if token == "" {
		writeError(writer, http.StatusBadRequest, odinmcp.NewInvalidRequest("Missing session ID", nil), "")
		return
	}
	if !StreamingFrom(request.Context()) {
		writeError(writer, http.StatusNotAcceptable,
			odinmcp.NewInvalidRequest("Not Acceptable: streaming is not available", nil), token)
		return
	}
	h.writeHold(writer, token)
}

func (h *Handler) handleDelete(writer http.ResponseWriter, request *http.Request) {
	user := CurrentUserFrom(request.Context())
	if user == nil {
		writeError(writer, http.StatusUnauthorized, odinmcp.NewInvalidRequest("Unauthorized", nil), "")
		return
	}
	token := request.Header.Get(odinmcp.SessionIDHeader)
	if token == "" {
		writeError(writer, http.StatusBadRequest, odinmcp.NewInvalidRequest("Missing session ID", nil), "")
		return
	}
	if err := h.dispatcher.TerminateSession(request.Context(), token, user); err != nil {
		h.logger.Errorf("failed to enqueue session termination: %v", err)
		writeError(writer, http.StatusInternalServerError,
			odinmcp.NewInternalError("failed to terminate session", nil), token)
		return
	}
	writer.Header().Set(odinmcp.SessionIDHeader, token)
	writer.WriteHeader(http.StatusOK)
}

// writeHold emits the GRIP instruction headers that make the push proxy hold
// the connection open as an SSE stream on the session channel.
func (h *Handler) writeHold(writer http.ResponseWriter, token string) {
	header := writer.Header()
	header.Set(odinmcp.ContentTypeHeader, odinmcp.ContentTypeSSE)
	header.Set(odinmcp.SessionIDHeader, token)
	header.Set(odinmcp.GripHoldHeader, odinmcp.GripHoldModeStream)
	header.Set(odinmcp.GripChannelHeader, token)
	header.Set(odinmcp.GripKeepAliveHeader, fmt.Sprintf("\\n; format=cstring; timeout=%d", h.keepAliveTimeout))
	writer.WriteHeader(http.StatusAccepted)
}

func writeResponse(writer http.ResponseWriter, status int, response *odinmcp.Response, token string) {
	header := writer.Header()
	header.Set(odinmcp.ContentTypeHeader, odinmcp.ContentTypeJSON)
	if token != "" {
		header.Set(odinmcp.SessionIDHeader, token)
	}
	writer.WriteHeader(status)
	data, err := json.Marshal(response)
	if err != nil {
		return
	}
	_, _ = writer.Write(data)
}

// writeError emits a JSON-RPC error body with a null id; the HTTP status and
// the JSON-RPC code are independent axes.
func writeError(writer http.ResponseWriter, status int, rpcError *odinmcp.Error, token string) {
	writeResponse(writer, status, odinmcp.NewErrorResponse(nil, rpcError), token)
}
