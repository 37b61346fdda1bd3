package streamable

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/odinmcp"
	"github.com/viant/odinmcp/auth"
	"github.com/viant/odinmcp/config"
)

// captureDispatcher records enqueues instead of touching a broker.
type captureDispatcher struct {
	mu            sync.Mutex
	requests      []*odinmcp.Request
	notifications []*odinmcp.Notification
	responses     []*odinmcp.Response
	terminated    []string
}

func (d *captureDispatcher) HandleMCPRequest(_ context.Context, request *odinmcp.Request, _ string, _ *auth.CurrentUser) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, request)
	return nil
}

func (d *captureDispatcher) HandleMCPNotification(_ context.Context, notification *odinmcp.Notification, _ string, _ *auth.CurrentUser) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications = append(d.notifications, notification)
	return nil
}

func (d *captureDispatcher) HandleMCPResponse(_ context.Context, response *odinmcp.Response, _ string, _ *auth.CurrentUser) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.responses = append(d.responses, response)
	return nil
}

func (d *captureDispatcher) TerminateSession(_ context.Context, channelID string, _ *auth.CurrentUser) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.terminated = append(d.terminated, channelID)
	return nil
}

func (d *captureDispatcher) total() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests) + len(d.notifications) + len(d.responses) + len(d.terminated)
}

type transportFixture struct {
	router     http.Handler
	dispatcher *captureDispatcher
	signer     *auth.TokenSigner
	settings   *config.Settings
	user       *auth.CurrentUser
}

func newTransportFixture(t *testing.T) *transportFixture {
	t.Helper()
	settings := config.New()
	signer := auth.NewTokenSigner([]byte(settings.HermodStreamingTokenSecret))
	dispatcher := &captureDispatcher{}
	handler := New(signer, dispatcher,
		WithInitializationOptions(odinmcp.InitializationOptions{
			ServerName:    "test-server",
			ServerVersion: "1.0.0",
			Capabilities:  odinmcp.ServerCapabilities{Tools: &odinmcp.ToolsCapability{}},
		}),
		WithKeepAliveTimeout(settings.HermodKeepAliveTimeout),
	)
	return &transportFixture{
		router:     Router("/mcp", settings, auth.FromInfo, handler, nil),
		dispatcher: dispatcher,
		signer:     signer,
		settings:   settings,
		user:       &auth.CurrentUser{UserID: "user-1", SessionID: "sid-1"},
	}
}

func (f *transportFixture) userInfoHeader() string {
	return base64.StdEncoding.EncodeToString([]byte(`{"user_id":"user-1","sid":"sid-1","scope":"openid"}`))
}

func (f *transportFixture) request(t *testing.T, method, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(method, "/mcp", strings.NewReader(body))
	request.Header.Set(f.settings.UserInfoHeader, f.userInfoHeader())
	request.Header.Set(odinmcp.AcceptHeader, odinmcp.ContentTypeJSON)
	if method == http.MethodPost {
		request.Header.Set(odinmcp.ContentTypeHeader, odinmcp.ContentTypeJSON)
	}
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func (f *transportFixture) token(t *testing.T) string {
	t.Helper()
	token, err := f.signer.CreateChannelToken(f.user, json.RawMessage(`{"clientInfo":{"name":"client"}}`))
	assert.NoError(t, err)
	return token
}

func errorCode(t *testing.T, body string) int {
	t.Helper()
	// transport errors carry a null id, which the strict Response codec rejects
	payload := struct {
		Jsonrpc string          `json:"jsonrpc"`
		Id      interface{}     `json:"id"`
		Error   *odinmcp.Error  `json:"error"`
		Result  json.RawMessage `json:"result"`
	}{}
	if err := json.Unmarshal([]byte(body), &payload); err != nil || payload.Error == nil {
		t.Fatalf("expected a JSON-RPC error body, got %q", body)
	}
	assert.EqualValues(t, "2.0", payload.Jsonrpc)
	assert.Nil(t, payload.Id)
	return payload.Error.Code
}

func TestHandler_Initialize(t *testing.T) {
	fixture := newTransportFixture(t)
	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"client","version":"1"}}}`
	recorder := fixture.request(t, http.MethodPost, body, nil)

	assert.EqualValues(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Header().Get(odinmcp.ContentTypeHeader), odinmcp.ContentTypeJSON)

	token := recorder.Header().Get(odinmcp.SessionIDHeader)
	assert.NotEmpty(t, token)
	claims, err := fixture.signer.ValidateChannelToken(fixture.user, token)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"protocolVersion":"2025-03-26","clientInfo":{"name":"client","version":"1"}}`, string(claims.ClientParams))

	response := &odinmcp.Response{}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), response))
	assert.EqualValues(t, float64(1), response.Id)
	result := &odinmcp.InitializeResult{}
	assert.NoError(t, json.Unmarshal(response.Result, result))
	assert.EqualValues(t, odinmcp.LatestProtocolVersion, result.ProtocolVersion)
	assert.EqualValues(t, "test-server", result.ServerInfo.Name)
	assert.NotNil(t, result.Capabilities.Tools)

	// initialize never enqueues
	assert.EqualValues(t, 0, fixture.dispatcher.total())
}

func TestHandler_PostMatrix(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"add","arguments":{"a":1,"b":2}}}`

	t.Run("missing session token", func(t *testing.T) {
		fixture := newTransportFixture(t)
		recorder := fixture.request(t, http.MethodPost, body, nil)
		assert.EqualValues(t, http.StatusBadRequest, recorder.Code)
		assert.EqualValues(t, odinmcp.InvalidRequest, errorCode(t, recorder.Body.String()))
		assert.EqualValues(t, 0, fixture.dispatcher.total())
	})

	t.Run("invalid session token", func(t *testing.T) {
		fixture := newTransportFixture(t)
		recorder := fixture.request(t, http.MethodPost, body, map[string]string{
			odinmcp.SessionIDHeader: "not-a-token",
		})
		assert.EqualValues(t, http.StatusUnauthorized, recorder.Code)
		assert.EqualValues(t, 0, fixture.dispatcher.total(), "nothing may be enqueued on auth failure")
	})

	t.Run("valid session token", func(t *testing.T) {
		fixture := newTransportFixture(t)
		token := fixture.token(t)
		recorder := fixture.request(t, http.MethodPost, body, map[string]string{
			odinmcp.SessionIDHeader: token,
		})
		assert.EqualValues(t, http.StatusAccepted, recorder.Code)
		assert.Empty(t, recorder.Body.String())
		assert.EqualValues(t, token, recorder.Header().Get(odinmcp.SessionIDHeader))
		assert.Len(t, fixture.dispatcher.requests, 1)
		assert.EqualValues(t, "tools/call", fixture.dispatcher.requests[0].Method)
	})
}

func TestHandler_PostBodyValidation(t *testing.T) {
	fixture := newTransportFixture(t)
	token := fixture.token(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   int
	}{
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest, wantCode: odinmcp.ParseError},
		{name: "invalid JSON", body: `{"jsonrpc":`, wantStatus: http.StatusBadRequest, wantCode: odinmcp.ParseError},
		{name: "not a message", body: `{"jsonrpc":"2.0","id":1}`, wantStatus: http.StatusBadRequest, wantCode: odinmcp.InvalidRequest},
		{name: "wrong version", body: `{"jsonrpc":"1.0","id":1,"method":"x"}`, wantStatus: http.StatusBadRequest, wantCode: odinmcp.InvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := fixture.request(t, http.MethodPost, tt.body, map[string]string{
				odinmcp.SessionIDHeader: token,
			})
			assert.EqualValues(t, tt.wantStatus, recorder.Code)
			assert.EqualValues(t, tt.wantCode, errorCode(t, recorder.Body.String()))
		})
	}
	assert.EqualValues(t, 0, fixture.dispatcher.total())
}

func TestHandler_UnsupportedMediaType(t *testing.T) {
	fixture := newTransportFixture(t)
	recorder := fixture.request(t, http.MethodPost, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, map[string]string{
		odinmcp.ContentTypeHeader: "text/plain",
	})
	assert.EqualValues(t, http.StatusUnsupportedMediaType, recorder.Code)
}

func TestHandler_MissingUserInfo(t *testing.T) {
	fixture := newTransportFixture(t)
	request := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`))
	request.Header.Set(odinmcp.ContentTypeHeader, odinmcp.ContentTypeJSON)
	request.Header.Set(odinmcp.AcceptHeader, odinmcp.ContentTypeJSON)
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)

	assert.EqualValues(t, http.StatusUnauthorized, recorder.Code)
	assert.EqualValues(t, 0, fixture.dispatcher.total())
}

func TestHandler_NotAcceptable(t *testing.T) {
	fixture := newTransportFixture(t)
	recorder := fixture.request(t, http.MethodPost, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, map[string]string{
		odinmcp.AcceptHeader: "text/html",
	})
	assert.EqualValues(t, http.StatusNotAcceptable, recorder.Code)
}

func TestHandler_Get(t *testing.T) {
	t.Run("streaming capable", func(t *testing.T) {
		fixture := newTransportFixture(t)
		recorder := fixture.request(t, http.MethodGet, "", map[string]string{
			odinmcp.SessionIDHeader:                fixture.token(t),
			fixture.settings.HermodStreamingHeader: "1",
			odinmcp.AcceptHeader:                   odinmcp.ContentTypeSSE,
		})
		assert.EqualValues(t, http.StatusAccepted, recorder.Code)
		assert.EqualValues(t, odinmcp.GripHoldModeStream, recorder.Header().Get(odinmcp.GripHoldHeader))
		assert.NotEmpty(t, recorder.Header().Get(odinmcp.GripChannelHeader))
		assert.EqualValues(t, "\\n; format=cstring; timeout=10", recorder.Header().Get(odinmcp.GripKeepAliveHeader))
		assert.EqualValues(t, odinmcp.ContentTypeSSE, recorder.Header().Get(odinmcp.ContentTypeHeader))
	})

	t.Run("not streaming capable", func(t *testing.T) {
		fixture := newTransportFixture(t)
		recorder := fixture.request(t, http.MethodGet, "", map[string]string{
			odinmcp.SessionIDHeader: fixture.token(t),
		})
		assert.EqualValues(t, http.StatusNotAcceptable, recorder.Code)
	})

	t.Run("missing session token", func(t *testing.T) {
		fixture := newTransportFixture(t)
		recorder := fixture.request(t, http.MethodGet, "", map[string]string{
			fixture.settings.HermodStreamingHeader: "1",
		})
		assert.EqualValues(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestHandler_InitializedNotificationHold(t *testing.T) {
	fixture := newTransportFixture(t)
	token := fixture.token(t)
	body := `{"jsonrpc":"2.0","method":"notifications/initialized"}`

	recorder := fixture.request(t, http.MethodPost, body, map[string]string{
		odinmcp.SessionIDHeader:                token,
		fixture.settings.HermodStreamingHeader: "1",
	})
	assert.EqualValues(t, http.StatusAccepted, recorder.Code)
	assert.EqualValues(t, odinmcp.GripHoldModeStream, recorder.Header().Get(odinmcp.GripHoldHeader))
	assert.EqualValues(t, token, recorder.Header().Get(odinmcp.GripChannelHeader))
	assert.Len(t, fixture.dispatcher.notifications, 1)

	// without the proxy header the same POST is a bare 202
	recorder = fixture.request(t, http.MethodPost, body, map[string]string{
		odinmcp.SessionIDHeader: token,
	})
	assert.EqualValues(t, http.StatusAccepted, recorder.Code)
	assert.Empty(t, recorder.Header().Get(odinmcp.GripHoldHeader))
}

func TestHandler_ResponseEnqueued(t *testing.T) {
	fixture := newTransportFixture(t)
	token := fixture.token(t)
	body := `{"jsonrpc":"2.0","id":"req-x","result":{"roots":[]}}`

	recorder := fixture.request(t, http.MethodPost, body, map[string]string{
		odinmcp.SessionIDHeader: token,
	})
	assert.EqualValues(t, http.StatusAccepted, recorder.Code)
	assert.Len(t, fixture.dispatcher.responses, 1)
	assert.EqualValues(t, "req-x", fixture.dispatcher.responses[0].Id)
}

func TestHandler_Delete(t *testing.T) {
	fixture := newTransportFixture(t)
	token := fixture.token(t)

	recorder := fixture.request(t, http.MethodDelete, "", map[string]string{
		odinmcp.SessionIDHeader: token,
	})
	assert.EqualValues(t, http.StatusOK, recorder.Code)
	assert.EqualValues(t, []string{token}, fixture.dispatcher.terminated)

	recorder = fixture.request(t, http.MethodDelete, "", nil)
	assert.EqualValues(t, http.StatusBadRequest, recorder.Code)
}
