package odinmcp

// Version is the JSON-RPC protocol version.
const Version = "2.0"

// LatestProtocolVersion is the most recent MCP protocol revision the server speaks.
const LatestProtocolVersion = "2025-03-26"

// JSON-RPC error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Header names used by the streamable HTTP transport.
const (
	SessionIDHeader   = "mcp-session-id"
	LastEventIDHeader = "last-event-id"
	ContentTypeHeader = "Content-Type"
	AcceptHeader      = "Accept"
)

// GRIP instruction headers consumed by the hermod push proxy.
const (
	GripHoldHeader      = "Grip-Hold"
	GripHoldModeStream  = "stream"
	GripChannelHeader   = "Grip-Channel"
	GripKeepAliveHeader = "Grip-Keep-Alive"
)

// Content types.
const (
	ContentTypeJSON = "application/json"
	ContentTypeSSE  = "text/event-stream"
)

// ProgressTaskState is the custom result-backend state under which progress
// notifications for an in-flight outbound request are stored.
const ProgressTaskState = "ODINMCP_PROGRESS"

// Well-known MCP method names the core dispatches on.
const (
	MethodInitialize            = "initialize"
	MethodNotifyInitialized     = "notifications/initialized"
	MethodNotifyCancelled       = "notifications/cancelled"
	MethodNotifyProgress        = "notifications/progress"
	MethodListTools             = "tools/list"
	MethodCallTool              = "tools/call"
	MethodListResources         = "resources/list"
	MethodListResourceTemplates = "resources/templates/list"
	MethodReadResource          = "resources/read"
	MethodListPrompts           = "prompts/list"
	MethodGetPrompt             = "prompts/get"
	MethodListRoots             = "roots/list"
)
