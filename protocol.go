package odinmcp

import (
	"encoding/json"
)

// Implementation describes the name and version of an MCP implementation.
type Implementation struct {
	Name    string `json:"name" yaml:"name" mapstructure:"name"`
	Version string `json:"version" yaml:"version" mapstructure:"version"`
}

// ToolsCapability advertises the tools capability.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged" yaml:"listChanged" mapstructure:"listChanged"`
}

// PromptsCapability advertises the prompts capability.
type PromptsCapability struct {
	ListChanged bool `json:"listChanged" yaml:"listChanged" mapstructure:"listChanged"`
}

// ResourcesCapability advertises the resources capability.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe" yaml:"subscribe" mapstructure:"subscribe"`
	ListChanged bool `json:"listChanged" yaml:"listChanged" mapstructure:"listChanged"`
}

// LoggingCapability advertises the logging capability.
type LoggingCapability struct{}

// ServerCapabilities is the merged static capability set the server advertises
// at initialize.
type ServerCapabilities struct {
	Logging      *LoggingCapability     `json:"logging,omitempty" yaml:"logging,omitempty" mapstructure:"logging,omitempty"`
	Prompts      *PromptsCapability     `json:"prompts,omitempty" yaml:"prompts,omitempty" mapstructure:"prompts,omitempty"`
	Resources    *ResourcesCapability   `json:"resources,omitempty" yaml:"resources,omitempty" mapstructure:"resources,omitempty"`
	Tools        *ToolsCapability       `json:"tools,omitempty" yaml:"tools,omitempty" mapstructure:"tools,omitempty"`
	Experimental map[string]interface{} `json:"experimental,omitempty" yaml:"experimental,omitempty" mapstructure:"experimental,omitempty"`
}

// InitializationOptions captures the static identity the server presents to
// every session: name, version, capabilities and instructions.
type InitializationOptions struct {
	ServerName    string             `json:"serverName" yaml:"serverName" mapstructure:"serverName"`
	ServerVersion string             `json:"serverVersion" yaml:"serverVersion" mapstructure:"serverVersion"`
	Capabilities  ServerCapabilities `json:"capabilities" yaml:"capabilities" mapstructure:"capabilities"`
	Instructions  string             `json:"instructions,omitempty" yaml:"instructions,omitempty" mapstructure:"instructions,omitempty"`
}

// InitializeResult is the result of the initialize request.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion" yaml:"protocolVersion" mapstructure:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities" yaml:"capabilities" mapstructure:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo" yaml:"serverInfo" mapstructure:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty" yaml:"instructions,omitempty" mapstructure:"instructions,omitempty"`
}

// RequestMeta is the reserved `_meta` member of request params.
type RequestMeta struct {
	ProgressToken RequestId `json:"progressToken,omitempty" yaml:"progressToken,omitempty" mapstructure:"progressToken,omitempty"`
}

// Tool describes a callable tool exposed by the server.
type Tool struct {
	Name        string          `json:"name" yaml:"name" mapstructure:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema" yaml:"inputSchema" mapstructure:"inputSchema"`
}

// ListToolsResult is the result of tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools" yaml:"tools" mapstructure:"tools"`
}

// CallToolParams are the params of tools/call.
type CallToolParams struct {
	Name      string                 `json:"name" yaml:"name" mapstructure:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty" yaml:"arguments,omitempty" mapstructure:"arguments,omitempty"`
}

// Content is one part of a tool or prompt result: text, image or an embedded
// resource.
type Content interface {
	contentType() string
}

// TextContent is a text content part.
type TextContent struct {
	Type string `json:"type" yaml:"type" mapstructure:"type"`
	Text string `json:"text" yaml:"text" mapstructure:"text"`
}

func (c *TextContent) contentType() string { return "text" }

// NewTextContent creates a text content part.
func NewTextContent(text string) *TextContent {
	return &TextContent{Type: "text", Text: text}
}

// ImageContent is a base64-encoded image content part.
type ImageContent struct {
	Type     string `json:"type" yaml:"type" mapstructure:"type"`
	Data     string `json:"data" yaml:"data" mapstructure:"data"`
	MimeType string `json:"mimeType" yaml:"mimeType" mapstructure:"mimeType"`
}

func (c *ImageContent) contentType() string { return "image" }

// NewImageContent creates an image content part.
func NewImageContent(data, mimeType string) *ImageContent {
	return &ImageContent{Type: "image", Data: data, MimeType: mimeType}
}

// EmbeddedResource is a resource content part embedded into a message.
type EmbeddedResource struct {
	Type     string            `json:"type" yaml:"type" mapstructure:"type"`
	Resource *ResourceContents `json:"resource" yaml:"resource" mapstructure:"resource"`
}

func (c *EmbeddedResource) contentType() string { return "resource" }

// NewEmbeddedResource creates an embedded resource content part.
func NewEmbeddedResource(resource *ResourceContents) *EmbeddedResource {
	return &EmbeddedResource{Type: "resource", Resource: resource}
}

// CallToolResult is the result of tools/call.
type CallToolResult struct {
	Content []Content `json:"content" yaml:"content" mapstructure:"content"`
	IsError bool      `json:"isError,omitempty" yaml:"isError,omitempty" mapstructure:"isError,omitempty"`
}

// Resource describes a resource the server exposes.
type Resource struct {
	URI         string `json:"uri" yaml:"uri" mapstructure:"uri"`
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty" yaml:"mimeType,omitempty" mapstructure:"mimeType,omitempty"`
}

// ResourceTemplate describes a parameterized resource.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate" yaml:"uriTemplate" mapstructure:"uriTemplate"`
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty" yaml:"mimeType,omitempty" mapstructure:"mimeType,omitempty"`
}

// ListResourcesResult is the result of resources/list.
type ListResourcesResult struct {
	Resources []Resource `json:"resources" yaml:"resources" mapstructure:"resources"`
}

// ListResourceTemplatesResult is the result of resources/templates/list.
type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates" yaml:"resourceTemplates" mapstructure:"resourceTemplates"`
}

// ReadResourceParams are the params of resources/read.
type ReadResourceParams struct {
	URI string `json:"uri" yaml:"uri" mapstructure:"uri"`
}

// ResourceContents carries the content of a read resource; exactly one of
// Text or Blob is set.
type ResourceContents struct {
	URI      string `json:"uri" yaml:"uri" mapstructure:"uri"`
	MimeType string `json:"mimeType,omitempty" yaml:"mimeType,omitempty" mapstructure:"mimeType,omitempty"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text,omitempty"`
	Blob     string `json:"blob,omitempty" yaml:"blob,omitempty" mapstructure:"blob,omitempty"`
}

// ReadResourceResult is the result of resources/read.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents" yaml:"contents" mapstructure:"contents"`
}

// PromptArgument describes one argument accepted by a prompt.
type PromptArgument struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required,omitempty"`
}

// Prompt describes a prompt the server can render.
type Prompt struct {
	Name        string           `json:"name" yaml:"name" mapstructure:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty" yaml:"arguments,omitempty" mapstructure:"arguments,omitempty"`
}

// ListPromptsResult is the result of prompts/list.
type ListPromptsResult struct {
	Prompts []Prompt `json:"prompts" yaml:"prompts" mapstructure:"prompts"`
}

// GetPromptParams are the params of prompts/get.
type GetPromptParams struct {
	Name      string            `json:"name" yaml:"name" mapstructure:"name"`
	Arguments map[string]string `json:"arguments,omitempty" yaml:"arguments,omitempty" mapstructure:"arguments,omitempty"`
}

// PromptMessage is one message of a rendered prompt.
type PromptMessage struct {
	Role    string  `json:"role" yaml:"role" mapstructure:"role"`
	Content Content `json:"content" yaml:"content" mapstructure:"content"`
}

// GetPromptResult is the result of prompts/get.
type GetPromptResult struct {
	Description string          `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	Messages    []PromptMessage `json:"messages" yaml:"messages" mapstructure:"messages"`
}

// Root is one entry of the client's roots/list result.
type Root struct {
	URI  string `json:"uri" yaml:"uri" mapstructure:"uri"`
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name,omitempty"`
}

// ListRootsResult is the result of the server-initiated roots/list request.
type ListRootsResult struct {
	Roots []Root `json:"roots" yaml:"roots" mapstructure:"roots"`
}

// ProgressParams are the params of notifications/progress.
type ProgressParams struct {
	ProgressToken RequestId `json:"progressToken" yaml:"progressToken" mapstructure:"progressToken"`
	Progress      float64   `json:"progress" yaml:"progress" mapstructure:"progress"`
	Total         *float64  `json:"total,omitempty" yaml:"total,omitempty" mapstructure:"total,omitempty"`
	Message       string    `json:"message,omitempty" yaml:"message,omitempty" mapstructure:"message,omitempty"`
}

// CancelledParams are the params of notifications/cancelled.
type CancelledParams struct {
	RequestId RequestId `json:"requestId" yaml:"requestId" mapstructure:"requestId"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty" mapstructure:"reason,omitempty"`
}
