package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/odinmcp"
	"github.com/viant/odinmcp/registry"
)

func newTestServer(t *testing.T) *OdinMCP {
	t.Helper()
	mcp, err := New("test-server", "1.0.0", WithInstructions("be nice"))
	assert.NoError(t, err)
	return mcp
}

func TestOdinMCP_InitializationOptions(t *testing.T) {
	mcp := newTestServer(t)

	options := mcp.InitializationOptions()
	assert.EqualValues(t, "test-server", options.ServerName)
	assert.EqualValues(t, "1.0.0", options.ServerVersion)
	assert.EqualValues(t, "be nice", options.Instructions)
	assert.Nil(t, options.Capabilities.Tools, "no tools registered yet")
	assert.Nil(t, options.Capabilities.Resources)
	assert.Nil(t, options.Capabilities.Prompts)

	assert.NoError(t, mcp.AddTool(odinmcp.Tool{Name: "add"}, func(ctx context.Context, arguments map[string]interface{}) (interface{}, error) {
		return nil, nil
	}))
	assert.NoError(t, mcp.AddResource(odinmcp.Resource{URI: "data://version"}, func(ctx context.Context) (interface{}, error) {
		return "1.0.0", nil
	}))
	assert.NoError(t, mcp.AddPrompt(odinmcp.Prompt{Name: "summarize"}, func(ctx context.Context, arguments map[string]string) ([]odinmcp.PromptMessage, error) {
		return nil, nil
	}))

	options = mcp.InitializationOptions()
	assert.NotNil(t, options.Capabilities.Tools)
	assert.NotNil(t, options.Capabilities.Resources)
	assert.NotNil(t, options.Capabilities.Prompts)
}

func TestOdinMCP_BuiltinHandlers(t *testing.T) {
	mcp := newTestServer(t)
	assert.NoError(t, mcp.AddTool(odinmcp.Tool{Name: "add", Description: "Add two numbers"},
		func(ctx context.Context, arguments map[string]interface{}) (interface{}, error) {
			return arguments["a"].(float64) + arguments["b"].(float64), nil
		}))
	ctx := context.Background()

	listHandler := mcp.requestHandlers[odinmcp.MethodListTools]
	assert.NotNil(t, listHandler)
	result, err := listHandler(ctx, &odinmcp.Request{Method: odinmcp.MethodListTools})
	assert.NoError(t, err)
	listed := result.(*odinmcp.ListToolsResult)
	assert.Len(t, listed.Tools, 1)
	assert.EqualValues(t, "add", listed.Tools[0].Name)

	callHandler := mcp.requestHandlers[odinmcp.MethodCallTool]
	assert.NotNil(t, callHandler)
	result, err = callHandler(ctx, &odinmcp.Request{
		Method: odinmcp.MethodCallTool,
		Params: json.RawMessage(`{"name":"add","arguments":{"a":1,"b":2}}`),
	})
	assert.NoError(t, err)
	called := result.(*odinmcp.CallToolResult)
	assert.Len(t, called.Content, 1)
	assert.EqualValues(t, "3", called.Content[0].(*odinmcp.TextContent).Text)

	_, err = callHandler(ctx, &odinmcp.Request{
		Method: odinmcp.MethodCallTool,
		Params: json.RawMessage(`{"name":"subtract"}`),
	})
	assert.EqualValues(t, odinmcp.InvalidParams, odinmcp.AsError(err).Code)
}

func TestOdinMCP_ResourceAndPromptHandlers(t *testing.T) {
	mcp := newTestServer(t)
	assert.NoError(t, mcp.AddResource(odinmcp.Resource{URI: "data://version", Name: "version"},
		func(ctx context.Context) (interface{}, error) { return "1.0.0", nil }))
	assert.NoError(t, mcp.AddResourceTemplate(odinmcp.ResourceTemplate{URITemplate: "data://users/{id}"}, []string{"id"},
		func(ctx context.Context, params map[string]string) (interface{}, error) {
			return map[string]interface{}{"id": params["id"]}, nil
		}))
	assert.NoError(t, mcp.AddPrompt(odinmcp.Prompt{Name: "greet"},
		func(ctx context.Context, arguments map[string]string) ([]odinmcp.PromptMessage, error) {
			return []odinmcp.PromptMessage{{Role: "user", Content: odinmcp.NewTextContent("hi")}}, nil
		}))
	ctx := context.Background()

	result, err := mcp.requestHandlers[odinmcp.MethodReadResource](ctx, &odinmcp.Request{
		Params: json.RawMessage(`{"uri":"data://users/7"}`),
	})
	assert.NoError(t, err)
	read := result.(*odinmcp.ReadResourceResult)
	assert.Len(t, read.Contents, 1)
	assert.JSONEq(t, `{"id":"7"}`, read.Contents[0].Text)

	result, err = mcp.requestHandlers[odinmcp.MethodListResourceTemplates](ctx, &odinmcp.Request{})
	assert.NoError(t, err)
	templates := result.(*odinmcp.ListResourceTemplatesResult)
	assert.Len(t, templates.ResourceTemplates, 1)

	result, err = mcp.requestHandlers[odinmcp.MethodGetPrompt](ctx, &odinmcp.Request{
		Params: json.RawMessage(`{"name":"greet"}`),
	})
	assert.NoError(t, err)
	rendered := result.(*odinmcp.GetPromptResult)
	assert.Len(t, rendered.Messages, 1)
}

func TestOdinMCP_CustomHandlerRegistration(t *testing.T) {
	mcp := newTestServer(t)
	mcp.HandleRequest("custom/echo", func(ctx context.Context, request *odinmcp.Request) (interface{}, error) {
		return json.RawMessage(request.Params), nil
	})
	mcp.HandleNotification("custom/ping", func(ctx context.Context, notification *odinmcp.Notification) error {
		return nil
	})
	assert.NotNil(t, mcp.requestHandlers["custom/echo"])
	assert.NotNil(t, mcp.notificationHandlers["custom/ping"])
}

func TestOdinMCP_RegistrationErrors(t *testing.T) {
	mcp := newTestServer(t)
	var handler registry.ToolHandler
	assert.Error(t, mcp.AddTool(odinmcp.Tool{Name: "broken"}, handler))
	assert.Error(t, mcp.AddResourceTemplate(odinmcp.ResourceTemplate{URITemplate: "data://users/{id}"}, []string{"user"},
		func(ctx context.Context, params map[string]string) (interface{}, error) { return nil, nil }))
}
