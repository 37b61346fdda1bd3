// Package server assembles the odinmcp planes: it owns the registration
// surface, synthesizes the advertised capabilities and builds the HTTP
// handler and the worker runtime off one shared configuration.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/viant/odinmcp"
	"github.com/viant/odinmcp/auth"
	"github.com/viant/odinmcp/broker"
	"github.com/viant/odinmcp/config"
	"github.com/viant/odinmcp/hermod"
	"github.com/viant/odinmcp/registry"
	"github.com/viant/odinmcp/transport/server/http/streamable"
	"github.com/viant/odinmcp/worker"
)

// OdinMCP is the server definition: identity, handler tables and settings.
// Populate it at startup; both tiers are built from the same instance so
// they agree on capabilities and handler coverage.
type OdinMCP struct {
	name         string
	version      string
	instructions string

	registry             *registry.Registry
	requestHandlers      map[string]odinmcp.RequestHandler
	notificationHandlers map[string]odinmcp.NotificationHandler
	lifespan             odinmcp.Lifespan
	userFactory          auth.UserFactory

	settings *config.Settings
	logger   odinmcp.Logger
}

// New creates a server definition with the built-in catalog handlers registered.
func New(name, version string, options ...Option) (*OdinMCP, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	server := &OdinMCP{
		name:                 name,
		version:              version,
		registry:             registry.New(),
		requestHandlers:      map[string]odinmcp.RequestHandler{},
		notificationHandlers: map[string]odinmcp.NotificationHandler{},
		lifespan:             odinmcp.DefaultLifespan,
		userFactory:          auth.FromInfo,
		settings:             settings,
		logger:               odinmcp.DefaultLogger,
	}
	for _, option := range options {
		option(server)
	}
	server.registerBuiltins()
	return server, nil
}

// AddTool registers a tool and its handler.
func (s *OdinMCP) AddTool(tool odinmcp.Tool, handler registry.ToolHandler) error {
	return s.registry.Tools.Add(tool, handler)
}

// AddResource registers a plain resource and its handler.
func (s *OdinMCP) AddResource(resource odinmcp.Resource, handler registry.ResourceHandler) error {
	return s.registry.Resources.Add(resource, handler)
}

// AddResourceTemplate registers a templated resource; params must name the
// URI placeholders exactly.
func (s *OdinMCP) AddResourceTemplate(template odinmcp.ResourceTemplate, params []string, handler registry.TemplateHandler) error {
	return s.registry.Resources.AddTemplate(template, params, handler)
}

// AddPrompt registers a prompt and its handler.
func (s *OdinMCP) AddPrompt(prompt odinmcp.Prompt, handler registry.PromptHandler) error {
	return s.registry.Prompts.Add(prompt, handler)
}

// HandleRequest registers a request handler for a custom method. Registering
// over a built-in method replaces it.
func (s *OdinMCP) HandleRequest(method string, handler odinmcp.RequestHandler) {
	s.requestHandlers[method] = handler
}

// HandleNotification registers a notification handler for a method.
func (s *OdinMCP) HandleNotification(method string, handler odinmcp.NotificationHandler) {
	s.notificationHandlers[method] = handler
}

// InitializationOptions synthesizes the static identity initialize
// advertises; a capability is present when at least one matching entry is
// registered.
func (s *OdinMCP) InitializationOptions() odinmcp.InitializationOptions {
	capabilities := odinmcp.ServerCapabilities{}
	if len(s.registry.Tools.List()) > 0 {
		capabilities.Tools = &odinmcp.ToolsCapability{}
	}
	if len(s.registry.Prompts.List()) > 0 {
		capabilities.Prompts = &odinmcp.PromptsCapability{}
	}
	if len(s.registry.Resources.List()) > 0 || len(s.registry.Resources.ListTemplates()) > 0 {
		capabilities.Resources = &odinmcp.ResourcesCapability{}
	}
	return odinmcp.InitializationOptions{
		ServerName:    s.name,
		ServerVersion: s.version,
		Capabilities:  capabilities,
		Instructions:  s.instructions,
	}
}

// Handler builds the HTTP tier: middleware chain plus the single-endpoint
// handler, enqueueing into the shared broker.
func (s *OdinMCP) Handler(path string) (http.Handler, error) {
	taskBroker, err := s.newBroker()
	if err != nil {
		return nil, err
	}
	signer := auth.NewTokenSigner([]byte(s.settings.HermodStreamingTokenSecret))
	dispatcher := worker.NewDispatcher(taskBroker, s.settings.WorkerQueue)
	handler := streamable.New(signer, dispatcher,
		streamable.WithInitializationOptions(s.InitializationOptions()),
		streamable.WithKeepAliveTimeout(s.settings.HermodKeepAliveTimeout),
		streamable.WithLogger(s.logger),
	)
	return streamable.Router(path, s.settings, s.userFactory, handler, s.logger), nil
}

// Worker builds the worker runtime with the full handler table.
func (s *OdinMCP) Worker(options ...worker.Option) (*worker.Runtime, error) {
	taskBroker, err := s.newBroker()
	if err != nil {
		return nil, err
	}
	publisher, err := hermod.NewRedisPublisher(s.settings.HermodPublishURLs)
	if err != nil {
		return nil, err
	}
	signer := auth.NewTokenSigner([]byte(s.settings.HermodStreamingTokenSecret))
	runtimeOptions := append([]worker.Option{
		worker.WithQueue(s.settings.WorkerQueue),
		worker.WithRequestHandlers(s.requestHandlers),
		worker.WithNotificationHandlers(s.notificationHandlers),
		worker.WithLifespan(s.lifespan),
		worker.WithLogger(s.logger),
	}, options...)
	return worker.NewRuntime(taskBroker, publisher, signer, runtimeOptions...), nil
}

func (s *OdinMCP) newBroker() (broker.Broker, error) {
	return broker.NewRedis(s.settings.BrokerURL, s.settings.BackendURL, s.settings.ResultTTL)
}

// registerBuiltins installs the catalog handlers serving the registry tables.
func (s *OdinMCP) registerBuiltins() {
	s.requestHandlers[odinmcp.MethodListTools] = s.listTools
	s.requestHandlers[odinmcp.MethodCallTool] = s.callTool
	s.requestHandlers[odinmcp.MethodListResources] = s.listResources
	s.requestHandlers[odinmcp.MethodListResourceTemplates] = s.listResourceTemplates
	s.requestHandlers[odinmcp.MethodReadResource] = s.readResource
	s.requestHandlers[odinmcp.MethodListPrompts] = s.listPrompts
	s.requestHandlers[odinmcp.MethodGetPrompt] = s.getPrompt
}

func (s *OdinMCP) listTools(ctx context.Context, request *odinmcp.Request) (interface{}, error) {
	return &odinmcp.ListToolsResult{Tools: s.registry.Tools.List()}, nil
}

func (s *OdinMCP) callTool(ctx context.Context, request *odinmcp.Request) (interface{}, error) {
	params := &odinmcp.CallToolParams{}
	if err := json.Unmarshal(request.Params, params); err != nil {
		return nil, odinmcp.NewInvalidParamsError(err.Error(), nil)
	}
	content, err := s.registry.Tools.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		return nil, err
	}
	return &odinmcp.CallToolResult{Content: content}, nil
}

func (s *OdinMCP) listResources(ctx context.Context, request *odinmcp.Request) (interface{}, error) {
	return &odinmcp.ListResourcesResult{Resources: s.registry.Resources.List()}, nil
}

func (s *OdinMCP) listResourceTemplates(ctx context.Context, request *odinmcp.Request) (interface{}, error) {
	return &odinmcp.ListResourceTemplatesResult{ResourceTemplates: s.registry.Resources.ListTemplates()}, nil
}

func (s *OdinMCP) readResource(ctx context.Context, request *odinmcp.Request) (interface{}, error) {
	params := &odinmcp.ReadResourceParams{}
	if err := json.Unmarshal(request.Params, params); err != nil {
		return nil, odinmcp.NewInvalidParamsError(err.Error(), nil)
	}
	contents, err := s.registry.Resources.Read(ctx, params.URI)
	if err != nil {
		return nil, err
	}
	return &odinmcp.ReadResourceResult{Contents: []odinmcp.ResourceContents{*contents}}, nil
}

func (s *OdinMCP) listPrompts(ctx context.Context, request *odinmcp.Request) (interface{}, error) {
	return &odinmcp.ListPromptsResult{Prompts: s.registry.Prompts.List()}, nil
}

func (s *OdinMCP) getPrompt(ctx context.Context, request *odinmcp.Request) (interface{}, error) {
	params := &odinmcp.GetPromptParams{}
	if err := json.Unmarshal(request.Params, params); err != nil {
		return nil, odinmcp.NewInvalidParamsError(err.Error(), nil)
	}
	return s.registry.Prompts.Render(ctx, params.Name, params.Arguments)
}
