package server

import (
	"github.com/viant/odinmcp"
	"github.com/viant/odinmcp/auth"
	"github.com/viant/odinmcp/config"
)

// Option customizes the server definition.
type Option func(*OdinMCP)

// WithInstructions sets the instructions advertised at initialize.
func WithInstructions(instructions string) Option {
	return func(s *OdinMCP) { s.instructions = instructions }
}

// WithSettings replaces the environment-loaded settings.
func WithSettings(settings *config.Settings) Option {
	return func(s *OdinMCP) {
		if settings != nil {
			s.settings = settings
		}
	}
}

// WithLifespan sets the lifespan scope opened around each worker task.
func WithLifespan(lifespan odinmcp.Lifespan) Option {
	return func(s *OdinMCP) {
		if lifespan != nil {
			s.lifespan = lifespan
		}
	}
}

// WithUserFactory replaces the default user-info factory.
func WithUserFactory(factory auth.UserFactory) Option {
	return func(s *OdinMCP) {
		if factory != nil {
			s.userFactory = factory
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(logger odinmcp.Logger) Option {
	return func(s *OdinMCP) {
		if logger != nil {
			s.logger = logger
		}
	}
}
