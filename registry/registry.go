package registry

// Registry bundles the three handler tables.
type Registry struct {
	Tools     *Tools
	Resources *Resources
	Prompts   *Prompts
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		Tools:     NewTools(),
		Resources: NewResources(),
		Prompts:   NewPrompts(),
	}
}
