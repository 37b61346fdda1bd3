package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/odinmcp"
)

// PromptHandler renders a prompt into messages.
type PromptHandler func(ctx context.Context, arguments map[string]string) ([]odinmcp.PromptMessage, error)

type promptEntry struct {
	prompt  odinmcp.Prompt
	handler PromptHandler
}

// Prompts is the prompt table.
type Prompts struct {
	entries map[string]*promptEntry
}

// NewPrompts creates an empty prompt table.
func NewPrompts() *Prompts {
	return &Prompts{entries: map[string]*promptEntry{}}
}

// Add registers a prompt; duplicate names fail.
func (p *Prompts) Add(prompt odinmcp.Prompt, handler PromptHandler) error {
	if prompt.Name == "" {
		return fmt.Errorf("prompt name is required")
	}
	if handler == nil {
		return fmt.Errorf("prompt %v requires a handler", prompt.Name)
	}
	if _, ok := p.entries[prompt.Name]; ok {
		return fmt.Errorf("prompt %v is already registered", prompt.Name)
	}
	p.entries[prompt.Name] = &promptEntry{prompt: prompt, handler: handler}
	return nil
}

// List returns the registered prompts in name order.
func (p *Prompts) List() []odinmcp.Prompt {
	result := make([]odinmcp.Prompt, 0, len(p.entries))
	for _, entry := range p.entries {
		result = append(result, entry.prompt)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Render renders a prompt by name, enforcing its required arguments.
func (p *Prompts) Render(ctx context.Context, name string, arguments map[string]string) (*odinmcp.GetPromptResult, error) {
	entry, ok := p.entries[name]
	if !ok {
		return nil, odinmcp.NewInvalidParamsError(fmt.Sprintf("unknown prompt: %v", name), nil)
	}
	for _, argument := range entry.prompt.Arguments {
		if !argument.Required {
			continue
		}
		if _, ok := arguments[argument.Name]; !ok {
			return nil, odinmcp.NewInvalidParamsError(fmt.Sprintf("prompt %v requires argument %v", name, argument.Name), nil)
		}
	}
	messages, err := entry.handler(ctx, arguments)
	if err != nil {
		return nil, err
	}
	return &odinmcp.GetPromptResult{Description: entry.prompt.Description, Messages: messages}, nil
}
