// Package registry holds the tool, prompt and resource tables the worker
// runtime serves from. Tables are populated at startup and immutable after.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/viant/odinmcp"
)

// ToolHandler executes a tool call. The returned value is flattened into
// content parts: content structs pass through, strings become text parts and
// anything else is JSON-encoded into a text part.
type ToolHandler func(ctx context.Context, arguments map[string]interface{}) (interface{}, error)

type toolEntry struct {
	tool    odinmcp.Tool
	handler ToolHandler
}

// Tools is the tool table.
type Tools struct {
	entries map[string]*toolEntry
}

// NewTools creates an empty tool table.
func NewTools() *Tools {
	return &Tools{entries: map[string]*toolEntry{}}
}

// Add registers a tool; duplicate names fail.
func (t *Tools) Add(tool odinmcp.Tool, handler ToolHandler) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool %v requires a handler", tool.Name)
	}
	if _, ok := t.entries[tool.Name]; ok {
		return fmt.Errorf("tool %v is already registered", tool.Name)
	}
	if len(tool.InputSchema) == 0 {
		tool.InputSchema = json.RawMessage(`{"type":"object"}`)
	}
	t.entries[tool.Name] = &toolEntry{tool: tool, handler: handler}
	return nil
}

// List returns the registered tools in name order.
func (t *Tools) List() []odinmcp.Tool {
	result := make([]odinmcp.Tool, 0, len(t.entries))
	for _, entry := range t.entries {
		result = append(result, entry.tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Call invokes a tool by name and flattens its return value to content parts.
func (t *Tools) Call(ctx context.Context, name string, arguments map[string]interface{}) ([]odinmcp.Content, error) {
	entry, ok := t.entries[name]
	if !ok {
		return nil, odinmcp.NewInvalidParamsError(fmt.Sprintf("unknown tool: %v", name), nil)
	}
	result, err := entry.handler(ctx, arguments)
	if err != nil {
		return nil, err
	}
	return FlattenContent(result)
}

// FlattenContent converts a tool return value into a sequence of content parts.
func FlattenContent(value interface{}) ([]odinmcp.Content, error) {
	switch actual := value.(type) {
	case nil:
		return []odinmcp.Content{}, nil
	case odinmcp.Content:
		return []odinmcp.Content{actual}, nil
	case []odinmcp.Content:
		return actual, nil
	case string:
		return []odinmcp.Content{odinmcp.NewTextContent(actual)}, nil
	case []interface{}:
		result := make([]odinmcp.Content, 0, len(actual))
		for _, item := range actual {
			flattened, err := FlattenContent(item)
			if err != nil {
				return nil, err
			}
			result = append(result, flattened...)
		}
		return result, nil
	default:
		data, err := json.Marshal(actual)
		if err != nil {
			return nil, fmt.Errorf("failed to convert tool result to content: %w", err)
		}
		return []odinmcp.Content{odinmcp.NewTextContent(string(data))}, nil
	}
}
