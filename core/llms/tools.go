package llms

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is an external capability the model can request during a completion.
// Parameters holds the raw JSON schema describing the tool's arguments.
// Execute is nil for synthetic tools that are intercepted by the caller
// rather than dispatched.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage

	Execute func(ctx context.Context, arguments string) (string, error)
}

// ParameterBase is a single parameter description used when declaring tools
// inline instead of providing a full schema.
type ParameterBase struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// NewTool declares a tool from a flat parameter map and a typed execute
// function. Arguments are unmarshalled into T before execution.
func NewTool[T any](name, description string, parameters map[string]ParameterBase, execute func(ctx context.Context, parameters T) (string, error)) Tool {
	required := make([]string, 0, len(parameters))
	for parameter := range parameters {
		required = append(required, parameter)
	}

	schema, _ := json.Marshal(struct {
		Type       string                   `json:"type"`
		Properties map[string]ParameterBase `json:"properties"`
		Required   []string                 `json:"required,omitempty"`
	}{Type: "object", Properties: parameters, Required: required})

	return Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
		Execute: func(ctx context.Context, arguments string) (string, error) {
			var parsed T
			if err := json.Unmarshal([]byte(arguments), &parsed); err != nil {
				return "", fmt.Errorf("failed to parse arguments for tool %q: %w", name, err)
			}
			return execute(ctx, parsed)
		},
	}
}

// ToolSource exposes the currently available tool catalog. The catalog may
// grow or shrink between calls, so callers re-query it per use rather than
// caching the result.
type ToolSource interface {
	Tools(ctx context.Context) ([]Tool, error)
}

// StaticToolSource is a fixed catalog, mostly useful for wiring and tests.
type StaticToolSource []Tool

func (s StaticToolSource) Tools(context.Context) ([]Tool, error) {
	tools := make([]Tool, len(s))
	copy(tools, s)
	return tools, nil
}
