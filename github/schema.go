package github

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gopkg.in/yaml.v3"
)

// WorkflowInput is one declared workflow_dispatch input, normalized.
type WorkflowInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required"`
	Type        string   `json:"type"` // string, choice, boolean, number, environment
	Default     string   `json:"default,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// SchemaReader fetches workflow definition files and extracts their
// workflow_dispatch input declarations.
type SchemaReader struct {
	gateway RawFileFetcher
}

// RawFileFetcher is the gateway capability the reader needs.
type RawFileFetcher interface {
	GetRawFileContent(ctx context.Context, owner, repo, path string) (string, error)
}

func NewSchemaReader(gateway RawFileFetcher) *SchemaReader {
	return &SchemaReader{gateway: gateway}
}

// GetWorkflowInputs returns the declared inputs of a workflow file. A file
// without a workflow_dispatch inputs section yields an empty list, and so
// does a malformed file: deployments must stay possible through the bare
// build-number fallback, so "no inputs discoverable" is a normal state.
// Gateway errors (auth, API, network) still propagate.
func (r *SchemaReader) GetWorkflowInputs(ctx context.Context, owner, repo, workflowFile string) ([]WorkflowInput, error) {
	content, err := r.gateway.GetRawFileContent(ctx, owner, repo, ".github/workflows/"+workflowFile)
	if err != nil {
		return nil, err
	}

	inputs, err := ParseWorkflowInputs(content)
	if err != nil {
		slog.Warn("Failed to parse workflow definition; treating as no inputs",
			"owner", owner,
			"repo", repo,
			"workflow_file", workflowFile,
			"error", err)
		return []WorkflowInput{}, nil
	}
	return inputs, nil
}

type workflowInputDecl struct {
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Type        string `yaml:"type"`
	Default     any    `yaml:"default"`
	Options     []any  `yaml:"options"`
}

// ParseWorkflowInputs extracts on.workflow_dispatch.inputs from workflow
// YAML. Returns an empty list when the section is absent.
func ParseWorkflowInputs(content string) ([]WorkflowInput, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return nil, fmt.Errorf("unmarshaling workflow definition: %w", err)
	}
	if len(root.Content) == 0 {
		return []WorkflowInput{}, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return []WorkflowInput{}, nil
	}

	// A bare `on` key resolves as a YAML 1.1 boolean, so the key node's
	// value may be "on" or "true" depending on quoting
	triggers := mappingValue(doc, "on", "true")
	if triggers == nil || triggers.Kind != yaml.MappingNode {
		return []WorkflowInput{}, nil
	}

	dispatch := mappingValue(triggers, "workflow_dispatch")
	if dispatch == nil || dispatch.Kind != yaml.MappingNode {
		return []WorkflowInput{}, nil
	}

	inputsNode := mappingValue(dispatch, "inputs")
	if inputsNode == nil || inputsNode.Kind != yaml.MappingNode {
		return []WorkflowInput{}, nil
	}

	var decls map[string]workflowInputDecl
	if err := inputsNode.Decode(&decls); err != nil {
		return nil, fmt.Errorf("decoding workflow_dispatch inputs: %w", err)
	}

	inputs := make([]WorkflowInput, 0, len(decls))
	for name, decl := range decls {
		input := WorkflowInput{
			Name:        name,
			Description: decl.Description,
			Required:    decl.Required,
			Type:        decl.Type,
		}
		if input.Type == "" {
			input.Type = "string"
		}
		if decl.Default != nil {
			input.Default = fmt.Sprintf("%v", decl.Default)
		}
		for _, opt := range decl.Options {
			input.Options = append(input.Options, fmt.Sprintf("%v", opt))
		}
		inputs = append(inputs, input)
	}

	// Map iteration order is random; keep the list stable for the UI
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Name < inputs[j].Name })
	return inputs, nil
}

// mappingValue returns the value node for the first of the given keys found
// in a mapping node.
func mappingValue(mapping *yaml.Node, keys ...string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i]
		for _, want := range keys {
			if key.Value == want {
				return mapping.Content[i+1]
			}
		}
	}
	return nil
}
