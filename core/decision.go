package enhancement

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	tekurischema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/adaeng/enhance-core/core/llms"
)

// decisionToolName is the synthetic terminal tool the model must call to
// finish a decision negotiation.
const decisionToolName = "process_enhancement_decision"

// Decision is the outcome of one enhancement negotiation. Exactly one
// decision (or a fallback substitute) is produced per raw turn.
type Decision struct {
	// DisplayEnhancement selects whether the turn gets a rich rendering.
	DisplayEnhancement bool `json:"displayEnhancement" jsonschema:"description=Whether to display a visual enhancement to the user"`
	// DisplayEnhancedText is the text to render; defaults to the turn's
	// original response when the model leaves it empty.
	DisplayEnhancedText string `json:"displayEnhancedText" jsonschema:"description=The enhanced text to display to the user; may include tool results and formatting"`
	// VoiceOverText is narration spoken alongside the rendering; empty
	// when no additional narration is wanted.
	VoiceOverText string `json:"voiceOverText,omitempty" jsonschema:"description=Text for voice-over narration; empty when no enhancement"`
}

var decisionToolParameters = sync.OnceValue(func() json.RawMessage {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema, err := json.Marshal(reflector.Reflect(&Decision{}))
	if err != nil {
		panic(fmt.Sprintf("failed to reflect decision schema: %v", err))
	}
	return schema
})

var decisionSchema = sync.OnceValues(func() (*tekurischema.Schema, error) {
	compiler := tekurischema.NewCompiler()
	if err := compiler.AddResource("decision.json", bytes.NewReader(decisionToolParameters())); err != nil {
		return nil, fmt.Errorf("failed to register decision schema: %w", err)
	}
	schema, err := compiler.Compile("decision.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile decision schema: %w", err)
	}
	return schema, nil
})

// decisionTool declares the synthetic finalize tool. It carries no Execute
// because the loop intercepts it instead of dispatching it.
func decisionTool() llms.Tool {
	return llms.Tool{
		Name: decisionToolName,
		Description: "Process and return the final enhancement decision for the assistant response. " +
			"Call this after using any tools, or directly, to provide the final decision.",
		Parameters: decisionToolParameters(),
	}
}

// decodeDecision validates raw finalize-tool arguments against the
// decision schema and decodes them.
func decodeDecision(arguments string) (Decision, error) {
	var payload any
	if err := json.Unmarshal([]byte(arguments), &payload); err != nil {
		return Decision{}, fmt.Errorf("failed to parse decision arguments: %w", err)
	}

	schema, err := decisionSchema()
	if err != nil {
		return Decision{}, err
	}
	if err := schema.Validate(payload); err != nil {
		return Decision{}, fmt.Errorf("decision arguments failed validation: %w", err)
	}

	var decision Decision
	if err := json.Unmarshal([]byte(arguments), &decision); err != nil {
		return Decision{}, fmt.Errorf("failed to decode decision: %w", err)
	}
	return decision, nil
}
