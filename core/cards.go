package enhancement

import (
	"encoding/json"
	"fmt"
)

type component struct {
	Component string         `json:"component"`
	Props     map[string]any `json:"props"`
}

// simpleCardPayload wraps text in the minimal static card shape clients
// know how to render. The double-nested component structure is part of the
// client contract; flattening it produces empty bubbles.
func simpleCardPayload(text string) string {
	card, _ := json.Marshal(struct {
		Component component `json:"component"`
	}{
		Component: component{
			Component: "Card",
			Props: map[string]any{
				"children": []component{{
					Component: "TextContent",
					Props:     map[string]any{"textMarkdown": text},
				}},
			},
		},
	})
	return fmt.Sprintf("<content>%s</content>", card)
}

// errorCalloutPayload wraps an error notice in a warning callout.
func errorCalloutPayload(title, description string) string {
	callout, _ := json.Marshal(component{
		Component: "Callout",
		Props: map[string]any{
			"variant":     "warning",
			"title":       title,
			"description": description,
		},
	})
	return fmt.Sprintf("<content>%s</content>", callout)
}
