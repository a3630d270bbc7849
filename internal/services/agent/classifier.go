package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"weather-agent/internal/prompt"
	"weather-agent/internal/services/llm"
)

// classificationSchema is the one structured output the provider runs in
// strict mode: a single mandatory boolean.
var classificationSchema = llm.MustSchema("weather_query_classification", llm.EnsureStrict(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"is_weather_query": map[string]any{
			"type":        "boolean",
			"description": "Whether the message asks about current weather conditions at the user's current location",
		},
	},
}), true)

// Classifier decides whether a query is in scope for the pipeline.
type Classifier struct {
	client llm.Client
	system string
}

// NewClassifier builds the classifier. The classification template has no
// slots, so it is rendered once here.
func NewClassifier(client llm.Client, tmpl *prompt.Template) (*Classifier, error) {
	system, err := tmpl.Render(nil)
	if err != nil {
		return nil, err
	}
	return &Classifier{client: client, system: system}, nil
}

// Classify returns true when the query asks about current weather at the
// caller's location. The raw query is passed as the user message only; it is
// never substituted into the instruction text.
func (c *Classifier) Classify(ctx context.Context, query string) (bool, error) {
	raw, err := c.client.CompleteJSON(ctx, c.system, query, classificationSchema)
	if err != nil {
		return false, err
	}

	var decision struct {
		IsWeatherQuery bool `json:"is_weather_query"`
	}
	if err := json.Unmarshal(raw, &decision); err != nil {
		return false, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	return decision.IsWeatherQuery, nil
}
