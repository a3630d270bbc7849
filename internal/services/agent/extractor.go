package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"weather-agent/internal/catalog"
	"weather-agent/internal/prompt"
	"weather-agent/internal/services/llm"
)

// Extractor picks the subset of catalog variables a query needs.
type Extractor struct {
	client  llm.Client
	catalog *catalog.Catalog
	system  string
	schema  llm.Schema
}

// NewExtractor builds the extractor. The variable listing and the response
// schema are derived from the catalog once; the schema admits only catalog
// variable names, each as an optional boolean, so omission means "not
// needed".
func NewExtractor(client llm.Client, tmpl *prompt.Template, cat *catalog.Catalog) (*Extractor, error) {
	system, err := tmpl.Render(prompt.ExtractionData{Variables: formatVariables(cat)})
	if err != nil {
		return nil, err
	}

	props := make(map[string]any, cat.Len())
	for _, v := range cat.Variables() {
		props[v.Name] = map[string]any{
			"type":        "boolean",
			"description": v.Description,
		}
	}
	schema, err := llm.NewSchema("weather_parameters", map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             []string{},
		"additionalProperties": false,
	}, false)
	if err != nil {
		return nil, err
	}

	return &Extractor{client: client, catalog: cat, system: system, schema: schema}, nil
}

// Extract returns the requested variable names in sorted order. Keys set to
// false are dropped; any key outside the catalog rejects the whole response.
// An empty result is valid and left for the caller to default.
func (e *Extractor) Extract(ctx context.Context, query string) ([]string, error) {
	raw, err := e.client.CompleteJSON(ctx, e.system, query, e.schema)
	if err != nil {
		return nil, err
	}

	var flags map[string]bool
	if err := json.Unmarshal(raw, &flags); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	names := make([]string, 0, len(flags))
	for name, wanted := range flags {
		if !e.catalog.Has(name) {
			return nil, fmt.Errorf("%w: unknown weather variable %q", ErrSchemaValidation, name)
		}
		if wanted {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func formatVariables(cat *catalog.Catalog) string {
	var b strings.Builder
	for _, v := range cat.Variables() {
		fmt.Fprintf(&b, "- %s: %s\n", v.Name, v.Description)
	}
	return b.String()
}
