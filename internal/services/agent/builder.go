package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"weather-agent/internal/catalog"
	"weather-agent/internal/prompt"
	"weather-agent/internal/services/geo"
	"weather-agent/internal/services/llm"
	"weather-agent/internal/services/weather"
)

// Builder assembles the provider request from the chosen variables, the
// model-filled optional fields and the resolved caller location.
type Builder struct {
	client  llm.Client
	tmpl    *prompt.Template
	catalog *catalog.Catalog
	fields  string
	schema  llm.Schema
}

// NewBuilder builds the request builder. The schema admits the catalog's
// request-level fields plus latitude and longitude; the coordinates are
// accepted so a model that insists on producing them does not fail
// validation, then discarded.
func NewBuilder(client llm.Client, tmpl *prompt.Template, cat *catalog.Catalog) (*Builder, error) {
	props := map[string]any{
		"latitude":  map[string]any{"type": "number"},
		"longitude": map[string]any{"type": "number"},
	}
	for _, f := range cat.Fields() {
		def := map[string]any{
			"type":        f.Type,
			"description": f.Description,
		}
		if len(f.Enum) > 0 {
			def["enum"] = f.Enum
		}
		props[f.Name] = def
	}
	schema, err := llm.NewSchema("weather_request", map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             []string{},
		"additionalProperties": false,
	}, false)
	if err != nil {
		return nil, err
	}

	return &Builder{
		client:  client,
		tmpl:    tmpl,
		catalog: cat,
		fields:  formatFields(cat),
		schema:  schema,
	}, nil
}

// requestDraft is the model's view of the request. Coordinates are decoded
// only to detect that the model produced them.
type requestDraft struct {
	Elevation         *float64 `json:"elevation"`
	TemperatureUnit   string   `json:"temperature_unit"`
	WindSpeedUnit     string   `json:"wind_speed_unit"`
	PrecipitationUnit string   `json:"precipitation_unit"`
	Timeformat        string   `json:"timeformat"`
	Timezone          string   `json:"timezone"`
	CellSelection     string   `json:"cell_selection"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
}

// Build returns the final provider request. The resolved fix is
// authoritative for coordinates regardless of what the model produced.
func (b *Builder) Build(ctx context.Context, query string, params []string, fix geo.Fix) (weather.Request, error) {
	if fix.Status != geo.StatusResolved {
		return weather.Request{}, ErrLocationResolution
	}

	system, err := b.tmpl.Render(prompt.BuildingData{
		Fields:     b.fields,
		Parameters: strings.Join(params, ", "),
	})
	if err != nil {
		return weather.Request{}, err
	}

	raw, err := b.client.CompleteJSON(ctx, system, query, b.schema)
	if err != nil {
		return weather.Request{}, err
	}

	var draft requestDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return weather.Request{}, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	if err := b.checkEnums(draft); err != nil {
		return weather.Request{}, err
	}

	if draft.Latitude != nil || draft.Longitude != nil {
		log.Debug().Msg("discarding model-produced coordinates in favor of resolved location")
	}

	return weather.Request{
		Latitude:          fix.Latitude,
		Longitude:         fix.Longitude,
		Current:           params,
		Elevation:         draft.Elevation,
		TemperatureUnit:   draft.TemperatureUnit,
		WindSpeedUnit:     draft.WindSpeedUnit,
		PrecipitationUnit: draft.PrecipitationUnit,
		Timeformat:        draft.Timeformat,
		Timezone:          draft.Timezone,
		CellSelection:     draft.CellSelection,
	}, nil
}

// checkEnums re-validates enum fields against the catalog. The response
// schema already constrains them for the real model client; this keeps the
// invariant when a different Client implementation is wired in.
func (b *Builder) checkEnums(draft requestDraft) error {
	for name, value := range map[string]string{
		"temperature_unit":   draft.TemperatureUnit,
		"wind_speed_unit":    draft.WindSpeedUnit,
		"precipitation_unit": draft.PrecipitationUnit,
		"timeformat":         draft.Timeformat,
		"cell_selection":     draft.CellSelection,
	} {
		if value == "" {
			continue
		}
		field, ok := b.catalog.FieldByName(name)
		if !ok || len(field.Enum) == 0 {
			continue
		}
		valid := false
		for _, allowed := range field.Enum {
			if value == allowed {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("%w: field %s has invalid value %q", ErrSchemaValidation, name, value)
		}
	}
	return nil
}

func formatFields(cat *catalog.Catalog) string {
	var b strings.Builder
	for _, f := range cat.Fields() {
		fmt.Fprintf(&b, "- %s (%s): %s", f.Name, f.Type, f.Description)
		if len(f.Enum) > 0 {
			fmt.Fprintf(&b, " [one of: %s]", strings.Join(f.Enum, ", "))
		}
		if f.Default != "" {
			fmt.Fprintf(&b, " (default %s)", f.Default)
		}
		b.WriteString("\n")
	}
	return b.String()
}
