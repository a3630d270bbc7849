package agent

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"weather-agent/internal/catalog"
	"weather-agent/internal/prompt"
	"weather-agent/internal/services/llm"
	"weather-agent/internal/services/weather"
)

// FallbackAnswer is returned when answer generation fails after the weather
// data was already fetched. The pipeline still completes in that case.
const FallbackAnswer = "I'm sorry, I wasn't able to phrase an answer just now. Please ask about the weather again in a moment."

// Answerer turns fetched observations into a natural-language reply.
type Answerer struct {
	client  llm.Client
	tmpl    *prompt.Template
	catalog *catalog.Catalog
}

func NewAnswerer(client llm.Client, tmpl *prompt.Template, cat *catalog.Catalog) *Answerer {
	return &Answerer{client: client, tmpl: tmpl, catalog: cat}
}

// Answer renders the observations into the instruction text and asks the
// model for a free-form reply to the original query.
func (a *Answerer) Answer(ctx context.Context, query string, obs *weather.Observation) (string, error) {
	system, err := a.tmpl.Render(prompt.AnsweringData{Observations: a.formatObservations(obs)})
	if err != nil {
		return "", err
	}

	answer, err := a.client.CompleteText(ctx, system, query)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("model returned an empty answer")
	}
	return answer, nil
}

// formatObservations lists every fetched value with its unit and catalog
// description. Coded values get a plain-language reading so the model does
// not have to know the WMO table.
func (a *Answerer) formatObservations(obs *weather.Observation) string {
	names := make([]string, 0, len(obs.Current))
	for name := range obs.Current {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Location: latitude %.4f, longitude %.4f (timezone %s)\n", obs.Latitude, obs.Longitude, obs.Timezone)
	for _, name := range names {
		value := obs.Current[name]
		fmt.Fprintf(&b, "- %s: %s", name, formatValue(value))
		if unit := obs.CurrentUnits[name]; unit != "" {
			fmt.Fprintf(&b, " %s", unit)
		}
		if name == "weather_code" {
			if code, ok := numericValue(value); ok {
				fmt.Fprintf(&b, " (%s)", catalog.DescribeWeatherCode(int(code)))
			}
		} else if desc, ok := a.catalog.Describe(name); ok {
			fmt.Fprintf(&b, " (%s)", desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatValue(v any) string {
	if f, ok := numericValue(v); ok {
		if f == math.Trunc(f) {
			return fmt.Sprintf("%d", int64(f))
		}
		return fmt.Sprintf("%g", f)
	}
	return fmt.Sprintf("%v", v)
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
