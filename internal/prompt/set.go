package prompt

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default instruction texts. The classification text is deliberately strict:
// only questions about the current weather at the caller's current location
// are in scope, everything else is out.
const (
	defaultClassification = `You are the gatekeeper for a weather assistant that can only report the current weather at the user's current location.
Decide whether the user's message asks about the CURRENT weather conditions at the user's CURRENT location.
Questions about other locations, about past or future weather (forecasts, "tomorrow", "next week"), or about anything that is not weather are NOT weather queries.
Respond with a JSON object with exactly one field: {"is_weather_query": true} or {"is_weather_query": false}.`

	defaultExtraction = `You select which current-weather variables are needed to answer a user's question.
The available variables are:
{{.Variables}}
Respond with a JSON object whose keys are the variable names that are needed to answer the question, each mapped to true.
Select only variables the question actually asks about. Omit every variable that is not needed; never set a key to false.`

	defaultBuilding = `You fill in the optional request-level fields of a current-weather request based on the user's question.
The available fields are:
{{.Fields}}
The weather variables already chosen for this request are: {{.Parameters}}.
Respond with a JSON object containing only the fields the question makes relevant (for example a unit preference the user stated). Omit every field the question says nothing about.
Do not choose coordinates; any latitude or longitude you produce is discarded.`

	defaultAnswering = `You answer a user's question about the current weather at their location using only the observations below.
{{.Observations}}
Answer only what the user asked, in one or two friendly sentences. Translate coded values into plain language. If something the user asked about is not present in the observations, say so politely instead of guessing.`
)

// Set holds the four stage templates. It is built once at startup and shared
// read-only across requests.
type Set struct {
	Classification *Template
	Extraction     *Template
	Building       *Template
	Answering      *Template
}

// Defaults returns the built-in template set.
func Defaults() *Set {
	return &Set{
		Classification: MustNew("classification", defaultClassification),
		Extraction:     MustNew("extraction", defaultExtraction),
		Building:       MustNew("building", defaultBuilding),
		Answering:      MustNew("answering", defaultAnswering),
	}
}

// fileFormat mirrors the prompts file layout: a map of stage name to an
// object with a "system" text.
type fileFormat map[string]struct {
	System string `json:"system"`
}

// Load returns the defaults overridden by the JSON file at path. An empty
// path returns the defaults unchanged.
func Load(path string) (*Set, error) {
	set := Defaults()
	if path == "" {
		return set, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	var overrides fileFormat
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse prompts file: %w", err)
	}

	for stage, entry := range overrides {
		if entry.System == "" {
			continue
		}
		t, err := New(stage, entry.System)
		if err != nil {
			return nil, err
		}
		switch stage {
		case "classification":
			set.Classification = t
		case "extraction":
			set.Extraction = t
		case "building":
			set.Building = t
		case "answering":
			set.Answering = t
		default:
			return nil, fmt.Errorf("unknown prompt stage %q", stage)
		}
	}

	return set, nil
}
