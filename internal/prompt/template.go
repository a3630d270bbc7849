// Package prompt renders the fixed instruction templates used by the
// pipeline stages. Slots are named and resolved only from trusted in-process
// data (catalog entries, chosen parameters, weather observations); raw caller
// text is never substituted into an instruction template.
package prompt

import (
	"fmt"
	"strings"
	"text/template"
)

// Template is an immutable instruction template with named slots.
type Template struct {
	name string
	tmpl *template.Template
}

// New parses text into a Template. Unknown slot references fail at render
// time rather than producing empty instruction text.
func New(name, text string) (*Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	return &Template{name: name, tmpl: t}, nil
}

// MustNew is New for the built-in defaults, which are known to parse.
func MustNew(name, text string) *Template {
	t, err := New(name, text)
	if err != nil {
		panic(err)
	}
	return t
}

// Render substitutes the slot values from data and returns the instruction
// text.
func (t *Template) Render(data any) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt template %s: %w", t.name, err)
	}
	return b.String(), nil
}

// ExtractionData fills the parameter-extraction template.
type ExtractionData struct {
	// Variables enumerates every catalog variable as "name: description"
	// lines, generated from the live catalog.
	Variables string
}

// BuildingData fills the request-building template.
type BuildingData struct {
	// Fields enumerates the request-level fields with their allowed values.
	Fields string
	// Parameters lists the weather variables chosen by the extraction stage.
	Parameters string
}

// AnsweringData fills the answer-generation template.
type AnsweringData struct {
	// Observations carries the fetched values together with the catalog
	// description for each variable present in the provider response.
	Observations string
}
