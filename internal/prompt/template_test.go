package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRender(t *testing.T) {
	tmpl, err := New("test", "variables:\n{{.Variables}}")
	require.NoError(t, err)

	out, err := tmpl.Render(ExtractionData{Variables: "- temperature_2m: air temperature"})
	require.NoError(t, err)
	assert.Contains(t, out, "temperature_2m")
}

func TestTemplateUnknownSlotFailsAtRender(t *testing.T) {
	tmpl, err := New("test", "{{.DoesNotExist}}")
	require.NoError(t, err)

	_, err = tmpl.Render(ExtractionData{Variables: "x"})
	assert.Error(t, err)
}

func TestDefaultsRender(t *testing.T) {
	set := Defaults()

	out, err := set.Classification.Render(nil)
	require.NoError(t, err)
	assert.Contains(t, out, "is_weather_query")

	out, err = set.Extraction.Render(ExtractionData{Variables: "- rain: rain"})
	require.NoError(t, err)
	assert.Contains(t, out, "- rain: rain")

	out, err = set.Building.Render(BuildingData{Fields: "- timezone", Parameters: "rain"})
	require.NoError(t, err)
	assert.Contains(t, out, "- timezone")
	assert.Contains(t, out, "rain")

	out, err = set.Answering.Render(AnsweringData{Observations: "temperature_2m: 21 °C"})
	require.NoError(t, err)
	assert.Contains(t, out, "21 °C")
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	content := `{"classification": {"system": "custom classifier instructions"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	set, err := Load(path)
	require.NoError(t, err)

	out, err := set.Classification.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "custom classifier instructions", out)

	// Untouched stages keep the defaults.
	out, err = set.Answering.Render(AnsweringData{Observations: "x"})
	require.NoError(t, err)
	assert.Contains(t, out, "observations")
}

func TestLoadRejectsUnknownStage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"summary": {"system": "x"}}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary")
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	set, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, set.Classification)
	require.NotNil(t, set.Extraction)
	require.NotNil(t, set.Building)
	require.NotNil(t, set.Answering)
}
