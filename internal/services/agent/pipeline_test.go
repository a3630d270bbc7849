package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-agent/internal/catalog"
	"weather-agent/internal/prompt"
	"weather-agent/internal/services/geo"
	"weather-agent/internal/services/weather"
)

type fakeResolver struct {
	fix   geo.Fix
	err   error
	calls int
}

func (f *fakeResolver) Resolve(ctx context.Context, callerIP string) (geo.Fix, error) {
	f.calls++
	if f.err != nil {
		return geo.Fix{Status: geo.StatusUnavailable}, f.err
	}
	return f.fix, nil
}

type fakeWeather struct {
	obs   *weather.Observation
	err   error
	calls int
	last  weather.Request
}

func (f *fakeWeather) Fetch(ctx context.Context, req weather.Request) (*weather.Observation, error) {
	f.calls++
	f.last = req
	return f.obs, f.err
}

type pipelineFixture struct {
	classifier *fakeLLM
	extractor  *fakeLLM
	builder    *fakeLLM
	answerer   *fakeLLM
	resolver   *fakeResolver
	weather    *fakeWeather
	pipeline   *Pipeline
}

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	f := &pipelineFixture{
		classifier: &fakeLLM{jsonResponse: `{"is_weather_query": true}`},
		extractor:  &fakeLLM{jsonResponse: `{"temperature_2m": true, "weather_code": true}`},
		builder:    &fakeLLM{jsonResponse: `{}`},
		answerer:   &fakeLLM{textResponse: "It's 22 degrees and overcast right now."},
		resolver:   &fakeResolver{fix: geo.Fix{Latitude: 52.52, Longitude: 13.405, Status: geo.StatusResolved}},
		weather: &fakeWeather{obs: &weather.Observation{
			Latitude:  52.52,
			Longitude: 13.42,
			Timezone:  "GMT",
			CurrentUnits: map[string]string{
				"temperature_2m": "°C",
				"weather_code":   "wmo code",
			},
			Current: map[string]any{
				"time":           "2026-08-25T12:00",
				"temperature_2m": 22.0,
				"weather_code":   3.0,
			},
		}},
	}

	pipeline, err := NewPipeline(Clients{
		Classifier: f.classifier,
		Extractor:  f.extractor,
		Builder:    f.builder,
		Answerer:   f.answerer,
	}, prompt.Defaults(), catalog.New(), f.resolver, f.weather)
	require.NoError(t, err)

	f.pipeline = pipeline
	return f
}

func TestPipelineAnswersWeatherQuery(t *testing.T) {
	f := newFixture(t)

	result := f.pipeline.Run(context.Background(), "What's the weather like right now?", "203.0.113.9:1234")

	require.Equal(t, OutcomeAnswered, result.Outcome)
	assert.Equal(t, "It's 22 degrees and overcast right now.", result.Answer)
	assert.NoError(t, result.Err)

	require.Equal(t, 1, f.weather.calls)
	assert.Equal(t, []string{"temperature_2m", "weather_code"}, f.weather.last.Current)
	assert.InDelta(t, 52.52, f.weather.last.Latitude, 0.001)
	assert.InDelta(t, 13.405, f.weather.last.Longitude, 0.001)

	// The answering instructions ground the model: values, units and the
	// decoded condition code are all present.
	assert.Contains(t, f.answerer.lastSystem, "temperature_2m: 22 °C")
	assert.Contains(t, f.answerer.lastSystem, "overcast")
	assert.Equal(t, "What's the weather like right now?", f.answerer.lastUser)
	assert.NotContains(t, f.answerer.lastSystem, "relative_humidity_2m", "unrequested variables stay out of the prompt")
}

func TestPipelineOutOfScope(t *testing.T) {
	f := newFixture(t)
	f.classifier.jsonResponse = `{"is_weather_query": false}`

	result := f.pipeline.Run(context.Background(), "What will the weather be tomorrow in Paris?", "203.0.113.9")

	assert.Equal(t, OutcomeOutOfScope, result.Outcome)
	assert.Empty(t, result.Answer)
	assert.NoError(t, result.Err)

	assert.Zero(t, f.extractor.jsonCalls, "no extraction for out-of-scope queries")
	assert.Zero(t, f.builder.jsonCalls)
	assert.Zero(t, f.weather.calls)
	assert.Zero(t, f.answerer.textCalls)
}

func TestPipelineClassificationFailure(t *testing.T) {
	f := newFixture(t)
	f.classifier.jsonErr = errors.New("model unavailable")

	result := f.pipeline.Run(context.Background(), "weather?", "203.0.113.9")

	require.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, StageClassify, result.Stage)
	assert.ErrorIs(t, result.Err, ErrClassification)
	assert.Zero(t, f.weather.calls)
}

func TestPipelineDefaultsEmptySelection(t *testing.T) {
	f := newFixture(t)
	f.extractor.jsonResponse = `{}`

	result := f.pipeline.Run(context.Background(), "how's the weather?", "203.0.113.9")

	require.Equal(t, OutcomeAnswered, result.Outcome)
	assert.Equal(t, []string{"temperature_2m", "weather_code"}, f.weather.last.Current)
}

func TestPipelineLocationFailureSurfacesAtBuild(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = errors.New("geolocation service down")

	result := f.pipeline.Run(context.Background(), "weather?", "203.0.113.9")

	require.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, StageBuildRequest, result.Stage)
	assert.ErrorIs(t, result.Err, ErrLocationResolution)
	assert.Zero(t, f.weather.calls)
}

func TestPipelineWeatherProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.weather.obs = nil
	f.weather.err = errors.New("status 502")

	result := f.pipeline.Run(context.Background(), "weather?", "203.0.113.9")

	require.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, StageFetchWeather, result.Stage)
	assert.ErrorIs(t, result.Err, ErrWeatherProvider)
	assert.Zero(t, f.answerer.textCalls)
}

func TestPipelineGenerationFailureDegradesToFallback(t *testing.T) {
	f := newFixture(t)
	f.answerer.textErr = errors.New("model unavailable")

	result := f.pipeline.Run(context.Background(), "weather?", "203.0.113.9")

	require.Equal(t, OutcomeAnswered, result.Outcome)
	assert.Equal(t, FallbackAnswer, result.Answer)
	assert.Equal(t, 1, f.weather.calls, "data was fetched before generation failed")
}

func TestPipelineEmptyAnswerDegradesToFallback(t *testing.T) {
	f := newFixture(t)
	f.answerer.textResponse = "   "

	result := f.pipeline.Run(context.Background(), "weather?", "203.0.113.9")

	require.Equal(t, OutcomeAnswered, result.Outcome)
	assert.Equal(t, FallbackAnswer, result.Answer)
}

func TestPipelineExtractionSchemaFailure(t *testing.T) {
	f := newFixture(t)
	f.extractor.jsonResponse = `{"made_up_variable": true}`

	result := f.pipeline.Run(context.Background(), "weather?", "203.0.113.9")

	require.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, StageExtract, result.Stage)
	assert.ErrorIs(t, result.Err, ErrSchemaValidation)
	assert.Zero(t, f.weather.calls)
}

func TestPipelineCanceledRequestAborts(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := f.pipeline.Run(ctx, "weather?", "203.0.113.9")

	require.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, StageClassify, result.Stage)
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Zero(t, f.weather.calls, "no outbound fetch after cancellation")
	assert.Zero(t, f.answerer.textCalls)
}

func TestPipelineRunIsRepeatable(t *testing.T) {
	f := newFixture(t)

	first := f.pipeline.Run(context.Background(), "weather?", "203.0.113.9")
	second := f.pipeline.Run(context.Background(), "weather?", "203.0.113.9")

	assert.Equal(t, first, second)
	assert.Equal(t, 2, f.weather.calls)
}
