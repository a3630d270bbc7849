// Package agent orchestrates the query pipeline: classify the query, pick
// weather variables, build the provider request, fetch observations and
// generate the answer. Classification and caller location resolution run
// concurrently; everything after classification is sequential.
package agent

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"weather-agent/internal/catalog"
	"weather-agent/internal/prompt"
	"weather-agent/internal/services/geo"
	"weather-agent/internal/services/llm"
	"weather-agent/internal/services/weather"
)

// Outcome is the terminal state of a pipeline run.
type Outcome string

const (
	OutcomeAnswered   Outcome = "answered"
	OutcomeOutOfScope Outcome = "out_of_scope"
	OutcomeFailed     Outcome = "failed"
)

// Result is what a run produces. Answer is set only for OutcomeAnswered;
// Stage and Err only for OutcomeFailed.
type Result struct {
	Outcome Outcome
	Answer  string
	Stage   Stage
	Err     error
}

// defaultParameters is used when the extractor selects nothing; a weather
// question always warrants at least the temperature and the sky condition.
var defaultParameters = []string{"temperature_2m", "weather_code"}

// Clients bundles the per-stage completion clients. Stages may share one
// client or use differently tuned models.
type Clients struct {
	Classifier llm.Client
	Extractor  llm.Client
	Builder    llm.Client
	Answerer   llm.Client
}

// Pipeline wires the stages together. It is stateless between runs and safe
// for concurrent use.
type Pipeline struct {
	classifier *Classifier
	extractor  *Extractor
	builder    *Builder
	answerer   *Answerer
	resolver   geo.Resolver
	weather    weather.Client
}

// NewPipeline constructs the pipeline from its dependencies.
func NewPipeline(clients Clients, prompts *prompt.Set, cat *catalog.Catalog, resolver geo.Resolver, weatherClient weather.Client) (*Pipeline, error) {
	classifier, err := NewClassifier(clients.Classifier, prompts.Classification)
	if err != nil {
		return nil, err
	}
	extractor, err := NewExtractor(clients.Extractor, prompts.Extraction, cat)
	if err != nil {
		return nil, err
	}
	builder, err := NewBuilder(clients.Builder, prompts.Building, cat)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		classifier: classifier,
		extractor:  extractor,
		builder:    builder,
		answerer:   NewAnswerer(clients.Answerer, prompts.Answering, cat),
		resolver:   resolver,
		weather:    weatherClient,
	}, nil
}

// Run executes the pipeline for one query. It never panics across the call
// boundary and always returns a terminal Result.
func (p *Pipeline) Run(ctx context.Context, query, callerIP string) Result {
	var (
		inScope bool
		fix     geo.Fix
		fixErr  error
	)

	// Location resolution starts alongside classification so an in-scope
	// query does not pay for it serially. Its failure is not fatal here; it
	// only matters if the run reaches the build stage. A classification
	// failure cancels the group context and aborts the pending lookup.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inScope, err = p.classifier.Classify(gctx, query)
		return err
	})
	g.Go(func() error {
		fix, fixErr = p.resolver.Resolve(gctx, callerIP)
		return nil
	})
	if err := g.Wait(); err != nil {
		return p.fail(StageClassify, ErrClassification, err)
	}

	if !inScope {
		log.Info().Msg("query classified out of scope")
		return Result{Outcome: OutcomeOutOfScope}
	}

	params, err := p.extractor.Extract(ctx, query)
	if err != nil {
		return p.fail(StageExtract, ErrSchemaValidation, err)
	}
	if len(params) == 0 {
		params = append([]string(nil), defaultParameters...)
	}
	log.Debug().Strs("parameters", params).Msg("weather variables selected")

	if fixErr != nil {
		return p.fail(StageBuildRequest, ErrLocationResolution, fixErr)
	}
	req, err := p.builder.Build(ctx, query, params, fix)
	if err != nil {
		return p.fail(StageBuildRequest, ErrSchemaValidation, err)
	}

	obs, err := p.weather.Fetch(ctx, req)
	if err != nil {
		return p.fail(StageFetchWeather, ErrWeatherProvider, err)
	}

	answer, err := p.answerer.Answer(ctx, query, obs)
	if err != nil {
		// The data is already in hand; a phrasing failure degrades to the
		// fixed fallback instead of failing the run.
		log.Warn().Err(err).Msg("answer generation failed, using fallback")
		return Result{Outcome: OutcomeAnswered, Answer: FallbackAnswer}
	}

	return Result{Outcome: OutcomeAnswered, Answer: answer}
}

func (p *Pipeline) fail(stage Stage, kind, cause error) Result {
	err := newStageError(stage, kind, cause)
	log.Error().Err(err).Str("stage", string(stage)).Msg("pipeline run failed")
	return Result{Outcome: OutcomeFailed, Stage: stage, Err: err}
}
