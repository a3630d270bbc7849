package agent

import (
	"errors"
	"fmt"
)

// Stage identifies the pipeline stage an error originated in.
type Stage string

const (
	StageClassify       Stage = "classify"
	StageExtract        Stage = "extract"
	StageBuildRequest   Stage = "build_request"
	StageFetchWeather   Stage = "fetch_weather"
	StageGenerateAnswer Stage = "generate_answer"
)

// Error kinds. Handlers match on these to decide whether the caller or a
// downstream dependency is at fault.
var (
	ErrClassification     = errors.New("query classification failed")
	ErrSchemaValidation   = errors.New("model output violates the expected schema")
	ErrLocationResolution = errors.New("caller location could not be resolved")
	ErrWeatherProvider    = errors.New("weather provider request failed")
	ErrGeneration         = errors.New("answer generation failed")
)

// StageError is a pipeline failure tagged with the stage it happened in and
// the kind of failure.
type StageError struct {
	Stage Stage
	Kind  error
	Cause error
}

func (e *StageError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Cause)
}

func (e *StageError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// newStageError tags cause with stage and kind. When cause already carries
// one of the error kinds, that kind wins over the stage default.
func newStageError(stage Stage, kind, cause error) *StageError {
	for _, known := range []error{ErrClassification, ErrSchemaValidation, ErrLocationResolution, ErrWeatherProvider, ErrGeneration} {
		if errors.Is(cause, known) {
			kind = known
			break
		}
	}
	return &StageError{Stage: stage, Kind: kind, Cause: cause}
}
