package llm

import (
	"context"
	"encoding/json"
)

// Client is the narrow completion-service boundary the pipeline stages
// depend on. Structured calls declare an explicit output schema; the
// implementation validates the model output against it before returning, so
// no out-of-schema field ever crosses this boundary.
type Client interface {
	// CompleteText issues a free-form completion and returns the text.
	CompleteText(ctx context.Context, system, user string) (string, error)

	// CompleteJSON issues a structured completion constrained by schema and
	// returns the validated raw JSON.
	CompleteJSON(ctx context.Context, system, user string, schema Schema) (json.RawMessage, error)
}
