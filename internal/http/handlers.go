package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"weather-agent/internal/services/agent"
)

// Runner runs one query through the pipeline.
type Runner interface {
	Run(ctx context.Context, query, callerIP string) agent.Result
}

// AgentHandler handles weather query requests.
type AgentHandler struct {
	runner   Runner
	validate *validator.Validate
}

// NewAgentHandler creates a new AgentHandler.
func NewAgentHandler(runner Runner) *AgentHandler {
	return &AgentHandler{
		runner:   runner,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the agent routes.
func (h *AgentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/agent", func(r chi.Router) {
		r.Post("/query", h.Query)
		r.Get("/query", h.Query)
	})
}

type queryRequest struct {
	Query string `json:"query" validate:"required,min=1,max=500"`
}

type queryResponse struct {
	Answer string `json:"answer"`
}

type errorDetail struct {
	Stage  string `json:"stage,omitempty"`
	Reason string `json:"reason"`
	Fault  string `json:"fault"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

// Query accepts a natural-language question and returns the generated
// answer. GET passes the question as a query parameter, POST as a JSON body.
func (h *AgentHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest

	if r.Method == http.MethodGet {
		req.Query = r.URL.Query().Get("query")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errorDetail{Reason: "invalid request body", Fault: "client"})
			return
		}
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, errorDetail{Reason: "query is required and must be at most 500 characters", Fault: "client"})
		return
	}

	result := h.runner.Run(r.Context(), req.Query, r.RemoteAddr)

	switch result.Outcome {
	case agent.OutcomeAnswered:
		writeJSON(w, http.StatusOK, queryResponse{Answer: result.Answer})

	case agent.OutcomeOutOfScope:
		writeError(w, http.StatusUnprocessableEntity, errorDetail{
			Stage:  string(agent.StageClassify),
			Reason: "I can only answer questions about the current weather at your location.",
			Fault:  "client",
		})

	default:
		status, detail := mapFailure(result)
		writeError(w, status, detail)
	}
}

// mapFailure translates a failed run into a response status and envelope.
// Schema violations mean the request could not be understood well enough to
// act on; everything else is a dependency fault.
func mapFailure(result agent.Result) (int, errorDetail) {
	detail := errorDetail{Stage: string(result.Stage)}

	switch {
	case errors.Is(result.Err, agent.ErrSchemaValidation):
		detail.Reason = "the request could not be interpreted into a valid weather lookup"
		detail.Fault = "client"
		return http.StatusUnprocessableEntity, detail

	case errors.Is(result.Err, agent.ErrLocationResolution):
		detail.Reason = "your location could not be determined"
		detail.Fault = "server"
		return http.StatusBadGateway, detail

	case errors.Is(result.Err, agent.ErrWeatherProvider):
		detail.Reason = "the weather service is currently unavailable"
		detail.Fault = "server"
		return http.StatusBadGateway, detail

	case errors.Is(result.Err, agent.ErrClassification):
		detail.Reason = "the request could not be classified"
		detail.Fault = "server"
		return http.StatusBadGateway, detail

	default:
		detail.Reason = "the request could not be processed"
		detail.Fault = "server"
		return http.StatusInternalServerError, detail
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, detail errorDetail) {
	writeJSON(w, status, errorResponse{Error: detail})
}
