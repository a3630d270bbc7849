package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-agent/internal/services/agent"
)

type stubRunner struct {
	result    agent.Result
	lastQuery string
	lastIP    string
	calls     int
}

func (s *stubRunner) Run(ctx context.Context, query, callerIP string) agent.Result {
	s.calls++
	s.lastQuery = query
	s.lastIP = callerIP
	return s.result
}

func newTestServer(result agent.Result) (*stubRunner, *httptest.Server) {
	runner := &stubRunner{result: result}
	router := NewRouter()
	router.RegisterAgentRoutes(NewAgentHandler(runner))
	router.RegisterHealthRoutes()
	return runner, httptest.NewServer(router)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestQueryPostAnswered(t *testing.T) {
	runner, srv := newTestServer(agent.Result{Outcome: agent.OutcomeAnswered, Answer: "Sunny, 25 degrees."})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/agent/query", "application/json", strings.NewReader(`{"query": "how's the weather?"}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Sunny, 25 degrees.", body["answer"])
	assert.Equal(t, "how's the weather?", runner.lastQuery)
	assert.NotEmpty(t, runner.lastIP)
}

func TestQueryGetParameter(t *testing.T) {
	runner, srv := newTestServer(agent.Result{Outcome: agent.OutcomeAnswered, Answer: "Cloudy."})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/agent/query?query=is+it+cloudy")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "is it cloudy", runner.lastQuery)
}

func TestQueryOutOfScope(t *testing.T) {
	_, srv := newTestServer(agent.Result{Outcome: agent.OutcomeOutOfScope})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/agent/query", "application/json", strings.NewReader(`{"query": "tell me a joke"}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeBody(t, resp)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "classify", errBody["stage"])
	assert.Equal(t, "client", errBody["fault"])
}

func TestQueryFailureMapping(t *testing.T) {
	cases := []struct {
		name       string
		result     agent.Result
		wantStatus int
		wantFault  string
		wantStage  string
	}{
		{
			name: "schema validation",
			result: agent.Result{
				Outcome: agent.OutcomeFailed,
				Stage:   agent.StageExtract,
				Err:     &agent.StageError{Stage: agent.StageExtract, Kind: agent.ErrSchemaValidation},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantFault:  "client",
			wantStage:  "extract",
		},
		{
			name: "location resolution",
			result: agent.Result{
				Outcome: agent.OutcomeFailed,
				Stage:   agent.StageBuildRequest,
				Err:     &agent.StageError{Stage: agent.StageBuildRequest, Kind: agent.ErrLocationResolution},
			},
			wantStatus: http.StatusBadGateway,
			wantFault:  "server",
			wantStage:  "build_request",
		},
		{
			name: "weather provider",
			result: agent.Result{
				Outcome: agent.OutcomeFailed,
				Stage:   agent.StageFetchWeather,
				Err:     &agent.StageError{Stage: agent.StageFetchWeather, Kind: agent.ErrWeatherProvider},
			},
			wantStatus: http.StatusBadGateway,
			wantFault:  "server",
			wantStage:  "fetch_weather",
		},
		{
			name: "classification",
			result: agent.Result{
				Outcome: agent.OutcomeFailed,
				Stage:   agent.StageClassify,
				Err:     &agent.StageError{Stage: agent.StageClassify, Kind: agent.ErrClassification},
			},
			wantStatus: http.StatusBadGateway,
			wantFault:  "server",
			wantStage:  "classify",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, srv := newTestServer(tc.result)
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/api/v1/agent/query", "application/json", strings.NewReader(`{"query": "weather?"}`))
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			body := decodeBody(t, resp)
			errBody := body["error"].(map[string]any)
			assert.Equal(t, tc.wantFault, errBody["fault"])
			assert.Equal(t, tc.wantStage, errBody["stage"])
		})
	}
}

func TestQueryValidation(t *testing.T) {
	runner, srv := newTestServer(agent.Result{Outcome: agent.OutcomeAnswered, Answer: "x"})
	defer srv.Close()

	cases := []struct {
		name string
		body string
	}{
		{"missing query", `{}`},
		{"empty query", `{"query": ""}`},
		{"oversized query", `{"query": "` + strings.Repeat("w", 501) + `"}`},
		{"malformed body", `{"query":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/agent/query", "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	assert.Zero(t, runner.calls, "invalid requests never reach the pipeline")
}

func TestHealthEndpoints(t *testing.T) {
	_, srv := newTestServer(agent.Result{})
	defer srv.Close()

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
