package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fittelligence/coach"
	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/metrics"
	"github.com/hupe1980/fittelligence/model"
)

type offlineSearch struct{}

func (offlineSearch) Name() string               { return "web_search" }
func (offlineSearch) Description() string        { return "offline search" }
func (offlineSearch) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (offlineSearch) Call(_ *core.ToolContext, _ map[string]any) (any, error) {
	return "no results", nil
}

func newTestServer(t *testing.T, llm model.Model) (*Server, *metrics.Recorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := metrics.NewRecorder()
	team := coach.NewTeam(llm, func(o *coach.TeamOptions) { o.Search = offlineSearch{} })
	pipeline := coach.NewPipeline(team, func(o *coach.PipelineOptions) {
		o.Out = io.Discard
		o.Metrics = rec
	})

	return New(pipeline, func(o *Options) { o.Metrics = rec }), rec
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, model.NewMockModel("mock", "mock"))

	w := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListAgents(t *testing.T) {
	s, _ := newTestServer(t, model.NewMockModel("mock", "mock"))

	w := do(t, s.Handler(), http.MethodGet, "/agents", "")
	require.Equal(t, http.StatusOK, w.Code)

	var agents []agentInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agents))
	require.Len(t, agents, 5)

	assert.Equal(t, coach.Reception, agents[0].Name)
	assert.Equal(t, []string{"preload_memory", "web_search"}, agents[0].Tools)
	assert.Equal(t, coach.HeadCoach, agents[4].Name)
	assert.Len(t, agents[4].Tools, 6)
}

func TestRunAgent(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.AddResponse("Is squatting safe with knee pain?", "With a reduced range of motion, yes.")
	s, _ := newTestServer(t, llm)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		check    func(t *testing.T, body []byte)
	}{
		{
			name:     "ok",
			path:     "/agents/pt_agent/run",
			body:     `{"user_id":"demo_client","session_id":"s1","message":"Is squatting safe with knee pain?"}`,
			wantCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp runResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, runResponse{
					Agent:     "pt_agent",
					UserID:    "demo_client",
					SessionID: "s1",
					Response:  "With a reduced range of motion, yes.",
				}, resp)
			},
		},
		{
			name:     "unknown agent",
			path:     "/agents/yoga_agent/run",
			body:     `{"user_id":"u","session_id":"s","message":"hi"}`,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "malformed body",
			path:     "/agents/pt_agent/run",
			body:     `{"user_id":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing message",
			path:     "/agents/pt_agent/run",
			body:     `{"user_id":"u","session_id":"s"}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s.Handler(), http.MethodPost, tt.path, tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.check != nil {
				tt.check(t, w.Body.Bytes())
			}
		})
	}
}

func TestCreateProgram(t *testing.T) {
	s, _ := newTestServer(t, model.NewMockModel("mock", "mock"))

	body, err := json.Marshal(coach.ClientProfile{Name: "Lee Park", FitnessGoals: "3", Equipment: "2"})
	require.NoError(t, err)

	w := do(t, s.Handler(), http.MethodPost, "/programs", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var prog coach.Program
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&prog))

	assert.Equal(t, "lee_park", prog.UserID)
	require.Len(t, prog.Steps, 5)
	assert.Contains(t, prog.Steps[0].Message, "- Fitness Goals: Improve endurance")
	assert.Contains(t, prog.Steps[2].Message, "- Equipment: Home gym (weights, bench, etc.)")
	for _, step := range prog.Steps {
		assert.NotEmpty(t, step.Response, step.Agent)
	}

	w = do(t, s.Handler(), http.MethodPost, "/programs", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProgram_DistinctSessions(t *testing.T) {
	s, _ := newTestServer(t, model.NewMockModel("mock", "mock"))

	ids := make(map[string]bool)
	for i := 0; i < 2; i++ {
		w := do(t, s.Handler(), http.MethodPost, "/programs", `{"name":"Lee Park"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var prog coach.Program
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prog))
		assert.True(t, strings.HasPrefix(prog.SessionID, "session_"), prog.SessionID)
		ids[prog.SessionID] = true
	}

	assert.Len(t, ids, 2)
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t, model.NewMockModel("mock", "mock"))

	w := do(t, s.Handler(), http.MethodPost, "/programs", `{"name":"Metric Client"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fittelligence_program_steps_total")
}
