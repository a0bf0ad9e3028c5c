package coach

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fittelligence/config"
	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/metrics"
	"github.com/hupe1980/fittelligence/model"
	"github.com/hupe1980/fittelligence/session"
)

type offlineSearch struct{}

func (offlineSearch) Name() string               { return "web_search" }
func (offlineSearch) Description() string        { return "offline search" }
func (offlineSearch) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (offlineSearch) Call(_ *core.ToolContext, _ map[string]any) (any, error) {
	return "no results", nil
}

func fixedClock() time.Time { return time.Unix(1731000000, 0) }

func newTestPipeline(llm model.Model, out *bytes.Buffer, rec *metrics.Recorder) *Pipeline {
	team := NewTeam(llm, func(o *TeamOptions) {
		o.Search = offlineSearch{}
	})

	return NewPipeline(team, func(o *PipelineOptions) {
		o.Out = out
		o.Clock = fixedClock
		o.Metrics = rec
	})
}

func TestPipeline_Run(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	var out bytes.Buffer
	rec := metrics.NewRecorder()
	p := newTestPipeline(llm, &out, rec)

	prog, err := p.Run(context.Background(), DemoProfile())
	require.NoError(t, err)

	assert.Equal(t, "demo_client", prog.UserID)
	assert.Equal(t, "session_1731000000", prog.SessionID)
	require.Len(t, prog.Steps, 5)

	wantAgents := []string{Reception, BodyScanner, PT, Nutrition, HeadCoach}
	for i, step := range prog.Steps {
		assert.Equal(t, i+1, step.Number)
		assert.Equal(t, wantAgents[i], step.Agent)
		assert.Empty(t, step.Err)
		assert.Equal(t, "Mock response to: "+step.Message, step.Response)
	}

	assert.Equal(t, "Step 1: Reception Agent - Collecting Client Information", prog.Steps[0].Title)
	assert.Equal(t, "Step 5: Head Coach Agent - Integrated Program", prog.Steps[4].Title)
	assert.Equal(t, prog.Steps[2].Response, prog.Response(PT))

	text := out.String()
	assert.Contains(t, text, "✓ Created shared session store for all agents")
	assert.Contains(t, text, "\n"+strings.Repeat("=", 70)+"\n  Step 3: PT Agent - Creating Training Plan\n"+strings.Repeat("=", 70)+"\n")
	assert.Contains(t, text, "🤖 Body Scanner Agent\n📝 Message: Based on the client information collected")
	assert.Contains(t, text, "✓ Created new session: session_1731000000 for app: nutrition_agent")
	assert.Contains(t, text, "✓ Session verified after creation: session_1731000000")
	assert.Contains(t, text, "✅ Response:\nMock response to: ")
	assert.Equal(t, 5, strings.Count(text, "⏳ Processing..."))

	// Every persona owns a session under the shared user and session id.
	stores := p.Stores()
	for _, name := range wantAgents {
		key := core.SessionKey{AppName: name, UserID: prog.UserID, SessionID: prog.SessionID}
		sess, err := stores.Sessions.Get(key)
		require.NoError(t, err, name)
		assert.Len(t, sess.GetEvents(), 2, name)

		names, err := stores.Artifacts.List(key)
		require.NoError(t, err)
		assert.Len(t, names, 1, name)
	}

	ptKey := core.SessionKey{AppName: PT, UserID: prog.UserID, SessionID: prog.SessionID}
	sess, err := stores.Sessions.Get(ptKey)
	require.NoError(t, err)
	plan, ok := sess.GetState("training_plan")
	require.True(t, ok)
	assert.Equal(t, prog.Steps[2].Response, plan)

	archived, err := stores.Artifacts.Get(ptKey, "step-3-pt_agent.md")
	require.NoError(t, err)
	assert.Equal(t, prog.Steps[2].Response, string(archived))

	// Later personas recall earlier conversations through preload_memory.
	reqs := llm.Requests()
	require.Len(t, reqs, 5)
	assert.NotContains(t, reqs[0].Instructions, "<PAST_CONVERSATIONS>")
	assert.Contains(t, reqs[1].Instructions, "<PAST_CONVERSATIONS>")
	assert.Contains(t, reqs[4].Instructions, "You are a master coach")
	assert.Len(t, reqs[4].Tools, 5)

	observed, err := testutil.GatherAndCount(rec.Registry(), "fittelligence_program_steps_total")
	require.NoError(t, err)
	assert.Equal(t, 5, observed)
}

func TestPipeline_StepErrorContinues(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	llm := model.WrapFunc(mock.Info(), func(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
		if strings.Contains(req.Instructions, "master nutritionist") {
			return model.Finish(nil, errors.New("quota exceeded"))
		}
		return mock.Generate(ctx, req)
	})

	var out bytes.Buffer
	p := newTestPipeline(llm, &out, nil)

	prog, err := p.Run(context.Background(), DemoProfile())
	require.NoError(t, err)
	require.Len(t, prog.Steps, 5)

	failed := prog.Steps[3]
	assert.Equal(t, Nutrition, failed.Agent)
	assert.Empty(t, failed.Response)
	assert.Contains(t, failed.Err, "quota exceeded")

	assert.NotEmpty(t, prog.Steps[4].Response)
	assert.Contains(t, out.String(), "❌ Error: ")

	names, err := p.Stores().Artifacts.List(core.SessionKey{AppName: Nutrition, UserID: prog.UserID, SessionID: prog.SessionID})
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestPipeline_EmptyResponse(t *testing.T) {
	llm := model.WrapFunc(model.Info{Name: "silent", Provider: "mock"}, func(_ context.Context, _ model.Request) (<-chan model.Response, <-chan error) {
		resp := model.TextResponse("")
		return model.Finish(&resp, nil)
	})

	var out bytes.Buffer
	p := newTestPipeline(llm, &out, nil)

	prog, err := p.Run(context.Background(), ClientProfile{Name: "Sam"})
	require.NoError(t, err)

	assert.Equal(t, "sam", prog.UserID)
	for _, step := range prog.Steps {
		assert.Empty(t, step.Response)
		assert.Empty(t, step.Err)
	}
	assert.Equal(t, 5, strings.Count(out.String(), "⚠️  No text response received. Check API credentials."))
}

func TestPipeline_ExistingSession(t *testing.T) {
	var out bytes.Buffer
	p := newTestPipeline(model.NewMockModel("mock", "mock"), &out, nil)

	key := core.SessionKey{AppName: Reception, UserID: "demo_client", SessionID: NewSessionID(fixedClock())}
	_, err := p.Stores().Sessions.Create(key)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), DemoProfile())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "✓ Using existing session: session_1731000000")
}

// lateCreator reports a session as missing once and creates it behind the
// caller's back, so the caller's Create collides.
type lateCreator struct {
	core.SessionStore
	once sync.Once
}

func (s *lateCreator) Get(key core.SessionKey) (*core.Session, error) {
	created := false
	s.once.Do(func() {
		_, _ = s.SessionStore.Create(key)
		created = true
	})
	if created {
		return nil, core.ErrSessionNotFound
	}
	return s.SessionStore.Get(key)
}

func TestPipeline_SessionCreatedConcurrently(t *testing.T) {
	var out bytes.Buffer
	team := NewTeam(model.NewMockModel("mock", "mock"), func(o *TeamOptions) {
		o.Search = offlineSearch{}
	})
	p := NewPipeline(team, func(o *PipelineOptions) {
		o.Out = &out
		o.Clock = fixedClock
		o.Stores.Sessions = &lateCreator{SessionStore: session.NewInMemoryStore()}
	})

	prog, err := p.Run(context.Background(), DemoProfile())
	require.NoError(t, err)

	for _, step := range prog.Steps {
		assert.Empty(t, step.Err, step.Agent)
	}
	assert.Contains(t, out.String(), "✓ Using existing session: session_1731000000")
}

func TestPipeline_ParallelProgramsSameSecond(t *testing.T) {
	team := NewTeam(model.NewMockModel("mock", "mock"), func(o *TeamOptions) {
		o.Search = offlineSearch{}
	})
	p := NewPipeline(team, func(o *PipelineOptions) {
		o.Out = nil
		o.Clock = fixedClock
	})

	const programs = 8

	var wg sync.WaitGroup
	results := make([]*Program, programs)
	for i := 0; i < programs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prog, err := p.RunSession(context.Background(), DemoProfile(), NewUniqueSessionID(fixedClock()))
			if err == nil {
				results[i] = prog
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, prog := range results {
		require.NotNil(t, prog)
		assert.True(t, strings.HasPrefix(prog.SessionID, "session_1731000000_"), prog.SessionID)
		assert.False(t, seen[prog.SessionID], "duplicate session %s", prog.SessionID)
		seen[prog.SessionID] = true

		for _, step := range prog.Steps {
			assert.Empty(t, step.Err, step.Agent)
		}

		sess, err := p.Stores().Sessions.Get(core.SessionKey{AppName: PT, UserID: prog.UserID, SessionID: prog.SessionID})
		require.NoError(t, err)
		assert.Len(t, sess.GetEvents(), 2)

		data, err := p.Stores().Artifacts.Get(core.SessionKey{AppName: PT, UserID: prog.UserID, SessionID: prog.SessionID}, "step-3-pt_agent.md")
		require.NoError(t, err)
		assert.Equal(t, prog.Steps[2].Response, string(data))
	}
}

func TestPipeline_ParallelProgramsSharedSession(t *testing.T) {
	team := NewTeam(model.NewMockModel("mock", "mock"), func(o *TeamOptions) {
		o.Search = offlineSearch{}
	})
	p := NewPipeline(team, func(o *PipelineOptions) {
		o.Out = nil
		o.Clock = fixedClock
	})

	var wg sync.WaitGroup
	errs := make(chan string, 8*len(steps))
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prog, err := p.Run(context.Background(), DemoProfile())
			if err != nil {
				errs <- err.Error()
				return
			}
			for _, step := range prog.Steps {
				if step.Err != "" {
					errs <- step.Err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Fatalf("unexpected step error: %s", e)
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	var out bytes.Buffer
	p := newTestPipeline(model.NewMockModel("mock", "mock"), &out, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, DemoProfile())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestPipeline_Ask(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.AddResponse("How many rest days?", "Two per week.")

	var out bytes.Buffer
	p := newTestPipeline(llm, &out, nil)

	reply, err := p.Ask(context.Background(), PT, "demo_client", "s1", "How many rest days?")
	require.NoError(t, err)
	assert.Equal(t, "Two per week.", reply)

	results, err := p.Stores().Memory.Search("demo_client", "rest days", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, results)

	_, err = p.Ask(context.Background(), "yoga_agent", "demo_client", "s1", "hi")
	require.ErrorIs(t, err, core.ErrAgentNotFound)

	assert.Empty(t, out.String())
}

func TestPipeline_AskSeesPreviousAnswer(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	p := newTestPipeline(llm, &bytes.Buffer{}, nil)

	prog, err := p.Run(context.Background(), DemoProfile())
	require.NoError(t, err)

	_, err = p.Ask(context.Background(), PT, prog.UserID, prog.SessionID, "Can I swap squats for lunges?")
	require.NoError(t, err)

	reqs := llm.Requests()
	last := reqs[len(reqs)-1]
	assert.Contains(t, last.Instructions, "<PREVIOUS_ANSWER>\n"+prog.Response(PT)+"\n</PREVIOUS_ANSWER>")

	// The first turn of each persona has nothing saved yet.
	assert.NotContains(t, reqs[0].Instructions, "<PREVIOUS_ANSWER>")
}

func TestBanners(t *testing.T) {
	var out bytes.Buffer

	Intro(&out)
	assert.Contains(t, out.String(), "FitTelligence - Multi-Agent Fitness Coaching System Demo")
	assert.Contains(t, out.String(), "5. Head Coach Agent → Integrates everything")

	out.Reset()
	Summary(&out)
	assert.Contains(t, out.String(), "Demo Complete!")

	tests := []struct {
		name   string
		cfg    config.ModelConfig
		key    string
		want   bool
		output string
	}{
		{"missing", config.ModelConfig{Provider: config.ProviderGemini}, "", false, "⚠️  WARNING: GOOGLE_API_KEY not set!"},
		{"placeholder", config.ModelConfig{Provider: config.ProviderGemini}, "your-api-key-here", false, "export GOOGLE_API_KEY='your-api-key'"},
		{"present", config.ModelConfig{Provider: config.ProviderGemini}, "AIza-test", true, "✅ API credentials found"},
		{"no key needed", config.ModelConfig{Provider: config.ProviderOllama}, "", true, "✅ API credentials found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOOGLE_API_KEY", tt.key)

			var buf bytes.Buffer
			got := CheckCredentials(&buf, tt.cfg)
			if got != tt.want {
				t.Fatalf("CheckCredentials() = %v, want %v", got, tt.want)
			}
			assert.Contains(t, buf.String(), tt.output)
		})
	}
}
