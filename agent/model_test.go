package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/flow"
	"github.com/hupe1980/fittelligence/internal/testutil"
	"github.com/hupe1980/fittelligence/model"
	"github.com/hupe1980/fittelligence/tool"
)

func newEchoTool(t *testing.T) tool.Tool {
	t.Helper()

	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"text": map[string]any{"type": "string"}},
		"required":   []string{"text"},
	}

	return tool.NewFunctionTool("echo", "Echo text back", schema, func(tc *core.ToolContext, args map[string]any) (any, error) {
		tc.SetState("echoed", args["text"])
		return args["text"], nil
	})
}

func drain(ch <-chan core.Event) []core.Event {
	var events []core.Event
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestModelAgent_Defaults(t *testing.T) {
	a := NewModelAgent("pt_agent", model.NewMockModel("mock-model", "mock"))

	assert.Equal(t, "pt_agent", a.Name())
	assert.Equal(t, "Agent pt_agent", a.Description())
	assert.True(t, a.IsFunctionCallingEnabled())
	assert.False(t, a.IsStreamingEnabled())
	assert.Equal(t, 20, a.MaxHistoryMessages())
	assert.Equal(t, 0, a.MaxHistoryTokens())
	assert.Empty(t, a.GetOutputKey())

	instr, err := a.ResolveInstructions(nil)
	require.NoError(t, err)
	assert.Equal(t, "You are pt_agent, a helpful AI assistant.", instr)
}

func TestModelAgent_Options(t *testing.T) {
	a := NewModelAgent("nutrition_agent", model.NewMockModel("mock-model", "mock"), func(o *ModelAgentOptions) {
		o.Description = "Plans meals"
		o.Instruction = NewInstructionFromText("You are a nutritionist.")
		o.OutputKey = "meal_plan"
		o.MaxHistoryTokens = 8000
		o.Tools = []tool.Tool{newEchoTool(t), tool.NewPreloadMemory()}
	})

	assert.Equal(t, "Plans meals", a.Description())
	assert.Equal(t, "meal_plan", a.GetOutputKey())
	assert.Equal(t, 8000, a.MaxHistoryTokens())
	assert.Equal(t, []string{"echo", "preload_memory"}, a.ListTools())
	assert.True(t, a.HasTool("echo"))
	assert.False(t, a.HasTool("web_search"))

	tools := a.GetTools()
	delete(tools, "echo")
	assert.True(t, a.HasTool("echo"))
}

func TestModelAgent_RunWithTool(t *testing.T) {
	llm := model.NewMockModel("mock-model", "mock")
	llm.Script(
		model.ToolCallResponse("call_1", "echo", `{"text":"hello"}`),
		model.TextResponse("Done."),
	)

	a := NewModelAgent("pt_agent", llm, func(o *ModelAgentOptions) {
		o.Tools = []tool.Tool{newEchoTool(t)}
		o.OutputKey = "answer"
	})

	rc, emit := testutil.NewRunContext("echo hello", core.Stores{})
	require.NoError(t, a.Run(rc))

	events := drain(emit)
	require.Len(t, events, 3)

	frs := events[1].GetFunctionResponses()
	require.Len(t, frs, 1)
	assert.Equal(t, "hello", frs[0].Response)
	assert.Equal(t, "hello", events[1].Actions.StateDelta["echoed"])

	assert.Equal(t, "Done.", events[2].Text())
	assert.Equal(t, "Done.", events[2].Actions.StateDelta["answer"])
}

func TestModelAgent_RunMergesStagedState(t *testing.T) {
	llm := model.NewMockModel("mock-model", "mock")
	llm.Script(model.TextResponse("ok"))

	a := NewModelAgent("pt_agent", llm)

	rc, emit := testutil.NewRunContext("hi", core.Stores{})
	rc.SetState("client_name", "Sarah")

	require.NoError(t, a.Run(rc))

	events := drain(emit)
	require.Len(t, events, 1)
	assert.Equal(t, "Sarah", events[0].Actions.StateDelta["client_name"])
	assert.Empty(t, rc.StateDelta)
}

func TestModelAgent_RunError(t *testing.T) {
	llm := model.NewMockModel("mock-model", "mock")
	llm.FailWith(errors.New("invalid api key"))

	a := NewModelAgent("pt_agent", llm)

	rc, emit := testutil.NewRunContext("hi", core.Stores{})
	err := a.Run(rc)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "pt_agent", runErr.Agent)
	assert.Equal(t, flow.CodeModelError, runErr.Code)
	assert.Contains(t, err.Error(), "invalid api key")

	events := drain(emit)
	require.Len(t, events, 1)
	assert.True(t, events[0].IsError())
}

func TestModelAgent_RunCancelled(t *testing.T) {
	llm := model.WrapFunc(model.Info{Name: "slow", Provider: "mock"}, func(ctx context.Context, _ model.Request) (<-chan model.Response, <-chan error) {
		respCh := make(chan model.Response)
		errCh := make(chan error, 1)
		go func() {
			defer close(respCh)
			defer close(errCh)
			<-ctx.Done()
			errCh <- ctx.Err()
		}()
		return respCh, errCh
	})

	a := NewModelAgent("pt_agent", llm)

	rc, _ := testutil.NewRunContext("hi", core.Stores{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	rc.Context = ctx

	done := make(chan error, 1)
	go func() { done <- a.Run(rc) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop after cancellation")
	}
}

func TestModelAgent_NoModel(t *testing.T) {
	rc, _ := testutil.NewRunContext("hi", core.Stores{})

	err := NewModelAgent("pt_agent", nil).Run(rc)
	assert.Error(t, err)
}
