package agent

import (
	"fmt"
	"sort"
	"time"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/flow"
	"github.com/hupe1980/fittelligence/model"
	"github.com/hupe1980/fittelligence/tool"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Description           string
	Instruction           Instruction
	EnableStreaming       bool
	EnableFunctionCalling bool
	ToolTimeout           time.Duration
	MaxParallelTools      int
	OutputKey             string
	MaxHistoryMessages    int
	MaxHistoryTokens      int
	Tools                 []tool.Tool
}

// RunError reports an error event emitted while an agent ran.
type RunError struct {
	Agent   string
	Code    string
	Message string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("agent %s: [%s] %s", e.Agent, e.Code, e.Message)
}

// ModelAgent answers a turn with a language model, calling its tools as
// requested and optionally saving the final answer under an output key.
type ModelAgent struct {
	BaseAgent
	llm                   model.Model
	instruction           Instruction
	tools                 map[string]tool.Tool
	enableFunctionCalling bool
	enableStreaming       bool
	toolTimeout           time.Duration
	maxParallelTools      int
	outputKey             string
	maxHistoryMessages    int
	maxHistoryTokens      int
}

// NewModelAgent creates a model agent. By default streaming is off, function
// calling is on, tool calls time out after 30 seconds and the last 20
// history messages are sent to the model.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Description:           fmt.Sprintf("Agent %s", name),
		Instruction:           NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		EnableFunctionCalling: true,
		ToolTimeout:           30 * time.Second,
		MaxHistoryMessages:    20,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ModelAgent{
		BaseAgent:             NewBaseAgent(name, opts.Description),
		llm:                   llm,
		instruction:           opts.Instruction,
		tools:                 make(map[string]tool.Tool, len(opts.Tools)),
		enableStreaming:       opts.EnableStreaming,
		enableFunctionCalling: opts.EnableFunctionCalling,
		toolTimeout:           opts.ToolTimeout,
		maxParallelTools:      opts.MaxParallelTools,
		outputKey:             opts.OutputKey,
		maxHistoryMessages:    opts.MaxHistoryMessages,
		maxHistoryTokens:      opts.MaxHistoryTokens,
	}

	a.RegisterTools(opts.Tools...)

	return a
}

// RegisterTool adds a tool, replacing any tool with the same name.
func (a *ModelAgent) RegisterTool(t tool.Tool) {
	a.tools[t.Name()] = t
}

// RegisterTools adds multiple tools.
func (a *ModelAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// HasTool checks if a tool is registered with the agent.
func (a *ModelAgent) HasTool(name string) bool {
	_, exists := a.tools[name]
	return exists
}

// ListTools returns the names of all registered tools in sorted order.
func (a *ModelAgent) ListTools() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetName returns the agent's display name.
func (a *ModelAgent) GetName() string { return a.Name() }

// GetLLM returns the language model instance.
func (a *ModelAgent) GetLLM() model.Model { return a.llm }

// GetTools returns a copy of the tool registry.
func (a *ModelAgent) GetTools() map[string]tool.Tool {
	tools := make(map[string]tool.Tool, len(a.tools))
	for name, t := range a.tools {
		tools[name] = t
	}
	return tools
}

// IsFunctionCallingEnabled returns whether function calling is enabled.
func (a *ModelAgent) IsFunctionCallingEnabled() bool { return a.enableFunctionCalling }

// IsStreamingEnabled returns whether streaming responses are enabled.
func (a *ModelAgent) IsStreamingEnabled() bool { return a.enableStreaming }

// GetOutputKey returns the session state key for saving responses.
func (a *ModelAgent) GetOutputKey() string { return a.outputKey }

// MaxHistoryMessages returns the history message cap.
func (a *ModelAgent) MaxHistoryMessages() int { return a.maxHistoryMessages }

// MaxHistoryTokens returns the history token budget; 0 means unlimited.
func (a *ModelAgent) MaxHistoryTokens() int { return a.maxHistoryTokens }

// ResolveInstructions resolves the static or dynamic instruction.
func (a *ModelAgent) ResolveInstructions(runCtx *core.RunContext) (string, error) {
	return a.instruction.Resolve(runCtx)
}

// Run implements core.Agent. It streams flow events to the run context and
// returns a *RunError if the flow emitted an error event.
func (a *ModelAgent) Run(runCtx *core.RunContext) error {
	runCtx.LogDebug("agent.run.start", "agent", a.Name(), "run", runCtx.RunID)

	executor := flow.NewParallelFunctionExecutor(flow.FunctionExecutorConfig{
		MaxParallel:   a.maxParallelTools,
		PreserveOrder: true,
		ToolTimeout:   a.toolTimeout,
	})

	eventChan, err := flow.NewSingleAgentFlow(a, executor).Execute(runCtx)
	if err != nil {
		runCtx.LogError("agent.flow.execute.error", "agent", a.Name(), "error", err.Error())
		return fmt.Errorf("flow execution failed: %w", err)
	}

	var runErr error

	for event := range eventChan {
		if event.IsError() {
			runErr = &RunError{Agent: a.Name(), Code: deref(event.ErrorCode), Message: deref(event.ErrorMessage)}
		}

		if err := runCtx.EmitEvent(event); err != nil {
			runCtx.LogWarn("agent.run.context_done", "agent", a.Name(), "error", err.Error())
			// Drain so the flow goroutine can exit.
			for range eventChan {
			}
			return err
		}

		runCtx.LogDebug(
			"agent.event.forward",
			"agent", a.Name(),
			"event_id", event.ID,
			"partial", event.IsPartial(),
			"fn_calls", len(event.GetFunctionCalls()),
		)
	}

	runCtx.LogDebug("agent.run.complete", "agent", a.Name(), "error", runErr != nil)

	return runErr
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
