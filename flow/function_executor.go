package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/tool"
)

// FunctionExecutor executes a batch of function calls, possibly in parallel,
// and emits function response events through emit. Implementations must:
//   - Respect runCtx.Context cancellation
//   - Never panic (recover internally and report the panic as a tool error)
//   - Emit exactly one FunctionResponse event per incoming FunctionCall
//   - Apply ToolContext accumulated actions to emitted events
//
// The emit callback is responsible for persistence synchronization.
type FunctionExecutor interface {
	Execute(runCtx *core.RunContext, agent FlowAgent, toolRegistry map[string]tool.Tool, fnCalls []core.FunctionCall, emit func(core.Event) error)
}

// FunctionExecutorConfig configures the default parallel executor.
type FunctionExecutorConfig struct {
	MaxParallel    int           // <1 => no explicit limit
	PreserveOrder  bool          // buffer results and emit in call order
	LogStartEvents bool          // log a start line per function
	ToolTimeout    time.Duration // per call deadline; 0 disables it
}

type parallelFunctionExecutor struct {
	cfg FunctionExecutorConfig
}

// NewParallelFunctionExecutor constructs a new executor with the given config.
func NewParallelFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	return &parallelFunctionExecutor{cfg: cfg}
}

func (e *parallelFunctionExecutor) Execute(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	fnCalls []core.FunctionCall,
	emit func(core.Event) error,
) {
	n := len(fnCalls)
	if n == 0 {
		return
	}

	// Single call: run inline.
	if n == 1 {
		e.emit(runCtx, fnCalls[0], emit, e.call(runCtx, agent, toolRegistry, fnCalls[0]))
		return
	}

	maxPar := e.cfg.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	results := make([]core.Event, n)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	sem := make(chan struct{}, maxPar)
	batchStart := time.Now()

	for i, fc := range fnCalls {
		if runCtx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, fc core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()

			if runCtx.Err() != nil {
				return
			}

			ev := e.call(runCtx, agent, toolRegistry, fc)

			mu.Lock()
			defer mu.Unlock()

			if e.cfg.PreserveOrder {
				results[idx] = ev
				return
			}

			e.emit(runCtx, fc, emit, ev)
		}(i, fc)
	}

	wg.Wait()

	if e.cfg.PreserveOrder {
		for i, ev := range results {
			if ev.ID == "" {
				continue
			}
			e.emit(runCtx, fnCalls[i], emit, ev)
		}
	}

	runCtx.LogDebug(
		"agent.functions.batch.complete",
		"agent", agent.GetName(),
		"count", n,
		"parallelism", maxPar,
		"preserve_order", e.cfg.PreserveOrder,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)
}

func (e *parallelFunctionExecutor) emit(runCtx *core.RunContext, fc core.FunctionCall, emit func(core.Event) error, ev core.Event) {
	if err := emit(ev); err != nil {
		runCtx.LogError("agent.function.emit.error", "function", fc.Name, "error", err.Error())
	}
}

// call executes one function call and returns its response event.
func (e *parallelFunctionExecutor) call(runCtx *core.RunContext, agent FlowAgent, toolRegistry map[string]tool.Tool, fc core.FunctionCall) core.Event {
	toolCtx := core.NewToolContext(runCtx, fc.ID)

	if e.cfg.LogStartEvents {
		runCtx.LogInfo("agent.function.start", "agent", agent.GetName(), "function", fc.Name, "function_call_id", fc.ID)
	}

	start := time.Now()

	var (
		result any
		err    error
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				pe := panicError(r)
				err = pe
				runCtx.LogError("agent.function.panic", "agent", agent.GetName(), "function", fc.Name, "recover", r, "stack", string(pe.stack))
			}
		}()

		result, err = executeTool(toolRegistry, toolCtx, fc.Name, fc.Arguments, e.cfg.ToolTimeout)
	}()

	runCtx.LogInfo(
		"agent.function.executed",
		"agent", agent.GetName(),
		"function", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	respEv := core.NewFunctionResponseEvent(agent.GetName(), fc.ID, fc.Name, result, err)
	respEv.RunID = runCtx.RunID
	toolCtx.ApplyActions(&respEv)

	return respEv
}

func panicError(r any) *panicErr { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

// executeTool looks up the tool, parses (and if needed repairs) the model
// supplied arguments and calls the tool under an optional deadline.
func executeTool(toolRegistry map[string]tool.Tool, toolCtx *core.ToolContext, toolName, args string, timeout time.Duration) (any, error) {
	impl, ok := toolRegistry[toolName]
	if !ok {
		return nil, tool.NewToolError(toolName, "tool not found", tool.CodeNotFound)
	}

	argMap, err := parseArguments(args)
	if err != nil {
		return nil, tool.NewToolError(toolName, err.Error(), tool.CodeValidation)
	}

	if timeout <= 0 {
		return impl.Call(toolCtx, argMap)
	}

	ctx, cancel := context.WithTimeout(toolCtx.Context(), timeout)
	defer cancel()

	toolCtx.BindContext(ctx)

	result, err := impl.Call(toolCtx, argMap)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, tool.NewToolError(toolName, fmt.Sprintf("timed out after %s", timeout), tool.CodeExecution)
	}

	return result, err
}

// parseArguments decodes a JSON object. Models occasionally emit truncated
// or single quoted JSON, which is repaired before giving up.
func parseArguments(args string) (map[string]any, error) {
	argMap := map[string]any{}
	if args == "" {
		return argMap, nil
	}

	if err := json.Unmarshal([]byte(args), &argMap); err == nil {
		return argMap, nil
	}

	repaired, err := jsonrepair.JSONRepair(args)
	if err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	argMap = map[string]any{}
	if err := json.Unmarshal([]byte(repaired), &argMap); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	return argMap, nil
}
