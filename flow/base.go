package flow

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/model"
	"github.com/hupe1980/fittelligence/tool"
)

// Error codes attached to error events emitted by flows.
const (
	CodeModelError        = "MODEL_ERROR"
	CodeModelCallLimit    = "MODEL_CALL_LIMIT"
	CodeRequestProcessor  = "REQUEST_PROCESSOR_ERROR"
	CodeResponseProcessor = "RESPONSE_PROCESSOR_ERROR"
)

// BaseFlow is a single agent flow implementing the
// request -> model -> (optional tool loop) cycle with pluggable processors.
type BaseFlow struct {
	agent              FlowAgent
	executor           FunctionExecutor
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
}

// NewBaseFlow creates a flow without processors. A nil executor selects an
// order preserving parallel executor.
func NewBaseFlow(agent FlowAgent, executor FunctionExecutor) *BaseFlow {
	if executor == nil {
		executor = NewParallelFunctionExecutor(FunctionExecutorConfig{PreserveOrder: true})
	}

	return &BaseFlow{
		agent:              agent,
		executor:           executor,
		requestProcessors:  []RequestProcessor{},
		responseProcessors: []ResponseProcessor{},
	}
}

// AddRequestProcessor appends a request processor; registration order is execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// AddResponseProcessor appends a response processor executed for each model chunk.
func (f *BaseFlow) AddResponseProcessor(processor ResponseProcessor) {
	f.responseProcessors = append(f.responseProcessors, processor)
}

// Execute launches the flow asynchronously and returns a channel of Events.
// The channel is closed when a final response is emitted, an error event was
// emitted or the run context is cancelled.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (<-chan core.Event, error) {
	if f.agent.GetLLM() == nil {
		return nil, fmt.Errorf("agent %s has no model", f.agent.GetName())
	}

	eventChan := make(chan core.Event, 100)

	go func() {
		defer close(eventChan)

		for {
			last := f.runOnce(runCtx, eventChan)
			if last == nil || last.IsError() || runCtx.Err() != nil {
				return
			}

			if last.IsFinalResponse() {
				return
			}

			// A tool answered; the model gets another turn.
			if len(last.GetFunctionResponses()) > 0 {
				continue
			}

			if last.IsPartial() {
				runCtx.LogWarn("agent.flow.partial_tail", "agent", f.agent.GetName())
			}

			return
		}
	}()

	return eventChan, nil
}

// emit sends ev and, for non-partial events, waits until the runner has
// persisted it.
func (f *BaseFlow) emit(runCtx *core.RunContext, eventChan chan<- core.Event, ev core.Event) error {
	select {
	case <-runCtx.Done():
		return runCtx.Err()
	case eventChan <- ev:
	}

	if ev.IsPartial() {
		return nil
	}

	return runCtx.WaitForResume()
}

func (f *BaseFlow) emitError(runCtx *core.RunContext, eventChan chan<- core.Event, code string, err error) *core.Event {
	runCtx.LogError("agent.flow.error", "agent", f.agent.GetName(), "code", code, "error", err.Error())

	ev := core.NewErrorEvent(runCtx.RunID, f.agent.GetName(), code, err)
	_ = f.emit(runCtx, eventChan, ev)

	return &ev
}

// buildRequest refreshes the session snapshot and runs the request processors.
func (f *BaseFlow) buildRequest(runCtx *core.RunContext) (*model.Request, string, error) {
	if err := runCtx.RefreshSession(); err != nil && !errors.Is(err, core.ErrStoreNotConfigured) {
		runCtx.LogWarn("agent.session.refresh_failed", "agent", f.agent.GetName(), "error", err.Error())
	}

	req := &model.Request{Stream: f.agent.IsStreamingEnabled()}

	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
			return nil, CodeRequestProcessor, fmt.Errorf("request processor %s: %w", processor.Name(), err)
		}
	}

	if f.agent.IsFunctionCallingEnabled() {
		req.Tools = declaredTools(f.agent.GetTools())
	}

	return req, "", nil
}

// runOnce performs one model turn including tool execution and returns the
// last emitted Event. A nil return signals termination.
func (f *BaseFlow) runOnce(runCtx *core.RunContext, eventChan chan<- core.Event) *core.Event {
	if err := runCtx.Limiter.Increment(); err != nil {
		return f.emitError(runCtx, eventChan, CodeModelCallLimit, err)
	}

	req, code, err := f.buildRequest(runCtx)
	if err != nil {
		return f.emitError(runCtx, eventChan, code, err)
	}

	runCtx.LogDebug(
		"agent.model.request",
		"agent", f.agent.GetName(),
		"contents", len(req.Contents),
		"tools", len(req.Tools),
		"stream", req.Stream,
	)

	respCh, errCh := f.agent.GetLLM().Generate(runCtx.Context, *req)

	var lastEvent *core.Event

	for respCh != nil || errCh != nil {
		select {
		case <-runCtx.Done():
			return lastEvent
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return f.emitError(runCtx, eventChan, CodeModelError, err)
			}
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}

			last, stop := f.handleResponse(runCtx, eventChan, resp)
			if last != nil {
				lastEvent = last
			}
			if stop {
				return lastEvent
			}
		}
	}

	return lastEvent
}

// handleResponse emits the event for one model chunk and executes requested
// function calls. stop reports that the turn must end.
func (f *BaseFlow) handleResponse(runCtx *core.RunContext, eventChan chan<- core.Event, resp model.Response) (*core.Event, bool) {
	for _, processor := range f.responseProcessors {
		if err := processor.ProcessResponse(runCtx, &resp, f.agent); err != nil {
			return f.emitError(runCtx, eventChan, CodeResponseProcessor, fmt.Errorf("response processor %s: %w", processor.Name(), err)), true
		}
	}

	ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
	content := resp.Content
	if content.Role == "" {
		content.Role = core.RoleAssistant
	}
	ev.Content = &content
	partial := resp.Partial
	ev.Partial = &partial

	fnCalls := ev.GetFunctionCalls()

	if !resp.Partial && len(fnCalls) == 0 {
		complete := true
		ev.TurnComplete = &complete

		if key := f.agent.GetOutputKey(); key != "" && ev.Text() != "" {
			ev.Actions.StateDelta = map[string]any{key: ev.Text()}
		}
	}

	if err := f.emit(runCtx, eventChan, ev); err != nil {
		return &ev, true
	}

	if len(fnCalls) == 0 || !f.agent.IsFunctionCallingEnabled() {
		return &ev, false
	}

	var (
		mu   sync.Mutex
		last = &ev
	)

	f.executor.Execute(runCtx, f.agent, f.agent.GetTools(), fnCalls, func(respEv core.Event) error {
		mu.Lock()
		last = &respEv
		mu.Unlock()

		return f.emit(runCtx, eventChan, respEv)
	})

	return last, false
}

// declaredTools returns the model declarations of all declared tools sorted
// by name so requests are deterministic.
func declaredTools(tools map[string]tool.Tool) []model.ToolDefinition {
	names := make([]string, 0, len(tools))
	for name, t := range tools {
		if tool.Declared(t) {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return nil
	}

	sort.Strings(names)

	defs := make([]model.ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, tool.Definition(tools[name]))
	}

	return defs
}
