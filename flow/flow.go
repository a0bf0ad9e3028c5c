// Package flow drives a single agent turn: it assembles the model request
// through processors, streams the model response as events and runs the
// function calls the model asks for until a final answer is produced.
package flow

import (
	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/model"
	"github.com/hupe1980/fittelligence/tool"
)

// Flow defines the interface for agent execution flows.
type Flow interface {
	// Execute runs the flow and returns a channel of events that is closed
	// when the turn completes or fails.
	Execute(runCtx *core.RunContext) (<-chan core.Event, error)
}

// FlowAgent is the view of an agent a flow needs.
type FlowAgent interface {
	// GetName returns the agent's display name.
	GetName() string

	// GetLLM returns the language model instance.
	GetLLM() model.Model

	ResolveInstructions(runCtx *core.RunContext) (string, error)

	// GetTools returns the registered tools keyed by name.
	GetTools() map[string]tool.Tool

	IsFunctionCallingEnabled() bool

	IsStreamingEnabled() bool

	// GetOutputKey returns the session state key the final answer is saved
	// under, or "" to skip saving.
	GetOutputKey() string

	// MaxHistoryMessages caps the number of history messages sent to the model.
	MaxHistoryMessages() int

	// MaxHistoryTokens caps the estimated token size of the history; 0 disables it.
	MaxHistoryTokens() int
}

// RequestProcessor processes the request before sending it to the LLM.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the request before the model call.
	ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error
}

// ResponseProcessor processes the response after receiving it from the LLM.
type ResponseProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessResponse inspects or rewrites a model response chunk.
	ProcessResponse(runCtx *core.RunContext, resp *model.Response, agent FlowAgent) error
}
