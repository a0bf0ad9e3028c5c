package flow

// SingleAgentFlow is the flow used by model agents. It resolves the
// instruction, lets tools preprocess the request, assembles the trimmed
// history and logs token usage.
type SingleAgentFlow struct{ *BaseFlow }

// NewSingleAgentFlow creates a new single agent flow. A nil executor selects
// the default executor.
func NewSingleAgentFlow(agent FlowAgent, executor FunctionExecutor) *SingleAgentFlow {
	baseFlow := NewBaseFlow(agent, executor)

	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewToolPreprocessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())

	baseFlow.AddResponseProcessor(NewUsageProcessor())

	return &SingleAgentFlow{BaseFlow: baseFlow}
}
