package core

// Agent defines the interface every agent must implement.
//
// Agents receive a RunContext, emit events through it and block on its Resume
// channel after each non-partial event so the runner can persist state before
// the agent continues. Implementations must respect context cancellation.
type Agent interface {
	Name() string
	Description() string
	Run(runCtx *RunContext) error
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes the implementation (e.g. "model").
type AgentInfo struct{ Name, Type string }
