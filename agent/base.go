package agent

// BaseAgent carries the identity shared by agent implementations. Embed it
// and supply a Run method to satisfy core.Agent.
type BaseAgent struct {
	name        string
	description string
}

// NewBaseAgent constructs a BaseAgent.
func NewBaseAgent(name, description string) BaseAgent {
	return BaseAgent{name: name, description: description}
}

// Name returns the agent's identifier.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a one line summary of the agent's purpose. Registries
// and the HTTP API show it to clients.
func (b *BaseAgent) Description() string { return b.description }
