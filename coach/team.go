package coach

import (
	"fmt"

	"github.com/hupe1980/fittelligence/a2a"
	"github.com/hupe1980/fittelligence/agent"
	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/logging"
	"github.com/hupe1980/fittelligence/model"
	"github.com/hupe1980/fittelligence/tool"
)

// TeamOptions configures the persona agents.
type TeamOptions struct {
	// Search is the web search tool; defaults to tool.NewWebSearch().
	Search             tool.Tool
	MaxHistoryMessages int
	MaxHistoryTokens   int
	Logger             logging.Logger
}

// Team holds the five persona agents and resolves them by name.
type Team struct {
	agents []*agent.ModelAgent
	byName map[string]*agent.ModelAgent
}

// NewTeam builds every persona on llm. All personas get web search and
// memory preloading; the head coach additionally gets the agent-to-agent
// tools backed by the team itself.
func NewTeam(llm model.Model, optFns ...func(o *TeamOptions)) *Team {
	opts := TeamOptions{
		MaxHistoryMessages: 20,
		Logger:             logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Search == nil {
		opts.Search = tool.NewWebSearch()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	t := &Team{byName: make(map[string]*agent.ModelAgent)}
	client := a2a.NewClient(t, func(o *a2a.Options) {
		o.Logger = logging.With(opts.Logger, "component", "a2a")
	})

	for _, p := range Personas() {
		tools := []tool.Tool{opts.Search, tool.NewPreloadMemory()}
		if p.Name == HeadCoach {
			tools = append(tools, a2a.Tools(client)...)
		}

		a := agent.NewModelAgent(p.Name, llm, func(o *agent.ModelAgentOptions) {
			o.Description = p.Description
			o.Instruction = agent.NewInstructionFromText(p.Instruction).WithState("previous_answer", p.OutputKey)
			o.OutputKey = p.OutputKey
			o.MaxHistoryMessages = opts.MaxHistoryMessages
			o.MaxHistoryTokens = opts.MaxHistoryTokens
			o.Tools = tools
		})

		t.agents = append(t.agents, a)
		t.byName[p.Name] = a
	}

	return t
}

// Agents returns the personas in pipeline order.
func (t *Team) Agents() []*agent.ModelAgent {
	out := make([]*agent.ModelAgent, len(t.agents))
	copy(out, t.agents)
	return out
}

// FindAgent returns the persona agent with the given name.
func (t *Team) FindAgent(name string) (*agent.ModelAgent, bool) {
	a, ok := t.byName[name]
	return a, ok
}

// Lookup implements a2a.Registry.
func (t *Team) Lookup(name string) (core.Agent, error) {
	a, ok := t.FindAgent(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrAgentNotFound, name)
	}
	return a, nil
}
