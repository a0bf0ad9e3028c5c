package flow

import (
	"fmt"
	"sort"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/internal/util"
	"github.com/hupe1980/fittelligence/model"
	"github.com/hupe1980/fittelligence/tool"
)

// InstructionsProcessor resolves the agent instruction and renders
// template markers against the session state.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest adds the rendered instruction to req.Instructions.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("resolve instruction: %w", err)
	}

	rendered, err := util.RenderTemplate(instructions, runCtx.StateView())
	if err != nil {
		return fmt.Errorf("render instruction: %w", err)
	}

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(rendered))

	req.AppendInstructions(rendered)

	return nil
}

// ToolPreprocessor lets tools implementing tool.RequestProcessor shape the
// request, e.g. to preload memories.
type ToolPreprocessor struct{}

// NewToolPreprocessor creates a new tool preprocessor.
func NewToolPreprocessor() *ToolPreprocessor { return &ToolPreprocessor{} }

// Name returns the processor's identifier.
func (p *ToolPreprocessor) Name() string { return "tools" }

// ProcessRequest runs the request processors of all tools in name order.
func (p *ToolPreprocessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	tools := agent.GetTools()

	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rp, ok := tools[name].(tool.RequestProcessor)
		if !ok {
			continue
		}

		if err := rp.ProcessRequest(core.NewToolContext(runCtx, ""), req); err != nil {
			return fmt.Errorf("tool %s: %w", name, err)
		}
	}

	return nil
}

// ContentsProcessor adds the conversation history, trimmed to the agent's
// message and token budgets.
type ContentsProcessor struct {
	counter *util.TokenCounter
}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor {
	return &ContentsProcessor{counter: util.NewTokenCounter()}
}

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest sets req.Contents from the session history. Without a
// session the triggering user content is used.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	contents := []core.Content{}

	if runCtx.Session != nil {
		for _, ev := range runCtx.Session.GetConversationHistory() {
			if ev.Content != nil && len(ev.Content.Parts) > 0 {
				contents = append(contents, *ev.Content)
			}
		}
	}

	if len(contents) == 0 && len(runCtx.UserContent.Parts) > 0 {
		contents = append(contents, runCtx.UserContent)
	}

	if limit := agent.MaxHistoryMessages(); limit > 0 && len(contents) > limit {
		contents = contents[len(contents)-limit:]
	}

	if budget := agent.MaxHistoryTokens(); budget > 0 {
		contents = p.trimToBudget(contents, budget)
	}

	contents = dropOrphanedToolResponses(contents)

	if len(contents) == 0 {
		return fmt.Errorf("agent %s: no contents to send", agent.GetName())
	}

	req.Contents = contents

	return nil
}

// trimToBudget keeps the newest contents whose combined size fits budget.
// The newest content is always kept.
func (p *ContentsProcessor) trimToBudget(contents []core.Content, budget int) []core.Content {
	total := 0
	start := len(contents)

	for i := len(contents) - 1; i >= 0; i-- {
		n := p.count(contents[i])
		if total+n > budget && start < len(contents) {
			break
		}
		total += n
		start = i
	}

	return contents[start:]
}

func (p *ContentsProcessor) count(c core.Content) int {
	n := p.counter.Count(c.Text())
	for _, fc := range c.FunctionCalls() {
		n += p.counter.Count(fc.Name) + p.counter.Count(fc.Arguments)
	}
	for _, fr := range c.FunctionResponses() {
		n += p.counter.Count(fmt.Sprint(fr.Response)) + p.counter.Count(fr.Error)
	}
	return n
}

// dropOrphanedToolResponses removes leading tool responses whose function
// call was trimmed away; providers reject them.
func dropOrphanedToolResponses(contents []core.Content) []core.Content {
	for len(contents) > 1 && contents[0].Role == core.RoleTool {
		contents = contents[1:]
	}
	return contents
}

// UsageProcessor logs token usage reported with final responses.
type UsageProcessor struct{}

// NewUsageProcessor creates a new usage processor.
func NewUsageProcessor() *UsageProcessor { return &UsageProcessor{} }

// Name returns the processor's identifier.
func (p *UsageProcessor) Name() string { return "usage" }

// ProcessResponse logs resp.Usage when present.
func (p *UsageProcessor) ProcessResponse(runCtx *core.RunContext, resp *model.Response, agent FlowAgent) error {
	if resp.Partial || resp.Usage == nil {
		return nil
	}

	runCtx.LogDebug(
		"agent.model.usage",
		"agent", agent.GetName(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"total_tokens", resp.Usage.TotalTokens,
		"finish_reason", resp.FinishReason,
	)

	return nil
}
