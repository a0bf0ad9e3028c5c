package tool

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/model"
)

const preloadMemoryLimit = 5

// PreloadMemory recalls memories relevant to the user's message and adds
// them to the system instructions before every model call. The model never
// calls it directly.
type PreloadMemory struct{}

// NewPreloadMemory creates the preload_memory tool.
func NewPreloadMemory() *PreloadMemory { return &PreloadMemory{} }

// Name implements Tool.
func (p *PreloadMemory) Name() string { return "preload_memory" }

// Description implements Tool.
func (p *PreloadMemory) Description() string {
	return "Preloads memories of past conversations with the user into the instructions."
}

// Parameters implements Tool.
func (p *PreloadMemory) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// Declared keeps the tool out of the model's function declarations.
func (p *PreloadMemory) Declared() bool { return false }

// Call is a no-op; the work happens in ProcessRequest.
func (p *PreloadMemory) Call(_ *core.ToolContext, _ map[string]any) (any, error) {
	return nil, nil
}

// ProcessRequest implements RequestProcessor.
func (p *PreloadMemory) ProcessRequest(toolCtx *core.ToolContext, req *model.Request) error {
	query := strings.TrimSpace(toolCtx.UserContent().Text())
	if query == "" {
		return nil
	}

	memories, err := toolCtx.SearchMemory(query, preloadMemoryLimit)
	if errors.Is(err, core.ErrStoreNotConfigured) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("preload memory: %w", err)
	}

	if len(memories) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("The following content is from your previous conversations with the user.\n")
	sb.WriteString("They may be useful for answering the user's current query.\n")
	sb.WriteString("<PAST_CONVERSATIONS>\n")
	for _, m := range memories {
		if ts, ok := m.Metadata["timestamp"].(time.Time); ok {
			fmt.Fprintf(&sb, "Time: %s\n", ts.Format(time.RFC3339))
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("</PAST_CONVERSATIONS>")

	req.AppendInstructions(sb.String())

	toolCtx.Logger().Debug("tool.preload_memory.loaded", "count", len(memories))

	return nil
}
