package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/model"
)

func conversation() []core.Content {
	return []core.Content{
		core.NewTextContent(core.RoleSystem, "Prioritize safety."),
		core.NewTextContent(core.RoleUser, "Build me a 4-week plan"),
		{Role: core.RoleAssistant, Parts: []core.Part{
			core.TextPart{Text: "Let me look that up."},
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "toolu_1", Name: "web_search", Arguments: `{"query":"progressive overload"}`}},
		}},
		{Role: core.RoleTool, Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "toolu_1", Name: "web_search", Response: map[string]any{"abstract": "add load gradually"}}},
		}},
	}
}

func TestSystemBlocks(t *testing.T) {
	blocks := systemBlocks(model.Request{Instructions: "You are a master personal trainer.", Contents: conversation()})

	require.Len(t, blocks, 2)
	assert.Equal(t, "You are a master personal trainer.", blocks[0].Text)
	assert.Equal(t, "Prioritize safety.", blocks[1].Text)
}

func TestBuildMessages(t *testing.T) {
	messages := buildMessages(conversation())

	require.Len(t, messages, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, messages[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, messages[1].Role)
	assert.Len(t, messages[1].Content, 2)

	// Tool results travel as user messages.
	assert.Equal(t, anthropic.MessageParamRoleUser, messages[2].Role)
	require.Len(t, messages[2].Content, 1)
	require.NotNil(t, messages[2].Content[0].OfToolResult)
	assert.Equal(t, "toolu_1", messages[2].Content[0].OfToolResult.ToolUseID)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "plain", stringify("plain"))
	assert.Equal(t, `{"sets":3}`, stringify(map[string]any{"sets": 3}))
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "web_search",
			Description: "Search the web",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"query": map[string]any{"type": "string"}},
				"required":   []any{"query"},
			},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "web_search", tools[0].OfTool.Name)
	assert.Equal(t, []string{"query"}, tools[0].OfTool.InputSchema.Required)
}
