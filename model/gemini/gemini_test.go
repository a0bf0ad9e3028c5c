package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/model"
)

func TestConvertContents(t *testing.T) {
	req := model.Request{
		Instructions: "You are a master nutritionist.",
		Contents: []core.Content{
			core.NewTextContent(core.RoleSystem, "Be concise."),
			core.NewTextContent(core.RoleUser, "Plan my meals"),
			{Role: core.RoleAssistant, Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID: "call_1", Name: "web_search", Arguments: `{"query":"protein intake"}`,
			}}}},
			{Role: core.RoleTool, Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
				ID: "call_1", Name: "web_search", Response: "1.6 g/kg",
			}}}},
		},
	}

	contents, system := convertContents(req)

	assert.Equal(t, "You are a master nutritionist.\n\nBe concise.", system)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.NotNil(t, contents[1].Parts[0].FunctionCall)
	assert.Equal(t, "protein intake", contents[1].Parts[0].FunctionCall.Args["query"])
	assert.Equal(t, "user", contents[2].Role)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Equal(t, "web_search", contents[2].Parts[0].FunctionResponse.Name)
	assert.Equal(t, "1.6 g/kg", contents[2].Parts[0].FunctionResponse.Response["output"])
}

func TestConvertSchema(t *testing.T) {
	schema := convertSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "search query"},
			"tags":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"query"},
	})

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, genai.TypeString, schema.Properties["query"].Type)
	assert.Equal(t, "search query", schema.Properties["query"].Description)
	assert.Equal(t, genai.TypeArray, schema.Properties["tags"].Type)
	assert.Equal(t, genai.TypeString, schema.Properties["tags"].Items.Type)
	assert.Equal(t, []string{"query"}, schema.Required)
}

func TestConvertResponse(t *testing.T) {
	t.Run("text and function call", func(t *testing.T) {
		result := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Role: "model", Parts: []*genai.Part{
					{Text: "Searching."},
					{FunctionCall: &genai.FunctionCall{Name: "web_search", Args: map[string]any{"query": "squat"}}},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     10,
				CandidatesTokenCount: 5,
				TotalTokenCount:      15,
			},
		}

		resp, err := convertResponse(result)
		require.NoError(t, err)
		assert.Equal(t, "Searching.", resp.Content.Text())
		require.Len(t, resp.Content.Parts, 2)

		call, ok := resp.Content.Parts[1].(core.FunctionCallPart)
		require.True(t, ok)
		assert.Equal(t, "web_search", call.FunctionCall.ID)
		assert.JSONEq(t, `{"query":"squat"}`, call.FunctionCall.Arguments)
		assert.Equal(t, "stop", resp.FinishReason)
		require.NotNil(t, resp.Usage)
		assert.Equal(t, 15, resp.Usage.TotalTokens)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := convertResponse(&genai.GenerateContentResponse{})
		require.Error(t, err)
	})
}
