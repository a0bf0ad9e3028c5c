// Package ollama implements model.Model against a local Ollama server.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/model"
)

// DefaultHost is used when no host is configured.
const DefaultHost = "http://localhost:11434"

// Options configures the Ollama model adapter.
type Options struct {
	Model       string
	Host        string
	Temperature float64
	MaxTokens   int
}

// Model wraps the Ollama chat API behind model.Model.
type Model struct {
	client *api.Client
	opts   Options
}

// NewModel creates an Ollama model for the given host.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:       "llama3.2",
		Host:        DefaultHost,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	u, err := url.Parse(opts.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", opts.Host, err)
	}

	return &Model{client: api.NewClient(u, http.DefaultClient), opts: opts}, nil
}

// Generate sends a chat request. With req.Stream set, content chunks are
// forwarded as partial responses before the final one.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		stream := req.Stream
		chatReq := &api.ChatRequest{
			Model:    m.opts.Model,
			Messages: convertMessages(req),
			Stream:   &stream,
			Options: map[string]any{
				"temperature": m.opts.Temperature,
				"num_predict": m.opts.MaxTokens,
			},
		}

		if len(req.Tools) > 0 {
			chatReq.Tools = convertTools(req.Tools)
		}

		var (
			text  strings.Builder
			calls []api.ToolCall
			last  api.ChatResponse
		)

		err := m.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			last = resp
			text.WriteString(resp.Message.Content)
			calls = append(calls, resp.Message.ToolCalls...)

			if stream && !resp.Done && resp.Message.Content != "" {
				select {
				case out <- model.Response{
					Partial: true,
					Content: core.NewTextContent(core.RoleAssistant, resp.Message.Content),
				}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
		if err != nil {
			errCh <- fmt.Errorf("ollama api error: %w", err)
			return
		}

		out <- finalResponse(text.String(), calls, &last)
	}()

	return out, errCh
}

// convertMessages flattens contents into Ollama chat messages. Tool results
// become "tool" messages.
func convertMessages(req model.Request) []api.Message {
	var messages []api.Message
	if req.Instructions != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.Instructions})
	}

	for _, c := range req.Contents {
		switch c.Role {
		case core.RoleTool:
			for _, p := range c.Parts {
				if fr, ok := p.(core.FunctionResponsePart); ok {
					messages = append(messages, api.Message{
						Role:       "tool",
						Content:    responseText(fr.FunctionResponse),
						ToolCallID: fr.FunctionResponse.ID,
					})
				}
			}
		case core.RoleAssistant:
			msg := api.Message{Role: "assistant", Content: c.Text()}
			for _, fc := range c.FunctionCalls() {
				args := map[string]any{}
				if fc.Arguments != "" {
					_ = json.Unmarshal([]byte(fc.Arguments), &args)
				}
				msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{
					ID: fc.ID,
					Function: api.ToolCallFunction{
						Name:      fc.Name,
						Arguments: api.ToolCallFunctionArguments(args),
					},
				})
			}
			messages = append(messages, msg)
		default:
			messages = append(messages, api.Message{Role: c.Role, Content: c.Text()})
		}
	}

	return messages
}

func responseText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return "error: " + fr.Error
	}
	if s, ok := fr.Response.(string); ok {
		return s
	}
	b, err := json.Marshal(fr.Response)
	if err != nil {
		return fmt.Sprintf("%v", fr.Response)
	}
	return string(b)
}

func convertTools(tools []model.ToolDefinition) api.Tools {
	out := make(api.Tools, len(tools))

	for i, t := range tools {
		params := api.ToolFunctionParameters{
			Type:       "object",
			Properties: map[string]api.ToolProperty{},
		}

		if props, ok := t.Function.Parameters["properties"].(map[string]any); ok {
			for name, p := range props {
				if pm, ok := p.(map[string]any); ok {
					params.Properties[name] = convertProperty(pm)
				}
			}
		}

		switch req := t.Function.Parameters["required"].(type) {
		case []string:
			params.Required = req
		case []any:
			for _, r := range req {
				if s, ok := r.(string); ok {
					params.Required = append(params.Required, s)
				}
			}
		}

		out[i] = api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  params,
			},
		}
	}

	return out
}

func convertProperty(p map[string]any) api.ToolProperty {
	typ, _ := p["type"].(string)
	if typ == "" {
		typ = "string"
	}

	prop := api.ToolProperty{Type: api.PropertyType{typ}}
	if d, ok := p["description"].(string); ok {
		prop.Description = d
	}

	if items, ok := p["items"].(map[string]any); ok {
		prop.Items = convertProperty(items)
	}

	return prop
}

func finalResponse(text string, calls []api.ToolCall, last *api.ChatResponse) model.Response {
	parts := make([]core.Part, 0, len(calls)+1)
	if text != "" {
		parts = append(parts, core.TextPart{Text: text})
	}

	for i, call := range calls {
		id := call.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		args, _ := json.Marshal(map[string]any(call.Function.Arguments))
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        id,
			Name:      call.Function.Name,
			Arguments: string(args),
		}})
	}

	finish := last.DoneReason
	if finish == "" {
		finish = "stop"
	}

	return model.Response{
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: finish,
		Usage: &model.TokenUsage{
			PromptTokens:     last.PromptEvalCount,
			CompletionTokens: last.EvalCount,
			TotalTokens:      last.PromptEvalCount + last.EvalCount,
		},
	}
}

// Info returns metadata describing this Ollama model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "ollama",
		SupportsTools: true,
	}
}
