// Package provider builds the configured model.Model.
package provider

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/fittelligence/config"
	"github.com/hupe1980/fittelligence/model"
	"github.com/hupe1980/fittelligence/model/anthropic"
	"github.com/hupe1980/fittelligence/model/gemini"
	"github.com/hupe1980/fittelligence/model/ollama"
	"github.com/hupe1980/fittelligence/model/openai"
)

// New creates the model selected by cfg.Provider, paced to
// cfg.RequestsPerMinute and wrapped by the given middlewares (outermost
// first).
func New(ctx context.Context, cfg config.ModelConfig, mws ...model.Middleware) (model.Model, error) {
	base, err := newBase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	chain := append([]model.Middleware{}, mws...)
	chain = append(chain, model.RateLimit(model.PerMinute(cfg.RequestsPerMinute)))

	return model.Chain(base, chain...), nil
}

func newBase(ctx context.Context, cfg config.ModelConfig) (model.Model, error) {
	apiKey := cfg.ResolvedAPIKey()

	switch cfg.Provider {
	case config.ProviderGemini, "":
		m, err := gemini.NewModel(ctx, func(o *gemini.Options) {
			o.Model = cfg.Name
			o.APIKey = apiKey
			o.Temperature = float32(cfg.Temperature)
			o.MaxTokens = int32(cfg.MaxTokens) //nolint:gosec // bounded by config
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Name
			o.APIKey = apiKey
			o.BaseURL = cfg.BaseURL
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = int64(cfg.MaxTokens)
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Name)
			o.APIKey = apiKey
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxTokens)
		}), nil
	case config.ProviderOllama:
		m, err := ollama.NewModel(func(o *ollama.Options) {
			o.Model = cfg.Name
			if cfg.BaseURL != "" {
				o.Host = cfg.BaseURL
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.ProviderMock:
		return model.NewMockModel(cfg.Name, config.ProviderMock), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
}
