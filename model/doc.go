// Package model defines the provider-agnostic abstractions for interacting
// with language models.
//
//   - Model unifies streaming and blocking generation behind one interface
//   - ToolDefinition normalizes function declarations across vendors
//   - Middleware decorates models (rate limiting, metrics)
//   - MockModel supports tests and credential-less demo runs
//
// Providers live in sub-packages (gemini, openai, anthropic, ollama) and the
// provider package selects one from configuration.
package model
