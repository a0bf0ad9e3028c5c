package coach

import (
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/fittelligence/config"
)

var rule = strings.Repeat("=", 70)

// PrintSection writes a section banner for title.
func PrintSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n  %s\n%s\n\n", rule, title, rule)
}

// Intro writes the demo introduction.
func Intro(w io.Writer) {
	PrintSection(w, "FitTelligence - Multi-Agent Fitness Coaching System Demo")
	fmt.Fprint(w, `
PROBLEM: Creating personalized fitness programs requires 6-12 hours and $400-2000
         in specialist consultations across multiple appointments.

SOLUTION: Automated multi-agent system that generates comprehensive programs in minutes
          by coordinating 5 specialized agents working in sequence.

VALUE: Eliminates 6-12 hours of work and $400-2000 in costs.

This demo showcases:
✓ Multi-agent system with sequential agent flow
✓ Built-in tools (Web Search)
✓ Custom tools for Agent-to-Agent communication
✓ Sessions & Memory (in-memory session store, preload_memory tool)
✓ Pluggable model providers (Gemini, OpenAI, Anthropic, Ollama)

All agents work together in a sequential pattern:
1. Reception Agent → Collects client information (replaces 1-2 hour intake)
2. Body Scanner Agent → Analyzes body and movement (replaces 1-2 hour assessment)
3. PT Agent → Creates training plan (replaces 2-4 hour trainer consultation)
4. Nutrition Agent → Creates nutrition plan (replaces 1-2 hour nutritionist visit)
5. Head Coach Agent → Integrates everything (replaces 1-2 hour coordination)

`)
}

// CheckCredentials reports whether the model provider has a usable API key
// and writes a warning when it does not. The demo continues either way.
func CheckCredentials(w io.Writer, cfg config.ModelConfig) bool {
	if cfg.HasCredentials() {
		fmt.Fprint(w, "✅ API credentials found\n\n")
		return true
	}

	env := cfg.APIKeyEnv()
	if env == "" {
		env = "model.api_key"
	}
	fmt.Fprintf(w, "⚠️  WARNING: %s not set!\n", env)
	fmt.Fprintf(w, "   Set it with: export %s='your-api-key'\n", env)
	fmt.Fprintln(w, "   Or add it to a .env file")
	fmt.Fprint(w, "\n   Continuing with demo structure...\n\n")

	return false
}

// Summary writes the closing summary.
func Summary(w io.Writer) {
	PrintSection(w, "Demo Complete!")
	fmt.Fprint(w, `
✅ Successfully demonstrated:

1. MULTI-AGENT SYSTEM (Sequential Agents)
   - 5 specialized agents working in sequence
   - Each agent receives context from previous agents
   - Head coach agent coordinates the flow

2. TOOLS
   - Built-in: Web Search (available to all agents)
   - Custom tools: Agent-to-Agent communication functions

3. SESSIONS & MEMORY
   - Shared session store for session management
   - preload_memory tool for long-term memory
   - Consistent session across all agents

4. AGENT-TO-AGENT (A2A) PROTOCOL
   - Custom tools in head_coach_agent allow calling other agents
   - Sequential information passing through agent communication

📁 Project Structure:
- coach/    - Personas, prompts and the sequential pipeline
- a2a/      - Agent-to-Agent tools
- agent/    - Model agents
- runner/   - Session-aware agent runner
- tool/     - Web search and memory tools
- server/   - HTTP API

`)
}
