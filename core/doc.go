// Package core provides the foundational domain types, interfaces and execution
// contexts used by FitTelligence agents. It defines:
//
//   - Agents (units of autonomous work, e.g. the coaching personas)
//   - Sessions keyed by (application, user, session id) with event history
//   - Events (immutable communication + orchestration records)
//   - RunContext / ToolContext (scoped execution & tool sandboxing)
//   - Pluggable stores for session state, artifacts and memory recall
//
// Implementation concerns (persistence, model calls, concrete agents) live in
// sibling packages; core only exposes small interfaces.
package core
