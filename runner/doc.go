// Package runner executes one agent turn at a time against a session.
//
// Run appends the user message to the session, starts the agent and relays
// its events to the caller. Every non-partial event is persisted, its state
// delta applied, and only then is the agent resumed, so the agent always
// observes its own history on the next model call. RunSync collects the
// events of a turn for callers that do not stream.
package runner
