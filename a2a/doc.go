// Package a2a provides the agent-to-agent tools of the head coach.
//
// Each function resolves its target persona through a Registry and answers
// with a descriptive request summary instead of invoking the persona. The
// delegation prompt the target would receive is built and logged at debug
// level so a real invocation can be swapped in later. The functions never
// fail: a missing persona or a panic is reported in the returned text.
package a2a
