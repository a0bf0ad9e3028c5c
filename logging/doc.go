// Package logging provides a minimal logging interface and slog adapters.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// used by runners, agents, tools and the coaching pipeline. Messages are dotted
// event names followed by key/value pairs:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	logger.Info("pipeline.step.start", "step", 1, "agent", "reception_agent")
//
// NoOpLogger is the default wherever no logger is configured.
package logging
