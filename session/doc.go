// Package session houses SessionStore implementations. The interface and the
// Session type live in core; callers depend on core.SessionStore and pick an
// implementation at wiring time.
package session
