// Package memory contains MemoryStore implementations. The interface and
// SearchResult live in core; select an implementation at wiring time.
//
// Memories are scoped by user id, so every persona serving the same client
// recalls the same history.
package memory
