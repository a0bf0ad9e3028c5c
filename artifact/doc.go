// Package artifact contains ArtifactStore implementations. The interface
// lives in core; callers depend on core.ArtifactStore.
//
// The sqlite subpackage archives artifacts durably, the in-memory store
// serves tests and runs without an archive path.
package artifact
