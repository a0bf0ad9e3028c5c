package core

import "errors"

var (
	// ErrSessionNotFound is returned by SessionStore.Get for unknown keys.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned by SessionStore.Create when the key is taken.
	ErrSessionExists = errors.New("session already exists")
	// ErrStoreNotConfigured is returned by context helpers when the backing
	// store is nil.
	ErrStoreNotConfigured = errors.New("store not configured")
	// ErrAgentNotFound is returned by agent registries for unknown names.
	ErrAgentNotFound = errors.New("agent not found")
)
