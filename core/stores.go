package core

// SessionStore persists sessions and their evolving state / event history.
// Sessions are scoped by SessionKey; Get returns ErrSessionNotFound and
// Create returns ErrSessionExists so callers can implement get-else-create.
type SessionStore interface {
	Create(key SessionKey) (*Session, error)
	Get(key SessionKey) (*Session, error)
	List(appName, userID string) ([]*Session, error)
	Delete(key SessionKey) error
	AppendEvent(key SessionKey, event Event) error
	ApplyDelta(key SessionKey, delta map[string]any) error
}

// MemoryStore provides long-term recall across sessions. Memories are scoped
// by user so every persona serving the same client can recall earlier
// conversations.
type MemoryStore interface {
	// AddSession ingests the text content of a session's events.
	AddSession(sess *Session) error
	Store(userID, content string, metadata map[string]any) error
	Search(userID, query string, limit int) ([]SearchResult, error)
	Delete(userID, memoryID string) error
}

// ArtifactStore persists named binary artifacts per session. Implementations
// must be safe for concurrent use.
type ArtifactStore interface {
	Save(key SessionKey, name string, data []byte) error
	Get(key SessionKey, name string) ([]byte, error)
	List(key SessionKey) ([]string, error)
	Delete(key SessionKey, name string) error
}

// SearchResult represents a retrieved memory item with a relevance score and arbitrary metadata.
type SearchResult struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}
