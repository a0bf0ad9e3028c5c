package core

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/fittelligence/logging"
)

type mockSessionStore struct {
	mu       sync.Mutex
	sessions map[SessionKey]*Session
	applied  map[SessionKey]map[string]any
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: map[SessionKey]*Session{}, applied: map[SessionKey]map[string]any{}}
}

func (m *mockSessionStore) Create(key SessionKey) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[key]; ok {
		return nil, ErrSessionExists
	}
	s := NewSession(key)
	m.sessions[key] = s
	return s, nil
}

func (m *mockSessionStore) Get(key SessionKey) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *mockSessionStore) List(appName, userID string) ([]*Session, error) { return nil, nil }
func (m *mockSessionStore) Delete(key SessionKey) error                   { return nil }

func (m *mockSessionStore) AppendEvent(key SessionKey, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		s.AddEvent(ev)
	}
	return nil
}

func (m *mockSessionStore) ApplyDelta(key SessionKey, delta map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := map[string]any{}
	for k, v := range delta {
		cp[k] = v
	}
	m.applied[key] = cp
	if s, ok := m.sessions[key]; ok {
		s.ApplyStateDelta(delta)
	}
	return nil
}

type mockArtifactStore struct{ data map[SessionKey]map[string][]byte }

func (a *mockArtifactStore) Save(key SessionKey, name string, b []byte) error {
	if a.data == nil {
		a.data = map[SessionKey]map[string][]byte{}
	}
	if _, ok := a.data[key]; !ok {
		a.data[key] = map[string][]byte{}
	}
	a.data[key][name] = append([]byte{}, b...)
	return nil
}

func (a *mockArtifactStore) Get(key SessionKey, name string) ([]byte, error) {
	return a.data[key][name], nil
}

func (a *mockArtifactStore) List(key SessionKey) ([]string, error) {
	res := []string{}
	for k := range a.data[key] {
		res = append(res, k)
	}
	sort.Strings(res)
	return res, nil
}

func (a *mockArtifactStore) Delete(key SessionKey, name string) error { return nil }

type mockMemoryStore struct {
	entries map[string][]string
}

func (m *mockMemoryStore) AddSession(sess *Session) error { return nil }

func (m *mockMemoryStore) Store(userID, content string, metadata map[string]any) error {
	if m.entries == nil {
		m.entries = map[string][]string{}
	}
	m.entries[userID] = append(m.entries[userID], content)
	return nil
}

func (m *mockMemoryStore) Search(userID, q string, limit int) ([]SearchResult, error) {
	var out []SearchResult
	for i, c := range m.entries[userID] {
		if strings.Contains(c, q) {
			out = append(out, SearchResult{ID: string(rune('a' + i)), Content: c, Score: 1})
		}
	}
	return out, nil
}

func (m *mockMemoryStore) Delete(userID, memoryID string) error { return nil }

var testKey = SessionKey{AppName: "pt_agent", UserID: "demo_client", SessionID: "session_1"}

func newRunContextForTest() (*RunContext, chan Event) {
	emit := make(chan Event, 5)
	resume := make(chan struct{}, 5)
	sessions := newMockSessionStore()
	sess, _ := sessions.Create(testKey)
	stores := Stores{Sessions: sessions, Artifacts: &mockArtifactStore{}, Memory: &mockMemoryStore{}}
	rc := NewRunContext(
		context.Background(), testKey, "run-x", AgentInfo{Name: "pt_agent", Type: "model"},
		NewTextContent(RoleUser, "Create a training plan"),
		emit, resume, sess, stores, nil, logging.NoOpLogger{},
	)
	return rc, emit
}
