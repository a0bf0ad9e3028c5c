package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/hupe1980/fittelligence/core"
)

// StoredMemory is the internal representation persisted by InMemoryStore.
type StoredMemory struct {
	ID       string
	Content  string
	Metadata map[string]any
	seq      int
}

// InMemoryStore is a process-local MemoryStore with keyword scoring.
//
// Search lowercases the query into keywords and scores each memory by the
// fraction of keywords it contains. Ties keep insertion order. An empty query
// returns the most recent memories.
type InMemoryStore struct {
	mu       sync.RWMutex
	seq      int
	storage  map[string]map[string]StoredMemory // userID -> memoryID -> memory
	ingested map[string]struct{}                // event ids added via AddSession
}

// NewInMemoryStore creates an empty memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		storage:  make(map[string]map[string]StoredMemory),
		ingested: make(map[string]struct{}),
	}
}

// AddSession ingests the final text events of a session. Events already
// ingested are skipped, so a session may be added after every turn.
func (m *InMemoryStore) AddSession(sess *core.Session) error {
	if sess == nil {
		return fmt.Errorf("nil session")
	}

	for _, ev := range sess.GetConversationHistory() {
		text := strings.TrimSpace(ev.Text())
		if text == "" || ev.IsError() {
			continue
		}

		m.mu.Lock()
		_, seen := m.ingested[ev.ID]
		if !seen {
			m.ingested[ev.ID] = struct{}{}
		}
		m.mu.Unlock()

		if seen {
			continue
		}

		if err := m.Store(sess.UserID, fmt.Sprintf("%s: %s", ev.Author, text), map[string]any{
			"app_name":   sess.AppName,
			"session_id": sess.ID,
			"author":     ev.Author,
			"timestamp":  ev.Timestamp,
		}); err != nil {
			return err
		}
	}

	return nil
}

// Store appends a memory for the user.
func (m *InMemoryStore) Store(userID, content string, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.storage[userID]; !exists {
		m.storage[userID] = make(map[string]StoredMemory)
	}

	m.seq++
	memoryID := fmt.Sprintf("mem_%d", m.seq)
	m.storage[userID][memoryID] = StoredMemory{ID: memoryID, Content: content, Metadata: metadata, seq: m.seq}

	return nil
}

// Search returns up to limit memories of the user ranked by keyword score.
func (m *InMemoryStore) Search(userID, query string, limit int) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keywords := tokenize(query)

	type scored struct {
		mem   StoredMemory
		score float64
	}

	var hits []scored
	for _, stored := range m.storage[userID] {
		if len(keywords) == 0 {
			hits = append(hits, scored{mem: stored, score: 1})
			continue
		}
		if s := score(stored.Content, keywords); s > 0 {
			hits = append(hits, scored{mem: stored, score: s})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if len(keywords) == 0 {
			return hits[i].mem.seq > hits[j].mem.seq
		}
		return hits[i].mem.seq < hits[j].mem.seq
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]core.SearchResult, 0, len(hits))
	for _, h := range hits {
		md := make(map[string]any, len(h.mem.Metadata))
		for k, v := range h.mem.Metadata {
			md[k] = v
		}
		results = append(results, core.SearchResult{ID: h.mem.ID, Content: h.mem.Content, Score: h.score, Metadata: md})
	}

	return results, nil
}

// Delete removes a stored memory entry by id.
func (m *InMemoryStore) Delete(userID, memoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.storage[userID][memoryID]; !exists {
		return fmt.Errorf("memory %s not found", memoryID)
	}

	delete(m.storage[userID], memoryID)

	return nil
}

// tokenize splits text into unique lowercase keywords of three or more runes.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}

	return out
}

func score(content string, keywords []string) float64 {
	lower := strings.ToLower(content)

	var matched int
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			matched++
		}
	}

	return float64(matched) / float64(len(keywords))
}
