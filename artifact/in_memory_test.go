package artifact

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/fittelligence/core"
)

var _ core.ArtifactStore = (*InMemoryStore)(nil)

var key = core.SessionKey{AppName: "pt_agent", UserID: "demo_client", SessionID: "session_1"}

func TestInMemoryStore_SaveGetIsolation(t *testing.T) {
	svc := NewInMemoryStore()
	data := []byte("week 1")
	if err := svc.Save(key, "step-3-pt_agent.md", data); err != nil {
		t.Fatalf("save: %v", err)
	}

	data[0] = 'W'
	out, err := svc.Get(key, "step-3-pt_agent.md")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(out) != "week 1" {
		t.Fatalf("expected 'week 1', got %q", string(out))
	}

	out[0] = 'x'
	out2, _ := svc.Get(key, "step-3-pt_agent.md")
	if string(out2) != "week 1" {
		t.Fatalf("expected isolation, got %q", string(out2))
	}
}

func TestInMemoryStore_ListAndDelete(t *testing.T) {
	svc := NewInMemoryStore()
	for _, name := range []string{"b.md", "a.md"} {
		if err := svc.Save(key, name, []byte(name)); err != nil {
			t.Fatal(err)
		}
	}

	names, err := svc.List(key)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "a.md" || names[1] != "b.md" {
		t.Fatalf("unexpected list: %v", names)
	}

	if err := svc.Delete(key, "a.md"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(key, "a.md"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(key, "a.md"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	other := key
	other.AppName = "nutrition_agent"
	names, _ = svc.List(other)
	if len(names) != 0 {
		t.Fatalf("expected no artifacts for other app, got %v", names)
	}
}

func TestInMemoryStore_EmptyName(t *testing.T) {
	if err := NewInMemoryStore().Save(key, "", nil); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	svc := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("step-%d.md", i)
			_ = svc.Save(key, name, []byte(name))
			_, _ = svc.Get(key, name)
		}(i)
	}
	wg.Wait()

	names, _ := svc.List(key)
	if len(names) != 50 {
		t.Fatalf("expected 50 artifacts, got %d", len(names))
	}
}
