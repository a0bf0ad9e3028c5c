package sqlite

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fittelligence/artifact"
	"github.com/hupe1980/fittelligence/core"
)

var _ core.ArtifactStore = (*Store)(nil)

var key = core.SessionKey{AppName: "head_coach_agent", UserID: "demo_client", SessionID: "session_1"}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test archive: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveGetOverwrite(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Save(key, "step-5-head_coach_agent.md", []byte("draft")))
	require.NoError(t, store.Save(key, "step-5-head_coach_agent.md", []byte("final program")))

	data, err := store.Get(key, "step-5-head_coach_agent.md")
	require.NoError(t, err)
	assert.Equal(t, "final program", string(data))

	_, err = store.Get(key, "missing.md")
	require.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestListAndDelete(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Save(key, "b.md", []byte("b")))
	require.NoError(t, store.Save(key, "a.md", []byte("a")))

	other := key
	other.AppName = "pt_agent"
	require.NoError(t, store.Save(other, "c.md", []byte("c")))

	names, err := store.List(key)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.md"}, names)

	require.NoError(t, store.Delete(key, "a.md"))
	if err := store.Delete(key, "a.md"); !errors.Is(err, artifact.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	names, err = store.List(key)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md"}, names)
}

func TestPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(key, "step-1-reception_agent.md", []byte("profile")))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	data, err := reopened.Get(key, "step-1-reception_agent.md")
	require.NoError(t, err)
	assert.Equal(t, "profile", string(data))
}

func TestSaveEmptyName(t *testing.T) {
	require.Error(t, setupTestStore(t).Save(key, "", []byte("x")))
}
