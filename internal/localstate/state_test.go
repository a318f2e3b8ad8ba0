package localstate

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoad_MissingFile(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	state, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, state.CurrentConversation)
	assert.Empty(t, state.Language)
}

func TestSaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	want := &State{CurrentConversation: "chats/0042", Language: "python"}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSave_Overwrites(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(&State{CurrentConversation: "chats/1"}))
	require.NoError(t, store.Save(&State{CurrentConversation: "chats/2", Language: "javascript"}))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "chats/2", got.CurrentConversation)
	assert.Equal(t, "javascript", got.Language)
}

func TestLoad_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte("{oops"), 0o644))

	_, err = store.Load()
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(&State{CurrentConversation: "chats/1"}))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear()) // idempotent

	state, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, state.CurrentConversation)
}

func TestSave_Concurrent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Save(&State{CurrentConversation: "chats/race", Language: "csharp"})
		}()
	}
	wg.Wait()

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "chats/race", got.CurrentConversation)
}
