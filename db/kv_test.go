// ABOUTME: Tests for the SQLite key-value store
// ABOUTME: Covers upsert semantics, not-found mapping, and reopen durability
package db

import (
	"path/filepath"
	"testing"

	"github.com/harperreed/workly/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupKV(t *testing.T) (*KVStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kv.db")
	database, err := OpenDatabase(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewKVStore(database), path
}

func TestKVStoreGetMissing(t *testing.T) {
	kv, _ := setupKV(t)
	_, err := kv.Get([]byte("missing"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestKVStoreUpsert(t *testing.T) {
	kv, _ := setupKV(t)

	require.NoError(t, kv.Set([]byte("k"), []byte("one")))
	require.NoError(t, kv.Set([]byte("k"), []byte("two")))

	v, err := kv.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(v))

	keys, err := kv.Keys()
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestKVStoreDelete(t *testing.T) {
	kv, _ := setupKV(t)

	require.NoError(t, kv.Set([]byte("k"), []byte("v")))
	require.NoError(t, kv.Delete([]byte("k")))
	require.NoError(t, kv.Delete([]byte("never-set")))

	_, err := kv.Get([]byte("k"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestKVStoreSurvivesReopen(t *testing.T) {
	kv, path := setupKV(t)
	require.NoError(t, store.SaveJSON(kv, store.KeyVisits, []string{"a"}))

	database, err := OpenDatabase(path)
	require.NoError(t, err)
	defer database.Close()

	var out []string
	assert.True(t, store.LoadJSON(NewKVStore(database), store.KeyVisits, &out, nil))
	assert.Equal(t, []string{"a"}, out)
}
