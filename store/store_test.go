// ABOUTME: Tests for JSON blob helpers and the in-memory backend
// ABOUTME: Verifies corrupt blobs are dropped instead of failing the load
package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKV struct {
	*Memory
	getErr error
	setErr error
}

func (f *failingKV) Get(key []byte) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Memory.Get(key)
}

func (f *failingKV) Set(key, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Memory.Set(key, value)
}

func TestMemoryGetSetDelete(t *testing.T) {
	m := NewMemory()

	_, err := m.Get([]byte("missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set([]byte("k"), []byte("v")))
	got, err := m.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	keys, err := m.Keys()
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	require.NoError(t, m.Delete([]byte("k")))
	_, err = m.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set([]byte("k"), value))
	value[0] = 'z'

	got, err := m.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSaveAndLoadJSON(t *testing.T) {
	m := NewMemory()
	in := []string{"a", "b"}
	require.NoError(t, SaveJSON(m, KeyVisits, in))

	var out []string
	assert.True(t, LoadJSON(m, KeyVisits, &out, nil))
	assert.Equal(t, in, out)
}

func TestLoadJSONMissing(t *testing.T) {
	var out []string
	assert.False(t, LoadJSON(NewMemory(), KeyVisits, &out, nil))
	assert.Nil(t, out)
	assert.False(t, LoadJSON(nil, KeyVisits, &out, nil))
}

func TestLoadJSONCorruptIsDiscarded(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set([]byte(KeyContacts), []byte("{not json")))

	var out []string
	assert.False(t, LoadJSON(m, KeyContacts, &out, nil))

	_, err := m.Get([]byte(KeyContacts))
	assert.ErrorIs(t, err, ErrNotFound, "corrupt key should be removed")
}

func TestLoadJSONTypeErrorLeavesTargetUntouched(t *testing.T) {
	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	m := NewMemory()
	require.NoError(t, m.Set([]byte(KeyVisits), []byte(`[{"name":"a","count":1},{"name":"b","count":"two"}]`)))

	var out []record
	assert.False(t, LoadJSON(m, KeyVisits, &out, nil))
	assert.Nil(t, out)

	existing := []record{{Name: "kept", Count: 9}}
	require.NoError(t, m.Set([]byte(KeyVisits), []byte(`[{"name":"x","count":"bad"}]`)))
	assert.False(t, LoadJSON(m, KeyVisits, &existing, nil))
	assert.Equal(t, []record{{Name: "kept", Count: 9}}, existing)

	_, err := m.Get([]byte(KeyVisits))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadJSONRejectsNonPointer(t *testing.T) {
	m := NewMemory()
	require.NoError(t, SaveJSON(m, KeyVisits, []string{"a"}))

	var out []string
	assert.False(t, LoadJSON(m, KeyVisits, out, nil))

	// The blob is fine; only the call was wrong
	_, err := m.Get([]byte(KeyVisits))
	assert.NoError(t, err)
}

func TestLoadJSONReadError(t *testing.T) {
	kv := &failingKV{Memory: NewMemory(), getErr: errors.New("disk gone")}
	var out []string
	assert.False(t, LoadJSON(kv, KeyDeals, &out, nil))
}

func TestSaveJSONWriteError(t *testing.T) {
	kv := &failingKV{Memory: NewMemory(), setErr: errors.New("read only")}
	err := SaveJSON(kv, KeyDeals, []int{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyDeals)
}

func TestStringHelpers(t *testing.T) {
	m := NewMemory()

	v, err := LoadString(m, KeyActiveSessionID)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, SaveString(m, KeyActiveSessionID, "V-123"))
	v, err = LoadString(m, KeyActiveSessionID)
	require.NoError(t, err)
	assert.Equal(t, "V-123", v)

	require.NoError(t, SaveString(m, KeyActiveSessionID, ""))
	_, err = m.Get([]byte(KeyActiveSessionID))
	assert.ErrorIs(t, err, ErrNotFound)
}
