package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStoreCRUDAndReplay verifies basic operations and WAL replay.
func TestStoreCRUDAndReplay(t *testing.T) {
	dataDir := t.TempDir()

	s, err := New(dataDir)
	require.NoError(t, err)

	require.NoError(t, s.Put("metadata:a", []byte(`{"name":"a"}`)))
	got, ok := s.Get("metadata:a")
	require.True(t, ok)
	assert.Equal(t, `{"name":"a"}`, string(got))

	require.NoError(t, s.Put("metadata:b", []byte("b")))
	require.NoError(t, s.Put("other:c", []byte("c")))
	assert.Equal(t, []string{"metadata:a", "metadata:b"}, s.Keys("metadata:"))
	assert.Len(t, s.Keys(""), 3)

	require.NoError(t, s.Delete("metadata:a"))
	_, ok = s.Get("metadata:a")
	assert.False(t, ok)

	require.NoError(t, s.Close())

	s2, err := New(dataDir)
	require.NoError(t, err)
	defer s2.Close()

	_, ok = s2.Get("metadata:a")
	assert.False(t, ok, "deleted key came back after replay")
	v, ok := s2.Get("metadata:b")
	require.True(t, ok)
	assert.Equal(t, "b", string(v))
	assert.Equal(t, []string{"metadata:b", "other:c"}, s2.Keys(""))
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	val := []byte("value")
	require.NoError(t, s.Put("k", val))
	val[0] = 'X'

	got, _ := s.Get("k")
	got[1] = 'Y'

	again, _ := s.Get("k")
	assert.Equal(t, "value", string(again))
}

func TestStoreEmptyKey(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Put("", []byte("x")), ErrEmptyKey)
	assert.ErrorIs(t, s.Delete(""), ErrEmptyKey)
}

func TestStoreCorruptWAL(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, walFileName), []byte("not-json\n"), 0o644))

	_, err := New(dataDir)
	assert.Error(t, err)
}

func TestStoreUnknownWALOp(t *testing.T) {
	dataDir := t.TempDir()
	line := `{"op":"truncate","key":"k"}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, walFileName), []byte(line), 0o644))

	_, err := New(dataDir)
	assert.ErrorContains(t, err, "unknown op")
}

func TestStoreCloseTwiceAndWriteAfterClose(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Put("k", []byte("v")), ErrClosed)
}

// TestStoreConcurrentAccess is meant to be run with -race.
func TestStoreConcurrentAccess(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	const writers, perWriter = 4, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := s.Put(fmt.Sprintf("metadata:%d-%d", id, i), []byte("v")); err != nil {
					t.Errorf("Put() error = %v", err)
					return
				}
				for _, k := range s.Keys("metadata:") {
					_, _ = s.Get(k)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, s.Keys("metadata:"), writers*perWriter)
}
