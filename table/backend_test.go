package table_test

import (
	"path/filepath"
	"testing"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]table.Backend {
	dir := t.TempDir()
	backends := make(map[string]table.Backend)
	for kind, path := range map[string]string{
		core.BackendMemory: "",
		core.BackendBolt:   filepath.Join(dir, "repo.bolt"),
		core.BackendSqlite: filepath.Join(dir, "repo.sqlite"),
	} {
		backend, err := table.NewBackend(kind, path)
		require.NoError(t, err, kind)
		t.Cleanup(func() { backend.Close() })
		backends[kind] = backend
	}
	return backends
}

func scanKeys(t *testing.T, backend table.Backend, prefix string, reverse bool) []string {
	var keys []string
	err := backend.Scan([]byte(prefix), reverse, func(key []byte, _ []byte) (bool, error) {
		keys = append(keys, string(key))
		return true, nil
	})
	require.NoError(t, err)
	return keys
}

func TestBackends(t *testing.T) {
	for kind, backend := range openBackends(t) {
		t.Run(kind, func(t *testing.T) {
			for _, key := range []string{"b1", "a", "b2", "b\xff", "c", "b"} {
				stored, err := backend.Put([]byte(key), []byte("v-"+key))
				require.NoError(t, err)
				assert.True(t, stored)
			}

			stored, err := backend.Put([]byte("a"), []byte("other"))
			require.NoError(t, err)
			assert.False(t, stored)

			value, err := backend.Get([]byte("a"))
			require.NoError(t, err)
			assert.Equal(t, []byte("v-a"), value)

			value, err = backend.Get([]byte("missing"))
			require.NoError(t, err)
			assert.Nil(t, value)

			assert.Equal(t, []string{"b", "b1", "b2", "b\xff"}, scanKeys(t, backend, "b", false))
			assert.Equal(t, []string{"b\xff", "b2", "b1", "b"}, scanKeys(t, backend, "b", true))
			assert.Equal(t, []string{"c", "b\xff", "b2", "b1", "b", "a"}, scanKeys(t, backend, "", true))
			assert.Empty(t, scanKeys(t, backend, "z", true))

			var first []string
			require.NoError(t, backend.Scan([]byte("b"), true, func(key []byte, _ []byte) (bool, error) {
				first = append(first, string(key))
				return false, nil
			}))
			assert.Equal(t, []string{"b\xff"}, first)

			n, err := backend.Len()
			require.NoError(t, err)
			assert.Equal(t, 6, n)

			removed, err := backend.Delete([]byte("b1"), []byte("b2"), []byte("missing"))
			require.NoError(t, err)
			assert.Equal(t, 2, removed)
			assert.Equal(t, []string{"b", "b\xff"}, scanKeys(t, backend, "b", false))
		})
	}
}

func TestUnknownBackend(t *testing.T) {
	_, err := table.NewBackend("tape", "")
	assert.ErrorIs(t, err, table.ErrUnknownBackend)
}
