package table_test

import (
	"testing"

	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/ndn/security"
	"github.com/named-data/ndnrepo/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newObject(t *testing.T, name string, content string, signer security.Signer) *ndn.ContentObject {
	obj, err := ndn.NewContentObject(ndn.MustNameFromString(name), ndn.MetaInfo{}, []byte(content), signer)
	require.NoError(t, err)
	return obj
}

func openStores(t *testing.T) map[string]*table.ContentStore {
	stores := make(map[string]*table.ContentStore)
	for kind, backend := range openBackends(t) {
		cs, err := table.NewContentStore(backend, table.StoreOptions{Compress: kind == "bolt", CacheSize: 16})
		require.NoError(t, err)
		stores[kind] = cs
	}
	uncached, err := table.NewContentStore(table.NewMemoryBackend(), table.StoreOptions{})
	require.NoError(t, err)
	stores["uncached"] = uncached
	return stores
}

func TestContentStoreSelection(t *testing.T) {
	for kind, cs := range openStores(t) {
		t.Run(kind, func(t *testing.T) {
			ab := newObject(t, "/a/b", "hello", security.DigestSha256{})
			ac := newObject(t, "/a/c", "world", security.DigestSha256{})
			for _, obj := range []*ndn.ContentObject{ac, ab} {
				stored, err := cs.Put(obj)
				require.NoError(t, err)
				assert.True(t, stored)
			}
			stored, err := cs.Put(ab)
			require.NoError(t, err)
			assert.False(t, stored)

			a := ndn.MustNameFromString("/a")
			got, err := cs.Get(ndn.NewInterest(a, ndn.WithOrder(ndn.OrderLeftmost)))
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "/a/b", got.Name().String())
			assert.Equal(t, []byte("hello"), got.Content())

			got, err = cs.Get(ndn.NewInterest(a, ndn.WithOrder(ndn.OrderRightmost)))
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "/a/c", got.Name().String())

			got, err = cs.Get(ndn.NewInterest(a))
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "/a/b", got.Name().String())

			got, err = cs.Get(ndn.NewInterest(a, ndn.WithOrder(ndn.OrderLeftmost),
				ndn.WithExclude(ndn.ExcludeComponents(ndn.NewStringComponent("b")))))
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "/a/c", got.Name().String())

			got, err = cs.Get(ndn.NewInterest(a, ndn.WithMaxSuffixComponents(0)))
			require.NoError(t, err)
			assert.Nil(t, got)

			got, err = cs.Get(ndn.NewInterest(ndn.MustNameFromString("/a/c"), ndn.WithContentDigest(ac.Digest())))
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, ac.Digest(), got.Digest())

			got, err = cs.Get(ndn.NewInterest(ndn.MustNameFromString("/a/c"), ndn.WithContentDigest(ab.Digest())))
			require.NoError(t, err)
			assert.Nil(t, got)

			got, err = cs.Get(ndn.NewInterest(ndn.MustNameFromString("/x")))
			require.NoError(t, err)
			assert.Nil(t, got)

			records, err := cs.Enumerate(a, 0)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "/a/b", records[0].Name.String())
			assert.Equal(t, ab.Digest(), records[0].Digest)

			n, err := cs.Len()
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			removed, err := cs.Remove(ndn.MustNameFromString("/a/b"))
			require.NoError(t, err)
			assert.Equal(t, 1, removed)
			got, err = cs.Get(ndn.NewInterest(a, ndn.WithOrder(ndn.OrderLeftmost)))
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "/a/c", got.Name().String())

			removed, err = cs.RemovePrefix(a)
			require.NoError(t, err)
			assert.Equal(t, 1, removed)
			n, err = cs.Len()
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		})
	}
}

func TestContentStoreTieBreak(t *testing.T) {
	cs, err := table.NewContentStore(table.NewMemoryBackend(), table.StoreOptions{})
	require.NoError(t, err)
	defer cs.Close()

	var objs []*ndn.ContentObject
	for _, key := range []string{"k1", "k2", "k3"} {
		obj := newObject(t, "/t/x", "same", security.NewHmacSha256([]byte(key)))
		objs = append(objs, obj)
		_, err = cs.Put(obj)
		require.NoError(t, err)
	}

	lowest, highest := objs[0], objs[0]
	for _, obj := range objs[1:] {
		if string(obj.Publisher()) < string(lowest.Publisher()) {
			lowest = obj
		}
		if string(obj.Publisher()) > string(highest.Publisher()) {
			highest = obj
		}
	}

	prefix := ndn.MustNameFromString("/t")
	for i := 0; i < 5; i++ {
		got, err := cs.Get(ndn.NewInterest(prefix, ndn.WithOrder(ndn.OrderLeftmost)))
		require.NoError(t, err)
		assert.Equal(t, lowest.Digest(), got.Digest())

		got, err = cs.Get(ndn.NewInterest(prefix, ndn.WithOrder(ndn.OrderRightmost)))
		require.NoError(t, err)
		assert.Equal(t, highest.Digest(), got.Digest())
	}

	got, err := cs.Get(ndn.NewInterest(prefix, ndn.WithPublisher(objs[1].Publisher())))
	require.NoError(t, err)
	assert.Equal(t, objs[1].Digest(), got.Digest())
}

func TestContentStoreCorruptRecord(t *testing.T) {
	backend := table.NewMemoryBackend()
	cs, err := table.NewContentStore(backend, table.StoreOptions{})
	require.NoError(t, err)
	defer cs.Close()

	obj := newObject(t, "/c/ok", "fine", security.DigestSha256{})
	_, err = backend.Put(table.RecordKey(obj.Name(), obj.Digest()), []byte{0x07, 0x01})
	require.NoError(t, err)

	_, err = cs.Get(ndn.NewInterest(ndn.MustNameFromString("/c")))
	assert.ErrorIs(t, err, table.ErrStoreCorruption)

	other := newObject(t, "/d/ok", "fine", security.DigestSha256{})
	_, err = backend.Put(table.RecordKey(other.Name(), obj.Digest()), append([]byte{0x00}, other.Wire()...))
	require.NoError(t, err)

	_, err = cs.Get(ndn.NewInterest(ndn.MustNameFromString("/d")))
	assert.ErrorIs(t, err, table.ErrStoreCorruption)
}
