package table_test

import (
	"bytes"
	"crypto/sha256"
	"slices"
	"testing"

	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digestOf(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

func TestRecordKeyRoundTrip(t *testing.T) {
	name := ndn.NewName(ndn.NewStringComponent("a"), ndn.NewComponent([]byte{0x00, 0xFF, 0x00}), ndn.NewComponent(nil), ndn.NewVersionComponent(7))
	digest := digestOf("x")

	decoded, decodedDigest, err := table.DecodeRecordKey(table.RecordKey(name, digest))
	require.NoError(t, err)
	assert.True(t, decoded.Equals(name))
	assert.Equal(t, digest, decodedDigest)
}

func TestRecordKeyOrderMatchesCanonicalOrder(t *testing.T) {
	names := []ndn.Name{
		ndn.MustNameFromString("/"),
		ndn.MustNameFromString("/a"),
		ndn.MustNameFromString("/a/b"),
		ndn.NewName(ndn.NewStringComponent("a"), ndn.NewComponent([]byte{0x00})),
		ndn.MustNameFromString("/a/c"),
		ndn.NewName(ndn.NewComponent([]byte("a\x00"))),
		ndn.MustNameFromString("/ab"),
		ndn.MustNameFromString("/b"),
		ndn.NewName(ndn.NewVersionComponent(1)),
		ndn.NewName(ndn.NewVersionComponent(256)),
	}

	sorted := slices.Clone(names)
	slices.SortFunc(sorted, ndn.Name.Compare)

	byKey := slices.Clone(names)
	slices.SortFunc(byKey, func(a, b ndn.Name) int {
		return bytes.Compare(table.RecordKey(a, digestOf("d")), table.RecordKey(b, digestOf("d")))
	})

	for i := range sorted {
		assert.True(t, sorted[i].Equals(byKey[i]), "position %d: %s != %s", i, sorted[i], byKey[i])
	}
}

func TestPrefixKeyCoversExactlyTheSubtree(t *testing.T) {
	prefix := table.PrefixKey(ndn.MustNameFromString("/a"))

	assert.True(t, bytes.HasPrefix(table.RecordKey(ndn.MustNameFromString("/a"), digestOf("1")), prefix))
	assert.True(t, bytes.HasPrefix(table.RecordKey(ndn.MustNameFromString("/a/b/c"), digestOf("1")), prefix))
	assert.False(t, bytes.HasPrefix(table.RecordKey(ndn.MustNameFromString("/ab"), digestOf("1")), prefix))
	assert.False(t, bytes.HasPrefix(table.RecordKey(ndn.NewName(ndn.NewComponent([]byte("a\x00"))), digestOf("1")), prefix))

	nameKey := table.NameKey(ndn.MustNameFromString("/a"))
	assert.False(t, bytes.HasPrefix(table.RecordKey(ndn.MustNameFromString("/a/b"), digestOf("1")), nameKey))
}

func TestDecodeRecordKeyCorrupt(t *testing.T) {
	for _, key := range [][]byte{
		{'a'},
		{'a', 0x00},
		{'a', 0x00, 0x07},
		append([]byte{'a', 0x00, 0x01, 0x00, 0x00}, 1, 2, 3),
	} {
		_, _, err := table.DecodeRecordKey(key)
		assert.ErrorIs(t, err, table.ErrStoreCorruption)
	}
}
