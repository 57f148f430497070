/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn_test

import (
	"testing"

	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/ndn/tlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLinks() []ndn.Link {
	return []ndn.Link{
		{Name: ndn.MustNameFromString("/a/b")},
		{Name: ndn.MustNameFromString("/c"), Label: "cee", Publisher: []byte{0x01, 0x02}},
		{Name: ndn.MustNameFromString("/d/v=3"), Digest: make([]byte, 32)},
	}
}

func TestCollectionRoundTrip(t *testing.T) {
	for _, links := range [][]ndn.Link{nil, sampleLinks()[:1], sampleLinks()} {
		c := ndn.NewCollection(links...)
		decoded, err := ndn.DecodeCollection(c.Encode())
		require.NoError(t, err)
		assert.True(t, c.Equals(decoded), c.String())
		assert.Equal(t, c.Hash(), decoded.Hash())
		assert.Equal(t, len(links), decoded.Size())
	}
}

func TestCollectionMutation(t *testing.T) {
	c := ndn.NewCollection()
	links := sampleLinks()
	c.Add(links...)
	assert.Equal(t, 3, c.Size())
	assert.True(t, c.Get(1).Equals(links[1]))

	removed, err := c.Remove(0)
	require.NoError(t, err)
	assert.True(t, removed.Equals(links[0]))
	assert.Equal(t, 2, c.Size())
	_, err = c.Remove(5)
	assert.Error(t, err)

	assert.True(t, c.RemoveLink(links[2]))
	assert.False(t, c.RemoveLink(links[2]))
	assert.Equal(t, 1, c.Size())

	c.RemoveAll()
	assert.Equal(t, 0, c.Size())
	assert.True(t, c.Equals(ndn.NewCollection()))
}

func TestCollectionEqualityIsOrdered(t *testing.T) {
	links := sampleLinks()
	a := ndn.NewCollection(links[0], links[1])
	b := ndn.NewCollection(links[1], links[0])
	assert.False(t, a.Equals(b))
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.True(t, a.Equals(ndn.NewCollection(sampleLinks()[:2]...)))
}

func TestCollectionDecodeMalformed(t *testing.T) {
	for _, wire := range [][]byte{
		{},
		{tlv.Collection, 0x02, 0x01},
		{tlv.Name, 0x00},
		{tlv.Collection, 0x02, tlv.Name, 0x00},
		{tlv.Collection, 0x02, tlv.Link, 0x00},
		{tlv.Collection, 0x05, tlv.Link, 0x03, tlv.LinkLabel, 0x01, 'x'},
		{tlv.Collection, 0x00, 0x00},
	} {
		_, err := ndn.DecodeCollection(wire)
		assert.ErrorIs(t, err, ndn.ErrMalformedEncoding, "%x", wire)
	}
}
