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

func TestExcludeComponents(t *testing.T) {
	e := ndn.ExcludeComponents(comp("c"), comp("a"), comp("c"))
	assert.Equal(t, "a,c", e.String())
	assert.True(t, e.Matches(comp("a")))
	assert.False(t, e.Matches(comp("b")))
	assert.True(t, e.Matches(comp("c")))
	assert.False(t, ndn.Exclude{}.Matches(comp("a")))
	assert.True(t, ndn.Exclude{}.IsEmpty())
}

func TestExcludeRanges(t *testing.T) {
	upTo := ndn.ExcludeUpTo(ndn.NewVersionComponent(5))
	assert.True(t, upTo.Matches(ndn.NewVersionComponent(0)))
	assert.True(t, upTo.Matches(ndn.NewVersionComponent(5)))
	assert.False(t, upTo.Matches(ndn.NewVersionComponent(6)))

	from := ndn.ExcludeFrom(comp("m"))
	assert.False(t, from.Matches(comp("l")))
	assert.True(t, from.Matches(comp("m")))
	assert.True(t, from.Matches(comp("zzz")))

	r := ndn.ExcludeRange(comp("c"), comp("f"))
	assert.False(t, r.Matches(comp("b")))
	assert.True(t, r.Matches(comp("c")))
	assert.True(t, r.Matches(comp("d")))
	assert.True(t, r.Matches(comp("f")))
	assert.False(t, r.Matches(comp("g")))
}

func TestExcludeDecode(t *testing.T) {
	e, err := ndn.DecodeExclude(tlv.NewBlock(tlv.Exclude, []byte{
		tlv.Any, 0x00,
		tlv.GenericNameComponent, 0x01, 'b',
		tlv.GenericNameComponent, 0x01, 'd',
		tlv.Any, 0x00}))
	require.NoError(t, err)
	assert.True(t, e.Matches(comp("a")))
	assert.True(t, e.Matches(comp("b")))
	assert.False(t, e.Matches(comp("c")))
	assert.True(t, e.Matches(comp("e")))

	_, err = ndn.DecodeExclude(tlv.NewBlock(tlv.Exclude, []byte{tlv.Any, 0x00, tlv.Any, 0x00}))
	assert.ErrorIs(t, err, ndn.ErrMalformedEncoding)

	_, err = ndn.DecodeExclude(tlv.NewBlock(tlv.Exclude, []byte{
		tlv.GenericNameComponent, 0x01, 'd',
		tlv.GenericNameComponent, 0x01, 'b'}))
	assert.ErrorIs(t, err, ndn.ErrMalformedEncoding)

	_, err = ndn.DecodeExclude(tlv.NewBlock(tlv.Exclude, []byte{0x20, 0x00}))
	assert.ErrorIs(t, err, ndn.ErrMalformedEncoding)
}
