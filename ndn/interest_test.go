/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn_test

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/ndn/security"
	"github.com/named-data/ndnrepo/ndn/tlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func comp(s string) ndn.Component {
	return ndn.NewStringComponent(s)
}

func TestInterestCreate(t *testing.T) {
	i := ndn.NewInterest(ndn.MustNameFromString("/go/ndn"))
	assert.Equal(t, 4, len(i.Nonce()))
	assert.Equal(t, ndn.OrderAny, i.Order())
	_, hasMax := i.MaxSuffixComponents()
	assert.False(t, hasMax)
	assert.Equal(t, time.Duration(0), i.Lifetime())
	assert.Equal(t, "Interest(Name=/go/ndn, Nonce=0x"+hex.EncodeToString(i.Nonce())+")", i.String())

	j := i.With(ndn.WithOrder(ndn.OrderRightmost), ndn.WithLifetime(time.Second))
	assert.Equal(t, ndn.OrderAny, i.Order())
	assert.Equal(t, ndn.OrderRightmost, j.Order())
	assert.Equal(t, time.Second, j.Lifetime())
	assert.Equal(t, i.Nonce(), j.Nonce())
}

func TestInterestEncodeDecode(t *testing.T) {
	digest := make([]byte, 32)
	digest[0] = 0xAB
	i := ndn.NewInterest(ndn.MustNameFromString("/a/b"),
		ndn.WithOrder(ndn.OrderLeftmost),
		ndn.WithMinSuffixComponents(1),
		ndn.WithMaxSuffixComponents(2),
		ndn.WithPublisher([]byte{0x01, 0x02}),
		ndn.WithExclude(ndn.ExcludeRange(comp("c"), comp("f"))),
		ndn.WithContentDigest(digest),
		ndn.WithNonce([]byte{0x01, 0x02, 0x03, 0x04}),
		ndn.WithLifetime(1500*time.Millisecond))

	block, _, err := tlv.DecodeBlock(i.Encode().Wire())
	require.NoError(t, err)
	d, err := ndn.DecodeInterest(block)
	require.NoError(t, err)

	assert.True(t, d.Name().Equals(i.Name()))
	assert.Equal(t, digest, d.ContentDigest())
	assert.Equal(t, ndn.OrderLeftmost, d.Order())
	minSuffix, _ := d.MinSuffixComponents()
	maxSuffix, _ := d.MaxSuffixComponents()
	assert.Equal(t, 1, minSuffix)
	assert.Equal(t, 2, maxSuffix)
	assert.Equal(t, []byte{0x01, 0x02}, d.PublisherDigest())
	assert.Equal(t, "c,*,f", d.Exclude().String())
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, d.Nonce())
	assert.Equal(t, 1500*time.Millisecond, d.Lifetime())
	assert.Equal(t, i.ID(), d.ID())
}

func TestInterestDecodeRejects(t *testing.T) {
	// Nonce before Name
	_, err := ndn.DecodeInterest(tlv.NewBlock(tlv.Interest, []byte{
		tlv.Nonce, 0x04, 0x01, 0x02, 0x03, 0x04,
		tlv.Name, 0x03, tlv.GenericNameComponent, 0x01, 0x61}))
	assert.ErrorIs(t, err, ndn.ErrMalformedEncoding)

	// Unknown critical element
	_, err = ndn.DecodeInterest(tlv.NewBlock(tlv.Interest, []byte{
		tlv.Name, 0x03, tlv.GenericNameComponent, 0x01, 0x61,
		0x1F, 0x00}))
	assert.ErrorIs(t, err, ndn.ErrMalformedEncoding)

	// Unknown non-critical element is ignored
	i, err := ndn.DecodeInterest(tlv.NewBlock(tlv.Interest, []byte{
		tlv.Name, 0x03, tlv.GenericNameComponent, 0x01, 0x61,
		0xFD, 0x00, 0xF0, 0x00}))
	require.NoError(t, err)
	assert.Equal(t, "/a", i.Name().String())

	// Missing Name
	_, err = ndn.DecodeInterest(tlv.NewBlock(tlv.Interest, []byte{tlv.Nonce, 0x04, 0x01, 0x02, 0x03, 0x04}))
	assert.ErrorIs(t, err, ndn.ErrMalformedEncoding)

	// Bad ChildSelector
	_, err = ndn.DecodeInterest(tlv.NewBlock(tlv.Interest, []byte{
		tlv.Name, 0x00,
		tlv.Selectors, 0x03, tlv.ChildSelector, 0x01, 0x02}))
	assert.ErrorIs(t, err, ndn.ErrMalformedEncoding)
}

func TestInterestIDIgnoresNonce(t *testing.T) {
	name := ndn.MustNameFromString("/a")
	a := ndn.NewInterest(name, ndn.WithNonce([]byte{1, 1, 1, 1}))
	b := ndn.NewInterest(name, ndn.WithNonce([]byte{2, 2, 2, 2}))
	c := ndn.NewInterest(name, ndn.WithOrder(ndn.OrderRightmost))
	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestInterestMatchesName(t *testing.T) {
	i := ndn.NewInterest(ndn.MustNameFromString("/a"))
	assert.True(t, i.MatchesName(ndn.MustNameFromString("/a")))
	assert.True(t, i.MatchesName(ndn.MustNameFromString("/a/b/c")))
	assert.False(t, i.MatchesName(ndn.MustNameFromString("/b")))

	i = ndn.NewInterest(ndn.MustNameFromString("/a"), ndn.WithMaxSuffixComponents(1))
	assert.True(t, i.MatchesName(ndn.MustNameFromString("/a/b")))
	assert.False(t, i.MatchesName(ndn.MustNameFromString("/a/b/c")))

	i = ndn.NewInterest(ndn.MustNameFromString("/a"), ndn.WithMinSuffixComponents(1))
	assert.False(t, i.MatchesName(ndn.MustNameFromString("/a")))
	assert.True(t, i.MatchesName(ndn.MustNameFromString("/a/b")))

	i = ndn.NewInterest(ndn.MustNameFromString("/a"), ndn.WithExclude(ndn.ExcludeComponents(comp("b"))))
	assert.False(t, i.MatchesName(ndn.MustNameFromString("/a/b")))
	assert.False(t, i.MatchesName(ndn.MustNameFromString("/a/b/x")))
	assert.True(t, i.MatchesName(ndn.MustNameFromString("/a/c/b")))
	assert.True(t, i.MatchesName(ndn.MustNameFromString("/a")))
}

func TestInterestMatchesObject(t *testing.T) {
	signer := security.NewHmacSha256([]byte("key"))
	obj, err := ndn.NewContentObject(ndn.MustNameFromString("/a/b"), ndn.MetaInfo{}, []byte("1"), signer)
	require.NoError(t, err)

	assert.True(t, ndn.NewInterest(ndn.MustNameFromString("/a")).Matches(obj))
	assert.True(t, ndn.NewInterest(ndn.MustNameFromString("/a"), ndn.WithPublisher(signer.KeyDigest())).Matches(obj))
	assert.False(t, ndn.NewInterest(ndn.MustNameFromString("/a"), ndn.WithPublisher([]byte{1})).Matches(obj))
	assert.True(t, ndn.NewInterest(ndn.MustNameFromString("/a/b"), ndn.WithContentDigest(obj.Digest())).Matches(obj))
	assert.False(t, ndn.NewInterest(ndn.MustNameFromString("/a/b"), ndn.WithContentDigest(make([]byte, 32))).Matches(obj))
}

func TestParseOrder(t *testing.T) {
	o, err := ndn.ParseOrder("Rightmost")
	assert.NoError(t, err)
	assert.Equal(t, ndn.OrderRightmost, o)
	o, err = ndn.ParseOrder("")
	assert.NoError(t, err)
	assert.Equal(t, ndn.OrderAny, o)
	_, err = ndn.ParseOrder("middle")
	assert.Error(t, err)
}
