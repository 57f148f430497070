/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package security_test

import (
	"crypto/subtle"
	"encoding/hex"
	"testing"

	"github.com/named-data/ndnrepo/ndn/security"
	"github.com/stretchr/testify/assert"
)

func TestDigestSha256Sign(t *testing.T) {
	// https://www.di-mgt.com.au/sha_testvectors.html
	buf := []byte("abcdbcdecdefdefgefghfghighijhijkijkljklmklmnlmnomnopnopq")
	ref, _ := hex.DecodeString("248d6a61d20638b8e5c026930c3e6039a33ce45964ff2167f6ecedd419db06c1")

	var signer security.DigestSha256
	sig, e := signer.Sign(buf)
	assert.NoError(t, e)
	assert.Equal(t, 1, subtle.ConstantTimeCompare(sig, ref))
	assert.Nil(t, signer.KeyDigest())
}

func TestDigestSha256Verify(t *testing.T) {
	buf := []byte{}
	ref, _ := hex.DecodeString("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
	wrongA := ref[1:]
	wrongB := append([]byte{0x00}, ref...)
	wrongC := append([]byte{}, ref...)
	wrongC[4] ^= 0x01

	var signer security.DigestSha256
	assert.True(t, signer.Validate(buf, ref))
	assert.False(t, signer.Validate(buf, wrongA))
	assert.False(t, signer.Validate(buf, wrongB))
	assert.False(t, signer.Validate(buf, wrongC))

	ok, err := security.Verify(security.DigestSha256Type, buf, ref, nil)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestHmacSha256(t *testing.T) {
	// RFC 4231 test case 2
	signer := security.NewHmacSha256([]byte("Jefe"))
	ref, _ := hex.DecodeString("5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843")
	sig, err := signer.Sign([]byte("what do ya want for nothing?"))
	assert.NoError(t, err)
	assert.Equal(t, ref, sig)
	assert.Equal(t, 32, len(signer.KeyDigest()))

	ok, err := security.Verify(security.SignatureHmacWithSha256Type, []byte("what do ya want for nothing?"), sig, signer)
	assert.NoError(t, err)
	assert.True(t, ok)

	other := security.NewHmacSha256([]byte("other"))
	assert.False(t, other.Validate([]byte("what do ya want for nothing?"), sig))

	_, err = security.Verify(security.SignatureHmacWithSha256Type, nil, sig, nil)
	assert.ErrorIs(t, err, security.ErrUnsupportedSignature)
}
