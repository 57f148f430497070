/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package security

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HmacSha256 signs packets with a shared secret. The publisher is identified by the SHA-256 of the key.
type HmacSha256 struct {
	key       []byte
	keyDigest []byte
}

// NewHmacSha256 creates an HMAC signer for the given secret.
func NewHmacSha256(key []byte) *HmacSha256 {
	digest := sha256.Sum256(key)
	return &HmacSha256{
		key:       append([]byte(nil), key...),
		keyDigest: digest[:],
	}
}

// Type returns SignatureHmacWithSha256Type.
func (h *HmacSha256) Type() SignatureType {
	return SignatureHmacWithSha256Type
}

// KeyDigest returns the SHA-256 of the key.
func (h *HmacSha256) KeyDigest() []byte {
	return h.keyDigest
}

// Sign signs a buffer using HMAC-SHA256.
func (h *HmacSha256) Sign(buf []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, h.key)
	mac.Write(buf)
	return mac.Sum(nil), nil
}

// Validate returns whether the provided signature is valid for the provided buffer.
func (h *HmacSha256) Validate(buf []byte, signature []byte) bool {
	expected, _ := h.Sign(buf)
	return hmac.Equal(expected, signature)
}
