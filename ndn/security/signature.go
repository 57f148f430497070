/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package security

import "errors"

// SignatureType represents the type of a signature.
type SignatureType uint64

// The various possible values of SignatureType.
const (
	DigestSha256Type             SignatureType = 0
	SignatureSha256WithRsaType   SignatureType = 1
	SignatureSha256WithEcdsaType SignatureType = 3
	SignatureHmacWithSha256Type  SignatureType = 4
)

// ErrUnsupportedSignature is returned when no signer is known for a signature type.
var ErrUnsupportedSignature = errors.New("unsupported signature type")

// Signer represents an implementation of a signature type.
type Signer interface {
	// Type returns the signature type written into signed packets.
	Type() SignatureType
	// KeyDigest identifies the publisher's key, or is nil for keyless signatures.
	KeyDigest() []byte
	Sign(buffer []byte) ([]byte, error)
	Validate(buffer []byte, signature []byte) bool
}

func (t SignatureType) String() string {
	switch t {
	case DigestSha256Type:
		return "DigestSha256"
	case SignatureSha256WithRsaType:
		return "SignatureSha256WithRsa"
	case SignatureSha256WithEcdsaType:
		return "SignatureSha256WithEcdsa"
	case SignatureHmacWithSha256Type:
		return "SignatureHmacWithSha256"
	}
	return "Unknown"
}

// Verify checks signature against buffer with the signer matching signatureType.
// Keyless signatures are checked directly; keyed ones need the publisher's signer.
func Verify(signatureType SignatureType, buffer []byte, signature []byte, keyed Signer) (bool, error) {
	switch signatureType {
	case DigestSha256Type:
		var signer DigestSha256
		return signer.Validate(buffer, signature), nil
	case SignatureHmacWithSha256Type:
		if keyed == nil || keyed.Type() != SignatureHmacWithSha256Type {
			return false, ErrUnsupportedSignature
		}
		return keyed.Validate(buffer, signature), nil
	default:
		return false, ErrUnsupportedSignature
	}
}
