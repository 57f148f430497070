/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tlv

// TLV types for NDN packets with selectors.
const (
	// Packet types
	Interest      = 0x05
	ContentObject = 0x06

	// Name and components
	Name                          = 0x07
	ImplicitSha256DigestComponent = 0x01
	GenericNameComponent          = 0x08

	// Interest packets
	Selectors        = 0x09
	Nonce            = 0x0a
	InterestLifetime = 0x0c

	// Interest/Selectors
	MinSuffixComponents = 0x0d
	MaxSuffixComponents = 0x0e
	PublisherDigest     = 0x0f
	Exclude             = 0x10
	ChildSelector       = 0x11
	MustBeFresh         = 0x12
	Any                 = 0x13

	// Content objects
	MetaInfo       = 0x14
	Content        = 0x15
	SignatureInfo  = 0x16
	SignatureValue = 0x17

	// ContentObject/MetaInfo
	ContentType     = 0x18
	FreshnessPeriod = 0x19
	FinalBlockID    = 0x1a

	// Signature
	SignatureType = 0x1b
	KeyLocator    = 0x1c
	KeyDigest     = 0x1d
	SignatureTime = 0x28

	// Collections
	Collection    = 0x80
	Link          = 0x81
	LinkLabel     = 0x83
	LinkPublisher = 0x85
	LinkDigest    = 0x87
)

// IsCritical returns whether a TLV type is critical.
func IsCritical(tlvType uint32) bool {
	if tlvType < 0x20 {
		return true
	}
	return tlvType&0x1 == 1
}
