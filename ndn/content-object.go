/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/named-data/ndnrepo/ndn/security"
	"github.com/named-data/ndnrepo/ndn/tlv"
)

// ContentType is the type of a content object payload.
type ContentType uint64

// Content types.
const (
	ContentTypeBlob ContentType = 0
	ContentTypeLink ContentType = 1
	ContentTypeKey  ContentType = 2
	ContentTypeNack ContentType = 3
	// ContentTypeGone marks a tombstone: the name was deliberately deleted.
	ContentTypeGone ContentType = 4
)

func (t ContentType) String() string {
	switch t {
	case ContentTypeBlob:
		return "Blob"
	case ContentTypeLink:
		return "Link"
	case ContentTypeKey:
		return "Key"
	case ContentTypeNack:
		return "Nack"
	case ContentTypeGone:
		return "Gone"
	}
	return "ContentType(" + strconv.FormatUint(uint64(t), 10) + ")"
}

// MetaInfo describes a content object payload.
type MetaInfo struct {
	ContentType     ContentType
	FreshnessPeriod time.Duration
	FinalBlockID    *Component
	// SigningTime is recorded in the signature info. Zero means now.
	SigningTime time.Time
}

// ContentObject is an immutable named, signed unit of data. Slices returned by accessors are shared and must not be modified.
type ContentObject struct {
	name        Name
	meta        MetaInfo
	content     []byte
	sigType     security.SignatureType
	keyDigest   []byte
	signingTime time.Time
	sigValue    []byte

	wire   []byte
	digest []byte
}

// NewContentObject creates and signs a content object.
func NewContentObject(name Name, meta MetaInfo, content []byte, signer security.Signer) (*ContentObject, error) {
	if signer == nil {
		return nil, ErrUnsigned
	}
	signingTime := meta.SigningTime
	if signingTime.IsZero() {
		signingTime = time.Now()
	}
	meta.SigningTime = time.Time{}

	c := &ContentObject{
		name:        name,
		meta:        meta,
		content:     bytes.Clone(content),
		sigType:     signer.Type(),
		keyDigest:   bytes.Clone(signer.KeyDigest()),
		signingTime: time.UnixMilli(signingTime.UnixMilli()),
	}

	signed := c.signedPortion()
	var buf bytes.Buffer
	for _, b := range signed {
		buf.Write(b.Wire())
	}
	sig, err := signer.Sign(buf.Bytes())
	if err != nil {
		return nil, err
	}
	c.sigValue = sig

	block := tlv.NewNestedBlock(tlv.ContentObject, signed...)
	block.Append(tlv.NewBlock(tlv.SignatureValue, c.sigValue))
	c.setWire(block.Wire())
	return c, nil
}

func (c *ContentObject) setWire(wire []byte) {
	c.wire = wire
	digest := sha256.Sum256(wire)
	c.digest = digest[:]
}

func (c *ContentObject) signedPortion() []*tlv.Block {
	metaInfo := tlv.NewEmptyBlock(tlv.MetaInfo)
	if c.meta.ContentType != ContentTypeBlob {
		metaInfo.Append(tlv.EncodeNNIBlock(tlv.ContentType, uint64(c.meta.ContentType)))
	}
	if c.meta.FreshnessPeriod > 0 {
		metaInfo.Append(tlv.EncodeNNIBlock(tlv.FreshnessPeriod, uint64(c.meta.FreshnessPeriod.Milliseconds())))
	}
	if c.meta.FinalBlockID != nil {
		metaInfo.Append(tlv.NewNestedBlock(tlv.FinalBlockID, c.meta.FinalBlockID.Encode()))
	}

	sigInfo := tlv.NewNestedBlock(tlv.SignatureInfo, tlv.EncodeNNIBlock(tlv.SignatureType, uint64(c.sigType)))
	if c.keyDigest != nil {
		sigInfo.Append(tlv.NewNestedBlock(tlv.KeyLocator, tlv.NewBlock(tlv.KeyDigest, c.keyDigest)))
	}
	sigInfo.Append(tlv.EncodeNNIBlock(tlv.SignatureTime, uint64(c.signingTime.UnixMilli())))

	return []*tlv.Block{c.name.Encode(), metaInfo, tlv.NewBlock(tlv.Content, c.content), sigInfo}
}

// DecodeContentObject decodes a content object from the wire.
func DecodeContentObject(wire *tlv.Block) (*ContentObject, error) {
	if wire == nil || wire.Type() != tlv.ContentObject {
		return nil, fmt.Errorf("%w: not a ContentObject", ErrMalformedEncoding)
	}
	if err := wire.Parse(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}

	c := new(ContentObject)
	mostRecentElem := 0
	for _, elem := range wire.Subelements() {
		var err error
		switch elem.Type() {
		case tlv.Name:
			if mostRecentElem >= 1 {
				return nil, fmt.Errorf("%w: Name is duplicate or out-of-order", ErrMalformedEncoding)
			}
			mostRecentElem = 1
			c.name, err = DecodeName(elem)
		case tlv.MetaInfo:
			if mostRecentElem >= 2 {
				return nil, fmt.Errorf("%w: MetaInfo is duplicate or out-of-order", ErrMalformedEncoding)
			}
			mostRecentElem = 2
			err = c.decodeMetaInfo(elem)
		case tlv.Content:
			if mostRecentElem >= 3 {
				return nil, fmt.Errorf("%w: Content is duplicate or out-of-order", ErrMalformedEncoding)
			}
			mostRecentElem = 3
			c.content = bytes.Clone(elem.Value())
		case tlv.SignatureInfo:
			if mostRecentElem >= 4 {
				return nil, fmt.Errorf("%w: SignatureInfo is duplicate or out-of-order", ErrMalformedEncoding)
			}
			mostRecentElem = 4
			err = c.decodeSignatureInfo(elem)
		case tlv.SignatureValue:
			if mostRecentElem != 4 {
				return nil, fmt.Errorf("%w: SignatureValue is duplicate or out-of-order", ErrMalformedEncoding)
			}
			mostRecentElem = 5
			c.sigValue = bytes.Clone(elem.Value())
		default:
			if tlv.IsCritical(elem.Type()) {
				return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, tlv.ErrUnrecognizedCritical)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	if mostRecentElem < 1 {
		return nil, fmt.Errorf("%w: ContentObject is missing Name", ErrMalformedEncoding)
	}
	if mostRecentElem != 5 {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, ErrUnsigned)
	}

	c.setWire(bytes.Clone(wire.Wire()))
	return c, nil
}

// DecodeContentObjectWire decodes a content object from a byte slice holding exactly one packet.
func DecodeContentObjectWire(wire []byte) (*ContentObject, error) {
	block, n, err := tlv.DecodeBlock(wire)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	if n != len(wire) {
		return nil, fmt.Errorf("%w: trailing bytes after ContentObject", ErrMalformedEncoding)
	}
	return DecodeContentObject(block)
}

func (c *ContentObject) decodeMetaInfo(elem *tlv.Block) error {
	if err := elem.Parse(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	for _, field := range elem.Subelements() {
		switch field.Type() {
		case tlv.ContentType:
			v, err := tlv.DecodeNNIBlock(field)
			if err != nil {
				return fmt.Errorf("%w: error decoding ContentType", ErrMalformedEncoding)
			}
			c.meta.ContentType = ContentType(v)
		case tlv.FreshnessPeriod:
			v, err := tlv.DecodeNNIBlock(field)
			if err != nil {
				return fmt.Errorf("%w: error decoding FreshnessPeriod", ErrMalformedEncoding)
			}
			c.meta.FreshnessPeriod = time.Duration(v) * time.Millisecond
		case tlv.FinalBlockID:
			if err := field.Parse(); err != nil || len(field.Subelements()) != 1 ||
				field.Subelements()[0].Type() != tlv.GenericNameComponent {
				return fmt.Errorf("%w: error decoding FinalBlockID", ErrMalformedEncoding)
			}
			final := NewComponent(field.Subelements()[0].Value())
			c.meta.FinalBlockID = &final
		default:
			if tlv.IsCritical(field.Type()) {
				return fmt.Errorf("%w: %v", ErrMalformedEncoding, tlv.ErrUnrecognizedCritical)
			}
		}
	}
	return nil
}

func (c *ContentObject) decodeSignatureInfo(elem *tlv.Block) error {
	if err := elem.Parse(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	hasType := false
	for _, field := range elem.Subelements() {
		switch field.Type() {
		case tlv.SignatureType:
			v, err := tlv.DecodeNNIBlock(field)
			if err != nil {
				return fmt.Errorf("%w: error decoding SignatureType", ErrMalformedEncoding)
			}
			c.sigType = security.SignatureType(v)
			hasType = true
		case tlv.KeyLocator:
			if err := field.Parse(); err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
			}
			if keyDigest := field.Find(tlv.KeyDigest); keyDigest != nil {
				c.keyDigest = bytes.Clone(keyDigest.Value())
			}
		case tlv.SignatureTime:
			v, err := tlv.DecodeNNIBlock(field)
			if err != nil {
				return fmt.Errorf("%w: error decoding SignatureTime", ErrMalformedEncoding)
			}
			c.signingTime = time.UnixMilli(int64(v))
		}
	}
	if !hasType {
		return fmt.Errorf("%w: SignatureInfo is missing SignatureType", ErrMalformedEncoding)
	}
	return nil
}

func (c *ContentObject) String() string {
	return "ContentObject(Name=" + c.name.String() +
		", Type=" + c.meta.ContentType.String() +
		", Digest=" + hex.EncodeToString(c.digest[:4]) + ")"
}

// Name returns the name of the content object.
func (c *ContentObject) Name() Name {
	return c.name
}

// FullName returns the name with the implicit digest rendered as its last component.
func (c *ContentObject) FullName() string {
	return c.name.String() + "/sha256digest=" + hex.EncodeToString(c.digest)
}

// MetaInfo returns the payload description.
func (c *ContentObject) MetaInfo() MetaInfo {
	meta := c.meta
	meta.SigningTime = c.signingTime
	return meta
}

// ContentType returns the payload type.
func (c *ContentObject) ContentType() ContentType {
	return c.meta.ContentType
}

// IsGone returns whether this is a tombstone.
func (c *ContentObject) IsGone() bool {
	return c.meta.ContentType == ContentTypeGone
}

// Content returns the payload.
func (c *ContentObject) Content() []byte {
	return c.content
}

// Publisher returns the key digest of the signer, or nil for keyless signatures.
func (c *ContentObject) Publisher() []byte {
	return c.keyDigest
}

// SignatureType returns the signature type.
func (c *ContentObject) SignatureType() security.SignatureType {
	return c.sigType
}

// SignatureValue returns the signature.
func (c *ContentObject) SignatureValue() []byte {
	return c.sigValue
}

// Digest returns the SHA-256 of the full encoding, used for exact-match selection.
func (c *ContentObject) Digest() []byte {
	return c.digest
}

// Wire returns the encoding of the content object.
func (c *ContentObject) Wire() []byte {
	return c.wire
}

// Verify checks the signature. Keyed signatures need the publisher's signer.
func (c *ContentObject) Verify(keyed security.Signer) (bool, error) {
	block, _, err := tlv.DecodeBlock(c.wire)
	if err != nil {
		return false, err
	}
	if err = block.Parse(); err != nil {
		return false, err
	}

	var buf bytes.Buffer
	for _, elem := range block.Subelements() {
		if elem.Type() == tlv.SignatureValue {
			break
		}
		buf.Write(elem.Wire())
	}
	return security.Verify(c.sigType, buf.Bytes(), c.sigValue, keyed)
}
