/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tlv

import (
	"bytes"
	"math"
)

// Block contains an encoded block.
// A block either carries a raw value or a list of subelements that form its value.
type Block struct {
	tlvType     uint32
	value       []byte
	subelements []*Block

	wire []byte
}

// NewEmptyBlock creates an empty block.
func NewEmptyBlock(tlvType uint32) *Block {
	return &Block{tlvType: tlvType}
}

// NewBlock creates a block containing the specified type and a copy of value.
func NewBlock(tlvType uint32, value []byte) *Block {
	return &Block{tlvType: tlvType, value: bytes.Clone(value)}
}

// NewNestedBlock creates a block whose value is made of the given subelements.
// Nil subelements are skipped, which allows optional fields to be passed directly.
func NewNestedBlock(tlvType uint32, subelements ...*Block) *Block {
	b := &Block{tlvType: tlvType}
	for _, elem := range subelements {
		if elem != nil {
			b.subelements = append(b.subelements, elem)
		}
	}
	return b
}

// Type returns the type of the block.
func (b *Block) Type() uint32 {
	return b.tlvType
}

// Value returns the value contained in the block.
func (b *Block) Value() []byte {
	if len(b.subelements) > 0 && b.value == nil {
		var buf bytes.Buffer
		for _, elem := range b.subelements {
			buf.Write(elem.Wire())
		}
		b.value = buf.Bytes()
	}
	return b.value
}

// Subelements returns the sub-elements of the block.
func (b *Block) Subelements() []*Block {
	return b.subelements
}

// Append appends a subelement onto the end of the block's value.
func (b *Block) Append(block *Block) {
	if block == nil {
		return
	}
	b.subelements = append(b.subelements, block)
	b.value = nil
	b.wire = nil
}

// Find returns the first subelement of the specified type, or nil if none exists.
func (b *Block) Find(tlvType uint32) *Block {
	for _, elem := range b.subelements {
		if elem.Type() == tlvType {
			return elem
		}
	}
	return nil
}

// FindAll returns all subelements of the specified type.
func (b *Block) FindAll(tlvType uint32) []*Block {
	var found []*Block
	for _, elem := range b.subelements {
		if elem.Type() == tlvType {
			found = append(found, elem)
		}
	}
	return found
}

// Parse parses the block value into subelements.
func (b *Block) Parse() error {
	value := b.Value()
	var subelements []*Block
	for pos := 0; pos < len(value); {
		elem, elemLen, err := DecodeBlock(value[pos:])
		if err != nil {
			return err
		}
		subelements = append(subelements, elem)
		pos += elemLen
	}
	b.subelements = subelements
	return nil
}

// Wire returns the wire-encoded block.
func (b *Block) Wire() []byte {
	if b.wire != nil {
		return b.wire
	}

	value := b.Value()
	encodedType := EncodeVarNum(uint64(b.tlvType))
	encodedLength := EncodeVarNum(uint64(len(value)))

	wire := make([]byte, 0, len(encodedType)+len(encodedLength)+len(value))
	wire = append(wire, encodedType...)
	wire = append(wire, encodedLength...)
	wire = append(wire, value...)
	b.wire = wire
	return b.wire
}

// Size returns the size of the wire encoding.
func (b *Block) Size() int {
	return len(b.Wire())
}

// DecodeBlock decodes a block from the front of wire, returning it and the number of bytes consumed.
func DecodeBlock(wire []byte) (*Block, int, error) {
	tlvType, tlvTypeLen, err := DecodeVarNum(wire)
	if err != nil {
		return nil, 0, err
	}
	if tlvType > math.MaxUint32 {
		return nil, 0, ErrOutOfRange
	}
	if tlvTypeLen == len(wire) {
		return nil, 0, ErrMissingLength
	}

	tlvLength, tlvLengthLen, err := DecodeVarNum(wire[tlvTypeLen:])
	if err != nil {
		return nil, 0, err
	}
	headerLen := uint64(tlvTypeLen + tlvLengthLen)
	if uint64(len(wire))-headerLen < tlvLength {
		return nil, 0, ErrBufferTooShort
	}

	total := int(headerLen + tlvLength)
	b := &Block{
		tlvType: uint32(tlvType),
		wire:    bytes.Clone(wire[:total]),
	}
	b.value = b.wire[headerLen:total:total]
	return b, total, nil
}
