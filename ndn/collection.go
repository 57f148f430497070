/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/named-data/ndnrepo/ndn/tlv"
)

// Link is a named reference to another piece of content, optionally pinned to a publisher or a content digest.
type Link struct {
	Name      Name
	Label     string
	Publisher []byte
	Digest    []byte
}

// Equals returns whether two links are structurally equal.
func (l Link) Equals(other Link) bool {
	return l.Name.Equals(other.Name) &&
		l.Label == other.Label &&
		bytes.Equal(l.Publisher, other.Publisher) &&
		bytes.Equal(l.Digest, other.Digest)
}

func (l Link) String() string {
	if l.Label == "" {
		return l.Name.String()
	}
	return l.Label + "=" + l.Name.String()
}

// Encode encodes the link into a block.
func (l Link) Encode() *tlv.Block {
	block := tlv.NewNestedBlock(tlv.Link, l.Name.Encode())
	if l.Label != "" {
		block.Append(tlv.NewBlock(tlv.LinkLabel, []byte(l.Label)))
	}
	if l.Publisher != nil {
		block.Append(tlv.NewBlock(tlv.LinkPublisher, l.Publisher))
	}
	if l.Digest != nil {
		block.Append(tlv.NewBlock(tlv.LinkDigest, l.Digest))
	}
	return block
}

// DecodeLink decodes a link from its wire encoding.
func DecodeLink(b *tlv.Block) (Link, error) {
	if b.Type() != tlv.Link {
		return Link{}, fmt.Errorf("%w: expected Link, got TLV 0x%x", ErrMalformedEncoding, b.Type())
	}
	if err := b.Parse(); err != nil {
		return Link{}, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}

	var l Link
	mostRecentElem := 0
	for _, elem := range b.Subelements() {
		var order int
		switch elem.Type() {
		case tlv.Name:
			order = 1
			name, err := DecodeName(elem)
			if err != nil {
				return Link{}, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
			}
			l.Name = name
		case tlv.LinkLabel:
			order = 2
			l.Label = string(elem.Value())
		case tlv.LinkPublisher:
			order = 3
			l.Publisher = bytes.Clone(elem.Value())
		case tlv.LinkDigest:
			order = 4
			l.Digest = bytes.Clone(elem.Value())
		default:
			return Link{}, fmt.Errorf("%w: unexpected TLV 0x%x in Link", ErrMalformedEncoding, elem.Type())
		}
		if order <= mostRecentElem {
			return Link{}, fmt.Errorf("%w: Link element 0x%x is duplicate or out-of-order", ErrMalformedEncoding, elem.Type())
		}
		mostRecentElem = order
	}
	if b.Find(tlv.Name) == nil {
		return Link{}, fmt.Errorf("%w: Link is missing Name", ErrMalformedEncoding)
	}
	return l, nil
}

// Collection is an ordered list of links. It is mutable until it is encoded and saved.
type Collection struct {
	links []Link
}

// NewCollection creates a collection holding the given links.
func NewCollection(links ...Link) *Collection {
	return &Collection{links: slices.Clone(links)}
}

// Add appends links to the end of the collection.
func (c *Collection) Add(links ...Link) {
	c.links = append(c.links, links...)
}

// Get returns the link at index i.
func (c *Collection) Get(i int) Link {
	return c.links[i]
}

// Size returns the number of links.
func (c *Collection) Size() int {
	return len(c.links)
}

// Links returns a copy of the links.
func (c *Collection) Links() []Link {
	return slices.Clone(c.links)
}

// Remove removes and returns the link at index i.
func (c *Collection) Remove(i int) (Link, error) {
	if i < 0 || i >= len(c.links) {
		return Link{}, fmt.Errorf("index %d out of range [0, %d)", i, len(c.links))
	}
	l := c.links[i]
	c.links = slices.Delete(c.links, i, i+1)
	return l, nil
}

// RemoveLink removes the first link equal to l and returns whether one was found.
func (c *Collection) RemoveLink(l Link) bool {
	i := slices.IndexFunc(c.links, l.Equals)
	if i < 0 {
		return false
	}
	c.links = slices.Delete(c.links, i, i+1)
	return true
}

// RemoveAll empties the collection.
func (c *Collection) RemoveAll() {
	c.links = nil
}

// Equals returns whether two collections hold equal links in the same order.
func (c *Collection) Equals(other *Collection) bool {
	if c == nil || other == nil {
		return c == other
	}
	return slices.EqualFunc(c.links, other.links, Link.Equals)
}

// Hash returns a structural hash: equal collections hash equally.
func (c *Collection) Hash() uint64 {
	return xxhash.Sum64(c.Encode())
}

func (c *Collection) String() string {
	parts := make([]string, len(c.links))
	for i, l := range c.links {
		parts[i] = l.String()
	}
	return "Collection[" + strings.Join(parts, ", ") + "]"
}

// Encode returns the wire encoding of the collection.
func (c *Collection) Encode() []byte {
	block := tlv.NewEmptyBlock(tlv.Collection)
	for _, l := range c.links {
		block.Append(l.Encode())
	}
	return block.Wire()
}

// DecodeCollection decodes a collection. Anything but a well-formed sequence of links fails with ErrMalformedEncoding.
func DecodeCollection(wire []byte) (*Collection, error) {
	block, n, err := tlv.DecodeBlock(wire)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	if n != len(wire) {
		return nil, fmt.Errorf("%w: trailing bytes after Collection", ErrMalformedEncoding)
	}
	if block.Type() != tlv.Collection {
		return nil, fmt.Errorf("%w: expected Collection, got TLV 0x%x", ErrMalformedEncoding, block.Type())
	}
	if err = block.Parse(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}

	c := &Collection{}
	for _, elem := range block.Subelements() {
		l, err := DecodeLink(elem)
		if err != nil {
			return nil, err
		}
		c.links = append(c.links, l)
	}
	return c, nil
}
