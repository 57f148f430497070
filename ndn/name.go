/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/named-data/ndnrepo/ndn/tlv"
)

// Markers prefixing the fixed-width numeric components.
const (
	VersionMarker = 0xFD
	SegmentMarker = 0x00
)

const markedComponentLen = 9

/////////////
// Component
/////////////

// Component is an opaque binary name component. Components are immutable.
type Component struct {
	value string
}

// NewComponent creates a component holding a copy of value.
func NewComponent(value []byte) Component {
	return Component{value: string(value)}
}

// NewStringComponent creates a component holding the bytes of s.
func NewStringComponent(s string) Component {
	return Component{value: s}
}

func newMarkedComponent(marker byte, v uint64) Component {
	var buf [markedComponentLen]byte
	buf[0] = marker
	binary.BigEndian.PutUint64(buf[1:], v)
	return Component{value: string(buf[:])}
}

// NewVersionComponent creates a version component. Byte order of version components equals numeric order.
func NewVersionComponent(version uint64) Component {
	return newMarkedComponent(VersionMarker, version)
}

// NewSegmentComponent creates a segment component. Byte order of segment components equals numeric order.
func NewSegmentComponent(segment uint64) Component {
	return newMarkedComponent(SegmentMarker, segment)
}

// Value returns a copy of the component bytes.
func (c Component) Value() []byte {
	return []byte(c.value)
}

// Len returns the number of bytes in the component.
func (c Component) Len() int {
	return len(c.value)
}

// Compare compares two components by unsigned byte order.
func (c Component) Compare(other Component) int {
	return strings.Compare(c.value, other.value)
}

// Equals returns whether the two components hold the same bytes.
func (c Component) Equals(other Component) bool {
	return c.value == other.value
}

func (c Component) marked(marker byte) (uint64, bool) {
	if len(c.value) != markedComponentLen || c.value[0] != marker {
		return 0, false
	}
	return binary.BigEndian.Uint64([]byte(c.value[1:])), true
}

// Version returns the version number if this is a version component.
func (c Component) Version() (uint64, bool) {
	return c.marked(VersionMarker)
}

// Segment returns the segment number if this is a segment component.
func (c Component) Segment() (uint64, bool) {
	return c.marked(SegmentMarker)
}

func (c Component) String() string {
	if v, ok := c.Version(); ok {
		return "v=" + strconv.FormatUint(v, 10)
	}
	if s, ok := c.Segment(); ok {
		return "seg=" + strconv.FormatUint(s, 10)
	}
	return escapeComponent(c.value)
}

// Encode encodes the component into a block.
func (c Component) Encode() *tlv.Block {
	return tlv.NewBlock(tlv.GenericNameComponent, []byte(c.value))
}

////////
// Name
////////

// Name is an ordered sequence of components. Names are immutable; every method returning a Name returns a new one.
type Name struct {
	components []Component
}

// NewName creates a name from the given components.
func NewName(components ...Component) Name {
	if len(components) == 0 {
		return Name{}
	}
	return Name{components: append([]Component(nil), components...)}
}

// NameFromString parses a URI representation such as "/a/b%00/v=5/seg=2".
func NameFromString(str string) (Name, error) {
	str = strings.TrimPrefix(str, "ndn:")
	str = strings.Trim(str, "/")
	if str == "" {
		return Name{}, nil
	}

	parts := strings.Split(str, "/")
	components := make([]Component, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return Name{}, fmt.Errorf("%w: empty component in %q", ErrMalformedName, str)
		}

		if typ, val, ok := strings.Cut(part, "="); ok && (typ == "v" || typ == "seg") {
			n, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return Name{}, fmt.Errorf("%w: %s is not a decimal number", ErrMalformedName, part)
			}
			if typ == "v" {
				components = append(components, NewVersionComponent(n))
			} else {
				components = append(components, NewSegmentComponent(n))
			}
			continue
		}

		value, err := unescapeComponent(part)
		if err != nil {
			return Name{}, fmt.Errorf("%w: %v", ErrMalformedName, err)
		}
		components = append(components, Component{value: value})
	}
	return Name{components: components}, nil
}

// MustNameFromString is like NameFromString but panics on malformed input.
func MustNameFromString(str string) Name {
	n, err := NameFromString(str)
	if err != nil {
		panic(err)
	}
	return n
}

func escapeComponent(in string) string {
	var out strings.Builder
	out.Grow(3 * len(in))
	nPeriods := 0
	for i := 0; i < len(in); i++ {
		b := in[i]
		switch {
		case b == '.':
			nPeriods++
			out.WriteByte(b)
		case (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '-' || b == '_' || b == '~':
			out.WriteByte(b)
		default:
			out.WriteByte('%')
			out.WriteString(strings.ToUpper(hex.EncodeToString([]byte{b})))
		}
	}
	if nPeriods == len(in) {
		// Components made only of periods (including the empty one) carry three extra periods
		out.WriteString("...")
	}
	return out.String()
}

func unescapeComponent(in string) (string, error) {
	if strings.Trim(in, ".") == "" {
		if len(in) < 3 {
			return "", fmt.Errorf("component %q has fewer than three periods", in)
		}
		return in[3:], nil
	}

	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		if in[i] != '%' {
			out = append(out, in[i])
			continue
		}
		if len(in) <= i+2 {
			return "", fmt.Errorf("incomplete escape sequence in %q", in)
		}
		unescaped, err := hex.DecodeString(in[i+1 : i+3])
		if err != nil {
			return "", fmt.Errorf("could not decode escape sequence in %q", in)
		}
		out = append(out, unescaped...)
		i += 2
	}
	return string(out), nil
}

// DecodeName decodes a name from its wire encoding.
func DecodeName(b *tlv.Block) (Name, error) {
	if b == nil || b.Type() != tlv.Name {
		return Name{}, fmt.Errorf("%w: not a Name block", ErrMalformedName)
	}
	if err := b.Parse(); err != nil {
		return Name{}, fmt.Errorf("%w: %v", ErrMalformedName, err)
	}

	components := make([]Component, 0, len(b.Subelements()))
	for _, elem := range b.Subelements() {
		if elem.Type() != tlv.GenericNameComponent {
			return Name{}, fmt.Errorf("%w: unsupported component type %d", ErrMalformedName, elem.Type())
		}
		components = append(components, Component{value: string(elem.Value())})
	}
	return Name{components: components}, nil
}

func (n Name) String() string {
	if len(n.components) == 0 {
		return "/"
	}

	var out strings.Builder
	for _, component := range n.components {
		out.WriteByte('/')
		out.WriteString(component.String())
	}
	return out.String()
}

// Size returns the number of components in the name.
func (n Name) Size() int {
	return len(n.components)
}

// At returns the component at the specified index. Negative indices count from the end.
func (n Name) At(index int) Component {
	if index < 0 {
		index += len(n.components)
	}
	return n.components[index]
}

// Components returns a copy of the components of the name.
func (n Name) Components() []Component {
	return append([]Component(nil), n.components...)
}

// Append returns a new name with the given components added to the end.
func (n Name) Append(components ...Component) Name {
	out := make([]Component, 0, len(n.components)+len(components))
	out = append(out, n.components...)
	out = append(out, components...)
	return Name{components: out}
}

// Prefix returns the first size components of the name. Negative sizes drop components from the end.
func (n Name) Prefix(size int) Name {
	if size < 0 {
		size += len(n.components)
	}
	if size <= 0 {
		return Name{}
	}
	if size > len(n.components) {
		size = len(n.components)
	}
	return Name{components: n.components[:size:size]}
}

// Compare returns the canonical order of this name against the specified other name:
// components are compared by unsigned bytes and a strict prefix sorts first.
func (n Name) Compare(other Name) int {
	for i := 0; i < len(n.components) && i < len(other.components); i++ {
		if c := n.components[i].Compare(other.components[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(n.components) < len(other.components):
		return -1
	case len(n.components) > len(other.components):
		return 1
	}
	return 0
}

// Equals returns whether the specified name is equal to this name.
func (n Name) Equals(other Name) bool {
	if len(n.components) != len(other.components) {
		return false
	}
	return n.IsPrefixOf(other)
}

// IsPrefixOf returns whether this name is a prefix of the specified name.
func (n Name) IsPrefixOf(other Name) bool {
	if len(n.components) > len(other.components) {
		return false
	}
	for i, component := range n.components {
		if !component.Equals(other.components[i]) {
			return false
		}
	}
	return true
}

// Encode encodes the name into a block.
func (n Name) Encode() *tlv.Block {
	block := tlv.NewEmptyBlock(tlv.Name)
	for _, component := range n.components {
		block.Append(component.Encode())
	}
	return block
}
