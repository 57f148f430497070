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
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"github.com/named-data/ndnrepo/ndn/tlv"
)

// DefaultInterestLifetime is the lifetime of an Interest that does not carry one.
const DefaultInterestLifetime = 4000 * time.Millisecond

// Order is the preference between several matching content objects.
type Order int

// Orders, encoded on the wire as the ChildSelector (absent for OrderAny).
const (
	OrderAny Order = iota
	OrderLeftmost
	OrderRightmost
)

func (o Order) String() string {
	switch o {
	case OrderLeftmost:
		return "leftmost"
	case OrderRightmost:
		return "rightmost"
	}
	return "any"
}

// ParseOrder parses "leftmost", "rightmost", "any" or the empty string.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return OrderAny, nil
	case "leftmost", "left":
		return OrderLeftmost, nil
	case "rightmost", "right":
		return OrderRightmost, nil
	}
	return OrderAny, fmt.Errorf("unknown order %q", s)
}

// Interest represents a query for content under a name prefix with selectors.
// Interests are immutable; use With to derive a modified copy.
type Interest struct {
	name            Name
	contentDigest   []byte
	minSuffix       int
	maxSuffix       int
	publisherDigest []byte
	exclude         Exclude
	order           Order
	nonce           []byte
	lifetime        time.Duration
}

// InterestOption modifies an Interest under construction.
type InterestOption func(*Interest)

// WithOrder sets the ordering preference.
func WithOrder(order Order) InterestOption {
	return func(i *Interest) { i.order = order }
}

// WithExclude sets the exclusion filter applied to the component following the prefix.
func WithExclude(exclude Exclude) InterestOption {
	return func(i *Interest) { i.exclude = exclude }
}

// WithPublisher restricts matches to content signed by the publisher with the given key digest.
func WithPublisher(keyDigest []byte) InterestOption {
	return func(i *Interest) { i.publisherDigest = bytes.Clone(keyDigest) }
}

// WithContentDigest restricts matches to the content object with the given implicit digest.
func WithContentDigest(digest []byte) InterestOption {
	return func(i *Interest) { i.contentDigest = bytes.Clone(digest) }
}

// WithMinSuffixComponents requires at least n components after the prefix.
func WithMinSuffixComponents(n int) InterestOption {
	return func(i *Interest) { i.minSuffix = n }
}

// WithMaxSuffixComponents allows at most n components after the prefix.
func WithMaxSuffixComponents(n int) InterestOption {
	return func(i *Interest) { i.maxSuffix = n }
}

// WithLifetime sets the lifetime.
func WithLifetime(lifetime time.Duration) InterestOption {
	return func(i *Interest) { i.lifetime = lifetime }
}

// WithNonce sets the nonce.
func WithNonce(nonce []byte) InterestOption {
	return func(i *Interest) { i.nonce = bytes.Clone(nonce) }
}

// NewInterest creates a new Interest with the specified name prefix and a random nonce.
func NewInterest(name Name, opts ...InterestOption) *Interest {
	i := &Interest{
		name:      name,
		minSuffix: -1,
		maxSuffix: -1,
		nonce:     make([]byte, 4),
	}
	binary.BigEndian.PutUint32(i.nonce, rand.Uint32())
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// With returns a copy of the Interest with the options applied.
func (i *Interest) With(opts ...InterestOption) *Interest {
	c := *i
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Name returns the name prefix.
func (i *Interest) Name() Name {
	return i.name
}

// ContentDigest returns the implicit digest selector, or nil.
func (i *Interest) ContentDigest() []byte {
	return i.contentDigest
}

// MinSuffixComponents returns the minimum number of components after the prefix, if set.
func (i *Interest) MinSuffixComponents() (int, bool) {
	return i.minSuffix, i.minSuffix >= 0
}

// MaxSuffixComponents returns the maximum number of components after the prefix, if set.
func (i *Interest) MaxSuffixComponents() (int, bool) {
	return i.maxSuffix, i.maxSuffix >= 0
}

// PublisherDigest returns the publisher selector, or nil.
func (i *Interest) PublisherDigest() []byte {
	return i.publisherDigest
}

// Exclude returns the exclusion filter.
func (i *Interest) Exclude() Exclude {
	return i.exclude
}

// Order returns the ordering preference.
func (i *Interest) Order() Order {
	return i.order
}

// Nonce returns the nonce.
func (i *Interest) Nonce() []byte {
	return i.nonce
}

// Lifetime returns the lifetime, or zero if the Interest does not carry one.
func (i *Interest) Lifetime() time.Duration {
	return i.lifetime
}

// MatchesName returns whether a content object with the given name satisfies the name-based selectors.
// Suffix bounds count the components following the prefix.
func (i *Interest) MatchesName(name Name) bool {
	if !i.name.IsPrefixOf(name) {
		return false
	}
	suffix := name.Size() - i.name.Size()
	if i.minSuffix >= 0 && suffix < i.minSuffix {
		return false
	}
	if i.maxSuffix >= 0 && suffix > i.maxSuffix {
		return false
	}
	if suffix > 0 && !i.exclude.IsEmpty() && i.exclude.Matches(name.At(i.name.Size())) {
		return false
	}
	return true
}

// Matches returns whether the content object satisfies every selector of the Interest.
func (i *Interest) Matches(obj *ContentObject) bool {
	if !i.MatchesName(obj.Name()) {
		return false
	}
	if i.publisherDigest != nil && !bytes.Equal(i.publisherDigest, obj.Publisher()) {
		return false
	}
	if i.contentDigest != nil && !bytes.Equal(i.contentDigest, obj.Digest()) {
		return false
	}
	return true
}

// ID returns the identity of the Interest: a hash of its encoding without the nonce.
func (i *Interest) ID() uint64 {
	return xxhash.Sum64(i.encode(false).Wire())
}

func (i *Interest) String() string {
	var str strings.Builder
	str.WriteString("Interest(Name=" + i.name.String())
	if i.contentDigest != nil {
		str.WriteString(", Digest=" + hex.EncodeToString(i.contentDigest))
	}
	if i.order != OrderAny {
		str.WriteString(", Order=" + i.order.String())
	}
	if i.minSuffix >= 0 {
		str.WriteString(", MinSuffix=" + strconv.Itoa(i.minSuffix))
	}
	if i.maxSuffix >= 0 {
		str.WriteString(", MaxSuffix=" + strconv.Itoa(i.maxSuffix))
	}
	if i.publisherDigest != nil {
		str.WriteString(", Publisher=" + hex.EncodeToString(i.publisherDigest))
	}
	if !i.exclude.IsEmpty() {
		str.WriteString(", Exclude=" + i.exclude.String())
	}
	str.WriteString(", Nonce=0x" + hex.EncodeToString(i.nonce))
	if i.lifetime > 0 {
		str.WriteString(", Lifetime=" + strconv.FormatInt(i.lifetime.Milliseconds(), 10) + "ms")
	}
	str.WriteString(")")
	return str.String()
}

func (i *Interest) encode(withNonce bool) *tlv.Block {
	name := i.name.Encode()
	if i.contentDigest != nil {
		name.Append(tlv.NewBlock(tlv.ImplicitSha256DigestComponent, i.contentDigest))
	}

	selectors := tlv.NewEmptyBlock(tlv.Selectors)
	if i.minSuffix >= 0 {
		selectors.Append(tlv.EncodeNNIBlock(tlv.MinSuffixComponents, uint64(i.minSuffix)))
	}
	if i.maxSuffix >= 0 {
		selectors.Append(tlv.EncodeNNIBlock(tlv.MaxSuffixComponents, uint64(i.maxSuffix)))
	}
	if i.publisherDigest != nil {
		selectors.Append(tlv.NewBlock(tlv.PublisherDigest, i.publisherDigest))
	}
	if !i.exclude.IsEmpty() {
		selectors.Append(i.exclude.Encode())
	}
	switch i.order {
	case OrderLeftmost:
		selectors.Append(tlv.EncodeNNIBlock(tlv.ChildSelector, 0))
	case OrderRightmost:
		selectors.Append(tlv.EncodeNNIBlock(tlv.ChildSelector, 1))
	}

	block := tlv.NewNestedBlock(tlv.Interest, name)
	if len(selectors.Subelements()) > 0 {
		block.Append(selectors)
	}
	if withNonce && len(i.nonce) > 0 {
		block.Append(tlv.NewBlock(tlv.Nonce, i.nonce))
	}
	if i.lifetime > 0 {
		block.Append(tlv.EncodeNNIBlock(tlv.InterestLifetime, uint64(i.lifetime.Milliseconds())))
	}
	return block
}

// Encode encodes the Interest into a block.
func (i *Interest) Encode() *tlv.Block {
	return i.encode(true)
}

// DecodeInterest decodes an Interest from the wire.
func DecodeInterest(wire *tlv.Block) (*Interest, error) {
	if wire == nil || wire.Type() != tlv.Interest {
		return nil, fmt.Errorf("%w: not an Interest", ErrMalformedEncoding)
	}
	if err := wire.Parse(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}

	i := &Interest{minSuffix: -1, maxSuffix: -1}
	mostRecentElem := 0
	hasName := false
	for _, elem := range wire.Subelements() {
		switch elem.Type() {
		case tlv.Name:
			if mostRecentElem >= 1 {
				return nil, fmt.Errorf("%w: Name is duplicate or out-of-order", ErrMalformedEncoding)
			}
			mostRecentElem = 1
			if err := i.decodeName(elem); err != nil {
				return nil, err
			}
			hasName = true
		case tlv.Selectors:
			if mostRecentElem >= 2 {
				return nil, fmt.Errorf("%w: Selectors is duplicate or out-of-order", ErrMalformedEncoding)
			}
			mostRecentElem = 2
			if err := i.decodeSelectors(elem); err != nil {
				return nil, err
			}
		case tlv.Nonce:
			if mostRecentElem >= 3 {
				return nil, fmt.Errorf("%w: Nonce is duplicate or out-of-order", ErrMalformedEncoding)
			}
			mostRecentElem = 3
			if len(elem.Value()) != 4 {
				return nil, fmt.Errorf("%w: Nonce must be 4 bytes", ErrMalformedEncoding)
			}
			i.nonce = bytes.Clone(elem.Value())
		case tlv.InterestLifetime:
			if mostRecentElem >= 4 {
				return nil, fmt.Errorf("%w: InterestLifetime is duplicate or out-of-order", ErrMalformedEncoding)
			}
			mostRecentElem = 4
			lifetime, err := tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, fmt.Errorf("%w: error decoding InterestLifetime", ErrMalformedEncoding)
			}
			i.lifetime = time.Duration(lifetime) * time.Millisecond
		default:
			if tlv.IsCritical(elem.Type()) {
				return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, tlv.ErrUnrecognizedCritical)
			}
			// If non-critical, ignore
		}
	}

	if !hasName {
		return nil, fmt.Errorf("%w: Interest is missing Name", ErrMalformedEncoding)
	}
	return i, nil
}

func (i *Interest) decodeName(elem *tlv.Block) error {
	if err := elem.Parse(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedName, err)
	}
	subelements := elem.Subelements()
	if n := len(subelements); n > 0 && subelements[n-1].Type() == tlv.ImplicitSha256DigestComponent {
		if len(subelements[n-1].Value()) != sha256.Size {
			return fmt.Errorf("%w: implicit digest must be %d bytes", ErrMalformedName, sha256.Size)
		}
		i.contentDigest = bytes.Clone(subelements[n-1].Value())
		elem = tlv.NewNestedBlock(tlv.Name, subelements[:n-1]...)
	}

	name, err := DecodeName(elem)
	if err != nil {
		return err
	}
	i.name = name
	return nil
}

func (i *Interest) decodeSelectors(elem *tlv.Block) error {
	if err := elem.Parse(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	for _, sel := range elem.Subelements() {
		switch sel.Type() {
		case tlv.MinSuffixComponents, tlv.MaxSuffixComponents:
			v, err := tlv.DecodeNNIBlock(sel)
			if err != nil || v > 0xFFFF {
				return fmt.Errorf("%w: bad suffix components bound", ErrMalformedEncoding)
			}
			if sel.Type() == tlv.MinSuffixComponents {
				i.minSuffix = int(v)
			} else {
				i.maxSuffix = int(v)
			}
		case tlv.PublisherDigest:
			i.publisherDigest = bytes.Clone(sel.Value())
		case tlv.Exclude:
			exclude, err := DecodeExclude(sel)
			if err != nil {
				return err
			}
			i.exclude = exclude
		case tlv.ChildSelector:
			v, err := tlv.DecodeNNIBlock(sel)
			if err != nil || v > 1 {
				return fmt.Errorf("%w: bad ChildSelector", ErrMalformedEncoding)
			}
			if v == 0 {
				i.order = OrderLeftmost
			} else {
				i.order = OrderRightmost
			}
		case tlv.MustBeFresh:
			// Stored content never goes stale
		default:
			if tlv.IsCritical(sel.Type()) {
				return fmt.Errorf("%w: %v", ErrMalformedEncoding, tlv.ErrUnrecognizedCritical)
			}
		}
	}
	return nil
}
