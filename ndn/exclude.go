/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import (
	"fmt"
	"slices"
	"strings"

	"github.com/named-data/ndnrepo/ndn/tlv"
)

type excludeEntry struct {
	component Component
	any       bool
}

// Exclude is an ordered filter over the values of a single name component.
// It is a list of components in increasing order where an Any marker between
// two components also excludes everything strictly between them. A leading
// Any excludes everything below the first component, and a trailing Any
// everything above the last one.
type Exclude struct {
	entries []excludeEntry
}

// ExcludeComponents creates a filter excluding exactly the given components.
func ExcludeComponents(components ...Component) Exclude {
	sorted := slices.Clone(components)
	slices.SortFunc(sorted, Component.Compare)
	sorted = slices.CompactFunc(sorted, Component.Equals)

	var e Exclude
	for _, c := range sorted {
		e.entries = append(e.entries, excludeEntry{component: c})
	}
	return e
}

// ExcludeUpTo creates a filter excluding every component less than or equal to c.
func ExcludeUpTo(c Component) Exclude {
	return Exclude{entries: []excludeEntry{{any: true}, {component: c}}}
}

// ExcludeFrom creates a filter excluding every component greater than or equal to c.
func ExcludeFrom(c Component) Exclude {
	return Exclude{entries: []excludeEntry{{component: c}, {any: true}}}
}

// ExcludeRange creates a filter excluding every component in the closed range [low, high].
func ExcludeRange(low, high Component) Exclude {
	return Exclude{entries: []excludeEntry{{component: low}, {any: true}, {component: high}}}
}

// IsEmpty returns whether the filter excludes nothing.
func (e Exclude) IsEmpty() bool {
	return len(e.entries) == 0
}

// Matches returns whether c is excluded by the filter.
func (e Exclude) Matches(c Component) bool {
	for i, entry := range e.entries {
		if !entry.any {
			if entry.component.Equals(c) {
				return true
			}
			continue
		}

		aboveLower := i == 0 || c.Compare(e.entries[i-1].component) > 0
		belowUpper := i == len(e.entries)-1 || c.Compare(e.entries[i+1].component) < 0
		if aboveLower && belowUpper {
			return true
		}
	}
	return false
}

func (e Exclude) validate() error {
	for i, entry := range e.entries {
		if i == 0 {
			continue
		}
		prev := e.entries[i-1]
		switch {
		case entry.any && prev.any:
			return fmt.Errorf("%w: consecutive Any in Exclude", ErrMalformedEncoding)
		case !entry.any && !prev.any && entry.component.Compare(prev.component) <= 0:
			return fmt.Errorf("%w: Exclude components out of order", ErrMalformedEncoding)
		case !entry.any && prev.any && i >= 2 && entry.component.Compare(e.entries[i-2].component) <= 0:
			return fmt.Errorf("%w: Exclude components out of order", ErrMalformedEncoding)
		}
	}
	return nil
}

func (e Exclude) String() string {
	parts := make([]string, 0, len(e.entries))
	for _, entry := range e.entries {
		if entry.any {
			parts = append(parts, "*")
		} else {
			parts = append(parts, entry.component.String())
		}
	}
	return strings.Join(parts, ",")
}

// Encode encodes the filter into a block.
func (e Exclude) Encode() *tlv.Block {
	block := tlv.NewEmptyBlock(tlv.Exclude)
	for _, entry := range e.entries {
		if entry.any {
			block.Append(tlv.NewEmptyBlock(tlv.Any))
		} else {
			block.Append(entry.component.Encode())
		}
	}
	return block
}

// DecodeExclude decodes a filter from its wire encoding.
func DecodeExclude(b *tlv.Block) (Exclude, error) {
	if err := b.Parse(); err != nil {
		return Exclude{}, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}

	var e Exclude
	for _, elem := range b.Subelements() {
		switch elem.Type() {
		case tlv.Any:
			e.entries = append(e.entries, excludeEntry{any: true})
		case tlv.GenericNameComponent:
			e.entries = append(e.entries, excludeEntry{component: NewComponent(elem.Value())})
		default:
			return Exclude{}, fmt.Errorf("%w: unexpected TLV 0x%x in Exclude", ErrMalformedEncoding, elem.Type())
		}
	}
	if err := e.validate(); err != nil {
		return Exclude{}, err
	}
	return e, nil
}
