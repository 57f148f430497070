/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"bytes"
	"crypto/sha256"

	"github.com/named-data/ndnrepo/ndn"
	"github.com/pkg/errors"
)

// Record keys sort in canonical name order, then by digest. Every component is
// escaped (0x00 becomes 0x00 0xFF) and terminated by 0x00 0x01, the name is
// terminated by 0x00 0x00 and the 32-byte implicit digest follows.
const (
	keyEscape       = 0x00
	keyEscapedZero  = 0xFF
	keyComponentEnd = 0x01
	keyNameEnd      = 0x00
	keyDigestLen    = sha256.Size
)

func appendComponentKey(buf []byte, c ndn.Component) []byte {
	for _, b := range c.Value() {
		if b == keyEscape {
			buf = append(buf, keyEscape, keyEscapedZero)
		} else {
			buf = append(buf, b)
		}
	}
	return append(buf, keyEscape, keyComponentEnd)
}

// PrefixKey returns the key prefix shared by every record whose name starts with prefix.
func PrefixKey(prefix ndn.Name) []byte {
	var buf []byte
	for _, c := range prefix.Components() {
		buf = appendComponentKey(buf, c)
	}
	return buf
}

// NameKey returns the key prefix shared by every record with exactly this name.
func NameKey(name ndn.Name) []byte {
	return append(PrefixKey(name), keyEscape, keyNameEnd)
}

// RecordKey returns the key of the record of the given name and digest.
func RecordKey(name ndn.Name, digest []byte) []byte {
	return append(NameKey(name), digest...)
}

// DecodeRecordKey recovers the name and digest from a record key.
func DecodeRecordKey(key []byte) (ndn.Name, []byte, error) {
	var components []ndn.Component
	var component []byte
	for pos := 0; pos < len(key); pos++ {
		if key[pos] != keyEscape {
			component = append(component, key[pos])
			continue
		}
		if pos+1 >= len(key) {
			return ndn.Name{}, nil, errors.Wrap(ErrStoreCorruption, "truncated record key")
		}
		pos++
		switch key[pos] {
		case keyEscapedZero:
			component = append(component, 0x00)
		case keyComponentEnd:
			components = append(components, ndn.NewComponent(component))
			component = component[:0]
		case keyNameEnd:
			if len(component) > 0 {
				return ndn.Name{}, nil, errors.Wrap(ErrStoreCorruption, "unterminated component in record key")
			}
			digest := key[pos+1:]
			if len(digest) != keyDigestLen {
				return ndn.Name{}, nil, errors.Wrapf(ErrStoreCorruption, "record key digest has %d bytes", len(digest))
			}
			return ndn.NewName(components...), bytes.Clone(digest), nil
		default:
			return ndn.Name{}, nil, errors.Wrapf(ErrStoreCorruption, "invalid escape 0x%02x in record key", key[pos])
		}
	}
	return ndn.Name{}, nil, errors.Wrap(ErrStoreCorruption, "record key has no name terminator")
}

// prefixSuccessor returns the smallest key greater than every key starting with prefix, or nil if there is none.
func prefixSuccessor(prefix []byte) []byte {
	succ := bytes.Clone(prefix)
	for i := len(succ) - 1; i >= 0; i-- {
		if succ[i] != 0xFF {
			succ[i]++
			return succ[:i+1]
		}
	}
	return nil
}
