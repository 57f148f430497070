/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package object

import (
	"bytes"

	"github.com/named-data/ndnrepo/ndn"
)

// Codec converts values of a versioned object to and from content bytes.
type Codec[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(content []byte) (T, error)
	// ContentType is stored in the MetaInfo of every segment.
	ContentType() ndn.ContentType
}

// BytesCodec stores raw bytes.
type BytesCodec struct{}

func (BytesCodec) Encode(value []byte) ([]byte, error) {
	return bytes.Clone(value), nil
}

func (BytesCodec) Decode(content []byte) ([]byte, error) {
	return bytes.Clone(content), nil
}

func (BytesCodec) ContentType() ndn.ContentType {
	return ndn.ContentTypeBlob
}

// StringCodec stores UTF-8 text.
type StringCodec struct{}

func (StringCodec) Encode(value string) ([]byte, error) {
	return []byte(value), nil
}

func (StringCodec) Decode(content []byte) (string, error) {
	return string(content), nil
}

func (StringCodec) ContentType() ndn.ContentType {
	return ndn.ContentTypeBlob
}

// CollectionCodec stores a Collection as a sequence of Link elements.
type CollectionCodec struct{}

func (CollectionCodec) Encode(value *ndn.Collection) ([]byte, error) {
	if value == nil {
		value = ndn.NewCollection()
	}
	return value.Encode(), nil
}

func (CollectionCodec) Decode(content []byte) (*ndn.Collection, error) {
	return ndn.DecodeCollection(content)
}

func (CollectionCodec) ContentType() ndn.ContentType {
	return ndn.ContentTypeLink
}
