/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"bytes"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/pkg/errors"
)

// Record value flags.
const (
	recordRaw  byte = 0
	recordZstd byte = 1
)

// StoreOptions configures a ContentStore.
type StoreOptions struct {
	// Compress new records with zstd. Records of either kind can always be read.
	Compress bool
	// Number of decoded objects to keep in memory. Zero disables the cache.
	CacheSize int
}

// Record identifies one stored content object.
type Record struct {
	Name   ndn.Name
	Digest []byte
}

// ContentStore holds content objects keyed by (name, digest) on top of an ordered backend.
type ContentStore struct {
	backend  Backend
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
	cache    *lru.Cache[string, *ndn.ContentObject]
}

// NewContentStore creates a content store over the backend. The store owns the backend.
func NewContentStore(backend Backend, opts StoreOptions) (*ContentStore, error) {
	cs := &ContentStore{backend: backend, compress: opts.Compress}

	var err error
	if cs.encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)); err != nil {
		return nil, errors.Wrap(err, "create zstd encoder")
	}
	if cs.decoder, err = zstd.NewReader(nil); err != nil {
		return nil, errors.Wrap(err, "create zstd decoder")
	}
	if opts.CacheSize > 0 {
		if cs.cache, err = lru.New[string, *ndn.ContentObject](opts.CacheSize); err != nil {
			return nil, errors.Wrap(err, "create object cache")
		}
	}
	return cs, nil
}

// OpenContentStore opens the backend and store described by the configuration.
func OpenContentStore(config *core.Config) (*ContentStore, error) {
	backend, err := NewBackend(config.Repo.Backend, config.Repo.Path)
	if err != nil {
		return nil, err
	}
	cs, err := NewContentStore(backend, StoreOptions{
		Compress:  config.Repo.Compress,
		CacheSize: config.Repo.CacheSize,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}
	core.LogInfo(cs, "Opened ", config.Repo.Backend, " content store", pathSuffix(config.Repo.Path))
	return cs, nil
}

func pathSuffix(path string) string {
	if path == "" {
		return ""
	}
	return " at " + path
}

func (cs *ContentStore) String() string {
	return "ContentStore"
}

// Put stores the object and returns whether it was new. Storing an object
// already present under the same name and digest is a no-op.
func (cs *ContentStore) Put(obj *ndn.ContentObject) (bool, error) {
	key := RecordKey(obj.Name(), obj.Digest())

	value := make([]byte, 1, len(obj.Wire())+1)
	if cs.compress {
		value[0] = recordZstd
		value = cs.encoder.EncodeAll(obj.Wire(), value)
	} else {
		value[0] = recordRaw
		value = append(value, obj.Wire()...)
	}

	stored, err := cs.backend.Put(key, value)
	if err != nil {
		return false, errors.Wrapf(err, "store %s", obj.FullName())
	}
	if stored && cs.cache != nil {
		cs.cache.Add(string(key), obj)
	}
	return stored, nil
}

func (cs *ContentStore) decode(key []byte, value []byte, digest []byte) (*ndn.ContentObject, error) {
	if cs.cache != nil {
		if obj, ok := cs.cache.Get(string(key)); ok {
			return obj, nil
		}
	}
	if len(value) == 0 {
		return nil, errors.Wrap(ErrStoreCorruption, "empty record")
	}

	wire := value[1:]
	switch value[0] {
	case recordRaw:
	case recordZstd:
		var err error
		if wire, err = cs.decoder.DecodeAll(wire, nil); err != nil {
			return nil, errors.Wrapf(ErrStoreCorruption, "decompress record: %v", err)
		}
	default:
		return nil, errors.Wrapf(ErrStoreCorruption, "unknown record flag 0x%02x", value[0])
	}

	obj, err := ndn.DecodeContentObjectWire(bytes.Clone(wire))
	if err != nil {
		return nil, errors.Wrapf(ErrStoreCorruption, "decode record: %v", err)
	}
	if !bytes.Equal(obj.Digest(), digest) {
		return nil, errors.Wrapf(ErrStoreCorruption, "digest mismatch for %s", obj.Name())
	}

	if cs.cache != nil {
		cs.cache.Add(string(key), obj)
	}
	return obj, nil
}

func (cs *ContentStore) load(name ndn.Name, digest []byte) (*ndn.ContentObject, error) {
	key := RecordKey(name, digest)
	value, err := cs.backend.Get(key)
	if err != nil || value == nil {
		return nil, err
	}
	return cs.decode(key, value, digest)
}

// compareTieBreak orders objects of the same name by publisher, then digest.
func compareTieBreak(a, b *ndn.ContentObject) int {
	if c := bytes.Compare(a.Publisher(), b.Publisher()); c != 0 {
		return c
	}
	return bytes.Compare(a.Digest(), b.Digest())
}

// Get returns the best object matching the Interest, or nil if none matches.
// Leftmost picks the smallest matching name and Rightmost the largest; objects
// sharing that name are ordered by publisher and then digest. Any returns the
// first match in record order.
func (cs *ContentStore) Get(interest *ndn.Interest) (*ndn.ContentObject, error) {
	wantDigest := interest.ContentDigest()
	if wantDigest != nil {
		obj, err := cs.load(interest.Name(), wantDigest)
		if err != nil {
			core.LogError(cs, "Lookup of ", interest, " failed: ", err)
			return nil, err
		}
		if obj != nil && interest.Matches(obj) {
			return obj, nil
		}
	}

	order := interest.Order()
	var best *ndn.ContentObject
	var bestName ndn.Name
	err := cs.backend.Scan(PrefixKey(interest.Name()), order == ndn.OrderRightmost, func(key []byte, value []byte) (bool, error) {
		name, digest, err := DecodeRecordKey(key)
		if err != nil {
			return false, err
		}
		if best != nil && !name.Equals(bestName) {
			return false, nil
		}
		if !interest.MatchesName(name) {
			return true, nil
		}
		if wantDigest != nil && !bytes.Equal(wantDigest, digest) {
			return true, nil
		}

		obj, err := cs.decode(key, value, digest)
		if err != nil {
			return false, err
		}
		if !interest.Matches(obj) {
			return true, nil
		}

		switch {
		case order == ndn.OrderAny:
			best = obj
			return false, nil
		case best == nil,
			order == ndn.OrderLeftmost && compareTieBreak(obj, best) < 0,
			order == ndn.OrderRightmost && compareTieBreak(obj, best) > 0:
			best = obj
			bestName = name
		}
		return true, nil
	})
	if err != nil {
		core.LogError(cs, "Lookup of ", interest, " failed: ", err)
		return nil, err
	}
	return best, nil
}

func (cs *ContentStore) collectKeys(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := cs.backend.Scan(prefix, false, func(key []byte, _ []byte) (bool, error) {
		keys = append(keys, bytes.Clone(key))
		return true, nil
	})
	return keys, err
}

func (cs *ContentStore) removeKeys(prefix []byte) (int, error) {
	keys, err := cs.collectKeys(prefix)
	if err != nil || len(keys) == 0 {
		return 0, err
	}
	if cs.cache != nil {
		for _, key := range keys {
			cs.cache.Remove(string(key))
		}
	}
	return cs.backend.Delete(keys...)
}

// Remove deletes every object stored under exactly this name and returns how many were removed.
func (cs *ContentStore) Remove(name ndn.Name) (int, error) {
	return cs.removeKeys(NameKey(name))
}

// RemovePrefix deletes every object whose name starts with prefix and returns how many were removed.
func (cs *ContentStore) RemovePrefix(prefix ndn.Name) (int, error) {
	return cs.removeKeys(PrefixKey(prefix))
}

// Enumerate lists up to limit records under prefix in canonical order. A limit of zero lists everything.
func (cs *ContentStore) Enumerate(prefix ndn.Name, limit int) ([]Record, error) {
	var records []Record
	err := cs.backend.Scan(PrefixKey(prefix), false, func(key []byte, _ []byte) (bool, error) {
		name, digest, err := DecodeRecordKey(key)
		if err != nil {
			return false, err
		}
		records = append(records, Record{Name: name, Digest: digest})
		return limit <= 0 || len(records) < limit, nil
	})
	return records, err
}

// Len returns the number of stored objects.
func (cs *ContentStore) Len() (int, error) {
	return cs.backend.Len()
}

// Close closes the backend and releases codec resources.
func (cs *ContentStore) Close() error {
	cs.decoder.Close()
	cs.encoder.Close()
	if cs.cache != nil {
		cs.cache.Purge()
	}
	return cs.backend.Close()
}
