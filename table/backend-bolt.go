/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// BoltBucket holds all content store records.
var BoltBucket = []byte("content")

// BoltBackend stores records in a single bbolt bucket. Keys are stored as-is, so
// cursor order is record order.
type BoltBackend struct {
	db *bolt.DB
}

// NewBoltBackend opens or creates the database at path.
func NewBoltBackend(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt database %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(BoltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create bolt bucket")
	}
	return &BoltBackend{db: db}, nil
}

func (s *BoltBackend) Put(key []byte, value []byte) (bool, error) {
	stored := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BoltBucket)
		if bucket.Get(key) != nil {
			return nil
		}
		stored = true
		return bucket.Put(key, value)
	})
	return stored, err
}

func (s *BoltBackend) Get(key []byte) (value []byte, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(BoltBucket).Get(key); v != nil {
			value = bytes.Clone(v)
		}
		return nil
	})
	return
}

func (s *BoltBackend) Delete(keys ...[]byte) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BoltBucket)
		for _, key := range keys {
			if bucket.Get(key) == nil {
				continue
			}
			if err := bucket.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *BoltBackend) Scan(prefix []byte, reverse bool, fn ScanFunc) error {
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(BoltBucket).Cursor()

		var k, v []byte
		if !reverse {
			k, v = c.Seek(prefix)
		} else if succ := prefixSuccessor(prefix); succ == nil {
			k, v = c.Last()
		} else if k, v = c.Seek(succ); k == nil {
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}

		for k != nil && bytes.HasPrefix(k, prefix) {
			more, err := fn(k, v)
			if err != nil || !more {
				return err
			}
			if reverse {
				k, v = c.Prev()
			} else {
				k, v = c.Next()
			}
		}
		return nil
	})
}

func (s *BoltBackend) Len() (n int, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(BoltBucket).Stats().KeyN
		return nil
	})
	return
}

func (s *BoltBackend) Close() error {
	return s.db.Close()
}
