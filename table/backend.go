/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"github.com/named-data/ndnrepo/core"
	"github.com/pkg/errors"
)

// ScanFunc receives one record during a scan. Returning false stops the scan.
// The slices are only valid for the duration of the call.
type ScanFunc func(key []byte, value []byte) (bool, error)

// Backend is an ordered key-value store holding content store records.
type Backend interface {
	// Put stores the record if the key is absent and returns whether it was stored.
	Put(key []byte, value []byte) (bool, error)
	// Get returns the value of key, or nil if it is absent.
	Get(key []byte) ([]byte, error)
	// Delete removes the keys and returns how many were present.
	Delete(keys ...[]byte) (int, error)
	// Scan visits every record whose key starts with prefix in ascending key order, or descending if reverse is set.
	Scan(prefix []byte, reverse bool, fn ScanFunc) error
	// Len returns the number of records.
	Len() (int, error)
	Close() error
}

// NewBackend opens the backend selected by the configuration.
func NewBackend(kind string, path string) (Backend, error) {
	switch kind {
	case core.BackendMemory, "":
		return NewMemoryBackend(), nil
	case core.BackendBolt:
		return NewBoltBackend(path)
	case core.BackendSqlite:
		return NewSqliteBackend(path)
	}
	return nil, errors.Wrap(ErrUnknownBackend, kind)
}
