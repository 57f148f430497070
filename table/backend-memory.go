/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"bytes"
	"slices"
	"sort"
	"strings"
	"sync"
)

// MemoryBackend keeps records in a sorted slice of keys plus a map. It is not persistent.
type MemoryBackend struct {
	mutex  sync.RWMutex
	keys   []string
	values map[string][]byte
	closed bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

func (m *MemoryBackend) Put(key []byte, value []byte) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.closed {
		return false, ErrBackendClosed
	}

	k := string(key)
	if _, ok := m.values[k]; ok {
		return false, nil
	}
	i, _ := slices.BinarySearch(m.keys, k)
	m.keys = slices.Insert(m.keys, i, k)
	m.values[k] = bytes.Clone(value)
	return true, nil
}

func (m *MemoryBackend) Get(key []byte) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.closed {
		return nil, ErrBackendClosed
	}
	return bytes.Clone(m.values[string(key)]), nil
}

func (m *MemoryBackend) Delete(keys ...[]byte) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.closed {
		return 0, ErrBackendClosed
	}

	removed := 0
	for _, key := range keys {
		k := string(key)
		if _, ok := m.values[k]; !ok {
			continue
		}
		delete(m.values, k)
		if i, found := slices.BinarySearch(m.keys, k); found {
			m.keys = slices.Delete(m.keys, i, i+1)
		}
		removed++
	}
	return removed, nil
}

func (m *MemoryBackend) Scan(prefix []byte, reverse bool, fn ScanFunc) error {
	m.mutex.RLock()
	if m.closed {
		m.mutex.RUnlock()
		return ErrBackendClosed
	}
	p := string(prefix)
	lo := sort.SearchStrings(m.keys, p)
	hi := lo + sort.Search(len(m.keys)-lo, func(i int) bool {
		return !strings.HasPrefix(m.keys[lo+i], p)
	})
	// Snapshot the range so callbacks may modify the backend
	keys := slices.Clone(m.keys[lo:hi])
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = m.values[k]
	}
	m.mutex.RUnlock()

	for n := 0; n < len(keys); n++ {
		i := n
		if reverse {
			i = len(keys) - 1 - n
		}
		more, err := fn([]byte(keys[i]), values[i])
		if err != nil || !more {
			return err
		}
	}
	return nil
}

func (m *MemoryBackend) Len() (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.keys), nil
}

func (m *MemoryBackend) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed = true
	m.keys = nil
	m.values = nil
	return nil
}
