/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package repo

import (
	"github.com/cornelk/hashmap"
)

// Measurement keys.
const (
	measureStored     = "content.stored"
	measureDuplicate  = "content.duplicate"
	measureRemoved    = "content.removed"
	measureHits       = "interests.hits"
	measureMisses     = "interests.misses"
	measureSatisfied  = "interests.satisfied"
	measureCanceled   = "interests.canceled"
	measureExpired    = "interests.expired"
	measureFollowUps  = "interests.followups"
	measureFiltered   = "filters.delivered"
	measureProducedTo = "producers.notified"
)

// measurements is a lock-free table of counters.
type measurements struct {
	table *hashmap.HashMap
}

func newMeasurements() *measurements {
	return &measurements{table: hashmap.New(16)}
}

// get returns the counter value, or zero if it was never incremented.
func (m *measurements) get(key string) int {
	value, ok := m.table.GetStringKey(key)
	if !ok {
		return 0
	}
	return value.(int)
}

// add atomically adds value to the counter, setting it if uninitialized.
func (m *measurements) add(key string, value int) {
	for wasSet := false; !wasSet; {
		if expected, ok := m.table.GetStringKey(key); ok {
			wasSet = m.table.Cas(key, expected, expected.(int)+value)
		} else {
			_, loaded := m.table.GetOrInsert(key, value)
			wasSet = !loaded
		}
	}
}

// snapshot copies every counter.
func (m *measurements) snapshot() map[string]int {
	out := make(map[string]int)
	for kv := range m.table.Iter() {
		out[kv.Key.(string)] = kv.Value.(int)
	}
	return out
}
