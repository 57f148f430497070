/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package dispatch

import (
	"bytes"
	"slices"
	"sync"
	"time"

	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/utils/comparison"
)

// MaxBatchWindow bounds the collection window of a Batcher.
const MaxBatchWindow = 10 * time.Second

type batch struct {
	objects []*ndn.ContentObject
	flush   func([]*ndn.ContentObject)
}

// Batcher collects objects for standing filters over a short window and flushes
// each registration's objects as one batch in name order without duplicates.
type Batcher struct {
	window time.Duration

	mutex    sync.Mutex
	pending  map[uint64]*batch
	inflight sync.WaitGroup
}

// NewBatcher creates a batcher. A zero window flushes every Add immediately.
func NewBatcher(window time.Duration) *Batcher {
	return &Batcher{
		window:  comparison.Clamp(window, 0, MaxBatchWindow),
		pending: make(map[uint64]*batch),
	}
}

// Add appends objects to the batch of a registration. flush is called with the
// whole batch once the window closes; the flush given with the first Add of a batch wins.
func (b *Batcher) Add(registration uint64, flush func([]*ndn.ContentObject), objects ...*ndn.ContentObject) {
	if b.window == 0 {
		flush(SortBatch(objects))
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if pending, ok := b.pending[registration]; ok {
		pending.objects = append(pending.objects, objects...)
		return
	}
	b.pending[registration] = &batch{objects: slices.Clone(objects), flush: flush}
	time.AfterFunc(b.window, func() { b.flush(registration) })
}

// Flush flushes every pending batch immediately and waits for flushes already started by the window to return.
func (b *Batcher) Flush() {
	b.mutex.Lock()
	registrations := make([]uint64, 0, len(b.pending))
	for registration := range b.pending {
		registrations = append(registrations, registration)
	}
	b.mutex.Unlock()

	for _, registration := range registrations {
		b.flush(registration)
	}
	b.inflight.Wait()
}

func (b *Batcher) flush(registration uint64) {
	b.mutex.Lock()
	pending, ok := b.pending[registration]
	delete(b.pending, registration)
	if ok {
		b.inflight.Add(1)
	}
	b.mutex.Unlock()

	if ok {
		defer b.inflight.Done()
		pending.flush(SortBatch(pending.objects))
	}
}

// SortBatch orders objects by name, then digest, and drops repeated objects.
func SortBatch(objects []*ndn.ContentObject) []*ndn.ContentObject {
	if len(objects) < 2 {
		return objects
	}
	sorted := slices.Clone(objects)
	slices.SortStableFunc(sorted, func(a, b *ndn.ContentObject) int {
		if c := a.Name().Compare(b.Name()); c != 0 {
			return c
		}
		return bytes.Compare(a.Digest(), b.Digest())
	})
	return slices.CompactFunc(sorted, func(a, b *ndn.ContentObject) bool {
		return bytes.Equal(a.Digest(), b.Digest())
	})
}
