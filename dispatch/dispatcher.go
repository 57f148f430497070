/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package dispatch

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/named-data/ndnrepo/core"
)

// MaxThreads is the maximum number of delivery threads.
const MaxThreads = 256

// Dispatcher runs listener callbacks outside of the repository lock. All
// callbacks of one registration run on the same thread, so they are delivered
// in the order they were submitted and never concurrently with each other.
type Dispatcher struct {
	threads []*Thread

	mutex   sync.RWMutex
	started bool
	stopped bool
}

// NewDispatcher creates a dispatcher with the given number of threads.
func NewDispatcher(threads int, queueSize int) *Dispatcher {
	if threads < 1 {
		threads = 1
	} else if threads > MaxThreads {
		threads = MaxThreads
	}

	d := &Dispatcher{threads: make([]*Thread, threads)}
	for i := range d.threads {
		d.threads[i] = newThread(i, queueSize)
	}
	return d
}

// Start launches the delivery threads.
func (d *Dispatcher) Start() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.started {
		return
	}
	d.started = true
	for _, t := range d.threads {
		go t.Run()
	}
	core.LogInfo("Dispatcher", "Started ", len(d.threads), " delivery threads")
}

// Stop delivers everything already submitted and waits for the threads to exit.
func (d *Dispatcher) Stop() {
	d.mutex.Lock()
	if d.stopped || !d.started {
		d.stopped = true
		d.mutex.Unlock()
		return
	}
	d.stopped = true
	d.mutex.Unlock()

	for _, t := range d.threads {
		t.TellToQuit()
	}
	for _, t := range d.threads {
		<-t.HasQuit
	}
	core.LogInfo("Dispatcher", "Stopped")
}

// HashRegistrationToThread hashes a registration ID to a delivery thread.
func (d *Dispatcher) HashRegistrationToThread(registration uint64) int {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], registration)
	return int(xxhash.Sum64(buf[:]) % uint64(len(d.threads)))
}

// Submit queues fn on the thread owning the registration. fn is never run inline.
func (d *Dispatcher) Submit(registration uint64, fn func() error) error {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}
	d.threads[d.HashRegistrationToThread(registration)].queue(task{registration: registration, run: fn})
	return nil
}

// Threads returns the delivery threads.
func (d *Dispatcher) Threads() []*Thread {
	return d.threads
}

// Counters returns the number of successful and failed deliveries over all threads.
func (d *Dispatcher) Counters() (delivered uint64, failed uint64) {
	for _, t := range d.threads {
		delivered += t.NDelivered.Load()
		failed += t.NFailed.Load()
	}
	return
}
