/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package dispatch

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/named-data/ndnrepo/core"
)

type task struct {
	registration uint64
	run          func() error
}

// Thread delivers callbacks for the registrations hashed onto it, one at a time and in submission order.
type Thread struct {
	threadID  int
	queueSize int

	mutex   sync.Mutex
	pending []task
	wake    chan struct{}

	shouldQuit chan interface{}
	HasQuit    chan interface{}

	// Counters
	NDelivered atomic.Uint64
	NFailed    atomic.Uint64
}

func newThread(id int, queueSize int) *Thread {
	t := new(Thread)
	t.threadID = id
	t.queueSize = queueSize
	t.wake = make(chan struct{}, 1)
	t.shouldQuit = make(chan interface{}, 1)
	t.HasQuit = make(chan interface{})
	return t
}

func (t *Thread) String() string {
	return "DispatchThread-" + strconv.Itoa(t.threadID)
}

// GetID returns the ID of the thread.
func (t *Thread) GetID() int {
	return t.threadID
}

// Backlog returns the number of queued callbacks.
func (t *Thread) Backlog() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.pending)
}

// TellToQuit tells the thread to finish its queue and quit.
func (t *Thread) TellToQuit() {
	core.LogDebug(t, "Told to quit")
	t.shouldQuit <- true
}

// queue never blocks, so a listener may safely cause further deliveries from inside its callback.
func (t *Thread) queue(tk task) {
	t.mutex.Lock()
	t.pending = append(t.pending, tk)
	backlog := len(t.pending)
	t.mutex.Unlock()

	if backlog == t.queueSize+1 {
		core.LogWarn(t, "Queue exceeds ", t.queueSize, " callbacks - listeners are falling behind")
	}

	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Thread) take() []task {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	tasks := t.pending
	t.pending = nil
	return tasks
}

// Run the thread.
func (t *Thread) Run() {
	quitting := false
	for !quitting {
		select {
		case <-t.wake:
		case <-t.shouldQuit:
			quitting = true
		}
		for tasks := t.take(); len(tasks) > 0; tasks = t.take() {
			for _, tk := range tasks {
				t.deliver(tk)
			}
		}
	}

	core.LogDebug(t, "Stopping thread")
	t.HasQuit <- true
}

func (t *Thread) deliver(tk task) {
	defer func() {
		if r := recover(); r != nil {
			t.NFailed.Add(1)
			core.LogError(t, "Registration ", tk.registration, ": ", fmt.Errorf("%w: panic: %v", ErrListenerDispatch, r))
		}
	}()

	if err := tk.run(); err != nil {
		t.NFailed.Add(1)
		core.LogError(t, "Registration ", tk.registration, ": ", fmt.Errorf("%w: %w", ErrListenerDispatch, err))
		return
	}
	t.NDelivered.Add(1)
}
