/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/dispatch"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/repo"
)

// State is the read availability of a versioned object.
type State int

// States of a versioned object.
const (
	StateUninitialized State = iota
	StateFetching
	StateAvailable
	StateGone
	StateError
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "FETCHING"
	case StateAvailable:
		return "AVAILABLE"
	case StateGone:
		return "GONE"
	case StateError:
		return "ERROR"
	}
	return "UNINITIALIZED"
}

// VersionedObject tracks the newest known version of a typed object stored
// under a base name. It is safe for concurrent use.
type VersionedObject[T any] struct {
	repo  *repo.Repository
	name  ndn.Name
	codec Codec[T]
	opts  Options

	mutex      sync.Mutex
	state      State
	settled    State
	value      T
	version    uint64
	hasVersion bool
	err        error

	generation uint64
	handle     *repo.Handle
	ctx        context.Context
	cancel     context.CancelFunc
	changed    chan struct{}
}

// Open starts fetching the newest version of name and returns at once in StateFetching.
func Open[T any](r *repo.Repository, name ndn.Name, codec Codec[T], opts Options) (*VersionedObject[T], error) {
	o := &VersionedObject[T]{
		repo:    r,
		name:    name,
		codec:   codec,
		opts:    opts,
		changed: make(chan struct{}),
	}
	o.ctx, o.cancel = context.WithCancel(context.Background())

	o.mutex.Lock()
	defer o.mutex.Unlock()
	if err := o.startFetchLocked(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *VersionedObject[T]) String() string {
	return "VersionedObject(" + o.name.String() + ")"
}

// Name returns the base name.
func (o *VersionedObject[T]) Name() ndn.Name {
	return o.name
}

// State returns the current state.
func (o *VersionedObject[T]) State() State {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.state
}

// Version returns the version of the current value.
func (o *VersionedObject[T]) Version() (uint64, bool) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.version, o.hasVersion
}

// Value returns the decoded value. It fails with ErrContentNotReady while no
// value is available or a fetch is in progress, and with ErrContentGone after a tombstone.
func (o *VersionedObject[T]) Value() (T, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	var zero T
	switch o.state {
	case StateAvailable:
		return o.value, nil
	case StateGone:
		return zero, fmt.Errorf("%w: %s", ErrContentGone, o.name)
	case StateError:
		return zero, o.err
	}
	return zero, fmt.Errorf("%w: %s is %s", ErrContentNotReady, o.name, o.state)
}

// WaitForData blocks until no fetch is in progress.
func (o *VersionedObject[T]) WaitForData(ctx context.Context) error {
	for {
		o.mutex.Lock()
		state, changed := o.state, o.changed
		o.mutex.Unlock()
		if state != StateFetching {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Update fetches a version newer than the current one and waits for the
// outcome. It returns whether a newer version was obtained.
func (o *VersionedObject[T]) Update(ctx context.Context) (bool, error) {
	o.mutex.Lock()
	before, hadVersion := o.version, o.hasVersion
	if o.state != StateFetching {
		if err := o.startFetchLocked(); err != nil {
			o.mutex.Unlock()
			return false, err
		}
	}
	o.mutex.Unlock()

	if err := o.WaitForData(ctx); err != nil {
		return false, err
	}

	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.state == StateError {
		return false, o.err
	}
	return o.hasVersion && (!hadVersion || o.version > before), nil
}

// Save stores value as a new version and makes it the current value.
func (o *VersionedObject[T]) Save(value T) (*ndn.ContentObject, error) {
	content, err := o.codec.Encode(value)
	if err != nil {
		return nil, err
	}
	first, version, err := publish(o.repo, o.name, content, o.codec.ContentType(), o.opts)
	if err != nil {
		return nil, err
	}

	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.abandonFetchLocked()
	o.value, o.version, o.hasVersion, o.err = value, version, true, nil
	o.settleLocked(StateAvailable)
	return first, nil
}

// Delete stores a tombstone as a new version and moves the object to StateGone.
func (o *VersionedObject[T]) Delete() error {
	_, version, err := publish(o.repo, o.name, nil, ndn.ContentTypeGone, o.opts)
	if err != nil {
		return err
	}

	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.abandonFetchLocked()
	var zero T
	o.value, o.version, o.hasVersion, o.err = zero, version, true, nil
	o.settleLocked(StateGone)
	return nil
}

// Close abandons any fetch in progress.
func (o *VersionedObject[T]) Close() {
	o.cancel()
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.abandonFetchLocked() {
		o.settleLocked(o.settled)
	}
}

func (o *VersionedObject[T]) startFetchLocked() error {
	var after *uint64
	if o.hasVersion {
		after = &o.version
	}

	o.generation++
	generation := o.generation
	o.settled = o.state
	o.state = StateFetching

	handle, err := o.repo.ExpressInterest(discoveryInterest(o.name, after, o.opts), dispatch.ContentListenerFuncs{
		Arrived: func(objects []*ndn.ContentObject, _ *ndn.Interest) (*ndn.Interest, error) {
			go o.assemble(generation, objects[0])
			return nil, nil
		},
		Canceled: func(*ndn.Interest) {
			o.finish(generation, func() {
				core.LogDebug(o, "No newer version arrived")
				o.settleLocked(o.settled)
			})
		},
	})
	if err != nil {
		o.state = o.settled
		return err
	}
	o.handle = handle
	return nil
}

// abandonFetchLocked invalidates the fetch in progress and reports whether there was one.
func (o *VersionedObject[T]) abandonFetchLocked() bool {
	o.generation++
	if o.handle != nil {
		o.repo.Cancel(o.handle)
		o.handle = nil
	}
	return o.state == StateFetching
}

func (o *VersionedObject[T]) settleLocked(state State) {
	o.state = state
	o.handle = nil
	close(o.changed)
	o.changed = make(chan struct{})
}

// finish applies fn if generation is still the current fetch.
func (o *VersionedObject[T]) finish(generation uint64, fn func()) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if generation != o.generation || o.state != StateFetching {
		return
	}
	fn()
}

// assemble fetches every segment of the version the discovered segment belongs to and decodes the value.
func (o *VersionedObject[T]) assemble(generation uint64, discovered *ndn.ContentObject) {
	info, err := parseSegment(o.name, discovered)
	if err != nil {
		o.fail(generation, err)
		return
	}

	if discovered.IsGone() {
		o.finish(generation, func() {
			var zero T
			o.value, o.version, o.hasVersion, o.err = zero, info.version, true, nil
			o.settleLocked(StateGone)
		})
		return
	}

	versioned := o.name.Append(ndn.NewVersionComponent(info.version))
	var content bytes.Buffer
	for segment := uint64(0); segment <= info.final; segment++ {
		obj := discovered
		if segment != info.segment {
			if obj, err = fetchSegment(o.ctx, o.repo, versioned.Append(ndn.NewSegmentComponent(segment)), o.opts); err != nil {
				o.fail(generation, err)
				return
			}
		}
		content.Write(obj.Content())
	}

	value, err := o.codec.Decode(content.Bytes())
	if err != nil {
		o.fail(generation, err)
		return
	}
	o.finish(generation, func() {
		o.value, o.version, o.hasVersion, o.err = value, info.version, true, nil
		core.LogDebug(o, "Version ", info.version, " is available")
		o.settleLocked(StateAvailable)
	})
}

// fail settles a fetch that could not complete. Missing segments restore the previous state.
func (o *VersionedObject[T]) fail(generation uint64, err error) {
	o.finish(generation, func() {
		if errors.Is(err, ErrContentNotReady) || errors.Is(err, context.Canceled) {
			core.LogDebug(o, "Fetch abandoned: ", err)
			o.settleLocked(o.settled)
			return
		}
		core.LogWarn(o, "Fetch failed: ", err)
		o.err = err
		o.settleLocked(StateError)
	})
}
