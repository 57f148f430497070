/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package repo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/dispatch"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/table"
)

// Repository stores content objects and resolves Interests against them,
// holding unsatisfied Interests until matching content is put.
type Repository struct {
	config     *core.Config
	store      *table.ContentStore
	pit        *table.Pit
	dispatcher *dispatch.Dispatcher
	batcher    *dispatch.Batcher
	measures   *measurements

	// Serializes store-then-match in Put against lookup-then-register in ExpressInterest
	mutex sync.Mutex

	closed     atomic.Bool
	stopExpiry chan struct{}
	expiryDone chan struct{}
	startTime  time.Time
}

// Handle identifies a registration returned by ExpressInterest, SetInterestFilter or RegisterProducer.
// An Interest handle follows the follow-up Interests its listener returns, so
// Cancel always reaches the registration currently waiting.
type Handle struct {
	listener dispatch.ContentListener

	mutex    sync.Mutex
	id       uint64
	interest *ndn.Interest
	entry    *table.PitEntry
	stopped  bool
}

// ID returns the current registration ID.
func (h *Handle) ID() uint64 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.id
}

// Interest returns the current registered Interest.
func (h *Handle) Interest() *ndn.Interest {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.interest
}

// Pending returns whether the registration is still waiting. An Interest satisfied at once is never pending.
func (h *Handle) Pending() bool {
	h.mutex.Lock()
	entry := h.entry
	h.mutex.Unlock()
	return entry != nil && entry.IsPending()
}

// OnContentArrived forwards a delivery to the registered listener.
func (h *Handle) OnContentArrived(objects []*ndn.ContentObject, interest *ndn.Interest) (*ndn.Interest, error) {
	if h.listener == nil {
		return nil, nil
	}
	return h.listener.OnContentArrived(objects, interest)
}

// OnInterestCanceled forwards a cancellation notice to the registered listener.
func (h *Handle) OnInterestCanceled(interest *ndn.Interest) {
	if h.listener != nil {
		h.listener.OnInterestCanceled(interest)
	}
}

// Stats is a snapshot of repository activity.
type Stats struct {
	Objects          int            `json:"objects"`
	PendingInterests int            `json:"pendingInterests"`
	Filters          int            `json:"filters"`
	Producers        int            `json:"producers"`
	Delivered        uint64         `json:"delivered"`
	FailedDeliveries uint64         `json:"failedDeliveries"`
	Counters         map[string]int `json:"counters"`
	Uptime           time.Duration  `json:"uptime"`
}

// New opens a repository with the given configuration.
func New(config *core.Config) (*Repository, error) {
	if config == nil {
		config = core.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryConfig, err)
	}

	store, err := table.OpenContentStore(config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryConfig, err)
	}

	r := &Repository{
		config:     config,
		store:      store,
		pit:        table.NewPit(),
		dispatcher: dispatch.NewDispatcher(config.Dispatch.Threads, config.Dispatch.QueueSize),
		batcher:    dispatch.NewBatcher(config.DispatchBatchWindow()),
		measures:   newMeasurements(),
		stopExpiry: make(chan struct{}),
		expiryDone: make(chan struct{}),
		startTime:  time.Now(),
	}
	r.dispatcher.Start()
	go r.runExpiry(config.PitExpiryInterval())
	return r, nil
}

func (r *Repository) String() string {
	return "Repository"
}

// Config returns the configuration the repository was opened with.
func (r *Repository) Config() *core.Config {
	return r.config
}

// Close cancels every registration, delivers outstanding notifications and closes the store.
func (r *Repository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}

	close(r.stopExpiry)
	<-r.expiryDone

	// Wait out any Put or ExpressInterest that found the repository open
	r.mutex.Lock()
	r.mutex.Unlock()

	r.batcher.Flush()
	for _, entry := range r.pit.Entries() {
		r.cancelEntry(entry)
	}
	r.dispatcher.Stop()

	core.LogInfo(r, "Closed")
	return r.store.Close()
}

// Put stores obj and satisfies every pending Interest it matches. It returns
// whether the object was new and the IDs of the satisfied registrations.
// Standing filters are notified only of new objects; pending Interests are
// satisfied even by an object that was already stored.
func (r *Repository) Put(obj *ndn.ContentObject) (bool, []uint64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed.Load() {
		return false, nil, ErrClosed
	}

	stored, err := r.store.Put(obj)
	if err != nil {
		core.LogError(r, "Unable to store ", obj, ": ", err)
		return false, nil, fmt.Errorf("%w: %v", ErrRepositoryWrite, err)
	}
	if stored {
		r.measures.add(measureStored, 1)
		core.LogDebug(r, "Stored ", obj)
	} else {
		r.measures.add(measureDuplicate, 1)
	}

	// Notifications are only queued here; listeners run on the delivery threads
	interests, filters := r.pit.FindMatches(obj)
	ids := make([]uint64, 0, len(interests))
	for _, entry := range interests {
		if !entry.Satisfy() {
			continue
		}
		r.pit.Remove(entry)
		ids = append(ids, entry.ID())
		r.measures.add(measureSatisfied, 1)
		handle, _ := entry.Listener.(*Handle)
		r.deliverContent(entry.ID(), handle, entry.Interest(), obj)
	}
	if stored {
		for _, filter := range filters {
			r.batcher.Add(filter.ID(), r.filterFlusher(filter), obj)
		}
	}
	return stored, ids, nil
}

// SaveContent stores obj. An object that is already stored is rejected with
// ErrRepositoryDuplicate if repo.reject_duplicates is set.
func (r *Repository) SaveContent(obj *ndn.ContentObject) error {
	stored, _, err := r.Put(obj)
	if err != nil {
		return err
	}
	if !stored && r.config.Repo.RejectDuplicates {
		return fmt.Errorf("%w: %s", ErrRepositoryDuplicate, obj.FullName())
	}
	return nil
}

// Get returns the best stored match for the Interest, or nil if there is none. It never registers anything.
func (r *Repository) Get(interest *ndn.Interest) (*ndn.ContentObject, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	return r.store.Get(interest)
}

// GetContent is like Get but fails with ErrRepositoryNotFound when nothing matches.
func (r *Repository) GetContent(interest *ndn.Interest) (*ndn.ContentObject, error) {
	obj, err := r.Get(interest)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		r.measures.add(measureMisses, 1)
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, interest.Name())
	}
	r.measures.add(measureHits, 1)
	return obj, nil
}

// Fetch implements Fetcher with a synchronous lookup.
func (r *Repository) Fetch(_ context.Context, interest *ndn.Interest) (*ndn.ContentObject, error) {
	return r.GetContent(interest)
}

// Remove deletes every object stored under exactly this name and returns how many were removed.
// Objects with the same name and different digests are all removed.
func (r *Repository) Remove(name ndn.Name) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	n, err := r.store.Remove(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRepositoryWrite, err)
	}
	r.measures.add(measureRemoved, n)
	core.LogInfo(r, "Removed ", n, " objects named ", name)
	return n, nil
}

// RemovePrefix deletes every object under prefix and returns how many were removed.
func (r *Repository) RemovePrefix(prefix ndn.Name) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	n, err := r.store.RemovePrefix(prefix)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRepositoryWrite, err)
	}
	r.measures.add(measureRemoved, n)
	core.LogInfo(r, "Removed ", n, " objects under ", prefix)
	return n, nil
}

// Enumerate lists up to limit stored records under prefix in name order.
func (r *Repository) Enumerate(prefix ndn.Name, limit int) ([]table.Record, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	return r.store.Enumerate(prefix, limit)
}

// ExpressInterest looks the Interest up and, on a match, schedules the listener
// with the result without registering anything. Otherwise the Interest is held
// until a matching Put, Cancel or the end of its lifetime, and producers
// registered for its name are asked to produce.
//
// A follow-up Interest returned by the listener is expressed the same way and
// tracked by the same handle.
func (r *Repository) ExpressInterest(interest *ndn.Interest, listener dispatch.ContentListener) (*Handle, error) {
	handle := &Handle{listener: listener}
	if err := r.express(handle, interest); err != nil {
		return nil, err
	}
	return handle, nil
}

// express registers interest as the current registration of handle.
// It fails with errHandleStopped once the handle was canceled.
func (r *Repository) express(handle *Handle, interest *ndn.Interest) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed.Load() {
		return ErrClosed
	}

	obj, err := r.store.Get(interest)
	if err != nil {
		return err
	}

	handle.mutex.Lock()
	if handle.stopped {
		handle.mutex.Unlock()
		return errHandleStopped
	}
	handle.interest = interest
	if obj != nil {
		handle.id, handle.entry = r.pit.ReserveID(), nil
		id := handle.id
		handle.mutex.Unlock()

		r.measures.add(measureHits, 1)
		r.deliverContent(id, handle, interest, obj)
		return nil
	}

	lifetime := interest.Lifetime()
	if lifetime <= 0 {
		lifetime = r.config.PitDefaultLifetime()
	}
	entry := r.pit.InsertInterest(interest, handle, lifetime)
	handle.id, handle.entry = entry.ID(), entry
	handle.mutex.Unlock()

	r.measures.add(measureMisses, 1)
	core.LogTrace(r, "Pending ", entry)
	r.notifyProducers(interest)
	return nil
}

// SetInterestFilter registers a standing filter receiving every object newly stored under prefix.
func (r *Repository) SetInterestFilter(prefix ndn.Name, listener dispatch.ContentListener) (*Handle, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed.Load() {
		return nil, ErrClosed
	}
	entry := r.pit.InsertFilter(prefix, listener)
	core.LogDebug(r, "Registered ", entry)
	return &Handle{listener: listener, id: entry.ID(), interest: entry.Interest(), entry: entry}, nil
}

// RegisterProducer registers a producer asked to serve Interests under prefix the store cannot satisfy.
func (r *Repository) RegisterProducer(prefix ndn.Name, producer dispatch.InterestListener) (*Handle, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed.Load() {
		return nil, ErrClosed
	}
	entry := r.pit.InsertProducer(prefix, producer)
	core.LogDebug(r, "Registered ", entry)
	return &Handle{id: entry.ID(), interest: entry.Interest(), entry: entry}, nil
}

// Cancel cancels a registration and stops any further follow-up Interests
// from its listener. It returns false if the current registration was already
// satisfied or canceled. Otherwise the listener receives exactly one
// cancellation notice and nothing after it.
func (r *Repository) Cancel(handle *Handle) bool {
	if handle == nil {
		return false
	}
	handle.mutex.Lock()
	handle.stopped = true
	entry := handle.entry
	handle.mutex.Unlock()

	if entry == nil {
		return false
	}
	return r.cancelEntry(entry)
}

func (r *Repository) cancelEntry(entry *table.PitEntry) bool {
	if !entry.Cancel() {
		return false
	}
	r.pit.Remove(entry)
	r.measures.add(measureCanceled, 1)
	r.notifyCanceled(entry)
	return true
}

// Stats returns a snapshot of repository activity.
func (r *Repository) Stats() Stats {
	objects, err := r.store.Len()
	if err != nil {
		core.LogWarn(r, "Unable to count objects: ", err)
	}
	delivered, failed := r.dispatcher.Counters()
	return Stats{
		Objects:          objects,
		PendingInterests: r.pit.Count(table.KindInterest),
		Filters:          r.pit.Count(table.KindFilter),
		Producers:        r.pit.Count(table.KindProducer),
		Delivered:        delivered,
		FailedDeliveries: failed,
		Counters:         r.measures.snapshot(),
		Uptime:           time.Since(r.startTime),
	}
}
