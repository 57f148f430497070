/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/named-data/ndnrepo/dispatch"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/utils/priority_queue"
)

// EntryKind is the kind of a PIT registration.
type EntryKind int

// Registration kinds.
const (
	// KindInterest is a one-shot expressed Interest.
	KindInterest EntryKind = iota
	// KindFilter is a standing filter notified of every new object under its prefix.
	KindFilter
	// KindProducer serves Interests under its prefix that the store cannot satisfy.
	KindProducer
)

func (k EntryKind) String() string {
	switch k {
	case KindFilter:
		return "filter"
	case KindProducer:
		return "producer"
	}
	return "interest"
}

// EntryState is the lifecycle state of a PIT entry.
type EntryState int32

// Entry states. An entry leaves StatePending exactly once.
const (
	StatePending EntryState = iota
	StateSatisfied
	StateCanceled
	StateExpired
)

func (s EntryState) String() string {
	switch s {
	case StateSatisfied:
		return "satisfied"
	case StateCanceled:
		return "canceled"
	case StateExpired:
		return "expired"
	}
	return "pending"
}

// PitEntry is a registration in the PIT.
type PitEntry struct {
	id         uint64
	kind       EntryKind
	interest   *ndn.Interest
	registered time.Time
	expiration time.Time
	state      atomic.Int32

	Listener dispatch.ContentListener
	Producer dispatch.InterestListener

	node       *pitNode
	expiryItem *priority_queue.Item[*PitEntry, int64]
}

// ID returns the registration ID, unique within the PIT.
func (e *PitEntry) ID() uint64 {
	return e.id
}

// Kind returns the registration kind.
func (e *PitEntry) Kind() EntryKind {
	return e.kind
}

// Interest returns the registered Interest. Filters and producers hold a bare Interest for their prefix.
func (e *PitEntry) Interest() *ndn.Interest {
	return e.interest
}

// Prefix returns the registered name prefix.
func (e *PitEntry) Prefix() ndn.Name {
	return e.interest.Name()
}

// Registered returns when the entry was inserted.
func (e *PitEntry) Registered() time.Time {
	return e.registered
}

// Expiration returns when a one-shot Interest expires. It is zero for filters and producers.
func (e *PitEntry) Expiration() time.Time {
	return e.expiration
}

// State returns the current state.
func (e *PitEntry) State() EntryState {
	return EntryState(e.state.Load())
}

// IsPending returns whether the entry is still waiting.
func (e *PitEntry) IsPending() bool {
	return e.State() == StatePending
}

// Satisfy moves a pending entry to StateSatisfied and reports whether this call did so.
func (e *PitEntry) Satisfy() bool {
	return e.state.CompareAndSwap(int32(StatePending), int32(StateSatisfied))
}

// Cancel moves a pending entry to StateCanceled and reports whether this call did so.
func (e *PitEntry) Cancel() bool {
	return e.state.CompareAndSwap(int32(StatePending), int32(StateCanceled))
}

// Expire moves a pending entry to StateExpired and reports whether this call did so.
func (e *PitEntry) Expire() bool {
	return e.state.CompareAndSwap(int32(StatePending), int32(StateExpired))
}

func (e *PitEntry) String() string {
	return e.kind.String() + "#" + strconv.FormatUint(e.id, 10) + "(" + e.interest.Name().String() + ", " + e.State().String() + ")"
}

type pitNode struct {
	component ndn.Component
	depth     int

	parent   *pitNode
	children map[string]*pitNode

	entries []*PitEntry
}

func componentKey(c ndn.Component) string {
	return string(c.Value())
}

func (p *pitNode) findExactMatchEntry(name ndn.Name) *pitNode {
	node := p.findLongestPrefixEntry(name)
	if node.depth == name.Size() {
		return node
	}
	return nil
}

func (p *pitNode) findLongestPrefixEntry(name ndn.Name) *pitNode {
	node := p
	for node.depth < name.Size() {
		child, ok := node.children[componentKey(name.At(node.depth))]
		if !ok {
			break
		}
		node = child
	}
	return node
}

func (p *pitNode) fillTreeToPrefix(name ndn.Name) *pitNode {
	curNode := p.findLongestPrefixEntry(name)
	for depth := curNode.depth + 1; depth <= name.Size(); depth++ {
		newNode := &pitNode{
			component: name.At(depth - 1),
			depth:     depth,
			parent:    curNode,
		}
		if curNode.children == nil {
			curNode.children = make(map[string]*pitNode)
		}
		curNode.children[componentKey(newNode.component)] = newNode
		curNode = newNode
	}
	return curNode
}

func (p *pitNode) pruneIfEmpty() {
	for curNode := p; curNode.parent != nil && len(curNode.children) == 0 && len(curNode.entries) == 0; curNode = curNode.parent {
		delete(curNode.parent.children, componentKey(curNode.component))
	}
}

// Pit holds pending Interests, standing filters and producers in a name tree.
// Entries are also indexed by ID for lookup without the tree lock.
type Pit struct {
	mutex  sync.Mutex
	root   *pitNode
	byID   *hashmap.HashMap
	expiry *priority_queue.Queue[*PitEntry, int64]
	nextID atomic.Uint64
	counts [3]int
}

// NewPit creates an empty PIT.
func NewPit() *Pit {
	return &Pit{
		root:   &pitNode{},
		byID:   hashmap.New(64),
		expiry: priority_queue.New[*PitEntry, int64](),
	}
}

func (p *Pit) insert(entry *PitEntry) *PitEntry {
	entry.id = p.nextID.Add(1)
	entry.registered = time.Now()
	kind, expiration := entry.kind, entry.expiration

	p.mutex.Lock()
	defer p.mutex.Unlock()
	entry.node = p.root.fillTreeToPrefix(entry.interest.Name())
	entry.node.entries = append(entry.node.entries, entry)
	if !expiration.IsZero() {
		entry.expiryItem = p.expiry.Push(entry, expiration.UnixNano())
	}
	p.byID.Set(entry.id, entry)
	p.counts[kind]++
	return entry
}

// ReserveID allocates a registration ID without inserting an entry, for Interests satisfied at once.
func (p *Pit) ReserveID() uint64 {
	return p.nextID.Add(1)
}

// InsertInterest registers a one-shot Interest that expires after lifetime.
func (p *Pit) InsertInterest(interest *ndn.Interest, listener dispatch.ContentListener, lifetime time.Duration) *PitEntry {
	return p.insert(&PitEntry{
		kind:       KindInterest,
		interest:   interest,
		expiration: time.Now().Add(lifetime),
		Listener:   listener,
	})
}

// InsertFilter registers a standing filter for every object under prefix.
func (p *Pit) InsertFilter(prefix ndn.Name, listener dispatch.ContentListener) *PitEntry {
	return p.insert(&PitEntry{
		kind:     KindFilter,
		interest: ndn.NewInterest(prefix, ndn.WithNonce(nil)),
		Listener: listener,
	})
}

// InsertProducer registers a producer for Interests under prefix.
func (p *Pit) InsertProducer(prefix ndn.Name, producer dispatch.InterestListener) *PitEntry {
	return p.insert(&PitEntry{
		kind:     KindProducer,
		interest: ndn.NewInterest(prefix, ndn.WithNonce(nil)),
		Producer: producer,
	})
}

// Lookup returns the entry with the given ID.
func (p *Pit) Lookup(id uint64) (*PitEntry, bool) {
	value, ok := p.byID.Get(id)
	if !ok {
		return nil, false
	}
	return value.(*PitEntry), true
}

// Remove removes the entry from the PIT, returning whether it was present.
func (p *Pit) Remove(entry *PitEntry) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.removeLocked(entry)
}

func (p *Pit) removeLocked(entry *PitEntry) bool {
	node := entry.node
	if node == nil {
		return false
	}
	i := slices.Index(node.entries, entry)
	if i < 0 {
		return false
	}
	node.entries = slices.Delete(node.entries, i, i+1)
	node.pruneIfEmpty()
	entry.node = nil

	if entry.expiryItem != nil {
		p.expiry.Remove(entry.expiryItem)
		entry.expiryItem = nil
	}
	p.byID.Del(entry.id)
	p.counts[entry.kind]--
	return true
}

// FindMatches returns the pending Interests satisfied by obj and the filters whose prefix covers it, each in registration order.
func (p *Pit) FindMatches(obj *ndn.ContentObject) (interests []*PitEntry, filters []*PitEntry) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for curNode := p.root.findLongestPrefixEntry(obj.Name()); curNode != nil; curNode = curNode.parent {
		for _, entry := range curNode.entries {
			if !entry.IsPending() {
				continue
			}
			switch entry.kind {
			case KindInterest:
				if entry.interest.Matches(obj) {
					interests = append(interests, entry)
				}
			case KindFilter:
				filters = append(filters, entry)
			}
		}
	}
	sortByID(interests)
	sortByID(filters)
	return
}

// FindProducers returns the producers whose prefix covers name, longest prefix first.
func (p *Pit) FindProducers(name ndn.Name) []*PitEntry {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var producers []*PitEntry
	for curNode := p.root.findLongestPrefixEntry(name); curNode != nil; curNode = curNode.parent {
		for _, entry := range curNode.entries {
			if entry.kind == KindProducer && entry.IsPending() {
				producers = append(producers, entry)
			}
		}
	}
	return producers
}

// FindExact returns the entries registered at exactly this name.
func (p *Pit) FindExact(name ndn.Name) []*PitEntry {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if node := p.root.findExactMatchEntry(name); node != nil {
		return slices.Clone(node.entries)
	}
	return nil
}

// PopExpired removes and returns the Interests whose lifetime ended at or before now.
func (p *Pit) PopExpired(now time.Time) []*PitEntry {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var expired []*PitEntry
	for p.expiry.Len() > 0 && p.expiry.PeekPriority() <= now.UnixNano() {
		entry := p.expiry.Peek()
		p.removeLocked(entry)
		expired = append(expired, entry)
	}
	return expired
}

// NextExpiry returns when the next Interest expires.
func (p *Pit) NextExpiry() (time.Time, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.expiry.Len() == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, p.expiry.PeekPriority()), true
}

// Len returns the number of entries.
func (p *Pit) Len() int {
	return p.byID.Len()
}

// Count returns the number of entries of one kind.
func (p *Pit) Count(kind EntryKind) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.counts[kind]
}

// Entries returns every entry in registration order.
func (p *Pit) Entries() []*PitEntry {
	var entries []*PitEntry
	for kv := range p.byID.Iter() {
		entries = append(entries, kv.Value.(*PitEntry))
	}
	sortByID(entries)
	return entries
}

func sortByID(entries []*PitEntry) {
	slices.SortFunc(entries, func(a, b *PitEntry) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
}
