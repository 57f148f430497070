/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Link512/stealthpool"
	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/dispatch"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/ndn/security"
	"github.com/named-data/ndnrepo/ndn/tlv"
	"github.com/named-data/ndnrepo/repo"
)

// pendingInterest is an Interest received on a face that the repository has not answered yet.
type pendingInterest struct {
	handle *repo.Handle
}

// Face serves one connected application. Interests it receives are expressed
// to the repository and answered with the matching content object, or with a
// Nack object when they expire or are canceled. Content objects it receives are stored.
type Face struct {
	faceID    uint64
	transport transport
	repo      *repo.Repository

	mutex   sync.Mutex
	pending map[*pendingInterest]*repo.Handle
	closed  atomic.Bool

	// Counters
	nInInterests      atomic.Uint64
	nInContentObjects atomic.Uint64
	nOutContent       atomic.Uint64
	nOutNacks         atomic.Uint64
}

func newFace(t transport, r *repo.Repository) *Face {
	return &Face{
		transport: t,
		repo:      r,
		pending:   make(map[*pendingInterest]*repo.Handle),
	}
}

func (f *Face) String() string {
	return "Face, FaceID=" + strconv.FormatUint(f.faceID, 10) + ", RemoteURI=" + f.transport.RemoteURI()
}

// FaceID returns the ID of the face in the face table.
func (f *Face) FaceID() uint64 {
	return f.faceID
}

// RemoteURI returns the URI of the connected application.
func (f *Face) RemoteURI() string {
	return f.transport.RemoteURI()
}

// LocalURI returns the URI of the listener that accepted the face.
func (f *Face) LocalURI() string {
	return f.transport.LocalURI()
}

// Run receives frames until the connection ends, then cancels every Interest still pending for the face.
func (f *Face) Run() {
	FaceTable.Add(f)
	defer FaceTable.Remove(f.faceID)
	defer f.Close()

	pool, err := stealthpool.New(maxPoolBlockCnt, stealthpool.WithBlockSize(recvBufferSize))
	if err != nil {
		core.LogError(f, "Failed to allocate stealthpool: ", err)
		return
	}
	defer pool.Close()
	buf, err := pool.Get()
	if err != nil {
		core.LogError(f, "Failed to allocate receive buffer: ", err)
		return
	}
	defer pool.Return(buf)

	core.LogInfo(f, "Face up")
	err = f.transport.runReceive(buf, f.handleIncomingFrame)
	switch {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), f.closed.Load():
		core.LogInfo(f, "Face down")
	default:
		core.LogWarn(f, "Unable to read from socket (", err, ") - Face DOWN")
	}
}

// Close closes the connection and cancels the Interests still pending for the face.
func (f *Face) Close() {
	if !f.closed.CompareAndSwap(false, true) {
		return
	}
	f.transport.close()

	f.mutex.Lock()
	handles := make([]*repo.Handle, 0, len(f.pending))
	for _, handle := range f.pending {
		handles = append(handles, handle)
	}
	clear(f.pending)
	f.mutex.Unlock()

	for _, handle := range handles {
		f.repo.Cancel(handle)
	}
}

// State returns a snapshot of the face counters.
func (f *Face) State() State {
	f.mutex.Lock()
	pending := len(f.pending)
	f.mutex.Unlock()
	return State{
		FaceID:            f.faceID,
		RemoteURI:         f.transport.RemoteURI(),
		LocalURI:          f.transport.LocalURI(),
		PendingInterests:  pending,
		NInInterests:      f.nInInterests.Load(),
		NInContentObjects: f.nInContentObjects.Load(),
		NOutContent:       f.nOutContent.Load(),
		NOutNacks:         f.nOutNacks.Load(),
		NInBytes:          f.transport.NInBytes(),
		NOutBytes:         f.transport.NOutBytes(),
		SendQueueSize:     f.transport.GetSendQueueSize(),
	}
}

func (f *Face) handleIncomingFrame(frame []byte) {
	block, _, err := tlv.DecodeBlock(frame)
	if err != nil {
		core.LogWarn(f, "Unable to decode frame (", err, ") - DROP")
		return
	}

	switch block.Type() {
	case tlv.Interest:
		interest, err := ndn.DecodeInterest(block)
		if err != nil {
			core.LogWarn(f, "Unable to decode Interest (", err, ") - DROP")
			return
		}
		f.nInInterests.Add(1)
		f.onInterest(interest)
	case tlv.ContentObject:
		obj, err := ndn.DecodeContentObject(block)
		if err != nil {
			core.LogWarn(f, "Unable to decode content object (", err, ") - DROP")
			return
		}
		f.nInContentObjects.Add(1)
		f.onContentObject(obj)
	default:
		core.LogWarn(f, "Received frame of unknown type 0x", strconv.FormatUint(uint64(block.Type()), 16), " - DROP")
	}
}

func (f *Face) onInterest(interest *ndn.Interest) {
	core.LogTrace(f, "OnIncomingInterest: ", interest)
	p := &pendingInterest{}
	handle, err := f.repo.ExpressInterest(interest, dispatch.ContentListenerFuncs{
		Arrived: func(objects []*ndn.ContentObject, _ *ndn.Interest) (*ndn.Interest, error) {
			f.forget(p)
			f.nOutContent.Add(1)
			return nil, f.send(objects[0].Wire())
		},
		Canceled: func(canceled *ndn.Interest) {
			f.forget(p)
			f.sendNack(canceled)
		},
	})
	if err != nil {
		core.LogWarn(f, "Unable to express ", interest, ": ", err)
		f.sendNack(interest)
		return
	}
	f.remember(p, handle)
}

func (f *Face) onContentObject(obj *ndn.ContentObject) {
	core.LogTrace(f, "OnIncomingContentObject: ", obj)
	if obj.ContentType() == ndn.ContentTypeNack {
		core.LogDebug(f, "Ignoring Nack ", obj.Name())
		return
	}
	if _, _, err := f.repo.Put(obj); err != nil {
		core.LogWarn(f, "Unable to store ", obj.Name(), ": ", err)
	}
}

func (f *Face) remember(p *pendingInterest, handle *repo.Handle) {
	f.mutex.Lock()
	p.handle = handle
	if !handle.Pending() {
		f.mutex.Unlock()
		return
	}
	if !f.closed.Load() {
		f.pending[p] = handle
		f.mutex.Unlock()
		return
	}
	f.mutex.Unlock()
	f.repo.Cancel(handle)
}

func (f *Face) forget(p *pendingInterest) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	delete(f.pending, p)
}

func (f *Face) send(wire []byte) error {
	if f.closed.Load() {
		return ErrFaceClosed
	}
	return f.transport.sendFrame(wire)
}

// sendNack answers an Interest the repository gave up on with a Nack object carrying the Interest.
func (f *Face) sendNack(interest *ndn.Interest) {
	if f.closed.Load() {
		return
	}
	nack, err := MakeNack(interest)
	if err != nil {
		core.LogWarn(f, "Unable to create Nack for ", interest, ": ", err)
		return
	}
	f.nOutNacks.Add(1)
	if err = f.send(nack.Wire()); err != nil {
		core.LogDebug(f, "Unable to send Nack: ", err)
	}
}

// MakeNack creates the Nack object answering interest. It is named after the
// Interest and its content is the encoded Interest.
func MakeNack(interest *ndn.Interest) (*ndn.ContentObject, error) {
	return ndn.NewContentObject(interest.Name(), ndn.MetaInfo{ContentType: ndn.ContentTypeNack},
		interest.Encode().Wire(), security.DigestSha256{})
}

// State is a snapshot of the counters of a face.
type State struct {
	FaceID            uint64 `json:"faceId"`
	RemoteURI         string `json:"remoteUri"`
	LocalURI          string `json:"localUri"`
	PendingInterests  int    `json:"pendingInterests"`
	NInInterests      uint64 `json:"nInInterests"`
	NInContentObjects uint64 `json:"nInContentObjects"`
	NOutContent       uint64 `json:"nOutContent"`
	NOutNacks         uint64 `json:"nOutNacks"`
	NInBytes          uint64 `json:"nInBytes"`
	NOutBytes         uint64 `json:"nOutBytes"`
	SendQueueSize     uint64 `json:"sendQueueSize"`
}
