/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"sync/atomic"
)

// transport provides an interface for transports for specific face types
type transport interface {
	String() string
	RemoteURI() string
	LocalURI() string

	// runReceive reads frames until the connection fails or is closed.
	runReceive(buf []byte, frameCb func([]byte)) error
	sendFrame(frame []byte) error
	close() error

	GetSendQueueSize() uint64

	// Counters
	NInBytes() uint64
	NOutBytes() uint64
}

// transportBase provides logic common types between transport types
type transportBase struct {
	remoteURI string
	localURI  string

	// Counters
	nInBytes  atomic.Uint64
	nOutBytes atomic.Uint64
}

func (t *transportBase) makeTransportBase(remoteURI string, localURI string) {
	t.remoteURI = remoteURI
	t.localURI = localURI
}

// LocalURI returns the local URI of the transport.
func (t *transportBase) LocalURI() string {
	return t.localURI
}

// RemoteURI returns the remote URI of the transport.
func (t *transportBase) RemoteURI() string {
	return t.remoteURI
}

// NInBytes returns the number of bytes received on this transport.
func (t *transportBase) NInBytes() uint64 {
	return t.nInBytes.Load()
}

// NOutBytes returns the number of bytes sent on this transport.
func (t *transportBase) NOutBytes() uint64 {
	return t.nOutBytes.Load()
}

// GetSendQueueSize returns the current size of the send queue.
func (t *transportBase) GetSendQueueSize() uint64 {
	return 0
}
