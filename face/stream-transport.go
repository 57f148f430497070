/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"io"
	"net"
	"sync"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/face/impl"
	"github.com/named-data/ndnrepo/ndn/tlv"
)

// readStreamTransport splits a byte stream into TLV frames. Frames passed to
// frameCb alias buf and are only valid for the duration of the call.
func readStreamTransport(reader io.Reader, buf []byte, frameCb func([]byte)) error {
	recvOff := 0
	tlvOff := 0

	for {
		readSize, err := reader.Read(buf[recvOff:])
		recvOff += readSize
		if err != nil {
			return err
		}

		// Determine whether valid packet received
		for {
			_, typLen, err := tlv.DecodeVarNum(buf[tlvOff:recvOff])
			if err != nil {
				// Probably incomplete packet
				break
			}
			length, lenLen, err := tlv.DecodeVarNum(buf[tlvOff+typLen : recvOff])
			if err != nil {
				// Probably incomplete packet
				break
			}

			tlvSize := uint64(typLen+lenLen) + length
			if tlvSize > MaxPacketSize {
				return ErrFrameTooLarge
			}
			if uint64(recvOff-tlvOff) < tlvSize {
				// Incomplete packet (for sure)
				break
			}

			frameCb(buf[tlvOff : tlvOff+int(tlvSize)])
			tlvOff += int(tlvSize)
		}

		// If less than one packet space remains in buffer, shift to beginning
		if len(buf)-recvOff < MaxPacketSize {
			copy(buf, buf[tlvOff:recvOff])
			recvOff -= tlvOff
			tlvOff = 0
		}
	}
}

// StreamTransport communicates over a Unix or TCP stream connection.
type StreamTransport struct {
	transportBase
	conn      net.Conn
	sendMutex sync.Mutex
}

var _ transport = &StreamTransport{}

// MakeStreamTransport wraps an established stream connection.
func MakeStreamTransport(remoteURI string, localURI string, conn net.Conn) *StreamTransport {
	t := &StreamTransport{conn: conn}
	t.makeTransportBase(remoteURI, localURI)
	return t
}

func (t *StreamTransport) String() string {
	return "StreamTransport, RemoteURI=" + t.remoteURI + ", LocalURI=" + t.localURI
}

// GetSendQueueSize returns the current size of the send queue.
func (t *StreamTransport) GetSendQueueSize() uint64 {
	tcpConn, ok := t.conn.(*net.TCPConn)
	if !ok {
		return 0
	}
	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		core.LogWarn(t, "Unable to get raw connection to get socket length: ", err)
		return 0
	}
	return impl.SyscallGetSocketSendQueueSize(rawConn)
}

func (t *StreamTransport) sendFrame(frame []byte) error {
	if len(frame) > MaxPacketSize {
		core.LogWarn(t, "Attempted to send frame larger than MTU - DROP")
		return ErrFrameTooLarge
	}

	t.sendMutex.Lock()
	defer t.sendMutex.Unlock()
	if _, err := t.conn.Write(frame); err != nil {
		return err
	}
	t.nOutBytes.Add(uint64(len(frame)))
	return nil
}

func (t *StreamTransport) runReceive(buf []byte, frameCb func([]byte)) error {
	core.LogTrace(t, "Starting receive thread")
	return readStreamTransport(t.conn, buf, func(frame []byte) {
		t.nInBytes.Add(uint64(len(frame)))
		frameCb(frame)
	})
}

func (t *StreamTransport) close() error {
	return t.conn.Close()
}
