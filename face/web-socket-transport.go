/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/named-data/ndnrepo/core"
)

// WebSocketTransport communicates with web applications via WebSocket.
// Every binary message carries exactly one TLV frame.
type WebSocketTransport struct {
	transportBase
	c         *websocket.Conn
	sendMutex sync.Mutex
}

var _ transport = &WebSocketTransport{}

// MakeWebSocketTransport wraps an established WebSocket connection.
func MakeWebSocketTransport(localURI string, c *websocket.Conn) *WebSocketTransport {
	t := &WebSocketTransport{c: c}
	t.makeTransportBase("ws://"+c.RemoteAddr().String(), localURI)
	return t
}

func (t *WebSocketTransport) String() string {
	return "WebSocketTransport, RemoteURI=" + t.remoteURI + ", LocalURI=" + t.localURI
}

func (t *WebSocketTransport) sendFrame(frame []byte) error {
	if len(frame) > MaxPacketSize {
		core.LogWarn(t, "Attempted to send frame larger than MTU - DROP")
		return ErrFrameTooLarge
	}

	t.sendMutex.Lock()
	defer t.sendMutex.Unlock()
	if err := t.c.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return err
	}
	t.nOutBytes.Add(uint64(len(frame)))
	return nil
}

func (t *WebSocketTransport) runReceive(buf []byte, frameCb func([]byte)) error {
	core.LogTrace(t, "Starting receive thread")

	for {
		mt, message, err := t.c.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.BinaryMessage {
			core.LogWarn(t, "Ignored non-binary message")
			continue
		}
		if len(message) > MaxPacketSize {
			core.LogWarn(t, "Received too much data without valid TLV block - DROP")
			continue
		}

		core.LogTrace(t, "Receive of size ", len(message))
		t.nInBytes.Add(uint64(len(message)))
		n := copy(buf, message)
		frameCb(buf[:n])
	}
}

func (t *WebSocketTransport) close() error {
	return t.c.Close()
}
