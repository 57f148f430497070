/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/repo"
)

// WebSocketListener accepts WebSocket connections from web applications.
type WebSocketListener struct {
	server   http.Server
	upgrader websocket.Upgrader
	conn     net.Listener
	localURI *URI
	repo     *repo.Repository
}

var _ Listener = &WebSocketListener{}

// MakeWebSocketListener constructs a WebSocketListener.
func MakeWebSocketListener(localURI *URI, r *repo.Repository) (*WebSocketListener, error) {
	if localURI.Scheme() != "ws" {
		return nil, ErrBadURI
	}

	l := &WebSocketListener{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  MaxPacketSize,
			WriteBufferSize: MaxPacketSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		localURI: localURI,
		repo:     r,
	}
	l.server = http.Server{
		Handler:           http.HandlerFunc(l.handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return l, nil
}

func (l *WebSocketListener) String() string {
	return "WebSocketListener, " + l.localURI.String()
}

// Listen binds the HTTP listening socket.
func (l *WebSocketListener) Listen() error {
	var err error
	if l.conn, err = net.Listen("tcp", l.localURI.Address()); err != nil {
		return err
	}
	core.LogInfo(l, "Listening")
	return nil
}

// Addr returns the bound address.
func (l *WebSocketListener) Addr() net.Addr {
	return l.conn.Addr()
}

func (l *WebSocketListener) handler(w http.ResponseWriter, r *http.Request) {
	c, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		core.LogWarn(l, "Unable to upgrade connection from ", r.RemoteAddr, ": ", err)
		return
	}

	t := MakeWebSocketTransport(l.localURI.String(), c)
	core.LogInfo(l, "Accepting new WebSocket face ", t.RemoteURI())
	go newFace(t, l.repo).Run()
}

// Run serves upgrade requests until the listener is closed.
func (l *WebSocketListener) Run() error {
	if err := l.server.Serve(l.conn); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops accepting connections.
func (l *WebSocketListener) Close() error {
	err := l.server.Close()
	if l.conn != nil {
		l.conn.Close()
	}
	return err
}
