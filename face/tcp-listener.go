/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"context"
	"net"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/face/impl"
	"github.com/named-data/ndnrepo/repo"
)

// TCPListener listens for incoming TCP connections.
type TCPListener struct {
	conn     net.Listener
	localURI *URI
	repo     *repo.Repository
}

var _ Listener = &TCPListener{}

// MakeTCPListener constructs a TCPListener.
func MakeTCPListener(localURI *URI, r *repo.Repository) (*TCPListener, error) {
	if localURI.Scheme() != "tcp" {
		return nil, ErrBadURI
	}
	return &TCPListener{localURI: localURI, repo: r}, nil
}

func (l *TCPListener) String() string {
	return "TCPListener, " + l.localURI.String()
}

// Listen binds the listening socket with address reuse enabled.
func (l *TCPListener) Listen() error {
	listenConfig := &net.ListenConfig{Control: impl.SyscallReuseAddr}
	var err error
	if l.conn, err = listenConfig.Listen(context.Background(), "tcp", l.localURI.Address()); err != nil {
		return err
	}
	core.LogInfo(l, "Listening")
	return nil
}

// Addr returns the bound address.
func (l *TCPListener) Addr() net.Addr {
	return l.conn.Addr()
}

// Run accepts connections until the listener is closed.
func (l *TCPListener) Run() error {
	return acceptLoop(l, l.conn, l.repo, l.localURI.String(), func(c net.Conn) string {
		return "tcp://" + c.RemoteAddr().String()
	})
}

// Close stops accepting connections.
func (l *TCPListener) Close() error {
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}
