/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"net"
	"os"
	"path"
	"strconv"
	"sync/atomic"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/repo"
)

// UnixStreamListener listens for incoming Unix stream connections.
type UnixStreamListener struct {
	conn     net.Listener
	localURI *URI
	repo     *repo.Repository
	nextFD   atomic.Uint64 // We can't (at least easily) access the actual FD through net.Conn, so we'll make our own
}

var _ Listener = &UnixStreamListener{}

// MakeUnixStreamListener constructs a UnixStreamListener.
func MakeUnixStreamListener(localURI *URI, r *repo.Repository) (*UnixStreamListener, error) {
	if localURI.Scheme() != "unix" {
		return nil, ErrBadURI
	}
	return &UnixStreamListener{localURI: localURI, repo: r}, nil
}

func (l *UnixStreamListener) String() string {
	return "UnixStreamListener, " + l.localURI.String()
}

// Listen creates the socket, replacing any existing one, and opens it to all local applications.
func (l *UnixStreamListener) Listen() error {
	sockPath := l.localURI.Path()
	os.Remove(sockPath)
	if err := os.MkdirAll(path.Dir(sockPath), os.ModePerm); err != nil {
		return err
	}

	var err error
	if l.conn, err = net.Listen("unix", sockPath); err != nil {
		return err
	}
	if err = os.Chmod(sockPath, os.ModePerm); err != nil {
		l.conn.Close()
		return err
	}
	core.LogInfo(l, "Listening")
	return nil
}

// Run accepts connections until the listener is closed.
func (l *UnixStreamListener) Run() error {
	return acceptLoop(l, l.conn, l.repo, l.localURI.String(), func(net.Conn) string {
		return "fd://" + strconv.FormatUint(l.nextFD.Add(1), 10)
	})
}

// Close stops accepting connections and removes the socket.
func (l *UnixStreamListener) Close() error {
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}
