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

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/repo"
)

// Listener accepts application connections and serves each on its own face.
type Listener interface {
	String() string
	// Listen binds the listener to its address.
	Listen() error
	// Run accepts connections until Close is called.
	Run() error
	Close() error
}

// acceptLoop serves every accepted stream connection with a face.
func acceptLoop(l Listener, conn net.Listener, r *repo.Repository, localURI string, remoteURI func(net.Conn) string) error {
	for {
		newConn, err := conn.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			core.LogWarn(l, "Unable to accept connection: ", err)
			return err
		}

		t := MakeStreamTransport(remoteURI(newConn), localURI, newConn)
		core.LogInfo(l, "Accepting new stream face ", t.RemoteURI())
		go newFace(t, r).Run()
	}
}
