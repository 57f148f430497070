/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// URIType represents the type of the URI
type uriType int

const (
	unknownURI uriType = iota
	unixURI
	tcpURI
	webSocketURI
)

// URI represents the address of a repository face: unix:///path, tcp://host:port or ws://host:port
type URI struct {
	uriType uriType
	scheme  string
	path    string
	port    uint16
}

// MakeUnixFaceURI constructs a URI for a Unix stream face
func MakeUnixFaceURI(path string) *URI {
	return &URI{unixURI, "unix", path, 0}
}

// MakeTCPFaceURI constructs a URI for a TCP face
func MakeTCPFaceURI(host string, port uint16) *URI {
	return &URI{tcpURI, "tcp", host, port}
}

// MakeWebSocketFaceURI constructs a URI for a WebSocket face
func MakeWebSocketFaceURI(host string, port uint16) *URI {
	return &URI{webSocketURI, "ws", host, port}
}

// ParseURI decodes a face URI from its string form.
func ParseURI(str string) (*URI, error) {
	u, err := url.Parse(str)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadURI, err)
	}

	switch u.Scheme {
	case "unix":
		if u.Path == "" {
			return nil, fmt.Errorf("%w: %s has no socket path", ErrBadURI, str)
		}
		return MakeUnixFaceURI(u.Path), nil
	case "tcp", "tcp4", "tcp6", "ws":
		host, portStr, err := net.SplitHostPort(u.Host)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadURI, err)
		}
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil || port == 0 {
			return nil, fmt.Errorf("%w: invalid port in %s", ErrBadURI, str)
		}
		if u.Scheme == "ws" {
			return MakeWebSocketFaceURI(host, uint16(port)), nil
		}
		return MakeTCPFaceURI(host, uint16(port)), nil
	}
	return nil, fmt.Errorf("%w: unsupported scheme %q", ErrBadURI, u.Scheme)
}

// Scheme returns the scheme of the face URI
func (u *URI) Scheme() string {
	return u.scheme
}

// Path returns the socket path or host of the face URI
func (u *URI) Path() string {
	return u.path
}

// Port returns the port of the face URI
func (u *URI) Port() uint16 {
	return u.port
}

// Address returns the address to dial or listen on: a socket path or host:port.
func (u *URI) Address() string {
	if u.uriType == unixURI {
		return u.path
	}
	return net.JoinHostPort(u.path, strconv.FormatUint(uint64(u.port), 10))
}

func (u *URI) String() string {
	switch u.uriType {
	case unixURI:
		return u.scheme + "://" + u.path
	case tcpURI:
		return u.scheme + "://" + u.Address()
	case webSocketURI:
		return u.scheme + "://" + u.Address() + "/"
	}
	return "unknown://"
}
