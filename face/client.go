/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/Link512/stealthpool"
	"github.com/gorilla/websocket"
	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/face/impl"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/ndn/tlv"
	"github.com/named-data/ndnrepo/repo"
)

type expressed struct {
	interest *ndn.Interest
	result   chan *ndn.ContentObject
}

// Client is an application connection to a repository face.
type Client struct {
	uri       *URI
	transport transport
	pool      *stealthpool.Pool

	mutex   sync.Mutex
	pending map[uint64][]*expressed
	closed  bool
	done    chan struct{}
}

var _ repo.Fetcher = &Client{}

// Dial connects to the repository face at uri.
func Dial(uri string) (*Client, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	var t transport
	switch u.Scheme() {
	case "unix":
		conn, err := net.Dial("unix", u.Address())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to %s: %w", u, err)
		}
		t = MakeStreamTransport(u.String(), conn.LocalAddr().String(), conn)
	case "tcp":
		dialer := &net.Dialer{Control: impl.SyscallReuseAddr}
		conn, err := dialer.Dial("tcp", u.Address())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to %s: %w", u, err)
		}
		t = MakeStreamTransport(u.String(), "tcp://"+conn.LocalAddr().String(), conn)
	case "ws":
		c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to %s: %w", u, err)
		}
		wt := &WebSocketTransport{c: c}
		wt.makeTransportBase(u.String(), "ws://"+c.LocalAddr().String())
		t = wt
	default:
		return nil, ErrBadURI
	}

	pool, err := stealthpool.New(maxPoolBlockCnt, stealthpool.WithBlockSize(recvBufferSize))
	if err != nil {
		t.close()
		return nil, err
	}
	c := &Client{
		uri:       u,
		transport: t,
		pool:      pool,
		pending:   make(map[uint64][]*expressed),
		done:      make(chan struct{}),
	}
	go c.runReceive()
	return c, nil
}

func (c *Client) String() string {
	return "Client, " + c.uri.String()
}

// Express sends interest and waits for the content object answering it. A
// Nack from the repository is reported as ErrNack.
func (c *Client) Express(ctx context.Context, interest *ndn.Interest) (*ndn.ContentObject, error) {
	e := &expressed{interest: interest, result: make(chan *ndn.ContentObject, 1)}
	id := interest.ID()

	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return nil, ErrFaceClosed
	}
	c.pending[id] = append(c.pending[id], e)
	c.mutex.Unlock()

	if err := c.transport.sendFrame(interest.Encode().Wire()); err != nil {
		c.withdraw(id, e)
		return nil, err
	}

	select {
	case obj, ok := <-e.result:
		if !ok {
			return nil, ErrFaceClosed
		}
		if obj.ContentType() == ndn.ContentTypeNack {
			return nil, fmt.Errorf("%w: %s", ErrNack, interest.Name())
		}
		return obj, nil
	case <-ctx.Done():
		c.withdraw(id, e)
		return nil, ctx.Err()
	}
}

// Fetch is Express with a Nack reported as repo.ErrRepositoryNotFound.
func (c *Client) Fetch(ctx context.Context, interest *ndn.Interest) (*ndn.ContentObject, error) {
	obj, err := c.Express(ctx, interest)
	if errors.Is(err, ErrNack) {
		return nil, fmt.Errorf("%w: %s", repo.ErrRepositoryNotFound, interest.Name())
	}
	return obj, err
}

// Publish sends obj to be stored in the repository.
func (c *Client) Publish(obj *ndn.ContentObject) error {
	c.mutex.Lock()
	closed := c.closed
	c.mutex.Unlock()
	if closed {
		return ErrFaceClosed
	}
	return c.transport.sendFrame(obj.Wire())
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection. Pending expressions fail with ErrFaceClosed.
func (c *Client) Close() error {
	err := c.transport.close()
	<-c.done
	return err
}

func (c *Client) withdraw(id uint64, e *expressed) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	waiting := c.pending[id]
	for i, other := range waiting {
		if other == e {
			waiting = append(waiting[:i], waiting[i+1:]...)
			break
		}
	}
	if len(waiting) == 0 {
		delete(c.pending, id)
	} else {
		c.pending[id] = waiting
	}
}

func (c *Client) runReceive() {
	defer close(c.done)
	defer c.pool.Close()
	defer c.shutdown()

	buf, err := c.pool.Get()
	if err != nil {
		core.LogError(c, "Failed to allocate receive buffer: ", err)
		c.transport.close()
		return
	}
	defer c.pool.Return(buf)

	err = c.transport.runReceive(buf, c.handleIncomingFrame)
	core.LogDebug(c, "Connection closed: ", err)
}

func (c *Client) shutdown() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.closed = true
	for id, waiting := range c.pending {
		for _, e := range waiting {
			close(e.result)
		}
		delete(c.pending, id)
	}
}

func (c *Client) handleIncomingFrame(frame []byte) {
	block, _, err := tlv.DecodeBlock(frame)
	if err != nil || block.Type() != tlv.ContentObject {
		core.LogWarn(c, "Received unexpected frame - DROP")
		return
	}
	obj, err := ndn.DecodeContentObject(block)
	if err != nil {
		core.LogWarn(c, "Unable to decode content object (", err, ") - DROP")
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if obj.ContentType() == ndn.ContentTypeNack {
		wire, _, err := tlv.DecodeBlock(obj.Content())
		if err != nil {
			core.LogWarn(c, "Received Nack without Interest - DROP")
			return
		}
		interest, err := ndn.DecodeInterest(wire)
		if err != nil {
			core.LogWarn(c, "Received Nack with malformed Interest - DROP")
			return
		}
		id := interest.ID()
		if waiting := c.pending[id]; len(waiting) > 0 {
			waiting[0].result <- obj
			if len(waiting) == 1 {
				delete(c.pending, id)
			} else {
				c.pending[id] = waiting[1:]
			}
		}
		return
	}

	for id, waiting := range c.pending {
		kept := waiting[:0]
		for _, e := range waiting {
			if e.interest.Matches(obj) {
				e.result <- obj
			} else {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(c.pending, id)
		} else {
			c.pending[id] = kept
		}
	}
}
