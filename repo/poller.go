/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package repo

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/ndn"
)

// Fetcher resolves a single Interest, returning ErrRepositoryNotFound when nothing matches.
type Fetcher interface {
	Fetch(ctx context.Context, interest *ndn.Interest) (*ndn.ContentObject, error)
}

// PollHandler receives each fetched object. A non-nil Interest replaces the one polled from then on.
type PollHandler func(obj *ndn.ContentObject) (*ndn.Interest, error)

// Poller repeatedly fetches an Interest with a fixed delay between attempts.
// Errors of a single iteration are logged and the loop continues.
type Poller struct {
	fetcher  Fetcher
	interest atomic.Pointer[ndn.Interest]
	interval time.Duration
	handler  PollHandler

	stopped atomic.Bool
	cancel  atomic.Pointer[context.CancelFunc]
}

// NewPoller creates a poller. It does nothing until Run is called.
func NewPoller(fetcher Fetcher, interest *ndn.Interest, interval time.Duration, handler PollHandler) *Poller {
	p := &Poller{fetcher: fetcher, interval: interval, handler: handler}
	p.interest.Store(interest)
	return p
}

func (p *Poller) String() string {
	return "Poller(" + p.interest.Load().Name().String() + ")"
}

// Interest returns the Interest polled next.
func (p *Poller) Interest() *ndn.Interest {
	return p.interest.Load()
}

// Run polls until Stop is called or ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.cancel.Store(&cancel)
	if p.stopped.Load() {
		return nil
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			if p.stopped.Load() {
				return nil
			}
			return ctx.Err()
		case <-timer.C:
		}
		if p.stopped.Load() {
			return nil
		}

		p.poll(ctx)
		timer.Reset(p.interval)
	}
}

func (p *Poller) poll(ctx context.Context) {
	interest := p.interest.Load()
	obj, err := p.fetcher.Fetch(ctx, interest)
	switch {
	case errors.Is(err, ErrRepositoryNotFound):
		core.LogTrace(p, "Nothing matches ", interest)
		return
	case err != nil:
		core.LogWarn(p, "Fetch failed: ", err)
		return
	}

	next, err := p.handler(obj)
	if err != nil {
		core.LogWarn(p, "Handler failed for ", obj, ": ", err)
	}
	if next != nil {
		p.interest.Store(next)
	}
}

// Stop ends the loop. It is safe to call from any goroutine, including the handler.
func (p *Poller) Stop() {
	p.stopped.Store(true)
	if cancel := p.cancel.Load(); cancel != nil {
		(*cancel)()
	}
}
