/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package executor

import (
	"context"
	"fmt"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/face"
	"github.com/named-data/ndnrepo/ingest"
	"github.com/named-data/ndnrepo/mgmt"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/repo"
	"golang.org/x/sync/errgroup"
)

// NDNRepo runs a repository together with its faces, management server and ingest watcher.
// Only one instance should be running per process, since faces share the global FaceTable.
type NDNRepo struct {
	repo     *repo.Repository
	profiler *Profiler

	listeners  []face.Listener
	management *mgmt.Thread
	watcher    *ingest.Watcher

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewNDNRepo creates the components enabled by the configuration of r.
func NewNDNRepo(r *repo.Repository, profiler *Profiler) (*NDNRepo, error) {
	n := &NDNRepo{repo: r, profiler: profiler}
	config := r.Config()

	if config.Faces.Unix.Enabled {
		l, err := face.MakeUnixStreamListener(face.MakeUnixFaceURI(config.Faces.Unix.SocketPath), r)
		if err != nil {
			return nil, err
		}
		n.listeners = append(n.listeners, l)
	}
	if config.Faces.Tcp.Enabled {
		l, err := face.MakeTCPListener(face.MakeTCPFaceURI(config.Faces.Tcp.Bind, config.Faces.Tcp.Port), r)
		if err != nil {
			return nil, err
		}
		n.listeners = append(n.listeners, l)
	}
	if config.Faces.WebSocket.Enabled {
		l, err := face.MakeWebSocketListener(face.MakeWebSocketFaceURI(config.Faces.WebSocket.Bind, config.Faces.WebSocket.Port), r)
		if err != nil {
			return nil, err
		}
		n.listeners = append(n.listeners, l)
	}

	if config.Mgmt.Enabled {
		n.management = mgmt.MakeMgmtThread(r, config.Mgmt.Bind)
	}

	if config.Ingest.Enabled {
		prefix, err := ndn.NameFromString(config.Ingest.Prefix)
		if err != nil {
			return nil, fmt.Errorf("ingest.prefix: %w", err)
		}
		n.watcher = ingest.NewWatcher(r, config.Ingest.Dir, prefix, func(name ndn.Name, gone bool) {
			if gone {
				core.LogInfo("Ingest", "Published tombstone for ", name)
			} else {
				core.LogInfo("Ingest", "Published ", name)
			}
		})
	}
	return n, nil
}

func (n *NDNRepo) String() string {
	return "NDNRepo"
}

// Start binds every listener and runs all components in the background.
// Nothing is left running if binding fails.
func (n *NDNRepo) Start() error {
	core.LogInfo(n, "Starting ndnrepo with the ", n.repo.Config().Repo.Backend, " backend")
	if n.profiler != nil {
		if err := n.profiler.Start(); err != nil {
			return err
		}
	}

	for i, l := range n.listeners {
		if err := l.Listen(); err != nil {
			for _, bound := range n.listeners[:i] {
				bound.Close()
			}
			return fmt.Errorf("unable to start %s: %w", l, err)
		}
	}
	if n.management != nil {
		if err := n.management.Listen(); err != nil {
			for _, l := range n.listeners {
				l.Close()
			}
			return fmt.Errorf("unable to start %s: %w", n.management, err)
		}
	}

	var ctx context.Context
	ctx, n.cancel = context.WithCancel(context.Background())
	n.group, ctx = errgroup.WithContext(ctx)

	for _, l := range n.listeners {
		n.group.Go(l.Run)
	}
	if n.management != nil {
		n.group.Go(n.management.Run)
	}
	if n.watcher != nil {
		n.group.Go(func() error {
			return n.watcher.Run(ctx)
		})
	}

	// A component failing takes the others down with it
	n.group.Go(func() error {
		<-ctx.Done()
		n.closeComponents()
		return nil
	})
	return nil
}

// Done returns a channel that is closed once a component has failed or Stop was called.
func (n *NDNRepo) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		n.group.Wait()
		close(done)
	}()
	return done
}

func (n *NDNRepo) closeComponents() {
	for _, l := range n.listeners {
		if err := l.Close(); err != nil {
			core.LogWarn(n, "Unable to close ", l, ": ", err)
		}
	}
	if n.management != nil {
		n.management.Close()
	}
	face.FaceTable.CloseAll()
}

// Stop shuts every component down and closes the repository, canceling all pending registrations.
func (n *NDNRepo) Stop() error {
	n.cancel()
	err := n.group.Wait()

	if closeErr := n.repo.Close(); err == nil {
		err = closeErr
	}
	if n.profiler != nil {
		n.profiler.Stop()
	}
	core.LogInfo(n, "Stopped")
	return err
}
