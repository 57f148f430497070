/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tools

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/repo"
	"golang.org/x/sync/errgroup"
)

// Watch reports content appearing under one or more prefixes.
type Watch struct {
	args []string

	// command line configuration
	interval int
	timeout  int
	count    int

	// stat counters
	mutex  sync.Mutex
	nRecv  int
	first  time.Time
	latest time.Time
}

// NewWatch creates a watch polling every interval with Interests of the given
// lifetime. It stops after count objects, or never if count is 0.
func NewWatch(interval time.Duration, lifetime time.Duration, count int) *Watch {
	return &Watch{
		interval: int(interval.Milliseconds()),
		timeout:  int(lifetime.Milliseconds()),
		count:    count,
	}
}

// RunWatch runs the watch command.
func RunWatch(args []string) {
	(&Watch{args: args}).run()
}

func (w *Watch) String() string {
	return "Watch"
}

func (w *Watch) usage() {
	usageLine(w.args, "[options] <prefix>...",
		"Watches the repository for content under each prefix.",
		"The newest child of each prefix is printed first, then every later child in order.")
}

func (w *Watch) run() {
	flagset, uri := newFlagSet(w.args[0], w.usage)
	flagset.IntVar(&w.interval, "i", 1000, "poll interval, in milliseconds")
	flagset.IntVar(&w.timeout, "t", 4000, "lifetime of each Interest, in milliseconds")
	flagset.IntVar(&w.count, "c", 0, "stop after this many objects (0 = never)")
	flagset.Parse(w.args[1:])
	if flagset.NArg() < 1 {
		flagset.Usage()
		os.Exit(3)
	}

	prefixes := make([]ndn.Name, 0, flagset.NArg())
	for _, arg := range flagset.Args() {
		prefix, err := ndn.NameFromString(arg)
		if err != nil {
			core.LogFatal(w, "Invalid prefix: ", arg)
		}
		prefixes = append(prefixes, prefix)
	}

	client := connect(w, *uri)
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		select {
		case <-client.Done():
			core.LogWarn(w, "Connection to repository lost")
			stop()
		case <-ctx.Done():
		}
	}()

	err := w.Watch(ctx, client, prefixes, os.Stdout)
	w.stats()
	if err != nil && ctx.Err() == nil {
		core.LogError(w, "Watch failed: ", err)
		os.Exit(1)
	}
}

// Watch polls every prefix until ctx is done or count objects were reported.
// Each report is written to out as one line.
func (w *Watch) Watch(ctx context.Context, fetcher repo.Fetcher, prefixes []ndn.Name, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)
	for _, prefix := range prefixes {
		prefix := prefix
		lifetime := ndn.WithLifetime(time.Duration(w.timeout) * time.Millisecond)
		interest := ndn.NewInterest(prefix, ndn.WithOrder(ndn.OrderRightmost), ndn.WithMinSuffixComponents(1), lifetime)

		poller := repo.NewPoller(fetcher, interest, time.Duration(w.interval)*time.Millisecond,
			func(obj *ndn.ContentObject) (*ndn.Interest, error) {
				if w.report(out, obj) {
					cancel()
				}
				// Children after the one just seen, oldest first
				child := obj.Name().At(prefix.Size())
				return ndn.NewInterest(prefix, ndn.WithOrder(ndn.OrderLeftmost), ndn.WithMinSuffixComponents(1),
					ndn.WithExclude(ndn.ExcludeUpTo(child)), lifetime), nil
			})
		group.Go(func() error {
			if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return group.Wait()
}

// report prints obj and returns whether the requested count was reached.
func (w *Watch) report(out io.Writer, obj *ndn.ContentObject) bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	now := time.Now()
	if w.nRecv == 0 {
		w.first = now
	}
	w.latest = now
	w.nRecv++
	fmt.Fprintf(out, "content: %s, digest=%s, size=%d\n",
		obj.Name(), hex.EncodeToString(obj.Digest()[:8]), len(obj.Content()))
	return w.count > 0 && w.nRecv >= w.count
}

func (w *Watch) stats() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.nRecv == 0 {
		fmt.Printf("No content received\n")
		return
	}
	fmt.Printf("\n--- watch statistics ---\n")
	fmt.Printf("%d objects received over %s\n", w.nRecv, w.latest.Sub(w.first))
}
