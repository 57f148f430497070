/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tools

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/object"
	"github.com/named-data/ndnrepo/repo"
)

// CatChunks retrieves the newest version of an object.
type CatChunks struct {
	args []string
}

// RunCatChunks runs the get command.
func RunCatChunks(args []string) {
	(&CatChunks{args: args}).run()
}

func (cc *CatChunks) String() string {
	return "CatChunks"
}

func (cc *CatChunks) usage() {
	usageLine(cc.args, "[options] <name> [file]",
		"Retrieves the newest version of the object with the specified name.",
		"The object contents are written to file, or to stdout if no file is given.")
}

func (cc *CatChunks) run() {
	flagset, uri := newFlagSet(cc.args[0], cc.usage)
	timeout := flagset.Int("t", 4000, "lifetime of each Interest, in milliseconds")
	flagset.Parse(cc.args[1:])
	if flagset.NArg() < 1 {
		flagset.Usage()
		os.Exit(3)
	}

	name, err := ndn.NameFromString(flagset.Arg(0))
	if err != nil {
		core.LogFatal(cc, "Invalid name: ", flagset.Arg(0))
	}

	out := io.Writer(os.Stdout)
	if path := flagset.Arg(1); path != "" {
		file, err := os.Create(path)
		if err != nil {
			core.LogFatal(cc, "Unable to create output file: ", err)
		}
		defer file.Close()
		out = file
	}

	client := connect(cc, *uri)
	defer client.Close()

	t1 := time.Now()
	byteCount, version, err := Get(context.Background(), client, name, time.Duration(*timeout)*time.Millisecond, out)
	t2 := time.Now()
	switch {
	case errors.Is(err, object.ErrContentGone):
		core.LogError(cc, "Object was deleted: ", name)
		os.Exit(1)
	case errors.Is(err, repo.ErrRepositoryNotFound):
		core.LogError(cc, "No such object: ", name)
		os.Exit(1)
	case err != nil:
		core.LogError(cc, "Error fetching object: ", err)
		os.Exit(1)
	}

	// statistics
	core.LogInfo(cc, "Object fetched: ", name.Append(ndn.NewVersionComponent(version)))
	core.LogInfo(cc, "Content: ", byteCount, " bytes")
	core.LogInfo(cc, "Time taken: ", t2.Sub(t1))
	core.LogInfo(cc, "Throughput: ", float64(byteCount*8)/t2.Sub(t1).Seconds()/1e6, " Mbit/s")
}

// Get fetches the newest version of name and writes its content to out.
// It returns the number of bytes written and the version.
func Get(ctx context.Context, fetcher repo.Fetcher, name ndn.Name, lifetime time.Duration, out io.Writer) (int, uint64, error) {
	content, version, _, err := object.Fetch(ctx, fetcher, name, object.Options{Lifetime: lifetime})
	if err != nil {
		return 0, 0, err
	}
	n, err := out.Write(content)
	return n, version, err
}
