/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tools

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/face"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/object"
)

// PutChunks publishes a new version of an object.
type PutChunks struct {
	args []string
}

// RunPutChunks runs the put command.
func RunPutChunks(args []string) {
	(&PutChunks{args: args}).run()
}

func (pc *PutChunks) String() string {
	return "PutChunks"
}

func (pc *PutChunks) usage() {
	usageLine(pc.args, "[options] <name> [file]",
		"Publishes a new version of the object with the specified name.",
		"The content is read from file, or from the standard input if no file is given.")
}

func (pc *PutChunks) run() {
	flagset, uri := newFlagSet(pc.args[0], pc.usage)
	segmentSize := flagset.Int("s", core.GetConfig().Repo.SegmentSize, "maximum segment size, in bytes")
	flagset.Parse(pc.args[1:])
	if flagset.NArg() < 1 {
		flagset.Usage()
		os.Exit(3)
	}

	name, err := ndn.NameFromString(flagset.Arg(0))
	if err != nil {
		core.LogFatal(pc, "Invalid name: ", flagset.Arg(0))
	}

	in := io.Reader(os.Stdin)
	if path := flagset.Arg(1); path != "" {
		file, err := os.Open(path)
		if err != nil {
			core.LogFatal(pc, "Unable to open input file: ", err)
		}
		defer file.Close()
		in = file
	}
	content, err := io.ReadAll(in)
	if err != nil {
		core.LogFatal(pc, "Unable to read content: ", err)
	}

	client := connect(pc, *uri)
	defer client.Close()

	vname, err := Put(context.Background(), client, name, content, object.Options{SegmentSize: *segmentSize})
	if err != nil {
		core.LogError(pc, "Unable to publish object: ", err)
		os.Exit(1)
	}
	core.LogInfo(pc, "Object published: ", vname)
}

// Put publishes content as a new version of name and waits until the
// repository serves its last segment. It returns the versioned name.
func Put(ctx context.Context, client *face.Client, name ndn.Name, content []byte, opts object.Options) (ndn.Name, error) {
	version := uint64(time.Now().UnixMicro())
	segments, err := object.Segment(name, version, content, ndn.ContentTypeBlob, opts)
	if err != nil {
		return ndn.Name{}, err
	}
	for _, obj := range segments {
		if err = client.Publish(obj); err != nil {
			return ndn.Name{}, err
		}
	}

	last := segments[len(segments)-1]
	if _, err = client.Fetch(ctx, ndn.NewInterest(last.Name(),
		ndn.WithMaxSuffixComponents(0), ndn.WithContentDigest(last.Digest()))); err != nil {
		return ndn.Name{}, err
	}
	return name.Append(ndn.NewVersionComponent(version)), nil
}
