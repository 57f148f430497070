/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package tools implements the command line clients of the repository.
package tools

import (
	"flag"
	"fmt"
	"os"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/face"
)

// defaultFaceURI is the Unix socket of the locally configured repository.
func defaultFaceURI() string {
	return face.MakeUnixFaceURI(core.GetConfig().Faces.Unix.SocketPath).String()
}

// newFlagSet creates the flag set of a tool with the common -uri flag.
func newFlagSet(name string, usage func()) (*flag.FlagSet, *string) {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)
	flagset.Usage = func() {
		usage()
		flagset.PrintDefaults()
	}
	uri := flagset.String("uri", defaultFaceURI(), "repository face URI (unix://, tcp:// or ws://)")
	return flagset, uri
}

// connect dials the repository or exits.
func connect(module interface{}, uri string) *face.Client {
	client, err := face.Dial(uri)
	if err != nil {
		core.LogError(module, "Unable to connect: ", err)
		os.Exit(1)
	}
	return client
}

func usageLine(args []string, synopsis string, lines ...string) {
	fmt.Fprintf(os.Stderr, "Usage: %s %s\n", args[0], synopsis)
	fmt.Fprintf(os.Stderr, "\n")
	for _, line := range lines {
		fmt.Fprintln(os.Stderr, line)
	}
	fmt.Fprintf(os.Stderr, "\n")
}
