/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/named-data/ndnrepo/cmd"
	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/executor"
	"github.com/named-data/ndnrepo/tools"
)

// Version of ndnrepo.
var Version string

// BuildTime contains the timestamp of when the version of ndnrepo was built.
var BuildTime string

func main() {
	core.Version = Version
	core.BuildTime = BuildTime

	// create a command tree
	tree := cmd.CmdTree{
		Name: "ndnrepo",
		Help: "NDN Named Content Repository",
		Sub: []*cmd.CmdTree{{
			Name: "run",
			Help: "Start the repository daemon",
			Fun:  executor.Main,
		}, {
			// tools separator
		}, {
			Name: "get",
			Help: "Retrieve the latest version of an object",
			Fun:  tools.RunCatChunks,
		}, {
			Name: "put",
			Help: "Publish a new version of an object",
			Fun:  tools.RunPutChunks,
		}, {
			Name: "watch",
			Help: "Report content appearing under a prefix",
			Fun:  tools.RunWatch,
		}},
	}

	// Parse the command line arguments
	args := os.Args
	args[0] = tree.Name
	tree.Execute(args)
}
