/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package executor

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/repo"
)

// Main runs the repository daemon until it receives SIGINT or SIGTERM.
func Main(args []string) {
	var profiles ProfileConfig
	var printVersion bool

	flagset := flag.NewFlagSet(args[0], flag.ExitOnError)
	flagset.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [config-file] [repository options]\n", args[0])
		flagset.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nRepository options: -backend memory|bolt|sqlite, -path FILE, -log-level LEVEL")
	}
	flagset.BoolVar(&printVersion, "version", false, "Print version and exit")
	flagset.StringVar(&profiles.CpuProfile, "cpu-profile", "", "Enable CPU profiling (output to specified file)")
	flagset.StringVar(&profiles.MemProfile, "mem-profile", "", "Enable memory profiling (output to specified file)")
	flagset.StringVar(&profiles.BlockProfile, "block-profile", "", "Enable block profiling (output to specified file)")
	flagset.Parse(args[1:])

	if printVersion {
		fmt.Fprintln(os.Stderr, "ndnrepo: NDN Named Content Repository")
		fmt.Fprintln(os.Stderr, "Version: ", core.Version, " (Built ", core.BuildTime, ")")
		fmt.Fprintln(os.Stderr, "Copyright (C) 2020-2021 Eric Newberry")
		fmt.Fprintln(os.Stderr, "Released under the terms of the MIT License")
		return
	}

	rest := flagset.Args()
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		rest = append([]string{"-config", rest[0]}, rest[1:]...)
	}

	core.StartTimestamp = time.Now()
	r, residual, err := repo.Initialize(rest)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Unable to open repository: "+err.Error())
		os.Exit(3)
	}
	if len(residual) > 0 {
		r.Close()
		fmt.Fprintln(os.Stderr, "Unexpected arguments: ", strings.Join(residual, " "))
		flagset.Usage()
		os.Exit(3)
	}

	if err := core.InitializeLogger(r.Config().Core.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, "Unable to open log file: "+err.Error())
		os.Exit(3)
	}
	defer core.ShutdownLogger()

	ndnrepo, err := NewNDNRepo(r, NewProfiler(profiles))
	if err != nil {
		r.Close()
		core.LogFatal("Main", "Unable to configure ndnrepo: ", err)
	}
	if err := ndnrepo.Start(); err != nil {
		r.Close()
		core.LogFatal("Main", err)
	}

	// set up signal handler channel and wait for interrupt
	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)
	select {
	case receivedSig := <-sigChannel:
		core.LogInfo("Main", "Received signal ", receivedSig, " - exiting")
	case <-ndnrepo.Done():
		core.LogError("Main", "A component stopped unexpectedly - exiting")
	}

	if err := ndnrepo.Stop(); err != nil {
		core.LogError("Main", "Shutdown failed: ", err)
		os.Exit(1)
	}
}
