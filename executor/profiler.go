/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package executor

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/named-data/ndnrepo/core"
)

// ProfileConfig names the output files of the enabled profiles. Empty disables a profile.
type ProfileConfig struct {
	CpuProfile   string
	MemProfile   string
	BlockProfile string
}

// Profiler writes the CPU, heap and block profiles of a repository run.
type Profiler struct {
	config  ProfileConfig
	cpuFile *os.File
	block   *pprof.Profile
}

// NewProfiler creates a profiler. Nothing is recorded until Start.
func NewProfiler(config ProfileConfig) *Profiler {
	return &Profiler{config: config}
}

func (p *Profiler) String() string {
	return "Profiler"
}

// Start begins CPU and block profiling.
func (p *Profiler) Start() (err error) {
	if p.config.CpuProfile != "" {
		if p.cpuFile, err = os.Create(p.config.CpuProfile); err != nil {
			return err
		}

		core.LogInfo(p, "Profiling CPU - outputting to ", p.config.CpuProfile)
		if err = pprof.StartCPUProfile(p.cpuFile); err != nil {
			p.cpuFile.Close()
			p.cpuFile = nil
			return err
		}
	}

	if p.config.BlockProfile != "" {
		core.LogInfo(p, "Profiling blocking operations - outputting to ", p.config.BlockProfile)
		runtime.SetBlockProfileRate(1)
		p.block = pprof.Lookup("block")
	}
	return nil
}

// Stop writes the heap and block profiles and finishes the CPU profile.
func (p *Profiler) Stop() {
	if p.config.MemProfile != "" {
		core.LogInfo(p, "Profiling memory - outputting to ", p.config.MemProfile)
		p.writeProfile(p.config.MemProfile, func(f *os.File) error {
			runtime.GC()
			return pprof.WriteHeapProfile(f)
		})
	}

	if p.block != nil {
		p.writeProfile(p.config.BlockProfile, func(f *os.File) error {
			return p.block.WriteTo(f, 0)
		})
		runtime.SetBlockProfileRate(0)
		p.block = nil
	}

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
		p.cpuFile = nil
	}
}

func (p *Profiler) writeProfile(file string, write func(*os.File) error) {
	f, err := os.Create(file)
	if err != nil {
		core.LogError(p, "Unable to open output file for profile: ", err)
		return
	}
	defer f.Close()
	if err := write(f); err != nil {
		core.LogError(p, "Unable to write profile ", file, ": ", err)
	}
}
