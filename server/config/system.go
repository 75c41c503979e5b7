/*
Copyright 2014-2017 Bo Blanton

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/** "system" config elements **/

package config

import (
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"syscall"
)

type SystemConfig struct {
	PIDfile string `toml:"pid_file" json:"pid_file,omitempty"`
	NumProc int    `toml:"num_procs" json:"num_procs,omitempty"`
	GoGc    int    `toml:"gc_percent" json:"gc_percent,omitempty"`
}

func (c *SystemConfig) Start() {
	if c.NumProc <= 0 {
		c.NumProc = runtime.NumCPU()
	}
	log.Notice("[System] Setting GOMAXPROCS to %d", c.NumProc)
	runtime.GOMAXPROCS(c.NumProc)

	// each series holds two open files, so lift the descriptor ceiling
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warning("[System] Error Getting Rlimit: %v", err)
	}
	rLimit.Max = 999999
	rLimit.Cur = 999999
	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warning("[System] Error Setting Rlimit: %v", err)
	}

	if c.GoGc > 0 {
		log.Notice("[System] Setting GC percent to %d%%", c.GoGc)
		debug.SetGCPercent(c.GoGc)
	}

	c.PidFile()
}

func (c *SystemConfig) PidFile() {
	if len(c.PIDfile) == 0 {
		return
	}
	err := os.WriteFile(c.PIDfile, []byte(strconv.Itoa(os.Getpid())), 0644)
	if err != nil {
		log.Warning("[System] could not write pid file %s: %v", c.PIDfile, err)
	}
}
