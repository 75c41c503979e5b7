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

// emit GoLang GC/heap gauges on the slow statsd client
package stats

import (
	"fmt"
	"runtime"
	"time"

	statsd "github.com/wyndhblb/gostatsdclient"
)

type MemStats struct {
	running  bool
	statsd   statsd.Statsd
	prefix   string
	tick     time.Duration
	shutdown chan bool
}

func (ms *MemStats) Start() {
	if ms.running {
		return
	}
	ms.running = true
	ms.statsd = StatsdClientSlow
	ms.prefix = "gogc"
	ms.tick = time.Second
	ms.shutdown = make(chan bool)
	go ms.statsTick()
}

func (ms *MemStats) Stop() {
	if !ms.running {
		return
	}
	ms.running = false
	ms.shutdown <- true
}

func (ms *MemStats) statsTick() {
	memStats := new(runtime.MemStats)
	var lastPauseNs uint64
	var lastNumGc uint32

	ticker := time.NewTicker(ms.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			runtime.ReadMemStats(memStats)
			ms.statsd.Gauge(fmt.Sprintf("%s.goroutines", ms.prefix), int64(runtime.NumGoroutine()))
			ms.statsd.Gauge(fmt.Sprintf("%s.memory.allocated", ms.prefix), int64(memStats.Alloc))
			ms.statsd.Gauge(fmt.Sprintf("%s.memory.heap.alloc", ms.prefix), int64(memStats.HeapAlloc))
			ms.statsd.Gauge(fmt.Sprintf("%s.memory.heap.sys", ms.prefix), int64(memStats.HeapSys))
			ms.statsd.Gauge(fmt.Sprintf("%s.memory.heap.inuse", ms.prefix), int64(memStats.HeapInuse))
			ms.statsd.Gauge(fmt.Sprintf("%s.memory.heap.objects", ms.prefix), int64(memStats.HeapObjects))
			ms.statsd.Gauge(fmt.Sprintf("%s.memory.stack", ms.prefix), int64(memStats.StackInuse))

			if lastPauseNs > 0 {
				pauseSinceLast := memStats.PauseTotalNs - lastPauseNs
				ms.statsd.Gauge(fmt.Sprintf("%s.memory.gc.pause_per_interval", ms.prefix), int64(pauseSinceLast))
			}
			lastPauseNs = memStats.PauseTotalNs

			if lastNumGc > 0 {
				diff := memStats.NumGC - lastNumGc
				ms.statsd.Gauge(fmt.Sprintf("%s.memory.gc.gc_per_interval", ms.prefix), int64(diff))
			}
			lastNumGc = memStats.NumGC
		case <-ms.shutdown:
			return
		}
	}
}
