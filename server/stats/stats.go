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

// statsd client singletons and defer-friendly timer helpers
package stats

import (
	"strings"
	"time"

	statsd "github.com/wyndhblb/gostatsdclient"
)

// statsd client singleton for "fast" counters (sampling rates apply)
var StatsdClient statsd.Statsd = nil

// statsd client singleton for "raw" (no sampling) slow items
var StatsdClientSlow statsd.Statsd = nil

var nameSanitizer *strings.Replacer

func SanitizeName(name string) string {
	return nameSanitizer.Replace(name)
}

// a handy "defer" function for timers, in Nano seconds
func StatsdNanoTimeFunc(statname string, start time.Time) {
	elapsed := time.Since(start)
	StatsdClient.Timing(statname, int64(elapsed))
}

// same, but on the no-sample-rate client
func StatsdSlowNanoTimeFunc(statname string, start time.Time) {
	elapsed := time.Since(start)
	StatsdClientSlow.Timing(statname, int64(elapsed))
}

// noop clients until a config Start() swaps in real ones
func init() {
	if StatsdClient == nil {
		StatsdClient = new(statsd.StatsdNoop)
		StatsdClientSlow = new(statsd.StatsdNoop)
	}
	nameSanitizer = strings.NewReplacer(
		"..", ".",
		",", "_",
		"=", "_",
		"*", "_",
		"(", "_",
		")", "_",
		"{", "_",
		"}", "_",
		":", "_",
		" ", "_",
		"%", "_",
		"/", "_",
		"\\", "_",
		";", "_",
	)
}
