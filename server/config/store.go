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

/** store (keeper) config elements **/

package config

import (
	"fmt"
	"runtime"
)

type StoreConfig struct {
	BaseDir       string `toml:"base_dir" json:"base_dir,omitempty"`
	Resolution    uint64 `toml:"resolution" json:"resolution,omitempty"`
	Workers       int    `toml:"workers" json:"workers,omitempty"`
	MaxOpenSeries uint64 `toml:"max_open_series" json:"max_open_series,omitempty"`
	PutQueueLen   int    `toml:"put_queue_length" json:"put_queue_length,omitempty"`
	KeyIndexPath  string `toml:"key_index_path" json:"key_index_path,omitempty"`
}

const (
	DefaultResolution    = 10
	DefaultMaxOpenSeries = 1024
	DefaultPutQueueLen   = 65536
)

func (c *StoreConfig) Validate() error {
	if len(c.BaseDir) == 0 {
		return fmt.Errorf("store: `base_dir` is required")
	}
	if c.Resolution == 0 {
		c.Resolution = DefaultResolution
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.MaxOpenSeries == 0 {
		c.MaxOpenSeries = DefaultMaxOpenSeries
	}
	if c.PutQueueLen <= 0 {
		c.PutQueueLen = DefaultPutQueueLen
	}
	return nil
}
