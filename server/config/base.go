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

package config

import (
	"github.com/jmataya/henhouse/server/utils/tomlenv"
)

type BaseConfig struct {
	System  SystemConfig  `toml:"system" json:"system,omitempty"`
	Logger  LogConfig     `toml:"log" json:"log,omitempty"`
	Profile ProfileConfig `toml:"profile" json:"profile,omitempty"`
	Statsd  StatsdConfig  `toml:"statsd" json:"statsd,omitempty"`
	Store   StoreConfig   `toml:"store" json:"store,omitempty"`
	TCP     TCPConfig     `toml:"tcp" json:"tcp,omitempty"`
	UDP     UDPConfig     `toml:"udp" json:"udp,omitempty"`
	Api     ApiConfig     `toml:"api" json:"api,omitempty"`
}

func ParseConfigFile(filename string) (cfg *BaseConfig, err error) {
	cfg = new(BaseConfig)
	if _, err := tomlenv.DecodeFile(filename, cfg); err != nil {
		log.Critical("Error decoding config file: %s", err)
		return nil, err
	}
	if err = cfg.Store.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ParseConfigString(inconf string) (cfg *BaseConfig, err error) {
	cfg = new(BaseConfig)
	if _, err := tomlenv.Decode(inconf, cfg); err != nil {
		return nil, err
	}
	if err = cfg.Store.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *BaseConfig) BaseStart() error {
	c.Logger.Start()
	c.System.Start()
	c.Statsd.Start()
	c.Profile.Start()
	return nil
}
