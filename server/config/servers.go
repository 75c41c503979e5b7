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

/** line protocol listener + http api config elements **/

package config

type TCPConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled,omitempty"`
	Listen  string `toml:"listen" json:"listen,omitempty"`
	Workers int    `toml:"workers" json:"workers,omitempty"`
}

type UDPConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled,omitempty"`
	Listen  string `toml:"listen" json:"listen,omitempty"`
}

type ApiConfig struct {
	Enabled  bool   `toml:"enabled" json:"enabled,omitempty"`
	Listen   string `toml:"listen" json:"listen,omitempty"`
	BasePath string `toml:"base_path" json:"base_path,omitempty"`
}
