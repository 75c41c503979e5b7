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

/*
   TOML decoding with $ENV{VAR_NAME:default} substitution, which stock TOML
   does not do.  Slurp the file, run the env replacer over the raw bytes,
   then hand it to the normal decoder.
*/

package tomlenv

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/jmataya/henhouse/server/utils/envreplace"
)

func DecodeFile(filename string, cfg interface{}) (meta toml.MetaData, err error) {
	bits, err := os.ReadFile(filename)
	if err != nil {
		return meta, err
	}
	return DecodeBytes(bits, cfg)
}

func DecodeBytes(inbys []byte, cfg interface{}) (toml.MetaData, error) {
	inbys = envreplace.ReplaceEnv(inbys)
	return toml.Decode(string(inbys), cfg)
}

func Decode(instr string, cfg interface{}) (toml.MetaData, error) {
	return DecodeBytes([]byte(instr), cfg)
}
