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
   swap $ENV{VAR_NAME:default} tokens in raw config bytes for the env var value
   (or the default when the var is unset)
*/

package envreplace

import (
	"bytes"
	"os"
	"regexp"
)

var envToken = regexp.MustCompile(`\$ENV\{(.*?)\}`)

func ReplaceEnv(inbys []byte) []byte {
	for _, tok := range envToken.FindAllSubmatch(inbys, -1) {
		if len(tok) != 2 || len(tok[0]) == 0 {
			continue
		}
		parts := bytes.SplitN(tok[1], []byte(":"), 2)
		def := []byte("")
		if len(parts) == 2 {
			def = parts[1]
		}
		if env := os.Getenv(string(parts[0])); len(env) > 0 {
			inbys = bytes.Replace(inbys, tok[0], []byte(env), -1)
		} else {
			inbys = bytes.Replace(inbys, tok[0], def, -1)
		}
	}
	return inbys
}
