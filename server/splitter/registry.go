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
   New maker of splitters
*/

package splitter

import (
	"fmt"
)

// recycle items back to their pools once fully consumed
func ReleaseSplitItem(item SplitItem) {
	switch tt := item.(type) {
	case *PutSplitItem:
		putPutItem(tt)
	}
}

func NewSplitterItem(name string, conf map[string]interface{}) (Splitter, error) {
	switch name {
	case "put":
		return NewPutSplitter(conf)
	case "unknown":
		return new(UnknownSplitter), nil
	default:
		return nil, fmt.Errorf("Invalid splitter `%s`", name)
	}
}
