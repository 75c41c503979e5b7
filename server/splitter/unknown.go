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
  the "i have no idea" runner
*/

package splitter

import (
	"errors"
)

const UNKNOWN_NAME = "unknown"

var ErrUnknownLine = errors.New("Unknown line format")

type UnkSplitItem struct{}

func (u *UnkSplitItem) Key() []byte        { return nil }
func (u *UnkSplitItem) Count() uint64      { return 0 }
func (u *UnkSplitItem) HasTime() bool      { return false }
func (u *UnkSplitItem) Time() uint64       { return 0 }
func (u *UnkSplitItem) Line() []byte       { return nil }
func (u *UnkSplitItem) Origin() Origin     { return Other }
func (u *UnkSplitItem) SetOrigin(n Origin) {}
func (u *UnkSplitItem) IsValid() bool      { return false }

var unkSingle = &UnkSplitItem{}

type UnknownSplitter struct{}

func (job *UnknownSplitter) Name() (name string) { return UNKNOWN_NAME }

func (job *UnknownSplitter) ProcessLine(line []byte) (SplitItem, error) {
	return unkSingle, ErrUnknownLine
}
