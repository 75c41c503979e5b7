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

// a simple atomic stat counter backed by expvar so /debug/vars sees it too
package stats

import (
	"expvar"
	"strconv"
)

type AtomicInt struct {
	Val *expvar.Int
}

// NewAtomic makes (or re-attaches to) the named expvar int
func NewAtomic(name string) *AtomicInt {
	gots := expvar.Get(name)
	if gots == nil {
		att := &AtomicInt{Val: expvar.NewInt(name)}
		att.Set(0)
		return att
	}
	return &AtomicInt{Val: gots.(*expvar.Int)}
}

func (i *AtomicInt) Add(n int64) int64 {
	i.Val.Add(n)
	return i.Get()
}

func (i *AtomicInt) Get() int64 {
	ret, _ := strconv.ParseInt(i.Val.String(), 10, 64)
	return ret
}

func (i *AtomicInt) Set(n int64) {
	i.Val.Set(n)
}

func (i *AtomicInt) String() string {
	return i.Val.String()
}
