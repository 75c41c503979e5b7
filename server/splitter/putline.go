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
   Put line runner, `<key> <count> <time>`

   space separated line entries with the key first, an unsigned count second
   and a unix-seconds timestamp third.  anything after the time field is
   ignored.
*/

package splitter

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"sync"
)

const PUT_NAME = "put"

var ErrBadPutLine = errors.New("Invalid Put line")
var ErrBadPutLineCount = errors.New("Invalid Put Count Field")
var ErrBadPutLineTime = errors.New("Invalid Put Time Field")

type PutSplitItem struct {
	inkey    []byte
	inline   []byte
	incount  uint64
	intime   uint64
	hastime  bool
	inorigin Origin
}

func (p *PutSplitItem) Key() []byte {
	return p.inkey
}

func (p *PutSplitItem) Count() uint64 {
	return p.incount
}

func (p *PutSplitItem) HasTime() bool {
	return p.hastime
}

func (p *PutSplitItem) Time() uint64 {
	return p.intime
}

func (p *PutSplitItem) Line() []byte {
	return p.inline
}

func (p *PutSplitItem) Origin() Origin {
	return p.inorigin
}

func (p *PutSplitItem) SetOrigin(n Origin) {
	p.inorigin = n
}

func (p *PutSplitItem) IsValid() bool {
	return len(p.inkey) > 0
}

func (p *PutSplitItem) String() string {
	return fmt.Sprintf("Splitter: Put: %s %d @ %d", p.inkey, p.incount, p.intime)
}

type PutSplitter struct {
	keyIndex   int
	countIndex int
	timeIndex  int
}

func (p *PutSplitter) Name() (name string) { return PUT_NAME }

func NewPutSplitter(conf map[string]interface{}) (*PutSplitter, error) {

	//<key> <count> <time>
	job := &PutSplitter{
		keyIndex:   0,
		countIndex: 1,
		timeIndex:  2,
	}
	// allow a config option to pick the proper thing in the line
	if idx, ok := conf["key_index"].(int); ok {
		job.keyIndex = idx
	}
	if idx, ok := conf["count_index"].(int); ok {
		job.countIndex = idx
	}
	if idx, ok := conf["time_index"].(int); ok {
		job.timeIndex = idx
	}
	return job, nil
}

func (p *PutSplitter) ProcessLine(line []byte) (SplitItem, error) {
	fields := bytes.Fields(bytes.TrimSpace(line))
	if len(fields) <= p.timeIndex || len(fields) <= p.keyIndex || len(fields) <= p.countIndex {
		return nil, ErrBadPutLine
	}
	if len(fields[p.keyIndex]) == 0 {
		return nil, ErrBadPutLine
	}

	count, err := strconv.ParseUint(string(fields[p.countIndex]), 10, 64)
	if err != nil {
		return nil, ErrBadPutLineCount
	}
	tm, err := strconv.ParseUint(string(fields[p.timeIndex]), 10, 64)
	if err != nil {
		return nil, ErrBadPutLineTime
	}

	pi := getPutItem()
	pi.inkey = append(pi.inkey[:0], fields[p.keyIndex]...)
	// we need to copy the original line, the incoming slice gets reused
	pi.inline = append(pi.inline[:0], line...)
	pi.incount = count
	pi.intime = tm
	pi.hastime = true
	pi.inorigin = Other
	return pi, nil
}

/*** pools **/
var putItemPool sync.Pool

func getPutItem() *PutSplitItem {
	x := putItemPool.Get()
	if x == nil {
		return new(PutSplitItem)
	}
	return x.(*PutSplitItem)
}

func putPutItem(spl *PutSplitItem) {
	putItemPool.Put(spl)
}
