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
   SparseIndex: time -> bucket position translation over the anchor vector.

   Anchors only exist where the timeline gapped, so between two anchors the
   bucket run is dense: position = anchor.pos + (t - anchor.time)/resolution.

   Lookups take a `hint` cursor (the IndexOffset of a previous result); a
   monotone scan hits the cursor check and skips the binary search.
*/

package timeline

import (
	"sort"

	"github.com/jmataya/henhouse/server/vector"
)

type SparseIndex struct {
	anchors *vector.AnchorVector
}

func NewSparseIndex(av *vector.AnchorVector) *SparseIndex {
	return &SparseIndex{anchors: av}
}

func (si *SparseIndex) Meta() vector.Meta    { return si.anchors.Meta() }
func (si *SparseIndex) Len() uint64          { return si.anchors.Len() }
func (si *SparseIndex) Empty() bool          { return si.anchors.Empty() }
func (si *SparseIndex) Front() vector.Anchor { return si.anchors.Front() }
func (si *SparseIndex) Back() vector.Anchor  { return si.anchors.Back() }
func (si *SparseIndex) Get(i int) vector.Anchor {
	return si.anchors.Get(uint64(i))
}

func (si *SparseIndex) PushBack(a vector.Anchor) error {
	return si.anchors.PushBack(a)
}

func (si *SparseIndex) Sync() error  { return si.anchors.Sync() }
func (si *SparseIndex) Close() error { return si.anchors.Close() }

// FindPos locates the largest anchor whose time is <= t.  The hint anchor is
// tried before falling back to a binary search over the whole index.  If t
// precedes the first anchor the first anchor is returned with offset 0 and
// result.Time > t.
func (si *SparseIndex) FindPos(t uint64, hint int) PosResult {
	n := int(si.anchors.Len())
	if n == 0 {
		panic("SparseIndex: FindPos on an empty index")
	}
	if hint >= 0 && hint < n && si.covers(hint, n, t) {
		return si.result(hint, n, t)
	}
	return si.FindPosFromRange(t, 0, n-1)
}

// FindPosFromRange is FindPos restricted to anchors [lo, hi] (inclusive)
func (si *SparseIndex) FindPosFromRange(t uint64, lo, hi int) PosResult {
	n := int(si.anchors.Len())
	if n == 0 {
		panic("SparseIndex: FindPosFromRange on an empty index")
	}
	if lo < 0 || hi >= n || lo > hi {
		panic("SparseIndex: bad anchor range")
	}

	if t < si.anchors.Get(uint64(lo)).Time {
		// before the beginning of this range
		return si.result(lo, n, t)
	}

	// first anchor in (lo, hi] with time > t, minus one
	ct := hi - lo + 1
	idx := lo + sort.Search(ct, func(k int) bool {
		return si.anchors.Get(uint64(lo+k)).Time > t
	}) - 1
	return si.result(idx, n, t)
}

// covers is the cursor fast path: anchor i matches t directly
func (si *SparseIndex) covers(i, n int, t uint64) bool {
	a := si.anchors.Get(uint64(i))
	if t < a.Time {
		return false
	}
	if i+1 < n {
		return t < si.anchors.Get(uint64(i+1)).Time
	}
	return true
}

func (si *SparseIndex) result(i, n int, t uint64) PosResult {
	a := si.anchors.Get(uint64(i))
	if t < a.Time {
		return PosResult{IndexOffset: i, Time: a.Time, Pos: a.Pos, Offset: 0}
	}
	res := si.meta().Resolution
	off := (t - a.Time) / res
	if i+1 < n {
		// clamp to the dense run before the next anchor
		runLen := si.anchors.Get(uint64(i+1)).Pos - a.Pos
		if off >= runLen {
			off = runLen - 1
		}
	}
	return PosResult{IndexOffset: i, Time: a.Time, Pos: a.Pos, Offset: off}
}

func (si *SparseIndex) meta() vector.Meta {
	return si.anchors.Meta()
}
