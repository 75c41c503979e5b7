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
   Timeline: cumulative bucket engine over one data vector + one sparse index.

   Every bucket carries the running sum(x) and sum(x^2) from bucket 0 through
   itself, so any range aggregation is a subtraction of two samples.  The
   price is that a mutation of bucket p must rewrite the cumulative fields of
   every bucket after p; updates AddBucketBackLimit or more buckets back
   from the end are refused to keep that rewrite bounded.

   A Timeline is single writer, single reader, not thread safe.  The keeper
   layer serializes all calls per series.
*/

package timeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmataya/henhouse/server/vector"
	logging "gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("timeline")

// AddBucketBackLimit bounds how far back from the head (the data length) an
// update (not an append) may land: a target this many or more buckets back
// is rejected (60 back refused, 59 accepted) so the cumulative rewrite per
// put stays bounded.
const AddBucketBackLimit = 60

// index file name inside a series directory
const IndexFileName = "_.i"

// data file name inside a series directory
const DataFileName = "_.d"

type Timeline struct {
	data  *vector.BucketVector
	index *SparseIndex
}

// FromDirectory opens (creating if needed) the series directory and its two
// backing files and assembles a Timeline.  An existing index file must have
// been created with the same resolution.
func FromDirectory(path string, resolution uint64) (*Timeline, error) {
	if len(path) == 0 {
		panic("timeline: empty path")
	}
	if resolution == 0 {
		panic("timeline: resolution must be > 0")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("timeline: create %s: %v", path, err)
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("timeline: path %s is not a directory", path)
	}

	idx, err := vector.OpenAnchorVector(filepath.Join(path, IndexFileName), resolution)
	if err != nil {
		return nil, err
	}
	dat, err := vector.OpenBucketVector(filepath.Join(path, DataFileName))
	if err != nil {
		idx.Close()
		return nil, err
	}

	// the two files are only ever empty (or non empty) together
	if idx.Empty() != dat.Empty() {
		idx.Close()
		dat.Close()
		return nil, fmt.Errorf("timeline: %s index/data files disagree, refusing to open", path)
	}

	log.Debug("opened series at %s: %d buckets, %d anchors, resolution %d",
		path, dat.Len(), idx.Len(), idx.Meta().Resolution)

	return &Timeline{
		data:  dat,
		index: NewSparseIndex(idx),
	}, nil
}

func (t *Timeline) Resolution() uint64 {
	return t.index.Meta().Resolution
}

// NumBuckets current length of the data vector
func (t *Timeline) NumBuckets() uint64 {
	return t.data.Len()
}

// NumAnchors current length of the index
func (t *Timeline) NumAnchors() uint64 {
	return t.index.Len()
}

func (t *Timeline) Sync() error {
	if err := t.data.Sync(); err != nil {
		return err
	}
	return t.index.Sync()
}

func (t *Timeline) Close() error {
	derr := t.data.Close()
	ierr := t.index.Close()
	if derr != nil {
		return derr
	}
	return ierr
}

// propagate turns a raw bucket into a summed one given its predecessor
func propagate(prev vector.Bucket, current *vector.Bucket) {
	v := current.Value
	current.Integral = prev.Integral + v
	current.SecondIntegral = prev.SecondIntegral + v*v
}

// Put lands a count c in the bucket containing time tm.  The bool reports
// accept/reject: arrivals older than the last anchor, or AddBucketBackLimit
// or more buckets back, are refused and nothing changes.  An
// error is a storage fault, after which the timeline should be considered
// poisoned.
func (t *Timeline) Put(tm uint64, c uint64) (bool, error) {
	// empty timeline: first bucket and first anchor
	if t.index.Empty() {
		first := vector.Bucket{Value: c, Integral: c, SecondIntegral: c * c}
		if err := t.data.PushBack(first); err != nil {
			return false, err
		}
		if err := t.index.PushBack(vector.Anchor{Time: tm, Pos: 0}); err != nil {
			return false, err
		}
		return true, nil
	}

	lastIdx := int(t.index.Len()) - 1
	lastAnchor := t.index.Back()

	// older than the last indexed gap: would need anchor rewrites, refuse
	if tm < lastAnchor.Time {
		return false, nil
	}

	// only the tail range is searched, on purpose: keeps the insert cost
	// profile flat no matter how many anchors exist
	p := t.index.FindPosFromRange(tm, lastIdx, lastIdx)
	target := p.Pos + p.Offset

	if target < t.data.Len() {
		// bucket exists: bounded backfill window
		if t.data.Len()-target >= AddBucketBackLimit {
			return false, nil
		}
		prev := vector.Bucket{}
		if target > 0 {
			prev = t.data.Get(target - 1)
		}
		current := t.data.Get(target)
		current.Value += c
		propagate(prev, &current)
		if err := t.data.Set(target, current); err != nil {
			return false, err
		}
		// re-propagate the cumulative fields over the suffix
		for q := target + 1; q < t.data.Len(); q++ {
			b := t.data.Get(q)
			propagate(t.data.Get(q-1), &b)
			if err := t.data.Set(q, b); err != nil {
				return false, err
			}
		}
		return true, nil
	}

	// beyond the end: append exactly one bucket
	prev := t.data.Back()
	current := vector.Bucket{Value: c}
	propagate(prev, &current)
	if err := t.data.PushBack(current); err != nil {
		return false, err
	}

	newPos := t.data.Len() - 1
	if target == newPos {
		// contiguous extension, no gap, no new anchor
		return true, nil
	}

	// gap collapsed: index the new bucket under its quantized time.
	// data was written first so a failed index append cannot leave an
	// anchor pointing past the data.
	resolution := t.Resolution()
	aliasedTime := p.Time + p.Offset*resolution
	if aliasedTime > tm {
		panic(fmt.Sprintf("timeline: aliased time %d past put time %d", aliasedTime, tm))
	}
	if err := t.index.PushBack(vector.Anchor{Time: aliasedTime, Pos: newPos}); err != nil {
		return false, err
	}
	return true, nil
}

// clamp keeps pos+offset inside the data vector
func clamp(r *PosResult, size uint64) {
	if r.Pos >= size {
		panic(fmt.Sprintf("timeline: anchor position %d past data size %d", r.Pos, size))
	}
	if r.Pos+r.Offset < size {
		return
	}
	r.Offset = size - r.Pos - 1
}

// Get locates the bucket containing time tm.  Times before the first anchor
// yield a synthetic zero bucket (RangeTime will be > QueryTime).  The hint
// is a previous result's IndexOffset, or 0.
func (t *Timeline) Get(tm uint64, hint int) GetResult {
	if t.data.Empty() {
		return GetResult{QueryTime: tm, RangeTime: tm}
	}

	p := t.index.FindPos(tm, hint)
	clamp(&p, t.data.Len())

	// zero out data before the beginning of collection
	beforeBeginning := tm < p.Time
	dat := vector.Bucket{}
	if !beforeBeginning {
		dat = t.data.Get(p.Pos + p.Offset)
	}

	return GetResult{
		IndexOffset: p.IndexOffset,
		QueryTime:   tm,
		RangeTime:   p.Time,
		Pos:         p.Pos,
		Offset:      p.Offset,
		Value:       dat,
	}
}

/*
diffBuckets: the constant time window math.

mean = sum(x) / N
variance = (sum(x^2) / N) - mean^2

given cumulative samples a (just before the window) and b (end of the
window), sum(x) and sum(x^2) inside the window are plain subtractions.
*/
func diffBuckets(ta, tb, resolution uint64, indexOffset int, a, b vector.Bucket, n uint64) DiffResult {
	if resolution == 0 {
		panic("timeline: diff with zero resolution")
	}
	if n == 0 {
		panic("timeline: diff with zero buckets")
	}

	sum := b.Integral - a.Integral
	secondSum := b.SecondIntegral - a.SecondIntegral
	mean := float64(sum) / float64(n)
	secondMean := float64(secondSum) / float64(n)
	variance := secondMean - mean*mean
	if variance < 0 {
		// catastrophic cancellation on near uniform data
		variance = 0
	}

	return DiffResult{
		From:        ta,
		To:          tb,
		Resolution:  resolution,
		IndexOffset: indexOffset,
		Sum:         sum,
		Mean:        mean,
		Variance:    variance,
		N:           n,
		A:           a,
		B:           b,
	}
}

// cumSample is the cumulative sample covering everything strictly before
// time q: the bucket just before the one containing q, or a zero bucket at
// the very beginning.  g is the Get result that located q.
func (t *Timeline) cumSample(q uint64, g GetResult) vector.Bucket {
	resolution := t.Resolution()

	var k uint64
	if q > g.RangeTime {
		// buckets of g's run that lie strictly before q
		k = (q - g.RangeTime + resolution - 1) / resolution
	}
	runLen := t.data.Len() - g.Pos
	if g.IndexOffset+1 < int(t.index.Len()) {
		runLen = t.index.Get(g.IndexOffset+1).Pos - g.Pos
	}
	if k > runLen {
		k = runLen
	}

	kpos := g.Pos + k
	if kpos == 0 {
		return vector.Bucket{}
	}
	if kpos > t.data.Len() {
		kpos = t.data.Len()
	}
	return t.data.Get(kpos - 1)
}

// Diff aggregates the window [a, b): count, mean and variance of the bucket
// values between the two times, in constant time.  a and b commute.
func (t *Timeline) Diff(a, b uint64, hint int) DiffResult {
	resolution := t.Resolution()
	if resolution == 0 {
		panic("timeline: diff with zero resolution")
	}

	if a > b {
		a, b = b, a
	}
	if t.data.Empty() {
		return DiffResult{From: a, To: b, Resolution: resolution}
	}

	ar := t.Get(a, hint)
	br := t.Get(b, hint)

	// clamp to the located ranges: b to the later of query/anchor time,
	// a never past b
	if br.RangeTime > b {
		b = br.RangeTime
	}
	if a > b {
		a = b
	}

	n := (b - a) / resolution
	if n == 0 {
		return DiffResult{
			From:        a,
			To:          b,
			Resolution:  resolution,
			IndexOffset: ar.IndexOffset,
			A:           ar.Value,
			B:           br.Value,
		}
	}

	if ar.IndexOffset > br.IndexOffset {
		panic("timeline: diff anchors out of order")
	}

	av := t.cumSample(a, ar)
	bv := t.cumSample(b, br)
	return diffBuckets(a, b, resolution, ar.IndexOffset, av, bv, n)
}

// Summary aggregates the whole series: first bucket's time through one
// resolution past the last bucket, measured against a synthetic zero first
// sample so the first bucket's own value is counted.
func (t *Timeline) Summary() SummaryResult {
	resolution := t.Resolution()
	if resolution == 0 {
		panic("timeline: summary with zero resolution")
	}

	if t.index.Empty() {
		return SummaryResult{Resolution: resolution}
	}
	if t.data.Empty() {
		panic("timeline: index populated but data empty")
	}

	front := t.index.Front()
	back := t.index.Back()

	from := front.Time

	if t.data.Len() <= back.Pos {
		panic("timeline: back anchor past data")
	}
	lastBuckets := t.data.Len() - back.Pos
	to := back.Time + lastBuckets*resolution

	if to <= from {
		panic("timeline: summary range collapsed")
	}
	n := (to - from) / resolution

	d := diffBuckets(from, to, resolution, 0, vector.Bucket{}, t.data.Back(), n)
	return SummaryResult{
		From:       from,
		To:         to,
		Resolution: resolution,
		Sum:        d.Sum,
		Mean:       d.Mean,
		Variance:   d.Variance,
		N:          n,
	}
}
