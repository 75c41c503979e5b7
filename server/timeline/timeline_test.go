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

package timeline

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/jmataya/henhouse/server/vector"
	. "github.com/smartystreets/goconvey/convey"
)

func mustOpen(t *testing.T, resolution uint64) *Timeline {
	tl, err := FromDirectory(filepath.Join(t.TempDir(), "series"), resolution)
	if err != nil {
		t.Fatalf("open timeline: %v", err)
	}
	return tl
}

func mustPut(t *testing.T, tl *Timeline, tm, c uint64) bool {
	ok, err := tl.Put(tm, c)
	if err != nil {
		t.Fatalf("put(%d, %d): %v", tm, c, err)
	}
	return ok
}

func TestTimelineFirstPut(t *testing.T) {
	tl := mustOpen(t, 10)
	defer tl.Close()

	Convey("Given an empty timeline", t, func() {
		Convey("summary should be all zeros with the resolution", func() {
			s := tl.Summary()
			So(s.Resolution, ShouldEqual, 10)
			So(s.Sum, ShouldEqual, 0)
			So(s.N, ShouldEqual, 0)
			So(s.From, ShouldEqual, 0)
			So(s.To, ShouldEqual, 0)
		})

		Convey("the first put should make one bucket and one anchor", func() {
			So(mustPut(t, tl, 100, 5), ShouldBeTrue)
			So(tl.NumBuckets(), ShouldEqual, 1)
			So(tl.NumAnchors(), ShouldEqual, 1)

			s := tl.Summary()
			So(s.From, ShouldEqual, 100)
			So(s.To, ShouldEqual, 110)
			So(s.Sum, ShouldEqual, 5)
			So(s.Mean, ShouldEqual, 5.0)
			So(s.Variance, ShouldEqual, 0.0)
			So(s.N, ShouldEqual, 1)
		})
	})
}

func TestTimelineContiguousDiff(t *testing.T) {
	tl := mustOpen(t, 10)
	defer tl.Close()

	mustPut(t, tl, 100, 5)
	mustPut(t, tl, 110, 3)
	mustPut(t, tl, 120, 2)

	Convey("Given three contiguous buckets", t, func() {
		Convey("no extra anchors appear", func() {
			So(tl.NumBuckets(), ShouldEqual, 3)
			So(tl.NumAnchors(), ShouldEqual, 1)
		})

		Convey("diff over the whole window sees all of it", func() {
			d := tl.Diff(100, 130, 0)
			So(d.Sum, ShouldEqual, 10)
			So(d.N, ShouldEqual, 3)
			So(d.Mean, ShouldAlmostEqual, 10.0/3.0, 1e-9)
			want := 38.0/3.0 - (10.0/3.0)*(10.0/3.0)
			So(d.Variance, ShouldAlmostEqual, want, 1e-9)
		})

		Convey("a sub window only counts its own buckets", func() {
			d := tl.Diff(110, 130, 0)
			So(d.Sum, ShouldEqual, 5)
			So(d.N, ShouldEqual, 2)
		})

		Convey("diff commutes", func() {
			d1 := tl.Diff(100, 130, 0)
			d2 := tl.Diff(130, 100, 0)
			So(d2.Sum, ShouldEqual, d1.Sum)
			So(d2.N, ShouldEqual, d1.N)
			So(d2.Mean, ShouldEqual, d1.Mean)
		})

		Convey("a zero width window gives a zero diff", func() {
			d := tl.Diff(105, 105, 0)
			So(d.N, ShouldEqual, 0)
			So(d.Sum, ShouldEqual, 0)
		})
	})
}

func TestTimelineGap(t *testing.T) {
	tl := mustOpen(t, 10)
	defer tl.Close()

	mustPut(t, tl, 100, 5)
	mustPut(t, tl, 200, 7)

	Convey("Given a gap between puts", t, func() {
		Convey("only one bucket is appended and the gap is anchored", func() {
			So(tl.NumBuckets(), ShouldEqual, 2)
			So(tl.NumAnchors(), ShouldEqual, 2)

			g := tl.Get(200, 0)
			So(g.RangeTime, ShouldEqual, 200)
			So(g.Pos, ShouldEqual, 1)
			So(g.Offset, ShouldEqual, 0)
			So(g.Value.Value, ShouldEqual, 7)
		})

		Convey("diff across the gap counts both sides", func() {
			d := tl.Diff(100, 210, 0)
			So(d.Sum, ShouldEqual, 12)
			So(d.N, ShouldEqual, 11)
			So(d.Mean, ShouldAlmostEqual, 12.0/11.0, 1e-9)
			want := 74.0/11.0 - math.Pow(12.0/11.0, 2)
			So(d.Variance, ShouldAlmostEqual, want, 1e-9)
		})

		Convey("diff ending inside the gap stops at the gap", func() {
			d := tl.Diff(100, 150, 0)
			So(d.Sum, ShouldEqual, 5)
			So(d.N, ShouldEqual, 5)
		})
	})
}

func TestTimelineBackfill(t *testing.T) {
	tl := mustOpen(t, 10)
	defer tl.Close()

	mustPut(t, tl, 100, 5)
	mustPut(t, tl, 110, 3)
	if !mustPut(t, tl, 100, 2) {
		t.Fatal("backfill put refused")
	}

	Convey("Given an update to an older bucket", t, func() {
		Convey("the bucket and every later cumulative field move", func() {
			g0 := tl.Get(100, 0)
			So(g0.Value.Value, ShouldEqual, 7)
			So(g0.Value.Integral, ShouldEqual, 7)
			So(g0.Value.SecondIntegral, ShouldEqual, 49)

			g1 := tl.Get(110, 0)
			So(g1.Value.Value, ShouldEqual, 3)
			So(g1.Value.Integral, ShouldEqual, 10)
			So(g1.Value.SecondIntegral, ShouldEqual, 58)
		})

		Convey("diff reflects the update", func() {
			d := tl.Diff(100, 120, 0)
			So(d.Sum, ShouldEqual, 10)
		})
	})
}

func TestTimelineBackfillWindow(t *testing.T) {
	tl := mustOpen(t, 10)
	defer tl.Close()

	// 100 contiguous buckets at t = 0..990
	for i := uint64(0); i < 100; i++ {
		mustPut(t, tl, i*10, 1)
	}

	Convey("Given a long contiguous series", t, func() {
		So(tl.NumBuckets(), ShouldEqual, 100)
		So(tl.NumAnchors(), ShouldEqual, 1)

		Convey("a put at the very beginning is refused", func() {
			So(mustPut(t, tl, 0, 1), ShouldBeFalse)
		})

		Convey("a put exactly 60 buckets back is refused, 59 accepted", func() {
			So(mustPut(t, tl, 40*10, 1), ShouldBeFalse)
			So(mustPut(t, tl, 41*10, 1), ShouldBeTrue)
		})

		Convey("a refused put changes nothing", func() {
			before := make([]vector.Bucket, 0, tl.NumBuckets())
			for i := uint64(0); i < tl.NumBuckets(); i++ {
				before = append(before, tl.Get(i*10, 0).Value)
			}
			nb, na := tl.NumBuckets(), tl.NumAnchors()

			So(mustPut(t, tl, 0, 99), ShouldBeFalse)

			So(tl.NumBuckets(), ShouldEqual, nb)
			So(tl.NumAnchors(), ShouldEqual, na)
			for i := uint64(0); i < tl.NumBuckets(); i++ {
				So(tl.Get(i*10, 0).Value, ShouldResemble, before[i])
			}
		})
	})
}

func TestTimelineRejectBeforeAnchor(t *testing.T) {
	tl := mustOpen(t, 10)
	defer tl.Close()

	mustPut(t, tl, 100, 5)
	mustPut(t, tl, 200, 7)

	Convey("Given a gap anchor at 200", t, func() {
		Convey("an arrival older than the anchor is refused", func() {
			So(mustPut(t, tl, 190, 1), ShouldBeFalse)
			So(mustPut(t, tl, 100, 1), ShouldBeFalse)
		})

		Convey("an arrival at the anchor time itself lands", func() {
			So(mustPut(t, tl, 200, 1), ShouldBeTrue)
			g := tl.Get(200, 0)
			So(g.Value.Value, ShouldEqual, 8)
		})
	})
}

func TestTimelineGetBeforeBeginning(t *testing.T) {
	tl := mustOpen(t, 10)
	defer tl.Close()

	mustPut(t, tl, 100, 5)

	Convey("Given data starting at 100", t, func() {
		Convey("a get before the beginning is a zero bucket", func() {
			g := tl.Get(50, 0)
			So(g.RangeTime, ShouldEqual, 100)
			So(g.QueryTime, ShouldEqual, 50)
			So(g.Value, ShouldResemble, vector.Bucket{})
		})
	})
}

func TestTimelinePutThenDiffProperty(t *testing.T) {
	tl := mustOpen(t, 10)
	defer tl.Close()

	times := []uint64{100, 110, 120, 160, 240, 240, 250}
	counts := []uint64{5, 3, 2, 9, 4, 1, 6}

	Convey("Given a mixed stream of puts", t, func() {
		for i, tm := range times {
			c := counts[i]
			ok := mustPut(t, tl, tm, c)
			So(ok, ShouldBeTrue)

			d := tl.Diff(tm, tm+10, 0)
			So(d.Sum, ShouldBeGreaterThanOrEqualTo, c)
		}
	})
}

func TestTimelineCumulativeInvariant(t *testing.T) {
	tl := mustOpen(t, 5)
	defer tl.Close()

	puts := []struct{ tm, c uint64 }{
		{1000, 2}, {1005, 7}, {1005, 1}, {1030, 4},
		{1030, 3}, {1100, 9}, {1105, 1}, {1100, 2},
	}
	for _, p := range puts {
		mustPut(t, tl, p.tm, p.c)
	}

	Convey("Given any accepted put sequence", t, func() {
		Convey("every bucket is the running sum of the values before it", func() {
			var sum, secondSum uint64
			hint := 0
			// walk bucket times through the anchors
			for i := 0; i < int(tl.NumAnchors()); i++ {
				a := tl.index.Get(i)
				run := tl.NumBuckets() - a.Pos
				if i+1 < int(tl.NumAnchors()) {
					run = tl.index.Get(i+1).Pos - a.Pos
				}
				for k := uint64(0); k < run; k++ {
					g := tl.Get(a.Time+k*5, hint)
					hint = g.IndexOffset
					sum += g.Value.Value
					secondSum += g.Value.Value * g.Value.Value
					So(g.Value.Integral, ShouldEqual, sum)
					So(g.Value.SecondIntegral, ShouldEqual, secondSum)
				}
			}
		})

		Convey("anchors are strictly monotone", func() {
			for i := 1; i < int(tl.NumAnchors()); i++ {
				So(tl.index.Get(i).Time, ShouldBeGreaterThan, tl.index.Get(i-1).Time)
				So(tl.index.Get(i).Pos, ShouldBeGreaterThan, tl.index.Get(i-1).Pos)
			}
		})
	})
}

func TestTimelineReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "series")

	tl, err := FromDirectory(path, 10)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	mustPut(t, tl, 100, 5)
	mustPut(t, tl, 110, 3)
	mustPut(t, tl, 200, 7)
	want := tl.Summary()
	if err = tl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	Convey("Given a closed series directory", t, func() {
		Convey("reopening with the same resolution restores it", func() {
			tl2, err := FromDirectory(path, 10)
			So(err, ShouldBeNil)
			defer tl2.Close()

			So(tl2.Summary(), ShouldResemble, want)
			So(tl2.NumBuckets(), ShouldEqual, 3)
			So(tl2.NumAnchors(), ShouldEqual, 2)

			// and it keeps accepting data
			ok, err := tl2.Put(210, 1)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		})

		Convey("reopening with another resolution is refused", func() {
			_, err := FromDirectory(path, 60)
			So(err, ShouldEqual, vector.ErrResolutionMismatch)
		})
	})
}

func TestTimelineHintCursor(t *testing.T) {
	tl := mustOpen(t, 10)
	defer tl.Close()

	// a handful of gaps so the index has several anchors
	for _, tm := range []uint64{100, 300, 700, 1500} {
		mustPut(t, tl, tm, 1)
	}

	Convey("Given a multi anchor index", t, func() {
		Convey("a monotone scan can feed the cursor back in", func() {
			hint := 0
			last := -1
			for _, tm := range []uint64{100, 300, 700, 1500} {
				g := tl.Get(tm, hint)
				So(g.Value.Value, ShouldEqual, 1)
				So(g.IndexOffset, ShouldBeGreaterThanOrEqualTo, last)
				hint = g.IndexOffset
				last = g.IndexOffset
			}
		})

		Convey("a stale cursor still finds the right bucket", func() {
			g := tl.Get(100, 3)
			So(g.RangeTime, ShouldEqual, 100)
			So(g.Value.Value, ShouldEqual, 1)
		})
	})
}
