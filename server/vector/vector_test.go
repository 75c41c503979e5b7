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

package vector

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBucketVector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "_.d")

	Convey("Given a fresh bucket vector", t, func() {
		bv, err := OpenBucketVector(path)
		So(err, ShouldBeNil)

		Convey("it starts empty", func() {
			So(bv.Empty(), ShouldBeTrue)
			So(bv.Len(), ShouldEqual, 0)
		})

		Convey("push back and indexed reads work", func() {
			So(bv.PushBack(Bucket{Value: 5, Integral: 5, SecondIntegral: 25}), ShouldBeNil)
			So(bv.PushBack(Bucket{Value: 3, Integral: 8, SecondIntegral: 34}), ShouldBeNil)

			So(bv.Len(), ShouldEqual, 2)
			So(bv.Front().Value, ShouldEqual, 5)
			So(bv.Back().Integral, ShouldEqual, 8)
			So(bv.Get(1).SecondIntegral, ShouldEqual, 34)
		})

		Convey("rewrites are visible to later reads", func() {
			So(bv.Set(0, Bucket{Value: 7, Integral: 7, SecondIntegral: 49}), ShouldBeNil)
			So(bv.Get(0).Value, ShouldEqual, 7)
		})

		Convey("reopen sees everything written", func() {
			So(bv.Close(), ShouldBeNil)

			bv2, err := OpenBucketVector(path)
			So(err, ShouldBeNil)
			defer bv2.Close()

			So(bv2.Len(), ShouldEqual, 2)
			So(bv2.Get(0).Value, ShouldEqual, 7)
			So(bv2.Get(1).Integral, ShouldEqual, 8)
		})
	})
}

func TestBucketVectorPartialTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "_.d")

	bv, err := OpenBucketVector(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	bv.PushBack(Bucket{Value: 1, Integral: 1, SecondIntegral: 1})
	bv.PushBack(Bucket{Value: 2, Integral: 3, SecondIntegral: 5})
	bv.Close()

	// simulate a crashed append: half a record hanging off the end
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Write(make([]byte, BucketRecordSize/2))
	f.Close()

	Convey("Given a data file with a torn tail", t, func() {
		bv2, err := OpenBucketVector(path)
		So(err, ShouldBeNil)
		defer bv2.Close()

		Convey("the torn record is dropped, the rest survives", func() {
			So(bv2.Len(), ShouldEqual, 2)
			So(bv2.Back().Integral, ShouldEqual, 3)
		})
	})
}

func TestAnchorVector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "_.i")

	Convey("Given a fresh anchor vector", t, func() {
		av, err := OpenAnchorVector(path, 10)
		So(err, ShouldBeNil)

		Convey("the resolution is stamped into the meta", func() {
			So(av.Meta().Resolution, ShouldEqual, 10)
			So(av.Empty(), ShouldBeTrue)
		})

		Convey("anchors append and read back", func() {
			So(av.PushBack(Anchor{Time: 100, Pos: 0}), ShouldBeNil)
			So(av.PushBack(Anchor{Time: 200, Pos: 1}), ShouldBeNil)
			So(av.Len(), ShouldEqual, 2)
			So(av.Front().Time, ShouldEqual, 100)
			So(av.Back().Pos, ShouldEqual, 1)
		})

		Convey("a non monotone anchor panics", func() {
			So(func() { av.PushBack(Anchor{Time: 150, Pos: 5}) }, ShouldPanic)
			So(func() { av.PushBack(Anchor{Time: 300, Pos: 1}) }, ShouldPanic)
		})

		Convey("reopen keeps the resolution and the anchors", func() {
			So(av.Close(), ShouldBeNil)

			av2, err := OpenAnchorVector(path, 10)
			So(err, ShouldBeNil)
			defer av2.Close()
			So(av2.Meta().Resolution, ShouldEqual, 10)
			So(av2.Len(), ShouldEqual, 2)
		})

		Convey("reopen with a different resolution is refused", func() {
			_, err := OpenAnchorVector(path, 60)
			So(err, ShouldEqual, ErrResolutionMismatch)
		})
	})
}
