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

package splitter

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPutSplitter(t *testing.T) {

	conf := make(map[string]interface{})
	spl, err := NewSplitterItem("put", conf)

	Convey("Given a put line splitter", t, func() {

		Convey("the registry should make one", func() {
			So(err, ShouldBeNil)
			So(spl.Name(), ShouldEqual, "put")
		})

		Convey("`moo.goo.org 5 123123` should parse", func() {
			it, err := spl.ProcessLine([]byte("moo.goo.org 5 123123"))
			So(err, ShouldBeNil)
			So(it.IsValid(), ShouldBeTrue)
			So(string(it.Key()), ShouldEqual, "moo.goo.org")
			So(it.Count(), ShouldEqual, 5)
			So(it.HasTime(), ShouldBeTrue)
			So(it.Time(), ShouldEqual, 123123)
			ReleaseSplitItem(it)
		})

		Convey("trailing junk is ignored", func() {
			it, err := spl.ProcessLine([]byte("moo.goo.org 5 123123 some more things"))
			So(err, ShouldBeNil)
			So(it.Count(), ShouldEqual, 5)
			ReleaseSplitItem(it)
		})

		Convey("`moo.goo.org 5` should fail", func() {
			_, err := spl.ProcessLine([]byte("moo.goo.org 5"))
			So(err, ShouldEqual, ErrBadPutLine)
		})

		Convey("a blank line should fail", func() {
			_, err := spl.ProcessLine([]byte("   "))
			So(err, ShouldEqual, ErrBadPutLine)
		})

		Convey("a non numeric count should fail", func() {
			_, err := spl.ProcessLine([]byte("moo.goo.org cow 123123"))
			So(err, ShouldEqual, ErrBadPutLineCount)
		})

		Convey("a negative count should fail", func() {
			_, err := spl.ProcessLine([]byte("moo.goo.org -2 123123"))
			So(err, ShouldEqual, ErrBadPutLineCount)
		})

		Convey("a non numeric time should fail", func() {
			_, err := spl.ProcessLine([]byte("moo.goo.org 5 yesterday"))
			So(err, ShouldEqual, ErrBadPutLineTime)
		})

		Convey("an unknown splitter name is refused", func() {
			_, err := NewSplitterItem("carrier-pigeon", conf)
			So(err, ShouldNotBeNil)
		})
	})
}
