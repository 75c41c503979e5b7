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

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/context"

	"github.com/jmataya/henhouse/server/config"
	"github.com/jmataya/henhouse/server/keeper"
	"github.com/jmataya/henhouse/server/timeline"
	. "github.com/smartystreets/goconvey/convey"
)

func testServer(t *testing.T) (*Server, *keeper.Keeper) {
	k, err := keeper.New(&config.StoreConfig{
		BaseDir:       t.TempDir(),
		Resolution:    10,
		Workers:       2,
		MaxOpenSeries: 16,
		PutQueueLen:   1024,
	})
	if err != nil {
		t.Fatalf("keeper: %v", err)
	}
	k.Start()
	return New(&config.ApiConfig{Enabled: true, Listen: "127.0.0.1:0"}, k), k
}

func doReq(s *Server, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if len(body) > 0 {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestApiHandlers(t *testing.T) {
	s, k := testServer(t)
	defer k.Stop()

	// seed some data synchronously so reads are deterministic
	k.PutSync("moo.goo.org", 100, 5)
	k.PutSync("moo.goo.org", 110, 3)
	k.PutSync("moo.goo.org", 120, 2)

	Convey("Given the http api", t, func() {

		Convey("ping pongs", func() {
			w := doReq(s, "GET", "/ping", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "ok")
		})

		Convey("summary returns the aggregation", func() {
			w := doReq(s, "GET", "/summary?key=moo.goo.org", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var res timeline.SummaryResult
			So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
			So(res.Sum, ShouldEqual, 10)
			So(res.N, ShouldEqual, 3)
			So(res.From, ShouldEqual, 100)
			So(res.To, ShouldEqual, 130)
		})

		Convey("diff returns the window aggregation", func() {
			w := doReq(s, "GET", "/diff?key=moo.goo.org&from=100&to=130", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var res timeline.DiffResult
			So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
			So(res.Sum, ShouldEqual, 10)
			So(res.N, ShouldEqual, 3)
		})

		Convey("get returns one bucket with a cursor", func() {
			w := doReq(s, "GET", "/get?key=moo.goo.org&t=110", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var res timeline.GetResult
			So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
			So(res.Value.Value, ShouldEqual, 3)

			// feed the cursor back
			w = doReq(s, "GET", "/get?key=moo.goo.org&t=120&hint=0", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("missing series is a 404", func() {
			w := doReq(s, "GET", "/summary?key=no.such.key", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("bad params are a 400", func() {
			So(doReq(s, "GET", "/summary", "").Code, ShouldEqual, http.StatusBadRequest)
			So(doReq(s, "GET", "/diff?key=moo.goo.org&from=abc&to=130", "").Code, ShouldEqual, http.StatusBadRequest)
			So(doReq(s, "GET", "/get?key=moo.goo.org", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("put by params queues a point", func() {
			w := doReq(s, "POST", "/put?key=put.q.key&count=4&time=100", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			deadline := time.Now().Add(3 * time.Second)
			var sum uint64
			for time.Now().Before(deadline) {
				if res, err := k.Summary(context.Background(), "put.q.key"); err == nil && res.Sum >= 4 {
					sum = res.Sum
					break
				}
				time.Sleep(5 * time.Millisecond)
			}
			So(sum, ShouldEqual, 4)
		})

		Convey("put by body queues many points", func() {
			body := "body.key.a 1 100\nbody.key.b 2 100\nnot a put line\n"
			w := doReq(s, "POST", "/put", body)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "\"queued\":2")
			So(w.Body.String(), ShouldContainSubstring, "\"bad\":1")
		})

		Convey("find and keys see the key space", func() {
			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) {
				w := doReq(s, "GET", "/find?prefix=moo.", "")
				if strings.Contains(w.Body.String(), "moo.goo.org") {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}

			w := doReq(s, "GET", "/find?prefix=moo.", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "moo.goo.org")

			w = doReq(s, "GET", "/keys", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "moo.goo.org")
		})
	})
}
