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

package netserv

import (
	"fmt"

	"golang.org/x/net/context"
	"net"
	"testing"
	"time"

	"github.com/jmataya/henhouse/server/config"
	"github.com/jmataya/henhouse/server/keeper"
	. "github.com/smartystreets/goconvey/convey"
)

func testKeeper(t *testing.T) *keeper.Keeper {
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
	return k
}

func waitForSum(k *keeper.Keeper, key string, want uint64) uint64 {
	deadline := time.Now().Add(3 * time.Second)
	var sum uint64
	for time.Now().Before(deadline) {
		if s, err := k.Summary(context.Background(), key); err == nil {
			sum = s.Sum
			if sum >= want {
				return sum
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return sum
}

func TestTCPPutServer(t *testing.T) {
	k := testKeeper(t)
	defer k.Stop()

	srv, err := NewTCPServer(&config.TCPConfig{Enabled: true, Listen: "127.0.0.1:0"}, k)
	if err != nil {
		t.Fatalf("new tcp server: %v", err)
	}
	if err = srv.Start(); err != nil {
		t.Fatalf("start tcp server: %v", err)
	}
	defer srv.Stop()

	Convey("Given a running tcp put server", t, func() {

		Convey("framed put lines land in the store", func() {
			conn, err := net.Dial("tcp", srv.ListenAddr().String())
			So(err, ShouldBeNil)

			fmt.Fprintf(conn, "moo.goo.org 5 100\n")
			fmt.Fprintf(conn, "moo.goo.org 3 110\n")
			fmt.Fprintf(conn, "this is not a put line\n")
			fmt.Fprintf(conn, "moo.goo.org 2 120\n")
			conn.Close()

			So(waitForSum(k, "moo.goo.org", 10), ShouldEqual, 10)

			d, err := k.Diff(context.Background(), "moo.goo.org", 100, 130, keeper.UseCachedHint)
			So(err, ShouldBeNil)
			So(d.N, ShouldEqual, 3)
		})

		Convey("many keys on one connection all arrive", func() {
			conn, err := net.Dial("tcp", srv.ListenAddr().String())
			So(err, ShouldBeNil)
			for i := 0; i < 8; i++ {
				fmt.Fprintf(conn, "tcp.key.%d 1 100\n", i)
			}
			conn.Close()

			for i := 0; i < 8; i++ {
				So(waitForSum(k, fmt.Sprintf("tcp.key.%d", i), 1), ShouldEqual, 1)
			}
		})
	})
}

func TestUDPPutServer(t *testing.T) {
	k := testKeeper(t)
	defer k.Stop()

	srv, err := NewUDPServer(&config.UDPConfig{Enabled: true, Listen: "127.0.0.1:0"}, k)
	if err != nil {
		t.Fatalf("new udp server: %v", err)
	}
	if err = srv.Start(); err != nil {
		t.Fatalf("start udp server: %v", err)
	}
	defer srv.Stop()

	Convey("Given a running udp put server", t, func() {

		Convey("a datagram of put lines lands in the store", func() {
			conn, err := net.Dial("udp", srv.ListenAddr().String())
			So(err, ShouldBeNil)
			defer conn.Close()

			conn.Write([]byte("udp.goo.org 4 100\nudp.goo.org 6 110\n"))

			So(waitForSum(k, "udp.goo.org", 10), ShouldEqual, 10)
		})
	})
}
