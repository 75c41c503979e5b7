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
	TCP put handling: newline framed `<key> <count> <time>` lines

	each connection gets a reader goroutine; raw lines ride a dispatch pool,
	are parsed there and handed to the keeper, so socket reads do not wait on
	the disk until the line and put queues fill
*/

package netserv

import (
	"bufio"
	"net"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/jmataya/henhouse/server/config"
	"github.com/jmataya/henhouse/server/dispatch"
	"github.com/jmataya/henhouse/server/keeper"
	"github.com/jmataya/henhouse/server/splitter"
	"github.com/jmataya/henhouse/server/stats"
	"github.com/jmataya/henhouse/server/utils/shutdown"
	logging "gopkg.in/op/go-logging.v1"
)

// MAX_LINE_SIZE max bytes in one framed put line
const MAX_LINE_SIZE = 8192

// TCP_BUFFER_SIZE Size in bytes of the TCP read buffer
const TCP_BUFFER_SIZE = 1048576

// DEFAULT_LINE_WORKERS line parser pool size when the config has none
const DEFAULT_LINE_WORKERS = 8

/************************** line Dispatcher Job *******************************/

type lineJob struct {
	srv  *putServerBase
	line []byte
}

func (j *lineJob) DoWork() error {
	j.srv.processLine(j.line)
	return nil
}

/************************** shared base *******************************/

type putServerBase struct {
	keeper *keeper.Keeper
	split  splitter.Splitter

	lineQueue     chan dispatch.IJob
	dispatchQueue chan chan dispatch.IJob
	lineDispatch  *dispatch.Dispatch

	LineCount    *stats.AtomicInt
	BadLineCount *stats.AtomicInt

	log *logging.Logger
}

func newPutServerBase(k *keeper.Keeper, workers int, lg *logging.Logger) (*putServerBase, error) {
	spl, err := splitter.NewSplitterItem("put", make(map[string]interface{}))
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = DEFAULT_LINE_WORKERS
	}
	b := &putServerBase{
		keeper:       k,
		split:        spl,
		LineCount:    stats.NewAtomic("netserv.lines"),
		BadLineCount: stats.NewAtomic("netserv.lines.bad"),
		log:          lg,
	}
	b.lineQueue = make(chan dispatch.IJob, workers*1024)
	b.dispatchQueue = make(chan chan dispatch.IJob, workers)
	b.lineDispatch = dispatch.NewDispatch(workers, b.dispatchQueue, b.lineQueue)
	b.lineDispatch.Run()
	return b, nil
}

func (b *putServerBase) enqueueLine(line []byte) {
	if len(line) == 0 {
		return
	}
	// the incoming buffer gets reused by the reader, copy it
	cp := make([]byte, len(line))
	copy(cp, line)
	b.lineQueue <- &lineJob{srv: b, line: cp}
}

func (b *putServerBase) processLine(line []byte) {
	b.LineCount.Add(1)
	it, err := b.split.ProcessLine(line)
	if err != nil || !it.IsValid() {
		b.BadLineCount.Add(1)
		stats.StatsdClient.Incr("netserv.lines.bad", 1)
		return
	}
	b.keeper.Put(string(it.Key()), it.Time(), it.Count())
	splitter.ReleaseSplitItem(it)
}

func (b *putServerBase) stopDispatch() {
	b.lineDispatch.Shutdown()
}

/************************** TCP server *******************************/

type TCPServer struct {
	*putServerBase

	conf     *config.TCPConfig
	listener net.Listener

	ConnCount *stats.AtomicInt

	shutitdown bool
}

func NewTCPServer(conf *config.TCPConfig, k *keeper.Keeper) (*TCPServer, error) {
	base, err := newPutServerBase(k, conf.Workers, logging.MustGetLogger("netserv.tcp"))
	if err != nil {
		return nil, err
	}
	return &TCPServer{
		putServerBase: base,
		conf:          conf,
		ConnCount:     stats.NewAtomic("netserv.tcp.connections"),
	}, nil
}

func (s *TCPServer) Start() error {
	lst, err := net.Listen("tcp", s.conf.Listen)
	if err != nil {
		return err
	}
	s.listener = lst
	s.log.Notice("tcp put server listening on %s", s.conf.Listen)
	go s.acceptLoop()
	return nil
}

// ListenAddr the bound address (handy when the config said port 0)
func (s *TCPServer) ListenAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *TCPServer) Stop() {
	shutdown.AddToShutdown()
	defer shutdown.ReleaseFromShutdown()
	s.shutitdown = true
	if s.listener != nil {
		s.listener.Close()
	}
	s.stopDispatch()
	s.log.Notice("tcp put server stopped")
}

func (s *TCPServer) acceptLoop() {
	// transient accept errors back off instead of spinning the core
	boff := backoff.NewExponentialBackOff()
	boff.MaxElapsedTime = 0
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.shutitdown {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				wait := boff.NextBackOff()
				s.log.Warning("accept error, backing off %v: %v", wait, err)
				time.Sleep(wait)
				continue
			}
			s.log.Error("accept failed, listener down: %v", err)
			return
		}
		boff.Reset()
		s.ConnCount.Add(1)
		stats.StatsdClient.Incr("netserv.tcp.connection.open", 1)
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetReadBuffer(TCP_BUFFER_SIZE)
		}
		go s.handleConn(conn)
	}
}

func (s *TCPServer) handleConn(conn net.Conn) {
	defer func() {
		conn.Close()
		s.ConnCount.Add(-1)
		stats.StatsdClient.Incr("netserv.tcp.connection.close", 1)
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, MAX_LINE_SIZE), MAX_LINE_SIZE)
	for scanner.Scan() {
		s.enqueueLine(scanner.Bytes())
	}
	if err := scanner.Err(); err != nil {
		// over-long frames and read errors drop the connection
		s.log.Warning("connection read ended: %v", err)
	}
}
