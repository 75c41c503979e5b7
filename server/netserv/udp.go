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
	UDP put handling: a datagram is one or more newline framed put lines
*/

package netserv

import (
	"bytes"
	"net"

	"github.com/jmataya/henhouse/server/config"
	"github.com/jmataya/henhouse/server/keeper"
	"github.com/jmataya/henhouse/server/stats"
	"github.com/jmataya/henhouse/server/utils/shutdown"
	logging "gopkg.in/op/go-logging.v1"
)

// UDP_BUFFER_SIZE max datagram we will read
const UDP_BUFFER_SIZE = 65535

type UDPServer struct {
	*putServerBase

	conf *config.UDPConfig
	conn net.PacketConn

	PacketCount *stats.AtomicInt

	shutitdown bool
}

func NewUDPServer(conf *config.UDPConfig, k *keeper.Keeper) (*UDPServer, error) {
	base, err := newPutServerBase(k, 0, logging.MustGetLogger("netserv.udp"))
	if err != nil {
		return nil, err
	}
	return &UDPServer{
		putServerBase: base,
		conf:          conf,
		PacketCount:   stats.NewAtomic("netserv.udp.packets"),
	}, nil
}

func (s *UDPServer) Start() error {
	conn, err := net.ListenPacket("udp", s.conf.Listen)
	if err != nil {
		return err
	}
	s.conn = conn
	s.log.Notice("udp put server listening on %s", s.conf.Listen)
	go s.readLoop()
	return nil
}

func (s *UDPServer) ListenAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

func (s *UDPServer) Stop() {
	shutdown.AddToShutdown()
	defer shutdown.ReleaseFromShutdown()
	s.shutitdown = true
	if s.conn != nil {
		s.conn.Close()
	}
	s.stopDispatch()
	s.log.Notice("udp put server stopped")
}

func (s *UDPServer) readLoop() {
	buf := make([]byte, UDP_BUFFER_SIZE)
	for {
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			if s.shutitdown {
				return
			}
			s.log.Warning("udp read error: %v", err)
			continue
		}
		s.PacketCount.Add(1)
		stats.StatsdClient.Incr("netserv.udp.packets", 1)
		for _, line := range bytes.Split(buf[:n], []byte("\n")) {
			line = bytes.TrimSpace(line)
			if len(line) > 0 && len(line) <= MAX_LINE_SIZE {
				s.enqueueLine(line)
			}
		}
	}
}
