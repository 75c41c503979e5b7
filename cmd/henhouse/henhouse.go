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

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jmataya/henhouse/server/api"
	"github.com/jmataya/henhouse/server/config"
	"github.com/jmataya/henhouse/server/keeper"
	"github.com/jmataya/henhouse/server/netserv"
	"github.com/jmataya/henhouse/server/stats"
	"github.com/jmataya/henhouse/server/utils/shutdown"
	logging "gopkg.in/op/go-logging.v1"
)

// compile passing -ldflags "-X main.HenhouseBuild <build sha1>"
var HenhouseBuild string

var log = logging.MustGetLogger("main")

func main() {

	version := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to the config toml")
	logFile := flag.String("logfile", "", "override the log file from the config")
	logLevel := flag.String("loglevel", "", "override the log level from the config")
	flag.Parse()

	if *version {
		fmt.Printf("henhouse (build %s)\n", HenhouseBuild)
		os.Exit(0)
	}

	if len(*configFile) == 0 {
		fmt.Println("-config is required")
		flag.Usage()
		os.Exit(1)
	}

	conf, err := config.ParseConfigFile(*configFile)
	if err != nil {
		panic(err)
	}

	// overrides
	if len(*logFile) > 0 {
		conf.Logger.File = *logFile
	}
	if len(*logLevel) > 0 {
		conf.Logger.Level = *logLevel
	}

	err = conf.BaseStart()
	if err != nil {
		panic(err)
	}

	keep, err := keeper.New(&conf.Store)
	if err != nil {
		log.Critical("could not make the keeper: %v", err)
		os.Exit(1)
	}
	keep.Start()

	var tcpSrv *netserv.TCPServer
	var udpSrv *netserv.UDPServer
	var apiSrv *api.Server

	if conf.TCP.Enabled {
		tcpSrv, err = netserv.NewTCPServer(&conf.TCP, keep)
		if err == nil {
			err = tcpSrv.Start()
		}
		if err != nil {
			log.Critical("could not start the tcp server: %v", err)
			os.Exit(1)
		}
	}
	if conf.UDP.Enabled {
		udpSrv, err = netserv.NewUDPServer(&conf.UDP, keep)
		if err == nil {
			err = udpSrv.Start()
		}
		if err != nil {
			log.Critical("could not start the udp server: %v", err)
			os.Exit(1)
		}
	}
	if conf.Api.Enabled {
		apiSrv = api.New(&conf.Api, keep)
		if err = apiSrv.Start(); err != nil {
			log.Critical("could not start the http api: %v", err)
			os.Exit(1)
		}
	}

	// trap kills to flush queues and close the series files
	TrapExit := func() {
		sc := make(chan os.Signal, 1)
		signal.Notify(sc,
			syscall.SIGINT,
			syscall.SIGTERM,
			syscall.SIGQUIT)

		go func() {
			s := <-sc
			log.Warning("Caught %s: flushing and closing up", s)

			if tcpSrv != nil {
				tcpSrv.Stop()
			}
			if udpSrv != nil {
				udpSrv.Stop()
			}
			if apiSrv != nil {
				apiSrv.Stop()
			}
			keep.Stop()

			// need to stop the statsd collection as well
			if stats.StatsdClient != nil {
				stats.StatsdClient.Close()
			}
			if stats.StatsdClientSlow != nil {
				stats.StatsdClientSlow.Close()
			}

			signal.Stop(sc)
			shutdown.WaitOnShutdown()
			os.Exit(0)
		}()
	}
	go TrapExit()

	log.Notice("henhouse up (build %s)", HenhouseBuild)

	wg := sync.WaitGroup{}
	wg.Add(1)
	wg.Wait()
}
