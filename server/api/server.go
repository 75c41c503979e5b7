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
   Fire up an HTTP server for a json interface to the keeper

   example config

   [api]
   enabled = true
   listen = "0.0.0.0:8083"
   base_path = "/"
*/

package api

import (
	"encoding/json"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmataya/henhouse/server/config"
	"github.com/jmataya/henhouse/server/keeper"
	"github.com/jmataya/henhouse/server/stats"
	"github.com/jmataya/henhouse/server/utils/shutdown"
	"github.com/opentracing-contrib/go-stdlib/nethttp"
	"github.com/opentracing/opentracing-go"
	logging "gopkg.in/op/go-logging.v1"
)

type Server struct {
	Conf   *config.ApiConfig
	Keeper *keeper.Keeper
	Router *mux.Router

	hsrv     *http.Server
	listener net.Listener

	log *logging.Logger
}

func New(conf *config.ApiConfig, k *keeper.Keeper) *Server {
	s := &Server{
		Conf:   conf,
		Keeper: k,
		Router: mux.NewRouter(),
		log:    logging.MustGetLogger("api.http"),
	}
	s.AddHandlers()
	return s
}

func (s *Server) basePath() string {
	bp := s.Conf.BasePath
	if len(bp) == 0 {
		bp = "/"
	}
	if !strings.HasSuffix(bp, "/") {
		bp += "/"
	}
	return bp
}

func (s *Server) AddHandlers() {
	bp := s.basePath()
	sub := s.Router.PathPrefix(bp).Subrouter()
	if bp == "/" {
		sub = s.Router
	}

	sub.HandleFunc("/ping", s.Ping)
	sub.HandleFunc("/status", s.Status)
	sub.HandleFunc("/put", s.Put).Methods("POST", "PUT")
	sub.HandleFunc("/get", s.GetBucket)
	sub.HandleFunc("/diff", s.Diff)
	sub.HandleFunc("/summary", s.Summary)
	sub.HandleFunc("/find", s.Find)
	sub.HandleFunc("/keys", s.Keys)

	s.Router.Use(s.recoverHTTP)
}

func (s *Server) Start() error {
	lst, err := net.Listen("tcp", s.Conf.Listen)
	if err != nil {
		return err
	}
	s.listener = lst

	// wrap the router so each request gets a trace span
	handler := nethttp.Middleware(opentracing.GlobalTracer(), s.Router)
	s.hsrv = &http.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.log.Notice("http api listening on %s (base path %s)", s.Conf.Listen, s.basePath())
	go func() {
		if err := s.hsrv.Serve(lst); err != nil && err != http.ErrServerClosed {
			s.log.Error("http api serve: %v", err)
		}
	}()
	return nil
}

func (s *Server) ListenAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Stop() {
	shutdown.AddToShutdown()
	defer shutdown.ReleaseFromShutdown()
	if s.hsrv != nil {
		s.hsrv.Close()
	}
	s.log.Notice("http api stopped")
}

/************** helpers **************/

func (s *Server) recoverHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Critical("panic in handler %s: %v\n%s", r.URL.Path, rec, debug.Stack())
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) outJson(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("json encode: %v", err)
	}
}

func (s *Server) outError(w http.ResponseWriter, msg string, code int) {
	stats.StatsdClient.Incr("api.errors", 1)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
