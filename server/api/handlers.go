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
   keeper http handlers
*/

package api

import (
	"bufio"
	"net/http"
	"strconv"
	"time"

	"github.com/jmataya/henhouse/server/keeper"
	"github.com/jmataya/henhouse/server/splitter"
	"github.com/jmataya/henhouse/server/stats"
)

const maxBodyLine = 8192

func parseUintParam(r *http.Request, name string) (uint64, bool) {
	v := r.FormValue(name)
	if len(v) == 0 {
		return 0, false
	}
	got, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return got, true
}

func parseHintParam(r *http.Request) int {
	v := r.FormValue("hint")
	if len(v) == 0 {
		return keeper.UseCachedHint
	}
	got, err := strconv.Atoi(v)
	if err != nil {
		return keeper.UseCachedHint
	}
	return got
}

func (s *Server) Ping(w http.ResponseWriter, r *http.Request) {
	s.outJson(w, map[string]string{"status": "ok"})
}

func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	s.outJson(w, s.Keeper.Status())
}

// Put lands counts.  Either ?key=&count=&time= or a newline framed body of
// `<key> <count> <time>` lines.
func (s *Server) Put(w http.ResponseWriter, r *http.Request) {
	defer stats.StatsdNanoTimeFunc("api.put.time-ns", time.Now())

	key := r.FormValue("key")
	if len(key) > 0 {
		count, ok := parseUintParam(r, "count")
		if !ok {
			s.outError(w, "bad or missing `count`", http.StatusBadRequest)
			return
		}
		tm, ok := parseUintParam(r, "time")
		if !ok {
			tm = uint64(time.Now().Unix())
		}
		if err := s.Keeper.Put(key, tm, count); err != nil {
			s.outError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.outJson(w, map[string]interface{}{"queued": 1})
		return
	}

	// body mode
	spl, err := splitter.NewSplitterItem("put", make(map[string]interface{}))
	if err != nil {
		s.outError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	queued := 0
	bad := 0
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, maxBodyLine), maxBodyLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		it, err := spl.ProcessLine(line)
		if err != nil || !it.IsValid() {
			bad++
			continue
		}
		if err = s.Keeper.Put(string(it.Key()), it.Time(), it.Count()); err == nil {
			queued++
		}
		splitter.ReleaseSplitItem(it)
	}
	if err := scanner.Err(); err != nil {
		s.outError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.outJson(w, map[string]interface{}{"queued": queued, "bad": bad})
}

func (s *Server) GetBucket(w http.ResponseWriter, r *http.Request) {
	key := r.FormValue("key")
	if len(key) == 0 {
		s.outError(w, "`key` is required", http.StatusBadRequest)
		return
	}
	tm, ok := parseUintParam(r, "t")
	if !ok {
		s.outError(w, "bad or missing `t`", http.StatusBadRequest)
		return
	}
	res, err := s.Keeper.Get(r.Context(), key, tm, parseHintParam(r))
	if err == keeper.ErrSeriesNotFound {
		s.outError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.outError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.outJson(w, res)
}

func (s *Server) Diff(w http.ResponseWriter, r *http.Request) {
	key := r.FormValue("key")
	if len(key) == 0 {
		s.outError(w, "`key` is required", http.StatusBadRequest)
		return
	}
	from, ok := parseUintParam(r, "from")
	if !ok {
		s.outError(w, "bad or missing `from`", http.StatusBadRequest)
		return
	}
	to, ok := parseUintParam(r, "to")
	if !ok {
		s.outError(w, "bad or missing `to`", http.StatusBadRequest)
		return
	}
	res, err := s.Keeper.Diff(r.Context(), key, from, to, parseHintParam(r))
	if err == keeper.ErrSeriesNotFound {
		s.outError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.outError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.outJson(w, res)
}

func (s *Server) Summary(w http.ResponseWriter, r *http.Request) {
	key := r.FormValue("key")
	if len(key) == 0 {
		s.outError(w, "`key` is required", http.StatusBadRequest)
		return
	}
	res, err := s.Keeper.Summary(r.Context(), key)
	if err == keeper.ErrSeriesNotFound {
		s.outError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.outError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.outJson(w, res)
}

func (s *Server) Find(w http.ResponseWriter, r *http.Request) {
	prefix := r.FormValue("prefix")
	limit := 0
	if l, ok := parseUintParam(r, "limit"); ok {
		limit = int(l)
	}
	items, err := s.Keeper.Find(r.Context(), prefix, limit)
	if err != nil {
		s.outError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.outJson(w, items)
}

func (s *Server) Keys(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l, ok := parseUintParam(r, "limit"); ok {
		limit = int(l)
	}
	keys, err := s.Keeper.Keys(r.Context(), limit)
	if err != nil {
		s.outError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.outJson(w, keys)
}
