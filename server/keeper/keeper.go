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
   Keeper: the sharded series owner.

   A timeline is single writer by design, so every series key is hashed onto
   exactly one worker goroutine and all of its operations run there, in
   order.  Workers keep their open timelines in a small LRU (a series is two
   open files); evicted series are synced and closed.

   Puts ride an async queue per worker, reads are synchronous jobs with a
   reply channel.
*/

package keeper

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmataya/henhouse/server/config"
	"github.com/jmataya/henhouse/server/keyindex"
	"github.com/jmataya/henhouse/server/lrucache"
	"github.com/jmataya/henhouse/server/stats"
	"github.com/jmataya/henhouse/server/timeline"
	"github.com/jmataya/henhouse/server/utils/options"
	"github.com/jmataya/henhouse/server/utils/shutdown"
	"github.com/reusee/mmh3"
	"golang.org/x/net/context"
	logging "gopkg.in/op/go-logging.v1"
)

var ErrSeriesNotFound = errors.New("series not found")
var ErrKeeperStopped = errors.New("keeper is stopped")

// UseCachedHint callers pass this when they have no cursor of their own;
// the owning worker substitutes the series' last known cursor.
const UseCachedHint = -1

/************** the value living in a worker's LRU **************/

type openSeries struct {
	key  string
	tl   *timeline.Timeline
	hint int // cached index cursor for monotone reads
}

func (s *openSeries) Size() int {
	// capacity counts open series, not bytes
	return 1
}

func (s *openSeries) ToString() string {
	return s.key
}

/************** async put request **************/

type putReq struct {
	key   string
	time  uint64
	count uint64
}

/************** sync job with a reply **************/

type workerJob struct {
	fn   func()
	done chan struct{}
}

/************** worker **************/

type worker struct {
	id     int
	keeper *Keeper
	jobs   chan *workerJob
	puts   chan putReq
	series *lrucache.LRUCache

	shutdown chan bool
	stopped  chan bool
}

func newWorker(id int, k *Keeper, maxOpen uint64, putQueueLen int) *worker {
	w := &worker{
		id:       id,
		keeper:   k,
		jobs:     make(chan *workerJob, 128),
		puts:     make(chan putReq, putQueueLen),
		series:   lrucache.NewLRUCache(maxOpen),
		shutdown: make(chan bool, 1),
		stopped:  make(chan bool, 1),
	}
	w.series.OnEvict(func(key string, v lrucache.Value) {
		os := v.(*openSeries)
		if err := os.tl.Sync(); err != nil {
			k.log.Error("series %s sync on evict: %v", key, err)
		}
		if err := os.tl.Close(); err != nil {
			k.log.Error("series %s close on evict: %v", key, err)
		}
	})
	return w
}

func (w *worker) start() {
	go w.loop()
}

func (w *worker) loop() {
	for {
		select {
		case j := <-w.jobs:
			j.fn()
			close(j.done)
		case p := <-w.puts:
			w.doPut(p)
		case <-w.shutdown:
			// drain what's queued, then close up shop
			for {
				select {
				case p := <-w.puts:
					w.doPut(p)
				default:
					w.series.Clear() // eviction hook syncs + closes
					w.stopped <- true
					return
				}
			}
		}
	}
}

// getOrOpen must only run on the worker's own goroutine
func (w *worker) getOrOpen(key string, create bool) (*openSeries, error) {
	if got, have := w.series.Get(key); have {
		return got.(*openSeries), nil
	}

	relPath := seriesPath(key)
	if !create {
		// cold cache: the key index remembers what exists
		if !w.keeper.kidx.Exists(key) {
			return nil, ErrSeriesNotFound
		}
	}

	tl, err := timeline.FromDirectory(
		filepath.Join(w.keeper.conf.BaseDir, relPath), w.keeper.conf.Resolution)
	if err != nil {
		return nil, err
	}
	os := &openSeries{key: key, tl: tl}
	w.series.Set(key, os)
	if create {
		w.keeper.kidx.Add(key, relPath)
	}
	return os, nil
}

func (w *worker) doPut(p putReq) {
	os, err := w.getOrOpen(p.key, true)
	if err != nil {
		w.keeper.putsErrored.Add(1)
		stats.StatsdClient.Incr("keeper.put.errors", 1)
		w.keeper.log.Error("put %s: open series: %v", p.key, err)
		return
	}
	ok, err := os.tl.Put(p.time, p.count)
	switch {
	case err != nil:
		w.keeper.putsErrored.Add(1)
		stats.StatsdClient.Incr("keeper.put.errors", 1)
		w.keeper.log.Error("put %s: %v", p.key, err)
	case ok:
		w.keeper.putsAccepted.Add(1)
		stats.StatsdClient.Incr("keeper.put.accepted", 1)
	default:
		w.keeper.putsRejected.Add(1)
		stats.StatsdClient.Incr("keeper.put.rejected", 1)
	}
}

// run executes fn on the worker goroutine and waits for it
func (w *worker) run(fn func()) {
	j := &workerJob{fn: fn, done: make(chan struct{})}
	w.jobs <- j
	<-j.done
}

/************** keeper proper **************/

type Keeper struct {
	conf    *config.StoreConfig
	kidx    *keyindex.KeyIndex
	workers []*worker

	putsAccepted *stats.AtomicInt
	putsRejected *stats.AtomicInt
	putsErrored  *stats.AtomicInt

	started bool
	log     *logging.Logger
}

func New(conf *config.StoreConfig) (*Keeper, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	k := &Keeper{
		conf:         conf,
		putsAccepted: stats.NewAtomic("keeper.puts.accepted"),
		putsRejected: stats.NewAtomic("keeper.puts.rejected"),
		putsErrored:  stats.NewAtomic("keeper.puts.errored"),
		log:          logging.MustGetLogger("keeper"),
	}

	idxPath := conf.KeyIndexPath
	if len(idxPath) == 0 {
		idxPath = filepath.Join(conf.BaseDir, "idx")
	}
	k.kidx = keyindex.New()
	opts := options.New()
	opts.Set("dsn", idxPath)
	if err := k.kidx.Config(&opts); err != nil {
		return nil, fmt.Errorf("keeper: key index: %v", err)
	}

	perWorker := conf.MaxOpenSeries / uint64(conf.Workers)
	if perWorker == 0 {
		perWorker = 1
	}
	for i := 0; i < conf.Workers; i++ {
		k.workers = append(k.workers, newWorker(i, k, perWorker, conf.PutQueueLen))
	}
	return k, nil
}

func (k *Keeper) Start() {
	if k.started {
		return
	}
	k.started = true
	k.kidx.Start()
	for _, w := range k.workers {
		w.start()
	}
	k.log.Notice("keeper started: %d workers, resolution %d, base dir %s",
		len(k.workers), k.conf.Resolution, k.conf.BaseDir)
}

func (k *Keeper) Stop() {
	if !k.started {
		return
	}
	shutdown.AddToShutdown()
	defer shutdown.ReleaseFromShutdown()
	k.started = false

	for _, w := range k.workers {
		w.shutdown <- true
	}
	for _, w := range k.workers {
		<-w.stopped
	}
	k.kidx.Stop()
	k.log.Notice("keeper stopped")
}

func (k *Keeper) Resolution() uint64 {
	return k.conf.Resolution
}

func (k *Keeper) workerFor(key string) *worker {
	h := mmh3.Hash32([]byte(key))
	return k.workers[h%uint32(len(k.workers))]
}

// Put queues a count asynchronously; it blocks only when the owning
// worker's queue is full (back pressure)
func (k *Keeper) Put(key string, tm uint64, c uint64) error {
	if !k.started {
		return ErrKeeperStopped
	}
	defer stats.StatsdNanoTimeFunc("keeper.put.queue-time-ns", time.Now())
	w := k.workerFor(key)
	select {
	case w.puts <- putReq{key: key, time: tm, count: c}:
	default:
		stats.StatsdClient.Incr("keeper.put.backpressure", 1)
		w.puts <- putReq{key: key, time: tm, count: c}
	}
	return nil
}

// PutSync lands a count and reports acceptance
func (k *Keeper) PutSync(key string, tm uint64, c uint64) (ok bool, err error) {
	if !k.started {
		return false, ErrKeeperStopped
	}
	w := k.workerFor(key)
	w.run(func() {
		var os *openSeries
		os, err = w.getOrOpen(key, true)
		if err != nil {
			return
		}
		ok, err = os.tl.Put(tm, c)
	})
	switch {
	case err != nil:
		k.putsErrored.Add(1)
	case ok:
		k.putsAccepted.Add(1)
	default:
		k.putsRejected.Add(1)
	}
	return ok, err
}

// Get one bucket.  hint is a previous result's IndexOffset, or UseCachedHint
func (k *Keeper) Get(ctx context.Context, key string, tm uint64, hint int) (res timeline.GetResult, err error) {
	if !k.started {
		return res, ErrKeeperStopped
	}
	if err = ctx.Err(); err != nil {
		return res, err
	}
	w := k.workerFor(key)
	w.run(func() {
		var os *openSeries
		os, err = w.getOrOpen(key, false)
		if err != nil {
			return
		}
		h := hint
		if h == UseCachedHint {
			h = os.hint
		}
		res = os.tl.Get(tm, h)
		os.hint = res.IndexOffset
	})
	return res, err
}

// Diff aggregates [a, b) on one series
func (k *Keeper) Diff(ctx context.Context, key string, a, b uint64, hint int) (res timeline.DiffResult, err error) {
	if !k.started {
		return res, ErrKeeperStopped
	}
	if err = ctx.Err(); err != nil {
		return res, err
	}
	defer stats.StatsdNanoTimeFunc("keeper.diff.time-ns", time.Now())
	w := k.workerFor(key)
	w.run(func() {
		var os *openSeries
		os, err = w.getOrOpen(key, false)
		if err != nil {
			return
		}
		h := hint
		if h == UseCachedHint {
			h = os.hint
		}
		res = os.tl.Diff(a, b, h)
		os.hint = res.IndexOffset
	})
	return res, err
}

// Summary aggregates a whole series
func (k *Keeper) Summary(ctx context.Context, key string) (res timeline.SummaryResult, err error) {
	if !k.started {
		return res, ErrKeeperStopped
	}
	if err = ctx.Err(); err != nil {
		return res, err
	}
	defer stats.StatsdNanoTimeFunc("keeper.summary.time-ns", time.Now())
	w := k.workerFor(key)
	w.run(func() {
		var os *openSeries
		os, err = w.getOrOpen(key, false)
		if err != nil {
			return
		}
		res = os.tl.Summary()
	})
	return res, err
}

// Find prefix searches the key space
func (k *Keeper) Find(ctx context.Context, prefix string, limit int) ([]keyindex.KeyItem, error) {
	if !k.started {
		return nil, ErrKeeperStopped
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return k.kidx.Find(prefix, limit)
}

// Keys lists known series keys
func (k *Keeper) Keys(ctx context.Context, limit int) ([]string, error) {
	if !k.started {
		return nil, ErrKeeperStopped
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return k.kidx.List(limit)
}

// Status a small counter snapshot for the api
func (k *Keeper) Status() map[string]int64 {
	return map[string]int64{
		"puts_accepted": k.putsAccepted.Get(),
		"puts_rejected": k.putsRejected.Get(),
		"puts_errored":  k.putsErrored.Get(),
		"workers":       int64(len(k.workers)),
	}
}

// seriesPath the relative directory for a key, partitioned by its first
// character so one flat dir does not fill up
func seriesPath(key string) string {
	safe := stats.SanitizeName(key)
	if len(safe) == 0 {
		safe = "_"
	}
	return filepath.Join(safe[0:1], safe)
}
