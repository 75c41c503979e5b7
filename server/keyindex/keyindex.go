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

LevelDB key/value store mapping the stat key space to series directories on
disk, so finds and key listings never walk the filesystem.

LevelDB is a "key sorted" DB, so prefix searches are just iterator walks
over KEY:{prefix}.

Writes go through a small dispatch queue: the hot put path only pays a ram
set lookup once a key has been seen.

*/

package keyindex

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmataya/henhouse/server/dispatch"
	"github.com/jmataya/henhouse/server/stats"
	"github.com/jmataya/henhouse/server/utils/options"
	"github.com/jmataya/henhouse/server/utils/shutdown"
	"github.com/syndtr/goleveldb/leveldb"
	leveldb_filter "github.com/syndtr/goleveldb/leveldb/filter"
	leveldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	leveldb_util "github.com/syndtr/goleveldb/leveldb/util"
	logging "gopkg.in/op/go-logging.v1"
)

const (
	DEFAULT_READ_CACHE_SIZE = 8
	INDEXER_QUEUE_LEN       = 16384
	INDEXER_WORKERS         = 2

	keyPrefix = "KEY:"
)

type KeyItem struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

/************** dispatcher job **************/
type keyWriteJob struct {
	ki    *KeyIndex
	item  KeyItem
	retry int
}

func (j *keyWriteJob) IncRetry() int {
	j.retry++
	return j.retry
}

func (j *keyWriteJob) OnRetry() int {
	return j.retry
}

func (j *keyWriteJob) DoWork() error {
	return j.ki.writeOne(j.item)
}

type KeyIndex struct {
	db        *leveldb.DB
	tablePath string
	levelOpts *leveldb_opt.Options

	seenLock sync.RWMutex
	seen     map[string]bool

	writeQueue    chan dispatch.IJob
	dispatchQueue chan chan dispatch.IJob
	writeDispatch *dispatch.Dispatch

	started bool
	log     *logging.Logger
}

func New() *KeyIndex {
	ki := new(KeyIndex)
	ki.seen = make(map[string]bool)
	ki.log = logging.MustGetLogger("keyindex")
	return ki
}

func (ki *KeyIndex) Config(conf *options.Options) (err error) {
	dsn, err := conf.StringRequired("dsn")
	if err != nil {
		return fmt.Errorf("`dsn` (/path/to/db/folder) is needed for keyindex config")
	}
	ki.tablePath = dsn

	ki.levelOpts = new(leveldb_opt.Options)
	ki.levelOpts.Filter = leveldb_filter.NewBloomFilter(10)
	ki.levelOpts.BlockCacheCapacity = int(conf.Int64("read_cache_size", DEFAULT_READ_CACHE_SIZE)) * leveldb_opt.MiB

	ki.db, err = leveldb.OpenFile(ki.tablePath, ki.levelOpts)
	if err != nil {
		return err
	}
	return nil
}

func (ki *KeyIndex) Start() {
	if ki.started {
		return
	}
	ki.started = true
	ki.writeQueue = make(chan dispatch.IJob, INDEXER_QUEUE_LEN)
	ki.dispatchQueue = make(chan chan dispatch.IJob, INDEXER_WORKERS)
	ki.writeDispatch = dispatch.NewDispatch(INDEXER_WORKERS, ki.dispatchQueue, ki.writeQueue)
	ki.writeDispatch.SetRetries(2)
	ki.writeDispatch.Run()
	ki.log.Notice("key index at %s started", ki.tablePath)
}

func (ki *KeyIndex) Stop() {
	if !ki.started {
		return
	}
	shutdown.AddToShutdown()
	defer shutdown.ReleaseFromShutdown()
	ki.started = false
	// drain anything still queued before the workers die
	for {
		drained := false
		select {
		case j := <-ki.writeQueue:
			if err := j.DoWork(); err != nil {
				ki.log.Error("key index drain write: %v", err)
			}
		default:
			drained = true
		}
		if drained {
			break
		}
	}
	ki.writeDispatch.Shutdown()
	if ki.db != nil {
		ki.db.Close()
		ki.db = nil
	}
	ki.log.Notice("key index at %s stopped", ki.tablePath)
}

func (ki *KeyIndex) writeOne(item KeyItem) error {
	return ki.db.Put([]byte(keyPrefix+item.Key), []byte(item.Path), nil)
}

// Add registers key -> series path.  Cheap once the key has been seen:
// just a ram map hit.
func (ki *KeyIndex) Add(key string, path string) {
	ki.seenLock.RLock()
	have := ki.seen[key]
	ki.seenLock.RUnlock()
	if have {
		return
	}
	ki.seenLock.Lock()
	ki.seen[key] = true
	ki.seenLock.Unlock()

	stats.StatsdClient.Incr("keyindex.adds", 1)
	select {
	case ki.writeQueue <- &keyWriteJob{ki: ki, item: KeyItem{Key: key, Path: path}}:
	default:
		// queue full, write inline rather than lose the key
		if err := ki.writeOne(KeyItem{Key: key, Path: path}); err != nil {
			ki.log.Error("key index write failed for %s: %v", key, err)
		}
	}
}

// GetPath the series path for an exact key
func (ki *KeyIndex) GetPath(key string) (string, bool, error) {
	got, err := ki.db.Get([]byte(keyPrefix+key), nil)
	if err == leveldb.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(got), true, nil
}

// Exists consults the ram set first, then the db
func (ki *KeyIndex) Exists(key string) bool {
	ki.seenLock.RLock()
	have := ki.seen[key]
	ki.seenLock.RUnlock()
	if have {
		return true
	}
	_, have, err := ki.GetPath(key)
	if err != nil {
		return false
	}
	return have
}

// Find walks keys with the given prefix, up to limit (0 means no limit)
func (ki *KeyIndex) Find(prefix string, limit int) ([]KeyItem, error) {
	defer stats.StatsdSlowNanoTimeFunc("keyindex.find.time-ns", time.Now())

	items := make([]KeyItem, 0)
	iter := ki.db.NewIterator(leveldb_util.BytesPrefix([]byte(keyPrefix+prefix)), nil)
	defer iter.Release()
	for iter.Next() {
		items = append(items, KeyItem{
			Key:  string(iter.Key()[len(keyPrefix):]),
			Path: string(iter.Value()),
		})
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, iter.Error()
}

// List every key known, up to limit (0 means no limit)
func (ki *KeyIndex) List(limit int) ([]string, error) {
	items, err := ki.Find("", limit)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.Key)
	}
	return keys, nil
}
