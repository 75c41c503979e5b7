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
   pagedFile: a flat file of fixed size records behind an optional header.

   The vectors keep a decoded copy of every record in ram and write through
   here, so this layer only needs pread/pwrite at record offsets.  Sync
   policy is left to the OS page cache unless Sync() is called.

   A partial record at the tail (a crashed append) is truncated away on open.
*/

package vector

import (
	"fmt"
	"os"

	logging "gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("vector")

type pagedFile struct {
	f        *os.File
	path     string
	headerSz int64
	recSz    int64
	count    uint64
}

func openPagedFile(path string, headerSz int64, recSz int64) (*pagedFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	p := &pagedFile{
		f:        f,
		path:     path,
		headerSz: headerSz,
		recSz:    recSz,
	}

	size := st.Size()
	if size < headerSz {
		// brand new (or header never finished): callers write the header
		if size > 0 {
			log.Warning("truncating short header in %s (%d bytes)", path, size)
			if err = f.Truncate(0); err != nil {
				f.Close()
				return nil, err
			}
		}
		return p, nil
	}

	body := size - headerSz
	if tail := body % recSz; tail != 0 {
		log.Warning("truncating partial record tail in %s (%d bytes)", path, tail)
		if err = f.Truncate(size - tail); err != nil {
			f.Close()
			return nil, err
		}
		body -= tail
	}
	p.count = uint64(body / recSz)
	return p, nil
}

func (p *pagedFile) isNew() bool {
	st, err := p.f.Stat()
	if err != nil {
		return false
	}
	return st.Size() == 0
}

func (p *pagedFile) readHeader(buf []byte) error {
	if int64(len(buf)) != p.headerSz {
		panic("pagedFile: header buffer size mismatch")
	}
	_, err := p.f.ReadAt(buf, 0)
	return err
}

func (p *pagedFile) writeHeader(buf []byte) error {
	if int64(len(buf)) != p.headerSz {
		panic("pagedFile: header buffer size mismatch")
	}
	_, err := p.f.WriteAt(buf, 0)
	return err
}

func (p *pagedFile) readRecord(idx uint64, buf []byte) error {
	if idx >= p.count {
		panic(fmt.Sprintf("pagedFile: read index %d out of range %d (%s)", idx, p.count, p.path))
	}
	_, err := p.f.ReadAt(buf, p.headerSz+int64(idx)*p.recSz)
	return err
}

// writeRecord rewrites an existing record or appends the next one
func (p *pagedFile) writeRecord(idx uint64, buf []byte) error {
	if idx > p.count {
		panic(fmt.Sprintf("pagedFile: write index %d out of range %d (%s)", idx, p.count, p.path))
	}
	if _, err := p.f.WriteAt(buf, p.headerSz+int64(idx)*p.recSz); err != nil {
		return err
	}
	if idx == p.count {
		p.count++
	}
	return nil
}

func (p *pagedFile) Sync() error {
	return p.f.Sync()
}

func (p *pagedFile) Close() error {
	if p.f == nil {
		return nil
	}
	err := p.f.Close()
	p.f = nil
	return err
}
