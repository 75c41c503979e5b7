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
   AnchorVector: the `_.i` index file.

   header (24 bytes): magic "hhix" | version u32 | resolution u64 | reserved u64
   body: packed anchor records

   The resolution lives in the header so a reopened series keeps the bucket
   width it was created with.
*/

package vector

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const anchorHeaderSize = 24
const anchorFormatVersion = 1

var anchorMagic = []byte("hhix")

// ErrResolutionMismatch returned when an existing index file was created
// with a different bucket width than the one requested
var ErrResolutionMismatch = fmt.Errorf("index file resolution does not match requested resolution")

// Meta is the persistent index metadata
type Meta struct {
	Resolution uint64
}

type AnchorVector struct {
	pf   *pagedFile
	recs []Anchor
	meta Meta
}

// OpenAnchorVector opens (or creates) the index file.  A new file is stamped
// with the given resolution; an existing one must match it.
func OpenAnchorVector(path string, resolution uint64) (*AnchorVector, error) {
	if resolution == 0 {
		panic("AnchorVector: resolution must be > 0")
	}
	pf, err := openPagedFile(path, anchorHeaderSize, AnchorRecordSize)
	if err != nil {
		return nil, err
	}

	av := &AnchorVector{pf: pf}

	if pf.isNew() {
		hdr := make([]byte, anchorHeaderSize)
		copy(hdr[0:4], anchorMagic)
		binary.LittleEndian.PutUint32(hdr[4:8], anchorFormatVersion)
		binary.LittleEndian.PutUint64(hdr[8:16], resolution)
		if err = pf.writeHeader(hdr); err != nil {
			pf.Close()
			return nil, err
		}
		av.meta = Meta{Resolution: resolution}
		return av, nil
	}

	hdr := make([]byte, anchorHeaderSize)
	if err = pf.readHeader(hdr); err != nil {
		pf.Close()
		return nil, fmt.Errorf("anchor vector %s: read header: %v", path, err)
	}
	if !bytes.Equal(hdr[0:4], anchorMagic) {
		pf.Close()
		return nil, fmt.Errorf("anchor vector %s: bad magic", path)
	}
	if v := binary.LittleEndian.Uint32(hdr[4:8]); v != anchorFormatVersion {
		pf.Close()
		return nil, fmt.Errorf("anchor vector %s: unknown format version %d", path, v)
	}
	av.meta = Meta{Resolution: binary.LittleEndian.Uint64(hdr[8:16])}
	if av.meta.Resolution != resolution {
		pf.Close()
		return nil, ErrResolutionMismatch
	}

	av.recs = make([]Anchor, 0, pf.count)
	buf := make([]byte, AnchorRecordSize)
	for i := uint64(0); i < pf.count; i++ {
		if err = pf.readRecord(i, buf); err != nil {
			pf.Close()
			return nil, fmt.Errorf("anchor vector %s: read record %d: %v", path, i, err)
		}
		av.recs = append(av.recs, decodeAnchor(buf))
	}
	return av, nil
}

func (av *AnchorVector) Meta() Meta {
	return av.meta
}

func (av *AnchorVector) Len() uint64 {
	return uint64(len(av.recs))
}

func (av *AnchorVector) Empty() bool {
	return len(av.recs) == 0
}

func (av *AnchorVector) Get(i uint64) Anchor {
	return av.recs[i]
}

func (av *AnchorVector) Front() Anchor {
	return av.recs[0]
}

func (av *AnchorVector) Back() Anchor {
	return av.recs[len(av.recs)-1]
}

// PushBack appends an anchor.  Anchors must be strictly increasing in both
// time and position; a violation is a programming error.
func (av *AnchorVector) PushBack(a Anchor) error {
	if !av.Empty() {
		last := av.Back()
		if a.Time <= last.Time || a.Pos <= last.Pos {
			panic(fmt.Sprintf(
				"AnchorVector: non monotone anchor {%d, %d} after {%d, %d}",
				a.Time, a.Pos, last.Time, last.Pos))
		}
	}
	buf := make([]byte, AnchorRecordSize)
	encodeAnchor(a, buf)
	if err := av.pf.writeRecord(av.Len(), buf); err != nil {
		return err
	}
	av.recs = append(av.recs, a)
	return nil
}

func (av *AnchorVector) Sync() error {
	return av.pf.Sync()
}

func (av *AnchorVector) Close() error {
	return av.pf.Close()
}
