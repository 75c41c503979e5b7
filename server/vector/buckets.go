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
   BucketVector: the `_.d` data file, a headerless packed array of bucket
   records.  All records are held decoded in ram; mutations write through to
   the file so reads in process always observe the latest write.
*/

package vector

import (
	"fmt"
)

type BucketVector struct {
	pf   *pagedFile
	recs []Bucket
}

// OpenBucketVector opens (or creates) the data file and loads every record
func OpenBucketVector(path string) (*BucketVector, error) {
	pf, err := openPagedFile(path, 0, BucketRecordSize)
	if err != nil {
		return nil, err
	}
	bv := &BucketVector{
		pf:   pf,
		recs: make([]Bucket, 0, pf.count),
	}
	buf := make([]byte, BucketRecordSize)
	for i := uint64(0); i < pf.count; i++ {
		if err = pf.readRecord(i, buf); err != nil {
			pf.Close()
			return nil, fmt.Errorf("bucket vector %s: read record %d: %v", path, i, err)
		}
		bv.recs = append(bv.recs, decodeBucket(buf))
	}
	return bv, nil
}

func (bv *BucketVector) Len() uint64 {
	return uint64(len(bv.recs))
}

func (bv *BucketVector) Empty() bool {
	return len(bv.recs) == 0
}

// Get reads record i.  i must be < Len()
func (bv *BucketVector) Get(i uint64) Bucket {
	return bv.recs[i]
}

// Front first record, caller must check Empty first
func (bv *BucketVector) Front() Bucket {
	return bv.recs[0]
}

// Back last record, caller must check Empty first
func (bv *BucketVector) Back() Bucket {
	return bv.recs[len(bv.recs)-1]
}

// Set rewrites record i in ram and on disk.  i must be < Len()
func (bv *BucketVector) Set(i uint64, b Bucket) error {
	if i >= bv.Len() {
		panic(fmt.Sprintf("BucketVector: set index %d out of range %d", i, bv.Len()))
	}
	buf := make([]byte, BucketRecordSize)
	encodeBucket(b, buf)
	if err := bv.pf.writeRecord(i, buf); err != nil {
		return err
	}
	bv.recs[i] = b
	return nil
}

func (bv *BucketVector) PushBack(b Bucket) error {
	buf := make([]byte, BucketRecordSize)
	encodeBucket(b, buf)
	if err := bv.pf.writeRecord(bv.Len(), buf); err != nil {
		return err
	}
	bv.recs = append(bv.recs, b)
	return nil
}

func (bv *BucketVector) Sync() error {
	return bv.pf.Sync()
}

func (bv *BucketVector) Close() error {
	return bv.pf.Close()
}
