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
   on disk records, little endian fixed width

   bucket (the `_.d` file): {value u64, integral u64, second_integral u64}
   anchor (the `_.i` file): {time u64, pos u64}
*/

package vector

import (
	"encoding/binary"
)

// BucketRecordSize bytes per bucket record in the data file
const BucketRecordSize = 24

// AnchorRecordSize bytes per anchor record in the index file
const AnchorRecordSize = 16

// Bucket is one fixed width time slot.  Value is the raw count landed in
// the slot, Integral and SecondIntegral are the running sum(x) and sum(x^2)
// from slot 0 through this slot inclusive.
type Bucket struct {
	Value          uint64
	Integral       uint64
	SecondIntegral uint64
}

// Anchor maps a quantized wall clock time to a bucket position in the data
// vector.  Anchors exist only where the timeline has a temporal gap.
type Anchor struct {
	Time uint64
	Pos  uint64
}

func encodeBucket(b Bucket, buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], b.Value)
	binary.LittleEndian.PutUint64(buf[8:16], b.Integral)
	binary.LittleEndian.PutUint64(buf[16:24], b.SecondIntegral)
}

func decodeBucket(buf []byte) Bucket {
	return Bucket{
		Value:          binary.LittleEndian.Uint64(buf[0:8]),
		Integral:       binary.LittleEndian.Uint64(buf[8:16]),
		SecondIntegral: binary.LittleEndian.Uint64(buf[16:24]),
	}
}

func encodeAnchor(a Anchor, buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], a.Time)
	binary.LittleEndian.PutUint64(buf[8:16], a.Pos)
}

func decodeAnchor(buf []byte) Anchor {
	return Anchor{
		Time: binary.LittleEndian.Uint64(buf[0:8]),
		Pos:  binary.LittleEndian.Uint64(buf[8:16]),
	}
}
