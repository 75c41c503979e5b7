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

// result records handed back to callers (and out the API as json)

package timeline

import (
	"github.com/jmataya/henhouse/server/vector"
)

// PosResult is an index lookup: which anchor matched and how many buckets
// past it the queried time lands.
type PosResult struct {
	IndexOffset int    `json:"index_offset"`
	Time        uint64 `json:"time"`
	Pos         uint64 `json:"pos"`
	Offset      uint64 `json:"offset"`
}

// GetResult is one located bucket.  RangeTime is the matched anchor's time;
// RangeTime > QueryTime means the query fell before the beginning of the
// series and Value is a synthetic zero bucket.  IndexOffset is the anchor
// cursor to feed back as the `hint` on the next call for cheap monotone
// scans.
type GetResult struct {
	IndexOffset int           `json:"index_offset"`
	QueryTime   uint64        `json:"query_time"`
	RangeTime   uint64        `json:"range_time"`
	Pos         uint64        `json:"pos"`
	Offset      uint64        `json:"offset"`
	Value       vector.Bucket `json:"value"`
}

// DiffResult is the constant time aggregation between two times.
type DiffResult struct {
	From        uint64        `json:"from"`
	To          uint64        `json:"to"`
	Resolution  uint64        `json:"resolution"`
	IndexOffset int           `json:"index_offset"`
	Sum         uint64        `json:"sum"`
	Mean        float64       `json:"mean"`
	Variance    float64       `json:"variance"`
	N           uint64        `json:"n"`
	A           vector.Bucket `json:"a"`
	B           vector.Bucket `json:"b"`
}

// SummaryResult is the whole-series aggregation.
type SummaryResult struct {
	From       uint64  `json:"from"`
	To         uint64  `json:"to"`
	Resolution uint64  `json:"resolution"`
	Sum        uint64  `json:"sum"`
	Mean       float64 `json:"mean"`
	Variance   float64 `json:"variance"`
	N          uint64  `json:"n"`
}
