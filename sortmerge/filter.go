// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sortmerge

import (
	"github.com/decred/dcrd/container/apbf"
)

// ApbfFilter adapts an age-partitioned Bloom filter, loaded from Phase 2's
// sorted input keys, to the SpentFilter interface Phase 3 consults. A false positive only costs Phase 3 an extra
// retained (and later unmatched) output record. An age-partitioned filter
// also forgets its oldest keys once more than its capacity have been added,
// so loading more keys than maxElements can drop the outputs of real spends.
type ApbfFilter struct {
	filter *apbf.Filter
}

// NewApbfFilter builds an empty filter sized for approximately
// maxElements keys.
func NewApbfFilter(maxElements uint32) *ApbfFilter {
	return &ApbfFilter{filter: apbf.NewFilter(maxElements, apbfFalsePositiveRate)}
}

// apbfFalsePositiveRate is the target false-positive rate for the Phase 3
// retention filter: a higher rate only means Phase 4 discards a few more
// unmatched output records, so it is tuned loose in favor of a smaller
// filter.
const apbfFalsePositiveRate = 0.001

// Load indexes every prevout key referenced by inputs into the filter.
func (f *ApbfFilter) Load(keys <-chan OutpointKey) {
	for key := range keys {
		f.filter.Add(keyBytes(key))
	}
}

// MaybeReferenced implements SpentFilter.
func (f *ApbfFilter) MaybeReferenced(key OutpointKey) bool {
	return f.filter.Contains(keyBytes(key))
}

func keyBytes(key OutpointKey) []byte {
	buf := make([]byte, 36)
	copy(buf[:32], key.Txid[:])
	buf[32] = byte(key.Index)
	buf[33] = byte(key.Index >> 8)
	buf[34] = byte(key.Index >> 16)
	buf[35] = byte(key.Index >> 24)
	return buf
}
