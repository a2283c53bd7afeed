// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sortmerge

import (
	"fmt"
	"io"
)

// UnmatchedInput describes a sorted input record that Phase 4 could not
// pair with any sorted output record: either the prevout genuinely never
// appears in the archive (a gap in the archive itself), or the apbf
// filter built from Phase 2's sorted inputs false-negatived it out of Phase 3's retained
// set.
type UnmatchedInput struct {
	Input            InputRecord
	FilterMayExplain bool
}

// MergeJoin implements Phase 4: it co-streams the Phase-2-sorted
// input file and the Phase-3-sorted output file, both ordered by
// OutpointKey, and for every input record whose prevout has a matching
// output record, writes a JoinedRecord to w. Inputs with no match are
// reported through onUnmatched rather than silently dropped; their
// FilterMayExplain flag is set when filterMayFalsePositive is true, since in
// that configuration a missing output may just mean the filter discarded
// a genuinely-referenced output rather than the archive having a gap.
//
// Both streams must already be sorted by OutpointKey (ascending); this
// is not re-verified here, since Phase 2/3's sort step is exactly what
// establishes it and re-checking here would cost another full pass.
func MergeJoin(inputs, outputs io.Reader, w io.Writer, filterMayFalsePositive bool, onUnmatched func(UnmatchedInput) error) (matched, unmatched int64, err error) {
	curInput, inputErr := DecodeInputRecord(inputs)
	curOutput, outputErr := DecodeOutputRecord(outputs)

	// pendingOutputs holds every output seen so far at the current key,
	// since a single outpoint can in principle recur if the archive
	// itself contains a duplicate (pre-BIP30) coinbase txid; an input
	// joins against any output sharing its key.
	var pendingKey OutpointKey
	var pendingOutputs []OutputRecord
	havePending := false

	flushUnmatched := func(rec InputRecord) error {
		unmatched++
		if onUnmatched == nil {
			return nil
		}
		return onUnmatched(UnmatchedInput{Input: rec, FilterMayExplain: filterMayFalsePositive})
	}

	for inputErr != io.EOF {
		if inputErr != nil {
			return matched, unmatched, fmt.Errorf("phase 4: reading input record: %w", inputErr)
		}

		key := curInput.SortKey()

		// Advance the output stream and pending buffer until it is at or
		// past key.
		for outputErr == nil && curOutput.SortKey().Less(key) {
			curOutput, outputErr = DecodeOutputRecord(outputs)
		}
		if outputErr != nil && outputErr != io.EOF {
			return matched, unmatched, fmt.Errorf("phase 4: reading output record: %w", outputErr)
		}

		if !havePending || !pendingKey.Equal(key) {
			pendingOutputs = pendingOutputs[:0]
			pendingKey = key
			havePending = true
			for outputErr == nil && curOutput.SortKey().Equal(key) {
				pendingOutputs = append(pendingOutputs, curOutput)
				curOutput, outputErr = DecodeOutputRecord(outputs)
			}
			if outputErr != nil && outputErr != io.EOF {
				return matched, unmatched, fmt.Errorf("phase 4: reading output record: %w", outputErr)
			}
		}

		if len(pendingOutputs) == 0 {
			if err := flushUnmatched(curInput); err != nil {
				return matched, unmatched, err
			}
		} else {
			out := pendingOutputs[0]
			joined := JoinedRecord{
				Key: JoinedKey{
					Height:   curInput.SpendHeight,
					TxIndex:  curInput.SpendTxIndex,
					InputIdx: curInput.SpendInputIdx,
				},
				Value:    out.Value,
				PkScript: out.PkScript,
			}
			if err := joined.Encode(w); err != nil {
				return matched, unmatched, fmt.Errorf("phase 4: writing joined record: %w", err)
			}
			matched++
		}

		curInput, inputErr = DecodeInputRecord(inputs)
	}
	if inputErr != io.EOF {
		return matched, unmatched, fmt.Errorf("phase 4: reading input record: %w", inputErr)
	}

	return matched, unmatched, nil
}
