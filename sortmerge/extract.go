// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sortmerge

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/btcdecoded/blvm/wire"
)

// BlockSource is the minimal streaming interface Phase 1 and Phase 3 need
// from the block archive: a height-bounded iterator over raw,
// serialized blocks. archive.Reader.NewIterator satisfies it once its
// Record type is adapted by the caller; kept as an interface here so
// sortmerge has no import-time dependency on the archive package's
// on-disk format.
type BlockSource interface {
	// Next returns the next block's height and raw serialized bytes in
	// ascending height order, or io.EOF once exhausted. A height with no
	// block is surfaced as a non-nil error other
	// than io.EOF rather than silently skipped.
	Next() (height int32, raw []byte, err error)
}

// ExtractInputRecords implements Phase 1: for every non-coinbase
// input in every block src yields, it writes a fixed-size InputRecord to
// w. It returns the total number of records written.
func ExtractInputRecords(src BlockSource, w io.Writer) (int64, error) {
	bw := bufio.NewWriterSize(w, 1<<20)
	var count int64

	for {
		height, raw, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("phase 1: reading block at height %d: %w", height, err)
		}

		var block wire.MsgBlock
		if err := block.Deserialize(bytes.NewReader(raw)); err != nil {
			return count, fmt.Errorf("phase 1: decoding block at height %d: %w", height, err)
		}

		for txIdx, tx := range block.Transactions {
			if txIdx == 0 {
				continue // coinbase inputs have no real prevout to join against
			}
			for inputIdx, txIn := range tx.TxIn {
				rec := InputRecord{
					PrevoutTxid:   txIn.PreviousOutPoint.Hash,
					PrevoutIndex:  txIn.PreviousOutPoint.Index,
					SpendHeight:   uint32(height),
					SpendTxIndex:  uint32(txIdx),
					SpendInputIdx: uint32(inputIdx),
				}
				if err := rec.Encode(bw); err != nil {
					return count, fmt.Errorf("phase 1: writing record: %w", err)
				}
				count++
			}
		}
	}

	return count, bw.Flush()
}

// SpentFilter lets Phase 3 skip retaining outputs that Phase 2's sorted
// input file never references, bounding Phase 3's output volume without
// requiring it to hold the full spent set in memory.
type SpentFilter interface {
	MaybeReferenced(key OutpointKey) bool
}

// ExtractOutputRecords implements Phase 3: for every transaction
// output src yields, it writes a length-prefixed OutputRecord to w,
// skipping any output filter reports as definitely unreferenced. A nil
// filter retains every output.
func ExtractOutputRecords(src BlockSource, filter SpentFilter, w io.Writer) (int64, error) {
	bw := bufio.NewWriterSize(w, 1<<20)
	var count int64

	for {
		height, raw, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("phase 3: reading block at height %d: %w", height, err)
		}

		var block wire.MsgBlock
		if err := block.Deserialize(bytes.NewReader(raw)); err != nil {
			return count, fmt.Errorf("phase 3: decoding block at height %d: %w", height, err)
		}

		for txIdx, tx := range block.Transactions {
			txHash := tx.TxHash()
			isCoinbase := txIdx == 0
			for outIdx, txOut := range tx.TxOut {
				key := OutpointKey{Txid: txHash, Index: uint32(outIdx)}
				if filter != nil && !filter.MaybeReferenced(key) {
					continue
				}
				rec := OutputRecord{
					Txid:        txHash,
					OutputIndex: uint32(outIdx),
					Height:      uint32(height),
					IsCoinbase:  isCoinbase,
					Value:       txOut.Value,
					PkScript:    txOut.PkScript,
				}
				if err := rec.Encode(bw); err != nil {
					return count, fmt.Errorf("phase 3: writing record: %w", err)
				}
				count++
			}
		}
	}

	return count, bw.Flush()
}
