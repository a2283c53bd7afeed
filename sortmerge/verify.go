// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sortmerge

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/btcdecoded/blvm/chaincfg"
	"github.com/btcdecoded/blvm/chainhash"
	"github.com/btcdecoded/blvm/txscript"
	"github.com/btcdecoded/blvm/wire"
)

// Verdict is the outcome of re-verifying a single input's script against
// the prevout Phase 4/5 joined for it.
type Verdict int

const (
	// Valid means the script interpreter accepted the input exactly as
	// the reference node's history implies it must have.
	Valid Verdict = iota
	// Invalid means the script interpreter rejected an input the chain
	// nonetheless contains: a genuine consensus divergence between this
	// implementation and the historical chain, and the entire point of
	// running the pipeline.
	Invalid
)

// Divergence records the outcome of re-verifying one input, with enough
// context to reproduce and diagnose it offline without re-running the
// pipeline. VerifyJoined reports one for every input it verifies, so its
// Verdict may be Valid.
type Divergence struct {
	Height   int32
	TxIndex  int
	TxHash   chainhash.Hash
	InputIdx int
	Verdict  Verdict
	Reason   string
}

// BlockReader is the Phase 6 counterpart of BlockSource: it must yield
// blocks in the same ascending height order the joined-sorted stream's
// JoinedKey.Height walks, since the two are consumed in lockstep.
type BlockReader interface {
	Next() (height int32, raw []byte, err error)
}

// VerifyOptions configures Phase 6's streamed re-verification pass.
type VerifyOptions struct {
	Params    *chaincfg.Params
	SigCache  *txscript.SigCache
	Workers   int
	OnResult  func(Divergence)
	// MedianTimePastOf returns the median time past in effect at height.
	// VerifyJoined does not call it; script flags come from
	// Params.ActiveScriptFlags alone.
	MedianTimePastOf func(height int32) uint32
}

// jointInput bundles a single transaction input with the joined prevout
// Phase 4/5 resolved for it, ready for script verification.
type jointInput struct {
	height   int32
	txIdx    int
	tx       *wire.MsgTx
	inputIdx int
	value    int64
	pkScript []byte
}

// VerifyJoined implements Phase 6: it streams blocks from blocks
// and joined prevout records from joined in lockstep (both ordered by
// height, then transaction index, then input index), reconstructs each
// non-coinbase input's spending script engine, and re-executes it under
// the script flags active at that input's height. Every outcome is
// reported through opts.OnResult; it returns once either stream is
// exhausted. The two streams are expected to name exactly the same
// inputs in the same order — any mismatch is a pipeline bug (an earlier
// phase dropped or reordered a record) and is returned as an error
// rather than silently skipped.
func VerifyJoined(blocks BlockReader, joined io.Reader, opts VerifyOptions) (verified int64, err error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan jointInput, workers*4)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var workerErr error

	setErr := func(e error) {
		mu.Lock()
		if workerErr == nil {
			workerErr = e
		}
		mu.Unlock()
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				verifyOne(job, opts)
			}
		}()
	}

	joinErr := feedJobs(blocks, joined, opts, jobs, &verified, setErr)
	close(jobs)
	wg.Wait()

	if joinErr != nil {
		return verified, joinErr
	}
	return verified, workerErr
}

func feedJobs(blocks BlockReader, joined io.Reader, opts VerifyOptions, jobs chan<- jointInput, verified *int64, setErr func(error)) error {
	curJoined, joinedErr := DecodeJoinedRecord(joined)

	for {
		height, raw, err := blocks.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("phase 6: reading block: %w", err)
		}

		var block wire.MsgBlock
		if err := block.Deserialize(bytes.NewReader(raw)); err != nil {
			return fmt.Errorf("phase 6: decoding block at height %d: %w", height, err)
		}

		for txIdx, tx := range block.Transactions {
			if txIdx == 0 {
				continue
			}
			for inputIdx := range tx.TxIn {
				if joinedErr != nil {
					if joinedErr == io.EOF {
						return fmt.Errorf("phase 6: joined stream exhausted before block height %d tx %d input %d", height, txIdx, inputIdx)
					}
					return fmt.Errorf("phase 6: reading joined record: %w", joinedErr)
				}

				want := JoinedKey{Height: uint32(height), TxIndex: uint32(txIdx), InputIdx: uint32(inputIdx)}
				if curJoined.Key != want {
					return fmt.Errorf("phase 6: joined stream out of sync: expected key %+v, have %+v", want, curJoined.Key)
				}

				jobs <- jointInput{
					height:   height,
					txIdx:    txIdx,
					tx:       tx,
					inputIdx: inputIdx,
					value:    curJoined.Value,
					pkScript: curJoined.PkScript,
				}
				*verified++

				curJoined, joinedErr = DecodeJoinedRecord(joined)
			}
		}
	}

	if joinedErr == nil {
		return fmt.Errorf("phase 6: joined stream has records beyond the last block, next key %+v", curJoined.Key)
	}
	if joinedErr != io.EOF {
		return fmt.Errorf("phase 6: reading joined record: %w", joinedErr)
	}
	return nil
}

func verifyOne(job jointInput, opts VerifyOptions) {
	flags := opts.Params.ActiveScriptFlags(job.height)
	hashCache := txscript.NewTxSigHashes(job.tx)

	engine, err := txscript.NewEngine(job.pkScript, job.tx, job.inputIdx, flags, opts.SigCache, hashCache, job.value)
	txHash := job.tx.TxHash()
	if err != nil {
		report(opts, job, txHash, Invalid, "building script engine: "+err.Error())
		return
	}
	if err := engine.Execute(); err != nil {
		report(opts, job, txHash, Invalid, "script execution: "+err.Error())
		return
	}

	report(opts, job, txHash, Valid, "")
}

func report(opts VerifyOptions, job jointInput, txHash chainhash.Hash, verdict Verdict, reason string) {
	if opts.OnResult == nil {
		return
	}
	opts.OnResult(Divergence{
		Height:   job.height,
		TxIndex:  job.txIdx,
		TxHash:   txHash,
		InputIdx: job.inputIdx,
		Verdict:  verdict,
		Reason:   reason,
	})
}
