// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package driver implements the checkpoint-sharded parallel verifier
//: it partitions a height range into shards aligned on
// checkpoint boundaries, replays each shard's blocks against the UTXO
// state its checkpoint captured, and merges the per-shard results (and
// any reference-node divergences) into a single summary.
package driver

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/btcdecoded/blvm/archive"
	"github.com/btcdecoded/blvm/blockchain"
	"github.com/btcdecoded/blvm/chaincfg"
	"github.com/btcdecoded/blvm/checkpoint"
	"github.com/btcdecoded/blvm/compare"
	"github.com/btcdecoded/blvm/txscript"
	"github.com/btcdecoded/blvm/utxo"
	"github.com/btcdecoded/blvm/wire"
	"github.com/decred/slog"
	"github.com/jrick/bitset"
)

var log = slog.Disabled

// UseLogger directs package log output at logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Config describes a single checkpoint-sharded verification run.
type Config struct {
	ArchiveDir       string
	Index            *archive.Index
	CheckpointDir    string
	Params           *chaincfg.Params
	SigCache         *txscript.SigCache
	ShardHeights     int32
	Workers          int
	RefClient        *compare.Client
	Ledger           *compare.Ledger
	WriteCheckpoints bool
}

// shard describes one height range a worker replays independently.
type shard struct {
	index       int
	startHeight int32
	endHeight   int32
}

// planShards partitions [0, tipHeight] into consecutive shards of at most
// shardHeights blocks each, aligned so every shard but possibly the last
// is exactly shardHeights tall — the alignment a checkpoint at every
// shard boundary requires.
func planShards(tipHeight, shardHeights int32) []shard {
	if shardHeights < 1 {
		shardHeights = tipHeight + 1
	}
	var shards []shard
	idx := 0
	for start := int32(0); start <= tipHeight; start += shardHeights {
		end := start + shardHeights - 1
		if end > tipHeight {
			end = tipHeight
		}
		shards = append(shards, shard{index: idx, startHeight: start, endHeight: end})
		idx++
	}
	return shards
}

// Run verifies every block from height 0 through tipHeight, sharded
// across cfg.Workers concurrent workers, each owning a contiguous height
// range bounded by checkpoint boundaries. It returns once every shard has
// completed (successfully or not); a completedShards bitset tracks which
// shard indices finished so a caller inspecting a partial run (after a
// worker panic recovery, say) can tell which ranges still need retrying.
func Run(cfg Config, tipHeight int32) (completed bitset.Bytes, shardErrs []error, err error) {
	shards := planShards(tipHeight, cfg.ShardHeights)
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	completedBits := bitset.NewBytes(len(shards))
	shardErrs = make([]error, len(shards))

	jobs := make(chan shard, len(shards))
	for _, s := range shards {
		jobs <- s
	}
	close(jobs)

	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				shardErr := runShard(cfg, s)
				mu.Lock()
				shardErrs[s.index] = shardErr
				if shardErr == nil {
					completedBits.Set(s.index)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return completedBits, shardErrs, nil
}

// runShard replays a single shard's height range against a UTXO set
// loaded from the checkpoint at shard.startHeight-1 (the previous shard's
// end), or an empty set for the shard that starts at height 0. A missing
// checkpoint is an error; the shard is not replayed from genesis instead.
// It optionally writes a fresh checkpoint at shard.endHeight once it
// completes.
func runShard(cfg Config, s shard) error {
	baseSet, err := loadOrInitSet(cfg, s.startHeight)
	if err != nil {
		return fmt.Errorf("shard %d: loading base utxo set: %w", s.index, err)
	}

	reader := archive.NewReader(cfg.ArchiveDir, cfg.Index, 64)
	it := reader.NewIterator(s.startHeight, s.endHeight)

	utxoSet := baseSet
	var lastBlock *wire.MsgBlock
	var timestamps []uint32

	for {
		rec, err := it.Next()
		if err != nil {
			return fmt.Errorf("shard %d: reading block: %w", s.index, err)
		}
		if rec == nil {
			break
		}
		if rec.Missing {
			return fmt.Errorf("shard %d: height %d is missing from the archive", s.index, rec.Height)
		}

		var block wire.MsgBlock
		if err := block.Deserialize(bytes.NewReader(rec.Raw)); err != nil {
			return fmt.Errorf("shard %d: decoding block at height %d: %w", s.index, rec.Height, err)
		}

		if err := blockchain.CheckBlockSanity(&block); err != nil {
			return fmt.Errorf("shard %d: block %d failed sanity check: %w", s.index, rec.Height, err)
		}

		// timestamps is accumulated newest-first by the prepend below,
		// the order CalcMedianTimePast requires.
		medianTimePast := blockchain.CalcMedianTimePast(timestamps)
		result, err := blockchain.CheckConnectBlock(&block, rec.Height, medianTimePast, utxoSet, cfg.Params, cfg.SigCache)
		if err != nil {
			if cfg.Ledger != nil {
				cfg.Ledger.Append(compare.Entry{
					Status: compare.StatusInvalid,
					Height: rec.Height,
					Reason: err.Error(),
				})
			}
			return fmt.Errorf("shard %d: block %d failed contextual validation: %w", s.index, rec.Height, err)
		}

		utxoSet = result.NextUtxoSet
		lastBlock = &block
		timestamps = append([]uint32{block.Header.Timestamp}, timestamps...)
		if len(timestamps) > blockchain.MedianTimeBlocks {
			timestamps = timestamps[:blockchain.MedianTimeBlocks]
		}
	}

	if cfg.RefClient != nil && lastBlock != nil && cfg.Ledger != nil {
		tipHash := lastBlock.BlockHash()
		onDivergence := func(entry compare.Entry) {
			if err := cfg.Ledger.Append(entry); err != nil {
				log.Warnf("shard %d: appending tip divergence to ledger: %v", s.index, err)
			}
		}
		if err := compare.CompareTip(cfg.RefClient, s.endHeight, tipHash, onDivergence); err != nil {
			log.Warnf("shard %d: comparing tip against reference node: %v", s.index, err)
		}
	}

	if cfg.WriteCheckpoints {
		if err := checkpoint.Write(cfg.CheckpointDir, s.endHeight, utxoSet); err != nil {
			return fmt.Errorf("shard %d: writing checkpoint at height %d: %w", s.index, s.endHeight, err)
		}
	}

	return nil
}

func loadOrInitSet(cfg Config, height int32) (*utxo.Set, error) {
	if height == 0 {
		return utxo.New(), nil
	}
	set, err := checkpoint.Load(cfg.CheckpointDir, height-1)
	if err != nil {
		return nil, err
	}
	return set, nil
}
