// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/btcdecoded/blvm/chainhash"
	"github.com/btcdecoded/blvm/wire"
	"github.com/klauspost/compress/zstd"
)

// RebuildIndex rediscovers every chunk file in dir, decompresses each once,
// and rebuilds the height and hash sidecar entries in index purely from
// the blocks found, by chaining each block's previous-block hash back to
// its parent. It is idempotent: re-running it against an unchanged chunk
// directory reproduces the same index.
//
// Block 1 is resolved by its known hash (genesisChild), never by "any
// block whose prev_hash equals genesisHash" — raw blockchain files from a
// reference node can contain orphaned blocks that share that property
// without being on the main chain.
func RebuildIndex(dir string, index *Index, genesisHash, genesisChildHash chainhash.Hash) error {
	chunkIDs, err := discoverChunkIDs(dir)
	if err != nil {
		return err
	}
	log.Infof("rebuilding archive index from %d chunk files in %s", len(chunkIDs), dir)

	type located struct {
		header   wire.BlockHeader
		hash     chainhash.Hash
		location Location
		size     uint32
	}

	byHash := make(map[chainhash.Hash]located)
	childrenOf := make(map[chainhash.Hash][]chainhash.Hash)

	for _, id := range chunkIDs {
		if err := scanChunk(dir, id, func(offset uint64, raw []byte) error {
			var header wire.BlockHeader
			if err := header.Deserialize(bytes.NewReader(raw)); err != nil {
				return fmt.Errorf("chunk %d offset %d: decoding block header: %w", id, offset, err)
			}
			hash := header.BlockHash()
			byHash[hash] = located{
				header:   header,
				hash:     hash,
				location: Location{ChunkID: id, Offset: offset},
				size:     uint32(len(raw)),
			}
			childrenOf[header.PrevBlock] = append(childrenOf[header.PrevBlock], hash)
			return nil
		}); err != nil {
			return err
		}
	}

	// Walk the chain forward from genesis, resolving block 1 by its known
	// hash among genesis's candidate children rather than assuming there
	// is exactly one.
	height := int32(0)
	current, ok := byHash[genesisHash]
	if !ok {
		return fmt.Errorf("genesis block %s not found in any chunk", genesisHash)
	}
	if err := index.Put(height, IndexEntry{Location: current.location, Hash: current.hash}); err != nil {
		return err
	}

	currentHash := genesisHash
	for height == 0 {
		// Resolve block 1 specifically by its known hash among whatever
		// candidates share prev_hash == genesis.
		candidates := childrenOf[currentHash]
		found := false
		for _, candidate := range candidates {
			if candidate == genesisChildHash {
				currentHash = candidate
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("block 1 (%s) not found among genesis's %d candidate children", genesisChildHash, len(candidates))
		}
		height = 1
	}

	for {
		loc := byHash[currentHash]
		if err := index.Put(height, IndexEntry{Location: loc.location, Hash: currentHash}); err != nil {
			return err
		}

		candidates := childrenOf[currentHash]
		if len(candidates) == 0 {
			break
		}
		// Past block 1 the raw data is assumed free of competing forks at
		// the heights this archive covers; take the sole candidate, or
		// the first in hash order if more than one somehow survived
		// (surfaced to the caller via log rather than silently picked).
		next := candidates[0]
		if len(candidates) > 1 {
			sort.Slice(candidates, func(i, j int) bool {
				return bytes.Compare(candidates[i][:], candidates[j][:]) < 0
			})
			next = candidates[0]
			log.Warnf("height %d has %d candidate successors; picking %s by hash order",
				height, len(candidates), next)
		}
		currentHash = next
		height++
	}

	return nil
}

// scanChunk decompresses chunk id and invokes fn with the byte offset and
// raw bytes of each length-prefixed block it contains.
func scanChunk(dir string, id uint32, fn func(offset uint64, raw []byte) error) error {
	path := filepath.Join(dir, chunkFileName(id))
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening chunk %d: %w", id, err)
	}
	defer f.Close()

	decoder, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("initializing zstd decoder for chunk %d: %w", id, err)
	}
	defer decoder.Close()

	data, err := io.ReadAll(decoder)
	if err != nil {
		return fmt.Errorf("decompressing chunk %d: %w", id, err)
	}

	var offset uint64
	for offset+4 <= uint64(len(data)) {
		length := binary.LittleEndian.Uint32(data[offset : offset+4])
		start := offset + 4
		end := start + uint64(length)
		if end > uint64(len(data)) {
			return fmt.Errorf("chunk %d: block at offset %d claims length %d past end of chunk", id, offset, length)
		}
		if err := fn(offset, data[start:end]); err != nil {
			return err
		}
		offset = end
	}
	return nil
}

// discoverChunkIDs lists every chunk_<n>.bin.zst file present in dir,
// sorted by id ascending.
func discoverChunkIDs(dir string) ([]uint32, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading archive directory %s: %w", dir, err)
	}

	var ids []uint32
	for _, entry := range entries {
		var id uint32
		if _, err := fmt.Sscanf(entry.Name(), "chunk_%d.bin.zst", &id); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
