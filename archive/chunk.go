// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package archive

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/decred/dcrd/lru"
	"github.com/klauspost/compress/zstd"
)

// chunkFileName returns the on-disk name of the chunk with the given id
//.
func chunkFileName(id uint32) string {
	return fmt.Sprintf("chunk_%d.bin.zst", id)
}

// Reader streams raw, serialized blocks out of a directory of zstd
// chunk files using a sidecar Index to locate them, decompressing at most
// one chunk at a time. Decompressed chunks are kept in a bounded
// LRU cache so a caller walking many nearby heights in the same chunk
// doesn't pay to re-inflate it on every lookup.
type Reader struct {
	dir   string
	index *Index
	cache *lru.Map[uint32, []byte]
}

// NewReader opens a Reader over the chunk files in dir, consulting index
// to locate blocks by height or hash. cacheSize bounds how many
// decompressed chunks are held in memory at once.
func NewReader(dir string, index *Index, cacheSize uint) *Reader {
	return &Reader{
		dir:   dir,
		index: index,
		cache: lru.NewMap[uint32, []byte](cacheSize),
	}
}

// loadChunk returns the fully decompressed contents of chunk id, serving
// from cache when possible.
func (r *Reader) loadChunk(id uint32) ([]byte, error) {
	if data, ok := r.cache.Get(id); ok {
		return data, nil
	}

	path := filepath.Join(r.dir, chunkFileName(id))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive chunk %d: %w", id, err)
	}
	defer f.Close()

	decoder, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("initializing zstd decoder for chunk %d: %w", id, err)
	}
	defer decoder.Close()

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompressing archive chunk %d: %w", id, err)
	}

	r.cache.Put(id, data)
	return data, nil
}

// blockAt extracts the length-prefixed block beginning at offset within a
// decompressed chunk's bytes.
func blockAt(chunk []byte, offset uint64) ([]byte, error) {
	if offset+4 > uint64(len(chunk)) {
		return nil, fmt.Errorf("block offset %d is past the end of its chunk", offset)
	}
	length := binary.LittleEndian.Uint32(chunk[offset : offset+4])
	start := offset + 4
	end := start + uint64(length)
	if end > uint64(len(chunk)) {
		return nil, fmt.Errorf("block at offset %d claims length %d past the end of its chunk", offset, length)
	}
	return chunk[start:end], nil
}

// BlockBytes returns the raw serialized block at height.
func (r *Reader) BlockBytes(height int32) ([]byte, error) {
	entry, err := r.index.ByHeight(height)
	if err != nil {
		return nil, err
	}
	chunk, err := r.loadChunk(entry.Location.ChunkID)
	if err != nil {
		return nil, err
	}
	return blockAt(chunk, entry.Location.Offset)
}

// Record is one yield of Iterator: either a present block's raw bytes and
// known hash, or a recorded gap at Height.
type Record struct {
	Height  int32
	Hash    [32]byte
	Raw     []byte
	Missing bool
}

// Iterator streams blocks from StartHeight through EndHeight inclusive in
// height order, decompressing each referenced chunk at most once as it
// advances (the chunk cache on the underlying Reader absorbs repeats
// within a run of heights sharing a chunk).
type Iterator struct {
	r          *Reader
	height     int32
	endHeight  int32
}

// NewIterator returns an Iterator over [startHeight, endHeight].
func (r *Reader) NewIterator(startHeight, endHeight int32) *Iterator {
	return &Iterator{r: r, height: startHeight, endHeight: endHeight}
}

// Next advances the iterator and returns the next Record, or (nil, nil)
// once the range is exhausted. A missing height yields a Record with
// Missing set rather than being silently skipped.
func (it *Iterator) Next() (*Record, error) {
	if it.height > it.endHeight {
		return nil, nil
	}
	height := it.height
	it.height++

	entry, err := it.r.index.ByHeight(height)
	if err != nil {
		var missingErr *ErrMissingHeight
		if asMissingHeight(err, &missingErr) {
			return &Record{Height: height, Hash: entry.Hash, Missing: true}, nil
		}
		return nil, err
	}

	chunk, err := it.r.loadChunk(entry.Location.ChunkID)
	if err != nil {
		return nil, err
	}
	raw, err := blockAt(chunk, entry.Location.Offset)
	if err != nil {
		return nil, err
	}
	return &Record{Height: height, Hash: entry.Hash, Raw: raw}, nil
}

func asMissingHeight(err error, target **ErrMissingHeight) bool {
	if me, ok := err.(*ErrMissingHeight); ok {
		*target = me
		return true
	}
	return false
}

// BlockSourceAdapter wraps an Iterator to satisfy the minimal
// (height, raw, err) streaming shape the sortmerge and driver packages
// consume their block stream as, without either package importing
// archive's own Record type.
type BlockSourceAdapter struct {
	it *Iterator
}

// NewBlockSourceAdapter wraps it for use as a sortmerge.BlockSource or
// equivalent.
func NewBlockSourceAdapter(it *Iterator) *BlockSourceAdapter {
	return &BlockSourceAdapter{it: it}
}

// Next returns io.EOF once the range is exhausted, and surfaces a
// recorded gap as a non-nil, non-EOF error rather than silently skipping
// it, so archive gaps never pass unnoticed.
func (a *BlockSourceAdapter) Next() (int32, []byte, error) {
	rec, err := a.it.Next()
	if err != nil {
		return 0, nil, err
	}
	if rec == nil {
		return 0, nil, io.EOF
	}
	if rec.Missing {
		return rec.Height, nil, &ErrMissingHeight{Height: rec.Height}
	}
	return rec.Height, rec.Raw, nil
}
