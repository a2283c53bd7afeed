// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package archive implements the chunked, zstd-compressed block archive
// reader: a directory of sequentially numbered chunk files, each
// a concatenation of length-prefixed serialized blocks, plus a sidecar
// index mapping height and hash to a chunk location. The archive is
// read-only from this package's point of view; a separate, out-of-scope
// ingest component is responsible for producing the chunk files in
// the first place.
package archive

import (
	"fmt"

	"github.com/btcdecoded/blvm/chainhash"
	"github.com/decred/slog"
)

// log is the package-level logger. Disabled by default.
var log = slog.Disabled

// UseLogger sets the package-wide logger used by this package. By default
// the log is disabled since it has no reasonable default.
func UseLogger(logger slog.Logger) {
	log = logger
}

// MissingChunkID is the sentinel chunk id recorded for a height that is
// known to be absent from the archive.
const MissingChunkID uint32 = 0xffffffff

// Location pins a single block within the chunked archive: which chunk
// file it lives in, and its byte offset within that chunk once
// decompressed.
type Location struct {
	ChunkID uint32
	Offset  uint64
}

// IndexEntry is the per-height record persisted by the sidecar index.
type IndexEntry struct {
	Location Location
	Hash     chainhash.Hash
	Missing  bool
}

// ErrMissingHeight is returned by a lookup against a height index marked
// missing; the caller asked for a height the archive is known not to have
// rather than one that simply hasn't been indexed yet.
type ErrMissingHeight struct {
	Height int32
}

func (e *ErrMissingHeight) Error() string {
	return fmt.Sprintf("block height %d is recorded as missing from the archive", e.Height)
}

// ErrNotIndexed is returned by a lookup against a height or hash this
// index has no record of at all.
type ErrNotIndexed struct {
	Height int32
	Hash   *chainhash.Hash
}

func (e *ErrNotIndexed) Error() string {
	if e.Hash != nil {
		return fmt.Sprintf("block hash %s is not present in the archive index", e.Hash)
	}
	return fmt.Sprintf("block height %d is not present in the archive index", e.Height)
}
