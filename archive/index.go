// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/btcdecoded/blvm/chainhash"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// heightKeyPrefix and hashKeyPrefix separate the two sidecar mappings
// within a single leveldb database so a height-ordered scan (used by
// HighestIndexedHeight) never has to skip over hash-keyed rows.
const (
	heightKeyPrefix = 'h'
	hashKeyPrefix   = 'x'
)

// Index is the persistent height→location and hash→location sidecar the
// archive reader consults to locate a block without scanning chunk files
//. It is backed by goleveldb, the same embedded store the teacher's
// database module wraps.
type Index struct {
	db *leveldb.DB
}

// OpenIndex opens (creating if necessary) the sidecar index at path.
func OpenIndex(path string) (*Index, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening archive index at %s: %w", path, err)
	}
	return &Index{db: db}, nil
}

// Close releases the index's underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func heightKey(height int32) []byte {
	key := make([]byte, 5)
	key[0] = heightKeyPrefix
	binary.BigEndian.PutUint32(key[1:], uint32(height))
	return key
}

func hashKey(hash chainhash.Hash) []byte {
	key := make([]byte, 1+chainhash.HashSize)
	key[0] = hashKeyPrefix
	copy(key[1:], hash[:])
	return key
}

func encodeHeightEntry(entry IndexEntry) []byte {
	buf := make([]byte, 4+8+chainhash.HashSize+1)
	binary.LittleEndian.PutUint32(buf[0:4], entry.Location.ChunkID)
	binary.LittleEndian.PutUint64(buf[4:12], entry.Location.Offset)
	copy(buf[12:12+chainhash.HashSize], entry.Hash[:])
	if entry.Missing {
		buf[12+chainhash.HashSize] = 1
	}
	return buf
}

func decodeHeightEntry(buf []byte) (IndexEntry, error) {
	if len(buf) != 4+8+chainhash.HashSize+1 {
		return IndexEntry{}, fmt.Errorf("corrupt height index record: %d bytes", len(buf))
	}
	var entry IndexEntry
	entry.Location.ChunkID = binary.LittleEndian.Uint32(buf[0:4])
	entry.Location.Offset = binary.LittleEndian.Uint64(buf[4:12])
	copy(entry.Hash[:], buf[12:12+chainhash.HashSize])
	entry.Missing = buf[12+chainhash.HashSize] != 0
	return entry, nil
}

func encodeLocation(loc Location) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], loc.ChunkID)
	binary.LittleEndian.PutUint64(buf[4:12], loc.Offset)
	return buf
}

func decodeLocation(buf []byte) (Location, error) {
	if len(buf) != 12 {
		return Location{}, fmt.Errorf("corrupt hash index record: %d bytes", len(buf))
	}
	return Location{
		ChunkID: binary.LittleEndian.Uint32(buf[0:4]),
		Offset:  binary.LittleEndian.Uint64(buf[4:12]),
	}, nil
}

// Put records entry at height, and (unless it is a missing-entry
// placeholder) its hash→location mapping as well.
func (idx *Index) Put(height int32, entry IndexEntry) error {
	batch := new(leveldb.Batch)
	batch.Put(heightKey(height), encodeHeightEntry(entry))
	if !entry.Missing {
		batch.Put(hashKey(entry.Hash), encodeLocation(entry.Location))
	}
	return idx.db.Write(batch, nil)
}

// ByHeight returns the indexed entry at height, an ErrMissingHeight if the
// height is recorded as a known gap, or an ErrNotIndexed if nothing at all
// is recorded for it.
func (idx *Index) ByHeight(height int32) (IndexEntry, error) {
	buf, err := idx.db.Get(heightKey(height), nil)
	if err == leveldb.ErrNotFound {
		return IndexEntry{}, &ErrNotIndexed{Height: height}
	}
	if err != nil {
		return IndexEntry{}, fmt.Errorf("reading archive index at height %d: %w", height, err)
	}
	entry, err := decodeHeightEntry(buf)
	if err != nil {
		return IndexEntry{}, err
	}
	if entry.Missing {
		return entry, &ErrMissingHeight{Height: height}
	}
	return entry, nil
}

// ByHash returns the location of the block with the given hash.
func (idx *Index) ByHash(hash chainhash.Hash) (Location, error) {
	buf, err := idx.db.Get(hashKey(hash), nil)
	if err == leveldb.ErrNotFound {
		h := hash
		return Location{}, &ErrNotIndexed{Hash: &h}
	}
	if err != nil {
		return Location{}, fmt.Errorf("reading archive index for hash %s: %w", hash, err)
	}
	return decodeLocation(buf)
}

// HighestIndexedHeight returns the greatest height this index has any
// record for (missing or present), and false if the index is empty.
func (idx *Index) HighestIndexedHeight() (int32, bool) {
	iter := idx.db.NewIterator(util.BytesPrefix([]byte{heightKeyPrefix}), nil)
	defer iter.Release()
	if !iter.Last() {
		return 0, false
	}
	height := int32(binary.BigEndian.Uint32(iter.Key()[1:]))
	return height, true
}

// VerifyContiguous walks the height index from zero through the highest
// indexed height and reports the first height with no record at all,
// distinguishing that from a height explicitly marked missing.
func (idx *Index) VerifyContiguous() error {
	highest, ok := idx.HighestIndexedHeight()
	if !ok {
		return nil
	}
	for h := int32(0); h <= highest; h++ {
		if _, err := idx.db.Get(heightKey(h), nil); err == leveldb.ErrNotFound {
			return fmt.Errorf("archive index has a gap at height %d with no missing-entry recorded", h)
		} else if err != nil {
			return fmt.Errorf("reading archive index at height %d: %w", h, err)
		}
	}
	return nil
}
