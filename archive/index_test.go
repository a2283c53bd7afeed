// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package archive

import (
	"errors"
	"testing"

	"github.com/btcdecoded/blvm/chainhash"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenIndex(t.TempDir())
	if err != nil {
		t.Fatalf("OpenIndex: unexpected error: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexPutByHeightByHash(t *testing.T) {
	idx := openTestIndex(t)

	hash := chainhash.Hash{0x01, 0x02}
	entry := IndexEntry{
		Location: Location{ChunkID: 3, Offset: 128},
		Hash:     hash,
	}
	if err := idx.Put(5, entry); err != nil {
		t.Fatalf("Put: unexpected error: %v", err)
	}

	got, err := idx.ByHeight(5)
	if err != nil {
		t.Fatalf("ByHeight: unexpected error: %v", err)
	}
	if got.Location != entry.Location || got.Hash != entry.Hash {
		t.Errorf("ByHeight: got %+v, want %+v", got, entry)
	}

	loc, err := idx.ByHash(hash)
	if err != nil {
		t.Fatalf("ByHash: unexpected error: %v", err)
	}
	if loc != entry.Location {
		t.Errorf("ByHash: got %+v, want %+v", loc, entry.Location)
	}
}

func TestIndexMissingHeight(t *testing.T) {
	idx := openTestIndex(t)

	if err := idx.Put(7, IndexEntry{Missing: true}); err != nil {
		t.Fatalf("Put: unexpected error: %v", err)
	}

	_, err := idx.ByHeight(7)
	var missingErr *ErrMissingHeight
	if !errors.As(err, &missingErr) {
		t.Fatalf("ByHeight: got %v, want *ErrMissingHeight", err)
	}
	if missingErr.Height != 7 {
		t.Errorf("ErrMissingHeight.Height: got %d, want 7", missingErr.Height)
	}
}

func TestIndexNotIndexed(t *testing.T) {
	idx := openTestIndex(t)

	_, err := idx.ByHeight(42)
	var notIndexedErr *ErrNotIndexed
	if !errors.As(err, &notIndexedErr) {
		t.Fatalf("ByHeight: got %v, want *ErrNotIndexed", err)
	}

	_, err = idx.ByHash(chainhash.Hash{0xff})
	if !errors.As(err, &notIndexedErr) {
		t.Fatalf("ByHash: got %v, want *ErrNotIndexed", err)
	}
}

func TestIndexHighestIndexedHeight(t *testing.T) {
	idx := openTestIndex(t)

	if _, ok := idx.HighestIndexedHeight(); ok {
		t.Error("HighestIndexedHeight: reported a height for an empty index")
	}

	for _, h := range []int32{0, 1, 2, 5} {
		if err := idx.Put(h, IndexEntry{Hash: chainhash.Hash{byte(h)}}); err != nil {
			t.Fatalf("Put(%d): unexpected error: %v", h, err)
		}
	}

	highest, ok := idx.HighestIndexedHeight()
	if !ok || highest != 5 {
		t.Errorf("HighestIndexedHeight: got (%d, %v), want (5, true)", highest, ok)
	}
}

// TestVerifyContiguousSurfacesGap checks spec.md §4.7: gaps must be
// explicitly recorded as missing entries, and a height with no record at
// all (not even a missing marker) is a reportable error.
func TestVerifyContiguousSurfacesGap(t *testing.T) {
	idx := openTestIndex(t)

	for _, h := range []int32{0, 1, 3} {
		if err := idx.Put(h, IndexEntry{Hash: chainhash.Hash{byte(h)}}); err != nil {
			t.Fatalf("Put(%d): unexpected error: %v", h, err)
		}
	}

	if err := idx.VerifyContiguous(); err == nil {
		t.Fatal("VerifyContiguous: expected an error for the gap at height 2")
	}

	if err := idx.Put(2, IndexEntry{Missing: true}); err != nil {
		t.Fatalf("Put(2): unexpected error: %v", err)
	}
	if err := idx.VerifyContiguous(); err != nil {
		t.Errorf("VerifyContiguous: unexpected error once height 2 is marked missing: %v", err)
	}
}
