// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btcdecoded/blvm/utxo"
	"github.com/btcdecoded/blvm/wire"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	entries := map[wire.OutPoint]*utxo.Entry{
		{Hash: [32]byte{0x01}, Index: 0}: {Amount: 5000000000, PkScript: []byte{0x51}, Height: 0, IsCoinBase: true},
		{Hash: [32]byte{0x02}, Index: 1}: {Amount: 1234, PkScript: []byte{0x76, 0xa9, 0x14}, Height: 100},
	}
	set := utxo.FromEntries(entries)

	if err := Write(dir, 100, set); err != nil {
		t.Fatalf("Write: unexpected error: %v", err)
	}

	loaded, err := Load(dir, 100)
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}

	if loaded.Len() != len(entries) {
		t.Fatalf("Load: got %d entries, want %d", loaded.Len(), len(entries))
	}
	for outpoint, want := range entries {
		got, ok := loaded.Get(outpoint)
		if !ok {
			t.Errorf("Get(%v): entry missing after round trip", outpoint)
			continue
		}
		if got.Amount != want.Amount || got.Height != want.Height || got.IsCoinBase != want.IsCoinBase {
			t.Errorf("Get(%v): got %+v, want %+v", outpoint, got, want)
		}
	}
}

func TestLoadRejectsWrongHeight(t *testing.T) {
	dir := t.TempDir()
	set := utxo.FromEntries(map[wire.OutPoint]*utxo.Entry{})
	if err := Write(dir, 5, set); err != nil {
		t.Fatalf("Write: unexpected error: %v", err)
	}

	// Rename the file under a different height's name so Load's internal
	// stored-height check (rather than a plain missing-file error) is the
	// thing that rejects it.
	if err := os.Rename(filepath.Join(dir, FileName(5)), filepath.Join(dir, FileName(6))); err != nil {
		t.Fatalf("renaming checkpoint file: %v", err)
	}

	if _, err := Load(dir, 6); err == nil {
		t.Error("Load: expected an error loading a checkpoint whose stored height doesn't match its file name")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir, 999); err == nil {
		t.Error("Load: expected an error for a nonexistent checkpoint")
	}
}

func TestFileName(t *testing.T) {
	if got, want := FileName(123), "utxo_123.bin"; got != want {
		t.Errorf("FileName(123): got %q, want %q", got, want)
	}
}
