// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package compare

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcdecoded/blvm/chainhash"
)

func TestLedgerAppendWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	ledger, err := OpenLedger(path)
	if err != nil {
		t.Fatalf("OpenLedger: unexpected error: %v", err)
	}

	entries := []Entry{
		{Status: StatusInvalid, Height: 100, TxHash: chainhash.Hash{0x01}, InputIdx: 2, Reason: "bad signature"},
		{Status: StatusTipMismatch, Height: 101, Reason: "tip hash mismatch"},
	}
	for _, e := range entries {
		if err := ledger.Append(e); err != nil {
			t.Fatalf("Append: unexpected error: %v", err)
		}
	}
	if err := ledger.Close(); err != nil {
		t.Fatalf("Close: unexpected error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening ledger file: %v", err)
	}
	defer f.Close()

	var got []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("unmarshaling ledger line: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != len(entries) {
		t.Fatalf("ledger: got %d entries, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, got[i], entries[i])
		}
	}
}
