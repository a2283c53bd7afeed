// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package utxo

import (
	"testing"

	"github.com/btcdecoded/blvm/chainhash"
	"github.com/btcdecoded/blvm/wire"
)

func coinbaseTx(value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.TxIn = []*wire.TxIn{{
		PreviousOutPoint: wire.OutPoint{Index: wire.MaxTxInSequenceNum},
		SignatureScript:  []byte{0x01, 0x01},
	}}
	tx.TxOut = []*wire.TxOut{{Value: value, PkScript: []byte{0x51}}}
	return tx
}

func spendTx(prev wire.OutPoint, value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.TxIn = []*wire.TxIn{{PreviousOutPoint: prev, SignatureScript: []byte{0x51}}}
	tx.TxOut = []*wire.TxOut{{Value: value, PkScript: []byte{0x51}}}
	return tx
}

// TestConnectCreatesOutputs checks invariant 1 from the spec's testable
// properties: connecting a block's transactions creates its new outputs.
func TestConnectCreatesOutputs(t *testing.T) {
	set := New()
	cb := coinbaseTx(5000000000)
	set = set.Connect(cb, 0)

	outpoint := wire.OutPoint{Hash: cb.TxHash(), Index: 0}
	entry, ok := set.Get(outpoint)
	if !ok {
		t.Fatal("Get: coinbase output not found after Connect")
	}
	if entry.Amount != 5000000000 || !entry.IsCoinBase || entry.Height != 0 {
		t.Errorf("Get: wrong entry fields: %+v", entry)
	}
	if set.Len() != 1 {
		t.Errorf("Len: got %d, want 1", set.Len())
	}
}

// TestConnectSpendsInputs checks that a non-coinbase transaction's inputs
// disappear from the set once connected.
func TestConnectSpendsInputs(t *testing.T) {
	set := New()
	cb := coinbaseTx(5000000000)
	set = set.Connect(cb, 0)

	prev := wire.OutPoint{Hash: cb.TxHash(), Index: 0}
	spend := spendTx(prev, 4999990000)
	set = set.Connect(spend, 1)

	if _, ok := set.Get(prev); ok {
		t.Error("Get: spent output still present after Connect")
	}
	newOutpoint := wire.OutPoint{Hash: spend.TxHash(), Index: 0}
	if _, ok := set.Get(newOutpoint); !ok {
		t.Error("Get: new output missing after Connect")
	}
}

// TestDisconnectReversesConnect checks invariant 2: disconnect(connect(block,
// utxo)) == utxo.
func TestDisconnectReversesConnect(t *testing.T) {
	base := New()
	cb := coinbaseTx(5000000000)
	afterCoinbase := base.Connect(cb, 0)

	prev := wire.OutPoint{Hash: cb.TxHash(), Index: 0}
	prevEntry, _ := afterCoinbase.Get(prev)

	spend := spendTx(prev, 4999990000)
	afterSpend := afterCoinbase.Connect(spend, 1)

	restored := afterSpend.Disconnect(spend, map[wire.OutPoint]*Entry{prev: prevEntry})

	if _, ok := restored.Get(wire.OutPoint{Hash: spend.TxHash(), Index: 0}); ok {
		t.Error("Disconnect: spend's output still present")
	}
	entry, ok := restored.Get(prev)
	if !ok {
		t.Fatal("Disconnect: spent input not restored")
	}
	if entry.Amount != prevEntry.Amount {
		t.Errorf("Disconnect: restored entry mismatch: got %+v, want %+v", entry, prevEntry)
	}
	if restored.Len() != afterCoinbase.Len() {
		t.Errorf("Disconnect: Len mismatch: got %d, want %d", restored.Len(), afterCoinbase.Len())
	}
}

// TestSnapshotIsolation checks that an older Snapshot is unaffected by
// generations built on top of it after it was taken.
func TestSnapshotIsolation(t *testing.T) {
	base := New()
	cb := coinbaseTx(5000000000)
	gen1 := base.Connect(cb, 0)
	snap := gen1.Snapshot()

	prev := wire.OutPoint{Hash: cb.TxHash(), Index: 0}
	spend := spendTx(prev, 4999990000)
	gen1.Connect(spend, 1)

	if _, ok := snap.Get(prev); !ok {
		t.Error("Snapshot: later Connect mutated an earlier snapshot's view")
	}
}

func TestFromEntriesAndForEach(t *testing.T) {
	outpoint := wire.OutPoint{Hash: chainhash.Hash{0x01}, Index: 0}
	entries := map[wire.OutPoint]*Entry{
		outpoint: {Amount: 100, PkScript: []byte{0x51}, Height: 10},
	}
	set := FromEntries(entries)

	got, ok := set.Get(outpoint)
	if !ok || got.Amount != 100 {
		t.Fatalf("Get: wrong entry after FromEntries: %+v, ok=%v", got, ok)
	}

	count := 0
	set.ForEach(func(wire.OutPoint, *Entry) bool {
		count++
		return true
	})
	if count != 1 {
		t.Errorf("ForEach: visited %d entries, want 1", count)
	}
}

func TestOverlayFlattensPastMaxDepth(t *testing.T) {
	set := New()
	var firstOutpoint wire.OutPoint
	for i := 0; i < maxOverlayDepth+10; i++ {
		cb := coinbaseTx(int64(i + 1))
		if i == 0 {
			firstOutpoint = wire.OutPoint{Hash: cb.TxHash(), Index: 0}
		}
		set = set.Connect(cb, int32(i))
	}

	if set.depth > maxOverlayDepth {
		t.Errorf("depth %d exceeds maxOverlayDepth %d after many generations", set.depth, maxOverlayDepth)
	}
	if _, ok := set.Get(firstOutpoint); !ok {
		t.Error("Get: entry from the oldest generation lost across a flatten")
	}
}
