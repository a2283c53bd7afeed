// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/btcdecoded/blvm/chainhash"
	"github.com/btcdecoded/blvm/wire"
)

func txWithLockTime(lockTime uint32) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.TxIn = []*wire.TxIn{{PreviousOutPoint: wire.OutPoint{Hash: chainhash.Hash{0x01}}}}
	tx.TxOut = []*wire.TxOut{{Value: 1, PkScript: []byte{0x51}}}
	tx.LockTime = lockTime
	return tx
}

// TestCalcMerkleRootSingleTx checks invariant 4 for the degenerate
// one-transaction case: the merkle root of a single-transaction block is
// that transaction's own txid.
func TestCalcMerkleRootSingleTx(t *testing.T) {
	tx := txWithLockTime(0)
	root := CalcMerkleRoot([]*wire.MsgTx{tx}, false)
	if root != tx.TxHash() {
		t.Errorf("CalcMerkleRoot: single-tx root %s != txid %s", root, tx.TxHash())
	}
}

// TestCalcMerkleRootOddCount checks the duplicated-last-hash rule spec.md §3
// requires for an odd transaction count.
func TestCalcMerkleRootOddCount(t *testing.T) {
	tx1 := txWithLockTime(1)
	tx2 := txWithLockTime(2)
	tx3 := txWithLockTime(3)

	threeTxRoot := CalcMerkleRoot([]*wire.MsgTx{tx1, tx2, tx3}, false)
	fourTxRoot := CalcMerkleRoot([]*wire.MsgTx{tx1, tx2, tx3, tx3}, false)

	if threeTxRoot != fourTxRoot {
		t.Error("CalcMerkleRoot: duplicating the last transaction changed the root")
	}
}

func TestCalcMerkleRootDeterministic(t *testing.T) {
	tx1 := txWithLockTime(1)
	tx2 := txWithLockTime(2)
	first := CalcMerkleRoot([]*wire.MsgTx{tx1, tx2}, false)
	second := CalcMerkleRoot([]*wire.MsgTx{tx1, tx2}, false)
	if first != second {
		t.Error("CalcMerkleRoot: not deterministic across repeated calls")
	}
}

func TestExtractWitnessCommitmentAbsent(t *testing.T) {
	cb := wire.NewMsgTx(1)
	cb.TxIn = []*wire.TxIn{{PreviousOutPoint: wire.OutPoint{Index: wire.MaxTxInSequenceNum}}}
	cb.TxOut = []*wire.TxOut{{Value: 5000000000, PkScript: []byte{0x51}}}

	if _, found := ExtractWitnessCommitment(cb); found {
		t.Error("ExtractWitnessCommitment: false positive on a coinbase with no commitment output")
	}
}

func TestExtractWitnessCommitmentPresent(t *testing.T) {
	cb := wire.NewMsgTx(1)
	cb.TxIn = []*wire.TxIn{{PreviousOutPoint: wire.OutPoint{Index: wire.MaxTxInSequenceNum}}}

	commitment := make([]byte, CoinbaseWitnessDataLen)
	for i := range commitment {
		commitment[i] = byte(i)
	}
	pkScript := append(append([]byte{}, WitnessMagicBytes...), commitment...)
	cb.TxOut = []*wire.TxOut{
		{Value: 5000000000, PkScript: []byte{0x51}},
		{Value: 0, PkScript: pkScript},
	}

	got, found := ExtractWitnessCommitment(cb)
	if !found {
		t.Fatal("ExtractWitnessCommitment: commitment output not found")
	}
	if len(got) != CoinbaseWitnessDataLen {
		t.Errorf("ExtractWitnessCommitment: got %d bytes, want %d", len(got), CoinbaseWitnessDataLen)
	}
}
