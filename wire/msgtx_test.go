// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"github.com/btcdecoded/blvm/chainhash"
	"github.com/davecgh/go-spew/spew"
)

func sampleNonWitnessTx() *MsgTx {
	tx := NewMsgTx(1)
	tx.TxIn = []*TxIn{{
		PreviousOutPoint: OutPoint{Hash: chainhash.Hash{0x01}, Index: 0},
		SignatureScript:  []byte{0x51},
		Sequence:         MaxTxInSequenceNum,
	}}
	tx.TxOut = []*TxOut{{
		Value:    5000000000,
		PkScript: []byte{0x76, 0xa9, 0x14},
	}}
	tx.LockTime = 0
	return tx
}

func sampleWitnessTx() *MsgTx {
	tx := sampleNonWitnessTx()
	tx.TxIn[0].Witness = TxWitness{
		[]byte{0x30, 0x44, 0x02, 0x20},
		[]byte{0x02, 0x03},
	}
	return tx
}

// TestMsgTxSerializeRoundTrip checks invariant 6 from the spec's testable
// properties: deserialize(serialize(T)) == T for both encodings.
func TestMsgTxSerializeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tx   *MsgTx
	}{
		{"non-witness", sampleNonWitnessTx()},
		{"witness", sampleWitnessTx()},
	}

	for _, test := range tests {
		var buf bytes.Buffer
		if err := test.tx.Serialize(&buf); err != nil {
			t.Errorf("%s: Serialize: unexpected error: %v", test.name, err)
			continue
		}

		var got MsgTx
		if err := got.Deserialize(&buf); err != nil {
			t.Errorf("%s: Deserialize: unexpected error: %v", test.name, err)
			continue
		}

		if got.Version != test.tx.Version || got.LockTime != test.tx.LockTime {
			t.Errorf("%s: header fields mismatch: got %s, want %s",
				test.name, spew.Sdump(got), spew.Sdump(test.tx))
		}
		if len(got.TxIn) != len(test.tx.TxIn) || len(got.TxOut) != len(test.tx.TxOut) {
			t.Errorf("%s: input/output count mismatch", test.name)
			continue
		}
		if got.TxHash() != test.tx.TxHash() {
			t.Errorf("%s: txid mismatch after round trip: got %s, want %s",
				test.name, got.TxHash(), test.tx.TxHash())
		}
	}
}

// TestWitnessExcludedFromTxid checks that attaching a witness to an
// otherwise identical transaction does not change its txid, per spec §3.
func TestWitnessExcludedFromTxid(t *testing.T) {
	plain := sampleNonWitnessTx()
	witnessed := sampleWitnessTx()

	if plain.TxHash() != witnessed.TxHash() {
		t.Errorf("txid changed when witness data was attached: %s != %s",
			plain.TxHash(), witnessed.TxHash())
	}
	if plain.WitnessHash() == witnessed.WitnessHash() {
		t.Error("wtxid did not change when witness data was attached")
	}
}

func TestMsgTxHasWitness(t *testing.T) {
	if sampleNonWitnessTx().HasWitness() {
		t.Error("HasWitness: false positive on a plain transaction")
	}
	if !sampleWitnessTx().HasWitness() {
		t.Error("HasWitness: false negative on a witness transaction")
	}
}

func TestOutPointOrdering(t *testing.T) {
	low := OutPoint{Hash: chainhash.Hash{0x01}, Index: 5}
	high := OutPoint{Hash: chainhash.Hash{0x02}, Index: 0}
	if !low.Less(high) {
		t.Error("Less: lexicographic hash comparison failed")
	}

	sameHash1 := OutPoint{Hash: chainhash.Hash{0x01}, Index: 0}
	sameHash2 := OutPoint{Hash: chainhash.Hash{0x01}, Index: 1}
	if !sameHash1.Less(sameHash2) {
		t.Error("Less: numeric index comparison failed for equal hashes")
	}
}

func TestOutPointIsNull(t *testing.T) {
	var null OutPoint
	null.Index = MaxTxInSequenceNum
	if !null.IsNull() {
		t.Error("IsNull: coinbase prevout not recognized as null")
	}

	nonNull := OutPoint{Hash: chainhash.Hash{0x01}, Index: MaxTxInSequenceNum}
	if nonNull.IsNull() {
		t.Error("IsNull: non-zero hash incorrectly reported as null")
	}
}

func TestMsgTxIsCoinBase(t *testing.T) {
	cb := NewMsgTx(1)
	cb.TxIn = []*TxIn{{
		PreviousOutPoint: OutPoint{Index: MaxTxInSequenceNum},
		SignatureScript:  []byte{0x03, 0x4e, 0x04, 0x07},
		Sequence:         MaxTxInSequenceNum,
	}}
	cb.TxOut = []*TxOut{{Value: 5000000000, PkScript: []byte{0x51}}}
	if !cb.IsCoinBase() {
		t.Error("IsCoinBase: well-formed coinbase not recognized")
	}

	if sampleNonWitnessTx().IsCoinBase() {
		t.Error("IsCoinBase: ordinary transaction misclassified as coinbase")
	}
}
