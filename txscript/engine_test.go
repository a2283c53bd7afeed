// Copyright (c) 2013-2019 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"testing"

	"github.com/btcdecoded/blvm/chainhash"
	"github.com/btcdecoded/blvm/wire"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// buildSpendingTx returns a minimal transaction spending a single output of
// the given pkScript, with the signature script left for the caller to fill
// in.
func buildSpendingTx(pkScript []byte, amount int64) (*wire.MsgTx, *wire.OutPoint) {
	prevOut := &wire.OutPoint{Hash: chainhash.Hash{0x01}, Index: 0}

	spendTx := wire.NewMsgTx(wire.TxVersion)
	spendTx.TxIn = []*wire.TxIn{{
		PreviousOutPoint: *prevOut,
		Sequence:         wire.MaxTxInSequenceNum,
	}}
	spendTx.TxOut = []*wire.TxOut{{
		Value:    amount - 1000,
		PkScript: []byte{OP_TRUE_STUB},
	}}
	return spendTx, prevOut
}

// OP_TRUE_STUB is a placeholder single-byte script (OP_1) used as the
// recipient output in test fixtures; its contents are never executed.
const OP_TRUE_STUB = OP_1

func TestCheckSigP2PKH(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	pubKeyBytes := priv.PubKey().SerializeCompressed()
	pkHash := Hash160(pubKeyBytes)

	pkScript, err := PayToPubKeyHashScript(pkHash)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}

	const amount = int64(50000)
	spendTx, _ := buildSpendingTx(pkScript, amount)

	sigHash, err := calcSignatureHash(pkScript, SigHashAll, spendTx, 0)
	if err != nil {
		t.Fatalf("calcSignatureHash: %v", err)
	}
	sig := ecdsa.Sign(priv, sigHash[:])
	sigBytes := append(sig.Serialize(), byte(SigHashAll))

	builder := NewScriptBuilder().AddData(sigBytes).AddData(pubKeyBytes)
	sigScript, err := builder.Script()
	if err != nil {
		t.Fatalf("building sigScript: %v", err)
	}
	spendTx.TxIn[0].SignatureScript = sigScript

	vm, err := NewEngine(pkScript, spendTx, 0, StandardVerifyFlags, nil, nil, amount)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := vm.Execute(); err != nil {
		t.Fatalf("Execute: unexpected error: %v", err)
	}
}

func TestCheckSigP2PKHWrongKeyFails(t *testing.T) {
	priv, _ := secp256k1.GeneratePrivateKey()
	other, _ := secp256k1.GeneratePrivateKey()
	pkHash := Hash160(priv.PubKey().SerializeCompressed())

	pkScript, _ := PayToPubKeyHashScript(pkHash)
	const amount = int64(50000)
	spendTx, _ := buildSpendingTx(pkScript, amount)

	sigHash, _ := calcSignatureHash(pkScript, SigHashAll, spendTx, 0)
	sig := ecdsa.Sign(other, sigHash[:])
	sigBytes := append(sig.Serialize(), byte(SigHashAll))

	sigScript, _ := NewScriptBuilder().
		AddData(sigBytes).
		AddData(other.PubKey().SerializeCompressed()).
		Script()
	spendTx.TxIn[0].SignatureScript = sigScript

	vm, err := NewEngine(pkScript, spendTx, 0, StandardVerifyFlags, nil, nil, amount)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := vm.Execute(); err == nil {
		t.Fatal("Execute: expected failure for pubkey/hash mismatch")
	}
}

// TestCheckSigNullFailHardFails confirms that a non-empty but invalid
// signature left on the stack for CHECKSIG is a hard failure under
// ScriptVerifyNullFail, not merely a false pushed onto the stack. A script
// ending in CHECKSIG NOT would otherwise let a bad signature "succeed" by
// negating the pushed false into a truthy final stack value.
func TestCheckSigNullFailHardFails(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	other, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	pubKeyBytes := priv.PubKey().SerializeCompressed()

	pkScript, err := NewScriptBuilder().
		AddData(pubKeyBytes).
		AddOp(OP_CHECKSIG).
		AddOp(OP_NOT).
		Script()
	if err != nil {
		t.Fatalf("building pkScript: %v", err)
	}

	const amount = int64(50000)
	spendTx, _ := buildSpendingTx(pkScript, amount)

	sigHash, err := calcSignatureHash(pkScript, SigHashAll, spendTx, 0)
	if err != nil {
		t.Fatalf("calcSignatureHash: %v", err)
	}
	// Sign with the wrong key so verification fails while leaving a
	// non-empty signature on the stack.
	sig := ecdsa.Sign(other, sigHash[:])
	sigBytes := append(sig.Serialize(), byte(SigHashAll))

	sigScript, err := NewScriptBuilder().AddData(sigBytes).Script()
	if err != nil {
		t.Fatalf("building sigScript: %v", err)
	}
	spendTx.TxIn[0].SignatureScript = sigScript

	vm, err := NewEngine(pkScript, spendTx, 0, StandardVerifyFlags, nil, nil, amount)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := vm.Execute(); err == nil {
		t.Fatal("Execute: expected NULLFAIL to hard-fail on invalid non-empty signature, got success")
	}
}

func TestWitnessV0PubKeyHashSpend(t *testing.T) {
	priv, _ := secp256k1.GeneratePrivateKey()
	pubKeyBytes := priv.PubKey().SerializeCompressed()
	pkHash := Hash160(pubKeyBytes)

	pkScript, err := PayToWitnessPubKeyHashScript(pkHash)
	if err != nil {
		t.Fatalf("PayToWitnessPubKeyHashScript: %v", err)
	}

	const amount = int64(123456)
	spendTx, _ := buildSpendingTx(pkScript, amount)
	spendTx.TxIn[0].SignatureScript = nil

	scriptCode := payToPubKeyHashScript(pkHash)
	hashes := NewTxSigHashes(spendTx)
	sigHash, err := CalcWitnessSigHash(scriptCode, hashes, SigHashAll, spendTx, 0, amount)
	if err != nil {
		t.Fatalf("CalcWitnessSigHash: %v", err)
	}
	sig := ecdsa.Sign(priv, sigHash[:])
	sigBytes := append(sig.Serialize(), byte(SigHashAll))

	spendTx.TxIn[0].Witness = wire.TxWitness{sigBytes, pubKeyBytes}

	vm, err := NewEngine(pkScript, spendTx, 0, StandardVerifyFlags, nil, hashes, amount)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := vm.Execute(); err != nil {
		t.Fatalf("Execute: unexpected error: %v", err)
	}
}

func TestScriptBuilderMinimalPush(t *testing.T) {
	script, err := NewScriptBuilder().AddInt64(0).AddInt64(1).AddInt64(16).AddInt64(17).Script()
	if err != nil {
		t.Fatalf("Script: %v", err)
	}
	want := []byte{OP_0, OP_1, OP_16, OP_DATA_1, 17}
	if len(script) != len(want) {
		t.Fatalf("unexpected script length: got %d want %d (%x)", len(script), len(want), script)
	}
	for i := range want {
		if script[i] != want[i] {
			t.Fatalf("byte %d: got %#x want %#x", i, script[i], want[i])
		}
	}
}

func TestScriptTokenizer(t *testing.T) {
	script, _ := NewScriptBuilder().AddOp(OP_DUP).AddData([]byte("abc")).AddOp(OP_DROP).Script()

	tokenizer := MakeScriptTokenizer(script)
	var ops []byte
	for tokenizer.Next() {
		ops = append(ops, tokenizer.Opcode())
	}
	if err := tokenizer.Err(); err != nil {
		t.Fatalf("tokenizer error: %v", err)
	}
	if len(ops) != 3 || ops[0] != OP_DUP || ops[2] != OP_DROP {
		t.Fatalf("unexpected opcodes: %v", ops)
	}
}
