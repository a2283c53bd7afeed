// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"testing"

	"github.com/btcdecoded/blvm/txscript"
)

// TestActiveScriptFlagsMainNet walks the mainnet BIP activation boundaries
// from and checks that ActiveScriptFlags flips each flag on at
// exactly its documented height, never a block early or late.
func TestActiveScriptFlagsMainNet(t *testing.T) {
	params := MainNetParams()

	tests := []struct {
		name   string
		height int32
		flag   txscript.ScriptFlags
		want   bool
	}{
		{"BIP16 just before", 173804, txscript.ScriptBip16, false},
		{"BIP16 at activation", 173805, txscript.ScriptBip16, true},
		{"BIP66 just before", 363724, txscript.ScriptVerifyDERSignatures, false},
		{"BIP66 at activation", 363725, txscript.ScriptVerifyDERSignatures, true},
		{"BIP65 just before", 388380, txscript.ScriptVerifyCheckLockTimeVerify, false},
		{"BIP65 at activation", 388381, txscript.ScriptVerifyCheckLockTimeVerify, true},
		{"BIP112 just before", 419327, txscript.ScriptVerifyCheckSequenceVerify, false},
		{"BIP112 at activation", 419328, txscript.ScriptVerifyCheckSequenceVerify, true},
		{"segwit just before", 481823, txscript.ScriptVerifyWitness, false},
		{"segwit at activation", 481824, txscript.ScriptVerifyWitness, true},
		{"segwit activation also sets NULLDUMMY", 481824, txscript.ScriptVerifyNullDummy, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := params.ActiveScriptFlags(test.height)&test.flag != 0
			if got != test.want {
				t.Fatalf("height %d: flag present = %v, want %v", test.height, got, test.want)
			}
		})
	}
}

// TestActiveScriptFlagsRegNet checks that every BIP gate is active from
// genesis on the regression test network.
func TestActiveScriptFlagsRegNet(t *testing.T) {
	params := RegNetParams()
	flags := params.ActiveScriptFlags(0)
	want := txscript.ScriptBip16 | txscript.ScriptVerifyDERSignatures |
		txscript.ScriptVerifyStrictEncoding | txscript.ScriptVerifyCheckLockTimeVerify |
		txscript.ScriptVerifyCheckSequenceVerify | txscript.ScriptVerifyWitness |
		txscript.ScriptVerifyNullDummy | txscript.ScriptVerifyDiscourageUpgradableWitnessProgram |
		txscript.ScriptVerifyWitnessPubKeyType
	if flags&want != want {
		t.Fatalf("expected all gates active at height 0 on regtest, got %v", flags)
	}
}

// TestIsBIP34Active checks the height-in-coinbase gate independently of
// ActiveScriptFlags, since BIP34 isn't a txscript.ScriptFlags bit at all —
// it is enforced by the block validator reading the coinbase script.
func TestIsBIP34Active(t *testing.T) {
	params := MainNetParams()
	if params.IsBIP34Active(227930) {
		t.Fatal("expected BIP34 inactive one block before activation")
	}
	if !params.IsBIP34Active(227931) {
		t.Fatal("expected BIP34 active at activation height")
	}
}

// TestBIP0030Exceptions checks mainnet's two documented duplicate-coinbase
// exceptions are present and that no other network carries them.
func TestBIP0030Exceptions(t *testing.T) {
	main := MainNetParams()
	if len(main.BIP0030Exceptions) != 2 {
		t.Fatalf("expected 2 BIP30 exceptions on mainnet, got %d", len(main.BIP0030Exceptions))
	}
	for _, height := range []int32{91842, 91880} {
		if _, ok := main.BIP0030Exceptions[height]; !ok {
			t.Fatalf("missing BIP30 exception at height %d", height)
		}
	}

	test3 := TestNet3Params()
	if len(test3.BIP0030Exceptions) != 0 {
		t.Fatalf("testnet3 should carry no BIP30 exceptions, got %d", len(test3.BIP0030Exceptions))
	}
}
