// Copyright (c) 2021-2023 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stdscript

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex fixture %q: %v", s, err)
	}
	return b
}

func TestExtractPubKeyHash(t *testing.T) {
	hash := bytes.Repeat([]byte{0xAB}, 20)
	script := append([]byte{opDup, opHash160, opData20}, hash...)
	script = append(script, opEqualVerify, opCheckSig)

	got := ExtractPubKeyHash(script)
	if !bytes.Equal(got, hash) {
		t.Fatalf("ExtractPubKeyHash: got %x, want %x", got, hash)
	}
	if !IsPubKeyHashScript(script) {
		t.Fatal("IsPubKeyHashScript: expected true")
	}
	if DetermineScriptType(script) != STPubKeyHash {
		t.Fatalf("DetermineScriptType: got %v, want %v", DetermineScriptType(script), STPubKeyHash)
	}
}

func TestExtractScriptHash(t *testing.T) {
	hash := bytes.Repeat([]byte{0xCD}, 20)
	script := append([]byte{opHash160, opData20}, hash...)
	script = append(script, opEqual)

	got := ExtractScriptHash(script)
	if !bytes.Equal(got, hash) {
		t.Fatalf("ExtractScriptHash: got %x, want %x", got, hash)
	}
	if DetermineScriptType(script) != STScriptHash {
		t.Fatalf("wrong script type: %v", DetermineScriptType(script))
	}
}

func TestWitnessV0Extraction(t *testing.T) {
	hash20 := bytes.Repeat([]byte{0x11}, 20)
	p2wpkh := append([]byte{op0, opData20}, hash20...)
	if !IsWitnessProgram(p2wpkh) {
		t.Fatal("expected witness program")
	}
	if got := ExtractWitnessV0PubKeyHash(p2wpkh); !bytes.Equal(got, hash20) {
		t.Fatalf("ExtractWitnessV0PubKeyHash: got %x want %x", got, hash20)
	}
	if DetermineScriptType(p2wpkh) != STWitnessV0PubKeyHash {
		t.Fatalf("wrong script type: %v", DetermineScriptType(p2wpkh))
	}

	hash32 := bytes.Repeat([]byte{0x22}, 32)
	p2wsh := append([]byte{op0, opData32}, hash32...)
	if got := ExtractWitnessV0ScriptHash(p2wsh); !bytes.Equal(got, hash32) {
		t.Fatalf("ExtractWitnessV0ScriptHash: got %x want %x", got, hash32)
	}
	if DetermineScriptType(p2wsh) != STWitnessV0ScriptHash {
		t.Fatalf("wrong script type: %v", DetermineScriptType(p2wsh))
	}
}

func TestIsNullDataScript(t *testing.T) {
	tests := []struct {
		name   string
		script []byte
		want   bool
	}{
		{"bare OP_RETURN", []byte{opReturn}, true},
		{"OP_RETURN with small push", mustHex(t, "6a0401020304"), true},
		{"not OP_RETURN", mustHex(t, "51"), false},
	}
	for _, test := range tests {
		if got := IsNullDataScript(test.script); got != test.want {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}
}

func TestExtractMultiSigScriptDetails(t *testing.T) {
	pk1 := bytes.Repeat([]byte{0x02}, 33)
	pk1[0] = 0x02
	pk2 := bytes.Repeat([]byte{0x03}, 33)
	pk2[0] = 0x03

	script := []byte{op1 + 1}
	script = append(script, opData33)
	script = append(script, pk1...)
	script = append(script, opData33)
	script = append(script, pk2...)
	script = append(script, op1+1, opCheckMultiSig)

	details := ExtractMultiSigScriptDetails(script)
	if !details.Valid {
		t.Fatal("expected valid multisig details")
	}
	if details.RequiredSigs != 2 || details.NumPubKeys != 2 {
		t.Fatalf("unexpected m-of-n: %d-of-%d", details.RequiredSigs, details.NumPubKeys)
	}
	if !IsMultiSigScript(script) {
		t.Fatal("IsMultiSigScript: expected true")
	}
}

func TestDetermineScriptTypeNonStandard(t *testing.T) {
	script := []byte{0x01, 0x02, 0x03}
	if DetermineScriptType(script) != STNonStandard {
		t.Fatalf("expected nonstandard, got %v", DetermineScriptType(script))
	}
}
