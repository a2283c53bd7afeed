// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dcrutil

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcdecoded/blvm/chaincfg"
)

func TestEncodeAddressRoundTrip(t *testing.T) {
	params := chaincfg.MainNetParams()

	tests := []struct {
		name   string
		script string
	}{
		{
			name:   "pay-to-pubkey-hash",
			script: "76a914000000000000000000000000000000000000000088ac",
		},
		{
			name:   "pay-to-script-hash",
			script: "a914111111111111111111111111111111111111111187",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			script, err := hex.DecodeString(test.script)
			if err != nil {
				t.Fatalf("bad test fixture: %v", err)
			}

			addr, err := EncodeAddress(script, params)
			if err != nil {
				t.Fatalf("EncodeAddress: %v", err)
			}

			hash, isScriptHash, err := DecodeAddress(addr, params)
			if err != nil {
				t.Fatalf("DecodeAddress(%s): %v", addr, err)
			}

			wantScriptHash := test.name == "pay-to-script-hash"
			if isScriptHash != wantScriptHash {
				t.Errorf("isScriptHash = %v, want %v", isScriptHash, wantScriptHash)
			}
			wantHash := script[3:23]
			if wantScriptHash {
				wantHash = script[2:22]
			}
			if !bytes.Equal(hash[:], wantHash) {
				t.Errorf("decoded hash = %x, want %x", hash[:], wantHash)
			}
		})
	}
}

func TestEncodeAddressUnsupported(t *testing.T) {
	params := chaincfg.MainNetParams()

	// A bare OP_RETURN null-data script has no address rendering.
	script := []byte{0x6a, 0x04, 0xde, 0xad, 0xbe, 0xef}
	if _, err := EncodeAddress(script, params); err != ErrUnsupportedAddressType {
		t.Fatalf("EncodeAddress: got %v, want ErrUnsupportedAddressType", err)
	}
}

func TestDecodeAddressWrongNetwork(t *testing.T) {
	mainnet := chaincfg.MainNetParams()
	testnet := chaincfg.TestNet3Params()

	script, _ := hex.DecodeString("76a914000000000000000000000000000000000000000088ac")
	addr, err := EncodeAddress(script, mainnet)
	if err != nil {
		t.Fatalf("EncodeAddress: %v", err)
	}

	if _, _, err := DecodeAddress(addr, testnet); err == nil {
		t.Fatalf("DecodeAddress: expected error decoding a mainnet address against testnet params")
	}
}
