// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"bytes"
	"testing"

	"github.com/btcdecoded/blvm/wire"
	"github.com/davecgh/go-spew/spew"
)

// TestGenesisBlockHash checks each network's genesis block against its
// hard-coded hash to catch a header field or serialization regression that
// would otherwise silently fork the chain at height zero.
func TestGenesisBlockHash(t *testing.T) {
	tests := []struct {
		name   string
		params *Params
	}{
		{"mainnet", MainNetParams()},
		{"testnet3", TestNet3Params()},
		{"regtest", RegNetParams()},
		{"simnet", SimNetParams()},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := test.params.GenesisBlock.BlockHash()
			if got != test.params.GenesisHash {
				t.Fatalf("genesis hash mismatch: got %v, want %v", got, test.params.GenesisHash)
			}
		})
	}
}

// TestGenesisBlockSerialize spot checks that the computed genesis block
// round-trips through Serialize/Deserialize without altering its hash.
func TestGenesisBlockSerialize(t *testing.T) {
	params := MainNetParams()

	var buf bytes.Buffer
	if err := params.GenesisBlock.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var got wire.MsgBlock
	if err := got.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if h := got.BlockHash(); h != params.GenesisHash {
		t.Fatalf("round trip hash mismatch: got %v, want %v (dump: %s)",
			h, params.GenesisHash, spew.Sdump(got.Header))
	}
}
