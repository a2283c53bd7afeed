// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"
	"time"

	"github.com/btcdecoded/blvm/chainhash"
)

// SimNetParams returns the network parameters for the simulation test
// network. Unlike regtest, simnet is intended for full multi-process
// integration tests between cooperating applications that each pick the
// network by name rather than mining their own private genesis block.
func SimNetParams() *Params {
	simNetPowLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	genesisBlock := newGenesisBlock(1, 1401292357, 0x207fffff, 2)

	return &Params{
		Name:        "simnet",
		Net:         SimNet,
		DefaultPort: "18555",
		DNSSeeds:    nil,

		GenesisBlock: genesisBlock,
		GenesisHash:  *newHashFromStr("683e86bd5c6d110d91b94b97137ba6bfe02dbbdb8e3dff722a669b5d69d77af6"),
		PowLimit:     simNetPowLimit,
		PowLimitBits: 0x207fffff,

		ReduceMinDifficulty:      true,
		MinDiffReductionTime:     20 * time.Minute,
		TargetTimePerBlock:       10 * time.Minute,
		TargetTimespan:           14 * 24 * time.Hour,
		RetargetAdjustmentFactor: 4,

		SubsidyHalvingInterval: 210000,
		CoinbaseMaturity:       100,

		Checkpoints: nil,

		Deployments: DeploymentHeights{
			BIP16Height:  0,
			BIP34Height:  0,
			BIP66Height:  0,
			BIP65Height:  0,
			BIP112Height: 0,
			SegwitHeight: 0,
		},

		BIP0030Exceptions: map[int32]chainhash.Hash{},

		HDPrivateKeyID: [4]byte{0x04, 0x20, 0xb9, 0x00}, // starts with sprv
		HDPublicKeyID:  [4]byte{0x04, 0x20, 0xbd, 0x3a}, // starts with spub

		PubKeyHashAddrID: 0x3f, // starts with S
		ScriptHashAddrID: 0x7b, // starts with s
		PrivateKeyID:     0x64,
		Bech32HRPSegwit:  "sb",
	}
}
