// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"
	"time"

	"github.com/btcdecoded/blvm/chainhash"
)

// MainNetParams returns the network parameters for the main bitcoin
// network.
func MainNetParams() *Params {
	// mainPowLimit is the highest proof of work value a bitcoin block can
	// have for the main network. It is the value 2^224 - 1.
	mainPowLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	genesisBlock := newGenesisBlock(1, 1231006505, 0x1d00ffff, 2083236893)

	return &Params{
		Name:        "mainnet",
		Net:         MainNet,
		DefaultPort: "8333",
		DNSSeeds: []DNSSeed{
			{"seed.bitcoin.sipa.be", true},
			{"dnsseed.bluematt.me", true},
			{"dnsseed.bitcoin.dashjr.org", false},
			{"seed.bitcoinstats.com", true},
			{"seed.bitcoin.jonasschnelli.ch", true},
		},

		// Chain parameters
		GenesisBlock: genesisBlock,
		GenesisHash:  *newHashFromStr("000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"),
		GenesisChildHash: *newHashFromStr("00000000839a8e6886ab5951d76f411475428afc90947ee320161bbf18eb6048"),
		PowLimit:     mainPowLimit,
		PowLimitBits: 0x1d00ffff,

		ReduceMinDifficulty:      false,
		MinDiffReductionTime:     0,
		TargetTimePerBlock:       10 * time.Minute,
		TargetTimespan:           14 * 24 * time.Hour, // 2016 blocks
		RetargetAdjustmentFactor: 4,

		SubsidyHalvingInterval: 210000,
		CoinbaseMaturity:       100,

		// Checkpoints ordered from oldest to newest. This pipeline
		// verifies contiguous height ranges from user-supplied
		// checkpoint files rather than header-first syncing
		// against a hard-coded table, so genesis is the only entry
		// that needs to live here.
		Checkpoints: []Checkpoint{
			{0, newHashFromStr("000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f")},
		},

		Deployments: DeploymentHeights{
			BIP16Height:  173805,
			BIP34Height:  227931,
			BIP66Height:  363725,
			BIP65Height:  388381,
			BIP112Height: 419328,
			SegwitHeight: 481824,
		},

		// BIP0030Exceptions records the two historical coinbase txids
		// that duplicate an already-unspent coinbase transaction's
		// txid; they predate BIP30's enforcement and are
		// grandfathered in on mainnet only.
		BIP0030Exceptions: map[int32]chainhash.Hash{
			91842: *newHashFromStr("d5d27987d2a3dfc724e359870c6644b40e497bdc0589a033220fe15429d88599"),
			91880: *newHashFromStr("e3bf3d07d4b0375638d5f1db5255fe07ba2c4cb067cd81b84ee974b6585fb468"),
		},

		HDPrivateKeyID: [4]byte{0x04, 0x88, 0xad, 0xe4}, // starts with xprv
		HDPublicKeyID:  [4]byte{0x04, 0x88, 0xb2, 0x1e}, // starts with xpub

		PubKeyHashAddrID: 0x00, // starts with 1
		ScriptHashAddrID: 0x05, // starts with 3
		PrivateKeyID:     0x80, // starts with 5 (uncompressed) or K/L (compressed)
		Bech32HRPSegwit:  "bc",
	}
}
