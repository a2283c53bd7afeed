// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"
	"time"

	"github.com/btcdecoded/blvm/chainhash"
)

// TestNet3Params returns the network parameters for the test network
// (version 3).
func TestNet3Params() *Params {
	testNetPowLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	genesisBlock := newGenesisBlock(1, 1296688602, 0x1d00ffff, 414098458)

	return &Params{
		Name:        "testnet3",
		Net:         TestNet,
		DefaultPort: "18333",
		DNSSeeds: []DNSSeed{
			{"testnet-seed.bitcoin.jonasschnelli.ch", true},
			{"seed.tbtc.petertodd.org", true},
			{"testnet-seed.bluematt.me", false},
		},

		GenesisBlock: genesisBlock,
		GenesisHash:  *newHashFromStr("000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943"),
		GenesisChildHash: *newHashFromStr("00000000b873e79784647a6c82962c70d228557d24a747ea4d1b8bbe878e1206"),
		PowLimit:     testNetPowLimit,
		PowLimitBits: 0x1d00ffff,

		// Testnet allows a block to be mined at the minimum difficulty
		// if more than twice the target spacing has elapsed since the
		// previous block.
		ReduceMinDifficulty:      true,
		MinDiffReductionTime:     20 * time.Minute,
		TargetTimePerBlock:       10 * time.Minute,
		TargetTimespan:           14 * 24 * time.Hour,
		RetargetAdjustmentFactor: 4,

		SubsidyHalvingInterval: 210000,
		CoinbaseMaturity:       100,

		Checkpoints: []Checkpoint{
			{0, newHashFromStr("000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943")},
		},

		Deployments: DeploymentHeights{
			BIP16Height:  514,
			BIP34Height:  21111,
			BIP66Height:  330776,
			BIP65Height:  581885,
			BIP112Height: 770112,
			SegwitHeight: 834624,
		},

		BIP0030Exceptions: map[int32]chainhash.Hash{},

		HDPrivateKeyID: [4]byte{0x04, 0x35, 0x83, 0x94}, // starts with tprv
		HDPublicKeyID:  [4]byte{0x04, 0x35, 0x87, 0xcf}, // starts with tpub

		PubKeyHashAddrID: 0x6f, // starts with m or n
		ScriptHashAddrID: 0xc4, // starts with 2
		PrivateKeyID:     0xef, // starts with 9 (uncompressed) or c (compressed)
		Bech32HRPSegwit:  "tb",
	}
}
