// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"
	"time"

	"github.com/btcdecoded/blvm/chainhash"
)

// RegNetParams returns the network parameters for the regression test
// network. This network is only intended for unit and scenario testing
//, and its trivial proof of work means it should never be confused
// with a network carrying real value.
func RegNetParams() *Params {
	// regNetPowLimit is the highest proof of work value a block can have
	// for the regression test network. It is the value 2^255 - 1, low
	// enough that a single CPU can mine blocks instantly.
	regNetPowLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	genesisBlock := newGenesisBlock(1, 1296688602, 0x207fffff, 2)

	return &Params{
		Name:        "regtest",
		Net:         RegNet,
		DefaultPort: "18444",
		DNSSeeds:    nil,

		GenesisBlock: genesisBlock,
		GenesisHash:  *newHashFromStr("0f9188f13cb7b2c71f2a335e3a4fc328bf5beb436012afca590b1a11466e2206"),
		PowLimit:     regNetPowLimit,
		PowLimitBits: 0x207fffff,

		// Regtest retargets at the same 2016-block cadence as mainnet
		// in principle, but in practice a test harness mines through
		// any difficulty trivially at the floor target, so reduction
		// never triggers.
		ReduceMinDifficulty:      true,
		MinDiffReductionTime:     20 * time.Minute,
		TargetTimePerBlock:       10 * time.Minute,
		TargetTimespan:           14 * 24 * time.Hour,
		RetargetAdjustmentFactor: 4,

		SubsidyHalvingInterval: 150,
		CoinbaseMaturity:       100,

		Checkpoints: nil,

		// Every BIP gate is active from genesis on regtest so test
		// scenarios don't need to mine hundreds of thousands of
		// throwaway blocks to reach an activation height.
		Deployments: DeploymentHeights{
			BIP16Height:  0,
			BIP34Height:  0,
			BIP66Height:  0,
			BIP65Height:  0,
			BIP112Height: 0,
			SegwitHeight: 0,
		},

		BIP0030Exceptions: map[int32]chainhash.Hash{},

		HDPrivateKeyID: [4]byte{0x04, 0x35, 0x83, 0x94}, // starts with tprv
		HDPublicKeyID:  [4]byte{0x04, 0x35, 0x87, 0xcf}, // starts with tpub

		PubKeyHashAddrID: 0x6f, // starts with m or n
		ScriptHashAddrID: 0xc4, // starts with 2
		PrivateKeyID:     0xef,
		Bech32HRPSegwit:  "bcrt",
	}
}
