// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/btcdecoded/blvm/chaincfg"
)

// baseSubsidy is the block subsidy paid at height zero, fifty bitcoin
// expressed in satoshis. It is halved every params.SubsidyHalvingInterval
// blocks until it reaches zero.
const baseSubsidy = 50 * 1e8

// CalcBlockSubsidy returns the coinbase subsidy owed to the miner of the
// block at the given height, before any transaction fees are added. The
// subsidy is halved every SubsidyHalvingInterval blocks and floors to zero
// once enough halvings have occurred that the shift would exceed the width
// of the subsidy itself, the same floor-to-zero behavior Bitcoin exhibits
// around block 6,930,000 on mainnet.
func CalcBlockSubsidy(height int32, params *chaincfg.Params) int64 {
	if params.SubsidyHalvingInterval == 0 {
		return baseSubsidy
	}

	halvings := height / params.SubsidyHalvingInterval
	if halvings >= 64 {
		return 0
	}

	return baseSubsidy >> uint(halvings)
}
