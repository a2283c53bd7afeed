// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"

	"github.com/btcdecoded/blvm/chaincfg"
)

var bigOne = big.NewInt(1)

// CompactToBig converts a compact representation of a whole number N to a
// big integer. The representation is similar to IEEE754 floating
// point numbers: the high 8 bits are an exponent in base 256 and the
// remaining 24 bits are the mantissa. This is the format used by Bitcoin to
// encode work targets in block headers.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	if isNegative {
		bn = bn.Neg(bn)
	}
	return bn
}

// BigToCompact converts a whole number N to a compact representation using
// an unsigned 32-bit number, the inverse of CompactToBig.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

// CalcWork calculates a work value from difficulty bits. Bitcoin Core's
// block work accumulator defines this as the work equivalent of two raised
// to 256 divided by (target + 1), rather than the target itself, so that
// work can be summed across blocks of differing difficulty to compare
// chains.
func CalcWork(bits uint32) *big.Int {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}

	// work = 2^256 / (target + 1)
	denominator := new(big.Int).Add(target, bigOne)
	work := new(big.Int).Lsh(bigOne, 256)
	return work.Div(work, denominator)
}

// HeaderInfo carries the subset of ancestor header fields the retarget
// algorithm needs, decoupled from any particular block index type so this
// package's difficulty math has no dependency on how a caller stores its
// chain.
type HeaderInfo struct {
	Height    int32
	Bits      uint32
	Timestamp uint32
}

// CalcNextRequiredDifficulty computes the difficulty bits required for the
// block that extends prevHeader, per the classic Bitcoin retarget rule
//: recompute every 2016 blocks from the actual time spanned by the
// preceding window, clamped to a factor of 4 in either direction, and
// never looser than the network's power limit. firstBlockOfWindow is the
// header at the start of prevHeader's current 2016-block window (ignored
// outside of a retarget boundary).
func CalcNextRequiredDifficulty(params *chaincfg.Params, prevHeader, firstBlockOfWindow HeaderInfo, newBlockTimestamp uint32) uint32 {
	// The genesis block requires no retarget; it defines the starting
	// difficulty outright.
	if prevHeader.Height < 0 {
		return params.PowLimitBits
	}

	nextHeight := prevHeader.Height + 1

	// Only retarget every 2016 blocks.
	blocksPerRetarget := int32(params.TargetTimespan / params.TargetTimePerBlock)
	if nextHeight%blocksPerRetarget != 0 {
		if params.ReduceMinDifficulty {
			reductionTime := uint32(params.MinDiffReductionTime.Seconds())
			if newBlockTimestamp > prevHeader.Timestamp+reductionTime {
				return params.PowLimitBits
			}
		}
		return prevHeader.Bits
	}

	actualTimespan := int64(prevHeader.Timestamp) - int64(firstBlockOfWindow.Timestamp)
	targetTimespan := int64(params.TargetTimespan.Seconds())

	minTimespan := targetTimespan / params.RetargetAdjustmentFactor
	maxTimespan := targetTimespan * params.RetargetAdjustmentFactor
	if actualTimespan < minTimespan {
		actualTimespan = minTimespan
	} else if actualTimespan > maxTimespan {
		actualTimespan = maxTimespan
	}

	oldTarget := CompactToBig(prevHeader.Bits)
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(targetTimespan))

	if newTarget.Cmp(params.PowLimit) > 0 {
		newTarget.Set(params.PowLimit)
	}

	return BigToCompact(newTarget)
}
