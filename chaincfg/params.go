// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"
	"time"

	"github.com/btcdecoded/blvm/chainhash"
	"github.com/btcdecoded/blvm/txscript"
	"github.com/btcdecoded/blvm/wire"
)

// Net represents which bitcoin network a message belongs to.
type Net uint32

// Protocol magic values distinguishing the currently defined networks. Each
// one is unique so a given message cannot be mistaken for one intended for
// a different network.
const (
	MainNet Net = 0xd9b4bef9
	TestNet Net = 0x0709110b
	RegNet  Net = 0xdab5bffa
	SimNet  Net = 0x12141c16
)

// String returns the Net as a human-readable name.
func (n Net) String() string {
	switch n {
	case MainNet:
		return "mainnet"
	case TestNet:
		return "testnet"
	case RegNet:
		return "regnet"
	case SimNet:
		return "simnet"
	default:
		return "unknown"
	}
}

// DNSSeed identifies a DNS seed.
type DNSSeed struct {
	Host string

	// HasFiltering indicates whether the seed supports filtering by
	// service bits (NODE_NETWORK, etc).
	HasFiltering bool
}

// Checkpoint identifies a known-good point in the block chain that
// validation can optionally trust without replaying history before it.
type Checkpoint struct {
	Height int32
	Hash   *chainhash.Hash
}

// DeploymentHeights records the heights at which the BIP activation
// registry flips on each historically height-gated rule change for
// a network. Unlike Decred's vote-driven ConsensusDeployment windows,
// Bitcoin's gates prior to taproot are pure height constants, so this is
// deliberately a flat struct rather than a voting-window machine.
type DeploymentHeights struct {
	BIP16Height  int32 // P2SH evaluation
	BIP34Height  int32 // height-in-coinbase requirement
	BIP66Height  int32 // strict DER signature enforcement
	BIP65Height  int32 // CHECKLOCKTIMEVERIFY becomes consensus-enforced
	BIP112Height int32 // CHECKSEQUENCEVERIFY + relative-lock-time via MTP (BIP68/112/113)
	SegwitHeight int32 // witness program evaluation, NULLDUMMY (BIP141/143/147)
}

// Params defines a bitcoin network by its parameters. These parameters may
// be used by applications to differentiate networks as well as addresses
// and keys for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net Net

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// DNSSeeds defines a list of DNS seeds for the network that are used
	// as one method to discover peers.
	DNSSeeds []DNSSeed

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *wire.MsgBlock

	// GenesisHash is the starting block hash.
	GenesisHash chainhash.Hash

	// GenesisChildHash is the known hash of the block at height 1. The
	// archive index rebuild procedure resolves block 1 by this
	// hash rather than by "whichever block has prev_hash == genesis",
	// since raw blockchain files can contain orphans sharing that
	// property. Left as the zero hash for regtest/simnet, which have no
	// single fixed height-1 block; RebuildIndex requires an explicit
	// override for those networks.
	GenesisChildHash chainhash.Hash

	// PowLimit defines the highest allowed proof of work value for a
	// block as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// These fields define the block retargeting rules.
	TargetTimePerBlock     time.Duration
	TargetTimespan         time.Duration
	RetargetAdjustmentFactor int64

	// ReduceMinDifficulty defines whether the network allows reducing
	// the minimum required difficulty of a block when no block has been
	// mined locally for the testnet-specific twenty-minute rule.
	ReduceMinDifficulty bool
	MinDiffReductionTime time.Duration

	// SubsidyHalvingInterval is the height interval at which the block
	// subsidy is halved.
	SubsidyHalvingInterval int32

	// CoinbaseMaturity is the number of blocks required before newly
	// generated coins via the coinbase transaction can be spent.
	CoinbaseMaturity uint16

	// Checkpoints ordered from oldest to newest.
	Checkpoints []Checkpoint

	// Deployments is the BIP activation registry this network
	// uses. ActiveScriptFlags turns a height into the
	// txscript.ScriptFlags word in force at that height.
	Deployments DeploymentHeights

	// BIP0030Exceptions maps a height to the txid of the coinbase
	// transaction at that height that historically duplicates an
	// already-unspent coinbase transaction's txid. Both must be accepted on this network despite
	// otherwise violating the no-duplicate-unspent-txid rule.
	BIP0030Exceptions map[int32]chainhash.Hash

	// HDPrivateKeyID and HDPublicKeyID are the BIP32 extended key version
	// bytes used purely for diagnostic logging/address display; nothing
	// in script or block validation depends on them.
	HDPrivateKeyID [4]byte
	HDPublicKeyID  [4]byte

	// PubKeyHashAddrID and ScriptHashAddrID are the base58check version
	// bytes for legacy address display.
	PubKeyHashAddrID byte
	ScriptHashAddrID byte
	PrivateKeyID     byte

	// Bech32HRPSegwit is the human-readable part used for Bech32
	// encoding of segwit addresses for this network (diagnostic use
	// only).
	Bech32HRPSegwit string
}

// ActiveScriptFlags returns the txscript.ScriptFlags word in force at the
// given height under p's BIP activation registry. It is a pure
// function of (height, network): no chain state beyond the height itself
// is consulted, and the same height always yields the same flags.
func (p *Params) ActiveScriptFlags(height int32) txscript.ScriptFlags {
	var flags txscript.ScriptFlags

	if height >= p.Deployments.BIP16Height {
		flags |= txscript.ScriptBip16
	}
	if height >= p.Deployments.BIP66Height {
		flags |= txscript.ScriptVerifyDERSignatures | txscript.ScriptVerifyStrictEncoding
	}
	if height >= p.Deployments.BIP65Height {
		flags |= txscript.ScriptVerifyCheckLockTimeVerify
	}
	if height >= p.Deployments.BIP112Height {
		flags |= txscript.ScriptVerifyCheckSequenceVerify
	}
	if height >= p.Deployments.SegwitHeight {
		flags |= txscript.ScriptVerifyWitness |
			txscript.ScriptVerifyNullDummy |
			txscript.ScriptVerifyDiscourageUpgradableWitnessProgram |
			txscript.ScriptVerifyWitnessPubKeyType |
			txscript.ScriptVerifyCleanStack
	}

	// LOW_S, MINIMALDATA, and NULLFAIL harden signature/data canonicality
	// beyond what BIP66's strict-DER gate alone requires; the reference
	// node enables all three from the same height it starts enforcing
	// strict DER.
	if height >= p.Deployments.BIP66Height {
		flags |= txscript.ScriptVerifyLowS |
			txscript.ScriptVerifyMinimalData |
			txscript.ScriptVerifyNullFail
	}

	return flags
}

// IsBIP34Active reports whether BIP34's height-in-coinbase requirement is
// in force at the given height.
func (p *Params) IsBIP34Active(height int32) bool {
	return height >= p.Deployments.BIP34Height
}

var bigOne = big.NewInt(1)

// bigToCompact converts a whole number N to a compact representation using
// an unsigned 32-bit number. This is the format used by bitcoin to
// represent work targets in block headers.
func bigToCompact(n *big.Int) uint32 {
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

// newHashFromStr converts the passed big-endian hex string into a
// chainhash.Hash. It only differs from chainhash.NewHashFromStr in that it
// panics on error since it is only, and must only, be called with hard
// coded, and therefore always valid, hashes.
func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}
	return hash
}
