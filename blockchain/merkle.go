// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"fmt"
	"math"

	"github.com/btcdecoded/blvm/chainhash"
	"github.com/btcdecoded/blvm/txscript"
	"github.com/btcdecoded/blvm/wire"
)

const (
	// CoinbaseWitnessDataLen is the required length of the only element
	// within the coinbase's witness data if the coinbase transaction
	// carries a witness commitment.
	CoinbaseWitnessDataLen = 32

	// CoinbaseWitnessPkScriptLength is the length of the pkScript
	// carrying an OP_RETURN, WitnessMagicBytes, and the commitment
	// itself.
	CoinbaseWitnessPkScriptLength = 38
)

// WitnessMagicBytes is the prefix marking a coinbase output's pkScript as
// carrying the block's witness commitment.
var WitnessMagicBytes = []byte{
	txscript.OP_RETURN,
	txscript.OP_DATA_36,
	0xaa, 0x21, 0xa9, 0xed,
}

// nextPowerOfTwo returns the next highest power of two from n.
func nextPowerOfTwo(n int) int {
	if n&(n-1) == 0 {
		return n
	}
	exponent := uint(math.Log2(float64(n))) + 1
	return 1 << exponent
}

// hashMerkleBranches returns the hash of the concatenation of left and
// right, the interior-node step of building a merkle tree.
func hashMerkleBranches(left, right *chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.HashH(buf[:])
}

// CalcMerkleRoot computes the merkle root of a block's transactions.
// When witness is true it builds the witness root instead: every leaf is
// the transaction's WitnessHash rather than its TxHash, except the
// coinbase, whose witness leaf is defined as the zero hash (BIP141).
func CalcMerkleRoot(transactions []*wire.MsgTx, witness bool) chainhash.Hash {
	if len(transactions) == 0 {
		return chainhash.Hash{}
	}

	nextPoT := nextPowerOfTwo(len(transactions))
	arraySize := nextPoT*2 - 1
	nodes := make([]*chainhash.Hash, arraySize)

	for i, tx := range transactions {
		switch {
		case witness && i == 0:
			var zero chainhash.Hash
			nodes[i] = &zero
		case witness:
			h := tx.WitnessHash()
			nodes[i] = &h
		default:
			h := tx.TxHash()
			nodes[i] = &h
		}
	}

	offset := nextPoT
	for i := 0; i < arraySize-1; i += 2 {
		switch {
		case nodes[i] == nil:
			nodes[offset] = nil
		case nodes[i+1] == nil:
			h := hashMerkleBranches(nodes[i], nodes[i])
			nodes[offset] = &h
		default:
			h := hashMerkleBranches(nodes[i], nodes[i+1])
			nodes[offset] = &h
		}
		offset++
	}

	return *nodes[arraySize-1]
}

// ExtractWitnessCommitment locates the witness commitment output within a
// coinbase transaction's outputs, searching from the last output backward
// per the reference node's convention of tolerating additional OP_RETURN
// outputs placed after it.
func ExtractWitnessCommitment(coinbase *wire.MsgTx) ([]byte, bool) {
	if !coinbase.IsCoinBase() {
		return nil, false
	}

	for i := len(coinbase.TxOut) - 1; i >= 0; i-- {
		pkScript := coinbase.TxOut[i].PkScript
		if len(pkScript) >= CoinbaseWitnessPkScriptLength &&
			bytes.HasPrefix(pkScript, WitnessMagicBytes) {
			start := len(WitnessMagicBytes)
			end := CoinbaseWitnessPkScriptLength
			return pkScript[start:end], true
		}
	}

	return nil, false
}

// ValidateWitnessCommitment checks the witness commitment carried by a
// block's coinbase transaction against the witness root computed from its
// own transactions. It takes no height and applies the same check to every
// block: a block without a commitment passes only if none of its
// transactions carries witness data.
func ValidateWitnessCommitment(block *wire.MsgBlock) error {
	if len(block.Transactions) == 0 {
		return ruleError(ErrNoTransactions, "cannot validate witness commitment of block without transactions")
	}

	coinbase := block.Transactions[0]
	if len(coinbase.TxIn) == 0 {
		return ruleError(ErrNoTxInputs, "coinbase transaction has no inputs")
	}

	commitment, found := ExtractWitnessCommitment(coinbase)
	if !found {
		for _, tx := range block.Transactions {
			if tx.HasWitness() {
				return ruleError(ErrUnexpectedWitness,
					"block contains a transaction with witness data but no witness commitment")
			}
		}
		return nil
	}

	witness := coinbase.TxIn[0].Witness
	if len(witness) != 1 {
		return ruleError(ErrBadWitnessCommitment, fmt.Sprintf(
			"coinbase witness stack has %d items, want 1", len(witness)))
	}
	nonce := witness[0]
	if len(nonce) != CoinbaseWitnessDataLen {
		return ruleError(ErrBadWitnessCommitment, fmt.Sprintf(
			"coinbase witness nonce is %d bytes, want %d", len(nonce), CoinbaseWitnessDataLen))
	}

	witnessRoot := CalcMerkleRoot(block.Transactions, true)

	var preimage [chainhash.HashSize * 2]byte
	copy(preimage[:chainhash.HashSize], witnessRoot[:])
	copy(preimage[chainhash.HashSize:], nonce)
	computed := chainhash.HashH(preimage[:])

	if !bytes.Equal(computed[:], commitment) {
		return ruleError(ErrBadWitnessCommitment, fmt.Sprintf(
			"witness commitment mismatch: computed %x, coinbase carries %x", computed, commitment))
	}

	return nil
}
