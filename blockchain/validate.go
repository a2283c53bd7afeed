// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sort"

	"github.com/btcdecoded/blvm/chaincfg"
	"github.com/btcdecoded/blvm/chainhash"
	"github.com/btcdecoded/blvm/txscript"
	"github.com/btcdecoded/blvm/utxo"
	"github.com/btcdecoded/blvm/wire"
)

// MaxBlockWeight is the maximum weight a serialized block may occupy,
// the weight-equivalent of a 4MB block once witness data is discounted
// per BIP141.
const MaxBlockWeight = 4_000_000

// MaxBlockSigOpsCost is the maximum accumulated legacy-equivalent
// signature operation cost (4x per witness-counted sigop, 1x per legacy
// sigop) a block may contain.
const MaxBlockSigOpsCost = 80_000

// MaxSatoshi is the maximum number of indivisible units that can ever
// exist: twenty-one million bitcoin.
const MaxSatoshi = 21_000_000 * 1e8

// MinCoinbaseScriptLen and MaxCoinbaseScriptLen bound a coinbase
// transaction's signature script length.
const (
	MinCoinbaseScriptLen = 2
	MaxCoinbaseScriptLen = 100
)

// MedianTimeBlocks is the number of preceding headers averaged into the
// median time past used to gate BIP113 lock times.
const MedianTimeBlocks = 11

// CalcMedianTimePast returns the median of the up-to-MedianTimeBlocks most
// recent timestamps in timestamps, which the caller supplies newest-first,
// or zero when timestamps is empty.
func CalcMedianTimePast(timestamps []uint32) uint32 {
	n := len(timestamps)
	if n == 0 {
		return 0
	}
	if n > MedianTimeBlocks {
		n = MedianTimeBlocks
	}
	sorted := append([]uint32(nil), timestamps[:n]...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}

// IsFinalizedTransaction reports whether tx may be included in a block at
// blockHeight with the given median time past, per the classic lock_time
// rule: a lock_time of zero is always final, and any transaction every one
// of whose inputs carries a final (0xffffffff) sequence number is final
// regardless of lock_time.
func IsFinalizedTransaction(tx *wire.MsgTx, blockHeight int32, medianTimePast uint32) bool {
	if tx.LockTime == 0 {
		return true
	}

	blockTimeOrHeight := uint32(blockHeight)
	if tx.LockTime >= lockTimeThreshold {
		blockTimeOrHeight = medianTimePast
	}
	if tx.LockTime < blockTimeOrHeight {
		return true
	}

	for _, txIn := range tx.TxIn {
		if txIn.Sequence != wire.MaxTxInSequenceNum {
			return false
		}
	}
	return true
}

// lockTimeThreshold distinguishes a lock_time interpreted as a block
// height from one interpreted as a Unix timestamp: values at or above it
// are timestamps.
const lockTimeThreshold = 500_000_000

// CheckTransactionSanity performs structural checks on tx that require no
// chain context: non-empty inputs/outputs, no negative or
// overflowing output values, no duplicate inputs, and the coinbase-only or
// non-coinbase-only null-prevout rule.
func CheckTransactionSanity(tx *wire.MsgTx) error {
	if len(tx.TxIn) == 0 {
		return ruleError(ErrNoTxInputs, "transaction has no inputs")
	}
	if len(tx.TxOut) == 0 {
		return ruleError(ErrNoTxOutputs, "transaction has no outputs")
	}

	var totalOut int64
	for _, txOut := range tx.TxOut {
		if txOut.Value < 0 {
			return ruleError(ErrBadTxOutValue, "transaction output has negative value")
		}
		if txOut.Value > MaxSatoshi {
			return ruleError(ErrBadTxOutValue, "transaction output value exceeds max allowed value")
		}
		totalOut += txOut.Value
		if totalOut > MaxSatoshi {
			return ruleError(ErrBadTxOutValue, "total value of all transaction outputs exceeds max allowed value")
		}
	}

	existingOutPoints := make(map[wire.OutPoint]struct{}, len(tx.TxIn))
	for _, txIn := range tx.TxIn {
		if _, exists := existingOutPoints[txIn.PreviousOutPoint]; exists {
			return ruleError(ErrDuplicateTxInputs, "transaction contains duplicate inputs")
		}
		existingOutPoints[txIn.PreviousOutPoint] = struct{}{}
	}

	isCoinBase := tx.IsCoinBase()
	if isCoinBase {
		slen := len(tx.TxIn[0].SignatureScript)
		if slen < MinCoinbaseScriptLen || slen > MaxCoinbaseScriptLen {
			return ruleError(ErrBadTxInput, "coinbase transaction script length is out of range")
		}
	} else {
		for _, txIn := range tx.TxIn {
			if txIn.PreviousOutPoint.IsNull() {
				return ruleError(ErrBadTxInput, "transaction input refers to the null previous outpoint")
			}
		}
	}

	return nil
}

// CheckBlockSanity performs the structural checks on block that require no
// chain context: a non-empty transaction list whose first entry is
// the sole coinbase, a matching merkle root, no duplicate transactions, a
// bounded weight, and a structurally sound copy of every transaction.
func CheckBlockSanity(block *wire.MsgBlock) error {
	transactions := block.Transactions
	if len(transactions) == 0 {
		return ruleError(ErrNoTransactions, "block does not contain any transactions")
	}

	if block.Weight() > MaxBlockWeight {
		return ruleError(ErrBlockTooBig, "block weight exceeds maximum allowed weight")
	}

	if !transactions[0].IsCoinBase() {
		return ruleError(ErrFirstTxNotCoinbase, "first transaction in block is not a coinbase")
	}
	for _, tx := range transactions[1:] {
		if tx.IsCoinBase() {
			return ruleError(ErrMultipleCoinbases, "block contains more than one coinbase transaction")
		}
	}

	for _, tx := range transactions {
		if err := CheckTransactionSanity(tx); err != nil {
			return err
		}
	}

	seen := make(map[chainhash.Hash]struct{}, len(transactions))
	ids := make([]chainhash.Hash, len(transactions))
	for i, tx := range transactions {
		txHash := tx.TxHash()
		if _, exists := seen[txHash]; exists {
			return ruleError(ErrDuplicateTx, "block contains duplicate transactions")
		}
		seen[txHash] = struct{}{}
		ids[i] = txHash
	}

	computed := wire.CalcMerkleRoot(ids)
	if !computed.IsEqual(&block.Header.MerkleRoot) {
		return ruleError(ErrBadMerkleRoot, "merkle root of block does not match computed value")
	}

	if err := ValidateWitnessCommitment(block); err != nil {
		return err
	}

	return nil
}

// ConnectResult carries everything about a successful contextual
// validation a caller needs to advance the chain: the next UTXO set
// generation and the total fees collected, which the caller may use to
// build its own differential summary.
type ConnectResult struct {
	NextUtxoSet *utxo.Set
	TotalFees   int64
}

// CheckTransactionInputs performs the contextual per-transaction checks
//: every spent outpoint exists and is mature, and the transaction does
// not create more value than it destroys. It returns the transaction's
// fee. A coinbase is not checked here and yields a fee of zero; its
// subsidy-plus-fees limit is enforced by CheckConnectBlock.
func CheckTransactionInputs(tx *wire.MsgTx, height int32, utxoSet *utxo.Set, params *chaincfg.Params) (int64, error) {
	if tx.IsCoinBase() {
		return 0, nil
	}

	var totalIn int64
	for _, txIn := range tx.TxIn {
		entry, ok := utxoSet.Get(txIn.PreviousOutPoint)
		if !ok {
			return 0, ruleError(ErrMissingTxOut, "transaction spends an outpoint that does not exist or was already spent")
		}

		if entry.IsCoinBase {
			originHeight := entry.Height
			blocksSincePrev := height - originHeight
			if blocksSincePrev < int32(params.CoinbaseMaturity) {
				return 0, ruleError(ErrImmatureSpend, "transaction attempts to spend an immature coinbase output")
			}
		}

		if entry.Amount < 0 || entry.Amount > MaxSatoshi {
			return 0, ruleError(ErrBadTxOutValue, "transaction output being spent carries an invalid value")
		}
		totalIn += entry.Amount
		if totalIn > MaxSatoshi {
			return 0, ruleError(ErrBadTxOutValue, "total input value exceeds max allowed value")
		}
	}

	var totalOut int64
	for _, txOut := range tx.TxOut {
		totalOut += txOut.Value
	}

	if totalIn < totalOut {
		return 0, ruleError(ErrSpendTooHigh, "transaction does not have enough input value to cover its outputs")
	}

	return totalIn - totalOut, nil
}

// CheckBIP30 enforces the no-resurrecting-an-unspent-txid rule: none
// of block's transactions may share a txid with an already-unspent
// transaction, except the two documented historical exceptions on
// mainnet.
func CheckBIP30(block *wire.MsgBlock, height int32, utxoSet *utxo.Set, params *chaincfg.Params) error {
	if exceptionHash, ok := params.BIP0030Exceptions[height]; ok {
		for _, tx := range block.Transactions {
			if tx.TxHash() == exceptionHash {
				continue
			}
			if err := checkBIP30Tx(tx, utxoSet); err != nil {
				return err
			}
		}
		return nil
	}

	for _, tx := range block.Transactions {
		if err := checkBIP30Tx(tx, utxoSet); err != nil {
			return err
		}
	}
	return nil
}

func checkBIP30Tx(tx *wire.MsgTx, utxoSet *utxo.Set) error {
	txHash := tx.TxHash()
	for i := range tx.TxOut {
		if _, exists := utxoSet.Get(wire.OutPoint{Hash: txHash, Index: uint32(i)}); exists {
			return ruleError(ErrDuplicateTx, "transaction id collides with an already unspent transaction")
		}
	}
	return nil
}

// CheckCoinbaseHeight enforces BIP34: once active, a coinbase's
// signature script must begin with a minimally-encoded push of the
// block's own height.
func CheckCoinbaseHeight(block *wire.MsgBlock, height int32) error {
	coinbase := block.Transactions[0]
	serializedHeight, err := txscript.ExtractCoinbaseHeight(coinbase.TxIn[0].SignatureScript)
	if err != nil {
		return ruleError(ErrBadCoinbaseHeight, "coinbase does not begin with a height push: "+err.Error())
	}
	if serializedHeight != height {
		return ruleError(ErrBadCoinbaseHeight, "coinbase height mismatch")
	}
	return nil
}

// CheckConnectBlock performs the full contextual validation of block
// against prevUtxoSet: the structural checks are assumed
// already done by CheckBlockSanity. On success it returns the next UTXO
// set generation; on any failure it returns the error and the caller's
// existing UtxoSet is untouched, since Set generations are immutable and
// Connect never mutates its receiver.
func CheckConnectBlock(block *wire.MsgBlock, height int32, medianTimePast uint32, prevUtxoSet *utxo.Set, params *chaincfg.Params, sigCache *txscript.SigCache) (*ConnectResult, error) {
	flags := params.ActiveScriptFlags(height)

	if params.IsBIP34Active(height) {
		if err := CheckCoinbaseHeight(block, height); err != nil {
			return nil, err
		}
	}

	if err := CheckBIP30(block, height, prevUtxoSet, params); err != nil {
		return nil, err
	}

	utxoSet := prevUtxoSet
	var totalFees int64
	var totalSigOpCost int

	for txIdx, tx := range block.Transactions {
		if txIdx > 0 {
			if !IsFinalizedTransaction(tx, height, medianTimePast) {
				return nil, ruleError(ErrUnfinalizedTx, "transaction is not finalized")
			}

			fee, err := CheckTransactionInputs(tx, height, utxoSet, params)
			if err != nil {
				return nil, err
			}
			totalFees += fee

			hashCache := txscript.NewTxSigHashes(tx)
			for inputIdx, txIn := range tx.TxIn {
				entry, ok := utxoSet.Get(txIn.PreviousOutPoint)
				if !ok {
					return nil, ruleError(ErrMissingTxOut, "transaction spends a nonexistent outpoint")
				}

				engine, err := txscript.NewEngine(entry.PkScript, tx, inputIdx, flags, sigCache, hashCache, entry.Amount)
				if err != nil {
					return nil, ruleError(ErrBadTxInput, "failed to build script engine: "+err.Error())
				}
				if err := engine.Execute(); err != nil {
					return nil, ruleError(ErrBadTxInput, "script validation failed: "+err.Error())
				}

				totalSigOpCost += txscript.GetPreciseSigOpCount(
					txIn.SignatureScript, entry.PkScript, flags&txscript.ScriptBip16 != 0)
			}
		}

		utxoSet = utxoSet.Connect(tx, height)
	}

	if totalSigOpCost > MaxBlockSigOpsCost {
		return nil, ruleError(ErrTooManySigOps, "block exceeds the maximum allowed signature operation cost")
	}

	coinbase := block.Transactions[0]
	var coinbaseOut int64
	for _, txOut := range coinbase.TxOut {
		coinbaseOut += txOut.Value
	}
	maxAllowed := CalcBlockSubsidy(height, params) + totalFees
	if coinbaseOut > maxAllowed {
		return nil, ruleError(ErrBadCoinbaseValue, "coinbase pays more than the allowed subsidy plus fees")
	}

	return &ConnectResult{NextUtxoSet: utxoSet, TotalFees: totalFees}, nil
}
