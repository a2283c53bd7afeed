// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

// ErrorCode identifies a kind of block or transaction validation failure.
// It is a closed enumeration so callers can promote a failure to a
// user-facing reason without inspecting error strings.
type ErrorCode int

const (
	// ErrMissingParent indicates a block references a previous block
	// hash that is not already known.
	ErrMissingParent ErrorCode = iota

	// ErrDuplicateBlock indicates a block has already been processed.
	ErrDuplicateBlock

	// ErrBlockTooBig indicates the serialized block size exceeds the
	// maximum allowed size.
	ErrBlockTooBig

	// ErrWrongBlockSize indicates a block's serialized size did not
	// match its recorded size.
	ErrWrongBlockSize

	// ErrInvalidProofOfWork indicates the block hash does not satisfy
	// the proof of work target recorded in its own header.
	ErrInvalidProofOfWork

	// ErrHighHash is a more specific form of ErrInvalidProofOfWork used
	// when the block's bits were correct for its height but the hash
	// itself failed to meet the target.
	ErrHighHash

	// ErrBadBits indicates a block's bits field did not match the value
	// required by the difficulty retarget rule at that height.
	ErrBadBits

	// ErrNoTransactions indicates a block does not contain even a
	// single transaction.
	ErrNoTransactions

	// ErrNoTxInputs indicates a transaction has no inputs.
	ErrNoTxInputs

	// ErrNoTxOutputs indicates a transaction has no outputs.
	ErrNoTxOutputs

	// ErrTxTooBig indicates a transaction's serialized size exceeds the
	// maximum allowed size for a transaction.
	ErrTxTooBig

	// ErrBadTxOutValue indicates a transaction output has a negative or
	// otherwise invalid value, or the sum of all output values
	// overflows or exceeds the maximum allowed amount.
	ErrBadTxOutValue

	// ErrDuplicateTxInputs indicates a transaction spends the same
	// outpoint more than once.
	ErrDuplicateTxInputs

	// ErrBadTxInput indicates a transaction input's signature script
	// exceeds the allowed length, or a non-coinbase input references
	// the null outpoint.
	ErrBadTxInput

	// ErrMissingTxOut indicates a transaction spends an outpoint that
	// is not in the unspent transaction output set, either because it
	// never existed or because it was already spent.
	ErrMissingTxOut

	// ErrUnfinalizedTx indicates a transaction has not reached the
	// point in its lock time (and, where applicable, its inputs'
	// relative lock times) where it may be included in a block.
	ErrUnfinalizedTx

	// ErrDuplicateTx indicates a transaction's id, restricted by BIP30
	//, collides with the id of an already-unspent transaction
	// and is not one of the network's documented exceptions.
	ErrDuplicateTx

	// ErrOverwriteTx is a historical alias: retained so callers matching
	// on this code to describe a BIP30 violation are unambiguous about
	// which rule fired.
	ErrOverwriteTx

	// ErrImmatureSpend indicates a transaction attempts to spend a
	// coinbase output before it has reached the required coinbase
	// maturity.
	ErrImmatureSpend

	// ErrSpendTooHigh indicates a transaction's inputs do not carry
	// enough value to cover its outputs plus any required fee
	// relationship the caller enforces.
	ErrSpendTooHigh

	// ErrBadFees indicates the sum of all transaction fees plus the
	// block subsidy does not cover the value created by the coinbase
	// transaction.
	ErrBadFees

	// ErrTooManySigOps indicates the legacy signature operation count
	// for a block or transaction exceeds its allowed maximum.
	ErrTooManySigOps

	// ErrFirstTxNotCoinbase indicates the first transaction in a block
	// is not a coinbase transaction.
	ErrFirstTxNotCoinbase

	// ErrMultipleCoinbases indicates a block contains more than one
	// transaction that itself qualifies as a coinbase.
	ErrMultipleCoinbases

	// ErrBadCoinbaseValue indicates a coinbase transaction pays itself
	// more than the allowed block subsidy plus collected fees.
	ErrBadCoinbaseValue

	// ErrBadCoinbaseHeight indicates a coinbase script does not encode
	// the block's own height as required once BIP34 is active.
	ErrBadCoinbaseHeight

	// ErrBadMerkleRoot indicates the merkle root recorded in a block's
	// header does not match the root computed from its transactions.
	ErrBadMerkleRoot

	// ErrBadCheckpoint indicates a block at a checkpointed height has a
	// hash that does not match the expected checkpoint hash.
	ErrBadCheckpoint

	// ErrForkTooOld indicates a reorganization would rewind the chain
	// past an already-accepted checkpoint.
	ErrForkTooOld

	// ErrCheckpointTimeTooOld indicates a block's timestamp predates the
	// timestamp of an already-accepted checkpoint at a lesser height.
	ErrCheckpointTimeTooOld

	// ErrBadStateRoot indicates the transaction input/output references
	// replayed against the reconstructed unspent set produced a
	// state that disagrees with the reference node's for the same
	// height, the core divergence this package exists to surface.
	ErrBadStateRoot

	// ErrTimeTooOld indicates a block's timestamp is not after the
	// median time of the preceding eleven blocks.
	ErrTimeTooOld

	// ErrTimeTooNew indicates a block's timestamp is too far in the
	// future relative to the validator's clock.
	ErrTimeTooNew

	// ErrBadWitnessCommitment indicates the coinbase does not carry the
	// witness commitment required once segwit is active, or the
	// commitment present does not match the block's witnesses.
	ErrBadWitnessCommitment

	// ErrUnexpectedWitness indicates a non-segwit transaction carries
	// witness data.
	ErrUnexpectedWitness

	// ErrPreviousBlockUnknown is returned when a contextual check is
	// attempted against a parent that is not present in the header
	// index supplied to it.
	ErrPreviousBlockUnknown

	numErrorCodes
)

var errorCodeStrings = map[ErrorCode]string{
	ErrMissingParent:         "ErrMissingParent",
	ErrDuplicateBlock:        "ErrDuplicateBlock",
	ErrBlockTooBig:           "ErrBlockTooBig",
	ErrWrongBlockSize:        "ErrWrongBlockSize",
	ErrInvalidProofOfWork:    "ErrInvalidProofOfWork",
	ErrHighHash:              "ErrHighHash",
	ErrBadBits:               "ErrBadBits",
	ErrNoTransactions:        "ErrNoTransactions",
	ErrNoTxInputs:            "ErrNoTxInputs",
	ErrNoTxOutputs:           "ErrNoTxOutputs",
	ErrTxTooBig:              "ErrTxTooBig",
	ErrBadTxOutValue:         "ErrBadTxOutValue",
	ErrDuplicateTxInputs:     "ErrDuplicateTxInputs",
	ErrBadTxInput:            "ErrBadTxInput",
	ErrMissingTxOut:          "ErrMissingTxOut",
	ErrUnfinalizedTx:         "ErrUnfinalizedTx",
	ErrDuplicateTx:           "ErrDuplicateTx",
	ErrOverwriteTx:           "ErrOverwriteTx",
	ErrImmatureSpend:         "ErrImmatureSpend",
	ErrSpendTooHigh:          "ErrSpendTooHigh",
	ErrBadFees:               "ErrBadFees",
	ErrTooManySigOps:         "ErrTooManySigOps",
	ErrFirstTxNotCoinbase:    "ErrFirstTxNotCoinbase",
	ErrMultipleCoinbases:     "ErrMultipleCoinbases",
	ErrBadCoinbaseValue:      "ErrBadCoinbaseValue",
	ErrBadCoinbaseHeight:     "ErrBadCoinbaseHeight",
	ErrBadMerkleRoot:         "ErrBadMerkleRoot",
	ErrBadCheckpoint:         "ErrBadCheckpoint",
	ErrForkTooOld:            "ErrForkTooOld",
	ErrCheckpointTimeTooOld:  "ErrCheckpointTimeTooOld",
	ErrBadStateRoot:          "ErrBadStateRoot",
	ErrTimeTooOld:            "ErrTimeTooOld",
	ErrTimeTooNew:            "ErrTimeTooNew",
	ErrBadWitnessCommitment:  "ErrBadWitnessCommitment",
	ErrUnexpectedWitness:     "ErrUnexpectedWitness",
	ErrPreviousBlockUnknown:  "ErrPreviousBlockUnknown",
}

// String returns the ErrorCode as a human readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return "Unknown ErrorCode"
}

// RuleError identifies a rule violation found while validating a block or
// transaction against consensus rules. It carries a closed ErrorCode so a
// caller driving the differential pipeline can classify a
// divergence by kind rather than by matching against the description text.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	return e.Description
}

func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
