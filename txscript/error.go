// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// ErrorCode identifies a kind of script failure. It is a closed enumeration
// so callers can promote it to a user-facing reason without inspecting
// error strings.
type ErrorCode int

const (
	// ErrInternal indicates an error that shouldn't be possible from a well
	// formed execution environment; a bug in this package rather than a
	// legitimate script failure.
	ErrInternal ErrorCode = iota

	// ErrEarlyReturn indicates an OP_RETURN was executed in the script.
	ErrEarlyReturn

	// ErrEmptyStack indicates the script evaluated without error but left
	// either an empty stack or nothing on the stack that evaluates to true.
	ErrEmptyStack

	// ErrEvalFalse indicates the script evaluated without error but left a
	// false value on the stack.
	ErrEvalFalse

	// ErrScriptUnfinished indicates Execute was called on a script that has
	// not finished executing.
	ErrScriptUnfinished

	// ErrInvalidProgramCounter indicates the program counter was pushed
	// past the end of the script.
	ErrInvalidProgramCounter

	// ErrScriptTooBig indicates the script exceeds MaxScriptSize.
	ErrScriptTooBig

	// ErrElementTooBig indicates an element being pushed exceeds
	// MaxScriptElementSize.
	ErrElementTooBig

	// ErrTooManyOperations indicates the number of opcodes that are
	// counted towards MaxOpsPerScript exceeds it.
	ErrTooManyOperations

	// ErrStackOverflow indicates the combined main and alt stack depth
	// exceeds MaxStackSize.
	ErrStackOverflow

	// ErrInvalidPubKeyCount indicates the number of public keys specified
	// for a CHECKMULTISIG is negative or greater than MaxPubKeysPerMultiSig.
	ErrInvalidPubKeyCount

	// ErrInvalidSignatureCount indicates the number of signatures
	// specified for a CHECKMULTISIG is negative or greater than the number
	// of public keys.
	ErrInvalidSignatureCount

	// ErrNumberTooBig indicates a script numeric value exceeds the bounds
	// for a valid numeric value and/or its larger than expected by a
	// given command.
	ErrNumberTooBig

	// ErrVerify indicates OP_VERIFY, or an accompanying VERIFY variant,
	// failed.
	ErrVerify

	// ErrEqualVerify indicates OP_EQUALVERIFY failed.
	ErrEqualVerify

	// ErrNumEqualVerify indicates OP_NUMEQUALVERIFY failed.
	ErrNumEqualVerify

	// ErrCheckSigVerify indicates OP_CHECKSIGVERIFY failed.
	ErrCheckSigVerify

	// ErrCheckMultiSigVerify indicates OP_CHECKMULTISIGVERIFY failed.
	ErrCheckMultiSigVerify

	// ErrDisabledOpcode indicates the script contains an opcode that has
	// been disabled.
	ErrDisabledOpcode

	// ErrReservedOpcode indicates the script contains an opcode that is
	// reserved and therefore always illegal.
	ErrReservedOpcode

	// ErrMalformedPush indicates the script contains a push opcode that
	// does not have the required number of bytes following it.
	ErrMalformedPush

	// ErrInvalidStackOperation indicates an operation wanted more items on
	// the stack than were available.
	ErrInvalidStackOperation

	// ErrUnbalancedConditional indicates script contains an unbalanced
	// conditional (IF/NOTIF/ELSE/ENDIF).
	ErrUnbalancedConditional

	// ErrMinimalData indicates a data push was not minimally encoded under
	// the ScriptVerifyMinimalData flag.
	ErrMinimalData

	// ErrInvalidSigHashType indicates a signature hash type for a
	// signature was invalid.
	ErrInvalidSigHashType

	// ErrSigDER indicates a signature was not in the canonical DER
	// encoding required by the ScriptVerifyStrictEncoding or
	// ScriptVerifyDERSignatures flags.
	ErrSigDER

	// ErrSigHighS indicates a signature's S value was not in the lower
	// half of the order of the curve, required by ScriptVerifyLowS.
	ErrSigHighS

	// ErrNotPushOnly indicates a script that is required to only push data
	// to the stack performed some other operation.
	ErrNotPushOnly

	// ErrSigNullDummy indicates that the CHECKMULTISIG dummy argument was
	// not the empty byte string, required by ScriptVerifyNullDummy.
	ErrSigNullDummy

	// ErrPubKeyType indicates that a public key was not a compressed or
	// uncompressed encoding required by ScriptVerifyStrictEncoding.
	ErrPubKeyType

	// ErrCleanStack indicates that after a script and its referenced
	// redeem/witness script are executed there was more than one item on
	// the stack, required by ScriptVerifyCleanStack.
	ErrCleanStack

	// ErrNullFail indicates that signatures weren't empty on a failed
	// CHECKSIG/CHECKMULTISIG operation, required by ScriptVerifyNullFail.
	ErrNullFail

	// ErrWitnessMalformed indicates a general witness program malformation.
	ErrWitnessMalformed

	// ErrWitnessProgramWrongLength indicates a version 0 witness program
	// was neither 20 nor 32 bytes long.
	ErrWitnessProgramWrongLength

	// ErrWitnessProgramEmpty indicates a v0 witness program's witness
	// stack was empty.
	ErrWitnessProgramEmpty

	// ErrWitnessProgramMismatch indicates the hash of the witness program
	// computed from the witness stack did not match the expected program.
	ErrWitnessProgramMismatch

	// ErrWitnessUnexpected indicates a transaction input spending a
	// non-witness program output carried witness data.
	ErrWitnessUnexpected

	// ErrDiscourageUpgradableWitnessProgram indicates a witness program
	// with an unknown version was encountered while
	// ScriptVerifyDiscourageUpgradableWitnessProgram was set.
	ErrDiscourageUpgradableWitnessProgram

	// ErrWitnessPubKeyType indicates a public key used in a segwit v0
	// spend was not in the compressed format required by
	// ScriptVerifyWitnessPubKeyType.
	ErrWitnessPubKeyType

	// ErrNegativeLockTime indicates a script tried to push a negative
	// locktime onto the stack for a CLTV/CSV comparison.
	ErrNegativeLockTime

	// ErrUnsatisfiedLockTime indicates a CLTV/CSV comparison failed because
	// the referenced value had not yet been reached.
	ErrUnsatisfiedLockTime

	// ErrP2SHRedeemScriptTooLarge indicates the redeem script pushed to
	// satisfy a P2SH output exceeded MaxScriptElementSize.
	ErrP2SHRedeemScriptTooLarge

	// ErrMinimalIf indicates the argument to OP_IF or OP_NOTIF was not
	// minimally encoded as required by ScriptVerifyMinimalIf.
	ErrMinimalIf

	numErrorCodes
)

var errorCodeStrings = map[ErrorCode]string{
	ErrInternal:                           "ErrInternal",
	ErrEarlyReturn:                        "ErrEarlyReturn",
	ErrEmptyStack:                         "ErrEmptyStack",
	ErrEvalFalse:                          "ErrEvalFalse",
	ErrScriptUnfinished:                   "ErrScriptUnfinished",
	ErrInvalidProgramCounter:              "ErrInvalidProgramCounter",
	ErrScriptTooBig:                       "ErrScriptTooBig",
	ErrElementTooBig:                      "ErrElementTooBig",
	ErrTooManyOperations:                  "ErrTooManyOperations",
	ErrStackOverflow:                      "ErrStackOverflow",
	ErrInvalidPubKeyCount:                 "ErrInvalidPubKeyCount",
	ErrInvalidSignatureCount:              "ErrInvalidSignatureCount",
	ErrNumberTooBig:                       "ErrNumberTooBig",
	ErrVerify:                             "ErrVerify",
	ErrEqualVerify:                        "ErrEqualVerify",
	ErrNumEqualVerify:                     "ErrNumEqualVerify",
	ErrCheckSigVerify:                     "ErrCheckSigVerify",
	ErrCheckMultiSigVerify:                "ErrCheckMultiSigVerify",
	ErrDisabledOpcode:                     "ErrDisabledOpcode",
	ErrReservedOpcode:                     "ErrReservedOpcode",
	ErrMalformedPush:                      "ErrMalformedPush",
	ErrInvalidStackOperation:              "ErrInvalidStackOperation",
	ErrUnbalancedConditional:              "ErrUnbalancedConditional",
	ErrMinimalData:                        "ErrMinimalData",
	ErrInvalidSigHashType:                 "ErrInvalidSigHashType",
	ErrSigDER:                             "ErrSigDER",
	ErrSigHighS:                           "ErrSigHighS",
	ErrNotPushOnly:                        "ErrNotPushOnly",
	ErrSigNullDummy:                       "ErrSigNullDummy",
	ErrPubKeyType:                         "ErrPubKeyType",
	ErrCleanStack:                         "ErrCleanStack",
	ErrNullFail:                           "ErrNullFail",
	ErrWitnessMalformed:                   "ErrWitnessMalformed",
	ErrWitnessProgramWrongLength:          "ErrWitnessProgramWrongLength",
	ErrWitnessProgramEmpty:                "ErrWitnessProgramEmpty",
	ErrWitnessProgramMismatch:             "ErrWitnessProgramMismatch",
	ErrWitnessUnexpected:                  "ErrWitnessUnexpected",
	ErrDiscourageUpgradableWitnessProgram: "ErrDiscourageUpgradableWitnessProgram",
	ErrWitnessPubKeyType:                  "ErrWitnessPubKeyType",
	ErrNegativeLockTime:                   "ErrNegativeLockTime",
	ErrUnsatisfiedLockTime:                "ErrUnsatisfiedLockTime",
	ErrP2SHRedeemScriptTooLarge:           "ErrP2SHRedeemScriptTooLarge",
	ErrMinimalIf:                          "ErrMinimalIf",
}

// String returns the ErrorCode as a human readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return "Unknown ErrorCode"
}

// Error identifies a script failure. It implements the error interface and
// carries a closed ErrorCode so callers can switch on failure kind without
// string matching.
type Error struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface.
func (e Error) Error() string {
	return e.Description
}

func scriptError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}
