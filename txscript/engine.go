// Copyright (c) 2013-2019 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcdecoded/blvm/wire"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ScriptFlags is a bitmask of conditions under which a script is evaluated,
// each corresponding to a specific BIP or Bitcoin Core policy/consensus rule
//.
type ScriptFlags uint32

const (
	// ScriptBip16 defines whether the bip16 rules should be enforced.
	ScriptBip16 ScriptFlags = 1 << iota

	// ScriptVerifyStrictEncoding defines whether either a signature or a
	// public key must be of the expected canonical encoding.
	ScriptVerifyStrictEncoding

	// ScriptVerifyDERSignatures defines whether signatures are required to
	// be in strict DER format.
	ScriptVerifyDERSignatures

	// ScriptVerifyLowS defines whether the signature's S value must be in
	// the lower half of the curve order.
	ScriptVerifyLowS

	// ScriptVerifySigPushOnly defines whether a signature script is
	// required to only contain push operations.
	ScriptVerifySigPushOnly

	// ScriptVerifyMinimalData defines whether all numeric and data pushes
	// must use the minimal encoding.
	ScriptVerifyMinimalData

	// ScriptVerifyCleanStack defines whether the additional requirement
	// that the stack contain exactly one item at the conclusion of
	// execution is applied.
	ScriptVerifyCleanStack

	// ScriptVerifyNullDummy defines whether CHECKMULTISIG's extra dummy
	// argument is required to be the empty byte string.
	ScriptVerifyNullDummy

	// ScriptVerifyCheckLockTimeVerify defines whether OP_CHECKLOCKTIMEVERIFY
	// (formerly OP_NOP2) enforces its locktime rule (BIP65).
	ScriptVerifyCheckLockTimeVerify

	// ScriptVerifyCheckSequenceVerify defines whether OP_CHECKSEQUENCEVERIFY
	// (formerly OP_NOP3) enforces its relative locktime rule (BIP112).
	ScriptVerifyCheckSequenceVerify

	// ScriptVerifyWitness defines whether segregated witness (BIP141)
	// validation rules are applied.
	ScriptVerifyWitness

	// ScriptVerifyDiscourageUpgradableWitnessProgram makes witness
	// programs with an unknown version fail instead of trivially
	// succeeding.
	ScriptVerifyDiscourageUpgradableWitnessProgram

	// ScriptVerifyMinimalIf requires the argument to OP_IF/OP_NOTIF in a
	// witness v0 script to be either an empty byte array or exactly [0x01].
	ScriptVerifyMinimalIf

	// ScriptVerifyNullFail requires signatures to be empty on a failed
	// CHECKSIG or CHECKMULTISIG.
	ScriptVerifyNullFail

	// ScriptVerifyWitnessPubKeyType requires public keys in segwit v0
	// spends to be in the compressed encoding.
	ScriptVerifyWitnessPubKeyType

	// ScriptVerifyDiscourageUpgradableNops names the rule that treats the
	// unused OP_NOP1 and OP_NOP4 through OP_NOP10 opcodes as script
	// failures. No opcode handler checks it: those opcodes always execute
	// as no-ops.
	ScriptVerifyDiscourageUpgradableNops
)

// Consensus limits on script execution.
const (
	MaxScriptSize         = 10000
	MaxScriptElementSize  = 520
	MaxOpsPerScript       = 201
	MaxPubKeysPerMultiSig = 20
	MaxStackSize          = 1000
	lockTimeThreshold     = 500000000
)

// StandardVerifyFlags combines every BIP141-era consensus check with
// strict DER/low-S/null-dummy/null-fail/minimal-if/clean-stack. The
// sort-merge pipeline and the driver do not use it; they take their flags
// from chaincfg's Params.ActiveScriptFlags.
const StandardVerifyFlags = ScriptBip16 |
	ScriptVerifyDERSignatures |
	ScriptVerifyStrictEncoding |
	ScriptVerifyLowS |
	ScriptVerifySigPushOnly |
	ScriptVerifyMinimalData |
	ScriptVerifyCleanStack |
	ScriptVerifyNullDummy |
	ScriptVerifyCheckLockTimeVerify |
	ScriptVerifyCheckSequenceVerify |
	ScriptVerifyWitness |
	ScriptVerifyDiscourageUpgradableWitnessProgram |
	ScriptVerifyMinimalIf |
	ScriptVerifyNullFail |
	ScriptVerifyWitnessPubKeyType

// Condition stack values used to track nested IF/NOTIF/ELSE/ENDIF state.
const (
	OpCondFalse = 0
	OpCondTrue  = 1
	OpCondSkip  = 2
)

// sigVersion distinguishes the legacy signature hash algorithm from the
// BIP143 witness algorithm, since CHECKSIG/CHECKMULTISIG compute the
// message digest differently depending which script they execute in.
type sigVersion int

const (
	sigVersionBase    sigVersion = 0
	sigVersionWitness sigVersion = 1
)

// Engine is the virtual machine that executes Bitcoin scripts.
type Engine struct {
	scripts     [][]parsedOpcode
	scriptIdx   int
	scriptOff   int
	lastCodeSep int
	numOps      int

	dstack    stack
	astack    stack
	condStack []int

	tx    *wire.MsgTx
	txIdx int
	txIn  *wire.TxIn

	flags       ScriptFlags
	sigCache    *SigCache
	hashCache   *TxSigHashes
	inputAmount int64

	bip16           bool
	witnessVersion  int
	witnessProgram  []byte
	witness         [][]byte
	sawWitnessSpend bool

	sigVersion       sigVersion
	witnessScriptCode []byte

	savedFirstStack [][]byte
}

// hasFlag returns whether the script engine instance has the passed flag
// set.
func (vm *Engine) hasFlag(flag ScriptFlags) bool {
	return vm.flags&flag == flag
}

// isBranchExecuting returns whether the current conditional branch is
// actively executing.
func (vm *Engine) isBranchExecuting() bool {
	if len(vm.condStack) == 0 {
		return true
	}
	return vm.condStack[len(vm.condStack)-1] == OpCondTrue
}

// isWitnessVersion0 reports whether the script currently executing is a
// segwit v0 witness script or P2WPKH-derived script, which changes sighash
// and signature-encoding rules.
func (vm *Engine) isWitnessVersion0() bool {
	return vm.sigVersion == sigVersionWitness
}

// isScriptHash reports whether pkScript matches the P2SH template
// OP_HASH160 <20 bytes> OP_EQUAL (BIP16).
func isScriptHash(pkScript []byte) bool {
	return len(pkScript) == 23 &&
		pkScript[0] == OP_HASH160 &&
		pkScript[1] == 0x14 &&
		pkScript[22] == OP_EQUAL
}

// extractWitnessProgram returns the version and program of pkScript if it
// matches the witness program template OP_n <2-40 bytes>, n in [0,16]
// (BIP141, BIP141 future-version tolerant).
func extractWitnessProgram(pkScript []byte) (version int, program []byte, ok bool) {
	if len(pkScript) < 4 || len(pkScript) > 42 {
		return 0, nil, false
	}
	op := pkScript[0]
	if op != OP_0 && (op < OP_1 || op > OP_16) {
		return 0, nil, false
	}
	dataLen := int(pkScript[1])
	if dataLen < 2 || dataLen > 40 {
		return 0, nil, false
	}
	if len(pkScript) != 2+dataLen {
		return 0, nil, false
	}
	ver := 0
	if op != OP_0 {
		ver = int(op) - OP_1 + 1
	}
	return ver, pkScript[2:], true
}

// NewEngine returns a new script engine for the provided public key script,
// parent transaction, and input index. inputAmount is the value of the
// output the input spends, required for the BIP143 sighash algorithm.
func NewEngine(pkScript []byte, tx *wire.MsgTx, txIdx int, flags ScriptFlags,
	sigCache *SigCache, hashCache *TxSigHashes, inputAmount int64) (*Engine, error) {

	if txIdx < 0 || txIdx >= len(tx.TxIn) {
		return nil, scriptError(ErrInternal, fmt.Sprintf(
			"transaction input index %d is negative or out of range", txIdx))
	}
	txIn := tx.TxIn[txIdx]
	sigScript := txIn.SignatureScript

	if len(sigScript) > MaxScriptSize || len(pkScript) > MaxScriptSize {
		return nil, scriptError(ErrScriptTooBig, "script is too big")
	}

	vm := &Engine{
		tx:          tx,
		txIdx:       txIdx,
		txIn:        txIn,
		flags:       flags,
		sigCache:    sigCache,
		hashCache:   hashCache,
		inputAmount: inputAmount,
	}

	version, program, isWitness := extractWitnessProgram(pkScript)
	if isWitness && vm.hasFlag(ScriptVerifyWitness) {
		if len(sigScript) != 0 {
			return nil, scriptError(ErrWitnessMalformed,
				"native witness program must have an empty signature script")
		}
		vm.witnessVersion = version
		vm.witnessProgram = program
		vm.witness = txIn.Witness
		vm.sawWitnessSpend = true
		return vm, nil
	}

	sigPops, err := parseScript(sigScript)
	if err != nil {
		return nil, err
	}
	pkPops, err := parseScript(pkScript)
	if err != nil {
		return nil, err
	}

	if vm.hasFlag(ScriptVerifySigPushOnly) && !IsPushOnlyScript(sigScript) {
		return nil, scriptError(ErrNotPushOnly,
			"signature script is not push only")
	}

	vm.bip16 = vm.hasFlag(ScriptBip16) && isScriptHash(pkScript)
	if vm.bip16 && !IsPushOnlyScript(sigScript) {
		return nil, scriptError(ErrNotPushOnly,
			"signature script for a pay-to-script-hash output must push "+
				"only the redeem script")
	}

	vm.scripts = [][]parsedOpcode{sigPops, pkPops}
	for _, s := range vm.scripts {
		if len(s) == 0 {
			continue
		}
	}
	vm.witness = txIn.Witness
	return vm, nil
}

// Execute runs the script(s) associated with the engine to completion and
// returns an error describing why validation failed, or nil on success.
func (vm *Engine) Execute() error {
	if vm.sawWitnessSpend {
		if vm.hasFlag(ScriptVerifyDiscourageUpgradableWitnessProgram) ||
			vm.witnessVersion == 0 {
			return vm.executeWitnessProgram(vm.witnessVersion, vm.witnessProgram, vm.witness)
		}
		return nil
	}

	done, err := vm.run()
	if err != nil {
		return err
	}
	if !done {
		return scriptError(ErrScriptUnfinished, "execution did not complete")
	}

	if vm.sawWitnessSpend {
		return vm.executeWitnessProgram(vm.witnessVersion, vm.witnessProgram, vm.witness)
	}

	return vm.checkFinalStack()
}

// checkFinalStack validates that the top stack item is true and, if
// ScriptVerifyCleanStack is set, that exactly one item remains.
func (vm *Engine) checkFinalStack() error {
	if vm.dstack.Depth() < 1 {
		return scriptError(ErrEmptyStack, "stack empty at end of execution")
	}
	v, err := vm.dstack.PeekBool(0)
	if err != nil {
		return err
	}
	if !v {
		return scriptError(ErrEvalFalse, "false stack entry at end of script execution")
	}
	if vm.hasFlag(ScriptVerifyCleanStack) && vm.dstack.Depth() != 1 {
		return scriptError(ErrCleanStack, "stack contains additional unexpected items")
	}
	return nil
}

// run steps the engine until all loaded scripts have completed.
func (vm *Engine) run() (bool, error) {
	for {
		done, err := vm.Step()
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
	}
}

// Step executes the next instruction and returns whether execution has
// completed. It implements the bip16 redeem-script hand-off and p2sh-nested
// witness detection.
func (vm *Engine) Step() (bool, error) {
	if vm.scriptIdx >= len(vm.scripts) {
		return true, nil
	}

	script := vm.scripts[vm.scriptIdx]
	if vm.scriptOff >= len(script) {
		if len(vm.condStack) != 0 {
			return false, scriptError(ErrUnbalancedConditional,
				"end of script reached in conditional execution")
		}

		if vm.scriptIdx == 0 && vm.bip16 {
			vm.savedFirstStack = vm.dstack.copy()
		}

		vm.scriptIdx++
		vm.scriptOff = 0
		vm.lastCodeSep = 0

		if vm.scriptIdx == 2 && vm.bip16 {
			if vm.dstack.Depth() < 1 {
				return false, scriptError(ErrEmptyStack, "stack empty at end of script execution")
			}
			v, err := vm.dstack.PeekBool(0)
			if err != nil {
				return false, err
			}
			if !v {
				return false, scriptError(ErrEvalFalse, "false stack entry at end of script execution")
			}

			redeemBytes := vm.savedFirstStack[len(vm.savedFirstStack)-1]
			if len(redeemBytes) > MaxScriptElementSize {
				return false, scriptError(ErrP2SHRedeemScriptTooLarge,
					"redeem script exceeds maximum allowed size")
			}

			redeemPops, err := parseScript(redeemBytes)
			if err != nil {
				return false, err
			}

			version, program, isWitness := extractWitnessProgram(redeemBytes)
			if isWitness && vm.hasFlag(ScriptVerifyWitness) {
				vm.witnessVersion = version
				vm.witnessProgram = program
				vm.witness = vm.txIn.Witness
				vm.sawWitnessSpend = true
				return true, nil
			}

			vm.scripts = append(vm.scripts, redeemPops)
			vm.dstack = stack{
				stk:               append([][]byte(nil), vm.savedFirstStack[:len(vm.savedFirstStack)-1]...),
				verifyMinimalData: vm.dstack.verifyMinimalData,
			}
		}

		if vm.scriptIdx >= len(vm.scripts) {
			return true, nil
		}
		script = vm.scripts[vm.scriptIdx]
		if len(script) == 0 {
			return vm.Step()
		}
	}

	pop := &script[vm.scriptOff]

	if pop.isDisabled() {
		return false, scriptError(ErrDisabledOpcode, "attempt to execute disabled opcode")
	}
	if pop.alwaysIllegal() {
		return false, scriptError(ErrReservedOpcode, "attempt to execute reserved opcode")
	}

	if pop.opcode.value > OP_16 {
		vm.numOps++
		if vm.numOps > MaxOpsPerScript {
			return false, scriptError(ErrTooManyOperations, "exceeded max operation limit")
		}
	}
	if len(pop.data) > MaxScriptElementSize {
		return false, scriptError(ErrElementTooBig, "element exceeds max allowed size")
	}

	executing := vm.isBranchExecuting()
	if !executing && !pop.isConditional() {
		vm.scriptOff++
		return false, nil
	}

	if executing && pop.opcode.value >= 0 && pop.opcode.value <= OP_PUSHDATA4 &&
		vm.hasFlag(ScriptVerifyMinimalData) {
		if err := pop.checkMinimalDataPush(); err != nil {
			return false, err
		}
	}

	if executing || pop.isConditional() {
		if err := pop.opcode.opfunc(pop, vm); err != nil {
			return false, err
		}
	}

	if vm.dstack.Depth()+vm.astack.Depth() > MaxStackSize {
		return false, scriptError(ErrStackOverflow, "combined stack size exceeds limit")
	}

	vm.scriptOff++
	return false, nil
}

// executeWitnessProgram dispatches to the version-specific witness program
// verification rules (BIP141, BIP143).
func (vm *Engine) executeWitnessProgram(version int, program []byte, witness [][]byte) error {
	if version != 0 {
		if vm.hasFlag(ScriptVerifyDiscourageUpgradableWitnessProgram) {
			return scriptError(ErrDiscourageUpgradableWitnessProgram,
				"new witness program versions invalid for now")
		}
		return nil
	}

	switch len(program) {
	case 20:
		if len(witness) != 2 {
			return scriptError(ErrWitnessProgramMismatch,
				"witness program hash mismatch")
		}
		sig, pubKey := witness[0], witness[1]
		if !bytesEqual(Hash160(pubKey), program) {
			return scriptError(ErrWitnessProgramMismatch,
				"witness program hash mismatch")
		}
		scriptCode := payToPubKeyHashScript(program)
		return vm.verifyWitnessScript(scriptCode, [][]byte{sig, pubKey})

	case 32:
		if len(witness) == 0 {
			return scriptError(ErrWitnessProgramEmpty, "witness stack is empty")
		}
		witnessScript := witness[len(witness)-1]
		h := sha256.Sum256(witnessScript)
		if !bytesEqual(h[:], program) {
			return scriptError(ErrWitnessProgramMismatch,
				"witness program hash mismatch")
		}
		return vm.verifyWitnessScript(witnessScript, witness[:len(witness)-1])

	default:
		return scriptError(ErrWitnessProgramWrongLength,
			"witness program must be either 20 or 32 bytes")
	}
}

// verifyWitnessScript executes scriptCode in witness (BIP143) sighash mode
// with the dstack pre-loaded from the witness stack items.
func (vm *Engine) verifyWitnessScript(scriptCode []byte, items [][]byte) error {
	if len(scriptCode) > MaxScriptSize {
		return scriptError(ErrScriptTooBig, "witness script is too big")
	}
	pops, err := parseScript(scriptCode)
	if err != nil {
		return err
	}

	vm.scripts = [][]parsedOpcode{pops}
	vm.scriptIdx = 0
	vm.scriptOff = 0
	vm.lastCodeSep = 0
	vm.numOps = 0
	vm.condStack = nil
	vm.sigVersion = sigVersionWitness
	vm.witnessScriptCode = scriptCode
	vm.dstack = stack{
		stk:               append([][]byte(nil), items...),
		verifyMinimalData: vm.hasFlag(ScriptVerifyMinimalData),
	}
	vm.sawWitnessSpend = false

	done, err := vm.run()
	if err != nil {
		return err
	}
	if !done {
		return scriptError(ErrScriptUnfinished, "witness script execution did not complete")
	}
	return vm.checkFinalStack()
}

// payToPubKeyHashScript builds the canonical P2PKH script used as scriptCode
// when verifying a P2WPKH spend (BIP143).
func payToPubKeyHashScript(pkHash []byte) []byte {
	script := make([]byte, 0, 25)
	script = append(script, OP_DUP, OP_HASH160, byte(len(pkHash)))
	script = append(script, pkHash...)
	script = append(script, OP_EQUALVERIFY, OP_CHECKSIG)
	return script
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// copy returns a shallow copy of the stack's slice of items, used to
// snapshot the stack after the signature script runs for BIP16 evaluation.
func (s *stack) copy() [][]byte {
	c := make([][]byte, len(s.stk))
	copy(c, s.stk)
	return c
}

// subScript returns the portion of the currently executing script following
// the most recently executed OP_CODESEPARATOR, serialized back to bytes.
func (vm *Engine) subScript() []byte {
	script := vm.scripts[vm.scriptIdx][vm.lastCodeSep:]
	b, _ := unparseScript(script)
	return b
}

// checkSig verifies an ECDSA signature against a serialized public key
// using either the legacy or BIP143 witness sighash depending on which
// script is currently executing, honoring all the configured encoding and
// canonicalization flags.
func (vm *Engine) checkSig(fullSigBytes, pkBytes []byte) (bool, error) {
	if len(fullSigBytes) == 0 {
		return false, nil
	}

	hashType := SigHashType(fullSigBytes[len(fullSigBytes)-1])
	sigBytes := fullSigBytes[:len(fullSigBytes)-1]

	if err := hashType.checkValid(vm.flags); err != nil {
		return false, err
	}

	if vm.hasFlag(ScriptVerifyStrictEncoding) || vm.hasFlag(ScriptVerifyDERSignatures) {
		if err := checkSignatureEncoding(sigBytes, vm.flags); err != nil {
			return false, err
		}
	}
	if vm.hasFlag(ScriptVerifyStrictEncoding) || vm.isWitnessVersion0() {
		if err := checkPubKeyEncoding(pkBytes, vm); err != nil {
			return false, err
		}
	}

	var sigHash [32]byte
	if vm.isWitnessVersion0() {
		sh, err := CalcWitnessSigHash(vm.witnessScriptCode, vm.hashCache, hashType, vm.tx, vm.txIdx, vm.inputAmount)
		if err != nil {
			return false, err
		}
		sigHash = sh
	} else {
		subScript := vm.subScript()
		subScript = removeOpcodeByData(subScript, fullSigBytes)
		sh, err := calcSignatureHash(subScript, hashType, vm.tx, vm.txIdx)
		if err != nil {
			return false, err
		}
		sigHash = sh
	}

	pubKey, err := secp256k1.ParsePubKey(pkBytes)
	if err != nil {
		return false, nil
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false, nil
	}

	var valid bool
	if vm.sigCache != nil {
		valid = vm.sigCache.Verify(sigHash, sig, pubKey)
	} else {
		valid = sig.Verify(sigHash[:], pubKey)
	}

	if !valid && vm.hasFlag(ScriptVerifyNullFail) && len(sigBytes) > 0 {
		return false, scriptError(ErrNullFail, "signature not empty on failed checksig")
	}
	return valid, nil
}
