// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

// opcodeDisabled is a common handler for disabled opcodes. It returns an
// appropriate error indicating the opcode is disabled.
func opcodeDisabled(op *parsedOpcode, vm *Engine) error {
	return scriptError(ErrDisabledOpcode, "attempt to execute disabled opcode "+op.opcode.name)
}

// opcodeReserved is a common handler for reserved opcodes, which are always
// illegal to execute.
func opcodeReserved(op *parsedOpcode, vm *Engine) error {
	return scriptError(ErrReservedOpcode, "attempt to execute reserved opcode "+op.opcode.name)
}

// opcodeInvalid is a common handler for invalid opcodes.
func opcodeInvalid(op *parsedOpcode, vm *Engine) error {
	return scriptError(ErrReservedOpcode, "attempt to execute invalid opcode "+op.opcode.name)
}

// opcodeNop is a common handler for OP_NOP family opcodes that simply do
// nothing. It does not read ScriptVerifyDiscourageUpgradableNops, and no
// other handler does either, so the upgradable NOPs never fail.
func opcodeNop(op *parsedOpcode, vm *Engine) error {
	return nil
}

// opcodePushData pushes the data associated with the opcode to the stack.
func opcodePushData(op *parsedOpcode, vm *Engine) error {
	vm.dstack.PushByteArray(op.data)
	return nil
}

// opcode1Negate pushes -1 onto the stack.
func opcode1Negate(op *parsedOpcode, vm *Engine) error {
	vm.dstack.PushInt(scriptNum(-1))
	return nil
}

func opcodeIf(op *parsedOpcode, vm *Engine) error {
	condVal := OpCondFalse
	if vm.isBranchExecuting() {
		so, err := vm.dstack.PopByteArray()
		if err != nil {
			return err
		}
		if vm.isWitnessVersion0() && vm.hasFlag(ScriptVerifyMinimalIf) {
			if len(so) > 1 || (len(so) == 1 && so[0] != 1) {
				return scriptError(ErrMinimalIf, "OP_IF/OP_NOTIF argument must be minimal")
			}
		}
		if asBool(so) {
			condVal = OpCondTrue
		}
	} else {
		condVal = OpCondSkip
	}
	vm.condStack = append(vm.condStack, condVal)
	return nil
}

func opcodeNotIf(op *parsedOpcode, vm *Engine) error {
	condVal := OpCondFalse
	if vm.isBranchExecuting() {
		so, err := vm.dstack.PopByteArray()
		if err != nil {
			return err
		}
		if vm.isWitnessVersion0() && vm.hasFlag(ScriptVerifyMinimalIf) {
			if len(so) > 1 || (len(so) == 1 && so[0] != 1) {
				return scriptError(ErrMinimalIf, "OP_IF/OP_NOTIF argument must be minimal")
			}
		}
		if !asBool(so) {
			condVal = OpCondTrue
		}
	} else {
		condVal = OpCondSkip
	}
	vm.condStack = append(vm.condStack, condVal)
	return nil
}

func opcodeElse(op *parsedOpcode, vm *Engine) error {
	if len(vm.condStack) == 0 {
		return scriptError(ErrUnbalancedConditional,
			"encountered opcode else with no matching if")
	}

	idx := len(vm.condStack) - 1
	switch vm.condStack[idx] {
	case OpCondTrue:
		vm.condStack[idx] = OpCondFalse
	case OpCondFalse:
		vm.condStack[idx] = OpCondTrue
	case OpCondSkip:
	}
	return nil
}

func opcodeEndif(op *parsedOpcode, vm *Engine) error {
	if len(vm.condStack) == 0 {
		return scriptError(ErrUnbalancedConditional,
			"encountered opcode endif with no matching if")
	}
	vm.condStack = vm.condStack[:len(vm.condStack)-1]
	return nil
}

func abstractVerify(op *parsedOpcode, vm *Engine, c ErrorCode) error {
	verified, err := vm.dstack.PopBool()
	if err != nil {
		return err
	}
	if !verified {
		return scriptError(c, ""+op.opcode.name+" failed")
	}
	return nil
}

func opcodeVerify(op *parsedOpcode, vm *Engine) error {
	return abstractVerify(op, vm, ErrVerify)
}

func opcodeReturn(op *parsedOpcode, vm *Engine) error {
	return scriptError(ErrEarlyReturn, "script called OP_RETURN")
}

func opcodeToAltStack(op *parsedOpcode, vm *Engine) error {
	so, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	vm.astack.PushByteArray(so)
	return nil
}

func opcodeFromAltStack(op *parsedOpcode, vm *Engine) error {
	so, err := vm.astack.PopByteArray()
	if err != nil {
		return err
	}
	vm.dstack.PushByteArray(so)
	return nil
}

func opcode2Drop(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.DropN(2)
}

func opcode2Dup(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.DupN(2)
}

func opcode3Dup(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.DupN(3)
}

func opcode2Over(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.OverN(2)
}

func opcode2Rot(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.RotN(2)
}

func opcode2Swap(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.SwapN(2)
}

func opcodeIfDup(op *parsedOpcode, vm *Engine) error {
	so, err := vm.dstack.PeekByteArray(0)
	if err != nil {
		return err
	}
	if asBool(so) {
		vm.dstack.PushByteArray(so)
	}
	return nil
}

func opcodeDepth(op *parsedOpcode, vm *Engine) error {
	vm.dstack.PushInt(scriptNum(vm.dstack.Depth()))
	return nil
}

func opcodeDrop(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.DropN(1)
}

func opcodeDup(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.DupN(1)
}

func opcodeNip(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.NipN(1)
}

func opcodeOver(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.OverN(1)
}

func opcodePick(op *parsedOpcode, vm *Engine) error {
	val, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	return vm.dstack.PickN(int32(val))
}

func opcodeRoll(op *parsedOpcode, vm *Engine) error {
	val, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	return vm.dstack.RollN(int32(val))
}

func opcodeRot(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.RotN(1)
}

func opcodeSwap(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.SwapN(1)
}

func opcodeTuck(op *parsedOpcode, vm *Engine) error {
	return vm.dstack.Tuck()
}

func opcodeSize(op *parsedOpcode, vm *Engine) error {
	so, err := vm.dstack.PeekByteArray(0)
	if err != nil {
		return err
	}
	vm.dstack.PushInt(scriptNum(len(so)))
	return nil
}

func opcodeEqual(op *parsedOpcode, vm *Engine) error {
	a, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	b, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(bytes.Equal(a, b))
	return nil
}

func opcodeEqualVerify(op *parsedOpcode, vm *Engine) error {
	if err := opcodeEqual(op, vm); err != nil {
		return err
	}
	return abstractVerify(op, vm, ErrEqualVerify)
}

func opcode1Add(op *parsedOpcode, vm *Engine) error {
	n, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushInt(n + 1)
	return nil
}

func opcode1Sub(op *parsedOpcode, vm *Engine) error {
	n, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushInt(n - 1)
	return nil
}

func opcodeNegate(op *parsedOpcode, vm *Engine) error {
	n, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushInt(-n)
	return nil
}

func opcodeAbs(op *parsedOpcode, vm *Engine) error {
	n, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	if n < 0 {
		n = -n
	}
	vm.dstack.PushInt(n)
	return nil
}

func opcodeNot(op *parsedOpcode, vm *Engine) error {
	n, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(n == 0)
	return nil
}

func opcode0NotEqual(op *parsedOpcode, vm *Engine) error {
	n, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(n != 0)
	return nil
}

func opcodeAdd(op *parsedOpcode, vm *Engine) error {
	b, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushInt(a + b)
	return nil
}

func opcodeSub(op *parsedOpcode, vm *Engine) error {
	b, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushInt(a - b)
	return nil
}

func opcodeBoolAnd(op *parsedOpcode, vm *Engine) error {
	b, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(a != 0 && b != 0)
	return nil
}

func opcodeBoolOr(op *parsedOpcode, vm *Engine) error {
	b, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(a != 0 || b != 0)
	return nil
}

func opcodeNumEqual(op *parsedOpcode, vm *Engine) error {
	b, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(a == b)
	return nil
}

func opcodeNumEqualVerify(op *parsedOpcode, vm *Engine) error {
	if err := opcodeNumEqual(op, vm); err != nil {
		return err
	}
	return abstractVerify(op, vm, ErrNumEqualVerify)
}

func opcodeNumNotEqual(op *parsedOpcode, vm *Engine) error {
	b, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(a != b)
	return nil
}

func opcodeLessThan(op *parsedOpcode, vm *Engine) error {
	b, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(a < b)
	return nil
}

func opcodeGreaterThan(op *parsedOpcode, vm *Engine) error {
	b, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(a > b)
	return nil
}

func opcodeLessThanOrEqual(op *parsedOpcode, vm *Engine) error {
	b, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(a <= b)
	return nil
}

func opcodeGreaterThanOrEqual(op *parsedOpcode, vm *Engine) error {
	b, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(a >= b)
	return nil
}

func opcodeMin(op *parsedOpcode, vm *Engine) error {
	b, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	if a < b {
		vm.dstack.PushInt(a)
	} else {
		vm.dstack.PushInt(b)
	}
	return nil
}

func opcodeMax(op *parsedOpcode, vm *Engine) error {
	b, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	if a > b {
		vm.dstack.PushInt(a)
	} else {
		vm.dstack.PushInt(b)
	}
	return nil
}

func opcodeWithin(op *parsedOpcode, vm *Engine) error {
	maxVal, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	minVal, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	x, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(x >= minVal && x < maxVal)
	return nil
}

func opcodeRipemd160(op *parsedOpcode, vm *Engine) error {
	buf, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	h := ripemd160.New()
	h.Write(buf)
	vm.dstack.PushByteArray(h.Sum(nil))
	return nil
}

func opcodeSha1(op *parsedOpcode, vm *Engine) error {
	buf, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	hash := sha1.Sum(buf)
	vm.dstack.PushByteArray(hash[:])
	return nil
}

func opcodeSha256(op *parsedOpcode, vm *Engine) error {
	buf, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	hash := sha256.Sum256(buf)
	vm.dstack.PushByteArray(hash[:])
	return nil
}

// Hash160 computes RIPEMD160(SHA256(b)), Bitcoin's standard public-key and
// script hash.
func Hash160(buf []byte) []byte {
	sha := sha256.Sum256(buf)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}

func opcodeHash160(op *parsedOpcode, vm *Engine) error {
	buf, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	vm.dstack.PushByteArray(Hash160(buf))
	return nil
}

func opcodeHash256(op *parsedOpcode, vm *Engine) error {
	buf, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	first := sha256.Sum256(buf)
	second := sha256.Sum256(first[:])
	vm.dstack.PushByteArray(second[:])
	return nil
}

func opcodeCodeSeparator(op *parsedOpcode, vm *Engine) error {
	vm.lastCodeSep = vm.scriptOff
	return nil
}

func opcodeCheckSig(op *parsedOpcode, vm *Engine) error {
	pkBytes, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	sigBytes, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}

	ok, err := vm.checkSig(sigBytes, pkBytes)
	if err != nil {
		return err
	}
	vm.dstack.PushBool(ok)
	return nil
}

func opcodeCheckSigVerify(op *parsedOpcode, vm *Engine) error {
	if err := opcodeCheckSig(op, vm); err != nil {
		return err
	}
	return abstractVerify(op, vm, ErrCheckSigVerify)
}

func opcodeCheckMultiSig(op *parsedOpcode, vm *Engine) error {
	numKeys, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	numPubKeys := int(numKeys.Int32())
	if numPubKeys < 0 || numPubKeys > MaxPubKeysPerMultiSig {
		return scriptError(ErrInvalidPubKeyCount, "invalid pubkey count")
	}
	vm.numOps += numPubKeys
	if vm.numOps > MaxOpsPerScript {
		return scriptError(ErrTooManyOperations, "too many operations")
	}

	pubKeys := make([][]byte, 0, numPubKeys)
	for i := 0; i < numPubKeys; i++ {
		pk, err := vm.dstack.PopByteArray()
		if err != nil {
			return err
		}
		pubKeys = append(pubKeys, pk)
	}

	numSigs, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	numSignatures := int(numSigs.Int32())
	if numSignatures < 0 || numSignatures > numPubKeys {
		return scriptError(ErrInvalidSignatureCount, "invalid signature count")
	}

	signatures := make([][]byte, 0, numSignatures)
	for i := 0; i < numSignatures; i++ {
		sig, err := vm.dstack.PopByteArray()
		if err != nil {
			return err
		}
		signatures = append(signatures, sig)
	}

	dummy, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	if vm.hasFlag(ScriptVerifyNullDummy) && len(dummy) != 0 {
		return scriptError(ErrSigNullDummy,
			"multisig dummy argument is not the empty string")
	}

	success := true
	pkIdx := 0
	sigIdx := 0
	for sigIdx < numSignatures {
		if numSignatures-sigIdx > numPubKeys-pkIdx {
			success = false
			break
		}
		ok, err := vm.checkSig(signatures[sigIdx], pubKeys[pkIdx])
		if err != nil {
			return err
		}
		if ok {
			sigIdx++
		}
		pkIdx++
	}
	if sigIdx < numSignatures {
		success = false
	}

	if !success && vm.hasFlag(ScriptVerifyNullFail) {
		for _, sig := range signatures {
			if len(sig) > 0 {
				return scriptError(ErrNullFail,
					"not all signatures empty on failed checkmultisig")
			}
		}
	}

	vm.dstack.PushBool(success)
	return nil
}

func opcodeCheckMultiSigVerify(op *parsedOpcode, vm *Engine) error {
	if err := opcodeCheckMultiSig(op, vm); err != nil {
		return err
	}
	return abstractVerify(op, vm, ErrCheckMultiSigVerify)
}

func opcodeCheckLockTimeVerify(op *parsedOpcode, vm *Engine) error {
	if vm.tx == nil || !vm.hasFlag(ScriptVerifyCheckLockTimeVerify) {
		return nil
	}

	so, err := vm.dstack.PeekInt(0)
	if err != nil {
		return err
	}
	if so < 0 {
		return scriptError(ErrNegativeLockTime,
			"negative lock time")
	}

	lockTime := int64(so)
	const threshold = 500000000
	txLockTime := int64(vm.tx.LockTime)
	if !((lockTime < threshold && txLockTime < threshold) ||
		(lockTime >= threshold && txLockTime >= threshold)) {
		return scriptError(ErrUnsatisfiedLockTime,
			"mismatched locktime types")
	}
	if lockTime > txLockTime {
		return scriptError(ErrUnsatisfiedLockTime,
			"locktime requirement not satisfied")
	}

	if vm.txIn.Sequence == 0xffffffff {
		return scriptError(ErrUnsatisfiedLockTime,
			"transaction input is finalized")
	}
	return nil
}

func opcodeCheckSequenceVerify(op *parsedOpcode, vm *Engine) error {
	if vm.tx == nil || !vm.hasFlag(ScriptVerifyCheckSequenceVerify) {
		return nil
	}

	so, err := vm.dstack.PeekInt(0)
	if err != nil {
		return err
	}
	if so < 0 {
		return scriptError(ErrNegativeLockTime,
			"negative sequence")
	}

	sequence := int64(so)
	const sequenceLockTimeDisabled = 1 << 31
	if sequence&sequenceLockTimeDisabled != 0 {
		return nil
	}

	if vm.tx.Version < 2 {
		return scriptError(ErrUnsatisfiedLockTime,
			"transaction version too low for CSV")
	}
	txSequence := int64(vm.txIn.Sequence)
	if txSequence&sequenceLockTimeDisabled != 0 {
		return scriptError(ErrUnsatisfiedLockTime,
			"transaction sequence has disable bit set")
	}

	const sequenceLockTimeTypeFlag = 1 << 22
	const sequenceLockTimeMask = 0x0000ffff
	if (sequence & sequenceLockTimeTypeFlag) != (txSequence & sequenceLockTimeTypeFlag) {
		return scriptError(ErrUnsatisfiedLockTime, "sequence type mismatch")
	}
	if (sequence & sequenceLockTimeMask) > (txSequence & sequenceLockTimeMask) {
		return scriptError(ErrUnsatisfiedLockTime,
			"sequence requirement not satisfied")
	}
	return nil
}
