// Copyright (c) 2013-2019 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// checkSignatureEncoding checks whether a signature's encoding matches the
// strict DER rules required by ScriptVerifyDERSignatures/StrictEncoding and,
// if ScriptVerifyLowS is set, that its S value is in the lower half of the
// curve order (BIP62, BIP66).
func checkSignatureEncoding(sig []byte, flags ScriptFlags) error {
	if len(sig) == 0 {
		return nil
	}

	if flags&(ScriptVerifyDERSignatures|ScriptVerifyStrictEncoding) != 0 {
		if !isStrictDERSignature(sig) {
			return scriptError(ErrSigDER, "signature is not a strict DER signature")
		}
	}

	if flags&ScriptVerifyLowS != 0 {
		parsed, err := ecdsa.ParseDERSignature(sig)
		if err != nil {
			return scriptError(ErrSigDER, "unable to parse signature")
		}
		if parsed.S().IsOverHalfOrder() {
			return scriptError(ErrSigHighS, "signature contains an S value "+
				"that is over half the order of the curve")
		}
	}
	return nil
}

// isStrictDERSignature returns whether sig follows the strict DER encoding
// bitcoind and Bitcoin Core's consensus rules require: a single SEQUENCE
// containing exactly two INTEGERs (r, s), with no trailing garbage.
func isStrictDERSignature(sig []byte) bool {
	if len(sig) < 9 || len(sig) > 73 {
		return false
	}
	if sig[0] != 0x30 {
		return false
	}
	if int(sig[1]) != len(sig)-3 {
		return false
	}

	lenR := int(sig[3])
	if 5+lenR >= len(sig) {
		return false
	}
	lenS := int(sig[5+lenR])
	if lenR+lenS+7 != len(sig) {
		return false
	}
	if sig[2] != 0x02 {
		return false
	}
	if lenR == 0 {
		return false
	}
	if sig[4]&0x80 != 0 {
		return false
	}
	if lenR > 1 && sig[4] == 0x00 && sig[5]&0x80 == 0 {
		return false
	}
	if sig[lenR+4] != 0x02 {
		return false
	}
	if lenS == 0 {
		return false
	}
	if sig[lenR+6]&0x80 != 0 {
		return false
	}
	if lenS > 1 && sig[lenR+6] == 0x00 && sig[lenR+7]&0x80 == 0 {
		return false
	}
	return true
}

// checkPubKeyEncoding validates that pubKey is either a 33-byte compressed
// or 65-byte uncompressed secp256k1 public key and, inside a segwit v0
// script with ScriptVerifyWitnessPubKeyType set, that it is compressed.
func checkPubKeyEncoding(pubKey []byte, vm *Engine) error {
	if vm.hasFlag(ScriptVerifyStrictEncoding) {
		switch {
		case len(pubKey) == 33 && (pubKey[0] == 0x02 || pubKey[0] == 0x03):
		case len(pubKey) == 65 && pubKey[0] == 0x04:
		default:
			return scriptError(ErrPubKeyType, "unsupported public key type")
		}
	}
	if vm.isWitnessVersion0() && vm.hasFlag(ScriptVerifyWitnessPubKeyType) {
		if len(pubKey) != 33 || (pubKey[0] != 0x02 && pubKey[0] != 0x03) {
			return scriptError(ErrWitnessPubKeyType,
				"only compressed keys are accepted post-segwit")
		}
	}
	return nil
}

// ScriptBuilder provides a facility for building custom scripts, tracking
// errors encountered along the way so only the final call needs checking.
type ScriptBuilder struct {
	script []byte
	err    error
}

// NewScriptBuilder returns a new, empty ScriptBuilder.
func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{script: make([]byte, 0, 25)}
}

// AddOp appends the passed opcode to the script being built.
func (b *ScriptBuilder) AddOp(op byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	b.script = append(b.script, op)
	return b
}

// AddInt64 appends the minimal push representation of n.
func (b *ScriptBuilder) AddInt64(n int64) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	if n == 0 {
		b.script = append(b.script, OP_0)
		return b
	}
	if n == -1 || (n >= 1 && n <= 16) {
		b.script = append(b.script, byte((OP_1-1)+n))
		return b
	}
	return b.AddData(scriptNum(n).Bytes())
}

// AddData appends the minimal data push opcode(s) required to push data.
func (b *ScriptBuilder) AddData(data []byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	if len(data) > MaxScriptElementSize {
		b.err = fmt.Errorf("data push of %d bytes exceeds max allowed size", len(data))
		return b
	}

	dataLen := len(data)
	switch {
	case dataLen == 0 || (dataLen == 1 && data[0] == 0):
		b.script = append(b.script, OP_0)

	case dataLen == 1 && data[0] <= 16:
		b.script = append(b.script, byte((OP_1-1)+data[0]))

	case dataLen == 1 && data[0] == 0x81:
		b.script = append(b.script, OP_1NEGATE)

	case dataLen <= 75:
		b.script = append(b.script, byte(OP_DATA_1-1+dataLen))
		b.script = append(b.script, data...)

	case dataLen <= 255:
		b.script = append(b.script, OP_PUSHDATA1, byte(dataLen))
		b.script = append(b.script, data...)

	case dataLen <= 65535:
		buf := make([]byte, 2)
		buf[0] = byte(dataLen)
		buf[1] = byte(dataLen >> 8)
		b.script = append(b.script, OP_PUSHDATA2)
		b.script = append(b.script, buf...)
		b.script = append(b.script, data...)

	default:
		buf := make([]byte, 4)
		buf[0] = byte(dataLen)
		buf[1] = byte(dataLen >> 8)
		buf[2] = byte(dataLen >> 16)
		buf[3] = byte(dataLen >> 24)
		b.script = append(b.script, OP_PUSHDATA4)
		b.script = append(b.script, buf...)
		b.script = append(b.script, data...)
	}
	return b
}

// Script returns the script built so far, or any error recorded along the
// way.
func (b *ScriptBuilder) Script() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.script, nil
}

// PayToPubKeyHashScript builds a standard P2PKH script paying to pkHash (the
// HASH160 of a compressed or uncompressed public key).
func PayToPubKeyHashScript(pkHash []byte) ([]byte, error) {
	return NewScriptBuilder().
		AddOp(OP_DUP).AddOp(OP_HASH160).AddData(pkHash).
		AddOp(OP_EQUALVERIFY).AddOp(OP_CHECKSIG).Script()
}

// PayToScriptHashScript builds a standard P2SH script paying to scriptHash
// (the HASH160 of a redeem script).
func PayToScriptHashScript(scriptHash []byte) ([]byte, error) {
	return NewScriptBuilder().
		AddOp(OP_HASH160).AddData(scriptHash).AddOp(OP_EQUAL).Script()
}

// PayToWitnessPubKeyHashScript builds a native segwit v0 P2WPKH script.
func PayToWitnessPubKeyHashScript(pkHash []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_0).AddData(pkHash).Script()
}

// PayToWitnessScriptHashScript builds a native segwit v0 P2WSH script.
func PayToWitnessScriptHashScript(scriptHash []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_0).AddData(scriptHash).Script()
}

// getSigOpCount walks a parsed script and counts CHECKSIG and
// CHECKMULTISIG-family signature operations. When precise is true, a
// CHECKMULTISIG immediately preceded by a small-integer push uses that
// integer as the operation's true public key count instead of the
// MaxPubKeysPerMultiSig worst case.
func getSigOpCount(pops []parsedOpcode, precise bool) int {
	numSigOps := 0
	prevOp := byte(OP_INVALIDOPCODE)
	for _, pop := range pops {
		switch pop.opcode.value {
		case OP_CHECKSIG, OP_CHECKSIGVERIFY:
			numSigOps++
		case OP_CHECKMULTISIG, OP_CHECKMULTISIGVERIFY:
			if precise && prevOp >= OP_1 && prevOp <= OP_16 {
				numSigOps += int(prevOp-OP_1) + 1
			} else {
				numSigOps += MaxPubKeysPerMultiSig
			}
		}
		prevOp = pop.opcode.value
	}
	return numSigOps
}

// GetSigOpCount returns the number of signature operations in script using
// the imprecise (legacy) counting rule, under which every CHECKMULTISIG
// counts as the maximum possible number of public keys regardless of how
// many are actually provided. It never returns an error; a script that
// fails to parse simply contributes zero.
func GetSigOpCount(script []byte) int {
	pops, err := parseScript(script)
	if err != nil {
		return 0
	}
	return getSigOpCount(pops, false)
}

// GetPreciseSigOpCount returns the number of signature operations an
// input contributes, counting CHECKMULTISIG precisely. When bip16 is set and
// pkScript is pay-to-script-hash, it counts the redeem script pushed last
// by sigScript; otherwise it counts pkScript's own opcodes. A script that
// fails to parse, or an empty sigScript for a P2SH spend, contributes zero
// rather than an error.
func GetPreciseSigOpCount(sigScript, pkScript []byte, bip16 bool) int {
	if bip16 && isScriptHash(pkScript) {
		pops, err := parseScript(sigScript)
		if err != nil || len(pops) == 0 {
			return 0
		}
		redeemScript := pops[len(pops)-1].data
		redeemPops, err := parseScript(redeemScript)
		if err != nil {
			return 0
		}
		return getSigOpCount(redeemPops, true)
	}

	pops, err := parseScript(pkScript)
	if err != nil {
		return 0
	}
	return getSigOpCount(pops, true)
}
