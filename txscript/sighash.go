// Copyright (c) 2013-2019 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"fmt"

	"github.com/btcdecoded/blvm/chainhash"
	"github.com/btcdecoded/blvm/wire"
)

// SigHashType represents the hash type bits at the end of a signature,
// controlling which parts of the transaction the signature commits to
//.
type SigHashType uint32

const (
	SigHashOld          SigHashType = 0x0
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyOneCanPay SigHashType = 0x80

	sigHashMask = 0x1f
)

// checkValid validates that a sighash type's base type is one of the three
// defined values, enforced when ScriptVerifyStrictEncoding is set.
func (t SigHashType) checkValid(flags ScriptFlags) error {
	if flags&ScriptVerifyStrictEncoding == 0 {
		return nil
	}
	base := t & ^SigHashAnyOneCanPay
	if base < SigHashAll || base > SigHashSingle {
		return scriptError(ErrInvalidSigHashType,
			fmt.Sprintf("invalid signature hash type %d", t))
	}
	return nil
}

// TxSigHashes caches the three midstate hashes used by every input's
// BIP143 signature hash computation within a transaction, since they are
// identical across all of a transaction's inputs.
type TxSigHashes struct {
	HashPrevOuts chainhash.Hash
	HashSequence chainhash.Hash
	HashOutputs  chainhash.Hash
}

// NewTxSigHashes precomputes the BIP143 midstate hashes for tx.
func NewTxSigHashes(tx *wire.MsgTx) *TxSigHashes {
	return &TxSigHashes{
		HashPrevOuts: calcHashPrevOuts(tx),
		HashSequence: calcHashSequence(tx),
		HashOutputs:  calcHashOutputs(tx),
	}
}

func calcHashPrevOuts(tx *wire.MsgTx) chainhash.Hash {
	var buf bytes.Buffer
	for _, in := range tx.TxIn {
		buf.Write(in.PreviousOutPoint.Hash[:])
		var idx [4]byte
		putUint32LE(idx[:], in.PreviousOutPoint.Index)
		buf.Write(idx[:])
	}
	return chainhash.HashH(buf.Bytes())
}

func calcHashSequence(tx *wire.MsgTx) chainhash.Hash {
	var buf bytes.Buffer
	for _, in := range tx.TxIn {
		var seq [4]byte
		putUint32LE(seq[:], in.Sequence)
		buf.Write(seq[:])
	}
	return chainhash.HashH(buf.Bytes())
}

func calcHashOutputs(tx *wire.MsgTx) chainhash.Hash {
	var buf bytes.Buffer
	for _, out := range tx.TxOut {
		var val [8]byte
		putUint64LE(val[:], uint64(out.Value))
		buf.Write(val[:])
		_ = wire.WriteVarBytes(&buf, out.PkScript)
	}
	return chainhash.HashH(buf.Bytes())
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putUint64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}

// CalcWitnessSigHash computes the BIP143 signature hash for a segwit v0
// input: scriptCode is either the implied P2PKH script for a P2WPKH spend
// or the witness script itself for a P2WSH spend.
func CalcWitnessSigHash(scriptCode []byte, sigHashes *TxSigHashes, hashType SigHashType,
	tx *wire.MsgTx, idx int, amount int64) (chainhash.Hash, error) {

	if idx < 0 || idx >= len(tx.TxIn) {
		return chainhash.Hash{}, scriptError(ErrInternal,
			fmt.Sprintf("input index %d is out of range", idx))
	}

	var buf bytes.Buffer
	var scratch [4]byte

	putUint32LE(scratch[:], uint32(tx.Version))
	buf.Write(scratch[:])

	var zeroHash chainhash.Hash
	if hashType&SigHashAnyOneCanPay == 0 {
		buf.Write(sigHashes.HashPrevOuts[:])
	} else {
		buf.Write(zeroHash[:])
	}

	if hashType&SigHashAnyOneCanPay == 0 &&
		hashType&sigHashMask != SigHashSingle &&
		hashType&sigHashMask != SigHashNone {
		buf.Write(sigHashes.HashSequence[:])
	} else {
		buf.Write(zeroHash[:])
	}

	txIn := tx.TxIn[idx]
	buf.Write(txIn.PreviousOutPoint.Hash[:])
	putUint32LE(scratch[:], txIn.PreviousOutPoint.Index)
	buf.Write(scratch[:])

	_ = wire.WriteVarBytes(&buf, scriptCode)

	var val [8]byte
	putUint64LE(val[:], uint64(amount))
	buf.Write(val[:])

	putUint32LE(scratch[:], txIn.Sequence)
	buf.Write(scratch[:])

	if hashType&sigHashMask != SigHashSingle && hashType&sigHashMask != SigHashNone {
		buf.Write(sigHashes.HashOutputs[:])
	} else if hashType&sigHashMask == SigHashSingle && idx < len(tx.TxOut) {
		var outBuf bytes.Buffer
		out := tx.TxOut[idx]
		var outVal [8]byte
		putUint64LE(outVal[:], uint64(out.Value))
		outBuf.Write(outVal[:])
		_ = wire.WriteVarBytes(&outBuf, out.PkScript)
		h := chainhash.HashH(outBuf.Bytes())
		buf.Write(h[:])
	} else {
		buf.Write(zeroHash[:])
	}

	putUint32LE(scratch[:], tx.LockTime)
	buf.Write(scratch[:])

	var ht [4]byte
	putUint32LE(ht[:], uint32(hashType))
	buf.Write(ht[:])

	return chainhash.HashH(buf.Bytes()), nil
}

// removeOpcodeByData returns script with any push of data equal to
// sigBytes removed, the historical rule applied to the legacy (pre-segwit)
// signature hash subscript.
func removeOpcodeByData(script []byte, sigBytes []byte) []byte {
	pops, err := parseScript(script)
	if err != nil {
		return script
	}
	var kept []parsedOpcode
	for _, pop := range pops {
		if len(pop.data) > 0 && bytes.Equal(pop.data, sigBytes) {
			continue
		}
		kept = append(kept, pop)
	}
	out, err := unparseScript(kept)
	if err != nil {
		return script
	}
	return out
}

// calcSignatureHash computes the legacy (pre-BIP143) signature hash for
// input idx of tx against the given subscript.
func calcSignatureHash(subScript []byte, hashType SigHashType, tx *wire.MsgTx, idx int) (chainhash.Hash, error) {
	if idx < 0 || idx >= len(tx.TxIn) {
		return chainhash.Hash{}, scriptError(ErrInternal,
			fmt.Sprintf("input index %d is out of range", idx))
	}

	if hashType&sigHashMask == SigHashSingle && idx >= len(tx.TxOut) {
		var one chainhash.Hash
		one[0] = 0x01
		return one, nil
	}

	txCopy := tx.Copy()

	for i := range txCopy.TxIn {
		if i == idx {
			txCopy.TxIn[i].SignatureScript = subScript
		} else {
			txCopy.TxIn[i].SignatureScript = nil
		}
	}

	switch hashType & sigHashMask {
	case SigHashNone:
		txCopy.TxOut = txCopy.TxOut[0:0]
		for i := range txCopy.TxIn {
			if i != idx {
				txCopy.TxIn[i].Sequence = 0
			}
		}

	case SigHashSingle:
		txCopy.TxOut = txCopy.TxOut[:idx+1]
		for i := 0; i < idx; i++ {
			txCopy.TxOut[i].Value = -1
			txCopy.TxOut[i].PkScript = nil
		}
		for i := range txCopy.TxIn {
			if i != idx {
				txCopy.TxIn[i].Sequence = 0
			}
		}

	default:
		// SigHashAll and the undefined SigHashOld behave identically:
		// the entire set of outputs is committed to.
	}

	if hashType&SigHashAnyOneCanPay != 0 {
		txCopy.TxIn = []*wire.TxIn{txCopy.TxIn[idx]}
	}

	var buf bytes.Buffer
	_ = txCopy.SerializeNoWitness(&buf)
	var ht [4]byte
	putUint32LE(ht[:], uint32(hashType))
	buf.Write(ht[:])

	return chainhash.HashH(buf.Bytes()), nil
}
