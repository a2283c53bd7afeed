// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcdecoded/blvm/chainhash"
)

// TxVersion is the latest supported transaction version.
const TxVersion = 2

// MaxTxInSequenceNum is the maximum sequence number the sequence field of a
// transaction input can be.
const MaxTxInSequenceNum uint32 = 0xffffffff

// witnessMarkerByte and witnessFlagByte mark the presence of a witness
// section in the extended transaction serialization (BIP144).
const (
	witnessMarkerByte = 0x00
	witnessFlagByte   = 0x01
)

// MaxBlockWeight is the maximum allowed weight for a block, as defined by
// BIP141. The weight is a virtual size that counts witness data at a
// quarter of the rate of the rest of the serialization.
const MaxBlockWeight = 4_000_000

// WitnessScaleFactor determines the level of "discount" witness data
// receives compared to "base" data. A scale factor of 4, denotes that
// witness data is 1/4 as expensive as regular non-witness data.
const WitnessScaleFactor = 4

// MaxMessagePayload is used as a sanity check on script and transaction
// sizes read from the wire.
const MaxMessagePayload = 32 * 1024 * 1024

// OutPoint defines a data type used to track previous transaction outputs.
// Ordering is lexicographic on Hash, then numeric on Index.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutPoint returns a new transaction outpoint with the provided hash and
// index.
func NewOutPoint(hash *chainhash.Hash, index uint32) *OutPoint {
	return &OutPoint{Hash: *hash, Index: index}
}

// IsNull returns true when the outpoint names the null prevout used by a
// coinbase input: an all-zero hash and index 0xffffffff.
func (o OutPoint) IsNull() bool {
	return o.Index == ^uint32(0) && o.Hash == (chainhash.Hash{})
}

// Less reports whether o sorts before other under the total order
// defines: lexicographic on the 32-byte hash, then numeric on the index.
func (o OutPoint) Less(other OutPoint) bool {
	if cmp := bytes.Compare(o.Hash[:], other.Hash[:]); cmp != 0 {
		return cmp < 0
	}
	return o.Index < other.Index
}

func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash, o.Index)
}

// TxIn defines a transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
	Witness          TxWitness
}

// SerializeSize returns the number of bytes the input would occupy in the
// stripped (non-witness) serialization.
func (t *TxIn) SerializeSize() int {
	return 40 + VarIntSerializeSize(uint64(len(t.SignatureScript))) + len(t.SignatureScript)
}

// HasWitness reports whether the input carries a non-empty witness stack.
func (t *TxIn) HasWitness() bool {
	return len(t.Witness) > 0
}

// TxWitness defines the witness for a transaction input: an ordered stack
// of byte strings, travelling alongside the transaction but excluded from
// the txid.
type TxWitness [][]byte

// SerializeSize returns the number of bytes the witness stack occupies,
// including its own element-count prefix.
func (w TxWitness) SerializeSize() int {
	n := VarIntSerializeSize(uint64(len(w)))
	for _, item := range w {
		n += VarIntSerializeSize(uint64(len(item))) + len(item)
	}
	return n
}

// TxOut defines a transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// SerializeSize returns the number of bytes the output occupies.
func (t *TxOut) SerializeSize() int {
	return 8 + VarIntSerializeSize(uint64(len(t.PkScript))) + len(t.PkScript)
}

// MsgTx implements a Bitcoin transaction message.
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// NewMsgTx returns a new transaction message with the given version.
func NewMsgTx(version int32) *MsgTx {
	return &MsgTx{Version: version}
}

// HasWitness reports whether any input of the transaction carries witness
// data; such a transaction must use the extended (marker/flag) encoding.
func (msg *MsgTx) HasWitness() bool {
	for _, txIn := range msg.TxIn {
		if txIn.HasWitness() {
			return true
		}
	}
	return false
}

// IsCoinBase determines whether the transaction is a coinbase transaction: a
// single input whose previous outpoint is null.
func (msg *MsgTx) IsCoinBase() bool {
	return len(msg.TxIn) == 1 && msg.TxIn[0].PreviousOutPoint.IsNull()
}

// Copy creates a deep copy of the transaction so it may be mutated (for
// sighash rewriting, see txscript) without affecting the original.
func (msg *MsgTx) Copy() *MsgTx {
	newTx := MsgTx{
		Version:  msg.Version,
		TxIn:     make([]*TxIn, 0, len(msg.TxIn)),
		TxOut:    make([]*TxOut, 0, len(msg.TxOut)),
		LockTime: msg.LockTime,
	}

	for _, oldTxIn := range msg.TxIn {
		newTxIn := TxIn{
			PreviousOutPoint: oldTxIn.PreviousOutPoint,
			Sequence:         oldTxIn.Sequence,
		}
		if oldTxIn.SignatureScript != nil {
			newTxIn.SignatureScript = append([]byte(nil), oldTxIn.SignatureScript...)
		}
		if len(oldTxIn.Witness) > 0 {
			newTxIn.Witness = make(TxWitness, len(oldTxIn.Witness))
			for i, item := range oldTxIn.Witness {
				newTxIn.Witness[i] = append([]byte(nil), item...)
			}
		}
		newTx.TxIn = append(newTx.TxIn, &newTxIn)
	}

	for _, oldTxOut := range msg.TxOut {
		newTxOut := TxOut{Value: oldTxOut.Value}
		if oldTxOut.PkScript != nil {
			newTxOut.PkScript = append([]byte(nil), oldTxOut.PkScript...)
		}
		newTx.TxOut = append(newTx.TxOut, &newTxOut)
	}

	return &newTx
}

// SerializeSizeStripped returns the number of bytes the transaction would
// occupy when serialized without any witness data.
func (msg *MsgTx) SerializeSizeStripped() int {
	n := 8 // version + locktime
	n += VarIntSerializeSize(uint64(len(msg.TxIn)))
	for _, txIn := range msg.TxIn {
		n += txIn.SerializeSize()
	}
	n += VarIntSerializeSize(uint64(len(msg.TxOut)))
	for _, txOut := range msg.TxOut {
		n += txOut.SerializeSize()
	}
	return n
}

// SerializeSize returns the number of bytes the transaction would occupy
// using the extended (witness) encoding when it carries witness data, and
// the stripped encoding otherwise.
func (msg *MsgTx) SerializeSize() int {
	n := msg.SerializeSizeStripped()
	if msg.HasWitness() {
		n += 2 // marker + flag
		for _, txIn := range msg.TxIn {
			n += txIn.Witness.SerializeSize()
		}
	}
	return n
}

// Weight returns the transaction's weight as defined by BIP141: three times
// the stripped size plus the full (witness-inclusive) size.
func (msg *MsgTx) Weight() int64 {
	return int64(msg.SerializeSizeStripped())*(WitnessScaleFactor-1) + int64(msg.SerializeSize())
}

func writeOutPoint(w io.Writer, op *OutPoint) error {
	if _, err := w.Write(op.Hash[:]); err != nil {
		return err
	}
	return binarySerializer4(w, op.Index)
}

func readOutPoint(r io.Reader, op *OutPoint) error {
	if _, err := io.ReadFull(r, op.Hash[:]); err != nil {
		return err
	}
	idx, err := binaryDeserializer4(r)
	if err != nil {
		return err
	}
	op.Index = idx
	return nil
}

func writeTxIn(w io.Writer, ti *TxIn) error {
	if err := writeOutPoint(w, &ti.PreviousOutPoint); err != nil {
		return err
	}
	if err := WriteVarBytes(w, ti.SignatureScript); err != nil {
		return err
	}
	return binarySerializer4(w, ti.Sequence)
}

func readTxIn(r io.Reader, ti *TxIn) error {
	if err := readOutPoint(r, &ti.PreviousOutPoint); err != nil {
		return err
	}
	script, err := ReadVarBytes(r, MaxMessagePayload, "signatureScript")
	if err != nil {
		return err
	}
	ti.SignatureScript = script
	seq, err := binaryDeserializer4(r)
	if err != nil {
		return err
	}
	ti.Sequence = seq
	return nil
}

func writeTxOut(w io.Writer, to *TxOut) error {
	if err := binarySerializer8(w, uint64(to.Value)); err != nil {
		return err
	}
	return WriteVarBytes(w, to.PkScript)
}

func readTxOut(r io.Reader, to *TxOut) error {
	v, err := binaryDeserializer8(r)
	if err != nil {
		return err
	}
	to.Value = int64(v)
	script, err := ReadVarBytes(r, MaxMessagePayload, "pkScript")
	if err != nil {
		return err
	}
	to.PkScript = script
	return nil
}

func writeTxWitness(w io.Writer, wit TxWitness) error {
	if err := WriteVarInt(w, uint64(len(wit))); err != nil {
		return err
	}
	for _, item := range wit {
		if err := WriteVarBytes(w, item); err != nil {
			return err
		}
	}
	return nil
}

func readTxWitness(r io.Reader) (TxWitness, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	wit := make(TxWitness, count)
	for i := range wit {
		item, err := ReadVarBytes(r, MaxMessagePayload, "witnessItem")
		if err != nil {
			return nil, err
		}
		wit[i] = item
	}
	return wit, nil
}

// SerializeNoWitness writes the stripped (non-witness) encoding used for
// txid computation and legacy sighash serialization.
func (msg *MsgTx) SerializeNoWitness(w io.Writer) error {
	if err := binarySerializer4(w, uint32(msg.Version)); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if err := writeTxIn(w, ti); err != nil {
			return err
		}
	}
	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		if err := writeTxOut(w, to); err != nil {
			return err
		}
	}
	return binarySerializer4(w, msg.LockTime)
}

// Serialize writes the transaction to w using the extended (marker/flag +
// witness) encoding when the transaction carries witness data, and the
// stripped encoding otherwise.
func (msg *MsgTx) Serialize(w io.Writer) error {
	hasWitness := msg.HasWitness()
	if !hasWitness {
		return msg.SerializeNoWitness(w)
	}

	if err := binarySerializer4(w, uint32(msg.Version)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{witnessMarkerByte, witnessFlagByte}); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if err := writeTxIn(w, ti); err != nil {
			return err
		}
	}
	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		if err := writeTxOut(w, to); err != nil {
			return err
		}
	}
	for _, ti := range msg.TxIn {
		if err := writeTxWitness(w, ti.Witness); err != nil {
			return err
		}
	}
	return binarySerializer4(w, msg.LockTime)
}

// Deserialize reads a transaction from r, auto-detecting the extended
// (witness) encoding via the marker/flag bytes per BIP144.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	version, err := binaryDeserializer4(r)
	if err != nil {
		return err
	}
	msg.Version = int32(version)

	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}

	var txInCount uint64
	hasWitness := false
	if b[0] == witnessMarkerByte {
		var flag [1]byte
		if _, err := io.ReadFull(r, flag[:]); err != nil {
			return err
		}
		if flag[0] != witnessFlagByte {
			return fmt.Errorf("witness tx but flag byte is %#x, expected %#x",
				flag[0], witnessFlagByte)
		}
		hasWitness = true
		txInCount, err = ReadVarInt(r)
		if err != nil {
			return err
		}
	} else {
		// b[0] is the first byte of the input-count varint; replay it.
		txInCount, err = readVarIntContinue(r, b[0])
		if err != nil {
			return err
		}
	}

	msg.TxIn = make([]*TxIn, txInCount)
	for i := range msg.TxIn {
		ti := new(TxIn)
		if err := readTxIn(r, ti); err != nil {
			return err
		}
		msg.TxIn[i] = ti
	}

	txOutCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	msg.TxOut = make([]*TxOut, txOutCount)
	for i := range msg.TxOut {
		to := new(TxOut)
		if err := readTxOut(r, to); err != nil {
			return err
		}
		msg.TxOut[i] = to
	}

	if hasWitness {
		for _, ti := range msg.TxIn {
			wit, err := readTxWitness(r)
			if err != nil {
				return err
			}
			ti.Witness = wit
		}
	}

	lockTime, err := binaryDeserializer4(r)
	if err != nil {
		return err
	}
	msg.LockTime = lockTime
	return nil
}

// readVarIntContinue finishes decoding a CompactSize varint whose
// discriminant byte has already been consumed as first.
func readVarIntContinue(r io.Reader, first byte) (uint64, error) {
	switch first {
	case 0xfd:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(b[0]) | uint64(b[1])<<8, nil
	case 0xfe:
		v, err := binaryDeserializer4(r)
		return uint64(v), err
	case 0xff:
		return binaryDeserializer8(r)
	default:
		return uint64(first), nil
	}
}

// TxHash computes the transaction identifier (txid): the double-SHA256 of
// the stripped (non-witness) serialization. Witness bytes never affect it.
func (msg *MsgTx) TxHash() chainhash.Hash {
	var buf bytes.Buffer
	buf.Grow(msg.SerializeSizeStripped())
	_ = msg.SerializeNoWitness(&buf)
	return chainhash.HashH(buf.Bytes())
}

// WitnessHash computes the witness identifier (wtxid): the double-SHA256 of
// the extended (witness-inclusive) serialization. For a coinbase
// transaction the wtxid is defined to be all-zeros.
func (msg *MsgTx) WitnessHash() chainhash.Hash {
	if msg.IsCoinBase() {
		return chainhash.Hash{}
	}
	var buf bytes.Buffer
	buf.Grow(msg.SerializeSize())
	_ = msg.Serialize(&buf)
	return chainhash.HashH(buf.Bytes())
}
