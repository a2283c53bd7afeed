// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sortmerge implements the six-phase out-of-core differential
// pipeline: it turns random UTXO lookups over the full chain into
// sequential, streaming I/O by extracting every input and output
// reference to disk, externally sorting each by a shared key, merge-
// joining them into a per-input prevout stream, re-sorting that stream
// into spend order, and finally re-verifying every historical script
// against it. Every phase is idempotent given identical input files, so
// the pipeline is resumable at a phase boundary.
package sortmerge

import (
	"encoding/binary"
	"fmt"
	"io"
)

// InputRecordSize is the fixed size in bytes of a Phase 1 input record
//: 32-byte prevout txid, 4-byte prevout index, 4-byte spending
// height, 4-byte spending tx index, 4-byte spending input index.
const InputRecordSize = 48

// InputRecord is the Phase 1 record emitted for every non-coinbase input
// in every block.
type InputRecord struct {
	PrevoutTxid   [32]byte
	PrevoutIndex  uint32
	SpendHeight   uint32
	SpendTxIndex  uint32
	SpendInputIdx uint32
}

// SortKey returns the key InputRecords are externally sorted by: the
// prevout they reference.
func (r InputRecord) SortKey() OutpointKey {
	return OutpointKey{Txid: r.PrevoutTxid, Index: r.PrevoutIndex}
}

// Encode writes the record's fixed 48-byte wire form to w.
func (r InputRecord) Encode(w io.Writer) error {
	var buf [InputRecordSize]byte
	copy(buf[0:32], r.PrevoutTxid[:])
	binary.LittleEndian.PutUint32(buf[32:36], r.PrevoutIndex)
	binary.LittleEndian.PutUint32(buf[36:40], r.SpendHeight)
	binary.LittleEndian.PutUint32(buf[40:44], r.SpendTxIndex)
	binary.LittleEndian.PutUint32(buf[44:48], r.SpendInputIdx)
	_, err := w.Write(buf[:])
	return err
}

// DecodeInputRecord reads one fixed-size InputRecord from r.
func DecodeInputRecord(r io.Reader) (InputRecord, error) {
	var buf [InputRecordSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return InputRecord{}, err
	}
	var rec InputRecord
	copy(rec.PrevoutTxid[:], buf[0:32])
	rec.PrevoutIndex = binary.LittleEndian.Uint32(buf[32:36])
	rec.SpendHeight = binary.LittleEndian.Uint32(buf[36:40])
	rec.SpendTxIndex = binary.LittleEndian.Uint32(buf[40:44])
	rec.SpendInputIdx = binary.LittleEndian.Uint32(buf[44:48])
	return rec, nil
}

// OutpointKey is the sort key shared by InputRecord and OutputRecord:
// lexicographic on the 32-byte txid, then numeric on the output index
//.
type OutpointKey struct {
	Txid  [32]byte
	Index uint32
}

// Less reports whether k sorts before other.
func (k OutpointKey) Less(other OutpointKey) bool {
	for i := range k.Txid {
		if k.Txid[i] != other.Txid[i] {
			return k.Txid[i] < other.Txid[i]
		}
	}
	return k.Index < other.Index
}

// Equal reports whether k and other name the same outpoint.
func (k OutpointKey) Equal(other OutpointKey) bool {
	return k.Txid == other.Txid && k.Index == other.Index
}

// OutputRecord is the Phase 3 record emitted for a transaction output that
// is (or may be) later spent.
type OutputRecord struct {
	Txid        [32]byte
	OutputIndex uint32
	Height      uint32
	IsCoinbase  bool
	Value       int64
	PkScript    []byte
}

// SortKey returns the outpoint this output creates.
func (r OutputRecord) SortKey() OutpointKey {
	return OutpointKey{Txid: r.Txid, Index: r.OutputIndex}
}

// EncodedSize returns the number of bytes Encode writes, including the
// leading 4-byte length prefix.
func (r OutputRecord) EncodedSize() int {
	return 4 + 32 + 4 + 4 + 1 + 8 + 4 + len(r.PkScript)
}

// Encode writes the record's length-prefixed wire form to w.
func (r OutputRecord) Encode(w io.Writer) error {
	body := r.EncodedSize() - 4
	buf := make([]byte, 4+body)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(body))
	copy(buf[4:36], r.Txid[:])
	binary.LittleEndian.PutUint32(buf[36:40], r.OutputIndex)
	binary.LittleEndian.PutUint32(buf[40:44], r.Height)
	if r.IsCoinbase {
		buf[44] = 1
	}
	binary.LittleEndian.PutUint64(buf[45:53], uint64(r.Value))
	binary.LittleEndian.PutUint32(buf[53:57], uint32(len(r.PkScript)))
	copy(buf[57:], r.PkScript)
	_, err := w.Write(buf)
	return err
}

// DecodeOutputRecord reads one length-prefixed OutputRecord from r.
func DecodeOutputRecord(r io.Reader) (OutputRecord, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return OutputRecord{}, err
	}
	body := binary.LittleEndian.Uint32(lenBuf[:])
	if body < 53 {
		return OutputRecord{}, fmt.Errorf("output record body length %d is smaller than the fixed fields", body)
	}
	buf := make([]byte, body)
	if _, err := io.ReadFull(r, buf); err != nil {
		return OutputRecord{}, err
	}

	var rec OutputRecord
	copy(rec.Txid[:], buf[0:32])
	rec.OutputIndex = binary.LittleEndian.Uint32(buf[32:36])
	rec.Height = binary.LittleEndian.Uint32(buf[36:40])
	rec.IsCoinbase = buf[40] != 0
	rec.Value = int64(binary.LittleEndian.Uint64(buf[41:49]))
	scriptLen := binary.LittleEndian.Uint32(buf[49:53])
	if uint32(len(buf)-53) != scriptLen {
		return OutputRecord{}, fmt.Errorf("output record script length mismatch: header says %d, body has %d", scriptLen, len(buf)-53)
	}
	rec.PkScript = append([]byte(nil), buf[53:]...)
	return rec, nil
}

// JoinedKey is the sort key joined records carry after Phase 4: the
// spending location, numeric on each field.
type JoinedKey struct {
	Height   uint32
	TxIndex  uint32
	InputIdx uint32
}

// Less reports whether k sorts before other.
func (k JoinedKey) Less(other JoinedKey) bool {
	if k.Height != other.Height {
		return k.Height < other.Height
	}
	if k.TxIndex != other.TxIndex {
		return k.TxIndex < other.TxIndex
	}
	return k.InputIdx < other.InputIdx
}

// JoinedRecord is the Phase 4 output: the prevout a spending input
// referenced, keyed by where it was spent rather than where it was
// created.
type JoinedRecord struct {
	Key      JoinedKey
	Value    int64
	PkScript []byte
}

// EncodedSize returns the number of bytes Encode writes, including the
// leading length prefix.
func (r JoinedRecord) EncodedSize() int {
	return 4 + 4 + 4 + 4 + 8 + 4 + len(r.PkScript)
}

// Encode writes the record's length-prefixed wire form to w.
func (r JoinedRecord) Encode(w io.Writer) error {
	body := r.EncodedSize() - 4
	buf := make([]byte, 4+body)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(body))
	binary.LittleEndian.PutUint32(buf[4:8], r.Key.Height)
	binary.LittleEndian.PutUint32(buf[8:12], r.Key.TxIndex)
	binary.LittleEndian.PutUint32(buf[12:16], r.Key.InputIdx)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(r.Value))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(len(r.PkScript)))
	copy(buf[28:], r.PkScript)
	_, err := w.Write(buf)
	return err
}

// DecodeJoinedRecord reads one length-prefixed JoinedRecord from r.
func DecodeJoinedRecord(r io.Reader) (JoinedRecord, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return JoinedRecord{}, err
	}
	body := binary.LittleEndian.Uint32(lenBuf[:])
	if body < 24 {
		return JoinedRecord{}, fmt.Errorf("joined record body length %d is smaller than the fixed fields", body)
	}
	buf := make([]byte, body)
	if _, err := io.ReadFull(r, buf); err != nil {
		return JoinedRecord{}, err
	}

	var rec JoinedRecord
	rec.Key.Height = binary.LittleEndian.Uint32(buf[0:4])
	rec.Key.TxIndex = binary.LittleEndian.Uint32(buf[4:8])
	rec.Key.InputIdx = binary.LittleEndian.Uint32(buf[8:12])
	rec.Value = int64(binary.LittleEndian.Uint64(buf[12:20]))
	scriptLen := binary.LittleEndian.Uint32(buf[20:24])
	if uint32(len(buf)-24) != scriptLen {
		return JoinedRecord{}, fmt.Errorf("joined record script length mismatch: header says %d, body has %d", scriptLen, len(buf)-24)
	}
	rec.PkScript = append([]byte(nil), buf[24:]...)
	return rec, nil
}
