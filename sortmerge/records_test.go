// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sortmerge

import (
	"bytes"
	"testing"
)

func TestInputRecordEncodeDecodeRoundTrip(t *testing.T) {
	rec := InputRecord{
		PrevoutTxid:   [32]byte{0x01, 0x02, 0x03},
		PrevoutIndex:  4,
		SpendHeight:   100,
		SpendTxIndex:  2,
		SpendInputIdx: 1,
	}

	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		t.Fatalf("Encode: unexpected error: %v", err)
	}
	if buf.Len() != InputRecordSize {
		t.Fatalf("Encode: wrote %d bytes, want %d", buf.Len(), InputRecordSize)
	}

	got, err := DecodeInputRecord(&buf)
	if err != nil {
		t.Fatalf("DecodeInputRecord: unexpected error: %v", err)
	}
	if got != rec {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestOutputRecordEncodeDecodeRoundTrip(t *testing.T) {
	rec := OutputRecord{
		Txid:        [32]byte{0xaa},
		OutputIndex: 1,
		Height:      200,
		IsCoinbase:  true,
		Value:       5000000000,
		PkScript:    []byte{0x76, 0xa9, 0x14, 0x01, 0x02},
	}

	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		t.Fatalf("Encode: unexpected error: %v", err)
	}
	if buf.Len() != rec.EncodedSize() {
		t.Fatalf("Encode: wrote %d bytes, want %d", buf.Len(), rec.EncodedSize())
	}

	got, err := DecodeOutputRecord(&buf)
	if err != nil {
		t.Fatalf("DecodeOutputRecord: unexpected error: %v", err)
	}
	if got.Txid != rec.Txid || got.OutputIndex != rec.OutputIndex || got.Height != rec.Height ||
		got.IsCoinbase != rec.IsCoinbase || got.Value != rec.Value || !bytes.Equal(got.PkScript, rec.PkScript) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestJoinedRecordEncodeDecodeRoundTrip(t *testing.T) {
	rec := JoinedRecord{
		Key:      JoinedKey{Height: 10, TxIndex: 1, InputIdx: 0},
		Value:    42,
		PkScript: []byte{0x51},
	}

	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		t.Fatalf("Encode: unexpected error: %v", err)
	}

	got, err := DecodeJoinedRecord(&buf)
	if err != nil {
		t.Fatalf("DecodeJoinedRecord: unexpected error: %v", err)
	}
	if got.Key != rec.Key || got.Value != rec.Value || !bytes.Equal(got.PkScript, rec.PkScript) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestOutpointKeyOrdering(t *testing.T) {
	a := OutpointKey{Txid: [32]byte{0x01}, Index: 5}
	b := OutpointKey{Txid: [32]byte{0x02}, Index: 0}
	if !a.Less(b) {
		t.Error("Less: lexicographic txid comparison failed")
	}

	c := OutpointKey{Txid: [32]byte{0x01}, Index: 5}
	if !a.Equal(c) {
		t.Error("Equal: identical outpoints compared unequal")
	}
	if a.Equal(b) {
		t.Error("Equal: distinct outpoints compared equal")
	}
}

func TestJoinedKeyOrdering(t *testing.T) {
	a := JoinedKey{Height: 1, TxIndex: 0, InputIdx: 0}
	b := JoinedKey{Height: 1, TxIndex: 1, InputIdx: 0}
	c := JoinedKey{Height: 2, TxIndex: 0, InputIdx: 0}

	if !a.Less(b) {
		t.Error("Less: tx index tiebreak failed")
	}
	if !b.Less(c) {
		t.Error("Less: height comparison failed")
	}
	if c.Less(a) {
		t.Error("Less: reverse comparison incorrectly true")
	}
}
