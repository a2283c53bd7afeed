// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainhash

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// mainNetGenesisHash is the well-known genesis block hash for Bitcoin
// mainnet, used here purely as a recognizable round-trip fixture.
var mainNetGenesisHash = Hash([HashSize]byte{
	0x6f, 0xe2, 0x8c, 0x0a, 0xb6, 0xf1, 0xb3, 0x72,
	0xc1, 0xa6, 0xa2, 0x46, 0xae, 0x63, 0xf7, 0x4f,
	0x93, 0x1e, 0x83, 0x65, 0xe1, 0x5a, 0x08, 0x9c,
	0x68, 0xd6, 0x19, 0x00, 0x00, 0x00, 0x00, 0x00,
})

func TestHashString(t *testing.T) {
	wantStr := "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26"
	hash := mainNetGenesisHash
	hashStr := hash.String()
	if hashStr != wantStr {
		t.Errorf("String: wrong hash string - got %v, want %v", hashStr, wantStr)
	}
}

func TestNewHashFromStr(t *testing.T) {
	wantStr := "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	hash, err := NewHashFromStr(wantStr)
	if err != nil {
		t.Fatalf("NewHashFromStr: unexpected error: %v", err)
	}
	if hash.String() != wantStr {
		t.Errorf("NewHashFromStr round trip mismatch: got %v, want %v", hash.String(), wantStr)
	}

	if _, err := NewHashFromStr(hex.EncodeToString(make([]byte, HashSize+1))); err != ErrHashStrSize {
		t.Errorf("NewHashFromStr: expected ErrHashStrSize for an oversized string")
	}
}

func TestHashSetBytes(t *testing.T) {
	var h Hash
	if err := h.SetBytes(make([]byte, HashSize-1)); err == nil {
		t.Error("SetBytes: expected error for short slice")
	}

	buf := bytes.Repeat([]byte{0xab}, HashSize)
	if err := h.SetBytes(buf); err != nil {
		t.Fatalf("SetBytes: unexpected error: %v", err)
	}
	if !bytes.Equal(h.CloneBytes(), buf) {
		t.Error("SetBytes/CloneBytes round trip mismatch")
	}
}

func TestHashIsEqual(t *testing.T) {
	var a, b Hash
	a[0] = 1
	if a.IsEqual(&b) {
		t.Error("IsEqual: distinct hashes reported equal")
	}
	b[0] = 1
	if !a.IsEqual(&b) {
		t.Error("IsEqual: identical hashes reported unequal")
	}
	var nilHash *Hash
	if !nilHash.IsEqual(nil) {
		t.Error("IsEqual: two nil hashes should compare equal")
	}
	if a.IsEqual(nil) {
		t.Error("IsEqual: non-nil hash compared equal to nil")
	}
}

func TestHashHAndHashB(t *testing.T) {
	data := []byte("bitcoin")
	hb := HashB(data)
	hh := HashH(data)
	if !bytes.Equal(hb, hh[:]) {
		t.Error("HashB and HashH disagree on the same input")
	}

	// Hashing the same input a second time must yield the same digest.
	again := HashB(data)
	if !bytes.Equal(hb, again) {
		t.Error("HashB is not deterministic")
	}
}
