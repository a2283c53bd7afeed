// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/btcdecoded/blvm/chaincfg"
	"github.com/btcdecoded/blvm/wire"
)

func TestCalcBlockSubsidy(t *testing.T) {
	params := chaincfg.MainNetParams()

	tests := []struct {
		height int32
		want   int64
	}{
		{0, 50 * 1e8},
		{1, 50 * 1e8},
		{209999, 50 * 1e8},
		{210000, 25 * 1e8},
		{420000, 1250000000},
		{6930000, 0},
	}

	for _, test := range tests {
		got := CalcBlockSubsidy(test.height, params)
		if got != test.want {
			t.Errorf("CalcBlockSubsidy(%d): got %d, want %d", test.height, got, test.want)
		}
	}
}

func TestCalcMedianTimePast(t *testing.T) {
	// Newest-first, as CalcMedianTimePast expects.
	timestamps := []uint32{100, 90, 80, 70, 60, 50, 40, 30, 20, 10, 0}
	got := CalcMedianTimePast(timestamps)
	if got != 50 {
		t.Errorf("CalcMedianTimePast: got %d, want 50", got)
	}

	// Fewer than MedianTimeBlocks timestamps still produce a median over
	// what is available.
	short := []uint32{30, 20, 10}
	if got := CalcMedianTimePast(short); got != 20 {
		t.Errorf("CalcMedianTimePast(short): got %d, want 20", got)
	}
}

func TestIsFinalizedTransaction(t *testing.T) {
	tx := txWithLockTime(0)
	if !IsFinalizedTransaction(tx, 100, 1000) {
		t.Error("IsFinalizedTransaction: lock_time 0 must always be final")
	}

	tx = txWithLockTime(500)
	if IsFinalizedTransaction(tx, 100, 1000) {
		t.Error("IsFinalizedTransaction: height-based lock_time in the future reported final")
	}
	if !IsFinalizedTransaction(tx, 600, 1000) {
		t.Error("IsFinalizedTransaction: height-based lock_time in the past reported non-final")
	}

	tx.TxIn[0].Sequence = wire.MaxTxInSequenceNum
	if !IsFinalizedTransaction(tx, 100, 1000) {
		t.Error("IsFinalizedTransaction: all inputs final should make the tx final regardless of lock_time")
	}
}
