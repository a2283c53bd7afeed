// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package utxo implements the unspent transaction output set the
// differential verifier replays block-by-block. Each Connect or
// Disconnect produces a new generation as a copy-on-write overlay over its
// parent rather than mutating the parent's entries in place, so a caller
// holding an older Snapshot keeps seeing exactly the view it started with
// even while later generations are built on top of it.
package utxo

import (
	"github.com/btcdecoded/blvm/wire"
)

// Entry records everything about a single unspent output that later
// validation needs: the value and script a spending input's script engine
// runs against, and the coinbase/height bookkeeping BIP30 and coinbase
// maturity checks require.
type Entry struct {
	Amount     int64
	PkScript   []byte
	Height     int32
	IsCoinBase bool
}

// maxOverlayDepth bounds how many generations Get will walk before a
// lookup triggers a flatten. Left unflattened, a long-running verifier
// replaying thousands of blocks without ever discarding a Snapshot would
// turn every Get into an O(depth) walk.
const maxOverlayDepth = 64

// Set is an immutable-from-the-outside view of the unspent output set at a
// particular point in block-replay order. The zero value is not usable;
// construct one with New.
type Set struct {
	parent  *Set
	added   map[wire.OutPoint]*Entry
	removed map[wire.OutPoint]struct{}
	depth   int
}

// New returns an empty UTXO set, the state before any block has been
// connected.
func New() *Set {
	return &Set{
		added:   make(map[wire.OutPoint]*Entry),
		removed: make(map[wire.OutPoint]struct{}),
	}
}

// Get looks up the entry for outpoint, walking from the most recent
// generation back toward the base until it finds either an addition, a
// tombstone (meaning the output was spent in some generation between here
// and the base), or the bottom of the chain.
func (s *Set) Get(outpoint wire.OutPoint) (*Entry, bool) {
	for v := s; v != nil; v = v.parent {
		if entry, ok := v.added[outpoint]; ok {
			return entry, true
		}
		if _, ok := v.removed[outpoint]; ok {
			return nil, false
		}
	}
	return nil, false
}

// Snapshot returns s itself. Sets are immutable once built, so sharing the
// same value is sufficient to hand a caller a stable view that later
// Connect/Disconnect calls building on s cannot alter.
func (s *Set) Snapshot() *Set {
	return s
}

// overlay builds the next generation on top of s, flattening first if the
// chain has grown past maxOverlayDepth.
func (s *Set) overlay() *Set {
	base := s
	if s.depth >= maxOverlayDepth {
		base = s.flatten()
	}
	return &Set{
		parent:  base,
		added:   make(map[wire.OutPoint]*Entry),
		removed: make(map[wire.OutPoint]struct{}),
		depth:   base.depth + 1,
	}
}

// flatten collapses the full parent chain into a single generation with no
// parent, bounding future Get calls to O(1) map lookups again.
func (s *Set) flatten() *Set {
	flat := &Set{
		added:   make(map[wire.OutPoint]*Entry),
		removed: make(map[wire.OutPoint]struct{}),
	}
	// Walk oldest to newest so later generations correctly shadow earlier
	// ones; collect the chain first since it runs newest to oldest.
	chain := make([]*Set, 0, s.depth+1)
	for v := s; v != nil; v = v.parent {
		chain = append(chain, v)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		v := chain[i]
		for outpoint := range v.removed {
			delete(flat.added, outpoint)
		}
		for outpoint, entry := range v.added {
			flat.added[outpoint] = entry
		}
	}
	return flat
}

// Connect returns the generation of the set produced by applying tx: its
// referenced inputs become spent (removed) and its outputs become unspent
// (added). It does not check whether the inputs exist or are already
// spent; callers validate that first (blockchain.CheckTransactionInputs)
// and only call Connect once a transaction is known-valid against this
// view.
func (s *Set) Connect(tx *wire.MsgTx, height int32) *Set {
	next := s.overlay()

	if !tx.IsCoinBase() {
		for _, txIn := range tx.TxIn {
			next.removed[txIn.PreviousOutPoint] = struct{}{}
		}
	}

	txHash := tx.TxHash()
	isCoinbase := tx.IsCoinBase()
	for i, txOut := range tx.TxOut {
		outpoint := wire.OutPoint{Hash: txHash, Index: uint32(i)}
		delete(next.removed, outpoint)
		next.added[outpoint] = &Entry{
			Amount:     txOut.Value,
			PkScript:   txOut.PkScript,
			Height:     height,
			IsCoinBase: isCoinbase,
		}
	}

	return next
}

// Disconnect returns the generation produced by reversing tx's effect on
// the set: its outputs are removed and its previously-spent inputs are
// restored from spent, the entries the caller supplies in spentEntries
// (keyed by the input's previous outpoint) since the set itself has no
// record of an output once it is spent.
func (s *Set) Disconnect(tx *wire.MsgTx, spentEntries map[wire.OutPoint]*Entry) *Set {
	next := s.overlay()

	txHash := tx.TxHash()
	for i := range tx.TxOut {
		outpoint := wire.OutPoint{Hash: txHash, Index: uint32(i)}
		delete(next.added, outpoint)
		next.removed[outpoint] = struct{}{}
	}

	if !tx.IsCoinBase() {
		for _, txIn := range tx.TxIn {
			entry := spentEntries[txIn.PreviousOutPoint]
			delete(next.removed, txIn.PreviousOutPoint)
			next.added[txIn.PreviousOutPoint] = entry
		}
	}

	return next
}

// Len reports the number of unspent outputs reachable from s. It builds a
// flattened copy of the chain on every call and discards it; s itself is
// not changed.
func (s *Set) Len() int {
	flat := s.flatten()
	return len(flat.added)
}

// FromEntries builds a new base generation directly from entries, with no
// parent. It is used to materialize a utxo.Set from a checkpoint file
// (checkpoint package), where the full entry set is already known and
// replaying it through Connect would require reconstructing fake
// transactions.
func FromEntries(entries map[wire.OutPoint]*Entry) *Set {
	added := make(map[wire.OutPoint]*Entry, len(entries))
	for outpoint, entry := range entries {
		added[outpoint] = entry
	}
	return &Set{
		added:   added,
		removed: make(map[wire.OutPoint]struct{}),
	}
}

// ForEach calls fn once for every unspent output reachable from s, in no
// particular order, stopping early if fn returns false. Like Len, it
// works on a flattened copy and leaves s unchanged. Callers writing a checkpoint (checkpoint
// package) use this to stream the full set out to disk.
func (s *Set) ForEach(fn func(wire.OutPoint, *Entry) bool) {
	flat := s.flatten()
	for outpoint, entry := range flat.added {
		if !fn(outpoint, entry) {
			return
		}
	}
}
