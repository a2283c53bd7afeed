// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package compare

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcdecoded/blvm/chainhash"
)

// Status classifies a single divergence ledger entry.
type Status string

const (
	// StatusValid records that the local re-verification agreed with
	// the reference node for this entry; the ledger normally only
	// records these when asked to, for completeness auditing.
	StatusValid Status = "valid"
	// StatusInvalid records a genuine disagreement.
	StatusInvalid Status = "invalid"
	// StatusTipMismatch records that the locally replayed chain tip's
	// hash did not match the reference node's best block hash at the
	// same height, a chain-selection divergence rather than a
	// per-script one.
	StatusTipMismatch Status = "tip_mismatch"
)

// Entry is one record in the divergence ledger: a single input, block, or
// tip comparison and its outcome, with enough context to reproduce it
// without re-running the pipeline.
type Entry struct {
	Status   Status         `json:"status"`
	Height   int32          `json:"height"`
	TxHash   chainhash.Hash `json:"tx_hash,omitempty"`
	InputIdx int            `json:"input_index,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

// Ledger appends divergence entries to a JSON-lines file as they are
// found, so a long verification run's findings survive a later crash
// rather than being held only in memory until the run finishes.
type Ledger struct {
	f  *os.File
	bw *bufio.Writer
}

// OpenLedger creates (or truncates) the ledger file at path.
func OpenLedger(path string) (*Ledger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating divergence ledger %s: %w", path, err)
	}
	return &Ledger{f: f, bw: bufio.NewWriter(f)}, nil
}

// Append writes entry to the ledger.
func (l *Ledger) Append(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling divergence entry: %w", err)
	}
	if _, err := l.bw.Write(data); err != nil {
		return err
	}
	if err := l.bw.WriteByte('\n'); err != nil {
		return err
	}
	return l.bw.Flush()
}

// Close flushes and closes the ledger file.
func (l *Ledger) Close() error {
	if err := l.bw.Flush(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

// CompareTip reports a StatusTipMismatch entry through onDivergence when
// localTip does not match the reference node's best block hash at the
// same height: the pipeline replayed a different chain than
// the reference node settled on, which a purely script-level comparison
// at a fixed height range would never catch.
func CompareTip(client *Client, height int32, localTip chainhash.Hash, onDivergence func(Entry)) error {
	refHash, err := client.GetBlockHash(int64(height))
	if err != nil {
		return fmt.Errorf("fetching reference block hash at height %d: %w", height, err)
	}
	if refHash != localTip {
		onDivergence(Entry{
			Status: StatusTipMismatch,
			Height: height,
			Reason: fmt.Sprintf("local tip %s does not match reference node's %s at height %d", localTip, refHash, height),
		})
	}
	return nil
}
