// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/btcdecoded/blvm/archive"
	"github.com/btcdecoded/blvm/chainhash"
)

// rebuildIndexCmd rebuilds the archive's height/hash sidecar index purely
// from the chunk files on disk: useful after the index is lost
// or corrupted, or after a fresh ingest run drops a new batch of chunks.
type rebuildIndexCmd struct {
	GenesisChildHash string `long:"genesischildhash" description:"Override the known hash of the block at height 1 (required for regtest/simnet, which have no single fixed value)"`
	Verify           bool   `long:"verify" description:"Run VerifyContiguous after rebuilding and report the first gap found"`

	cfg *config
	ran bool
	err error
}

func (c *rebuildIndexCmd) Execute(args []string) error {
	c.ran = true
	c.err = c.execute()
	return c.err
}

func (c *rebuildIndexCmd) execute() error {
	params := c.cfg.params

	childHash := params.GenesisChildHash
	if c.GenesisChildHash != "" {
		h, err := chainhash.NewHashFromStr(c.GenesisChildHash)
		if err != nil {
			return fmt.Errorf("parsing --genesischildhash: %w", err)
		}
		childHash = *h
	}
	if childHash == (chainhash.Hash{}) {
		return fmt.Errorf("network %s has no fixed block-1 hash; pass --genesischildhash explicitly", params.Name)
	}

	index, err := archive.OpenIndex(c.cfg.indexDir())
	if err != nil {
		return fmt.Errorf("opening archive index: %w", err)
	}
	defer index.Close()

	if err := archive.RebuildIndex(c.cfg.ArchiveDir, index, params.GenesisHash, childHash); err != nil {
		return fmt.Errorf("rebuilding archive index: %w", err)
	}

	if c.Verify {
		if err := index.VerifyContiguous(); err != nil {
			return fmt.Errorf("rebuilt index failed contiguity check: %w", err)
		}
	}

	fmt.Println("archive index rebuilt successfully")
	return nil
}
