// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package compare

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcdecoded/blvm/chainhash"
	"github.com/btcdecoded/blvm/wire"
)

// GetBlockCount returns the reference node's current best block height
//.
func (c *Client) GetBlockCount() (int64, error) {
	raw, err := c.call("getblockcount")
	if err != nil {
		return 0, err
	}
	var count int64
	if err := json.Unmarshal(raw, &count); err != nil {
		return 0, fmt.Errorf("decoding getblockcount result: %w", err)
	}
	return count, nil
}

// GetBestBlockHash returns the hash of the reference node's current tip.
// The driver's tip comparison (CompareTip) uses GetBlockHash at a fixed
// height instead.
func (c *Client) GetBestBlockHash() (chainhash.Hash, error) {
	raw, err := c.call("getbestblockhash")
	if err != nil {
		return chainhash.Hash{}, err
	}
	var hashStr string
	if err := json.Unmarshal(raw, &hashStr); err != nil {
		return chainhash.Hash{}, fmt.Errorf("decoding getbestblockhash result: %w", err)
	}
	hash, err := chainhash.NewHashFromStr(hashStr)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return *hash, nil
}

// GetBlockHash returns the hash of the main-chain block at height.
func (c *Client) GetBlockHash(height int64) (chainhash.Hash, error) {
	raw, err := c.call("getblockhash", height)
	if err != nil {
		return chainhash.Hash{}, err
	}
	var hashStr string
	if err := json.Unmarshal(raw, &hashStr); err != nil {
		return chainhash.Hash{}, fmt.Errorf("decoding getblockhash result: %w", err)
	}
	hash, err := chainhash.NewHashFromStr(hashStr)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return *hash, nil
}

// GetBlock fetches the block identified by hash in the reference node's
// raw serialized form and decodes it into a wire.MsgBlock.
func (c *Client) GetBlock(hash chainhash.Hash) (*wire.MsgBlock, error) {
	raw, err := c.call("getblock", hash.String(), false)
	if err != nil {
		return nil, err
	}
	var hexStr string
	if err := json.Unmarshal(raw, &hexStr); err != nil {
		return nil, fmt.Errorf("decoding getblock result: %w", err)
	}
	blockBytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decoding getblock hex payload: %w", err)
	}

	var block wire.MsgBlock
	if err := block.Deserialize(bytes.NewReader(blockBytes)); err != nil {
		return nil, fmt.Errorf("deserializing block %s: %w", hash, err)
	}
	return &block, nil
}

// GetRawTransaction fetches a single transaction by id from the reference
// node and decodes it into a wire.MsgTx.
func (c *Client) GetRawTransaction(txid chainhash.Hash) (*wire.MsgTx, error) {
	raw, err := c.call("getrawtransaction", txid.String(), 0)
	if err != nil {
		return nil, err
	}
	var hexStr string
	if err := json.Unmarshal(raw, &hexStr); err != nil {
		return nil, fmt.Errorf("decoding getrawtransaction result: %w", err)
	}
	txBytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decoding getrawtransaction hex payload: %w", err)
	}

	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(txBytes)); err != nil {
		return nil, fmt.Errorf("deserializing transaction %s: %w", txid, err)
	}
	return &tx, nil
}
