// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package compare

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// BlockNotification is a single "a new tip appeared" event pushed by the
// reference node over its notification websocket.
type BlockNotification struct {
	Hash   string `json:"hash"`
	Height int64  `json:"height"`
}

// NotifyClient subscribes to a reference node's block-tip notification
// feed so a long-running driver can re-verify each new block as it
// arrives instead of polling getblockcount.
type NotifyClient struct {
	conn *websocket.Conn
}

// DialNotify opens the websocket notification connection described by
// cfg. cfg.Host and auth fields are reused from the JSON-RPC Config;
// the notification endpoint is assumed to live at the same host under
// a "/ws" path, matching the convention reference nodes that expose
// both plain RPC and websocket notifications typically use.
func DialNotify(cfg Config) (*NotifyClient, error) {
	scheme := "wss"
	if cfg.DisableTLS {
		scheme = "ws"
	}
	url := scheme + "://" + cfg.Host + "/ws"

	header := http.Header{}
	if cfg.User != "" {
		header.Set("Authorization", basicAuthHeader(cfg.User, cfg.Pass))
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return nil, fmt.Errorf("dialing notification websocket %s: %w", url, err)
	}
	return &NotifyClient{conn: conn}, nil
}

// Next blocks until the next block notification arrives, or the
// connection is closed.
func (n *NotifyClient) Next() (*BlockNotification, error) {
	_, data, err := n.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var note BlockNotification
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, fmt.Errorf("decoding block notification: %w", err)
	}
	return &note, nil
}

// Close terminates the notification connection.
func (n *NotifyClient) Close() error {
	return n.conn.Close()
}
