// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dcrutil formats scriptPubKey bytes as human-readable legacy
// addresses for diagnostic output (divergence reports, log lines).
// DecodeAddress parses an address back only as far as its 20-byte hash and
// type; there is no decode-to-script path here.
package dcrutil

import (
	"errors"
	"fmt"

	"github.com/btcdecoded/blvm/chaincfg"
	"github.com/btcdecoded/blvm/txscript/stdscript"
	"github.com/decred/base58"
)

// ErrUnsupportedAddressType is returned by EncodeAddress when script does
// not match a standard pattern this package knows how to render as a
// legacy base58check address. Witness programs are not representable as a
// legacy address; callers needing a bech32 rendering are out of scope
//.
var ErrUnsupportedAddressType = errors.New("dcrutil: script does not map to a legacy base58check address")

// EncodeAddress renders a standard pay-to-pubkey-hash or pay-to-script-hash
// locking script as the base58check address a block explorer or the
// reference node's getaddressinfo would print, for use in divergence
// reports and log output.
func EncodeAddress(script []byte, params *chaincfg.Params) (string, error) {
	if hash := stdscript.ExtractPubKeyHash(script); hash != nil {
		return base58.CheckEncode(hash, params.PubKeyHashAddrID), nil
	}
	if hash := stdscript.ExtractScriptHash(script); hash != nil {
		return base58.CheckEncode(hash, params.ScriptHashAddrID), nil
	}
	return "", ErrUnsupportedAddressType
}

// DecodeAddress reverses EncodeAddress: given a base58check address string
// known to belong to params, it returns the 20-byte hash and whether the
// address names a pay-to-script-hash (true) or pay-to-pubkey-hash (false)
// destination.
func DecodeAddress(addr string, params *chaincfg.Params) (hash [20]byte, isScriptHash bool, err error) {
	decoded, version, err := base58.CheckDecode(addr)
	if err != nil {
		return hash, false, fmt.Errorf("dcrutil: decode address: %w", err)
	}
	if len(decoded) != 20 {
		return hash, false, fmt.Errorf("dcrutil: decoded address payload is %d bytes, want 20", len(decoded))
	}
	copy(hash[:], decoded)

	switch version {
	case params.PubKeyHashAddrID:
		return hash, false, nil
	case params.ScriptHashAddrID:
		return hash, true, nil
	default:
		return hash, false, fmt.Errorf("dcrutil: address version 0x%02x does not belong to network %s", version, params.Net)
	}
}
