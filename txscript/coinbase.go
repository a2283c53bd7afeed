// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import "fmt"

// ExtractCoinbaseHeight extracts the block height encoded in a coinbase
// transaction's signature script once BIP34 requires it: the height
// is the value of the leading push, minimally encoded as a script number.
func ExtractCoinbaseHeight(sigScript []byte) (int32, error) {
	tokenizer := MakeScriptTokenizer(sigScript)
	if !tokenizer.Next() {
		if tokenizer.Err() != nil {
			return 0, scriptError(ErrMalformedPush, "unable to parse "+
				"coinbase signature script for height reference: "+
				tokenizer.Err().Error())
		}
		return 0, scriptError(ErrMalformedPush, "coinbase signature "+
			"script is empty")
	}

	op := tokenizer.Opcode()
	data := tokenizer.Data()
	switch {
	case op == OP_0:
		return 0, nil
	case op >= OP_1 && op <= OP_16:
		return int32(op - (OP_1 - 1)), nil
	case op <= OP_PUSHDATA4:
		n, err := makeScriptNum(data, true, 5)
		if err != nil {
			return 0, scriptError(ErrNumberTooBig, fmt.Sprintf(
				"unable to decode coinbase height: %v", err))
		}
		return n.Int32(), nil
	}

	return 0, scriptError(ErrMalformedPush,
		"coinbase signature script does not begin with a height push")
}
