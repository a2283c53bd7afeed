// Copyright (c) 2023 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stdscript provides facilities for identifying and extracting
// details from standard scripts recognized by the script engine: pay to
// pubkey, pay to pubkey hash, pay to script hash, null data, bare
// multisig, and the segwit v0 witness program forms.
package stdscript

// ScriptType identifies the type of a script.
type ScriptType byte

const (
	// STNonStandard indicates a script is not one of the recognized forms.
	STNonStandard ScriptType = iota

	// STPubKey is a standard pay-to-pubkey script.
	STPubKey

	// STPubKeyHash is a standard pay-to-pubkey-hash script.
	STPubKeyHash

	// STScriptHash is a standard pay-to-script-hash script (BIP16).
	STScriptHash

	// STMultiSig is a bare multisig script.
	STMultiSig

	// STNullData is a null data only script that carries no value
	// (OP_RETURN followed by zero or one data push).
	STNullData

	// STWitnessV0PubKeyHash is a native segwit v0 pay-to-witness-pubkey-
	// hash script (BIP141/BIP143).
	STWitnessV0PubKeyHash

	// STWitnessV0ScriptHash is a native segwit v0 pay-to-witness-script-
	// hash script (BIP141/BIP143).
	STWitnessV0ScriptHash
)

// String returns the ScriptType as a human readable name.
func (t ScriptType) String() string {
	switch t {
	case STNonStandard:
		return "nonstandard"
	case STPubKey:
		return "pubkey"
	case STPubKeyHash:
		return "pubkeyhash"
	case STScriptHash:
		return "scripthash"
	case STMultiSig:
		return "multisig"
	case STNullData:
		return "nulldata"
	case STWitnessV0PubKeyHash:
		return "witness_v0_keyhash"
	case STWitnessV0ScriptHash:
		return "witness_v0_scripthash"
	default:
		return "invalid"
	}
}
