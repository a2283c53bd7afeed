// Copyright (c) 2021-2023 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stdscript

// Opcode values needed for script pattern recognition. These mirror the
// definitions in the sibling txscript package; duplicated here so this
// package does not import it.
const (
	opData1      = 0x01
	opData20     = 0x14
	opData32     = 0x20
	opData33     = 0x21
	opData65     = 0x41
	opData75     = 0x4b
	opPushData1  = 0x4c
	op0          = 0x00
	op1          = 0x51
	op16         = 0x60
	opReturn     = 0x6a
	opDup        = 0x76
	opEqual      = 0x87
	opEqualVerify = 0x88
	opHash160    = 0xa9
	opCheckSig   = 0xac
	opCheckMultiSig = 0xae
)

// IsPubKeyScript returns whether script is a standard pay-to-pubkey script
// that pays to a compressed or uncompressed secp256k1 public key.
func IsPubKeyScript(script []byte) bool {
	return ExtractPubKey(script) != nil
}

// ExtractPubKey returns the public key from script if it is a standard
// pay-to-pubkey script, or nil otherwise.
func ExtractPubKey(script []byte) []byte {
	if len(script) == 35 && script[0] == opData33 && script[34] == opCheckSig &&
		(script[1] == 0x02 || script[1] == 0x03) {
		return script[1:34]
	}
	if len(script) == 67 && script[0] == opData65 && script[66] == opCheckSig &&
		script[1] == 0x04 {
		return script[1:66]
	}
	return nil
}

// IsPubKeyHashScript returns whether script is a standard pay-to-pubkey-hash
// script.
func IsPubKeyHashScript(script []byte) bool {
	return ExtractPubKeyHash(script) != nil
}

// ExtractPubKeyHash returns the public key hash from script if it is a
// standard pay-to-pubkey-hash script, or nil otherwise.
func ExtractPubKeyHash(script []byte) []byte {
	if len(script) == 25 &&
		script[0] == opDup &&
		script[1] == opHash160 &&
		script[2] == opData20 &&
		script[23] == opEqualVerify &&
		script[24] == opCheckSig {
		return script[3:23]
	}
	return nil
}

// IsScriptHashScript returns whether script is a standard pay-to-script-hash
// script (BIP16).
func IsScriptHashScript(script []byte) bool {
	return ExtractScriptHash(script) != nil
}

// ExtractScriptHash returns the script hash from script if it is a standard
// pay-to-script-hash script, or nil otherwise.
func ExtractScriptHash(script []byte) []byte {
	if len(script) == 23 &&
		script[0] == opHash160 &&
		script[1] == opData20 &&
		script[22] == opEqual {
		return script[2:22]
	}
	return nil
}

// MultiSigDetails holds the parameters extracted from a bare multisig
// script.
type MultiSigDetails struct {
	RequiredSigs int
	NumPubKeys   int
	PubKeys      [][]byte
	Valid        bool
}

// ExtractMultiSigScriptDetails parses script as a bare multisig script of
// the form <m> <pubkey>... <n> OP_CHECKMULTISIG, m <= n <= 20.
func ExtractMultiSigScriptDetails(script []byte) MultiSigDetails {
	if len(script) < 1+1+1+1 {
		return MultiSigDetails{}
	}
	m, ok := asSmallInt(script[0])
	if !ok || m < 1 {
		return MultiSigDetails{}
	}

	offset := 1
	var pubKeys [][]byte
	for offset < len(script) {
		if script[offset] == opData33 && offset+34 <= len(script) {
			pubKeys = append(pubKeys, script[offset+1:offset+34])
			offset += 34
			continue
		}
		if script[offset] == opData65 && offset+66 <= len(script) {
			pubKeys = append(pubKeys, script[offset+1:offset+66])
			offset += 66
			continue
		}
		break
	}

	if offset+2 != len(script) {
		return MultiSigDetails{}
	}
	n, ok := asSmallInt(script[offset])
	if !ok || n != len(pubKeys) || n < m || n > 20 {
		return MultiSigDetails{}
	}
	if script[offset+1] != opCheckMultiSig {
		return MultiSigDetails{}
	}

	return MultiSigDetails{
		RequiredSigs: m,
		NumPubKeys:   n,
		PubKeys:      pubKeys,
		Valid:        true,
	}
}

// IsMultiSigScript returns whether script is a standard bare multisig
// script.
func IsMultiSigScript(script []byte) bool {
	return ExtractMultiSigScriptDetails(script).Valid
}

func asSmallInt(op byte) (int, bool) {
	if op == op0 {
		return 0, true
	}
	if op >= op1 && op <= op16 {
		return int(op) - op1 + 1, true
	}
	return 0, false
}

// IsNullDataScript returns whether script is a provably unspendable null
// data script: OP_RETURN optionally followed by a single data push no
// larger than 80 bytes.
func IsNullDataScript(script []byte) bool {
	if len(script) == 0 || script[0] != opReturn {
		return false
	}
	if len(script) == 1 {
		return true
	}

	rest := script[1:]
	switch {
	case rest[0] == op0:
		return len(rest) == 1
	case rest[0] >= op1 && rest[0] <= op16:
		return len(rest) == 1
	case rest[0] >= opData1 && rest[0] <= opData75:
		return len(rest) == int(rest[0])+1 && int(rest[0]) <= 80
	case rest[0] == opPushData1:
		return len(rest) >= 2 && int(rest[1]) == len(rest)-2 && rest[1] <= 80
	default:
		return false
	}
}

// ExtractWitnessV0PubKeyHash returns the 20-byte hash from script if it is a
// native segwit v0 pay-to-witness-pubkey-hash script, or nil otherwise.
func ExtractWitnessV0PubKeyHash(script []byte) []byte {
	if len(script) == 22 && script[0] == op0 && script[1] == opData20 {
		return script[2:22]
	}
	return nil
}

// IsWitnessV0PubKeyHashScript returns whether script is a native segwit v0
// pay-to-witness-pubkey-hash script.
func IsWitnessV0PubKeyHashScript(script []byte) bool {
	return ExtractWitnessV0PubKeyHash(script) != nil
}

// ExtractWitnessV0ScriptHash returns the 32-byte hash from script if it is a
// native segwit v0 pay-to-witness-script-hash script, or nil otherwise.
func ExtractWitnessV0ScriptHash(script []byte) []byte {
	if len(script) == 34 && script[0] == op0 && script[1] == opData32 {
		return script[2:34]
	}
	return nil
}

// IsWitnessV0ScriptHashScript returns whether script is a native segwit v0
// pay-to-witness-script-hash script.
func IsWitnessV0ScriptHashScript(script []byte) bool {
	return ExtractWitnessV0ScriptHash(script) != nil
}

// IsWitnessProgram returns whether script is any recognized or unrecognized
// witness program: OP_n (n 0-16) followed by a single 2-to-40-byte push.
func IsWitnessProgram(script []byte) bool {
	if len(script) < 4 || len(script) > 42 {
		return false
	}
	op := script[0]
	if op != op0 && (op < op1 || op > op16) {
		return false
	}
	dataLen := int(script[1])
	return dataLen >= 2 && dataLen <= 40 && len(script) == 2+dataLen
}

// DetermineScriptType returns the ScriptType of script, STNonStandard if it
// does not match any recognized pattern.
func DetermineScriptType(script []byte) ScriptType {
	switch {
	case IsPubKeyScript(script):
		return STPubKey
	case IsPubKeyHashScript(script):
		return STPubKeyHash
	case IsScriptHashScript(script):
		return STScriptHash
	case IsMultiSigScript(script):
		return STMultiSig
	case IsNullDataScript(script):
		return STNullData
	case IsWitnessV0PubKeyHashScript(script):
		return STWitnessV0PubKeyHash
	case IsWitnessV0ScriptHashScript(script):
		return STWitnessV0ScriptHash
	default:
		return STNonStandard
	}
}
