// Copyright (c) 2013-2019 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"
	"fmt"
)

// ScriptTokenizer provides a facility for easily and efficiently tokenizing
// transaction scripts without creating allocations for opcodes that are not
// long enough to require a separate allocation.
type ScriptTokenizer struct {
	script []byte
	offset int32
	op     byte
	data   []byte
	err    error
}

// MakeScriptTokenizer returns a new instance of a script tokenizer for the
// provided script.
func MakeScriptTokenizer(script []byte) ScriptTokenizer {
	return ScriptTokenizer{script: script}
}

// Done returns true when either all opcodes have been exhausted or a parse
// failure was encountered and therefore the state has an associated error.
func (t *ScriptTokenizer) Done() bool {
	return t.err != nil || t.offset >= int32(len(t.script))
}

// Next attempts to parse the next opcode and returns whether or not it was
// successful. It will not be successful if invoked when already at the end
// of the script, a parse failure is encountered, or an associated error
// already exists due to a previous parse failure.
func (t *ScriptTokenizer) Next() bool {
	if t.Done() {
		return false
	}

	op := t.script[t.offset]
	switch {
	case op >= OP_DATA_1 && op <= OP_DATA_75:
		script := t.script[t.offset:]
		if int32(len(script)) < int32(op)+1 {
			t.err = scriptError(ErrMalformedPush, fmt.Sprintf(
				"opcode %s pushes %d bytes, but script only has %d "+
					"remaining", opcodeArray[op].name, op, len(script)-1))
			return false
		}

		t.op = op
		t.data = script[1 : op+1]
		t.offset += 1 + int32(op)
		return true

	case op == OP_PUSHDATA1 || op == OP_PUSHDATA2 || op == OP_PUSHDATA4:
		var dataLen int32
		var offset int32
		script := t.script[t.offset+1:]
		switch op {
		case OP_PUSHDATA1:
			if len(script) < 1 {
				t.err = scriptError(ErrMalformedPush,
					"OP_PUSHDATA1 missing length byte")
				return false
			}
			dataLen = int32(script[0])
			offset = 1

		case OP_PUSHDATA2:
			if len(script) < 2 {
				t.err = scriptError(ErrMalformedPush,
					"OP_PUSHDATA2 missing length bytes")
				return false
			}
			dataLen = int32(binary.LittleEndian.Uint16(script))
			offset = 2

		case OP_PUSHDATA4:
			if len(script) < 4 {
				t.err = scriptError(ErrMalformedPush,
					"OP_PUSHDATA4 missing length bytes")
				return false
			}
			dataLen = int32(binary.LittleEndian.Uint32(script))
			offset = 4
		}

		if offset+dataLen < 0 || int32(len(script)) < offset+dataLen {
			t.err = scriptError(ErrMalformedPush,
				"push data element exceeds script length")
			return false
		}

		t.op = op
		t.data = script[offset : offset+dataLen]
		t.offset += 1 + offset + dataLen
		return true

	default:
		t.op = op
		t.data = nil
		t.offset++
		return true
	}
}

// Script returns the full script associated with the tokenizer.
func (t *ScriptTokenizer) Script() []byte {
	return t.script
}

// ByteIndex returns the current offset into the full script that will be
// parsed next and therefore also implies everything before it has already
// been parsed.
func (t *ScriptTokenizer) ByteIndex() int32 {
	return t.offset
}

// Opcode returns the current opcode associated with the tokenizer.
func (t *ScriptTokenizer) Opcode() byte {
	return t.op
}

// Data returns the data associated with the most recently successfully
// parsed opcode.
func (t *ScriptTokenizer) Data() []byte {
	return t.data
}

// Err returns the error, if any, that was encountered during tokenization.
func (t *ScriptTokenizer) Err() error {
	return t.err
}

// parseScript preparses the script in bytes into a list of parsed opcodes.
func parseScript(script []byte) ([]parsedOpcode, error) {
	var parsed []parsedOpcode
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		op := &opcodeArray[tokenizer.Opcode()]
		parsed = append(parsed, parsedOpcode{opcode: op, data: tokenizer.Data()})
	}
	if err := tokenizer.Err(); err != nil {
		return nil, err
	}
	return parsed, nil
}

// unparseScript reversed the action of parseScript and returns the
// script resulting from the given parsed opcodes.
func unparseScript(pops []parsedOpcode) ([]byte, error) {
	script := make([]byte, 0, len(pops))
	for _, pop := range pops {
		b, err := pop.bytes()
		if err != nil {
			return nil, err
		}
		script = append(script, pop.opcode.value)
		switch pop.opcode.value {
		case OP_PUSHDATA1:
			script = append(script, byte(len(b)))
		case OP_PUSHDATA2:
			script = append(script, byte(len(b)), byte(len(b)>>8))
		case OP_PUSHDATA4:
			script = append(script, byte(len(b)), byte(len(b)>>8),
				byte(len(b)>>16), byte(len(b)>>24))
		}
		script = append(script, b...)
	}
	return script, nil
}

// finalOpcodeData returns the data of the final opcode in the script, if
// any; used by the P2SH BIP16 evaluation.
func finalOpcodeData(script []byte) []byte {
	tokenizer := MakeScriptTokenizer(script)
	var data []byte
	for tokenizer.Next() {
		data = tokenizer.Data()
	}
	if tokenizer.Err() != nil {
		return nil
	}
	return data
}

// IsPushOnlyScript returns whether or not the passed script only pushes data.
func IsPushOnlyScript(script []byte) bool {
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		if tokenizer.Opcode() > OP_16 {
			return false
		}
	}
	return tokenizer.Err() == nil
}
