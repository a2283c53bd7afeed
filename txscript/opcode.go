// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
)

// These constants are the values of the single-byte opcodes that make up
// the scripting language.
const (
	OP_0                   = 0x00
	OP_DATA_1              = 0x01
	OP_DATA_75             = 0x4b
	OP_PUSHDATA1           = 0x4c
	OP_PUSHDATA2           = 0x4d
	OP_PUSHDATA4           = 0x4e
	OP_1NEGATE             = 0x4f
	OP_RESERVED            = 0x50
	OP_1                   = 0x51
	OP_16                  = 0x60
	OP_NOP                 = 0x61
	OP_VER                 = 0x62
	OP_IF                  = 0x63
	OP_NOTIF               = 0x64
	OP_VERIF               = 0x65
	OP_VERNOTIF            = 0x66
	OP_ELSE                = 0x67
	OP_ENDIF               = 0x68
	OP_VERIFY              = 0x69
	OP_RETURN              = 0x6a
	OP_TOALTSTACK          = 0x6b
	OP_FROMALTSTACK        = 0x6c
	OP_2DROP               = 0x6d
	OP_2DUP                = 0x6e
	OP_3DUP                = 0x6f
	OP_2OVER               = 0x70
	OP_2ROT                = 0x71
	OP_2SWAP               = 0x72
	OP_IFDUP               = 0x73
	OP_DEPTH               = 0x74
	OP_DROP                = 0x75
	OP_DUP                 = 0x76
	OP_NIP                 = 0x77
	OP_OVER                = 0x78
	OP_PICK                = 0x79
	OP_ROLL                = 0x7a
	OP_ROT                 = 0x7b
	OP_SWAP                = 0x7c
	OP_TUCK                = 0x7d
	OP_CAT                 = 0x7e
	OP_SUBSTR              = 0x7f
	OP_LEFT                = 0x80
	OP_RIGHT               = 0x81
	OP_SIZE                = 0x82
	OP_INVERT              = 0x83
	OP_AND                 = 0x84
	OP_OR                  = 0x85
	OP_XOR                 = 0x86
	OP_EQUAL               = 0x87
	OP_EQUALVERIFY         = 0x88
	OP_RESERVED1           = 0x89
	OP_RESERVED2           = 0x8a
	OP_1ADD                = 0x8b
	OP_1SUB                = 0x8c
	OP_2MUL                = 0x8d
	OP_2DIV                = 0x8e
	OP_NEGATE              = 0x8f
	OP_ABS                 = 0x90
	OP_NOT                 = 0x91
	OP_0NOTEQUAL           = 0x92
	OP_ADD                 = 0x93
	OP_SUB                 = 0x94
	OP_MUL                 = 0x95
	OP_DIV                 = 0x96
	OP_MOD                 = 0x97
	OP_LSHIFT              = 0x98
	OP_RSHIFT              = 0x99
	OP_BOOLAND             = 0x9a
	OP_BOOLOR              = 0x9b
	OP_NUMEQUAL            = 0x9c
	OP_NUMEQUALVERIFY      = 0x9d
	OP_NUMNOTEQUAL         = 0x9e
	OP_LESSTHAN            = 0x9f
	OP_GREATERTHAN         = 0xa0
	OP_LESSTHANOREQUAL     = 0xa1
	OP_GREATERTHANOREQUAL  = 0xa2
	OP_MIN                 = 0xa3
	OP_MAX                 = 0xa4
	OP_WITHIN              = 0xa5
	OP_RIPEMD160           = 0xa6
	OP_SHA1                = 0xa7
	OP_SHA256              = 0xa8
	OP_HASH160             = 0xa9
	OP_HASH256             = 0xaa
	OP_CODESEPARATOR       = 0xab
	OP_CHECKSIG            = 0xac
	OP_CHECKSIGVERIFY      = 0xad
	OP_CHECKMULTISIG       = 0xae
	OP_CHECKMULTISIGVERIFY = 0xaf
	OP_NOP1                = 0xb0
	OP_CHECKLOCKTIMEVERIFY = 0xb1
	OP_CHECKSEQUENCEVERIFY = 0xb2
	OP_NOP4                = 0xb3
	OP_NOP5                = 0xb4
	OP_NOP6                = 0xb5
	OP_NOP7                = 0xb6
	OP_NOP8                = 0xb7
	OP_NOP9                = 0xb8
	OP_NOP10               = 0xb9
	OP_INVALIDOPCODE       = 0xff
)

// opcode holds details about a script instruction and how to execute it.
type opcode struct {
	value  byte
	name   string
	length int
	opfunc func(*parsedOpcode, *Engine) error
}

// parsedOpcode represents an opcode that has been parsed and includes any
// potential data associated with it.
type parsedOpcode struct {
	opcode *opcode
	data   []byte
}

// isDisabled returns whether or not the opcode is disabled and thus is always
// bad to see in the instruction stream.
func (pop *parsedOpcode) isDisabled() bool {
	switch pop.opcode.value {
	case OP_CAT, OP_SUBSTR, OP_LEFT, OP_RIGHT, OP_INVERT, OP_AND, OP_OR,
		OP_XOR, OP_2MUL, OP_2DIV, OP_MUL, OP_DIV, OP_MOD, OP_LSHIFT,
		OP_RSHIFT:
		return true
	default:
		return false
	}
}

// alwaysIllegal returns whether or not the opcode is always illegal when
// evaluated, e.g. it is a reserved opcode.
func (pop *parsedOpcode) alwaysIllegal() bool {
	switch pop.opcode.value {
	case OP_VERIF, OP_VERNOTIF:
		return true
	default:
		return false
	}
}

// isConditional returns whether the opcode is a conditional control-flow
// opcode (IF/NOTIF/ELSE/ENDIF).
func (pop *parsedOpcode) isConditional() bool {
	switch pop.opcode.value {
	case OP_IF, OP_NOTIF, OP_ELSE, OP_ENDIF:
		return true
	default:
		return false
	}
}

// checkMinimalDataPush returns whether or not the current data push uses the
// smallest possible opcode to place the data on the stack.
func (pop *parsedOpcode) checkMinimalDataPush() error {
	data := pop.data
	dataLen := len(data)
	opcodeVal := pop.opcode.value

	if dataLen == 0 && opcodeVal != OP_0 {
		return scriptError(ErrMinimalData, "zero length data push is not minimal")
	}
	if dataLen == 1 && data[0] >= 1 && data[0] <= 16 {
		if opcodeVal != OP_1+data[0]-1 {
			return scriptError(ErrMinimalData, "data push of the value 1-16 "+
				"must use OP_1 through OP_16")
		}
	}
	if dataLen == 1 && data[0] == 0x81 {
		if opcodeVal != OP_1NEGATE {
			return scriptError(ErrMinimalData, "data push of the value -1 "+
				"must use OP_1NEGATE")
		}
	}
	if dataLen <= 75 {
		if int(opcodeVal) != dataLen+int(OP_DATA_1)-1 {
			return scriptError(ErrMinimalData, "data push of "+
				fmt.Sprintf("%d bytes", dataLen)+" must use the minimal data push opcode")
		}
	} else if dataLen <= 255 {
		if opcodeVal != OP_PUSHDATA1 {
			return scriptError(ErrMinimalData, "data push of 76 to 255 bytes "+
				"must use OP_PUSHDATA1")
		}
	} else if dataLen <= 65535 {
		if opcodeVal != OP_PUSHDATA2 {
			return scriptError(ErrMinimalData, "data push of 256 to 65535 "+
				"bytes must use OP_PUSHDATA2")
		}
	}
	return nil
}

// bytes returns any data associated with the opcode.
func (pop *parsedOpcode) bytes() ([]byte, error) {
	var retbytes []byte
	if len(pop.data) > 0 {
		retbytes = make([]byte, len(pop.data))
		copy(retbytes, pop.data)
	} else if pop.opcode.length == 1 {
		retbytes = nil
	}
	return retbytes, nil
}

// print returns a human readable string representation of the opcode for use
// in script disassembly.
func (pop *parsedOpcode) print(oneline bool) string {
	opcodeName := pop.opcode.name
	if oneline {
		if opcodeName[0:3] == "OP_" {
			opcodeName = opcodeName[3:]
		}
		if pop.opcode.value > OP_16 {
			return fmt.Sprintf("%x", pop.data)
		}
		return opcodeName
	}

	retString := opcodeName
	if pop.opcode.length == 1 {
		return retString
	}
	if pop.opcode.length > 1 {
		retString += fmt.Sprintf(" 0x%02x", pop.data)
	} else {
		retString += fmt.Sprintf(" 0x%02x 0x%02x", len(pop.data), pop.data)
	}
	return retString
}

// opcodeArray associates an opcode value with its parser, name, byte length,
// and execution function.
var opcodeArray [256]opcode

func init() {
	populateOpcodeData()
}

// populateOpcodeData fills in the full 256-entry opcode table. It is
// split from var initialization so opfuncs.go's execution functions are
// visible regardless of file compile order.
func populateOpcodeData() {
	set := func(value byte, name string, length int, fn func(*parsedOpcode, *Engine) error) {
		opcodeArray[value] = opcode{value: value, name: name, length: length, opfunc: fn}
	}

	set(OP_0, "OP_0", 1, opcodePushData)
	for i := OP_DATA_1; i <= OP_DATA_75; i++ {
		set(byte(i), fmt.Sprintf("OP_DATA_%d", i), i+1, opcodePushData)
	}
	set(OP_PUSHDATA1, "OP_PUSHDATA1", -1, opcodePushData)
	set(OP_PUSHDATA2, "OP_PUSHDATA2", -2, opcodePushData)
	set(OP_PUSHDATA4, "OP_PUSHDATA4", -4, opcodePushData)
	set(OP_1NEGATE, "OP_1NEGATE", 1, opcode1Negate)
	set(OP_RESERVED, "OP_RESERVED", 1, opcodeReserved)
	for i := OP_1; i <= OP_16; i++ {
		n := byte(i - OP_1 + 1)
		set(byte(i), fmt.Sprintf("OP_%d", n), 1, opcodeN(n))
	}
	set(OP_NOP, "OP_NOP", 1, opcodeNop)
	set(OP_VER, "OP_VER", 1, opcodeReserved)
	set(OP_IF, "OP_IF", 1, opcodeIf)
	set(OP_NOTIF, "OP_NOTIF", 1, opcodeNotIf)
	set(OP_VERIF, "OP_VERIF", 1, opcodeReserved)
	set(OP_VERNOTIF, "OP_VERNOTIF", 1, opcodeReserved)
	set(OP_ELSE, "OP_ELSE", 1, opcodeElse)
	set(OP_ENDIF, "OP_ENDIF", 1, opcodeEndif)
	set(OP_VERIFY, "OP_VERIFY", 1, opcodeVerify)
	set(OP_RETURN, "OP_RETURN", 1, opcodeReturn)
	set(OP_TOALTSTACK, "OP_TOALTSTACK", 1, opcodeToAltStack)
	set(OP_FROMALTSTACK, "OP_FROMALTSTACK", 1, opcodeFromAltStack)
	set(OP_2DROP, "OP_2DROP", 1, opcode2Drop)
	set(OP_2DUP, "OP_2DUP", 1, opcode2Dup)
	set(OP_3DUP, "OP_3DUP", 1, opcode3Dup)
	set(OP_2OVER, "OP_2OVER", 1, opcode2Over)
	set(OP_2ROT, "OP_2ROT", 1, opcode2Rot)
	set(OP_2SWAP, "OP_2SWAP", 1, opcode2Swap)
	set(OP_IFDUP, "OP_IFDUP", 1, opcodeIfDup)
	set(OP_DEPTH, "OP_DEPTH", 1, opcodeDepth)
	set(OP_DROP, "OP_DROP", 1, opcodeDrop)
	set(OP_DUP, "OP_DUP", 1, opcodeDup)
	set(OP_NIP, "OP_NIP", 1, opcodeNip)
	set(OP_OVER, "OP_OVER", 1, opcodeOver)
	set(OP_PICK, "OP_PICK", 1, opcodePick)
	set(OP_ROLL, "OP_ROLL", 1, opcodeRoll)
	set(OP_ROT, "OP_ROT", 1, opcodeRot)
	set(OP_SWAP, "OP_SWAP", 1, opcodeSwap)
	set(OP_TUCK, "OP_TUCK", 1, opcodeTuck)
	set(OP_CAT, "OP_CAT", 1, opcodeDisabled)
	set(OP_SUBSTR, "OP_SUBSTR", 1, opcodeDisabled)
	set(OP_LEFT, "OP_LEFT", 1, opcodeDisabled)
	set(OP_RIGHT, "OP_RIGHT", 1, opcodeDisabled)
	set(OP_SIZE, "OP_SIZE", 1, opcodeSize)
	set(OP_INVERT, "OP_INVERT", 1, opcodeDisabled)
	set(OP_AND, "OP_AND", 1, opcodeDisabled)
	set(OP_OR, "OP_OR", 1, opcodeDisabled)
	set(OP_XOR, "OP_XOR", 1, opcodeDisabled)
	set(OP_EQUAL, "OP_EQUAL", 1, opcodeEqual)
	set(OP_EQUALVERIFY, "OP_EQUALVERIFY", 1, opcodeEqualVerify)
	set(OP_RESERVED1, "OP_RESERVED1", 1, opcodeReserved)
	set(OP_RESERVED2, "OP_RESERVED2", 1, opcodeReserved)
	set(OP_1ADD, "OP_1ADD", 1, opcode1Add)
	set(OP_1SUB, "OP_1SUB", 1, opcode1Sub)
	set(OP_2MUL, "OP_2MUL", 1, opcodeDisabled)
	set(OP_2DIV, "OP_2DIV", 1, opcodeDisabled)
	set(OP_NEGATE, "OP_NEGATE", 1, opcodeNegate)
	set(OP_ABS, "OP_ABS", 1, opcodeAbs)
	set(OP_NOT, "OP_NOT", 1, opcodeNot)
	set(OP_0NOTEQUAL, "OP_0NOTEQUAL", 1, opcode0NotEqual)
	set(OP_ADD, "OP_ADD", 1, opcodeAdd)
	set(OP_SUB, "OP_SUB", 1, opcodeSub)
	set(OP_MUL, "OP_MUL", 1, opcodeDisabled)
	set(OP_DIV, "OP_DIV", 1, opcodeDisabled)
	set(OP_MOD, "OP_MOD", 1, opcodeDisabled)
	set(OP_LSHIFT, "OP_LSHIFT", 1, opcodeDisabled)
	set(OP_RSHIFT, "OP_RSHIFT", 1, opcodeDisabled)
	set(OP_BOOLAND, "OP_BOOLAND", 1, opcodeBoolAnd)
	set(OP_BOOLOR, "OP_BOOLOR", 1, opcodeBoolOr)
	set(OP_NUMEQUAL, "OP_NUMEQUAL", 1, opcodeNumEqual)
	set(OP_NUMEQUALVERIFY, "OP_NUMEQUALVERIFY", 1, opcodeNumEqualVerify)
	set(OP_NUMNOTEQUAL, "OP_NUMNOTEQUAL", 1, opcodeNumNotEqual)
	set(OP_LESSTHAN, "OP_LESSTHAN", 1, opcodeLessThan)
	set(OP_GREATERTHAN, "OP_GREATERTHAN", 1, opcodeGreaterThan)
	set(OP_LESSTHANOREQUAL, "OP_LESSTHANOREQUAL", 1, opcodeLessThanOrEqual)
	set(OP_GREATERTHANOREQUAL, "OP_GREATERTHANOREQUAL", 1, opcodeGreaterThanOrEqual)
	set(OP_MIN, "OP_MIN", 1, opcodeMin)
	set(OP_MAX, "OP_MAX", 1, opcodeMax)
	set(OP_WITHIN, "OP_WITHIN", 1, opcodeWithin)
	set(OP_RIPEMD160, "OP_RIPEMD160", 1, opcodeRipemd160)
	set(OP_SHA1, "OP_SHA1", 1, opcodeSha1)
	set(OP_SHA256, "OP_SHA256", 1, opcodeSha256)
	set(OP_HASH160, "OP_HASH160", 1, opcodeHash160)
	set(OP_HASH256, "OP_HASH256", 1, opcodeHash256)
	set(OP_CODESEPARATOR, "OP_CODESEPARATOR", 1, opcodeCodeSeparator)
	set(OP_CHECKSIG, "OP_CHECKSIG", 1, opcodeCheckSig)
	set(OP_CHECKSIGVERIFY, "OP_CHECKSIGVERIFY", 1, opcodeCheckSigVerify)
	set(OP_CHECKMULTISIG, "OP_CHECKMULTISIG", 1, opcodeCheckMultiSig)
	set(OP_CHECKMULTISIGVERIFY, "OP_CHECKMULTISIGVERIFY", 1, opcodeCheckMultiSigVerify)
	set(OP_NOP1, "OP_NOP1", 1, opcodeNop)
	set(OP_CHECKLOCKTIMEVERIFY, "OP_CHECKLOCKTIMEVERIFY", 1, opcodeCheckLockTimeVerify)
	set(OP_CHECKSEQUENCEVERIFY, "OP_CHECKSEQUENCEVERIFY", 1, opcodeCheckSequenceVerify)
	set(OP_NOP4, "OP_NOP4", 1, opcodeNop)
	set(OP_NOP5, "OP_NOP5", 1, opcodeNop)
	set(OP_NOP6, "OP_NOP6", 1, opcodeNop)
	set(OP_NOP7, "OP_NOP7", 1, opcodeNop)
	set(OP_NOP8, "OP_NOP8", 1, opcodeNop)
	set(OP_NOP9, "OP_NOP9", 1, opcodeNop)
	set(OP_NOP10, "OP_NOP10", 1, opcodeNop)

	for i := 0xba; i <= 0xfe; i++ {
		set(byte(i), fmt.Sprintf("OP_UNKNOWN%d", i), 1, opcodeInvalid)
	}
	set(OP_INVALIDOPCODE, "OP_INVALIDOPCODE", 1, opcodeInvalid)
}

// opcodeN returns an execution function that pushes the small integer n.
func opcodeN(n byte) func(*parsedOpcode, *Engine) error {
	return func(op *parsedOpcode, vm *Engine) error {
		vm.dstack.PushInt(scriptNum(n))
		return nil
	}
}
