// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the bit-exact Bitcoin wire serialization format
// for transactions, blocks, and headers: CompactSize varints, little-endian
// fixed-width integers, and the stripped/extended (segwit) transaction
// encodings.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxVarIntPayload is the maximum payload size for a variable length integer.
const MaxVarIntPayload = 9

// errNonCanonicalVarInt is returned when a variable length integer is
// encoded in a non-minimal way.
type errNonCanonicalVarInt struct {
	discriminant byte
	value        uint64
	min          uint64
}

func (e *errNonCanonicalVarInt) Error() string {
	return fmt.Sprintf("non-canonical varint %x - discriminant %x must "+
		"encode a value greater than %x", e.value, e.discriminant, e.min)
}

// ReadVarInt reads a variable length integer (CompactSize) from r and
// returns it as a uint64. A non-minimal encoding is rejected.
func ReadVarInt(r io.Reader) (uint64, error) {
	var b [9]byte
	if _, err := io.ReadFull(r, b[:1]); err != nil {
		return 0, err
	}

	discriminant := b[0]
	switch discriminant {
	case 0xff:
		if _, err := io.ReadFull(r, b[1:9]); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint64(b[1:9])
		const min = 1 << 32
		if v < min {
			return 0, &errNonCanonicalVarInt{discriminant, v, min}
		}
		return v, nil

	case 0xfe:
		if _, err := io.ReadFull(r, b[1:5]); err != nil {
			return 0, err
		}
		v := uint64(binary.LittleEndian.Uint32(b[1:5]))
		const min = 1 << 16
		if v < min {
			return 0, &errNonCanonicalVarInt{discriminant, v, min}
		}
		return v, nil

	case 0xfd:
		if _, err := io.ReadFull(r, b[1:3]); err != nil {
			return 0, err
		}
		v := uint64(binary.LittleEndian.Uint16(b[1:3]))
		const min = 0xfd
		if v < min {
			return 0, &errNonCanonicalVarInt{discriminant, v, min}
		}
		return v, nil
	}

	return uint64(discriminant), nil
}

// WriteVarInt writes val to w using the minimal CompactSize encoding.
func WriteVarInt(w io.Writer, val uint64) error {
	if val < 0xfd {
		_, err := w.Write([]byte{byte(val)})
		return err
	}

	if val <= 0xffff {
		var b [3]byte
		b[0] = 0xfd
		binary.LittleEndian.PutUint16(b[1:], uint16(val))
		_, err := w.Write(b[:])
		return err
	}

	if val <= 0xffffffff {
		var b [5]byte
		b[0] = 0xfe
		binary.LittleEndian.PutUint32(b[1:], uint32(val))
		_, err := w.Write(b[:])
		return err
	}

	var b [9]byte
	b[0] = 0xff
	binary.LittleEndian.PutUint64(b[1:], val)
	_, err := w.Write(b[:])
	return err
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= 0xffff:
		return 3
	case val <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// ReadVarBytes reads a variable length byte array, bounded by maxAllowed,
// from r.  fieldName is used in error messages.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxAllowed {
		return nil, fmt.Errorf("%s: byte array of length %d exceeds max "+
			"allowed %d", fieldName, count, maxAllowed)
	}

	b := make([]byte, count)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes writes a variable length byte array to w.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func binarySerializer4(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func binaryDeserializer4(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func binarySerializer8(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func binaryDeserializer8(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
