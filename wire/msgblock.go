// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"

	"github.com/btcdecoded/blvm/chainhash"
)

// BlockHeaderLen is the exact on-wire size of a serialized block header:
// four 32-bit fields (version, timestamp, compact difficulty bits, nonce)
// and two 32-byte hashes.
const BlockHeaderLen = 80

// BlockHeader defines information about a block and is used in the bitcoin
// block (MsgBlock) and headers (MsgHeaders) messages.
type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// BlockHash computes the block identifier: the double-SHA256 of the
// serialized header.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	var buf bytes.Buffer
	buf.Grow(BlockHeaderLen)
	_ = h.Serialize(&buf)
	return chainhash.HashH(buf.Bytes())
}

// Serialize encodes the header to w. The header is always exactly
// BlockHeaderLen bytes.
func (h *BlockHeader) Serialize(w io.Writer) error {
	if err := binarySerializer4(w, uint32(h.Version)); err != nil {
		return err
	}
	if _, err := w.Write(h.PrevBlock[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}
	if err := binarySerializer4(w, h.Timestamp); err != nil {
		return err
	}
	if err := binarySerializer4(w, h.Bits); err != nil {
		return err
	}
	return binarySerializer4(w, h.Nonce)
}

// Deserialize decodes a header from r.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	version, err := binaryDeserializer4(r)
	if err != nil {
		return err
	}
	h.Version = int32(version)

	if _, err := io.ReadFull(r, h.PrevBlock[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return err
	}

	if h.Timestamp, err = binaryDeserializer4(r); err != nil {
		return err
	}
	if h.Bits, err = binaryDeserializer4(r); err != nil {
		return err
	}
	if h.Nonce, err = binaryDeserializer4(r); err != nil {
		return err
	}
	return nil
}

// MsgBlock implements a block message: a header followed by a non-empty
// sequence of transactions, the first of which must be coinbase.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// SerializeSize returns the number of bytes the block occupies, using the
// extended (witness) encoding for any transaction that carries witness
// data.
func (b *MsgBlock) SerializeSize() int {
	n := BlockHeaderLen
	n += VarIntSerializeSize(uint64(len(b.Transactions)))
	for _, tx := range b.Transactions {
		n += tx.SerializeSize()
	}
	return n
}

// Serialize writes header || varint(tx_count) || transactions
func (b *MsgBlock) Serialize(w io.Writer) error {
	if err := b.Header.Serialize(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(b.Transactions))); err != nil {
		return err
	}
	for _, tx := range b.Transactions {
		if err := tx.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize reads a block from r.
func (b *MsgBlock) Deserialize(r io.Reader) error {
	if err := b.Header.Deserialize(r); err != nil {
		return err
	}
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	b.Transactions = make([]*MsgTx, count)
	for i := range b.Transactions {
		tx := new(MsgTx)
		if err := tx.Deserialize(r); err != nil {
			return err
		}
		b.Transactions[i] = tx
	}
	return nil
}

// BlockHash returns the double-SHA256 hash of the block header.
func (b *MsgBlock) BlockHash() chainhash.Hash {
	return b.Header.BlockHash()
}

// Weight returns the block's weight as defined by BIP141.
func (b *MsgBlock) Weight() int64 {
	// The header and transaction count carry no witness data, so each of
	// their bytes weighs WitnessScaleFactor.
	w := int64(BlockHeaderLen+VarIntSerializeSize(uint64(len(b.Transactions)))) * WitnessScaleFactor
	for _, tx := range b.Transactions {
		w += tx.Weight()
	}
	return w
}

// HasWitness reports whether any transaction in the block carries witness
// data, requiring a witness-commitment output in the coinbase.
func (b *MsgBlock) HasWitness() bool {
	for _, tx := range b.Transactions {
		if tx.HasWitness() {
			return true
		}
	}
	return false
}

// CalcMerkleRoot returns the merkle root over the given transaction
// identifiers
func CalcMerkleRoot(ids []chainhash.Hash) chainhash.Hash {
	if len(ids) == 0 {
		return chainhash.Hash{}
	}
	if len(ids) == 1 {
		return ids[0]
	}

	level := append([]chainhash.Hash(nil), ids...)
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = hashMerkleBranches(&level[i], &level[i+1])
		}
		level = next
	}
	return level[0]
}

// WitnessCommitmentPrefix is the prefix byte sequence identifying a
// witness-commitment output: OP_RETURN OP_DATA_36 followed by a 4-byte
// magic and the 32-byte commitment hash (BIP141).
var WitnessCommitmentPrefix = []byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}

// CalcWitnessCommitment computes the witness-commitment hash that must
// appear in a specific coinbase output once any transaction in the block
// carries witness data: the double-SHA256 of the witness merkle root
// (computed over wtxids, with the coinbase's wtxid defined as all-zeros)
// concatenated with the block's witness reserved value.
func CalcWitnessCommitment(wtxids []chainhash.Hash, witnessReservedValue [32]byte) chainhash.Hash {
	witnessRoot := CalcMerkleRoot(wtxids)
	var buf [64]byte
	copy(buf[:32], witnessRoot[:])
	copy(buf[32:], witnessReservedValue[:])
	return chainhash.HashH(buf[:])
}

// FindWitnessCommitment scans a coinbase transaction's outputs in reverse
// (the standard search order) for a witness-commitment output and returns
// its 32-byte commitment hash, or false if none is present.
func FindWitnessCommitment(coinbase *MsgTx) (commitment [32]byte, found bool) {
	for i := len(coinbase.TxOut) - 1; i >= 0; i-- {
		pkScript := coinbase.TxOut[i].PkScript
		if len(pkScript) >= 38 && bytes.HasPrefix(pkScript, WitnessCommitmentPrefix) {
			copy(commitment[:], pkScript[6:38])
			return commitment, true
		}
	}
	return commitment, false
}

func hashMerkleBranches(left, right *chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.HashH(buf[:])
}
