// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package checkpoint implements self-describing UTXO-set snapshot files
//: a differential run that has already replayed the chain up
// to some height can save that height's UTXO set once, so a later run (or
// a checkpoint-sharded driver worker starting mid-chain) does not have to
// replay from genesis to reach it.
package checkpoint

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcdecoded/blvm/utxo"
	"github.com/btcdecoded/blvm/wire"
	"github.com/decred/slog"
)

var log = slog.Disabled

// UseLogger directs package log output at logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

// magic identifies a checkpoint file so a misconfigured scratch directory
// is caught immediately rather than producing a confusing decode error
// partway through a multi-gigabyte file.
var magic = [4]byte{'b', 'l', 'v', 'c'}

// formatVersion lets a future incompatible record layout be rejected
// cleanly instead of silently misparsed.
const formatVersion = 1

// recordHeaderSize is the encoded size of everything in a record other
// than its variable-length PkScript.
const recordHeaderSize = 32 + 4 + 8 + 4 + 1 + 4

// FileName returns the canonical checkpoint file name for height, matching
// the differential_checkpoints/utxo_<height>.bin convention.
func FileName(height int32) string {
	return fmt.Sprintf("utxo_%d.bin", height)
}

// Write serializes every unspent output in set to path as a checkpoint for
// height, holding an advisory lock on the file for the duration so a
// second process targeting the same checkpoint cannot interleave writes
// with this one. The file is written to a temporary path first and
// renamed into place, so a reader never observes a partially-written
// checkpoint under its final name.
func Write(dir string, height int32, set *utxo.Set) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory %s: %w", dir, err)
	}

	finalPath := filepath.Join(dir, FileName(height))
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating checkpoint %s: %w", tmpPath, err)
	}

	unlock, err := lockFile(f)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("locking checkpoint %s: %w", tmpPath, err)
	}
	defer unlock()

	if err := writeRecords(f, height, set); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing checkpoint %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming checkpoint into place at %s: %w", finalPath, err)
	}

	log.Infof("wrote checkpoint %s", finalPath)
	return nil
}

func writeRecords(f *os.File, height int32, set *utxo.Set) error {
	bw := bufio.NewWriterSize(f, 1<<20)

	if _, err := bw.Write(magic[:]); err != nil {
		return err
	}
	var header [12]byte
	binary.LittleEndian.PutUint32(header[0:4], formatVersion)
	binary.LittleEndian.PutUint32(header[4:8], uint32(height))
	countOffset := int64(len(magic) + 12)
	// Count is unknown until the set has been fully walked, so it is
	// written last and patched into the header with a final WriteAt;
	// a placeholder of zero is emitted here to hold the file's layout.
	binary.LittleEndian.PutUint32(header[8:12], 0)
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}

	var count uint32
	var walkErr error
	set.ForEach(func(outpoint wire.OutPoint, entry *utxo.Entry) bool {
		if err := encodeRecord(bw, outpoint, entry); err != nil {
			walkErr = err
			return false
		}
		count++
		return true
	})
	if walkErr != nil {
		return fmt.Errorf("writing checkpoint record: %w", walkErr)
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], count)
	if _, err := f.WriteAt(countBuf[:], countOffset); err != nil {
		return fmt.Errorf("writing checkpoint record count: %w", err)
	}

	return nil
}

func encodeRecord(w io.Writer, outpoint wire.OutPoint, entry *utxo.Entry) error {
	buf := make([]byte, recordHeaderSize+len(entry.PkScript))
	copy(buf[0:32], outpoint.Hash[:])
	binary.LittleEndian.PutUint32(buf[32:36], outpoint.Index)
	binary.LittleEndian.PutUint64(buf[36:44], uint64(entry.Amount))
	binary.LittleEndian.PutUint32(buf[44:48], uint32(entry.Height))
	if entry.IsCoinBase {
		buf[48] = 1
	}
	binary.LittleEndian.PutUint32(buf[49:53], uint32(len(entry.PkScript)))
	copy(buf[53:], entry.PkScript)
	_, err := w.Write(buf)
	return err
}

func decodeRecord(r io.Reader) (wire.OutPoint, *utxo.Entry, error) {
	header := make([]byte, recordHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return wire.OutPoint{}, nil, err
	}

	var outpoint wire.OutPoint
	copy(outpoint.Hash[:], header[0:32])
	outpoint.Index = binary.LittleEndian.Uint32(header[32:36])

	entry := &utxo.Entry{
		Amount:     int64(binary.LittleEndian.Uint64(header[36:44])),
		Height:     int32(binary.LittleEndian.Uint32(header[44:48])),
		IsCoinBase: header[48] != 0,
	}
	scriptLen := binary.LittleEndian.Uint32(header[49:53])
	if scriptLen > 0 {
		entry.PkScript = make([]byte, scriptLen)
		if _, err := io.ReadFull(r, entry.PkScript); err != nil {
			return wire.OutPoint{}, nil, fmt.Errorf("reading pk_script: %w", err)
		}
	}

	return outpoint, entry, nil
}

// Load reads the checkpoint for height from dir into a fresh utxo.Set,
// verifying the magic, format version, and declared record count.
func Load(dir string, height int32) (*utxo.Set, error) {
	path := filepath.Join(dir, FileName(height))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 1<<20)

	var gotMagic [4]byte
	if _, err := io.ReadFull(br, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("reading checkpoint magic: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("checkpoint %s does not begin with the expected magic bytes", path)
	}

	var header [12]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("reading checkpoint header: %w", err)
	}
	version := binary.LittleEndian.Uint32(header[0:4])
	if version != formatVersion {
		return nil, fmt.Errorf("checkpoint %s has format version %d, want %d", path, version, formatVersion)
	}
	storedHeight := int32(binary.LittleEndian.Uint32(header[4:8]))
	if storedHeight != height {
		return nil, fmt.Errorf("checkpoint %s is for height %d, not %d", path, storedHeight, height)
	}
	count := binary.LittleEndian.Uint32(header[8:12])

	entries := make(map[wire.OutPoint]*utxo.Entry, count)
	for uint32(len(entries)) < count {
		outpoint, entry, err := decodeRecord(br)
		if err == io.EOF {
			return nil, fmt.Errorf("checkpoint %s ends after %d of %d declared records", path, len(entries), count)
		}
		if err != nil {
			return nil, fmt.Errorf("decoding checkpoint record %d: %w", len(entries), err)
		}
		entries[outpoint] = entry
	}

	log.Infof("loaded checkpoint %s with %d entries", path, len(entries))
	return utxo.FromEntries(entries), nil
}
