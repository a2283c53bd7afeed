// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/btcdecoded/blvm/archive"
	"github.com/btcdecoded/blvm/blockchain"
	"github.com/btcdecoded/blvm/chaincfg"
	"github.com/btcdecoded/blvm/checkpoint"
	"github.com/btcdecoded/blvm/compare"
	"github.com/btcdecoded/blvm/driver"
	"github.com/btcdecoded/blvm/sortmerge"
	"github.com/btcdecoded/blvm/txscript"
	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// logRotator is the writer every subsystem's backend is routed through; it
// keeps at most a handful of rotated log files so a long-running parallel
// verification pass doesn't fill the disk with a single unbounded log.
var logRotator *rotator.Rotator

// backendLog is the shared slog.Backend every subsystem logger is carved
// out of with Logger(subsystemTag), following the one-backend-many-loggers
// convention the teacher's own log.go uses.
var backendLog *slog.Backend

// subsystemLoggers names every package that owns a package-level logger
//, so UseLogger can be called on each of them once the
// backend and per-subsystem levels are known. The tag on the left is what
// appears in each log line and in --debuglevel=TAG=LEVEL overrides.
var subsystemLoggers = map[string]func(slog.Logger){
	"CHCF": chaincfg.UseLogger,
	"TXSC": txscript.UseLogger,
	"BLKC": blockchain.UseLogger,
	"ARCH": archive.UseLogger,
	"SRTM": sortmerge.UseLogger,
	"CHKP": checkpoint.UseLogger,
	"CMPR": compare.UseLogger,
	"DRVR": driver.UseLogger,
}

// initLogRotator opens (creating any missing directories) a rotating log
// file at logFile and directs backendLog's output at both it and stdout,
// then pushes the configured level to every subsystem logger.
func initLogRotator(logFile, level string) error {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return err
	}

	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return err
	}
	logRotator = r

	backendLog = slog.NewBackend(io.MultiWriter(os.Stdout, logRotator))

	lvl, ok := slog.LevelFromString(level)
	if !ok {
		lvl = slog.LevelInfo
	}
	for tag, use := range subsystemLoggers {
		logger := backendLog.Logger(tag)
		logger.SetLevel(lvl)
		use(logger)
	}
	return nil
}

// setSubsystemLevel overrides a single subsystem's log level, parsed from
// a "TAG=LEVEL" pair in --debuglevel.
func setSubsystemLevel(tag, level string) bool {
	use, ok := subsystemLoggers[tag]
	if !ok || backendLog == nil {
		return false
	}
	lvl, ok := slog.LevelFromString(level)
	if !ok {
		return false
	}
	logger := backendLog.Logger(tag)
	logger.SetLevel(lvl)
	use(logger)
	return true
}
