// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcdecoded/blvm/chaincfg"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "blvm.conf"
	defaultLogFilename    = "blvm.log"
	defaultArchiveDirname = "archive"
	defaultScratchDirname = "sort_merge_data"
	defaultCheckpointDirname = "differential_checkpoints"
	defaultLedgerFilename = "divergence.jsonl"
	defaultWorkers        = 4
	defaultRecordsPerRun  = 1_000_000
	defaultShardHeights   = 10_000
	defaultLogLevel       = "info"
)

// config mirrors the command's environment inputs plus the ambient
// logging/config surface: the archive location, network selector, worker count,
// sort buffer size, checkpoint cadence, and reference-node RPC settings,
// parsed from both a flat config file and the command line following the
// teacher's jessevdk/go-flags convention (params.go's network-selector
// pattern, generalized to four networks instead of three).
type config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`

	HomeDir    string `long:"homedir" description:"Directory to store data, logs, and checkpoints"`
	ArchiveDir string `long:"archivedir" description:"Path to the chunked block archive directory"`
	LogDir     string `long:"logdir" description:"Directory to log output"`
	DebugLevel string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}, or a list of TAG=LEVEL pairs"`

	TestNet3 bool `long:"testnet" description:"Use the test network"`
	RegTest  bool `long:"regtest" description:"Use the regression test network"`
	SimNet   bool `long:"simnet" description:"Use the simulation test network"`

	Workers          int    `short:"w" long:"workers" description:"Number of concurrent workers for sort-merge and the parallel verifier"`
	SortBufferSize   int    `long:"sortbuffer" description:"Records per in-memory run during external sort phases"`
	ShardHeights     int32  `long:"shardheights" description:"Height span of each parallel-verifier checkpoint shard"`
	CheckpointCadence int32 `long:"checkpointcadence" description:"Write a UTXO checkpoint every N blocks during verification"`

	RPCConnect  string `long:"rpcconnect" description:"Reference node host:port for differential comparison"`
	RPCUser     string `long:"rpcuser" description:"Reference node RPC username"`
	RPCPass     string `long:"rpcpass" description:"Reference node RPC password"`
	RPCCookie   string `long:"rpccookie" description:"Reference node RPC cookie file, used instead of rpcuser/rpcpass"`
	RPCCert     string `long:"rpccert" description:"PEM file of additional root certificates to trust for the reference node's TLS endpoint"`
	RPCNoTLS    bool   `long:"rpcnotls" description:"Disable TLS when talking to the reference node"`
	RPCProxy    string `long:"rpcproxy" description:"SOCKS5 proxy address to dial the reference node through"`

	params *chaincfg.Params
}

// netName returns the data/log subdirectory name for the active network,
// matching the teacher's params.go netName helper (testnet's directory
// name historically differs from its chaincfg.Params.Name).
func (cfg *config) netName() string {
	switch cfg.params.Net {
	case chaincfg.TestNet:
		return "testnet3"
	default:
		return cfg.params.Name
	}
}

// loadConfig parses the config file (if present) and then the command
// line over it, resolves the active network (mutually exclusive
// --testnet/--regtest/--simnet, mainnet otherwise), and fills in every
// directory default relative to --homedir.
func loadConfig() (*config, []string, error) {
	preCfg := config{
		HomeDir: defaultHomeDir(),
	}
	preParser := flags.NewParser(&preCfg, flags.Default&^flags.PrintErrors)
	_, err := preParser.Parse()
	if err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			return nil, nil, err
		}
	}

	if preCfg.ConfigFile == "" {
		preCfg.ConfigFile = filepath.Join(preCfg.HomeDir, defaultConfigFilename)
	}

	cfg := preCfg
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := os.Stat(cfg.ConfigFile); err == nil {
		if err := flags.NewIniParser(parser).ParseFile(cfg.ConfigFile); err != nil {
			return nil, nil, fmt.Errorf("parsing config file %s: %w", cfg.ConfigFile, err)
		}
	}
	remaining, err := parser.Parse()
	if err != nil {
		return nil, nil, err
	}

	numNets := 0
	cfg.params = chaincfg.MainNetParams()
	if cfg.TestNet3 {
		cfg.params = chaincfg.TestNet3Params()
		numNets++
	}
	if cfg.RegTest {
		cfg.params = chaincfg.RegNetParams()
		numNets++
	}
	if cfg.SimNet {
		cfg.params = chaincfg.SimNetParams()
		numNets++
	}
	if numNets > 1 {
		return nil, nil, fmt.Errorf("the testnet, regtest, and simnet params can't be used together -- choose one")
	}

	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = filepath.Join(cfg.HomeDir, cfg.netName(), defaultArchiveDirname)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.HomeDir, cfg.netName(), "logs")
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.SortBufferSize < 1 {
		cfg.SortBufferSize = defaultRecordsPerRun
	}
	if cfg.ShardHeights < 1 {
		cfg.ShardHeights = defaultShardHeights
	}
	if cfg.DebugLevel == "" {
		cfg.DebugLevel = defaultLogLevel
	}

	return &cfg, remaining, nil
}

func (cfg *config) scratchDir() string {
	return filepath.Join(cfg.HomeDir, cfg.netName(), defaultScratchDirname)
}

func (cfg *config) checkpointDir() string {
	return filepath.Join(cfg.HomeDir, cfg.netName(), defaultCheckpointDirname)
}

func (cfg *config) indexDir() string {
	return filepath.Join(cfg.ArchiveDir, "index")
}

func (cfg *config) ledgerPath() string {
	return filepath.Join(cfg.HomeDir, cfg.netName(), defaultLedgerFilename)
}

func defaultHomeDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, ".blvm")
}
