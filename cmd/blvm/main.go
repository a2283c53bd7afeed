// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command blvm is the process surface for the consensus validator and
// sort-merge differential pipeline: it drives archive-index maintenance,
// the six-phase pipeline, the checkpoint-sharded parallel verifier, and
// divergence reporting, all over the library packages at the module root.
package main

import (
	"fmt"
	"os"
	"strings"

	flags "github.com/jessevdk/go-flags"
)

// Exit codes distinguish "the validator and the reference node disagreed"
// from every other kind of failure requirement that a
// configuration/IO failure never be confused with a genuine consensus
// divergence.
const (
	exitSuccess     = 0
	exitConfigError = 1
	exitRunError    = 2
	exitDivergence  = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, _, err := loadConfig()
	if err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			return exitSuccess
		}
		fmt.Fprintln(os.Stderr, "blvm: config error:", err)
		return exitConfigError
	}

	if err := initLogRotator(filepathJoinLog(cfg), cfg.DebugLevel); err != nil {
		fmt.Fprintln(os.Stderr, "blvm: failed to initialize logging:", err)
		return exitConfigError
	}
	defer logRotator.Close()
	applyDebugLevelOverrides(cfg.DebugLevel)

	parser := flags.NewParser(&struct{}{}, flags.Default)
	parser.SubcommandsOptional = false

	rebuild := &rebuildIndexCmd{cfg: cfg}
	pipeline := &pipelineCmd{cfg: cfg}
	verify := &verifyCmd{cfg: cfg}
	report := &reportCmd{cfg: cfg}

	mustAddCommand(parser, "rebuild-index", "Rebuild the archive's height/hash sidecar index from chunk files alone", rebuild)
	mustAddCommand(parser, "pipeline", "Run one or all phases of the sort-merge differential pipeline", pipeline)
	mustAddCommand(parser, "verify", "Run the checkpoint-sharded parallel verifier over a height range", verify)
	mustAddCommand(parser, "report", "Summarize a divergence ledger", report)

	if _, err := parser.Parse(); err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			return exitSuccess
		}
		fmt.Fprintln(os.Stderr, "blvm:", err)
		return exitConfigError
	}

	switch {
	case rebuild.ran && rebuild.err != nil:
		fmt.Fprintln(os.Stderr, "blvm: rebuild-index:", rebuild.err)
		return exitRunError
	case pipeline.ran && pipeline.err != nil:
		fmt.Fprintln(os.Stderr, "blvm: pipeline:", pipeline.err)
		return exitRunError
	case verify.ran && verify.err != nil:
		fmt.Fprintln(os.Stderr, "blvm: verify:", verify.err)
		return exitRunError
	case verify.ran && verify.divergenceFound:
		return exitDivergence
	case pipeline.ran && pipeline.divergenceFound:
		return exitDivergence
	case report.ran && report.err != nil:
		fmt.Fprintln(os.Stderr, "blvm: report:", report.err)
		return exitRunError
	case report.ran && report.divergenceFound:
		return exitDivergence
	}

	return exitSuccess
}

func mustAddCommand(parser *flags.Parser, name, short string, data interface{}) {
	if _, err := parser.AddCommand(name, short, short, data); err != nil {
		panic(err)
	}
}

func filepathJoinLog(cfg *config) string {
	return cfg.LogDir + string(os.PathSeparator) + defaultLogFilename
}

// applyDebugLevelOverrides parses --debuglevel as either a single level
// name applied to every subsystem (already done by initLogRotator) or a
// comma-separated list of TAG=LEVEL pairs overriding individual
// subsystems, matching the teacher's debug-level flag convention.
func applyDebugLevelOverrides(spec string) {
	if !strings.Contains(spec, "=") {
		return
	}
	for _, pair := range strings.Split(spec, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		tag := strings.ToUpper(strings.TrimSpace(parts[0]))
		level := strings.TrimSpace(parts[1])
		if !setSubsystemLevel(tag, level) {
			fmt.Fprintf(os.Stderr, "blvm: ignoring unknown debug-level override %q\n", pair)
		}
	}
}
