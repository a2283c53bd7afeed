// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sortmerge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcdecoded/blvm/chaincfg"
	"github.com/btcdecoded/blvm/txscript"
)

// Scratch file names are fixed so a resumed run can tell whether a given
// phase's output already exists.
const (
	InputsUnsortedFile  = "inputs_unsorted.bin"
	InputsSortedFile    = "inputs_sorted.bin"
	OutputsUnsortedFile = "outputs_unsorted.bin"
	OutputsSortedFile   = "outputs_sorted.bin"
	JoinedUnsortedFile  = "joined_unsorted.bin"
	JoinedSortedFile    = "joined_sorted.bin"
	UnmatchedLogFile    = "unmatched_inputs.log"
)

// Config bundles everything Run needs to execute all six phases of the
// pipeline over a single height range.
type Config struct {
	ScratchDir     string
	Params         *chaincfg.Params
	SigCache       *txscript.SigCache
	RecordsPerRun  int
	FilterElements uint32
	Workers        int
	OnDivergence   func(Divergence)
}

// Result summarizes a completed or resumed pipeline run.
type Result struct {
	InputRecords    int64
	OutputRecords   int64
	JoinedRecords   int64
	UnmatchedInputs int64
	Verified        int64
}

func (c Config) path(name string) string {
	return filepath.Join(c.ScratchDir, name)
}

// fileExists reports whether a phase's output already exists from a prior
// run, so Run can skip straight past it.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Run executes all six phases, reading blocks from newBlockSource for
// Phase 1's input extraction, Phase 3's output extraction and Phase 6's
// re-verification, skipping any phase
// whose output file is already present so a prior partial run resumes
// rather than restarting.
//
// newBlockSource must return a fresh BlockSource positioned at the start
// of the configured height range each time it is called, since the
// archive is walked independently by Phase 1, Phase 3, and Phase 6.
func Run(cfg Config, newBlockSource func() (BlockSource, error)) (*Result, error) {
	return RunUntil(cfg, newBlockSource, 6)
}

// RunUntil executes phases 1 through lastPhase (inclusive, 1-6) and then
// stops, leaving later phases' scratch files untouched. A caller that
// drives the pipeline one subcommand invocation per phase calls RunUntil
// repeatedly with an increasing lastPhase; each call still re-checks every
// earlier phase's output file and skips it, so invoking RunUntil(cfg, src,
// n) after RunUntil(cfg, src, n-1) only performs phase n's work.
func RunUntil(cfg Config, newBlockSource func() (BlockSource, error), lastPhase int) (*Result, error) {
	result := &Result{}

	if err := os.MkdirAll(cfg.ScratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}

	if lastPhase < 1 {
		return result, nil
	}
	if err := runPhase1(cfg, newBlockSource, result); err != nil {
		return nil, err
	}
	if lastPhase < 2 {
		return result, nil
	}
	if err := runPhase2(cfg); err != nil {
		return nil, err
	}
	if lastPhase < 3 {
		return result, nil
	}
	if err := runPhase3(cfg, newBlockSource, result); err != nil {
		return nil, err
	}
	if lastPhase < 4 {
		return result, nil
	}
	if err := runPhase4(cfg, result); err != nil {
		return nil, err
	}
	if lastPhase < 5 {
		return result, nil
	}
	if err := runPhase5(cfg); err != nil {
		return nil, err
	}
	if lastPhase < 6 {
		return result, nil
	}
	if err := runPhase6(cfg, newBlockSource, result); err != nil {
		return nil, err
	}

	return result, nil
}

func runPhase1(cfg Config, newBlockSource func() (BlockSource, error), result *Result) error {
	out := cfg.path(InputsUnsortedFile)
	if fileExists(out) {
		log.Infof("phase 1: %s already present, skipping extraction", out)
		return nil
	}
	log.Info("phase 1: extracting input records")

	src, err := newBlockSource()
	if err != nil {
		return fmt.Errorf("phase 1: opening block source: %w", err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("phase 1: creating %s: %w", out, err)
	}
	defer f.Close()

	count, err := ExtractInputRecords(src, f)
	result.InputRecords = count
	if err != nil {
		return fmt.Errorf("phase 1: %w", err)
	}
	log.Infof("phase 1: extracted %d input records", count)
	return nil
}

func runPhase2(cfg Config) error {
	out := cfg.path(InputsSortedFile)
	if fileExists(out) {
		log.Infof("phase 2: %s already present, skipping sort", out)
		return nil
	}
	log.Info("phase 2: sorting input records")

	in, err := os.Open(cfg.path(InputsUnsortedFile))
	if err != nil {
		return fmt.Errorf("phase 2: opening input records: %w", err)
	}
	defer in.Close()

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("phase 2: creating %s: %w", out, err)
	}
	defer f.Close()

	recordsPerRun := cfg.RecordsPerRun
	if recordsPerRun < 1 {
		recordsPerRun = 1_000_000
	}
	return SortInputRecords(in, f, cfg.ScratchDir, recordsPerRun)
}

func runPhase3(cfg Config, newBlockSource func() (BlockSource, error), result *Result) error {
	sortedOut := cfg.path(OutputsSortedFile)
	if fileExists(sortedOut) {
		log.Infof("phase 3: %s already present, skipping extraction+sort", sortedOut)
		return nil
	}
	log.Info("phase 3: extracting and filtering output records")

	filter, err := buildFilter(cfg)
	if err != nil {
		return fmt.Errorf("phase 3: building filter: %w", err)
	}

	src, err := newBlockSource()
	if err != nil {
		return fmt.Errorf("phase 3: opening block source: %w", err)
	}

	unsortedPath := cfg.path(OutputsUnsortedFile)
	uf, err := os.Create(unsortedPath)
	if err != nil {
		return fmt.Errorf("phase 3: creating %s: %w", unsortedPath, err)
	}

	count, err := ExtractOutputRecords(src, filter, uf)
	result.OutputRecords = count
	uf.Close()
	if err != nil {
		return fmt.Errorf("phase 3: %w", err)
	}
	log.Infof("phase 3: retained %d output records", count)

	in, err := os.Open(unsortedPath)
	if err != nil {
		return fmt.Errorf("phase 3: reopening %s: %w", unsortedPath, err)
	}
	defer in.Close()

	sf, err := os.Create(sortedOut)
	if err != nil {
		return fmt.Errorf("phase 3: creating %s: %w", sortedOut, err)
	}
	defer sf.Close()

	recordsPerRun := cfg.RecordsPerRun
	if recordsPerRun < 1 {
		recordsPerRun = 1_000_000
	}
	return SortOutputRecords(in, sf, cfg.ScratchDir, recordsPerRun)
}

// buildFilter loads an ApbfFilter from the already-sorted Phase 2 input
// keys, so Phase 3 can skip outputs no input ever references. It reuses the sorted file rather than the unsorted one since Phase
// 2 must already have run by the time Phase 3 starts.
func buildFilter(cfg Config) (SpentFilter, error) {
	sortedInputs := cfg.path(InputsSortedFile)
	f, err := os.Open(sortedInputs)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", sortedInputs, err)
	}
	defer f.Close()

	maxElements := cfg.FilterElements
	if maxElements == 0 {
		maxElements = 16_000_000
	}
	filter := NewApbfFilter(maxElements)

	keys := make(chan OutpointKey, 1024)
	loadErrCh := make(chan error, 1)
	go func() {
		filter.Load(keys)
		loadErrCh <- nil
	}()

	for {
		rec, err := DecodeInputRecord(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			close(keys)
			<-loadErrCh
			return nil, fmt.Errorf("reading %s: %w", sortedInputs, err)
		}
		keys <- rec.SortKey()
	}
	close(keys)
	<-loadErrCh

	return filter, nil
}

func runPhase4(cfg Config, result *Result) error {
	out := cfg.path(JoinedUnsortedFile)
	if fileExists(out) {
		log.Infof("phase 4: %s already present, skipping merge-join", out)
		return nil
	}
	log.Info("phase 4: merge-joining inputs against outputs")

	inputs, err := os.Open(cfg.path(InputsSortedFile))
	if err != nil {
		return fmt.Errorf("phase 4: opening sorted inputs: %w", err)
	}
	defer inputs.Close()

	outputs, err := os.Open(cfg.path(OutputsSortedFile))
	if err != nil {
		return fmt.Errorf("phase 4: opening sorted outputs: %w", err)
	}
	defer outputs.Close()

	joined, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("phase 4: creating %s: %w", out, err)
	}
	defer joined.Close()

	unmatchedPath := cfg.path(UnmatchedLogFile)
	unmatchedLog, err := os.Create(unmatchedPath)
	if err != nil {
		return fmt.Errorf("phase 4: creating %s: %w", unmatchedPath, err)
	}
	defer unmatchedLog.Close()

	matched, unmatched, err := MergeJoin(inputs, outputs, joined, cfg.FilterElements > 0, func(u UnmatchedInput) error {
		_, werr := fmt.Fprintf(unmatchedLog, "height=%d tx_index=%d input_index=%d prevout=%x:%d filter_may_explain=%v\n",
			u.Input.SpendHeight, u.Input.SpendTxIndex, u.Input.SpendInputIdx,
			u.Input.PrevoutTxid, u.Input.PrevoutIndex, u.FilterMayExplain)
		return werr
	})
	result.JoinedRecords = matched
	result.UnmatchedInputs = unmatched
	if err != nil {
		return fmt.Errorf("phase 4: %w", err)
	}
	if unmatched > 0 {
		log.Warnf("phase 4: %d inputs had no matching output; see %s", unmatched, unmatchedPath)
	}
	return nil
}

func runPhase5(cfg Config) error {
	out := cfg.path(JoinedSortedFile)
	if fileExists(out) {
		log.Infof("phase 5: %s already present, skipping sort", out)
		return nil
	}
	log.Info("phase 5: sorting joined records into spend order")

	in, err := os.Open(cfg.path(JoinedUnsortedFile))
	if err != nil {
		return fmt.Errorf("phase 5: opening joined records: %w", err)
	}
	defer in.Close()

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("phase 5: creating %s: %w", out, err)
	}
	defer f.Close()

	recordsPerRun := cfg.RecordsPerRun
	if recordsPerRun < 1 {
		recordsPerRun = 1_000_000
	}
	return SortJoinedRecords(in, f, cfg.ScratchDir, recordsPerRun)
}

func runPhase6(cfg Config, newBlockSource func() (BlockSource, error), result *Result) error {
	log.Info("phase 6: re-verifying scripts against joined prevouts")

	src, err := newBlockSource()
	if err != nil {
		return fmt.Errorf("phase 6: opening block source: %w", err)
	}

	joined, err := os.Open(cfg.path(JoinedSortedFile))
	if err != nil {
		return fmt.Errorf("phase 6: opening %s: %w", JoinedSortedFile, err)
	}
	defer joined.Close()

	verified, err := VerifyJoined(blockSourceAdapter{src}, joined, VerifyOptions{
		Params:   cfg.Params,
		SigCache: cfg.SigCache,
		Workers:  cfg.Workers,
		OnResult: cfg.OnDivergence,
	})
	result.Verified = verified
	if err != nil {
		return fmt.Errorf("phase 6: %w", err)
	}
	log.Infof("phase 6: re-verified %d inputs", verified)
	return nil
}

// blockSourceAdapter satisfies BlockReader with a BlockSource, since the
// two interfaces are structurally identical but kept distinct so Phase 1
// / Phase 3 and Phase 6 can evolve independently.
type blockSourceAdapter struct {
	src BlockSource
}

func (a blockSourceAdapter) Next() (int32, []byte, error) {
	return a.src.Next()
}
